// Package features provides shared test utilities for UI feature tests.
package features

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/require"
)

// RequestWithPathParam wraps a request with chi URL params.
func RequestWithPathParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// NewTestSessionStore creates a session store for testing.
func NewTestSessionStore() *sessions.CookieStore {
	return sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!"))
}

// WriteCharts writes name.chart files into a temp directory and returns it.
func WriteCharts(t *testing.T, charts map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range charts {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name+".chart"), []byte(content), 0o600))
	}
	return dir
}

// StreamRecorder is a ResponseWriter safe to read while a long-lived
// handler is still writing to it.
type StreamRecorder struct {
	mu     sync.Mutex
	header http.Header
	code   int
	body   bytes.Buffer
}

// NewStreamRecorder creates a StreamRecorder.
func NewStreamRecorder() *StreamRecorder {
	return &StreamRecorder{header: http.Header{}}
}

// Header implements http.ResponseWriter.
func (s *StreamRecorder) Header() http.Header { return s.header }

// WriteHeader implements http.ResponseWriter.
func (s *StreamRecorder) WriteHeader(code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.code == 0 {
		s.code = code
	}
}

// Write implements http.ResponseWriter.
func (s *StreamRecorder) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.code == 0 {
		s.code = http.StatusOK
	}
	return s.body.Write(p)
}

// Flush implements http.Flusher.
func (s *StreamRecorder) Flush() {}

// Body returns everything written so far.
func (s *StreamRecorder) Body() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.body.String()
}

// Code returns the status code written so far.
func (s *StreamRecorder) Code() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.code
}
