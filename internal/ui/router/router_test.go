package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapchart/internal/ui/host"
)

func TestSetupRoutes(t *testing.T) {
	h := host.New(sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!")))
	require.NoError(t, h.RegisterView(host.View{Key: "ping", Routes: func(r chi.Router) {
		r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("pong")) })
	}}))

	tests := []struct {
		name       string
		isDev      bool
		path       string
		wantStatus int
	}{
		{name: "view route", path: "/ping", wantStatus: http.StatusOK},
		{name: "static asset", path: "/static/leapchart.js", wantStatus: http.StatusOK},
		{name: "hotreload in dev", isDev: true, path: "/hotreload", wantStatus: http.StatusOK},
		{name: "no hotreload in prod", path: "/hotreload", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := chi.NewRouter()
			SetupRoutes(r, h, tt.isDev)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
