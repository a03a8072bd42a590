package host

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapchart/pkg/core"
)

func newHost() *Host {
	return New(sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!")))
}

func TestHost_Views(t *testing.T) {
	h := newHost()
	require.NoError(t, h.RegisterView(View{Key: "chart", Routes: func(r chi.Router) {
		r.Get("/charts", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("charts")) })
	}}))
	require.NoError(t, h.RegisterView(View{Key: "about"}))
	assert.ErrorIs(t, h.RegisterView(View{Key: "chart"}), ErrDuplicateView)
	assert.Error(t, h.RegisterView(View{}))

	views := h.Views()
	require.Len(t, views, 2)
	assert.Equal(t, "about", views[0].Key)

	r := chi.NewRouter()
	h.Mount(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/charts", nil))
	assert.Equal(t, "charts", rec.Body.String())
}

func TestHost_Flags(t *testing.T) {
	h := newHost()
	h.RegisterFlag(Flag{Key: core.FlagAdvancedMode, Label: "Advanced mode"})
	h.RegisterFlag(Flag{Key: "darkMode", Default: true})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, core.Flags{core.FlagAdvancedMode: false, "darkMode": true}, h.FlagsFor(req))

	rec := httptest.NewRecorder()
	require.NoError(t, h.SetFlag(rec, req, core.FlagAdvancedMode, true))
	assert.Error(t, h.SetFlag(httptest.NewRecorder(), req, "nope", true))

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		next.AddCookie(c)
	}
	assert.True(t, h.FlagsFor(next).AdvancedMode())
}
