// Package host is the API the UI server publishes to its subscribers:
// views that mount routes and flags that browsers can toggle.
package host

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/leapstack-labs/leapchart/pkg/core"
)

// SessionName is the cookie session holding per-browser flags.
const SessionName = "leapchart"

// ErrDuplicateView is returned when a view key is registered twice.
var ErrDuplicateView = errors.New("view already registered")

// View is a page family mounted under its own routes.
type View struct {
	Key    string
	Title  string
	Routes func(r chi.Router)
}

// Flag is a named boolean switch kept in the browser session.
type Flag struct {
	Key     string
	Label   string
	Default bool
}

// Host collects registrations.
type Host struct {
	sessions sessions.Store

	mu    sync.RWMutex
	views map[string]View
	flags map[string]Flag
}

// New creates a Host storing flags in store.
func New(store sessions.Store) *Host {
	return &Host{
		sessions: store,
		views:    map[string]View{},
		flags:    map[string]Flag{},
	}
}

// RegisterView adds a view.
func (h *Host) RegisterView(v View) error {
	if v.Key == "" {
		return errors.New("view key is empty")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.views[v.Key]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateView, v.Key)
	}
	h.views[v.Key] = v
	return nil
}

// RegisterFlag adds a flag. Registering a key again replaces its label
// and default.
func (h *Host) RegisterFlag(f Flag) {
	h.mu.Lock()
	h.flags[f.Key] = f
	h.mu.Unlock()
}

// Views returns the views sorted by key.
func (h *Host) Views() []View {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]View, 0, len(h.views))
	for _, v := range h.views {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Flags returns the flags sorted by key.
func (h *Host) Flags() []Flag {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Flag, 0, len(h.flags))
	for _, f := range h.flags {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Mount mounts every view's routes on r.
func (h *Host) Mount(r chi.Router) {
	for _, v := range h.Views() {
		if v.Routes != nil {
			v.Routes(r)
		}
	}
}

// FlagsFor returns the flag values of the browser sending r.
func (h *Host) FlagsFor(r *http.Request) core.Flags {
	flags := core.Flags{}
	var values map[any]any
	if sess, err := h.sessions.Get(r, SessionName); err == nil {
		values = sess.Values
	}
	for _, f := range h.Flags() {
		flags[f.Key] = f.Default
		if v, ok := values[f.Key].(bool); ok {
			flags[f.Key] = v
		}
	}
	return flags
}

// SetFlag stores a flag value in the browser session.
func (h *Host) SetFlag(w http.ResponseWriter, r *http.Request, key string, value bool) error {
	h.mu.RLock()
	_, ok := h.flags[key]
	h.mu.RUnlock()
	if !ok {
		return fmt.Errorf("unknown flag %q", key)
	}
	sess, err := h.sessions.Get(r, SessionName)
	if err != nil && sess == nil {
		return fmt.Errorf("loading session: %w", err)
	}
	sess.Values[key] = value
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}
