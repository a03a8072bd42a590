package charts

import (
	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/leapchart/internal/ui/host"
	"github.com/leapstack-labs/leapchart/pkg/core"
)

// ViewKey is the key the chart view registers under.
const ViewKey = "chart"

// Register returns the host subscriber that installs the chart view and
// the advanced mode flag. advanced is the flag's default.
func Register(deps Deps, advanced bool) func(*host.Host) error {
	return func(h *host.Host) error {
		handlers := NewHandlers(deps, h)
		h.RegisterFlag(host.Flag{
			Key:     core.FlagAdvancedMode,
			Label:   "Advanced mode (script templates)",
			Default: advanced,
		})
		return h.RegisterView(host.View{
			Key:    ViewKey,
			Title:  "Charts",
			Routes: handlers.SetupRoutes,
		})
	}
}

// SetupRoutes configures routes for the chart view.
func (h *Handlers) SetupRoutes(router chi.Router) {
	router.Get("/", h.IndexPage)
	router.Get("/charts/{name}", h.ChartPage)
	router.Get("/charts/{name}/sse", h.ChartUpdates)

	router.Route("/api", func(api chi.Router) {
		api.Post("/flags", h.SetFlag)
		api.Route("/surfaces/{id}", func(s chi.Router) {
			s.Post("/resize", h.Resize)
			s.Post("/viewport", h.Viewport)
			s.Post("/modal", h.ModalSize)
			s.Post("/key", h.Key)
			s.Post("/fullscreen", h.Fullscreen)
			s.Post("/close", h.Close)
		})
	})
}
