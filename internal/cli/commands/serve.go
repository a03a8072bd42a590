package commands

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapchart/internal/ui"
	"github.com/leapstack-labs/leapchart/internal/ui/features/charts"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	Open bool
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"ui"},
		Short:   "Serve charts in the browser",
		Long: `Start a local web server that renders every chart in the templates
directory. Charts re-render when their files, the macros or the fragments
change, and refresh their data on the configured interval.`,
		Example: `  # Serve on the default port
  leapchart serve

  # Serve on a custom port, refreshing data every 30 seconds
  leapchart serve --port 3000 --refresh 30s`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().Int("port", 0, "Port to serve on (default: 8765)")
	cmd.Flags().Bool("watch", true, "Watch chart and macro files for changes")
	cmd.Flags().Duration("refresh", 0, "Data refresh interval (0 disables)")
	cmd.Flags().Bool("dev", false, "Serve assets from disk and enable live reload")
	cmd.Flags().BoolVar(&opts.Open, "open", false, "Open the browser once the server starts")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cc := NewCommandContext(cmd)
	cfg := cc.Cfg

	src, err := cc.OpenSource(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	store, err := cc.OpenStore(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	server := ui.NewServer(ui.Config{
		Port:          cfg.UI.Port,
		Watch:         cfg.UI.Watch,
		SessionSecret: cfg.UI.SessionSecret,
		TemplatesDir:  cfg.TemplatesDir,
		MacrosDir:     cfg.MacrosDir,
		Dev:           cfg.UI.Dev,
		Logger:        cc.Logger,
		Fragments:     store,
	})

	deps := charts.Deps{
		Pipeline:        cc.Pipeline(src, store),
		Evaluator:       cc.Evaluator(),
		Notifier:        server.Notifier(),
		RefreshInterval: cfg.UI.RefreshInterval,
		Logger:          cc.Logger,
		IsDev:           server.IsDev(),
	}
	if err := server.Registry().Register(charts.ViewKey, charts.Register(deps, cfg.AdvancedMode)); err != nil {
		return fmt.Errorf("failed to register chart view: %w", err)
	}

	url := fmt.Sprintf("http://localhost:%d", cfg.UI.Port)
	if opts.Open {
		go openBrowser(url)
	}

	_, _ = fmt.Fprintf(cc.Out, "Serving charts from %s on %s\n", cfg.TemplatesDir, url)
	_, _ = fmt.Fprintln(cc.Out, "Press Ctrl+C to stop")

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	return server.Serve(ctx)
}

// openBrowser opens the default browser to the specified URL.
func openBrowser(url string) {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url) //nolint:noctx
	case "linux":
		cmd = exec.Command("xdg-open", url) //nolint:noctx
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url) //nolint:noctx
	default:
		return
	}

	_ = cmd.Start()
}
