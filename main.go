package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/namanNagelia/canvasAgents/api"
	"github.com/namanNagelia/canvasAgents/config"
	"github.com/namanNagelia/canvasAgents/diagram"
	"github.com/namanNagelia/canvasAgents/logging"
	"github.com/namanNagelia/canvasAgents/render"
	"github.com/namanNagelia/canvasAgents/store"
	"github.com/namanNagelia/canvasAgents/tui"
)

var (
	// Global flags
	configPath string
	verbose    bool

	cfg *config.Config
)

// rootCmd starts the interactive client
var rootCmd = &cobra.Command{
	Use:   "canvas",
	Short: "Terminal client for the canvas AI learning assistant",
	Long: `canvas talks to the learning backend's agents (notes, research, step-by-step,
diagrams, flashcards, Feynman explanations) and renders their answers in the terminal.

Run without arguments to start the interactive interface.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if _, err := logging.Initialize(logging.Options{
			Level: cfg.Logging.Level,
			File:  cfg.Logging.File,
		}, verbose); err != nil {
			return err
		}
		if wrote, err := config.WriteDefaults(configPath); err != nil {
			logging.Get(logging.CategoryBoot).Warn("could not write default config", zap.Error(err))
		} else if wrote {
			logging.Get(logging.CategoryBoot).Info("wrote default config", zap.String("path", configPath))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
	RunE: runInteractive,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(sessionsCmd, loginCmd, logoutCmd, registerCmd, renderCmd, askCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runInteractive(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	timeout, _ := cfg.Timeout()
	diagrams := newDiagramCache()

	opts := tui.Options{
		Backend:      client,
		Diagrams:     diagrams,
		Renderer:     newRenderer(diagrams),
		Timeout:      timeout,
		DefaultAgent: cfg.DefaultAgent(),
	}
	// a nil *store.Cache must not end up inside the interface
	if cache := openCache(); cache != nil {
		defer cache.Close()
		opts.Cache = cache
	}

	p := tea.NewProgram(tui.NewModel(opts), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("interface exited: %w", err)
	}
	return nil
}

func newClient() (*api.Client, error) {
	timeout, err := cfg.Timeout()
	if err != nil {
		return nil, err
	}
	return api.New(api.Options{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   timeout,
		TokenPath: config.TokenPath(),
	})
}

func newDiagramCache() *diagram.Cache {
	if cfg.Diagram.Renderer == "mmdc" {
		return diagram.NewCache(diagram.CLIRenderer{
			Binary:    cfg.Diagram.MMDCPath,
			OutputDir: cfg.Diagram.OutputDir,
		})
	}
	return diagram.NewCache(diagram.CheckRenderer{})
}

func newRenderer(diagrams *diagram.Cache) *render.Renderer {
	return render.New(render.Options{
		Theme:        cfg.UI.Theme,
		Width:        cfg.UI.WordWrap,
		ShowPlanning: cfg.UI.ShowPlanning,
	}, diagrams)
}

// openCache returns nil when caching is disabled or the database cannot
// be opened; the client then runs without offline fallback.
func openCache() *store.Cache {
	if !cfg.Cache.Enabled {
		return nil
	}
	cache, err := store.Open(cfg.Cache.Path)
	if err != nil {
		logging.Get(logging.CategoryStore).Warn("transcript cache unavailable", zap.Error(err))
		return nil
	}
	return cache
}

// signalContext is cancelled on interrupt or after the configured timeout.
func signalContext() (context.Context, context.CancelFunc) {
	timeout, _ := cfg.Timeout()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}
