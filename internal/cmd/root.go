// Package cmd implements the CLI commands for the checklist.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/robertguss/steershaft-checklist/internal/app"
	"github.com/robertguss/steershaft-checklist/internal/checklist"
	"github.com/robertguss/steershaft-checklist/internal/config"
	"github.com/robertguss/steershaft-checklist/internal/domain"
	"github.com/robertguss/steershaft-checklist/internal/logging"
	"github.com/robertguss/steershaft-checklist/internal/preflight"
	"github.com/robertguss/steershaft-checklist/internal/submit"
	"github.com/robertguss/steershaft-checklist/internal/theme"
	"github.com/robertguss/steershaft-checklist/internal/watcher"
	"github.com/robertguss/steershaft-checklist/internal/wizard"
)

// flags holds values that override the config file and environment
type flags struct {
	configPath string
	submitURL  string
	checklist  string
	dataDir    string
	theme      string
	logFile    string
	debug      bool
	watch      bool
	timeout    time.Duration
}

// Execute runs the CLI
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd builds the command tree
func NewRootCmd() *cobra.Command {
	return newRootCmd(&flags{})
}

func newRootCmd(f *flags) *cobra.Command {
	root := &cobra.Command{
		Use:   "checklist",
		Short: "Steershaft quality-control checklist",
		Long: `Guides an operator through the steershaft inspection checklist for a batch
of scanned work orders, then submits the results to the sheet-generation
service.

Without a subcommand the checklist runs in the terminal.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, f)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&f.configPath, "config", "c", "", "config file (default <data-dir>/config.yaml)")
	pf.StringVar(&f.submitURL, "submit-url", "", "sheet-generation endpoint")
	pf.DurationVar(&f.timeout, "submit-timeout", 0, "submission timeout (0 waits for the transport)")
	pf.StringVar(&f.checklist, "checklist", "", "active checklist name")
	pf.StringVar(&f.dataDir, "data-dir", "", "directory holding config and checklists")
	pf.StringVar(&f.theme, "theme", "", "theme name or path to a YAML palette")
	pf.StringVar(&f.logFile, "log-file", "", "write logs to this file")
	pf.BoolVar(&f.debug, "debug", false, "enable debug logging")
	pf.BoolVar(&f.watch, "watch", false, "reload the checklist when its file changes")

	root.AddCommand(newServeCmd(f))
	root.AddCommand(newStepsCmd(f))
	return root
}

// env is everything a command needs once configuration is resolved
type env struct {
	cfg        *config.Config
	store      *checklist.Store
	definition *checklist.Definition
	controller *wizard.Controller
}

// loadConfig resolves defaults, file, environment and flags in that order
func loadConfig(cmd *cobra.Command, f *flags) (*config.Config, error) {
	changed := cmd.Flags().Changed

	var cfg *config.Config
	var err error
	if f.configPath == "" && changed("data-dir") {
		cfg, err = config.LoadDir(f.dataDir)
	} else {
		cfg, err = config.Load(f.configPath)
	}
	if err != nil {
		return nil, err
	}

	if changed("submit-url") {
		cfg.SubmitURL = f.submitURL
	}
	if changed("submit-timeout") {
		cfg.SubmitTimeout = f.timeout
	}
	if changed("checklist") {
		cfg.ActiveChecklist = f.checklist
	}
	if changed("data-dir") {
		cfg.DataDir = f.dataDir
	}
	if changed("theme") {
		cfg.Theme = f.theme
	}
	if changed("log-file") {
		cfg.LogFile = f.logFile
	}
	if changed("debug") {
		cfg.Debug = f.debug
	}
	if changed("watch") {
		cfg.WatchEnabled = f.watch
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// setup loads configuration, logging, the active checklist and the
// controller.
func setup(cmd *cobra.Command, f *flags) (*env, error) {
	cfg, err := loadConfig(cmd, f)
	if err != nil {
		return nil, err
	}

	if _, err := logging.Initialize(logging.Options{
		Debug:       cfg.Debug,
		File:        cfg.LogFile,
		MaxLogFiles: cfg.MaxLogFiles,
	}); err != nil {
		return nil, err
	}

	store := checklist.NewStore(cfg.DataDir)
	if err := store.Load(); err != nil {
		_ = logging.Close()
		return nil, err
	}
	def, err := store.Reload(cfg.ActiveChecklist)
	if err != nil {
		_ = logging.Close()
		return nil, fmt.Errorf("failed to load checklist %q: %w", cfg.ActiveChecklist, err)
	}

	client := submit.NewClient(cfg.SubmitURL, submit.WithTimeout(cfg.SubmitTimeout))
	controller := wizard.New(def.DomainSteps(), client)

	logging.Logger.Info("Checklist loaded",
		"checklist", def.Name,
		"steps", len(def.Steps),
		"submit_url", cfg.SubmitURL,
		"config", cfg.Source(),
	)

	return &env{cfg: cfg, store: store, definition: def, controller: controller}, nil
}

// reloader re-reads the active checklist definition
func (e *env) reloader() app.Reloader {
	return func() (string, []domain.Step, error) {
		def, err := e.store.Reload(e.cfg.ActiveChecklist)
		if err != nil {
			return "", nil, err
		}
		return def.Name, def.DomainSteps(), nil
	}
}

// preflight runs the startup checks and logs every failure
func (e *env) preflight() *preflight.Results {
	results := preflight.RunAll(e.cfg, e.definition)
	for _, check := range results.FailedChecks() {
		logging.Logger.Warn("Preflight check failed", "check", check.Name, "error", check.Error, "blocking", !check.Warning)
	}
	return results
}

// startWatcher watches the active checklist file when watch mode is on
func (e *env) startWatcher(handler watcher.Handler) (*watcher.Watcher, error) {
	if !e.cfg.WatchEnabled {
		return nil, nil
	}
	w := watcher.New(e.cfg.Debounce(), handler)
	w.AddPath(e.store.Path(e.cfg.ActiveChecklist))
	if err := w.Start(); err != nil {
		return nil, fmt.Errorf("failed to watch checklist: %w", err)
	}
	return w, nil
}

func runTUI(cmd *cobra.Command, f *flags) error {
	e, err := setup(cmd, f)
	if err != nil {
		return err
	}
	defer func() { _ = logging.Close() }()

	if err := theme.Apply(e.cfg.Theme); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	model := app.New(e.cfg, e.controller,
		app.WithReloader(e.reloader()),
		app.WithContext(ctx),
		app.WithPreflight(e.preflight()),
	)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	w, err := e.startWatcher(watcher.ForProgram(p))
	if err != nil {
		return err
	}
	if w != nil {
		defer func() { _ = w.Stop() }()
	}

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running checklist: %w", err)
	}
	return nil
}
