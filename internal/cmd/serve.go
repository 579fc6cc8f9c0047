package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/robertguss/steershaft-checklist/internal/api"
	"github.com/robertguss/steershaft-checklist/internal/logging"
)

func newServeCmd(f *flags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the checklist to a browser kiosk",
		Long: `Runs the checklist headless behind a REST API with a WebSocket feed of
session snapshots, for a browser front-end on the shop floor.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, f)
			if err != nil {
				return err
			}
			defer func() { _ = logging.Close() }()
			if cmd.Flags().Changed("addr") {
				e.cfg.APIAddr = addr
			}

			w, err := e.startWatcher(func(path string, err error) {
				if err != nil {
					logging.Logger.Warn("Checklist watch error", "error", err)
					return
				}
				name, steps, err := e.reloader()()
				if err != nil {
					logging.Logger.Warn("Checklist reload failed", "path", path, "error", err)
					return
				}
				e.controller.ReplaceSteps(steps)
				logging.Logger.Info("Checklist reloaded", "checklist", name)
			})
			if err != nil {
				return err
			}
			if w != nil {
				defer func() { _ = w.Stop() }()
			}

			for _, check := range e.preflight().FailedChecks() {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s: %s\n", check.Name, check.Error)
			}

			srv := api.NewServer(e.cfg, e.controller)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start(e.cfg.APIAddr) }()
			fmt.Fprintf(cmd.OutOrStdout(), "Serving checklist %q on %s\n", e.definition.Name, e.cfg.APIAddr)

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Stop(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return <-errCh
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	return cmd
}
