package main

import (
	"github.com/spf13/cobra"

	httpadapter "github.com/custodia-labs/cfr-ingest/internal/adapters/driving/http"
)

func newServeCmd(g *globalFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve health, readiness, metrics and progress endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := g.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") || cfg.Metrics.Addr == "" {
				cfg.Metrics.Addr = addr
			}

			ctx, stop := signalContext()
			defer stop()

			a, err := newApp(ctx, cfg, logger, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.opsServer(cfg.Metrics.Addr).Run(ctx); err != nil {
				return withExit(ExitInternal, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", httpadapter.DefaultAddr, "listen address")
	return cmd
}
