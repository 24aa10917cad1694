package main

import (
	"errors"

	"github.com/spf13/cobra"
)

var errResetNotConfirmed = errors.New("reset deletes all ingested data; pass --yes to confirm")

func newResetCmd(g *globalFlags) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all ingested data and the checkpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return withExit(ExitConfig, errResetNotConfirmed)
			}

			cfg, logger, err := g.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			ctx, stop := signalContext()
			defer stop()

			a, err := newApp(ctx, cfg, logger, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.ingestor.Reset(ctx); err != nil {
				return err
			}
			successf(cmd.OutOrStdout(), "All ingested data and the checkpoint were removed")
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")
	return cmd
}
