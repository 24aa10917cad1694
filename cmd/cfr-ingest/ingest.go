package main

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/cfr-ingest/internal/core/domain"
)

func newIngestCmd(g *globalFlags) *cobra.Command {
	var (
		fresh       bool
		titles      []int
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Run an ingestion pass, resuming from the last checkpoint",
		Long: `Fetch every agency and its titles from the eCFR API and store structure,
versions, text metrics and references. Progress is checkpointed after each
title and agency; an interrupted run resumes where it stopped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := runOptions(fresh, titles)
			if err != nil {
				return withExit(ExitConfig, err)
			}

			cfg, logger, err := g.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("metrics-addr") {
				cfg.Metrics.Addr = metricsAddr
			}

			ctx, stop := signalContext()
			defer stop()

			progress := newProgressReporter(cmd.ErrOrStderr(), !g.quiet && stderrIsTerminal(), g.noColor, logger)

			a, err := newApp(ctx, cfg, logger, progress)
			if err != nil {
				return err
			}
			defer a.Close()

			var wg sync.WaitGroup
			srvCtx, cancelSrv := context.WithCancel(ctx)
			if cfg.Metrics.Addr != "" {
				srv := a.opsServer(cfg.Metrics.Addr)
				wg.Add(1)
				go func() {
					defer wg.Done()
					if err := srv.Run(srvCtx); err != nil {
						logger.Error("ops server failed", "error", err)
					}
				}()
			}

			res, runErr := a.ingestor.Run(ctx, opts)
			progress.Finish()
			cancelSrv()
			wg.Wait()

			printRunResult(cmd.OutOrStdout(), res)
			return runErr
		},
	}

	cmd.Flags().BoolVar(&fresh, "fresh", false, "ignore and clear the stored checkpoint")
	cmd.Flags().IntSliceVar(&titles, "title", nil, "only process these title numbers (repeatable)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve ops endpoints on this address during the run")
	return cmd
}

// runOptions validates flags into RunOptions.
func runOptions(fresh bool, titles []int) (domain.RunOptions, error) {
	seen := make(map[int]bool, len(titles))
	var out []int
	for _, n := range titles {
		if n <= 0 {
			return domain.RunOptions{}, fmt.Errorf("%w: title number %d", domain.ErrInvalidInput, n)
		}
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	sort.Ints(out)
	return domain.RunOptions{Fresh: fresh, Titles: out}, nil
}
