package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/cfr-ingest/internal/config"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
	logFormat  string
	noColor    bool
	quiet      bool
}

func newRootCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "cfr-ingest",
		Short:         "Ingest the Code of Federal Regulations into PostgreSQL",
		Long:          "cfr-ingest fetches agencies, titles, structure and full text from the eCFR API, derives text metrics and references, and stores them with resumable checkpoints.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if g.noColor {
				color.NoColor = true
			}
		},
	}

	cmd.PersistentFlags().StringVar(&g.configPath, "config", os.Getenv("CFR_CONFIG"), "YAML config file (env CFR_CONFIG)")
	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn, error")
	cmd.PersistentFlags().StringVar(&g.logFormat, "log-format", "", "log format: text or json")
	cmd.PersistentFlags().BoolVar(&g.noColor, "no-color", false, "disable colored output")
	cmd.PersistentFlags().BoolVarP(&g.quiet, "quiet", "q", false, "suppress progress output")

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return withExit(ExitConfig, err)
	})

	cmd.AddCommand(newIngestCmd(g))
	cmd.AddCommand(newStatusCmd(g))
	cmd.AddCommand(newResetCmd(g))
	cmd.AddCommand(newServeCmd(g))
	return cmd
}

// load resolves configuration and the logger for a command.
func (g *globalFlags) load(stderr io.Writer) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, nil, withExit(ExitConfig, err)
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	if g.logFormat != "" {
		cfg.Log.Format = g.logFormat
		if err := cfg.Validate(); err != nil {
			return nil, nil, withExit(ExitConfig, err)
		}
	}

	logger := newLogger(cfg.Log, stderr)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// execute runs the CLI and returns the process exit code.
func execute(args []string) int {
	var g globalFlags
	cmd := newRootCmd(&g)
	cmd.SetArgs(args)

	err := cmd.Execute()
	if err == nil {
		return ExitSuccess
	}

	code := exitCode(err)
	var ee *exitError
	if code == ExitInterrupted && !errors.As(err, &ee) {
		warningf(cmd.ErrOrStderr(), "interrupted; rerun to resume from the last checkpoint")
	} else {
		errorf(cmd.ErrOrStderr(), "%v", err)
	}
	return code
}
