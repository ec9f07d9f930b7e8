// Package cmd defines the wikirefs command line interface.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/wikirefs/internal/app"
	"github.com/JakeFAU/wikirefs/internal/config"
	"github.com/JakeFAU/wikirefs/internal/harvest"
	"github.com/JakeFAU/wikirefs/internal/logging"
)

// Process exit codes.
const (
	ExitOK            = 0
	ExitInitFailure   = 1
	ExitSearchFailure = 2
)

// newRootCmd creates the root command. The run transcript goes to the
// command's output writer and logs go to stderr.
func newRootCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "wikirefs",
		Short: "Collect external references for Wikipedia pages matching a query.",
		Long: `wikirefs searches Wikipedia for topics related to a query, fetches the
external references of every matching page, and saves the results to
<output_dir>/wikipedia_references.json. Pages are fetched sequentially,
concurrently through a bounded worker pool, or both, and each run is timed.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return run(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringP("query", "q", "generative artificial intelligence", "The search query for Wikipedia topics.")
	flags.StringP("output_dir", "o", "wikipedia_references", "Directory to save the output JSON file.")
	flags.StringP("mode", "m", string(harvest.ModeBoth), "Execution mode: sequential, concurrent, or both.")
	flags.IntP("max_workers", "w", 5, "Maximum number of worker goroutines for concurrent execution.")
	flags.StringVar(&cfgFile, "config", "", "Path to an optional config file (yaml, json or toml).")

	return cmd
}

func run(ctx context.Context, cfg config.Config, out io.Writer) error {
	logger, err := logging.New(logging.Config{Development: cfg.Logging.Development, Level: cfg.Logging.Level})
	if err != nil {
		return fmt.Errorf("logger init failed: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()
	zap.ReplaceGlobals(logger)

	deps, closeDeps, err := buildDeps(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeDeps()
	deps.Out = out

	_, err = app.Run(ctx, app.Options{
		Query:           cfg.Run.Query,
		Mode:            cfg.Mode(),
		MaxWorkers:      cfg.Run.MaxWorkers,
		MetricsTextfile: cfg.Metrics.Textfile,
	}, deps)
	return err
}

// Execute runs the root command against os.Args and returns the exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}
	var searchErr *harvest.SearchError
	if errors.As(err, &searchErr) {
		// The diagnostic is already part of the transcript.
		return ExitSearchFailure
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return ExitInitFailure
}
