// Package app wires the dispatcher, runners, and sinks into a single harvest
// run and prints the run transcript.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/JakeFAU/wikirefs/internal/dispatcher"
	"github.com/JakeFAU/wikirefs/internal/harvest"
	"github.com/JakeFAU/wikirefs/internal/hash/sha256"
	"github.com/JakeFAU/wikirefs/internal/metrics"
	"github.com/JakeFAU/wikirefs/internal/sink"
	"github.com/JakeFAU/wikirefs/internal/worker"
)

// Options holds the per-run settings resolved from configuration.
type Options struct {
	Query           string
	Mode            harvest.Mode
	MaxWorkers      int
	MetricsTextfile string
}

// ResultSink persists the aggregate record sequence.
type ResultSink interface {
	Save(ctx context.Context, records []harvest.Record) (string, error)
}

// RecordStore receives one report per executed runner.
type RecordStore interface {
	StoreReport(ctx context.Context, runID string, report harvest.Report) error
}

// ArtifactStore keeps a remote copy of the encoded artifact.
type ArtifactStore interface {
	PutArtifact(ctx context.Context, runID, name string, data []byte) (string, error)
}

// Notifier announces a completed run.
type Notifier interface {
	Publish(ctx context.Context, attrs map[string]string, payload any) (string, error)
}

// Deps are the collaborators of a run. Records, Artifacts and Notifier are
// optional; a nil value disables that export.
type Deps struct {
	Client    harvest.Client
	Sink      ResultSink
	Clock     harvest.Clock
	IDs       harvest.IDGenerator
	Records   RecordStore
	Artifacts ArtifactStore
	Notifier  Notifier
	Out       io.Writer
	Logger    *zap.Logger
}

// Summary describes what a run produced.
type Summary struct {
	RunID        string
	Topics       []string
	Reports      []harvest.Report
	Records      []harvest.Record
	ArtifactPath string
	SaveErr      error
	Sequential   float64
	Concurrent   float64
}

// Notification is the Pub/Sub payload published after a run.
type Notification struct {
	RunID             string  `json:"run_id"`
	Query             string  `json:"query"`
	Mode              string  `json:"mode"`
	Records           int     `json:"records"`
	Successes         int     `json:"successes"`
	Failures          int     `json:"failures"`
	SequentialSeconds float64 `json:"sequential_seconds"`
	ConcurrentSeconds float64 `json:"concurrent_seconds"`
	Artifact          string  `json:"artifact"`
	SHA256            string  `json:"sha256"`
}

// Run searches for topics, fetches them with the runners selected by
// opts.Mode, and saves the combined records. The returned error is non-nil
// only for invalid input or a failed search (*harvest.SearchError).
func Run(ctx context.Context, opts Options, deps Deps) (Summary, error) {
	if deps.Client == nil {
		return Summary{}, errors.New("wiki client is required")
	}
	if deps.Sink == nil {
		return Summary{}, errors.New("result sink is required")
	}
	if !opts.Mode.Includes(harvest.ModeSequential) && !opts.Mode.Includes(harvest.ModeConcurrent) {
		return Summary{}, fmt.Errorf("unsupported mode %q", opts.Mode)
	}
	out := deps.Out
	if out == nil {
		out = os.Stdout
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var summary Summary
	if deps.IDs != nil {
		id, err := deps.IDs.NewID()
		if err != nil {
			return Summary{}, fmt.Errorf("generate run id: %w", err)
		}
		summary.RunID = id
		logger = logger.With(zap.String("run_id", id))
	}

	fmt.Fprintf(out, "Searching Wikipedia for topics related to: '%s'\n", opts.Query)
	topics, err := dispatcher.New(deps.Client, logger).Topics(ctx, opts.Query)
	if err != nil {
		cause := err
		var searchErr *harvest.SearchError
		if errors.As(err, &searchErr) && searchErr.Err != nil {
			cause = searchErr.Err
		}
		fmt.Fprintf(out, "Error during Wikipedia search: %v\n", cause)
		return summary, err
	}
	if len(topics) == 0 {
		fmt.Fprintln(out, "No topics found for the given query.")
		return summary, nil
	}
	fmt.Fprintf(out, "Found %d topics.\n", len(topics))
	summary.Topics = topics

	unit := harvest.NewFetchUnit(deps.Client, deps.Clock, logger.Named("fetch"))

	if opts.Mode.Includes(harvest.ModeSequential) {
		report := worker.NewSequential(unit, deps.Clock, out, logger.Named("sequential")).Run(ctx, topics)
		summary.Sequential = report.Elapsed.Seconds()
		summary.Reports = append(summary.Reports, report)
		summary.Records = append(summary.Records, report.Records...)
	}

	if opts.Mode.Includes(harvest.ModeConcurrent) {
		size := opts.MaxWorkers
		if size <= 0 {
			size = worker.DefaultPoolSize
		}
		pool, err := worker.NewPool(unit, size, deps.Clock, out, logger.Named("pool"))
		if err != nil {
			return summary, fmt.Errorf("create worker pool: %w", err)
		}
		report := pool.Run(ctx, topics)
		summary.Concurrent = report.Elapsed.Seconds()
		summary.Reports = append(summary.Reports, report)
		summary.Records = append(summary.Records, report.Records...)
	}

	// Interrupted runs still persist the records they produced.
	path, err := deps.Sink.Save(context.WithoutCancel(ctx), summary.Records)
	summary.ArtifactPath = path
	if err != nil {
		summary.SaveErr = err
		fmt.Fprintf(out, "Error saving results to %s: %v\n", path, err)
		logger.Error("failed to save results", zap.String("path", path), zap.Error(err))
	} else {
		fmt.Fprintf(out, "All results saved to %s\n", path)
	}

	export(ctx, opts, deps, &summary, logger)

	if opts.MetricsTextfile != "" {
		if err := metrics.WriteTextfile(opts.MetricsTextfile); err != nil {
			logger.Warn("failed to write metrics", zap.Error(err))
		}
	}

	fmt.Fprintln(out, "\n--- Summary ---")
	fmt.Fprintf(out, "Total execution time (Sequential): %.2f seconds\n", summary.Sequential)
	fmt.Fprintf(out, "Total execution time (Concurrent): %.2f seconds\n", summary.Concurrent)
	fmt.Fprintln(out, "----------------")

	return summary, nil
}

// export pushes the run to the optional secondary sinks. Failures are logged
// and never abort the run.
func export(ctx context.Context, opts Options, deps Deps, summary *Summary, logger *zap.Logger) {
	if deps.Records == nil && deps.Artifacts == nil && deps.Notifier == nil {
		return
	}
	if summary.RunID == "" {
		logger.Warn("skipping exports without a run id")
		return
	}

	if deps.Records != nil {
		for _, report := range summary.Reports {
			if err := deps.Records.StoreReport(ctx, summary.RunID, report); err != nil {
				logger.Warn("failed to store records", zap.String("mode", string(report.Mode)), zap.Error(err))
			}
		}
	}

	artifact := summary.ArtifactPath
	data, err := sink.Encode(summary.Records)
	if err != nil {
		logger.Warn("failed to encode records for export", zap.Error(err))
		return
	}
	checksum := sha256.Sum(data)

	if deps.Artifacts != nil {
		uri, err := deps.Artifacts.PutArtifact(ctx, summary.RunID, sink.FileName, data)
		if err != nil {
			logger.Warn("failed to upload artifact", zap.Error(err))
		} else {
			artifact = uri
			logger.Info("artifact uploaded", zap.String("uri", uri), zap.String("sha256", checksum))
		}
	}

	if deps.Notifier != nil {
		note := Notification{
			RunID:             summary.RunID,
			Query:             opts.Query,
			Mode:              string(opts.Mode),
			Records:           len(summary.Records),
			SequentialSeconds: summary.Sequential,
			ConcurrentSeconds: summary.Concurrent,
			Artifact:          artifact,
			SHA256:            checksum,
		}
		for _, report := range summary.Reports {
			ok, failed := report.Counts()
			note.Successes += ok
			note.Failures += failed
		}
		attrs := map[string]string{"run_id": summary.RunID, "mode": string(opts.Mode)}
		if id, err := deps.Notifier.Publish(ctx, attrs, note); err != nil {
			logger.Warn("failed to publish run notification", zap.Error(err))
		} else {
			logger.Info("run notification published", zap.String("message_id", id))
		}
	}
}
