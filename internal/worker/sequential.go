package worker

import (
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/JakeFAU/wikirefs/internal/harvest"
	"github.com/JakeFAU/wikirefs/internal/metrics"
)

// Sequential fetches topics one at a time, preserving input order.
type Sequential struct {
	unit   Fetcher
	clock  harvest.Clock
	out    io.Writer
	logger *zap.Logger
}

// NewSequential constructs a Sequential runner.
func NewSequential(unit Fetcher, clock harvest.Clock, out io.Writer, logger *zap.Logger) *Sequential {
	if clock == nil {
		clock = wallClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sequential{
		unit:   unit,
		clock:  clock,
		out:    out,
		logger: logger,
	}
}

// Run fetches every topic in order and returns one record per topic.
func (s *Sequential) Run(ctx context.Context, topics []string) harvest.Report {
	prog := newProgress(s.out, sequentialSection)
	prog.start()
	s.logger.Info("sequential run started", zap.Int("topics", len(topics)))

	start := s.clock.Now()
	records := make([]harvest.Record, 0, len(topics))
	for _, topic := range topics {
		rec := s.unit.Fetch(ctx, topic)
		records = append(records, rec)
		prog.record(rec)
	}
	elapsed := s.clock.Now().Sub(start)

	prog.finish(elapsed)
	metrics.ObserveRun(string(harvest.ModeSequential), len(records), elapsed)
	s.logger.Info("sequential run finished",
		zap.Int("records", len(records)),
		zap.Duration("elapsed", elapsed),
	)
	return harvest.Report{
		Mode:    harvest.ModeSequential,
		Records: records,
		Elapsed: elapsed,
	}
}
