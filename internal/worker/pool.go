package worker

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JakeFAU/wikirefs/internal/harvest"
	"github.com/JakeFAU/wikirefs/internal/metrics"
)

// DefaultPoolSize is used when no pool size is configured.
const DefaultPoolSize = 5

// Pool fetches topics across at most size concurrent workers. Records are
// collected in completion order.
type Pool struct {
	unit   Fetcher
	size   int
	clock  harvest.Clock
	out    io.Writer
	logger *zap.Logger
}

type outcome struct {
	record harvest.Record
	cause  any
}

// NewPool constructs a Pool. size must be at least 1.
func NewPool(unit Fetcher, size int, clock harvest.Clock, out io.Writer, logger *zap.Logger) (*Pool, error) {
	if size < 1 {
		return nil, fmt.Errorf("pool size must be >= 1, got %d", size)
	}
	if clock == nil {
		clock = wallClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{
		unit:   unit,
		size:   size,
		clock:  clock,
		out:    out,
		logger: logger,
	}, nil
}

// Size returns the configured worker count.
func (p *Pool) Size() int {
	return p.size
}

// Run submits one task per topic and blocks until every task has produced a
// record.
func (p *Pool) Run(ctx context.Context, topics []string) harvest.Report {
	prog := newProgress(p.out, concurrentSection)
	prog.start()
	p.logger.Info("pool run started", zap.Int("topics", len(topics)), zap.Int("workers", p.size))

	start := p.clock.Now()
	results := make(chan outcome, len(topics))

	var g errgroup.Group
	g.SetLimit(p.size)
	go func() {
		for _, topic := range topics {
			g.Go(func() error {
				results <- p.runTask(ctx, topic)
				return nil
			})
		}
		_ = g.Wait()
		close(results)
	}()

	records := make([]harvest.Record, 0, len(topics))
	for res := range results {
		if res.cause != nil {
			prog.panicked(res.record.Topic, res.cause)
		} else {
			prog.record(res.record)
		}
		records = append(records, res.record)
	}
	elapsed := p.clock.Now().Sub(start)

	prog.finish(elapsed)
	metrics.ObserveRun(string(harvest.ModeConcurrent), len(records), elapsed)
	p.logger.Info("pool run finished",
		zap.Int("records", len(records)),
		zap.Duration("elapsed", elapsed),
	)
	return harvest.Report{
		Mode:    harvest.ModeConcurrent,
		Records: records,
		Elapsed: elapsed,
	}
}

// runTask converts a panic escaping the Fetcher into an Unknown record so the
// topic is never lost.
func (p *Pool) runTask(ctx context.Context, topic string) (res outcome) {
	metrics.IncActiveWorkers()
	defer metrics.DecActiveWorkers()
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("pool task panicked", zap.String("topic", topic), zap.Any("panic", r))
			res = outcome{
				record: harvest.Failure(topic, harvest.KindUnknown, fmt.Sprint(r)),
				cause:  r,
			}
		}
	}()
	return outcome{record: p.unit.Fetch(ctx, topic)}
}
