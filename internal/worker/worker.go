// Package worker runs the Fetch Unit over a topic list, either one topic at a
// time or across a bounded pool, and times the run.
package worker

import (
	"context"
	"time"

	"github.com/JakeFAU/wikirefs/internal/harvest"
)

// Fetcher produces exactly one record per topic.
type Fetcher interface {
	Fetch(ctx context.Context, topic string) harvest.Record
}

// Runner executes a batch of topics and reports the records and elapsed time.
type Runner interface {
	Run(ctx context.Context, topics []string) harvest.Report
}

type wallClock struct{}

func (wallClock) Now() time.Time {
	return time.Now()
}
