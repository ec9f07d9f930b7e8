// Package dispatcher issues the single search call that seeds a run.
package dispatcher

import (
	"context"

	"go.uber.org/zap"

	"github.com/JakeFAU/wikirefs/internal/harvest"
	"github.com/JakeFAU/wikirefs/internal/metrics"
)

// Dispatcher turns a free-text query into the ordered topic list.
type Dispatcher struct {
	searcher harvest.Searcher
	logger   *zap.Logger
}

// New creates a Dispatcher.
func New(searcher harvest.Searcher, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		searcher: searcher,
		logger:   logger,
	}
}

// Topics calls the searcher once. A remote failure is returned as a
// *harvest.SearchError; an empty result is returned as nil, nil.
func (d *Dispatcher) Topics(ctx context.Context, query string) ([]string, error) {
	topics, err := d.searcher.Search(ctx, query)
	if err != nil {
		metrics.ObserveSearch("error")
		d.logger.Error("search failed", zap.String("query", query), zap.Error(err))
		return nil, &harvest.SearchError{Query: query, Err: err}
	}
	if len(topics) == 0 {
		metrics.ObserveSearch("empty")
		d.logger.Info("search returned no topics", zap.String("query", query))
		return nil, nil
	}
	metrics.ObserveSearch("ok")
	d.logger.Info("search complete", zap.String("query", query), zap.Int("topics", len(topics)))
	return topics, nil
}
