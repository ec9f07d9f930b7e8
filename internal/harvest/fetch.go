package harvest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/wikirefs/internal/metrics"
)

// FetchUnit performs one exact page lookup per topic and maps every outcome
// to a Record. Fetch never panics and never returns an error.
type FetchUnit struct {
	pages  PageFetcher
	clock  Clock
	logger *zap.Logger
}

// NewFetchUnit constructs a FetchUnit. A nil clock falls back to time.Now and
// a nil logger to a no-op logger.
func NewFetchUnit(pages PageFetcher, clock Clock, logger *zap.Logger) *FetchUnit {
	if clock == nil {
		clock = wallClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FetchUnit{
		pages:  pages,
		clock:  clock,
		logger: logger,
	}
}

// Fetch resolves topic and returns exactly one Record for it.
func (u *FetchUnit) Fetch(ctx context.Context, topic string) (rec Record) {
	start := u.clock.Now()
	defer func() {
		if r := recover(); r != nil {
			u.logger.Error("page lookup panicked", zap.String("topic", topic), zap.Any("panic", r))
			rec = Failure(topic, KindUnknown, unexpectedErrorPrefix+fmt.Sprint(r))
		}
		metrics.ObserveFetch(string(rec.Status), string(rec.Kind), u.clock.Now().Sub(start))
	}()

	if u.pages == nil {
		return Failure(topic, KindUnknown, unexpectedErrorPrefix+"no page fetcher configured")
	}

	page, err := u.pages.Page(ctx, topic)
	if err != nil {
		rec = FailureFromError(topic, err)
		u.logger.Debug("page lookup failed",
			zap.String("topic", topic),
			zap.String("kind", string(rec.Kind)),
			zap.Error(err),
		)
		return rec
	}
	u.logger.Debug("page lookup succeeded",
		zap.String("topic", topic),
		zap.String("title", page.Title),
		zap.Int("references", len(page.References)),
	)
	return Success(topic, page.Title, page.References)
}

type wallClock struct{}

func (wallClock) Now() time.Time {
	return time.Now()
}
