package cmd

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/JakeFAU/wikirefs/internal/app"
	"github.com/JakeFAU/wikirefs/internal/clock/system"
	"github.com/JakeFAU/wikirefs/internal/config"
	"github.com/JakeFAU/wikirefs/internal/fetcher/mediawiki"
	"github.com/JakeFAU/wikirefs/internal/harvest"
	"github.com/JakeFAU/wikirefs/internal/id/uuid"
	pubsubpublisher "github.com/JakeFAU/wikirefs/internal/publisher/pubsub"
	"github.com/JakeFAU/wikirefs/internal/sink"
	"github.com/JakeFAU/wikirefs/internal/storage/gcs"
	"github.com/JakeFAU/wikirefs/internal/storage/postgres"
)

// newClient is the collaborator factory. It's a variable so tests can swap
// in a fake wiki.
var newClient = func(cfg config.Config, logger *zap.Logger) (harvest.Client, error) {
	return mediawiki.New(mediawiki.Config{
		APIURL:      cfg.Wiki.APIURL,
		UserAgent:   cfg.Wiki.UserAgent,
		Timeout:     cfg.WikiTimeout(),
		SearchLimit: cfg.Wiki.SearchLimit,
	}, logger.Named("mediawiki"))
}

// buildDeps assembles the run collaborators. The returned func releases every
// export that was opened and must be called once the run is over.
func buildDeps(ctx context.Context, cfg config.Config, logger *zap.Logger) (app.Deps, func(), error) {
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	client, err := newClient(cfg, logger)
	if err != nil {
		return app.Deps{}, closeAll, fmt.Errorf("init wiki client: %w", err)
	}
	resultSink, err := sink.NewFileSystemSink(cfg.Run.OutputDir, logger.Named("sink"))
	if err != nil {
		return app.Deps{}, closeAll, fmt.Errorf("init sink: %w", err)
	}

	deps := app.Deps{
		Client: client,
		Sink:   resultSink,
		Clock:  system.New(),
		IDs:    uuid.NewGenerator(),
		Logger: logger,
	}

	if cfg.DB.DSN != "" {
		store, err := postgres.NewRecordStore(ctx, postgres.RecordStoreConfig{
			DSN:      cfg.DB.DSN,
			Table:    cfg.DB.Table,
			MaxConns: cfg.DB.MaxConns,
		})
		if err != nil {
			closeAll()
			return app.Deps{}, func() {}, fmt.Errorf("init record store: %w", err)
		}
		closers = append(closers, store.Close)
		if err := store.EnsureSchema(ctx); err != nil {
			closeAll()
			return app.Deps{}, func() {}, fmt.Errorf("init record store: %w", err)
		}
		deps.Records = store
		logger.Info("postgres export enabled", zap.String("table", cfg.DB.Table))
	}

	if cfg.Storage.GCSBucket != "" {
		gcsClient, err := storage.NewClient(ctx)
		if err != nil {
			closeAll()
			return app.Deps{}, func() {}, fmt.Errorf("init gcs client: %w", err)
		}
		closers = append(closers, func() {
			if cerr := gcsClient.Close(); cerr != nil {
				logger.Warn("failed to close gcs client", zap.Error(cerr))
			}
		})
		blobs, err := gcs.New(gcsClient, gcs.Config{Bucket: cfg.Storage.GCSBucket, Prefix: cfg.Storage.Prefix})
		if err != nil {
			closeAll()
			return app.Deps{}, func() {}, fmt.Errorf("init blob store: %w", err)
		}
		deps.Artifacts = blobs
		logger.Info("gcs export enabled", zap.String("bucket", cfg.Storage.GCSBucket))
	}

	if cfg.PubSub.ProjectID != "" {
		publisher, err := pubsubpublisher.Connect(ctx, cfg.PubSub.ProjectID, cfg.PubSub.TopicName)
		if err != nil {
			closeAll()
			return app.Deps{}, func() {}, fmt.Errorf("init publisher: %w", err)
		}
		closers = append(closers, func() {
			if cerr := publisher.Close(); cerr != nil {
				logger.Warn("failed to close publisher", zap.Error(cerr))
			}
		})
		deps.Notifier = publisher
		logger.Info("pubsub export enabled", zap.String("topic", cfg.PubSub.TopicName))
	}

	return deps, closeAll, nil
}
