package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/shivankMERNPro/MediaSense-AI/internal/analyzer"
	"github.com/shivankMERNPro/MediaSense-AI/internal/config"
	"github.com/shivankMERNPro/MediaSense-AI/internal/embedder"
	"github.com/shivankMERNPro/MediaSense-AI/internal/filestore"
	"github.com/shivankMERNPro/MediaSense-AI/internal/ingest"
	"github.com/shivankMERNPro/MediaSense-AI/internal/library"
	"github.com/shivankMERNPro/MediaSense-AI/internal/logging"
	"github.com/shivankMERNPro/MediaSense-AI/internal/searcher"
	"github.com/shivankMERNPro/MediaSense-AI/internal/storage"
)

// app holds the wired application components. The embedder instance is
// shared by ingestion and search so both hit the same cache.
type app struct {
	cfg      *config.Config
	store    storage.Storage
	embedder embedder.Embedder
	analyzer analyzer.Analyzer
	searcher *searcher.Searcher
	pipeline *ingest.Pipeline
	files    *filestore.Store
	lib      *library.Service
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	store, err := storage.Open(ctx, storage.Config{
		Driver: cfg.Database.Driver,
		DSN:    cfg.Database.DSN,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	a.store = store

	embCfg := embedder.Config{
		Provider:     cfg.Embedder.Provider,
		GeminiAPIKey: cfg.Embedder.GeminiAPIKey,
		OpenAIAPIKey: cfg.Embedder.OpenAIAPIKey,
		Model:        cfg.Embedder.Model,
		BaseURL:      cfg.Embedder.BaseURL,
		Dimension:    cfg.Embedder.Dimension,
		Timeout:      cfg.Embedder.Timeout,
		CacheSize:    cfg.Embedder.CacheSize,
	}
	if cfg.Embedder.Breaker {
		breaker := embedder.DefaultBreakerConfig()
		embCfg.Breaker = &breaker
	}
	emb, err := embedder.New(embCfg)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	a.embedder = emb

	an, err := analyzer.New(analyzer.Config{
		Provider: cfg.Analyzer.Provider,
		APIKey:   cfg.Analyzer.APIKey,
		Model:    cfg.Analyzer.Model,
		BaseURL:  cfg.Analyzer.BaseURL,
		Timeout:  cfg.Analyzer.Timeout,
	})
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("failed to initialize analyzer: %w", err)
	}
	a.analyzer = an

	a.searcher = searcher.New(store, emb,
		searcher.WithCache(cfg.Search.CacheSize, cfg.Search.CacheTTL),
		searcher.WithEmbedTimeout(cfg.Search.EmbedTimeout),
	)

	a.pipeline = ingest.New(store, an, emb, ingest.Config{
		Workers:       cfg.Ingest.Workers,
		RatePerSecond: cfg.Ingest.RatePerSecond,
		Burst:         cfg.Ingest.Burst,
		Timeout:       cfg.Ingest.Timeout,
	}, ingest.WithOnProcessed(a.searcher.InvalidateOwner))

	files, err := filestore.New(cfg.Uploads.Dir)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("failed to initialize file store: %w", err)
	}
	a.files = files

	a.lib = library.New(store, files, a.pipeline, a.searcher,
		library.WithMaxUploadBytes(cfg.Uploads.MaxBytes),
	)

	logging.Info().
		Str("storage", cfg.Database.Driver).
		Str("sqlite_build", storage.BuildMode).
		Str("embedder", emb.Provider()).
		Str("embedding_model", emb.Model()).
		Str("analyzer", an.Name()).
		Msg("application initialized")
	return a, nil
}

// Close releases every component that holds resources
func (a *app) Close() error {
	var errs []error
	if a.embedder != nil {
		errs = append(errs, a.embedder.Close())
	}
	if c, ok := a.analyzer.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	return errors.Join(errs...)
}

// withApp loads configuration, wires the app and runs fn with it
func withApp(ctx context.Context, fn func(ctx context.Context, a *app) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logging.Warn().Err(err).Msg("shutdown cleanup failed")
		}
	}()

	return fn(ctx, a)
}
