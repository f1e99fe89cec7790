// Package bootstrap handles application initialization and lifecycle
// management for the ingestion service.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jonesrussell/tool-ingestor/internal/config"
	"github.com/jonesrussell/tool-ingestor/internal/database"
	"github.com/jonesrussell/tool-ingestor/internal/dedup"
	"github.com/jonesrussell/tool-ingestor/internal/events"
	"github.com/jonesrussell/tool-ingestor/internal/logger"
	"github.com/jonesrussell/tool-ingestor/internal/logs"
	"github.com/jonesrussell/tool-ingestor/internal/metrics"
	"github.com/jonesrussell/tool-ingestor/internal/pipeline"
	"github.com/jonesrussell/tool-ingestor/internal/registry"
	"github.com/jonesrussell/tool-ingestor/internal/repository"
	"github.com/jonesrussell/tool-ingestor/internal/taxonomy"
	"github.com/jonesrussell/tool-ingestor/internal/urlresolver"
)

// App holds the assembled service components.
type App struct {
	Config      *config.Config
	Logger      logger.Logger
	LogBuffer   *logs.Buffer
	DB          *database.DB
	Entities    *repository.EntityRepository
	Taxonomy    *repository.TaxonomyRepository
	Resolver    *taxonomy.Resolver
	Registry    *registry.Registry
	Publisher   *events.Publisher
	Metrics     *metrics.Metrics
	Coordinator *pipeline.Coordinator
}

// NewApp loads configuration and assembles the service.
func NewApp(ctx context.Context, configPath string) (*App, error) {
	// Phase 1: config and logger. The log buffer backs the dashboard
	// /api/logs endpoint, so the logger tees into it from the start.
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logBuffer := logs.NewBuffer(logs.DefaultCapacity)
	log, err := logger.NewLogger(cfg.Debug, logBuffer)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	// Phase 2: database and repositories.
	db, err := database.New(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	entityRepo := repository.NewEntityRepository(db.DB(), log)
	taxonomyRepo := repository.NewTaxonomyRepository(db.DB(), log)

	// Phase 3: taxonomy snapshot.
	terms, err := taxonomyRepo.ListTerms(ctx)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("load taxonomy: %w", err)
	}
	resolver := taxonomy.NewResolver(terms, taxonomyRepo, log)
	log.Info("Taxonomy loaded", logger.Int("terms", len(terms)))

	// Phase 4: pipeline components.
	matcher, err := dedup.NewMatcher(entityRepo, dedup.Config{
		SecondaryEnabled: cfg.Dedup.SecondaryEnabled,
		JaccardThreshold: cfg.Dedup.JaccardThreshold,
		CacheSize:        cfg.Dedup.CacheSize,
	}, log)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create dedup matcher: %w", err)
	}

	var urls *urlresolver.Resolver
	if cfg.Pipeline.ResolveRedirects {
		urls = urlresolver.New(cfg.Pipeline.ResolverTimeout, log)
	}

	publisher := SetupEventPublisher(ctx, cfg, log)
	collectors := metrics.New()
	reg := registry.New(log)

	coordinator := pipeline.New(
		pipeline.Config{
			LeadsDir:         cfg.Spiders.LeadsDir,
			DefaultMaxItems:  cfg.Pipeline.DefaultMaxItems,
			ResolveRedirects: cfg.Pipeline.ResolveRedirects,
		},
		reg,
		entityRepo,
		matcher,
		resolver,
		urls,
		publisher,
		collectors,
		log,
	)

	return &App{
		Config:      cfg,
		Logger:      log,
		LogBuffer:   logBuffer,
		DB:          db,
		Entities:    entityRepo,
		Taxonomy:    taxonomyRepo,
		Resolver:    resolver,
		Registry:    reg,
		Publisher:   publisher,
		Metrics:     collectors,
		Coordinator: coordinator,
	}, nil
}

// Close releases the app's resources.
func (a *App) Close() {
	if closeErr := a.DB.Close(); closeErr != nil {
		a.Logger.Error("Failed to close database", logger.Error(closeErr))
	}
	_ = a.Logger.Sync()
}
