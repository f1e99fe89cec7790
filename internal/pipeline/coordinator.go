// Package pipeline runs ingestion jobs: it pulls raw records from a
// spider's lead stream, normalizes and resolves them, deduplicates
// against the entity store, and persists the result while keeping job
// statistics consistent.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/jonesrussell/tool-ingestor/internal/dedup"
	"github.com/jonesrussell/tool-ingestor/internal/events"
	"github.com/jonesrussell/tool-ingestor/internal/logger"
	"github.com/jonesrussell/tool-ingestor/internal/metrics"
	"github.com/jonesrussell/tool-ingestor/internal/models"
	"github.com/jonesrussell/tool-ingestor/internal/normalizer"
	"github.com/jonesrussell/tool-ingestor/internal/registry"
	"github.com/jonesrussell/tool-ingestor/internal/repository"
	"github.com/jonesrussell/tool-ingestor/internal/spiders"
	"github.com/jonesrussell/tool-ingestor/internal/taxonomy"
	"github.com/jonesrussell/tool-ingestor/internal/urlresolver"
)

// EntityStore is the write side of the entity store the coordinator
// persists into.
type EntityStore interface {
	dedup.Store
	// Insert persists a new entity. It fails with
	// repository.ErrDuplicateURL when another entity already holds the
	// canonical URL, which can happen when a concurrent writer won the
	// race after the dedup check.
	Insert(ctx context.Context, entity *models.Entity) error
	// Update persists merged changes to an existing entity.
	Update(ctx context.Context, entity *models.Entity) error
}

// RecordSource is a lazy, finite stream of raw records. Next returns
// io.EOF at exhaustion, spiders.ErrMalformedRecord (wrapped) for an
// unparsable record, and any other error for a fatal stream failure.
type RecordSource interface {
	Next() (models.RawRecord, error)
	Close() error
}

// StreamOpener opens the record source for a spider. The default
// implementation reads the spider's JSONL lead file.
type StreamOpener func(spider string) (RecordSource, error)

// Config carries the pipeline's runtime settings.
type Config struct {
	LeadsDir         string
	DefaultMaxItems  int
	ResolveRedirects bool
}

// Coordinator executes ingestion jobs one at a time against the shared
// store and registry.
type Coordinator struct {
	cfg      Config
	registry *registry.Registry
	store    EntityStore
	matcher  *dedup.Matcher
	taxonomy *taxonomy.Resolver
	resolver *urlresolver.Resolver
	open     StreamOpener
	events   *events.Publisher
	metrics  *metrics.Metrics
	logger   logger.Logger
	clock    func() time.Time
}

// New creates a coordinator. resolver, publisher, and collectors may be
// nil; the corresponding behavior is skipped.
func New(
	cfg Config,
	reg *registry.Registry,
	store EntityStore,
	matcher *dedup.Matcher,
	tax *taxonomy.Resolver,
	resolver *urlresolver.Resolver,
	publisher *events.Publisher,
	collectors *metrics.Metrics,
	log logger.Logger,
) *Coordinator {
	c := &Coordinator{
		cfg:      cfg,
		registry: reg,
		store:    store,
		matcher:  matcher,
		taxonomy: tax,
		resolver: resolver,
		events:   publisher,
		metrics:  collectors,
		logger:   log,
		clock:    time.Now,
	}
	c.open = func(spider string) (RecordSource, error) {
		return spiders.OpenLeadStream(spiders.LeadsFile(cfg.LeadsDir, spider))
	}
	return c
}

// Start registers and launches a job for the given spider. It returns
// the created job immediately; the run proceeds in the background. A
// non-positive maxItems falls back to the configured default.
func (c *Coordinator) Start(ctx context.Context, spiderName string, maxItems int) (models.Job, error) {
	if !spiders.IsKnown(spiderName) {
		return models.Job{}, fmt.Errorf("unknown spider: %s", spiderName)
	}
	if maxItems <= 0 {
		maxItems = c.cfg.DefaultMaxItems
	}

	job, err := c.registry.Create(spiderName, maxItems)
	if err != nil {
		return models.Job{}, err
	}

	go c.run(context.WithoutCancel(ctx), job.ID)
	return job, nil
}

// Run executes a job synchronously. Used by the one-shot CLI command;
// the HTTP path goes through Start.
func (c *Coordinator) Run(ctx context.Context, spiderName string, maxItems int) (models.Job, error) {
	if !spiders.IsKnown(spiderName) {
		return models.Job{}, fmt.Errorf("unknown spider: %s", spiderName)
	}
	if maxItems <= 0 {
		maxItems = c.cfg.DefaultMaxItems
	}

	job, err := c.registry.Create(spiderName, maxItems)
	if err != nil {
		return models.Job{}, err
	}

	c.run(ctx, job.ID)
	return c.registry.Get(job.ID)
}

func (c *Coordinator) run(ctx context.Context, jobID string) {
	job, err := c.registry.Get(jobID)
	if err != nil {
		c.logger.Error("Job vanished before run", logger.String("job_id", jobID), logger.Error(err))
		return
	}

	started := c.clock()
	if err := c.registry.Transition(jobID, models.JobRunning); err != nil {
		c.logger.Error("Failed to start job", logger.String("job_id", jobID), logger.Error(err))
		return
	}
	if snap, snapErr := c.registry.Get(jobID); snapErr == nil {
		c.events.PublishAsync(events.ForJob(events.EventJobStarted, snap))
	}

	fatal := c.consume(ctx, jobID, job.SpiderName, job.MaxItems)

	if fatal != nil {
		c.logger.Error("Job failed",
			logger.String("job_id", jobID),
			logger.String("spider", job.SpiderName),
			logger.Error(fatal),
		)
		if err := c.registry.Fail(jobID, fatal); err != nil {
			c.logger.Error("Failed to mark job failed", logger.String("job_id", jobID), logger.Error(err))
		}
		c.metrics.IncJob(string(models.JobFailed))
	} else {
		if err := c.registry.Transition(jobID, models.JobCompleted); err != nil {
			c.logger.Error("Failed to complete job", logger.String("job_id", jobID), logger.Error(err))
		}
		c.metrics.IncJob(string(models.JobCompleted))
	}
	c.metrics.ObserveJobDuration(c.clock().Sub(started))

	final, err := c.registry.Get(jobID)
	if err != nil {
		return
	}
	c.events.PublishAsync(events.ForJob(events.EventJobFinished, final))
	c.logger.Info("Job finished",
		logger.String("job_id", jobID),
		logger.String("spider", final.SpiderName),
		logger.String("state", string(final.State)),
		logger.Int("total_processed", final.Stats.TotalProcessed),
		logger.Int("successful", final.Stats.SuccessfulSubmissions),
		logger.Int("failed", final.Stats.FailedSubmissions),
		logger.Int("duplicates", final.Stats.DuplicatesSkipped),
	)
}

// consume drains the spider's record source up to the item cap. It
// returns a non-nil error only for job-fatal conditions: an unreadable
// stream or an unreachable store.
func (c *Coordinator) consume(ctx context.Context, jobID, spiderName string, maxItems int) error {
	source, err := c.open(spiderName)
	if err != nil {
		return fmt.Errorf("open record source: %w", err)
	}
	defer source.Close()

	processed := 0
	for {
		// The cap is checked before pulling so a bounded job never
		// consumes a record it will not count.
		if maxItems > 0 && processed >= maxItems {
			return nil
		}

		raw, err := source.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if errors.Is(err, spiders.ErrMalformedRecord) {
			processed++
			c.addStats(jobID, models.JobStats{TotalProcessed: 1, FailedSubmissions: 1})
			c.metrics.IncRecord(metrics.OutcomeRejected)
			c.logger.Warn("Skipping malformed record",
				logger.String("job_id", jobID),
				logger.Error(err),
			)
			continue
		}
		if err != nil {
			return fmt.Errorf("read record source: %w", err)
		}

		processed++
		if err := c.processRecord(ctx, jobID, raw); err != nil {
			return err
		}
	}
}

// processRecord takes one raw record through normalize, resolve, dedup,
// and persist. Per-record problems are absorbed into the statistics; the
// returned error is reserved for store unavailability.
func (c *Coordinator) processRecord(ctx context.Context, jobID string, raw models.RawRecord) error {
	if c.cfg.ResolveRedirects && c.resolver != nil {
		if rawURL := raw.Get(models.FieldWebsiteURL); urlresolver.IsRedirector(rawURL) {
			raw[models.FieldWebsiteURL] = c.resolver.Resolve(ctx, rawURL)
		}
	}

	rec, err := normalizer.Normalize(raw, c.clock())
	if err != nil {
		c.addStats(jobID, models.JobStats{TotalProcessed: 1, FailedSubmissions: 1})
		c.metrics.IncRecord(metrics.OutcomeRejected)
		c.logger.Warn("Record rejected",
			logger.String("job_id", jobID),
			logger.Error(err),
		)
		return nil
	}

	categoryIDs := c.taxonomy.ResolveAll(ctx, models.TaxonomyCategory, rec.Categories)
	tagIDs := c.taxonomy.ResolveAll(ctx, models.TaxonomyTag, rec.Tags)
	c.countMisses(len(rec.Categories)-len(categoryIDs), len(rec.Tags)-len(tagIDs))

	existing, kind, err := c.matcher.Match(ctx, rec)
	if err != nil {
		if errors.Is(err, repository.ErrUnavailable) {
			return fmt.Errorf("dedup lookup: %w", err)
		}
		c.addStats(jobID, models.JobStats{TotalProcessed: 1, FailedSubmissions: 1})
		c.metrics.IncRecord(metrics.OutcomeStoreFail)
		c.logger.Error("Dedup lookup failed",
			logger.String("job_id", jobID),
			logger.String("url", rec.WebsiteURL),
			logger.Error(err),
		)
		return nil
	}

	if existing != nil {
		if kind == dedup.MatchSecondary {
			c.metrics.IncSecondaryMatch()
		}
		return c.mergeExisting(ctx, jobID, existing, rec, categoryIDs, tagIDs)
	}
	return c.insertNew(ctx, jobID, rec, categoryIDs, tagIDs)
}

func (c *Coordinator) mergeExisting(ctx context.Context, jobID string, entity *models.Entity, rec *models.NormalizedRecord, categoryIDs, tagIDs []string) error {
	if MergeRecord(entity, rec, categoryIDs, tagIDs, c.clock()) {
		if err := c.store.Update(ctx, entity); err != nil {
			if errors.Is(err, repository.ErrUnavailable) {
				return fmt.Errorf("merge entity: %w", err)
			}
			c.addStats(jobID, models.JobStats{TotalProcessed: 1, FailedSubmissions: 1})
			c.metrics.IncRecord(metrics.OutcomeStoreFail)
			c.logger.Error("Merge update failed",
				logger.String("job_id", jobID),
				logger.String("entity_id", entity.ID),
				logger.Error(err),
			)
			return nil
		}
	}

	c.matcher.Remember(entity)
	c.addStats(jobID, models.JobStats{TotalProcessed: 1, DuplicatesSkipped: 1})
	c.metrics.IncRecord(metrics.OutcomeMerged)
	c.logger.Debug("Duplicate merged",
		logger.String("job_id", jobID),
		logger.String("entity_id", entity.ID),
		logger.String("url", rec.WebsiteURL),
	)
	return nil
}

func (c *Coordinator) insertNew(ctx context.Context, jobID string, rec *models.NormalizedRecord, categoryIDs, tagIDs []string) error {
	now := c.clock()
	entity := &models.Entity{
		ID:           uuid.New().String(),
		Name:         rec.Name,
		WebsiteURL:   rec.WebsiteURL,
		Description:  rec.Description,
		CategoryIDs:  categoryIDs,
		TagIDs:       tagIDs,
		PricingModel: rec.PricingModel,
		LogoURL:      rec.LogoURL,
		AvgRating:    rec.AvgRating,
		ReviewCount:  rec.ReviewCount,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if rec.SourceSite != "" {
		entity.SourceSites = []string{rec.SourceSite}
	}

	err := c.store.Insert(ctx, entity)
	switch {
	case err == nil:
		c.matcher.Remember(entity)
		c.addStats(jobID, models.JobStats{TotalProcessed: 1, SuccessfulSubmissions: 1})
		c.metrics.IncRecord(metrics.OutcomeInserted)
		c.logger.Info("Entity inserted",
			logger.String("job_id", jobID),
			logger.String("entity_id", entity.ID),
			logger.String("name", entity.Name),
			logger.String("url", entity.WebsiteURL),
		)
		return nil
	case errors.Is(err, repository.ErrDuplicateURL):
		// A concurrent writer beat us to the URL. Re-fetch and merge so
		// the record still contributes its fields.
		winner, findErr := c.store.FindByURL(ctx, rec.WebsiteURL)
		if findErr != nil || winner == nil {
			c.addStats(jobID, models.JobStats{TotalProcessed: 1, DuplicatesSkipped: 1})
			c.metrics.IncRecord(metrics.OutcomeMerged)
			return nil
		}
		return c.mergeExisting(ctx, jobID, winner, rec, categoryIDs, tagIDs)
	case errors.Is(err, repository.ErrUnavailable):
		return fmt.Errorf("insert entity: %w", err)
	default:
		c.addStats(jobID, models.JobStats{TotalProcessed: 1, FailedSubmissions: 1})
		c.metrics.IncRecord(metrics.OutcomeStoreFail)
		c.logger.Error("Insert failed",
			logger.String("job_id", jobID),
			logger.String("url", rec.WebsiteURL),
			logger.Error(err),
		)
		return nil
	}
}

func (c *Coordinator) addStats(jobID string, delta models.JobStats) {
	if err := c.registry.AddStats(jobID, delta); err != nil {
		c.logger.Error("Failed to record job stats", logger.String("job_id", jobID), logger.Error(err))
	}
}

func (c *Coordinator) countMisses(categoryMisses, tagMisses int) {
	for i := 0; i < categoryMisses; i++ {
		c.metrics.IncTaxonomyMiss()
	}
	for i := 0; i < tagMisses; i++ {
		c.metrics.IncTaxonomyMiss()
	}
}
