// Package handlers implements the dashboard HTTP API.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/tool-ingestor/internal/logger"
	"github.com/jonesrussell/tool-ingestor/internal/logs"
	"github.com/jonesrussell/tool-ingestor/internal/models"
	"github.com/jonesrussell/tool-ingestor/internal/registry"
	"github.com/jonesrussell/tool-ingestor/internal/spiders"
	"github.com/jonesrussell/tool-ingestor/internal/taxonomy"
)

const (
	defaultLogLines     = 100
	defaultResultsLimit = 50
	maxResultsLimit     = 500
)

// JobStarter launches ingestion jobs. Implemented by the pipeline
// coordinator.
type JobStarter interface {
	Start(ctx context.Context, spiderName string, maxItems int) (models.Job, error)
}

// EntityReader is the read side of the entity store the dashboard needs.
type EntityReader interface {
	ListBySource(ctx context.Context, site string, limit int) ([]models.Entity, error)
	Count(ctx context.Context) (int, error)
}

// MissingLister exposes the taxonomy curation queue.
type MissingLister interface {
	ListMissing(ctx context.Context) ([]models.MissingTaxonomyItem, error)
}

// Pinger reports backing-service reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DashboardHandler serves the polled dashboard endpoints.
type DashboardHandler struct {
	coordinator JobStarter
	registry    *registry.Registry
	entities    EntityReader
	missing     MissingLister
	resolver    *taxonomy.Resolver
	db          Pinger
	redis       Pinger
	logBuffer   *logs.Buffer
	leadsDir    string
	logger      logger.Logger
}

// NewDashboardHandler creates the dashboard handler. redis may be nil
// when event publishing is disabled.
func NewDashboardHandler(
	coordinator JobStarter,
	reg *registry.Registry,
	entities EntityReader,
	missing MissingLister,
	resolver *taxonomy.Resolver,
	db Pinger,
	redisPinger Pinger,
	logBuffer *logs.Buffer,
	leadsDir string,
	log logger.Logger,
) *DashboardHandler {
	return &DashboardHandler{
		coordinator: coordinator,
		registry:    reg,
		entities:    entities,
		missing:     missing,
		resolver:    resolver,
		db:          db,
		redis:       redisPinger,
		logBuffer:   logBuffer,
		leadsDir:    leadsDir,
		logger:      log,
	}
}

// ListSpiders returns the extraction spider catalog.
func (h *DashboardHandler) ListSpiders(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"spiders": spiders.Names(),
		"details": spiders.Catalog,
		"count":   len(spiders.Catalog),
	})
}

// Status returns the current job snapshot the dashboard polls.
func (h *DashboardHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.registry.Snapshot())
}

// StartScrapingRequest is the job submission payload.
type StartScrapingRequest struct {
	SpiderName string `json:"spider_name" binding:"required"`
	MaxItems   int    `json:"max_items"`
}

// StartScraping submits an ingestion job. While another job is active
// the submission is rejected; the dashboard disables its start button
// off the success flag.
func (h *DashboardHandler) StartScraping(c *gin.Context) {
	var req StartScrapingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid request body: " + err.Error(),
		})
		return
	}

	if !spiders.IsKnown(req.SpiderName) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Unknown spider: " + req.SpiderName,
		})
		return
	}

	job, err := h.coordinator.Start(c.Request.Context(), req.SpiderName, req.MaxItems)
	if err != nil {
		if errors.Is(err, registry.ErrJobAlreadyRunning) {
			c.JSON(http.StatusConflict, gin.H{
				"success": false,
				"message": "A scraping job is already running",
			})
			return
		}
		h.logger.Error("Failed to start scraping job",
			logger.String("spider", req.SpiderName),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to start scraping job",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Scraping job started",
		"job_id":  job.ID,
		"job":     job,
	})
}

// TestServices reports reachability of the backing services.
func (h *DashboardHandler) TestServices(c *gin.Context) {
	ctx := c.Request.Context()
	healthy := true

	database := "ok"
	if err := h.db.Ping(ctx); err != nil {
		database = "error: " + err.Error()
		healthy = false
	}

	redisStatus := "disabled"
	if h.redis != nil {
		redisStatus = "ok"
		if err := h.redis.Ping(ctx); err != nil {
			redisStatus = "error: " + err.Error()
			healthy = false
		}
	}

	leads := "ok"
	if info, err := os.Stat(h.leadsDir); err != nil {
		leads = "error: " + err.Error()
		healthy = false
	} else if !info.IsDir() {
		leads = "error: not a directory"
		healthy = false
	}

	entityCount := -1
	if count, err := h.entities.Count(ctx); err == nil {
		entityCount = count
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"success":   healthy,
		"database":  database,
		"redis":     redisStatus,
		"leads_dir": leads,
		"entities":  entityCount,
		"taxonomy": gin.H{
			"categories": h.resolver.TermCount(models.TaxonomyCategory),
			"tags":       h.resolver.TermCount(models.TaxonomyTag),
			"features":   h.resolver.TermCount(models.TaxonomyFeature),
		},
	})
}

// ScrapingResults returns recently ingested entities for a spider's
// source site.
func (h *DashboardHandler) ScrapingResults(c *gin.Context) {
	spider, ok := spiders.Lookup(c.Param("spider"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown spider: " + c.Param("spider")})
		return
	}

	limit := intQuery(c, "limit", defaultResultsLimit)
	if limit <= 0 || limit > maxResultsLimit {
		limit = defaultResultsLimit
	}

	entities, err := h.entities.ListBySource(c.Request.Context(), spider.SourceSite, limit)
	if err != nil {
		h.logger.Error("Failed to list scraping results",
			logger.String("spider", spider.Name),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list scraping results"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"spider":  spider.Name,
		"source":  spider.SourceSite,
		"results": entities,
		"count":   len(entities),
	})
}

// MissingTaxonomy returns the taxonomy curation queue.
func (h *DashboardHandler) MissingTaxonomy(c *gin.Context) {
	items, err := h.missing.ListMissing(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list missing taxonomy items", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list missing taxonomy items"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"count": len(items),
	})
}

// Logs returns the tail of the in-process log buffer.
func (h *DashboardHandler) Logs(c *gin.Context) {
	lines := intQuery(c, "lines", defaultLogLines)
	if lines <= 0 {
		lines = defaultLogLines
	}

	tail := h.logBuffer.Tail(lines)
	c.JSON(http.StatusOK, gin.H{
		"lines": tail,
		"count": len(tail),
	})
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
