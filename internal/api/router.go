// Package api wires the dashboard HTTP routes.
package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jonesrussell/tool-ingestor/internal/handlers"
	"github.com/jonesrussell/tool-ingestor/internal/logger"
	"github.com/jonesrussell/tool-ingestor/internal/metrics"
)

const corsMaxAgeHours = 12

// NewRouter builds the gin engine with all dashboard routes.
func NewRouter(h *handlers.DashboardHandler, collectors *metrics.Metrics, corsOrigins []string, log logger.Logger) *gin.Engine {
	router := gin.New()

	// CORS middleware - must be first
	router.Use(cors.New(cors.Config{
		AllowOrigins: corsOrigins,
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Content-Length", "Accept-Encoding",
			"Authorization", "accept", "origin", "Cache-Control", "X-Requested-With",
		},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           corsMaxAgeHours * time.Hour,
	}))

	router.Use(ginLogger(log))
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if collectors != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(
			collectors.Registry,
			promhttp.HandlerOpts{},
		)))
	}

	apiGroup := router.Group("/api")
	apiGroup.GET("/spiders", h.ListSpiders)
	apiGroup.GET("/status", h.Status)
	apiGroup.POST("/start-scraping", h.StartScraping)
	apiGroup.GET("/test-services", h.TestServices)
	apiGroup.GET("/scraping-results/:spider", h.ScrapingResults)
	apiGroup.GET("/missing-taxonomy", h.MissingTaxonomy)
	apiGroup.GET("/logs", h.Logs)

	return router
}

func ginLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		log.Info("HTTP request",
			logger.String("method", method),
			logger.String("path", path),
			logger.Int("status_code", statusCode),
			logger.String("client_ip", c.ClientIP()),
			logger.Duration("duration", duration),
		)
	}
}
