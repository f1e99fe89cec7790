package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/tool-ingestor/internal/api"
	"github.com/jonesrussell/tool-ingestor/internal/handlers"
	"github.com/jonesrussell/tool-ingestor/internal/logger"
)

const shutdownTimeout = 10 * time.Second

// Serve runs the dashboard HTTP server until ctx is canceled or a
// termination signal arrives.
func (a *App) Serve(ctx context.Context) error {
	if !a.Config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	var redisPinger handlers.Pinger
	if a.Publisher != nil {
		redisPinger = a.Publisher
	}

	handler := handlers.NewDashboardHandler(
		a.Coordinator,
		a.Registry,
		a.Entities,
		a.Taxonomy,
		a.Resolver,
		a.DB,
		redisPinger,
		a.LogBuffer,
		a.Config.Spiders.LeadsDir,
		a.Logger,
	)
	router := api.NewRouter(handler, a.Metrics, a.Config.Server.CORSOrigins, a.Logger)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", a.Config.Server.Host, a.Config.Server.Port),
		Handler:      router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("Starting HTTP server",
			logger.String("host", a.Config.Server.Host),
			logger.Int("port", a.Config.Server.Port),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	a.Logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	a.Logger.Info("Server exited")
	return nil
}
