package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/mrsinham/dicomtree/internal/logging"
	"github.com/mrsinham/dicomtree/internal/metrics"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 10 * time.Second

// NewServer builds the echo instance serving h under /api/v1 and the
// Prometheus registry of m under /metrics. m may be nil.
func NewServer(h *Handler, m *metrics.Metrics, logger zerolog.Logger) *echo.Echo {
	logger = logging.Component(logger, "api")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Recovery sits innermost so a panic reaches Logger and Metrics as a 500.
	e.Use(echomw.RequestID())
	e.Use(Logger(logger))
	e.Use(Metrics(m))
	e.Use(Recovery(logger))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	if m != nil {
		e.GET("/metrics", echo.WrapHandler(m.Handler()))
	}
	h.RegisterRoutes(e.Group("/api/v1"))
	return e
}

// Serve runs e on addr until ctx is done, then shuts it down gracefully.
func Serve(ctx context.Context, e *echo.Echo, addr string, logger zerolog.Logger) error {
	errc := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err, ok := <-errc:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(sctx); err != nil {
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
