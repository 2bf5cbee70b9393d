// Package admin serves the launcher status endpoints over HTTP.
package admin

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jasonknight/space-mmo-sub002/config"
	"github.com/jasonknight/space-mmo-sub002/launcher"
	mw "github.com/jasonknight/space-mmo-sub002/middleware"
	"github.com/jasonknight/space-mmo-sub002/result"
	"go.uber.org/zap"
)

// StatusSource reports the supervised processes.
type StatusSource interface {
	Status() []launcher.Status
}

// Handler answers the status routes.
type Handler struct {
	src    StatusSource
	start  time.Time
	logger *zap.Logger
}

// NewHandler serves status from src.
func NewHandler(src StatusSource, logger *zap.Logger) *Handler {
	return &Handler{src: src, start: time.Now(), logger: logger}
}

// Health is 200 while no supervised process has failed, 503 otherwise.
// GET /health
func (h *Handler) Health(c *gin.Context) {
	failed := make([]string, 0)
	for _, s := range h.src.Status() {
		if s.State == launcher.StateFailed {
			failed = append(failed, s.Name)
		}
	}
	body := gin.H{"status": "ok", "uptime_s": int64(time.Since(h.start).Seconds())}
	if len(failed) > 0 {
		body["status"] = "degraded"
		body["failed"] = failed
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}
	c.JSON(http.StatusOK, body)
}

// List returns every supervised process.
// GET /services
func (h *Handler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"services": h.src.Status()})
}

// Get returns one supervised process.
// GET /services/:name
func (h *Handler) Get(c *gin.Context) {
	name := c.Param("name")
	for _, s := range h.src.Status() {
		if s.Name == name {
			c.JSON(http.StatusOK, s)
			return
		}
	}
	c.JSON(http.StatusNotFound, result.Failf(result.DBRecordNotFound, "no service named %q", name))
}

// NewRouter wires the status routes behind the trace, logging, recovery and
// rate limit middleware.
func NewRouter(cfg config.AdminConfig, h *Handler, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(logger, "/health"), mw.Recovery(logger))
	r.Use(mw.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
	r.GET("/health", h.Health)
	r.GET("/services", h.List)
	r.GET("/services/:name", h.Get)
	return r
}

// Server is the admin HTTP server.
type Server struct {
	http   *http.Server
	logger *zap.Logger
}

// NewServer builds the router for cfg.
func NewServer(cfg config.AdminConfig, src StatusSource, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		http: &http.Server{
			Addr:              net.JoinHostPort("", strconv.Itoa(cfg.Port)),
			Handler:           NewRouter(cfg, NewHandler(src, logger), logger),
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Serve blocks until ctx is done, then shuts down within five seconds.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("admin listening", zap.String("addr", ln.Addr().String()))
		errCh <- s.http.Serve(ln)
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ListenAndServe listens on the configured port and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}
