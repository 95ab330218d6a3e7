// Package api serves price checks, profiles, history and insights over HTTP
// for signed-in, verified accounts.
package api

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Veraticus/mindspend/internal/history"
	"github.com/Veraticus/mindspend/internal/identity"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "mindspend"

// ShutdownTimeout bounds graceful shutdown in Run.
const ShutdownTimeout = 10 * time.Second

// Store is the cloud document store as the API uses it.
type Store interface {
	history.PurchaseDB
	history.UserDB
}

// Config wires the server to its backends. Cache and Logger are optional.
type Config struct {
	Identity       identity.Provider
	Store          Store
	Cache          history.ProfileCache
	Logger         *slog.Logger
	Now            func() time.Time
	AllowedOrigins []string
}

// Server is the HTTP API.
type Server struct {
	identity identity.Provider
	store    Store
	cache    history.ProfileCache
	logger   *slog.Logger
	now      func() time.Time
	router   *gin.Engine
}

// NewServer builds the router. Callers choose the gin mode.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Identity == nil {
		return nil, errors.New("identity provider is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("cloud store is required")
	}

	s := &Server{
		identity: cfg.Identity,
		store:    cfg.Store,
		cache:    cfg.Cache,
		logger:   cfg.Logger,
		now:      cfg.Now,
	}
	if s.logger == nil {
		s.logger = slog.Default().With("component", "api")
	}
	if s.now == nil {
		s.now = time.Now
	}

	s.router = gin.New()
	s.router.Use(gin.Recovery(), s.requestLogger())
	s.router.Use(cors.New(corsConfig(cfg.AllowedOrigins)))
	s.routes()
	return s, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func (s *Server) routes() {
	s.router.GET("/health", s.healthCheck)

	api := s.router.Group("/api", s.authenticate())
	api.POST("/calculate", s.calculate)
	api.GET("/profile", s.getProfile)
	api.PUT("/profile", s.putProfile)
	api.GET("/history", s.listHistory)
	api.POST("/history", s.createHistory)
	api.PATCH("/history/:id", s.updateDecision)
	api.DELETE("/history/:id", s.deleteHistory)
	api.GET("/insights", s.getInsights)
}

// Handler returns the router as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	return s.serve(ctx, s.httpServer(addr, nil))
}

// RunTLS is Run over HTTPS with tlsConfig.
func (s *Server) RunTLS(ctx context.Context, addr string, tlsConfig *tls.Config) error {
	if tlsConfig == nil {
		return errors.New("TLS config is required")
	}
	return s.serve(ctx, s.httpServer(addr, tlsConfig))
}

func (s *Server) httpServer(addr string, tlsConfig *tls.Config) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.router,
		TLSConfig:         tlsConfig,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func (s *Server) serve(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server starting", "addr", srv.Addr, "tls", srv.TLSConfig != nil)
		var err error
		if srv.TLSConfig != nil {
			err = srv.ListenAndServeTLS("", "")
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("Server stopped")
	return nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("Request handled",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": ServiceName,
	})
}
