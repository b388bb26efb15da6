// Package server exposes the proxy routes: thin HTTP handlers that
// validate and forward quote/swap requests to the aggregator, for
// environments where direct browser calls are blocked by cross-origin
// policy.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sol-swap/pkg/jupiter"
	"sol-swap/pkg/tokens"
)

// Aggregator is the upstream surface the proxy forwards to.
type Aggregator interface {
	GetQuote(ctx context.Context, params jupiter.GetQuoteParams) (*jupiter.QuoteResponse, error)
	BuildSwap(ctx context.Context, params jupiter.BuildSwapParams) (*jupiter.SwapResponse, error)
}

// TokenLoader supplies the token list for GET /api/tokens.
type TokenLoader interface {
	Load(ctx context.Context) *tokens.Registry
}

// Server is the proxy HTTP service.
type Server struct {
	aggregator Aggregator
	loader     TokenLoader
	log        *zap.Logger
	engine     *gin.Engine
	httpServer *http.Server
}

// New builds the server and registers its routes.
func New(addr string, aggregator Aggregator, loader TokenLoader, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		aggregator: aggregator,
		loader:     loader,
		log:        log,
		engine:     engine,
		httpServer: &http.Server{Addr: addr, Handler: engine},
	}

	engine.Use(s.requestLogger())

	api := engine.Group("/api")
	api.GET("/quote", s.handleQuote)
	api.POST("/swap", s.handleSwap)
	api.GET("/tokens", s.handleTokens)
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return s
}

// Engine exposes the router for tests.
func (s *Server) Engine() *gin.Engine { return s.engine }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("proxy listening", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.log.Info("shutting down")
	return s.httpServer.Shutdown(shutdownCtx)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
