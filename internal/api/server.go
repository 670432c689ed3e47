package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/luispater/sl2browser/internal/runner"
)

// Server represents the API server
type Server struct {
	engine    *gin.Engine
	server    *http.Server
	queue     *RequestQueue
	processor *KeywordProcessor
	handlers  *APIHandlers
}

// ServerConfig contains configuration for the API server
type ServerConfig struct {
	Port           string
	Debug          bool
	RequestTimeout time.Duration
	SuitesDir      string
}

// NewServer creates a new API server running keywords on keywords.
func NewServer(config *ServerConfig, keywords runner.KeywordRunner) *Server {
	if !config.Debug && gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	timeout := config.RequestTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	processor := NewKeywordProcessor(keywords, config.SuitesDir)
	queue := NewRequestQueue(processor)
	handlers := NewAPIHandlers(queue, processor, timeout)

	engine := gin.New()
	engine.Use(gin.Logger())
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	s := &Server{
		engine:    engine,
		queue:     queue,
		processor: processor,
		handlers:  handlers,
	}
	s.setupRoutes()

	s.server = &http.Server{
		Addr:    ":" + config.Port,
		Handler: engine,
	}
	return s
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	v1 := s.engine.Group("/v1")
	{
		v1.GET("/keywords", s.handlers.Keywords)
		v1.POST("/keywords/run", s.handlers.RunKeyword)
		v1.POST("/translate", s.handlers.Translate)
		v1.GET("/suites", s.handlers.Suites)
		v1.POST("/suites/run", s.handlers.RunSuite)
		v1.POST("/suites/:name/run", s.handlers.RunNamedSuite)
	}

	s.engine.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Selenium Library Browser Adapter",
			"version": "1.0.0",
			"queue":   s.queue.GetQueueLength(),
			"endpoints": []string{
				"GET /v1/keywords",
				"POST /v1/keywords/run",
				"POST /v1/translate",
				"GET /v1/suites",
				"POST /v1/suites/run",
				"POST /v1/suites/:name/run",
			},
		})
	})
}

// Handler exposes the routes, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// StartQueue starts task processing without listening.
func (s *Server) StartQueue() error {
	if err := s.queue.Start(); err != nil {
		return fmt.Errorf("failed to start request queue: %w", err)
	}
	return nil
}

// Start starts the request queue and serves until Stop.
func (s *Server) Start() error {
	if err := s.StartQueue(); err != nil {
		return err
	}

	log.Debugf("Starting API server on %s", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully stops the API server
func (s *Server) Stop(ctx context.Context) error {
	log.Debug("Stopping API server...")

	if err := s.queue.Stop(); err != nil {
		log.Debugf("Error stopping request queue: %v", err)
	}
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	log.Debug("API server stopped")
	return nil
}

// corsMiddleware adds CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
