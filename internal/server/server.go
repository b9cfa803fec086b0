// file: internal/server/server.go
// version: 2.0.0
// guid: 4c5d6e7f-8a9b-0c1d-2e3f-4a5b6c7d8e9f

package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jdfalk/audible-tagger/internal/config"
	"github.com/jdfalk/audible-tagger/internal/database"
	"github.com/jdfalk/audible-tagger/internal/models"
	"github.com/jdfalk/audible-tagger/internal/realtime"
)

// Tagging is the pipeline surface the HTTP API drives. Implemented by
// pipeline.Pipeline; tests substitute a fake.
type Tagging interface {
	SearchForFile(fileID string) (string, []models.SearchResult, error)
	CustomSearch(fileID, query string) (string, []models.SearchResult, error)
	ProcessSelection(fileID, selectionID string) (*database.Audiobook, error)
	AutoProcess(fileID string) (*database.Audiobook, error)
	AutoProcessAll(incomingDir string, onFile func(fileID string, err error)) (int, int, error)
	Skip(fileID string) error
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	cfg        config.Config
	store      database.Store
	tagging    Tagging
	events     *realtime.EventHub
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// NewServer creates a new server instance. events may be nil, in which case
// the SSE endpoint serves a hub nobody publishes to.
func NewServer(cfg config.Config, store database.Store, tagging Tagging, events *realtime.EventHub) *Server {
	router := gin.Default()

	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	if events == nil {
		events = realtime.NewEventHub()
	}

	server := &Server{
		router:  router,
		cfg:     cfg,
		store:   store,
		tagging: tagging,
		events:  events,
	}

	server.setupRoutes()

	return server
}

// setupRoutes configures all the routes
func (s *Server) setupRoutes() {
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.GET("/api/health", s.healthCheck)
	s.router.GET("/api/v1/health", s.healthCheck)

	// SSE stream sits outside the rate-limited group; it is one long request.
	s.router.GET("/api/v1/events", s.events.HandleSSE)

	api := s.router.Group("/api/v1")
	api.Use(rateLimitMiddleware())
	{
		api.GET("/audiobooks", s.listAudiobooks)
		api.GET("/audiobooks/:id", s.getAudiobook)
		api.GET("/audiobooks/:id/search", s.searchAudiobook)
		api.POST("/audiobooks/:id/search", s.customSearchAudiobook)
		api.POST("/audiobooks/:id/process", s.processAudiobook)
		api.POST("/audiobooks/:id/auto", s.autoProcessAudiobook)
		api.POST("/audiobooks/:id/skip", s.skipAudiobook)

		api.POST("/scan", s.scanIncoming)
		api.POST("/batch/auto", s.autoProcessBatch)
	}
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until SIGINT/SIGTERM, then shuts
// down gracefully.
func (s *Server) Start(cfg ServerConfig) error {
	s.httpServer = &http.Server{
		Addr:           fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Handler:        s.router,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: 1 << 20, // 1MB
	}

	go func() {
		log.Printf("Starting server on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("Server exited")
	return nil
}
