package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/cinescout/cinescout/internal/catalog"
	"github.com/cinescout/cinescout/internal/config"
	"github.com/cinescout/cinescout/internal/discovery"
	"github.com/cinescout/cinescout/internal/history"
	"github.com/cinescout/cinescout/internal/scheduler"
	"github.com/cinescout/cinescout/internal/websocket"
)

// Server handles HTTP requests for the CineScout API.
type Server struct {
	echo   *echo.Echo
	hub    *websocket.Hub
	logger zerolog.Logger
	cfg    *config.Config

	vocab          *catalog.Vocabulary
	sessions       *discovery.Manager
	historyService *history.Service
	sched          *scheduler.Scheduler

	startTime time.Time
}

// NewServer creates a new API server instance.
func NewServer(cfg *config.Config, vocab *catalog.Vocabulary, sessions *discovery.Manager, historyService *history.Service, hub *websocket.Hub, logger zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:           e,
		hub:            hub,
		logger:         logger.With().Str("component", "api").Logger(),
		cfg:            cfg,
		vocab:          vocab,
		sessions:       sessions,
		historyService: historyService,
		startTime:      time.Now(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// SetScheduler wires the task scheduler for the tasks listing endpoint.
func (s *Server) SetScheduler(sched *scheduler.Scheduler) {
	s.sched = sched
}

// setupMiddleware configures Echo middleware.
func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.echo.Use(middleware.Recover())

	// Request ID
	s.echo.Use(middleware.RequestID())

	// CORS
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	// Request logging
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogMethod:   true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Err(v.Error).
					Msg("request error")
			} else {
				s.logger.Info().
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Msg("request")
			}
			return nil
		},
	}))

	// Gzip compression
	s.echo.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			// Skip compression for WebSocket
			return c.Request().Header.Get("Upgrade") == "websocket"
		},
	}))
}

// setupRoutes configures API routes.
func (s *Server) setupRoutes() {
	// Health check
	s.echo.GET("/health", s.healthCheck)

	// WebSocket status stream
	s.echo.GET("/ws", s.hub.HandleWebSocket)

	api := s.echo.Group("/api")

	// System routes
	api.GET("/status", s.getStatus)
	api.GET("/tasks", s.listTasks)

	// Vocabulary for chip rendering
	api.GET("/vocab", s.getVocabulary)

	// Session routes
	sessions := api.Group("/sessions")
	sessions.POST("", s.createSession)
	sessions.GET("/:id", s.getSession)
	sessions.DELETE("/:id", s.deleteSession)
	sessions.POST("/:id/tokens", s.addToken)
	sessions.DELETE("/:id/tokens", s.removeToken)
	sessions.DELETE("/:id/tokens/all", s.clearTokens)
	sessions.POST("/:id/search", s.runSearch)
	sessions.POST("/:id/more", s.loadMore)
	sessions.POST("/:id/selection/toggle", s.toggleSelection)
	sessions.DELETE("/:id/selection", s.clearSelection)
	sessions.POST("/:id/recommend", s.recommend)

	// History routes
	api.GET("/history", s.getHistory)
}

// Start begins listening for HTTP requests.
func (s *Server) Start(address string) error {
	s.logger.Info().Str("address", address).Msg("starting HTTP server")
	return s.echo.Start(address)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down HTTP server")
	return s.echo.Shutdown(ctx)
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"version":   "0.1.0",
		"startTime": s.startTime.Format(time.RFC3339),
		"sessions":  s.sessions.Len(),
		"wsClients": s.hub.ClientCount(),
	})
}

func (s *Server) listTasks(c echo.Context) error {
	if s.sched == nil {
		return c.JSON(http.StatusOK, []scheduler.TaskInfo{})
	}
	return c.JSON(http.StatusOK, s.sched.ListTasks())
}

func (s *Server) getVocabulary(c echo.Context) error {
	return c.JSON(http.StatusOK, s.vocab)
}
