// Package server assembles the HTTP surface: JSON routes, SSE streams, the
// WebSocket chat endpoint, and the contractual error envelope.
package server

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bhupeshcoding/codecoach/config"
	"github.com/bhupeshcoding/codecoach/internal/ai"
	"github.com/bhupeshcoding/codecoach/internal/cache"
	"github.com/bhupeshcoding/codecoach/internal/jobs"
	"github.com/bhupeshcoding/codecoach/internal/limiter"
	"github.com/bhupeshcoding/codecoach/internal/registry"
	"github.com/bhupeshcoding/codecoach/internal/store"
	"github.com/bhupeshcoding/codecoach/models"
)

// Server owns the echo instance and every shared dependency. Dependencies
// are constructed once at startup and injected here; there are no package
// globals.
type Server struct {
	echo   *echo.Echo
	cfg    *config.Config
	cache  *cache.Manager
	logger *log.Logger
}

// New builds the fully routed server. The store may be nil; handlers then
// fall back to built-in data.
func New(cfg *config.Config, cm *cache.Manager, st *store.Store, svc *ai.Service, reg *registry.Registry, jm *jobs.Manager) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	logger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)

	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Cookie"},
		AllowCredentials: true,
	}))
	e.Use(timingMiddleware(logger))

	e.HTTPErrorHandler = errorHandler(logger)

	s := &Server{echo: e, cfg: cfg, cache: cm, logger: logger}

	e.GET("/", s.root)
	e.GET("/health", s.health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api/v1")

	ch := &ChatHandler{
		AI:       svc,
		Registry: reg,
		Limiter:  limiter.New(cfg.RateLimit.ChatMaxCalls, cfg.RateLimit.ChatWindow),
		logger:   log.New(log.Writer(), "[CHAT] ", log.LstdFlags),
	}
	ch.Register(api.Group("/chat"))

	lh := &LeetCodeHandler{
		AI:      svc,
		Store:   st,
		Jobs:    jm,
		Cache:   cm,
		Limiter: limiter.New(cfg.RateLimit.ProblemsMaxCalls, cfg.RateLimit.ProblemsWindow),
		cfg:     cfg,
		logger:  log.New(log.Writer(), "[LEETCODE] ", log.LstdFlags),
	}
	lh.Register(api.Group("/leetcode"))

	return s
}

// Echo exposes the router, mainly for tests.
func (s *Server) Echo() *echo.Echo { return s.echo }

// Start listens on addr (falling back to the configured listen address).
func (s *Server) Start(addr string) error {
	if addr == "" {
		addr = s.cfg.General.Listen
	}
	s.logger.Printf("listening on %s", addr)
	return s.echo.Start(addr)
}

func (s *Server) root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"message":     "Welcome to " + s.cfg.General.ProjectName + "!",
		"description": s.cfg.General.Description,
		"version":     s.cfg.General.Version,
		"features": []string{
			"Top 150 LeetCode Problems",
			"AI-Powered Solutions",
			"Motivational Content",
			"Progress Tracking",
			"Real-time Chat",
			"Streaming Responses",
		},
		"motivation": "Every line of code you write brings you closer to mastery!",
	})
}

func (s *Server) health(c echo.Context) error {
	cacheStatus := "disconnected"
	if s.cache.Connected() {
		cacheStatus = "connected"
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status":       "healthy",
		"message":      s.cfg.General.ProjectName + " is running smoothly",
		"version":      s.cfg.General.Version,
		"cache_status": cacheStatus,
	})
}

// errorHandler renders every failure as the envelope
// {error, status_code, motivation}. The motivation string is contractual and
// must never be empty.
func errorHandler(logger *log.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := "Internal server error"

		var he *echo.HTTPError
		var rle *models.RateLimitError
		switch {
		case errors.As(err, &he):
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		case errors.As(err, &rle):
			code = http.StatusTooManyRequests
			msg = rle.Error()
		}

		motivation := "Don't worry about errors - they're stepping stones to success!"
		if code >= http.StatusInternalServerError {
			motivation = "Every bug is a learning opportunity!"
		}

		req := c.Request()
		logger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]any{
				"error":       msg,
				"status_code": code,
				"motivation":  motivation,
			})
		}
	}
}
