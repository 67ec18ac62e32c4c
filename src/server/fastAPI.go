package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"coin-dashboard/src/logger"
	"coin-dashboard/src/models"
	"coin-dashboard/src/network"
	"coin-dashboard/src/store"
	"coin-dashboard/src/theme"

	"github.com/gin-gonic/gin"
)

// BreakerReader exposes the upstream circuit breaker state.
type BreakerReader interface {
	GetState() network.State
}

// -----------------------------------------------------------------------------
// FastAPIServer
// -----------------------------------------------------------------------------

type FastAPIServer struct {
	Config  *models.MConfig
	Logger  *logger.Logger
	Store   *store.Store
	Theme   *theme.Manager
	Breaker BreakerReader

	engine     *gin.Engine
	httpServer *http.Server
	debounce   time.Duration

	// WebSocket views
	clients    map[*Client]struct{}
	broadcast  chan *models.MPushMessage // Buffered queue of pushes to every view
	register   chan *Client
	unregister chan *Client
	quit       chan struct{}
	stopOnce   sync.Once

	stateMutex  sync.RWMutex
	connections int
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewFastAPIServer(cfg *models.MConfig, st *store.Store, tm *theme.Manager, breaker BreakerReader, logger *logger.Logger) *FastAPIServer {
	// Set Gin mode
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &FastAPIServer{
		Config:   cfg,
		Logger:   logger,
		Store:    st,
		Theme:    tm,
		Breaker:  breaker,
		engine:   gin.New(),
		debounce: time.Duration(cfg.MarketData.DebounceMs) * time.Millisecond,
		clients:  make(map[*Client]struct{}),
		// Buffered channel so bursts of theme and refresh pushes do not block callers
		broadcast:  make(chan *models.MPushMessage, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
	}
	s.engine.Use(gin.Recovery())
	if cfg.LogLevel == "DEBUG" {
		s.engine.Use(gin.Logger())
	}

	// Add CORS Middleware
	s.engine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://127.0.0.1:") || strings.HasPrefix(origin, "http://localhost:") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// setup web routes
	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *FastAPIServer) setupRoutes() {
	s.engine.RedirectTrailingSlash = false

	api := s.engine.Group("/api")
	api.GET("/coins", s.getCoins)
	api.GET("/coins/", s.getCoinMissingID)
	api.GET("/coins/:id", s.getCoin)
	api.GET("/search", s.getSearch)
	api.GET("/global", s.getGlobal)
	api.POST("/refresh", s.postRefresh)
	api.GET("/theme", s.getTheme)
	api.PUT("/theme", s.putTheme)
	api.GET("/health", s.getHealth)

	// WebSocket endpoint
	s.engine.GET("/ws", s.handleWebSocket)
}

// Handler exposes the router, mainly for tests.
func (s *FastAPIServer) Handler() http.Handler {
	return s.engine
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

func (s *FastAPIServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	s.Logger.Info("Starting server on %s", addr)

	s.stateMutex.Lock()
	s.httpServer = &http.Server{Addr: addr, Handler: s.engine, ReadHeaderTimeout: 10 * time.Second}
	srv := s.httpServer
	s.stateMutex.Unlock()

	go s.handleWebsockets()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		close(s.quit)

		s.stateMutex.RLock()
		srv := s.httpServer
		s.stateMutex.RUnlock()
		if srv == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = srv.Shutdown(ctx)
	})
	return err
}

// -----------------------------------------------------------------------------

// Connections returns the number of open views.
func (s *FastAPIServer) Connections() int {
	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()
	return s.connections
}

// Methods for the hub live in hub.go, request handlers in handlers.go
