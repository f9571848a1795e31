package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"title-party/internal/config"
	"title-party/internal/game"
)

// Subscriber is the read side of the change bus.
type Subscriber interface {
	Subscribe(fn func(game.Change)) func()
}

type Server struct {
	engine      *game.Engine
	ws          *wsHub
	pushes      *pushQueue
	cfg         config.Config
	logger      *zap.Logger
	limiter     *rateLimiter
	health      func(context.Context) error
	unsubscribe func()
	closeOnce   sync.Once
}

type Option func(*Server)

// WithHealthCheck makes /healthz report fn's result.
func WithHealthCheck(fn func(context.Context) error) Option {
	return func(s *Server) {
		s.health = fn
	}
}

func New(engine *game.Engine, changes Subscriber, cfg config.Config, logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		engine:  engine,
		ws:      newWSHub(),
		pushes:  newPushQueue(),
		cfg:     cfg,
		logger:  logger,
		limiter: newRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst),
	}
	for _, opt := range opts {
		opt(s)
	}
	if changes != nil {
		s.unsubscribe = changes.Subscribe(s.handleChange)
	}
	return s
}

// Close stops listening for changes and drops every websocket.
func (s *Server) Close() {
	s.closeOnce.Do(func() {
		if s.unsubscribe != nil {
			s.unsubscribe()
		}
		s.ws.CloseAll()
	})
}

func (s *Server) Handler() http.Handler {
	registerValidators()

	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(s.logger))
	router.Use(corsMiddleware(s.cfg.CORSOrigins))

	router.GET("/healthz", s.handleHealth)
	router.GET("/ws/rooms/:roomID", s.handleWebsocket)

	api := router.Group("/api")
	api.Use(s.limiter.Middleware())
	api.POST("/rooms", s.handleCreateRoom)
	api.POST("/rooms/join", s.handleJoinRoom)
	api.GET("/rooms/lookup/:code", s.handleLookupRoom)

	room := api.Group("/rooms/:roomID")
	room.GET("", s.handleSnapshot)
	room.GET("/qr", s.handleRoomQR)
	room.GET("/events", s.handleEvents)
	room.POST("/leave", s.handleLeave)
	room.POST("/start", s.handleStart)
	room.POST("/countdown", s.handleCountdown)
	room.POST("/play", s.handlePlay)
	room.POST("/close", s.handleClose)
	room.POST("/submissions", s.handleSubmit)
	room.POST("/votes", s.handleVote)
	room.POST("/reload", s.handleReload)
	room.POST("/next", s.handleNextRound)
	room.POST("/top-up", s.handleTopUp)
	room.POST("/viewing", s.handleViewing)
	room.POST("/show-all", s.handleShowAll)
	return router
}

func (s *Server) handleHealth(c *gin.Context) {
	if s.health != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := s.health(ctx); err != nil {
			s.logger.Warn("health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
