package server

import (
	"context"
	"net/http"
	"time"

	"talent-sourcing/internal/sourcing"
	"talent-sourcing/internal/storage/redis"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionResolver maps a bearer token to a user, uuid.Nil when the token is
// unknown or expired.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (uuid.UUID, error)
}

type Server struct {
	svc        *sourcing.Service
	sessions   SessionResolver
	cache      *redis.Cache
	logger     *zap.Logger
	httpServer *http.Server
}

func New(svc *sourcing.Service, sessions SessionResolver, cache *redis.Cache, logger *zap.Logger) *Server {
	s := &Server{
		svc:      svc,
		sessions: sessions,
		cache:    cache,
		logger:   logger,
	}

	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(s.requestLogger(), s.recovery())

	engine.GET("/health", s.handleHealth)

	api := engine.Group("/api", s.authenticate())
	{
		api.POST("/sourcing", s.handleSourcing)
		api.GET("/sourcing/batches/:id", s.handleBatchResults)
		api.PATCH("/sourcing/results/:id", s.handleResultTransition)
		api.GET("/candidates/:id", s.handleCandidateDetail)
	}

	s.httpServer = &http.Server{
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

func (s *Server) Run(addr string) error {
	s.httpServer.Addr = addr
	s.logger.Info("http server listening", zap.String("addr", addr))
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
