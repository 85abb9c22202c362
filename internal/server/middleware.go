package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"talent-sourcing/internal/storage/redis"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const userIDKey = "user_id"

// authenticate resolves the bearer token through the Redis lookaside first,
// then the session table. A cache failure falls through to the database
// rather than failing the request.
func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "missing or invalid authorization header",
			})
			return
		}

		if cached, err := s.cache.GetCachedSession(c.Request.Context(), token); err == nil {
			if userID, err := uuid.Parse(cached); err == nil {
				c.Set(userIDKey, userID)
				c.Next()
				return
			}
		} else if !errors.Is(err, redis.ErrCacheMiss) {
			s.logger.Warn("session cache unavailable", zap.Error(err))
		}

		userID, err := s.sessions.ResolveSession(c.Request.Context(), token)
		if err != nil {
			s.logger.Error("failed to resolve session", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error":   "internal error",
			})
			return
		}

		if userID == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "invalid or expired session",
			})
			return
		}

		if err := s.cache.CacheSession(c.Request.Context(), token, userID.String()); err != nil {
			s.logger.Warn("failed to cache session", zap.Error(err))
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

func currentUser(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(userIDKey); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

// requestLogger logs every request with its outcome.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		}

		if userID := currentUser(c); userID != uuid.Nil {
			fields = append(fields, zap.String("user_id", userID.String()))
		}

		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
			s.logger.Error("request failed", fields...)
		} else {
			s.logger.Info("request handled", fields...)
		}
	}
}

// recovery turns panics into plain 500s; the stack goes to the log only.
func (s *Server) recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("panic recovered",
					zap.Any("panic", r),
					zap.String("path", c.Request.URL.Path),
					zap.Stack("stack"),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"success": false,
					"error":   "internal error",
				})
			}
		}()

		c.Next()
	}
}
