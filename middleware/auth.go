package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/rigworld/server/cache"
	"github.com/kasuganosora/rigworld/server/config"
)

const SessionIDKey = "session_id"

var (
	ErrMissingToken   = errors.New("missing token")
	ErrInvalidToken   = errors.New("invalid token")
	ErrSessionExpired = errors.New("session expired")
)

// SessionKey is the cache key holding a live session.
func SessionKey(sessionID string) string { return "session:" + sessionID }

// VerifySession parses the token and confirms its session is still cached.
// The WebSocket and SSE endpoints use it for query-string tokens.
func VerifySession(ctx context.Context, tokenStr string, sec config.SecurityConfig, c cache.Cache) (*Claims, error) {
	if tokenStr == "" {
		return nil, ErrMissingToken
	}
	claims, err := ParseToken(tokenStr, sec.JWTSecret)
	if err != nil {
		return nil, ErrInvalidToken
	}
	cacheCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	exists, err := c.Exists(cacheCtx, SessionKey(claims.SessionID))
	if err != nil || !exists {
		return nil, ErrSessionExpired
	}
	return claims, nil
}

// Auth validates the Bearer JWT token and checks the session cache.
func Auth(sec config.SecurityConfig, c cache.Cache) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		header := ctx.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": ErrMissingToken.Error()})
			return
		}
		claims, err := VerifySession(ctx.Request.Context(), strings.TrimPrefix(header, "Bearer "), sec, c)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		ctx.Set(SessionIDKey, claims.SessionID)
		ctx.Next()
	}
}

// GetSessionID retrieves the authenticated session ID from the Gin context.
func GetSessionID(c *gin.Context) string {
	if v, exists := c.Get(SessionIDKey); exists {
		return v.(string)
	}
	return ""
}
