package rest

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kasuganosora/rigworld/server/cache"
	"github.com/kasuganosora/rigworld/server/config"
	mw "github.com/kasuganosora/rigworld/server/middleware"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Loginer is notified of every successful login.
type Loginer interface {
	Login(ctx context.Context, sessionID, traceID string) error
}

// AuthHandler handles authentication REST endpoints.
type AuthHandler struct {
	cache  cache.Cache
	sec    config.SecurityConfig
	game   Loginer
	logger *zap.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(c cache.Cache, sec config.SecurityConfig, game Loginer, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{cache: c, sec: sec, game: game, logger: logger}
}

type loginRequest struct {
	Passphrase string `json:"passphrase" binding:"max=128"`
}

// Login handles POST /api/auth/login. With no passphrase hash configured
// any passphrase is accepted.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if h.sec.PassphraseHash != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(h.sec.PassphraseHash), []byte(req.Passphrase)); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
	}

	sessionID, token, ok := h.issue(c)
	if !ok {
		return
	}
	if h.game != nil {
		if err := h.game.Login(c.Request.Context(), sessionID, mw.GetTraceID(c)); err != nil {
			h.logger.Warn("login hooks", zap.Error(err))
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"session_id": sessionID,
		"expires_in": int(h.sec.JWTTTL / time.Second),
	})
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	_ = h.cache.Del(ctx, mw.SessionKey(mw.GetSessionID(c)))
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Refresh handles POST /api/auth/refresh: the old session ends and a new
// one starts. No login hooks run.
func (h *AuthHandler) Refresh(c *gin.Context) {
	old := mw.GetSessionID(c)
	if old == "" || !strings.HasPrefix(c.GetHeader("Authorization"), "Bearer ") {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	_ = h.cache.Del(ctx, mw.SessionKey(old))
	cancel()

	_, token, ok := h.issue(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *AuthHandler) issue(c *gin.Context) (sessionID, token string, ok bool) {
	sessionID = uuid.NewString()
	token, err := mw.GenerateToken(sessionID, h.sec.JWTSecret, h.sec.JWTTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token error"})
		return "", "", false
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.cache.Set(ctx, mw.SessionKey(sessionID), c.ClientIP(), h.sec.JWTTTL); err != nil {
		h.logger.Error("store session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session error"})
		return "", "", false
	}
	return sessionID, token, true
}
