package rest

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/rigworld/server/game/engine"
	"github.com/kasuganosora/rigworld/server/model"
	"github.com/kasuganosora/rigworld/server/scheduler"
	"go.uber.org/zap"
)

// TaskLister reports scheduled work.
type TaskLister interface {
	ListTickers() []string
	ListDelays() []scheduler.PendingDelay
}

// LedgerReader reads back recorded economic events.
type LedgerReader interface {
	Recent(ctx context.Context, kind string, limit int) ([]model.LedgerEntry, error)
}

// AdminHandler handles admin-only REST endpoints.
// Routes should be protected by AdminAuth middleware.
type AdminHandler struct {
	eng    *engine.Engine
	sched  TaskLister
	ledger LedgerReader
	logger *zap.Logger
}

// NewAdminHandler creates an AdminHandler. ledger may be nil.
func NewAdminHandler(eng *engine.Engine, sched TaskLister, ledger LedgerReader, logger *zap.Logger) *AdminHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminHandler{eng: eng, sched: sched, ledger: ledger, logger: logger}
}

// Metrics returns a summary of the simulation.
// GET /api/admin/metrics
func (h *AdminHandler) Metrics(c *gin.Context) {
	snap := h.eng.Store().Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"environment":     snap.Environment,
		"agents":          len(snap.Agents),
		"nodes":           len(snap.Nodes),
		"structures":      len(snap.Structures),
		"player_rigs":     snap.PlayerRigs,
		"total_rigs":      snap.TotalRigs,
		"global_pot":      snap.Economy.GlobalPot,
		"owner_balance":   snap.Economy.OwnerBalance,
		"scheduler_tasks": h.sched.ListTickers(),
	})
}

// ListSchedulerTasks returns registered tickers and pending one-shot delays.
// GET /api/admin/scheduler
func (h *AdminHandler) ListSchedulerTasks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tasks": h.sched.ListTickers(), "delays": h.sched.ListDelays()})
}

// ForceStorm starts a storm now.
// POST /api/admin/storm
func (h *AdminHandler) ForceStorm(c *gin.Context) {
	if !h.eng.ForceStorm() {
		c.JSON(http.StatusConflict, gin.H{"error": "another event is running"})
		return
	}
	h.logger.Info("admin forced storm")
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// TriggerAd starts an ad break, as the external death event does.
// POST /api/admin/ad
func (h *AdminHandler) TriggerAd(c *gin.Context) {
	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)
	if req.Reason == "" {
		req.Reason = "admin"
	}
	h.eng.TriggerAd(req.Reason)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Ledger returns recent ledger rows, newest first.
// GET /api/admin/ledger?kind=&limit=
func (h *AdminHandler) Ledger(c *gin.Context) {
	if h.ledger == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "ledger disabled"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	rows, err := h.ledger.Recent(c.Request.Context(), c.Query("kind"), limit)
	if err != nil {
		h.logger.Error("read ledger", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": rows, "count": len(rows)})
}

// EnvHistory returns recent environment transitions.
// GET /api/admin/env-history
func (h *AdminHandler) EnvHistory(c *gin.Context) {
	hist, err := h.eng.Director().History(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cache error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": hist})
}

// AdminAuth returns a middleware that checks the X-Admin-Key header.
// WARNING: if adminKey is empty all admin endpoints are disabled (503) so the
// server cannot be accidentally deployed without protection. Set a non-empty
// server.admin_key in config to enable admin routes.
func AdminAuth(adminKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if adminKey == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable,
				gin.H{"error": "admin endpoints disabled: set server.admin_key in config"})
			return
		}
		if c.GetHeader("X-Admin-Key") != adminKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
