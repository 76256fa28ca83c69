package rest

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/rigworld/server/game/engine"
	"github.com/kasuganosora/rigworld/server/game/world"
	mw "github.com/kasuganosora/rigworld/server/middleware"
)

// WorldHandler exposes the world read model and the player entry points.
type WorldHandler struct {
	eng *engine.Engine
}

func NewWorldHandler(eng *engine.Engine) *WorldHandler {
	return &WorldHandler{eng: eng}
}

// Snapshot handles GET /api/world.
func (h *WorldHandler) Snapshot(c *gin.Context) {
	c.JSON(http.StatusOK, h.eng.Store().Snapshot())
}

// Collision handles GET /api/world/collision?x=&z=.
func (h *WorldHandler) Collision(c *gin.Context) {
	x, errX := strconv.ParseFloat(c.Query("x"), 64)
	z, errZ := strconv.ParseFloat(c.Query("z"), 64)
	if errX != nil || errZ != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "x and z must be numbers"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"blocked": h.eng.Store().CheckCollision(x, z)})
}

// Act handles POST /api/world/actions/:action. The body carries the
// action's arguments; the action name comes from the path.
func (h *WorldHandler) Act(c *gin.Context) {
	var a engine.Action
	if err := c.ShouldBindJSON(&a); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	a.Type = c.Param("action")

	res, err := h.eng.Apply(c.Request.Context(), mw.GetTraceID(c), a)
	status, body := actionResponse(res, err)
	body["log"] = h.eng.Store().Snapshot().Log
	c.JSON(status, body)
}

// actionResponse maps an action outcome to a status code. Domain
// rejections are 422 with the reason in the returned log.
func actionResponse(res engine.Result, err error) (int, gin.H) {
	switch {
	case err == nil:
		return http.StatusOK, gin.H{"ok": true, "result": res}
	case errors.Is(err, engine.ErrUnknownAction):
		return http.StatusNotFound, gin.H{"ok": false, "error": err.Error()}
	case errors.Is(err, world.ErrPaused):
		return http.StatusConflict, gin.H{"ok": false, "error": "ad break in progress"}
	case errors.Is(err, world.ErrClosed):
		return http.StatusServiceUnavailable, gin.H{"ok": false, "error": "world stopped"}
	default:
		return http.StatusUnprocessableEntity, gin.H{"ok": false, "error": "rejected"}
	}
}
