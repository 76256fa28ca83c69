package middleware

import (
	"errors"
	"net"
	"net/http"
	"os"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Recovery catches handler panics and returns 500 with the trace id so a
// player report can be matched to the log line. A panic inside a world
// mutation never reaches here: the store unlocks in a defer.
//
// Streams (SSE, upgraded WS) may already have written headers; those are
// only aborted. A peer that hung up gets a warning and no response.
func Recovery(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			fields := []zap.Field{
				zap.Any("error", r),
				zap.String("trace_id", GetTraceID(c)),
				zap.String("path", c.Request.URL.Path),
			}
			if err, ok := r.(error); ok && brokenPipe(err) {
				log.Warn("client went away", fields...)
				c.Abort()
				return
			}
			log.Error("panic recovered", append(fields, zap.Stack("stack"))...)
			if c.Writer.Written() {
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":    "internal server error",
				"trace_id": GetTraceID(c),
			})
		}()
		c.Next()
	}
}

func brokenPipe(err error) bool {
	var se *os.SyscallError
	if errors.As(err, &se) {
		return errors.Is(se.Err, syscall.EPIPE) || errors.Is(se.Err, syscall.ECONNRESET)
	}
	var ne *net.OpError
	return errors.As(err, &ne) && (errors.Is(ne.Err, syscall.EPIPE) || errors.Is(ne.Err, syscall.ECONNRESET))
}
