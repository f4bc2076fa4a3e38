package ops

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"chat-client/internal/session"
	"chat-client/internal/telemetry"
)

// Options controls the operational HTTP surface.
type Options struct {
	DebugToken  string
	DebugRoutes bool
}

// NewRouter builds the ops router: health, metrics and debug endpoints for
// the running client. It serves operators, not chat traffic.
func NewRouter(sess *session.Session, emitter *telemetry.AuditEmitter, opts Options) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("chat-client"))

	router.GET("/healthz", func(c *gin.Context) {
		status := "connected"
		if !sess.Connected() {
			status = "disconnected"
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "realtime": status})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	registerDebugRoutes(router, sess, emitter, opts)
	return router
}

func registerDebugRoutes(router *gin.Engine, sess *session.Session, emitter *telemetry.AuditEmitter, opts Options) {
	if !opts.DebugRoutes {
		return
	}

	debug := router.Group("/debug", debugTokenMiddleware(opts.DebugToken))

	debug.GET("/state", func(c *gin.Context) {
		st := sess.Store()
		chats := st.Chats()
		counts := make(map[int64]int, len(chats))
		for _, chat := range chats {
			counts[chat.ID] = len(st.Messages(chat.ID))
		}
		c.JSON(http.StatusOK, gin.H{
			"user":      sess.User().Username,
			"connected": sess.Connected(),
			"chats":     len(chats),
			"messages":  counts,
		})
	})

	debug.GET("/audit-test", func(c *gin.Context) {
		if emitter == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "audit emitter not configured"})
			return
		}
		uid := sess.User().ID
		emitter.Emit(c.Request.Context(), "INFO", "audit test", c.GetHeader("X-Request-Id"), &uid)
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// debugTokenMiddleware guards debug routes with a shared token. An empty
// configured token disables the routes outright.
func debugTokenMiddleware(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" || c.GetHeader("X-Debug-Token") != token {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid debug token"})
			return
		}
		c.Next()
	}
}
