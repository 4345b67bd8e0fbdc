package transport

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"go-video-inspector/internal/logger"
	"go-video-inspector/internal/mcp"
	"go-video-inspector/internal/observer"
)

// NewHandler builds the HTTP transport: the same tool protocol core served
// over POST /mcp, plus health and metrics endpoints.
func NewHandler(server *mcp.Server, metrics *observer.MetricsObserver) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", healthCheck)
	r.GET("/metrics", metricsReport(metrics))
	r.POST("/mcp", handleMessage(server))

	return r
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func metricsReport(metrics *observer.MetricsObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, metrics.GetMetrics())
	}
}

func handleMessage(server *mcp.Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
			return
		}

		logger.WithFields(logrus.Fields{
			"path": c.Request.URL.Path,
			"ip":   c.ClientIP(),
		}).Debug("Handling tool protocol message")

		resp := server.HandleMessage(c.Request.Context(), body)
		if resp == nil {
			c.Status(http.StatusAccepted) // notification
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}
