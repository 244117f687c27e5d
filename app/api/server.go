package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
)

// NewServer creates the HTTP surface with all routes configured. CORS is
// permissive: the expected consumer is a browser page on a null origin.
func NewServer(handler *Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	r.Use(gin.Recovery())

	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	setupRoutes(r, handler)

	return r
}

func setupRoutes(r *gin.Engine, handler *Handler) {
	r.GET("/videos", handler.GetVideos)
	r.GET("/videos/:id", handler.GetVideoByID)
	r.POST("/refresh", handler.Refresh)
	r.GET("/channels", handler.GetChannels)

	r.GET("/health", handler.GetHealth)
	r.GET("/stats", handler.GetStats)

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service":     "TubeTab",
			"version":     handler.version,
			"description": "YouTube video aggregator with relevance filtering, deduplication, and caching",
			"endpoints": map[string]string{
				"videos":   "/videos?category=<name>&refresh=<bool>",
				"video":    "/videos/<id>",
				"refresh":  "/refresh (POST)",
				"channels": "/channels?category=<name>",
				"health":   "/health",
				"stats":    "/stats",
			},
		})
	})

	// Favicon handler (return 204 to avoid 404s)
	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(204)
	})
}
