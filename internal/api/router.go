package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/markaggar/water-monitor-go/internal/config"
	"github.com/markaggar/water-monitor-go/internal/handler"
	"github.com/markaggar/water-monitor-go/internal/middleware"
	"github.com/markaggar/water-monitor-go/internal/service"
)

// SetupRouter wires the monitor endpoints
func SetupRouter(cfg *config.Config, monitorService *service.MonitorService) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.RateLimit(600, time.Minute))

	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Water Monitor API is running",
		})
	})

	monitorHandler := handler.NewMonitorHandler(monitorService)

	api := r.Group("/api/v1")
	{
		// Mutating feeds require the shared-secret token
		feeds := api.Group("")
		feeds.Use(middleware.JWTAuth(cfg.JWTSecret))
		{
			feeds.POST("/samples", monitorHandler.IngestSample)
			feeds.POST("/tick", monitorHandler.Tick)
			feeds.POST("/daily-run", monitorHandler.RunDaily)
		}

		api.GET("/snapshot", monitorHandler.GetSnapshot)
		api.GET("/sessions", monitorHandler.GetSessions)
		api.GET("/daily", monitorHandler.GetDailySummaries)
		api.GET("/leaks", monitorHandler.GetLeaks)
		api.GET("/baseline", monitorHandler.GetBaseline)
	}

	return r
}
