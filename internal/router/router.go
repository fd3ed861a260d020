package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ticktick/backend/internal/handler"
	"ticktick/backend/internal/middleware"
)

func New(
	timerHandler *handler.TimerHandler,
	statisticsHandler *handler.StatisticsHandler,
	corsOrigins []string,
) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery(), middleware.CORS(corsOrigins))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api")
	api.GET("/status", timerHandler.Status)
	api.POST("/start", timerHandler.Start)
	api.POST("/pause", timerHandler.Pause)
	api.POST("/continue", timerHandler.Continue)
	api.POST("/stop", timerHandler.Stop)
	api.POST("/reset", timerHandler.Reset)

	api.GET("/sessions/:id", statisticsHandler.SessionDetail)
	api.PATCH("/sessions/:id", timerHandler.Update)
	api.DELETE("/sessions/:id", timerHandler.Delete)

	api.GET("/statistics/summary", statisticsHandler.Summary)

	return engine
}
