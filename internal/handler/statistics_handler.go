package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ticktick/backend/internal/service"
)

type StatisticsHandler struct {
	statisticsService *service.StatisticsService
}

func NewStatisticsHandler(statisticsService *service.StatisticsService) *StatisticsHandler {
	return &StatisticsHandler{statisticsService: statisticsService}
}

func (h *StatisticsHandler) Summary(c *gin.Context) {
	view, apiErr := h.statisticsService.Summary(c.Request.Context(), time.Now())
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *StatisticsHandler) SessionDetail(c *gin.Context) {
	view, apiErr := h.statisticsService.SessionDetail(c.Request.Context(), c.Param("id"), time.Now())
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, view)
}
