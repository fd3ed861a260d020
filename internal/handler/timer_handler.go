package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ticktick/backend/internal/service"
)

type TimerHandler struct {
	timerService *service.TimerService
}

type updateSessionRequest struct {
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`
}

func NewTimerHandler(timerService *service.TimerService) *TimerHandler {
	return &TimerHandler{timerService: timerService}
}

func (h *TimerHandler) Status(c *gin.Context) {
	view, apiErr := h.timerService.Status(c.Request.Context(), time.Now())
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *TimerHandler) Start(c *gin.Context) {
	result, apiErr := h.timerService.Start(c.Request.Context(), time.Now())
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *TimerHandler) Pause(c *gin.Context) {
	result, apiErr := h.timerService.Pause(c.Request.Context(), time.Now())
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *TimerHandler) Continue(c *gin.Context) {
	result, apiErr := h.timerService.Continue(c.Request.Context(), time.Now())
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *TimerHandler) Stop(c *gin.Context) {
	result, apiErr := h.timerService.Stop(c.Request.Context(), time.Now())
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *TimerHandler) Reset(c *gin.Context) {
	result, apiErr := h.timerService.Reset(c.Request.Context(), time.Now())
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *TimerHandler) Delete(c *gin.Context) {
	result, apiErr := h.timerService.Delete(c.Request.Context(), c.Param("id"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *TimerHandler) Update(c *gin.Context) {
	var req updateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "invalid_json", "message": "invalid request body"},
		})
		return
	}

	result, apiErr := h.timerService.Update(c.Request.Context(), c.Param("id"), service.UpdateSessionInput{
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	}, time.Now())
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, result)
}
