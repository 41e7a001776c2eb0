package handler

import (
	"CommandCenter/internal/api/dto"
	"CommandCenter/internal/pkg/response"
	"CommandCenter/internal/service"
	"time"

	"github.com/gin-gonic/gin"
)

type ScheduleHandler struct {
	scheduleSvc service.ScheduleService
}

func NewScheduleHandler(scheduleSvc service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{
		scheduleSvc: scheduleSvc,
	}
}

// Schedule 设置或修改定时发布时间
func (s *ScheduleHandler) Schedule(c *gin.Context) {
	userID := c.GetUint64("user_id")
	id, ok := contentID(c)
	if !ok {
		return
	}

	var req dto.ScheduleDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}
	fireAt, err := time.Parse(time.RFC3339, req.ScheduledAt)
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	item, err := s.scheduleSvc.Schedule(c.Request.Context(), userID, id, fireAt)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, item)
}

func (s *ScheduleHandler) Cancel(c *gin.Context) {
	userID := c.GetUint64("user_id")
	id, ok := contentID(c)
	if !ok {
		return
	}

	if err := s.scheduleSvc.Cancel(c.Request.Context(), userID, id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// PublishNow 同步发布，等待平台返回
func (s *ScheduleHandler) PublishNow(c *gin.Context) {
	userID := c.GetUint64("user_id")
	id, ok := contentID(c)
	if !ok {
		return
	}

	result, err := s.scheduleSvc.PublishNow(c.Request.Context(), userID, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

func (s *ScheduleHandler) ListScheduled(c *gin.Context) {
	userID := c.GetUint64("user_id")

	list, err := s.scheduleSvc.ListScheduled(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}
