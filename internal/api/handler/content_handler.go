package handler

import (
	"CommandCenter/internal/api/dto"
	"CommandCenter/internal/pkg/response"
	"CommandCenter/internal/service"
	"strconv"

	"github.com/gin-gonic/gin"
)

type ContentHandler struct {
	contentSvc service.ContentService
}

func NewContentHandler(contentSvc service.ContentService) *ContentHandler {
	return &ContentHandler{
		contentSvc: contentSvc,
	}
}

// CreateDraft 新建草稿
func (s *ContentHandler) CreateDraft(c *gin.Context) {
	userID := c.GetUint64("user_id")

	var req dto.CreateContentDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}

	item, err := s.contentSvc.CreateDraft(c.Request.Context(), userID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, item)
}

func (s *ContentHandler) GetContent(c *gin.Context) {
	userID := c.GetUint64("user_id")
	id, ok := contentID(c)
	if !ok {
		return
	}

	detail, err := s.contentSvc.GetContent(c.Request.Context(), userID, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, detail)
}

// SubmitReview 作者提交审核
func (s *ContentHandler) SubmitReview(c *gin.Context) {
	userID := c.GetUint64("user_id")
	id, ok := contentID(c)
	if !ok {
		return
	}

	if err := s.contentSvc.SubmitReview(c.Request.Context(), userID, id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

func (s *ContentHandler) Approve(c *gin.Context) {
	id, ok := contentID(c)
	if !ok {
		return
	}

	if err := s.contentSvc.Approve(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

func (s *ContentHandler) RequestChanges(c *gin.Context) {
	id, ok := contentID(c)
	if !ok {
		return
	}

	if err := s.contentSvc.RequestChanges(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// Reject 审核驳回，body 可选
func (s *ContentHandler) Reject(c *gin.Context) {
	id, ok := contentID(c)
	if !ok {
		return
	}

	var req dto.ReviewNoteDTO
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, err)
			return
		}
	}

	if err := s.contentSvc.Reject(c.Request.Context(), id, req.Note); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// Resubmit 基于失败或取消的条目生成新草稿
func (s *ContentHandler) Resubmit(c *gin.Context) {
	userID := c.GetUint64("user_id")
	id, ok := contentID(c)
	if !ok {
		return
	}

	item, err := s.contentSvc.Resubmit(c.Request.Context(), userID, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, item)
}

func contentID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		response.Error(c, service.ErrParamInvalid)
		return 0, false
	}
	return id, true
}
