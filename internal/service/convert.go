package service

import (
	"CommandCenter/internal/api/dto"
	"CommandCenter/internal/model"
	"time"

	"github.com/jinzhu/copier"
)

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func toContentItemDTO(item *model.ContentItem) *dto.ContentItemDTO {
	d := &dto.ContentItemDTO{}
	_ = copier.Copy(d, item)
	d.Platform = string(item.Platform)
	d.ContentType = string(item.ContentType)
	d.Status = string(item.Status)
	d.ScheduledAt = formatTime(item.ScheduledAt)
	d.PublishedAt = formatTime(item.PublishedAt)
	d.PlatformPostID = derefString(item.PlatformPostID)
	d.FailureReason = derefString(item.FailureReason)
	d.FailureDetail = derefString(item.FailureDetail)
	d.CreatedAt = formatTime(&item.CreatedAt)
	d.UpdatedAt = formatTime(&item.UpdatedAt)
	return d
}

func toContentItemDTOs(items []*model.ContentItem) []*dto.ContentItemDTO {
	res := make([]*dto.ContentItemDTO, 0, len(items))
	for _, item := range items {
		res = append(res, toContentItemDTO(item))
	}
	return res
}

func toPostMetricDTO(m *model.PostMetric) *dto.PostMetricDTO {
	d := &dto.PostMetricDTO{}
	_ = copier.Copy(d, m)
	d.RecordedAt = formatTime(&m.RecordedAt)
	return d
}
