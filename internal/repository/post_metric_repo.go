package repository

import (
	"CommandCenter/internal/model"
	"context"

	"gorm.io/gorm"
)

type PostMetricRepo interface {
	ListByContentItem(ctx context.Context, contentItemID uint64) ([]*model.PostMetric, error)
}

type postMetricRepoImpl struct {
	db *gorm.DB
}

func NewPostMetricRepository(db *gorm.DB) PostMetricRepo {
	return &postMetricRepoImpl{db: db}
}

// ListByContentItem 获取内容的全部指标快照，最新的在前
func (r *postMetricRepoImpl) ListByContentItem(ctx context.Context, contentItemID uint64) ([]*model.PostMetric, error) {
	metrics := make([]*model.PostMetric, 0)
	result := r.db.WithContext(ctx).
		Where("content_item_id = ?", contentItemID).
		Order("recorded_at DESC").
		Find(&metrics)
	if result.Error != nil {
		return nil, result.Error
	}
	return metrics, nil
}
