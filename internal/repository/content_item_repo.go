package repository

import (
	"CommandCenter/internal/model"
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// StatusTransition 描述一次带前置条件的状态迁移 (compare-and-set)
type StatusTransition struct {
	From []model.ContentStatus
	To   model.ContentStatus
	// ExpectScheduledAt 非空时额外要求 scheduled_at 与之相等
	ExpectScheduledAt *time.Time
	// ScheduledAt 仅在 To 为 SCHEDULED 时写入，其余状态一律清空
	ScheduledAt   *time.Time
	FailureReason string
	FailureDetail string
}

type ContentItemRepo interface {
	Create(ctx context.Context, item *model.ContentItem) error
	GetByID(ctx context.Context, id uint64) (*model.ContentItem, error)
	GetWithOwner(ctx context.Context, id uint64) (*model.ContentItem, error)
	Transition(ctx context.Context, id uint64, t StatusTransition) (bool, error)
	CompletePublish(ctx context.Context, id uint64, publishedAt time.Time, platformPostID string) (bool, error)
	ListScheduled(ctx context.Context) ([]*model.ContentItem, error)
	ListScheduledByOwner(ctx context.Context, ownerID uint64) ([]*model.ContentItem, error)
	ListDue(ctx context.Context, until time.Time, limit int) ([]*model.ContentItem, error)
	ListByStatus(ctx context.Context, status model.ContentStatus) ([]*model.ContentItem, error)
}

type contentItemRepoImpl struct {
	db *gorm.DB
}

func NewContentItemRepo(db *gorm.DB) ContentItemRepo {
	return &contentItemRepoImpl{db: db}
}

func (s *contentItemRepoImpl) Create(ctx context.Context, item *model.ContentItem) error {
	return s.db.WithContext(ctx).Create(item).Error
}

// GetByID 不存在时返回 nil, nil
func (s *contentItemRepoImpl) GetByID(ctx context.Context, id uint64) (*model.ContentItem, error) {
	var item model.ContentItem
	err := s.db.WithContext(ctx).First(&item, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// GetWithOwner 附带内容所有者，用于发布与通知
func (s *contentItemRepoImpl) GetWithOwner(ctx context.Context, id uint64) (*model.ContentItem, error) {
	var item model.ContentItem
	err := s.db.WithContext(ctx).Preload("Owner").First(&item, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// Transition 条件更新，返回是否抢到本次迁移
func (s *contentItemRepoImpl) Transition(ctx context.Context, id uint64, t StatusTransition) (bool, error) {
	return transition(s.db.WithContext(ctx), id, t)
}

func transition(tx *gorm.DB, id uint64, t StatusTransition) (bool, error) {
	updates := map[string]any{
		"status":       t.To,
		"scheduled_at": nil,
	}
	if t.To == model.StatusScheduled {
		updates["scheduled_at"] = t.ScheduledAt
	}
	if t.To == model.StatusFailed {
		updates["failure_reason"] = t.FailureReason
		updates["failure_detail"] = t.FailureDetail
	}

	query := tx.Model(&model.ContentItem{}).Where("id = ? AND status IN ?", id, t.From)
	if t.ExpectScheduledAt != nil {
		query = query.Where("scheduled_at = ?", *t.ExpectScheduledAt)
	}
	result := query.Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// CompletePublish PUBLISHING -> PUBLISHED 与初始指标写入同一事务，任一失败整体回滚
func (s *contentItemRepoImpl) CompletePublish(ctx context.Context, id uint64, publishedAt time.Time, platformPostID string) (bool, error) {
	won := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.ContentItem{}).
			Where("id = ? AND status = ?", id, model.StatusPublishing).
			Updates(map[string]any{
				"status":           model.StatusPublished,
				"scheduled_at":     nil,
				"published_at":     publishedAt,
				"platform_post_id": platformPostID,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected != 1 {
			return nil
		}
		if err := tx.Create(model.NewInitialPostMetric(id, publishedAt)).Error; err != nil {
			return err
		}
		won = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return won, nil
}

// ListScheduled 全部待发布条目，按 scheduled_at 升序
func (s *contentItemRepoImpl) ListScheduled(ctx context.Context) ([]*model.ContentItem, error) {
	items := make([]*model.ContentItem, 0)
	err := s.db.WithContext(ctx).
		Where("status = ?", model.StatusScheduled).
		Order("scheduled_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *contentItemRepoImpl) ListScheduledByOwner(ctx context.Context, ownerID uint64) ([]*model.ContentItem, error) {
	items := make([]*model.ContentItem, 0)
	err := s.db.WithContext(ctx).
		Where("owner_id = ? AND status = ?", ownerID, model.StatusScheduled).
		Order("scheduled_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// ListDue 已到期但仍处于 SCHEDULED 的条目
func (s *contentItemRepoImpl) ListDue(ctx context.Context, until time.Time, limit int) ([]*model.ContentItem, error) {
	items := make([]*model.ContentItem, 0)
	err := s.db.WithContext(ctx).
		Where("status = ? AND scheduled_at <= ?", model.StatusScheduled, until).
		Order("scheduled_at ASC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *contentItemRepoImpl) ListByStatus(ctx context.Context, status model.ContentStatus) ([]*model.ContentItem, error) {
	items := make([]*model.ContentItem, 0)
	err := s.db.WithContext(ctx).
		Where("status = ?", status).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
