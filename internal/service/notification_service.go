package service

import (
	"CommandCenter/internal/api/dto"
	"CommandCenter/internal/model"
	"CommandCenter/internal/pkg/kafka"
	"CommandCenter/internal/pkg/logger"
	"CommandCenter/internal/pkg/mongo"
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"time"

	"github.com/jinzhu/copier"
	mongoDB "go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"
)

// Notifier 发布结果通知，调用方不关心成败
type Notifier interface {
	Notify(ctx context.Context, item *model.ContentItem, outcome *Outcome)
}

type NotificationService interface {
	Notifier
	GetNotificationList(ctx context.Context, userID uint64, query *dto.SysBoxListDTO) ([]*dto.SysBoxDTO, error)
	GetUnreadCount(ctx context.Context, userID uint64) (*dto.SysBoxUnreadDTO, error)
	MarkRead(ctx context.Context, userID uint64, msgID string) error
	MarkAllRead(ctx context.Context, userID uint64) (*dto.SysBoxUnreadDTO, error)
}

type notificationServiceImpl struct {
	sysBoxRepo mongo.SysBoxRepo
	producer   kafka.OutcomeProducer
}

// NewNotificationService 站内信与 Kafka 事件两路通知，任一依赖为 nil 时跳过该路
func NewNotificationService(sysBox mongo.SysBoxRepo, producer kafka.OutcomeProducer) NotificationService {
	return &notificationServiceImpl{
		sysBoxRepo: sysBox,
		producer:   producer,
	}
}

func (s *notificationServiceImpl) Notify(ctx context.Context, item *model.ContentItem, outcome *Outcome) {
	now := time.Now()
	g, gctx := errgroup.WithContext(ctx)

	if s.sysBoxRepo != nil {
		g.Go(func() error {
			msg := buildSysBoxMessage(item, outcome, now)
			if err := s.sysBoxRepo.CreateNotification(gctx, msg); err != nil {
				return fmt.Errorf("sys_box: %w", err)
			}
			return nil
		})
	}

	if s.producer != nil {
		g.Go(func() error {
			event := &kafka.OutcomeEvent{
				ContentID:      outcome.ContentID,
				OwnerID:        outcome.OwnerID,
				Platform:       string(outcome.Platform),
				Status:         string(outcome.Status),
				PlatformPostID: outcome.PlatformPostID,
				FailureReason:  string(outcome.Reason),
				FailureDetail:  outcome.Detail,
				TraceID:        logger.TraceID(ctx),
				OccurredAt:     now,
			}
			if err := s.producer.Send(gctx, event); err != nil {
				return fmt.Errorf("kafka: %w", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.WarnContext(ctx, "publish outcome notification failed", "content_id", outcome.ContentID, "email", item.Owner.Email, "err", err)
		return
	}
	log.InfoContext(ctx, "publish outcome notified", "content_id", outcome.ContentID, "email", item.Owner.Email, "status", outcome.Status)
}

func buildSysBoxMessage(item *model.ContentItem, outcome *Outcome, now time.Time) *mongo.SysBoxModel {
	msg := &mongo.SysBoxModel{
		ReceiverID: outcome.OwnerID,
		Email:      item.Owner.Email,
		TargetID:   outcome.ContentID,
		CreatedAt:  now,
		Payload: map[string]any{
			"platform": string(outcome.Platform),
			"title":    item.Title,
		},
	}
	if outcome.Status == model.StatusPublished {
		msg.Type = mongo.SysBoxTypePublished
		msg.Content = fmt.Sprintf("《%s》已发布到 %s", item.Title, outcome.Platform)
		msg.Payload["platform_post_id"] = outcome.PlatformPostID
	} else {
		msg.Type = mongo.SysBoxTypeFailed
		msg.Content = fmt.Sprintf("《%s》发布到 %s 失败：%s", item.Title, outcome.Platform, outcome.Reason)
		msg.Payload["failure_reason"] = string(outcome.Reason)
		msg.Payload["failure_detail"] = outcome.Detail
	}
	return msg
}

// GetNotificationList 获取通知列表
func (s *notificationServiceImpl) GetNotificationList(ctx context.Context, userID uint64, query *dto.SysBoxListDTO) ([]*dto.SysBoxDTO, error) {
	page, pageSize := query.Page, query.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	limit := int64(pageSize)
	offset := int64((page - 1) * pageSize)

	list, err := s.sysBoxRepo.GetNotificationList(ctx, userID, query.UnreadOnly, limit, offset)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.SysBoxDTO, 0, len(list))
	for _, m := range list {
		d := &dto.SysBoxDTO{}
		_ = copier.Copy(d, m)
		d.ID = m.ID.Hex()
		d.CreatedAt = m.CreatedAt.UTC().Format(time.RFC3339)
		res = append(res, d)
	}
	return res, nil
}

// GetUnreadCount 获取未读数
func (s *notificationServiceImpl) GetUnreadCount(ctx context.Context, userID uint64) (*dto.SysBoxUnreadDTO, error) {
	count, err := s.sysBoxRepo.GetUnreadCount(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &dto.SysBoxUnreadDTO{UnreadCount: count}, nil
}

// MarkRead 标记单条已读，只能操作自己的通知
func (s *notificationServiceImpl) MarkRead(ctx context.Context, userID uint64, msgID string) error {
	err := s.sysBoxRepo.MarkAsRead(ctx, userID, msgID)
	if err != nil {
		if errors.Is(err, mongoDB.ErrInvalidIndexValue) {
			return ErrParamInvalid
		}
		if errors.Is(err, mongoDB.ErrNoDocuments) {
			return ErrNotificationNotFound
		}
		return err
	}
	return nil
}

// MarkAllRead 一键已读，返回剩余未读数
func (s *notificationServiceImpl) MarkAllRead(ctx context.Context, userID uint64) (*dto.SysBoxUnreadDTO, error) {
	n, err := s.sysBoxRepo.MarkAllRead(ctx, userID)
	if err != nil {
		return nil, err
	}
	log.InfoContext(ctx, "notifications marked read", "user_id", userID, "count", n)
	return s.GetUnreadCount(ctx, userID)
}
