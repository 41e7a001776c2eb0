package service

import (
	"CommandCenter/internal/model"
	"CommandCenter/internal/pkg/consts"
	"CommandCenter/internal/pkg/monitoring"
	"CommandCenter/internal/pkg/platform"
	"CommandCenter/internal/pkg/scheduler"
	"CommandCenter/internal/repository"
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"time"
)

// errClaimLost 条目已不处于预期状态，本次执行放弃且没有任何副作用
var errClaimLost = errors.New("publication claim lost")

// Claim 抢占 PUBLISHING 的前置条件
type Claim struct {
	From []model.ContentStatus
	// ExpectScheduledAt 定时触发时要求 scheduled_at 未被改动
	ExpectScheduledAt *time.Time
}

// Outcome 一次发布尝试的最终结果
type Outcome struct {
	ContentID      uint64
	OwnerID        uint64
	Platform       model.Platform
	Status         model.ContentStatus
	PlatformPostID string
	PublishedAt    time.Time
	Reason         platform.Reason
	Detail         string
}

type PublishExecutor interface {
	Execute(ctx context.Context, id uint64, claim Claim) (*Outcome, error)
}

type publishExecutorImpl struct {
	contentRepo repository.ContentItemRepo
	publisher   platform.Publisher
	notifier    Notifier
	clock       scheduler.Clock
	metrics     *monitoring.Metrics
	timeout     time.Duration
}

func NewPublishExecutor(
	contentRepo repository.ContentItemRepo,
	publisher platform.Publisher,
	notifier Notifier,
	clock scheduler.Clock,
	metrics *monitoring.Metrics,
	timeout time.Duration,
) PublishExecutor {
	if clock == nil {
		clock = scheduler.RealClock()
	}
	return &publishExecutorImpl{
		contentRepo: contentRepo,
		publisher:   publisher,
		notifier:    notifier,
		clock:       clock,
		metrics:     metrics,
		timeout:     timeout,
	}
}

// Execute 抢占 -> 调用平台 -> 落库结果 -> 异步通知
// 抢占失败返回 errClaimLost，平台失败体现在 Outcome 中而不是 error
func (s *publishExecutorImpl) Execute(ctx context.Context, id uint64, claim Claim) (*Outcome, error) {
	item, err := s.contentRepo.GetWithOwner(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrContentNotFound
	}

	won, err := s.contentRepo.Transition(ctx, id, repository.StatusTransition{
		From:              claim.From,
		To:                model.StatusPublishing,
		ExpectScheduledAt: claim.ExpectScheduledAt,
	})
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, errClaimLost
	}
	invalidateScheduledList(ctx, item.OwnerID)
	log.InfoContext(ctx, "publication claimed", "content_id", id, "platform", item.Platform)

	start := s.clock.Now()
	result, pubErr := s.publish(ctx, item)
	elapsed := s.clock.Now().Sub(start)

	// 平台调用已经发出，结果必须落库，不再受调用方取消影响
	persistCtx := context.WithoutCancel(ctx)
	outcome := &Outcome{
		ContentID: item.ID,
		OwnerID:   item.OwnerID,
		Platform:  item.Platform,
	}

	if pubErr == nil {
		publishedAt := s.clock.Now().UTC().Truncate(time.Millisecond)
		ok, err := s.contentRepo.CompletePublish(persistCtx, id, publishedAt, result.PlatformPostID)
		switch {
		case err != nil:
			log.ErrorContext(ctx, "complete publish failed, marking failed", "content_id", id, "platform_post_id", result.PlatformPostID, "err", err)
			detail := fmt.Sprintf("platform accepted post %s but recording the result failed: %v", result.PlatformPostID, err)
			if err = s.markFailed(persistCtx, id, platform.ReasonUnknown, detail); err != nil {
				return nil, err
			}
			outcome.Status = model.StatusFailed
			outcome.Reason = platform.ReasonUnknown
			outcome.Detail = truncateDetail(detail)
		case !ok:
			log.ErrorContext(ctx, "content left PUBLISHING before completion", "content_id", id, "platform_post_id", result.PlatformPostID)
			return nil, UnExpectedError
		default:
			outcome.Status = model.StatusPublished
			outcome.PlatformPostID = result.PlatformPostID
			outcome.PublishedAt = publishedAt
		}
	} else {
		reason, detail := platform.Classify(pubErr)
		log.WarnContext(ctx, "platform publish failed", "content_id", id, "platform", item.Platform, "reason", reason, "err", pubErr)
		if err = s.markFailed(persistCtx, id, reason, detail); err != nil {
			return nil, err
		}
		outcome.Status = model.StatusFailed
		outcome.Reason = reason
		outcome.Detail = truncateDetail(detail)
	}

	s.metrics.ObservePublish(string(item.Platform), outcomeLabel(outcome.Status), string(outcome.Reason), elapsed)
	invalidateScheduledList(persistCtx, item.OwnerID)
	s.dispatch(persistCtx, item, outcome)

	log.InfoContext(ctx, "publication finished", "content_id", id, "status", outcome.Status, "reason", outcome.Reason, "elapsed", elapsed)
	return outcome, nil
}

// publish 抢占成功后平台调用只受超时约束，调用方断开不会中止它
func (s *publishExecutorImpl) publish(ctx context.Context, item *model.ContentItem) (*platform.Result, error) {
	pubCtx := context.WithoutCancel(ctx)
	if s.timeout > 0 {
		var cancel context.CancelFunc
		pubCtx, cancel = context.WithTimeout(pubCtx, s.timeout)
		defer cancel()
	}

	result, err := s.publisher.Publish(pubCtx, item)
	if err != nil {
		return nil, err
	}
	if result == nil || result.PlatformPostID == "" {
		return nil, &platform.PublishError{Platform: item.Platform, Reason: platform.ReasonUnknown, Message: "platform returned no post id"}
	}
	return result, nil
}

func (s *publishExecutorImpl) markFailed(ctx context.Context, id uint64, reason platform.Reason, detail string) error {
	ok, err := s.contentRepo.Transition(ctx, id, repository.StatusTransition{
		From:          []model.ContentStatus{model.StatusPublishing},
		To:            model.StatusFailed,
		FailureReason: string(reason),
		FailureDetail: truncateDetail(detail),
	})
	if err != nil {
		log.ErrorContext(ctx, "mark failed error", "content_id", id, "err", err)
		return err
	}
	if !ok {
		log.ErrorContext(ctx, "content left PUBLISHING before failure was recorded", "content_id", id)
		return UnExpectedError
	}
	return nil
}

// dispatch 通知在状态落库之后异步发出，失败只记录日志
func (s *publishExecutorImpl) dispatch(ctx context.Context, item *model.ContentItem, outcome *Outcome) {
	if s.notifier == nil {
		return
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.ErrorContext(ctx, "notifier panicked", "content_id", item.ID, "panic", r)
			}
		}()
		s.notifier.Notify(ctx, item, outcome)
	}()
}

func outcomeLabel(status model.ContentStatus) string {
	if status == model.StatusPublished {
		return "published"
	}
	return "failed"
}

func truncateDetail(detail string) string {
	r := []rune(detail)
	if len(r) <= consts.MaxFailureDetailLen {
		return detail
	}
	return string(r[:consts.MaxFailureDetailLen])
}
