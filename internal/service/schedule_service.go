package service

import (
	"CommandCenter/internal/api/dto"
	"CommandCenter/internal/model"
	"CommandCenter/internal/pkg/consts"
	"CommandCenter/internal/pkg/logger"
	"CommandCenter/internal/pkg/monitoring"
	"CommandCenter/internal/pkg/platform"
	"CommandCenter/internal/pkg/redis"
	"CommandCenter/internal/pkg/scheduler"
	"CommandCenter/internal/repository"
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// interruptedDetail 重启时发现仍处于 PUBLISHING 的条目
const interruptedDetail = "publication interrupted by restart"

type ScheduleService interface {
	Schedule(ctx context.Context, userID uint64, id uint64, fireAt time.Time) (*dto.ContentItemDTO, error)
	Cancel(ctx context.Context, userID uint64, id uint64) error
	PublishNow(ctx context.Context, userID uint64, id uint64) (*dto.PublishResultDTO, error)
	ListScheduled(ctx context.Context, ownerID uint64) ([]*dto.ContentItemDTO, error)
	Rehydrate(ctx context.Context) (*RehydrateReport, error)
	SweepDue(ctx context.Context) (int, error)
	Stop()
}

// RehydrateReport 启动恢复结果
type RehydrateReport struct {
	Interrupted int
	Armed       int
	Overdue     []uint64
	Published   int
	Failed      int
}

// ScheduleOptions 调度参数
type ScheduleOptions struct {
	SweepGrace   time.Duration
	SweepBatch   int
	ListCacheTTL time.Duration
}

type scheduleServiceImpl struct {
	contentRepo repository.ContentItemRepo
	executor    PublishExecutor
	notifier    Notifier
	registry    *scheduler.Registry
	clock       scheduler.Clock
	metrics     *monitoring.Metrics
	opts        ScheduleOptions
}

func NewScheduleService(
	contentRepo repository.ContentItemRepo,
	executor PublishExecutor,
	notifier Notifier,
	clock scheduler.Clock,
	metrics *monitoring.Metrics,
	opts ScheduleOptions,
) ScheduleService {
	if clock == nil {
		clock = scheduler.RealClock()
	}
	if opts.SweepBatch <= 0 {
		opts.SweepBatch = 100
	}
	if opts.ListCacheTTL <= 0 {
		opts.ListCacheTTL = 5 * time.Minute
	}

	s := &scheduleServiceImpl{
		contentRepo: contentRepo,
		executor:    executor,
		notifier:    notifier,
		clock:       clock,
		metrics:     metrics,
		opts:        opts,
	}
	s.registry = scheduler.NewRegistry(clock, log.Default(), s.fire)
	s.registry.OnChange(metrics.SetArmedTriggers)
	return s
}

// Schedule 将 DRAFT/APPROVED 条目提交到未来时间点，已 SCHEDULED 的条目改期
func (s *scheduleServiceImpl) Schedule(ctx context.Context, userID uint64, id uint64, fireAt time.Time) (*dto.ContentItemDTO, error) {
	item, err := s.getOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	// datetime(3) 精度，保证触发时的 scheduled_at 比较与库中一致
	fireAt = fireAt.UTC().Truncate(time.Millisecond)
	if !fireAt.After(s.clock.Now()) {
		return nil, ErrInvalidTime
	}

	var t repository.StatusTransition
	switch {
	case item.Status == model.StatusScheduled:
		t = repository.StatusTransition{
			From:              []model.ContentStatus{model.StatusScheduled},
			To:                model.StatusScheduled,
			ExpectScheduledAt: item.ScheduledAt,
			ScheduledAt:       &fireAt,
		}
	case item.Status.CanTransitionTo(model.StatusScheduled):
		t = repository.StatusTransition{
			From:        []model.ContentStatus{item.Status},
			To:          model.StatusScheduled,
			ScheduledAt: &fireAt,
		}
	default:
		return nil, ErrInvalidState
	}

	if err = platform.CheckRequirements(item); err != nil {
		log.InfoContext(ctx, "content rejected by platform requirements", "content_id", id, "err", err)
		return nil, ErrContentUnsupported
	}

	won, err := s.contentRepo.Transition(ctx, id, t)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, ErrInvalidState
	}

	s.registry.Arm(id, fireAt)
	invalidateScheduledList(ctx, item.OwnerID)
	log.InfoContext(ctx, "content scheduled", "content_id", id, "fire_at", fireAt, "from", item.Status)

	item.Status = model.StatusScheduled
	item.ScheduledAt = &fireAt
	return toContentItemDTO(item), nil
}

// Cancel 只在仍为 SCHEDULED 时生效，已被触发抢占则返回 ErrAlreadyFiring
func (s *scheduleServiceImpl) Cancel(ctx context.Context, userID uint64, id uint64) error {
	item, err := s.getOwned(ctx, userID, id)
	if err != nil {
		return err
	}

	won, err := s.contentRepo.Transition(ctx, id, repository.StatusTransition{
		From: []model.ContentStatus{model.StatusScheduled},
		To:   model.StatusCancelled,
	})
	if err != nil {
		return err
	}
	if !won {
		current, err := s.contentRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if current != nil && publicationStarted(current) {
			return ErrAlreadyFiring
		}
		return ErrContentNotFound
	}

	s.registry.Disarm(id)
	invalidateScheduledList(ctx, item.OwnerID)
	log.InfoContext(ctx, "scheduled content cancelled", "content_id", id)
	return nil
}

// PublishNow 同步发布，DRAFT/APPROVED 以及已到期的 SCHEDULED 可用
// 未到期的 SCHEDULED 只能由触发器发布，需先取消
func (s *scheduleServiceImpl) PublishNow(ctx context.Context, userID uint64, id uint64) (*dto.PublishResultDTO, error) {
	item, err := s.getOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !item.Status.CanTransitionTo(model.StatusPublishing) {
		return nil, ErrInvalidState
	}
	if item.Status == model.StatusScheduled && (item.ScheduledAt == nil || item.ScheduledAt.After(s.clock.Now())) {
		log.InfoContext(ctx, "manual publish of future-scheduled content refused", "content_id", id, "scheduled_at", item.ScheduledAt)
		return nil, ErrInvalidState
	}
	if err = platform.CheckRequirements(item); err != nil {
		log.InfoContext(ctx, "content rejected by platform requirements", "content_id", id, "err", err)
		return nil, ErrContentUnsupported
	}

	outcome, err := s.executor.Execute(ctx, id, Claim{
		From:              []model.ContentStatus{item.Status},
		ExpectScheduledAt: item.ScheduledAt,
	})
	if err != nil {
		if errors.Is(err, errClaimLost) {
			return nil, ErrInvalidState
		}
		return nil, err
	}
	if item.Status == model.StatusScheduled {
		s.registry.Disarm(id)
	}

	if outcome.Status != model.StatusPublished {
		return nil, &PublishFailedError{Reason: outcome.Reason, Detail: outcome.Detail}
	}
	return &dto.PublishResultDTO{
		ID:             id,
		Status:         string(outcome.Status),
		PlatformPostID: outcome.PlatformPostID,
		PublishedAt:    formatTime(&outcome.PublishedAt),
	}, nil
}

// ListScheduled 按 scheduled_at 升序，结果缓存在 Redis
// 缓存键带版本号，状态变化时版本自增，查询期间发生的变化不会被旧结果覆盖
func (s *scheduleServiceImpl) ListScheduled(ctx context.Context, ownerID uint64) ([]*dto.ContentItemDTO, error) {
	owner := strconv.FormatUint(ownerID, 10)
	version, err := redis.GetValue(ctx, consts.ScheduledListVersionKey+owner)
	if err != nil {
		log.WarnContext(ctx, "read scheduled list version failed", "owner_id", ownerID, "err", err)
		return s.listScheduledFromStore(ctx, ownerID)
	}
	if version == "" {
		version = "0"
	}
	key := scheduledListKey(ownerID, version)

	var cached []*dto.ContentItemDTO
	hit, err := redis.GetJSON(ctx, key, &cached)
	if err != nil {
		log.WarnContext(ctx, "read scheduled list cache failed", "owner_id", ownerID, "err", err)
	}
	if hit {
		return cached, nil
	}

	res, err := s.listScheduledFromStore(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if err = redis.SetJSON(ctx, key, res, s.opts.ListCacheTTL); err != nil {
		log.WarnContext(ctx, "write scheduled list cache failed", "owner_id", ownerID, "err", err)
	}
	return res, nil
}

func (s *scheduleServiceImpl) listScheduledFromStore(ctx context.Context, ownerID uint64) ([]*dto.ContentItemDTO, error) {
	items, err := s.contentRepo.ListScheduledByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return toContentItemDTOs(items), nil
}

// Rehydrate 启动时调用一次：
// 1. 残留的 PUBLISHING 标记为 FAILED
// 2. 未来的 SCHEDULED 重新登记触发器
// 3. 已过期的 SCHEDULED 按 scheduled_at 升序立即执行
// 存储不可用时返回错误，由调用方终止启动
func (s *scheduleServiceImpl) Rehydrate(ctx context.Context) (*RehydrateReport, error) {
	report := &RehydrateReport{Overdue: make([]uint64, 0)}

	stuck, err := s.contentRepo.ListByStatus(ctx, model.StatusPublishing)
	if err != nil {
		return nil, fmt.Errorf("list interrupted publications: %w", err)
	}
	for _, item := range stuck {
		ok, err := s.contentRepo.Transition(ctx, item.ID, repository.StatusTransition{
			From:          []model.ContentStatus{model.StatusPublishing},
			To:            model.StatusFailed,
			FailureReason: string(platform.ReasonUnknown),
			FailureDetail: interruptedDetail,
		})
		if err != nil {
			return nil, fmt.Errorf("recover interrupted publication %d: %w", item.ID, err)
		}
		if !ok {
			continue
		}
		report.Interrupted++
		invalidateScheduledList(ctx, item.OwnerID)
		log.WarnContext(ctx, "interrupted publication marked failed", "content_id", item.ID)
		s.notifyRecovered(ctx, item)
	}
	s.metrics.AddRecovered(report.Interrupted)

	scheduled, err := s.contentRepo.ListScheduled(ctx)
	if err != nil {
		return nil, fmt.Errorf("list scheduled content: %w", err)
	}

	now := s.clock.Now()
	overdue := make([]*model.ContentItem, 0)
	for _, item := range scheduled {
		if item.ScheduledAt == nil {
			continue
		}
		if item.ScheduledAt.After(now) {
			s.registry.Arm(item.ID, *item.ScheduledAt)
			report.Armed++
			continue
		}
		overdue = append(overdue, item)
	}

	for _, item := range overdue {
		report.Overdue = append(report.Overdue, item.ID)
		outcome, err := s.executor.Execute(ctx, item.ID, Claim{
			From:              []model.ContentStatus{model.StatusScheduled},
			ExpectScheduledAt: item.ScheduledAt,
		})
		if err != nil {
			if errors.Is(err, errClaimLost) || errors.Is(err, ErrContentNotFound) {
				continue
			}
			return nil, fmt.Errorf("publish overdue content %d: %w", item.ID, err)
		}
		if outcome.Status == model.StatusPublished {
			report.Published++
		} else {
			report.Failed++
		}
	}

	log.InfoContext(ctx, "schedule rehydrated",
		"interrupted", report.Interrupted,
		"armed", report.Armed,
		"overdue", len(report.Overdue),
		"published", report.Published,
		"failed", report.Failed,
	)
	return report, nil
}

// SweepDue 兜底扫描：到期超过宽限期仍未被触发的 SCHEDULED 条目
func (s *scheduleServiceImpl) SweepDue(ctx context.Context) (int, error) {
	lockValue := uuid.NewString()
	ok, err := redis.TryLock(ctx, consts.ScheduleSweepLock, lockValue, time.Minute, 0)
	if err != nil {
		return 0, err
	}
	if !ok {
		log.DebugContext(ctx, "schedule sweep skipped, lock held elsewhere")
		return 0, nil
	}
	defer redis.UnLock(ctx, consts.ScheduleSweepLock, lockValue)

	due, err := s.contentRepo.ListDue(ctx, s.clock.Now().Add(-s.opts.SweepGrace), s.opts.SweepBatch)
	if err != nil {
		return 0, err
	}

	fired := 0
	for _, item := range due {
		if s.registry.Armed(item.ID) {
			continue
		}
		_, err := s.executor.Execute(ctx, item.ID, Claim{
			From:              []model.ContentStatus{model.StatusScheduled},
			ExpectScheduledAt: item.ScheduledAt,
		})
		if err != nil {
			if errors.Is(err, errClaimLost) {
				continue
			}
			log.ErrorContext(ctx, "sweep publish failed", "content_id", item.ID, "err", err)
			continue
		}
		fired++
	}
	if fired > 0 {
		log.InfoContext(ctx, "schedule sweep fired missed triggers", "count", fired, "armed", s.registry.Len())
	}
	return fired, nil
}

// Stop 撤销所有触发器并等待正在执行的发布完成
func (s *scheduleServiceImpl) Stop() {
	s.registry.Stop()
}

// fire 触发器回调，只有 scheduled_at 未被改动时才能抢占
func (s *scheduleServiceImpl) fire(id uint64, fireAt time.Time) {
	ctx := logger.WithTraceID(context.Background(), "trigger")
	_, err := s.executor.Execute(ctx, id, Claim{
		From:              []model.ContentStatus{model.StatusScheduled},
		ExpectScheduledAt: &fireAt,
	})
	if err != nil {
		if errors.Is(err, errClaimLost) {
			log.DebugContext(ctx, "stale trigger ignored", "content_id", id)
			return
		}
		log.ErrorContext(ctx, "scheduled publication failed", "content_id", id, "err", err)
	}
}

func (s *scheduleServiceImpl) notifyRecovered(ctx context.Context, item *model.ContentItem) {
	if s.notifier == nil {
		return
	}
	full, err := s.contentRepo.GetWithOwner(ctx, item.ID)
	if err != nil || full == nil {
		return
	}
	outcome := &Outcome{
		ContentID: item.ID,
		OwnerID:   item.OwnerID,
		Platform:  item.Platform,
		Status:    model.StatusFailed,
		Reason:    platform.ReasonUnknown,
		Detail:    interruptedDetail,
	}
	go s.notifier.Notify(context.WithoutCancel(ctx), full, outcome)
}

func (s *scheduleServiceImpl) getOwned(ctx context.Context, userID uint64, id uint64) (*model.ContentItem, error) {
	item, err := s.contentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil || item.OwnerID != userID {
		return nil, ErrContentNotFound
	}
	return item, nil
}

// publicationStarted 条目已被发布流程抢占过；审核驳回的 FAILED 不算
func publicationStarted(item *model.ContentItem) bool {
	switch item.Status {
	case model.StatusPublishing, model.StatusPublished:
		return true
	case model.StatusFailed:
		return item.PlatformPostID != nil || item.FailureReason == nil || *item.FailureReason != reviewRejectedReason
	}
	return false
}

func scheduledListKey(ownerID uint64, version string) string {
	return consts.ScheduledListKey + strconv.FormatUint(ownerID, 10) + ":" + version
}

// invalidateScheduledList 版本自增后旧版本的缓存不再被读取，随 TTL 过期
func invalidateScheduledList(ctx context.Context, ownerID uint64) {
	if _, err := redis.Incr(ctx, consts.ScheduledListVersionKey+strconv.FormatUint(ownerID, 10)); err != nil {
		log.WarnContext(ctx, "invalidate scheduled list cache failed", "owner_id", ownerID, "err", err)
	}
}
