package service

import (
	"CommandCenter/internal/api/dto"
	"CommandCenter/internal/model"
	"CommandCenter/internal/repository"
	"context"
	log "log/slog"
)

// reviewRejectedReason 审核驳回写入 failure_reason 的值
const reviewRejectedReason = "review-rejected"

type ContentService interface {
	CreateDraft(ctx context.Context, userID uint64, req *dto.CreateContentDTO) (*dto.ContentItemDTO, error)
	GetContent(ctx context.Context, userID uint64, id uint64) (*dto.ContentDetailDTO, error)
	SubmitReview(ctx context.Context, userID uint64, id uint64) error
	Approve(ctx context.Context, id uint64) error
	RequestChanges(ctx context.Context, id uint64) error
	Reject(ctx context.Context, id uint64, note string) error
	Resubmit(ctx context.Context, userID uint64, id uint64) (*dto.ContentItemDTO, error)
}

type contentServiceImpl struct {
	contentRepo repository.ContentItemRepo
	metricRepo  repository.PostMetricRepo
}

func NewContentService(contentRepo repository.ContentItemRepo, metricRepo repository.PostMetricRepo) ContentService {
	return &contentServiceImpl{
		contentRepo: contentRepo,
		metricRepo:  metricRepo,
	}
}

// CreateDraft 新建草稿
func (s *contentServiceImpl) CreateDraft(ctx context.Context, userID uint64, req *dto.CreateContentDTO) (*dto.ContentItemDTO, error) {
	item := &model.ContentItem{
		OwnerID:     userID,
		Title:       req.Title,
		Body:        req.Body,
		Platform:    model.Platform(req.Platform),
		ContentType: model.ContentType(req.ContentType),
		MediaURL:    req.MediaURL,
		CharacterID: req.CharacterID,
		CampaignID:  req.CampaignID,
		Status:      model.StatusDraft,
	}
	if !item.Platform.Valid() || !item.ContentType.Valid() {
		return nil, ErrParamInvalid
	}

	if err := s.contentRepo.Create(ctx, item); err != nil {
		return nil, err
	}
	log.InfoContext(ctx, "content draft created", "content_id", item.ID, "platform", item.Platform)
	return toContentItemDTO(item), nil
}

// GetContent 内容详情与指标快照
func (s *contentServiceImpl) GetContent(ctx context.Context, userID uint64, id uint64) (*dto.ContentDetailDTO, error) {
	item, err := s.contentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil || item.OwnerID != userID {
		return nil, ErrContentNotFound
	}

	metrics, err := s.metricRepo.ListByContentItem(ctx, id)
	if err != nil {
		return nil, err
	}

	res := &dto.ContentDetailDTO{
		ContentItemDTO: *toContentItemDTO(item),
		Metrics:        make([]*dto.PostMetricDTO, 0, len(metrics)),
	}
	for _, m := range metrics {
		res.Metrics = append(res.Metrics, toPostMetricDTO(m))
	}
	return res, nil
}

// SubmitReview DRAFT -> REVIEW，仅所有者
func (s *contentServiceImpl) SubmitReview(ctx context.Context, userID uint64, id uint64) error {
	item, err := s.contentRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if item == nil || item.OwnerID != userID {
		return ErrContentNotFound
	}
	return s.move(ctx, item, repository.StatusTransition{To: model.StatusReview})
}

// Approve REVIEW -> APPROVED
func (s *contentServiceImpl) Approve(ctx context.Context, id uint64) error {
	item, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	return s.move(ctx, item, repository.StatusTransition{To: model.StatusApproved})
}

// RequestChanges REVIEW -> DRAFT
func (s *contentServiceImpl) RequestChanges(ctx context.Context, id uint64) error {
	item, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	return s.move(ctx, item, repository.StatusTransition{To: model.StatusDraft})
}

// Reject REVIEW -> FAILED，审核驳回
func (s *contentServiceImpl) Reject(ctx context.Context, id uint64, note string) error {
	item, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if item.Status != model.StatusReview {
		return ErrInvalidState
	}
	return s.move(ctx, item, repository.StatusTransition{
		To:            model.StatusFailed,
		FailureReason: reviewRejectedReason,
		FailureDetail: truncateDetail(note),
	})
}

// Resubmit FAILED/CANCELLED 不可复用，复制为新的草稿
func (s *contentServiceImpl) Resubmit(ctx context.Context, userID uint64, id uint64) (*dto.ContentItemDTO, error) {
	item, err := s.contentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil || item.OwnerID != userID {
		return nil, ErrContentNotFound
	}
	if !item.Status.In(model.StatusFailed, model.StatusCancelled) {
		return nil, ErrInvalidState
	}

	sourceID := item.ID
	draft := &model.ContentItem{
		OwnerID:           item.OwnerID,
		Title:             item.Title,
		Body:              item.Body,
		Platform:          item.Platform,
		ContentType:       item.ContentType,
		MediaURL:          item.MediaURL,
		CharacterID:       item.CharacterID,
		CampaignID:        item.CampaignID,
		Status:            model.StatusDraft,
		ResubmittedFromID: &sourceID,
	}
	if err = s.contentRepo.Create(ctx, draft); err != nil {
		return nil, err
	}
	log.InfoContext(ctx, "content resubmitted as new draft", "source_id", sourceID, "content_id", draft.ID)
	return toContentItemDTO(draft), nil
}

func (s *contentServiceImpl) get(ctx context.Context, id uint64) (*model.ContentItem, error) {
	item, err := s.contentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrContentNotFound
	}
	return item, nil
}

// move 经由状态表校验后做条件更新
func (s *contentServiceImpl) move(ctx context.Context, item *model.ContentItem, t repository.StatusTransition) error {
	if !item.Status.CanTransitionTo(t.To) {
		return ErrInvalidState
	}
	t.From = []model.ContentStatus{item.Status}

	won, err := s.contentRepo.Transition(ctx, item.ID, t)
	if err != nil {
		return err
	}
	if !won {
		return ErrInvalidState
	}
	log.InfoContext(ctx, "content status changed", "content_id", item.ID, "from", item.Status, "to", t.To)
	return nil
}
