package dto

// CreateContentDTO 新建内容草稿
type CreateContentDTO struct {
	Title       string  `json:"title" binding:"required,max=255"`
	Body        string  `json:"body" binding:"required"`
	Platform    string  `json:"platform" binding:"required,oneof=TIKTOK INSTAGRAM FACEBOOK YOUTUBE"`
	ContentType string  `json:"content_type" binding:"required,oneof=VIDEO IMAGE TEXT STORY REEL"`
	MediaURL    *string `json:"media_url" binding:"omitempty,url,max=512"`
	CharacterID *uint64 `json:"character_id"`
	CampaignID  *uint64 `json:"campaign_id"`
}

// ScheduleDTO 定时发布请求，时间为 RFC3339
type ScheduleDTO struct {
	ScheduledAt string `json:"scheduled_at" binding:"required"`
}

// ReviewNoteDTO 审核意见
type ReviewNoteDTO struct {
	Note string `json:"note" binding:"max=1024"`
}

// ContentItemDTO 内容条目返回对象
type ContentItemDTO struct {
	ID                uint64  `json:"id"`
	OwnerID           uint64  `json:"owner_id"`
	Title             string  `json:"title"`
	Body              string  `json:"body"`
	Platform          string  `json:"platform" copier:"-"`
	ContentType       string  `json:"content_type" copier:"-"`
	MediaURL          *string `json:"media_url,omitempty"`
	CharacterID       *uint64 `json:"character_id,omitempty"`
	CampaignID        *uint64 `json:"campaign_id,omitempty"`
	Status            string  `json:"status" copier:"-"`
	ScheduledAt       string  `json:"scheduled_at,omitempty" copier:"-"`
	PublishedAt       string  `json:"published_at,omitempty" copier:"-"`
	PlatformPostID    string  `json:"platform_post_id,omitempty" copier:"-"`
	FailureReason     string  `json:"failure_reason,omitempty" copier:"-"`
	FailureDetail     string  `json:"failure_detail,omitempty" copier:"-"`
	ResubmittedFromID *uint64 `json:"resubmitted_from_id,omitempty"`
	CreatedAt         string  `json:"created_at" copier:"-"`
	UpdatedAt         string  `json:"updated_at" copier:"-"`
}

// ContentDetailDTO 内容详情，附带指标快照
type ContentDetailDTO struct {
	ContentItemDTO
	Metrics []*PostMetricDTO `json:"metrics"`
}

// PublishResultDTO 立即发布结果
type PublishResultDTO struct {
	ID             uint64 `json:"id"`
	Status         string `json:"status"`
	PlatformPostID string `json:"platform_post_id"`
	PublishedAt    string `json:"published_at"`
}
