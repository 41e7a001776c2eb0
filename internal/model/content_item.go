package model

import (
	"time"
)

// Platform 目标社交平台
type Platform string

const (
	PlatformTikTok    Platform = "TIKTOK"
	PlatformInstagram Platform = "INSTAGRAM"
	PlatformFacebook  Platform = "FACEBOOK"
	PlatformYouTube   Platform = "YOUTUBE"
)

func (p Platform) Valid() bool {
	switch p {
	case PlatformTikTok, PlatformInstagram, PlatformFacebook, PlatformYouTube:
		return true
	}
	return false
}

// ContentType 内容形式
type ContentType string

const (
	ContentVideo ContentType = "VIDEO"
	ContentImage ContentType = "IMAGE"
	ContentText  ContentType = "TEXT"
	ContentStory ContentType = "STORY"
	ContentReel  ContentType = "REEL"
)

func (t ContentType) Valid() bool {
	switch t {
	case ContentVideo, ContentImage, ContentText, ContentStory, ContentReel:
		return true
	}
	return false
}

// ContentItem 面向单一平台的一条内容
// ScheduledAt 仅在 SCHEDULED 时非空，PublishedAt 仅在 PUBLISHED 时非空
type ContentItem struct {
	ID                uint64        `gorm:"primaryKey" json:"id"`
	OwnerID           uint64        `gorm:"not null;index:idx_owner_status" json:"owner_id"`
	Title             string        `gorm:"type:varchar(255);not null" json:"title"`
	Body              string        `gorm:"type:text;not null" json:"body"`
	Platform          Platform      `gorm:"type:varchar(16);not null" json:"platform"`
	ContentType       ContentType   `gorm:"type:varchar(16);not null" json:"content_type"`
	MediaURL          *string       `gorm:"type:varchar(512)" json:"media_url"`
	CharacterID       *uint64       `gorm:"index:idx_character_id" json:"character_id"`
	CampaignID        *uint64       `gorm:"index:idx_campaign_id" json:"campaign_id"`
	Status            ContentStatus `gorm:"type:varchar(16);not null;default:DRAFT;index:idx_owner_status;index:idx_status_scheduled" json:"status"`
	ScheduledAt       *time.Time    `gorm:"type:datetime(3);index:idx_status_scheduled" json:"scheduled_at"`
	PublishedAt       *time.Time    `gorm:"type:datetime(3)" json:"published_at"`
	PlatformPostID    *string       `gorm:"type:varchar(128)" json:"platform_post_id"`
	FailureReason     *string       `gorm:"type:varchar(32)" json:"failure_reason"`
	FailureDetail     *string       `gorm:"type:varchar(1024)" json:"failure_detail"`
	ResubmittedFromID *uint64       `json:"resubmitted_from_id"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`

	// 关联关系
	Owner   User         `gorm:"foreignKey:OwnerID;references:ID" json:"-"`
	Metrics []PostMetric `gorm:"foreignKey:ContentItemID;references:ID" json:"-"`
}

func (ContentItem) TableName() string {
	return "content_items"
}
