package model

import (
	"time"
)

// PostMetric 发布后的表现快照，发布时以全零初始化，之后由外部采集进程更新
type PostMetric struct {
	ID            uint64    `gorm:"primaryKey" json:"id"`
	ContentItemID uint64    `gorm:"not null;index:idx_content_item_id" json:"content_item_id"`
	Views         int64     `gorm:"not null;default:0" json:"views"`
	Likes         int64     `gorm:"not null;default:0" json:"likes"`
	Shares        int64     `gorm:"not null;default:0" json:"shares"`
	Comments      int64     `gorm:"not null;default:0" json:"comments"`
	Clicks        int64     `gorm:"not null;default:0" json:"clicks"`
	Conversions   int64     `gorm:"not null;default:0" json:"conversions"`
	Reach         int64     `gorm:"not null;default:0" json:"reach"`
	Impressions   int64     `gorm:"not null;default:0" json:"impressions"`
	RecordedAt    time.Time `gorm:"type:datetime(3);not null" json:"recorded_at"`
	CreatedAt     time.Time `json:"created_at"`
}

func (PostMetric) TableName() string {
	return "post_metrics"
}

// NewInitialPostMetric 发布成功时创建的零值指标
func NewInitialPostMetric(contentItemID uint64, at time.Time) *PostMetric {
	return &PostMetric{
		ContentItemID: contentItemID,
		RecordedAt:    at,
	}
}

