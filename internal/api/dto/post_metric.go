package dto

// PostMetricDTO 发布后的指标快照
type PostMetricDTO struct {
	ID          uint64 `json:"id"`
	Views       int64  `json:"views"`
	Likes       int64  `json:"likes"`
	Shares      int64  `json:"shares"`
	Comments    int64  `json:"comments"`
	Clicks      int64  `json:"clicks"`
	Conversions int64  `json:"conversions"`
	Reach       int64  `json:"reach"`
	Impressions int64  `json:"impressions"`
	RecordedAt  string `json:"recorded_at" copier:"-"`
}
