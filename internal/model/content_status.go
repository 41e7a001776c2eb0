package model

// ContentStatus 内容条目生命周期状态
type ContentStatus string

const (
	StatusDraft      ContentStatus = "DRAFT"
	StatusReview     ContentStatus = "REVIEW"
	StatusApproved   ContentStatus = "APPROVED"
	StatusScheduled  ContentStatus = "SCHEDULED"
	StatusPublishing ContentStatus = "PUBLISHING"
	StatusPublished  ContentStatus = "PUBLISHED"
	StatusFailed     ContentStatus = "FAILED"
	StatusCancelled  ContentStatus = "CANCELLED"
)

// transitions 合法状态迁移表，未列出的迁移一律非法
var transitions = map[ContentStatus][]ContentStatus{
	StatusDraft:      {StatusReview, StatusScheduled, StatusPublishing},
	StatusReview:     {StatusApproved, StatusDraft, StatusFailed},
	StatusApproved:   {StatusScheduled, StatusPublishing},
	StatusScheduled:  {StatusPublishing, StatusCancelled},
	StatusPublishing: {StatusPublished, StatusFailed},
}

// CanTransitionTo 唯一的迁移校验入口
func (s ContentStatus) CanTransitionTo(next ContentStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s ContentStatus) In(statuses ...ContentStatus) bool {
	for _, candidate := range statuses {
		if s == candidate {
			return true
		}
	}
	return false
}

func (s ContentStatus) String() string {
	return string(s)
}
