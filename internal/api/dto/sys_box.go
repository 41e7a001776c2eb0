package dto

// SysBoxDTO 发布结果通知返回对象
type SysBoxDTO struct {
	ID        string         `json:"id" copier:"-"`
	Type      int8           `json:"type"`      // 1-发布成功, 2-发布失败
	TargetID  uint64         `json:"target_id"` // 关联的内容ID
	Content   string         `json:"content"`
	Payload   map[string]any `json:"payload"`
	IsRead    bool           `json:"is_read"`
	CreatedAt string         `json:"created_at" copier:"-"`
}

// SysBoxListDTO 通知列表查询
type SysBoxListDTO struct {
	Page       int  `form:"page"`
	PageSize   int  `form:"page_size"`
	UnreadOnly bool `form:"unread_only"`
}

// SysBoxUnreadDTO 未读数返回
type SysBoxUnreadDTO struct {
	UnreadCount int64 `json:"unread_count"`
}

// MarkReadDTO 标记已读
type MarkReadDTO struct {
	MsgID string `json:"msgId" binding:"required"`
}
