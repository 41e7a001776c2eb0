package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// 通知类型
const (
	SysBoxTypePublished int8 = 1
	SysBoxTypeFailed    int8 = 2
)

// SysBoxModel 发布结果站内通知
type SysBoxModel struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ReceiverID uint64             `bson:"receiver_id" json:"receiverId"` // 内容所有者ID
	Email      string             `bson:"email" json:"email"`            // 所有者邮箱快照
	Type       int8               `bson:"type" json:"type"`              // 通知类型: 1-发布成功, 2-发布失败
	TargetID   uint64             `bson:"target_id" json:"targetId"`     // 内容条目ID
	Content    string             `bson:"content" json:"content"`        // 通知文案
	Payload    map[string]any     `bson:"payload" json:"payload"`        // 平台、平台帖子ID、失败原因等
	IsRead     bool               `bson:"is_read" json:"isRead"`
	CreatedAt  time.Time          `bson:"created_at" json:"createdAt"`
}
