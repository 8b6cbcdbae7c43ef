package mongo

import (
	"time"
)

// Message MongoDB 消息明细模型
type Message struct {
	ID             string     `bson:"_id,omitempty" json:"id"`                      // 消息 ID (uuid)
	RoomID         uint64     `bson:"room_id" json:"roomId"`                        // 关联 MySQL 的房间 ID
	SenderID       uint64     `bson:"sender_id" json:"senderId"`                    // 发送者 UID
	SenderUsername string     `bson:"sender_username" json:"senderUsername"`        // 冗余的发送者用户名，rename 时同步
	Content        string     `bson:"content" json:"content"`                       // 文本内容
	TS             time.Time  `bson:"ts" json:"ts"`                                 // 消息发送时间
	Unread         bool       `bson:"unread" json:"unread"`                         // 尚未被全员读完
	Hidden         bool       `bson:"hidden,omitempty" json:"hidden,omitempty"`     // 被撤回/隐藏的消息不参与回执
	ThreadRootID   string     `bson:"trid,omitempty" json:"trid,omitempty"`         // 所属话题的根消息 ID
	ThreadLastAt   *time.Time `bson:"tlm,omitempty" json:"tlm,omitempty"`           // 话题内最近一条回复的时间（仅根消息维护）
	ThreadCount    uint64     `bson:"tcount,omitempty" json:"tcount,omitempty"`     // 话题回复数（仅根消息维护）
	VisitorToken   string     `bson:"visitor_token,omitempty" json:"-"`             // 访客会话中发送者的匿名 token
}
