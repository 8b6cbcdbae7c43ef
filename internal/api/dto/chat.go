package dto

import "time"

// SendMessageReq 发送消息请求体
type SendMessageReq struct {
	RoomID       uint64 `json:"room_id" binding:"required"`
	Content      string `json:"content" binding:"required"`
	ThreadRootID string `json:"thread_root_id,omitempty"` // 话题回复时带根消息 ID
}

// MessageDTO 消息明细响应
type MessageDTO struct {
	ID             string    `json:"id"`
	RoomID         uint64    `json:"room_id"`
	SenderID       uint64    `json:"sender_id"`
	SenderUsername string    `json:"sender_username"`
	Content        string    `json:"content"`
	Unread         bool      `json:"unread"`
	ThreadRootID   string    `json:"thread_root_id,omitempty"`
	TS             time.Time `json:"ts"`
}

// MessageEventDTO 推送到房间频道的新消息事件
type MessageEventDTO struct {
	Type    string      `json:"type"`
	Message *MessageDTO `json:"message"`
}

// ReadMessagesReq 标记房间已读请求体
type ReadMessagesReq struct {
	RoomID   uint64    `json:"room_id" binding:"required"`
	LastSeen time.Time `json:"last_seen" binding:"required"` // 客户端视口内最后一条消息的时间
}

// ReadThreadReq 标记话题已读请求体
type ReadThreadReq struct {
	ThreadRootID string    `json:"thread_root_id" binding:"required"`
	LastSeen     time.Time `json:"last_seen" binding:"required"`
}

// ReadReceiptDTO 回执明细，带解析出的阅读者身份
type ReadReceiptDTO struct {
	MessageID string           `json:"message_id"`
	TS        time.Time        `json:"ts"`
	User      *UserIdentityDTO `json:"user"`
}
