package mongo

import "time"

// ReadReceipt 某个用户在某个时刻读到某条消息的持久化记录，只增不改
type ReadReceipt struct {
	ID        string    `bson:"_id" json:"id"`
	RoomID    uint64    `bson:"room_id" json:"roomId"`
	UserID    uint64    `bson:"user_id,omitempty" json:"userId,omitempty"`
	MessageID string    `bson:"message_id" json:"messageId"`
	TS        time.Time `bson:"ts" json:"ts"`
	Token     string    `bson:"token,omitempty" json:"token,omitempty"` // 访客回执带匿名 token，没有 user_id
}

// Visitor 访客会话中的匿名访客，按 token 定位
type Visitor struct {
	Token    string `bson:"_id" json:"token"`
	Username string `bson:"username" json:"username"`
	Name     string `bson:"name" json:"name"`
}
