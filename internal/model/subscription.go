package model

import "time"

// Subscription 用户与房间的订阅关系，携带已读进度水位
type Subscription struct {
	ID          uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	RoomID      uint64     `gorm:"uniqueIndex:idx_room_user" json:"roomId"`
	UserID      uint64     `gorm:"uniqueIndex:idx_room_user;index" json:"userId"`
	RoomName    string     `gorm:"type:varchar(64)" json:"roomName"` // 冗余字段，rename 时需要同步
	IsModerator bool       `gorm:"type:tinyint(1);default:0" json:"isModerator"`
	IsOwner     bool       `gorm:"type:tinyint(1);default:0" json:"isOwner"`
	Open        bool       `gorm:"type:tinyint(1);default:1;index" json:"open"` // 会话列表可见性
	Alert       bool       `gorm:"type:tinyint(1);default:0" json:"alert"`
	Unread      uint64     `gorm:"not null;default:0" json:"unread"`
	Favorite    bool       `gorm:"type:tinyint(1);default:0" json:"favorite"`
	LastSeenAt  *time.Time `gorm:"index" json:"lastSeenAt"` // 已读水位
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`

	Room Room `gorm:"foreignKey:RoomID;references:ID" json:"room"`
}

func (Subscription) TableName() string { return "subscriptions" }
