package model

import "time"

// Room 房间主表
type Room struct {
	ID            uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name          string     `gorm:"uniqueIndex;type:varchar(64)" json:"name"`
	Type          string     `gorm:"type:char(1);not null;default:'c';index" json:"type"` // c-频道, p-私有群, d-单聊, l-访客会话
	Topic         string     `gorm:"type:varchar(255)" json:"topic"`
	Announcement  string     `gorm:"type:varchar(255)" json:"announcement"`
	Description   string     `gorm:"type:varchar(255)" json:"description"`
	ReadOnly      bool       `gorm:"type:tinyint(1);default:0" json:"readOnly"`
	IsDefault     bool       `gorm:"type:tinyint(1);default:0" json:"isDefault"`
	MsgCount      uint64     `gorm:"not null;default:0" json:"msgCount"`
	LastMessageAt *time.Time `gorm:"index" json:"lastMessageAt"` // 最近一条消息的时间
	LastMsgRead   bool       `gorm:"type:tinyint(1);default:1" json:"lastMsgRead"` // 最近一条消息是否已被全员读完
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func (Room) TableName() string { return "rooms" }
