package dto

import "time"

// RoomSettingsDTO 房间设置保存请求体，逐项可选
type RoomSettingsDTO struct {
	RoomName         *string `json:"roomName,omitempty"`
	RoomTopic        *string `json:"roomTopic,omitempty" validate:"omitempty,max=255"`
	RoomAnnouncement *string `json:"roomAnnouncement,omitempty" validate:"omitempty,max=255"`
	RoomDescription  *string `json:"roomDescription,omitempty" validate:"omitempty,max=255"`
	ReadOnly         *bool   `json:"readOnly,omitempty"`
	Default          *bool   `json:"default,omitempty"`
	Favorite         *bool   `json:"favorite,omitempty"`
}

// RoomListItemDTO 房间列表项
type RoomListItemDTO struct {
	RoomID        uint64     `json:"room_id"`
	Name          string     `json:"name"`
	Type          string     `json:"type"`
	Topic         string     `json:"topic,omitempty"`
	Unread        uint64     `json:"unread"`
	Alert         bool       `json:"alert"`
	Favorite      bool       `json:"favorite"`
	IsModerator   bool       `json:"is_moderator"`
	IsOwner       bool       `json:"is_owner"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
	LastSeenAt    *time.Time `json:"last_seen_at,omitempty"`
}

// RoomListEventDTO 推送到用户频道的房间列表快照
type RoomListEventDTO struct {
	Type  string             `json:"type"`
	Rooms []*RoomListItemDTO `json:"rooms"`
}

// RemoveModeratorDTO 撤销版主请求体
type RemoveModeratorDTO struct {
	RoomID       uint64 `json:"room_id" binding:"required"`
	TargetUserID uint64 `json:"target_user_id" binding:"required"`
}

// RoleChangedEventDTO 角色变更广播
type RoleChangedEventDTO struct {
	Type     string `json:"type"`
	RoomID   uint64 `json:"room_id"`
	UserID   uint64 `json:"user_id"`
	Role     string `json:"role"`
	Assigned bool   `json:"assigned"`
}

// NameChangedEventDTO 用户改名广播
type NameChangedEventDTO struct {
	Type     string `json:"type"`
	UserID   uint64 `json:"user_id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}
