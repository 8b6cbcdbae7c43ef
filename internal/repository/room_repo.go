package repository

import (
	"Teamline/internal/model"
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

type RoomRepo interface {
	GetRoomById(ctx context.Context, roomID uint64) (*model.Room, error)
	CreateRoom(ctx context.Context, room *model.Room) error
	UpdateRoomFields(ctx context.Context, roomID uint64, fields map[string]interface{}) error
	BumpLastMessage(ctx context.Context, roomID uint64, at time.Time) error
	SetLastMessageAsRead(ctx context.Context, roomID uint64) error
}

type RoomRepoImpl struct {
	db *gorm.DB
}

func NewRoomRepo(db *gorm.DB) RoomRepo {
	return &RoomRepoImpl{db: db}
}

func (s *RoomRepoImpl) GetRoomById(ctx context.Context, roomID uint64) (*model.Room, error) {
	room := &model.Room{}
	result := s.db.WithContext(ctx).First(room, roomID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return room, nil
}

func (s *RoomRepoImpl) CreateRoom(ctx context.Context, room *model.Room) error {
	return s.db.WithContext(ctx).Create(room).Error
}

// UpdateRoomFields 按字段名局部更新，供房间设置保存器使用
func (s *RoomRepoImpl) UpdateRoomFields(ctx context.Context, roomID uint64, fields map[string]interface{}) error {
	return s.db.WithContext(ctx).Model(&model.Room{}).
		Where("id = ?", roomID).
		Updates(fields).Error
}

// BumpLastMessage 新消息落库后推进房间的最近消息时间并重置全员已读标记
func (s *RoomRepoImpl) BumpLastMessage(ctx context.Context, roomID uint64, at time.Time) error {
	return s.db.WithContext(ctx).Model(&model.Room{}).
		Where("id = ?", roomID).
		Updates(map[string]interface{}{
			"msg_count":       gorm.Expr("msg_count + 1"),
			"last_message_at": at,
			"last_msg_read":   false,
		}).Error
}

// SetLastMessageAsRead 水位越过最近一条消息时置位
func (s *RoomRepoImpl) SetLastMessageAsRead(ctx context.Context, roomID uint64) error {
	return s.db.WithContext(ctx).Model(&model.Room{}).
		Where("id = ?", roomID).
		Update("last_msg_read", true).Error
}
