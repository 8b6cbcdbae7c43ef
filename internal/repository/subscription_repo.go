package repository

import (
	"Teamline/internal/model"
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

type SubscriptionRepo interface {
	GetSubscription(ctx context.Context, roomID, userID uint64) (*model.Subscription, error)
	GetUserSubscriptions(ctx context.Context, userID uint64) ([]*model.Subscription, error)
	CreateSubscription(ctx context.Context, sub *model.Subscription) error

	MinLastSeenInRoom(ctx context.Context, roomID uint64) (*time.Time, error)
	CountOtherSubscribers(ctx context.Context, roomID, excludeUserID uint64) (int64, error)
	UpdateLastSeen(ctx context.Context, roomID, userID uint64, lastSeen time.Time) error

	SetModerator(ctx context.Context, roomID, userID uint64, isModerator bool) (int64, error)
	SetFavorite(ctx context.Context, roomID, userID uint64, favorite bool) error
	UpdateRoomNameDenorm(ctx context.Context, roomID uint64, roomName string) error
	UpdatePeerRoomName(ctx context.Context, roomID, excludeUserID uint64, roomName string) error
}

type SubscriptionRepoImpl struct {
	db *gorm.DB
}

func NewSubscriptionRepo(db *gorm.DB) SubscriptionRepo {
	return &SubscriptionRepoImpl{db: db}
}

func (s *SubscriptionRepoImpl) GetSubscription(ctx context.Context, roomID, userID uint64) (*model.Subscription, error) {
	sub := &model.Subscription{}
	result := s.db.WithContext(ctx).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		First(sub)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return sub, nil
}

// GetUserSubscriptions 联表取出用户可见的订阅及房间信息，房间列表发布使用
func (s *SubscriptionRepoImpl) GetUserSubscriptions(ctx context.Context, userID uint64) ([]*model.Subscription, error) {
	var subs []*model.Subscription
	err := s.db.WithContext(ctx).
		Preload("Room").
		Where("user_id = ? AND open = 1", userID).
		Find(&subs).Error
	return subs, err
}

func (s *SubscriptionRepoImpl) CreateSubscription(ctx context.Context, sub *model.Subscription) error {
	return s.db.WithContext(ctx).Create(sub).Error
}

// MinLastSeenInRoom 房间内所有订阅者已读水位的最小值；
// 无订阅、或存在从未读过（last_seen_at 为 NULL）的订阅者时返回 nil，
// 水位必须覆盖全员才能推进全局已读
func (s *SubscriptionRepoImpl) MinLastSeenInRoom(ctx context.Context, roomID uint64) (*time.Time, error) {
	var row struct {
		Total   int64
		Seen    int64
		MinSeen *time.Time
	}
	err := s.db.WithContext(ctx).Model(&model.Subscription{}).
		Where("room_id = ?", roomID).
		Select("COUNT(*) AS total, COUNT(last_seen_at) AS seen, MIN(last_seen_at) AS min_seen").
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.Total == 0 || row.Seen < row.Total {
		return nil, nil
	}
	return row.MinSeen, nil
}

// CountOtherSubscribers 房间内除指定用户外仍活跃的订阅者数量，已关闭的会话不计
func (s *SubscriptionRepoImpl) CountOtherSubscribers(ctx context.Context, roomID, excludeUserID uint64) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Subscription{}).
		Where("room_id = ? AND user_id <> ? AND open = 1", roomID, excludeUserID).
		Count(&count).Error
	return count, err
}

// UpdateLastSeen 推进用户在房间内的已读水位，同时清零未读计数
func (s *SubscriptionRepoImpl) UpdateLastSeen(ctx context.Context, roomID, userID uint64, lastSeen time.Time) error {
	return s.db.WithContext(ctx).Model(&model.Subscription{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Updates(map[string]interface{}{
			"last_seen_at": lastSeen,
			"unread":       0,
			"alert":        false,
		}).Error
}

// SetModerator 返回受影响行数，调用方据此判断目标是否确实持有该角色
func (s *SubscriptionRepoImpl) SetModerator(ctx context.Context, roomID, userID uint64, isModerator bool) (int64, error) {
	result := s.db.WithContext(ctx).Model(&model.Subscription{}).
		Where("room_id = ? AND user_id = ? AND is_moderator = ?", roomID, userID, !isModerator).
		Update("is_moderator", isModerator)
	return result.RowsAffected, result.Error
}

func (s *SubscriptionRepoImpl) SetFavorite(ctx context.Context, roomID, userID uint64, favorite bool) error {
	return s.db.WithContext(ctx).Model(&model.Subscription{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Update("favorite", favorite).Error
}

// UpdateRoomNameDenorm 房间改名后同步订阅表上的冗余房间名
func (s *SubscriptionRepoImpl) UpdateRoomNameDenorm(ctx context.Context, roomID uint64, roomName string) error {
	return s.db.WithContext(ctx).Model(&model.Subscription{}).
		Where("room_id = ?", roomID).
		Update("room_name", roomName).Error
}

// UpdatePeerRoomName 单聊房间名对端显示的是用户名，用户改名后只改对端的订阅
func (s *SubscriptionRepoImpl) UpdatePeerRoomName(ctx context.Context, roomID, excludeUserID uint64, roomName string) error {
	return s.db.WithContext(ctx).Model(&model.Subscription{}).
		Where("room_id = ? AND user_id <> ?", roomID, excludeUserID).
		Update("room_name", roomName).Error
}
