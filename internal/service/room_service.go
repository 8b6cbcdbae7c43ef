package service

import (
	"Teamline/internal/api/dto"
	"Teamline/internal/model"
	"Teamline/internal/pkg/consts"
	"Teamline/internal/pkg/redis"
	"Teamline/internal/pkg/util"
	"Teamline/internal/repository"
	"context"
	"strconv"

	log "log/slog"

	"github.com/goccy/go-json"
)

type RoomService interface {
	GetRoom(ctx context.Context, roomID uint64) (*model.Room, error)
	CreateRoom(ctx context.Context, userID uint64, name, roomType string) (*model.Room, error)
	SaveRoomSettings(ctx context.Context, userID, roomID uint64, settings *dto.RoomSettingsDTO) error
	PublishRoomList(ctx context.Context, userID uint64) error
	RemoveRoomModerator(ctx context.Context, actingUserID, roomID, targetUserID uint64) error
}

type RoomServiceImpl struct {
	roomRepo repository.RoomRepo
	subRepo  repository.SubscriptionRepo
	settings SettingsService
}

func NewRoomService(roomRepo repository.RoomRepo, subRepo repository.SubscriptionRepo, settings SettingsService) RoomService {
	return &RoomServiceImpl{
		roomRepo: roomRepo,
		subRepo:  subRepo,
		settings: settings,
	}
}

// roomSettingContext 一次设置保存里单个设置项的上下文
type roomSettingContext struct {
	room  *model.Room
	sub   *model.Subscription
	value interface{}
}

// roomSettingHandler 设置项的校验与落库逻辑
type roomSettingHandler struct {
	validate func(c *roomSettingContext) error
	save     func(ctx context.Context, s *RoomServiceImpl, c *roomSettingContext) error
}

func requireModerator(c *roomSettingContext) error {
	if !c.sub.IsModerator && !c.sub.IsOwner {
		return ErrUserNotModerator
	}
	return nil
}

// roomSettingHandlers 按设置项名派发，未注册的设置项直接报错
var roomSettingHandlers = map[string]*roomSettingHandler{
	"roomName": {
		validate: func(c *roomSettingContext) error {
			if err := requireModerator(c); err != nil {
				return err
			}
			if !util.ValidUsername(c.value.(string)) {
				return ErrParamInvalid
			}
			return nil
		},
		save: func(ctx context.Context, s *RoomServiceImpl, c *roomSettingContext) error {
			name := c.value.(string)
			if err := s.roomRepo.UpdateRoomFields(ctx, c.room.ID, map[string]interface{}{"name": name}); err != nil {
				return err
			}
			// 订阅表上的冗余房间名跟着改
			return s.subRepo.UpdateRoomNameDenorm(ctx, c.room.ID, name)
		},
	},
	"roomTopic": {
		validate: requireModerator,
		save: func(ctx context.Context, s *RoomServiceImpl, c *roomSettingContext) error {
			return s.roomRepo.UpdateRoomFields(ctx, c.room.ID, map[string]interface{}{"topic": c.value.(string)})
		},
	},
	"roomAnnouncement": {
		validate: requireModerator,
		save: func(ctx context.Context, s *RoomServiceImpl, c *roomSettingContext) error {
			return s.roomRepo.UpdateRoomFields(ctx, c.room.ID, map[string]interface{}{"announcement": c.value.(string)})
		},
	},
	"roomDescription": {
		validate: requireModerator,
		save: func(ctx context.Context, s *RoomServiceImpl, c *roomSettingContext) error {
			return s.roomRepo.UpdateRoomFields(ctx, c.room.ID, map[string]interface{}{"description": c.value.(string)})
		},
	},
	"readOnly": {
		validate: requireModerator,
		save: func(ctx context.Context, s *RoomServiceImpl, c *roomSettingContext) error {
			return s.roomRepo.UpdateRoomFields(ctx, c.room.ID, map[string]interface{}{"read_only": c.value.(bool)})
		},
	},
	"default": {
		validate: func(c *roomSettingContext) error {
			if !c.sub.IsOwner {
				return ErrUserNotModerator
			}
			return nil
		},
		save: func(ctx context.Context, s *RoomServiceImpl, c *roomSettingContext) error {
			return s.roomRepo.UpdateRoomFields(ctx, c.room.ID, map[string]interface{}{"is_default": c.value.(bool)})
		},
	},
	// favorite 是订阅维度的个人偏好，任何成员都能改自己的
	"favorite": {
		validate: func(c *roomSettingContext) error { return nil },
		save: func(ctx context.Context, s *RoomServiceImpl, c *roomSettingContext) error {
			return s.subRepo.SetFavorite(ctx, c.room.ID, c.sub.UserID, c.value.(bool))
		},
	},
}

func (s *RoomServiceImpl) GetRoom(ctx context.Context, roomID uint64) (*model.Room, error) {
	room, err := s.roomRepo.GetRoomById(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

func (s *RoomServiceImpl) CreateRoom(ctx context.Context, userID uint64, name, roomType string) (*model.Room, error) {
	if !util.ValidUsername(name) {
		return nil, ErrParamInvalid
	}
	room := &model.Room{
		Name:        name,
		Type:        roomType,
		LastMsgRead: true,
	}
	if err := s.roomRepo.CreateRoom(ctx, room); err != nil {
		return nil, err
	}
	sub := &model.Subscription{
		RoomID:      room.ID,
		UserID:      userID,
		RoomName:    name,
		IsModerator: true,
		IsOwner:     true,
		Open:        true,
	}
	if err := s.subRepo.CreateSubscription(ctx, sub); err != nil {
		return nil, err
	}
	return room, nil
}

// SaveRoomSettings 批量保存房间设置。
// 先把整批设置项全部校验通过，再逐项落库，避免写到一半被权限拦断。
func (s *RoomServiceImpl) SaveRoomSettings(ctx context.Context, userID, roomID uint64, settings *dto.RoomSettingsDTO) error {
	room, err := s.roomRepo.GetRoomById(ctx, roomID)
	if err != nil {
		return err
	}
	if room == nil {
		return ErrRoomNotFound
	}
	sub, err := s.subRepo.GetSubscription(ctx, roomID, userID)
	if err != nil {
		return err
	}
	if sub == nil {
		return ErrNotSubscribed
	}

	entries := settingEntries(settings)
	if len(entries) == 0 {
		return ErrParamInvalid
	}

	contexts := make(map[string]*roomSettingContext, len(entries))
	for name, value := range entries {
		handler, ok := roomSettingHandlers[name]
		if !ok {
			return ErrSettingUnknown
		}
		c := &roomSettingContext{room: room, sub: sub, value: value}
		if err := handler.validate(c); err != nil {
			return err
		}
		contexts[name] = c
	}

	for name, c := range contexts {
		if err := roomSettingHandlers[name].save(ctx, s, c); err != nil {
			return err
		}
	}

	return nil
}

// settingEntries 把请求体展开成设置项名到取值的表，nil 字段表示未提交
func settingEntries(settings *dto.RoomSettingsDTO) map[string]interface{} {
	entries := make(map[string]interface{})
	if settings.RoomName != nil {
		entries["roomName"] = *settings.RoomName
	}
	if settings.RoomTopic != nil {
		entries["roomTopic"] = *settings.RoomTopic
	}
	if settings.RoomAnnouncement != nil {
		entries["roomAnnouncement"] = *settings.RoomAnnouncement
	}
	if settings.RoomDescription != nil {
		entries["roomDescription"] = *settings.RoomDescription
	}
	if settings.ReadOnly != nil {
		entries["readOnly"] = *settings.ReadOnly
	}
	if settings.Default != nil {
		entries["default"] = *settings.Default
	}
	if settings.Favorite != nil {
		entries["favorite"] = *settings.Favorite
	}
	return entries
}

// PublishRoomList 把用户的房间列表快照推到其用户频道，客户端经 websocket 桥接收
func (s *RoomServiceImpl) PublishRoomList(ctx context.Context, userID uint64) error {
	subs, err := s.subRepo.GetUserSubscriptions(ctx, userID)
	if err != nil {
		return err
	}

	items := make([]*dto.RoomListItemDTO, 0, len(subs))
	for _, sub := range subs {
		items = append(items, &dto.RoomListItemDTO{
			RoomID:        sub.RoomID,
			Name:          sub.RoomName,
			Type:          sub.Room.Type,
			Topic:         sub.Room.Topic,
			Unread:        sub.Unread,
			Alert:         sub.Alert,
			Favorite:      sub.Favorite,
			IsModerator:   sub.IsModerator,
			IsOwner:       sub.IsOwner,
			LastMessageAt: sub.Room.LastMessageAt,
			LastSeenAt:    sub.LastSeenAt,
		})
	}

	event := &dto.RoomListEventDTO{
		Type:  consts.EventTypeRoomList,
		Rooms: items,
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return redis.Publish(ctx, consts.UserChannelKey+strconv.FormatUint(userID, 10), data)
}

// RemoveRoomModerator 撤销房间版主。
// 角色写在订阅行上，按受影响行数判断目标是否确实持有该角色。
func (s *RoomServiceImpl) RemoveRoomModerator(ctx context.Context, actingUserID, roomID, targetUserID uint64) error {
	actingSub, err := s.subRepo.GetSubscription(ctx, roomID, actingUserID)
	if err != nil {
		return err
	}
	if actingSub == nil {
		return ErrNotSubscribed
	}
	if !actingSub.IsModerator && !actingSub.IsOwner {
		return ErrUserNotModerator
	}

	targetSub, err := s.subRepo.GetSubscription(ctx, roomID, targetUserID)
	if err != nil {
		return err
	}
	if targetSub == nil {
		return ErrNotSubscribed
	}

	affected, err := s.subRepo.SetModerator(ctx, roomID, targetUserID, false)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrUserNotModerator
	}

	// 前台开启角色展示时才广播角色变更
	if s.settings.GetBool(ctx, consts.SettingUIDisplayRoles) {
		event := &dto.RoleChangedEventDTO{
			Type:     consts.EventTypeRoleChanged,
			RoomID:   roomID,
			UserID:   targetUserID,
			Role:     "moderator",
			Assigned: false,
		}
		data, err := json.Marshal(event)
		if err != nil {
			return err
		}
		channel := consts.RoomChannelKey + strconv.FormatUint(roomID, 10)
		if err := redis.Publish(ctx, channel, data); err != nil {
			log.WarnContext(ctx, "publish role changed event failed", "room_id", roomID, "err", err)
		}
	}

	return nil
}
