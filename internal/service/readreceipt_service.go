package service

import (
	"Teamline/internal/api/dto"
	"Teamline/internal/model"
	"Teamline/internal/pkg/consts"
	"Teamline/internal/pkg/logger"
	"Teamline/internal/pkg/mongo"
	"Teamline/internal/pkg/schedule"
	"Teamline/internal/repository"
	"context"
	log "log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// ReadReceiptService 已读回执管线：决定何时记录用户读到了哪些消息，
// 并把昂贵的全房间已读水位重算按房间去抖聚合。
type ReadReceiptService interface {
	MarkMessagesAsRead(ctx context.Context, roomID, userID uint64, userLastSeen time.Time) error
	MarkMessageAsReadBySender(ctx context.Context, msg *mongo.Message, room *model.Room, senderID uint64) error
	StoreThreadMessagesReadReceipts(ctx context.Context, threadID string, userID uint64, userLastSeen time.Time) error
	GetReceipts(ctx context.Context, messageID string) ([]*dto.ReadReceiptDTO, error)
	SweepIdleTimers(maxIdle time.Duration) int
	PendingRecomputes() int
	Close()
}

type readReceiptServiceImpl struct {
	settings    SettingsService
	roomRepo    repository.RoomRepo
	subRepo     repository.SubscriptionRepo
	userRepo    repository.UserRepo
	messageRepo mongo.MessageRepo
	receiptRepo mongo.ReceiptRepo
	visitorRepo mongo.VisitorRepo

	sched    *schedule.Keyed
	debounce time.Duration
}

// NewReadReceiptService 构造函数；debounce 为同一房间的聚合窗口
func NewReadReceiptService(
	settings SettingsService,
	roomRepo repository.RoomRepo,
	subRepo repository.SubscriptionRepo,
	userRepo repository.UserRepo,
	messageRepo mongo.MessageRepo,
	receiptRepo mongo.ReceiptRepo,
	visitorRepo mongo.VisitorRepo,
	debounce time.Duration,
) ReadReceiptService {
	if debounce <= 0 {
		debounce = 2 * time.Second
	}
	return &readReceiptServiceImpl{
		settings:    settings,
		roomRepo:    roomRepo,
		subRepo:     subRepo,
		userRepo:    userRepo,
		messageRepo: messageRepo,
		receiptRepo: receiptRepo,
		visitorRepo: visitorRepo,
		sched:       schedule.NewKeyed(),
		debounce:    debounce,
	}
}

// roomReceiptDirectives 按房间类型补充回执的附加字段
var roomReceiptDirectives = map[string]func(msg *mongo.Message) map[string]string{
	consts.RoomTypeLivechat: func(msg *mongo.Message) map[string]string {
		if msg.VisitorToken == "" {
			return nil
		}
		return map[string]string{"token": msg.VisitorToken}
	},
}

func receiptExtraFields(room *model.Room, msg *mongo.Message) map[string]string {
	if fn, ok := roomReceiptDirectives[room.Type]; ok {
		return fn(msg)
	}
	return nil
}

// MarkMessagesAsRead 用户读到了房间内 userLastSeen 时刻：
// 为新读到的消息落回执，并调度一次去抖后的全房间水位重算。
func (s *readReceiptServiceImpl) MarkMessagesAsRead(ctx context.Context, roomID, userID uint64, userLastSeen time.Time) error {
	if !s.settings.GetBool(ctx, consts.SettingReadReceiptEnabled) {
		return nil
	}

	room, err := s.roomRepo.GetRoomById(ctx, roomID)
	if err != nil {
		return err
	}
	// 房间已删，或用户本来就是追平状态，都是预期内的竞态，静默跳过
	if room == nil || room.LastMessageAt == nil || !room.LastMessageAt.After(userLastSeen) {
		return nil
	}

	messages, err := s.messageRepo.FindVisibleUnreadAfter(ctx, roomID, userLastSeen)
	if err != nil {
		return err
	}

	s.storeReceipts(ctx, messages, roomID, userID, nil)

	// 闭包只捕获调度时刻的房间快照；订阅水位在触发时重新读取
	lastMessageAt := *room.LastMessageAt
	s.sched.Schedule(strconv.FormatUint(roomID, 10), s.debounce, func() {
		s.recomputeRoomReadState(roomID, lastMessageAt)
	})

	return nil
}

// MarkMessageAsReadBySender 发送者自己的消息天然已读。
// 房间里没有其他订阅者时没有水位可等，这是唯一一条不走去抖的同步写路径。
func (s *readReceiptServiceImpl) MarkMessageAsReadBySender(ctx context.Context, msg *mongo.Message, room *model.Room, senderID uint64) error {
	if !s.settings.GetBool(ctx, consts.SettingReadReceiptEnabled) {
		return nil
	}
	if !msg.Unread {
		return nil
	}

	others, err := s.subRepo.CountOtherSubscribers(ctx, room.ID, senderID)
	if err != nil {
		return err
	}
	if others == 0 {
		if err := s.messageRepo.SetAsRead(ctx, msg.ID); err != nil {
			return err
		}
	}

	s.storeReceipts(ctx, []*mongo.Message{msg}, room.ID, senderID, receiptExtraFields(room, msg))
	return nil
}

// StoreThreadMessagesReadReceipts 用户读到了话题内 userLastSeen 时刻
func (s *readReceiptServiceImpl) StoreThreadMessagesReadReceipts(ctx context.Context, threadID string, userID uint64, userLastSeen time.Time) error {
	if !s.settings.GetBool(ctx, consts.SettingReadReceiptEnabled) {
		return nil
	}

	root, err := s.messageRepo.GetMessageByID(ctx, threadID)
	if err != nil {
		return err
	}
	if root == nil || root.ThreadLastAt == nil || !root.ThreadLastAt.After(userLastSeen) {
		return nil
	}

	messages, err := s.messageRepo.FindUnreadThreadMessagesAfter(ctx, threadID, userID, userLastSeen)
	if err != nil {
		return err
	}

	s.storeReceipts(ctx, messages, root.RoomID, userID, nil)
	return nil
}

// storeReceipts 批量落回执。回执只是旁路遥测，写失败记日志后吞掉，不打断调用方。
func (s *readReceiptServiceImpl) storeReceipts(ctx context.Context, messages []*mongo.Message, roomID, userID uint64, extra map[string]string) {
	if !s.settings.GetBool(ctx, consts.SettingReadReceiptStoreUsers) {
		return
	}
	if len(messages) == 0 {
		return
	}

	ts := time.Now()
	receipts := make([]*mongo.ReadReceipt, 0, len(messages))
	for _, m := range messages {
		receipts = append(receipts, &mongo.ReadReceipt{
			ID:        uuid.NewString(),
			RoomID:    roomID,
			UserID:    userID,
			MessageID: m.ID,
			TS:        ts,
			Token:     extra["token"],
		})
	}

	if err := s.receiptRepo.InsertMany(ctx, receipts); err != nil {
		log.ErrorContext(ctx, "store read receipts failed",
			"room_id", roomID,
			"user_id", userID,
			"count", len(receipts),
			"err", err,
		)
	}
}

// recomputeRoomReadState 去抖窗口结束后执行的全房间水位重算。
// lastMessageAt 来自触发调用的房间快照，可能落后于当前值；
// 后到的消息会再次触发去抖，这个陈旧窗口是可接受的。
func (s *readReceiptServiceImpl) recomputeRoomReadState(roomID uint64, lastMessageAt time.Time) {
	traceID := "receipt-recompute-" + uuid.NewString()
	ctx := context.WithValue(context.Background(), logger.TraceIDKey, traceID)

	minSeen, err := s.subRepo.MinLastSeenInRoom(ctx, roomID)
	if err != nil {
		log.ErrorContext(ctx, "min last seen query failed", "room_id", roomID, "err", err)
		return
	}
	if minSeen == nil {
		return
	}

	if err := s.messageRepo.SetReadUpTo(ctx, roomID, *minSeen); err != nil {
		log.ErrorContext(ctx, "set read up to watermark failed", "room_id", roomID, "err", err)
		return
	}

	if !lastMessageAt.After(*minSeen) {
		if err := s.roomRepo.SetLastMessageAsRead(ctx, roomID); err != nil {
			log.ErrorContext(ctx, "set last message as read failed", "room_id", roomID, "err", err)
		}
	}
}

// GetReceipts 某条消息的全部回执，逐条解析出阅读者身份：
// 带访客 token 的走访客目录，其余按用户 ID 查
func (s *readReceiptServiceImpl) GetReceipts(ctx context.Context, messageID string) ([]*dto.ReadReceiptDTO, error) {
	if !s.settings.GetBool(ctx, consts.SettingReadReceiptEnabled) {
		return []*dto.ReadReceiptDTO{}, nil
	}

	receipts, err := s.receiptRepo.FindByMessageID(ctx, messageID)
	if err != nil {
		return nil, err
	}

	// 普通用户回执批量取身份
	userIDs := make([]uint64, 0, len(receipts))
	for _, r := range receipts {
		if r.Token == "" && r.UserID != 0 {
			userIDs = append(userIDs, r.UserID)
		}
	}
	userIndex := make(map[uint64]*model.User)
	if len(userIDs) > 0 {
		users, err := s.userRepo.GetUserByIds(ctx, userIDs)
		if err != nil {
			return nil, err
		}
		for _, u := range users {
			userIndex[u.ID] = u
		}
	}

	res := make([]*dto.ReadReceiptDTO, 0, len(receipts))
	for _, r := range receipts {
		item := &dto.ReadReceiptDTO{
			MessageID: r.MessageID,
			TS:        r.TS,
		}

		if r.Token != "" {
			visitor, err := s.visitorRepo.GetVisitorByToken(ctx, r.Token)
			if err != nil {
				return nil, err
			}
			if visitor != nil {
				item.User = &dto.UserIdentityDTO{
					Username: visitor.Username,
					Name:     visitor.Name,
				}
			}
		} else if u, ok := userIndex[r.UserID]; ok {
			identity := &dto.UserIdentityDTO{UserID: u.ID}
			if u.Username != nil {
				identity.Username = *u.Username
			}
			if u.Name != nil {
				identity.Name = *u.Name
			}
			item.User = identity
		}

		res = append(res, item)
	}

	return res, nil
}

// SweepIdleTimers 清理长时间未触发的去抖条目，定时任务调用
func (s *readReceiptServiceImpl) SweepIdleTimers(maxIdle time.Duration) int {
	return s.sched.Sweep(maxIdle)
}

// PendingRecomputes 当前等待触发的房间数
func (s *readReceiptServiceImpl) PendingRecomputes() int {
	return s.sched.Len()
}

func (s *readReceiptServiceImpl) Close() {
	s.sched.Stop()
	log.Info("ReadReceiptService shut down gracefully")
}
