package service

import (
	"Teamline/internal/api/dto"
	"Teamline/internal/pkg/consts"
	"Teamline/internal/pkg/mongo"
	"Teamline/internal/pkg/redis"
	"Teamline/internal/repository"
	"context"
	"strconv"
	"time"

	log "log/slog"

	"github.com/goccy/go-json"
)

type MessageService interface {
	SendMessage(ctx context.Context, senderID uint64, req *dto.SendMessageReq) (*dto.MessageDTO, error)
	ReadMessages(ctx context.Context, userID uint64, req *dto.ReadMessagesReq) error
	ReadThread(ctx context.Context, userID uint64, req *dto.ReadThreadReq) error
}

type messageServiceImpl struct {
	roomRepo    repository.RoomRepo
	subRepo     repository.SubscriptionRepo
	userRepo    repository.UserRepo
	messageRepo mongo.MessageRepo
	receipts    ReadReceiptService
}

func NewMessageService(
	roomRepo repository.RoomRepo,
	subRepo repository.SubscriptionRepo,
	userRepo repository.UserRepo,
	messageRepo mongo.MessageRepo,
	receipts ReadReceiptService,
) MessageService {
	return &messageServiceImpl{
		roomRepo:    roomRepo,
		subRepo:     subRepo,
		userRepo:    userRepo,
		messageRepo: messageRepo,
		receipts:    receipts,
	}
}

// SendMessage 发消息主流程：校验成员关系，落 Mongo，推进房间水位，
// 推送房间频道，最后走发送者已读路径落回执。
func (s *messageServiceImpl) SendMessage(ctx context.Context, senderID uint64, req *dto.SendMessageReq) (*dto.MessageDTO, error) {
	room, err := s.roomRepo.GetRoomById(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}

	sub, err := s.subRepo.GetSubscription(ctx, req.RoomID, senderID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, ErrNotSubscribed
	}
	if room.ReadOnly && !sub.IsModerator && !sub.IsOwner {
		return nil, ErrRoomReadOnly
	}

	sender, err := s.userRepo.GetUserById(ctx, senderID)
	if err != nil {
		return nil, err
	}
	if sender == nil {
		return nil, ErrUserNotFound
	}

	now := time.Now()
	msg := &mongo.Message{
		RoomID:       req.RoomID,
		SenderID:     senderID,
		Content:      req.Content,
		TS:           now,
		Unread:       true,
		ThreadRootID: req.ThreadRootID,
	}
	if sender.Username != nil {
		msg.SenderUsername = *sender.Username
	}

	if req.ThreadRootID != "" {
		root, err := s.messageRepo.GetMessageByID(ctx, req.ThreadRootID)
		if err != nil {
			return nil, err
		}
		if root == nil {
			return nil, ErrMessageNotFound
		}
	}

	if err := s.messageRepo.SaveMessage(ctx, msg); err != nil {
		return nil, err
	}

	if err := s.roomRepo.BumpLastMessage(ctx, req.RoomID, now); err != nil {
		return nil, err
	}
	if req.ThreadRootID != "" {
		if err := s.messageRepo.BumpThread(ctx, req.ThreadRootID, now); err != nil {
			return nil, err
		}
	}

	msgDTO := s.toMessageDTO(msg)
	if err := s.publishMessageToRoom(ctx, req.RoomID, msgDTO); err != nil {
		log.WarnContext(ctx, "publish message event failed", "room_id", req.RoomID, "err", err)
	}

	room.LastMessageAt = &now
	if err := s.receipts.MarkMessageAsReadBySender(ctx, msg, room, senderID); err != nil {
		log.WarnContext(ctx, "sender read receipt failed", "message_id", msg.ID, "err", err)
	}

	return msgDTO, nil
}

// ReadMessages 用户读到了房间内某个时刻：推进订阅水位，再进回执聚合管线
func (s *messageServiceImpl) ReadMessages(ctx context.Context, userID uint64, req *dto.ReadMessagesReq) error {
	sub, err := s.subRepo.GetSubscription(ctx, req.RoomID, userID)
	if err != nil {
		return err
	}
	if sub == nil {
		return ErrNotSubscribed
	}
	// 水位只进不退
	var prevSeen time.Time
	if sub.LastSeenAt != nil {
		if !req.LastSeen.After(*sub.LastSeenAt) {
			return nil
		}
		prevSeen = *sub.LastSeenAt
	}

	if err := s.subRepo.UpdateLastSeen(ctx, req.RoomID, userID, req.LastSeen); err != nil {
		return err
	}

	// 回执覆盖旧水位之后的消息，重算读到的是更新后的订阅水位
	return s.receipts.MarkMessagesAsRead(ctx, req.RoomID, userID, prevSeen)
}

// ReadThread 用户读完了一段话题回复
func (s *messageServiceImpl) ReadThread(ctx context.Context, userID uint64, req *dto.ReadThreadReq) error {
	return s.receipts.StoreThreadMessagesReadReceipts(ctx, req.ThreadRootID, userID, req.LastSeen)
}

func (s *messageServiceImpl) toMessageDTO(msg *mongo.Message) *dto.MessageDTO {
	return &dto.MessageDTO{
		ID:             msg.ID,
		RoomID:         msg.RoomID,
		SenderID:       msg.SenderID,
		SenderUsername: msg.SenderUsername,
		Content:        msg.Content,
		Unread:         msg.Unread,
		ThreadRootID:   msg.ThreadRootID,
		TS:             msg.TS,
	}
}

// publishMessageToRoom 新消息事件推到房间频道，在线端经 websocket 桥接收
func (s *messageServiceImpl) publishMessageToRoom(ctx context.Context, roomID uint64, msgDTO *dto.MessageDTO) error {
	event := &dto.MessageEventDTO{
		Type:    consts.EventTypeMessage,
		Message: msgDTO,
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	channel := consts.RoomChannelKey + strconv.FormatUint(roomID, 10)
	return redis.Publish(ctx, channel, data)
}
