package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MessageRepo interface {
	SaveMessage(ctx context.Context, msg *Message) error
	GetMessageByID(ctx context.Context, id string) (*Message, error)
	FindVisibleUnreadAfter(ctx context.Context, roomID uint64, since time.Time) ([]*Message, error)
	FindUnreadThreadMessagesAfter(ctx context.Context, threadID string, userID uint64, since time.Time) ([]*Message, error)
	SetReadUpTo(ctx context.Context, roomID uint64, watermark time.Time) error
	SetAsRead(ctx context.Context, messageID string) error
	BumpThread(ctx context.Context, rootID string, at time.Time) error
	UpdateSenderUsername(ctx context.Context, senderID uint64, username string) (int64, error)
}

type messageRepoImpl struct {
	col *mongo.Collection
}

func NewMessageRepo(db *mongo.Database) MessageRepo {
	return &messageRepoImpl{
		col: db.Collection("message"),
	}
}

// SaveMessage 将消息存入 MongoDB，空 ID 时生成
func (s *messageRepoImpl) SaveMessage(ctx context.Context, msg *Message) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	_, err := s.col.InsertOne(ctx, msg)
	return err
}

// GetMessageByID 精确查询，未命中返回 nil
func (s *messageRepoImpl) GetMessageByID(ctx context.Context, id string) (*Message, error) {
	var msg Message
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&msg)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &msg, nil
}

// FindVisibleUnreadAfter 查询房间内 since 之后、仍未被全员读完的可见消息
// 只取 _id，回执批量写入不需要其余字段
func (s *messageRepoImpl) FindVisibleUnreadAfter(ctx context.Context, roomID uint64, since time.Time) ([]*Message, error) {
	filter := bson.M{
		"room_id": roomID,
		"unread":  true,
		"hidden":  bson.M{"$ne": true},
		"ts":      bson.M{"$gt": since},
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "ts", Value: 1}}).
		SetProjection(bson.M{"_id": 1})

	cursor, err := s.col.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	var messages []*Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, err
	}

	return messages, nil
}

// FindUnreadThreadMessagesAfter 查询话题内 since 之后的未读回复，排除用户自己发的
func (s *messageRepoImpl) FindUnreadThreadMessagesAfter(ctx context.Context, threadID string, userID uint64, since time.Time) ([]*Message, error) {
	filter := bson.M{
		"trid":      threadID,
		"unread":    true,
		"sender_id": bson.M{"$ne": userID},
		"ts":        bson.M{"$gt": since},
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "ts", Value: 1}}).
		SetProjection(bson.M{"_id": 1})

	cursor, err := s.col.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	var messages []*Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, err
	}

	return messages, nil
}

// SetReadUpTo 将房间内水位之前的消息整体置为已读
func (s *messageRepoImpl) SetReadUpTo(ctx context.Context, roomID uint64, watermark time.Time) error {
	_, err := s.col.UpdateMany(ctx,
		bson.M{
			"room_id": roomID,
			"unread":  true,
			"ts":      bson.M{"$lte": watermark},
		},
		bson.M{"$set": bson.M{"unread": false}},
	)
	return err
}

// SetAsRead 单条消息置为已读（房间内无其他订阅者时的同步路径）
func (s *messageRepoImpl) SetAsRead(ctx context.Context, messageID string) error {
	_, err := s.col.UpdateOne(ctx,
		bson.M{"_id": messageID},
		bson.M{"$set": bson.M{"unread": false}},
	)
	return err
}

// BumpThread 话题内新增回复后维护根消息的 tlm / tcount
func (s *messageRepoImpl) BumpThread(ctx context.Context, rootID string, at time.Time) error {
	_, err := s.col.UpdateOne(ctx,
		bson.M{"_id": rootID},
		bson.M{
			"$set": bson.M{"tlm": at},
			"$inc": bson.M{"tcount": 1},
		},
	)
	return err
}

// UpdateSenderUsername 用户改名后同步历史消息上的冗余用户名
func (s *messageRepoImpl) UpdateSenderUsername(ctx context.Context, senderID uint64, username string) (int64, error) {
	result, err := s.col.UpdateMany(ctx,
		bson.M{"sender_id": senderID},
		bson.M{"$set": bson.M{"sender_username": username}},
	)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}
