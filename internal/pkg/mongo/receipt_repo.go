package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ReceiptRepo interface {
	InsertMany(ctx context.Context, receipts []*ReadReceipt) error
	FindByMessageID(ctx context.Context, messageID string) ([]*ReadReceipt, error)
}

type receiptRepoImpl struct {
	col *mongo.Collection
}

func NewReceiptRepo(db *mongo.Database) ReceiptRepo {
	return &receiptRepoImpl{
		col: db.Collection("read_receipt"),
	}
}

// InsertMany 批量写入一批回执
func (s *receiptRepoImpl) InsertMany(ctx context.Context, receipts []*ReadReceipt) error {
	docs := make([]interface{}, 0, len(receipts))
	for _, r := range receipts {
		docs = append(docs, r)
	}
	_, err := s.col.InsertMany(ctx, docs)
	return err
}

// FindByMessageID 某条消息的全部回执，按时间升序
func (s *receiptRepoImpl) FindByMessageID(ctx context.Context, messageID string) ([]*ReadReceipt, error) {
	findOptions := options.Find().
		SetSort(bson.D{{Key: "ts", Value: 1}})

	cursor, err := s.col.Find(ctx, bson.M{"message_id": messageID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	var receipts []*ReadReceipt
	if err := cursor.All(ctx, &receipts); err != nil {
		return nil, err
	}

	return receipts, nil
}

type VisitorRepo interface {
	GetVisitorByToken(ctx context.Context, token string) (*Visitor, error)
}

type visitorRepoImpl struct {
	col *mongo.Collection
}

func NewVisitorRepo(db *mongo.Database) VisitorRepo {
	return &visitorRepoImpl{
		col: db.Collection("livechat_visitor"),
	}
}

// GetVisitorByToken 按匿名 token 定位访客，只取身份展示字段
func (s *visitorRepoImpl) GetVisitorByToken(ctx context.Context, token string) (*Visitor, error) {
	findOptions := options.FindOne().
		SetProjection(bson.M{"username": 1, "name": 1})

	var visitor Visitor
	err := s.col.FindOne(ctx, bson.M{"_id": token}, findOptions).Decode(&visitor)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &visitor, nil
}
