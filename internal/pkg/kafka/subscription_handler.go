package kafka

import (
	"Teamline/internal/service"
	"context"
	log "log/slog"

	"github.com/IBM/sarama"
)

// SubscriptionHandler 消费订阅表的 Canal CDC 流。
// 其他实例或网关推进 last_seen_at 的写入也会经这里进入同一条回执聚合管线。
type SubscriptionHandler struct {
	receiptSvc service.ReadReceiptService
}

func NewSubscriptionHandler(receiptSvc service.ReadReceiptService) *SubscriptionHandler {
	return &SubscriptionHandler{receiptSvc: receiptSvc}
}

func (s *SubscriptionHandler) Setup(sarama.ConsumerGroupSession) error {
	log.Info("subscription consumer setup")
	return nil
}

func (s *SubscriptionHandler) Cleanup(sarama.ConsumerGroupSession) error {
	log.Info("subscription consumer cleanup")
	return nil
}

func (s *SubscriptionHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	log.Info("topic-subscriptions consume claim")
	err := pullMessageBatch(session, claim, s.logic)
	if err != nil {
		log.Error("process batch error", "err", err)
		return err
	}
	log.Info("topic-subscriptions consume claim end")
	return nil
}

func (s *SubscriptionHandler) logic(ctx context.Context, msg *sarama.ConsumerMessage) error {
	canalMsg, err := ToCanalMessage(msg, "subscriptions")
	if err != nil {
		return err
	}
	if canalMsg.Type != UPDATE {
		return nil
	}

	for i, row := range canalMsg.Data {
		if i >= len(canalMsg.Old) {
			break
		}
		old := canalMsg.Old[i]
		// Old 只含变更过的列，没有 last_seen_at 说明这行水位没动
		prev, changed := old["last_seen_at"]
		if !changed {
			continue
		}

		roomID := rowUint64(row["room_id"])
		userID := rowUint64(row["user_id"])
		if roomID == 0 || userID == 0 {
			continue
		}

		// userLastSeen 传变更前的水位，与 HTTP 路径语义一致
		if err := s.receiptSvc.MarkMessagesAsRead(ctx, roomID, userID, rowTime(prev)); err != nil {
			return err
		}
	}
	return nil
}
