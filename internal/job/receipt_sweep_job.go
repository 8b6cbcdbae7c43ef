package job

import (
	"Teamline/internal/api/config"
	"Teamline/internal/pkg/logger"
	"Teamline/internal/service"
	"context"
	log "log/slog"
	"time"

	"github.com/google/uuid"
)

// ReceiptSweepJob 定期清理回执管线里长时间未触发的去抖条目，
// 防止被取消或停滞的房间条目在映射里越积越多。
type ReceiptSweepJob struct {
	receiptSvc service.ReadReceiptService
	maxIdle    time.Duration
}

func NewReceiptSweepJob(receiptSvc service.ReadReceiptService) *ReceiptSweepJob {
	idleMinutes := config.Cfg.ReadReceipt.SweepIdleMinutes
	if idleMinutes <= 0 {
		idleMinutes = 10
	}
	return &ReceiptSweepJob{
		receiptSvc: receiptSvc,
		maxIdle:    time.Duration(idleMinutes) * time.Minute,
	}
}

func (s *ReceiptSweepJob) Run() {
	traceID := "job-receipt-sweep-" + uuid.NewString()
	ctx := context.WithValue(context.Background(), logger.TraceIDKey, traceID)

	removed := s.receiptSvc.SweepIdleTimers(s.maxIdle)
	log.InfoContext(ctx, "ReceiptSweepJob finished",
		"removed", removed,
		"pending", s.receiptSvc.PendingRecomputes(),
	)
}
