package workers

import (
	"context"
	"errors"
	"time"

	"curaconnect_backend/internal/events"
	"curaconnect_backend/internal/logger"
	"curaconnect_backend/internal/models"
	"curaconnect_backend/internal/repositories"

	"gorm.io/gorm"
)

const outboxWorkerName = "outbox"

type OutboxWorkerConfig struct {
	Interval    time.Duration
	BatchSize   int
	MaxAttempts int
	// Retention - сколько хранить отправленные события; 0 выключает очистку
	Retention time.Duration
}

// OutboxWorker публикует события, записанные в одной транзакции с уведомлениями
type OutboxWorker struct {
	db         *gorm.DB
	outboxRepo repositories.OutboxRepository
	publisher  events.Publisher
	cfg        OutboxWorkerConfig
}

func NewOutboxWorker(db *gorm.DB, outboxRepo repositories.OutboxRepository, publisher events.Publisher, cfg OutboxWorkerConfig) *OutboxWorker {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 10
	}
	return &OutboxWorker{
		db:         db,
		outboxRepo: outboxRepo,
		publisher:  publisher,
		cfg:        cfg,
	}
}

// Start запускает фоновые задачи outbox
func (w *OutboxWorker) Start(ctx context.Context) {
	go w.relay(ctx)

	if w.cfg.Retention > 0 {
		go w.purgeSent(ctx)
	}
}

func (w *OutboxWorker) relay(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Outbox worker stopped")
			return
		case <-ticker.C:
			if _, err := w.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.WorkerLog(outboxWorkerName, "relay", err)
			}
		}
	}
}

// RunOnce публикует одну пачку pending событий и возвращает число отправленных.
// Ошибка публикации одного события не останавливает остальные.
func (w *OutboxWorker) RunOnce(ctx context.Context) (int, error) {
	db := w.db.WithContext(ctx)

	pending, err := w.outboxRepo.FindPending(db, w.cfg.BatchSize)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, event := range pending {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}

		msg := events.Message{
			Topic: event.Topic,
			Key:   event.AggregateID,
			Type:  event.EventType,
			Value: event.Payload,
		}
		if err := w.publisher.Publish(ctx, msg); err != nil {
			logger.WorkerLog(outboxWorkerName, "publish", err, "event_id", event.ID, "attempts", event.Attempts+1)
			if markErr := w.outboxRepo.MarkAttemptFailed(db, event.ID, err.Error(), w.cfg.MaxAttempts); markErr != nil {
				return sent, markErr
			}
			continue
		}

		if err := w.outboxRepo.MarkSent(db, event.ID, time.Now()); err != nil {
			return sent, err
		}
		sent++
	}

	if len(pending) > 0 {
		failed, err := w.outboxRepo.CountByStatus(db, models.OutboxStatusFailed)
		if err != nil {
			return sent, err
		}
		logger.WorkerLog(outboxWorkerName, "relay", nil, "pending", len(pending), "sent", sent, "failed_total", failed)
	}
	return sent, nil
}

// purgeSent удаляет отправленные события старше Retention раз в час
func (w *OutboxWorker) purgeSent(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := w.outboxRepo.DeleteSentBefore(w.db.WithContext(ctx), time.Now().Add(-w.cfg.Retention))
			logger.WorkerLog(outboxWorkerName, "purge", err, "deleted", deleted)
		}
	}
}
