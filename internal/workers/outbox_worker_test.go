package workers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"curaconnect_backend/internal/events"
	"curaconnect_backend/internal/models"
	"curaconnect_backend/internal/repositories"
	"curaconnect_backend/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type fakePublisher struct {
	mu       sync.Mutex
	failKeys map[string]bool
	sent     []events.Message
}

func (p *fakePublisher) Publish(_ context.Context, messages ...events.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, m := range messages {
		if p.failKeys[m.Key] {
			return errors.New("broker unavailable")
		}
		p.sent = append(p.sent, m)
	}
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sent)
}

func seedOutbox(t *testing.T, db *gorm.DB, n int) []*models.OutboxEvent {
	t.Helper()
	out := make([]*models.OutboxEvent, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, &models.OutboxEvent{
			Topic:       "curaconnect.notifications",
			AggregateID: uuid.NewString(),
			EventType:   "notification.created",
			Payload:     datatypes.JSON(`{"ok":true}`),
		})
	}
	require.NoError(t, repositories.NewOutboxRepository().Create(db, out))
	return out
}

func TestOutboxWorker_RunOncePublishesPending(t *testing.T) {
	db := testutil.NewTestDB(t)
	seeded := seedOutbox(t, db, 3)
	publisher := &fakePublisher{}

	worker := NewOutboxWorker(db, repositories.NewOutboxRepository(), publisher, OutboxWorkerConfig{BatchSize: 10})
	sent, err := worker.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, sent)
	assert.Equal(t, 3, publisher.count())

	assert.Zero(t, testutil.CountOutbox(t, db, models.OutboxStatusPending))
	assert.EqualValues(t, 3, testutil.CountOutbox(t, db, models.OutboxStatusSent))

	publisher.mu.Lock()
	keys := make([]string, 0, len(publisher.sent))
	for _, m := range publisher.sent {
		keys = append(keys, m.Key)
		assert.Equal(t, "notification.created", m.Type)
	}
	publisher.mu.Unlock()
	assert.ElementsMatch(t, []string{seeded[0].AggregateID, seeded[1].AggregateID, seeded[2].AggregateID}, keys)

	// Второй проход ничего не публикует повторно
	sent, err = worker.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Equal(t, 3, publisher.count())
}

func TestOutboxWorker_FailedEventsRetryThenGiveUp(t *testing.T) {
	db := testutil.NewTestDB(t)
	seeded := seedOutbox(t, db, 2)
	broken := seeded[1]
	publisher := &fakePublisher{failKeys: map[string]bool{broken.AggregateID: true}}

	worker := NewOutboxWorker(db, repositories.NewOutboxRepository(), publisher, OutboxWorkerConfig{BatchSize: 10, MaxAttempts: 2})

	sent, err := worker.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent, "ошибка одного события не блокирует остальные")

	var event models.OutboxEvent
	require.NoError(t, db.First(&event, "id = ?", broken.ID).Error)
	assert.Equal(t, models.OutboxStatusPending, event.Status)
	assert.Equal(t, 1, event.Attempts)
	assert.Equal(t, "broker unavailable", event.LastError)

	_, err = worker.RunOnce(context.Background())
	require.NoError(t, err)

	require.NoError(t, db.First(&event, "id = ?", broken.ID).Error)
	assert.Equal(t, models.OutboxStatusFailed, event.Status)
	assert.Equal(t, 2, event.Attempts)
	assert.EqualValues(t, 1, testutil.CountOutbox(t, db, models.OutboxStatusFailed))
	assert.EqualValues(t, 1, testutil.CountOutbox(t, db, models.OutboxStatusSent))

	// failed больше не выбирается
	sent, err = worker.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
}

func TestOutboxWorker_BatchSize(t *testing.T) {
	db := testutil.NewTestDB(t)
	seedOutbox(t, db, 5)

	worker := NewOutboxWorker(db, repositories.NewOutboxRepository(), &fakePublisher{}, OutboxWorkerConfig{BatchSize: 2})
	sent, err := worker.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.EqualValues(t, 3, testutil.CountOutbox(t, db, models.OutboxStatusPending))
}

func TestOutboxRepository_DeleteSentBefore(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repositories.NewOutboxRepository()
	seeded := seedOutbox(t, db, 2)

	require.NoError(t, repo.MarkSent(db, seeded[0].ID, time.Now().Add(-48*time.Hour)))
	require.NoError(t, repo.MarkSent(db, seeded[1].ID, time.Now()))

	deleted, err := repo.DeleteSentBefore(db, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)
	assert.EqualValues(t, 1, testutil.CountOutbox(t, db, models.OutboxStatusSent))
}

func TestOutboxWorker_StartStopsWithContext(t *testing.T) {
	db := testutil.NewTestDB(t)
	seedOutbox(t, db, 1)
	publisher := &fakePublisher{}

	ctx, cancel := context.WithCancel(context.Background())
	worker := NewOutboxWorker(db, repositories.NewOutboxRepository(), publisher, OutboxWorkerConfig{Interval: 10 * time.Millisecond})
	worker.Start(ctx)

	assert.Eventually(t, func() bool { return publisher.count() == 1 }, time.Second, 10*time.Millisecond)
	cancel()
}
