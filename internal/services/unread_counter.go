package services

import (
	"time"

	"curaconnect_backend/internal/repositories"

	"github.com/patrickmn/go-cache"
	"gorm.io/gorm"
)

// UnreadCounter - read-through кэш счетчика непрочитанных, ключ - получатель
type UnreadCounter struct {
	cache *cache.Cache
	repo  repositories.NotificationRepository
}

func NewUnreadCounter(repo repositories.NotificationRepository, ttl time.Duration) *UnreadCounter {
	return &UnreadCounter{
		cache: cache.New(ttl, 10*time.Minute),
		repo:  repo,
	}
}

func (u *UnreadCounter) Get(db *gorm.DB, recipientID string) (int64, error) {
	if cached, ok := u.cache.Get(recipientID); ok {
		if count, ok := cached.(int64); ok {
			return count, nil
		}
	}

	count, err := u.repo.CountUnread(db, recipientID)
	if err != nil {
		return 0, err
	}
	u.cache.Set(recipientID, count, cache.DefaultExpiration)
	return count, nil
}

func (u *UnreadCounter) Invalidate(recipientID string) {
	u.cache.Delete(recipientID)
}
