// Package cache holds short-lived copies of per-user purchase history so
// box-office terminals sharing one backend do not hammer the history
// endpoint on every page of a sale. Lookups that miss or fail fall
// through to the API; the cache is never authoritative.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"zatix-checkout/models"
)

// HistoryStore caches purchase-history lookups.
type HistoryStore interface {
	GetHistory(ctx context.Context, userID, ticketID int) (*models.PurchaseHistory, bool)
	PutHistory(ctx context.Context, history *models.PurchaseHistory)
}

// Noop satisfies HistoryStore without storing anything.
type Noop struct{}

func (Noop) GetHistory(context.Context, int, int) (*models.PurchaseHistory, bool) {
	return nil, false
}

func (Noop) PutHistory(context.Context, *models.PurchaseHistory) {}

// RedisStore keeps histories in Redis hashes with a short TTL.
type RedisStore struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisStore{redis: client, ttl: ttl}
}

func historyKey(userID, ticketID int) string {
	return fmt.Sprintf("history:%d:%d", userID, ticketID)
}

func (s *RedisStore) GetHistory(ctx context.Context, userID, ticketID int) (*models.PurchaseHistory, bool) {
	fields, err := s.redis.HGetAll(ctx, historyKey(userID, ticketID)).Result()
	if err != nil || len(fields) == 0 {
		return nil, false
	}

	total, err := strconv.Atoi(fields["total_bought"])
	if err != nil {
		return nil, false
	}
	today, err := strconv.Atoi(fields["bought_today"])
	if err != nil {
		return nil, false
	}

	return &models.PurchaseHistory{
		UserID:      userID,
		TicketID:    ticketID,
		TotalBought: total,
		BoughtToday: today,
	}, true
}

func (s *RedisStore) PutHistory(ctx context.Context, history *models.PurchaseHistory) {
	if history == nil {
		return
	}

	key := historyKey(history.UserID, history.TicketID)
	s.redis.HSet(ctx, key,
		"total_bought", history.TotalBought,
		"bought_today", history.BoughtToday,
	)
	s.redis.Expire(ctx, key, s.ttl)
}
