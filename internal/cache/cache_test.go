package cache

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zatix-checkout/models"
)

func TestRedisStore_GetHistory(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisStore(db, 30*time.Second)

	t.Run("hit", func(t *testing.T) {
		mock.ExpectHGetAll("history:9:12").SetVal(map[string]string{
			"total_bought": "4",
			"bought_today": "1",
		})

		history, ok := store.GetHistory(context.Background(), 9, 12)
		require.True(t, ok)
		assert.Equal(t, 9, history.UserID)
		assert.Equal(t, 12, history.TicketID)
		assert.Equal(t, 4, history.TotalBought)
		assert.Equal(t, 1, history.BoughtToday)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("miss", func(t *testing.T) {
		mock.ExpectHGetAll("history:9:13").SetVal(map[string]string{})

		_, ok := store.GetHistory(context.Background(), 9, 13)
		assert.False(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("corrupt fields fall through", func(t *testing.T) {
		mock.ExpectHGetAll("history:9:14").SetVal(map[string]string{
			"total_bought": "not-a-number",
			"bought_today": "1",
		})

		_, ok := store.GetHistory(context.Background(), 9, 14)
		assert.False(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRedisStore_PutHistory(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisStore(db, 30*time.Second)

	mock.ExpectHSet("history:9:12",
		"total_bought", 4,
		"bought_today", 1,
	).SetVal(2)
	mock.ExpectExpire("history:9:12", 30*time.Second).SetVal(true)

	store.PutHistory(context.Background(), &models.PurchaseHistory{
		UserID:      9,
		TicketID:    12,
		TotalBought: 4,
		BoughtToday: 1,
	})
	assert.NoError(t, mock.ExpectationsWereMet())

	// nil histories are ignored without touching redis
	store.PutHistory(context.Background(), nil)
	assert.NoError(t, mock.ExpectationsWereMet())
}
