package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zatix-checkout/models"
	"zatix-checkout/pkg/logger"
)

type fakeLimits struct {
	mu        sync.Mutex
	bulkCalls int
	bulk      func(call int, userID int, items []models.LimitCheckItem) (map[int]models.LimitStatus, error)
	history   func(userID, ticketID int) (*models.PurchaseHistory, error)
}

func (f *fakeLimits) BulkCheckLimits(_ context.Context, userID int, items []models.LimitCheckItem) (map[int]models.LimitStatus, error) {
	f.mu.Lock()
	f.bulkCalls++
	call := f.bulkCalls
	f.mu.Unlock()

	if f.bulk == nil {
		return map[int]models.LimitStatus{}, nil
	}
	return f.bulk(call, userID, items)
}

func (f *fakeLimits) PurchaseHistory(_ context.Context, userID, ticketID int) (*models.PurchaseHistory, error) {
	if f.history == nil {
		return &models.PurchaseHistory{UserID: userID, TicketID: ticketID}, nil
	}
	return f.history(userID, ticketID)
}

func (f *fakeLimits) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bulkCalls
}

func saleTicket(id, stock, limit int, price int64) models.Ticket {
	return models.Ticket{
		ID:        id,
		Name:      "Test",
		Price:     decimal.NewFromInt(price),
		Stock:     stock,
		Limit:     limit,
		StartDate: time.Now().Add(-time.Hour),
		EndDate:   time.Now().Add(time.Hour),
	}
}

func newTestSelection(t *testing.T, limits *fakeLimits, tickets ...models.Ticket) *Selection {
	t.Helper()
	return NewSelection(1, tickets, limits, logger.NewNop())
}

func TestSelection_AdjustBounds(t *testing.T) {
	s := newTestSelection(t, &fakeLimits{}, saleTicket(7, 5, 2, 100))

	require.NoError(t, s.Adjust(7, +1))
	require.NoError(t, s.Adjust(7, +1))

	// Third increment exceeds min(limit=2, stock=5) and is rejected
	// without touching the quantity.
	err := s.Adjust(7, +1)
	assert.ErrorIs(t, err, ErrQuantityLimit)
	assert.Equal(t, 2, s.Quantity(7))

	// Decrement below zero floors at zero.
	require.NoError(t, s.Adjust(7, -5))
	assert.Equal(t, 0, s.Quantity(7))
}

func TestSelection_AdjustUnknownTicket(t *testing.T) {
	s := newTestSelection(t, &fakeLimits{}, saleTicket(7, 5, 2, 100))
	assert.ErrorIs(t, s.Adjust(99, +1), ErrUnknownTicket)
}

func TestSelection_AdjustOutsideSaleWindow(t *testing.T) {
	ticket := saleTicket(7, 5, 2, 100)
	ticket.EndDate = time.Now().Add(-time.Minute)
	s := newTestSelection(t, &fakeLimits{}, ticket)

	assert.ErrorIs(t, s.Adjust(7, +1), ErrTicketUnavailable)
	assert.Equal(t, 0, s.Quantity(7))
}

func TestSelection_SetQuantityClampsSilently(t *testing.T) {
	s := newTestSelection(t, &fakeLimits{}, saleTicket(7, 3, 10, 100))

	// Direct input above min(limit, stock) clamps, no error.
	require.NoError(t, s.SetQuantity(7, 50))
	assert.Equal(t, 3, s.Quantity(7))

	require.NoError(t, s.SetQuantity(7, -4))
	assert.Equal(t, 0, s.Quantity(7))
}

func TestSelection_SetQuantityRejectPolicy(t *testing.T) {
	s := NewSelection(1, []models.Ticket{saleTicket(7, 3, 10, 100)}, &fakeLimits{}, logger.NewNop(),
		WithSetPolicy(RejectOverflow))

	assert.ErrorIs(t, s.SetQuantity(7, 50), ErrQuantityLimit)
	assert.Equal(t, 0, s.Quantity(7))
}

func TestSelection_ServerInvalidBlocksIncrement(t *testing.T) {
	limits := &fakeLimits{
		bulk: func(_ int, _ int, _ []models.LimitCheckItem) (map[int]models.LimitStatus, error) {
			return map[int]models.LimitStatus{
				7: {TicketID: 7, IsValid: false, ErrorMessage: "Daily limit exceeded"},
			}, nil
		},
	}
	s := newTestSelection(t, limits, saleTicket(7, 5, 4, 100), saleTicket(8, 5, 4, 100))

	require.NoError(t, s.Adjust(7, +1))
	require.NoError(t, s.Adjust(8, +1))
	require.NoError(t, s.Revalidate(context.Background()))

	// The server verdict blocks ticket 7 even though local bounds would
	// allow more, and leaves ticket 8 untouched.
	status, ok := s.Validation(7)
	require.True(t, ok)
	assert.False(t, status.IsValid)
	assert.Equal(t, "Daily limit exceeded", status.ErrorMessage)

	assert.False(t, s.CanIncrement(7))
	assert.ErrorIs(t, s.Adjust(7, +1), ErrLimitViolation)
	assert.True(t, s.CanIncrement(8))
	require.NoError(t, s.Adjust(8, +1))

	// Quantities the user already held stay in place.
	assert.Equal(t, 1, s.Quantity(7))
}

func TestSelection_FullResetClearsValidation(t *testing.T) {
	limits := &fakeLimits{
		bulk: func(_ int, _ int, _ []models.LimitCheckItem) (map[int]models.LimitStatus, error) {
			return map[int]models.LimitStatus{
				7: {TicketID: 7, IsValid: false, ErrorMessage: "Limit exceeded"},
			}, nil
		},
	}
	s := newTestSelection(t, limits, saleTicket(7, 5, 4, 100))

	require.NoError(t, s.Adjust(7, +1))
	require.NoError(t, s.Revalidate(context.Background()))
	_, ok := s.Validation(7)
	require.True(t, ok)

	// Dropping the last non-zero quantity clears all verdicts: no stale
	// violation banners survive a full reset.
	require.NoError(t, s.Adjust(7, -1))
	_, ok = s.Validation(7)
	assert.False(t, ok)

	// Revalidate with nothing selected performs no network call.
	before := limits.calls()
	require.NoError(t, s.Revalidate(context.Background()))
	assert.Equal(t, before, limits.calls())
}

func TestSelection_RevalidateErrorKeepsPriorState(t *testing.T) {
	failing := errors.New("backend down")
	limits := &fakeLimits{
		bulk: func(call int, _ int, _ []models.LimitCheckItem) (map[int]models.LimitStatus, error) {
			if call == 1 {
				return map[int]models.LimitStatus{7: {TicketID: 7, IsValid: true}}, nil
			}
			return nil, failing
		},
	}
	s := newTestSelection(t, limits, saleTicket(7, 5, 4, 100))

	require.NoError(t, s.Adjust(7, +1))
	require.NoError(t, s.Revalidate(context.Background()))

	// A failed validation is unknown, not invalid: prior state stays and
	// interaction is not blocked.
	require.Error(t, s.Revalidate(context.Background()))
	status, ok := s.Validation(7)
	assert.True(t, ok)
	assert.True(t, status.IsValid)
	assert.True(t, s.CanIncrement(7))
}

func TestSelection_StaleResponseDiscarded(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	limits := &fakeLimits{
		bulk: func(call int, _ int, _ []models.LimitCheckItem) (map[int]models.LimitStatus, error) {
			if call == 1 {
				close(started)
				<-release
				return map[int]models.LimitStatus{
					7: {TicketID: 7, IsValid: false, ErrorMessage: "stale verdict"},
				}, nil
			}
			return map[int]models.LimitStatus{7: {TicketID: 7, IsValid: true}}, nil
		},
	}
	s := newTestSelection(t, limits, saleTicket(7, 5, 4, 100))
	require.NoError(t, s.Adjust(7, +1))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = s.Revalidate(context.Background())
	}()
	<-started

	// A second request is issued while the first is still in flight.
	require.NoError(t, s.Adjust(7, +1))
	require.NoError(t, s.Revalidate(context.Background()))

	// The first response lands late and must not overwrite the newer one.
	close(release)
	wg.Wait()

	status, ok := s.Validation(7)
	require.True(t, ok)
	assert.True(t, status.IsValid)
}

func TestSelection_LoadHistoriesPartialFailure(t *testing.T) {
	limits := &fakeLimits{
		history: func(userID, ticketID int) (*models.PurchaseHistory, error) {
			if ticketID == 8 {
				return nil, errors.New("timeout")
			}
			return &models.PurchaseHistory{UserID: userID, TicketID: ticketID, TotalBought: 3}, nil
		},
	}
	s := newTestSelection(t, limits, saleTicket(7, 5, 4, 100), saleTicket(8, 5, 4, 100))

	s.LoadHistories(context.Background())

	require.NotNil(t, s.History(7))
	assert.Equal(t, 3, s.History(7).TotalBought)
	assert.Nil(t, s.History(8))
}

func TestSelection_Total(t *testing.T) {
	s := newTestSelection(t, &fakeLimits{}, saleTicket(7, 10, 10, 150), saleTicket(8, 10, 10, 200))

	require.NoError(t, s.SetQuantity(7, 2))
	require.NoError(t, s.SetQuantity(8, 1))

	assert.True(t, s.Total().Equal(decimal.NewFromInt(500)), "got %s", s.Total())
}

func TestSelection_Items(t *testing.T) {
	s := newTestSelection(t, &fakeLimits{}, saleTicket(7, 10, 10, 150), saleTicket(8, 10, 10, 200))

	require.NoError(t, s.SetQuantity(7, 2))
	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, models.LimitCheckItem{TicketID: 7, Quantity: 2}, items[0])
}
