package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zatix-checkout/models"
	"zatix-checkout/pkg/logger"
)

type scriptedFetcher struct {
	mu     sync.Mutex
	script []func() (*models.OrderStatus, error)
	count  int
}

func (f *scriptedFetcher) OrderStatus(_ context.Context, orderID int) (*models.OrderStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count++
	if f.count <= len(f.script) {
		return f.script[f.count-1]()
	}
	// Past the script the order stays in its final scripted state.
	return f.script[len(f.script)-1]()
}

func (f *scriptedFetcher) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count
}

func pending() func() (*models.OrderStatus, error) {
	return func() (*models.OrderStatus, error) {
		return &models.OrderStatus{OrderID: 42, PaymentStatus: models.PaymentPending}, nil
	}
}

func success() func() (*models.OrderStatus, error) {
	return func() (*models.OrderStatus, error) {
		return &models.OrderStatus{OrderID: 42, PaymentStatus: models.PaymentSuccess}, nil
	}
}

func TestStatusPoller_StopsAfterSuccess(t *testing.T) {
	fetcher := &scriptedFetcher{script: []func() (*models.OrderStatus, error){
		pending(), pending(), pending(), success(),
	}}

	var successes int
	var updates []string
	var mu sync.Mutex

	p := NewStatusPoller(fetcher, 42, 2*time.Millisecond, logger.NewNop(),
		OnSuccess(func(*models.OrderStatus) {
			mu.Lock()
			successes++
			mu.Unlock()
		}),
		OnUpdate(func(s *models.OrderStatus) {
			mu.Lock()
			updates = append(updates, s.PaymentStatus)
			mu.Unlock()
		}),
	)

	final := p.Run(context.Background())
	require.NotNil(t, final)
	assert.Equal(t, models.PaymentSuccess, final.PaymentStatus)

	// No further requests once the terminal status was observed.
	settled := fetcher.calls()
	assert.Equal(t, 4, settled)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, settled, fetcher.calls())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, successes)
	assert.Equal(t, []string{"pending", "pending", "pending", "success"}, updates)
}

func TestStatusPoller_FailedIsTerminalWithoutSuccessCallback(t *testing.T) {
	fetcher := &scriptedFetcher{script: []func() (*models.OrderStatus, error){
		func() (*models.OrderStatus, error) {
			return &models.OrderStatus{OrderID: 42, PaymentStatus: models.PaymentFailed}, nil
		},
	}}

	called := false
	p := NewStatusPoller(fetcher, 42, 2*time.Millisecond, logger.NewNop(),
		OnSuccess(func(*models.OrderStatus) { called = true }))

	final := p.Run(context.Background())
	require.NotNil(t, final)
	assert.Equal(t, models.PaymentFailed, final.PaymentStatus)
	assert.False(t, called)
	assert.Equal(t, 1, fetcher.calls())
}

func TestStatusPoller_FetchErrorKeepsPolling(t *testing.T) {
	fetcher := &scriptedFetcher{script: []func() (*models.OrderStatus, error){
		func() (*models.OrderStatus, error) { return nil, errors.New("boom") },
		pending(),
		success(),
	}}

	p := NewStatusPoller(fetcher, 42, 2*time.Millisecond, logger.NewNop())

	final := p.Run(context.Background())
	require.NotNil(t, final)
	assert.Equal(t, models.PaymentSuccess, final.PaymentStatus)
	assert.Equal(t, 3, fetcher.calls())
}

func TestStatusPoller_CheckNowShortcutsTheTicker(t *testing.T) {
	fetcher := &scriptedFetcher{script: []func() (*models.OrderStatus, error){
		pending(), success(),
	}}

	// Interval long enough that only CheckNow can drive the second poll.
	p := NewStatusPoller(fetcher, 42, time.Hour, logger.NewNop())

	done := make(chan *models.OrderStatus, 1)
	go func() { done <- p.Run(context.Background()) }()

	require.Eventually(t, func() bool { return fetcher.calls() == 1 }, time.Second, time.Millisecond)
	p.CheckNow()

	select {
	case final := <-done:
		require.NotNil(t, final)
		assert.Equal(t, models.PaymentSuccess, final.PaymentStatus)
	case <-time.After(time.Second):
		t.Fatal("poller did not react to CheckNow")
	}
}

func TestStatusPoller_CancelReturnsNil(t *testing.T) {
	fetcher := &scriptedFetcher{script: []func() (*models.OrderStatus, error){pending()}}

	ctx, cancel := context.WithCancel(context.Background())
	p := NewStatusPoller(fetcher, 42, time.Hour, logger.NewNop())

	done := make(chan *models.OrderStatus, 1)
	go func() { done <- p.Run(ctx) }()

	require.Eventually(t, func() bool { return fetcher.calls() == 1 }, time.Second, time.Millisecond)
	cancel()

	select {
	case final := <-done:
		assert.Nil(t, final)
	case <-time.After(time.Second):
		t.Fatal("poller did not stop on cancel")
	}
}
