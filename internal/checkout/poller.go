package checkout

import (
	"context"
	"time"

	"zatix-checkout/models"
	"zatix-checkout/monitoring"
	"zatix-checkout/pkg/logger"
)

// OrderStatusFetcher is the polled order status endpoint.
type OrderStatusFetcher interface {
	OrderStatus(ctx context.Context, orderID int) (*models.OrderStatus, error)
}

// StatusPoller observes one order until its payment reaches a terminal
// state. Checks run from a single goroutine, so polls can never
// overlap, and the ticker is stopped the moment a terminal status is
// seen rather than at teardown.
type StatusPoller struct {
	fetch    OrderStatusFetcher
	orderID  int
	interval time.Duration

	// onSuccess fires exactly once, on the transition to success.
	onSuccess func(*models.OrderStatus)

	// onUpdate fires for every successfully fetched status.
	onUpdate func(*models.OrderStatus)

	checkNow chan struct{}
	log      logger.Logger
}

type PollerOption func(*StatusPoller)

// OnSuccess sets the success callback.
func OnSuccess(fn func(*models.OrderStatus)) PollerOption {
	return func(p *StatusPoller) { p.onSuccess = fn }
}

// OnUpdate sets the per-check callback.
func OnUpdate(fn func(*models.OrderStatus)) PollerOption {
	return func(p *StatusPoller) { p.onUpdate = fn }
}

func NewStatusPoller(fetch OrderStatusFetcher, orderID int, interval time.Duration, log logger.Logger, opts ...PollerOption) *StatusPoller {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if log == nil {
		log = logger.NewNop()
	}
	p := &StatusPoller{
		fetch:    fetch,
		orderID:  orderID,
		interval: interval,
		checkNow: make(chan struct{}, 1),
		log:      log,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CheckNow requests an out-of-band poll without waiting for the next
// tick. Safe to call from any goroutine; extra requests coalesce.
func (p *StatusPoller) CheckNow() {
	select {
	case p.checkNow <- struct{}{}:
	default:
	}
}

// Run polls immediately, then on every tick or CheckNow request, until
// a terminal status is observed or ctx is cancelled. It returns the
// terminal status, or nil on cancellation.
func (p *StatusPoller) Run(ctx context.Context) *models.OrderStatus {
	monitoring.PollStarted()
	defer monitoring.PollStopped()

	if status, done := p.check(ctx); done {
		return status
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-ticker.C:

		case <-p.checkNow:
		}

		if status, done := p.check(ctx); done {
			return status
		}
	}
}

// check performs one status fetch. Fetch failures are logged and the
// cadence continues; there is no backoff beyond the fixed interval.
func (p *StatusPoller) check(ctx context.Context) (*models.OrderStatus, bool) {
	status, err := p.fetch.OrderStatus(ctx, p.orderID)
	if err != nil {
		p.log.Warn("order status check failed", "order_id", p.orderID, "error", err)
		return nil, false
	}

	if p.onUpdate != nil {
		p.onUpdate(status)
	}

	if !models.TerminalPaymentStatus(status.PaymentStatus) {
		return nil, false
	}

	if status.PaymentStatus == models.PaymentSuccess && p.onSuccess != nil {
		p.onSuccess(status)
	}
	return status, true
}
