package checkout

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"zatix-checkout/models"
	"zatix-checkout/monitoring"
	"zatix-checkout/pkg/logger"
)

var (
	ErrUnknownTicket     = errors.New("checkout: unknown ticket")
	ErrQuantityLimit     = errors.New("checkout: quantity above per-order limit")
	ErrTicketUnavailable = errors.New("checkout: ticket not on sale")
	ErrLimitViolation    = errors.New("checkout: purchase limit reached")
)

// BoundsPolicy decides what happens when a quantity change lands above
// the local bound. Both entry paths carry an explicit policy; the
// defaults reproduce the original behavior (reject on stepper, clamp on
// direct input).
type BoundsPolicy int

const (
	RejectOverflow BoundsPolicy = iota
	ClampSilently
)

// LimitChecker is the server-side authority on purchase limits.
type LimitChecker interface {
	BulkCheckLimits(ctx context.Context, userID int, items []models.LimitCheckItem) (map[int]models.LimitStatus, error)
	PurchaseHistory(ctx context.Context, userID, ticketID int) (*models.PurchaseHistory, error)
}

// Selection tracks per-ticket quantities for one user and mirrors the
// server's limit verdicts. Local bounds are advisory; the server's
// verdict is authoritative and is never overridden here.
type Selection struct {
	mu sync.Mutex

	userID  int
	tickets map[int]models.Ticket

	quantities map[int]int
	validation map[int]models.LimitStatus
	histories  map[int]*models.PurchaseHistory

	// generation tags validation requests; responses carrying a stale
	// generation are discarded instead of overwriting newer state.
	generation uint64

	adjustPolicy BoundsPolicy
	setPolicy    BoundsPolicy

	limits LimitChecker
	log    logger.Logger
	now    func() time.Time
}

type SelectionOption func(*Selection)

// WithAdjustPolicy overrides the stepper-path bounds policy.
func WithAdjustPolicy(p BoundsPolicy) SelectionOption {
	return func(s *Selection) { s.adjustPolicy = p }
}

// WithSetPolicy overrides the direct-input bounds policy.
func WithSetPolicy(p BoundsPolicy) SelectionOption {
	return func(s *Selection) { s.setPolicy = p }
}

// WithClock overrides the sale-window clock. Used in tests.
func WithClock(now func() time.Time) SelectionOption {
	return func(s *Selection) { s.now = now }
}

func NewSelection(userID int, tickets []models.Ticket, limits LimitChecker, log logger.Logger, opts ...SelectionOption) *Selection {
	s := &Selection{
		userID:     userID,
		tickets:    make(map[int]models.Ticket, len(tickets)),
		quantities: make(map[int]int),
		validation: make(map[int]models.LimitStatus),
		histories:  make(map[int]*models.PurchaseHistory),

		adjustPolicy: RejectOverflow,
		setPolicy:    ClampSilently,

		limits: limits,
		log:    log,
		now:    time.Now,
	}
	if s.log == nil {
		s.log = logger.NewNop()
	}
	for _, t := range tickets {
		s.tickets[t.ID] = t
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadHistories fetches every ticket's purchase history concurrently.
// A failed fetch nils that ticket's slot only; the batch never fails.
func (s *Selection) LoadHistories(ctx context.Context) {
	s.mu.Lock()
	ids := make([]int, 0, len(s.tickets))
	for id := range s.tickets {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			history, err := s.limits.PurchaseHistory(gctx, s.userID, id)
			if err != nil {
				s.log.Warn("history fetch failed", "ticket_id", id, "error", err)
				history = nil
			}
			s.mu.Lock()
			s.histories[id] = history
			s.mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
}

// History returns the loaded purchase history for a ticket; nil means
// the fetch failed or has not run.
func (s *Selection) History(ticketID int) *models.PurchaseHistory {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.histories[ticketID]
}

// Quantity returns the current quantity for a ticket.
func (s *Selection) Quantity(ticketID int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quantities[ticketID]
}

// Items returns the non-zero selections in LimitCheckItem form.
func (s *Selection) Items() []models.LimitCheckItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.itemsLocked()
}

func (s *Selection) itemsLocked() []models.LimitCheckItem {
	items := make([]models.LimitCheckItem, 0, len(s.quantities))
	for id, qty := range s.quantities {
		if qty > 0 {
			items = append(items, models.LimitCheckItem{TicketID: id, Quantity: qty})
		}
	}
	return items
}

// Total sums price x quantity across the selection.
func (s *Selection) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := decimal.Zero
	for id, qty := range s.quantities {
		if qty == 0 {
			continue
		}
		t := s.tickets[id]
		total = total.Add(t.Price.Mul(decimal.NewFromInt(int64(qty))))
	}
	return total
}

// Validation returns the last applied server verdict for a ticket.
// Absence means unknown, which never blocks interaction.
func (s *Selection) Validation(ticketID int) (models.LimitStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	status, ok := s.validation[ticketID]
	return status, ok
}

// CanIncrement reports whether one more of this ticket may be added:
// false outside the sale window, at zero stock, at the local maximum,
// or when the server explicitly marked the ticket invalid.
func (s *Selection) CanIncrement(ticketID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canIncrementLocked(ticketID)
}

func (s *Selection) canIncrementLocked(ticketID int) bool {
	t, ok := s.tickets[ticketID]
	if !ok {
		return false
	}
	if !t.OnSale(s.now()) {
		return false
	}
	if s.quantities[ticketID] >= t.MaxPerOrder() {
		return false
	}
	if status, ok := s.validation[ticketID]; ok && !status.IsValid {
		return false
	}
	return true
}

// Adjust applies a stepper delta. Under RejectOverflow a result above
// the local bound returns ErrQuantityLimit and leaves state untouched;
// a server-invalid ticket rejects increments with ErrLimitViolation.
func (s *Selection) Adjust(ticketID, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tickets[ticketID]
	if !ok {
		return ErrUnknownTicket
	}

	cur := s.quantities[ticketID]
	newQty := cur + delta
	if newQty < 0 {
		newQty = 0
	}

	if delta > 0 {
		if !t.OnSale(s.now()) {
			return ErrTicketUnavailable
		}
		if status, ok := s.validation[ticketID]; ok && !status.IsValid {
			return ErrLimitViolation
		}
	}

	max := t.MaxPerOrder()
	if newQty > max {
		if s.adjustPolicy == RejectOverflow {
			return ErrQuantityLimit
		}
		newQty = max
	}

	s.applyQuantityLocked(ticketID, newQty)
	return nil
}

// SetQuantity applies a direct numeric input. Under ClampSilently the
// value is forced into [0, min(limit, stock)] without error.
func (s *Selection) SetQuantity(ticketID, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tickets[ticketID]
	if !ok {
		return ErrUnknownTicket
	}

	if qty < 0 {
		qty = 0
	}
	max := t.MaxPerOrder()
	if qty > max {
		if s.setPolicy == RejectOverflow {
			return ErrQuantityLimit
		}
		qty = max
	}

	s.applyQuantityLocked(ticketID, qty)
	return nil
}

func (s *Selection) applyQuantityLocked(ticketID, qty int) {
	if qty == 0 {
		delete(s.quantities, ticketID)
	} else {
		s.quantities[ticketID] = qty
	}

	// No stale violation banners survive a full reset.
	if len(s.quantities) == 0 {
		s.validation = make(map[int]models.LimitStatus)
	}
}

// Clear drops every quantity and all validation state.
func (s *Selection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quantities = make(map[int]int)
	s.validation = make(map[int]models.LimitStatus)
}

// Revalidate sends one bulk check covering all non-zero selections and
// applies the verdicts, unless a newer request was issued meanwhile.
// With nothing selected it clears validation state without a network
// round trip. Validation errors leave prior state in place: unknown is
// not invalid.
func (s *Selection) Revalidate(ctx context.Context) error {
	s.mu.Lock()
	items := s.itemsLocked()
	if len(items) == 0 {
		s.validation = make(map[int]models.LimitStatus)
		s.mu.Unlock()
		return nil
	}
	s.generation++
	gen := s.generation
	userID := s.userID
	s.mu.Unlock()

	statuses, err := s.limits.BulkCheckLimits(ctx, userID, items)
	if err != nil {
		s.log.Warn("bulk limit check failed", "error", err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		// A newer request was issued while this one was in flight;
		// its response is the only one allowed to land.
		monitoring.TrackStaleValidation()
		return nil
	}
	s.validation = statuses

	// The server can invalidate a ticket the user already holds a
	// quantity for; quantities stay, the verdict blocks increments.
	return nil
}
