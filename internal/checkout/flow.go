package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"zatix-checkout/internal/api"
	"zatix-checkout/models"
	"zatix-checkout/pkg/logger"
)

var ErrNothingSelected = errors.New("checkout: nothing selected")

// API is the slice of the ZaTix client the purchase flow needs.
type API interface {
	LimitChecker
	OrderStatusFetcher
	PublicEvent(ctx context.Context, id int) (*models.Event, error)
	PaymentMethods(ctx context.Context) (*models.PaymentMethodsResponse, error)
	CreateOrder(ctx context.Context, req *api.CreateOrderRequest) (*models.CreatedOrder, error)
}

// Flow drives the purchase pipeline: selection, method choice, order
// creation, status observation, issued tickets.
type Flow struct {
	api          API
	pollInterval time.Duration
	log          logger.Logger
}

func NewFlow(client API, pollInterval time.Duration, log logger.Logger) *Flow {
	if log == nil {
		log = logger.NewNop()
	}
	return &Flow{api: client, pollInterval: pollInterval, log: log}
}

// Begin loads the event and opens a selection for the user, with every
// ticket's purchase history prefetched.
func (f *Flow) Begin(ctx context.Context, eventID, userID int, opts ...SelectionOption) (*models.Event, *Selection, error) {
	event, err := f.api.PublicEvent(ctx, eventID)
	if err != nil {
		return nil, nil, fmt.Errorf("load event: %w", err)
	}

	selection := NewSelection(userID, event.Tickets, f.api, f.log, opts...)
	selection.LoadHistories(ctx)
	return event, selection, nil
}

// Methods fetches the payment catalog and pairs it with the current
// non-zero selections.
func (f *Flow) Methods(ctx context.Context, selection *Selection) (*MethodPicker, error) {
	items := selection.Items()
	if len(items) == 0 {
		return nil, ErrNothingSelected
	}

	catalog, err := f.api.PaymentMethods(ctx)
	if err != nil {
		return nil, fmt.Errorf("load payment methods: %w", err)
	}
	return NewMethodPicker(catalog, items), nil
}

// Submit creates the order for a validated submission.
func (f *Flow) Submit(ctx context.Context, eventID int, submission *models.PaymentSubmission) (*models.CreatedOrder, error) {
	created, err := f.api.CreateOrder(ctx, &api.CreateOrderRequest{
		EventID:       eventID,
		Items:         submission.Items,
		PaymentMethod: submission.Method.Code,
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	f.log.Info("order created",
		"order_id", created.Order.ID,
		"order_number", created.Order.OrderNumber,
		"total", created.Order.TotalAmount,
	)
	return created, nil
}

// Await watches the order until its payment settles and returns the
// terminal status (nil on cancellation).
func (f *Flow) Await(ctx context.Context, orderID int, opts ...PollerOption) *models.OrderStatus {
	poller := NewStatusPoller(f.api, orderID, f.pollInterval, f.log, opts...)
	return poller.Run(ctx)
}
