package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"zatix-checkout/models"
)

// CreateOrderRequest is the order creation payload. Items are handed on
// exactly as selected; totals are recomputed server-side.
type CreateOrderRequest struct {
	EventID       int                     `json:"event_id"`
	Items         []models.LimitCheckItem `json:"items"`
	PaymentMethod string                  `json:"payment_method"`
}

// CreateOrder submits an order. An Idempotency-Key header protects
// against double submission on flaky connections.
func (c *Client) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*models.CreatedOrder, error) {
	var created models.CreatedOrder
	key := uuid.NewString()
	if err := c.do(ctx, http.MethodPost, "/orders", req, &created, withHeader("Idempotency-Key", key)); err != nil {
		return nil, err
	}
	return &created, nil
}

// OrderStatus polls the current payment state of an order, including
// gateway-derived fields and any issued tickets.
func (c *Client) OrderStatus(ctx context.Context, orderID int) (*models.OrderStatus, error) {
	var status models.OrderStatus
	path := fmt.Sprintf("/orders/%d/status", orderID)
	if err := c.do(ctx, http.MethodGet, path, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// PaymentMethods fetches the grouped payment method catalog.
func (c *Client) PaymentMethods(ctx context.Context) (*models.PaymentMethodsResponse, error) {
	var reply models.PaymentMethodsResponse
	if err := c.do(ctx, http.MethodGet, "/payment-methods", nil, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}
