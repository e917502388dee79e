package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment statuses reported by the order status endpoint. The values
// follow the gateway's transaction_status vocabulary.
const (
	PaymentPending   = "pending"
	PaymentSuccess   = "success"
	PaymentFailed    = "failed"
	PaymentExpired   = "expired"
	PaymentCancelled = "cancelled"
)

// TerminalPaymentStatus reports whether a payment status can no longer
// change, which is the signal to stop polling.
func TerminalPaymentStatus(status string) bool {
	switch status {
	case PaymentSuccess, PaymentFailed, PaymentExpired, PaymentCancelled:
		return true
	}
	return false
}

type Order struct {
	ID            int             `json:"id"`
	OrderNumber   string          `json:"order_number"`
	UserID        int             `json:"user_id"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Status        string          `json:"status"` // created, paid, cancelled, expired
	PaymentStatus string          `json:"payment_status"`
	Items         []OrderItem     `json:"items"`
	CreatedAt     time.Time       `json:"created_at"`
	ExpiresAt     *time.Time      `json:"expires_at,omitempty"`
}

type OrderItem struct {
	TicketID   int             `json:"ticket_id"`
	TicketName string          `json:"ticket_name"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Subtotal   decimal.Decimal `json:"subtotal"`
}

// OrderStatus is the polled view of an order's payment progress,
// including the gateway-derived fields.
type OrderStatus struct {
	OrderID           int              `json:"order_id"`
	OrderNumber       string           `json:"order_number"`
	PaymentStatus     string           `json:"payment_status"`
	TransactionStatus string           `json:"transaction_status"`
	VANumbers         []VANumber       `json:"va_numbers,omitempty"`
	Tickets           []CustomerTicket `json:"tickets,omitempty"`
}

// VANumber is a bank-issued virtual account number, surfaced verbatim.
type VANumber struct {
	Bank     string `json:"bank"`
	VANumber string `json:"va_number"`
}

// CreatedOrder is the order creation response. SnapToken, when present,
// unlocks the gateway's hosted payment page.
type CreatedOrder struct {
	Order       Order  `json:"order"`
	SnapToken   string `json:"snap_token,omitempty"`
	RedirectURL string `json:"redirect_url,omitempty"`
}
