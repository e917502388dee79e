package models

import "time"

// LimitStatus is the server's verdict on one user+ticket combination.
// The client treats it as authoritative and never overrides an invalid
// status locally.
type LimitStatus struct {
	TicketID          int    `json:"ticket_id"`
	IsValid           bool   `json:"is_valid"`
	AvailableQuantity int    `json:"available_quantity"`
	LimitType         string `json:"limit_type"` // per_order, cumulative, daily
	LimitValue        int    `json:"limit_value"`
	UserPurchased     int    `json:"user_purchased"`
	ErrorMessage      string `json:"error_message,omitempty"`
}

type LimitCheckItem struct {
	TicketID int `json:"ticket_id"`
	Quantity int `json:"quantity"`
}

// PurchaseHistory is the cumulative/daily purchase record for one
// user+ticket combination.
type PurchaseHistory struct {
	UserID        int        `json:"user_id"`
	TicketID      int        `json:"ticket_id"`
	TotalBought   int        `json:"total_bought"`
	BoughtToday   int        `json:"bought_today"`
	LastPurchased *time.Time `json:"last_purchased,omitempty"`
}

// CustomerTicket is an issued ticket. QRCode is an opaque image payload
// (data URL or raw base64 PNG) rendered as-is.
type CustomerTicket struct {
	ID         int    `json:"id"`
	OrderID    int    `json:"order_id"`
	TicketID   int    `json:"ticket_id"`
	TicketName string `json:"ticket_name"`
	EventName  string `json:"event_name"`
	TicketCode string `json:"ticket_code"`
	Status     string `json:"status"` // active, used, cancelled
	QRCode     string `json:"qr_code"`
	HolderName string `json:"holder_name,omitempty"`
}
