package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Event struct {
	ID          int         `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	PosterURL   string      `json:"poster_url"`
	StartDate   time.Time   `json:"start_date"`
	EndDate     time.Time   `json:"end_date"`
	Location    string      `json:"location"`
	Status      string      `json:"status"` // draft, active, ended
	Tickets     []Ticket    `json:"tickets"`
	Facilities  []Facility  `json:"facilities"`
	Organizer   *EventOwner `json:"organizer,omitempty"`
}

type EventOwner struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Logo string `json:"logo,omitempty"`
}

type Facility struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon,omitempty"`
}

type Ticket struct {
	ID        int             `json:"id"`
	EventID   int             `json:"event_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	Limit     int             `json:"limit"`
	StartDate time.Time       `json:"start_date"`
	EndDate   time.Time       `json:"end_date"`
}

// MaxPerOrder is the hard client-side bound for one order:
// the smaller of the per-order limit and the remaining stock.
func (t Ticket) MaxPerOrder() int {
	if t.Limit < t.Stock {
		return t.Limit
	}
	return t.Stock
}

// OnSale reports whether the ticket can be sold at the given instant.
func (t Ticket) OnSale(now time.Time) bool {
	if t.Stock <= 0 {
		return false
	}
	return !now.Before(t.StartDate) && !now.After(t.EndDate)
}
