package api

import (
	"context"
	"fmt"
	"net/http"

	"zatix-checkout/internal/cache"
	"zatix-checkout/models"
	"zatix-checkout/monitoring"
)

// SetHistoryCache installs a purchase-history cache. Pass nil to go
// back to direct lookups.
func (c *Client) SetHistoryCache(store cache.HistoryStore) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.historyCache = store
}

func (c *Client) historyStore() cache.HistoryStore {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.historyCache == nil {
		return cache.Noop{}
	}
	return c.historyCache
}

// CheckLimit asks the server whether one user may buy qty of one ticket.
func (c *Client) CheckLimit(ctx context.Context, userID, ticketID, qty int) (*models.LimitStatus, error) {
	body := map[string]int{
		"user_id":   userID,
		"ticket_id": ticketID,
		"quantity":  qty,
	}

	var status models.LimitStatus
	if err := c.do(ctx, http.MethodPost, "/tickets/limits/check", body, &status); err != nil {
		return nil, err
	}

	monitoring.TrackLimitCheck(status.IsValid)
	return &status, nil
}

// BulkCheckLimits validates every non-zero selection in one round trip.
// The result maps ticket IDs to the server's verdicts.
func (c *Client) BulkCheckLimits(ctx context.Context, userID int, items []models.LimitCheckItem) (map[int]models.LimitStatus, error) {
	body := struct {
		UserID int                     `json:"user_id"`
		Items  []models.LimitCheckItem `json:"items"`
	}{UserID: userID, Items: items}

	var reply struct {
		Results []models.LimitStatus `json:"results"`
	}
	if err := c.do(ctx, http.MethodPost, "/tickets/limits/bulk-check", body, &reply); err != nil {
		return nil, err
	}

	statuses := make(map[int]models.LimitStatus, len(reply.Results))
	for _, status := range reply.Results {
		monitoring.TrackLimitCheck(status.IsValid)
		statuses[status.TicketID] = status
	}
	return statuses, nil
}

// PurchaseHistory fetches the cumulative/daily purchase record for one
// user+ticket combination, consulting the cache first.
func (c *Client) PurchaseHistory(ctx context.Context, userID, ticketID int) (*models.PurchaseHistory, error) {
	store := c.historyStore()
	if history, ok := store.GetHistory(ctx, userID, ticketID); ok {
		return history, nil
	}

	var history models.PurchaseHistory
	path := fmt.Sprintf("/users/%d/tickets/%d/history", userID, ticketID)
	if err := c.do(ctx, http.MethodGet, path, nil, &history); err != nil {
		return nil, err
	}

	store.PutHistory(ctx, &history)
	return &history, nil
}
