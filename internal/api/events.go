package api

import (
	"context"
	"fmt"
	"net/http"

	"zatix-checkout/models"
)

// PublicEvent fetches a published event with its nested tickets and
// facilities. No authentication required.
func (c *Client) PublicEvent(ctx context.Context, id int) (*models.Event, error) {
	var event models.Event
	path := fmt.Sprintf("/events/public/%d", id)
	if err := c.do(ctx, http.MethodGet, path, nil, &event, withoutAuth()); err != nil {
		return nil, err
	}
	return &event, nil
}

// MyEvent fetches an organizer-owned event, including drafts.
func (c *Client) MyEvent(ctx context.Context, id int) (*models.Event, error) {
	var event models.Event
	path := fmt.Sprintf("/events/my/%d", id)
	if err := c.do(ctx, http.MethodGet, path, nil, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
