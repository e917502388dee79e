package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionEvent is a cross-cutting auth signal. Listeners subscribe
// explicitly instead of relying on ambient global events.
type SessionEvent int

const (
	SessionTokenExpired SessionEvent = iota
	SessionAuthFailed
	SessionExpiryWarning
)

func (e SessionEvent) String() string {
	switch e {
	case SessionTokenExpired:
		return "token_expired"
	case SessionAuthFailed:
		return "auth_failed"
	case SessionExpiryWarning:
		return "expiry_warning"
	}
	return "unknown"
}

type sessionEvents struct {
	mu   sync.Mutex
	next int
	subs map[int]func(SessionEvent)
}

func newSessionEvents() *sessionEvents {
	return &sessionEvents{subs: make(map[int]func(SessionEvent))}
}

func (s *sessionEvents) subscribe(fn func(SessionEvent)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *sessionEvents) emit(event SessionEvent) {
	s.mu.Lock()
	fns := make([]func(SessionEvent), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(event)
	}
}

// OnSessionEvent registers a listener for session signals and returns
// its unsubscribe function.
func (c *Client) OnSessionEvent(fn func(SessionEvent)) (unsubscribe func()) {
	return c.events.subscribe(fn)
}

type loginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// Login authenticates and stores the session tokens.
func (c *Client) Login(ctx context.Context, email, password string) error {
	body := map[string]string{"email": email, "password": password}

	var reply loginResponse
	if err := c.do(ctx, http.MethodPost, "/login", body, &reply, withoutAuth()); err != nil {
		c.events.emit(SessionAuthFailed)
		return fmt.Errorf("login: %w", err)
	}

	c.setTokens(reply.AccessToken, reply.RefreshToken)
	return nil
}

// SetAccessToken installs an externally obtained token, e.g. for tests
// or pre-authenticated sessions.
func (c *Client) SetAccessToken(token string) {
	c.setTokens(token, "")
}

func (c *Client) setTokens(access, refresh string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = access
	if refresh != "" {
		c.refreshToken = refresh
	}
}

// AccessToken returns the current access token.
func (c *Client) AccessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken
}

// refresh exchanges the refresh token for a new access token.
func (c *Client) refresh(ctx context.Context) error {
	c.mu.Lock()
	refreshToken := c.refreshToken
	c.mu.Unlock()

	if refreshToken == "" {
		return fmt.Errorf("refresh: no refresh token")
	}

	body := map[string]string{"refresh_token": refreshToken}

	var reply loginResponse
	if err := c.do(ctx, http.MethodPost, "/refresh", body, &reply, withoutAuth()); err != nil {
		return fmt.Errorf("refresh: %w", err)
	}

	c.setTokens(reply.AccessToken, reply.RefreshToken)
	return nil
}

// StartSessionWatch runs the token refresher and the expiry-warning
// watcher until ctx is cancelled.
func (c *Client) StartSessionWatch(ctx context.Context) {
	go c.refreshLoop(ctx)
	go c.expiryWatch(ctx)
}

// refreshLoop renews the access token on a fixed cadence and whenever a
// 401 kicks the toggle channel, retrying with exponential backoff.
func (c *Client) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(c.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:

		case <-c.toggleTokenRefresher:
			c.log.Info("session: refresh requested after unauthorized response")
		}

		c.mu.Lock()
		hasRefresh := c.refreshToken != ""
		c.mu.Unlock()
		if !hasRefresh {
			// Nothing to renew with; the embedding program must re-login.
			c.events.emit(SessionAuthFailed)
			continue
		}

		backOff := time.Second

	Retry:
		for {
			err := c.refresh(ctx)
			switch err {
			case nil:
				break Retry

			default:
				c.log.Warn("session: token refresh failed", "error", err, "backoff", backOff)
				select {
				case <-ctx.Done():
					return

				case <-time.After(backOff):
					backOff *= 2
				}
			}
		}
	}
}

// expiryWatch inspects the access token's exp claim and emits the
// warning event a lead time before it lapses.
func (c *Client) expiryWatch(ctx context.Context) {
	if c.expiryWarning <= 0 {
		return
	}

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	var warnedFor string
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		token := c.AccessToken()
		if token == "" || token == warnedFor {
			continue
		}

		exp, err := tokenExpiry(token)
		if err != nil {
			continue
		}
		if time.Until(exp) <= c.expiryWarning {
			c.events.emit(SessionExpiryWarning)
			warnedFor = token
		}
	}
}

// tokenExpiry extracts the exp claim without verifying the signature;
// verification is the server's job.
func tokenExpiry(token string) (time.Time, error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, err
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, fmt.Errorf("token has no exp claim")
	}
	return exp.Time, nil
}
