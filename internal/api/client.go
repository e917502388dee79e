package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"zatix-checkout/internal/cache"
	"zatix-checkout/monitoring"
	"zatix-checkout/pkg/logger"
)

type ClientConfig struct {
	// BaseURL is the base url of the ZaTix backend.
	BaseURL string

	// Timeout applies to every outbound request.
	Timeout time.Duration

	// RefreshInterval is the cadence of the periodic token refresh.
	RefreshInterval time.Duration

	// ExpiryWarning is how long before token expiry the warning event fires.
	ExpiryWarning time.Duration

	Logger logger.Logger
}

type Client struct {
	// baseURL is the base url of the ZaTix backend.
	baseURL string

	// accessToken authenticates requests; refreshToken renews it.
	accessToken  string
	refreshToken string

	// mu guards both tokens.
	mu sync.Mutex

	// toggleTokenRefresher notifies the refresher to renew immediately.
	toggleTokenRefresher chan struct{}

	// events is the session event registry.
	events *sessionEvents

	// historyCache optionally fronts purchase-history lookups.
	historyCache cache.HistoryStore

	// breaker fails fast when the backend is misbehaving.
	breaker *circuitBreaker

	refreshInterval time.Duration
	expiryWarning   time.Duration

	log logger.Logger

	// hc is the http client.
	hc *http.Client
}

// NewClient creates a ZaTix API client. The session watcher is not
// started until StartSessionWatch.
func NewClient(cfg *ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	refreshInterval := cfg.RefreshInterval
	if refreshInterval == 0 {
		refreshInterval = 10 * time.Minute
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewNop()
	}

	return &Client{
		baseURL: cfg.BaseURL,

		// make a buffered channel to avoid blocking.
		toggleTokenRefresher: make(chan struct{}, 1),

		events:  newSessionEvents(),
		breaker: newCircuitBreaker("zatix-api"),

		refreshInterval: refreshInterval,
		expiryWarning:   cfg.ExpiryWarning,

		log: log,

		hc: &http.Client{
			Timeout: timeout,
		},
	}
}

// envelope is the uniform {success, message, data} response shape.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type requestOptions struct {
	headers map[string]string
	noAuth  bool
}

type requestOption func(*requestOptions)

func withHeader(key, value string) requestOption {
	return func(o *requestOptions) {
		if o.headers == nil {
			o.headers = map[string]string{}
		}
		o.headers[key] = value
	}
}

func withoutAuth() requestOption {
	return func(o *requestOptions) { o.noAuth = true }
}

// do performs one JSON request against the backend and decodes the data
// field of the envelope into out. A success=false envelope becomes *Error.
func (c *Client) do(ctx context.Context, method, path string, body, out any, opts ...requestOption) error {
	var options requestOptions
	for _, opt := range opts {
		opt(&options)
	}

	var bodyReader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("api: marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(raw)
	}

	base, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("api: parse base url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, base.String()+path, bodyReader)
	if err != nil {
		return fmt.Errorf("api: new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if !options.noAuth {
		if token := c.AccessToken(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	for k, v := range options.headers {
		req.Header.Set(k, v)
	}

	return c.roundTrip(req, path, out)
}

// roundTrip executes a prepared request through the breaker, instruments
// it, and decodes the envelope.
func (c *Client) roundTrip(req *http.Request, endpoint string, out any) error {
	start := time.Now()

	var resp *http.Response
	err := c.breaker.execute(func() error {
		var doErr error
		resp, doErr = c.hc.Do(req)
		return doErr
	})
	if err != nil {
		monitoring.TrackAPIRequest(endpoint, "network_error", time.Since(start))
		return fmt.Errorf("api: %s %s: %w", req.Method, endpoint, err)
	}
	defer resp.Body.Close()

	monitoring.TrackAPIRequest(endpoint, strconv.Itoa(resp.StatusCode), time.Since(start))

	// toggle token refresher if unauthorized
	if resp.StatusCode == http.StatusUnauthorized {
		select {
		case c.toggleTokenRefresher <- struct{}{}:
		default:
		}
		c.events.emit(SessionTokenExpired)
		return ErrUnauthorized
	}
	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}

	var reply envelope
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(&reply); err != nil {
		return fmt.Errorf("api: %s %s: decode: %w", req.Method, endpoint, err)
	}
	if !reply.Success {
		return &Error{StatusCode: resp.StatusCode, Message: reply.Message}
	}

	if out != nil && len(reply.Data) > 0 {
		if err := json.Unmarshal(reply.Data, out); err != nil {
			return fmt.Errorf("api: %s %s: decode data: %w", req.Method, endpoint, err)
		}
	}
	return nil
}
