package api

import (
	"errors"
	"sync"
	"time"
)

var errBreakerOpen = errors.New("api: circuit breaker is open")

type breakerState int

const (
	breakerClosed breakerState = iota
	breakerHalfOpen
	breakerOpen
)

type breakerCounts struct {
	requests             uint32
	totalFailures        uint32
	consecutiveSuccesses uint32
	consecutiveFailures  uint32
}

// circuitBreaker fails fast when the backend keeps erroring, so a dead
// API does not hang every checkout stage behind full timeouts.
type circuitBreaker struct {
	name         string
	maxRequests  uint32
	interval     time.Duration
	timeout      time.Duration
	failureRatio float64

	mutex  sync.Mutex
	state  breakerState
	counts breakerCounts
	expiry time.Time
}

func newCircuitBreaker(name string) *circuitBreaker {
	return &circuitBreaker{
		name:         name,
		maxRequests:  20,
		interval:     60 * time.Second,
		timeout:      30 * time.Second,
		failureRatio: 0.6,
		state:        breakerClosed,
	}
}

func (cb *circuitBreaker) execute(req func() error) error {
	if err := cb.beforeRequest(); err != nil {
		return err
	}

	err := req()
	cb.afterRequest(err == nil)
	return err
}

func (cb *circuitBreaker) beforeRequest() error {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	state := cb.currentState(time.Now())

	if state == breakerOpen {
		return errBreakerOpen
	}
	if state == breakerHalfOpen && cb.counts.requests >= cb.maxRequests {
		return errBreakerOpen
	}

	cb.counts.requests++
	return nil
}

func (cb *circuitBreaker) afterRequest(success bool) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	state := cb.currentState(time.Now())
	if success {
		cb.onSuccess(state)
	} else {
		cb.onFailure(state)
	}
}

func (cb *circuitBreaker) onSuccess(state breakerState) {
	cb.counts.consecutiveSuccesses++
	cb.counts.consecutiveFailures = 0

	if state == breakerHalfOpen {
		cb.state = breakerClosed
		cb.resetCounts(time.Now())
	}
}

func (cb *circuitBreaker) onFailure(state breakerState) {
	cb.counts.totalFailures++
	cb.counts.consecutiveFailures++
	cb.counts.consecutiveSuccesses = 0

	if state == breakerHalfOpen || cb.readyToTrip() {
		cb.state = breakerOpen
		cb.expiry = time.Now().Add(cb.timeout)
	}
}

func (cb *circuitBreaker) readyToTrip() bool {
	return cb.counts.requests >= cb.maxRequests &&
		float64(cb.counts.totalFailures)/float64(cb.counts.requests) >= cb.failureRatio
}

func (cb *circuitBreaker) currentState(now time.Time) breakerState {
	switch cb.state {
	case breakerClosed:
		if !cb.expiry.IsZero() && cb.expiry.Before(now) {
			cb.resetCounts(now)
		}
	case breakerOpen:
		if cb.expiry.Before(now) {
			cb.state = breakerHalfOpen
			cb.resetCounts(now)
		}
	}
	return cb.state
}

func (cb *circuitBreaker) resetCounts(now time.Time) {
	cb.counts = breakerCounts{}

	switch cb.state {
	case breakerClosed:
		cb.expiry = now.Add(cb.interval)
	default:
		cb.expiry = time.Time{}
	}
}
