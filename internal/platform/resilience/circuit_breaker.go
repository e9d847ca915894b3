// Package resilience guards outbound notification delivery. A webhook
// endpoint that keeps erroring trips the breaker so the engine stops
// burning retries on a dead dependency.
package resilience

import (
	"errors"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

type CircuitState string

const (
	CircuitStateClosed   CircuitState = "closed"
	CircuitStateOpen     CircuitState = "open"
	CircuitStateHalfOpen CircuitState = "half_open"
)

// CircuitBreaker trips after failureThreshold consecutive failures,
// stays open for openTimeout, then admits up to halfOpenMaxReq probe
// requests. All probes succeeding closes it again; a probe failing
// reopens it.
type CircuitBreaker struct {
	mu sync.Mutex

	failureThreshold int
	openTimeout      time.Duration
	halfOpenMaxReq   int

	state      CircuitState
	failStreak int
	trippedAt  time.Time
	probesBusy int
	probesOK   int
	now        func() time.Time
}

func NewCircuitBreaker(failureThreshold int, openTimeout time.Duration, halfOpenMaxReq int) *CircuitBreaker {
	if failureThreshold < 1 {
		failureThreshold = 1
	}
	if openTimeout <= 0 {
		openTimeout = 15 * time.Second
	}
	if halfOpenMaxReq < 1 {
		halfOpenMaxReq = 1
	}
	return &CircuitBreaker{
		failureThreshold: failureThreshold,
		openTimeout:      openTimeout,
		halfOpenMaxReq:   halfOpenMaxReq,
		state:            CircuitStateClosed,
		now:              time.Now,
	}
}

// Allow reports whether a request may proceed. Callers must follow up
// with RecordSuccess or RecordFailure when Allow returns nil.
func (b *CircuitBreaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == CircuitStateOpen {
		if b.now().Sub(b.trippedAt) < b.openTimeout {
			return ErrCircuitOpen
		}
		b.state = CircuitStateHalfOpen
		b.probesBusy = 0
		b.probesOK = 0
	}

	if b.state == CircuitStateHalfOpen {
		if b.probesBusy >= b.halfOpenMaxReq {
			return ErrCircuitOpen
		}
		b.probesBusy++
	}
	return nil
}

func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case CircuitStateClosed:
		b.failStreak = 0
	case CircuitStateHalfOpen:
		if b.probesBusy > 0 {
			b.probesBusy--
		}
		b.probesOK++
		if b.probesOK >= b.halfOpenMaxReq && b.probesBusy == 0 {
			b.state = CircuitStateClosed
			b.failStreak = 0
			b.probesOK = 0
			b.trippedAt = time.Time{}
		}
	}
}

func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case CircuitStateClosed:
		b.failStreak++
		if b.failStreak >= b.failureThreshold {
			b.trip()
		}
	case CircuitStateHalfOpen:
		if b.probesBusy > 0 {
			b.probesBusy--
		}
		b.trip()
	case CircuitStateOpen:
		// Late failure from a request admitted before the trip.
		b.trippedAt = b.now()
	}
}

func (b *CircuitBreaker) trip() {
	b.state = CircuitStateOpen
	b.trippedAt = b.now()
	b.probesBusy = 0
	b.probesOK = 0
}

// State returns the effective state, reporting half-open once the open
// timeout has elapsed even before the next Allow observes it.
func (b *CircuitBreaker) State() CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == CircuitStateOpen && b.now().Sub(b.trippedAt) >= b.openTimeout {
		return CircuitStateHalfOpen
	}
	return b.state
}
