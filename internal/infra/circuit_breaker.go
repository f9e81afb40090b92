package infra

import (
	"log/slog"
	"sync"
	"time"
)

// BreakerState is the circuit breaker state.
type BreakerState int

const (
	BreakerClosed   BreakerState = iota // writes proceed
	BreakerOpen                         // writes rejected until cooldown passes
	BreakerHalfOpen                     // probing recovery
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "CLOSED"
	case BreakerOpen:
		return "OPEN"
	case BreakerHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// CircuitBreaker guards the event-store write path during live capture.
// When the store fails repeatedly (disk full, locked database) the breaker
// opens and the feed handler sheds frames instead of growing an unbounded
// in-memory batch. Thread-safe.
type CircuitBreaker struct {
	name string
	mu   sync.Mutex

	state       BreakerState
	failures    int
	probes      int
	lastFailure time.Time

	failureThreshold int
	probeThreshold   int
	cooldown         time.Duration
}

// NewCircuitBreaker creates a breaker with the given failure threshold and
// cooldown before a recovery probe is allowed.
func NewCircuitBreaker(name string, failureThreshold int, cooldown time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		name:             name,
		state:            BreakerClosed,
		failureThreshold: failureThreshold,
		probeThreshold:   2,
		cooldown:         cooldown,
	}
}

// Allow reports whether a write should be attempted.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case BreakerClosed, BreakerHalfOpen:
		return true
	case BreakerOpen:
		if time.Since(cb.lastFailure) > cb.cooldown {
			cb.state = BreakerHalfOpen
			cb.probes = 0
			slog.Info("circuit breaker half-open", slog.String("name", cb.name))
			return true
		}
		return false
	default:
		return false
	}
}

// Record feeds the outcome of an attempted write back into the breaker.
func (cb *CircuitBreaker) Record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err == nil {
		switch cb.state {
		case BreakerClosed:
			cb.failures = 0
		case BreakerHalfOpen:
			cb.probes++
			if cb.probes >= cb.probeThreshold {
				cb.state = BreakerClosed
				cb.failures = 0
				slog.Info("circuit breaker closed", slog.String("name", cb.name))
			}
		}
		return
	}

	cb.lastFailure = time.Now()
	switch cb.state {
	case BreakerClosed:
		cb.failures++
		if cb.failures >= cb.failureThreshold {
			cb.state = BreakerOpen
			slog.Warn("circuit breaker open",
				slog.String("name", cb.name),
				slog.Int("failures", cb.failures))
		}
	case BreakerHalfOpen:
		// A failed probe reopens immediately.
		cb.state = BreakerOpen
		slog.Warn("circuit breaker reopened", slog.String("name", cb.name))
	}
}

// State returns the current state for monitoring.
func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
