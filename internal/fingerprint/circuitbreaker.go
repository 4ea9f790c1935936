package fingerprint

import (
	"errors"
	"sync"
	"time"

	"github.com/lanscope/lanscope/internal/metrics"
)

// CircuitState is one of the three states of a CircuitBreaker.
type CircuitState string

const (
	CircuitClosed   CircuitState = "closed"
	CircuitOpen     CircuitState = "open"
	CircuitHalfOpen CircuitState = "halfOpen"
)

// ErrCircuitOpen is returned by Execute when the breaker is not accepting calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreaker wraps the remote fingerprint API (§4.15): after
// failureThreshold consecutive failures it stops dispatching calls for
// resetTimeout, then probes with up to halfOpenMaxAttempts before closing.
type CircuitBreaker struct {
	failureThreshold    int
	resetTimeout        time.Duration
	halfOpenMaxAttempts int

	mu               sync.Mutex
	state            CircuitState
	failureCount     int
	halfOpenAttempts int
	halfOpenSuccess  int
	lastFailureTime  time.Time
	now              func() time.Time
}

// NewCircuitBreaker builds a breaker with the §4.15 defaults if any
// parameter is zero.
func NewCircuitBreaker(failureThreshold int, resetTimeout time.Duration, halfOpenMaxAttempts int) *CircuitBreaker {
	if failureThreshold <= 0 {
		failureThreshold = 5
	}
	if resetTimeout <= 0 {
		resetTimeout = 60 * time.Second
	}
	if halfOpenMaxAttempts <= 0 {
		halfOpenMaxAttempts = 3
	}
	return &CircuitBreaker{
		failureThreshold:    failureThreshold,
		resetTimeout:        resetTimeout,
		halfOpenMaxAttempts: halfOpenMaxAttempts,
		state:               CircuitClosed,
		now:                 time.Now,
	}
}

// stateGaugeValue maps a CircuitState to the lanscope_fingerbank_circuit_breaker_state values.
func stateGaugeValue(state CircuitState) float64 {
	switch state {
	case CircuitHalfOpen:
		return 1
	case CircuitOpen:
		return 2
	default:
		return 0
	}
}

// State returns the breaker's current state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// CanExecute reports whether a call is currently allowed, transitioning
// Open→HalfOpen if resetTimeout has elapsed.
func (cb *CircuitBreaker) CanExecute() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.canExecuteLocked()
}

func (cb *CircuitBreaker) canExecuteLocked() bool {
	switch cb.state {
	case CircuitClosed:
		return true
	case CircuitOpen:
		if cb.now().Sub(cb.lastFailureTime) >= cb.resetTimeout {
			cb.state = CircuitHalfOpen
			cb.halfOpenAttempts = 0
			cb.halfOpenSuccess = 0
			metrics.CircuitBreakerState.Set(stateGaugeValue(cb.state))
			return true
		}
		return false
	case CircuitHalfOpen:
		return cb.halfOpenAttempts < cb.halfOpenMaxAttempts
	default:
		return false
	}
}

// Execute runs op if the breaker allows it, recording the outcome.
func (cb *CircuitBreaker) Execute(op func() error) error {
	if !cb.CanExecute() {
		return ErrCircuitOpen
	}
	err := op()
	cb.recordOutcome(err)
	return err
}

func (cb *CircuitBreaker) recordOutcome(err error) {
	cb.mu.Lock()
	defer func() {
		metrics.CircuitBreakerState.Set(stateGaugeValue(cb.state))
		cb.mu.Unlock()
	}()

	if cb.state == CircuitHalfOpen {
		cb.halfOpenAttempts++
		if err != nil {
			cb.state = CircuitOpen
			cb.lastFailureTime = cb.now()
			cb.failureCount = cb.failureThreshold
			return
		}
		cb.halfOpenSuccess++
		if cb.halfOpenSuccess >= cb.halfOpenMaxAttempts {
			cb.state = CircuitClosed
			cb.failureCount = 0
			cb.halfOpenAttempts = 0
			cb.halfOpenSuccess = 0
		}
		return
	}

	if err != nil {
		cb.failureCount++
		cb.lastFailureTime = cb.now()
		if cb.failureCount >= cb.failureThreshold {
			cb.state = CircuitOpen
		}
		return
	}
	cb.failureCount = 0
}
