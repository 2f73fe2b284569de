package provider

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrCircuitOpen is returned when the breaker is rejecting calls because
// the upstream has been failing.
var ErrCircuitOpen = errors.New("circuit breaker open")

// BreakerState represents the state of the circuit breaker.
type BreakerState int

const (
	// BreakerClosed allows requests to pass through.
	BreakerClosed BreakerState = iota

	// BreakerOpen rejects requests immediately.
	BreakerOpen

	// BreakerHalfOpen allows a few test requests to check if the
	// upstream has recovered.
	BreakerHalfOpen
)

// String returns the string representation of the breaker state.
func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig holds configuration for the circuit breaker.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures before opening
	// the circuit.
	MaxFailures int

	// ResetTimeout is how long to wait before attempting a reset
	// (half-open state).
	ResetTimeout time.Duration

	// HalfOpenMaxCalls is the number of calls allowed in half-open state.
	HalfOpenMaxCalls int
}

// DefaultBreakerConfig returns the default circuit breaker configuration.
func DefaultBreakerConfig() *BreakerConfig {
	return &BreakerConfig{
		MaxFailures:      5,
		ResetTimeout:     30 * time.Second,
		HalfOpenMaxCalls: 3,
	}
}

// CircuitBreaker guards an upstream collaborator: after MaxFailures
// consecutive failures calls are rejected outright until ResetTimeout
// passes, then a handful of probes decide whether to close again.
type CircuitBreaker struct {
	mu              sync.Mutex
	state           BreakerState
	failureCount    int
	successCount    int // half-open state only
	lastFailureTime time.Time
	config          *BreakerConfig
	logger          zerolog.Logger
	name            string
}

// NewCircuitBreaker creates a breaker named after the upstream it guards.
func NewCircuitBreaker(name string, config *BreakerConfig) *CircuitBreaker {
	if config == nil {
		config = DefaultBreakerConfig()
	}
	return &CircuitBreaker{
		state:  BreakerClosed,
		config: config,
		logger: log.With().Str("component", "circuit_breaker").Str("upstream", name).Logger(),
		name:   name,
	}
}

// Allow reports whether a call should be attempted.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case BreakerClosed:
		return true

	case BreakerOpen:
		if time.Since(cb.lastFailureTime) >= cb.config.ResetTimeout {
			cb.state = BreakerHalfOpen
			cb.successCount = 0
			cb.logger.Info().Msg("Circuit breaker transitioning to half-open")
			return true
		}
		return false

	case BreakerHalfOpen:
		return cb.successCount < cb.config.HalfOpenMaxCalls

	default:
		return false
	}
}

// RecordSuccess records a successful call.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case BreakerClosed:
		cb.failureCount = 0

	case BreakerHalfOpen:
		cb.successCount++
		if cb.successCount >= cb.config.HalfOpenMaxCalls {
			cb.state = BreakerClosed
			cb.failureCount = 0
			cb.successCount = 0
			cb.logger.Info().Msg("Circuit breaker closing after successful recovery")
		}
	}
}

// RecordFailure records a failed call.
func (cb *CircuitBreaker) RecordFailure(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount++
	cb.lastFailureTime = time.Now()

	switch cb.state {
	case BreakerClosed:
		if cb.failureCount >= cb.config.MaxFailures {
			cb.state = BreakerOpen
			cb.logger.Warn().
				Err(err).
				Int("failure_count", cb.failureCount).
				Dur("reset_timeout", cb.config.ResetTimeout).
				Msg("Circuit breaker opening after max failures")
		}

	case BreakerHalfOpen:
		// Any failure in half-open immediately reopens the circuit.
		cb.state = BreakerOpen
		cb.successCount = 0
		cb.logger.Warn().Err(err).Msg("Circuit breaker re-opening after failure in half-open state")
	}
}

// State returns the current state of the circuit breaker.
func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Reset forces the breaker back to closed.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.state = BreakerClosed
	cb.failureCount = 0
	cb.successCount = 0
	cb.logger.Info().Msg("Circuit breaker manually reset to closed state")
}
