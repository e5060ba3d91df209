package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned when a guarded operation is rejected without
// being attempted because the breaker is suppressing calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State represents the circuit breaker state
type State int

const (
	StateClosed State = iota
	StateOpen
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Settings configures the circuit breaker behavior
type Settings struct {
	// MaxFailures is the number of consecutive failures that trips the breaker
	MaxFailures int
	// Cooldown is how long the breaker suppresses calls once tripped
	Cooldown time.Duration
	// OnStateChange is called whenever the state changes
	OnStateChange func(name string, from State, to State)
}

// Breaker implements a two-state circuit breaker. Once MaxFailures
// consecutive failures are recorded it rejects all calls for Cooldown;
// the transition back to closed happens lazily on the next IsOpen check.
type Breaker struct {
	name     string
	settings Settings

	mu           sync.Mutex
	failureCount int
	openUntil    time.Time // zero while closed
	now          func() time.Time
}

// NewBreaker creates a circuit breaker with the given settings
func NewBreaker(name string, settings Settings) *Breaker {
	if settings.MaxFailures <= 0 {
		settings.MaxFailures = 5
	}
	if settings.Cooldown <= 0 {
		settings.Cooldown = 5 * time.Minute
	}

	return &Breaker{
		name:     name,
		settings: settings,
		now:      time.Now,
	}
}

// Name returns the name of the circuit breaker
func (b *Breaker) Name() string {
	return b.name
}

// IsOpen reports whether the breaker is currently suppressing calls.
// Callers must check it before attempting a guarded operation and skip
// the operation entirely when it returns true. When the cooldown has
// elapsed the check itself performs the open->closed transition.
func (b *Breaker) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.openUntil.IsZero() {
		return false
	}
	if b.now().Before(b.openUntil) {
		return true
	}

	// Cooldown elapsed: heal and allow calls again.
	b.openUntil = time.Time{}
	b.failureCount = 0
	b.notify(StateOpen, StateClosed)
	return false
}

// State returns the current state without mutating it.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.openUntil.IsZero() && b.now().Before(b.openUntil) {
		return StateOpen
	}
	return StateClosed
}

// FailureCount returns the current consecutive failure count.
func (b *Breaker) FailureCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failureCount
}

// RecordSuccess resets the failure count and closes the breaker
// regardless of its current state.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	wasOpen := !b.openUntil.IsZero()
	b.failureCount = 0
	b.openUntil = time.Time{}
	if wasOpen {
		b.notify(StateOpen, StateClosed)
	}
}

// RecordFailure increments the failure count and trips the breaker when
// the threshold is reached. Returns true if the breaker is open after
// this report. Failures reported while already open do not extend the
// cooldown window, so the expiry stays predictable from the trip point.
func (b *Breaker) RecordFailure() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.openUntil.IsZero() {
		return true
	}

	b.failureCount++
	if b.failureCount >= b.settings.MaxFailures {
		b.openUntil = b.now().Add(b.settings.Cooldown)
		b.notify(StateClosed, StateOpen)
		return true
	}
	return false
}

// notify must be called with the mutex held.
func (b *Breaker) notify(from, to State) {
	if b.settings.OnStateChange != nil {
		b.settings.OnStateChange(b.name, from, to)
	}
}
