package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

var ErrCircuitOpen = errors.New("circuit breaker is open")

type Config struct {
	// FailureThreshold is the number of consecutive failures that opens the circuit.
	FailureThreshold int
	// RecoveryTimeout is how long the circuit stays open before a trial call is let through.
	// Half-open admits one call at a time; others get ErrCircuitOpen until it returns.
	RecoveryTimeout time.Duration
	// SuccessThreshold is the number of half-open successes that close the circuit.
	SuccessThreshold int

	// IsFailure decides which errors count against the circuit. Nil counts every error.
	IsFailure func(error) bool
	// OnStateChange is called outside the lock after every transition.
	OnStateChange func(from, to State)
}

func DefaultConfig() *Config {
	return &Config{
		FailureThreshold: 5,
		RecoveryTimeout:  30 * time.Second,
		SuccessThreshold: 1,
	}
}

// Snapshot is a point-in-time view of the breaker.
type Snapshot struct {
	State       State
	Failures    int
	LastFailure time.Time
	RetryAt     time.Time
}

type Breaker struct {
	config Config
	now    func() time.Time

	mu          sync.Mutex
	state       State
	failures    int
	successes   int
	lastFailure time.Time
	retryAt     time.Time
	// trialInFlight is set while the single half-open call runs.
	trialInFlight bool
}

// New returns a closed breaker. A nil config, or zero thresholds, use DefaultConfig values.
func New(config *Config) *Breaker {
	defaults := DefaultConfig()
	cfg := *defaults
	if config != nil {
		cfg = *config
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = defaults.FailureThreshold
	}
	if cfg.RecoveryTimeout <= 0 {
		cfg.RecoveryTimeout = defaults.RecoveryTimeout
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = defaults.SuccessThreshold
	}

	return &Breaker{config: cfg, now: time.Now}
}

// Execute runs fn unless the circuit is open. fn runs without the lock held.
func (b *Breaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	from, to, trial, admitted := b.admit()
	if from != to {
		b.notify(from, to)
	}
	if !admitted {
		return ErrCircuitOpen
	}

	returned := false
	if trial {
		// A panicking trial must not hold the half-open slot forever.
		defer func() {
			if !returned {
				b.mu.Lock()
				b.trialInFlight = false
				b.mu.Unlock()
			}
		}()
	}

	err := fn(ctx)
	returned = true

	if from, to, changed := b.record(err, trial); changed {
		b.notify(from, to)
	}
	return err
}

// admit moves an expired open circuit to half-open and decides whether the
// call may run. trial marks the call that holds the half-open slot.
func (b *Breaker) admit() (from, to State, trial, admitted bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	from = b.state
	if b.state == Open && !b.now().Before(b.retryAt) {
		b.state = HalfOpen
		b.successes = 0
		b.trialInFlight = false
	}

	switch b.state {
	case Open:
		return from, b.state, false, false
	case HalfOpen:
		if b.trialInFlight {
			return from, b.state, false, false
		}
		b.trialInFlight = true
		return from, b.state, true, true
	}
	return from, b.state, false, true
}

func (b *Breaker) record(err error, trial bool) (from, to State, changed bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if trial {
		b.trialInFlight = false
	}

	from = b.state
	if err != nil && b.countsAsFailure(err) {
		b.failures++
		b.lastFailure = b.now()
		if b.state == HalfOpen || b.failures >= b.config.FailureThreshold {
			b.state = Open
			b.retryAt = b.lastFailure.Add(b.config.RecoveryTimeout)
		}
	} else {
		b.failures = 0
		if b.state == HalfOpen {
			b.successes++
			if b.successes >= b.config.SuccessThreshold {
				b.state = Closed
			}
		}
	}
	return from, b.state, from != b.state
}

func (b *Breaker) countsAsFailure(err error) bool {
	if b.config.IsFailure == nil {
		return true
	}
	return b.config.IsFailure(err)
}

func (b *Breaker) notify(from, to State) {
	if b.config.OnStateChange != nil {
		b.config.OnStateChange(from, to)
	}
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	return Snapshot{
		State:       b.state,
		Failures:    b.failures,
		LastFailure: b.lastFailure,
		RetryAt:     b.retryAt,
	}
}
