// Package retry reruns an operation with exponential backoff until it
// succeeds, fails permanently, or runs out of attempts.
package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
	"time"
)

type Config struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64

	// Retryable overrides IsTransient.
	Retryable func(error) bool
	// OnRetry runs before each wait with the failed attempt number.
	OnRetry func(attempt int, delay time.Duration, err error)
}

func DefaultConfig() *Config {
	return &Config{
		MaxAttempts: 5,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    10 * time.Second,
		Multiplier:  2.0,
	}
}

type ExponentialBackoff struct {
	config Config
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewExponentialBackoff fills zero fields of config from DefaultConfig.
func NewExponentialBackoff(config *Config) *ExponentialBackoff {
	defaults := DefaultConfig()
	cfg := *defaults
	if config != nil {
		cfg = *config
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaults.MaxAttempts
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = defaults.BaseDelay
	}
	if cfg.MaxDelay < cfg.BaseDelay {
		cfg.MaxDelay = cfg.BaseDelay
	}
	if cfg.Multiplier < 1 {
		cfg.Multiplier = defaults.Multiplier
	}
	if cfg.Retryable == nil {
		cfg.Retryable = IsTransient
	}

	return &ExponentialBackoff{config: cfg, sleep: sleepContext}
}

func (b *ExponentialBackoff) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 1; ; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err = fn(ctx); err == nil {
			return nil
		}
		if !b.config.Retryable(err) {
			return err
		}
		if attempt == b.config.MaxAttempts {
			return &MaxRetriesExceededError{LastError: err, MaxAttempts: attempt}
		}

		delay := b.delay(attempt)
		if b.config.OnRetry != nil {
			b.config.OnRetry(attempt, delay, err)
		}
		if sleepErr := b.sleep(ctx, delay); sleepErr != nil {
			return sleepErr
		}
	}
}

// delay is BaseDelay * Multiplier^(attempt-1), capped at MaxDelay.
func (b *ExponentialBackoff) delay(attempt int) time.Duration {
	d := b.config.BaseDelay
	for i := 1; i < attempt; i++ {
		d = time.Duration(float64(d) * b.config.Multiplier)
		if d >= b.config.MaxDelay {
			return b.config.MaxDelay
		}
	}
	return d
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

var transientMessages = []string{
	"connection refused",
	"connection reset",
	"timeout",
	"temporary failure",
	"the database system is starting up",
	"no such host",
}

// IsTransient reports whether err looks like a network or startup problem
// that may clear on its own.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, m := range transientMessages {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

type MaxRetriesExceededError struct {
	LastError   error
	MaxAttempts int
}

func (e *MaxRetriesExceededError) Error() string {
	return fmt.Sprintf("gave up after %d attempts: %v", e.MaxAttempts, e.LastError)
}

func (e *MaxRetriesExceededError) Unwrap() error {
	return e.LastError
}

func IsMaxRetriesExceeded(err error) bool {
	var target *MaxRetriesExceededError
	return errors.As(err, &target)
}
