package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/devnet-forge/internal/core/domain"
)

const (
	defaultReadinessAttempts = 10
	defaultReadinessDelay    = 250 * time.Millisecond
	maxReadinessDelay        = 5 * time.Second
)

type ReadinessOpts struct {
	Attempts int
	// Delay is the wait before the second check, doubled at every attempt
	// up to 5 seconds.
	Delay time.Duration
}

// HealthCheckFunc returns nil once the daemon is ready to serve requests.
type HealthCheckFunc func(ctx context.Context) error

// WaitReady polls check until it succeeds, with increasing delay between
// attempts. Once the attempts are exhausted it returns an error wrapping
// domain.ErrRpcUnavailable.
func WaitReady(ctx context.Context, check HealthCheckFunc, opts ReadinessOpts) error {
	if opts.Attempts <= 0 {
		opts.Attempts = defaultReadinessAttempts
	}
	if opts.Delay <= 0 {
		opts.Delay = defaultReadinessDelay
	}

	delay := opts.Delay
	var lastErr error
	for attempt := 1; attempt <= opts.Attempts; attempt++ {
		if lastErr = check(ctx); lastErr == nil {
			return nil
		}
		if errors.Is(lastErr, context.Canceled) ||
			errors.Is(lastErr, context.DeadlineExceeded) {
			return lastErr
		}
		if attempt == opts.Attempts {
			break
		}

		log.WithError(lastErr).WithField("attempt", attempt).Debug(
			"daemon not ready, retrying",
		)
		if err := sleep(ctx, delay); err != nil {
			return err
		}
		if delay *= 2; delay > maxReadinessDelay {
			delay = maxReadinessDelay
		}
	}

	if errors.Is(lastErr, domain.ErrRpcUnavailable) {
		return fmt.Errorf("daemon not ready after %d attempts: %w", opts.Attempts, lastErr)
	}
	return fmt.Errorf(
		"%w: daemon not ready after %d attempts: %s",
		domain.ErrRpcUnavailable, opts.Attempts, lastErr,
	)
}
