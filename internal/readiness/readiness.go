// Package readiness gates scenario progress on services actually answering
// inside their containers.
package readiness

import (
	"context"
	"time"

	"postgres-backup-verify/internal/compose"
	"postgres-backup-verify/internal/logging"
)

const (
	// DefaultMaxAttempts bounds the number of probes per service
	DefaultMaxAttempts = 30
	// DefaultInterval is the fixed wait between probes
	DefaultInterval = 2 * time.Second
)

// SleepFunc waits for the given duration or until the context is canceled.
// Injectable so the poll loop is testable without wall-clock delays.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Poller waits for services with a fixed-interval, bounded retry loop.
// There is no backoff: total wait never exceeds MaxAttempts * Interval.
type Poller struct {
	controller  *compose.Controller
	logger      *logging.Logger
	MaxAttempts int
	Interval    time.Duration
	Sleep       SleepFunc
}

// NewPoller creates a poller with the default retry budget
func NewPoller(controller *compose.Controller, logger *logging.Logger) *Poller {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Poller{
		controller:  controller,
		logger:      logger,
		MaxAttempts: DefaultMaxAttempts,
		Interval:    DefaultInterval,
		Sleep:       sleepWithContext,
	}
}

// Wait polls the service with a trivial command until it responds with exit
// code zero or the retry budget is exhausted. Every execution failure counts
// as "not yet ready" rather than an error; exhaustion returns false and the
// caller treats that as a scenario failure, not a crash.
func (p *Poller) Wait(ctx context.Context, service string) bool {
	p.logger.WithField("service", service).Infof("Waiting for %s to be ready...", service)

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		result, err := p.controller.Probe(ctx, service, "echo", "ready")
		ready := err == nil && result.ExitCode == 0
		p.logger.LogReadinessAttempt(service, attempt, p.MaxAttempts, ready)

		if ready {
			p.logger.Infof("%s is ready!", service)
			return true
		}
		if ctx.Err() != nil {
			return false
		}

		if err := p.Sleep(ctx, p.Interval); err != nil {
			return false
		}
	}

	p.logger.WithField("service", service).Errorf("%s failed to become ready", service)
	return false
}

// sleepWithContext blocks for d or until ctx is canceled
func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
