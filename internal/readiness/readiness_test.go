package readiness

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postgres-backup-verify/internal/command"
	"postgres-backup-verify/internal/compose"
	"postgres-backup-verify/internal/logging"
)

// scriptedRunner returns the scripted exit codes in order, repeating the
// last one once the script is exhausted
type scriptedRunner struct {
	exitCodes []int
	calls     int
}

func (s *scriptedRunner) Execute(ctx context.Context, spec command.Spec) (command.Result, error) {
	idx := s.calls
	if idx >= len(s.exitCodes) {
		idx = len(s.exitCodes) - 1
	}
	s.calls++
	return command.Result{ExitCode: s.exitCodes[idx]}, nil
}

// newTestPoller builds a poller with a recording no-op sleep
func newTestPoller(runner command.Runner, maxAttempts int) (*Poller, *[]time.Duration) {
	controller := compose.NewController(runner, logging.NewNopLogger(), "docker-compose.test.yml")
	poller := NewPoller(controller, logging.NewNopLogger())
	poller.MaxAttempts = maxAttempts
	poller.Interval = 2 * time.Second

	var sleeps []time.Duration
	poller.Sleep = func(ctx context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return ctx.Err()
	}
	return poller, &sleeps
}

func TestPoller_Wait_ReadyImmediately(t *testing.T) {
	runner := &scriptedRunner{exitCodes: []int{0}}
	poller, sleeps := newTestPoller(runner, 30)

	ready := poller.Wait(context.Background(), "postgres")

	assert.True(t, ready)
	assert.Equal(t, 1, runner.calls, "should stop probing after the first success")
	assert.Empty(t, *sleeps, "no sleep before the first probe and none after success")
}

func TestPoller_Wait_ReadyAfterRetries(t *testing.T) {
	runner := &scriptedRunner{exitCodes: []int{1, 1, 0}}
	poller, sleeps := newTestPoller(runner, 30)

	ready := poller.Wait(context.Background(), "minio")

	assert.True(t, ready)
	assert.Equal(t, 3, runner.calls)
	assert.Len(t, *sleeps, 2, "one sleep per failed attempt")
	for _, d := range *sleeps {
		assert.Equal(t, 2*time.Second, d, "fixed interval, no backoff")
	}
}

func TestPoller_Wait_BudgetExhausted(t *testing.T) {
	runner := &scriptedRunner{exitCodes: []int{1}}
	poller, sleeps := newTestPoller(runner, 5)

	ready := poller.Wait(context.Background(), "backup")

	assert.False(t, ready, "exhaustion returns false, not an error")
	assert.Equal(t, 5, runner.calls, "probe count bounded by MaxAttempts")
	assert.Len(t, *sleeps, 5)
}

func TestPoller_Wait_CanceledContext(t *testing.T) {
	runner := &scriptedRunner{exitCodes: []int{1}}
	poller, _ := newTestPoller(runner, 30)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ready := poller.Wait(ctx, "postgres")

	assert.False(t, ready)
	assert.LessOrEqual(t, runner.calls, 1, "cancellation stops the loop promptly")
}

func TestNewPoller_Defaults(t *testing.T) {
	controller := compose.NewController(&scriptedRunner{exitCodes: []int{0}}, logging.NewNopLogger(), "f.yml")
	poller := NewPoller(controller, logging.NewNopLogger())

	require.Equal(t, DefaultMaxAttempts, poller.MaxAttempts)
	require.Equal(t, DefaultInterval, poller.Interval)
	require.NotNil(t, poller.Sleep)
}
