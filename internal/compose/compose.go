// Package compose controls the multi-service test environment through the
// docker compose CLI. The environment is a singleton per test run: callers
// must fully tear it down before starting it again with a different
// configuration.
package compose

import (
	"context"

	"postgres-backup-verify/internal/command"
	"postgres-backup-verify/internal/logging"
)

// Controller starts, stops, and addresses the compose environment
type Controller struct {
	runner command.Runner
	logger *logging.Logger
	file   string
}

// NewController creates a controller for the given compose file
func NewController(runner command.Runner, logger *logging.Logger, file string) *Controller {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Controller{
		runner: runner,
		logger: logger,
		file:   file,
	}
}

// composeArgs builds a docker compose command line against the controller's
// compose file
func (c *Controller) composeArgs(args ...string) []string {
	base := []string{"docker", "compose", "-f", c.file}
	return append(base, args...)
}

// Up brings the full service set into the running state. Environment
// overrides (notably PASSPHRASE) are scoped to this invocation rather than
// mutated process-wide.
func (c *Controller) Up(ctx context.Context, env map[string]string) error {
	c.logger.WithField("compose_file", c.file).Info("Starting services")

	_, err := c.runner.Execute(ctx, command.Spec{
		Argv:        c.composeArgs("up", "-d"),
		Env:         env,
		MustSucceed: true,
	})
	return err
}

// Down tears down all services and persisted volumes. It is safe to call on
// an already-stopped or partially-started environment: failures are logged
// and swallowed so the cleanup path never fails the caller.
func (c *Controller) Down(ctx context.Context) {
	c.logger.Info("Cleaning up environment")

	result, err := c.runner.Execute(ctx, command.Spec{
		Argv:    c.composeArgs("down", "--volumes"),
		Capture: true,
	})
	if err != nil {
		c.logger.WithField("error", err.Error()).Warn("Environment teardown reported an error")
		return
	}
	if result.ExitCode != 0 {
		c.logger.WithFields(map[string]interface{}{
			"exit_code": result.ExitCode,
			"stderr":    result.Stderr,
		}).Warn("Environment teardown exited non-zero")
	}
}

// Exec runs a command inside a running service and requires it to succeed.
// stdin, when non-empty, is fed to the command (psql reads SQL this way).
func (c *Controller) Exec(ctx context.Context, service, stdin string, argv ...string) (command.Result, error) {
	args := append(c.composeArgs("exec", "-T", service), argv...)
	return c.runner.Execute(ctx, command.Spec{
		Argv:        args,
		Stdin:       stdin,
		Capture:     true,
		MustSucceed: true,
	})
}

// Probe runs a command inside a running service and reports the exit code
// without treating non-zero as an error. Readiness checks and absence
// assertions are built on this.
func (c *Controller) Probe(ctx context.Context, service string, argv ...string) (command.Result, error) {
	args := append(c.composeArgs("exec", "-T", service), argv...)
	return c.runner.Execute(ctx, command.Spec{
		Argv:    args,
		Capture: true,
	})
}

// Run starts a one-off container for the service and runs the given command
// in it, forwarding env overrides. Non-zero exits propagate to the caller
// since operation success is itself a tested property.
func (c *Controller) Run(ctx context.Context, service string, env map[string]string, argv ...string) (command.Result, error) {
	args := append(c.composeArgs("run", "-T", service), argv...)
	return c.runner.Execute(ctx, command.Spec{
		Argv:        args,
		Env:         env,
		Capture:     true,
		MustSucceed: true,
	})
}
