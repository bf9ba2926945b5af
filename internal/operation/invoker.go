// Package operation triggers the opaque backup and restore entrypoints and
// verifies their lifecycle hooks. The scripts' internals (dump, encrypt,
// upload) are black boxes; only exit codes, output, and the marker files
// left by hook commands are observed.
package operation

import (
	"context"

	"postgres-backup-verify/internal/command"
	"postgres-backup-verify/internal/compose"
	"postgres-backup-verify/internal/logging"
)

// Invoker triggers backup and restore runs in the backup-agent service
type Invoker struct {
	controller *compose.Controller
	logger     *logging.Logger
	service    string
}

// NewInvoker creates an invoker bound to the backup-agent service
func NewInvoker(controller *compose.Controller, logger *logging.Logger, service string) *Invoker {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Invoker{
		controller: controller,
		logger:     logger,
		service:    service,
	}
}

// Backup runs the backup script once, forwarding env overrides (hook
// commands, encryption state). Non-zero exits propagate to the caller.
func (i *Invoker) Backup(ctx context.Context, env map[string]string) (command.Result, error) {
	i.logger.Info("Running backup...")

	result, err := i.controller.Run(ctx, i.service, env, "sh", "backup.sh")
	if err != nil {
		return result, err
	}

	i.logger.Info("Backup completed")
	return result, nil
}

// Restore runs the restore script once, forwarding env overrides. Non-zero
// exits propagate to the caller.
func (i *Invoker) Restore(ctx context.Context, env map[string]string) (command.Result, error) {
	i.logger.Info("Running restore...")

	result, err := i.controller.Run(ctx, i.service, env, "sh", "restore.sh")
	if err != nil {
		return result, err
	}

	i.logger.Info("Restore completed")
	return result, nil
}
