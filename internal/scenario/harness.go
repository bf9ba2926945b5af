package scenario

import (
	"context"

	"postgres-backup-verify/internal/command"
	"postgres-backup-verify/internal/compose"
	"postgres-backup-verify/internal/config"
	"postgres-backup-verify/internal/errors"
	"postgres-backup-verify/internal/fixture"
	"postgres-backup-verify/internal/logging"
	"postgres-backup-verify/internal/operation"
	"postgres-backup-verify/internal/readiness"
	"postgres-backup-verify/internal/storage"
)

// Harness bundles the components a scenario's steps operate on
type Harness struct {
	Config     config.Config
	Logger     *logging.Logger
	Controller *compose.Controller
	Poller     *readiness.Poller
	Data       *fixture.DataFixture
	Bucket     *fixture.BucketFixture
	Invoker    *operation.Invoker
	Hooks      *operation.HookVerifier
	Artifacts  *storage.ArtifactChecker
}

// NewHarness wires the full component set from the configuration
func NewHarness(cfg config.Config, logger *logging.Logger, runner command.Runner) (*Harness, error) {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	if runner == nil {
		runner = command.NewShellRunner(logger)
	}

	controller := compose.NewController(runner, logger, cfg.ComposeFile)

	poller := readiness.NewPoller(controller, logger)
	poller.MaxAttempts = cfg.Readiness.MaxAttempts
	poller.Interval = cfg.Readiness.Interval

	harness := &Harness{
		Config:     cfg,
		Logger:     logger,
		Controller: controller,
		Poller:     poller,
		Data:       fixture.NewDataFixture(controller, logger, cfg.Services.Database, cfg.Database.User, cfg.Database.Name),
		Bucket:     fixture.NewBucketFixture(controller, logger, cfg.Services.BackupAgent),
		Invoker:    operation.NewInvoker(controller, logger, cfg.Services.BackupAgent),
		Hooks:      operation.NewHookVerifier(controller, logger, cfg.Services.BackupAgent),
	}

	if cfg.VerifyArtifact {
		checker, err := storage.NewArtifactChecker(cfg.ObjectStore, logger)
		if err != nil {
			return nil, err
		}
		harness.Artifacts = checker
	}

	return harness, nil
}

// Shared step builders. Each returns the predicate for one state; the
// scenario constructors assemble them in order.

// stepEnvUp brings up the environment with the scenario's env overrides
func (h *Harness) stepEnvUp(env map[string]string) Step {
	return Step{State: StateEnvStarting, Run: func(ctx context.Context) error {
		return h.Controller.Up(ctx, env)
	}}
}

// stepWaitReady gates on all three services answering
func (h *Harness) stepWaitReady() Step {
	services := []string{
		h.Config.Services.Database,
		h.Config.Services.ObjectStore,
		h.Config.Services.BackupAgent,
	}
	return Step{State: StateWaitingReady, Run: func(ctx context.Context) error {
		for _, service := range services {
			if !h.Poller.Wait(ctx, service) {
				if ctx.Err() != nil {
					return errors.New(errors.ErrorTypeInterruption, "readiness wait interrupted", ctx.Err())
				}
				return errors.New(errors.ErrorTypeReadiness, "service failed to become ready", nil).
					WithContext("service", service)
			}
		}
		return nil
	}}
}

// stepFixtureSetup ensures the bucket, seeds the dataset, and verifies it
func (h *Harness) stepFixtureSetup() Step {
	return Step{State: StateFixtureSetup, Run: func(ctx context.Context) error {
		if err := h.Bucket.EnsureBucket(ctx); err != nil {
			return err
		}
		if err := h.Data.Create(ctx); err != nil {
			return err
		}
		if !h.Data.Verify(ctx) {
			return errors.New(errors.ErrorTypeAssertion, "seeded data does not match canonical dataset", nil)
		}
		return nil
	}}
}

// stepDropAndAssertGone drops the table and asserts it is really gone,
// proving the subsequent restore is doing the work
func (h *Harness) dropAndAssertGone(ctx context.Context) error {
	if err := h.Data.Drop(ctx); err != nil {
		return err
	}

	h.Logger.Info("Verifying data was dropped...")
	exists, err := h.Data.Exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return errors.New(errors.ErrorTypeAssertion, "table still exists after drop", nil)
	}
	h.Logger.Info("Data successfully dropped")
	return nil
}

// assertArtifactStored checks the bucket through the S3 API when enabled
func (h *Harness) assertArtifactStored(ctx context.Context) error {
	if h.Artifacts == nil {
		return nil
	}
	if !h.Artifacts.HasArtifacts(ctx) {
		return errors.New(errors.ErrorTypeAssertion, "backup reported success but no artifact found in bucket", nil)
	}
	return nil
}

// stepFinalVerify asserts the restored dataset equals the canonical one
func (h *Harness) stepFinalVerify() Step {
	return Step{State: StatePostconditionCheck2, Run: func(ctx context.Context) error {
		if !h.Data.Verify(ctx) {
			return errors.New(errors.ErrorTypeAssertion, "data not restored correctly", nil)
		}
		return nil
	}}
}
