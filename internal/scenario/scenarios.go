package scenario

import (
	"context"

	"postgres-backup-verify/internal/errors"
	"postgres-backup-verify/internal/operation"
)

// RoundTrip builds the plain backup/restore round-trip scenario: seed,
// backup, drop, restore, verify. passphrase empty means encryption
// disabled; non-empty enables it in the agent. The dataset must round-trip
// identically either way.
func (h *Harness) RoundTrip(name, description, passphrase string) Scenario {
	env := map[string]string{"PASSPHRASE": passphrase}

	return Scenario{
		Name:        name,
		Description: description,
		Env:         env,
		Steps: []Step{
			h.stepEnvUp(env),
			h.stepWaitReady(),
			h.stepFixtureSetup(),
			{State: StateOperationBackup, Run: func(ctx context.Context) error {
				_, err := h.Invoker.Backup(ctx, nil)
				return err
			}},
			{State: StatePostconditionCheck1, Run: func(ctx context.Context) error {
				if err := h.assertArtifactStored(ctx); err != nil {
					return err
				}
				return h.dropAndAssertGone(ctx)
			}},
			{State: StateOperationRestore, Run: func(ctx context.Context) error {
				_, err := h.Invoker.Restore(ctx, nil)
				return err
			}},
			h.stepFinalVerify(),
		},
	}
}

// HookRun builds the hook verification scenario: backup and restore each
// run with injected pre/post-success/post-failure commands, and the marker
// conjunction (pre fired, success fired, failure absent) must hold for both
// operations independently, with a final data verification.
func (h *Harness) HookRun(name, description string) Scenario {
	env := map[string]string{"PASSPHRASE": ""}

	backupHooks := operation.NewMarkerHookSet("BACKUP")
	restoreHooks := operation.NewMarkerHookSet("RESTORE")

	return Scenario{
		Name:        name,
		Description: description,
		Env:         env,
		Steps: []Step{
			h.stepEnvUp(env),
			h.stepWaitReady(),
			h.stepFixtureSetup(),
			{State: StateOperationBackup, Run: func(ctx context.Context) error {
				// Exercise the script-path form for pre/success hooks.
				if err := backupHooks.Stage(ctx, h.Controller, h.Config.Services.BackupAgent); err != nil {
					return err
				}
				h.Logger.Info("Running backup with hooks...")
				_, err := h.Invoker.Backup(ctx, backupHooks.Env())
				return err
			}},
			{State: StatePostconditionCheck1, Run: func(ctx context.Context) error {
				if !h.Hooks.VerifySuccessPath(ctx, backupHooks) {
					return errors.New(errors.ErrorTypeAssertion, "backup hooks did not execute as expected", nil)
				}
				if err := h.assertArtifactStored(ctx); err != nil {
					return err
				}
				return h.dropAndAssertGone(ctx)
			}},
			{State: StateOperationRestore, Run: func(ctx context.Context) error {
				h.Logger.Info("Running restore with hooks...")
				_, err := h.Invoker.Restore(ctx, restoreHooks.Env())
				return err
			}},
			{State: StatePostconditionCheck2, Run: func(ctx context.Context) error {
				if !h.Hooks.VerifySuccessPath(ctx, restoreHooks) {
					return errors.New(errors.ErrorTypeAssertion, "restore hooks did not execute as expected", nil)
				}
				if !h.Data.Verify(ctx) {
					return errors.New(errors.ErrorTypeAssertion, "data not restored correctly", nil)
				}
				return nil
			}},
		},
	}
}

// DefaultScenarios returns the full registered scenario set in run order
func (h *Harness) DefaultScenarios() []Scenario {
	return []Scenario{
		h.RoundTrip("plain", "Backup and restore without passphrase", ""),
		h.RoundTrip("encrypted", "Backup and restore with passphrase", h.Config.Passphrase),
		h.HookRun("hooks", "Backup and restore hook command verification"),
	}
}
