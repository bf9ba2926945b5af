package scenario

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"postgres-backup-verify/internal/command"
	"postgres-backup-verify/internal/errors"
	"postgres-backup-verify/internal/report"
)

// teardownTimeout bounds cleanup so an unresponsive daemon cannot hang the
// harness forever on the exit path
const teardownTimeout = 2 * time.Minute

// Runner executes scenarios sequentially against the singleton environment
// and aggregates their results. Teardown runs after every scenario on both
// the DONE and ABORT paths, and on interrupt.
type Runner struct {
	harness  *Harness
	reporter *report.Reporter
	guard    *errors.ShutdownGuard
}

// NewRunner creates a scenario runner
func NewRunner(harness *Harness, reporter *report.Reporter) *Runner {
	if reporter == nil {
		reporter = report.NewReporter(true)
	}
	return &Runner{
		harness:  harness,
		reporter: reporter,
		guard:    errors.NewShutdownGuard(),
	}
}

// RunAll runs every scenario in order. A scenario failure does not stop the
// remaining scenarios; an interrupt does. Returns the per-scenario results
// and whether the run was interrupted.
func (r *Runner) RunAll(parent context.Context, scenarios []Scenario) ([]report.ScenarioResult, bool) {
	ctx := r.guard.Start(parent)
	defer r.guard.Stop()

	// Belt and braces: if anything escapes the per-scenario teardown, the
	// guard still tears the environment down before the process exits.
	r.guard.RegisterCleanup(func() error {
		r.teardown()
		return nil
	})
	defer r.guard.Shutdown()

	results := make([]report.ScenarioResult, 0, len(scenarios))
	for _, scn := range scenarios {
		if r.guard.Interrupted() || ctx.Err() != nil {
			break
		}
		result := r.Run(ctx, scn)
		results = append(results, report.ScenarioResult{Name: scenarioTitle(scn), Passed: result.Passed})
	}

	return results, r.guard.Interrupted()
}

// Run executes a single scenario through its state machine. Each state's
// predicate must hold before advancing; any failure transitions directly to
// ABORT with the scenario recorded as failed. Environment teardown runs
// unconditionally afterwards.
func (r *Runner) Run(ctx context.Context, scn Scenario) (result Result) {
	r.reporter.Header("\n===== %s =====", scenarioTitle(scn))
	r.transition(scn.Name, StateInit)

	result = Result{Name: scn.Name}

	defer r.teardown()
	defer func() {
		if recovered := recover(); recovered != nil {
			r.harness.Logger.WithFields(map[string]interface{}{
				"scenario": scn.Name,
				"panic":    recovered,
			}).Error("Scenario panicked")
			r.transition(scn.Name, StateAbort)
			result.Passed = false
		}
	}()

	for _, step := range scn.Steps {
		if ctx.Err() != nil {
			r.abort(scn.Name, errors.New(errors.ErrorTypeInterruption, "scenario interrupted", ctx.Err()))
			return result
		}

		r.transition(scn.Name, step.State)
		if err := step.Run(ctx); err != nil {
			r.abort(scn.Name, classifyStepError(err))
			return result
		}
	}

	r.transition(scn.Name, StateDone)
	r.reporter.Pass("%s PASSED", scenarioTitle(scn))
	result.Passed = true
	return result
}

// classifyStepError maps a step error onto the harness taxonomy. The
// execution layer cannot name its own callers, so a failed external command
// surfaces here as *command.Error and is classified at this level.
func classifyStepError(err error) *errors.HarnessError {
	var herr *errors.HarnessError
	if stderrors.As(err, &herr) {
		return herr
	}

	var cmdErr *command.Error
	if stderrors.As(err, &cmdErr) {
		return errors.New(errors.ErrorTypeCommand, "external command failed", err).
			WithContext("command", strings.Join(cmdErr.Argv, " ")).
			WithContext("exit_code", cmdErr.ExitCode).
			WithContext("stderr", strings.TrimSpace(cmdErr.Stderr))
	}

	return errors.Classify(err)
}

// transition logs a state change
func (r *Runner) transition(name string, state State) {
	r.harness.Logger.LogScenarioTransition(name, string(state))
}

// abort records the failure reason and moves the machine to ABORT
func (r *Runner) abort(name string, herr *errors.HarnessError) {
	r.harness.Logger.WithFields(map[string]interface{}{
		"scenario": name,
		"type":     string(herr.Type),
		"context":  herr.Context,
	}).Error(herr.Error())
	r.transition(name, StateAbort)
	r.reporter.Fail("%s FAILED: %s", name, herr.Message)
}

// teardown stops the environment with a fresh context so cleanup still runs
// after an interrupt canceled the scenario context
func (r *Runner) teardown() {
	ctx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
	defer cancel()
	r.harness.Controller.Down(ctx)
}

// scenarioTitle renders the display name for a scenario
func scenarioTitle(scn Scenario) string {
	if scn.Description == "" {
		return scn.Name
	}
	return scn.Name + ": " + scn.Description
}
