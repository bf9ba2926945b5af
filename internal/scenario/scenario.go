// Package scenario composes the harness components into ordered end-to-end
// scenarios and drives them through an explicit state machine.
package scenario

import (
	"context"
)

// State identifies a scenario's position in its lifecycle
type State string

const (
	// StateInit is the starting state
	StateInit State = "INIT"
	// StateEnvStarting brings the service set up
	StateEnvStarting State = "ENV_STARTING"
	// StateWaitingReady gates progress on service readiness
	StateWaitingReady State = "WAITING_READY"
	// StateFixtureSetup establishes data and bucket preconditions
	StateFixtureSetup State = "FIXTURE_SETUP"
	// StateOperationBackup runs the backup operation
	StateOperationBackup State = "OPERATION_BACKUP"
	// StatePostconditionCheck1 asserts post-backup state
	StatePostconditionCheck1 State = "POSTCONDITION_CHECK_1"
	// StateOperationRestore runs the restore operation
	StateOperationRestore State = "OPERATION_RESTORE"
	// StatePostconditionCheck2 asserts post-restore state
	StatePostconditionCheck2 State = "POSTCONDITION_CHECK_2"
	// StateDone is the terminal success state
	StateDone State = "DONE"
	// StateAbort is the terminal failure state, reachable from any state
	StateAbort State = "ABORT"
)

// Step binds a state to its success predicate. A nil error advances the
// machine; an error transitions directly to ABORT.
type Step struct {
	State State
	Run   func(ctx context.Context) error
}

// Scenario is an ordered sequence of steps run against a freshly started
// environment with the given env overrides (notably PASSPHRASE)
type Scenario struct {
	Name        string
	Description string
	Env         map[string]string
	Steps       []Step
}

// Result records a scenario's outcome. Never mutated after creation.
type Result struct {
	Name   string
	Passed bool
}
