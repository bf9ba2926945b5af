package operation

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"postgres-backup-verify/internal/compose"
	"postgres-backup-verify/internal/logging"
)

// HookTrigger identifies a hook's lifecycle point
type HookTrigger string

const (
	// TriggerPre fires before the operation starts
	TriggerPre HookTrigger = "pre"
	// TriggerPostSuccess fires after the operation succeeds
	TriggerPostSuccess HookTrigger = "post-success"
	// TriggerPostFailure fires after the operation fails
	TriggerPostFailure HookTrigger = "post-failure"
)

// Marker describes the artifact a hook command leaves behind when it fires
type Marker struct {
	Trigger HookTrigger
	Path    string
	Token   string
}

// HookSet holds the three hook commands injected into a single operation
// invocation, plus the markers those commands write. Marker paths are
// namespaced by a per-run ID so a rerun against a dirty container cannot
// see stale markers from an earlier run.
type HookSet struct {
	Prefix             string // "BACKUP" or "RESTORE"
	PreCommand         string
	PostSuccessCommand string
	PostFailureCommand string
	Markers            map[HookTrigger]Marker
}

// NewMarkerHookSet builds a hook set whose commands write recognizable
// tokens into marker files under /tmp inside the agent container
func NewMarkerHookSet(prefix string) *HookSet {
	runID := uuid.NewString()[:8]
	lower := strings.ToLower(prefix)

	markers := map[HookTrigger]Marker{
		TriggerPre: {
			Trigger: TriggerPre,
			Path:    fmt.Sprintf("/tmp/%s_pre_marker_%s", lower, runID),
			Token:   "PRE_" + prefix,
		},
		TriggerPostSuccess: {
			Trigger: TriggerPostSuccess,
			Path:    fmt.Sprintf("/tmp/%s_success_marker_%s", lower, runID),
			Token:   prefix + "_SUCCESS",
		},
		TriggerPostFailure: {
			Trigger: TriggerPostFailure,
			Path:    fmt.Sprintf("/tmp/%s_failure_marker_%s", lower, runID),
			Token:   prefix + "_FAILED",
		},
	}

	return &HookSet{
		Prefix:             prefix,
		PreCommand:         markerCommand(markers[TriggerPre]),
		PostSuccessCommand: markerCommand(markers[TriggerPostSuccess]),
		PostFailureCommand: markerCommand(markers[TriggerPostFailure]),
		Markers:            markers,
	}
}

// markerCommand builds the shell command a hook runs to leave its marker
func markerCommand(m Marker) string {
	return fmt.Sprintf("echo '%s' > %s", m.Token, m.Path)
}

// Env returns the environment overrides that propagate the hook commands to
// the operation entrypoint. Lifecycle is scoped to a single invocation.
func (hs *HookSet) Env() map[string]string {
	return map[string]string{
		hs.Prefix + "_PRE_COMMAND":          hs.PreCommand,
		hs.Prefix + "_POST_SUCCESS_COMMAND": hs.PostSuccessCommand,
		hs.Prefix + "_POST_FAILURE_COMMAND": hs.PostFailureCommand,
	}
}

// Stage converts the pre and post-success hooks into executable script
// files inside the agent container and points the hook commands at them.
// This exercises the script-path form of hook commands in addition to the
// inline form used by the failure hook.
func (hs *HookSet) Stage(ctx context.Context, controller *compose.Controller, service string) error {
	lower := strings.ToLower(hs.Prefix)
	preScript := fmt.Sprintf("/tmp/%s_pre_cmd.sh", lower)
	successScript := fmt.Sprintf("/tmp/%s_success_cmd.sh", lower)

	setup := fmt.Sprintf(`echo %q > %s
echo %q > %s
chmod +x %s %s
`, hs.PreCommand, preScript, hs.PostSuccessCommand, successScript, preScript, successScript)

	if _, err := controller.Exec(ctx, service, "", "sh", "-c", setup); err != nil {
		return err
	}

	hs.PreCommand = preScript
	hs.PostSuccessCommand = successScript
	return nil
}

// HookVerifier inspects marker artifacts left behind by hook commands
type HookVerifier struct {
	controller *compose.Controller
	logger     *logging.Logger
	service    string
}

// NewHookVerifier creates a verifier that reads markers from the given
// service's container
func NewHookVerifier(controller *compose.Controller, logger *logging.Logger, service string) *HookVerifier {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &HookVerifier{
		controller: controller,
		logger:     logger,
		service:    service,
	}
}

// CheckPresent reports whether the marker file exists and contains the
// expected token. Exit code and output are logged on failure so a transient
// read error is distinguishable from genuine non-invocation in the log,
// even though both score as "not present".
func (v *HookVerifier) CheckPresent(ctx context.Context, m Marker) bool {
	result, err := v.controller.Probe(ctx, v.service, "cat", m.Path)
	if err != nil {
		v.logger.WithFields(map[string]interface{}{
			"marker": m.Path,
			"error":  err.Error(),
		}).Error("Marker read failed")
		return false
	}

	present := result.ExitCode == 0 && strings.Contains(result.Stdout, m.Token)
	if !present {
		v.logger.WithFields(map[string]interface{}{
			"marker":    m.Path,
			"token":     m.Token,
			"exit_code": result.ExitCode,
			"stdout":    strings.TrimSpace(result.Stdout),
			"stderr":    strings.TrimSpace(result.Stderr),
		}).Error("Expected hook marker missing or wrong content")
	}
	return present
}

// CheckAbsent reports whether the marker file does not exist. A non-zero
// retrieval status is taken as absence, matching the agent's own contract
// for hooks that must not fire.
func (v *HookVerifier) CheckAbsent(ctx context.Context, m Marker) bool {
	result, err := v.controller.Probe(ctx, v.service, "cat", m.Path)
	if err != nil {
		// The probe itself could not run; report and fail the assertion
		// rather than mistake a broken probe for absence.
		v.logger.WithFields(map[string]interface{}{
			"marker": m.Path,
			"error":  err.Error(),
		}).Error("Marker absence probe failed")
		return false
	}

	absent := result.ExitCode != 0
	if !absent {
		v.logger.WithFields(map[string]interface{}{
			"marker":  m.Path,
			"content": strings.TrimSpace(result.Stdout),
		}).Error("Hook marker present but should not have fired")
	}
	return absent
}

// VerifySuccessPath checks the hook conjunction for a successful operation:
// pre fired, post-success fired, post-failure did not fire.
func (v *HookVerifier) VerifySuccessPath(ctx context.Context, hs *HookSet) bool {
	v.logger.Info("Verifying hooks were executed...")

	preFired := v.CheckPresent(ctx, hs.Markers[TriggerPre])
	successFired := v.CheckPresent(ctx, hs.Markers[TriggerPostSuccess])
	failureAbsent := v.CheckAbsent(ctx, hs.Markers[TriggerPostFailure])

	v.logger.WithFields(map[string]interface{}{
		"prefix":               hs.Prefix,
		"pre_fired":            preFired,
		"post_success_fired":   successFired,
		"post_failure_skipped": failureAbsent,
	}).Info("Hook verification result")

	return preFired && successFired && failureAbsent
}
