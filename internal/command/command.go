// Package command provides the execution boundary between the harness and
// the external world. Every interaction with the test environment (compose
// lifecycle, in-container SQL, bucket setup, backup/restore operations)
// goes through a Runner.
package command

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"postgres-backup-verify/internal/errors"
	"postgres-backup-verify/internal/logging"
)

// Result holds the outcome of a single command execution
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Spec describes a single command execution request
type Spec struct {
	// Argv is the command and its arguments; Argv[0] is resolved via PATH
	Argv []string
	// Stdin, when non-empty, is fed to the command's standard input
	Stdin string
	// Env is merged onto the ambient process environment; keys present in
	// both take the Spec value, absent keys inherit ambient values
	Env map[string]string
	// Capture buffers stdout/stderr into the Result instead of streaming
	// them to the harness's own stdout/stderr
	Capture bool
	// MustSucceed converts a non-zero exit into an *Error
	MustSucceed bool
}

// Error is returned when a command exits non-zero and the caller requested
// MustSucceed. It carries everything needed to report the failure.
type Error struct {
	Argv     []string
	ExitCode int
	Stdout   string
	Stderr   string
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("command %q exited with code %d", strings.Join(e.Argv, " "), e.ExitCode)
}

// Runner executes external commands
type Runner interface {
	Execute(ctx context.Context, spec Spec) (Result, error)
}

// ShellRunner runs commands as real subprocesses
type ShellRunner struct {
	logger *logging.Logger
}

// NewShellRunner creates a runner that executes real subprocesses
func NewShellRunner(logger *logging.Logger) *ShellRunner {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &ShellRunner{logger: logger}
}

// Execute runs the command described by spec. A non-zero exit is only an
// error when MustSucceed is set; otherwise the exit code is reported in the
// Result and the caller decides. Retries are never performed here.
func (r *ShellRunner) Execute(ctx context.Context, spec Spec) (Result, error) {
	if len(spec.Argv) == 0 {
		return Result{}, errors.New(errors.ErrorTypeUnknown, "empty command", nil)
	}

	cmd := exec.CommandContext(ctx, spec.Argv[0], spec.Argv[1:]...)
	cmd.Env = mergeEnv(os.Environ(), spec.Env)

	if spec.Stdin != "" {
		cmd.Stdin = strings.NewReader(spec.Stdin)
	}

	var stdout, stderr bytes.Buffer
	if spec.Capture {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	} else {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}

	start := time.Now()
	runErr := cmd.Run()
	duration := time.Since(start)

	result := Result{
		ExitCode: exitCode(cmd, runErr),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}

	r.logger.LogCommandExecution(spec.Argv, result.ExitCode, duration, runErr)

	if runErr != nil {
		// Context cancellation (interrupt) outranks the exit status.
		if ctx.Err() != nil {
			return result, errors.New(errors.ErrorTypeInterruption, "command interrupted", ctx.Err()).
				WithContext("command", strings.Join(spec.Argv, " "))
		}
		if _, isExit := runErr.(*exec.ExitError); !isExit {
			// The command never ran (binary missing, fork failure).
			return result, errors.New(errors.ErrorTypeUnknown, "command could not be started", runErr).
				WithContext("command", strings.Join(spec.Argv, " "))
		}
	}

	if spec.MustSucceed && result.ExitCode != 0 {
		return result, &Error{
			Argv:     spec.Argv,
			ExitCode: result.ExitCode,
			Stdout:   result.Stdout,
			Stderr:   result.Stderr,
		}
	}

	return result, nil
}

// mergeEnv overlays override entries onto a base KEY=VALUE environment.
// Base entries keep their position; overridden keys are replaced in place.
func mergeEnv(base []string, overrides map[string]string) []string {
	if len(overrides) == 0 {
		return base
	}

	merged := make([]string, 0, len(base)+len(overrides))
	seen := make(map[string]bool, len(overrides))

	for _, entry := range base {
		key := entry
		if idx := strings.IndexByte(entry, '='); idx >= 0 {
			key = entry[:idx]
		}
		if value, ok := overrides[key]; ok {
			merged = append(merged, key+"="+value)
			seen[key] = true
			continue
		}
		merged = append(merged, entry)
	}

	for key, value := range overrides {
		if !seen[key] {
			merged = append(merged, key+"="+value)
		}
	}

	return merged
}

// exitCode extracts the process exit code from a finished command
func exitCode(cmd *exec.Cmd, runErr error) int {
	if runErr == nil {
		return 0
	}
	if exitErr, ok := runErr.(*exec.ExitError); ok {
		return exitErr.ExitCode()
	}
	if cmd.ProcessState != nil {
		return cmd.ProcessState.ExitCode()
	}
	return -1
}
