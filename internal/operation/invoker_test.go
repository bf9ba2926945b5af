package operation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postgres-backup-verify/internal/command"
	"postgres-backup-verify/internal/compose"
	"postgres-backup-verify/internal/logging"
)

// recordingRunner captures specs and replays a scripted response for all of
// them
type recordingRunner struct {
	specs  []command.Spec
	result command.Result
	err    error
}

func (r *recordingRunner) Execute(ctx context.Context, spec command.Spec) (command.Result, error) {
	r.specs = append(r.specs, spec)
	return r.result, r.err
}

func newInvoker(runner command.Runner) *Invoker {
	controller := compose.NewController(runner, logging.NewNopLogger(), "docker-compose.test.yml")
	return NewInvoker(controller, logging.NewNopLogger(), "backup")
}

func TestInvoker_Backup(t *testing.T) {
	runner := &recordingRunner{}
	invoker := newInvoker(runner)

	env := map[string]string{"PASSPHRASE": "secret"}
	_, err := invoker.Backup(context.Background(), env)

	require.NoError(t, err)
	require.Len(t, runner.specs, 1)
	spec := runner.specs[0]
	assert.Equal(t, []string{
		"docker", "compose", "-f", "docker-compose.test.yml",
		"run", "-T", "backup", "sh", "backup.sh",
	}, spec.Argv)
	assert.Equal(t, env, spec.Env)
	assert.True(t, spec.MustSucceed)
}

func TestInvoker_Restore(t *testing.T) {
	runner := &recordingRunner{}
	invoker := newInvoker(runner)

	_, err := invoker.Restore(context.Background(), nil)

	require.NoError(t, err)
	require.Len(t, runner.specs, 1)
	assert.Equal(t, []string{
		"docker", "compose", "-f", "docker-compose.test.yml",
		"run", "-T", "backup", "sh", "restore.sh",
	}, runner.specs[0].Argv)
}

func TestInvoker_BackupFailurePropagates(t *testing.T) {
	runner := &recordingRunner{
		result: command.Result{ExitCode: 1, Stderr: "pg_dump: connection refused"},
		err:    &command.Error{Argv: []string{"sh", "backup.sh"}, ExitCode: 1},
	}
	invoker := newInvoker(runner)

	result, err := invoker.Backup(context.Background(), nil)

	require.Error(t, err)
	assert.Equal(t, 1, result.ExitCode)

	var cmdErr *command.Error
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, 1, cmdErr.ExitCode)
}
