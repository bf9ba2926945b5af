package fixture

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postgres-backup-verify/internal/command"
	"postgres-backup-verify/internal/compose"
	"postgres-backup-verify/internal/logging"
)

func newBucketFixture(runner command.Runner) *BucketFixture {
	controller := compose.NewController(runner, logging.NewNopLogger(), "docker-compose.test.yml")
	return NewBucketFixture(controller, logging.NewNopLogger(), "backup")
}

func TestBucketFixture_EnsureBucket(t *testing.T) {
	runner := &handlerRunner{handle: func(spec command.Spec) (command.Result, error) {
		return command.Result{Stdout: "make_bucket: backups\nBucket verified\n"}, nil
	}}
	fixture := newBucketFixture(runner)

	err := fixture.EnsureBucket(context.Background())

	require.NoError(t, err)
	require.Len(t, runner.specs, 1)
	spec := runner.specs[0]
	assert.Equal(t, []string{"docker", "compose", "-f", "docker-compose.test.yml", "run", "-T", "backup"}, spec.Argv[:7])
	assert.Equal(t, "sh", spec.Argv[7])
	assert.Equal(t, "-c", spec.Argv[8])
	assert.Contains(t, spec.Argv[9], "s3 mb")
	assert.Contains(t, spec.Argv[9], "Bucket may already exist")
}

func TestBucketFixture_EnsureBucket_ExistingBucketIsNotAnError(t *testing.T) {
	runner := &handlerRunner{handle: func(spec command.Spec) (command.Result, error) {
		return command.Result{Stdout: "Bucket may already exist\nBucket verified\n"}, nil
	}}
	fixture := newBucketFixture(runner)

	assert.NoError(t, fixture.EnsureBucket(context.Background()))
}

func TestBucketFixture_EnsureBucket_VerificationFailureIsTolerated(t *testing.T) {
	runner := &handlerRunner{handle: func(spec command.Spec) (command.Result, error) {
		return command.Result{Stdout: "Bucket verification failed\n"}, nil
	}}
	fixture := newBucketFixture(runner)

	assert.NoError(t, fixture.EnsureBucket(context.Background()))
}

func TestBucketFixture_EnsureBucket_RunFailurePropagates(t *testing.T) {
	runner := &handlerRunner{handle: func(spec command.Spec) (command.Result, error) {
		return command.Result{ExitCode: 125}, &command.Error{Argv: spec.Argv, ExitCode: 125}
	}}
	fixture := newBucketFixture(runner)

	assert.Error(t, fixture.EnsureBucket(context.Background()))
}
