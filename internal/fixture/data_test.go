package fixture

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postgres-backup-verify/internal/command"
	"postgres-backup-verify/internal/compose"
	"postgres-backup-verify/internal/logging"
)

// handlerRunner dispatches each execution to a handler func
type handlerRunner struct {
	specs  []command.Spec
	handle func(spec command.Spec) (command.Result, error)
}

func (h *handlerRunner) Execute(ctx context.Context, spec command.Spec) (command.Result, error) {
	h.specs = append(h.specs, spec)
	if h.handle == nil {
		return command.Result{}, nil
	}
	return h.handle(spec)
}

func newDataFixture(runner command.Runner) *DataFixture {
	controller := compose.NewController(runner, logging.NewNopLogger(), "docker-compose.test.yml")
	return NewDataFixture(controller, logging.NewNopLogger(), "postgres", "testuser", "testdb")
}

func TestNormalizeRows(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   []string
	}{
		{
			name:   "psql padded output",
			output: " test1  | 100\n test2  | 200\n test3  | 300\n\n",
			want:   []string{"test1|100", "test2|200", "test3|300"},
		},
		{
			name:   "blank lines are discarded",
			output: "\n\n test1 | 100 \n\n",
			want:   []string{"test1|100"},
		},
		{
			name:   "empty output",
			output: "",
			want:   nil,
		},
		{
			name:   "order is preserved",
			output: "b|2\na|1\n",
			want:   []string{"b|2", "a|1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeRows(tt.output))
		})
	}
}

func TestDataFixture_Create_SendsSeedSQLOverStdin(t *testing.T) {
	runner := &handlerRunner{}
	fixture := newDataFixture(runner)

	err := fixture.Create(context.Background())

	require.NoError(t, err)
	require.Len(t, runner.specs, 1)
	spec := runner.specs[0]
	assert.Contains(t, spec.Stdin, "CREATE TABLE IF NOT EXISTS test_table")
	assert.Contains(t, spec.Stdin, "('test3', 300)")
	assert.Contains(t, strings.Join(spec.Argv, " "), "exec -T postgres psql -U testuser -d testdb")
}

func TestDataFixture_Verify(t *testing.T) {
	tests := []struct {
		name   string
		stdout string
		want   bool
	}{
		{
			name:   "canonical rows match",
			stdout: " test1 | 100\n test2 | 200\n test3 | 300\n",
			want:   true,
		},
		{
			name:   "wrong value",
			stdout: " test1 | 100\n test2 | 999\n test3 | 300\n",
			want:   false,
		},
		{
			name:   "missing row",
			stdout: " test1 | 100\n test2 | 200\n",
			want:   false,
		},
		{
			name:   "wrong order",
			stdout: " test2 | 200\n test1 | 100\n test3 | 300\n",
			want:   false,
		},
		{
			name:   "empty result",
			stdout: "",
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &handlerRunner{handle: func(spec command.Spec) (command.Result, error) {
				return command.Result{Stdout: tt.stdout}, nil
			}}
			fixture := newDataFixture(runner)

			assert.Equal(t, tt.want, fixture.Verify(context.Background()))
		})
	}
}

func TestDataFixture_Verify_QueryFailureIsFalse(t *testing.T) {
	runner := &handlerRunner{handle: func(spec command.Spec) (command.Result, error) {
		return command.Result{ExitCode: 2}, &command.Error{Argv: spec.Argv, ExitCode: 2}
	}}
	fixture := newDataFixture(runner)

	assert.False(t, fixture.Verify(context.Background()))
}

func TestDataFixture_Exists(t *testing.T) {
	tests := []struct {
		name   string
		stdout string
		want   bool
	}{
		{name: "present", stdout: "     1\n", want: true},
		{name: "absent", stdout: "     0\n", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &handlerRunner{handle: func(spec command.Spec) (command.Result, error) {
				return command.Result{Stdout: tt.stdout}, nil
			}}
			fixture := newDataFixture(runner)

			exists, err := fixture.Exists(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, exists)
		})
	}
}

func TestDataFixture_Exists_UnparsableCount(t *testing.T) {
	runner := &handlerRunner{handle: func(spec command.Spec) (command.Result, error) {
		return command.Result{Stdout: "ERROR: whatever\n"}, nil
	}}
	fixture := newDataFixture(runner)

	_, err := fixture.Exists(context.Background())
	assert.Error(t, err)
}

func TestDataFixture_Drop(t *testing.T) {
	runner := &handlerRunner{}
	fixture := newDataFixture(runner)

	err := fixture.Drop(context.Background())

	require.NoError(t, err)
	assert.Contains(t, strings.Join(runner.specs[0].Argv, " "), "DROP TABLE test_table CASCADE;")
}

func TestExpectedRows_ReturnsCopy(t *testing.T) {
	rows := ExpectedRows()
	rows[0] = "mutated"
	assert.Equal(t, "test1|100", ExpectedRows()[0])
}
