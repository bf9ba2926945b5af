// Package fixture establishes and verifies the preconditions of a scenario:
// the canonical dataset inside PostgreSQL and the target bucket in the
// object store. Both are reached exclusively through the command boundary
// (psql and the aws CLI running inside their containers).
package fixture

import (
	"context"
	"strconv"
	"strings"

	"postgres-backup-verify/internal/compose"
	"postgres-backup-verify/internal/logging"
)

// Canonical dataset restored by every successful round trip. Comparison is
// order-sensitive and exact.
var expectedRows = []string{"test1|100", "test2|200", "test3|300"}

const createTableSQL = `
CREATE TABLE IF NOT EXISTS test_table (
    id SERIAL PRIMARY KEY,
    name VARCHAR(100),
    value INTEGER
);

INSERT INTO test_table (name, value) VALUES
    ('test1', 100),
    ('test2', 200),
    ('test3', 300);
`

// DataFixture creates, verifies, and removes the deterministic dataset in
// the database service
type DataFixture struct {
	controller *compose.Controller
	logger     *logging.Logger
	service    string
	user       string
	database   string
}

// NewDataFixture creates a data fixture bound to the database service
func NewDataFixture(controller *compose.Controller, logger *logging.Logger, service, user, database string) *DataFixture {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &DataFixture{
		controller: controller,
		logger:     logger,
		service:    service,
		user:       user,
		database:   database,
	}
}

// psqlArgs builds the psql invocation for the test database
func (f *DataFixture) psqlArgs(extra ...string) []string {
	args := []string{"psql", "-U", f.user, "-d", f.database}
	return append(args, extra...)
}

// Create idempotently creates test_table and inserts the canonical three
// rows. Safe to call when the table already exists from a prior run.
func (f *DataFixture) Create(ctx context.Context) error {
	f.logger.Info("Creating test data in PostgreSQL...")

	_, err := f.controller.Exec(ctx, f.service, createTableSQL, f.psqlArgs()...)
	if err != nil {
		return err
	}

	f.logger.Info("Test data created successfully")
	return nil
}

// Verify queries all rows ordered by id and compares the normalized output
// against the canonical dataset. Both expected and actual values are logged
// on mismatch. Any execution failure counts as a failed verification.
func (f *DataFixture) Verify(ctx context.Context) bool {
	f.logger.Info("Verifying test data...")

	result, err := f.controller.Exec(ctx, f.service, "",
		f.psqlArgs("-t", "-c", "SELECT name, value FROM test_table ORDER BY id;")...)
	if err != nil {
		f.logger.WithField("error", err.Error()).Error("Data verification query failed")
		return false
	}

	actual := NormalizeRows(result.Stdout)
	if rowsEqual(actual, expectedRows) {
		f.logger.Info("Data verification successful: all records match")
		return true
	}

	f.logger.WithFields(map[string]interface{}{
		"expected": expectedRows,
		"actual":   actual,
	}).Error("Data verification failed")
	return false
}

// Drop removes test_table and all dependent objects
func (f *DataFixture) Drop(ctx context.Context) error {
	f.logger.Info("Dropping test data...")

	_, err := f.controller.Exec(ctx, f.service, "",
		f.psqlArgs("-c", "DROP TABLE test_table CASCADE;")...)
	return err
}

// Exists reports whether test_table is currently present
func (f *DataFixture) Exists(ctx context.Context) (bool, error) {
	result, err := f.controller.Exec(ctx, f.service, "",
		f.psqlArgs("-t", "-c",
			"SELECT COUNT(*) FROM information_schema.tables WHERE table_name='test_table';")...)
	if err != nil {
		return false, err
	}

	count, err := strconv.Atoi(strings.TrimSpace(result.Stdout))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ExpectedRows returns a copy of the canonical dataset
func ExpectedRows() []string {
	rows := make([]string, len(expectedRows))
	copy(rows, expectedRows)
	return rows
}

// NormalizeRows strips surrounding whitespace from each line, removes all
// internal space characters, and discards blank lines, preserving order
func NormalizeRows(output string) []string {
	var rows []string
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		line = strings.ReplaceAll(strings.TrimSpace(line), " ", "")
		if line == "" {
			continue
		}
		rows = append(rows, line)
	}
	return rows
}

// rowsEqual compares two row sequences for exact, order-sensitive equality
func rowsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
