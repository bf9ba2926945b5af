package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"postgres-backup-verify/internal/config"
	"postgres-backup-verify/internal/logging"
	"postgres-backup-verify/internal/report"
	"postgres-backup-verify/internal/scenario"
)

const (
	exitAllPassed   = 0
	exitFailed      = 1
	exitInterrupted = 130
)

// runScenarios is the main execution function for the CLI
func runScenarios(cmd *cobra.Command, args []string) error {
	if verbose && quiet {
		return fmt.Errorf("--verbose and --quiet flags are mutually exclusive")
	}

	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	harness, err := scenario.NewHarness(cfg, logger, nil)
	if err != nil {
		return fmt.Errorf("failed to initialize harness: %w", err)
	}

	scenarios, err := selectScenarios(harness, scenarioNames)
	if err != nil {
		return err
	}

	reporter := report.NewReporter(cfg.NoColor)
	reporter.Header("===== Starting PostgreSQL Backup/Restore Verification =====")

	runner := scenario.NewRunner(harness, reporter)
	results, interrupted := runner.RunAll(context.Background(), scenarios)

	exitCode = resolveExitCode(reporter, results, len(scenarios), interrupted)
	return nil
}

// resolveExitCode folds the aggregated scenario outcome into the process
// exit code: 0 all passed, 1 any failure or an incomplete run, 130 interrupt
func resolveExitCode(reporter *report.Reporter, results []report.ScenarioResult, scenarioCount int, interrupted bool) int {
	if interrupted {
		reporter.Warn("\nRun interrupted")
		return exitInterrupted
	}
	if reporter.Summary(results) && len(results) == scenarioCount {
		return exitAllPassed
	}
	return exitFailed
}

// newLogger builds the harness logger from the configuration
func newLogger(cfg config.Config) (*logging.Logger, error) {
	level := logging.LogLevelNormal
	if cfg.Quiet {
		level = logging.LogLevelQuiet
	}
	if cfg.Verbose {
		level = logging.LogLevelVerbose
	}

	logger, err := logging.NewLogger(logging.Config{
		Level:   level,
		Format:  cfg.LogFormat,
		LogFile: cfg.LogFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}

// selectScenarios filters the registered scenarios by name, keeping
// registration order. An unknown name is an error rather than a silent
// no-op run.
func selectScenarios(harness *scenario.Harness, names []string) ([]scenario.Scenario, error) {
	registered := harness.DefaultScenarios()
	if len(names) == 0 {
		return registered, nil
	}

	byName := make(map[string]bool, len(names))
	for _, name := range names {
		byName[name] = true
	}

	var selected []scenario.Scenario
	for _, scn := range registered {
		if byName[scn.Name] {
			selected = append(selected, scn)
			delete(byName, scn.Name)
		}
	}

	if len(byName) > 0 {
		unknown := make([]string, 0, len(byName))
		for name := range byName {
			unknown = append(unknown, name)
		}
		return nil, fmt.Errorf("unknown scenarios: %s (known: %s)",
			strings.Join(unknown, ", "), strings.Join(scenarioList(registered), ", "))
	}
	return selected, nil
}

// scenarioList returns the names of the given scenarios
func scenarioList(scenarios []scenario.Scenario) []string {
	names := make([]string, len(scenarios))
	for i, scn := range scenarios {
		names[i] = scn.Name
	}
	return names
}

// createListCommand creates the list subcommand
func createListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the registered scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			cfg.VerifyArtifact = false // no S3 client needed to list

			harness, err := scenario.NewHarness(cfg, logging.NewNopLogger(), nil)
			if err != nil {
				return err
			}
			for _, scn := range harness.DefaultScenarios() {
				fmt.Printf("%-12s %s\n", scn.Name, scn.Description)
			}
			return nil
		},
	}
}
