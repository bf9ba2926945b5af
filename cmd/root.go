package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"postgres-backup-verify/internal/config"
)

var cfgFile string

// CLI flag variables
var (
	composeFile       string
	scenarioNames     []string
	passphrase        string
	maxAttempts       int
	interval          time.Duration
	verbose           bool
	quiet             bool
	noColor           bool
	logFile           string
	logFormat         string
	skipArtifactCheck bool
)

// exitCode is the process exit status computed by the run: 0 all scenarios
// passed, 1 any failure or unexpected error, 130 interrupted
var exitCode int

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "postgres-backup-verify",
	Short: "End-to-end verification for the postgres-backup-s3 agent",
	Long: `postgres-backup-verify drives a docker compose environment holding
PostgreSQL, MinIO, and the backup agent through full backup/restore round
trips and verifies the results from outside: data integrity after restore,
encryption on/off, stored artifacts, and lifecycle hook execution.

Examples:
  # Run every scenario against the default compose file
  postgres-backup-verify

  # Run a single scenario with verbose logging
  postgres-backup-verify --scenario hooks -v

  # Use a custom compose file and skip the direct S3 artifact check
  postgres-backup-verify --compose-file compose.ci.yml --skip-artifact-check

  # Use a configuration file
  postgres-backup-verify --config verify.yaml`,
	RunE: runScenarios,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main() and converts the aggregated
// scenario outcome into the process exit code.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
	os.Exit(exitCode)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.postgres-backup-verify.yaml)")

	rootCmd.Flags().StringVar(&composeFile, "compose-file", "docker-compose.test.yml", "docker compose file describing the test environment")
	rootCmd.Flags().StringSliceVar(&scenarioNames, "scenario", nil, "run only the named scenarios (plain, encrypted, hooks)")
	rootCmd.Flags().StringVar(&passphrase, "passphrase", "", "passphrase for the encrypted scenario (default test_passphrase_123)")
	rootCmd.Flags().IntVar(&maxAttempts, "max-attempts", 30, "readiness probes per service before giving up")
	rootCmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "fixed wait between readiness probes")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-error output")
	rootCmd.Flags().BoolVar(&noColor, "no-color", false, "disable color output")
	rootCmd.Flags().StringVar(&logFile, "log-file", "", "also write logs to file")
	rootCmd.Flags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")
	rootCmd.Flags().BoolVar(&skipArtifactCheck, "skip-artifact-check", false, "skip the direct S3 listing check after backup")

	viper.BindPFlag("compose_file", rootCmd.Flags().Lookup("compose-file"))
	viper.BindPFlag("passphrase", rootCmd.Flags().Lookup("passphrase"))
	viper.BindPFlag("readiness.max_attempts", rootCmd.Flags().Lookup("max-attempts"))
	viper.BindPFlag("readiness.interval", rootCmd.Flags().Lookup("interval"))
	viper.BindPFlag("verbose", rootCmd.Flags().Lookup("verbose"))
	viper.BindPFlag("quiet", rootCmd.Flags().Lookup("quiet"))
	viper.BindPFlag("no_color", rootCmd.Flags().Lookup("no-color"))
	viper.BindPFlag("log_file", rootCmd.Flags().Lookup("log-file"))
	viper.BindPFlag("log_format", rootCmd.Flags().Lookup("log-format"))
}

// buildConfig builds the harness configuration from defaults, config file,
// and CLI flags, in increasing precedence
func buildConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()

	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if cmd.Flags().Changed("compose-file") {
		cfg.ComposeFile = composeFile
	}
	if cmd.Flags().Changed("passphrase") {
		cfg.Passphrase = passphrase
	}
	if cmd.Flags().Changed("max-attempts") {
		cfg.Readiness.MaxAttempts = maxAttempts
	}
	if cmd.Flags().Changed("interval") {
		cfg.Readiness.Interval = interval
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = verbose
	}
	if cmd.Flags().Changed("quiet") {
		cfg.Quiet = quiet
	}
	if cmd.Flags().Changed("no-color") {
		cfg.NoColor = noColor
	}
	if cmd.Flags().Changed("log-file") {
		cfg.LogFile = logFile
	}
	if cmd.Flags().Changed("log-format") {
		cfg.LogFormat = logFormat
	}
	if cmd.Flags().Changed("skip-artifact-check") && skipArtifactCheck {
		cfg.VerifyArtifact = false
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".postgres-backup-verify")
	}

	viper.SetEnvPrefix("PG_BACKUP_VERIFY")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if verbose {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

// Version information (set by main package)
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// SetVersionInfo sets the version information from build flags
func SetVersionInfo(v, bt, gc string) {
	version = v
	buildTime = bt
	gitCommit = gc
}

// createVersionCommand creates the version subcommand
func createVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("postgres-backup-verify version %s\n", version)
			fmt.Printf("Built: %s\n", buildTime)
			fmt.Printf("Commit: %s\n", gitCommit)
		},
	}
}

// createConfigCommand creates the config subcommand emitting a sample
// configuration file
func createConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Generate a sample configuration file",
		Long: `Generate a sample configuration file that can be used with the --config
flag. The output holds the defaults matching the stock test environment:

  postgres-backup-verify config > verify.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sample, err := yaml.Marshal(config.Default())
			if err != nil {
				return fmt.Errorf("failed to render sample configuration: %w", err)
			}
			fmt.Print("# postgres-backup-verify configuration\n" + string(sample))
			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(createVersionCommand())
	rootCmd.AddCommand(createConfigCommand())
	rootCmd.AddCommand(createListCommand())
}
