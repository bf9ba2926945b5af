// Package config holds the harness configuration, threaded explicitly
// through the components instead of read from ambient process state.
package config

import (
	"fmt"
	"time"

	"postgres-backup-verify/internal/storage"
)

// ServiceNames maps the logical service roles onto compose service names
type ServiceNames struct {
	Database    string `mapstructure:"database" yaml:"database"`
	ObjectStore string `mapstructure:"object_store" yaml:"object_store"`
	BackupAgent string `mapstructure:"backup_agent" yaml:"backup_agent"`
}

// DatabaseConfig identifies the test database inside the database service
type DatabaseConfig struct {
	User string `mapstructure:"user" yaml:"user"`
	Name string `mapstructure:"name" yaml:"name"`
}

// ReadinessConfig bounds the readiness polling budget
type ReadinessConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts" yaml:"max_attempts"`
	Interval    time.Duration `mapstructure:"interval" yaml:"interval"`
}

// Config is the complete harness configuration
type Config struct {
	ComposeFile string          `mapstructure:"compose_file" yaml:"compose_file"`
	Services    ServiceNames    `mapstructure:"services" yaml:"services"`
	Database    DatabaseConfig  `mapstructure:"db" yaml:"db"`
	Passphrase  string          `mapstructure:"passphrase" yaml:"passphrase"`
	Readiness   ReadinessConfig `mapstructure:"readiness" yaml:"readiness"`
	ObjectStore storage.Config  `mapstructure:"object_store" yaml:"object_store"`

	// VerifyArtifact enables the direct S3 listing check after backup
	VerifyArtifact bool `mapstructure:"verify_artifact" yaml:"verify_artifact"`

	Quiet     bool   `mapstructure:"quiet" yaml:"quiet"`
	Verbose   bool   `mapstructure:"verbose" yaml:"verbose"`
	NoColor   bool   `mapstructure:"no_color" yaml:"no_color"`
	LogFile   string `mapstructure:"log_file" yaml:"log_file"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
}

// Default returns the configuration matching the stock test environment
func Default() Config {
	return Config{
		ComposeFile: "docker-compose.test.yml",
		Services: ServiceNames{
			Database:    "postgres",
			ObjectStore: "minio",
			BackupAgent: "backup",
		},
		Database: DatabaseConfig{
			User: "testuser",
			Name: "testdb",
		},
		Passphrase: "test_passphrase_123",
		Readiness: ReadinessConfig{
			MaxAttempts: 30,
			Interval:    2 * time.Second,
		},
		ObjectStore: storage.Config{
			Endpoint:  "http://localhost:9000",
			Region:    "us-east-1",
			Bucket:    "backups",
			AccessKey: "minioadmin",
			SecretKey: "minioadmin",
		},
		VerifyArtifact: true,
		LogFormat:      "text",
	}
}

// Validate checks the configuration for values the harness cannot run with
func (c *Config) Validate() error {
	if c.ComposeFile == "" {
		return fmt.Errorf("compose file is required")
	}
	if c.Services.Database == "" || c.Services.ObjectStore == "" || c.Services.BackupAgent == "" {
		return fmt.Errorf("all three service names are required")
	}
	if c.Database.User == "" || c.Database.Name == "" {
		return fmt.Errorf("database user and name are required")
	}
	if c.Passphrase == "" {
		return fmt.Errorf("encryption passphrase for the encrypted scenario must be non-empty")
	}
	if c.Readiness.MaxAttempts <= 0 {
		return fmt.Errorf("readiness max_attempts must be greater than 0")
	}
	if c.Readiness.Interval <= 0 {
		return fmt.Errorf("readiness interval must be greater than 0")
	}
	if c.Quiet && c.Verbose {
		return fmt.Errorf("quiet and verbose are mutually exclusive")
	}
	if c.VerifyArtifact {
		if err := c.ObjectStore.Validate(); err != nil {
			return err
		}
	}
	return nil
}
