// Package storage verifies backup artifacts directly against the
// S3-compatible endpoint. This is the one place the harness talks to the
// object store without going through a container command: after a backup
// reports success, the bucket must actually hold at least one object.
package storage

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"postgres-backup-verify/internal/logging"
)

// Config holds the connection settings for the object store endpoint
type Config struct {
	Endpoint  string `mapstructure:"endpoint" yaml:"endpoint"`
	Region    string `mapstructure:"region" yaml:"region"`
	Bucket    string `mapstructure:"bucket" yaml:"bucket"`
	AccessKey string `mapstructure:"access_key" yaml:"access_key"`
	SecretKey string `mapstructure:"secret_key" yaml:"secret_key"`
}

// Validate checks that the configuration is complete
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("object store endpoint is required")
	}
	if c.Bucket == "" {
		return fmt.Errorf("object store bucket is required")
	}
	if c.AccessKey == "" || c.SecretKey == "" {
		return fmt.Errorf("object store credentials are required")
	}
	return nil
}

// ArtifactChecker lists the backup bucket through the S3 API
type ArtifactChecker struct {
	client s3iface.S3API
	logger *logging.Logger
	bucket string
}

// NewArtifactChecker creates a checker for the given endpoint. MinIO needs
// path-style addressing; virtual-host style would resolve bucket subdomains
// that do not exist.
func NewArtifactChecker(config Config, logger *logging.Logger) (*ArtifactChecker, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid object store configuration: %w", err)
	}
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	region := config.Region
	if region == "" {
		region = "us-east-1"
	}

	sess, err := session.NewSession(&aws.Config{
		Endpoint:         aws.String(config.Endpoint),
		Region:           aws.String(region),
		S3ForcePathStyle: aws.Bool(true),
		Credentials: credentials.NewStaticCredentials(
			config.AccessKey,
			config.SecretKey,
			"", // token
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 session: %w", err)
	}

	return &ArtifactChecker{
		client: s3.New(sess),
		logger: logger,
		bucket: config.Bucket,
	}, nil
}

// NewArtifactCheckerWithClient creates a checker around an existing client,
// for tests
func NewArtifactCheckerWithClient(client s3iface.S3API, logger *logging.Logger, bucket string) *ArtifactChecker {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ArtifactChecker{
		client: client,
		logger: logger,
		bucket: bucket,
	}
}

// HasArtifacts reports whether the bucket holds at least one object. A
// listing failure counts as "no artifacts" and is logged, not raised, so
// the scenario records a failure instead of crashing.
func (ac *ArtifactChecker) HasArtifacts(ctx context.Context) bool {
	output, err := ac.client.ListObjectsV2WithContext(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(ac.bucket),
		MaxKeys: aws.Int64(10),
	})
	if err != nil {
		ac.logger.WithFields(map[string]interface{}{
			"bucket": ac.bucket,
			"error":  err.Error(),
		}).Error("Bucket listing failed")
		return false
	}

	count := len(output.Contents)
	ac.logger.WithFields(map[string]interface{}{
		"bucket":  ac.bucket,
		"objects": count,
	}).Info("Backup artifact check")

	return count > 0
}
