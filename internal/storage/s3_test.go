package storage

import (
	"context"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	awsrequest "github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	s3iface.S3API
	input  *s3.ListObjectsV2Input
	output *s3.ListObjectsV2Output
	err    error
}

func (f *fakeS3) ListObjectsV2WithContext(ctx aws.Context, input *s3.ListObjectsV2Input, opts ...awsrequest.Option) (*s3.ListObjectsV2Output, error) {
	f.input = input
	if f.err != nil {
		return nil, f.err
	}
	return f.output, nil
}

func TestConfig_Validate(t *testing.T) {
	valid := Config{
		Endpoint:  "http://localhost:9000",
		Bucket:    "backups",
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "complete", mutate: func(c *Config) {}, wantErr: false},
		{name: "missing endpoint", mutate: func(c *Config) { c.Endpoint = "" }, wantErr: true},
		{name: "missing bucket", mutate: func(c *Config) { c.Bucket = "" }, wantErr: true},
		{name: "missing access key", mutate: func(c *Config) { c.AccessKey = "" }, wantErr: true},
		{name: "missing secret key", mutate: func(c *Config) { c.SecretKey = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewArtifactChecker_RejectsInvalidConfig(t *testing.T) {
	_, err := NewArtifactChecker(Config{}, nil)
	assert.Error(t, err)
}

func TestArtifactChecker_HasArtifacts(t *testing.T) {
	client := &fakeS3{
		output: &s3.ListObjectsV2Output{
			Contents: []*s3.Object{
				{Key: aws.String("backup_2026-08-23.dump.enc")},
			},
		},
	}
	checker := NewArtifactCheckerWithClient(client, nil, "backups")

	assert.True(t, checker.HasArtifacts(context.Background()))
	require.NotNil(t, client.input)
	assert.Equal(t, "backups", aws.StringValue(client.input.Bucket))
}

func TestArtifactChecker_HasArtifacts_EmptyBucket(t *testing.T) {
	client := &fakeS3{output: &s3.ListObjectsV2Output{}}
	checker := NewArtifactCheckerWithClient(client, nil, "backups")

	assert.False(t, checker.HasArtifacts(context.Background()))
}

func TestArtifactChecker_HasArtifacts_ListingErrorIsFalse(t *testing.T) {
	client := &fakeS3{err: fmt.Errorf("connection refused")}
	checker := NewArtifactCheckerWithClient(client, nil, "backups")

	assert.False(t, checker.HasArtifacts(context.Background()))
}
