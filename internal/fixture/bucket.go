package fixture

import (
	"context"
	"strings"

	"postgres-backup-verify/internal/compose"
	"postgres-backup-verify/internal/logging"
)

// bucketSetupScript creates the bucket and confirms reachability with a
// listing. Bucket creation failure is tolerated: absence of the bucket is a
// valid precondition for a fresh environment, and an existing bucket must
// not abort the scenario either.
const bucketSetupScript = `
aws --endpoint-url $S3_ENDPOINT s3 mb s3://$S3_BUCKET 2>&1 || echo "Bucket may already exist"
aws --endpoint-url $S3_ENDPOINT s3 ls s3://$S3_BUCKET 2>&1 && echo "Bucket verified" || echo "Bucket verification failed"
`

// BucketFixture ensures the target bucket exists and is reachable before
// the first backup of an environment lifecycle
type BucketFixture struct {
	controller *compose.Controller
	logger     *logging.Logger
	service    string
}

// NewBucketFixture creates a bucket fixture bound to the backup-agent
// service, which carries the aws CLI and the S3 endpoint configuration
func NewBucketFixture(controller *compose.Controller, logger *logging.Logger, service string) *BucketFixture {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &BucketFixture{
		controller: controller,
		logger:     logger,
		service:    service,
	}
}

// EnsureBucket attempts bucket creation, treating "already exists" as
// success, then lists the bucket to confirm reachability. Calling it twice
// produces no error and leaves exactly one bucket.
func (f *BucketFixture) EnsureBucket(ctx context.Context) error {
	f.logger.Info("Creating S3 bucket in MinIO...")

	result, err := f.controller.Run(ctx, f.service, nil, "sh", "-c", bucketSetupScript)
	if err != nil {
		return err
	}

	if strings.Contains(result.Stdout, "Bucket verified") {
		f.logger.Info("S3 bucket verified")
	} else {
		f.logger.WithField("output", strings.TrimSpace(result.Stdout)).Warn("S3 bucket verification failed")
	}

	f.logger.Info("S3 bucket setup complete")
	return nil
}
