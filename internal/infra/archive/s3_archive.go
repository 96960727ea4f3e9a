package archive

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/oceanchat/oceanchat/internal/domain/ingest"
)

// S3Archive keeps raw profile file payloads in S3-compatible object storage,
// so ingestion can be replayed after decoder fixes.
type S3Archive struct {
	client *minio.Client
	bucket string
	logger *slog.Logger
}

// NewS3Archive constructs the archive adapter.
func NewS3Archive(endpoint, accessKey, secretKey, bucket, region string, logger *slog.Logger) (*S3Archive, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cleanEndpoint := sanitizeEndpoint(endpoint)
	useSSL := strings.HasPrefix(strings.ToLower(endpoint), "https")
	client, err := minio.New(cleanEndpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure:       useSSL,
		Region:       region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("init archive client: %w", err)
	}
	return &S3Archive{client: client, bucket: bucket, logger: logger.With("component", "ingest.archive")}, nil
}

func (a *S3Archive) ensureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err == nil && exists {
		return nil
	}
	err = a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{})
	if err != nil && minio.ToErrorResponse(err).Code != "BucketAlreadyOwnedByYou" {
		return err
	}
	return nil
}

// Store uploads one raw payload keyed by the upstream file name.
func (a *S3Archive) Store(ctx context.Context, name string, payload []byte) error {
	if err := a.ensureBucket(ctx); err != nil {
		return err
	}
	reader := bytes.NewReader(payload)
	_, err := a.client.PutObject(ctx, a.bucket, name, reader, int64(len(payload)), minio.PutObjectOptions{
		ContentType:      "application/octet-stream",
		DisableMultipart: len(payload) < 5*1024*1024, // small uploads as single part
	})
	if err != nil {
		return fmt.Errorf("archive %s: %w", name, err)
	}
	a.logger.Debug("payload archived", "name", name, "bytes", len(payload))
	return nil
}

var _ ingest.Archive = (*S3Archive)(nil)

// sanitizeEndpoint removes schemes and paths to satisfy minio.New expectations.
func sanitizeEndpoint(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "https://"), "http://")
	if strings.Contains(raw, "/") {
		raw = strings.Split(raw, "/")[0]
	}
	return raw
}
