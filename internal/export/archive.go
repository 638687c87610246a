package export

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Archive stores exported PDFs in S3-compatible object storage so users
// can retrieve past exports.
type Archive struct {
	client *minio.Client
	bucket string
}

type ArchiveConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

func NewArchive(cfg ArchiveConfig) (*Archive, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &Archive{client: client, bucket: cfg.Bucket}, nil
}

// EnsureBucket creates the archive bucket if it does not exist yet.
func (a *Archive) EnsureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("make bucket: %w", err)
	}
	return nil
}

// Put stores an export under exports/<userID>/<timestamp>-<filename> and
// returns the object key.
func (a *Archive) Put(ctx context.Context, userID string, result *Result) (string, error) {
	key := fmt.Sprintf("exports/%s/%s-%s", userID, time.Now().UTC().Format("20060102T150405Z"), result.Filename)
	_, err := a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(result.Data), int64(len(result.Data)), minio.PutObjectOptions{
		ContentType: result.MimeType,
	})
	if err != nil {
		return "", fmt.Errorf("put export object: %w", err)
	}
	return key, nil
}
