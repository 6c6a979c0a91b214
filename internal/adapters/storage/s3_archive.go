// Package storage archives finished runs to S3-compatible object storage.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"route-optimizer/internal/domain"
	"route-optimizer/internal/platform/obs"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStore is the subset of the MinIO client used by the archive.
type ObjectStore interface {
	PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// S3Options configures the connection to an S3-compatible endpoint.
type S3Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// S3RunArchive writes each run as one JSON object under runs/YYYY/MM/DD/<id>.json.
type S3RunArchive struct {
	store  ObjectStore
	bucket string
}

func NewS3RunArchive(store ObjectStore, bucket string) *S3RunArchive {
	return &S3RunArchive{store: store, bucket: bucket}
}

// Connect creates a MinIO client and makes sure the bucket exists.
func Connect(ctx context.Context, opts S3Options) (*S3RunArchive, error) {
	if opts.Endpoint == "" || opts.AccessKey == "" || opts.SecretKey == "" || opts.Bucket == "" {
		return nil, errors.New("s3 archive: endpoint, access key, secret key and bucket are required")
	}

	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 archive: create client: %w", err)
	}

	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("s3 archive: check bucket %q: %w", opts.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{Region: opts.Region}); err != nil {
			return nil, fmt.Errorf("s3 archive: make bucket %q: %w", opts.Bucket, err)
		}
	}

	return NewS3RunArchive(client, opts.Bucket), nil
}

func (a *S3RunArchive) SaveRun(ctx context.Context, run *domain.Run) (err error) {
	defer obs.Time(ctx, "archive.SaveRun")(&err)

	if run == nil || run.ID == "" {
		return errors.New("archive run: run has no id")
	}

	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("archive run: marshal: %w", err)
	}

	key := ObjectKey(run.ID, run.CreatedAt)
	_, err = a.store.PutObject(
		ctx,
		a.bucket,
		key,
		bytes.NewReader(data),
		int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"},
	)
	if err != nil {
		return fmt.Errorf("archive run %s to %s: %w", run.ID, key, err)
	}

	return nil
}

// ObjectKey partitions runs by their UTC creation date.
func ObjectKey(id string, createdAt time.Time) string {
	return fmt.Sprintf("runs/%s/%s.json", createdAt.UTC().Format("2006/01/02"), id)
}
