package storage

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioOptions carries the archive bucket connection settings.
type MinioOptions struct {
	Endpoint   string
	Region     string
	BucketName string
	AccessKey  string
	SecretKey  string
	UseSSL     bool
	Prefix     string
}

// Archiver uploads snapshots of the CSV log to an S3-compatible bucket.
type Archiver struct {
	client     *minio.Client
	bucketName string
	prefix     string
	now        func() time.Time
}

// NewArchiver buat koneksi MinIO dan pastikan bucket ada
func NewArchiver(ctx context.Context, opts MinioOptions) (*Archiver, error) {
	cli, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, err
	}

	exists, err := cli.BucketExists(ctx, opts.BucketName)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := cli.MakeBucket(ctx, opts.BucketName, minio.MakeBucketOptions{Region: opts.Region}); err != nil {
			return nil, err
		}
	}

	return &Archiver{
		client:     cli,
		bucketName: opts.BucketName,
		prefix:     strings.Trim(opts.Prefix, "/"),
		now:        time.Now,
	}, nil
}

// Archive uploads localPath and returns the object URL. The local file is left in place.
func (a *Archiver) Archive(ctx context.Context, localPath string) (string, error) {
	key := archiveKey(a.prefix, localPath, a.now())
	_, err := a.client.FPutObject(ctx, a.bucketName, key, localPath, minio.PutObjectOptions{
		ContentType: "text/csv",
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", localPath, err)
	}

	// URL publik (jika bucket public), kalau private harus generate presigned URL
	u := a.client.EndpointURL()
	return fmt.Sprintf("%s://%s/%s/%s", u.Scheme, u.Host, a.bucketName, key), nil
}

func archiveKey(prefix, localPath string, at time.Time) string {
	name := at.UTC().Format("20060102T150405Z") + "-" + filepath.Base(localPath)
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}
