package storage

import (
	"context"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
)

// MinioStore keeps files in a MinIO or S3 compatible bucket.
type MinioStore struct {
	client *minio.Client
	bucket string
}

// NewMinioStore connects to MinIO and ensures the bucket exists.
func NewMinioStore(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinioStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, "unable to initialize the minio client")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to look up bucket %s", bucket)
	}
	if !exists {
		if err = client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, errors.Wrapf(err, "unable to create bucket %s", bucket)
		}
		log.Infof("created bucket %s", bucket)
	}

	return &MinioStore{client: client, bucket: bucket}, nil
}

// Put uploads an object.
func (m *MinioStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}
	_, err = m.client.PutObject(ctx, m.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	return errors.Wrapf(err, "unable to store %s", key)
}

// Get downloads an object.
func (m *MinioStore) Get(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	key, err := cleanKey(key)
	if err != nil {
		return nil, 0, err
	}

	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, 0, errors.Wrapf(err, "unable to open %s", key)
	}
	info, err := obj.Stat()
	if err != nil {
		obj.Close()
		return nil, 0, errors.Wrapf(err, "unable to open %s", key)
	}
	return obj, info.Size, nil
}

// Delete removes an object.
func (m *MinioStore) Delete(ctx context.Context, key string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}
	err = m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{})
	return errors.Wrapf(err, "unable to remove %s", key)
}

// Exists determines whether an object exists.
func (m *MinioStore) Exists(ctx context.Context, key string) (bool, error) {
	key, err := cleanKey(key)
	if err != nil {
		return false, err
	}

	_, err = m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return false, nil
	}
	return false, errors.Wrapf(err, "unable to look up %s", key)
}
