// Package storage keeps uploaded and converted files either on the local disk or in an S3 compatible object store.
package storage

import (
	"context"
	"io"
	"path"
	"strings"

	"github.com/cyverse/pdfa/config"
	"github.com/cyverse/pdfa/logging"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var log = logging.GetLogger().WithFields(logrus.Fields{"package": "storage"})

// ErrInvalidKey is returned for keys that would escape the storage root.
var ErrInvalidKey = errors.New("invalid storage key")

// Store provides access to stored files by key.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, int64, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// cleanKey normalizes a storage key and rejects keys that refer to parent directories.
func cleanKey(key string) (string, error) {
	cleaned := path.Clean("/" + strings.TrimSpace(key))
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "" || cleaned == "." || strings.Contains(key, "..") {
		return "", errors.Wrap(ErrInvalidKey, key)
	}
	return cleaned, nil
}

// New creates the store selected in the configuration.
func New(spec *config.Specification) (Store, error) {
	switch spec.StorageDriver {
	case "minio":
		log.Infof("storing files in bucket %s at %s", spec.MinioBucket, spec.MinioEndpoint)
		return NewMinioStore(spec.MinioEndpoint, spec.MinioAccessKey, spec.MinioSecretKey, spec.MinioBucket, spec.MinioUseSSL)
	case "disk":
		log.Infof("storing files in %s", spec.StoragePath)
		return NewDiskStore(spec.StoragePath)
	default:
		return nil, errors.Errorf("unsupported storage driver: %s", spec.StorageDriver)
	}
}
