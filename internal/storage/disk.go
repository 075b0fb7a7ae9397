package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// DiskStore keeps files in a directory on the local file system.
type DiskStore struct {
	root string
}

// NewDiskStore creates a store rooted at the given directory, creating the directory if necessary.
func NewDiskStore(root string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, errors.Wrapf(err, "unable to create storage directory %s", root)
	}
	return &DiskStore{root: root}, nil
}

func (d *DiskStore) path(key string) (string, error) {
	cleaned, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(d.root, filepath.FromSlash(cleaned)), nil
}

// Put writes a file. The file is written to a temporary name first so that readers never see partial content.
func (d *DiskStore) Put(ctx context.Context, key string, r io.Reader, _ int64, _ string) error {
	wrapMsg := "unable to store " + key

	if err := ctx.Err(); err != nil {
		return err
	}

	p, err := d.path(key)
	if err != nil {
		return err
	}
	if err = os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return errors.Wrap(err, wrapMsg)
	}

	tmp, err := os.CreateTemp(filepath.Dir(p), ".upload-*")
	if err != nil {
		return errors.Wrap(err, wrapMsg)
	}
	defer os.Remove(tmp.Name())

	if _, err = io.Copy(tmp, r); err != nil {
		tmp.Close()
		return errors.Wrap(err, wrapMsg)
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(err, wrapMsg)
	}

	return errors.Wrap(os.Rename(tmp.Name(), p), wrapMsg)
}

// Get opens a file for reading.
func (d *DiskStore) Get(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	p, err := d.path(key)
	if err != nil {
		return nil, 0, err
	}

	f, err := os.Open(p)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "unable to open %s", key)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, errors.Wrapf(err, "unable to open %s", key)
	}
	return f, info.Size(), nil
}

// Delete removes a file. Removing a file that doesn't exist isn't an error.
func (d *DiskStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p, err := d.path(key)
	if err != nil {
		return err
	}
	if err = os.Remove(p); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "unable to remove %s", key)
	}
	return nil
}

// Exists determines whether a file exists.
func (d *DiskStore) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	p, err := d.path(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(p)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "unable to look up %s", key)
	}
	return true, nil
}
