package utils

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// UploadRoute is where main mounts the disk store for static serving.
const UploadRoute = "/uploads"

var ErrUnsafeKey = errors.New("evidence key escapes the upload directory")

// DiskStore keeps evidence images under a local directory. Used when R2 is not
// configured, typically in development.
type DiskStore struct {
	Dir     string
	BaseURL string // public prefix the files are served under, e.g. "/uploads"
}

// NewDiskStore makes sure dir exists.
func NewDiskStore(dir, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, err
	}
	return &DiskStore{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Put writes body to Dir/key and returns its public URL.
func (s *DiskStore) Put(ctx context.Context, key, _ string, body io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	destPath, err := s.path(key)
	if err != nil {
		return "", err
	}

	// ✅ Ensure the directory for the destination file exists
	if err := os.MkdirAll(filepath.Dir(destPath), os.ModePerm); err != nil {
		return "", err
	}

	dst, err := os.Create(destPath)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, body); err != nil {
		dst.Close()
		_ = os.Remove(destPath)
		return "", err
	}
	if err := dst.Close(); err != nil {
		return "", err
	}
	return s.BaseURL + "/" + filepath.ToSlash(key), nil
}

func (s *DiskStore) path(key string) (string, error) {
	root := filepath.Clean(s.Dir)
	p := filepath.Join(root, filepath.FromSlash(key))
	if p == root || !strings.HasPrefix(p, root+string(filepath.Separator)) {
		return "", ErrUnsafeKey
	}
	return p, nil
}
