package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mediajenny/the-oracle/src/security/validation"
)

var ErrObjectNotFound = errors.New("stored file not found")

// StoredObject describes a blob written by Save.
type StoredObject struct {
	Key    string
	Size   int64
	SHA256 string
}

// BlobStore keeps uploaded report inputs.
type BlobStore interface {
	Save(userID int, fileName string, r io.Reader) (*StoredObject, error)
	Open(key string) (io.ReadSeekCloser, error)
	Delete(key string) error
}

// LocalStore keeps blobs under a root directory, one folder per user.
type LocalStore struct {
	root string
}

func NewLocalStore(root string) (*LocalStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve upload directory %s: %w", root, err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %s: %w", abs, err)
	}
	return &LocalStore{root: abs}, nil
}

// Save writes r to <userID>/<unixMillis>-<uuid>-<name>. The blob is written
// to a temp file first and renamed into place.
func (s *LocalStore) Save(userID int, fileName string, r io.Reader) (*StoredObject, error) {
	userDir := strconv.Itoa(userID)
	key := userDir + "/" + fmt.Sprintf("%d-%s-%s", time.Now().UnixMilli(), uuid.NewString(), validation.SanitizeFileName(fileName))

	dir := filepath.Join(s.root, userDir)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create user upload directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op once renamed

	h := sha256.New()
	size, err := io.Copy(io.MultiWriter(tmp, h), r)
	if err != nil {
		tmp.Close()
		return nil, fmt.Errorf("failed to write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to flush upload: %w", err)
	}

	if err := os.Rename(tmp.Name(), filepath.Join(s.root, filepath.FromSlash(key))); err != nil {
		return nil, fmt.Errorf("failed to move upload into place: %w", err)
	}
	return &StoredObject{Key: key, Size: size, SHA256: hex.EncodeToString(h.Sum(nil))}, nil
}

func (s *LocalStore) Open(key string) (io.ReadSeekCloser, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open stored file %s: %w", key, err)
	}
	return f, nil
}

// Delete removes a blob. Missing blobs are not an error.
func (s *LocalStore) Delete(key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete stored file %s: %w", key, err)
	}
	return nil
}

func (s *LocalStore) resolve(key string) (string, error) {
	path := filepath.Join(s.root, filepath.FromSlash(key))
	rel, err := filepath.Rel(s.root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%w: invalid key %q", ErrObjectNotFound, key)
	}
	return path, nil
}
