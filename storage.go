package session

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/goliatone/go-errors"
)

var _ Storage = (*MemoryStorage)(nil)
var _ Storage = (*FileStorage)(nil)

// MemoryStorage keeps the credential in process memory only. Sessions
// do not survive restarts; useful for tests and ephemeral clients.
type MemoryStorage struct {
	mu    sync.RWMutex
	value string
	set   bool
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (m *MemoryStorage) Read() (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.value, m.set, nil
}

func (m *MemoryStorage) Write(raw string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = raw
	m.set = true
	return nil
}

func (m *MemoryStorage) Delete() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = ""
	m.set = false
	return nil
}

// FileStorage persists the credential to a single file. It is the
// durable slot shared across processes: last writer wins, and readers
// re-validate expiry on load instead of trusting the stored value.
type FileStorage struct {
	path string
}

// NewFileStorage creates the parent directory if needed. The file is
// written with 0600 since it holds a live bearer credential.
func NewFileStorage(path string) (*FileStorage, error) {
	if path == "" {
		return nil, errors.New("storage path is required", errors.CategoryBadInput)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, storageFailure("unable to create storage directory", err)
	}

	return &FileStorage{path: path}, nil
}

func (f *FileStorage) Read() (string, bool, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, storageFailure("unable to read credential", err)
	}

	raw := strings.TrimSpace(string(data))
	if raw == "" {
		return "", false, nil
	}

	return raw, true, nil
}

func (f *FileStorage) Write(raw string) error {
	if err := os.WriteFile(f.path, []byte(raw), 0o600); err != nil {
		return storageFailure("unable to write credential", err)
	}
	return nil
}

func (f *FileStorage) Delete() error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return storageFailure("unable to delete credential", err)
	}
	return nil
}

func storageFailure(msg string, cause error) *errors.Error {
	return errors.Wrap(cause, errors.CategoryInternal, msg).
		WithTextCode(TextCodeStorageFailure).
		WithCode(errors.CodeInternal)
}
