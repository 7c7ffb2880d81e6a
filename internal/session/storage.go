package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// RecordFile is the name of the durable session record inside the state dir.
const RecordFile = "session.json"

// ErrNoRecord is returned by Storage.Load when nothing has been persisted.
var ErrNoRecord = errors.New("no session record")

// Storage persists one serialized session record.
type Storage interface {
	// Load returns the stored bytes, or ErrNoRecord.
	Load() ([]byte, error)
	// Save replaces the stored bytes.
	Save(data []byte) error
	// Delete removes the record. Deleting a missing record is not an error.
	Delete() error
}

// FileStorage keeps the record in a single 0600 JSON file.
type FileStorage struct {
	path string
}

var _ Storage = (*FileStorage)(nil)

// NewFileStorage returns a FileStorage for dir/session.json. The directory is
// created lazily on first Save.
func NewFileStorage(dir string) *FileStorage {
	return &FileStorage{path: filepath.Join(dir, RecordFile)}
}

// Path returns the record's location on disk.
func (f *FileStorage) Path() string {
	return f.path
}

func (f *FileStorage) Load() ([]byte, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoRecord
		}
		return nil, fmt.Errorf("read session record: %w", err)
	}
	return data, nil
}

// Save writes to a temp file in the same directory and renames it over the
// record, so a crash mid-write never leaves a truncated record behind.
func (f *FileStorage) Save(data []byte) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, RecordFile+".*")
	if err != nil {
		return fmt.Errorf("create temp record: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after a successful rename

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close() //nolint:errcheck
		return fmt.Errorf("chmod temp record: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck
		return fmt.Errorf("write temp record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp record: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace session record: %w", err)
	}
	return nil
}

func (f *FileStorage) Delete() error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session record: %w", err)
	}
	return nil
}

// MemoryStorage keeps the record in process memory. Used by tests and by
// --ephemeral runs that must not touch disk.
type MemoryStorage struct {
	mu   sync.Mutex
	data []byte
}

var _ Storage = (*MemoryStorage)(nil)

// NewMemoryStorage returns an empty MemoryStorage. Pass seed to preload a
// record, e.g. to simulate what a previous process persisted.
func NewMemoryStorage(seed []byte) *MemoryStorage {
	m := &MemoryStorage{}
	if seed != nil {
		m.data = append([]byte(nil), seed...)
	}
	return m
}

func (m *MemoryStorage) Load() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, ErrNoRecord
	}
	return append([]byte(nil), m.data...), nil
}

func (m *MemoryStorage) Save(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append([]byte{}, data...)
	return nil
}

func (m *MemoryStorage) Delete() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = nil
	return nil
}
