package checkpoint

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"listingcrawler/pkg/logger"
	"listingcrawler/pkg/storage"
)

// ErrCorrupt is returned when a checkpoint exists but does not hold a page number
var ErrCorrupt = errors.New("corrupt checkpoint")

// Store persists the highest fully processed page
type Store interface {
	// Save records page as the last completed page, replacing any previous value
	Save(page int) error
	// Load returns the last completed page; ok is false when none is recorded
	Load() (page int, ok bool, err error)
	// Clear removes the recorded page
	Clear() error
}

// Info describes a stored checkpoint
type Info struct {
	Page      int
	Path      string
	UpdatedAt time.Time
}

// FileStore keeps the checkpoint as a decimal number in a text file
type FileStore struct {
	path   string
	logger logger.Logger
}

// NewFileStore creates a store backed by path
func NewFileStore(path string, log logger.Logger) *FileStore {
	if log == nil {
		log = logger.GetLogger()
	}
	return &FileStore{path: path, logger: log}
}

// Path returns the checkpoint file location
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the checkpoint file
func (s *FileStore) Load() (int, bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to read checkpoint file: %w", err)
	}

	page, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || page < 0 {
		return 0, false, fmt.Errorf("%w: %s holds %q", ErrCorrupt, s.path, strings.TrimSpace(string(data)))
	}

	return page, true, nil
}

// Save writes the checkpoint atomically: readers see the old value or the new one
func (s *FileStore) Save(page int) error {
	if page < 0 {
		return fmt.Errorf("invalid checkpoint page %d", page)
	}

	err := storage.WriteFileAtomic(s.path, 0644, func(w io.Writer) error {
		_, err := io.WriteString(w, strconv.Itoa(page))
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}

	s.logger.DebugWithFields("Checkpoint saved", map[string]interface{}{
		"page": page,
		"path": s.path,
	})

	return nil
}

// Clear removes the checkpoint file
func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}

	s.logger.Info("Checkpoint cleared")
	return nil
}

// Info returns the stored page with its modification time; ok is false when absent
func (s *FileStore) Info() (Info, bool, error) {
	page, ok, err := s.Load()
	if err != nil || !ok {
		return Info{}, ok, err
	}

	stat, err := os.Stat(s.path)
	if err != nil {
		return Info{}, false, fmt.Errorf("failed to stat checkpoint file: %w", err)
	}

	return Info{Page: page, Path: s.path, UpdatedAt: stat.ModTime()}, true, nil
}

// MemoryStore is an in-process Store
type MemoryStore struct {
	mu    sync.Mutex
	page  int
	ok    bool
	saves []int
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// NewMemoryStoreAt creates a store already holding page
func NewMemoryStoreAt(page int) *MemoryStore {
	return &MemoryStore{page: page, ok: true}
}

func (s *MemoryStore) Save(page int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.page, s.ok = page, true
	s.saves = append(s.saves, page)
	return nil
}

func (s *MemoryStore) Load() (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page, s.ok, nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.page, s.ok = 0, false
	return nil
}

// Saves returns every value passed to Save, in order
func (s *MemoryStore) Saves() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.saves...)
}
