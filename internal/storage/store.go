// Package storage provides the key/value stores the site keeps its state in.
//
// A FileStore is the durable store: every value survives a restart because
// the whole key space is rewritten to one JSON file on each change. A
// MemoryStore is the ephemeral store used for the admin login flag.
package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Durable keys.
const (
	KeyCurrentUser    = "currentUser"
	KeyBookmarks      = "userBookmarks"
	KeyLikes          = "userLikes"
	KeyReadingHistory = "readingHistory"
	KeyPosts          = "posts"
	KeySettings       = "siteSettings"
	KeyComments       = "comments"
)

// Ephemeral keys.
const (
	KeyAdminAuthenticated = "adminAuthenticated"
	KeyLoginTime          = "loginTime"
)

// Store is a string key/value store. Get never fails: an absent key
// reports ok=false.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Remove(key string) error
}

// FileStore keeps every key in memory and rewrites the backing file on
// each Set or Remove.
type FileStore struct {
	mutex  sync.RWMutex
	path   string
	values map[string]string
	logger *zap.Logger
}

// OpenFileStore loads the store at path. A missing file is an empty store;
// so is an unparseable one, which is logged and overwritten on the next
// write.
func OpenFileStore(path string, logger *zap.Logger) (*FileStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &FileStore{
		path:   path,
		values: make(map[string]string),
		logger: logger,
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrapf(err, "create store directory %s", dir)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Info("Store file not found, starting empty", zap.String("path", path))
			return s, nil
		}
		return nil, errors.Wrapf(err, "read store %s", path)
	}

	if len(data) > 0 {
		if err := json.Unmarshal(data, &s.values); err != nil {
			logger.Warn("Store file is corrupt, starting empty",
				zap.String("path", path), zap.Error(err))
			s.values = make(map[string]string)
		}
	}
	return s, nil
}

// Path returns the backing file.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Get(key string) (string, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Set stores value under key. When the file cannot be written the previous
// value is restored, so readers never see a change that was not saved.
func (s *FileStore) Set(key, value string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	prev, had := s.values[key]
	s.values[key] = value
	if err := s.flush(); err != nil {
		s.restore(key, prev, had)
		return err
	}
	return nil
}

func (s *FileStore) Remove(key string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	prev, ok := s.values[key]
	if !ok {
		return nil
	}
	delete(s.values, key)
	if err := s.flush(); err != nil {
		s.restore(key, prev, true)
		return err
	}
	return nil
}

func (s *FileStore) restore(key, prev string, had bool) {
	if had {
		s.values[key] = prev
	} else {
		delete(s.values, key)
	}
}

// Keys lists the stored keys in sorted order.
func (s *FileStore) Keys() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return sortedKeys(s.values)
}

// flush must be called with the write lock held.
func (s *FileStore) flush() error {
	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode store")
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		s.logger.Error("Error writing store file", zap.String("path", s.path), zap.Error(err))
		return errors.Wrapf(err, "write store %s", s.path)
	}
	return nil
}

// MemoryStore is a Store that lives only as long as the process.
type MemoryStore struct {
	mutex  sync.RWMutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Get(key string) (string, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *MemoryStore) Set(key, value string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.values[key] = value
	return nil
}

func (s *MemoryStore) Remove(key string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.values, key)
	return nil
}

func (s *MemoryStore) Keys() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return sortedKeys(s.values)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
