// Package counter tracks successful logins per role. The file backend is the
// default; Redis is an optional replacement for deployments that already run
// one.
package counter

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"catalogo/api/internal/rbac"
)

// Counters is the persisted pair. The key spelling is the on-disk format
// existing counter files already use and must not be corrected.
type Counters struct {
	UserLogins  int `json:"userAcess"`
	AdminLogins int `json:"adminAcess"`
}

// Store persists login counters. Increment must be durable before it returns.
type Store interface {
	Load(ctx context.Context) (Counters, error)
	Increment(ctx context.Context, role rbac.Role) (Counters, error)
}

// FileStore keeps the counters in a single flat JSON file, rewritten in full
// on every increment.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the counter file. A missing or unparsable file yields zeroed
// counters, not an error; counting starts over from a fresh file.
func (s *FileStore) Load(_ context.Context) (Counters, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(), nil
}

// Increment bumps the counter for role and persists synchronously.
func (s *FileStore) Increment(_ context.Context, role rbac.Role) (Counters, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counters := s.read()
	if role == rbac.RoleAdmin {
		counters.AdminLogins++
	} else {
		counters.UserLogins++
	}

	data, err := json.Marshal(counters)
	if err != nil {
		return Counters{}, err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return Counters{}, err
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return Counters{}, err
	}
	return counters, nil
}

func (s *FileStore) read() Counters {
	var counters Counters
	data, err := os.ReadFile(s.path)
	if err != nil {
		return Counters{}
	}
	if err := json.Unmarshal(data, &counters); err != nil {
		return Counters{}
	}
	return counters
}
