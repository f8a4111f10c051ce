package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// StorageKey is the key the store persists its state under.
const StorageKey = "dashboard-storage"

const persistedStateVersion = 0

// ErrNotFound is returned by persisters when a key holds no payload.
var ErrNotFound = errors.New("dashboard: persisted state not found")

// Persister is a key/value backend for the serialized store state.
type Persister interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, payload []byte) error
}

// PersistedState is the subset of store state that survives restarts. A nil
// Preferences means the payload carried none and defaults apply.
type PersistedState struct {
	CurrentDashboard *DashboardLayout  `json:"currentDashboard"`
	Dashboards       []DashboardLayout `json:"dashboards"`
	Preferences      *UserPreferences  `json:"preferences,omitempty"`
}

type persistedEnvelope struct {
	State   PersistedState `json:"state"`
	Version int            `json:"version"`
}

// EncodeState serializes state into the versioned storage envelope.
func EncodeState(state PersistedState) ([]byte, error) {
	payload, err := json.Marshal(persistedEnvelope{State: state, Version: persistedStateVersion})
	if err != nil {
		return nil, fmt.Errorf("dashboard: encode state: %w", err)
	}
	return payload, nil
}

// DecodeState parses a storage envelope.
func DecodeState(payload []byte) (PersistedState, error) {
	var env persistedEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return PersistedState{}, fmt.Errorf("dashboard: decode state: %w", err)
	}
	if env.Version != persistedStateVersion {
		return PersistedState{}, fmt.Errorf("dashboard: unsupported state version %d", env.Version)
	}
	return env.State, nil
}

// MemoryPersister keeps payloads in memory.
type MemoryPersister struct {
	mu    sync.RWMutex
	items map[string][]byte
}

func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{items: map[string][]byte{}}
}

func (p *MemoryPersister) Load(_ context.Context, key string) ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	payload, ok := p.items[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), payload...), nil
}

func (p *MemoryPersister) Save(_ context.Context, key string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items[key] = append([]byte(nil), payload...)
	return nil
}

// FilePersister stores one JSON file per key inside Dir.
type FilePersister struct {
	Dir string
}

func NewFilePersister(dir string) *FilePersister {
	return &FilePersister{Dir: dir}
}

func (p *FilePersister) Load(_ context.Context, key string) ([]byte, error) {
	payload, err := os.ReadFile(p.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("dashboard: read %s: %w", key, err)
	}
	return payload, nil
}

// Save writes through a temp file and rename so readers never see a partial
// payload.
func (p *FilePersister) Save(_ context.Context, key string, payload []byte) error {
	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return fmt.Errorf("dashboard: create %s: %w", p.Dir, err)
	}
	target := p.path(key)
	tmp, err := os.CreateTemp(p.Dir, filepath.Base(target)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("dashboard: write %s: %w", key, err)
	}
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("dashboard: write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("dashboard: write %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("dashboard: write %s: %w", key, err)
	}
	return nil
}

func (p *FilePersister) path(key string) string {
	name := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(key)
	return filepath.Join(p.Dir, name+".json")
}
