package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"storefront-service/internal/util"

	"go.uber.org/zap"
)

// KV is the whole-value key-value contract every backend satisfies
type KV interface {
	// Get returns the stored value and whether the key exists
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Memory is an in-process KV backend
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory creates an empty in-memory backend
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

// Get retrieves a copy of the value stored under key
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

// Set stores value under key, replacing any previous value
func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	v := make([]byte, len(value))
	copy(v, value)
	m.data[key] = v
	return nil
}

// Delete removes key
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	return nil
}

// Close is a no-op
func (m *Memory) Close() error {
	return nil
}

type scoped struct {
	KV
	prefix string
}

// Scope returns a view of kv where every key lives under namespace
func Scope(kv KV, namespace string) KV {
	return &scoped{KV: kv, prefix: namespace + ":"}
}

func (s *scoped) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return s.KV.Get(ctx, s.prefix+key)
}

func (s *scoped) Set(ctx context.Context, key string, value []byte) error {
	return s.KV.Set(ctx, s.prefix+key, value)
}

func (s *scoped) Delete(ctx context.Context, key string) error {
	return s.KV.Delete(ctx, s.prefix+key)
}

// Repository reads and writes named collections as whole-value JSON
type Repository struct {
	kv     KV
	logger *zap.Logger
}

// NewRepository creates a repository on top of kv
func NewRepository(kv KV) *Repository {
	return &Repository{
		kv:     kv,
		logger: util.GetLogger(),
	}
}

// Load decodes key into dst. A missing key leaves dst untouched.
// A value that fails to parse is logged and reported as missing, so callers
// keep their empty default.
func (r *Repository) Load(ctx context.Context, key string, dst interface{}) (bool, error) {
	raw, ok, err := r.kv.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !ok || len(strings.TrimSpace(string(raw))) == 0 {
		return false, nil
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		r.logger.Warn("Discarding unparsable stored value",
			zap.String("key", key),
			zap.Error(err))
		return false, nil
	}
	return true, nil
}

// Save encodes v and writes it under key
func (r *Repository) Save(ctx context.Context, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := r.kv.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Raw returns the undecoded value under key
func (r *Repository) Raw(ctx context.Context, key string) ([]byte, bool, error) {
	return r.kv.Get(ctx, key)
}

// Delete removes key
func (r *Repository) Delete(ctx context.Context, key string) error {
	return r.kv.Delete(ctx, key)
}

// Load is a typed helper around Repository.Load returning def when the key
// is missing or unparsable
func Load[T any](ctx context.Context, r *Repository, key string, def T) (T, error) {
	var v T
	ok, err := r.Load(ctx, key, &v)
	if err != nil {
		return def, err
	}
	if !ok {
		return def, nil
	}
	return v, nil
}
