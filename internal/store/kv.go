package store

import (
	"encoding/json"
	"fmt"
	"sync"
)

// KV is a durable key-value store holding JSON-encodable values. Every
// Save replaces the whole value. Update is an atomic read-modify-write of
// the raw JSON under key; fn returning nil bytes writes nothing.
type KV interface {
	Load(key string, v any) (bool, error)
	Save(key string, v any) error
	Update(key string, fn func(raw []byte) ([]byte, error)) error
}

var (
	_ KV = (*DB)(nil)
	_ KV = (*MemoryKV)(nil)
)

// MemoryKV is an in-process KV. Values round-trip through JSON so callers
// never share memory with what is stored.
type MemoryKV struct {
	mu     sync.Mutex
	values map[string][]byte
	saves  int
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string][]byte)}
}

func (m *MemoryKV) Load(key string, v any) (bool, error) {
	m.mu.Lock()
	data, ok := m.values[key]
	m.mu.Unlock()

	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decoding %s: %w", key, err)
	}
	return true, nil
}

func (m *MemoryKV) Save(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = data
	m.saves++
	return nil
}

func (m *MemoryKV) Update(key string, fn func(raw []byte) ([]byte, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var raw []byte
	if data, ok := m.values[key]; ok {
		raw = append([]byte(nil), data...)
	}
	out, err := fn(raw)
	if err != nil {
		return err
	}
	if out != nil {
		m.values[key] = append([]byte(nil), out...)
		m.saves++
	}
	return nil
}

// Saves reports how many writes have been made.
func (m *MemoryKV) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
