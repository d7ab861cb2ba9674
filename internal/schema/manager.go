package schema

import (
	"slices"
	"strings"
	"sync"
)

// Manager caches table mappings per descriptor key.
// Safe for concurrent use.
type Manager struct {
	mu       sync.Mutex
	mappings map[string]*TableMapping
}

// NewManager creates an empty mapping cache.
func NewManager() *Manager {
	return &Manager{mappings: make(map[string]*TableMapping)}
}

// GetMapping returns the cached mapping for desc, building it on a miss.
// The lock spans lookup and publish so concurrent misses agree on one mapping.
// Flags only apply to the call that builds the mapping.
func (m *Manager) GetMapping(desc TypeDescriptor, flags CreateFlags) *TableMapping {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := desc.Key
	if desc.Table != "" {
		key += "@" + desc.Table
	}
	if tm, ok := m.mappings[key]; ok {
		return tm
	}
	tm := NewTableMapping(desc, flags)
	m.mappings[key] = tm
	return tm
}

// Mappings returns the cached mappings ordered by table name.
func (m *Manager) Mappings() []*TableMapping {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*TableMapping, 0, len(m.mappings))
	for _, tm := range m.mappings {
		out = append(out, tm)
	}
	slices.SortFunc(out, func(a, b *TableMapping) int {
		return strings.Compare(a.TableName, b.TableName)
	})
	return out
}
