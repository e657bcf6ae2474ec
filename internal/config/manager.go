package config

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gantrykit/gantry/errors"
	"github.com/gantrykit/gantry/logger"
)

// Manager merges ordered configuration sources into one tree. Later sources
// override earlier ones key by key. Reload replays all sources.
type Manager struct {
	sources []Source
	data    map[string]any
	logger  logger.Logger
	mu      sync.RWMutex
}

// NewManager creates a manager over the given sources. Sources are loaded
// lazily by Load, in the order given.
func NewManager(log logger.Logger, sources ...Source) *Manager {
	if log == nil {
		log = logger.NewNoop()
	}

	return &Manager{
		sources: sources,
		data:    make(map[string]any),
		logger:  log.Named("config"),
	}
}

// AddSource appends a source. It takes effect on the next Load.
func (m *Manager) AddSource(source Source) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sources = append(m.sources, source)
}

// Load reads every source in order and merges the results. Any source
// failure aborts the load.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	merged := make(map[string]any)

	for _, source := range m.sources {
		values, err := source.Load()
		if err != nil {
			return err
		}

		for key, value := range values {
			setPath(merged, key, value)
		}

		m.logger.Debug("config source loaded",
			logger.String("source", source.Name()),
			logger.Int("keys", len(values)),
		)
	}

	m.data = merged

	return nil
}

// Get returns the value at a dotted key, nil if absent.
func (m *Manager) Get(key string) any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return getPath(m.data, key)
}

// Set stores a value at a dotted key. Overridden by the sources on the
// next Load.
func (m *Manager) Set(key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()

	setPath(m.data, key, value)
}

// GetString returns a string value, or the first default when absent.
func (m *Manager) GetString(key string, def ...string) string {
	value := m.Get(key)
	if value == nil {
		return firstOr(def, "")
	}

	switch v := value.(type) {
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}

// GetInt returns an integer value, or the first default when absent or
// unparseable.
func (m *Manager) GetInt(key string, def ...int) int {
	value := m.Get(key)

	switch v := value.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}

	return firstOr(def, 0)
}

// GetBool returns a boolean value, or the first default when absent or
// unparseable.
func (m *Manager) GetBool(key string, def ...bool) bool {
	value := m.Get(key)

	switch v := value.(type) {
	case bool:
		return v
	case string:
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}

	return firstOr(def, false)
}

// GetDuration returns a duration value, accepting time.Duration strings
// ("250ms", "5s") or integer seconds.
func (m *Manager) GetDuration(key string, def ...time.Duration) time.Duration {
	value := m.Get(key)

	switch v := value.(type) {
	case time.Duration:
		return v
	case int:
		return time.Duration(v) * time.Second
	case float64:
		return time.Duration(v) * time.Second
	case string:
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}

	return firstOr(def, 0)
}

// Bind decodes the subtree at key onto target via a YAML round-trip, so
// the same yaml struct tags drive both files and binding. An empty key
// binds the whole tree.
func (m *Manager) Bind(key string, target any) error {
	value := any(m.snapshot())
	if key != "" {
		value = m.Get(key)
	}

	if value == nil {
		return errors.ErrConfigError("no value at key '"+key+"'", nil)
	}

	raw, err := yaml.Marshal(value)
	if err != nil {
		return errors.ErrConfigError("encoding subtree '"+key+"'", err)
	}

	if err := yaml.Unmarshal(raw, target); err != nil {
		return errors.ErrConfigError("binding subtree '"+key+"'", err)
	}

	return nil
}

// Keys returns the top-level keys of the merged tree.
func (m *Manager) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.data))
	for key := range m.data {
		keys = append(keys, key)
	}

	return keys
}

func (m *Manager) snapshot() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.data
}

func firstOr[T any](defs []T, fallback T) T {
	if len(defs) > 0 {
		return defs[0]
	}

	return fallback
}

// setPath writes a value at a dotted key, creating intermediate maps and
// converting scalar collisions into maps.
func setPath(data map[string]any, key string, value any) {
	parts := strings.Split(key, ".")

	node := data
	for _, part := range parts[:len(parts)-1] {
		child, ok := node[part].(map[string]any)
		if !ok {
			child = make(map[string]any)
			node[part] = child
		}

		node = child
	}

	last := parts[len(parts)-1]

	// Merging a nested map layer over an existing one goes key by key so
	// sibling values from earlier sources survive.
	if incoming, ok := normalizeMap(value); ok {
		existing, exists := node[last].(map[string]any)
		if !exists {
			existing = make(map[string]any)
			node[last] = existing
		}

		for k, v := range incoming {
			setPath(existing, k, v)
		}

		return
	}

	node[last] = value
}

// getPath reads a value at a dotted key.
func getPath(data map[string]any, key string) any {
	parts := strings.Split(key, ".")

	var node any = data
	for _, part := range parts {
		m, ok := normalizeMap(node)
		if !ok {
			return nil
		}

		node, ok = m[part]
		if !ok {
			return nil
		}
	}

	return node
}

// normalizeMap converts the map shapes YAML decoding produces into
// map[string]any.
func normalizeMap(value any) (map[string]any, bool) {
	switch v := value.(type) {
	case map[string]any:
		return v, true
	case map[any]any:
		out := make(map[string]any, len(v))
		for key, val := range v {
			out[fmt.Sprintf("%v", key)] = val
		}

		return out, true
	default:
		return nil, false
	}
}
