// Package config implements the layered configuration manager: ordered
// sources are loaded into one merged tree, later sources overriding earlier,
// and values are read by dotted key or bound onto structs.
package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/gantrykit/gantry/errors"
)

// Source supplies one layer of configuration values. Keys may be nested
// maps or flat dotted keys; the manager normalizes both.
type Source interface {
	// Name identifies the source in logs and errors.
	Name() string

	// Load reads the source's current values.
	Load() (map[string]any, error)
}

// fileSource reads a YAML file.
type fileSource struct {
	path     string
	optional bool
}

// NewFileSource creates a YAML file source. An optional source that is
// missing on disk loads as empty instead of failing.
func NewFileSource(path string, optional bool) Source {
	return &fileSource{path: path, optional: optional}
}

func (s *fileSource) Name() string {
	return "file:" + s.path
}

func (s *fileSource) Load() (map[string]any, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if s.optional && os.IsNotExist(err) {
			return map[string]any{}, nil
		}

		return nil, errors.ErrConfigError("reading "+s.path, err)
	}

	values := make(map[string]any)
	if err := yaml.Unmarshal(raw, &values); err != nil {
		return nil, errors.ErrConfigError("parsing "+s.path, err)
	}

	return values, nil
}

// dotenvSource reads a .env file, mapping PREFIX_FOO_BAR to foo.bar.
type dotenvSource struct {
	path     string
	prefix   string
	optional bool
}

// NewDotenvSource creates a .env file source. Keys are filtered by prefix
// and mapped to dotted form.
func NewDotenvSource(path, prefix string, optional bool) Source {
	return &dotenvSource{path: path, prefix: prefix, optional: optional}
}

func (s *dotenvSource) Name() string {
	return "dotenv:" + s.path
}

func (s *dotenvSource) Load() (map[string]any, error) {
	pairs, err := godotenv.Read(s.path)
	if err != nil {
		if s.optional && os.IsNotExist(err) {
			return map[string]any{}, nil
		}

		return nil, errors.ErrConfigError("reading "+s.path, err)
	}

	return mapEnvPairs(pairs, s.prefix), nil
}

// envSource reads process environment variables with a prefix.
type envSource struct {
	prefix string
}

// NewEnvSource creates a process-environment source. GANTRY_SERVER_PORT
// with prefix "GANTRY" becomes server.port.
func NewEnvSource(prefix string) Source {
	return &envSource{prefix: prefix}
}

func (s *envSource) Name() string {
	return "env:" + s.prefix
}

func (s *envSource) Load() (map[string]any, error) {
	pairs := make(map[string]string)

	for _, entry := range os.Environ() {
		key, value, found := strings.Cut(entry, "=")
		if !found {
			continue
		}

		pairs[key] = value
	}

	return mapEnvPairs(pairs, s.prefix), nil
}

// staticSource holds in-memory values, used for defaults and tests.
type staticSource struct {
	name   string
	values map[string]any
}

// NewStaticSource creates a fixed in-memory source.
func NewStaticSource(name string, values map[string]any) Source {
	return &staticSource{name: name, values: values}
}

func (s *staticSource) Name() string {
	return "static:" + s.name
}

func (s *staticSource) Load() (map[string]any, error) {
	return s.values, nil
}

// mapEnvPairs filters pairs by prefix and converts UPPER_SNAKE keys into
// dotted lower-case form.
func mapEnvPairs(pairs map[string]string, prefix string) map[string]any {
	values := make(map[string]any)

	fullPrefix := ""
	if prefix != "" {
		fullPrefix = strings.ToUpper(prefix) + "_"
	}

	for key, value := range pairs {
		if fullPrefix != "" {
			if !strings.HasPrefix(key, fullPrefix) {
				continue
			}

			key = strings.TrimPrefix(key, fullPrefix)
		}

		dotted := strings.ToLower(strings.ReplaceAll(key, "_", "."))
		values[dotted] = value
	}

	return values
}
