// Package sourceregistry loads and serves the configured content sources
// (C5 Source Registry): a YAML file describing each source's base URL,
// discovery mechanism, selectors, and per-source limits.
package sourceregistry

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"catchup-feed/internal/domain/entity"
)

// file is the on-disk shape of the sources YAML file.
type file struct {
	Sources []entity.SourceConfig `yaml:"sources"`
}

// Registry serves validated source configurations by name.
type Registry struct {
	byName map[string]*entity.SourceConfig
	order  []string
}

// Load reads and validates the source list at path. A source that fails
// validation is skipped with its error recorded in the returned slice
// rather than failing the whole load, so one malformed entry doesn't take
// down every other source.
func Load(path string) (*Registry, []error) {
	// #nosec G304 -- path is an operator-supplied config path, not user input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, []error{fmt.Errorf("sourceregistry: read %s: %w", path, err)}
	}
	return LoadBytes(data)
}

// LoadBytes parses source configuration from raw YAML, for callers that
// already have the bytes (embedded config, tests).
func LoadBytes(data []byte) (*Registry, []error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, []error{fmt.Errorf("sourceregistry: parse yaml: %w", err)}
	}

	reg := &Registry{byName: make(map[string]*entity.SourceConfig, len(f.Sources))}
	var errs []error
	for i := range f.Sources {
		src := f.Sources[i]
		if err := src.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("sourceregistry: source %q: %w", src.Name, err))
			continue
		}
		if _, dup := reg.byName[src.Name]; dup {
			errs = append(errs, fmt.Errorf("sourceregistry: duplicate source name %q", src.Name))
			continue
		}
		reg.byName[src.Name] = &src
		reg.order = append(reg.order, src.Name)
	}
	return reg, errs
}

// List returns configured sources in file order. When enabledOnly is true,
// sources with Enabled=false are omitted.
func (r *Registry) List(enabledOnly bool) []*entity.SourceConfig {
	out := make([]*entity.SourceConfig, 0, len(r.order))
	for _, name := range r.order {
		src := r.byName[name]
		if enabledOnly && !src.Enabled {
			continue
		}
		out = append(out, src)
	}
	return out
}

// ByName returns the named source, or (nil, false) if it isn't registered.
func (r *Registry) ByName(name string) (*entity.SourceConfig, bool) {
	src, ok := r.byName[name]
	return src, ok
}

// Len returns the number of loaded sources, enabled or not.
func (r *Registry) Len() int {
	return len(r.order)
}
