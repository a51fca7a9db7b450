// Package project loads lazycheck.toml: check settings plus the
// declarations that light classes are built from.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"

	"lazycheck/internal/lightclass"
	"lazycheck/internal/project/dag"
)

// ErrNoManifest is returned when no lazycheck.toml is found.
var ErrNoManifest = errors.New("no " + ManifestName + " found")

// CheckConfig is the [check] section.
type CheckConfig struct {
	Jobs     int    `toml:"jobs"`
	Eager    bool   `toml:"eager"`
	FailFast bool   `toml:"fail_fast"`
	Root     string `toml:"root"`
}

// TraceConfig is the [trace] section.
type TraceConfig struct {
	Level  string `toml:"level"`
	Mode   string `toml:"mode"`
	Output string `toml:"output"`
}

// LogConfig is the [log] section.
type LogConfig struct {
	Level string `toml:"level"`
}

// JournalConfig is the [journal] section.
type JournalConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// Config is the decoded manifest.
type Config struct {
	Include []string                 `toml:"include"`
	Check   CheckConfig              `toml:"check"`
	Trace   TraceConfig              `toml:"trace"`
	Log     LogConfig                `toml:"log"`
	Journal JournalConfig            `toml:"journal"`
	Classes []lightclass.Declaration `toml:"class"`
}

// declFile is the shape of an included declaration file.
type declFile struct {
	Classes []lightclass.Declaration `toml:"class"`
}

// Manifest is a loaded project.
type Manifest struct {
	Path   string
	Root   string
	Config Config
	// Declarations from the manifest and every included file, in load order.
	Declarations []lightclass.Declaration
	// Hierarchy holds the same declarations, supertypes first.
	Hierarchy []lightclass.Declaration
}

// Load finds lazycheck.toml starting at startDir and loads it.
func Load(startDir string) (*Manifest, error) {
	path, ok, err := FindManifest(startDir)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoManifest
	}
	return LoadFile(path)
}

// LoadFile loads the manifest at path and its includes.
func LoadFile(path string) (*Manifest, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
	}
	if cfg.Check.Jobs < 0 {
		return nil, fmt.Errorf("%s: [check].jobs must not be negative", path)
	}

	m := &Manifest{
		Path:         path,
		Root:         filepath.Dir(path),
		Config:       cfg,
		Declarations: append([]lightclass.Declaration(nil), cfg.Classes...),
	}

	includes, err := m.expandIncludes()
	if err != nil {
		return nil, err
	}
	for _, inc := range includes {
		decls, err := loadDeclFile(inc)
		if err != nil {
			return nil, err
		}
		m.Declarations = append(m.Declarations, decls...)
	}

	for _, d := range m.Declarations {
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	if m.Hierarchy, err = dag.Order(m.Declarations); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

func (m *Manifest) expandIncludes() ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	for _, pattern := range m.Config.Include {
		if !filepath.IsAbs(pattern) {
			pattern = filepath.Join(m.Root, filepath.FromSlash(pattern))
		}
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("%s: bad include pattern %q: %w", m.Path, pattern, err)
		}
		sort.Strings(matches)
		for _, match := range matches {
			if match == m.Path {
				continue
			}
			if _, dup := seen[match]; dup {
				continue
			}
			seen[match] = struct{}{}
			out = append(out, match)
		}
	}
	return out, nil
}

func loadDeclFile(path string) ([]lightclass.Declaration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var f declFile
	if _, err := toml.Decode(string(data), &f); err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	return f.Classes, nil
}
