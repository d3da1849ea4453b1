// Package descriptor loads and validates the project descriptor file
// (conventionally project.json) that names the project, its version, its
// registration header and the target languages bindings are generated for.
package descriptor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/module"
	"golang.org/x/mod/semver"
)

// Languages supported by the generator.
const (
	LangPython = "python"
	LangGo     = "go"
)

// Target is one requested output language with its per-language options.
type Target struct {
	Language string `json:"language"`

	// Python options.
	Module    string `json:"module,omitempty"`     // import name, default "cgal"
	MinPython string `json:"min_python,omitempty"` // e.g. "3.9"

	// Go options.
	ModulePath string `json:"module_path,omitempty"`
	Package    string `json:"package,omitempty"`
}

// Descriptor is the parsed project descriptor.
type Descriptor struct {
	Name          string   `json:"name"`
	Version       string   `json:"version"`
	Registrations string   `json:"registrations"`
	IncludeDirs   []string `json:"include_dirs,omitempty"`
	OutputDir     string   `json:"output_dir,omitempty"`
	Rules         string   `json:"rules,omitempty"`
	Targets       []Target `json:"targets"`

	// Dir is the directory the descriptor was loaded from. All relative
	// paths above are resolved against it.
	Dir string `json:"-"`
}

// Load reads, validates and path-resolves a project descriptor.
func Load(path string) (*Descriptor, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	d := &Descriptor{}
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(d); err != nil {
		return nil, fmt.Errorf("%v: %w", path, err)
	}

	d.Dir = filepath.Dir(path)
	if err := d.validate(); err != nil {
		return nil, fmt.Errorf("%v: %w", path, err)
	}
	d.resolvePaths()
	return d, nil
}

func (d *Descriptor) validate() error {
	if d.Name == "" {
		return fmt.Errorf("missing project name")
	}
	if d.Version == "" {
		return fmt.Errorf("missing project version")
	}
	// Descriptors conventionally omit the "v" prefix semver requires.
	if !semver.IsValid("v" + strings.TrimPrefix(d.Version, "v")) {
		return fmt.Errorf("invalid version %q (want semver, e.g. \"1.2.0\")", d.Version)
	}
	if d.Registrations == "" {
		return fmt.Errorf("missing registrations path")
	}
	if len(d.Targets) == 0 {
		return fmt.Errorf("no targets declared")
	}

	seen := map[string]bool{}
	for i := range d.Targets {
		t := &d.Targets[i]
		if seen[t.Language] {
			return fmt.Errorf("target language %q declared twice", t.Language)
		}
		seen[t.Language] = true
		switch t.Language {
		case LangPython:
			if t.Module == "" {
				t.Module = "cgal"
			}
			if !isIdent(t.Module) {
				return fmt.Errorf("python target: invalid module name %q", t.Module)
			}
		case LangGo:
			if t.ModulePath == "" {
				return fmt.Errorf("go target: missing module_path")
			}
			if err := module.CheckPath(t.ModulePath); err != nil {
				return fmt.Errorf("go target: %w", err)
			}
			if t.Package == "" {
				t.Package = t.ModulePath[strings.LastIndex(t.ModulePath, "/")+1:]
			}
			if !isIdent(t.Package) {
				return fmt.Errorf("go target: invalid package name %q", t.Package)
			}
		default:
			return fmt.Errorf("unknown target language %q", t.Language)
		}
	}
	return nil
}

func (d *Descriptor) resolvePaths() {
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(d.Dir, p)
	}
	d.Registrations = resolve(d.Registrations)
	d.Rules = resolve(d.Rules)
	if d.OutputDir == "" {
		d.OutputDir = "generated"
	}
	d.OutputDir = resolve(d.OutputDir)
	for i, dir := range d.IncludeDirs {
		d.IncludeDirs[i] = resolve(dir)
	}
}

// Target returns the target entry for the given language, or nil.
func (d *Descriptor) Target(language string) *Target {
	for i := range d.Targets {
		if d.Targets[i].Language == language {
			return &d.Targets[i]
		}
	}
	return nil
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' ||
			r >= 'a' && r <= 'z' ||
			r >= 'A' && r <= 'Z' ||
			i > 0 && r >= '0' && r <= '9' {
			continue
		}
		return false
	}
	return true
}
