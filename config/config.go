// Package config loads the optional rules file (TOML) that filters and
// renames registered symbols before emission.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"dario.cat/mergo"
	"github.com/pelletier/go-toml/v2"
)

// Pattern is an anchored regular expression in a rule selector. A selector
// matches only if the whole symbol name matches.
type Pattern struct {
	*regexp.Regexp
}

func (p *Pattern) MarshalText() ([]byte, error) {
	return []byte(p.Regexp.String()), nil
}

func (p *Pattern) UnmarshalText(text []byte) error {
	re, err := regexp.Compile("^(?:" + string(text) + ")$")
	if err != nil {
		return err
	}
	p.Regexp = re
	return nil
}

// Rule selects symbols and applies actions to them. Rules run in file
// order; later rules see the names produced by earlier ones.
type Rule struct {
	Select struct {
		Name  *Pattern `toml:"name"`
		Class *Pattern `toml:"class"`
		Kind  string   `toml:"kind"`
	} `toml:"select"`
	Actions struct {
		Include  *bool  `toml:"include"`
		Rename   string `toml:"rename"`
		ToCasing string `toml:"to-casing"`
	} `toml:"action"`
}

type Config struct {
	Imports []string `toml:"imports"`
	Rules   []Rule   `toml:"rule"`
}

// Error is a config loading error. Error returns a short single-line
// message; String returns the full multi-line text when the TOML decoder
// provides one.
type Error struct {
	filePath string
	err      error
	str      string
}

func (e *Error) Error() string {
	return e.filePath + ": " + e.err.Error()
}

func (e *Error) String() string {
	if e.str != "" {
		return "Error in file " + strconv.Quote(e.filePath) + ":\n" + e.str
	}
	return e.Error()
}

func (e *Error) Unwrap() error {
	return e.err
}

// Load reads a rules file. Files named in the imports list are loaded
// relative to the importing file and their rules appended after the
// importing file's own rules.
func Load(path string) (_ *Config, err error) {
	defer func() {
		if err != nil {
			if tErr := (&toml.DecodeError{}); errors.As(err, &tErr) {
				err = &Error{filePath: path, err: err, str: tErr.String()}
			} else if tErr := (&toml.StrictMissingError{}); errors.As(err, &tErr) {
				err = &Error{filePath: path, err: err, str: tErr.String()}
			} else if !errors.As(err, new(*Error)) {
				err = &Error{filePath: path, err: err}
			}
		}
	}()

	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	c := &Config{}
	err = toml.NewDecoder(bytes.NewReader(file)).
		DisallowUnknownFields().
		Decode(c)
	if err != nil {
		return nil, err
	}

	for _, rule := range c.Rules {
		if rule.Actions.ToCasing != "" {
			if _, ok := casings[rule.Actions.ToCasing]; !ok {
				return nil, fmt.Errorf("unknown casing %q (want snake, camel or kebab)", rule.Actions.ToCasing)
			}
		}
		if rule.Select.Kind != "" {
			if _, ok := kindFromString(rule.Select.Kind); !ok {
				return nil, fmt.Errorf("unknown symbol kind %q", rule.Select.Kind)
			}
		}
	}

	// Collect imported files first so their own imports don't leak into
	// this file's import list.
	var importedCs []*Config
	for _, imp := range c.Imports {
		if !filepath.IsAbs(imp) {
			imp = filepath.Join(filepath.Dir(path), imp)
		}
		newC, err := Load(imp)
		if err != nil {
			return nil, err
		}
		importedCs = append(importedCs, newC)
	}
	for _, newC := range importedCs {
		if err := mergo.Merge(c, newC, mergo.WithAppendSlice); err != nil {
			return nil, err
		}
	}

	return c, nil
}
