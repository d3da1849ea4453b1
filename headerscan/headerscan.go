// Package headerscan cross-checks the registration unit against the
// native headers it claims to bind. Findings are advisory: a missing
// header or declaration usually means a typo in the registration file,
// but the native build owns the final verdict, so generation proceeds.
package headerscan

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rosettabind/cgal-rosetta/ir"
)

// Warning is a single advisory finding.
type Warning struct {
	Class  string
	Header string
	Detail string
}

func (w Warning) String() string {
	return fmt.Sprintf("class %v (%v): %v", w.Class, w.Header, w.Detail)
}

// Scan locates each registered class header in includeDirs and checks
// that the header mentions a declaration of the class. The returned
// warnings never abort generation.
func Scan(unit *ir.Unit, includeDirs []string) []Warning {
	var warnings []Warning
	for _, c := range unit.Classes {
		path, ok := locate(c.Header, includeDirs)
		if !ok {
			warnings = append(warnings, Warning{
				Class:  c.Name,
				Header: c.Header,
				Detail: fmt.Sprintf("header not found in include dirs %v", includeDirs),
			})
			continue
		}
		src, err := os.ReadFile(path)
		if err != nil {
			warnings = append(warnings, Warning{
				Class:  c.Name,
				Header: c.Header,
				Detail: fmt.Sprintf("read header: %v", err),
			})
			continue
		}
		if !declares(src, c.Name) {
			warnings = append(warnings, Warning{
				Class:  c.Name,
				Header: c.Header,
				Detail: "no class/struct declaration found in header",
			})
		}
	}
	return warnings
}

func locate(header string, includeDirs []string) (string, bool) {
	for _, dir := range includeDirs {
		path := filepath.Join(dir, header)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

// declares reports whether src contains a class or struct declaration
// of name. Tokenization is deliberately coarse; templates and macros
// that confuse it only cost a warning, never a failure.
func declares(src []byte, name string) bool {
	re := regexp.MustCompile(`(?m)\b(class|struct)\s+(\w+\s+)?` + regexp.QuoteMeta(name) + `\b`)
	for _, line := range strings.Split(string(src), "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "//") {
			continue
		}
		if re.MatchString(line) {
			return true
		}
	}
	return false
}
