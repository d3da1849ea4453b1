// Package emit holds the code emission core shared by all targets: the
// CodeBuilder used to assemble generated source, and the Plan/Target
// contract the per-language emitters implement.
package emit

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CodeBuilder is a wrapper around [strings.Builder] that simplifies
// building indented source code.
//
// The zero value is safely ready to use.
type CodeBuilder struct {
	// Indent is the indentation level (indentation is tabs).
	Indent int

	b strings.Builder
}

// Write appends a raw string to the internal [strings.Builder].
func (w *CodeBuilder) Write(s string) {
	w.b.WriteString(s)
}

// Append writes the given string line by line with correct indentation.
func (w *CodeBuilder) Append(s string) {
	sc := bufio.NewScanner(strings.NewReader(s))
	for sc.Scan() {
		w.Linef("%v", sc.Text())
	}
}

// Linef writes a single line, prepended by the current indentation.
//
// Takes format and args like [fmt.Printf].
func (w *CodeBuilder) Linef(format string, args ...any) {
	for i := 0; i < w.Indent; i++ {
		w.b.WriteString("\t")
	}
	fmt.Fprintf(&w.b, format, args...)
	w.b.WriteString("\n")
}

// String returns the code built so far.
func (w *CodeBuilder) String() string {
	return w.b.String()
}

func (w *CodeBuilder) Reset() {
	w.Indent = 0
	w.b.Reset()
}

// SaveToFile writes the current code to outFile, creating parent
// directories as needed.
func (w *CodeBuilder) SaveToFile(outFile string) error {
	if err := os.MkdirAll(filepath.Dir(outFile), os.ModePerm); err != nil {
		return err
	}
	return os.WriteFile(outFile, []byte(w.String()), 0666)
}
