package emit

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rosettabind/cgal-rosetta/descriptor"
	"github.com/rosettabind/cgal-rosetta/ir"
)

// Plan is everything an emitter needs: the registration unit, the
// rule-resolved symbol names, and the project identity.
type Plan struct {
	Project string
	Version string
	Unit    *ir.Unit

	// Names maps each symbol to its target-language name.
	Names map[ir.Symbol]string
	// Included maps each symbol to whether bindings are generated for it.
	Included map[ir.Symbol]bool
}

// Name returns the visible name for sym, falling back to the registered
// name when no rule touched it.
func (p *Plan) Name(sym ir.Symbol) string {
	if n, ok := p.Names[sym]; ok {
		return n
	}
	return sym.Name
}

// Include reports whether bindings should be generated for sym.
func (p *Plan) Include(sym ir.Symbol) bool {
	inc, ok := p.Included[sym]
	return !ok || inc
}

// Skip records a symbol an emitter could not generate a binding for,
// together with the reason. Skips are surfaced as warnings; they never
// fail the run.
type Skip struct {
	Symbol ir.Symbol
	Reason string
}

func (s Skip) String() string {
	return fmt.Sprintf("%v: %v", s.Symbol, s.Reason)
}

// Target is a per-language emitter. Emit writes the binding source tree
// for the plan into dir and returns the paths of the files it wrote
// (relative to dir).
type Target interface {
	Language() string
	Emit(dir string, plan *Plan, opts *descriptor.Target) (files []string, skips []Skip, err error)
}

// PrepareDir creates (or empties) the per-language output directory so
// stale files from previous generations never survive a run.
func PrepareDir(outputDir, language string) (string, error) {
	dir := filepath.Join(outputDir, language)
	if err := os.RemoveAll(dir); err != nil {
		return "", fmt.Errorf("clean output dir: %w", err)
	}
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	return dir, nil
}
