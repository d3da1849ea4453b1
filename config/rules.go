package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/iancoleman/strcase"

	"github.com/rosettabind/cgal-rosetta/ir"
)

var casings = map[string]func(string) string{
	"snake": strcase.ToSnake,
	"camel": strcase.ToCamel,
	"kebab": strcase.ToKebab,
}

func kindFromString(s string) (ir.SymbolKind, bool) {
	return ir.SymbolKindFromString(s)
}

// Execute runs the rules over the unit's symbols. It returns the
// target-language name for each symbol and whether it is included.
// Everything is included under its registered name by default.
func Execute(c *Config, unit *ir.Unit) (names map[ir.Symbol]string, included map[ir.Symbol]bool, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("execute rules: %w", err)
		}
	}()

	syms := unit.Symbols()
	names = make(map[ir.Symbol]string, len(syms))
	included = make(map[ir.Symbol]bool, len(syms))
	taken := map[symbolName]bool{}
	for _, sym := range syms {
		if _, ok := names[sym]; ok {
			return nil, nil, fmt.Errorf("duplicate %v symbol: %v", sym.Kind, sym)
		}
		names[sym] = sym.Name
		included[sym] = true
		taken[symbolName{sym.Class, sym.Kind, sym.Name}] = true
	}

	for ruleIdx, rule := range c.Rules {
		for _, sym := range syms {
			// Backrefs \1..\9 come from capture groups in the class
			// selector first, then the name selector.
			var backrefs [][]byte

			if rule.Select.Kind != "" {
				kind, _ := kindFromString(rule.Select.Kind)
				if kind != sym.Kind {
					continue
				}
			}
			if rule.Select.Class != nil {
				m := rule.Select.Class.FindSubmatch([]byte(sym.Class))
				if m == nil {
					continue
				}
				backrefs = append(backrefs, m[1:]...)
			}
			if rule.Select.Name != nil {
				m := rule.Select.Name.FindSubmatch([]byte(names[sym]))
				if m == nil {
					continue
				}
				backrefs = append(backrefs, m[1:]...)
			}

			renameTo := func(newName string) error {
				oldName := names[sym]
				if newName == oldName {
					return nil
				}
				key := symbolName{sym.Class, sym.Kind, newName}
				if taken[key] {
					return fmt.Errorf("rule %v: renaming %v to %v would cause a conflict",
						ruleIdx+1, strconv.Quote(oldName), strconv.Quote(newName))
				}
				delete(taken, symbolName{sym.Class, sym.Kind, oldName})
				taken[key] = true
				names[sym] = newName
				return nil
			}

			if rule.Actions.Rename != "" {
				oldnew := make([]string, 0, 2*9)
				for i := 0; i < 9; i++ {
					ref := `\` + strconv.Itoa(i+1)
					val := ""
					if i < len(backrefs) {
						val = string(backrefs[i])
					}
					oldnew = append(oldnew, ref, val)
				}
				newName := strings.NewReplacer(oldnew...).Replace(rule.Actions.Rename)
				if err := renameTo(newName); err != nil {
					return nil, nil, err
				}
			}
			if rule.Actions.ToCasing != "" {
				if err := renameTo(casings[rule.Actions.ToCasing](names[sym])); err != nil {
					return nil, nil, err
				}
			}
			if rule.Actions.Include != nil {
				included[sym] = *rule.Actions.Include
			}
		}
	}

	return names, included, nil
}

// symbolName keys the (class, kind, visible name) space used for
// rename-conflict detection.
type symbolName struct {
	class string
	kind  ir.SymbolKind
	name  string
}
