// Package golang emits the Go binding target: a cgo wrapper package and
// the extern "C" shim it calls into.
//
// The Go target supports primitives, strings and registered classes.
// Signatures using STL containers are skipped with a warning; the C ABI
// of the shim has no stable representation for them.
package golang

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/iancoleman/strcase"
	"golang.org/x/tools/imports"

	"github.com/rosettabind/cgal-rosetta/descriptor"
	"github.com/rosettabind/cgal-rosetta/emit"
	"github.com/rosettabind/cgal-rosetta/ir"
)

// New returns the Go emitter.
func New() emit.Target { return target{} }

type target struct{}

func (target) Language() string { return descriptor.LangGo }

func (target) Emit(dir string, plan *emit.Plan, opts *descriptor.Target) ([]string, []emit.Skip, error) {
	g := &generator{plan: plan, pkg: opts.Package}
	g.collect()

	goFile := opts.Package + ".go"
	goSrc := g.goSource()
	// Best effort: generated Go code should be gofmt/goimports clean,
	// but an unformattable file is still written for inspection.
	if formatted, err := imports.Process(goFile, []byte(goSrc), nil); err == nil {
		goSrc = string(formatted)
	}

	files := map[string]string{
		goFile:        goSrc,
		"go.mod":      g.goMod(opts.ModulePath),
		"exports.h":   g.exportsH(),
		"exports.cpp": g.exportsCpp(),
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	slices.Sort(names)

	var written []string
	for _, name := range names {
		var cb emit.CodeBuilder
		cb.Write(files[name])
		if err := cb.SaveToFile(filepath.Join(dir, name)); err != nil {
			return nil, nil, fmt.Errorf("go target: %w", err)
		}
		written = append(written, name)
	}
	return written, g.skips, nil
}

// shim is one extern "C" entry point of the generated C ABI.
type shim struct {
	decl string // C declaration, without trailing semicolon
	body string // C++ statement(s) implementing it
}

type generator struct {
	plan *emit.Plan
	pkg  string

	skips []emit.Skip
	shims []shim
}

func supported(t ir.Type) bool {
	switch t.Kind {
	case ir.Vector, ir.Pair, ir.Tuple:
		return false
	default:
		return true
	}
}

func sigSupported(sig ir.Signature) (reason string, ok bool) {
	bad := ""
	sig.Walk(func(t ir.Type) {
		if !supported(t) && bad == "" {
			bad = t.String()
		}
	})
	if bad != "" {
		return fmt.Sprintf("type %v has no C ABI representation", bad), false
	}
	return "", true
}

func (g *generator) skip(sym ir.Symbol, reason string) {
	g.skips = append(g.skips, emit.Skip{Symbol: sym, Reason: reason})
}

// goName converts a rule-resolved symbol name to an exported Go
// identifier.
func goName(name string) string {
	return strcase.ToCamel(name)
}

// cType returns the C parameter/result type used by the shim for t.
func cType(t ir.Type) string {
	switch t.Kind {
	case ir.Void:
		return "void"
	case ir.Bool, ir.Int:
		return "int"
	case ir.Int64:
		return "int64_t"
	case ir.UInt64:
		return "uint64_t"
	case ir.Float:
		return "float"
	case ir.Double:
		return "double"
	case ir.String:
		return "const char*"
	case ir.Class:
		return "void*"
	default:
		panic(fmt.Sprintf("no C ABI type for %v", t))
	}
}

func cResultType(t ir.Type) string {
	if t.Kind == ir.String {
		return "char*"
	}
	return cType(t)
}

// goType returns the Go-facing type for t.
func goType(t ir.Type) string {
	switch t.Kind {
	case ir.Bool:
		return "bool"
	case ir.Int:
		return "int"
	case ir.Int64:
		return "int64"
	case ir.UInt64:
		return "uint64"
	case ir.Float:
		return "float32"
	case ir.Double:
		return "float64"
	case ir.String:
		return "string"
	case ir.Class:
		return "*" + t.Name
	default:
		panic(fmt.Sprintf("no Go type for %v", t))
	}
}

func (g *generator) collect() {
	u := g.plan.Unit
	plan := g.plan

	g.shims = append(g.shims, shim{
		decl: "void rosetta_free_string(char* s)",
		body: "std::free(s);",
	})

	for _, c := range u.Classes {
		classSym := ir.Symbol{Kind: ir.SymClass, Name: c.Name}
		if !plan.Include(classSym) {
			continue
		}
		g.shims = append(g.shims, shim{
			decl: fmt.Sprintf("void rosetta_%v_free(void* self)", c.Name),
			body: fmt.Sprintf("delete static_cast<%v*>(self);", c.Name),
		})
		for i, ctor := range c.Ctors {
			if reason, ok := sigSupported(ctor); !ok {
				g.skip(ir.Symbol{Kind: ir.SymClass, Name: c.Name}, "constructor: "+reason)
				continue
			}
			g.shims = append(g.shims, shim{
				decl: fmt.Sprintf("void* rosetta_%v_new%v(%v)", c.Name, i, emptyToVoid(g.cParams(ctor.Params))),
				body: fmt.Sprintf("return new %v(%v);", c.Name, g.cppArgs(ctor.Params)),
			})
		}
		for _, m := range c.Methods {
			sym := ir.Symbol{Kind: ir.SymMethod, Class: c.Name, Name: m.Name}
			if !plan.Include(sym) {
				continue
			}
			if reason, ok := sigSupported(m.Sig); !ok {
				g.skip(sym, reason)
				continue
			}
			g.shims = append(g.shims, g.callShim(
				fmt.Sprintf("rosetta_%v_%v", c.Name, m.Name),
				fmt.Sprintf("static_cast<%v*>(self)->%v", c.Name, m.Name),
				m.Sig, true))
		}
		for _, m := range c.Statics {
			sym := ir.Symbol{Kind: ir.SymStatic, Class: c.Name, Name: m.Name}
			if !plan.Include(sym) {
				continue
			}
			if reason, ok := sigSupported(m.Sig); !ok {
				g.skip(sym, reason)
				continue
			}
			g.shims = append(g.shims, g.callShim(
				fmt.Sprintf("rosetta_%v_s_%v", c.Name, m.Name),
				fmt.Sprintf("%v::%v", c.Name, m.Name),
				m.Sig, false))
		}
		for _, f := range c.Fields {
			sym := ir.Symbol{Kind: ir.SymField, Class: c.Name, Name: f.Name}
			if !plan.Include(sym) {
				continue
			}
			if !supported(f.Type) {
				g.skip(sym, fmt.Sprintf("type %v has no C ABI representation", f.Type))
				continue
			}
			access := fmt.Sprintf("static_cast<%v*>(self)->%v", c.Name, f.Name)
			g.shims = append(g.shims,
				shim{
					decl: fmt.Sprintf("%v rosetta_%v_get_%v(void* self)", cResultType(f.Type), c.Name, f.Name),
					body: fmt.Sprintf("return %v;", cppToC(f.Type, access)),
				},
				shim{
					decl: fmt.Sprintf("void rosetta_%v_set_%v(void* self, %v v)", c.Name, f.Name, cType(f.Type)),
					body: fmt.Sprintf("%v = %v;", access, cppFromC(f.Type, "v")),
				})
		}
	}

	for _, f := range u.Funcs {
		sym := ir.Symbol{Kind: ir.SymFunction, Name: f.Name}
		if !plan.Include(sym) {
			continue
		}
		if reason, ok := sigSupported(f.Sig); !ok {
			g.skip(sym, reason)
			continue
		}
		g.shims = append(g.shims, g.callShim("rosetta_fn_"+f.Name, f.Name, f.Sig, false))
	}

	for _, c := range u.Constants {
		sym := ir.Symbol{Kind: ir.SymConstant, Name: c.Name}
		if !plan.Include(sym) {
			continue
		}
		if !supported(c.Type) {
			g.skip(sym, fmt.Sprintf("type %v has no C ABI representation", c.Type))
			continue
		}
		g.shims = append(g.shims, shim{
			decl: fmt.Sprintf("%v rosetta_const_%v(void)", cResultType(c.Type), c.Name),
			body: fmt.Sprintf("return %v;", cppToC(c.Type, c.Name)),
		})
	}
}

// cParams renders the C parameter list of a shim (excluding self).
func (g *generator) cParams(params []ir.Param) string {
	var parts []string
	for i, p := range params {
		parts = append(parts, fmt.Sprintf("%v %v", cType(p.Type), paramName(p, i)))
	}
	return strings.Join(parts, ", ")
}

func paramName(p ir.Param, i int) string {
	if p.Name != "" {
		return p.Name
	}
	return fmt.Sprintf("arg%v", i)
}

// cppFromC converts a C shim argument back to the C++ value the native
// call expects.
func cppFromC(t ir.Type, expr string) string {
	switch t.Kind {
	case ir.Bool:
		return expr + " != 0"
	case ir.String:
		return fmt.Sprintf("std::string(%v)", expr)
	case ir.Class:
		if t.Ptr {
			return fmt.Sprintf("static_cast<%v*>(%v)", t.Name, expr)
		}
		return fmt.Sprintf("*static_cast<%v*>(%v)", t.Name, expr)
	default:
		return expr
	}
}

// cppToC converts a native C++ result to the C shim's return value.
func cppToC(t ir.Type, expr string) string {
	switch t.Kind {
	case ir.Bool:
		return fmt.Sprintf("(%v) ? 1 : 0", expr)
	case ir.String:
		return fmt.Sprintf("rosetta_strdup(%v)", expr)
	case ir.Class:
		if t.Ptr {
			// Non-owning handle to an existing native object.
			return fmt.Sprintf("static_cast<void*>(%v)", expr)
		}
		if t.Ref {
			return fmt.Sprintf("static_cast<void*>(&(%v))", expr)
		}
		return fmt.Sprintf("static_cast<void*>(new %v(%v))", t.Name, expr)
	default:
		return expr
	}
}

func (g *generator) cppArgs(params []ir.Param) string {
	var parts []string
	for i, p := range params {
		parts = append(parts, cppFromC(p.Type, paramName(p, i)))
	}
	return strings.Join(parts, ", ")
}

// callShim builds the shim for a method, static method or free function.
func (g *generator) callShim(cName, callee string, sig ir.Signature, method bool) shim {
	params := g.cParams(sig.Params)
	if method {
		if params == "" {
			params = "void* self"
		} else {
			params = "void* self, " + params
		}
	}
	call := fmt.Sprintf("%v(%v)", callee, g.cppArgs(sig.Params))
	var body string
	if sig.Result.Kind == ir.Void && sig.Result.IsPlain() {
		body = call + ";"
	} else {
		body = fmt.Sprintf("return %v;", cppToC(sig.Result, call))
	}
	return shim{
		decl: fmt.Sprintf("%v %v(%v)", cResultType(sig.Result), cName, emptyToVoid(params)),
		body: body,
	}
}

func emptyToVoid(params string) string {
	if params == "" {
		return "void"
	}
	return params
}
