package golang

import (
	"fmt"
	"slices"
	"strings"

	"github.com/rosettabind/cgal-rosetta/emit"
	"github.com/rosettabind/cgal-rosetta/ir"
)

var goKeywords = map[string]bool{
	"break": true, "case": true, "chan": true, "const": true, "continue": true,
	"default": true, "defer": true, "else": true, "fallthrough": true, "for": true,
	"func": true, "go": true, "goto": true, "if": true, "import": true,
	"interface": true, "map": true, "package": true, "range": true, "return": true,
	"select": true, "struct": true, "switch": true, "type": true, "var": true,
}

func goParamName(p ir.Param, i int) string {
	name := paramName(p, i)
	if goKeywords[name] {
		name += "Arg"
	}
	return name
}

func (g *generator) skipped() map[ir.Symbol]bool {
	m := map[ir.Symbol]bool{}
	for _, s := range g.skips {
		m[s.Symbol] = true
	}
	return m
}

// cgoArg converts a Go parameter to the C call argument. String
// parameters need a temporary; those are handled by the caller.
func cgoArg(t ir.Type, name string) string {
	switch t.Kind {
	case ir.Bool:
		return fmt.Sprintf("boolToC(%v)", name)
	case ir.Int:
		return fmt.Sprintf("C.int(%v)", name)
	case ir.Int64:
		return fmt.Sprintf("C.int64_t(%v)", name)
	case ir.UInt64:
		return fmt.Sprintf("C.uint64_t(%v)", name)
	case ir.Float:
		return fmt.Sprintf("C.float(%v)", name)
	case ir.Double:
		return fmt.Sprintf("C.double(%v)", name)
	case ir.Class:
		return name + ".h"
	default:
		panic(fmt.Sprintf("no cgo argument conversion for %v", t))
	}
}

// cgoResult wraps a C call expression into the Go result value.
func cgoResult(t ir.Type, call string) string {
	switch t.Kind {
	case ir.Bool:
		return call + " != 0"
	case ir.Int:
		return fmt.Sprintf("int(%v)", call)
	case ir.Int64:
		return fmt.Sprintf("int64(%v)", call)
	case ir.UInt64:
		return fmt.Sprintf("uint64(%v)", call)
	case ir.Float:
		return fmt.Sprintf("float32(%v)", call)
	case ir.Double:
		return fmt.Sprintf("float64(%v)", call)
	case ir.String:
		return fmt.Sprintf("goString(%v)", call)
	case ir.Class:
		if t.Ptr || t.Ref {
			return fmt.Sprintf("borrow%v(%v)", t.Name, call)
		}
		return fmt.Sprintf("new%v(%v)", t.Name, call)
	default:
		panic(fmt.Sprintf("no cgo result conversion for %v", t))
	}
}

// goClassName resolves a registered class name to its exported Go
// type name, honoring rule renames.
func (g *generator) goClassName(name string) string {
	return goName(g.plan.Name(ir.Symbol{Kind: ir.SymClass, Name: name}))
}

func (g *generator) goTypeOf(t ir.Type) string {
	if t.Kind == ir.Class {
		return "*" + g.goClassName(t.Name)
	}
	return goType(t)
}

// goParams renders the Go parameter list of a wrapper function.
func (g *generator) goParams(params []ir.Param) string {
	var parts []string
	for i, p := range params {
		parts = append(parts, fmt.Sprintf("%v %v", goParamName(p, i), g.goTypeOf(p.Type)))
	}
	return strings.Join(parts, ", ")
}

// writeCall emits the temporaries, the C call and the return statement
// for one wrapper body.
func writeCall(cb *emit.CodeBuilder, cFunc string, recv string, sig ir.Signature) {
	var args []string
	if recv != "" {
		args = append(args, recv)
	}
	for i, p := range sig.Params {
		name := goParamName(p, i)
		if p.Type.Kind == ir.String {
			tmp := fmt.Sprintf("c%v", i)
			cb.Linef("%v := C.CString(%v)", tmp, name)
			cb.Linef("defer C.free(unsafe.Pointer(%v))", tmp)
			args = append(args, tmp)
		} else {
			args = append(args, cgoArg(p.Type, name))
		}
	}
	call := fmt.Sprintf("C.%v(%v)", cFunc, strings.Join(args, ", "))
	if sig.Result.Kind == ir.Void && sig.Result.IsPlain() {
		cb.Linef("%v", call)
	} else {
		cb.Linef("return %v", cgoResult(sig.Result, call))
	}
}

func (g *generator) goResultDecl(t ir.Type) string {
	if t.Kind == ir.Void && t.IsPlain() {
		return ""
	}
	return " " + g.goTypeOf(t)
}

func (g *generator) goSource() string {
	skipped := g.skipped()
	plan := g.plan
	u := plan.Unit

	var cb emit.CodeBuilder
	cb.Linef("// Code generated by cgal-rosetta-generator. DO NOT EDIT.")
	cb.Linef("")
	cb.Linef("// Package %v provides Go bindings for %v.", g.pkg, plan.Project)
	cb.Linef("package %v", g.pkg)
	cb.Linef("")
	cb.Linef("/*")
	cb.Linef("#cgo CXXFLAGS: -std=c++17")
	cb.Linef("#cgo CPPFLAGS: -I${SRCDIR}")
	cb.Linef("#include <stdlib.h>")
	cb.Linef(`#include "exports.h"`)
	cb.Linef("*/")
	cb.Linef(`import "C"`)
	cb.Linef("")
	cb.Linef("import (")
	cb.Indent++
	cb.Linef(`"runtime"`)
	cb.Linef(`"unsafe"`)
	cb.Indent--
	cb.Linef(")")
	cb.Linef("")
	cb.Linef("// Version is the native project version these bindings were generated from.")
	cb.Linef("const Version = %q", plan.Version)
	cb.Linef("")
	cb.Linef("func boolToC(b bool) C.int {")
	cb.Indent++
	cb.Linef("if b {")
	cb.Indent++
	cb.Linef("return 1")
	cb.Indent--
	cb.Linef("}")
	cb.Linef("return 0")
	cb.Indent--
	cb.Linef("}")
	cb.Linef("")
	cb.Linef("func goString(s *C.char) string {")
	cb.Indent++
	cb.Linef("defer C.rosetta_free_string(s)")
	cb.Linef("return C.GoString(s)")
	cb.Indent--
	cb.Linef("}")

	for _, c := range u.Classes {
		classSym := ir.Symbol{Kind: ir.SymClass, Name: c.Name}
		if !plan.Include(classSym) {
			continue
		}
		g.classSource(&cb, c, skipped)
	}

	for _, f := range u.Funcs {
		sym := ir.Symbol{Kind: ir.SymFunction, Name: f.Name}
		if !plan.Include(sym) || skipped[sym] {
			continue
		}
		name := goName(plan.Name(sym))
		cb.Linef("")
		cb.Linef("// %v calls the native function %v.", name, f.Name)
		cb.Linef("func %v(%v)%v {", name, g.goParams(f.Sig.Params), g.goResultDecl(f.Sig.Result))
		cb.Indent++
		writeCall(&cb, "rosetta_fn_"+f.Name, "", f.Sig)
		cb.Indent--
		cb.Linef("}")
	}

	if consts := g.includedConstants(skipped); len(consts) > 0 {
		cb.Linef("")
		cb.Linef("// Constants exported from the native library.")
		cb.Linef("var (")
		cb.Indent++
		for _, c := range consts {
			sym := ir.Symbol{Kind: ir.SymConstant, Name: c.Name}
			name := goName(plan.Name(sym))
			cb.Linef("%v = %v", name, cgoResult(c.Type, fmt.Sprintf("C.rosetta_const_%v()", c.Name)))
		}
		cb.Indent--
		cb.Linef(")")
	}

	return cb.String()
}

func (g *generator) includedConstants(skipped map[ir.Symbol]bool) []ir.Constant {
	var out []ir.Constant
	for _, c := range g.plan.Unit.Constants {
		sym := ir.Symbol{Kind: ir.SymConstant, Name: c.Name}
		if g.plan.Include(sym) && !skipped[sym] {
			out = append(out, c)
		}
	}
	return out
}

func (g *generator) classSource(cb *emit.CodeBuilder, c *ir.ClassInfo, skipped map[ir.Symbol]bool) {
	plan := g.plan
	classSym := ir.Symbol{Kind: ir.SymClass, Name: c.Name}
	goClass := goName(plan.Name(classSym))

	cb.Linef("")
	cb.Linef("// %v wraps the native %v class.", goClass, c.Name)
	cb.Linef("type %v struct {", goClass)
	cb.Indent++
	cb.Linef("h unsafe.Pointer")
	cb.Indent--
	cb.Linef("}")
	cb.Linef("")
	if c.Ownership == ir.OwnReference {
		// Reference-owned instances belong to the native library.
		cb.Linef("func new%v(h unsafe.Pointer) *%v {", c.Name, goClass)
		cb.Indent++
		cb.Linef("return &%v{h: h}", goClass)
		cb.Indent--
		cb.Linef("}")
	} else {
		cb.Linef("func new%v(h unsafe.Pointer) *%v {", c.Name, goClass)
		cb.Indent++
		cb.Linef("obj := &%v{h: h}", goClass)
		cb.Linef("runtime.SetFinalizer(obj, func(o *%v) { C.rosetta_%v_free(o.h) })", goClass, c.Name)
		cb.Linef("return obj")
		cb.Indent--
		cb.Linef("}")
	}
	cb.Linef("")
	cb.Linef("// borrow%v wraps a native pointer without taking ownership.", c.Name)
	cb.Linef("func borrow%v(h unsafe.Pointer) *%v {", c.Name, goClass)
	cb.Indent++
	cb.Linef("return &%v{h: h}", goClass)
	cb.Indent--
	cb.Linef("}")

	ctorIdx := 0
	for i, ctor := range c.Ctors {
		if !shimExists(g.shims, fmt.Sprintf("rosetta_%v_new%v(", c.Name, i)) {
			continue
		}
		ctorIdx++
		name := "New" + goClass
		if ctorIdx > 1 {
			name = fmt.Sprintf("New%v%v", goClass, ctorIdx)
		}
		cb.Linef("")
		cb.Linef("// %v constructs a new %v.", name, c.Name)
		cb.Linef("func %v(%v) *%v {", name, g.goParams(ctor.Params), goClass)
		cb.Indent++
		writeCall(cb, fmt.Sprintf("rosetta_%v_new%v", c.Name, i), "",
			ir.Signature{Result: ir.Type{Kind: ir.Class, Name: c.Name}, Params: ctor.Params})
		cb.Indent--
		cb.Linef("}")
	}

	for _, m := range c.Methods {
		sym := ir.Symbol{Kind: ir.SymMethod, Class: c.Name, Name: m.Name}
		if !plan.Include(sym) || skipped[sym] {
			continue
		}
		name := goName(plan.Name(sym))
		cb.Linef("")
		cb.Linef("func (o *%v) %v(%v)%v {", goClass, name, g.goParams(m.Sig.Params), g.goResultDecl(m.Sig.Result))
		cb.Indent++
		writeCall(cb, fmt.Sprintf("rosetta_%v_%v", c.Name, m.Name), "o.h", m.Sig)
		cb.Indent--
		cb.Linef("}")
	}

	for _, m := range c.Statics {
		sym := ir.Symbol{Kind: ir.SymStatic, Class: c.Name, Name: m.Name}
		if !plan.Include(sym) || skipped[sym] {
			continue
		}
		name := goName(plan.Name(sym))
		cb.Linef("")
		cb.Linef("// %v%v calls the static method %v::%v.", goClass, name, c.Name, m.Name)
		cb.Linef("func %v%v(%v)%v {", goClass, name, g.goParams(m.Sig.Params), g.goResultDecl(m.Sig.Result))
		cb.Indent++
		writeCall(cb, fmt.Sprintf("rosetta_%v_s_%v", c.Name, m.Name), "", m.Sig)
		cb.Indent--
		cb.Linef("}")
	}

	for _, f := range c.Fields {
		sym := ir.Symbol{Kind: ir.SymField, Class: c.Name, Name: f.Name}
		if !plan.Include(sym) || skipped[sym] {
			continue
		}
		name := goName(plan.Name(sym))
		cb.Linef("")
		cb.Linef("func (o *%v) %v() %v {", goClass, name, g.goTypeOf(f.Type))
		cb.Indent++
		writeCall(cb, fmt.Sprintf("rosetta_%v_get_%v", c.Name, f.Name), "o.h", ir.Signature{Result: f.Type})
		cb.Indent--
		cb.Linef("}")
		cb.Linef("")
		cb.Linef("func (o *%v) Set%v(v %v) {", goClass, name, g.goTypeOf(f.Type))
		cb.Indent++
		writeCall(cb, fmt.Sprintf("rosetta_%v_set_%v", c.Name, f.Name), "o.h",
			ir.Signature{Params: []ir.Param{{Name: "v", Type: f.Type}}})
		cb.Indent--
		cb.Linef("}")
	}
}

func shimExists(shims []shim, declPrefix string) bool {
	for _, s := range shims {
		if strings.Contains(s.decl, declPrefix) {
			return true
		}
	}
	return false
}

func (g *generator) goMod(modulePath string) string {
	var cb emit.CodeBuilder
	cb.Linef("module %v", modulePath)
	cb.Linef("")
	cb.Linef("go 1.24")
	return cb.String()
}

func (g *generator) exportsH() string {
	var cb emit.CodeBuilder
	cb.Linef("// Code generated by cgal-rosetta-generator. DO NOT EDIT.")
	cb.Linef("#pragma once")
	cb.Linef("")
	cb.Linef("#include <stddef.h>")
	cb.Linef("#include <stdint.h>")
	cb.Linef("")
	cb.Linef("#ifdef __cplusplus")
	cb.Linef(`extern "C" {`)
	cb.Linef("#endif")
	cb.Linef("")
	for _, s := range g.shims {
		cb.Linef("%v;", s.decl)
	}
	cb.Linef("")
	cb.Linef("#ifdef __cplusplus")
	cb.Linef("}")
	cb.Linef("#endif")
	return cb.String()
}

func (g *generator) exportsCpp() string {
	var cb emit.CodeBuilder
	cb.Linef("// Code generated by cgal-rosetta-generator. DO NOT EDIT.")
	cb.Linef(`#include "exports.h"`)
	cb.Linef("")
	for _, h := range g.includeHeaders() {
		cb.Linef("#include %q", h)
	}
	cb.Linef("#include <cstdlib>")
	cb.Linef("#include <cstring>")
	cb.Linef("#include <string>")
	cb.Linef("")
	cb.Linef("static char* rosetta_strdup(const std::string& s) {")
	cb.Indent++
	cb.Linef("char* out = static_cast<char*>(std::malloc(s.size() + 1));")
	cb.Linef("std::memcpy(out, s.c_str(), s.size() + 1);")
	cb.Linef("return out;")
	cb.Indent--
	cb.Linef("}")
	cb.Linef("")
	cb.Linef(`extern "C" {`)
	cb.Linef("")
	for _, s := range g.shims {
		cb.Linef("%v {", s.decl)
		cb.Indent++
		cb.Linef("%v", s.body)
		cb.Indent--
		cb.Linef("}")
		cb.Linef("")
	}
	cb.Linef("}")
	return cb.String()
}

// includeHeaders returns the sorted, deduplicated headers declaring the
// included classes, free functions and constants.
func (g *generator) includeHeaders() []string {
	seen := map[string]bool{}
	add := func(header string) {
		if header != "" {
			seen[header] = true
		}
	}
	for _, c := range g.plan.Unit.Classes {
		if g.plan.Include(ir.Symbol{Kind: ir.SymClass, Name: c.Name}) {
			add(c.Header)
		}
	}
	for _, f := range g.plan.Unit.Funcs {
		if g.plan.Include(ir.Symbol{Kind: ir.SymFunction, Name: f.Name}) {
			add(f.Header)
		}
	}
	for _, c := range g.plan.Unit.Constants {
		if g.plan.Include(ir.Symbol{Kind: ir.SymConstant, Name: c.Name}) {
			add(c.Header)
		}
	}
	out := make([]string, 0, len(seen))
	for header := range seen {
		out = append(out, header)
	}
	slices.Sort(out)
	return out
}
