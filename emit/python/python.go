// Package python emits the Python binding target: a pybind11 translation
// unit plus the packaging files that make `pip install ./generated/python`
// produce an importable module exposing the registered names.
package python

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rosettabind/cgal-rosetta/descriptor"
	"github.com/rosettabind/cgal-rosetta/emit"
	"github.com/rosettabind/cgal-rosetta/ir"
)

const defaultMinPython = "3.9"

// New returns the Python emitter.
func New() emit.Target { return target{} }

type target struct{}

func (target) Language() string { return descriptor.LangPython }

func (target) Emit(dir string, plan *emit.Plan, opts *descriptor.Target) ([]string, []emit.Skip, error) {
	minPython := opts.MinPython
	if minPython == "" {
		minPython = defaultMinPython
	}

	g := &generator{plan: plan, module: opts.Module}

	files := map[string]string{
		"bindings.cpp":   g.bindingsCpp(),
		"setup.py":       g.setupPy(),
		"pyproject.toml": g.pyprojectToml(minPython),

		filepath.Join(opts.Module, "__init__.py"):  g.initPy(),
		filepath.Join(opts.Module, "__init__.pyi"): g.initPyi(),
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
			return nil, nil, fmt.Errorf("python target: %w", err)
		}
		written = append(written, name)
	}
	return written, nil, nil
}

type generator struct {
	plan   *emit.Plan
	module string
}

// holderType returns the pybind11 class_ template arguments for a class,
// picking the holder from the registered ownership.
func holderType(c *ir.ClassInfo) string {
	switch c.Ownership {
	case ir.OwnShared:
		return fmt.Sprintf("%v, std::shared_ptr<%v>", c.Name, c.Name)
	case ir.OwnReference:
		return fmt.Sprintf("%v, std::unique_ptr<%v, pybind11::nodelete>", c.Name, c.Name)
	default:
		return c.Name
	}
}

func cppParamTypes(sig ir.Signature) string {
	var parts []string
	for _, p := range sig.Params {
		parts = append(parts, p.Type.String())
	}
	return strings.Join(parts, ", ")
}

// pyArgs returns the ", py::arg(...)" suffix for named parameters. Mixed
// named/unnamed parameter lists get no py::arg annotations at all, since
// pybind11 requires either all or none.
func pyArgs(sig ir.Signature) string {
	var b strings.Builder
	for _, p := range sig.Params {
		if p.Name == "" {
			return ""
		}
		fmt.Fprintf(&b, ", py::arg(\"%v\")", p.Name)
	}
	return b.String()
}

func (g *generator) bindingsCpp() string {
	plan := g.plan
	var cb emit.CodeBuilder

	cb.Linef(`// Code generated by cgal-rosetta-generator. DO NOT EDIT.`)
	cb.Linef(``)
	cb.Linef(`#include <pybind11/pybind11.h>`)
	if g.needsStl() {
		cb.Linef(`#include <pybind11/stl.h>`)
	}
	if g.needsMemory() {
		cb.Linef(`#include <memory>`)
	}
	cb.Linef(``)
	for _, header := range g.includeHeaders() {
		cb.Linef(`#include "%v"`, header)
	}
	cb.Linef(``)
	cb.Linef(`namespace py = pybind11;`)
	cb.Linef(``)
	cb.Linef(`PYBIND11_MODULE(_core, m) {`)
	cb.Indent++
	cb.Linef(`m.doc() = "%v %v bindings";`, plan.Project, plan.Version)
	cb.Linef(`m.attr("__version__") = "%v";`, plan.Version)

	for _, c := range plan.Unit.Classes {
		classSym := ir.Symbol{Kind: ir.SymClass, Name: c.Name}
		if !plan.Include(classSym) {
			continue
		}
		cb.Linef(``)
		cb.Linef(`py::class_<%v>(m, "%v")`, holderType(c), plan.Name(classSym))
		cb.Indent++
		for _, ctor := range c.Ctors {
			cb.Linef(`.def(py::init<%v>()%v)`, cppParamTypes(ctor), pyArgs(ctor))
		}
		for _, m := range c.Methods {
			sym := ir.Symbol{Kind: ir.SymMethod, Class: c.Name, Name: m.Name}
			if !plan.Include(sym) {
				continue
			}
			cb.Linef(`.def("%v", &%v::%v%v)`, plan.Name(sym), c.Name, m.Name, pyArgs(m.Sig))
		}
		for _, m := range c.Statics {
			sym := ir.Symbol{Kind: ir.SymStatic, Class: c.Name, Name: m.Name}
			if !plan.Include(sym) {
				continue
			}
			cb.Linef(`.def_static("%v", &%v::%v%v)`, plan.Name(sym), c.Name, m.Name, pyArgs(m.Sig))
		}
		for _, f := range c.Fields {
			sym := ir.Symbol{Kind: ir.SymField, Class: c.Name, Name: f.Name}
			if !plan.Include(sym) {
				continue
			}
			cb.Linef(`.def_readwrite("%v", &%v::%v)`, plan.Name(sym), c.Name, f.Name)
		}
		// Terminate the builder chain.
		cb.Linef(`;`)
		cb.Indent--
	}

	if len(plan.Unit.Funcs) > 0 {
		cb.Linef(``)
	}
	for _, f := range plan.Unit.Funcs {
		sym := ir.Symbol{Kind: ir.SymFunction, Name: f.Name}
		if !plan.Include(sym) {
			continue
		}
		cb.Linef(`m.def("%v", &%v%v);`, plan.Name(sym), f.Name, pyArgs(f.Sig))
	}

	if len(plan.Unit.Constants) > 0 {
		cb.Linef(``)
	}
	for _, c := range plan.Unit.Constants {
		sym := ir.Symbol{Kind: ir.SymConstant, Name: c.Name}
		if !plan.Include(sym) {
			continue
		}
		cb.Linef(`m.attr("%v") = py::cast(%v);`, plan.Name(sym), c.Name)
	}

	cb.Indent--
	cb.Linef(`}`)
	return cb.String()
}

// needsStl reports whether any bound signature uses an STL container or
// string, requiring pybind11/stl.h.
func (g *generator) needsStl() bool {
	found := false
	g.walkBoundTypes(func(t ir.Type) {
		switch t.Kind {
		case ir.String, ir.Vector, ir.Pair, ir.Tuple:
			found = true
		}
	})
	return found
}

func (g *generator) needsMemory() bool {
	for _, c := range g.plan.Unit.Classes {
		if c.Ownership == ir.OwnShared {
			return true
		}
	}
	return false
}

func (g *generator) walkBoundTypes(fn func(ir.Type)) {
	u := g.plan.Unit
	for _, c := range u.Classes {
		for _, ctor := range c.Ctors {
			ctor.Walk(fn)
		}
		for _, m := range c.Methods {
			m.Sig.Walk(fn)
		}
		for _, m := range c.Statics {
			m.Sig.Walk(fn)
		}
		for _, f := range c.Fields {
			f.Type.Walk(fn)
		}
	}
	for _, f := range u.Funcs {
		f.Sig.Walk(fn)
	}
	for _, c := range u.Constants {
		c.Type.Walk(fn)
	}
}

// includeHeaders returns the sorted, deduplicated headers declaring the
// included classes, free functions and constants.
func (g *generator) includeHeaders() []string {
	set := map[string]struct{}{}
	for _, c := range g.plan.Unit.Classes {
		if !g.plan.Include(ir.Symbol{Kind: ir.SymClass, Name: c.Name}) {
			continue
		}
		set[c.Header] = struct{}{}
	}
	for _, f := range g.plan.Unit.Funcs {
		if f.Header == "" || !g.plan.Include(ir.Symbol{Kind: ir.SymFunction, Name: f.Name}) {
			continue
		}
		set[f.Header] = struct{}{}
	}
	for _, c := range g.plan.Unit.Constants {
		if c.Header == "" || !g.plan.Include(ir.Symbol{Kind: ir.SymConstant, Name: c.Name}) {
			continue
		}
		set[c.Header] = struct{}{}
	}
	headers := make([]string, 0, len(set))
	for h := range set {
		headers = append(headers, h)
	}
	slices.Sort(headers)
	return headers
}

// exportedNames returns the visible names of all included top-level
// symbols: classes, free functions and constants.
func (g *generator) exportedNames() []string {
	var names []string
	for _, sym := range g.plan.Unit.Symbols() {
		switch sym.Kind {
		case ir.SymClass, ir.SymFunction, ir.SymConstant:
			if g.plan.Include(sym) {
				names = append(names, g.plan.Name(sym))
			}
		}
	}
	return names
}

func (g *generator) initPy() string {
	var cb emit.CodeBuilder
	cb.Linef(`"""%v %v bindings, generated by cgal-rosetta-generator."""`, g.plan.Project, g.plan.Version)
	cb.Linef(``)
	cb.Linef(`from ._core import *  # noqa: F401,F403`)
	cb.Linef(`from ._core import __version__  # noqa: F401`)
	cb.Linef(``)
	cb.Linef(`__all__ = [`)
	for _, name := range g.exportedNames() {
		cb.Linef(`    "%v",`, name)
	}
	cb.Linef(`]`)
	return cb.String()
}

// pyType maps a registration type to its Python annotation.
func pyType(t ir.Type) string {
	switch t.Kind {
	case ir.Void:
		return "None"
	case ir.Bool:
		return "bool"
	case ir.Int, ir.Int64, ir.UInt64:
		return "int"
	case ir.Float, ir.Double:
		return "float"
	case ir.String:
		return "str"
	case ir.Vector:
		return fmt.Sprintf("list[%v]", pyType(t.Elems[0]))
	case ir.Pair, ir.Tuple:
		var parts []string
		for _, e := range t.Elems {
			parts = append(parts, pyType(e))
		}
		return fmt.Sprintf("tuple[%v]", strings.Join(parts, ", "))
	case ir.Class:
		return t.Name
	default:
		panic(fmt.Sprintf("invalid type kind: %d", int(t.Kind)))
	}
}

func pyiParams(sig ir.Signature, method bool) string {
	parts := []string{}
	if method {
		parts = append(parts, "self")
	}
	for i, p := range sig.Params {
		name := p.Name
		if name == "" {
			name = fmt.Sprintf("arg%v", i)
		}
		parts = append(parts, fmt.Sprintf("%v: %v", name, pyType(p.Type)))
	}
	return strings.Join(parts, ", ")
}

func (g *generator) initPyi() string {
	plan := g.plan
	var cb emit.CodeBuilder
	cb.Linef(`# Stub file generated by cgal-rosetta-generator.`)
	cb.Linef(``)
	cb.Linef(`__version__: str`)

	for _, c := range plan.Unit.Classes {
		classSym := ir.Symbol{Kind: ir.SymClass, Name: c.Name}
		if !plan.Include(classSym) {
			continue
		}
		cb.Linef(``)
		cb.Linef(`class %v:`, plan.Name(classSym))
		cb.Indent++
		empty := true
		for _, f := range c.Fields {
			sym := ir.Symbol{Kind: ir.SymField, Class: c.Name, Name: f.Name}
			if !plan.Include(sym) {
				continue
			}
			cb.Linef(`%v: %v`, plan.Name(sym), pyType(f.Type))
			empty = false
		}
		for _, ctor := range c.Ctors {
			cb.Linef(`def __init__(%v) -> None: ...`, pyiParams(ctor, true))
			empty = false
		}
		for _, m := range c.Methods {
			sym := ir.Symbol{Kind: ir.SymMethod, Class: c.Name, Name: m.Name}
			if !plan.Include(sym) {
				continue
			}
			cb.Linef(`def %v(%v) -> %v: ...`, plan.Name(sym), pyiParams(m.Sig, true), pyType(m.Sig.Result))
			empty = false
		}
		for _, m := range c.Statics {
			sym := ir.Symbol{Kind: ir.SymStatic, Class: c.Name, Name: m.Name}
			if !plan.Include(sym) {
				continue
			}
			cb.Linef(`@staticmethod`)
			cb.Linef(`def %v(%v) -> %v: ...`, plan.Name(sym), pyiParams(m.Sig, false), pyType(m.Sig.Result))
			empty = false
		}
		if empty {
			cb.Linef(`...`)
		}
		cb.Indent--
	}

	for _, f := range plan.Unit.Funcs {
		sym := ir.Symbol{Kind: ir.SymFunction, Name: f.Name}
		if !plan.Include(sym) {
			continue
		}
		cb.Linef(``)
		cb.Linef(`def %v(%v) -> %v: ...`, plan.Name(sym), pyiParams(f.Sig, false), pyType(f.Sig.Result))
	}

	if len(plan.Unit.Constants) > 0 {
		cb.Linef(``)
	}
	for _, c := range plan.Unit.Constants {
		sym := ir.Symbol{Kind: ir.SymConstant, Name: c.Name}
		if !plan.Include(sym) {
			continue
		}
		cb.Linef(`%v: %v`, plan.Name(sym), pyType(c.Type))
	}
	return cb.String()
}

func (g *generator) setupPy() string {
	var cb emit.CodeBuilder
	cb.Linef(`# Generated by cgal-rosetta-generator.`)
	cb.Linef(``)
	cb.Linef(`from pybind11.setup_helpers import Pybind11Extension, build_ext`)
	cb.Linef(`from setuptools import setup`)
	cb.Linef(``)
	cb.Linef(`ext_modules = [`)
	cb.Linef(`    Pybind11Extension(`)
	cb.Linef(`        "%v._core",`, g.module)
	cb.Linef(`        ["bindings.cpp"],`)
	cb.Linef(`        cxx_std=17,`)
	cb.Linef(`    ),`)
	cb.Linef(`]`)
	cb.Linef(``)
	cb.Linef(`setup(`)
	cb.Linef(`    name="%v",`, g.module)
	cb.Linef(`    version="%v",`, strings.TrimPrefix(g.plan.Version, "v"))
	cb.Linef(`    packages=["%v"],`, g.module)
	cb.Linef(`    package_data={"%v": ["__init__.pyi"]},`, g.module)
	cb.Linef(`    ext_modules=ext_modules,`)
	cb.Linef(`    cmdclass={"build_ext": build_ext},`)
	cb.Linef(`)`)
	return cb.String()
}

func (g *generator) pyprojectToml(minPython string) string {
	var cb emit.CodeBuilder
	cb.Linef(`# Generated by cgal-rosetta-generator.`)
	cb.Linef(``)
	cb.Linef(`[build-system]`)
	cb.Linef(`requires = ["setuptools>=64", "pybind11>=2.12"]`)
	cb.Linef(`build-backend = "setuptools.build_meta"`)
	cb.Linef(``)
	cb.Linef(`[project]`)
	cb.Linef(`name = "%v"`, g.module)
	cb.Linef(`version = "%v"`, strings.TrimPrefix(g.plan.Version, "v"))
	cb.Linef(`description = "%v %v bindings"`, g.plan.Project, g.plan.Version)
	cb.Linef(`requires-python = ">=%v"`, minPython)
	return cb.String()
}
