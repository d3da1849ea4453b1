// Package ir holds the intermediate representation of a registration set:
// the native classes, functions and constants a user declared for binding
// generation, together with a small model of the C++ types appearing in
// their signatures.
//
// The IR is produced by the registry package and consumed by the emitters.
package ir

import (
	"fmt"
	"strings"
)

// Ownership describes how bound objects of a class are held by the
// target language runtime.
type Ownership int

const (
	// OwnValue: the binding owns a copy of the object.
	OwnValue Ownership = iota
	// OwnReference: the binding holds a non-owning reference; the native
	// side controls the lifetime.
	OwnReference
	// OwnShared: the object is held through std::shared_ptr.
	OwnShared
)

func (o Ownership) String() string {
	switch o {
	case OwnValue:
		return "value"
	case OwnReference:
		return "reference"
	case OwnShared:
		return "shared"
	default:
		panic(fmt.Sprintf("invalid ownership: %d", int(o)))
	}
}

// ParseOwnership parses the ownership keyword used in class registrations.
func ParseOwnership(s string) (Ownership, error) {
	switch s {
	case "value":
		return OwnValue, nil
	case "reference":
		return OwnReference, nil
	case "shared":
		return OwnShared, nil
	default:
		return 0, fmt.Errorf("unknown ownership %q (want value, reference or shared)", s)
	}
}

// Kind is the category of a C++ type in a registered signature.
type Kind int

const (
	Void Kind = iota
	Bool
	Int
	Int64
	UInt64
	Float
	Double
	String // std::string
	Vector // std::vector<T>
	Pair   // std::pair<A, B>
	Tuple  // std::tuple<T...>
	Class  // a registered class
)

// Type is a C++ type as it appears in a registration signature.
type Type struct {
	Kind  Kind
	Name  string // class name, set iff Kind == Class
	Elems []Type // element types for Vector (1), Pair (2), Tuple (n)

	Const bool
	Ref   bool
	Ptr   bool
}

// IsPlain reports whether t carries no const/ref/pointer qualifiers.
func (t Type) IsPlain() bool {
	return !t.Const && !t.Ref && !t.Ptr
}

// Base returns t with all qualifiers stripped.
func (t Type) Base() Type {
	t.Const = false
	t.Ref = false
	t.Ptr = false
	return t
}

// String returns the C++ spelling of t.
func (t Type) String() string {
	var b strings.Builder
	if t.Const {
		b.WriteString("const ")
	}
	switch t.Kind {
	case Void:
		b.WriteString("void")
	case Bool:
		b.WriteString("bool")
	case Int:
		b.WriteString("int")
	case Int64:
		b.WriteString("int64_t")
	case UInt64:
		b.WriteString("uint64_t")
	case Float:
		b.WriteString("float")
	case Double:
		b.WriteString("double")
	case String:
		b.WriteString("std::string")
	case Vector:
		fmt.Fprintf(&b, "std::vector<%v>", t.Elems[0])
	case Pair:
		fmt.Fprintf(&b, "std::pair<%v, %v>", t.Elems[0], t.Elems[1])
	case Tuple:
		b.WriteString("std::tuple<")
		for i, e := range t.Elems {
			if i != 0 {
				b.WriteString(", ")
			}
			b.WriteString(e.String())
		}
		b.WriteString(">")
	case Class:
		b.WriteString(t.Name)
	default:
		panic(fmt.Sprintf("invalid type kind: %d", int(t.Kind)))
	}
	if t.Ref {
		b.WriteString("&")
	}
	if t.Ptr {
		b.WriteString("*")
	}
	return b.String()
}

// Walk calls fn for t and every type nested in it.
func (t Type) Walk(fn func(Type)) {
	fn(t)
	for _, e := range t.Elems {
		e.Walk(fn)
	}
}

// Param is a single parameter of a signature.
type Param struct {
	Name string // may be empty
	Type Type
}

// Signature is a parsed "Result(Params...)" registration signature.
type Signature struct {
	Result Type
	Params []Param
}

func (s Signature) String() string {
	var b strings.Builder
	b.WriteString(s.Result.String())
	b.WriteString("(")
	for i, p := range s.Params {
		if i != 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Type.String())
		if p.Name != "" {
			b.WriteString(" ")
			b.WriteString(p.Name)
		}
	}
	b.WriteString(")")
	return b.String()
}

// Walk calls fn for every type appearing in the signature.
func (s Signature) Walk(fn func(Type)) {
	s.Result.Walk(fn)
	for _, p := range s.Params {
		p.Type.Walk(fn)
	}
}

// Func is a registered free function, method or static method. Header
// names the header declaring a free function; members inherit their
// class's header and leave it empty.
type Func struct {
	Name   string
	Sig    Signature
	Header string
}

func (f Func) String() string {
	return f.Name + f.Sig.String()
}

// Field is a registered public data member of a class.
type Field struct {
	Name string
	Type Type
}

// ClassInfo is a registered class: the native entity, the header declaring
// it, and the symbols exposed on it.
type ClassInfo struct {
	Name      string
	Header    string
	Ownership Ownership

	Ctors   []Signature
	Methods []Func
	Statics []Func
	Fields  []Field
}

// Constant is a registered native constant. Header, when set, names the
// header declaring it.
type Constant struct {
	Name   string
	Type   Type
	Header string
}

// Unit is a complete registration set in declaration order.
type Unit struct {
	Classes   []*ClassInfo
	Funcs     []Func
	Constants []Constant
}

// Class returns the registered class with the given name, or nil.
func (u *Unit) Class(name string) *ClassInfo {
	for _, c := range u.Classes {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Empty reports whether the unit registers nothing at all.
func (u *Unit) Empty() bool {
	return len(u.Classes) == 0 && len(u.Funcs) == 0 && len(u.Constants) == 0
}

// Check verifies cross-references inside the unit: every class type used in
// a signature, field or constant must itself be registered.
func (u *Unit) Check() error {
	var errs []string
	checkType := func(where string, t Type) {
		t.Walk(func(t Type) {
			if t.Kind == Class && u.Class(t.Name) == nil {
				errs = append(errs, fmt.Sprintf("%v: class %v is not registered", where, t.Name))
			}
		})
	}
	checkSig := func(where string, sig Signature) {
		sig.Walk(func(t Type) {
			if t.Kind == Class && u.Class(t.Name) == nil {
				errs = append(errs, fmt.Sprintf("%v: class %v is not registered", where, t.Name))
			}
		})
	}

	for _, c := range u.Classes {
		for _, ctor := range c.Ctors {
			checkSig(c.Name+" constructor", ctor)
		}
		for _, m := range c.Methods {
			checkSig(c.Name+"."+m.Name, m.Sig)
		}
		for _, m := range c.Statics {
			checkSig(c.Name+"::"+m.Name, m.Sig)
		}
		for _, f := range c.Fields {
			checkType(c.Name+"."+f.Name, f.Type)
		}
	}
	for _, f := range u.Funcs {
		checkSig(f.Name, f.Sig)
	}
	for _, c := range u.Constants {
		checkType(c.Name, c.Type)
	}

	if len(errs) > 0 {
		return fmt.Errorf("registration check failed:\n\t%v", strings.Join(errs, "\n\t"))
	}
	return nil
}

// SymbolKind categorizes a symbol for rule matching.
type SymbolKind int

const (
	SymClass SymbolKind = iota
	SymFunction
	SymMethod
	SymStatic
	SymField
	SymConstant
)

func (k SymbolKind) String() string {
	switch k {
	case SymClass:
		return "class"
	case SymFunction:
		return "function"
	case SymMethod:
		return "method"
	case SymStatic:
		return "static"
	case SymField:
		return "field"
	case SymConstant:
		return "constant"
	default:
		panic(fmt.Sprintf("invalid symbol kind: %d", int(k)))
	}
}

// SymbolKindFromString parses a kind keyword as used in rule files.
func SymbolKindFromString(s string) (SymbolKind, bool) {
	for _, k := range []SymbolKind{SymClass, SymFunction, SymMethod, SymStatic, SymField, SymConstant} {
		if strings.EqualFold(s, k.String()) {
			return k, true
		}
	}
	return -1, false
}

// Symbol identifies a bindable symbol inside a unit. Class is empty for
// free functions, constants and classes themselves.
type Symbol struct {
	Kind  SymbolKind
	Class string
	Name  string
}

func (s Symbol) String() string {
	if s.Class != "" {
		return s.Class + "." + s.Name
	}
	return s.Name
}

// Symbols enumerates every bindable symbol of the unit in declaration order.
func (u *Unit) Symbols() []Symbol {
	var syms []Symbol
	for _, c := range u.Classes {
		syms = append(syms, Symbol{Kind: SymClass, Name: c.Name})
		for _, m := range c.Methods {
			syms = append(syms, Symbol{Kind: SymMethod, Class: c.Name, Name: m.Name})
		}
		for _, m := range c.Statics {
			syms = append(syms, Symbol{Kind: SymStatic, Class: c.Name, Name: m.Name})
		}
		for _, f := range c.Fields {
			syms = append(syms, Symbol{Kind: SymField, Class: c.Name, Name: f.Name})
		}
	}
	for _, f := range u.Funcs {
		syms = append(syms, Symbol{Kind: SymFunction, Name: f.Name})
	}
	for _, c := range u.Constants {
		syms = append(syms, Symbol{Kind: SymConstant, Name: c.Name})
	}
	return syms
}
