// Package registry parses the user-maintained registration header.
//
// Registrations are declarative ROSETTA_* macro invocations inside an
// ordinary C++ header. The native build expands them through the external
// registration macro system; this package only reads them to learn which
// entities get bindings. All other C++ text in the file is ignored.
package registry

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rosettabind/cgal-rosetta/ir"
)

// ParseFile reads and parses a registration header.
func ParseFile(path string) (*ir.Unit, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(path, src)
}

// Parse parses registration macros out of src. filename is for errors.
func Parse(filename string, src []byte) (*ir.Unit, error) {
	calls, err := scanCalls(filename, src)
	if err != nil {
		return nil, err
	}

	unit := &ir.Unit{}
	for _, call := range calls {
		if err := applyCall(unit, call); err != nil {
			return nil, fmt.Errorf("%v:%v: %v: %w", filename, call.line, call.name, err)
		}
	}
	if unit.Empty() {
		return nil, fmt.Errorf("%v: no registrations found", filename)
	}
	return unit, nil
}

func applyCall(unit *ir.Unit, call macroCall) error {
	// min/max argument counts. FUNCTION and CONSTANT take an optional
	// trailing header argument.
	argc := map[string][2]int{
		"ROSETTA_CLASS":    {3, 3},
		"ROSETTA_CTOR":     {2, 2},
		"ROSETTA_METHOD":   {3, 3},
		"ROSETTA_STATIC":   {3, 3},
		"ROSETTA_FIELD":    {3, 3},
		"ROSETTA_FUNCTION": {2, 3},
		"ROSETTA_CONSTANT": {2, 3},
	}
	want, ok := argc[call.name]
	if !ok {
		return fmt.Errorf("unknown registration macro")
	}
	if len(call.args) < want[0] || len(call.args) > want[1] {
		if want[0] == want[1] {
			return fmt.Errorf("want %v arguments, got %v", want[0], len(call.args))
		}
		return fmt.Errorf("want %v to %v arguments, got %v", want[0], want[1], len(call.args))
	}

	class := func(arg argument) (*ir.ClassInfo, error) {
		if !arg.isIdent() {
			return nil, fmt.Errorf("class argument must be an identifier, got %v", arg)
		}
		c := unit.Class(arg.text)
		if c == nil {
			return nil, fmt.Errorf("class %v is not registered (ROSETTA_CLASS must come first)", arg.text)
		}
		return c, nil
	}
	str := func(arg argument) (string, error) {
		if !arg.quoted {
			return "", fmt.Errorf("argument %v must be a quoted string", arg)
		}
		return arg.text, nil
	}
	hasFunc := func(fns []ir.Func, name string) bool {
		for _, f := range fns {
			if f.Name == name {
				return true
			}
		}
		return false
	}

	switch call.name {
	case "ROSETTA_CLASS":
		if !call.args[0].isIdent() {
			return fmt.Errorf("class name must be an identifier, got %v", call.args[0])
		}
		name := call.args[0].text
		if unit.Class(name) != nil {
			return fmt.Errorf("class %v registered twice", name)
		}
		header, err := str(call.args[1])
		if err != nil {
			return err
		}
		if call.args[2].quoted {
			return fmt.Errorf("ownership must be a bare keyword")
		}
		own, err := ir.ParseOwnership(call.args[2].text)
		if err != nil {
			return err
		}
		unit.Classes = append(unit.Classes, &ir.ClassInfo{
			Name:      name,
			Header:    header,
			Ownership: own,
		})
	case "ROSETTA_CTOR":
		c, err := class(call.args[0])
		if err != nil {
			return err
		}
		s, err := str(call.args[1])
		if err != nil {
			return err
		}
		params, err := ir.ParseParams(s)
		if err != nil {
			return err
		}
		c.Ctors = append(c.Ctors, ir.Signature{
			Result: ir.Type{Kind: ir.Class, Name: c.Name},
			Params: params,
		})
	case "ROSETTA_METHOD", "ROSETTA_STATIC":
		c, err := class(call.args[0])
		if err != nil {
			return err
		}
		if !call.args[1].isIdent() {
			return fmt.Errorf("method name must be an identifier, got %v", call.args[1])
		}
		s, err := str(call.args[2])
		if err != nil {
			return err
		}
		sig, err := ir.ParseSignature(s)
		if err != nil {
			return err
		}
		name := call.args[1].text
		// Methods and statics share the class scope in C++, so a name
		// may appear in neither list yet.
		if hasFunc(c.Methods, name) || hasFunc(c.Statics, name) {
			return fmt.Errorf("%v.%v registered twice", c.Name, name)
		}
		fn := ir.Func{Name: name, Sig: sig}
		if call.name == "ROSETTA_METHOD" {
			c.Methods = append(c.Methods, fn)
		} else {
			c.Statics = append(c.Statics, fn)
		}
	case "ROSETTA_FIELD":
		c, err := class(call.args[0])
		if err != nil {
			return err
		}
		if !call.args[1].isIdent() {
			return fmt.Errorf("field name must be an identifier, got %v", call.args[1])
		}
		s, err := str(call.args[2])
		if err != nil {
			return err
		}
		typ, err := ir.ParseType(s)
		if err != nil {
			return err
		}
		name := call.args[1].text
		for _, f := range c.Fields {
			if f.Name == name {
				return fmt.Errorf("%v.%v registered twice", c.Name, name)
			}
		}
		c.Fields = append(c.Fields, ir.Field{Name: name, Type: typ})
	case "ROSETTA_FUNCTION":
		if !call.args[0].isIdent() {
			return fmt.Errorf("function name must be an identifier, got %v", call.args[0])
		}
		s, err := str(call.args[1])
		if err != nil {
			return err
		}
		sig, err := ir.ParseSignature(s)
		if err != nil {
			return err
		}
		name := call.args[0].text
		if hasFunc(unit.Funcs, name) {
			return fmt.Errorf("function %v registered twice", name)
		}
		fn := ir.Func{Name: name, Sig: sig}
		if len(call.args) == 3 {
			if fn.Header, err = str(call.args[2]); err != nil {
				return err
			}
		}
		unit.Funcs = append(unit.Funcs, fn)
	case "ROSETTA_CONSTANT":
		if !call.args[0].isIdent() {
			return fmt.Errorf("constant name must be an identifier, got %v", call.args[0])
		}
		s, err := str(call.args[1])
		if err != nil {
			return err
		}
		typ, err := ir.ParseType(s)
		if err != nil {
			return err
		}
		name := call.args[0].text
		for _, c := range unit.Constants {
			if c.Name == name {
				return fmt.Errorf("constant %v registered twice", name)
			}
		}
		cst := ir.Constant{Name: name, Type: typ}
		if len(call.args) == 3 {
			if cst.Header, err = str(call.args[2]); err != nil {
				return err
			}
		}
		unit.Constants = append(unit.Constants, cst)
	}
	return nil
}

type argument struct {
	text   string
	quoted bool
}

func (a argument) isIdent() bool {
	if a.quoted || a.text == "" {
		return false
	}
	for i, r := range a.text {
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

func (a argument) String() string {
	if a.quoted {
		return strconv.Quote(a.text)
	}
	return a.text
}

type macroCall struct {
	name string
	line int
	args []argument
}

// scanCalls extracts ROSETTA_* macro invocations from C++ source,
// skipping comments, string literals and preprocessor lines.
func scanCalls(filename string, src []byte) ([]macroCall, error) {
	s := scanner{filename: filename, src: src, line: 1}
	var calls []macroCall
	for {
		s.skipNonCode()
		if s.eof() {
			return calls, nil
		}
		word := s.scanWord()
		if word == "" {
			if s.peek() == '"' {
				s.skipString()
			} else {
				s.next()
			}
			continue
		}
		if !strings.HasPrefix(word, "ROSETTA_") {
			continue
		}
		call := macroCall{name: word, line: s.line}
		args, err := s.scanArgs()
		if err != nil {
			return nil, err
		}
		call.args = args
		calls = append(calls, call)
	}
}

type scanner struct {
	filename string
	src      []byte
	pos      int
	line     int
}

func (s *scanner) eof() bool { return s.pos >= len(s.src) }

func (s *scanner) errorf(format string, args ...any) error {
	return fmt.Errorf("%v:%v: %v", s.filename, s.line, fmt.Sprintf(format, args...))
}

func (s *scanner) peek() byte {
	if s.eof() {
		return 0
	}
	return s.src[s.pos]
}

func (s *scanner) next() byte {
	c := s.src[s.pos]
	s.pos++
	if c == '\n' {
		s.line++
	}
	return c
}

// skipNonCode consumes whitespace, comments and preprocessor lines.
func (s *scanner) skipNonCode() {
	for !s.eof() {
		c := s.peek()
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			s.next()
		case c == '#':
			for !s.eof() && s.peek() != '\n' {
				s.next()
			}
		case c == '/' && s.pos+1 < len(s.src) && s.src[s.pos+1] == '/':
			for !s.eof() && s.peek() != '\n' {
				s.next()
			}
		case c == '/' && s.pos+1 < len(s.src) && s.src[s.pos+1] == '*':
			s.next()
			s.next()
			for !s.eof() {
				if s.peek() == '*' && s.pos+1 < len(s.src) && s.src[s.pos+1] == '/' {
					s.next()
					s.next()
					break
				}
				s.next()
			}
		default:
			return
		}
	}
}

// skipString consumes a double-quoted string literal.
func (s *scanner) skipString() {
	s.next()
	for !s.eof() {
		c := s.next()
		if c == '\\' && !s.eof() {
			s.next()
			continue
		}
		if c == '"' {
			return
		}
	}
}

func (s *scanner) scanWord() string {
	start := s.pos
	for !s.eof() {
		c := s.peek()
		if c == '_' ||
			c >= 'a' && c <= 'z' ||
			c >= 'A' && c <= 'Z' ||
			c >= '0' && c <= '9' {
			s.next()
		} else {
			break
		}
	}
	return string(s.src[start:s.pos])
}

// scanArgs parses "(arg, arg, ...)". Arguments are either bare tokens or
// double-quoted strings; quoted strings may contain commas and parens.
func (s *scanner) scanArgs() ([]argument, error) {
	s.skipNonCode()
	if s.eof() || s.peek() != '(' {
		return nil, s.errorf("expected '(' after registration macro")
	}
	s.next()

	var args []argument
	var cur strings.Builder
	curQuoted := false
	haveCur := false
	flush := func() error {
		text := strings.TrimSpace(cur.String())
		if !haveCur || (text == "" && !curQuoted) {
			return s.errorf("empty macro argument")
		}
		args = append(args, argument{text: text, quoted: curQuoted})
		cur.Reset()
		curQuoted = false
		haveCur = false
		return nil
	}

	depth := 0
	for {
		if s.eof() {
			return nil, s.errorf("unclosed registration macro")
		}
		c := s.peek()
		switch {
		case c == '"':
			s.next()
			if haveCur && cur.Len() > 0 {
				return nil, s.errorf("unexpected string literal")
			}
			haveCur = true
			curQuoted = true
			for {
				if s.eof() {
					return nil, s.errorf("unterminated string literal")
				}
				q := s.next()
				if q == '\\' && !s.eof() {
					cur.WriteByte(s.next())
					continue
				}
				if q == '"' {
					break
				}
				cur.WriteByte(q)
			}
		case c == '(':
			depth++
			haveCur = true
			cur.WriteByte(s.next())
		case c == ')':
			if depth == 0 {
				s.next()
				if haveCur || len(args) > 0 {
					if err := flush(); err != nil {
						return nil, err
					}
				}
				return args, nil
			}
			depth--
			cur.WriteByte(s.next())
		case c == ',' && depth == 0:
			s.next()
			if err := flush(); err != nil {
				return nil, err
			}
		case c == '/' || c == '\n' || c == ' ' || c == '\t' || c == '\r' || c == '#':
			s.skipNonCode()
			if !s.eof() && s.peek() == c && (c == '/') {
				// A bare '/' that did not start a comment.
				haveCur = true
				cur.WriteByte(s.next())
			}
		default:
			haveCur = true
			cur.WriteByte(s.next())
		}
	}
}
