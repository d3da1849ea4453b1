package ir

import (
	"fmt"
	"strings"
	"unicode"
)

// ParseType parses the C++ spelling of a registration type, e.g.
// "const std::vector<double>&" or "Mesh*".
func ParseType(s string) (Type, error) {
	t, rest, err := parseType(strings.TrimSpace(s))
	if err != nil {
		return Type{}, fmt.Errorf("parse type %q: %w", s, err)
	}
	if rest = strings.TrimSpace(rest); rest != "" {
		return Type{}, fmt.Errorf("parse type %q: trailing %q", s, rest)
	}
	return t, nil
}

// ParseSignature parses a "Result(Param, Param name, ...)" registration
// signature string.
func ParseSignature(s string) (Signature, error) {
	open := indexTopLevel(s, '(')
	if open == -1 || !strings.HasSuffix(strings.TrimSpace(s), ")") {
		return Signature{}, fmt.Errorf("parse signature %q: want form \"Result(Params)\"", s)
	}
	res, err := ParseType(s[:open])
	if err != nil {
		return Signature{}, fmt.Errorf("parse signature %q: result: %w", s, err)
	}
	params, err := ParseParams(strings.TrimSpace(s[open:]))
	if err != nil {
		return Signature{}, fmt.Errorf("parse signature %q: %w", s, err)
	}
	return Signature{Result: res, Params: params}, nil
}

// ParseParams parses a parenthesized parameter list, e.g.
// "(std::string path, double eps)". Used for constructor registrations,
// which carry no result type.
func ParseParams(s string) ([]Param, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "(") || !strings.HasSuffix(s, ")") {
		return nil, fmt.Errorf("parse params %q: want parenthesized list", s)
	}
	inner := strings.TrimSpace(s[1 : len(s)-1])
	if inner == "" {
		return nil, nil
	}
	var params []Param
	for _, part := range splitTopLevel(inner, ',') {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, fmt.Errorf("parse params %q: empty parameter", s)
		}
		typ, rest, err := parseType(part)
		if err != nil {
			return nil, fmt.Errorf("parse params %q: %w", s, err)
		}
		name := strings.TrimSpace(rest)
		if name != "" && !isIdent(name) {
			return nil, fmt.Errorf("parse params %q: bad parameter name %q", s, name)
		}
		if typ.Kind == Void && typ.IsPlain() {
			return nil, fmt.Errorf("parse params %q: void parameter", s)
		}
		params = append(params, Param{Name: name, Type: typ})
	}
	return params, nil
}

var baseTypes = map[string]Kind{
	"void":        Void,
	"bool":        Bool,
	"int":         Int,
	"int64_t":     Int64,
	"uint64_t":    UInt64,
	"size_t":      UInt64,
	"float":       Float,
	"double":      Double,
	"std::string": String,
}

// parseType consumes one type from the front of s and returns the rest.
func parseType(s string) (Type, string, error) {
	s = strings.TrimSpace(s)

	var t Type
	if rest, ok := strings.CutPrefix(s, "const "); ok {
		t.Const = true
		s = strings.TrimSpace(rest)
	}

	word, rest := cutIdentPath(s)
	if word == "" {
		return Type{}, "", fmt.Errorf("expected type name at %q", s)
	}

	switch word {
	case "std::vector", "std::pair", "std::tuple":
		elems, r, err := parseTypeArgs(rest)
		if err != nil {
			return Type{}, "", err
		}
		rest = r
		switch word {
		case "std::vector":
			if len(elems) != 1 {
				return Type{}, "", fmt.Errorf("std::vector wants 1 type argument, got %v", len(elems))
			}
			t.Kind = Vector
		case "std::pair":
			if len(elems) != 2 {
				return Type{}, "", fmt.Errorf("std::pair wants 2 type arguments, got %v", len(elems))
			}
			t.Kind = Pair
		case "std::tuple":
			if len(elems) == 0 {
				return Type{}, "", fmt.Errorf("std::tuple wants at least 1 type argument")
			}
			t.Kind = Tuple
		}
		t.Elems = elems
	default:
		if kind, ok := baseTypes[word]; ok {
			t.Kind = kind
		} else if isIdent(word) && unicode.IsUpper(rune(word[0])) {
			t.Kind = Class
			t.Name = word
		} else {
			return Type{}, "", fmt.Errorf("unsupported type %q", word)
		}
	}

	rest = strings.TrimSpace(rest)
	if r, ok := strings.CutPrefix(rest, "&"); ok {
		t.Ref = true
		rest = r
	} else if r, ok := strings.CutPrefix(rest, "*"); ok {
		t.Ptr = true
		rest = r
	}
	return t, rest, nil
}

// parseTypeArgs parses "<T, U, ...>" at the front of s.
func parseTypeArgs(s string) ([]Type, string, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "<") {
		return nil, "", fmt.Errorf("expected '<' at %q", s)
	}
	depth := 0
	end := -1
	for i, r := range s {
		switch r {
		case '<':
			depth++
		case '>':
			depth--
			if depth == 0 {
				end = i
			}
		}
		if end != -1 {
			break
		}
	}
	if end == -1 {
		return nil, "", fmt.Errorf("unclosed '<' at %q", s)
	}
	var elems []Type
	for _, part := range splitTopLevel(s[1:end], ',') {
		e, rest, err := parseType(part)
		if err != nil {
			return nil, "", err
		}
		if rest = strings.TrimSpace(rest); rest != "" {
			return nil, "", fmt.Errorf("trailing %q in type argument", rest)
		}
		elems = append(elems, e)
	}
	return elems, strings.TrimSpace(s[end+1:]), nil
}

// cutIdentPath cuts a (possibly std::-qualified) identifier from the front
// of s.
func cutIdentPath(s string) (word, rest string) {
	i := 0
	for i < len(s) {
		c := s[i]
		if c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' {
			i++
		} else if c == ':' && i+1 < len(s) && s[i+1] == ':' {
			i += 2
		} else {
			break
		}
	}
	return s[:i], s[i:]
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}

// splitTopLevel splits s at sep, ignoring separators nested in angle
// brackets or parentheses.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<', '(':
			depth++
		case '>', ')':
			depth--
		case sep:
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}

// indexTopLevel returns the index of the first unnested occurrence of c.
func indexTopLevel(s string, c byte) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<':
			depth++
		case '>':
			depth--
		default:
			if s[i] == c && depth == 0 {
				return i
			}
		}
	}
	return -1
}
