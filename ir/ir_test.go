package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	tests := []struct {
		in   string
		want string // round-tripped spelling; "" means parse error expected
	}{
		{"void", "void"},
		{"bool", "bool"},
		{"int", "int"},
		{"int64_t", "int64_t"},
		{"uint64_t", "uint64_t"},
		{"size_t", "uint64_t"},
		{"float", "float"},
		{"double", "double"},
		{"std::string", "std::string"},
		{"const std::string&", "const std::string&"},
		{"std::vector<double>", "std::vector<double>"},
		{"std::vector<std::vector<int>>", "std::vector<std::vector<int>>"},
		{"std::pair<int, int>", "std::pair<int, int>"},
		{"std::tuple<Mesh, std::vector<std::pair<int, int>>>", "std::tuple<Mesh, std::vector<std::pair<int, int>>>"},
		{"Mesh", "Mesh"},
		{"const Mesh&", "const Mesh&"},
		{"Mesh*", "Mesh*"},
		{"  double  ", "double"},

		{"", ""},
		{"std::vector<>", ""},
		{"std::vector<int, int>", ""},
		{"std::pair<int>", ""},
		{"std::map<int, int>", ""},
		{"unsigned", ""},
		{"double trailing garbage", ""},
		{"std::vector<int", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			typ, err := ParseType(tt.in)
			if tt.want == "" {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, typ.String())
		})
	}
}

func TestParseSignature(t *testing.T) {
	sig, err := ParseSignature("std::pair<Mesh, Mesh>(const Mesh& a, const Mesh& b, double eps)")
	require.NoError(t, err)
	assert.Equal(t, Pair, sig.Result.Kind)
	require.Len(t, sig.Params, 3)
	assert.Equal(t, "a", sig.Params[0].Name)
	assert.Equal(t, "Mesh", sig.Params[0].Type.Name)
	assert.True(t, sig.Params[0].Type.Const)
	assert.True(t, sig.Params[0].Type.Ref)
	assert.Equal(t, "eps", sig.Params[2].Name)
	assert.Equal(t, Double, sig.Params[2].Type.Kind)
	assert.Equal(t,
		"std::pair<Mesh, Mesh>(const Mesh& a, const Mesh& b, double eps)",
		sig.String())
}

func TestParseSignatureNoParams(t *testing.T) {
	sig, err := ParseSignature("int()")
	require.NoError(t, err)
	assert.Equal(t, Int, sig.Result.Kind)
	assert.Empty(t, sig.Params)
}

func TestParseSignatureErrors(t *testing.T) {
	for _, in := range []string{
		"",
		"int",
		"int(",
		"int(void x)",
		"int(double,)",
		"notAClass()", // lowercase identifier is not a valid type
	} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseSignature(in)
			assert.Error(t, err)
		})
	}
}

func TestParseParams(t *testing.T) {
	params, err := ParseParams("(std::string path, double target_edge_length)")
	require.NoError(t, err)
	require.Len(t, params, 2)
	assert.Equal(t, "path", params[0].Name)
	assert.Equal(t, String, params[0].Type.Kind)
	assert.Equal(t, "target_edge_length", params[1].Name)

	params, err = ParseParams("()")
	require.NoError(t, err)
	assert.Empty(t, params)
}

func TestOwnership(t *testing.T) {
	for _, s := range []string{"value", "reference", "shared"} {
		o, err := ParseOwnership(s)
		require.NoError(t, err)
		assert.Equal(t, s, o.String())
	}
	_, err := ParseOwnership("weak")
	assert.Error(t, err)
}

func testUnit() *Unit {
	mustSig := func(s string) Signature {
		sig, err := ParseSignature(s)
		if err != nil {
			panic(err)
		}
		return sig
	}
	return &Unit{
		Classes: []*ClassInfo{{
			Name:      "Mesh",
			Header:    "cgal/mesh.h",
			Ownership: OwnShared,
			Ctors:     []Signature{{}},
			Methods: []Func{
				{Name: "vertexCount", Sig: mustSig("int()")},
				{Name: "save", Sig: mustSig("void(std::string path)")},
			},
			Statics: []Func{
				{Name: "load", Sig: mustSig("Mesh(std::string path)")},
			},
			Fields: []Field{
				{Name: "name", Type: Type{Kind: String}},
			},
		}},
		Funcs: []Func{
			{Name: "intersectN", Sig: mustSig("std::vector<std::pair<int, int>>(std::vector<Mesh> meshes)")},
		},
		Constants: []Constant{
			{Name: "EPSILON", Type: Type{Kind: Double}},
		},
	}
}

func TestUnitCheck(t *testing.T) {
	u := testUnit()
	require.NoError(t, u.Check())

	u.Funcs = append(u.Funcs, Func{
		Name: "refine",
		Sig:  Signature{Result: Type{Kind: Class, Name: "Polyhedron"}},
	})
	err := u.Check()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Polyhedron")
	assert.Contains(t, err.Error(), "refine")
}

func TestUnitSymbols(t *testing.T) {
	u := testUnit()
	syms := u.Symbols()
	assert.Equal(t, []Symbol{
		{Kind: SymClass, Name: "Mesh"},
		{Kind: SymMethod, Class: "Mesh", Name: "vertexCount"},
		{Kind: SymMethod, Class: "Mesh", Name: "save"},
		{Kind: SymStatic, Class: "Mesh", Name: "load"},
		{Kind: SymField, Class: "Mesh", Name: "name"},
		{Kind: SymFunction, Name: "intersectN"},
		{Kind: SymConstant, Name: "EPSILON"},
	}, syms)
}

func TestSymbolKindFromString(t *testing.T) {
	k, ok := SymbolKindFromString("Method")
	require.True(t, ok)
	assert.Equal(t, SymMethod, k)
	_, ok = SymbolKindFromString("gizmo")
	assert.False(t, ok)
}
