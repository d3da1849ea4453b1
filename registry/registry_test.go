package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rosettabind/cgal-rosetta/ir"
)

const sampleHeader = `// Registration header. Edit this file to expose native entities.
#pragma once
#include <rosetta/rosetta.h>
#include "cgal/mesh.h"

/* Mesh is the central surface type.
   Held through std::shared_ptr on the binding side. */
ROSETTA_CLASS(Mesh, "cgal/mesh.h", shared)
ROSETTA_CTOR(Mesh, "()")
ROSETTA_CTOR(Mesh, "(std::string path)")
ROSETTA_METHOD(Mesh, vertexCount, "int()")
ROSETTA_METHOD(Mesh, save, "void(std::string path)")
ROSETTA_STATIC(Mesh, load, "Mesh(std::string path)")
ROSETTA_FIELD(Mesh, name, "std::string")

ROSETTA_FUNCTION(loadMesh, "Mesh(std::string path)")
ROSETTA_FUNCTION(saveMesh, "void(const Mesh& mesh, std::string path)")
ROSETTA_FUNCTION(intersectN,
	"std::pair<int, std::vector<std::pair<int, int>>>(std::vector<Mesh> meshes)")

ROSETTA_CONSTANT(DEFAULT_EDGE_LENGTH, "double")
`

func TestParse(t *testing.T) {
	unit, err := Parse("registrations.h", []byte(sampleHeader))
	require.NoError(t, err)

	require.Len(t, unit.Classes, 1)
	mesh := unit.Classes[0]
	assert.Equal(t, "Mesh", mesh.Name)
	assert.Equal(t, "cgal/mesh.h", mesh.Header)
	assert.Equal(t, ir.OwnShared, mesh.Ownership)
	require.Len(t, mesh.Ctors, 2)
	assert.Empty(t, mesh.Ctors[0].Params)
	require.Len(t, mesh.Ctors[1].Params, 1)
	assert.Equal(t, "path", mesh.Ctors[1].Params[0].Name)
	require.Len(t, mesh.Methods, 2)
	assert.Equal(t, "vertexCount", mesh.Methods[0].Name)
	require.Len(t, mesh.Statics, 1)
	assert.Equal(t, "load", mesh.Statics[0].Name)
	require.Len(t, mesh.Fields, 1)
	assert.Equal(t, "name", mesh.Fields[0].Name)

	require.Len(t, unit.Funcs, 3)
	assert.Equal(t, "intersectN", unit.Funcs[2].Name)
	assert.Equal(t, ir.Pair, unit.Funcs[2].Sig.Result.Kind)

	require.Len(t, unit.Constants, 1)
	assert.Equal(t, "DEFAULT_EDGE_LENGTH", unit.Constants[0].Name)

	require.NoError(t, unit.Check())
}

func TestParseIgnoresSurroundingCode(t *testing.T) {
	src := `
#ifndef REGISTRATIONS_H
#define REGISTRATIONS_H
// ROSETTA_CLASS(Commented, "x.h", value)
/* ROSETTA_FUNCTION(alsoCommented, "void()") */
static const char* note = "ROSETTA_FUNCTION(inString, \"void()\")";
inline int unrelated() { return 0; }
ROSETTA_FUNCTION(real, "void()")
#endif
`
	unit, err := Parse("r.h", []byte(src))
	require.NoError(t, err)
	require.Len(t, unit.Funcs, 1)
	assert.Equal(t, "real", unit.Funcs[0].Name)
	assert.Empty(t, unit.Classes)
}

func TestParseMultilineCall(t *testing.T) {
	src := `
ROSETTA_CLASS(Mesh, // class name
	"cgal/mesh.h", /* header */
	value)
`
	unit, err := Parse("r.h", []byte(src))
	require.NoError(t, err)
	require.Len(t, unit.Classes, 1)
	assert.Equal(t, ir.OwnValue, unit.Classes[0].Ownership)
}

func TestParseFunctionAndConstantHeaders(t *testing.T) {
	src := `
ROSETTA_FUNCTION(loadMesh, "void()", "cgal/io.h")
ROSETTA_FUNCTION(noHeader, "void()")
ROSETTA_CONSTANT(EPS, "double", "cgal/kernel.h")
`
	unit, err := Parse("r.h", []byte(src))
	require.NoError(t, err)
	require.Len(t, unit.Funcs, 2)
	assert.Equal(t, "cgal/io.h", unit.Funcs[0].Header)
	assert.Empty(t, unit.Funcs[1].Header)
	require.Len(t, unit.Constants, 1)
	assert.Equal(t, "cgal/kernel.h", unit.Constants[0].Header)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{
			"empty file",
			"// nothing here\n",
			"no registrations found",
		},
		{
			"duplicate class",
			"ROSETTA_CLASS(Mesh, \"m.h\", value)\nROSETTA_CLASS(Mesh, \"m.h\", value)\n",
			"registered twice",
		},
		{
			"method before class",
			"ROSETTA_METHOD(Mesh, f, \"void()\")\n",
			"not registered",
		},
		{
			"unknown macro",
			"ROSETTA_ENUM(Color, \"c.h\")\n",
			"unknown registration macro",
		},
		{
			"bad ownership",
			"ROSETTA_CLASS(Mesh, \"m.h\", weak)\n",
			"unknown ownership",
		},
		{
			"bad arity",
			"ROSETTA_METHOD(Mesh, f)\n",
			"want 3 arguments",
		},
		{
			"bad arity with optional header",
			"ROSETTA_FUNCTION(f)\n",
			"want 2 to 3 arguments",
		},
		{
			"duplicate method",
			"ROSETTA_CLASS(Mesh, \"m.h\", value)\nROSETTA_METHOD(Mesh, scale, \"void(double f)\")\nROSETTA_METHOD(Mesh, scale, \"void(float f)\")\n",
			"Mesh.scale registered twice",
		},
		{
			"duplicate static vs method",
			"ROSETTA_CLASS(Mesh, \"m.h\", value)\nROSETTA_METHOD(Mesh, load, \"void()\")\nROSETTA_STATIC(Mesh, load, \"Mesh(std::string p)\")\n",
			"Mesh.load registered twice",
		},
		{
			"duplicate field",
			"ROSETTA_CLASS(Mesh, \"m.h\", value)\nROSETTA_FIELD(Mesh, name, \"std::string\")\nROSETTA_FIELD(Mesh, name, \"std::string\")\n",
			"Mesh.name registered twice",
		},
		{
			"duplicate function",
			"ROSETTA_FUNCTION(loadMesh, \"void()\")\nROSETTA_FUNCTION(loadMesh, \"void()\")\n",
			"function loadMesh registered twice",
		},
		{
			"duplicate constant",
			"ROSETTA_CONSTANT(EPS, \"double\")\nROSETTA_CONSTANT(EPS, \"double\")\n",
			"constant EPS registered twice",
		},
		{
			"bad signature",
			"ROSETTA_FUNCTION(f, \"int\")\n",
			"parse signature",
		},
		{
			"unclosed call",
			"ROSETTA_FUNCTION(f, \"void()\"\n",
			"unclosed registration macro",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("r.h", []byte(tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Contains(t, err.Error(), "r.h")
		})
	}
}

func TestParseErrorsCarryLineNumbers(t *testing.T) {
	src := "// one\n// two\nROSETTA_CLASS(Mesh, \"m.h\", bogus)\n"
	_, err := Parse("registrations.h", []byte(src))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "registrations.h:3")
}
