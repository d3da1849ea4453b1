package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rosettabind/cgal-rosetta/ir"
	"github.com/rosettabind/cgal-rosetta/registry"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0666))
	return path
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "rules.toml", `
[[rule]]
select.name = "intersect(.*)"
action.rename = "overlap\\1"

[[rule]]
select.kind = "method"
action.to-casing = "snake"
`)
	c, err := Load(path)
	require.NoError(t, err)
	require.Len(t, c.Rules, 2)
	assert.True(t, c.Rules[0].Select.Name.MatchString("intersectN"))
	assert.False(t, c.Rules[0].Select.Name.MatchString("xintersectN"), "patterns are anchored")
	assert.Equal(t, `overlap\1`, c.Rules[0].Actions.Rename)
	assert.Equal(t, "snake", c.Rules[1].Actions.ToCasing)
}

func TestLoadImports(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.toml", `
[[rule]]
select.name = "internalHelper"
action.include = false
`)
	path := writeFile(t, dir, "rules.toml", `
imports = ["base.toml"]

[[rule]]
select.kind = "function"
action.to-casing = "snake"
`)
	c, err := Load(path)
	require.NoError(t, err)
	require.Len(t, c.Rules, 2)
	assert.Equal(t, "snake", c.Rules[0].Actions.ToCasing)
	require.NotNil(t, c.Rules[1].Actions.Include)
	assert.False(t, *c.Rules[1].Actions.Include)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	t.Run("unknown field", func(t *testing.T) {
		path := writeFile(t, dir, "a.toml", "[[rule]]\nselect.nmae = \"x\"\n")
		_, err := Load(path)
		require.Error(t, err)
		var cErr *Error
		require.ErrorAs(t, err, &cErr)
		assert.Contains(t, cErr.String(), "a.toml")
	})
	t.Run("bad regexp", func(t *testing.T) {
		path := writeFile(t, dir, "b.toml", "[[rule]]\nselect.name = \"(\"\n")
		_, err := Load(path)
		assert.Error(t, err)
	})
	t.Run("bad casing", func(t *testing.T) {
		path := writeFile(t, dir, "c.toml", "[[rule]]\nselect.name = \"x\"\naction.to-casing = \"shouty\"\n")
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown casing")
	})
	t.Run("bad kind", func(t *testing.T) {
		path := writeFile(t, dir, "d.toml", "[[rule]]\nselect.kind = \"enum\"\naction.include = false\n")
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown symbol kind")
	})
	t.Run("missing import", func(t *testing.T) {
		path := writeFile(t, dir, "e.toml", "imports = [\"nosuch.toml\"]\n")
		_, err := Load(path)
		assert.Error(t, err)
	})
}

const rulesTestHeader = `
ROSETTA_CLASS(Mesh, "cgal/mesh.h", shared)
ROSETTA_METHOD(Mesh, vertexCount, "int()")
ROSETTA_METHOD(Mesh, faceCount, "int()")
ROSETTA_FUNCTION(loadMesh, "Mesh(std::string path)")
ROSETTA_FUNCTION(intersectN, "int(std::vector<Mesh> meshes)")
ROSETTA_FUNCTION(debugDump, "void()")
`

func parseTestUnit(t *testing.T) *ir.Unit {
	t.Helper()
	unit, err := registry.Parse("r.h", []byte(rulesTestHeader))
	require.NoError(t, err)
	return unit
}

func loadConfig(t *testing.T, content string) *Config {
	t.Helper()
	path := writeFile(t, t.TempDir(), "rules.toml", content)
	c, err := Load(path)
	require.NoError(t, err)
	return c
}

func TestExecuteDefaults(t *testing.T) {
	unit := parseTestUnit(t)
	names, included, err := Execute(&Config{}, unit)
	require.NoError(t, err)

	sym := ir.Symbol{Kind: ir.SymFunction, Name: "loadMesh"}
	assert.Equal(t, "loadMesh", names[sym])
	assert.True(t, included[sym])
	assert.Len(t, names, len(unit.Symbols()))
}

func TestExecuteRenameWithBackrefs(t *testing.T) {
	unit := parseTestUnit(t)
	c := loadConfig(t, `
[[rule]]
select.name = "load(.*)"
select.kind = "function"
action.rename = "read\\1"
`)
	names, _, err := Execute(c, unit)
	require.NoError(t, err)
	assert.Equal(t, "readMesh", names[ir.Symbol{Kind: ir.SymFunction, Name: "loadMesh"}])
	assert.Equal(t, "intersectN", names[ir.Symbol{Kind: ir.SymFunction, Name: "intersectN"}])
}

func TestExecuteCasingSeesEarlierRenames(t *testing.T) {
	unit := parseTestUnit(t)
	c := loadConfig(t, `
[[rule]]
select.name = "loadMesh"
action.rename = "loadSurface"

[[rule]]
select.kind = "function"
action.to-casing = "snake"
`)
	names, _, err := Execute(c, unit)
	require.NoError(t, err)
	assert.Equal(t, "load_surface", names[ir.Symbol{Kind: ir.SymFunction, Name: "loadMesh"}])
}

func TestExecuteClassSelector(t *testing.T) {
	unit := parseTestUnit(t)
	c := loadConfig(t, `
[[rule]]
select.class = "Mesh"
select.kind = "method"
action.to-casing = "snake"
`)
	names, _, err := Execute(c, unit)
	require.NoError(t, err)
	assert.Equal(t, "vertex_count", names[ir.Symbol{Kind: ir.SymMethod, Class: "Mesh", Name: "vertexCount"}])
	// Free functions are untouched by the class selector.
	assert.Equal(t, "loadMesh", names[ir.Symbol{Kind: ir.SymFunction, Name: "loadMesh"}])
}

func TestExecuteExclude(t *testing.T) {
	unit := parseTestUnit(t)
	c := loadConfig(t, `
[[rule]]
select.name = "debug.*"
action.include = false
`)
	_, included, err := Execute(c, unit)
	require.NoError(t, err)
	assert.False(t, included[ir.Symbol{Kind: ir.SymFunction, Name: "debugDump"}])
	assert.True(t, included[ir.Symbol{Kind: ir.SymFunction, Name: "loadMesh"}])
}

func TestExecuteRenameConflict(t *testing.T) {
	unit := parseTestUnit(t)
	c := loadConfig(t, `
[[rule]]
select.name = "faceCount"
action.rename = "vertexCount"
`)
	_, _, err := Execute(c, unit)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conflict")
}
