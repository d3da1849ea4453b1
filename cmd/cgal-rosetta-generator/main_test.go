package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rosetta "github.com/rosettabind/cgal-rosetta"
)

func runInit(t *testing.T, dir string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := initCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{dir})
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestInitWritesFilesInOrder(t *testing.T) {
	dir := t.TempDir()
	out := runInit(t, dir)

	want := "wrote " + filepath.Join(dir, "project.json") + "\n" +
		"wrote " + filepath.Join(dir, "registrations.h") + "\n" +
		"wrote " + filepath.Join(dir, "rules.toml") + "\n"
	assert.Equal(t, want, out)
}

func TestInitRefusesToOverwrite(t *testing.T) {
	dir := t.TempDir()
	runInit(t, dir)

	cmd := initCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{dir})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestInitScaffoldGenerates(t *testing.T) {
	dir := t.TempDir()
	runInit(t, dir)

	res, err := rosetta.Run(rosetta.Options{
		ProjectFile: filepath.Join(dir, "project.json"),
		OutputDir:   t.TempDir(),
	})
	require.NoError(t, err)
	require.Len(t, res.Manifest.Targets, 2)
	assert.NotEmpty(t, res.Manifest.Targets[0].Files)
}

func TestCheckScaffold(t *testing.T) {
	dir := t.TempDir()
	runInit(t, dir)

	var out bytes.Buffer
	cmd := checkCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{filepath.Join(dir, "project.json")})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "registrations OK")
}
