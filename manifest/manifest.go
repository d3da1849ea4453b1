// Package manifest records what a generation run produced. The manifest
// is written into the output directory after all targets succeed, so
// its presence marks a complete run.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Filename is the manifest's name inside the output directory.
const Filename = "manifest.json"

// File is one generated file of a target.
type File struct {
	Path string `json:"path"` // relative to the target directory
	Size int64  `json:"size"`
}

// TargetResult is the per-language outcome of a run.
type TargetResult struct {
	Language string `json:"language"`
	Files    []File `json:"files"`
	Skipped  int    `json:"skipped,omitempty"`
}

// Manifest describes one complete generation run.
type Manifest struct {
	ID          string         `json:"id"`
	GeneratedAt time.Time      `json:"generated_at"`
	Project     string         `json:"project"`
	Version     string         `json:"version"`
	Targets     []TargetResult `json:"targets"`
}

// New returns an empty manifest for the given project with a fresh run
// ID and a UTC timestamp.
func New(project, version string) *Manifest {
	return &Manifest{
		ID:          uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Project:     project,
		Version:     version,
	}
}

// AddTarget records the files a target emitted into dir. Sizes are read
// back from disk so the manifest reflects what was actually written.
func (m *Manifest) AddTarget(language, dir string, files []string, skipped int) error {
	res := TargetResult{Language: language, Skipped: skipped}
	for _, name := range files {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("manifest: stat %v: %w", name, err)
		}
		res.Files = append(res.Files, File{Path: name, Size: info.Size()})
	}
	m.Targets = append(m.Targets, res)
	return nil
}

// Write stores the manifest as indented JSON in outputDir.
func (m *Manifest) Write(outputDir string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("manifest: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(filepath.Join(outputDir, Filename), data, 0666); err != nil {
		return fmt.Errorf("manifest: %w", err)
	}
	return nil
}

// Load reads a manifest previously written to outputDir.
func Load(outputDir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(outputDir, Filename))
	if err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	return &m, nil
}
