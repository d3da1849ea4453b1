package rosetta

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/rosettabind/cgal-rosetta/config"
	"github.com/rosettabind/cgal-rosetta/descriptor"
	"github.com/rosettabind/cgal-rosetta/emit"
	"github.com/rosettabind/cgal-rosetta/emit/golang"
	"github.com/rosettabind/cgal-rosetta/emit/python"
	"github.com/rosettabind/cgal-rosetta/headerscan"
	"github.com/rosettabind/cgal-rosetta/manifest"
	"github.com/rosettabind/cgal-rosetta/registry"
	"github.com/rosettabind/cgal-rosetta/textutils"
)

// Options configures a generation run.
type Options struct {
	// ProjectFile is the path to the JSON project descriptor.
	ProjectFile string
	// OutputDir overrides the descriptor's output directory when set.
	OutputDir string
	// Log receives progress and warnings. A zero Logger is silent.
	Log *Logger
	// Summary, when non-nil, receives the per-target result table.
	Summary io.Writer
}

// Result is what a completed run produced.
type Result struct {
	Descriptor *descriptor.Descriptor
	Manifest   *manifest.Manifest
	// Warnings counts header findings plus skipped symbols.
	Warnings int
}

// targets maps descriptor languages to their emitters.
var targets = map[string]emit.Target{
	descriptor.LangPython: python.New(),
	descriptor.LangGo:     golang.New(),
}

// Run executes the full pipeline for the given project.
func Run(opts Options) (*Result, error) {
	log := opts.Log
	if log == nil {
		log = &Logger{}
	}

	desc, err := descriptor.Load(opts.ProjectFile)
	if err != nil {
		return nil, err
	}
	if opts.OutputDir != "" {
		desc.OutputDir = opts.OutputDir
	}
	log.Infof("project %v %v", desc.Name, desc.Version)

	unit, err := registry.ParseFile(desc.Registrations)
	if err != nil {
		return nil, err
	}
	if err := unit.Check(); err != nil {
		return nil, err
	}
	syms := unit.Symbols()
	log.Infof("parsed %v %v from %v",
		len(syms), textutils.Pluralize(len(syms), "registration"), desc.Registrations)

	res := &Result{Descriptor: desc}

	if len(desc.IncludeDirs) > 0 {
		for _, w := range headerscan.Scan(unit, desc.IncludeDirs) {
			log.Warnf("%v", w)
			res.Warnings++
		}
	}

	plan := &emit.Plan{
		Project: desc.Name,
		Version: desc.Version,
		Unit:    unit,
	}
	if desc.Rules != "" {
		cfg, err := config.Load(desc.Rules)
		if err != nil {
			return nil, err
		}
		plan.Names, plan.Included, err = config.Execute(cfg, unit)
		if err != nil {
			return nil, err
		}
		log.Infof("applied %v %v from %v",
			len(cfg.Rules), textutils.Pluralize(len(cfg.Rules), "rule"), desc.Rules)
	}

	man := manifest.New(desc.Name, desc.Version)

	type row struct {
		language string
		files    int
		skips    int
		duration time.Duration
	}
	var rows []row

	for i := range desc.Targets {
		t := &desc.Targets[i]
		emitter, ok := targets[t.Language]
		if !ok {
			return nil, fmt.Errorf("no emitter for target language %q", t.Language)
		}

		start := time.Now()
		dir, err := emit.PrepareDir(desc.OutputDir, t.Language)
		if err != nil {
			return nil, err
		}
		files, skips, err := emitter.Emit(dir, plan, t)
		if err != nil {
			return nil, fmt.Errorf("target %v: %w", t.Language, err)
		}
		for _, s := range skips {
			log.Warnf("target %v: skipped %v", t.Language, s)
			res.Warnings++
		}
		if err := man.AddTarget(t.Language, dir, files, len(skips)); err != nil {
			return nil, err
		}
		elapsed := time.Since(start)
		log.Infof("target %v: wrote %v %v to %v",
			t.Language, len(files), textutils.Pluralize(len(files), "file"), dir)
		rows = append(rows, row{t.Language, len(files), len(skips), elapsed})
	}

	// The manifest is written last: its presence marks a complete run.
	if err := man.Write(desc.OutputDir); err != nil {
		return nil, err
	}
	res.Manifest = man

	if opts.Summary != nil {
		tw := table.NewWriter()
		tw.SetOutputMirror(opts.Summary)
		tw.AppendHeader(table.Row{"Target", "Files", "Skipped", "Time"})
		for _, r := range rows {
			tw.AppendRow(table.Row{r.language, r.files, r.skips, r.duration.Round(time.Millisecond)})
		}
		tw.Render()
	}

	return res, nil
}
