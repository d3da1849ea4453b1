// Command cgal-rosetta-generator generates language bindings from a
// JSON project descriptor and a registration header.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"syscall"

	"github.com/spf13/cobra"

	rosetta "github.com/rosettabind/cgal-rosetta"
	"github.com/rosettabind/cgal-rosetta/descriptor"
	"github.com/rosettabind/cgal-rosetta/registry"
	"github.com/rosettabind/cgal-rosetta/watch"
)

// version is set by the release build via -ldflags.
var version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

type flags struct {
	watch   bool
	quiet   bool
	verbose bool
	output  string
}

func (f *flags) logger() *rosetta.Logger {
	log := &rosetta.Logger{Writer: os.Stderr, MinLevel: rosetta.WARN}
	if f.quiet {
		log.Writer = nil
	} else if f.verbose {
		log.MinLevel = rosetta.INFO
	}
	return log
}

func rootCmd() *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:   "cgal-rosetta-generator <project.json>",
		Short: "Generate language bindings from a registration header",
		Long: `cgal-rosetta-generator reads a JSON project descriptor and the
registration header it points to, then writes per-language binding
source trees under the project's output directory.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd.Context(), args[0], &f)
		},
	}
	cmd.Flags().BoolVar(&f.watch, "watch", false, "regenerate when input files change")
	cmd.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "suppress all output except errors")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "log progress for each phase")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "override the descriptor's output directory")

	cmd.AddCommand(initCmd(), checkCmd(), versionCmd())
	return cmd
}

func runGenerate(ctx context.Context, projectFile string, f *flags) error {
	var summary io.Writer
	if !f.quiet {
		summary = os.Stdout
	}
	opts := rosetta.Options{
		ProjectFile: projectFile,
		OutputDir:   f.output,
		Log:         f.logger(),
		Summary:     summary,
	}

	res, err := rosetta.Run(opts)
	if err != nil {
		return err
	}
	if !f.watch {
		return nil
	}

	// Watch mode: keep regenerating until interrupted. A failing rerun
	// is reported and waited out, not fatal.
	desc := res.Descriptor
	inputs := []string{projectFile, desc.Registrations}
	if desc.Rules != "" {
		inputs = append(inputs, desc.Rules)
	}
	w, err := watch.New(inputs, desc.IncludeDirs)
	if err != nil {
		return err
	}
	defer w.Close()

	log := f.logger()
	log.Infof("watching %v inputs, press Ctrl-C to stop", len(inputs)+len(desc.IncludeDirs))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	err = w.Run(ctx, func() {
		if _, err := rosetta.Run(opts); err != nil {
			log.Errorf("regenerate: %v", err)
		}
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <project.json>",
		Short: "Validate a project without generating anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			desc, err := descriptor.Load(args[0])
			if err != nil {
				return err
			}
			unit, err := registry.ParseFile(desc.Registrations)
			if err != nil {
				return err
			}
			if err := unit.Check(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%v %v: %v registrations OK\n",
				desc.Name, desc.Version, len(unit.Symbols()))
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the generator version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

func initCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Scaffold a project descriptor, registration header and rules file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
			names := make([]string, 0, len(scaffold))
			for name := range scaffold {
				names = append(names, name)
			}
			slices.Sort(names)
			for _, name := range names {
				path := filepath.Join(dir, name)
				if !force {
					if _, err := os.Stat(path); err == nil {
						return fmt.Errorf("%v already exists (use --force to overwrite)", path)
					}
				}
				if err := os.WriteFile(path, []byte(scaffold[name]), 0o644); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %v\n", path)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing files")
	return cmd
}

var scaffold = map[string]string{
	"project.json": `{
  "name": "cgal",
  "version": "0.1.0",
  "registrations": "registrations.h",
  "rules": "rules.toml",
  "include_dirs": ["include"],
  "targets": [
    {"language": "python", "module": "cgal"},
    {"language": "go", "module_path": "example.com/cgal"}
  ]
}
`,
	"registrations.h": `// Binding registrations. Each ROSETTA_* line declares one symbol to
// expose; signatures use C++ spelling. Replace the Mesh example with
// your own types.

ROSETTA_CLASS(Mesh, "cgal/mesh.h", value);
ROSETTA_CTOR(Mesh, "()");
ROSETTA_METHOD(Mesh, vertexCount, "int()");
`,
	"rules.toml": `# Naming and inclusion rules, applied top to bottom.
#
# [[rule]]
# [rule.select]
# kind = "method"
# [rule.action]
# to-casing = "snake"
`,
}
