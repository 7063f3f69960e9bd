// Package scaffold embeds a starter fixture project and writes it to a
// target directory: a configuration file, an annotated example fixture
// and a diagnostics file that verifies cleanly against it.
package scaffold

import (
	"embed"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/unbound-force/noncompliant/internal/annotation"
)

//go:embed all:assets
var assets embed.FS

// Options configures the scaffold operation.
type Options struct {
	// TargetDir is the root directory to scaffold into.
	// Defaults to the current working directory.
	TargetDir string

	// Force overwrites existing files when true.
	// When false, existing files are skipped.
	Force bool

	// Version is embedded in the marker comment of each file that has
	// a comment syntax. Defaults to "dev".
	Version string

	// Stdout is the writer for summary output.
	// Defaults to os.Stdout.
	Stdout io.Writer
}

// Result reports what the scaffold operation did. Paths are relative
// to the target directory and use forward slashes.
type Result struct {
	Created     []string
	Skipped     []string
	Overwritten []string
}

// versionMarker returns the marker line for a file, written in the
// file's own comment syntax, or "" when the file cannot hold comments.
func versionMarker(relPath, version string) string {
	syn, ok := annotation.SyntaxFor(relPath)
	if !ok {
		return ""
	}
	text := "scaffolded by noncompliant " + version
	switch {
	case len(syn.LinePrefixes) > 0:
		return syn.LinePrefixes[0] + " " + text + "\n"
	case syn.BlockStart != "":
		return syn.BlockStart + " " + text + " " + syn.BlockEnd + "\n"
	}
	return ""
}

// Run writes the embedded starter files into opts.TargetDir.
//
// Files with a comment syntax are prepended with a marker line such as
//
//	// scaffolded by noncompliant v1.2.3
//
// and the example diagnostics account for that extra line. Existing
// files are skipped unless opts.Force is set.
func Run(opts Options) (*Result, error) {
	if opts.TargetDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		opts.TargetDir = cwd
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}

	paths, err := AssetPaths()
	if err != nil {
		return nil, err
	}

	result := &Result{}
	for _, rel := range paths {
		outPath := filepath.Join(opts.TargetDir, filepath.FromSlash(rel))

		_, statErr := os.Stat(outPath)
		exists := statErr == nil
		if exists && !opts.Force {
			result.Skipped = append(result.Skipped, rel)
			continue
		}

		content, err := AssetContent(rel)
		if err != nil {
			return nil, fmt.Errorf("reading embedded asset %s: %w", rel, err)
		}

		dir := filepath.Dir(outPath)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating directory %s: %w", dir, err)
		}

		out := append([]byte(versionMarker(rel, opts.Version)), content...)
		if err := os.WriteFile(outPath, out, 0o644); err != nil {
			return nil, fmt.Errorf("creating %s: %w", rel, err)
		}

		if exists {
			result.Overwritten = append(result.Overwritten, rel)
		} else {
			result.Created = append(result.Created, rel)
		}
	}

	printSummary(opts.Stdout, result)
	return result, nil
}

func printSummary(w io.Writer, r *Result) {
	fmt.Fprintln(w, "Fixture project initialized:")

	for _, f := range r.Created {
		fmt.Fprintf(w, "  created: %s\n", f)
	}
	for _, f := range r.Skipped {
		fmt.Fprintf(w, "  skipped: %s (already exists)\n", f)
	}
	for _, f := range r.Overwritten {
		fmt.Fprintf(w, "  overwritten: %s\n", f)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'noncompliant verify . -d diagnostics.example.json' to check the example.")

	if len(r.Skipped) > 0 {
		fmt.Fprintf(w, "%d file(s) skipped (use --force to overwrite).\n", len(r.Skipped))
	}
}

// AssetPaths returns the slash-separated relative paths of all
// embedded assets in walk order.
func AssetPaths() ([]string, error) {
	var paths []string
	err := fs.WalkDir(assets, "assets", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		paths = append(paths, strings.TrimPrefix(path, "assets/"))
		return nil
	})
	return paths, err
}

// AssetContent returns the raw content of an embedded asset by
// its relative path (e.g., "TestCases/ExampleRule.cs").
func AssetContent(relPath string) ([]byte, error) {
	return assets.ReadFile("assets/" + relPath)
}
