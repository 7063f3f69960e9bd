package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/unbound-force/noncompliant/internal/annotation"
	"github.com/unbound-force/noncompliant/internal/cache"
	"github.com/unbound-force/noncompliant/internal/config"
	"github.com/unbound-force/noncompliant/internal/diagnostic"
	"github.com/unbound-force/noncompliant/internal/fixture"
	"github.com/unbound-force/noncompliant/internal/gocheck"
	"github.com/unbound-force/noncompliant/internal/report"
	"github.com/unbound-force/noncompliant/internal/scaffold"
	"github.com/unbound-force/noncompliant/internal/verify"
)

// logger is the application-wide structured logger (writes to stderr).
var logger = charmlog.NewWithOptions(os.Stderr, charmlog.Options{
	ReportTimestamp: false,
})

// Set by build flags.
var version = "dev"

func main() {
	root := &cobra.Command{
		Use:   "noncompliant",
		Short: "Verify analyzer diagnostics against annotated rule fixtures",
		Long: `noncompliant reads rule fixtures annotated with Noncompliant,
Secondary, Error and Fixed comments, and checks that the diagnostics
an analyzer reported for them match the annotations line for line.`,
		Version: version,
	}

	var debug bool
	root.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	root.PersistentPreRun = func(*cobra.Command, []string) {
		if debug {
			logger.SetLevel(charmlog.DebugLevel)
		}
	}

	root.AddCommand(newVerifyCmd())
	root.AddCommand(newGoCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newParseCmd())
	root.AddCommand(newSchemaCmd())
	root.AddCommand(newInitCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// fixtureParams are the flags shared by every command that loads a
// fixtures directory.
type fixtureParams struct {
	fixturesDir string
	configPath  string
	noCache     bool
	jobs        int
}

func (p *fixtureParams) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.configPath, "config", "",
		"configuration file (default: search for .noncompliant.yaml or .noncompliant.toml)")
	cmd.Flags().BoolVar(&p.noCache, "no-cache", false,
		"parse every fixture instead of reading the annotation cache")
	cmd.Flags().IntVar(&p.jobs, "jobs", 0,
		"number of fixtures parsed in parallel (0 = number of CPUs)")
}

// loadFixtures resolves the configuration, then discovers and parses
// every fixture under the fixtures directory.
func loadFixtures(ctx context.Context, p fixtureParams) ([]fixture.Fixture, *config.Config, error) {
	cfg, cfgPath, err := config.Resolve(p.configPath, p.fixturesDir)
	if err != nil {
		return nil, nil, err
	}
	if cfgPath != "" {
		logger.Debug("using configuration", "path", cfgPath)
	}
	if p.jobs > 0 {
		cfg.Fixtures.Jobs = p.jobs
	}

	paths, err := fixture.Discover(ctx, p.fixturesDir, cfg)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("discovered fixtures", "dir", p.fixturesDir, "count", len(paths))

	var c *cache.Cache
	if cfg.Cache.Enabled && !p.noCache {
		dir := cfg.Cache.Dir
		if !filepath.IsAbs(dir) {
			base := p.fixturesDir
			if cfgPath != "" {
				base = filepath.Dir(cfgPath)
			}
			dir = filepath.Join(base, dir)
		}
		if c, err = cache.Open(dir); err != nil {
			logger.Warn("annotation cache disabled", "err", err)
			c = nil
		}
	}

	fixtures, err := fixture.Load(ctx, p.fixturesDir, paths, fixture.LoadOptions{Config: cfg, Cache: c})
	if err != nil {
		return nil, nil, err
	}

	for _, fx := range fixtures {
		for _, pe := range fx.Errors {
			logger.Warn("invalid annotation", "file", fx.Path, "line", pe.Line, "err", pe.Msg)
		}
	}
	return fixtures, cfg, nil
}

// outputParams are the flags that select how a verification result is
// shown.
type outputParams struct {
	format      string
	verbose     bool
	interactive bool
	stdout      io.Writer
	stderr      io.Writer
}

func checkFormat(format string) error {
	if format != "text" && format != "json" {
		return fmt.Errorf("invalid format %q: must be 'text' or 'json'", format)
	}
	return nil
}

// writeResult outputs the result and turns a failing result into an
// error so the process exits non-zero.
func writeResult(res verify.Result, out outputParams) error {
	logger.Info("verification complete",
		"fixtures", res.Summary.Fixtures,
		"passed", res.Summary.Passed,
		"failed", res.Summary.Failed)

	var err error
	switch {
	case out.interactive:
		err = runInteractiveVerify(res)
	case out.format == "json":
		err = report.WriteJSON(out.stdout, res, version)
	default:
		err = report.WriteTextOptions(out.stdout, res, report.TextOptions{Verbose: out.verbose})
	}
	if err != nil {
		return err
	}

	if !res.OK() {
		return fmt.Errorf("%d of %d fixture(s) failed verification",
			res.Summary.Failed, res.Summary.Fixtures)
	}
	return nil
}

// verifyParams holds the parsed flags for the verify command.
type verifyParams struct {
	fixtureParams
	outputParams
	diagnostics string
	inputFormat string
}

// runVerify is the extracted, testable body of the verify command.
func runVerify(p verifyParams) error {
	if err := checkFormat(p.format); err != nil {
		return err
	}

	ctx := context.Background()
	fixtures, cfg, err := loadFixtures(ctx, p.fixtureParams)
	if err != nil {
		return err
	}

	diags, err := diagnostic.ReadFile(p.diagnostics, diagnostic.Format(p.inputFormat))
	if err != nil {
		return err
	}

	logger.Info("verifying", "fixtures", len(fixtures), "diagnostics", len(diags))
	res := verify.All(fixtures, diags, verify.Options{Root: p.fixturesDir, Config: cfg})
	return writeResult(res, p.outputParams)
}

func newVerifyCmd() *cobra.Command {
	var p verifyParams

	cmd := &cobra.Command{
		Use:   "verify <fixtures-dir>",
		Short: "Verify reported diagnostics against fixture annotations",
		Long: `Verify the diagnostics in a JSON or SARIF 2.1.0 file against the
annotations of every fixture under the fixtures directory. Exits
non-zero when any fixture has a mismatch.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p.fixturesDir = args[0]
			p.stdout = cmd.OutOrStdout()
			p.stderr = cmd.ErrOrStderr()
			return runVerify(p)
		},
	}

	p.fixtureParams.register(cmd)
	cmd.Flags().StringVarP(&p.diagnostics, "diagnostics", "d", "",
		"file with the diagnostics the analyzer reported")
	cmd.Flags().StringVar(&p.inputFormat, "input-format", "auto",
		"diagnostics format: auto, json, or sarif")
	cmd.Flags().StringVar(&p.format, "format", "text",
		"output format: text or json")
	cmd.Flags().BoolVarP(&p.verbose, "verbose", "v", false,
		"also list fixtures that pass")
	cmd.Flags().BoolVarP(&p.interactive, "interactive", "i", false,
		"launch interactive TUI for browsing results")
	_ = cmd.MarkFlagRequired("diagnostics")

	return cmd
}

// goParams holds the parsed flags for the go command.
type goParams struct {
	fixtureParams
	outputParams
	patterns  []string
	analyzers []string
}

// runGo is the extracted, testable body of the go command.
func runGo(p goParams) error {
	if err := checkFormat(p.format); err != nil {
		return err
	}
	analyzers, err := gocheck.Select(p.analyzers)
	if err != nil {
		return err
	}

	ctx := context.Background()
	fixtures, cfg, err := loadFixtures(ctx, p.fixtureParams)
	if err != nil {
		return err
	}
	goFixtures := fixtures[:0:0]
	for _, fx := range fixtures {
		if strings.EqualFold(filepath.Ext(fx.Path), ".go") {
			goFixtures = append(goFixtures, fx)
		}
	}

	logger.Info("loading packages", "dir", p.fixturesDir, "patterns", p.patterns)
	pkgs, err := gocheck.Load(p.fixturesDir, p.patterns...)
	if err != nil {
		return err
	}

	names := make([]string, len(analyzers))
	for i, a := range analyzers {
		names[i] = a.Name
	}
	logger.Info("running analyzers", "packages", len(pkgs), "analyzers", strings.Join(names, ","))
	diags, err := gocheck.Run(ctx, analyzers, pkgs)
	if err != nil {
		return err
	}

	logger.Info("verifying", "fixtures", len(goFixtures), "diagnostics", len(diags))
	res := verify.All(goFixtures, diags, verify.Options{Root: p.fixturesDir, Config: cfg})
	return writeResult(res, p.outputParams)
}

func newGoCmd() *cobra.Command {
	var p goParams

	cmd := &cobra.Command{
		Use:   "go <fixtures-dir> [patterns...]",
		Short: "Run Go analysis passes over Go fixtures and verify them",
		Long: `Load the Go packages under the fixtures directory, run the selected
go/analysis passes over them, and verify the diagnostics against
the annotations in the .go fixtures. Available passes: ` +
			strings.Join(gocheck.PassNames(), ", ") + ".",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p.fixturesDir = args[0]
			p.patterns = args[1:]
			p.stdout = cmd.OutOrStdout()
			p.stderr = cmd.ErrOrStderr()
			return runGo(p)
		},
	}

	p.fixtureParams.register(cmd)
	cmd.Flags().StringSliceVar(&p.analyzers, "analyzers", nil,
		"comma-separated analysis passes to run (default: all)")
	cmd.Flags().StringVar(&p.format, "format", "text",
		"output format: text or json")
	cmd.Flags().BoolVarP(&p.verbose, "verbose", "v", false,
		"also list fixtures that pass")
	cmd.Flags().BoolVarP(&p.interactive, "interactive", "i", false,
		"launch interactive TUI for browsing results")

	return cmd
}

// listEntry is one row of list --format=json.
type listEntry struct {
	Path         string `json:"path"`
	Rule         string `json:"rule"`
	Variant      string `json:"variant,omitempty"`
	Fixed        bool   `json:"fixed,omitempty"`
	Noncompliant int    `json:"noncompliant"`
	Secondary    int    `json:"secondary"`
	Error        int    `json:"error"`
	FixedLines   int    `json:"fixed_lines"`
	Invalid      int    `json:"invalid"`
}

// listParams holds the parsed flags for the list command.
type listParams struct {
	fixtureParams
	format string
	stdout io.Writer
}

// runList is the extracted, testable body of the list command.
func runList(p listParams) error {
	if err := checkFormat(p.format); err != nil {
		return err
	}

	fixtures, _, err := loadFixtures(context.Background(), p.fixtureParams)
	if err != nil {
		return err
	}

	if p.format == "text" {
		return report.WriteFixtures(p.stdout, fixtures)
	}

	entries := make([]listEntry, 0, len(fixtures))
	for _, fx := range fixtures {
		entries = append(entries, listEntry{
			Path:         fx.Path,
			Rule:         fx.Rule,
			Variant:      fx.Variant,
			Fixed:        fx.Fixed,
			Noncompliant: fx.Count(annotation.Noncompliant),
			Secondary:    fx.Count(annotation.Secondary),
			Error:        fx.Count(annotation.Error),
			FixedLines:   fx.Count(annotation.Fixed),
			Invalid:      len(fx.Errors),
		})
	}
	enc := json.NewEncoder(p.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

func newListCmd() *cobra.Command {
	var p listParams

	cmd := &cobra.Command{
		Use:   "list <fixtures-dir>",
		Short: "List fixtures with their rules and annotation counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p.fixturesDir = args[0]
			p.stdout = cmd.OutOrStdout()
			return runList(p)
		},
	}

	p.fixtureParams.register(cmd)
	cmd.Flags().StringVar(&p.format, "format", "text",
		"output format: text or json")

	return cmd
}

// parseParams holds the parsed flags for the parse command.
type parseParams struct {
	file       string
	configPath string
	stdout     io.Writer
}

// runParse is the extracted, testable body of the parse command. It
// prints the parsed fixture as JSON and fails when any annotation is
// invalid.
func runParse(p parseParams) error {
	cfg, _, err := config.Resolve(p.configPath, filepath.Dir(p.file))
	if err != nil {
		return err
	}
	if _, ok := cfg.SyntaxFor(p.file); !ok {
		logger.Warn("unknown comment syntax, assuming C-family comments", "file", p.file)
	}

	fx, err := fixture.LoadFile(p.file, cfg)
	if err != nil {
		return err
	}
	for _, a := range fx.Assertions {
		logger.Debug("parsed annotation", "at", a.Position(), "kind", a.Kind)
	}

	enc := json.NewEncoder(p.stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(fx); err != nil {
		return err
	}

	if len(fx.Errors) > 0 {
		return fmt.Errorf("%s has %d invalid annotation(s)", p.file, len(fx.Errors))
	}
	return nil
}

func newParseCmd() *cobra.Command {
	var p parseParams

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Print the annotations parsed from a fixture as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p.file = args[0]
			p.stdout = cmd.OutOrStdout()
			return runParse(p)
		},
	}

	cmd.Flags().StringVar(&p.configPath, "config", "",
		"configuration file (default: search for .noncompliant.yaml or .noncompliant.toml)")

	return cmd
}

func newSchemaCmd() *cobra.Command {
	var input bool

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema for verification output",
		Long: `Print the JSON Schema (Draft 2020-12) that documents the
structure of verify --format=json output. With --input, print the
schema of the native diagnostics input format instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			schema := report.Schema
			if input {
				schema = diagnostic.InputSchema
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), schema)
			return err
		},
	}

	cmd.Flags().BoolVar(&input, "input", false,
		"print the diagnostics input schema")

	return cmd
}

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Scaffold a configuration file and an example fixture",
		Long: `Write a starter .noncompliant.yaml, an annotated example fixture
under TestCases/ and a diagnostics file that verifies cleanly against
it. Existing files are kept unless --force is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := scaffold.Options{
				Force:   force,
				Version: version,
				Stdout:  cmd.OutOrStdout(),
			}
			if len(args) == 1 {
				opts.TargetDir = args[0]
			}
			_, err := scaffold.Run(opts)
			return err
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing files")

	return cmd
}
