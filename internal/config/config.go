// Package config loads noncompliant configuration from
// .noncompliant.yaml or .noncompliant.toml files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/unbound-force/noncompliant/internal/annotation"
	"gopkg.in/yaml.v3"
)

// FileNames are the configuration file names searched for, in order.
var FileNames = []string{".noncompliant.yaml", ".noncompliant.yml", ".noncompliant.toml"}

// DefaultCompilerPattern matches C# and VB.NET compiler diagnostics
// and analyzer-loading diagnostics.
const DefaultCompilerPattern = `^(CS|BC|AD)\d{4}$`

// Config is the top-level configuration.
type Config struct {
	Fixtures FixturesConfig `yaml:"fixtures" toml:"fixtures"`
	Verify   VerifyConfig   `yaml:"verify" toml:"verify"`
	Cache    CacheConfig    `yaml:"cache" toml:"cache"`

	compilerRe *regexp.Regexp
}

// FixturesConfig controls fixture discovery and parsing.
type FixturesConfig struct {
	// Include restricts discovery to matching paths when non-empty.
	Include []string `yaml:"include" toml:"include"`

	// Exclude removes matching paths. Supports "dir/**" patterns.
	Exclude []string `yaml:"exclude" toml:"exclude"`

	// Syntax maps file extensions (".razor") to a comment syntax
	// family name ("c", "hash", "basic", "markup").
	Syntax map[string]string `yaml:"syntax" toml:"syntax"`

	// Timeout bounds the discovery walk. Zero means no limit.
	Timeout Duration `yaml:"timeout" toml:"timeout"`

	// Jobs is the number of fixtures parsed concurrently. Zero means
	// one per CPU.
	Jobs int `yaml:"jobs" toml:"jobs"`
}

// VerifyConfig controls how diagnostics are matched to fixtures.
type VerifyConfig struct {
	// Rules maps a fixture rule name to the analyzer rule IDs it
	// exercises. Fixtures without an entry accept every rule ID.
	Rules map[string][]string `yaml:"rules" toml:"rules"`

	// CompilerPattern matches diagnostic IDs that come from the
	// compiler rather than the analyzer.
	CompilerPattern string `yaml:"compiler_pattern" toml:"compiler_pattern"`

	// IgnoreCompilerWarnings drops compiler diagnostics that are not
	// errors before matching.
	IgnoreCompilerWarnings bool `yaml:"ignore_compiler_warnings" toml:"ignore_compiler_warnings"`
}

// CacheConfig controls the parsed annotation cache.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Dir     string `yaml:"dir" toml:"dir"`
}

// Duration is a time.Duration written as a string ("30s") in
// configuration files.
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(b)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", b, err)
	}
	d.Duration = v
	return nil
}

// MarshalText renders the duration string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalYAML parses a duration scalar.
func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	var s string
	if err := n.Decode(&s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

// DefaultConfig returns the configuration used when no file is found.
func DefaultConfig() *Config {
	return &Config{
		Fixtures: FixturesConfig{
			Exclude: []string{"vendor/**", "node_modules/**", "bin/**", "obj/**"},
			Timeout: Duration{30 * time.Second},
		},
		Verify: VerifyConfig{
			CompilerPattern:        DefaultCompilerPattern,
			IgnoreCompilerWarnings: true,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     ".noncompliant-cache",
		},
		compilerRe: regexp.MustCompile(DefaultCompilerPattern),
	}
}

// Load reads the configuration file at path, layering it over
// DefaultConfig. The format is chosen by extension.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("%s: parsing TOML: %w", path, err)
		}
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%s: parsing YAML: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("%s: unsupported config format", path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Find walks up from startDir looking for a configuration file and
// returns its path. It returns "" when none exists.
func Find(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolving %q: %w", startDir, err)
	}
	for {
		for _, name := range FileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			} else if !errors.Is(err, os.ErrNotExist) {
				return "", fmt.Errorf("stat %q: %w", candidate, err)
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// Resolve loads the explicit path if set, otherwise the first
// configuration file found from startDir, otherwise DefaultConfig.
// It returns the path that was loaded ("" for defaults).
func Resolve(explicit, startDir string) (*Config, string, error) {
	path := explicit
	if path == "" {
		found, err := Find(startDir)
		if err != nil {
			return nil, "", err
		}
		path = found
	}
	if path == "" {
		return DefaultConfig(), "", nil
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// Validate checks the configuration and compiles derived values.
func (c *Config) Validate() error {
	re, err := regexp.Compile(c.Verify.CompilerPattern)
	if err != nil {
		return fmt.Errorf("invalid compiler_pattern: %w", err)
	}
	c.compilerRe = re

	for ext, name := range c.Fixtures.Syntax {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("syntax key %q must be a file extension starting with '.'", ext)
		}
		if _, ok := annotation.SyntaxNamed(name); !ok {
			return fmt.Errorf("unknown syntax %q for %s (known: %s)",
				name, ext, strings.Join(annotation.SyntaxNames(), ", "))
		}
	}

	if c.Fixtures.Jobs < 0 {
		return fmt.Errorf("jobs must not be negative, got %d", c.Fixtures.Jobs)
	}
	return nil
}

// CompilerRegexp returns the compiled compiler diagnostic pattern.
func (c *Config) CompilerRegexp() *regexp.Regexp {
	if c.compilerRe == nil {
		c.compilerRe = regexp.MustCompile(DefaultCompilerPattern)
	}
	return c.compilerRe
}

// SyntaxFor returns the comment syntax for a fixture path, honoring
// extension overrides before the built-in table.
func (c *Config) SyntaxFor(path string) (annotation.Syntax, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if name, ok := c.Fixtures.Syntax[ext]; ok {
		return annotation.SyntaxNamed(name)
	}
	return annotation.SyntaxFor(path)
}

// RuleIDs returns the analyzer rule IDs configured for a fixture rule
// name, or nil when any rule ID is accepted.
func (c *Config) RuleIDs(rule string) []string {
	return c.Verify.Rules[rule]
}

// Jobs returns the effective parse concurrency.
func (c *Config) Jobs() int {
	if c.Fixtures.Jobs > 0 {
		return c.Fixtures.Jobs
	}
	return runtime.NumCPU()
}
