package fixture

import (
	"path/filepath"
	"strings"

	"github.com/unbound-force/noncompliant/internal/config"
)

// Filter returns true if the given relative path should be included
// in fixture discovery, based on the include/exclude patterns in cfg.
//
// Logic:
//  1. If include patterns are set, the file must match at least one.
//  2. If the file matches any exclude pattern, it is excluded.
//  3. Otherwise, the file is included.
func Filter(rel string, cfg *config.Config) bool {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	rel = filepath.ToSlash(rel)

	if len(cfg.Fixtures.Include) > 0 {
		matched := false
		for _, pattern := range cfg.Fixtures.Include {
			if matchGlob(pattern, rel) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	for _, pattern := range cfg.Fixtures.Exclude {
		if matchGlob(pattern, rel) {
			return false
		}
	}

	return true
}

// matchGlob matches a path against a glob pattern. It supports
// filepath.Match syntax, "dir/**" suffix patterns, and bare-name
// patterns that are matched against the base name.
func matchGlob(pattern, rel string) bool {
	if strings.HasSuffix(pattern, "/**") {
		prefix := strings.TrimSuffix(pattern, "/**")
		return rel == prefix || strings.HasPrefix(rel, prefix+"/") ||
			strings.Contains(rel, "/"+prefix+"/")
	}

	if matched, err := filepath.Match(pattern, rel); err == nil && matched {
		return true
	}

	if !strings.Contains(pattern, "/") {
		matched, err := filepath.Match(pattern, filepath.Base(rel))
		return err == nil && matched
	}

	return false
}
