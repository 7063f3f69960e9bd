package verify

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/unbound-force/noncompliant/internal/diagnostic"
)

// normalizePath turns a reported file path into a slash-separated path
// relative to root where possible.
func normalizePath(p, absRoot string) string {
	p = strings.TrimPrefix(p, "file://")
	p = strings.ReplaceAll(p, `\`, "/")

	if absRoot != "" && filepath.IsAbs(filepath.FromSlash(p)) {
		rel, err := filepath.Rel(absRoot, filepath.FromSlash(p))
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			p = filepath.ToSlash(rel)
		}
	}

	p = path.Clean(p)
	return strings.TrimPrefix(p, "./")
}

// router maps reported paths onto fixture paths.
type router struct {
	absRoot string
	exact   map[string]int
	paths   []string
}

func newRouter(root string, fixturePaths []string) *router {
	r := &router{exact: make(map[string]int, len(fixturePaths)), paths: fixturePaths}
	if root != "" {
		if abs, err := filepath.Abs(root); err == nil {
			r.absRoot = abs
		}
	}
	for i, p := range fixturePaths {
		r.exact[path.Clean(p)] = i
	}
	return r
}

// route returns the index of the fixture a reported path refers to, or
// -1. Exact matches win; otherwise the longest fixture path that is a
// path-segment suffix of the reported path (or vice versa) is chosen.
func (r *router) route(reported string) int {
	p := normalizePath(reported, r.absRoot)
	if i, ok := r.exact[p]; ok {
		return i
	}

	best, bestLen := -1, 0
	for i, fp := range r.paths {
		if len(fp) <= bestLen {
			continue
		}
		if strings.HasSuffix(p, "/"+fp) || strings.HasSuffix(fp, "/"+p) {
			best, bestLen = i, len(fp)
		}
	}
	return best
}

// inFile reports whether a location refers to the fixture at index idx.
func (r *router) inFile(loc diagnostic.Location, idx int) bool {
	return r.route(loc.File) == idx
}
