package fixture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/unbound-force/noncompliant/internal/annotation"
	"github.com/unbound-force/noncompliant/internal/cache"
	"github.com/unbound-force/noncompliant/internal/config"
	"golang.org/x/sync/errgroup"
)

// LoadOptions configures Load.
type LoadOptions struct {
	// Config supplies syntax overrides, rule mappings and the
	// concurrency limit. If nil, config.DefaultConfig() is used.
	Config *config.Config

	// Cache, if non-nil, is consulted before parsing and updated after.
	Cache *cache.Cache
}

// Load reads and parses the fixtures at the given paths (relative to
// root) concurrently. The result preserves the order of paths.
// Malformed annotations are recorded on the fixture, not returned as
// errors; an error is returned only when a file cannot be read or the
// context is cancelled.
func Load(ctx context.Context, root string, paths []string, opts LoadOptions) ([]Fixture, error) {
	if opts.Config == nil {
		opts.Config = config.DefaultConfig()
	}

	fixtures := make([]Fixture, len(paths))
	if len(paths) == 0 {
		return fixtures, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(opts.Config.Jobs(), len(paths)))

	for i, rel := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fx, err := loadOne(root, rel, opts)
			if err != nil {
				return err
			}
			fixtures[i] = fx
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return fixtures, nil
}

// LoadFile parses a single fixture file outside of a discovery root.
func LoadFile(path string, cfg *config.Config) (Fixture, error) {
	return loadOne(filepath.Dir(path), filepath.Base(path), LoadOptions{Config: cfg})
}

func loadOne(root, rel string, opts LoadOptions) (Fixture, error) {
	if opts.Config == nil {
		opts.Config = config.DefaultConfig()
	}
	src, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return Fixture{}, fmt.Errorf("reading fixture: %w", err)
	}

	syn, ok := opts.Config.SyntaxFor(rel)
	if !ok {
		syn = annotation.CFamily
	}

	rule, variant, fixed := RuleOf(rel)
	fx := Fixture{
		Path:    filepath.ToSlash(rel),
		Rule:    rule,
		Variant: variant,
		Fixed:   fixed,
		RuleIDs: opts.Config.RuleIDs(rule),
		Hash:    cache.Key(rel, syn, src),
	}

	entry, hit, err := opts.Cache.Get(fx.Hash)
	if err != nil {
		// A corrupt entry is rebuilt below.
		hit = false
	}
	if hit {
		fx.Assertions = entry.Assertions
		fx.Errors = entry.Errors
	} else {
		asserts, parseErr := annotation.Parse(fx.Path, src, syn)
		fx.Assertions = asserts
		fx.Errors = derefErrors(annotation.ParseErrors(parseErr))

		if err := opts.Cache.Put(fx.Hash, &cache.Entry{
			Path:       fx.Path,
			Assertions: fx.Assertions,
			Errors:     fx.Errors,
		}); err != nil {
			return Fixture{}, fmt.Errorf("caching %s: %w", fx.Path, err)
		}
	}

	exps, linkErr := annotation.Link(fx.Assertions)
	fx.Expectations = exps
	fx.Errors = append(fx.Errors, derefErrors(annotation.ParseErrors(linkErr))...)

	return fx, nil
}

func derefErrors(errs []*annotation.ParseError) []annotation.ParseError {
	if len(errs) == 0 {
		return nil
	}
	out := make([]annotation.ParseError, len(errs))
	for i, e := range errs {
		out[i] = *e
	}
	return out
}
