// Package cache stores parsed fixture annotations on disk, keyed by a
// digest of the fixture path, its comment syntax, the parser version
// and the content, so unchanged fixtures are not re-parsed.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/unbound-force/noncompliant/internal/annotation"
	"github.com/vmihailenco/msgpack/v5"
)

// schemaVersion is bumped whenever Entry changes shape.
const schemaVersion uint16 = 1

// Entry is the cached parse result of one fixture.
type Entry struct {
	Schema     uint16                  `msgpack:"schema"`
	Path       string                  `msgpack:"path"`
	Assertions []annotation.Assertion  `msgpack:"assertions"`
	Errors     []annotation.ParseError `msgpack:"errors"`
}

// Cache is a directory of msgpack-encoded entries. It is safe for
// concurrent use. A nil *Cache is valid and caches nothing.
type Cache struct {
	mu  sync.RWMutex
	dir string
}

// Open creates the cache directory if needed.
func Open(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}
	return &Cache{dir: dir}, nil
}

// Key derives the cache key for a fixture. Anything that changes the
// parse result must feed the key: the path, the resolved comment
// syntax, annotation.ParserVersion and the content.
func Key(path string, syn annotation.Syntax, content []byte) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%d\x00%#v\x00", path, annotation.ParserVersion, syn)
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

func (c *Cache) pathFor(key string) string {
	return filepath.Join(c.dir, key[:2], key+".mp")
}

// Get loads the entry for key. A missing entry, or one written with
// a different schema version, is reported as a miss.
func (c *Cache) Get(key string) (*Entry, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer f.Close()

	var e Entry
	if err := msgpack.NewDecoder(f).Decode(&e); err != nil {
		return nil, false, fmt.Errorf("decoding cache entry %s: %w", key, err)
	}
	if e.Schema != schemaVersion {
		return nil, false, nil
	}
	return &e, true, nil
}

// Put writes an entry atomically.
func (c *Cache) Put(key string, e *Entry) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer os.Remove(tmp) //nolint:errcheck

	e.Schema = schemaVersion
	if err := msgpack.NewEncoder(f).Encode(e); err != nil {
		f.Close()
		return fmt.Errorf("encoding cache entry: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, p)
}

// Clear removes every cached entry.
func (c *Cache) Clear() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.RemoveAll(c.dir); err != nil {
		return err
	}
	return os.MkdirAll(c.dir, 0o755)
}
