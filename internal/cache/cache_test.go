package cache

import (
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"github.com/unbound-force/noncompliant/internal/annotation"
	"github.com/vmihailenco/msgpack/v5"
)

func sampleEntry() *Entry {
	return &Entry{
		Path: "Rules/UnusedLocal.cs",
		Assertions: []annotation.Assertion{
			{
				Kind: annotation.Noncompliant, File: "Rules/UnusedLocal.cs",
				Line: 3, SourceLine: 3, Message: "Remove this unused local.",
				Span: annotation.Span{Column: 9, Length: 6}, IDs: []string{"a"},
			},
			{Kind: annotation.Secondary, File: "Rules/UnusedLocal.cs", Line: 5, SourceLine: 4, Offset: 1, IDs: []string{"a"}},
		},
		Errors: []annotation.ParseError{{File: "Rules/UnusedLocal.cs", Line: 9, Msg: "empty id"}},
	}
}

func TestCache_PutGet(t *testing.T) {
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	key := Key("Rules/UnusedLocal.cs", annotation.CFamily, []byte("int x; // Noncompliant"))
	if err := c.Put(key, sampleEntry()); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	got, ok, err := c.Get(key)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if !ok {
		t.Fatal("expected cache hit")
	}
	want := sampleEntry()
	want.Schema = schemaVersion
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round-tripped entry differs:\n got %+v\nwant %+v", got, want)
	}
}

func TestCache_Miss(t *testing.T) {
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	_, ok, err := c.Get(Key("x", annotation.CFamily, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected miss on empty cache")
	}
}

func TestCache_SchemaMismatchIsMiss(t *testing.T) {
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	key := Key("a", annotation.CFamily, []byte("b"))
	if err := c.Put(key, sampleEntry()); err != nil {
		t.Fatal(err)
	}

	// Overwrite the entry with a payload from a future schema.
	old := sampleEntry()
	old.Schema = schemaVersion + 1
	data, err := msgpack.Marshal(old)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(c.pathFor(key), data, 0o644); err != nil {
		t.Fatal(err)
	}

	_, ok, err := c.Get(key)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected schema mismatch to be a miss")
	}
}

func TestCache_CorruptEntry(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	key := Key("a", annotation.CFamily, []byte("b"))
	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte{0xc1}, 0o644); err != nil {
		t.Fatal(err)
	}

	if _, _, err := c.Get(key); err == nil {
		t.Error("expected decode error for corrupt entry")
	}
}

func TestCache_NilIsNoop(t *testing.T) {
	var c *Cache
	if err := c.Put("k", sampleEntry()); err != nil {
		t.Errorf("nil Put should not fail: %v", err)
	}
	if _, ok, err := c.Get("k"); ok || err != nil {
		t.Errorf("nil Get should miss, got ok=%v err=%v", ok, err)
	}
	if err := c.Clear(); err != nil {
		t.Errorf("nil Clear should not fail: %v", err)
	}
}

func TestCache_Concurrent(t *testing.T) {
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := Key("f", annotation.CFamily, []byte{byte(i % 4)})
			if err := c.Put(key, sampleEntry()); err != nil {
				t.Errorf("Put() failed: %v", err)
			}
			if _, _, err := c.Get(key); err != nil {
				t.Errorf("Get() failed: %v", err)
			}
		}(i)
	}
	wg.Wait()
}

func TestCache_Clear(t *testing.T) {
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	key := Key("a", annotation.CFamily, nil)
	if err := c.Put(key, sampleEntry()); err != nil {
		t.Fatal(err)
	}
	if err := c.Clear(); err != nil {
		t.Fatalf("Clear() failed: %v", err)
	}
	if _, ok, _ := c.Get(key); ok {
		t.Error("expected miss after Clear")
	}
}

func TestKey_DependsOnSyntax(t *testing.T) {
	src := []byte("x = 1 // Noncompliant")
	if Key("a.razor", annotation.CFamily, src) == Key("a.razor", annotation.Hash, src) {
		t.Error("different syntaxes should produce different keys")
	}

	custom := annotation.CFamily
	custom.Quotes = "\""
	if Key("a.cs", annotation.CFamily, src) == Key("a.cs", custom, src) {
		t.Error("a change to any syntax field should produce a different key")
	}
}

func TestKey_DependsOnPathAndContent(t *testing.T) {
	if Key("a", annotation.CFamily, []byte("x")) == Key("b", annotation.CFamily, []byte("x")) {
		t.Error("different paths should produce different keys")
	}
	if Key("a", annotation.CFamily, []byte("x")) == Key("a", annotation.CFamily, []byte("y")) {
		t.Error("different content should produce different keys")
	}
	if Key("a", annotation.CFamily, []byte("x")) != Key("a", annotation.CFamily, []byte("x")) {
		t.Error("Key should be deterministic")
	}
}
