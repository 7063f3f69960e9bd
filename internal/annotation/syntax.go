package annotation

import (
	"path/filepath"
	"sort"
	"strings"
)

// Syntax describes how comments and string literals are delimited in a
// fixture language. The lexer only needs enough of a language to tell
// comments apart from code and literals.
type Syntax struct {
	// Name identifies the syntax family in configuration files.
	Name string

	// LinePrefixes start a comment that runs to the end of the line.
	LinePrefixes []string

	// BlockStart and BlockEnd delimit block comments. Empty when the
	// language has none.
	BlockStart string
	BlockEnd   string

	// Quotes lists the characters that open single-line string or
	// character literals. A backtick is treated as a raw literal that
	// may span lines.
	Quotes string

	// Escape is the escape character inside quoted literals, or 0.
	Escape rune

	// Verbatim enables C#-style @"..." literals with doubled quotes.
	Verbatim bool

	// TripleQuote enables """...""" literals that may span lines.
	TripleQuote bool

	// Lifetimes makes an apostrophe open a literal only when it forms a
	// complete character literal, as in Rust where 'a is a lifetime.
	Lifetimes bool
}

// Built-in syntax families.
var (
	CFamily = Syntax{
		Name:         "c",
		LinePrefixes: []string{"//"},
		BlockStart:   "/*",
		BlockEnd:     "*/",
		Quotes:       "\"'`",
		Escape:       '\\',
		Verbatim:     true,
		TripleQuote:  true,
	}

	Rust = Syntax{
		Name:         "rust",
		LinePrefixes: []string{"//"},
		BlockStart:   "/*",
		BlockEnd:     "*/",
		Quotes:       "\"",
		Escape:       '\\',
		Lifetimes:    true,
	}

	Hash = Syntax{
		Name:         "hash",
		LinePrefixes: []string{"#"},
		Quotes:       "\"'",
		Escape:       '\\',
		TripleQuote:  true,
	}

	Basic = Syntax{
		Name:         "basic",
		LinePrefixes: []string{"'"},
		Quotes:       "\"",
	}

	Markup = Syntax{
		Name:       "markup",
		BlockStart: "<!--",
		BlockEnd:   "-->",
	}
)

var syntaxByName = map[string]Syntax{
	CFamily.Name: CFamily,
	Rust.Name:    Rust,
	Hash.Name:    Hash,
	Basic.Name:   Basic,
	Markup.Name:  Markup,
}

var syntaxByExt = map[string]Syntax{
	".cs":     CFamily,
	".go":     CFamily,
	".java":   CFamily,
	".kt":     CFamily,
	".scala":  CFamily,
	".js":     CFamily,
	".jsx":    CFamily,
	".ts":     CFamily,
	".tsx":    CFamily,
	".c":      CFamily,
	".h":      CFamily,
	".cpp":    CFamily,
	".hpp":    CFamily,
	".swift":  CFamily,
	".rs":     Rust,
	".razor":  CFamily,
	".vb":     Basic,
	".py":     Hash,
	".rb":     Hash,
	".sh":     Hash,
	".yaml":   Hash,
	".yml":    Hash,
	".toml":   Hash,
	".xml":    Markup,
	".html":   Markup,
	".csproj": Markup,
	".vbproj": Markup,
	".config": Markup,
}

// SyntaxNamed returns the built-in syntax family with the given name.
func SyntaxNamed(name string) (Syntax, bool) {
	s, ok := syntaxByName[strings.ToLower(name)]
	return s, ok
}

// SyntaxNames lists the built-in syntax family names in sorted order.
func SyntaxNames() []string {
	names := make([]string, 0, len(syntaxByName))
	for n := range syntaxByName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// SyntaxFor returns the syntax registered for the file's extension.
func SyntaxFor(path string) (Syntax, bool) {
	s, ok := syntaxByExt[strings.ToLower(filepath.Ext(path))]
	return s, ok
}
