package annotation

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	caretLineRe = regexp.MustCompile(`^\s*(\^+)(?:\s|$)`)
	shorthandRe = regexp.MustCompile(`^\^(\d+)#(\d+)`)
	offsetRe    = regexp.MustCompile(`^@([+-]?)(\d+)`)
	countRe     = regexp.MustCompile(`^(\d+)(?:\s|\[|\{|$)`)
	errorArgsRe = regexp.MustCompile(`^(?:@[+-]?\d+)?\s*\[`)
	fixedArgsRe = regexp.MustCompile(`^(?:@[+-]?\d+)?\s*$`)
)

// ParserVersion identifies the behavior of Parse and the lexer. Bump it
// whenever the same input would parse differently, so cached results
// are discarded.
const ParserVersion = 2

// Parse extracts all annotations from a fixture's source. It keeps
// going after a malformed annotation so that one pass reports every
// problem; the returned error joins one *ParseError per problem.
func Parse(file string, src []byte, syn Syntax) ([]Assertion, error) {
	p := &parser{file: file}
	comments := lexComments(src, syn)

	// A precise-location line holds nothing but the caret comment, so a
	// trailing "// ^ is xor" stays an ordinary comment.
	isCaret := func(c comment) bool { return c.alone && caretLineRe.MatchString(c.text) }

	caretLines := make(map[int]bool)
	for _, c := range comments {
		if isCaret(c) {
			caretLines[c.line] = true
		}
	}

	for _, c := range comments {
		if isCaret(c) {
			target := c.line - 1
			for target >= 1 && caretLines[target] {
				target--
			}
			p.parseCaret(c, target)
			continue
		}
		p.parseComment(c)
	}

	return p.out, errors.Join(p.errs...)
}

type parser struct {
	file string
	out  []Assertion
	errs []error
}

func (p *parser) errorf(line int, format string, args ...any) {
	p.errs = append(p.errs, &ParseError{File: p.file, Line: line, Msg: fmt.Sprintf(format, args...)})
}

// parseComment recognizes the annotations in an ordinary comment
// body. The first keyword must open the comment; further annotations
// may follow the arguments of the previous one, optionally separated
// by another comment marker. An Error without a code list or a Fixed
// followed by text is treated as prose.
func (p *parser) parseComment(c comment) {
	body := c.text
	i := skipSeparators(body, 0)
	for i < len(body) {
		kind := keywordAt(body, i)
		if kind == "" || isProse(kind, body[i+len(kind):]) {
			return
		}
		a := Assertion{Kind: kind, File: p.file, SourceLine: c.line}
		next, ok := p.parseArgs(&a, body, i+len(kind), c.line, c.line)
		if ok {
			p.out = append(p.out, a)
		}
		i = skipSeparators(body, next)
	}
}

// parseCaret handles a precise-location line ("//   ^^^^ ...") that
// targets the closest preceding non-caret line.
func (p *parser) parseCaret(c comment, target int) {
	if target < 1 {
		p.errorf(c.line, "precise location has no preceding line")
		return
	}

	m := caretLineRe.FindStringSubmatchIndex(c.text)
	caretStart, caretEnd := m[2], m[3]
	span := Span{
		Column: c.col + utf8.RuneCountInString(c.text[:caretStart]),
		Length: caretEnd - caretStart,
	}

	rest := c.text[caretEnd:]
	trimmed := strings.TrimLeftFunc(rest, unicode.IsSpace)
	restAt := caretEnd + len(rest) - len(trimmed)

	a := Assertion{File: p.file, SourceLine: c.line}
	argsAt := restAt
	explicit := false
	if k := keywordAt(trimmed, 0); k != "" {
		a.Kind = k
		argsAt = restAt + len(k)
		explicit = true
	} else {
		a.Kind = Noncompliant
	}

	if _, ok := p.parseArgs(&a, c.text, argsAt, c.line, target); !ok {
		return
	}
	if !a.Span.IsZero() && a.Span != span {
		p.errorf(c.line, "precise location conflicts with %s", a.Span)
		return
	}
	a.Span = span

	if !explicit && p.refine(a) {
		return
	}
	p.out = append(p.out, a)
}

// refine attaches a keyword-less caret line to the most recent
// unpositioned Noncompliant assertion on the same target line.
func (p *parser) refine(a Assertion) bool {
	for i := len(p.out) - 1; i >= 0; i-- {
		prev := &p.out[i]
		if prev.Kind != Noncompliant || prev.Line != a.Line || !prev.Span.IsZero() {
			continue
		}
		if a.Message != "" {
			if prev.Message != "" && prev.Message != a.Message {
				p.errorf(a.SourceLine, "precise location message conflicts with %q", prev.Message)
				return true
			}
			prev.Message = a.Message
		}
		if len(a.IDs) > 0 && len(prev.IDs) == 0 {
			prev.IDs = a.IDs
		}
		prev.Span = a.Span
		return true
	}
	return false
}

// parseArgs reads the tokens that follow a keyword: an optional line
// offset, then any of "^C#L", "[ids]", "{{message}}" and a count. It
// returns the index after the last consumed token and whether the
// assertion is well formed. anchor is the line offsets are relative to.
func (p *parser) parseArgs(a *Assertion, body string, i, srcLine, anchor int) (int, bool) {
	ok := true
	a.Line = anchor

	if m := offsetRe.FindStringSubmatch(body[i:]); m != nil {
		n, _ := strconv.Atoi(m[2])
		switch m[1] {
		case "+":
			a.Line = anchor + n
		case "-":
			a.Line = anchor - n
		default:
			a.Line = n
		}
		i += len(m[0])
	} else if strings.HasPrefix(body[i:], "@") {
		p.errorf(srcLine, "invalid line offset after %s", a.Kind)
		ok = false
		i++
	}
	a.Offset = a.Line - anchor

	args := 0
	for {
		rest := body[i:]
		trimmed := strings.TrimLeftFunc(rest, unicode.IsSpace)
		i += len(rest) - len(trimmed)
		if trimmed == "" {
			break
		}

		if strings.HasPrefix(trimmed, "{{") {
			end := strings.Index(trimmed[2:], "}}")
			if end < 0 {
				p.errorf(srcLine, "unterminated message in %s", a.Kind)
				return len(body), false
			}
			if a.Message != "" {
				p.errorf(srcLine, "duplicate message in %s", a.Kind)
				ok = false
			}
			a.Message = trimmed[2 : 2+end]
			i += end + 4
			args++
			continue
		}

		if trimmed[0] == '[' {
			end := strings.IndexByte(trimmed, ']')
			if end < 0 {
				p.errorf(srcLine, "unterminated id list in %s", a.Kind)
				return len(body), false
			}
			ids, err := splitIDs(trimmed[1:end])
			if err != nil {
				p.errorf(srcLine, "%s in %s", err, a.Kind)
				ok = false
			}
			a.IDs = append(a.IDs, ids...)
			i += end + 1
			args++
			continue
		}

		if m := shorthandRe.FindStringSubmatch(trimmed); m != nil {
			col, _ := strconv.Atoi(m[1])
			length, _ := strconv.Atoi(m[2])
			if col < 1 {
				p.errorf(srcLine, "column must be positive in %s", a.Kind)
				ok = false
			}
			a.Span = Span{Column: col, Length: length}
			i += len(m[0])
			args++
			continue
		}

		if m := countRe.FindStringSubmatch(trimmed); m != nil && a.Kind == Noncompliant {
			n, _ := strconv.Atoi(m[1])
			if n < 1 {
				p.errorf(srcLine, "issue count must be at least 1")
				ok = false
			}
			a.Count = n
			i += len(m[1])
			args++
			continue
		}

		break
	}

	if a.Line < 1 {
		p.errorf(srcLine, "%s targets line %d", a.Kind, a.Line)
		ok = false
	}
	if a.Kind == Fixed && args > 0 {
		p.errorf(srcLine, "Fixed takes no arguments")
		ok = false
	}
	return i, ok
}

func splitIDs(s string) ([]string, error) {
	parts := strings.Split(s, ",")
	ids := make([]string, 0, len(parts))
	for _, part := range parts {
		id := strings.TrimSpace(part)
		if id == "" {
			return nil, errors.New("empty id")
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// keywordAt returns the keyword starting at body[i], if any.
func keywordAt(body string, i int) Kind {
	for _, k := range keywords {
		if strings.HasPrefix(body[i:], string(k)) && boundaryAfter(body[i:], len(k)) {
			return k
		}
	}
	return ""
}

func isProse(kind Kind, rest string) bool {
	switch kind {
	case Error:
		return !errorArgsRe.MatchString(rest)
	case Fixed:
		return !fixedArgsRe.MatchString(rest)
	}
	return false
}

// skipSeparators skips whitespace and "//" runs between annotations.
func skipSeparators(body string, i int) int {
	for i < len(body) {
		switch {
		case body[i] == ' ' || body[i] == '\t':
			i++
		case strings.HasPrefix(body[i:], "//"):
			i += 2
		default:
			return i
		}
	}
	return i
}

func boundaryAfter(s string, n int) bool {
	return n >= len(s) || !isWordByte(s[n])
}

func isWordByte(b byte) bool {
	return b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}
