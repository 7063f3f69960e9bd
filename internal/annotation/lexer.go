package annotation

import (
	"strings"
	"unicode"
)

// comment is the body of a comment on one physical line. Block
// comments that span lines produce one comment per line.
type comment struct {
	line int    // 1-based line number
	col  int    // 1-based rune column of text[0]
	text string // comment body without delimiters

	// alone is set when only whitespace precedes the comment on its
	// physical line.
	alone bool
}

type lexState int

const (
	inCode lexState = iota
	inBlock
	inString
	inVerbatim
	inRaw
)

// lexComments extracts comment bodies from src, skipping string and
// character literals so annotation keywords inside them are ignored.
// Single-line literals that are not closed by the end of the line are
// abandoned at the newline.
func lexComments(src []byte, syn Syntax) []comment {
	var (
		out     []comment
		state   = inCode
		closing []rune
		blockS  = []rune(syn.BlockStart)
		blockE  = []rune(syn.BlockEnd)
		prefix  = make([][]rune, len(syn.LinePrefixes))
	)
	for i, p := range syn.LinePrefixes {
		prefix[i] = []rune(p)
	}

	for n, raw := range strings.Split(string(src), "\n") {
		rs := []rune(strings.TrimSuffix(raw, "\r"))
		lineNo := n + 1
		segStart := 0
		blockAlone := true
		j := 0

		for j < len(rs) {
			switch state {
			case inCode:
				if p := matchAny(rs, j, prefix); p > 0 {
					out = append(out, comment{line: lineNo, col: j + p + 1, text: string(rs[j+p:]), alone: isBlank(rs[:j])})
					j = len(rs)
					continue
				}
				if len(blockS) > 0 && hasAt(rs, j, blockS) {
					state = inBlock
					blockAlone = isBlank(rs[:j])
					j += len(blockS)
					segStart = j
					continue
				}
				if syn.TripleQuote && hasAt(rs, j, []rune(`"""`)) {
					state, closing = inRaw, []rune(`"""`)
					j += 3
					continue
				}
				if syn.Verbatim {
					if w := verbatimOpen(rs, j); w > 0 {
						state = inVerbatim
						j += w
						continue
					}
				}
				if syn.Lifetimes && rs[j] == '\'' {
					// Only a complete character literal is skipped; any
					// other apostrophe starts a lifetime or label.
					j += max(charLiteralWidth(rs, j, syn.Escape), 1)
					continue
				}
				if rs[j] == '\'' && j > 0 && isWordRune(rs[j-1]) && !literalPrefixBefore(rs, j) {
					// An apostrophe inside a word, as in "don't" or 1'000.
					j++
					continue
				}
				if strings.ContainsRune(syn.Quotes, rs[j]) {
					if rs[j] == '`' {
						state, closing = inRaw, []rune{'`'}
					} else {
						state, closing = inString, []rune{rs[j]}
					}
				}
				j++

			case inBlock:
				if hasAt(rs, j, blockE) {
					out = append(out, comment{line: lineNo, col: segStart + 1, text: string(rs[segStart:j]), alone: blockAlone})
					state = inCode
					j += len(blockE)
					continue
				}
				j++

			case inString:
				if syn.Escape != 0 && rs[j] == syn.Escape {
					j += 2
					continue
				}
				if rs[j] == closing[0] {
					state = inCode
				}
				j++

			case inVerbatim:
				if rs[j] == '"' {
					if j+1 < len(rs) && rs[j+1] == '"' {
						j += 2
						continue
					}
					state = inCode
				}
				j++

			case inRaw:
				if hasAt(rs, j, closing) {
					state = inCode
					j += len(closing)
					continue
				}
				j++
			}
		}

		switch state {
		case inBlock:
			out = append(out, comment{line: lineNo, col: segStart + 1, text: string(rs[min(segStart, len(rs)):]), alone: blockAlone})
		case inString:
			state = inCode
		}
	}

	return out
}

// charLiteralWidth returns the width of a character literal such as
// 'a', '"' or '\n' starting at rs[j], or 0 when the apostrophe does not
// open one.
func charLiteralWidth(rs []rune, j int, escape rune) int {
	k := j + 1
	if k >= len(rs) {
		return 0
	}
	if escape != 0 && rs[k] == escape {
		// '\n', '\'', '\x7f', '\u{1F600}'
		for end := k + 2; end < len(rs) && end <= k+11; end++ {
			if rs[end] == '\'' {
				return end - j + 1
			}
		}
		return 0
	}
	if k+1 < len(rs) && rs[k+1] == '\'' {
		return 3
	}
	return 0
}

// literalPrefixBefore reports whether the word ending at rs[j-1] is a
// string literal prefix such as Python's f or rb, or C++'s L and u8.
func literalPrefixBefore(rs []rune, j int) bool {
	start := j
	for start > 0 && isWordRune(rs[start-1]) {
		start--
	}
	if j-start > 2 {
		return false
	}
	for _, r := range rs[start:j] {
		if !strings.ContainsRune("rRbBfFuUL8", r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isBlank(rs []rune) bool {
	for _, r := range rs {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// verbatimOpen returns the width of a C# verbatim or interpolated
// verbatim string opener at rs[j], or 0.
func verbatimOpen(rs []rune, j int) int {
	for _, open := range []string{`@"`, `$@"`, `@$"`} {
		if hasAt(rs, j, []rune(open)) {
			return len(open)
		}
	}
	return 0
}

func matchAny(rs []rune, j int, prefixes [][]rune) int {
	for _, p := range prefixes {
		if len(p) > 0 && hasAt(rs, j, p) {
			return len(p)
		}
	}
	return 0
}

func hasAt(rs []rune, j int, want []rune) bool {
	if j+len(want) > len(rs) {
		return false
	}
	for k, r := range want {
		if rs[j+k] != r {
			return false
		}
	}
	return true
}
