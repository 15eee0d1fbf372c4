package scanfmt

import (
	"fmt"
	"strings"
)

// This file contains the format-string tokenizer. It splits a format
// string into an ordered sequence of literal spans and placeholder
// bodies. Escaping rules:
//
//	{{   a literal '{' in the output text
//	}}   a literal '}' in the output text
//	\{   inside a placeholder body: a brace that does not open/close the
//	     placeholder (used in custom sub-patterns; see options.go)
//
// Any other '{' opens a placeholder and any other '}' is an error. A
// backslash inside a placeholder body escapes the following character
// for the purposes of finding the closing '}' only; the body is kept
// raw and unescaped until the option parser interprets it.

type tokenKind int

const (
	tokenLiteral tokenKind = iota
	tokenPlaceholder
)

type token struct {
	kind tokenKind
	text string // unescaped literal text (tokenLiteral)
	body string // raw text between the braces (tokenPlaceholder)
}

// tokenize splits format into literal and placeholder tokens. Adjacent
// literal runs are merged; order equals textual order.
func tokenize(format string) ([]token, error) {
	var tokens []token
	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			tokens = append(tokens, token{kind: tokenLiteral, text: lit.String()})
			lit.Reset()
		}
	}

	i := 0
	for i < len(format) {
		c := format[i]
		switch c {
		case '{':
			if i+1 < len(format) && format[i+1] == '{' {
				lit.WriteByte('{')
				i += 2
				continue
			}
			body, next, err := scanPlaceholderBody(format, i+1)
			if err != nil {
				return nil, err
			}
			flush()
			tokens = append(tokens, token{kind: tokenPlaceholder, body: body})
			i = next
		case '}':
			if i+1 < len(format) && format[i+1] == '}' {
				lit.WriteByte('}')
				i += 2
				continue
			}
			return nil, fmt.Errorf("%w: standalone '}' at index %d (escape it as '}}')", ErrUnescapedBrace, i)
		default:
			lit.WriteByte(c)
			i++
		}
	}
	flush()

	return tokens, nil
}

// scanPlaceholderBody scans from the character after an opening '{' to
// the matching unescaped '}'. It returns the raw body and the index just
// past the closing brace.
func scanPlaceholderBody(format string, start int) (string, int, error) {
	escaped := false
	for i := start; i < len(format); i++ {
		if escaped {
			escaped = false
			continue
		}
		switch format[i] {
		case '\\':
			escaped = true
		case '}':
			return format[start:i], i + 1, nil
		}
	}
	return "", 0, fmt.Errorf("%w: missing '}' for placeholder opened at index %d (escape a literal '{' as '{{')",
		ErrUnescapedBrace, start-1)
}
