package scanfmt

import (
	"fmt"
	"regexp/syntax"
	"strconv"
	"strings"
)

// This file contains the placeholder configuration parser. It interprets
// the raw text between '{' and '}' as a type name plus, after the first
// unescaped ':', one option from exactly one of three classes:
//
//	/.../    a custom sub-pattern, taken verbatim except for brace and
//	         slash escapes ("\{", "\}", "\/", "\\")
//	x o b rN a radix for integer-capable types; '#' before or after
//	         x/o/b requires the 0x/0o/0b prefix instead of allowing it
//	other    a sub-format string handed to the type's fragment builder
//	         (used by date/time-like types)
//
// Mixing classes in one placeholder fails with ErrConflictingOptions.

// PrefixPolicy controls whether a radix prefix (0x, 0o, 0b) may or must
// appear in front of an integer.
type PrefixPolicy int

const (
	// PrefixForbidden accepts the bare number only. The default, and the
	// only policy for decimal and custom ("rN") radixes.
	PrefixForbidden PrefixPolicy = iota
	// PrefixOptional accepts the number with or without its prefix.
	PrefixOptional
	// PrefixRequired accepts the prefixed form only.
	PrefixRequired
)

// PlaceholderOptions is the parsed configuration of one placeholder.
// At most one of the Custom, Radix and SubFormat option classes is set.
type PlaceholderOptions struct {
	// TypeName is the registry name of the placeholder's type, or "" for
	// a position-inferred "{}" placeholder.
	TypeName string

	// Custom is a caller-supplied sub-pattern overriding the type's
	// fragment. Valid only when HasCustom is true.
	Custom    string
	HasCustom bool

	// Radix is the numeric base for integer-capable types, 0 when unset
	// (decimal). Prefix applies only when Radix is 2, 8 or 16.
	Radix  int
	Prefix PrefixPolicy

	// SubFormat is an opaque format string interpreted by the type's
	// parametrized fragment builder. Valid only when HasSubFormat is true.
	SubFormat    string
	HasSubFormat bool
}

// radix returns the effective base, defaulting to decimal.
func (o PlaceholderOptions) radix() int {
	if o.Radix == 0 {
		return 10
	}
	return o.Radix
}

// parsePlaceholder interprets the raw body of one placeholder.
func parsePlaceholder(body string) (PlaceholderOptions, error) {
	opts := PlaceholderOptions{}

	name, optText, hasOpt := splitOnColon(body)
	opts.TypeName = strings.TrimSpace(name)
	if !hasOpt {
		return opts, nil
	}
	if optText == "" {
		return opts, fmt.Errorf("%w: empty option in placeholder %q (remove the ':')", ErrInvalidOption, body)
	}

	if strings.HasPrefix(optText, "/") {
		return parseCustomPattern(opts, optText)
	}

	if radix, prefix, ok, err := parseRadixToken(optText); err != nil {
		return opts, err
	} else if ok {
		opts.Radix = radix
		opts.Prefix = prefix
		return opts, nil
	}

	// Guard against a radix token glued to a custom pattern, e.g. "x/.../".
	if i := strings.IndexByte(optText, '/'); i > 0 {
		if _, _, ok, _ := parseRadixToken(optText[:i]); ok {
			return opts, fmt.Errorf("%w: both a radix %q and a custom pattern in %q",
				ErrConflictingOptions, optText[:i], body)
		}
	}

	opts.SubFormat = optText
	opts.HasSubFormat = true
	return opts, nil
}

// splitOnColon splits a placeholder body on the first unescaped ':'.
func splitOnColon(body string) (name, opt string, hasOpt bool) {
	escaped := false
	for i := 0; i < len(body); i++ {
		if escaped {
			escaped = false
			continue
		}
		switch body[i] {
		case '\\':
			escaped = true
		case ':':
			return body[:i], body[i+1:], true
		}
	}
	return body, "", false
}

// parseCustomPattern parses a "/.../" option. The closing slash must end
// the option text; anything after it is a second, conflicting option.
func parseCustomPattern(opts PlaceholderOptions, text string) (PlaceholderOptions, error) {
	var pattern strings.Builder
	end := -1
	i := 1
	for i < len(text) {
		c := text[i]
		if c == '\\' && i+1 < len(text) {
			// One extra level of escaping applies inside custom-pattern
			// bodies: \{ \} \/ \\ collapse to the bare character. Any
			// other backslash sequence belongs to the pattern itself
			// (\d, \w, ...) and is kept whole.
			switch text[i+1] {
			case '{', '}', '/', '\\':
				pattern.WriteByte(text[i+1])
				i += 2
				continue
			}
			pattern.WriteByte(c)
			pattern.WriteByte(text[i+1])
			i += 2
			continue
		}
		if c == '/' {
			end = i
			break
		}
		pattern.WriteByte(c)
		i++
	}
	if end < 0 {
		return opts, fmt.Errorf("%w: missing '/' to end the custom pattern in %q", ErrInvalidOption, text)
	}
	if end != len(text)-1 {
		return opts, fmt.Errorf("%w: trailing %q after the custom pattern", ErrConflictingOptions, text[end+1:])
	}

	re, err := syntax.Parse(pattern.String(), syntax.Perl)
	if err != nil {
		return opts, fmt.Errorf("%w: custom pattern %q: %v", ErrInvalidOption, pattern.String(), err)
	}
	if re.MaxCap() > 0 {
		return opts, fmt.Errorf(
			"%w: custom pattern %q contains capture groups; make them non-capturing with '(?:...)'",
			ErrInvalidOption, pattern.String(),
		)
	}

	opts.Custom = pattern.String()
	opts.HasCustom = true
	return opts, nil
}

// parseRadixToken recognizes the radix option grammar. ok is false when
// the text is not radix-shaped at all (and may be a sub-format); an
// error is returned for text that is radix-shaped but invalid.
func parseRadixToken(text string) (radix int, prefix PrefixPolicy, ok bool, err error) {
	switch text {
	case "x":
		return 16, PrefixOptional, true, nil
	case "o":
		return 8, PrefixOptional, true, nil
	case "b":
		return 2, PrefixOptional, true, nil
	case "#x", "x#":
		return 16, PrefixRequired, true, nil
	case "#o", "o#":
		return 8, PrefixRequired, true, nil
	case "#b", "b#":
		return 2, PrefixRequired, true, nil
	}

	if strings.HasPrefix(text, "#") || strings.HasSuffix(text, "#") {
		return 0, 0, false, fmt.Errorf(
			"%w: prefix modifier '#' can only be combined with 'x', 'o' or 'b', got %q",
			ErrInvalidOption, text,
		)
	}

	if rest, found := strings.CutPrefix(text, "r"); found && rest != "" && isDigits(rest) {
		n, convErr := strconv.Atoi(rest)
		if convErr != nil || n < 2 || n > 36 {
			return 0, 0, false, fmt.Errorf("%w: radix has to be a number between 2 and 36, got %q", ErrInvalidOption, text)
		}
		return n, PrefixForbidden, true, nil
	}

	return 0, 0, false, nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}
