package scanfmt

import (
	"regexp"
	"regexp/syntax"
)

///////////////////////////////////////////////////////////////////////////////
// Pattern composition
///////////////////////////////////////////////////////////////////////////////

// captureSpec locates one placeholder's capture groups inside a composed
// pattern. groupStart is the 1-based index of the placeholder's outer
// group, counted from the start of the pattern it was composed into;
// groupCount includes the outer group plus every group nested in the
// type's fragment.
type captureSpec struct {
	placeholder int
	groupStart  int
	groupCount  int
}

// converter is the conversion slot for one placeholder, fixed at
// composition time.
type converter struct {
	typeName string
	opts     PlaceholderOptions
	convert  ConvertFunc
}

// composed is the output of composing one token sequence: an unanchored
// pattern, the capture table, the converter per placeholder and the
// total number of capture groups.
type composed struct {
	pattern    string
	captures   []captureSpec
	converters []converter
	groups     int
}

// Matcher is a compiled format string. It is immutable and safe for
// concurrent use; compile once per distinct format and reuse.
type Matcher struct {
	re         *regexp.Regexp
	pattern    string
	captures   []captureSpec
	converters []converter
}

// Pattern returns the full anchored regular expression the matcher runs.
func (m *Matcher) Pattern() string { return m.pattern }

// NumPlaceholders returns how many values a successful Run produces.
func (m *Matcher) NumPlaceholders() int { return len(m.captures) }

// Compile builds a Matcher from a format string. Types for "{}"
// placeholders come from bindings in textual order. Bindings are also
// accepted one-per-placeholder, in which case explicitly typed
// placeholders ignore theirs; any other count is an ArityError.
//
// All syntax, resolution and arity problems surface here, so a Matcher
// that compiles can only fail at match time.
func (r *Registry) Compile(format string, bindings ...string) (*Matcher, error) {
	tokens, err := tokenize(format)
	if err != nil {
		return nil, err
	}

	optsList, err := parseTokens(tokens)
	if err != nil {
		return nil, err
	}

	if err := bindTypes(optsList, bindings); err != nil {
		return nil, err
	}

	c, err := r.compose(tokens, optsList)
	if err != nil {
		return nil, err
	}

	full := `\A` + c.pattern + `\z`
	re, err := regexp.Compile(full)
	if err != nil {
		return nil, &InternalPatternError{Detail: err.Error(), Pattern: full}
	}
	if re.NumSubexp() != c.groups {
		return nil, &InternalPatternError{
			Detail:  "capture table disagrees with the compiled pattern",
			Pattern: full,
		}
	}

	return &Matcher{
		re:         re,
		pattern:    full,
		captures:   c.captures,
		converters: c.converters,
	}, nil
}

// parseTokens parses the body of every placeholder token. The returned
// slice is indexed by placeholder order, not token order.
func parseTokens(tokens []token) ([]PlaceholderOptions, error) {
	var optsList []PlaceholderOptions
	for _, t := range tokens {
		if t.kind != tokenPlaceholder {
			continue
		}
		opts, err := parsePlaceholder(t.body)
		if err != nil {
			return nil, err
		}
		optsList = append(optsList, opts)
	}
	return optsList, nil
}

// bindTypes fills the type names of inferred placeholders from bindings.
func bindTypes(optsList []PlaceholderOptions, bindings []string) error {
	inferred := 0
	for _, o := range optsList {
		if o.TypeName == "" {
			inferred++
		}
	}

	switch len(bindings) {
	case inferred:
		b := 0
		for i := range optsList {
			if optsList[i].TypeName == "" {
				optsList[i].TypeName = bindings[b]
				b++
			}
		}
	case len(optsList):
		for i := range optsList {
			if optsList[i].TypeName == "" {
				optsList[i].TypeName = bindings[i]
			}
		}
	default:
		return &ArityError{
			Bindings:     len(bindings),
			Inferred:     inferred,
			Placeholders: len(optsList),
		}
	}
	return nil
}

// compose renders a token sequence into one unanchored pattern. Group
// indices in the capture table are relative to the pattern's own start,
// so the result can be embedded into a larger pattern by offsetting.
func (r *Registry) compose(tokens []token, optsList []PlaceholderOptions) (composed, error) {
	var c composed
	var pattern []byte
	placeholder := 0

	for _, t := range tokens {
		if t.kind == tokenLiteral {
			pattern = append(pattern, regexp.QuoteMeta(t.text)...)
			continue
		}

		opts := optsList[placeholder]
		cap, err := r.Resolve(opts.TypeName)
		if err != nil {
			return composed{}, err
		}
		if err := checkOptions(cap, opts); err != nil {
			return composed{}, err
		}

		frag, err := cap.fragment(opts)
		if err != nil {
			return composed{}, err
		}
		inner, err := countGroups(frag)
		if err != nil {
			return composed{}, err
		}

		c.captures = append(c.captures, captureSpec{
			placeholder: placeholder,
			groupStart:  c.groups + 1,
			groupCount:  inner + 1,
		})
		c.converters = append(c.converters, converter{
			typeName: opts.TypeName,
			opts:     opts,
			convert:  cap.Convert,
		})
		c.groups += inner + 1

		pattern = append(pattern, '(')
		pattern = append(pattern, frag...)
		pattern = append(pattern, ')')
		placeholder++
	}

	c.pattern = string(pattern)
	return c, nil
}

// checkOptions rejects option/type combinations the type cannot honor.
func checkOptions(cap Capability, opts PlaceholderOptions) error {
	if opts.Radix != 0 && !cap.Integer {
		return &optionTypeError{opts.TypeName, "a radix option"}
	}
	if opts.HasCustom && cap.composite {
		return &optionTypeError{opts.TypeName, "a custom pattern"}
	}
	if opts.HasSubFormat && (cap.Integer || cap.PatternFunc == nil) {
		return &optionTypeError{opts.TypeName, "a sub-format option"}
	}
	return nil
}

type optionTypeError struct {
	typeName string
	what     string
}

func (e *optionTypeError) Error() string {
	return "type " + e.typeName + " does not take " + e.what
}

func (e *optionTypeError) Is(target error) bool { return target == ErrInvalidOption }

// countGroups returns the number of capture groups in a fragment. A
// fragment that does not parse is a broken capability, not bad input.
func countGroups(frag string) (int, error) {
	re, err := syntax.Parse(frag, syntax.Perl)
	if err != nil {
		return 0, &InternalPatternError{Detail: "fragment does not parse: " + err.Error(), Pattern: frag}
	}
	return re.MaxCap(), nil
}
