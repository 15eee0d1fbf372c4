package scanfmt

import (
	"fmt"
	"strings"
)

///////////////////////////////////////////////////////////////////////////////
// Variants
///////////////////////////////////////////////////////////////////////////////

// VariantSpec declares one alternative of a variant type: a tag naming
// the alternative, its field table, and the format its inputs take.
// An alternative may have no fields at all when its format is pure
// literal text.
type VariantSpec struct {
	Tag    string
	Fields []FieldSpec
	Format string
}

// VariantValue is the result of matching a variant type: the type name,
// the tag of the alternative that matched, and its fields.
type VariantValue struct {
	Type   string
	Tag    string
	Fields map[string]any
}

type variantAlt struct {
	tag  string
	prog *recordProgram
}

type variantProgram struct {
	name string
	alts []variantAlt
}

// RegisterVariant compiles a variant type from an ordered list of
// alternatives and registers it as an ordinary type. Each alternative
// is a record in its own right; declaration order is match order, and
// the first alternative that matches wins.
//
// When the variant appears as a placeholder inside a larger format, its
// alternatives compose into one alternation; a conversion failure in
// the selected alternative fails the match without falling through to
// later alternatives.
func (r *Registry) RegisterVariant(name string, variants []VariantSpec) error {
	if name == "" {
		return fmt.Errorf("%w: variant type name cannot be empty", ErrFieldTable)
	}
	if len(variants) == 0 {
		return fmt.Errorf("%w: variant %q has no alternatives", ErrFieldTable, name)
	}

	prog := &variantProgram{name: name}
	tags := make(map[string]bool, len(variants))
	for _, v := range variants {
		if v.Tag == "" {
			return fmt.Errorf("%w: variant %q: alternative with an empty tag", ErrFieldTable, name)
		}
		if tags[v.Tag] {
			return fmt.Errorf("%w: variant %q: duplicate tag %q", ErrFieldTable, name, v.Tag)
		}
		tags[v.Tag] = true

		alt, err := r.compileRecord(name+"."+v.Tag, v.Fields, v.Format)
		if err != nil {
			return err
		}
		prog.alts = append(prog.alts, variantAlt{tag: v.Tag, prog: alt})
	}

	if err := r.Register(name, Capability{
		Pattern:   prog.alternation(),
		composite: true,
		Convert: func(c Captured, _ PlaceholderOptions) (any, error) {
			return prog.pick(c.Subs)
		},
	}); err != nil {
		return err
	}
	r.variants[name] = prog
	return nil
}

// MatchVariant matches the whole input against a registered variant
// type, trying each alternative's own matcher in declaration order.
// When none matches, the returned NoVariantMatchedError lists every
// alternative with its individual failure.
func (r *Registry) MatchVariant(name, input string) (VariantValue, error) {
	prog, ok := r.variants[name]
	if !ok {
		return VariantValue{}, &UnknownTypeError{Name: name, Suggestion: r.closest(name)}
	}

	var attempts []VariantAttempt
	for _, alt := range prog.alts {
		rv, err := matchRecordProgram(alt.prog, input)
		if err == nil {
			return VariantValue{Type: name, Tag: alt.tag, Fields: rv.Fields}, nil
		}
		attempts = append(attempts, VariantAttempt{Tag: alt.tag, Reason: err})
	}
	return VariantValue{}, &NoVariantMatchedError{Type: name, Attempts: attempts}
}

// alternation renders the variant's sub-pattern: each alternative's
// pattern wrapped in a capture group, joined by '|'. Which outer group
// participated tells pick which alternative matched.
func (p *variantProgram) alternation() string {
	parts := make([]string, len(p.alts))
	for i, alt := range p.alts {
		parts[i] = "(" + alt.prog.pattern + ")"
	}
	return strings.Join(parts, "|")
}

// pick converts one successful match of the alternation. subs holds the
// alternation's capture groups; the first participating outer group
// selects the alternative.
func (p *variantProgram) pick(subs []*string) (VariantValue, error) {
	offset := 0
	for _, alt := range p.alts {
		outer := offset // index into subs of this alternative's own group
		inner := subs[outer+1 : outer+1+alt.prog.groups]
		offset += 1 + alt.prog.groups

		if subs[outer] == nil {
			continue
		}
		rv, err := alt.prog.fill(inner)
		if err != nil {
			return VariantValue{}, err
		}
		return VariantValue{Type: p.name, Tag: alt.tag, Fields: rv.Fields}, nil
	}
	return VariantValue{}, &InternalPatternError{
		Detail:  fmt.Sprintf("variant %q: no alternative group participated in a successful match", p.name),
		Pattern: p.alternation(),
	}
}

// matchRecordProgram runs one record program's standalone matcher.
// Shared by MatchRecord and MatchVariant.
func matchRecordProgram(prog *recordProgram, input string) (RecordValue, error) {
	idx := prog.re.FindStringSubmatchIndex(input)
	if idx == nil {
		return RecordValue{}, &NoMatchError{Pattern: prog.re.String(), Input: input}
	}
	subs := make([]*string, prog.groups)
	for g := 1; g <= prog.groups; g++ {
		if idx[2*g] >= 0 {
			s := input[idx[2*g]:idx[2*g+1]]
			subs[g-1] = &s
		}
	}
	return prog.fill(subs)
}
