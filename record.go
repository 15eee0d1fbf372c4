package scanfmt

import (
	"fmt"
	"regexp"
)

///////////////////////////////////////////////////////////////////////////////
// Records
///////////////////////////////////////////////////////////////////////////////

// FieldSpec declares one field of a record type. Every field takes its
// value from exactly one source:
//
//   - Type     the field is bound to a format placeholder and parsed
//   - Default  the field is filled from a default after matching
//   - Derive   the field is computed from previously declared fields
//
// Map and FilterMap post-process a placeholder-bound field's parsed
// value; at most one of them may be set, and only on a bound field.
// FilterMap reporting false rejects the value and fails the match as a
// conversion error.
type FieldSpec struct {
	Name string
	Type string

	Default func() any

	Derive     func(fields map[string]any) (any, error)
	DeriveDeps []string

	Map       func(v any) (any, error)
	FilterMap func(v any) (any, bool)
}

// bound reports whether the field is parsed from a format placeholder.
func (f FieldSpec) bound() bool { return f.Type != "" }

// RecordValue is the result of matching a record type: the registered
// type name and the fields by name.
type RecordValue struct {
	Type   string
	Fields map[string]any
}

// recordSlot connects one placeholder of a record format to the field
// it fills. The capture spec is relative to the record's own pattern.
type recordSlot struct {
	field int
	spec  captureSpec
	conv  converter
}

// recordProgram is a compiled record type: the composed sub-pattern it
// contributes as a capability, plus a standalone anchored matcher for
// MatchRecord.
type recordProgram struct {
	name    string
	pattern string
	groups  int
	re      *regexp.Regexp
	fields  []FieldSpec
	slots   []recordSlot
}

// RegisterRecord compiles a record type from a field table and a format
// string and registers it as an ordinary type, so it can appear as a
// placeholder in other formats, records and variants.
//
// Format placeholders name fields, not types: "{x}" binds the field x,
// whose registry type comes from its FieldSpec. Every placeholder-bound
// field must appear exactly once in the format. Table problems are
// reported as ErrFieldTable.
func (r *Registry) RegisterRecord(name string, fields []FieldSpec, format string) error {
	if name == "" {
		return fmt.Errorf("%w: record type name cannot be empty", ErrFieldTable)
	}
	if len(fields) == 0 {
		return fmt.Errorf("%w: record %q has no fields", ErrFieldTable, name)
	}
	prog, err := r.compileRecord(name, fields, format)
	if err != nil {
		return err
	}
	if err := r.Register(name, Capability{
		Pattern:   prog.pattern,
		composite: true,
		Convert: func(c Captured, _ PlaceholderOptions) (any, error) {
			rv, err := prog.fill(c.Subs)
			if err != nil {
				return nil, err
			}
			return rv, nil
		},
	}); err != nil {
		return err
	}
	r.records[name] = prog
	return nil
}

// MatchRecord matches the whole input against a registered record type.
func (r *Registry) MatchRecord(name, input string) (RecordValue, error) {
	prog, ok := r.records[name]
	if !ok {
		return RecordValue{}, &UnknownTypeError{Name: name, Suggestion: r.closest(name)}
	}
	return matchRecordProgram(prog, input)
}

// compileRecord validates a field table against its format string and
// composes the record's sub-pattern.
func (r *Registry) compileRecord(name string, fields []FieldSpec, format string) (*recordProgram, error) {
	fieldIndex, err := validateFields(name, fields)
	if err != nil {
		return nil, err
	}

	tokens, err := tokenize(format)
	if err != nil {
		return nil, err
	}
	optsList, err := parseTokens(tokens)
	if err != nil {
		return nil, err
	}

	// Map each placeholder to its field and swap the field name for the
	// field's registry type before composing.
	slotField := make([]int, len(optsList))
	seen := make(map[string]bool, len(optsList))
	for i := range optsList {
		fname := optsList[i].TypeName
		if fname == "" {
			return nil, fmt.Errorf("%w: record %q: format placeholders must name a field, got \"{}\"", ErrFieldTable, name)
		}
		fi, ok := fieldIndex[fname]
		if !ok || !fields[fi].bound() {
			return nil, fmt.Errorf("%w: record %q: format references %q, which is not a placeholder-bound field", ErrFieldTable, name, fname)
		}
		if seen[fname] {
			return nil, fmt.Errorf("%w: record %q: field %q appears twice in the format", ErrFieldTable, name, fname)
		}
		seen[fname] = true
		slotField[i] = fi
		optsList[i].TypeName = fields[fi].Type
	}
	for _, f := range fields {
		if f.bound() && !seen[f.Name] {
			return nil, fmt.Errorf("%w: record %q: placeholder-bound field %q is missing from the format", ErrFieldTable, name, f.Name)
		}
	}

	c, err := r.compose(tokens, optsList)
	if err != nil {
		return nil, err
	}
	if c.pattern == "" {
		return nil, fmt.Errorf("%w: record %q: format matches nothing", ErrFieldTable, name)
	}

	anchored := `\A` + c.pattern + `\z`
	re, err := regexp.Compile(anchored)
	if err != nil {
		return nil, &InternalPatternError{Detail: err.Error(), Pattern: anchored}
	}
	if re.NumSubexp() != c.groups {
		return nil, &InternalPatternError{Detail: "capture table disagrees with the compiled pattern", Pattern: anchored}
	}

	prog := &recordProgram{
		name:    name,
		pattern: c.pattern,
		groups:  c.groups,
		re:      re,
		fields:  fields,
	}
	for i, spec := range c.captures {
		prog.slots = append(prog.slots, recordSlot{
			field: slotField[i],
			spec:  spec,
			conv:  c.converters[i],
		})
	}
	return prog, nil
}

// validateFields checks the structural rules of a field table and
// returns the name-to-index map.
func validateFields(name string, fields []FieldSpec) (map[string]int, error) {
	index := make(map[string]int, len(fields))
	for i, f := range fields {
		if f.Name == "" {
			return nil, fmt.Errorf("%w: record %q: field %d has no name", ErrFieldTable, name, i)
		}
		if _, dup := index[f.Name]; dup {
			return nil, fmt.Errorf("%w: record %q: duplicate field %q", ErrFieldTable, name, f.Name)
		}

		sources := 0
		if f.bound() {
			sources++
		}
		if f.Default != nil {
			sources++
		}
		if f.Derive != nil {
			sources++
		}
		if sources != 1 {
			return nil, fmt.Errorf("%w: record %q: field %q needs exactly one of Type, Default and Derive", ErrFieldTable, name, f.Name)
		}

		if f.Map != nil && f.FilterMap != nil {
			return nil, fmt.Errorf("%w: record %q: field %q sets both Map and FilterMap", ErrFieldTable, name, f.Name)
		}
		if (f.Map != nil || f.FilterMap != nil) && !f.bound() {
			return nil, fmt.Errorf("%w: record %q: field %q maps a value it does not parse", ErrFieldTable, name, f.Name)
		}

		if len(f.DeriveDeps) > 0 && f.Derive == nil {
			return nil, fmt.Errorf("%w: record %q: field %q lists derive dependencies without a Derive function", ErrFieldTable, name, f.Name)
		}
		for _, dep := range f.DeriveDeps {
			if _, ok := index[dep]; !ok {
				return nil, fmt.Errorf("%w: record %q: field %q depends on %q, which is not declared before it", ErrFieldTable, name, f.Name, dep)
			}
		}

		index[f.Name] = i
	}
	return index, nil
}

// fill converts one successful match of the record's pattern into a
// RecordValue. subs holds the pattern's capture groups in order, with
// nil for groups that did not participate.
func (p *recordProgram) fill(subs []*string) (RecordValue, error) {
	out := make(map[string]any, len(p.fields))

	for _, slot := range p.slots {
		g := slot.spec.groupStart
		if g-1 >= len(subs) || subs[g-1] == nil {
			return RecordValue{}, &InternalPatternError{
				Detail:  fmt.Sprintf("record %q: group for field %q absent from a successful match", p.name, p.fields[slot.field].Name),
				Pattern: p.pattern,
			}
		}
		captured := Captured{
			Text: *subs[g-1],
			Subs: subs[g : g+slot.spec.groupCount-1],
		}

		v, err := slot.conv.convert(captured, slot.conv.opts)
		if err != nil {
			return RecordValue{}, &FieldConversionError{
				PlaceholderIndex: slot.field,
				TypeName:         slot.conv.typeName,
				Input:            captured.Text,
				Cause:            err,
			}
		}

		f := p.fields[slot.field]
		switch {
		case f.Map != nil:
			if v, err = f.Map(v); err != nil {
				return RecordValue{}, &FieldConversionError{
					PlaceholderIndex: slot.field,
					TypeName:         slot.conv.typeName,
					Input:            captured.Text,
					Cause:            err,
				}
			}
		case f.FilterMap != nil:
			mapped, ok := f.FilterMap(v)
			if !ok {
				return RecordValue{}, &FieldConversionError{
					PlaceholderIndex: slot.field,
					TypeName:         slot.conv.typeName,
					Input:            captured.Text,
					Cause:            fmt.Errorf("value rejected by the field %q filter", f.Name),
				}
			}
			v = mapped
		}
		out[f.Name] = v
	}

	// Defaults and derived fields fill in declaration order, so a derive
	// function sees every field declared before its own.
	for _, f := range p.fields {
		switch {
		case f.Default != nil:
			out[f.Name] = f.Default()
		case f.Derive != nil:
			v, err := f.Derive(out)
			if err != nil {
				return RecordValue{}, fmt.Errorf("deriving field %q of record %q: %w", f.Name, p.name, err)
			}
			out[f.Name] = v
		}
	}

	return RecordValue{Type: p.name, Fields: out}, nil
}
