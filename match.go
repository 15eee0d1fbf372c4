package scanfmt

///////////////////////////////////////////////////////////////////////////////
// Match execution
///////////////////////////////////////////////////////////////////////////////

// Run matches input against the compiled pattern and converts every
// placeholder's capture, in placeholder order.
//
// The whole input must match; a failed match returns a NoMatchError. A
// conversion failure after a successful match returns a
// FieldConversionError without retrying a different split of the input.
func (m *Matcher) Run(input string) ([]any, error) {
	idx := m.re.FindStringSubmatchIndex(input)
	if idx == nil {
		return nil, &NoMatchError{Pattern: m.pattern, Input: input}
	}

	vals := make([]any, len(m.captures))
	for i, spec := range m.captures {
		captured, ok := capturedAt(input, idx, spec.groupStart, spec.groupCount)
		if !ok {
			// Top-level placeholder groups are concatenated, so every one
			// participates in a full match.
			return nil, &InternalPatternError{
				Detail:  "placeholder group absent from a successful match",
				Pattern: m.pattern,
			}
		}

		conv := m.converters[i]
		v, err := conv.convert(captured, conv.opts)
		if err != nil {
			return nil, &FieldConversionError{
				PlaceholderIndex: i,
				TypeName:         conv.typeName,
				Input:            captured.Text,
				Cause:            err,
			}
		}
		vals[i] = v
	}
	return vals, nil
}

// capturedAt slices one placeholder's capture out of a submatch index
// vector. group is the absolute index of the placeholder's outer group;
// count includes it and its nested groups. ok is false when the outer
// group did not participate in the match.
func capturedAt(input string, idx []int, group, count int) (Captured, bool) {
	if idx[2*group] < 0 {
		return Captured{}, false
	}
	c := Captured{
		Text: input[idx[2*group]:idx[2*group+1]],
		Subs: make([]*string, count-1),
	}
	for j := 1; j < count; j++ {
		g := group + j
		if idx[2*g] >= 0 {
			s := input[idx[2*g]:idx[2*g+1]]
			c.Subs[j-1] = &s
		}
	}
	return c, true
}
