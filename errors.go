package scanfmt

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the error classes produced by this package. Every
// structured error below reports true for errors.Is against its class
// sentinel, so callers can classify without depending on concrete types.
var (
	// Format-string syntax errors, detected at construction.
	ErrUnescapedBrace     = errors.New("unescaped brace in format string")
	ErrConflictingOptions = errors.New("conflicting placeholder options")
	ErrInvalidOption      = errors.New("invalid placeholder option")

	// Resolution and registration errors, detected at construction.
	ErrUnknownType   = errors.New("type is not registered")
	ErrDuplicateType = errors.New("type is already registered")
	ErrArity         = errors.New("wrong number of type bindings")
	ErrFieldTable    = errors.New("invalid field descriptor table")

	// Match-time errors, returned per call and never retried.
	ErrNoMatch          = errors.New("input did not match the composed pattern")
	ErrConversion       = errors.New("captured text failed typed conversion")
	ErrNoVariantMatched = errors.New("no variant alternative matched")

	// ErrInternalPattern indicates a composer invariant violation. It is
	// always a defect in this package or in a registered capability, never
	// a problem with the input being matched.
	ErrInternalPattern = errors.New("internal pattern invariant violated")
)

// UnknownTypeError is returned when a placeholder names a type that has
// not been registered. Suggestion holds the closest registered name
// within edit distance 2, or "" if none is close enough.
type UnknownTypeError struct {
	Name       string
	Suggestion string
}

func (e *UnknownTypeError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("type %q is not registered (did you mean %q?)", e.Name, e.Suggestion)
	}
	return fmt.Sprintf("type %q is not registered", e.Name)
}

func (e *UnknownTypeError) Is(target error) bool { return target == ErrUnknownType }

// ArityError is returned by Compile when the number of type bindings
// matches neither the number of inferred ("{}") placeholders nor the
// total number of placeholders.
type ArityError struct {
	Bindings     int
	Inferred     int
	Placeholders int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf(
		"got %d type bindings for a format string with %d inferred placeholders (%d total)",
		e.Bindings, e.Inferred, e.Placeholders,
	)
}

func (e *ArityError) Is(target error) bool { return target == ErrArity }

// NoMatchError is returned by Matcher.Run when the composed pattern does
// not match the input. It carries both for diagnostics; the underlying
// engine does not report how far a failed match got.
type NoMatchError struct {
	Pattern string
	Input   string
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("input %q did not match pattern %q", e.Input, e.Pattern)
}

func (e *NoMatchError) Is(target error) bool { return target == ErrNoMatch }

// FieldConversionError is returned when a captured substring matched the
// pattern but its typed conversion failed, e.g. a numeric overflow or a
// malformed date. The match is not retried with a different split.
type FieldConversionError struct {
	PlaceholderIndex int
	TypeName         string
	Input            string
	Cause            error
}

func (e *FieldConversionError) Error() string {
	return fmt.Sprintf(
		"placeholder %d: converting %q to %s: %v",
		e.PlaceholderIndex, e.Input, e.TypeName, e.Cause,
	)
}

func (e *FieldConversionError) Unwrap() error { return e.Cause }

func (e *FieldConversionError) Is(target error) bool { return target == ErrConversion }

// VariantAttempt records the failure of one alternative during variant
// matching, in attempt order.
type VariantAttempt struct {
	Tag    string
	Reason error
}

// NoVariantMatchedError is returned when every alternative of a variant
// type failed. Attempts lists all of them with their individual failure
// reasons, since order of attempt matters for diagnosis.
type NoVariantMatchedError struct {
	Type     string
	Attempts []VariantAttempt
}

func (e *NoVariantMatchedError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "no alternative of variant %q matched:", e.Type)
	for _, a := range e.Attempts {
		fmt.Fprintf(&b, "\n  %s: %v", a.Tag, a.Reason)
	}
	return b.String()
}

func (e *NoVariantMatchedError) Is(target error) bool { return target == ErrNoVariantMatched }

// InternalPatternError reports a violated composer invariant, such as a
// capability fragment that fails to parse or a capture-group count that
// disagrees with the capture table. Tests assert it never occurs.
type InternalPatternError struct {
	Detail  string
	Pattern string
}

func (e *InternalPatternError) Error() string {
	if e.Pattern != "" {
		return fmt.Sprintf("internal pattern error: %s (pattern %q)", e.Detail, e.Pattern)
	}
	return fmt.Sprintf("internal pattern error: %s", e.Detail)
}

func (e *InternalPatternError) Is(target error) bool { return target == ErrInternalPattern }
