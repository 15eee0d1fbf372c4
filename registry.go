package scanfmt

import (
	"fmt"
)

///////////////////////////////////////////////////////////////////////////////
// Capability
///////////////////////////////////////////////////////////////////////////////

// Captured holds the text matched by one placeholder together with the
// capture groups declared inside its own fragment, in fragment order. A
// nil entry marks a group that did not participate in the match.
type Captured struct {
	Text string
	Subs []*string
}

// sub returns the text of internal group i, or "" if it did not
// participate. Convenience for converters with a fixed group layout.
func (c Captured) sub(i int) (string, bool) {
	if i >= len(c.Subs) || c.Subs[i] == nil {
		return "", false
	}
	return *c.Subs[i], true
}

// ConvertFunc turns the captured text of one placeholder into a value.
// Returning an error surfaces as a FieldConversionError on the match.
type ConvertFunc func(c Captured, opts PlaceholderOptions) (any, error)

// Capability binds a type name to the pair of powers the engine needs
// from it: a regular-expression fragment describing what the type looks
// like in text, and a conversion from matched text to a value.
//
// Exactly one of Pattern (static fragment) and PatternFunc (fragment
// depending on the placeholder options, e.g. a radix) must be set.
// A capability is immutable once registered.
type Capability struct {
	Pattern     string
	PatternFunc func(opts PlaceholderOptions) (string, error)

	// Integer marks types that accept radix options. A radix option on a
	// non-integer type fails at construction with ErrInvalidOption.
	Integer bool

	Convert ConvertFunc

	// composite marks capabilities whose conversion reads a fixed layout
	// of internal capture groups (records, variants). A custom pattern
	// option cannot replace their fragment without breaking that layout,
	// so it is rejected at construction.
	composite bool
}

// fragment renders the capability's pattern fragment for the given
// placeholder options. A custom "/.../" option overrides the fragment
// entirely; the conversion still runs against whatever it captures.
func (cap Capability) fragment(opts PlaceholderOptions) (string, error) {
	if opts.HasCustom {
		return opts.Custom, nil
	}
	if cap.PatternFunc != nil {
		return cap.PatternFunc(opts)
	}
	return cap.Pattern, nil
}

///////////////////////////////////////////////////////////////////////////////
// Registry
///////////////////////////////////////////////////////////////////////////////

// Registry maps type names to capabilities. It is append-only: names
// cannot be rebound, and entries are never mutated after registration.
//
// The registry follows a single-writer-then-many-readers discipline:
// complete all Register* calls during initialization, after which
// Resolve and Compile may run concurrently without locking.
type Registry struct {
	caps     map[string]Capability
	records  map[string]*recordProgram
	variants map[string]*variantProgram
}

// RegistryOpts configures NewRegistry.
type RegistryOpts struct {
	// IncludeBuiltins registers the built-in scalar types (integers,
	// floats, string, rune, bool, uuid, time) and their aliases.
	IncludeBuiltins bool
}

// NewRegistry creates an independent registry. The package-level
// functions operate on a shared default registry with builtins included;
// separate registries are useful for tests and for late registration.
func NewRegistry(opts RegistryOpts) *Registry {
	r := &Registry{
		caps:     make(map[string]Capability),
		records:  make(map[string]*recordProgram),
		variants: make(map[string]*variantProgram),
	}
	if opts.IncludeBuiltins {
		registerBuiltins(r)
	}
	return r
}

// Register binds name to cap. Rebinding an existing name fails with
// ErrDuplicateType: type identity is the name, and shadowing is not
// overriding.
func (r *Registry) Register(name string, cap Capability) error {
	if name == "" {
		return fmt.Errorf("%w: type name cannot be empty", ErrInvalidOption)
	}
	if _, exists := r.caps[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateType, name)
	}
	if cap.Convert == nil {
		return fmt.Errorf("capability for %q has no conversion function", name)
	}
	if (cap.Pattern == "") == (cap.PatternFunc == nil) {
		return fmt.Errorf("capability for %q must set exactly one of Pattern and PatternFunc", name)
	}
	r.caps[name] = cap
	return nil
}

// Resolve returns the capability bound to name. An unknown name yields
// an UnknownTypeError carrying the closest registered name, if any is
// within edit distance 2.
func (r *Registry) Resolve(name string) (Capability, error) {
	cap, ok := r.caps[name]
	if !ok {
		return Capability{}, &UnknownTypeError{Name: name, Suggestion: r.closest(name)}
	}
	return cap, nil
}

// closest returns the registered name nearest to name by edit distance,
// or "" if none is within distance 2. Ties go to the lexicographically
// smaller name, so suggestions are stable across map iteration order.
func (r *Registry) closest(name string) string {
	best := ""
	bestDist := 3
	for candidate := range r.caps {
		switch d := editDistance(name, candidate); {
		case d < bestDist:
			best, bestDist = candidate, d
		case d == bestDist && best != "" && candidate < best:
			best = candidate
		}
	}
	return best
}

// editDistance is the Levenshtein distance between a and b.
func editDistance(a, b string) int {
	if a == b {
		return 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

///////////////////////////////////////////////////////////////////////////////
// Default registry and package-level functions
///////////////////////////////////////////////////////////////////////////////

var _defaultRegistry *Registry

func init() {
	_defaultRegistry = NewRegistry(RegistryOpts{IncludeBuiltins: true})
}

// Register registers a capability with the default registry.
func Register(name string, cap Capability) error {
	return _defaultRegistry.Register(name, cap)
}

// Resolve resolves a type name against the default registry.
func Resolve(name string) (Capability, error) {
	return _defaultRegistry.Resolve(name)
}

// Compile compiles a format string against the default registry.
func Compile(format string, bindings ...string) (*Matcher, error) {
	return _defaultRegistry.Compile(format, bindings...)
}

// MustCompile is Compile but panics on error. Intended for patterns
// known to be valid at program start.
func MustCompile(format string, bindings ...string) *Matcher {
	m, err := Compile(format, bindings...)
	if err != nil {
		panic(fmt.Sprintf("scanfmt: MustCompile(%q): %v", format, err))
	}
	return m
}

// RegisterRecord registers a record type with the default registry.
func RegisterRecord(name string, fields []FieldSpec, format string) error {
	return _defaultRegistry.RegisterRecord(name, fields, format)
}

// RegisterVariant registers a variant type with the default registry.
func RegisterVariant(name string, variants []VariantSpec) error {
	return _defaultRegistry.RegisterVariant(name, variants)
}

// MatchRecord matches input against a record type in the default registry.
func MatchRecord(name, input string) (RecordValue, error) {
	return _defaultRegistry.MatchRecord(name, input)
}

// MatchVariant matches input against a variant type in the default registry.
func MatchVariant(name, input string) (VariantValue, error) {
	return _defaultRegistry.MatchVariant(name, input)
}

// RegisterDefinitions registers record and variant types declared in a
// JSON or YAML document with the default registry.
func RegisterDefinitions(doc []byte, format DefinitionFormat) error {
	return _defaultRegistry.RegisterDefinitions(doc, format)
}
