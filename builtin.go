package scanfmt

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

///////////////////////////////////////////////////////////////////////////////
// Built-in capabilities
///////////////////////////////////////////////////////////////////////////////

// registerBuiltins installs the built-in scalar types. Each fixed-width
// type is registered under its Go name and a short alias; registration
// of builtins never fails, so errors here panic.
func registerBuiltins(r *Registry) {
	ints := []struct {
		name, alias string
		bits        int
		signed      bool
	}{
		{"int8", "i8", 8, true},
		{"int16", "i16", 16, true},
		{"int32", "i32", 32, true},
		{"int64", "i64", 64, true},
		{"int", "", 64, true},
		{"uint8", "u8", 8, false},
		{"uint16", "u16", 16, false},
		{"uint32", "u32", 32, false},
		{"uint64", "u64", 64, false},
		{"uint", "", 64, false},
	}
	for _, it := range ints {
		cap := intCapability(it.name, it.bits, it.signed)
		mustRegister(r, it.name, cap)
		if it.alias != "" {
			mustRegister(r, it.alias, cap)
		}
	}

	f32 := floatCapability(32)
	f64 := floatCapability(64)
	mustRegister(r, "float32", f32)
	mustRegister(r, "f32", f32)
	mustRegister(r, "float64", f64)
	mustRegister(r, "f64", f64)

	str := Capability{
		Pattern: `.+?`,
		Convert: func(c Captured, _ PlaceholderOptions) (any, error) {
			return c.Text, nil
		},
	}
	mustRegister(r, "string", str)
	mustRegister(r, "str", str)

	ch := Capability{
		Pattern: `.`,
		Convert: func(c Captured, _ PlaceholderOptions) (any, error) {
			if utf8.RuneCountInString(c.Text) != 1 {
				return nil, fmt.Errorf("%q is not exactly one character", c.Text)
			}
			rn, _ := utf8.DecodeRuneInString(c.Text)
			return rn, nil
		},
	}
	mustRegister(r, "rune", ch)
	mustRegister(r, "char", ch)

	mustRegister(r, "bool", Capability{
		Pattern: `true|false`,
		Convert: func(c Captured, _ PlaceholderOptions) (any, error) {
			return c.Text == "true", nil
		},
	})

	mustRegister(r, "uuid", Capability{
		Pattern: `[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`,
		Convert: func(c Captured, _ PlaceholderOptions) (any, error) {
			return uuid.Parse(c.Text)
		},
	})

	mustRegister(r, "time", Capability{
		PatternFunc: func(opts PlaceholderOptions) (string, error) {
			return layoutFragment(timeLayout(opts)), nil
		},
		Convert: func(c Captured, opts PlaceholderOptions) (any, error) {
			return time.Parse(timeLayout(opts), c.Text)
		},
	})
}

func mustRegister(r *Registry, name string, cap Capability) {
	if err := r.Register(name, cap); err != nil {
		panic(fmt.Sprintf("scanfmt: registering builtin %q: %v", name, err))
	}
}

///////////////////////////////////////////////////////////////////////////////
// Integers
///////////////////////////////////////////////////////////////////////////////

// intCapability builds the capability for one fixed-width integer type.
//
// The fragment bounds the DIGIT COUNT, not the numeric value: a u8 in
// decimal matches 1 to 3 digits, so "999" matches the pattern and fails
// later in conversion, while "1000" simply does not match. Bounding the
// count is what lets adjacent numeric placeholders split an undelimited
// run of digits deterministically.
func intCapability(name string, bits int, signed bool) Capability {
	return Capability{
		Integer: true,
		PatternFunc: func(opts PlaceholderOptions) (string, error) {
			radix := opts.radix()
			sign := `\+?`
			if signed {
				sign = `[-+]?`
			}
			return fmt.Sprintf(`(?i)%s%s([%s]{1,%d})(?-i)`,
				sign, prefixFragment(radix, opts.Prefix), digitRange(radix), maxDigits(bits, radix)), nil
		},
		Convert: func(c Captured, opts PlaceholderOptions) (any, error) {
			return convertInt(c, opts, name, bits, signed)
		},
	}
}

// prefixFragment renders the 0x/0o/0b prefix for the given policy. The
// surrounding (?i) makes it accept 0X etc. as well.
func prefixFragment(radix int, policy PrefixPolicy) string {
	if policy == PrefixForbidden {
		return ""
	}
	var p string
	switch radix {
	case 16:
		p = "0x"
	case 8:
		p = "0o"
	case 2:
		p = "0b"
	default:
		return ""
	}
	if policy == PrefixOptional {
		return "(?:" + p + ")?"
	}
	return p
}

// digitRange renders the character-class body for digits of a radix.
// Uppercase letters are covered by the enclosing (?i).
func digitRange(radix int) string {
	if radix <= 10 {
		return fmt.Sprintf("0-%c", '0'+radix-1)
	}
	return fmt.Sprintf("0-9a-%c", 'a'+radix-11)
}

// maxDigits is the digit count of the largest bits-wide magnitude in the
// given radix: the fragment never needs to admit more characters than
// that, and one fewer would reject representable values.
func maxDigits(bits, radix int) int {
	if radix == 2 {
		return bits
	}
	return int(math.Ceil(float64(bits) / math.Log2(float64(radix))))
}

// convertInt parses the captured text of an integer placeholder. When
// the standard fragment matched, its single internal group holds the
// bare digits; with a custom sub-pattern the whole capture is parsed
// instead, accepting an optional sign and radix prefix.
func convertInt(c Captured, opts PlaceholderOptions, name string, bits int, signed bool) (any, error) {
	radix := opts.radix()
	text := c.Text
	neg := strings.HasPrefix(text, "-")

	digits, ok := c.sub(0)
	if !ok {
		digits = strings.TrimPrefix(strings.TrimPrefix(text, "-"), "+")
		for _, p := range []string{"0x", "0X", "0o", "0O", "0b", "0B"} {
			if prefixRadix(p) == radix && strings.HasPrefix(digits, p) {
				digits = digits[len(p):]
				break
			}
		}
	}

	mag, err := strconv.ParseUint(digits, radix, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing %q in base %d: %w", digits, radix, errUnwrapNum(err))
	}

	if !signed {
		if bits < 64 && mag > (uint64(1)<<bits)-1 {
			return nil, fmt.Errorf("%d overflows %s", mag, name)
		}
		return sizedUint(bits, mag), nil
	}

	limit := uint64(1) << (bits - 1)
	if neg {
		if mag > limit {
			return nil, fmt.Errorf("-%d underflows %s", mag, name)
		}
		return sizedInt(bits, -int64(mag)), nil
	}
	if mag > limit-1 {
		return nil, fmt.Errorf("%d overflows %s", mag, name)
	}
	return sizedInt(bits, int64(mag)), nil
}

func prefixRadix(p string) int {
	switch p[1] {
	case 'x', 'X':
		return 16
	case 'o', 'O':
		return 8
	default:
		return 2
	}
}

// errUnwrapNum strips the strconv.NumError wrapper so conversion errors
// read as the cause rather than a quoted re-statement of the input.
func errUnwrapNum(err error) error {
	if ne, ok := err.(*strconv.NumError); ok {
		return ne.Err
	}
	return err
}

// sizedInt returns v as the concrete Go type of the given width so that
// callers receive int8/int16/... rather than a uniform int64.
func sizedInt(bits int, v int64) any {
	switch bits {
	case 8:
		return int8(v)
	case 16:
		return int16(v)
	case 32:
		return int32(v)
	default:
		return v
	}
}

func sizedUint(bits int, v uint64) any {
	switch bits {
	case 8:
		return uint8(v)
	case 16:
		return uint16(v)
	case 32:
		return uint32(v)
	default:
		return v
	}
}

///////////////////////////////////////////////////////////////////////////////
// Floats
///////////////////////////////////////////////////////////////////////////////

// floatPattern accepts decimal and scientific notation plus the special
// values inf, infinity and nan in any case.
const floatPattern = `[+-]?(?i:inf|infinity|nan|(?:\d+|\d+\.\d*|\d*\.\d+)(?:e[+-]?\d+)?)`

func floatCapability(bits int) Capability {
	return Capability{
		Pattern: floatPattern,
		Convert: func(c Captured, _ PlaceholderOptions) (any, error) {
			f, err := strconv.ParseFloat(c.Text, bits)
			if err != nil {
				return nil, errUnwrapNum(err)
			}
			if bits == 32 {
				return float32(f), nil
			}
			return f, nil
		},
	}
}

///////////////////////////////////////////////////////////////////////////////
// Time layouts
///////////////////////////////////////////////////////////////////////////////

// timeLayout resolves the Go reference layout for a time placeholder.
// The sub-format option carries the layout; without one, RFC 3339.
func timeLayout(opts PlaceholderOptions) string {
	if opts.HasSubFormat {
		return opts.SubFormat
	}
	return time.RFC3339
}

// layoutToken maps one Go reference-layout token to a pattern fragment.
type layoutToken struct {
	tok  string
	frag string
}

// layoutTokens is ordered longest-first within each ambiguous family so
// that e.g. "January" is consumed before "Jan" and "2006" before "06".
var layoutTokens = []layoutToken{
	{"2006", `\d{4}`},
	{"January", `(?:January|February|March|April|May|June|July|August|September|October|November|December)`},
	{"Jan", `(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)`},
	{"Monday", `(?:Monday|Tuesday|Wednesday|Thursday|Friday|Saturday|Sunday)`},
	{"Mon", `(?:Mon|Tue|Wed|Thu|Fri|Sat|Sun)`},
	{".000000000", `\.\d{9}`},
	{".000000", `\.\d{6}`},
	{".000", `\.\d{3}`},
	{".999999999", `(?:\.\d{1,9})?`},
	{".999999", `(?:\.\d{1,6})?`},
	{".999", `(?:\.\d{1,3})?`},
	{"Z07:00", `(?:Z|[+-]\d{2}:\d{2})`},
	{"Z0700", `(?:Z|[+-]\d{4})`},
	{"-07:00", `[+-]\d{2}:\d{2}`},
	{"-0700", `[+-]\d{4}`},
	{"002", `\d{3}`},
	{"15", `\d{2}`},
	{"01", `\d{2}`},
	{"02", `\d{2}`},
	{"03", `\d{2}`},
	{"04", `\d{2}`},
	{"05", `\d{2}`},
	{"06", `\d{2}`},
	{"07", `\d{2}`},
	{"_2", `[ \d]\d`},
	{"PM", `[AP]M`},
	{"pm", `[ap]m`},
	{"MST", `[A-Z]{3,4}`},
	{"1", `\d{1,2}`},
	{"2", `\d{1,2}`},
	{"3", `\d{1,2}`},
	{"4", `\d{1,2}`},
	{"5", `\d{1,2}`},
	{"6", `\d{1,2}`},
}

// layoutFragment translates a Go time layout into a pattern fragment.
// Unrecognized characters match themselves literally.
func layoutFragment(layout string) string {
	var b strings.Builder
	for len(layout) > 0 {
		matched := false
		for _, lt := range layoutTokens {
			if strings.HasPrefix(layout, lt.tok) {
				b.WriteString(lt.frag)
				layout = layout[len(lt.tok):]
				matched = true
				break
			}
		}
		if !matched {
			_, size := utf8.DecodeRuneInString(layout)
			b.WriteString(regexp.QuoteMeta(layout[:size]))
			layout = layout[size:]
		}
	}
	return b.String()
}
