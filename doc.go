// Package scanfmt compiles format strings with typed placeholders into
// reusable matchers that extract strongly-typed values from input text.
// It is the inverse of template formatting: where formatting interpolates
// values into a pattern, scanfmt recovers the values from text produced
// by such a pattern.
//
// A format string mixes literal text with placeholders delimited by '{'
// and '}':
//
//	m, err := scanfmt.Compile("{} apples and {} oranges", "u32", "u32")
//	vals, err := m.Run("5 apples and 3 oranges")
//	// vals[0] == uint32(5), vals[1] == uint32(3)
//
// Placeholders come in three forms:
//   - "{}"          the type is taken from the bindings passed to Compile
//   - "{u8}"        an explicit registry type name
//   - "{u8:x}"      an explicit type with a format option
//
// Recognized options are a custom sub-pattern ("{:/[a-d]+/}"), a radix
// for integer types ("x" hex, "o" octal, "b" binary, "#x" etc. for a
// required 0x/0o/0b prefix, "rN" for any radix 2..36), or a sub-format
// string handed to the type itself (used by the "time" type for layout
// strings). Literal braces in format strings are written "{{" and "}}".
//
// Each type is a registry entry pairing a regular-expression fragment
// with a conversion from the captured text to a value. Built-in entries
// cover the fixed-width integers (under both Go names and the short
// aliases u8/i64/..., with digit counts bounded by the type's width so
// that adjacent numeric placeholders can split without delimiters),
// floats, string, rune, bool, uuid and time. Custom types are added with
// Register, or composed from format strings with RegisterRecord and
// RegisterVariant:
//
//	scanfmt.RegisterRecord("Point", []scanfmt.FieldSpec{
//	    {Name: "x", Type: "i32"},
//	    {Name: "y", Type: "i32"},
//	}, "({x}, {y})")
//
//	m, _ := scanfmt.Compile("go to {Point}")
//
// Records fill fields from placeholders, defaults, or derive functions;
// variants try a list of tagged record alternatives in order. Both
// re-register as ordinary types, so records can nest inside variants
// inside records to any depth. Bulk registration from a JSON or YAML
// document is available through RegisterDefinitions.
//
// Matcher construction happens once per distinct format string; the
// resulting Matcher is immutable and safe for concurrent use. The
// registry is append-only: complete all Register calls before resolving
// concurrently, after which no locking is needed.
//
// One documented limitation: when the composed pattern matches but a
// late conversion fails (e.g. "999" captured for a u8), the engine does
// not backtrack into an alternative split of the input. The call fails
// with a conversion error instead of retrying.
package scanfmt
