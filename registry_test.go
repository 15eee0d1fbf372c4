package scanfmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterAndResolve(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		r := NewRegistry(RegistryOpts{})
		err := r.Register("word", Capability{
			Pattern: `\w+`,
			Convert: func(c Captured, _ PlaceholderOptions) (any, error) { return c.Text, nil },
		})
		require.NoError(t, err)

		cap, err := r.Resolve("word")
		require.NoError(t, err)
		assert.Equal(t, `\w+`, cap.Pattern)
	})

	t.Run("Duplicate", func(t *testing.T) {
		r := NewRegistry(RegistryOpts{})
		cap := Capability{
			Pattern: `\w+`,
			Convert: func(c Captured, _ PlaceholderOptions) (any, error) { return c.Text, nil },
		}
		require.NoError(t, r.Register("word", cap))
		err := r.Register("word", cap)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrDuplicateType)
	})

	t.Run("EmptyName", func(t *testing.T) {
		r := NewRegistry(RegistryOpts{})
		err := r.Register("", Capability{
			Pattern: "x",
			Convert: func(c Captured, _ PlaceholderOptions) (any, error) { return nil, nil },
		})
		assert.Error(t, err)
	})

	t.Run("MissingConvert", func(t *testing.T) {
		r := NewRegistry(RegistryOpts{})
		err := r.Register("word", Capability{Pattern: `\w+`})
		assert.Error(t, err)
	})

	t.Run("BothPatternForms", func(t *testing.T) {
		r := NewRegistry(RegistryOpts{})
		err := r.Register("word", Capability{
			Pattern:     `\w+`,
			PatternFunc: func(PlaceholderOptions) (string, error) { return `\w+`, nil },
			Convert:     func(c Captured, _ PlaceholderOptions) (any, error) { return c.Text, nil },
		})
		assert.Error(t, err)
	})
}

func TestRegistry_UnknownTypeSuggestion(t *testing.T) {
	r := NewRegistry(RegistryOpts{IncludeBuiltins: true})

	t.Run("CloseName", func(t *testing.T) {
		_, err := r.Resolve("strin")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnknownType)

		var ute *UnknownTypeError
		require.ErrorAs(t, err, &ute)
		assert.Equal(t, "strin", ute.Name)
		assert.Equal(t, "string", ute.Suggestion)
	})

	t.Run("EquidistantNamesStable", func(t *testing.T) {
		// "unit8" is distance 2 from both "int8" and "uint8"; the
		// suggestion must not depend on map iteration order.
		var ute *UnknownTypeError
		_, err := r.Resolve("unit8")
		require.ErrorAs(t, err, &ute)
		assert.Equal(t, "int8", ute.Suggestion)

		for i := 0; i < 50; i++ {
			fresh := NewRegistry(RegistryOpts{IncludeBuiltins: true})
			_, err := fresh.Resolve("unit8")
			require.ErrorAs(t, err, &ute)
			assert.Equal(t, "int8", ute.Suggestion)
		}
	})

	t.Run("NothingClose", func(t *testing.T) {
		_, err := r.Resolve("completelydifferent")
		require.Error(t, err)

		var ute *UnknownTypeError
		require.ErrorAs(t, err, &ute)
		assert.Empty(t, ute.Suggestion)
	})
}

func TestEditDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "abc", 0},
		{"abc", "abd", 1},
		{"abc", "ab", 1},
		{"abc", "xabc", 1},
		{"kitten", "sitting", 3},
		{"u8", "i8", 1},
	}
	for _, tt := range tests {
		if got := editDistance(tt.a, tt.b); got != tt.want {
			t.Errorf("editDistance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestRegistry_BuiltinsPresent(t *testing.T) {
	r := NewRegistry(RegistryOpts{IncludeBuiltins: true})
	names := []string{
		"int8", "int16", "int32", "int64", "int",
		"uint8", "uint16", "uint32", "uint64", "uint",
		"i8", "i16", "i32", "i64", "u8", "u16", "u32", "u64",
		"float32", "float64", "f32", "f64",
		"string", "str", "rune", "char", "bool", "uuid", "time",
	}
	for _, name := range names {
		_, err := r.Resolve(name)
		assert.NoError(t, err, "builtin %q should resolve", name)
	}
}
