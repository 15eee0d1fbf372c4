package scanfmt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_RoundTrip(t *testing.T) {
	r := NewRegistry(RegistryOpts{IncludeBuiltins: true})

	m, err := r.Compile("{} apples and {} oranges", "u32", "u32")
	require.NoError(t, err)

	vals, err := m.Run("5 apples and 3 oranges")
	require.NoError(t, err)
	require.Len(t, vals, 2)
	assert.Equal(t, uint32(5), vals[0])
	assert.Equal(t, uint32(3), vals[1])
}

func TestRun_WholeInputMustMatch(t *testing.T) {
	r := NewRegistry(RegistryOpts{IncludeBuiltins: true})

	m, err := r.Compile("{u8} apples")
	require.NoError(t, err)

	t.Run("TrailingText", func(t *testing.T) {
		_, err := m.Run("5 apples left")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNoMatch)
	})

	t.Run("LeadingText", func(t *testing.T) {
		_, err := m.Run("got 5 apples")
		assert.ErrorIs(t, err, ErrNoMatch)
	})

	t.Run("NoMatchDetails", func(t *testing.T) {
		_, err := m.Run("nothing")
		var nme *NoMatchError
		require.ErrorAs(t, err, &nme)
		assert.Equal(t, "nothing", nme.Input)
		assert.NotEmpty(t, nme.Pattern)
	})
}

func TestRun_IntegerBounds(t *testing.T) {
	r := NewRegistry(RegistryOpts{IncludeBuiltins: true})

	t.Run("DigitCountMatchesValueFails", func(t *testing.T) {
		// "999" has the digit count of a u8 but not the value: the
		// pattern matches and the conversion fails, with no retry.
		m, err := r.Compile("{u8}")
		require.NoError(t, err)

		_, err = m.Run("999")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrConversion)

		var fce *FieldConversionError
		require.ErrorAs(t, err, &fce)
		assert.Equal(t, 0, fce.PlaceholderIndex)
		assert.Equal(t, "u8", fce.TypeName)
		assert.Equal(t, "999", fce.Input)
	})

	t.Run("DigitCountExceededNoMatch", func(t *testing.T) {
		m, err := r.Compile("{u8}")
		require.NoError(t, err)

		_, err = m.Run("1000")
		assert.ErrorIs(t, err, ErrNoMatch)
	})

	t.Run("AdjacentSplitNotRetried", func(t *testing.T) {
		// Greedy split of "255256" gives 255|256; 256 overflows and the
		// engine does not try 25|5256 or any other split.
		m, err := r.Compile("{u8}{u8}")
		require.NoError(t, err)

		_, err = m.Run("255256")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrConversion)

		var fce *FieldConversionError
		require.ErrorAs(t, err, &fce)
		assert.Equal(t, 1, fce.PlaceholderIndex)
		assert.Equal(t, "256", fce.Input)
	})

	t.Run("AdjacentSplitSucceeds", func(t *testing.T) {
		m, err := r.Compile("{u8}{u8}")
		require.NoError(t, err)

		vals, err := m.Run("255255")
		require.NoError(t, err)
		assert.Equal(t, uint8(255), vals[0])
		assert.Equal(t, uint8(255), vals[1])
	})

	t.Run("SignedLimits", func(t *testing.T) {
		m, err := r.Compile("{i8}")
		require.NoError(t, err)

		vals, err := m.Run("-128")
		require.NoError(t, err)
		assert.Equal(t, int8(-128), vals[0])

		vals, err = m.Run("127")
		require.NoError(t, err)
		assert.Equal(t, int8(127), vals[0])

		_, err = m.Run("128")
		assert.ErrorIs(t, err, ErrConversion)

		_, err = m.Run("-129")
		assert.ErrorIs(t, err, ErrConversion)
	})

	t.Run("PlusSign", func(t *testing.T) {
		m, err := r.Compile("{u16}")
		require.NoError(t, err)

		vals, err := m.Run("+42")
		require.NoError(t, err)
		assert.Equal(t, uint16(42), vals[0])
	})
}

func TestRun_Radix(t *testing.T) {
	r := NewRegistry(RegistryOpts{IncludeBuiltins: true})

	t.Run("HexBare", func(t *testing.T) {
		m, err := r.Compile("{u16:x}")
		require.NoError(t, err)

		vals, err := m.Run("beef")
		require.NoError(t, err)
		assert.Equal(t, uint16(0xbeef), vals[0])
	})

	t.Run("HexWithOptionalPrefix", func(t *testing.T) {
		m, err := r.Compile("{u16:x}")
		require.NoError(t, err)

		vals, err := m.Run("0xBEEF")
		require.NoError(t, err)
		assert.Equal(t, uint16(0xbeef), vals[0])
	})

	t.Run("HexRequiredPrefix", func(t *testing.T) {
		m, err := r.Compile("{u16:#x}")
		require.NoError(t, err)

		_, err = m.Run("beef")
		assert.ErrorIs(t, err, ErrNoMatch)

		vals, err := m.Run("0xbeef")
		require.NoError(t, err)
		assert.Equal(t, uint16(0xbeef), vals[0])
	})

	t.Run("Octal", func(t *testing.T) {
		m, err := r.Compile("{u8:o}")
		require.NoError(t, err)

		vals, err := m.Run("0o17")
		require.NoError(t, err)
		assert.Equal(t, uint8(0o17), vals[0])
	})

	t.Run("Binary", func(t *testing.T) {
		m, err := r.Compile("{u8:b}")
		require.NoError(t, err)

		vals, err := m.Run("1010")
		require.NoError(t, err)
		assert.Equal(t, uint8(10), vals[0])
	})

	t.Run("ArbitraryRadix", func(t *testing.T) {
		m, err := r.Compile("{u32:r36}")
		require.NoError(t, err)

		vals, err := m.Run("zz")
		require.NoError(t, err)
		assert.Equal(t, uint32(35*36+35), vals[0])
	})

	t.Run("NegativeHex", func(t *testing.T) {
		m, err := r.Compile("{i32:x}")
		require.NoError(t, err)

		vals, err := m.Run("-ff")
		require.NoError(t, err)
		assert.Equal(t, int32(-255), vals[0])
	})
}

func TestRun_FloatsAndScalars(t *testing.T) {
	r := NewRegistry(RegistryOpts{IncludeBuiltins: true})

	t.Run("Float64", func(t *testing.T) {
		m, err := r.Compile("{f64}")
		require.NoError(t, err)

		vals, err := m.Run("-3.25e2")
		require.NoError(t, err)
		assert.Equal(t, -325.0, vals[0])
	})

	t.Run("Float32", func(t *testing.T) {
		m, err := r.Compile("{f32}")
		require.NoError(t, err)

		vals, err := m.Run("1.5")
		require.NoError(t, err)
		assert.Equal(t, float32(1.5), vals[0])
	})

	t.Run("FloatSpecials", func(t *testing.T) {
		m, err := r.Compile("{f64}")
		require.NoError(t, err)

		for _, s := range []string{"inf", "-inf", "Infinity", "NaN"} {
			_, err := m.Run(s)
			assert.NoError(t, err, "should parse %q", s)
		}
	})

	t.Run("Bool", func(t *testing.T) {
		m, err := r.Compile("{bool}")
		require.NoError(t, err)

		vals, err := m.Run("true")
		require.NoError(t, err)
		assert.Equal(t, true, vals[0])

		vals, err = m.Run("false")
		require.NoError(t, err)
		assert.Equal(t, false, vals[0])

		_, err = m.Run("TRUE")
		assert.ErrorIs(t, err, ErrNoMatch)
	})

	t.Run("Rune", func(t *testing.T) {
		m, err := r.Compile("grade {char}")
		require.NoError(t, err)

		vals, err := m.Run("grade A")
		require.NoError(t, err)
		assert.Equal(t, 'A', vals[0])
	})

	t.Run("LazyStrings", func(t *testing.T) {
		m, err := r.Compile("{str} and {str}")
		require.NoError(t, err)

		vals, err := m.Run("this and that and more")
		require.NoError(t, err)
		assert.Equal(t, "this", vals[0])
		assert.Equal(t, "that and more", vals[1])
	})
}

func TestRun_UUID(t *testing.T) {
	r := NewRegistry(RegistryOpts{IncludeBuiltins: true})

	m, err := r.Compile("id={uuid}")
	require.NoError(t, err)

	want := uuid.MustParse("123e4567-e89b-12d3-a456-426614174000")
	vals, err := m.Run("id=123e4567-e89b-12d3-a456-426614174000")
	require.NoError(t, err)
	assert.Equal(t, want, vals[0])

	_, err = m.Run("id=not-a-uuid")
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestRun_Time(t *testing.T) {
	r := NewRegistry(RegistryOpts{IncludeBuiltins: true})

	t.Run("DefaultRFC3339", func(t *testing.T) {
		m, err := r.Compile("at {time}")
		require.NoError(t, err)

		vals, err := m.Run("at 2026-08-30T09:30:00Z")
		require.NoError(t, err)
		ts, ok := vals[0].(time.Time)
		require.True(t, ok)
		assert.Equal(t, 2026, ts.Year())
	})

	t.Run("CustomLayout", func(t *testing.T) {
		m, err := r.Compile("on {time:2006-01-02}")
		require.NoError(t, err)

		vals, err := m.Run("on 2026-08-30")
		require.NoError(t, err)
		ts := vals[0].(time.Time)
		assert.Equal(t, time.August, ts.Month())
	})

	t.Run("InvalidDateIsConversionError", func(t *testing.T) {
		// "2026-13-45" fits the digit shape but is not a date.
		m, err := r.Compile("{time:2006-01-02}")
		require.NoError(t, err)

		_, err = m.Run("2026-13-45")
		assert.ErrorIs(t, err, ErrConversion)
	})
}

func TestRun_Escapes(t *testing.T) {
	r := NewRegistry(RegistryOpts{IncludeBuiltins: true})

	m, err := r.Compile("{{{u8}}}")
	require.NoError(t, err)

	vals, err := m.Run("{42}")
	require.NoError(t, err)
	assert.Equal(t, uint8(42), vals[0])
}

func TestRun_CustomPatternConversion(t *testing.T) {
	r := NewRegistry(RegistryOpts{IncludeBuiltins: true})

	// A custom sub-pattern overrides where the type matches; conversion
	// still runs on what it captured.
	m, err := r.Compile(`{u8:/\d\d/}`)
	require.NoError(t, err)

	vals, err := m.Run("42")
	require.NoError(t, err)
	assert.Equal(t, uint8(42), vals[0])

	_, err = m.Run("4")
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestRun_ConcurrentUse(t *testing.T) {
	r := NewRegistry(RegistryOpts{IncludeBuiltins: true})

	m, err := r.Compile("{u32}/{u32}")
	require.NoError(t, err)

	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				if _, err := m.Run("12/34"); err != nil {
					done <- err
					return
				}
			}
			done <- nil
		}()
	}
	for i := 0; i < 8; i++ {
		assert.NoError(t, <-done)
	}
}
