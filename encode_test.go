package plist17

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func requireRoundTrip(t *testing.T, e *Encoder, v Value) []byte {
	t.Helper()
	data, err := e.Encode(v)
	require.NoError(t, err)
	got, err := Decode(data)
	require.NoError(t, err)
	if diff := cmp.Diff(v, got, valueCmpOptions...); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
	return data
}

func TestEncodeBytes(t *testing.T) {
	tests := []struct {
		name string
		in   Value
		body []byte
	}{
		{"null", Null{}, []byte{0xE0}},
		{"true", Bool(true), []byte{0xB0}},
		{"false", Bool(false), []byte{0xC0}},
		{"zero", Int(0), []byte{0x10}},
		{"float32", Float32(1.5), []byte{0x22, 0x00, 0x00, 0xC0, 0x3F}},
		{"narrow string", String("ab"), []byte{0x72, 'a', 'b'}},
		{"wide string", String("é"), []byte{0x61, 0xE9, 0x00}},
		{"trailing NUL goes wide", String("a\x00"), []byte{0x62, 'a', 0, 0, 0}},
		{"data", Data{1, 2}, []byte{0x42, 1, 2}},
		{"array", NewArray(Int(1), String("ab"), Bool(true), Null{}), []byte{
			0xA0, 0x17, 0, 0, 0, 0, 0, 0, 0,
			0x11, 0x01,
			0x72, 'a', 'b',
			0xB0,
			0xE0,
		}},
		{"empty array", NewArray(), []byte{0xA0, 0x10, 0, 0, 0, 0, 0, 0, 0}},
		{"empty dictionary", NewDictionary(), []byte{0xD0, 0x10, 0, 0, 0, 0, 0, 0, 0}},
		{"dictionary", NewDictionary().Set(String("k"), Int(1)), []byte{
			0xD0, 0x14, 0, 0, 0, 0, 0, 0, 0,
			0x71, 'k',
			0x11, 0x01,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Encode(tt.in)
			require.NoError(t, err)
			require.Equal(t, stream(tt.body...), data)
		})
	}
}

func TestEncodeScenarios(t *testing.T) {
	e := NewEncoder()

	requireRoundTrip(t, e, NewArray(Int(1), String("ab"), Bool(true), Null{}))
	requireRoundTrip(t, e, NewDictionary())

	inner, err := Encode(Int(42))
	require.NoError(t, err)
	data, err := Encode(Data(inner))
	require.NoError(t, err)
	got, err := Decode(data)
	require.NoError(t, err)
	require.Equal(t, Int(42), got)
}

func TestEncodeIntegers(t *testing.T) {
	for _, n := range []int64{math.MinInt64, -1, 0, 1, 127, 128, 255, 65535, math.MaxInt32, math.MaxInt64} {
		requireRoundTrip(t, NewEncoder(), Int(n))
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	long := strings.Repeat("x", 300)
	tests := []struct {
		name string
		in   Value
	}{
		{"float32 NaN", Float32(float32(math.NaN()))},
		{"float64 NaN", Float64(math.NaN())},
		{"negative zero", Float64(math.Copysign(0, -1))},
		{"infinity", Float32(float32(math.Inf(-1)))},
		{"long narrow string", String(long)},
		{"wide string", String("日本語 \U0001F600")},
		{"string with NULs", String("\x00a\x00")},
		{"large data", Data(bytes.Repeat([]byte{0xAB}, 70000))},
		{"raw bplist00 data", Data("bplist00\x01\x02")},
		{"nested containers", NewArray(
			NewDictionary().
				Set(String("name"), String("value")).
				Set(Int(-5), NewArray(Float32(0.25), Float64(1e300))).
				Set(Null{}, Data{}),
			NewArray(),
			NewDictionary(),
		)},
		{"duplicate keys", NewDictionary().Set(String("a"), Int(1)).Set(String("a"), Int(2))},
		{"long array", NewArray(func() []Value {
			values := make([]Value, 100)
			for i := range values {
				values[i] = Int(i * 1000)
			}
			return values
		}()...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requireRoundTrip(t, NewEncoder(), tt.in)
			requireRoundTrip(t, NewEncoder(WithReferences()), tt.in)
		})
	}
}

func TestEncodeNestedStreamRoundTrip(t *testing.T) {
	inner := NewDictionary().Set(String("inner"), NewArray(Int(1), Int(2)))
	innerData, err := Encode(inner)
	require.NoError(t, err)

	data, err := Encode(NewArray(Data(innerData), String("outer")))
	require.NoError(t, err)
	requireDecodes(t, data, NewArray(inner, String("outer")))
}

func TestEncodeReferences(t *testing.T) {
	s := String("abcdefghijklmnop")
	v := NewArray(s, s)

	plain := requireRoundTrip(t, NewEncoder(), v)
	data := requireRoundTrip(t, NewEncoder(WithReferences()), v)
	require.Len(t, plain, 8+9+19+19)
	require.Len(t, data, 8+9+19+2)
	require.Equal(t, []byte{0x81, 0x11}, data[len(data)-2:])

	// short values are never replaced
	small := NewArray(Int(1), Int(1), Bool(true), Bool(true))
	plainSmall := requireRoundTrip(t, NewEncoder(), small)
	require.Equal(t, plainSmall, requireRoundTrip(t, NewEncoder(WithReferences()), small))
}

func TestEncodeReferencesToContainers(t *testing.T) {
	pair := NewArray(String("the first long string"), String("the second long string"))
	v := NewDictionary().
		Set(String("left"), pair).
		Set(String("right"), pair).
		Set(String("again"), String("the second long string"))

	plain := requireRoundTrip(t, NewEncoder(), v)
	data := requireRoundTrip(t, NewEncoder(WithReferences()), v)
	require.Less(t, len(data), len(plain))
}

func TestEncodeErrors(t *testing.T) {
	tests := []struct {
		name string
		in   Value
	}{
		{"nil", nil},
		{"nil inside array", NewArray(Int(1), nil)},
		{"nil array", (*Array)(nil)},
		{"nil dictionary", (*Dictionary)(nil)},
		{"unbalanced dictionary", &Dictionary{Keys: []Value{String("a")}}},
		{"invalid UTF-8", String("\xff")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encode(tt.in)
			require.True(t, errors.Is(err, ErrUnsupportedValue), "got %v", err)
		})
	}
}

func TestDictionaryGet(t *testing.T) {
	d := NewDictionary().
		Set(String("a"), Int(1)).
		Set(Int(2), String("two")).
		Set(String("a"), Int(3))

	v, ok := d.Get(String("a"))
	require.True(t, ok)
	require.Equal(t, Int(3), v)

	v, ok = d.Get(Int(2))
	require.True(t, ok)
	require.Equal(t, String("two"), v)

	_, ok = d.Get(String("missing"))
	require.False(t, ok)
	require.Equal(t, 3, d.Len())
}

func TestInterface(t *testing.T) {
	v := NewDictionary().
		Set(String("list"), NewArray(Int(1), Float32(0.5), Null{})).
		Set(Int(7), Data{0x01}).
		Set(String("list"), Bool(true))

	require.Equal(t, map[string]interface{}{
		"list": true,
		"7":    []byte{0x01},
	}, Interface(v))
	require.Equal(t, []interface{}{int64(1), float32(0.5), nil}, Interface(NewArray(Int(1), Float32(0.5), Null{})))
}
