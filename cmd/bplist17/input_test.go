package main

import (
	"math"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"github.com/zdypro888/plist17"
)

func TestParseJSON(t *testing.T) {
	got, err := parseJSON([]byte(`{
		// comments are fine
		"zeta": [1, -2, 2.5, 1e3, "a\"b", true, false, null],
		"alpha": {},
		"empty": [],
	}`))
	require.NoError(t, err)

	want := plist17.NewDictionary().
		Set(plist17.String("zeta"), plist17.NewArray(
			plist17.Int(1),
			plist17.Int(-2),
			plist17.Float64(2.5),
			plist17.Float64(1000),
			plist17.String(`a"b`),
			plist17.Bool(true),
			plist17.Bool(false),
			plist17.Null{},
		)).
		Set(plist17.String("alpha"), plist17.NewDictionary()).
		Set(plist17.String("empty"), plist17.NewArray())
	require.True(t, plist17.Equal(want, got), plist17.Sprint(got))
}

func TestParseJSONScalarRoot(t *testing.T) {
	got, err := parseJSON([]byte(`"just text"`))
	require.NoError(t, err)
	require.Equal(t, plist17.String("just text"), got)
}

func TestParseJSONErrors(t *testing.T) {
	_, err := parseJSON([]byte(`[18446744073709551616]`))
	require.True(t, errors.Is(err, plist17.ErrIntegerOutOfRange), "got %v", err)

	_, err = parseJSON([]byte(`{"a": }`))
	require.Error(t, err)
}

func TestTypedRoundTrip(t *testing.T) {
	v := plist17.NewDictionary().
		Set(plist17.String("f"), plist17.Float32(0.1)).
		Set(plist17.String("d"), plist17.Float64(math.Inf(-1))).
		Set(plist17.String("blob"), plist17.Data{0x00, 0xFF}).
		Set(plist17.String("list"), plist17.NewArray(plist17.Int(-7), plist17.Null{}, plist17.Bool(false), plist17.String("s")))

	out, err := render(v, "json", true)
	require.NoError(t, err)

	got, err := parseSource(".json", out, true)
	require.NoError(t, err)
	require.True(t, plist17.Equal(v, got), plist17.Sprint(got))
}

func TestUntypeErrors(t *testing.T) {
	for _, doc := range []string{
		`[1]`,
		`{"type": "int"}`,
		`{"type": "int", "value": "seven"}`,
		`{"type": "uuid", "value": "x"}`,
		`{"type": "data", "value": "zz"}`,
	} {
		_, err := parseSource(".json", []byte(doc), true)
		require.Error(t, err, doc)
	}
}
