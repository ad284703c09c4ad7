package plist17

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSprint(t *testing.T) {
	v := NewDictionary().
		Set(String("list"), NewArray(Int(1), Float32(0.5), Data{0xAB})).
		Set(Int(2), Null{})

	want := "dict{\n" +
		"\t[string(list)]: array{\n" +
		"\t\t[0]: int64(1)\n" +
		"\t\t[1]: float32(0.5)\n" +
		"\t\t[2]: []byte(ab)\n" +
		"\t}\n" +
		"\t[int64(2)]: null\n" +
		"}"
	require.Equal(t, want, Sprint(v))
	require.Equal(t, "bool(true)", Sprint(Bool(true)))
	require.Equal(t, "float64(1e+300)", Sprint(Float64(1e300)))
}
