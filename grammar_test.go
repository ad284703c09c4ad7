package plist17

import (
	"math"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func TestIntWidth(t *testing.T) {
	tests := []struct {
		v     int64
		width int
	}{
		{0, 0},
		{1, 1},
		{127, 1},
		{128, 2},
		{255, 2},
		{32767, 2},
		{32768, 3},
		{65535, 3},
		{math.MaxInt32, 4},
		{math.MaxInt32 + 1, 5},
		{math.MaxInt64, 8},
		{-1, 8},
		{math.MinInt64, 8},
	}
	for _, tt := range tests {
		require.Equal(t, tt.width, intWidth(tt.v), "intWidth(%d)", tt.v)
	}
}

func TestUintWidth(t *testing.T) {
	require.Equal(t, 1, uintWidth(0))
	require.Equal(t, 1, uintWidth(255))
	require.Equal(t, 2, uintWidth(256))
	require.Equal(t, 8, uintWidth(math.MaxUint64))
}

func TestReadIntLE(t *testing.T) {
	tests := []struct {
		in   []byte
		want int64
	}{
		{nil, 0},
		{[]byte{0x7F}, 127},
		{[]byte{0xFF}, -1},
		{[]byte{0xFF, 0x00}, 255},
		{[]byte{0x00, 0x80}, -32768},
		{[]byte{0x01, 0x02, 0x03}, 0x030201},
		{[]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x7F}, math.MaxInt64},
		{[]byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x80}, math.MinInt64},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, readIntLE(tt.in), "readIntLE(% x)", tt.in)
	}
}

func TestAppendInt(t *testing.T) {
	require.Equal(t, []byte{0x10}, appendInt(nil, 0))
	require.Equal(t, []byte{0x11, 0x01}, appendInt(nil, 1))
	require.Equal(t, []byte{0x12, 0x80, 0x00}, appendInt(nil, 128))
	require.Equal(t, []byte{0x13, 0xFF, 0xFF, 0x00}, appendInt(nil, 65535))
	require.Equal(t, []byte{0x18, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}, appendInt(nil, -1))
}

func TestAppendSized(t *testing.T) {
	require.Equal(t, []byte{0x70}, appendSized(nil, bpTagASCIIString, 0))
	require.Equal(t, []byte{0x7E}, appendSized(nil, bpTagASCIIString, 14))
	require.Equal(t, []byte{0x7F, 0x11, 0x0F}, appendSized(nil, bpTagASCIIString, 15))
	require.Equal(t, []byte{0x4F, 0x12, 0x2C, 0x01}, appendSized(nil, bpTagData, 300))
}

func TestReadDynamicSize(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want int64
		err  error
	}{
		{"inline", []byte{0x45}, 5, nil},
		{"redundant spill", []byte{0x4F, 0x11, 0x05}, 5, nil},
		{"wide spill", []byte{0x4F, 0x12, 0x2C, 0x01}, 300, nil},
		{"spill without integer", []byte{0x4F, 0x72}, 0, ErrMalformedStream},
		{"spill of zero width", []byte{0x4F, 0x10}, 0, ErrMalformedStream},
		{"truncated spill", []byte{0x4F, 0x12, 0x2C}, 0, ErrMalformedStream},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newByteCursor(tt.in)
			tag, err := c.ReadByte()
			require.NoError(t, err)
			got, err := readDynamicSize(c, tag)
			if tt.err != nil {
				require.True(t, errors.Is(err, tt.err), "got %v", err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
			require.Equal(t, int64(len(tt.in)), c.Tell())
		})
	}
}
