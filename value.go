package plist17

import (
	"fmt"
	"math"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// Value is one node of a decoded stream. The concrete types are Null, Bool,
// Int, Float32, Float64, Data, String, *Array and *Dictionary.
type Value interface {
	plistValue()
}

// Null is the bplist17 null object.
type Null struct{}

// Bool is a boolean.
type Bool bool

// Int is a signed integer of up to 8 bytes on the wire.
type Int int64

// Float32 is a single precision real.
type Float32 float32

// Float64 is a double precision real.
type Float64 float64

// Data is an opaque blob. Blobs holding a nested bplist17 stream are decoded
// into the nested value instead.
type Data []byte

// String is text, stored narrow (8-bit) or wide (UTF-16LE) on the wire.
type String string

// Array is an ordered sequence of values.
type Array struct {
	Values []Value
}

// Dictionary holds key/value pairs in stream order. Keys may be any value and
// duplicates are kept as they appear.
type Dictionary struct {
	Keys   []Value
	Values []Value
}

func (Null) plistValue()        {}
func (Bool) plistValue()        {}
func (Int) plistValue()         {}
func (Float32) plistValue()     {}
func (Float64) plistValue()     {}
func (Data) plistValue()        {}
func (String) plistValue()      {}
func (*Array) plistValue()      {}
func (*Dictionary) plistValue() {}

// NewArray builds an array from values.
func NewArray(values ...Value) *Array {
	return &Array{Values: values}
}

// Len returns the number of elements.
func (a *Array) Len() int {
	return len(a.Values)
}

// NewDictionary returns an empty dictionary.
func NewDictionary() *Dictionary {
	return &Dictionary{}
}

// Set appends a pair. An existing equal key is not replaced.
func (d *Dictionary) Set(key, value Value) *Dictionary {
	d.Keys = append(d.Keys, key)
	d.Values = append(d.Values, value)
	return d
}

// Len returns the number of pairs, duplicates included.
func (d *Dictionary) Len() int {
	return len(d.Keys)
}

// Get returns the value of the last pair whose key equals key, so duplicate
// keys resolve last-write-wins.
func (d *Dictionary) Get(key Value) (Value, bool) {
	for i := len(d.Keys) - 1; i >= 0; i-- {
		if Equal(d.Keys[i], key) {
			return d.Values[i], true
		}
	}
	return nil, false
}

var valueCmpOptions = []cmp.Option{
	cmp.Comparer(func(a, b Float32) bool {
		return math.Float32bits(float32(a)) == math.Float32bits(float32(b))
	}),
	cmp.Comparer(func(a, b Float64) bool {
		return math.Float64bits(float64(a)) == math.Float64bits(float64(b))
	}),
	cmpopts.EquateEmpty(),
}

// Equal reports whether two value trees are structurally identical. Reals
// compare by bit pattern, so NaN equals itself.
func Equal(a, b Value) bool {
	return cmp.Equal(a, b, valueCmpOptions...)
}

// Interface converts v into plain Go values: nil, bool, int64, float32,
// float64, []byte, string, []interface{} and map[string]interface{}.
// Non-string dictionary keys are formatted with %v and duplicate keys keep
// the last value.
func Interface(v Value) interface{} {
	switch pval := v.(type) {
	case Null, nil:
		return nil
	case Bool:
		return bool(pval)
	case Int:
		return int64(pval)
	case Float32:
		return float32(pval)
	case Float64:
		return float64(pval)
	case Data:
		return []byte(pval)
	case String:
		return string(pval)
	case *Array:
		values := make([]interface{}, len(pval.Values))
		for i, e := range pval.Values {
			values[i] = Interface(e)
		}
		return values
	case *Dictionary:
		dict := make(map[string]interface{}, len(pval.Keys))
		for i, k := range pval.Keys {
			dict[keyString(k)] = Interface(pval.Values[i])
		}
		return dict
	}
	panic(fmt.Sprintf("plist17: unknown value type %T", v))
}

func keyString(k Value) string {
	if s, ok := k.(String); ok {
		return string(s)
	}
	return fmt.Sprintf("%v", Interface(k))
}
