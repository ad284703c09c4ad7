package plist17

import (
	"encoding/binary"
	"math"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
)

// EncoderOption configures an Encoder.
type EncoderOption func(*Encoder)

// WithReferences makes the encoder emit a back-reference instead of a value
// that was already written earlier in the stream, whenever the reference is
// shorter.
func WithReferences() EncoderOption {
	return func(e *Encoder) {
		e.references = true
	}
}

// Encoder turns Value trees into bplist17 streams.
//
// Text is written narrow when it is ASCII without trailing NULs and wide
// (UTF-16LE) otherwise. Float32 and Float64 keep their own widths.
type Encoder struct {
	references bool
}

// NewEncoder returns an Encoder with opts applied.
func NewEncoder(opts ...EncoderOption) *Encoder {
	e := &Encoder{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Encode serializes v with default options.
func Encode(v Value) ([]byte, error) {
	return NewEncoder().Encode(v)
}

// Encode serializes v into a complete stream.
func (e *Encoder) Encode(v Value) ([]byte, error) {
	g := &bplist17Generator{references: e.references}
	body, err := g.generateAt(v, int64(bpHeaderSize))
	if err != nil {
		return nil, errors.Wrap(err, "encoding bplist17")
	}
	c := newByteCursor(make([]byte, 0, bpHeaderSize+len(body)))
	c.Write([]byte(bpHeader))
	c.Write(body)
	return c.Bytes(), nil
}

type internedValue struct {
	value   Value
	address int64
}

type bplist17Generator struct {
	references bool
	interned   []internedValue
}

func (g *bplist17Generator) lookup(v Value) (int64, bool) {
	for _, iv := range g.interned {
		if Equal(iv.value, v) {
			return iv.address, true
		}
	}
	return 0, false
}

// generateAt returns the encoding of v as if its tag byte sat at address
// pos. Callers place the next sibling at pos+len(result).
func (g *bplist17Generator) generateAt(v Value, pos int64) ([]byte, error) {
	if !g.references {
		return g.generateValue(v, pos)
	}

	mark := len(g.interned)
	inline, err := g.generateValue(v, pos)
	if err != nil {
		return nil, err
	}
	if len(inline) <= 2 {
		// no reference is ever shorter than two bytes
		return inline, nil
	}
	if addr, ok := g.lookup(v); ok {
		ref := referenceToken(addr)
		if len(ref) < len(inline) {
			// anything interned while producing the discarded inline copy
			// points at bytes that will never be written
			g.interned = g.interned[:mark]
			return ref, nil
		}
		return inline, nil
	}
	g.interned = append(g.interned, internedValue{value: v, address: pos})
	return inline, nil
}

func referenceToken(addr int64) []byte {
	w := uintWidth(uint64(addr))
	b := append(make([]byte, 0, 1+w), bpTagReference|uint8(w))
	return append(b, putUintLE(uint64(addr), w)...)
}

func (g *bplist17Generator) generateValue(v Value, pos int64) ([]byte, error) {
	switch pval := v.(type) {
	case Null:
		return []byte{bpTagNull}, nil
	case Bool:
		if pval {
			return []byte{bpTagBoolTrue}, nil
		}
		return []byte{bpTagBoolFalse}, nil
	case Int:
		return appendInt(nil, int64(pval)), nil
	case Float32:
		b := []byte{bpTagReal32, 0, 0, 0, 0}
		binary.LittleEndian.PutUint32(b[1:], math.Float32bits(float32(pval)))
		return b, nil
	case Float64:
		b := []byte{bpTagReal64, 0, 0, 0, 0, 0, 0, 0, 0}
		binary.LittleEndian.PutUint64(b[1:], math.Float64bits(float64(pval)))
		return b, nil
	case Data:
		return append(appendSized(nil, bpTagData, len(pval)), pval...), nil
	case String:
		return generateString(string(pval))
	case *Array:
		if pval == nil {
			return nil, errors.Wrap(ErrUnsupportedValue, "nil array")
		}
		return g.generateContainer(bpTagArray, pos, pval.Values)
	case *Dictionary:
		if pval == nil {
			return nil, errors.Wrap(ErrUnsupportedValue, "nil dictionary")
		}
		if len(pval.Keys) != len(pval.Values) {
			return nil, errors.Wrapf(ErrUnsupportedValue, "dictionary has %d keys and %d values", len(pval.Keys), len(pval.Values))
		}
		items := make([]Value, 0, 2*len(pval.Keys))
		for i, k := range pval.Keys {
			items = append(items, k, pval.Values[i])
		}
		return g.generateContainer(bpTagDictionary, pos, items)
	}
	return nil, errors.Wrapf(ErrUnsupportedValue, "%T", v)
}

// generateContainer lays items out after the tag and end address. The end
// address is only known once every item is encoded, so the header is built
// last and prepended.
func (g *bplist17Generator) generateContainer(tag uint8, pos int64, items []Value) ([]byte, error) {
	next := pos + bpContainerHead
	var body []byte
	for _, item := range items {
		b, err := g.generateAt(item, next)
		if err != nil {
			return nil, err
		}
		body = append(body, b...)
		next += int64(len(b))
	}

	// an empty container ends on the last byte of its own end address
	end := next - 1
	out := make([]byte, 0, bpContainerHead+len(body))
	out = append(out, tag)
	out = append(out, putUintLE(uint64(end), bpEndAddressSize)...)
	return append(out, body...), nil
}

func generateString(s string) ([]byte, error) {
	if !utf8.ValidString(s) {
		return nil, errors.Wrapf(ErrUnsupportedValue, "string %q is not valid UTF-8", s)
	}
	if isNarrow(s) {
		return append(appendSized(nil, bpTagASCIIString, len(s)), s...), nil
	}
	units := utf16.Encode([]rune(s))
	out := appendSized(nil, bpTagUTF16String, len(units))
	for _, u := range units {
		out = append(out, byte(u), byte(u>>8))
	}
	return out, nil
}

// isNarrow reports whether s survives the narrow encoding, which is 8-bit
// and loses trailing NULs.
func isNarrow(s string) bool {
	if len(s) > 0 && s[len(s)-1] == 0 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
