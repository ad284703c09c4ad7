package plist17

import (
	"bytes"
	"encoding/binary"
	"math"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
)

// DefaultMaxDepth bounds how many containers, references and nested streams
// may be open at once while decoding.
const DefaultMaxDepth = 512

// DecoderOption configures a Decoder.
type DecoderOption func(*Decoder)

// WithMaxDepth overrides DefaultMaxDepth.
func WithMaxDepth(depth int) DecoderOption {
	return func(d *Decoder) {
		d.maxDepth = depth
	}
}

// Decoder turns bplist17 streams into Value trees. A Decoder holds only
// configuration and may be shared.
type Decoder struct {
	maxDepth int
}

// NewDecoder returns a Decoder with opts applied.
func NewDecoder(opts ...DecoderOption) *Decoder {
	d := &Decoder{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode reads the root object of data.
func Decode(data []byte) (Value, error) {
	return NewDecoder().Decode(data)
}

// Decode reads the root object of data. Errors match ErrMalformedStream or
// ErrUnsupportedType.
func (d *Decoder) Decode(data []byte) (Value, error) {
	p := newBplist17Parser(data, d.maxDepth, 0)
	return p.parseDocument()
}

type bplist17Parser struct {
	cursor   *byteCursor
	maxDepth int
	depth    int

	// addresses of references currently being resolved
	resolving map[int64]struct{}
}

func newBplist17Parser(data []byte, maxDepth, depth int) *bplist17Parser {
	return &bplist17Parser{
		cursor:    newByteCursor(data),
		maxDepth:  maxDepth,
		depth:     depth,
		resolving: make(map[int64]struct{}),
	}
}

func (p *bplist17Parser) parseDocument() (pval Value, parseError error) {
	defer func() {
		if r := recover(); r != nil {
			pval = nil
			parseError = recoverError(r, "decoding bplist17")
		}
	}()
	return p.parseRoot(), nil
}

func (p *bplist17Parser) parseRoot() Value {
	if _, err := p.cursor.Read(int64(bpHeaderSize)); err != nil {
		p.panicf(ErrMalformedStream, "stream shorter than its %d byte header", bpHeaderSize)
	}
	return p.parseObjectAt(int64(bpHeaderSize))
}

func (p *bplist17Parser) panicf(kind error, format string, args ...interface{}) {
	panic(errors.Wrapf(kind, format, args...))
}

func (p *bplist17Parser) must(err error) {
	if err != nil {
		panic(err)
	}
}

func (p *bplist17Parser) read(n int64) []byte {
	b, err := p.cursor.Read(n)
	p.must(err)
	return b
}

func (p *bplist17Parser) enter(addr int64) {
	p.depth++
	if p.depth > p.maxDepth {
		p.panicf(ErrMalformedStream, "object at %d nested deeper than %d", addr, p.maxDepth)
	}
}

func (p *bplist17Parser) leave() {
	p.depth--
}

func (p *bplist17Parser) parseObjectAt(addr int64) Value {
	p.must(p.cursor.Seek(addr))
	tag := p.read(1)[0]
	selector, inline := splitTag(tag)

	switch selector {
	case bpTagInteger:
		if inline > maxIntWidth {
			p.panicf(ErrMalformedStream, "integer at %d is %d bytes wide", addr, inline)
		}
		return Int(readIntLE(p.read(int64(inline))))
	case bpTagUnsigned:
		if inline > maxIntWidth {
			p.panicf(ErrMalformedStream, "unsigned literal at %d is %d bytes wide", addr, inline)
		}
		u := readUintLE(p.read(int64(inline)))
		if u > math.MaxInt64 {
			p.panicf(ErrMalformedStream, "unsigned literal %d at %d overflows int64", u, addr)
		}
		return Int(u)
	case bpTagReal:
		switch tag {
		case bpTagReal32:
			return Float32(math.Float32frombits(binary.LittleEndian.Uint32(p.read(4))))
		case bpTagReal64:
			return Float64(math.Float64frombits(binary.LittleEndian.Uint64(p.read(8))))
		}
		p.panicf(ErrMalformedStream, "real at %d has width selector %#x", addr, inline)
	case bpTagBoolTrue, bpTagBoolFalse, bpTagNull:
		if inline != 0 {
			p.panicf(ErrMalformedStream, "tag %#02x at %d carries an inline field", tag, addr)
		}
		switch selector {
		case bpTagBoolTrue:
			return Bool(true)
		case bpTagBoolFalse:
			return Bool(false)
		}
		return Null{}
	case bpTagData:
		return p.parseData(tag)
	case bpTagASCIIString:
		size := p.dynamicSize(tag)
		b := bytes.TrimRight(p.read(size), "\x00")
		if !utf8.Valid(b) {
			p.panicf(ErrMalformedStream, "narrow string at %d is not valid text", addr)
		}
		return String(b)
	case bpTagUTF16String:
		count := p.dynamicSize(tag)
		if count > math.MaxInt64/2 {
			p.panicf(ErrMalformedStream, "wide string at %d claims %d characters", addr, count)
		}
		s, ok := decodeUTF16LE(p.read(2 * count))
		if !ok {
			p.panicf(ErrMalformedStream, "wide string at %d is not valid UTF-16", addr)
		}
		return String(s)
	case bpTagReference:
		width := p.dynamicSize(tag)
		if width == 0 || width > maxIntWidth {
			p.panicf(ErrMalformedStream, "reference at %d has a %d byte address", addr, width)
		}
		target := readUintLE(p.read(width))
		if target > math.MaxInt64 {
			p.panicf(ErrMalformedStream, "reference at %d points past any stream", addr)
		}
		return p.parseReference(addr, int64(target))
	case bpTagArray:
		return p.parseArray(addr)
	case bpTagDictionary:
		return p.parseDictionary(addr)
	}
	p.panicf(ErrUnsupportedType, "tag %#02x at %d", tag, addr)
	return nil
}

func (p *bplist17Parser) dynamicSize(tag byte) int64 {
	size, err := readDynamicSize(p.cursor, tag)
	p.must(err)
	return size
}

func (p *bplist17Parser) parseData(tag byte) Value {
	b := p.read(p.dynamicSize(tag))
	if isNestedStream(b) {
		p.enter(p.cursor.Tell() - int64(len(b)))
		defer p.leave()
		nested := newBplist17Parser(b, p.maxDepth, p.depth)
		return nested.parseRoot()
	}
	// bplist00 blobs and anything else stay raw
	data := make([]byte, len(b))
	copy(data, b)
	return Data(data)
}

func isNestedStream(b []byte) bool {
	return len(b) >= bpHeaderSize && string(b[:bpHeaderSize]) == bpHeader
}

// parseReference decodes the object at target and leaves the cursor right
// after the reference token.
func (p *bplist17Parser) parseReference(addr, target int64) Value {
	if _, ok := p.resolving[target]; ok {
		p.panicf(ErrMalformedStream, "reference at %d to %d forms a cycle", addr, target)
	}
	p.enter(addr)
	p.resolving[target] = struct{}{}
	defer func() {
		delete(p.resolving, target)
		p.leave()
	}()

	here := p.cursor.Tell()
	pval := p.parseObjectAt(target)
	p.must(p.cursor.Seek(here))
	return pval
}

func (p *bplist17Parser) readEndAddress(addr int64) int64 {
	end := readUintLE(p.read(bpEndAddressSize))
	if end > math.MaxInt64-1 {
		p.panicf(ErrMalformedStream, "container at %d ends at %d", addr, end)
	}
	return int64(end)
}

func (p *bplist17Parser) checkEnd(addr, end int64) {
	if pos := p.cursor.Tell(); pos != end+1 {
		p.panicf(ErrMalformedStream, "container at %d stops at %d, want %d", addr, pos, end+1)
	}
}

func (p *bplist17Parser) parseArray(addr int64) Value {
	p.enter(addr)
	defer p.leave()

	end := p.readEndAddress(addr)
	values := make([]Value, 0, 8)
	for p.cursor.Tell() <= end {
		values = append(values, p.parseObjectAt(p.cursor.Tell()))
	}
	p.checkEnd(addr, end)
	return &Array{Values: values}
}

func (p *bplist17Parser) parseDictionary(addr int64) Value {
	p.enter(addr)
	defer p.leave()

	end := p.readEndAddress(addr)
	keys := make([]Value, 0, 8)
	values := make([]Value, 0, 8)
	for p.cursor.Tell() <= end {
		keys = append(keys, p.parseObjectAt(p.cursor.Tell()))
		if p.cursor.Tell() > end {
			p.panicf(ErrMalformedStream, "dictionary at %d has a key with no value", addr)
		}
		values = append(values, p.parseObjectAt(p.cursor.Tell()))
	}
	p.checkEnd(addr, end)
	return &Dictionary{Keys: keys, Values: values}
}

func decodeUTF16LE(b []byte) (string, bool) {
	units := make([]uint16, len(b)/2)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(b[2*i:])
	}
	for i := 0; i < len(units); i++ {
		u := rune(units[i])
		switch {
		case u >= 0xD800 && u < 0xDC00:
			if i+1 >= len(units) || units[i+1] < 0xDC00 || units[i+1] >= 0xE000 {
				return "", false
			}
			i++
		case u >= 0xDC00 && u < 0xE000:
			return "", false
		}
	}
	return string(utf16.Decode(units)), true
}
