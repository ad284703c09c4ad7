package plist17

import (
	"github.com/cockroachdb/errors"
)

// byteCursor is a random-access view over one stream. It is owned by a single
// decode or encode call.
type byteCursor struct {
	buf []byte
	pos int64
}

func newByteCursor(buf []byte) *byteCursor {
	return &byteCursor{buf: buf}
}

func (c *byteCursor) Seek(offset int64) error {
	if offset < 0 || offset > int64(len(c.buf)) {
		return errors.Wrapf(ErrMalformedStream, "seek to %d outside stream of %d bytes", offset, len(c.buf))
	}
	c.pos = offset
	return nil
}

func (c *byteCursor) Tell() int64 {
	return c.pos
}

// Read returns the next n bytes and advances past them. The returned slice
// aliases the underlying buffer.
func (c *byteCursor) Read(n int64) ([]byte, error) {
	if n < 0 || n > int64(len(c.buf))-c.pos {
		return nil, errors.Wrapf(ErrMalformedStream, "read of %d bytes at %d: only %d available", n, c.pos, int64(len(c.buf))-c.pos)
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

func (c *byteCursor) ReadByte() (byte, error) {
	b, err := c.Read(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Write appends at the cursor, overwriting whatever lies under it.
func (c *byteCursor) Write(p []byte) (int, error) {
	end := c.pos + int64(len(p))
	if end > int64(len(c.buf)) {
		if end > int64(cap(c.buf)) {
			grown := make([]byte, len(c.buf), 2*end)
			copy(grown, c.buf)
			c.buf = grown
		}
		c.buf = c.buf[:end]
	}
	copy(c.buf[c.pos:], p)
	c.pos = end
	return len(p), nil
}

func (c *byteCursor) Bytes() []byte {
	return c.buf
}
