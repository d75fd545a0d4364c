// cursor.go - Checked sequential reader over an in-memory byte slice
package format

// Cursor walks a byte slice with bounds checking on every read. All
// methods return ErrShortRead instead of panicking when the buffer is
// exhausted. Byte slices returned by Bytes alias the underlying
// buffer.
type Cursor struct {
	buf []byte
	pos int
}

func NewCursor(b []byte) *Cursor { return &Cursor{buf: b} }

func (c *Cursor) Pos() int       { return c.pos }
func (c *Cursor) Remaining() int { return len(c.buf) - c.pos }

// Reset rewinds the cursor onto a new buffer.
func (c *Cursor) Reset(b []byte) {
	c.buf = b
	c.pos = 0
}

func (c *Cursor) Uint8() (uint8, error) {
	if c.pos >= len(c.buf) {
		return 0, ErrShortRead
	}
	v := c.buf[c.pos]
	c.pos++
	return v, nil
}

func (c *Cursor) Uint16() (uint16, error) {
	v, err := Le16(c.buf, c.pos)
	if err != nil {
		return 0, ErrShortRead
	}
	c.pos += 2
	return v, nil
}

func (c *Cursor) Uint32() (uint32, error) {
	v, err := Le32(c.buf, c.pos)
	if err != nil {
		return 0, ErrShortRead
	}
	c.pos += 4
	return v, nil
}

func (c *Cursor) Uint64() (uint64, error) {
	v, err := Le64(c.buf, c.pos)
	if err != nil {
		return 0, ErrShortRead
	}
	c.pos += 8
	return v, nil
}

func (c *Cursor) Int16() (int16, error) {
	v, err := c.Uint16()
	return int16(v), err
}

func (c *Cursor) Int32() (int32, error) {
	v, err := c.Uint32()
	return int32(v), err
}

func (c *Cursor) Int64() (int64, error) {
	v, err := c.Uint64()
	return int64(v), err
}

func (c *Cursor) Float32() (float32, error) {
	v, err := LeFloat32(c.buf, c.pos)
	if err != nil {
		return 0, ErrShortRead
	}
	c.pos += 4
	return v, nil
}

func (c *Cursor) Float64() (float64, error) {
	v, err := LeFloat64(c.buf, c.pos)
	if err != nil {
		return 0, ErrShortRead
	}
	c.pos += 8
	return v, nil
}

// VarUint decodes an unsigned varint at the cursor.
func (c *Cursor) VarUint() (uint64, error) {
	v, n, err := Varuint(c.buf[c.pos:])
	if err != nil {
		return 0, err
	}
	c.pos += n
	return v, nil
}

// VarIntDelta decodes a signed delta varint and adds it to acc.
func (c *Cursor) VarIntDelta(acc int64) (int64, error) {
	v, n, err := VarintDelta(c.buf[c.pos:], acc)
	if err != nil {
		return 0, err
	}
	c.pos += n
	return v, nil
}

// SkipVarUint advances past one unsigned varint.
func (c *Cursor) SkipVarUint() error {
	n, err := SkipVaruint(c.buf[c.pos:])
	if err != nil {
		return err
	}
	c.pos += n
	return nil
}

// PeekByte returns the byte at the cursor without advancing, or 0 at
// the end of the buffer.
func (c *Cursor) PeekByte() byte {
	if c.pos >= len(c.buf) {
		return 0
	}
	return c.buf[c.pos]
}

// Bytes returns n bytes at the cursor without copying.
func (c *Cursor) Bytes(n int) ([]byte, error) {
	if n < 0 || c.pos+n > len(c.buf) {
		return nil, ErrShortRead
	}
	v := c.buf[c.pos : c.pos+n : c.pos+n]
	c.pos += n
	return v, nil
}

// Skip advances the cursor by n bytes.
func (c *Cursor) Skip(n int) error {
	if n < 0 || c.pos+n > len(c.buf) {
		return ErrShortRead
	}
	c.pos += n
	return nil
}
