package evtx

import "encoding/binary"

// parseState tracks whether the decoder sits inside an attribute whose
// name is still on the name stack.
type parseState uint8

const (
	stateNormal parseState = iota + 1
	stateInAttribute
)

// parseContext is a bounds-checked cursor over a byte window. Nested
// windows (template bodies, embedded BinXml values) borrow a sub-slice of
// the parent's buffer; chunkCtx points back at the outermost context over
// the 64 KiB chunk so absolute name offsets can be resolved. Children live
// on the call stack and never outlive the chunk context.
type parseContext struct {
	chunkCtx             *parseContext
	data                 []byte
	off                  int
	offsetFromChunkStart int
	state                parseState
	tmpl                 *templateDescription

	// cachedValue holds the most recent text value, used to rewrite the
	// key of a <Data Name="X"> element. Payload is capped at 255 bytes.
	cachedValue string
}

func (c *parseContext) haveEnough(n int) bool {
	return c.off+n <= len(c.data)
}

// skip advances the cursor without bounds checking; readers detect
// over-skips on their next access.
func (c *parseContext) skip(n int) {
	c.off += n
}

func (c *parseContext) readU8() (uint8, error) {
	if !c.haveEnough(1) {
		return 0, ErrShortRead
	}
	v := c.data[c.off]
	c.off++
	return v, nil
}

func (c *parseContext) readU16() (uint16, error) {
	if !c.haveEnough(2) {
		return 0, ErrShortRead
	}
	v := binary.LittleEndian.Uint16(c.data[c.off:])
	c.off += 2
	return v, nil
}

func (c *parseContext) readU32() (uint32, error) {
	if !c.haveEnough(4) {
		return 0, ErrShortRead
	}
	v := binary.LittleEndian.Uint32(c.data[c.off:])
	c.off += 4
	return v, nil
}

func (c *parseContext) readU64() (uint64, error) {
	if !c.haveEnough(8) {
		return 0, ErrShortRead
	}
	v := binary.LittleEndian.Uint64(c.data[c.off:])
	c.off += 8
	return v, nil
}

func (c *parseContext) readBytes(n int) ([]byte, error) {
	if n < 0 || !c.haveEnough(n) {
		return nil, ErrShortRead
	}
	b := c.data[c.off : c.off+n]
	c.off += n
	return b, nil
}

// inheritWindow produces a child context over wantedLen bytes starting at
// the parent's cursor. An out-of-bounds length is clamped to the remaining
// bytes (or zero when the cursor itself is out of bounds).
func (c *parseContext) inheritWindow(wantedLen int) parseContext {
	child := parseContext{
		chunkCtx:             c.chunkCtx,
		state:                stateNormal,
		offsetFromChunkStart: c.off + c.offsetFromChunkStart,
	}
	switch {
	case c.off >= len(c.data):
		child.data = nil
	case wantedLen < 0 || c.off+wantedLen > len(c.data):
		child.data = c.data[c.off:]
	default:
		child.data = c.data[c.off : c.off+wantedLen]
	}
	return child
}

// shorten reduces the window length; it never extends it.
func (c *parseContext) shorten(newLen int) {
	if newLen >= 0 && newLen <= len(c.data) {
		c.data = c.data[:newLen]
	}
}
