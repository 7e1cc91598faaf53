package evtx

import "github.com/tekert/goevtx/internal/utf16f"

// nameBufferSize bounds every decoded name or text value, including its
// would-be terminator; payloads never exceed nameBufferSize-1 bytes.
const nameBufferSize = 256

// maxNameStackDepth caps element/attribute nesting. Deeper pushes are
// silently dropped, matching the wire format's practical depth.
const maxNameStackDepth = 20

// nameStack is a bounded LIFO of element and attribute names. The top and
// the element below it drive the Data/EventData key rewrite.
type nameStack struct {
	names [maxNameStackDepth]string
	sp    int // index of the top entry, -1 when empty
}

func newNameStack() nameStack {
	return nameStack{sp: -1}
}

func (s *nameStack) reset() {
	s.sp = -1
}

// push is a no-op when the stack is full.
func (s *nameStack) push(name string) {
	if s.sp+1 >= maxNameStackDepth {
		return
	}
	s.sp++
	s.names[s.sp] = name
}

func (s *nameStack) pop() {
	if s.sp > -1 {
		s.sp--
	}
}

func (s *nameStack) top() (string, bool) {
	if s.sp < 0 {
		return "", false
	}
	return s.names[s.sp], true
}

// parent returns the entry just below the top.
func (s *nameStack) parent() (string, bool) {
	if s.sp < 1 {
		return "", false
	}
	return s.names[s.sp-1], true
}

// readPrefixedString reads a 16-bit-length-prefixed UTF-16LE string and
// transcodes it into a bounded UTF-8 buffer. Units past the buffer's
// capacity are consumed but dropped; nullTerminated skips one trailing
// unit. The returned string never exceeds nameBufferSize-1 bytes.
func readPrefixedString(ctx *parseContext, nullTerminated bool) (string, error) {
	charCnt, err := ctx.readU16()
	if err != nil {
		return "", err
	}

	buf := make([]byte, 0, 64)
	idx := 0
	for ; idx < int(charCnt) && idx*2 < nameBufferSize-1; idx++ {
		u, err := ctx.readU16()
		if err != nil {
			return "", err
		}
		buf = utf16f.AppendUnit(buf, u, nameBufferSize)
	}

	tail := int(charCnt) - idx
	if nullTerminated {
		tail++
	}
	ctx.skip(tail * 2)

	return string(buf), nil
}

// readName consumes a 4-byte chunk-absolute offset and resolves the name it
// points at. When the offset differs from the cursor's absolute position, a
// temporary context over the chunk buffer is used; otherwise the name is
// read in place. The on-wire name is a 4-byte link (unused), a 2-byte hash,
// and a null-terminated prefixed string.
func readName(ctx *parseContext) (string, error) {
	chunkOffset, err := ctx.readU32()
	if err != nil {
		return "", err
	}

	rctx := ctx
	var tmp parseContext
	if int(chunkOffset) != ctx.off+ctx.offsetFromChunkStart {
		tmp = *ctx.chunkCtx
		tmp.off = int(chunkOffset)
		rctx = &tmp
	}

	if _, err := rctx.readU32(); err != nil { // next-name link
		return "", err
	}
	if _, err := rctx.readU16(); err != nil { // name hash
		return "", err
	}
	return readPrefixedString(rctx, true)
}
