package evtx

import (
	"bytes"
	"errors"
	"testing"
)

func TestParseContextReads(t *testing.T) {
	t.Parallel()

	ctx := &parseContext{data: []byte{
		0x11,
		0x22, 0x33,
		0x44, 0x55, 0x66, 0x77,
		0x88, 0x99, 0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF,
	}}

	if v, err := ctx.readU8(); err != nil || v != 0x11 {
		t.Fatalf("readU8 = (%#x, %v)", v, err)
	}
	if v, err := ctx.readU16(); err != nil || v != 0x3322 {
		t.Fatalf("readU16 = (%#x, %v)", v, err)
	}
	if v, err := ctx.readU32(); err != nil || v != 0x77665544 {
		t.Fatalf("readU32 = (%#x, %v)", v, err)
	}
	if v, err := ctx.readU64(); err != nil || v != 0xFFEEDDCCBBAA9988 {
		t.Fatalf("readU64 = (%#x, %v)", v, err)
	}
	if _, err := ctx.readU8(); !errors.Is(err, ErrShortRead) {
		t.Fatalf("read past end = %v, want ErrShortRead", err)
	}
}

func TestParseContextShortReads(t *testing.T) {
	t.Parallel()

	// A field straddling the window end must fail without advancing.
	ctx := &parseContext{data: []byte{0x01, 0x02, 0x03}}
	ctx.off = 2
	if _, err := ctx.readU16(); !errors.Is(err, ErrShortRead) {
		t.Fatalf("straddling readU16 = %v, want ErrShortRead", err)
	}
	if ctx.off != 2 {
		t.Fatalf("failed read advanced cursor to %d", ctx.off)
	}
	if _, err := ctx.readBytes(5); !errors.Is(err, ErrShortRead) {
		t.Fatal("readBytes past end did not fail")
	}
}

func TestParseContextSkipThenRead(t *testing.T) {
	t.Parallel()

	ctx := &parseContext{data: make([]byte, 8)}
	ctx.skip(100) // over-skip is tolerated
	if _, err := ctx.readU8(); !errors.Is(err, ErrShortRead) {
		t.Fatal("read after over-skip did not fail")
	}
}

func TestInheritWindow(t *testing.T) {
	t.Parallel()

	chunk := &parseContext{data: bytes.Repeat([]byte{0xAB}, 64)}
	chunk.chunkCtx = chunk

	parent := chunk.inheritWindow(32)
	parent.off = 10

	tests := []struct {
		name      string
		wantedLen int
		wantLen   int
	}{
		{"Exact", 8, 8},
		{"Clamped", 64, 22},  // only 22 bytes remain after off 10
		{"Negative", -1, 22}, // invalid length clamps to remaining
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			child := parent.inheritWindow(tc.wantedLen)
			if len(child.data) != tc.wantLen {
				t.Errorf("window len = %d, want %d", len(child.data), tc.wantLen)
			}
			if child.chunkCtx != chunk {
				t.Error("child does not point back at the chunk context")
			}
			if child.offsetFromChunkStart != parent.off+parent.offsetFromChunkStart {
				t.Errorf("offsetFromChunkStart = %d, want %d",
					child.offsetFromChunkStart, parent.off+parent.offsetFromChunkStart)
			}
			if child.off != 0 {
				t.Errorf("child cursor = %d, want 0", child.off)
			}
		})
	}

	// A cursor already out of bounds yields an empty window.
	parent.off = 100
	if child := parent.inheritWindow(4); len(child.data) != 0 {
		t.Errorf("out-of-bounds inherit has %d bytes", len(child.data))
	}
}

func TestShorten(t *testing.T) {
	t.Parallel()

	ctx := &parseContext{data: make([]byte, 16)}
	ctx.shorten(8)
	if len(ctx.data) != 8 {
		t.Fatalf("shorten(8): len = %d", len(ctx.data))
	}
	ctx.shorten(12) // never extends
	if len(ctx.data) != 8 {
		t.Fatalf("shorten must not extend, len = %d", len(ctx.data))
	}
	ctx.shorten(-1) // invalid lengths are ignored
	if len(ctx.data) != 8 {
		t.Fatalf("negative shorten changed len to %d", len(ctx.data))
	}
}
