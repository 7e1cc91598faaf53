package evtx

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const logonLine = "Record #1 2020-01-01T00:00:00Z " +
	"'EventID':4624 (An account was successfully logged on), " +
	"'LogonType':00000002 (Interactive), \n"

// walkBytes runs the walker over an in-memory file image.
func walkBytes(t *testing.T, file []byte) (string, *Parser, error) {
	t.Helper()

	var out bytes.Buffer
	p := NewParser(&out)
	err := p.walk(bytes.NewReader(file))
	p.out.Flush()
	return out.String(), p, err
}

func TestWalkRejectsBadVersion(t *testing.T) {
	t.Parallel()

	w := newChunkWriter(1, 1)
	w.logonRecord(1, 0xCAFE, 4624, 2)
	file := evtxFile(0x00010001, w)

	got, _, err := walkBytes(t, file)
	if !errors.Is(err, ErrBadVersion) {
		t.Fatalf("err = %v, want ErrBadVersion", err)
	}
	if got != "" {
		t.Errorf("records decoded despite bad version: %q", got)
	}
}

func TestWalkRejectsBadFileMagic(t *testing.T) {
	t.Parallel()

	w := newChunkWriter(1, 1)
	w.logonRecord(1, 0xCAFE, 4624, 2)
	file := evtxFile(supportedVersion, w)
	copy(file, "NotElf\x00\x00")

	_, _, err := walkBytes(t, file)
	if !errors.Is(err, ErrBadMagic) {
		t.Fatalf("err = %v, want ErrBadMagic", err)
	}
}

func TestWalkEmptyChunkEndsSilently(t *testing.T) {
	t.Parallel()

	// A valid header followed by a zeroed 64 KiB region: the chunk magic
	// mismatch ends iteration without output or error.
	file := make([]byte, fileHeaderSize+chunkSize)
	copy(file, fileMagic)
	file[36] = 0x01
	file[38] = 0x03 // version 0x00030001

	got, p, err := walkBytes(t, file)
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if got != "" {
		t.Errorf("output = %q, want none", got)
	}
	if s := p.Stats(); s.Chunks != 0 || s.Records != 0 {
		t.Errorf("stats = %+v", s)
	}
}

func TestWalkSingleRecord(t *testing.T) {
	t.Parallel()

	w := newChunkWriter(1, 1)
	w.logonRecord(1, 0xCAFE, 4624, 2)
	file := evtxFile(supportedVersion, w)

	got, p, err := walkBytes(t, file)
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	if got != logonLine {
		t.Errorf("got  %q\nwant %q", got, logonLine)
	}

	s := p.Stats()
	if s.Chunks != 1 || s.Records != 1 {
		t.Errorf("stats = %+v", s)
	}
	// Decode state is clean once the walk terminates.
	if p.templates.len() != 0 {
		t.Error("template cache not empty after walk")
	}
	if _, ok := p.names.top(); ok {
		t.Error("name stack not empty after walk")
	}
}

func TestWalkTemplateReuseWithinChunk(t *testing.T) {
	t.Parallel()

	w := newChunkWriter(1, 2)
	w.logonRecord(1, 0xCAFE, 4624, 2)
	w.logonRecordKnown(2, 0xCAFE, 4634, 3)
	file := evtxFile(supportedVersion, w)

	got, p, err := walkBytes(t, file)
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	want := logonLine +
		"Record #2 2020-01-01T00:00:00Z " +
		"'EventID':4634 (An account was logged off), " +
		"'LogonType':00000003 (Network), \n"
	if got != want {
		t.Errorf("got  %q\nwant %q", got, want)
	}
	if s := p.Stats(); s.Records != 2 {
		t.Errorf("stats = %+v", s)
	}
}

func TestWalkTemplateCacheResetsPerChunk(t *testing.T) {
	t.Parallel()

	// Each chunk carries its own inline definition under the same short
	// ID; a stale cache across chunks would misparse the second one.
	w1 := newChunkWriter(1, 1)
	w1.logonRecord(1, 0xCAFE, 4624, 2)
	w2 := newChunkWriter(2, 2)
	w2.logonRecord(2, 0xCAFE, 4625, 3)
	file := evtxFile(supportedVersion, w1, w2)

	got, p, err := walkBytes(t, file)
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	want := logonLine +
		"Record #2 2020-01-01T00:00:00Z " +
		"'EventID':4625 (An account failed to log on), " +
		"'LogonType':00000003 (Network), \n"
	if got != want {
		t.Errorf("got  %q\nwant %q", got, want)
	}
	if s := p.Stats(); s.Chunks != 2 || s.Records != 2 {
		t.Errorf("stats = %+v", s)
	}
}

func TestWalkFailingRecordInRange(t *testing.T) {
	t.Parallel()

	// A record whose number lies inside the chunk's declared range must
	// escalate its decode failure to the whole walk.
	w := newChunkWriter(1, 1)
	end := w.beginRecord(1, testFiletime)
	w.u8(0xFF) // invalid token
	end()
	file := evtxFile(supportedVersion, w)

	got, _, err := walkBytes(t, file)
	if !errors.Is(err, ErrBadTag) {
		t.Fatalf("err = %v, want ErrBadTag", err)
	}
	// The partial line stays on the output, without a newline.
	if got != "Record #1 2020-01-01T00:00:00Z " {
		t.Errorf("got %q", got)
	}
}

func TestWalkFailingRecordOutOfRange(t *testing.T) {
	t.Parallel()

	// The same failure outside the declared range ends the chunk silently.
	w := newChunkWriter(5, 9)
	end := w.beginRecord(1, testFiletime)
	w.u8(0xFF)
	end()
	file := evtxFile(supportedVersion, w)

	got, _, err := walkBytes(t, file)
	if err != nil {
		t.Fatalf("err = %v, want nil", err)
	}
	if got != "Record #1 2020-01-01T00:00:00Z " {
		t.Errorf("got %q", got)
	}
}

func TestWalkStopsAtBadRecordMagic(t *testing.T) {
	t.Parallel()

	// Free space after the last record ends the chunk, not the walk.
	w := newChunkWriter(1, 1)
	w.logonRecord(1, 0xCAFE, 4624, 2)
	file := evtxFile(supportedVersion, w)

	got, _, err := walkBytes(t, file)
	if err != nil || got != logonLine {
		t.Fatalf("got (%q, %v)", got, err)
	}
}

func TestWalkUndersizedRecordFails(t *testing.T) {
	t.Parallel()

	w := newChunkWriter(1, 1)
	end := w.beginRecord(1, testFiletime)
	w.u8(tokenEOF)
	end()
	// Corrupt the declared size to something smaller than the header.
	w.patchU32(chunkHeaderSize+4, 8)
	file := evtxFile(supportedVersion, w)

	_, _, err := walkBytes(t, file)
	if err == nil {
		t.Fatal("undersized record did not fail the walk")
	}
}

func TestWalkRoundTripIsDeterministic(t *testing.T) {
	t.Parallel()

	w := newChunkWriter(1, 2)
	w.logonRecord(1, 0xCAFE, 4624, 2)
	w.logonRecordKnown(2, 0xCAFE, 4648, 2)
	file := evtxFile(supportedVersion, w)

	first, _, err1 := walkBytes(t, file)
	second, _, err2 := walkBytes(t, file)
	if err1 != nil || err2 != nil {
		t.Fatalf("errs = %v, %v", err1, err2)
	}
	if first != second {
		t.Error("two independent runs differ")
	}
}

func TestParseFile(t *testing.T) {
	t.Parallel()

	w := newChunkWriter(1, 1)
	w.logonRecord(1, 0xCAFE, 4624, 2)
	path := filepath.Join(t.TempDir(), "security.evtx")
	if err := os.WriteFile(path, evtxFile(supportedVersion, w), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	p := NewParser(&out)
	if err := p.ParseFile(path); err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if out.String() != logonLine {
		t.Errorf("got %q", out.String())
	}
	if s := p.Stats(); s.File != path || s.Failed {
		t.Errorf("stats = %+v", s)
	}
}

func TestParseFileReportsFailure(t *testing.T) {
	t.Parallel()

	w := newChunkWriter(1, 1)
	w.logonRecord(1, 0xCAFE, 4624, 2)
	file := evtxFile(0x00010001, w)
	path := filepath.Join(t.TempDir(), "old.evtx")
	if err := os.WriteFile(path, file, 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	p := NewParser(&out)
	err := p.ParseFile(path)
	if !errors.Is(err, ErrBadVersion) {
		t.Fatalf("err = %v, want ErrBadVersion", err)
	}
	if out.String() != "Failed on "+path+"\n" {
		t.Errorf("output = %q", out.String())
	}
	if !p.Stats().Failed {
		t.Error("stats not marked failed")
	}
}

func TestParseFileMissing(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "absent.evtx")

	var out bytes.Buffer
	p := NewParser(&out)
	err := p.ParseFile(path)
	if !errors.Is(err, ErrOpenFailed) {
		t.Fatalf("err = %v, want ErrOpenFailed", err)
	}
	if out.String() != "Failed on "+path+"\n" {
		t.Errorf("output = %q", out.String())
	}
}
