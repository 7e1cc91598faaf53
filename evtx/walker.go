package evtx

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

const (
	fileHeaderSize   = 0x1000
	chunkSize        = 0x10000
	chunkHeaderSize  = 0x200
	recordHeaderSize = 24

	recordMagic      = 0x00002a2a
	supportedVersion = 0x00030001
)

var (
	fileMagic  = []byte("ElfFile\x00")
	chunkMagic = []byte("ElfChnk\x00")
)

// Stats summarizes one file walk.
type Stats struct {
	File    string `json:"file"`
	Chunks  int    `json:"chunks"`
	Records int    `json:"records"`
	Failed  bool   `json:"failed"`
}

// Parser walks an EVTX container and writes one line of key/value text
// per event record. All mutable decode state (name stack, template cache,
// description table) lives on the Parser, so concurrent file parses each
// use their own instance.
type Parser struct {
	out       *bufio.Writer
	names     nameStack
	templates templateCache
	descs     map[uint16]string
	scratch   []byte
	stats     Stats
}

// NewParser returns a parser writing rendered events to w. The event
// description table is preloaded with the built-in Windows IDs.
func NewParser(w io.Writer) *Parser {
	return &Parser{
		out:       bufio.NewWriterSize(w, 64*1024),
		names:     newNameStack(),
		templates: newTemplateCache(),
		descs:     defaultEventDescriptions(),
		scratch:   make([]byte, 0, 512),
	}
}

// Stats returns the counters of the most recent ParseFile call.
func (p *Parser) Stats() Stats {
	return p.stats
}

// ParseFile decodes one EVTX file. Parse failures are reported on the
// output stream as "Failed on <path>" and returned; callers that process
// multiple files independently can ignore the error.
func (p *Parser) ParseFile(path string) error {
	p.stats = Stats{File: path}

	f, err := os.Open(path)
	if err != nil {
		log.Error().Str("file", path).Err(err).Msg("cannot open file")
		p.stats.Failed = true
		fmt.Fprintf(p.out, "Failed on %s\n", path)
		p.out.Flush()
		return fmt.Errorf("%w: %v", ErrOpenFailed, err)
	}
	defer f.Close()

	err = p.walk(f)
	if err != nil {
		p.stats.Failed = true
		wlklog.Warn().Str("file", path).Err(err).Msg("walk failed")
		fmt.Fprintf(p.out, "Failed on %s\n", path)
	}
	p.out.Flush()
	return err
}

// walk iterates chunks at 64 KiB strides after the 4096-byte file header,
// and records within each chunk starting at in-chunk offset 0x200. A
// failing record ends its chunk; the walk fails when the record's number
// lies in the chunk's declared range, when a record timestamp does not fit
// a four-digit year, or when the header itself is unusable.
func (p *Parser) walk(r io.ReadSeeker) error {
	var hdr [fileHeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return ErrShortRead
	}
	if !bytes.Equal(hdr[0:8], fileMagic) {
		return ErrBadMagic
	}
	if version := binary.LittleEndian.Uint32(hdr[36:40]); version != supportedVersion {
		return fmt.Errorf("%w: %#08x", ErrBadVersion, version)
	}
	wlklog.Debug().
		Uint64("chunksAllocated", binary.LittleEndian.Uint64(hdr[8:16])).
		Uint64("chunksUsed", binary.LittleEndian.Uint64(hdr[16:24])).
		Msg("file header")

	chunk := make([]byte, chunkSize)
	off := int64(fileHeaderSize)

	for {
		p.templates.reset()
		p.names.reset()

		if _, err := r.Seek(off, io.SeekStart); err != nil {
			return fmt.Errorf("evtx: seek to chunk at %d: %w", off, err)
		}
		if _, err := io.ReadFull(r, chunk); err != nil {
			return nil // trailing partial chunk ends the walk
		}
		if !bytes.Equal(chunk[0:8], chunkMagic) {
			return nil // free space after the last chunk
		}

		firstRecord := binary.LittleEndian.Uint64(chunk[8:16])
		lastRecord := binary.LittleEndian.Uint64(chunk[16:24])
		wlklog.Debug().
			Uint64("firstRecord", firstRecord).
			Uint64("lastRecord", lastRecord).
			Int64("offset", off).
			Msg("chunk")

		inRecordOff := chunkHeaderSize
		var failed error

		for {
			if inRecordOff+recordHeaderSize > chunkSize {
				break
			}
			if binary.LittleEndian.Uint32(chunk[inRecordOff:]) != recordMagic {
				break
			}
			size := binary.LittleEndian.Uint32(chunk[inRecordOff+4:])
			number := binary.LittleEndian.Uint64(chunk[inRecordOff+8:])
			timestamp := binary.LittleEndian.Uint64(chunk[inRecordOff+16:])

			t, ok := fromFiletimeUTC(timestamp)
			if !ok {
				return fmt.Errorf("evtx: record %d timestamp %#x out of range", number, timestamp)
			}
			p.emitRecordPrefix(number, t)

			root := parseContext{
				data: chunk,
				off:  inRecordOff + recordHeaderSize,
			}
			root.chunkCtx = &root

			if err := p.parseBinXML(&root); err != nil {
				if number >= firstRecord && number <= lastRecord {
					failed = fmt.Errorf("evtx: record %d: %w", number, err)
				}
				break
			}
			p.emitString("\n")
			p.stats.Records++

			if size < recordHeaderSize {
				// A size smaller than the header cannot advance the walk;
				// treat it like a failing record.
				if number >= firstRecord && number <= lastRecord {
					failed = fmt.Errorf("evtx: record %d: declared size %d", number, size)
				}
				break
			}
			inRecordOff += int(size)
		}

		off += chunkSize
		p.stats.Chunks++

		if failed != nil {
			return failed
		}
		if int64(inRecordOff) > off {
			return fmt.Errorf("evtx: record offsets overran chunk window at %d", off)
		}
	}
}

// emitRecordPrefix writes "Record #<n> <ISO-8601 Zulu> " before the
// decoded body. The trailing newline is written only after a successful
// decode; a failing record leaves the partial line.
func (p *Parser) emitRecordPrefix(number uint64, t time.Time) {
	buf := p.scratch[:0]
	buf = append(buf, "Record #"...)
	buf = strconv.AppendUint(buf, number, 10)
	buf = append(buf, ' ')
	buf = appendUintPad(buf, uint64(t.Year()), 4)
	buf = append(buf, '-')
	buf = appendUintPad(buf, uint64(t.Month()), 2)
	buf = append(buf, '-')
	buf = appendUintPad(buf, uint64(t.Day()), 2)
	buf = append(buf, 'T')
	buf = appendUintPad(buf, uint64(t.Hour()), 2)
	buf = append(buf, ':')
	buf = appendUintPad(buf, uint64(t.Minute()), 2)
	buf = append(buf, ':')
	buf = appendUintPad(buf, uint64(t.Second()), 2)
	buf = append(buf, 'Z', ' ')
	p.emitBytes(buf)
	p.scratch = buf[:0]
}
