package evtx

import (
	"strconv"

	"github.com/tekert/goevtx/internal/hexf"
	"github.com/tekert/goevtx/internal/utf16f"
)

// Argument wire types of the template instance value table.
const (
	typeVoid        = 0x00
	typeString      = 0x01
	typeUInt8       = 0x04
	typeUInt16      = 0x06
	typeUInt32      = 0x08
	typeUInt64      = 0x0A
	typeBinary      = 0x0E
	typeGUID        = 0x0F
	typeFiletime    = 0x11
	typeSID         = 0x13
	typeHexInt32    = 0x14
	typeHexInt64    = 0x15
	typeBinXml      = 0x21
	typeStringArray = 0x81
)

func (p *Parser) emitBytes(b []byte) {
	p.out.Write(b)
}

func (p *Parser) emitString(s string) {
	p.out.WriteString(s)
}

// appendUintPad appends v in decimal, zero-padded to at least width digits.
func appendUintPad(dst []byte, v uint64, width int) []byte {
	var tmp [20]byte
	s := strconv.AppendUint(tmp[:0], v, 10)
	for i := len(s); i < width; i++ {
		dst = append(dst, '0')
	}
	return append(dst, s...)
}

// appendKey appends the 'key': prefix of one output pair.
func appendKey(dst []byte, key string) []byte {
	dst = append(dst, '\'')
	dst = append(dst, key...)
	return append(dst, '\'', ':')
}

// parseLeadingUint16 parses the leading decimal digits of s, ignoring
// leading spaces. Values wrap modulo 2^16. Returns 0 when s has no digits.
func parseLeadingUint16(s string) uint16 {
	i := 0
	for i < len(s) && s[i] == ' ' {
		i++
	}
	var v uint64
	start := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		v = v*10 + uint64(s[i]-'0')
		i++
	}
	if i == start {
		return 0
	}
	return uint16(v)
}

// emitFixedPairs writes a template's literal pairs in insertion order.
// An EventID whose value resolves in the description table is rendered
// unquoted with its annotation.
func (p *Parser) emitFixedPairs(tmpl *templateDescription) {
	buf := p.scratch[:0]
	for _, f := range tmpl.fixed {
		if f.key == "EventID" {
			if eventID := parseLeadingUint16(f.value); eventID != 0 {
				if desc, ok := p.descs[eventID]; ok {
					buf = appendKey(buf, f.key)
					buf = strconv.AppendUint(buf, uint64(eventID), 10)
					buf = append(buf, " ("...)
					buf = append(buf, desc...)
					buf = append(buf, "), "...)
					continue
				}
			}
		}
		buf = appendKey(buf, f.key)
		buf = append(buf, '\'')
		buf = append(buf, f.value...)
		buf = append(buf, "', "...)
	}
	p.emitBytes(buf)
	p.scratch = buf[:0]
}

// renderArgument decodes one argument blob per its instance type and
// writes the printable pair. The blob occupies exactly argLen bytes; types
// the renderer does not interpret are skipped with a placeholder that
// names the declared type.
func (p *Parser) renderArgument(ctx *parseContext, pair argPair, argType uint16, argLen int) error {
	buf := p.scratch[:0]
	defer func() { p.scratch = buf[:0] }()

	switch argType {
	case typeString:
		limit := argLen*2 + 2
		str := make([]byte, 0, min(limit, nameBufferSize))
		for i := 0; i < argLen/2; i++ {
			u, err := ctx.readU16()
			if err != nil {
				return err
			}
			str = utf16f.AppendUnit(str, u, limit)
		}
		buf = appendKey(buf, pair.key)
		buf = append(buf, '\'')
		buf = append(buf, str...)
		buf = append(buf, "', "...)

	case typeUInt8:
		v, err := ctx.readU8()
		if err != nil {
			return err
		}
		buf = appendKey(buf, pair.key)
		buf = appendUintPad(buf, uint64(v), 2)
		buf = append(buf, ", "...)

	case typeUInt16:
		v, err := ctx.readU16()
		if err != nil {
			return err
		}
		buf = appendKey(buf, pair.key)
		buf = appendUintPad(buf, uint64(v), 4)
		if pair.key == "EventID" {
			if desc, ok := p.descs[v]; ok {
				buf = append(buf, " ("...)
				buf = append(buf, desc...)
				buf = append(buf, ')')
			}
		}
		buf = append(buf, ", "...)

	case typeUInt32:
		v, err := ctx.readU32()
		if err != nil {
			return err
		}
		buf = appendKey(buf, pair.key)
		buf = appendUintPad(buf, uint64(v), 8)
		switch {
		case pair.key == "LogonType" && v <= 11 && logonTypeNames[v] != "":
			buf = append(buf, " ("...)
			buf = append(buf, logonTypeNames[v]...)
			buf = append(buf, ')')
		case pair.key == "Address1" || pair.key == "Address2":
			// Dotted quad in little-endian positional order.
			buf = append(buf, " ("...)
			buf = strconv.AppendUint(buf, uint64(byte(v)), 10)
			buf = append(buf, '.')
			buf = strconv.AppendUint(buf, uint64(byte(v>>8)), 10)
			buf = append(buf, '.')
			buf = strconv.AppendUint(buf, uint64(byte(v>>16)), 10)
			buf = append(buf, '.')
			buf = strconv.AppendUint(buf, uint64(byte(v>>24)), 10)
			buf = append(buf, ')')
		}
		buf = append(buf, ", "...)

	case typeUInt64:
		v, err := ctx.readU64()
		if err != nil {
			return err
		}
		buf = appendKey(buf, pair.key)
		buf = appendUintPad(buf, v, 16)
		buf = append(buf, ", "...)

	case typeHexInt32:
		v, err := ctx.readU32()
		if err != nil {
			return err
		}
		buf = appendKey(buf, pair.key)
		buf = append(hexf.AppendUint32PaddedU(buf, v), ", "...)

	case typeHexInt64:
		v, err := ctx.readU64()
		if err != nil {
			return err
		}
		buf = appendKey(buf, pair.key)
		buf = append(hexf.AppendUint64PaddedU(buf, v), ", "...)

	case typeBinary:
		b, err := ctx.readBytes(argLen)
		if err != nil {
			return err
		}
		buf = appendKey(buf, pair.key)
		buf = hexf.AppendEncodeU(buf, b)
		buf = append(buf, ", "...)

	case typeGUID:
		d1, err := ctx.readU32()
		if err != nil {
			return err
		}
		w1, err := ctx.readU16()
		if err != nil {
			return err
		}
		w2, err := ctx.readU16()
		if err != nil {
			return err
		}
		tail, err := ctx.readBytes(8)
		if err != nil {
			return err
		}
		buf = appendKey(buf, pair.key)
		buf = hexf.AppendUint32PaddedU(buf, d1)
		buf = append(buf, '-')
		buf = hexf.AppendUintMin2U(buf, uint64(w1))
		buf = append(buf, '-')
		buf = hexf.AppendUintMin2U(buf, uint64(w2))
		buf = append(buf, '-')
		buf = hexf.AppendEncodeU(buf, tail)
		buf = append(buf, ", "...)

	case typeFiletime:
		v, err := ctx.readU64()
		if err != nil {
			return err
		}
		buf = appendKey(buf, pair.key)
		if t, ok := fromFiletimeUTC(v); ok {
			buf = appendUintPad(buf, uint64(t.Year()), 4)
			buf = append(buf, '.')
			buf = appendUintPad(buf, uint64(t.Month()), 2)
			buf = append(buf, '.')
			buf = appendUintPad(buf, uint64(t.Day()), 2)
			buf = append(buf, '-')
			buf = appendUintPad(buf, uint64(t.Hour()), 2)
			buf = append(buf, ':')
			buf = appendUintPad(buf, uint64(t.Minute()), 2)
			buf = append(buf, ':')
			buf = appendUintPad(buf, uint64(t.Second()), 2)
		} else {
			buf = hexf.AppendUint64PaddedU(buf, v)
		}
		buf = append(buf, ", "...)

	case typeSID:
		if argLen < 8 {
			return ErrBadSid
		}
		hdr, err := ctx.readBytes(8)
		if err != nil {
			return err
		}
		var authority uint64
		for _, b := range hdr[2:8] {
			authority = authority<<8 | uint64(b)
		}
		buf = appendKey(buf, pair.key)
		buf = append(buf, "S-"...)
		buf = strconv.AppendUint(buf, uint64(hdr[0]), 10)
		buf = append(buf, '-')
		buf = strconv.AppendUint(buf, authority, 10)
		for idx := 8; idx+4 <= argLen; idx += 4 {
			sub, err := ctx.readU32()
			if err != nil {
				return err
			}
			buf = append(buf, '-')
			buf = strconv.AppendUint(buf, uint64(sub), 10)
		}
		buf = append(buf, ", "...)

	case typeBinXml:
		// Embedded BinXml renders recursively; its failures are swallowed
		// so a malformed substructure cannot lose the surrounding record.
		child := *ctx
		child.shorten(child.off + argLen)
		if err := p.parseBinXML(&child); err != nil {
			declog.SampledWarnWithErrSig("nestedbinxml", err).
				Str("key", pair.key).
				Msg("embedded binxml decode failed")
		}
		ctx.skip(argLen)
		return nil

	case typeStringArray:
		child := *ctx
		child.shorten(child.off + argLen)

		buf = appendKey(buf, pair.key)
		buf = append(buf, '[')
		inString := false
		for {
			u, err := child.readU16()
			if err != nil {
				break
			}
			if u == '\r' || u == '\n' {
				u = ' '
			}
			if u == 0x0000 {
				if inString {
					buf = append(buf, "',"...)
					inString = false
				}
				continue
			}
			if !inString {
				buf = append(buf, '\'')
				inString = true
			}
			buf = utf16f.AppendUnit(buf, u, len(buf)+4)
		}
		if inString {
			buf = append(buf, '\'')
		}
		buf = append(buf, "], "...)
		ctx.skip(argLen)

	default:
		if argType != typeVoid {
			buf = appendKey(buf, pair.key)
			buf = append(buf, "'...//"...)
			buf = hexf.AppendUint16PaddedU(buf, pair.typ)
			buf = append(buf, '[')
			buf = hexf.AppendUint16PaddedU(buf, uint16(argLen))
			buf = append(buf, "]', "...)
		}
		ctx.skip(argLen)
	}

	p.emitBytes(buf)
	return nil
}
