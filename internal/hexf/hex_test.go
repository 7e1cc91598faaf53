package hexf

import (
	"fmt"
	"testing"
)

func TestAppendEncode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input []byte
		upper string
		lower string
	}{
		{"Empty", []byte{}, "", ""},
		{"Nil", nil, "", ""},
		{"SingleZero", []byte{0}, "00", "00"},
		{"SingleDigit", []byte{5}, "05", "05"},
		{"NoZeros", []byte{0xde, 0xad, 0xbe, 0xef}, "DEADBEEF", "deadbeef"},
		{"LeadingZeros", []byte{0, 0, 0x0a, 0x7b}, "00000A7B", "00000a7b"},
		{"MixedZeros", []byte{0, 0xab, 0, 0xcd}, "00AB00CD", "00ab00cd"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := string(AppendEncodeU(nil, tc.input)); got != tc.upper {
				t.Errorf("AppendEncodeU = %q, want %q", got, tc.upper)
			}
			if got := string(AppendEncode(nil, tc.input)); got != tc.lower {
				t.Errorf("AppendEncode = %q, want %q", got, tc.lower)
			}
		})
	}
}

func TestAppendUintPaddedU(t *testing.T) {
	t.Parallel()

	for _, n := range []uint64{0, 1, 0x5, 0xAB, 0x0100A8C0, 0xDEADBEEF, 0xFFFFFFFFFFFFFFFF} {
		if got, want := string(AppendUint64PaddedU(nil, n)), fmt.Sprintf("%016X", n); got != want {
			t.Errorf("AppendUint64PaddedU(%#x) = %q, want %q", n, got, want)
		}
		if got, want := string(AppendUint32PaddedU(nil, uint32(n))), fmt.Sprintf("%08X", uint32(n)); got != want {
			t.Errorf("AppendUint32PaddedU(%#x) = %q, want %q", uint32(n), got, want)
		}
		if got, want := string(AppendUint16PaddedU(nil, uint16(n))), fmt.Sprintf("%04X", uint16(n)); got != want {
			t.Errorf("AppendUint16PaddedU(%#x) = %q, want %q", uint16(n), got, want)
		}
		if got, want := string(AppendUint8PaddedU(nil, uint8(n))), fmt.Sprintf("%02X", uint8(n)); got != want {
			t.Errorf("AppendUint8PaddedU(%#x) = %q, want %q", uint8(n), got, want)
		}
	}
}

func TestAppendUintMin2U(t *testing.T) {
	t.Parallel()

	tests := []struct {
		n    uint64
		want string
	}{
		{0, "00"},
		{0x5, "05"},
		{0xAB, "AB"},
		{0x105, "105"},
		{0x9ABC, "9ABC"},
		{0xDEF0, "DEF0"},
		{0x12345678, "12345678"},
	}
	for _, tc := range tests {
		t.Run(tc.want, func(t *testing.T) {
			if got := string(AppendUintMin2U(nil, tc.n)); got != tc.want {
				t.Errorf("AppendUintMin2U(%#x) = %q, want %q", tc.n, got, tc.want)
			}
			// Matches printf %02X for the full range we use it on.
			if want := fmt.Sprintf("%02X", tc.n); string(AppendUintMin2U(nil, tc.n)) != want {
				t.Errorf("AppendUintMin2U(%#x) != %%02X form %q", tc.n, want)
			}
		})
	}
}
