package address

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name      string
		token     string
		radix     int
		imagebase uint64
		want      Offset
	}{
		{name: "zero padded hex", token: "00401000", radix: Hex, imagebase: 0x400000, want: Pos(0x1000)},
		{name: "unpadded hex", token: "401000", radix: Hex, imagebase: 0x400000, want: Pos(0x1000)},
		{name: "prefixed hex", token: "0x401000", radix: Hex, imagebase: 0x400000, want: Pos(0x1000)},
		{name: "upper prefix", token: "0X401A2F", radix: Hex, imagebase: 0x400000, want: Pos(0x1A2F)},
		{name: "64-bit listing offset", token: "0000000140001000", radix: Hex, imagebase: 0x140000000, want: Pos(0x1000)},
		{name: "decimal key", token: "4198400", radix: Decimal, imagebase: 0x400000, want: Pos(0x1000)},
		{name: "below imagebase", token: "00300000", radix: Hex, imagebase: 0x400000, want: Neg(0x100000)},
		{name: "no imagebase", token: "0x2000", radix: Hex, imagebase: 0, want: Pos(0x2000)},
		{name: "kernel address", token: "FFFFF80000001000", radix: Hex, imagebase: 0x400000, want: Pos(0xFFFFF7FFFFC01000)},
		{name: "top of address space", token: "FFFFFFFFFFFFFFFF", radix: Hex, imagebase: 0, want: Pos(0xFFFFFFFFFFFFFFFF)},
		{name: "high half offset", token: "0xFFFF800000000000", radix: Hex, imagebase: 0, want: Pos(0xFFFF800000000000)},
		{name: "negative token", token: "-0x10", radix: Hex, imagebase: 0, want: Neg(0x10)},
		{name: "negative zero", token: "-0x0", radix: Hex, imagebase: 0, want: Pos(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.token, tt.radix, tt.imagebase)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_PaddingDoesNotMatter(t *testing.T) {
	for _, imagebase := range []uint64{0, 0x400000, 0x10000000, 0x140000000} {
		for _, raw := range []uint64{0x401000, 0x10001234, 0x140005000} {
			unpadded, err := Normalize(Format(Pos(raw)), Hex, imagebase)
			require.NoError(t, err)
			padded, err := Normalize("0000000"+Format(Pos(raw))[2:], Hex, imagebase)
			require.NoError(t, err)
			assert.Equal(t, unpadded, padded)
			assert.Equal(t, Rebase(raw, imagebase), padded)
		}
	}
}

func TestParse_Malformed(t *testing.T) {
	for _, tc := range []struct {
		token string
		radix int
	}{
		{"", Hex},
		{"0x", Hex},
		{"External[00401000]", Hex},
		{"ram:00401000", Hex},
		{"4011ff", Decimal},
		{"-12", Decimal},
	} {
		_, err := Parse(tc.token, tc.radix)
		require.Error(t, err, tc.token)
		assert.True(t, errors.Is(err, ErrMalformedAddress), tc.token)
		assert.Contains(t, err.Error(), tc.token)
	}
}

func TestNormalize_NegativeOverflow(t *testing.T) {
	_, err := Normalize("-0xFFFFFFFFFFFFFFFF", Hex, 0x400000)
	assert.True(t, errors.Is(err, ErrMalformedAddress))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "0x0", Format(Pos(0)))
	assert.Equal(t, "0x0", Format(Neg(0)))
	assert.Equal(t, "0x1000", Format(Pos(0x1000)))
	assert.Equal(t, "0xABCDEF", Format(Pos(0xabcdef)))
	assert.Equal(t, "-0x10", Format(Neg(16)))
	assert.Equal(t, "0xFFFFF7FFFFC01000", Format(Pos(0xFFFFF7FFFFC01000)))
	assert.Equal(t, "0xFFFFFFFFFFFFFFFF", Format(Pos(0xFFFFFFFFFFFFFFFF)))
	assert.Equal(t, "-0xFFFFFFFFFFFFFFFF", Format(Neg(0xFFFFFFFFFFFFFFFF)))
}

func TestOffset_Less(t *testing.T) {
	ordered := []Offset{
		Neg(0xFFFFFFFFFFFFFFFF), Neg(0x100000), Neg(1),
		Pos(0), Pos(0x1000), Pos(0x7FFFFFFFFFFFFFFF), Pos(0x8000000000000000), Pos(0xFFFFFFFFFFFFFFFF),
	}
	for i := range ordered {
		for j := range ordered {
			assert.Equal(t, i < j, ordered[i].Less(ordered[j]), "%s < %s", ordered[i], ordered[j])
		}
	}
}

func TestParseOffset_RoundTrip(t *testing.T) {
	for _, v := range []Offset{
		Pos(0), Pos(1), Pos(0x1000), Pos(0x7FFFFFFF), Pos(0x140001000),
		Pos(0xFFFF800000000000), Pos(0xFFFFFFFFFFFFFFFF), Neg(16), Neg(0xFFFFFFFFFFFFFFFF),
	} {
		got, err := ParseOffset(Format(v))
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
	_, err := ParseOffset("0xZZ")
	assert.True(t, errors.Is(err, ErrMalformedAddress))
}
