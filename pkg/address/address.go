// Package address converts tool-reported addresses into image-relative
// offsets and renders offsets the way x64dbg stores them.
package address

import (
	"math/bits"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	Hex     = 16
	Decimal = 10
)

var ErrMalformedAddress = errors.New("malformed address")

// Parse reads a raw address token in the given radix. Hexadecimal tokens may
// carry a 0x prefix and any number of leading zeros.
func Parse(token string, radix int) (uint64, error) {
	s := strings.TrimSpace(token)
	if radix == Hex {
		s = trimHexPrefix(s)
	}
	if s == "" {
		return 0, errors.Wrapf(ErrMalformedAddress, "empty token %q", token)
	}
	v, err := strconv.ParseUint(s, radix, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrMalformedAddress, "token %q (base %d)", token, radix)
	}
	return v, nil
}

// ParseImagebase reads an imagebase, which is always hexadecimal.
func ParseImagebase(s string) (uint64, error) {
	return Parse(s, Hex)
}

// Offset is an image-relative address. The magnitude spans the full 64-bit
// range so addresses far above the imagebase never wrap.
type Offset struct {
	Neg bool
	Mag uint64
}

// Pos returns the offset v bytes above the imagebase.
func Pos(v uint64) Offset { return Offset{Mag: v} }

// Neg returns the offset v bytes below the imagebase. Zero is never negative.
func Neg(v uint64) Offset { return Offset{Neg: v != 0, Mag: v} }

// Less orders offsets numerically.
func (o Offset) Less(p Offset) bool {
	switch {
	case o.Neg != p.Neg:
		return o.Neg
	case o.Neg:
		return o.Mag > p.Mag
	default:
		return o.Mag < p.Mag
	}
}

func (o Offset) String() string { return Format(o) }

// ParseOffset reads a signed image-relative offset as written by Format.
func ParseOffset(s string) (Offset, error) {
	return Normalize(s, Hex, 0)
}

// Rebase subtracts the imagebase. Addresses below the imagebase produce
// negative offsets; they are not treated as errors.
func Rebase(raw, imagebase uint64) Offset {
	if raw < imagebase {
		return Neg(imagebase - raw)
	}
	return Pos(raw - imagebase)
}

// Normalize parses token and rebases it against imagebase. A leading minus
// sign is accepted for offsets that were already negative.
func Normalize(token string, radix int, imagebase uint64) (Offset, error) {
	if rest, ok := strings.CutPrefix(strings.TrimSpace(token), "-"); ok {
		v, err := Parse(rest, radix)
		if err != nil {
			return Offset{}, err
		}
		mag, carry := bits.Add64(v, imagebase, 0)
		if carry != 0 {
			return Offset{}, errors.Wrapf(ErrMalformedAddress, "token %q below imagebase 0x%X overflows 64 bits", token, imagebase)
		}
		return Neg(mag), nil
	}
	raw, err := Parse(token, radix)
	if err != nil {
		return Offset{}, err
	}
	return Rebase(raw, imagebase), nil
}

// Format renders an offset as 0x followed by uppercase hex digits.
func Format(o Offset) string {
	hex := strings.ToUpper(strconv.FormatUint(o.Mag, 16))
	if o.Neg && o.Mag != 0 {
		return "-0x" + hex
	}
	return "0x" + hex
}

func trimHexPrefix(s string) string {
	if len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}
