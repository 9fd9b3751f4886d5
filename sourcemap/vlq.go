// Copyright © 2024 The LISPC authors

// Package sourcemap encodes and decodes the mappings of version 3 source
// maps.
package sourcemap

import (
	"fmt"
	"math"
	"strings"
)

const (
	vlqBaseShift       = 5
	vlqBase            = 1 << vlqBaseShift
	vlqBaseMask        = vlqBase - 1
	vlqContinuationBit = vlqBase
	vlqFirstMask       = vlqBaseMask >> 1
)

const base64Chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

var base64Values [128]int

func init() {
	for i := range base64Values {
		base64Values[i] = -1
	}
	for i, c := range base64Chars {
		base64Values[c] = i
	}
}

// Encode returns the Base64 VLQ encoding of values.  Each value is written
// in groups of five bits, least significant group first, with the sign in
// the lowest bit of the first group.
func Encode(values []int) string {
	var b strings.Builder
	for _, v := range values {
		encodeValue(&b, v)
	}
	return b.String()
}

func encodeValue(b *strings.Builder, v int) {
	// The first group holds the sign bit and four value bits.
	mag := uint64(v)
	var sign uint64
	if v < 0 {
		mag = -mag
		sign = 1
	}
	digit := (mag&vlqFirstMask)<<1 | sign
	mag >>= vlqBaseShift - 1
	for {
		if mag > 0 {
			digit |= vlqContinuationBit
		}
		b.WriteByte(base64Chars[digit])
		if mag == 0 {
			return
		}
		digit = mag & vlqBaseMask
		mag >>= vlqBaseShift
	}
}

// Decode returns the values encoded in s.
func Decode(s string) ([]int, error) {
	var values []int
	var mag, sign uint64
	shift := 0
	inValue := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 128 || base64Values[c] < 0 {
			return nil, fmt.Errorf("invalid base64 vlq character %q at offset %d", c, i)
		}
		digit := uint64(base64Values[c])
		switch {
		case !inValue:
			sign = digit & 1
			mag = (digit & vlqBaseMask) >> 1
			shift = vlqBaseShift - 1
			inValue = true
		case shift >= 64:
			return nil, fmt.Errorf("base64 vlq value at offset %d overflows", i)
		default:
			mag |= (digit & vlqBaseMask) << shift
			shift += vlqBaseShift
		}
		if digit&vlqContinuationBit != 0 {
			continue
		}
		v, err := vlqValue(mag, sign)
		if err != nil {
			return nil, fmt.Errorf("base64 vlq value ending at offset %d: %w", i, err)
		}
		values = append(values, v)
		inValue = false
	}
	if inValue {
		return nil, fmt.Errorf("unterminated base64 vlq value")
	}
	return values, nil
}

func vlqValue(mag, sign uint64) (int, error) {
	switch {
	case sign == 0 && mag > math.MaxInt64:
		return 0, fmt.Errorf("%d overflows int", mag)
	case sign == 1 && mag > 1<<63:
		return 0, fmt.Errorf("-%d overflows int", mag)
	case sign == 1:
		return int(-mag), nil
	}
	return int(mag), nil
}
