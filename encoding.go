package scru64

import "math/bits"

// digits is the canonical (lower-case) base-36 alphabet
const digits = "0123456789abcdefghijklmnopqrstuvwxyz"

// invalidDigit marks bytes outside the alphabet in decodeMap
const invalidDigit = 0xff

// decodeMap maps every byte to its base-36 digit value, accepting both cases
var decodeMap = func() [256]byte {
	var m [256]byte
	for i := range m {
		m[i] = invalidDigit
	}
	for i := 0; i < len(digits); i++ {
		m[digits[i]] = byte(i)
		if c := digits[i]; c >= 'a' && c <= 'z' {
			m[c-'a'+'A'] = byte(i)
		}
	}
	return m
}()

type text interface {
	~string | ~[]byte
}

// decodeBase36 interprets src as a big-endian base-36 unsigned integer of any
// width. The whole input is checked against the alphabet before any
// arithmetic so that a bad digit is always reported as Malformed.
func decodeBase36[T text](src T) (uint64, DecodeKind, int) {
	for i := 0; i < len(src); i++ {
		if decodeMap[src[i]] == invalidDigit {
			return 0, Malformed, i
		}
	}

	var v uint64
	for i := 0; i < len(src); i++ {
		hi, lo := bits.Mul64(v, 36)
		lo, carry := bits.Add64(lo, uint64(decodeMap[src[i]]), 0)
		if hi != 0 || carry != 0 {
			return 0, Overflow, -1
		}
		v = lo
	}
	return v, 0, -1
}

// encodeBase36 writes v into dst as a zero-padded big-endian base-36 number.
// dst must be wide enough to hold v.
func encodeBase36(dst []byte, v uint64) {
	for i := len(dst) - 1; i >= 0; i-- {
		dst[i] = digits[v%36]
		v /= 36
	}
}
