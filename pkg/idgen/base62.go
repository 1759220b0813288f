package idgen

import (
	"errors"
	"fmt"
	"math"
)

const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

const base = uint64(len(alphabet))

// maxEncodedLen is the length of Encode(math.MaxUint64).
const maxEncodedLen = 11

// ErrDecode is returned by Decode for input Encode could not have produced.
var ErrDecode = errors.New("idgen: malformed base62 input")

var charIndex = func() [256]int8 {
	var idx [256]int8
	for i := range idx {
		idx[i] = -1
	}
	for i := 0; i < len(alphabet); i++ {
		idx[alphabet[i]] = int8(i)
	}
	return idx
}()

// Encode returns the base62 representation of n, most significant digit first.
func Encode(n uint64) string {
	if n == 0 {
		return alphabet[:1]
	}
	var buf [maxEncodedLen]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = alphabet[n%base]
		n /= base
	}
	return string(buf[i:])
}

// Decode is the inverse of Encode.
func Decode(s string) (uint64, error) {
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrDecode)
	}
	var n uint64
	for i := 0; i < len(s); i++ {
		d := charIndex[s[i]]
		if d < 0 {
			return 0, fmt.Errorf("%w: invalid character %q at %d", ErrDecode, s[i], i)
		}
		if n > (math.MaxUint64-uint64(d))/base {
			return 0, fmt.Errorf("%w: %q overflows uint64", ErrDecode, s)
		}
		n = n*base + uint64(d)
	}
	return n, nil
}
