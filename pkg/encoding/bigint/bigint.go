// Package bigint converts between the VM's little-endian two's-complement
// integer encoding and Go's arbitrary-precision math/big representation.
package bigint

import (
	"math/big"

	"github.com/holiman/uint256"
)

// MaxBytesLen is the maximum length in bytes of a serialized VM integer.
const MaxBytesLen = 32

// FromBytes decodes data (little-endian, two's complement, empty ≡ zero)
// into a *big.Int. Spans of MaxBytesLen bytes or less take a fast path
// through uint256 for the unsigned load, since that type is exactly wide
// enough to hold them without an intermediate big.Word slice.
func FromBytes(data []byte) *big.Int {
	if len(data) == 0 {
		return big.NewInt(0)
	}
	isNeg := data[len(data)-1]&0x80 != 0
	mag := unsignedMagnitude(data)
	if isNeg {
		mod := new(big.Int).Lsh(big.NewInt(1), uint(8*len(data)))
		mag.Sub(mag, mod)
	}
	return mag
}

// unsignedMagnitude interprets data as an unsigned little-endian integer.
func unsignedMagnitude(data []byte) *big.Int {
	if len(data) <= MaxBytesLen {
		var u uint256.Int
		u.SetBytes(reversed(data))
		return u.ToBig()
	}
	return new(big.Int).SetBytes(reversed(data))
}

// ToBytes encodes n as little-endian two's complement of minimal length.
// Zero encodes as the empty slice.
func ToBytes(n *big.Int) []byte {
	switch n.Sign() {
	case 0:
		return []byte{}
	case 1:
		byteLen := n.BitLen()/8 + 1
		buf := make([]byte, byteLen)
		n.FillBytes(buf)
		reverse(buf)
		return buf
	default:
		// Minimal byte length such that -(2^(8*byteLen-1)) <= n, derived the
		// same way as for positive values but against -n-1.
		t := new(big.Int).Neg(n)
		t.Sub(t, big.NewInt(1))
		byteLen := t.BitLen()/8 + 1
		mod := new(big.Int).Lsh(big.NewInt(1), uint(8*byteLen))
		comp := new(big.Int).Add(mod, n)
		buf := make([]byte, byteLen)
		comp.FillBytes(buf)
		reverse(buf)
		return buf
	}
}

func reversed(b []byte) []byte {
	out := make([]byte, len(b))
	for i, j := 0, len(b)-1; j >= 0; i, j = i+1, j-1 {
		out[i] = b[j]
	}
	return out
}

func reverse(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}
