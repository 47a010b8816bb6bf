// Package scripthash computes the Hash160-style digest (SHA-256 then
// RIPEMD-160) used to compare scripts for identity and to stamp Pointer
// items with the hash of the script they point into.
package scripthash

import (
	"crypto/sha256"

	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // retained for Hash160 compatibility, as upstream does.
)

// Hash is a 20-byte Hash160 digest.
type Hash [20]byte

// Of returns the Hash160 digest of script.
func Of(script []byte) Hash {
	sha := sha256.Sum256(script)
	r := ripemd160.New()
	_, _ = r.Write(sha[:])
	var h Hash
	copy(h[:], r.Sum(nil))
	return h
}
