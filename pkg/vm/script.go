package vm

import "github.com/vladimirpotek/neo-vm/pkg/vm/scripthash"

// Script is an opaque, immutable instruction stream. Two Scripts loaded
// from the same byte slice are considered identical by CALLA's
// cross-script check, which compares Hash160 digests rather than slice
// identity so that a re-decoded copy of the same bytes still matches.
type Script struct {
	prog []byte
	hash scripthash.Hash
	done bool
}

// NewScript wraps b as a Script. b is not copied; callers must not mutate
// it afterward.
func NewScript(b []byte) Script {
	return Script{prog: b}
}

// Bytes returns the raw instruction stream.
func (s Script) Bytes() []byte { return s.prog }

// Len returns the script length in bytes.
func (s Script) Len() int { return len(s.prog) }

// Hash returns the script's Hash160 digest, computed lazily and cached.
func (s *Script) Hash() scripthash.Hash {
	if !s.done {
		s.hash = scripthash.Of(s.prog)
		s.done = true
	}
	return s.hash
}
