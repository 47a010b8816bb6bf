package vm

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/vladimirpotek/neo-vm/pkg/vm/scripthash"
)

type decodeKey struct {
	script scripthash.Hash
	offset int
}

// CachingDecoder fronts a Decoder with an LRU cache keyed by (script hash,
// offset), so a hot loop re-decoding the same jump target doesn't pay the
// decode cost twice. Re-entering the same script under a different hash
// (impossible in practice, since Script.Hash is content-addressed) would
// simply miss the cache rather than return stale data.
type CachingDecoder struct {
	next  Decoder
	cache *lru.Cache[decodeKey, Instruction]
}

// NewCachingDecoder wraps next with an LRU cache holding up to size
// decoded instructions.
func NewCachingDecoder(next Decoder, size int) (*CachingDecoder, error) {
	c, err := lru.New[decodeKey, Instruction](size)
	if err != nil {
		return nil, err
	}
	return &CachingDecoder{next: next, cache: c}, nil
}

// Decode implements Decoder, keying the cache on (h, offset) so a hot
// jump target already decoded once is returned without re-parsing script.
func (d *CachingDecoder) Decode(script []byte, offset int, h scripthash.Hash) (Instruction, error) {
	key := decodeKey{script: h, offset: offset}
	if instr, ok := d.cache.Get(key); ok {
		return instr, nil
	}
	instr, err := d.next.Decode(script, offset, h)
	if err != nil {
		return instr, err
	}
	d.cache.Add(key, instr)
	return instr, nil
}
