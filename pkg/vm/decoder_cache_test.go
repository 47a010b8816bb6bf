package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladimirpotek/neo-vm/pkg/vm/limits"
	"github.com/vladimirpotek/neo-vm/pkg/vm/opcode"
	"github.com/vladimirpotek/neo-vm/pkg/vm/scripthash"
)

// countingDecoder wraps a Decoder and counts how many times Decode was
// actually invoked, so tests can tell a cache hit from a cache miss.
type countingDecoder struct {
	calls int
}

func (c *countingDecoder) Decode(script []byte, offset int, h scripthash.Hash) (Instruction, error) {
	c.calls++
	return DefaultDecoder{}.Decode(script, offset, h)
}

func TestCachingDecoder_HitsAvoidRedecode(t *testing.T) {
	inner := &countingDecoder{}
	cd, err := NewCachingDecoder(inner, 16)
	require.NoError(t, err)

	script := NewScript([]byte{byte(opcode.NOP), byte(opcode.RET)})
	h := script.Hash()

	i1, err := cd.Decode(script.Bytes(), 0, h)
	require.NoError(t, err)
	i2, err := cd.Decode(script.Bytes(), 0, h)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls, "second Decode at the same (hash, offset) must be served from cache")
	assert.Equal(t, i1, i2)
}

func TestCachingDecoder_DifferentOffsetsMiss(t *testing.T) {
	inner := &countingDecoder{}
	cd, err := NewCachingDecoder(inner, 16)
	require.NoError(t, err)

	script := NewScript([]byte{byte(opcode.NOP), byte(opcode.RET)})
	h := script.Hash()

	_, err = cd.Decode(script.Bytes(), 0, h)
	require.NoError(t, err)
	_, err = cd.Decode(script.Bytes(), 1, h)
	require.NoError(t, err)

	assert.Equal(t, 2, inner.calls, "distinct offsets must not share a cache entry")
}

// A CachingDecoder wired into a real Engine must actually populate its
// cache as the dispatch loop steps through a script, not silently behave
// like DefaultDecoder.
func TestCachingDecoder_WiredIntoEngineCaches(t *testing.T) {
	inner := &countingDecoder{}
	cd, err := NewCachingDecoder(inner, 16)
	require.NoError(t, err)

	prog := []byte{byte(opcode.PUSH1), byte(opcode.PUSH1), byte(opcode.ADD), byte(opcode.RET)}
	e := NewEngine(cd, nil, limits.Default())
	_, err = e.LoadScript(NewScript(prog), 0)
	require.NoError(t, err)
	e.Execute()

	require.Equal(t, Halt, e.State())
	assert.Equal(t, len(prog), inner.calls, "one live decode per distinct instruction boundary, none repeated")
}
