package stackitem

import (
	"math/big"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvert_RoundTripIdentityForPrimitives(t *testing.T) {
	items := []Item{
		NewBool(true),
		NewBigInteger(big.NewInt(42)),
		NewByteArray([]byte("hello")),
		NewBuffer([]byte{1, 2, 3}),
	}
	for _, it := range items {
		out, err := it.Convert(it.Type())
		require.NoError(t, err)
		assert.True(t, it.Equals(out), "CONVERT(x, type_of(x)) should be identity for %s", it.Type())
	}
}

func TestConvert_IntegerToByteArrayAndBack(t *testing.T) {
	n := NewBigInteger(big.NewInt(-12345))
	b, err := n.Convert(ByteArrayT)
	require.NoError(t, err)
	back, err := b.Convert(IntegerT)
	require.NoError(t, err)
	assert.True(t, n.Equals(back))
}

func TestConvert_NullOnlyConvertsToValidNonAnyTypes(t *testing.T) {
	_, err := Null{}.Convert(AnyT)
	assert.Error(t, err)

	out, err := Null{}.Convert(IntegerT)
	require.NoError(t, err)
	_, ok := out.(Null)
	assert.True(t, ok)
}

func TestConvert_InvalidConversionIsRejected(t *testing.T) {
	arr := NewArray(nil)
	_, err := arr.Convert(IntegerT)
	assert.ErrorIs(t, err, ErrInvalidConversion)
}

func TestEquals_PrimitivesByValueCompoundsByReference(t *testing.T) {
	a := NewBigInteger(big.NewInt(7))
	b := NewBigInteger(big.NewInt(7))
	assert.True(t, a.Equals(b), "two distinct Integers with the same value must be equal")

	arr1 := NewArray([]Item{a})
	arr2 := NewArray([]Item{a})
	assert.False(t, arr1.Equals(arr2), "distinct Array instances must not be equal even with identical contents")
	assert.True(t, arr1.Equals(arr1), "an Array must equal itself")
}

func TestByteArrayEquals_SymmetricAndTypeExact(t *testing.T) {
	ba := NewByteArray([]byte{0x01, 0x02})
	same := NewByteArray([]byte{0x01, 0x02})
	assert.True(t, ba.Equals(same), "two ByteArrays with identical contents must be equal")
	assert.True(t, same.Equals(ba), "Equals must be commutative")

	differ := NewByteArray([]byte{0x01, 0x03})
	assert.False(t, ba.Equals(differ))
	assert.False(t, differ.Equals(ba))

	// A ByteArray must never compare equal to another primitive kind just
	// because that kind also happens to expose TryBytes.
	asInt := NewBigInteger(big.NewInt(0x0201))
	assert.False(t, ba.Equals(asInt))
	assert.False(t, asInt.Equals(ba))

	asBool := Bool(false)
	emptyBA := NewByteArray(nil)
	assert.False(t, emptyBA.Equals(asBool))
	assert.False(t, asBool.Equals(emptyBA))
}

func TestStructClone_DeepCopiesNestedStructsOnly(t *testing.T) {
	inner := NewStruct([]Item{NewBigInteger(big.NewInt(1))})
	sharedArr := NewArray([]Item{NewBigInteger(big.NewInt(2))})
	outer := NewStruct([]Item{inner, sharedArr})

	clone := outer.Clone()

	clonedInner, ok := clone.Get(0).(*Struct)
	require.True(t, ok, "clone.Get(0) should be a *Struct, got:\n%s", spew.Sdump(clone.Get(0)))
	assert.NotSame(t, inner, clonedInner, "nested Struct fields must be deep-copied")
	assert.True(t, clonedInner.Equals(clonedInner))

	clonedArr, ok := clone.Get(1).(*Array)
	require.True(t, ok, "clone.Get(1) should be a *Array, got:\n%s", spew.Sdump(clone.Get(1)))
	assert.Same(t, sharedArr, clonedArr, "nested Array fields must remain shared by reference")
}

func TestDeepCopy_HandlesCyclesAndMarksReadOnly(t *testing.T) {
	arr := NewArray([]Item{NewBigInteger(big.NewInt(1))})
	arr.Append(arr) // self-reference

	out := DeepCopy(arr).(*Array)
	assert.True(t, out.IsReadOnly())
	assert.Same(t, out, out.Get(1), "a cycle must copy to a cycle onto the same new node, not recurse forever")
}

func TestDeepCopy_PrimitivesAreIndependentCopies(t *testing.T) {
	orig := NewBigInteger(big.NewInt(9))
	out := DeepCopy(orig).(*BigInteger)
	assert.NotSame(t, orig, out)
	assert.True(t, orig.Equals(out))
}

func TestIsValidMapKey(t *testing.T) {
	assert.NoError(t, IsValidMapKey(NewBool(true)))
	assert.NoError(t, IsValidMapKey(NewBigInteger(big.NewInt(1))))
	assert.NoError(t, IsValidMapKey(NewByteArray(make([]byte, MaxKeySize))))

	assert.Error(t, IsValidMapKey(NewByteArray(make([]byte, MaxKeySize+1))))
	assert.Error(t, IsValidMapKey(NewArray(nil)))
}

func TestMap_AddUpdatesExistingKeyInPlace(t *testing.T) {
	m := NewMap()
	k := NewBigInteger(big.NewInt(1))
	m.Add(k, NewBigInteger(big.NewInt(100)))
	m.Add(NewBigInteger(big.NewInt(1)), NewBigInteger(big.NewInt(200)))

	assert.Equal(t, 1, m.Len(), "adding an equal key updates rather than appends, map contents:\n%s", spew.Sdump(m.Value()))
	v, ok := m.Get(k)
	require.True(t, ok)
	assert.True(t, v.Equals(NewBigInteger(big.NewInt(200))))
}

func TestArrayConvert_ToStructCopiesElementsIndependently(t *testing.T) {
	arr := NewArray([]Item{NewBigInteger(big.NewInt(1)), NewBigInteger(big.NewInt(2))})
	out, err := arr.Convert(StructT)
	require.NoError(t, err)
	s := out.(*Struct)
	s.Set(0, NewBigInteger(big.NewInt(99)))
	assert.Equal(t, int64(1), arr.Get(0).(*BigInteger).Big().Int64(), "converting Array to Struct must not share backing storage")
}

func TestBigInteger_SizeLimitEnforced(t *testing.T) {
	huge := new(big.Int).Lsh(big.NewInt(1), MaxBigIntegerSizeBits+1)
	assert.Error(t, CheckIntegerSize(huge))

	ok := new(big.Int).Lsh(big.NewInt(1), MaxBigIntegerSizeBits-1)
	assert.NoError(t, CheckIntegerSize(ok))
}
