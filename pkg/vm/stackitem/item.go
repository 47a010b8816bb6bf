package stackitem

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"unicode/utf8"

	"github.com/vladimirpotek/neo-vm/pkg/encoding/bigint"
	"github.com/vladimirpotek/neo-vm/pkg/vm/scripthash"
)

// MaxBigIntegerSizeBits is the maximum size of an Integer item, in bits.
const MaxBigIntegerSizeBits = 32 * 8

// MaxSize is the maximum size, in bytes, of a ByteString or Buffer item.
const MaxSize = 1024 * 1024

// MaxKeySize is the maximum size of a Map key.
const MaxKeySize = 64

// Sentinel errors identifying the broad class of a stack-item failure;
// callers match against these with errors.Is, the wrapped message carries
// the opcode-specific detail.
var (
	// ErrInvalidConversion is returned on an illegal Convert.
	ErrInvalidConversion = errors.New("invalid conversion")
	// ErrTooBig is returned when an item would exceed a size constraint.
	ErrTooBig = errors.New("too big")
	// ErrReadOnly is returned on an attempt to mutate a read-only item.
	ErrReadOnly = errors.New("item is read-only")
)

func mkInvConversion(from Item, to Type) error {
	return fmt.Errorf("%w: %s/%s", ErrInvalidConversion, from, to)
}

// Item is the "real" value pushed on the evaluation stack.
type Item interface {
	fmt.Stringer
	// Value returns the Go value backing the item.
	Value() any
	// Dup duplicates the item; compound types return themselves (reference
	// semantics), primitives return an independent copy.
	Dup() Item
	// TryBool converts the item to a boolean per §4.1's get_boolean.
	TryBool() (bool, error)
	// TryBytes converts the item to a byte slice (primitives and Buffer).
	TryBytes() ([]byte, error)
	// TryInteger converts the item to an arbitrary-precision integer.
	TryInteger() (*big.Int, error)
	// Equals compares two items per §4.1's equals (reference identity for
	// compounds, by-value for primitives).
	Equals(s Item) bool
	// Type returns the item's stack item type.
	Type() Type
	// Convert converts the item to another primitive type.
	Convert(Type) (Item, error)
}

// Null represents the VM's null singleton.
type Null struct{}

func (Null) String() string { return "Null" }

// Value implements Item.
func (Null) Value() any { return nil }

// Dup implements Item.
func (i Null) Dup() Item { return i }

// TryBool implements Item.
func (Null) TryBool() (bool, error) { return false, nil }

// TryBytes implements Item.
func (i Null) TryBytes() ([]byte, error) { return nil, mkInvConversion(i, ByteArrayT) }

// TryInteger implements Item.
func (i Null) TryInteger() (*big.Int, error) { return nil, mkInvConversion(i, IntegerT) }

// Equals implements Item.
func (Null) Equals(s Item) bool {
	_, ok := s.(Null)
	return ok
}

// Type implements Item.
func (Null) Type() Type { return AnyT }

// Convert implements Item.
func (i Null) Convert(typ Type) (Item, error) {
	if typ == AnyT || !typ.IsValid() {
		return nil, mkInvConversion(i, typ)
	}
	return i, nil
}

// Bool represents a boolean item.
type Bool bool

// NewBool returns a Bool item.
func NewBool(b bool) Bool { return Bool(b) }

func (i Bool) String() string { return "Boolean" }

// Value implements Item.
func (i Bool) Value() any { return bool(i) }

// MarshalJSON implements json.Marshaler, used only by debug/test tooling.
func (i Bool) MarshalJSON() ([]byte, error) { return json.Marshal(bool(i)) }

// Dup implements Item.
func (i Bool) Dup() Item { return i }

// TryBool implements Item.
func (i Bool) TryBool() (bool, error) { return bool(i), nil }

// Bytes returns the canonical byte encoding of the boolean.
func (i Bool) Bytes() []byte {
	if i {
		return []byte{1}
	}
	return []byte{0}
}

// TryBytes implements Item.
func (i Bool) TryBytes() ([]byte, error) { return i.Bytes(), nil }

// TryInteger implements Item.
func (i Bool) TryInteger() (*big.Int, error) {
	if i {
		return big.NewInt(1), nil
	}
	return big.NewInt(0), nil
}

// Equals implements Item.
func (i Bool) Equals(s Item) bool {
	val, ok := s.(Bool)
	return ok && i == val
}

// Type implements Item.
func (i Bool) Type() Type { return BooleanT }

// Convert implements Item.
func (i Bool) Convert(typ Type) (Item, error) { return convertPrimitive(i, typ) }

// BigInteger represents an arbitrary-precision signed integer item.
type BigInteger struct {
	value *big.Int
}

// NewBigInteger returns a new BigInteger, panicking if it exceeds
// MaxBigIntegerSizeBits.
func NewBigInteger(v *big.Int) *BigInteger {
	if err := CheckIntegerSize(v); err != nil {
		panic(err)
	}
	return &BigInteger{value: v}
}

// CheckIntegerSize reports whether v fits within MaxBigIntegerSizeBits.
func CheckIntegerSize(v *big.Int) error {
	if v.BitLen() > MaxBigIntegerSizeBits {
		return fmt.Errorf("%w: integer exceeds %d bits", ErrTooBig, MaxBigIntegerSizeBits)
	}
	return nil
}

func (i *BigInteger) String() string { return "Integer" }

// Value implements Item.
func (i *BigInteger) Value() any { return i.value }

// Big returns the underlying *big.Int.
func (i *BigInteger) Big() *big.Int { return i.value }

// Bytes returns the little-endian two's-complement encoding of i.
func (i *BigInteger) Bytes() []byte { return bigint.ToBytes(i.value) }

// MarshalJSON implements json.Marshaler, used only by debug/test tooling.
func (i *BigInteger) MarshalJSON() ([]byte, error) { return json.Marshal(i.value) }

// Dup implements Item.
func (i *BigInteger) Dup() Item { return &BigInteger{value: new(big.Int).Set(i.value)} }

// TryBool implements Item.
func (i *BigInteger) TryBool() (bool, error) { return i.value.Sign() != 0, nil }

// TryBytes implements Item.
func (i *BigInteger) TryBytes() ([]byte, error) { return i.Bytes(), nil }

// TryInteger implements Item.
func (i *BigInteger) TryInteger() (*big.Int, error) { return i.value, nil }

// Equals implements Item.
func (i *BigInteger) Equals(s Item) bool {
	if i == s {
		return true
	}
	val, ok := s.(*BigInteger)
	if !ok {
		return false
	}
	return i.value.Cmp(val.value) == 0
}

// Type implements Item.
func (i *BigInteger) Type() Type { return IntegerT }

// Convert implements Item.
func (i *BigInteger) Convert(typ Type) (Item, error) { return convertPrimitive(i, typ) }

// ByteArray represents an immutable byte string item.
type ByteArray struct {
	value []byte
}

// NewByteArray returns a new ByteArray wrapping b (not copied).
func NewByteArray(b []byte) *ByteArray { return &ByteArray{value: b} }

func (i *ByteArray) String() string { return "ByteString" }

// Value implements Item.
func (i *ByteArray) Value() any { return i.value }

// MarshalJSON implements json.Marshaler, used only by debug/test tooling.
func (i *ByteArray) MarshalJSON() ([]byte, error) { return json.Marshal(hex.EncodeToString(i.value)) }

// Dup implements Item.
func (i *ByteArray) Dup() Item { return &ByteArray{value: append([]byte(nil), i.value...)} }

// TryBool implements Item.
func (i *ByteArray) TryBool() (bool, error) {
	for _, b := range i.value {
		if b != 0 {
			return true, nil
		}
	}
	return false, nil
}

// TryBytes implements Item.
func (i *ByteArray) TryBytes() ([]byte, error) { return i.value, nil }

// TryInteger implements Item.
func (i *ByteArray) TryInteger() (*big.Int, error) {
	if len(i.value) > bigint.MaxBytesLen {
		return nil, fmt.Errorf("%w: integer span too long", ErrTooBig)
	}
	return bigint.FromBytes(i.value), nil
}

// Equals implements Item.
func (i *ByteArray) Equals(s Item) bool {
	if i == s {
		return true
	}
	val, ok := s.(*ByteArray)
	if !ok {
		return false
	}
	return bytes.Equal(i.value, val.value)
}

// Type implements Item.
func (i *ByteArray) Type() Type { return ByteArrayT }

// Convert implements Item.
func (i *ByteArray) Convert(typ Type) (Item, error) { return convertPrimitive(i, typ) }

// Buffer represents a mutable byte buffer item.
type Buffer struct {
	value []byte
}

// NewBuffer returns a new Buffer wrapping b (not copied).
func NewBuffer(b []byte) *Buffer { return &Buffer{value: b} }

func (i *Buffer) String() string { return "Buffer" }

// Value implements Item.
func (i *Buffer) Value() any { return i.value }

// Bytes returns the live backing slice (not a copy).
func (i *Buffer) Bytes() []byte { return i.value }

// SetBytes replaces the buffer's contents in place.
func (i *Buffer) SetBytes(b []byte) { i.value = b }

// Len returns the buffer length.
func (i *Buffer) Len() int { return len(i.value) }

// MarshalJSON implements json.Marshaler, used only by debug/test tooling.
func (i *Buffer) MarshalJSON() ([]byte, error) { return json.Marshal(hex.EncodeToString(i.value)) }

// Dup implements Item.
func (i *Buffer) Dup() Item {
	cp := append([]byte(nil), i.value...)
	return &Buffer{value: cp}
}

// TryBool implements Item.
func (i *Buffer) TryBool() (bool, error) {
	for _, b := range i.value {
		if b != 0 {
			return true, nil
		}
	}
	return false, nil
}

// TryBytes implements Item.
func (i *Buffer) TryBytes() ([]byte, error) { return i.value, nil }

// TryInteger implements Item.
func (i *Buffer) TryInteger() (*big.Int, error) {
	if len(i.value) > bigint.MaxBytesLen {
		return nil, fmt.Errorf("%w: integer span too long", ErrTooBig)
	}
	return bigint.FromBytes(i.value), nil
}

// Equals implements Item.
func (i *Buffer) Equals(s Item) bool { return i == s }

// Type implements Item.
func (i *Buffer) Type() Type { return BufferT }

// Convert implements Item.
func (i *Buffer) Convert(typ Type) (Item, error) {
	switch typ {
	case BufferT:
		return i, nil
	case ByteArrayT:
		return NewByteArray(append([]byte(nil), i.value...)), nil
	case BooleanT:
		b, _ := i.TryBool()
		return NewBool(b), nil
	case IntegerT:
		n, err := i.TryInteger()
		if err != nil {
			return nil, err
		}
		return NewBigInteger(n), nil
	default:
		return nil, mkInvConversion(i, typ)
	}
}

func convertPrimitive(item Item, typ Type) (Item, error) {
	if item.Type() == typ {
		return item, nil
	}
	switch typ {
	case IntegerT:
		n, err := item.TryInteger()
		if err != nil {
			return nil, err
		}
		return NewBigInteger(n), nil
	case ByteArrayT:
		b, err := item.TryBytes()
		if err != nil {
			return nil, err
		}
		return NewByteArray(append([]byte(nil), b...)), nil
	case BufferT:
		b, err := item.TryBytes()
		if err != nil {
			return nil, err
		}
		return NewBuffer(append([]byte(nil), b...)), nil
	case BooleanT:
		b, err := item.TryBool()
		if err != nil {
			return nil, err
		}
		return NewBool(b), nil
	default:
		return nil, mkInvConversion(item, typ)
	}
}

// Array represents a mutable, reference-type ordered sequence of items.
type Array struct {
	value []Item
	rc
	ro
}

// NewArray returns a new Array over items (not copied).
func NewArray(items []Item) *Array { return &Array{value: items} }

func (i *Array) String() string { return "Array" }

// Value implements Item.
func (i *Array) Value() any { return i.value }

// Len returns the number of elements.
func (i *Array) Len() int { return len(i.value) }

// Append adds item to the end of the array.
func (i *Array) Append(item Item) {
	if i.IsReadOnly() {
		panic(ErrReadOnly)
	}
	i.value = append(i.value, item)
}

// Set replaces the element at pos.
func (i *Array) Set(pos int, item Item) {
	if i.IsReadOnly() {
		panic(ErrReadOnly)
	}
	i.value[pos] = item
}

// Get returns the element at pos.
func (i *Array) Get(pos int) Item { return i.value[pos] }

// Remove removes the element at pos.
func (i *Array) Remove(pos int) {
	if i.IsReadOnly() {
		panic(ErrReadOnly)
	}
	i.value = append(i.value[:pos], i.value[pos+1:]...)
}

// Clear empties the array.
func (i *Array) Clear() {
	if i.IsReadOnly() {
		panic(ErrReadOnly)
	}
	i.value = i.value[:0]
}

// Reverse reverses the array in place.
func (i *Array) Reverse() {
	if i.IsReadOnly() {
		panic(ErrReadOnly)
	}
	for l, r := 0, len(i.value)-1; l < r; l, r = l+1, r-1 {
		i.value[l], i.value[r] = i.value[r], i.value[l]
	}
}

// Dup implements Item (reference type: returns itself).
func (i *Array) Dup() Item { return i }

// TryBool implements Item.
func (i *Array) TryBool() (bool, error) { return true, nil }

// TryBytes implements Item.
func (i *Array) TryBytes() ([]byte, error) { return nil, mkInvConversion(i, ByteArrayT) }

// TryInteger implements Item.
func (i *Array) TryInteger() (*big.Int, error) { return nil, mkInvConversion(i, IntegerT) }

// Equals implements Item (reference identity).
func (i *Array) Equals(s Item) bool { return i == s }

// Type implements Item.
func (i *Array) Type() Type { return ArrayT }

// Convert implements Item.
func (i *Array) Convert(typ Type) (Item, error) {
	switch typ {
	case ArrayT:
		return i, nil
	case StructT:
		return NewStruct(append([]Item(nil), i.value...)), nil
	case BooleanT:
		return NewBool(true), nil
	default:
		return nil, mkInvConversion(i, typ)
	}
}

// Struct represents a value-like, deep-cloneable ordered sequence of items.
type Struct struct {
	value []Item
	rc
	ro
}

// NewStruct returns a new Struct over items (not copied).
func NewStruct(items []Item) *Struct { return &Struct{value: items} }

func (i *Struct) String() string { return "Struct" }

// Value implements Item.
func (i *Struct) Value() any { return i.value }

// Len returns the number of fields.
func (i *Struct) Len() int { return len(i.value) }

// Append adds item to the end of the struct.
func (i *Struct) Append(item Item) {
	if i.IsReadOnly() {
		panic(ErrReadOnly)
	}
	i.value = append(i.value, item)
}

// Set replaces the field at pos.
func (i *Struct) Set(pos int, item Item) {
	if i.IsReadOnly() {
		panic(ErrReadOnly)
	}
	i.value[pos] = item
}

// Get returns the field at pos.
func (i *Struct) Get(pos int) Item { return i.value[pos] }

// Remove removes the field at pos.
func (i *Struct) Remove(pos int) {
	if i.IsReadOnly() {
		panic(ErrReadOnly)
	}
	i.value = append(i.value[:pos], i.value[pos+1:]...)
}

// Clear empties the struct.
func (i *Struct) Clear() {
	if i.IsReadOnly() {
		panic(ErrReadOnly)
	}
	i.value = i.value[:0]
}

// Reverse reverses the struct fields in place.
func (i *Struct) Reverse() {
	if i.IsReadOnly() {
		panic(ErrReadOnly)
	}
	for l, r := 0, len(i.value)-1; l < r; l, r = l+1, r-1 {
		i.value[l], i.value[r] = i.value[r], i.value[l]
	}
}

// Dup implements Item (reference type: returns itself; use Clone for a deep
// copy, which is the only place struct-by-value semantics actually apply).
func (i *Struct) Dup() Item { return i }

// TryBool implements Item.
func (i *Struct) TryBool() (bool, error) { return true, nil }

// TryBytes implements Item.
func (i *Struct) TryBytes() ([]byte, error) { return nil, mkInvConversion(i, ByteArrayT) }

// TryInteger implements Item.
func (i *Struct) TryInteger() (*big.Int, error) { return nil, mkInvConversion(i, IntegerT) }

// Equals implements Item (reference identity, never deep contents).
func (i *Struct) Equals(s Item) bool { return i == s }

// Type implements Item.
func (i *Struct) Type() Type { return StructT }

// Convert implements Item.
func (i *Struct) Convert(typ Type) (Item, error) {
	switch typ {
	case StructT:
		return i, nil
	case ArrayT:
		return NewArray(append([]Item(nil), i.value...)), nil
	case BooleanT:
		return NewBool(true), nil
	default:
		return nil, mkInvConversion(i, typ)
	}
}

// Clone returns a Struct with nested Structs recursively deep-copied; Array,
// Map and Buffer fields remain shared by reference, per §4.1.
func (i *Struct) Clone() *Struct {
	out := &Struct{value: make([]Item, len(i.value))}
	for j, it := range i.value {
		if s, ok := it.(*Struct); ok {
			out.value[j] = s.Clone()
		} else {
			out.value[j] = it
		}
	}
	return out
}

// MapElement is one key/value pair of a Map, kept in insertion order.
type MapElement struct {
	Key   Item
	Value Item
}

// Map represents an insertion-ordered mapping from a primitive key to an
// item. Backed by a slice rather than a Go map since keys are compared via
// Item.Equals, not Go equality, and VM maps are small in practice.
type Map struct {
	value []MapElement
	rc
	ro
}

// NewMap returns a new, empty Map.
func NewMap() *Map { return &Map{} }

func (i *Map) String() string { return "Map" }

// Value implements Item.
func (i *Map) Value() any { return i.value }

// Len returns the number of entries.
func (i *Map) Len() int { return len(i.value) }

// Index returns the index of key, or -1 if absent.
func (i *Map) Index(key Item) int {
	for idx, e := range i.value {
		if e.Key.Equals(key) {
			return idx
		}
	}
	return -1
}

// Has reports whether key is present.
func (i *Map) Has(key Item) bool { return i.Index(key) >= 0 }

// Get returns the value for key and whether it was present.
func (i *Map) Get(key Item) (Item, bool) {
	idx := i.Index(key)
	if idx < 0 {
		return nil, false
	}
	return i.value[idx].Value, true
}

// Add inserts or updates the key/value pair.
func (i *Map) Add(key, value Item) {
	if err := IsValidMapKey(key); err != nil {
		panic(err)
	}
	if i.IsReadOnly() {
		panic(ErrReadOnly)
	}
	if idx := i.Index(key); idx >= 0 {
		i.value[idx].Value = value
		return
	}
	i.value = append(i.value, MapElement{Key: key, Value: value})
}

// Drop removes the entry for key, if present.
func (i *Map) Drop(key Item) {
	if i.IsReadOnly() {
		panic(ErrReadOnly)
	}
	idx := i.Index(key)
	if idx < 0 {
		return
	}
	i.value = append(i.value[:idx], i.value[idx+1:]...)
}

// Clear empties the map.
func (i *Map) Clear() {
	if i.IsReadOnly() {
		panic(ErrReadOnly)
	}
	i.value = i.value[:0]
}

// Keys returns the keys in insertion order.
func (i *Map) Keys() []Item {
	out := make([]Item, len(i.value))
	for idx, e := range i.value {
		out[idx] = e.Key
	}
	return out
}

// Values returns the values in insertion order.
func (i *Map) Values() []Item {
	out := make([]Item, len(i.value))
	for idx, e := range i.value {
		out[idx] = e.Value
	}
	return out
}

// IsValidMapKey reports whether key may be used as a Map key (a
// PrimitiveType not exceeding MaxKeySize).
func IsValidMapKey(key Item) error {
	switch k := key.(type) {
	case Bool, *BigInteger:
		return nil
	case *ByteArray:
		if len(k.value) > MaxKeySize {
			return fmt.Errorf("%w: map key", ErrTooBig)
		}
		return nil
	default:
		return fmt.Errorf("%w: %s is not a valid map key type", ErrInvalidConversion, key.Type())
	}
}

// Dup implements Item (reference type: returns itself).
func (i *Map) Dup() Item { return i }

// TryBool implements Item.
func (i *Map) TryBool() (bool, error) { return true, nil }

// TryBytes implements Item.
func (i *Map) TryBytes() ([]byte, error) { return nil, mkInvConversion(i, ByteArrayT) }

// TryInteger implements Item.
func (i *Map) TryInteger() (*big.Int, error) { return nil, mkInvConversion(i, IntegerT) }

// Equals implements Item (reference identity).
func (i *Map) Equals(s Item) bool { return i == s }

// Type implements Item.
func (i *Map) Type() Type { return MapT }

// Convert implements Item.
func (i *Map) Convert(typ Type) (Item, error) {
	switch typ {
	case MapT:
		return i, nil
	case BooleanT:
		return NewBool(true), nil
	default:
		return nil, mkInvConversion(i, typ)
	}
}

// Pointer represents a VM instruction address within a specific script.
type Pointer struct {
	pos        int
	scriptHash scripthash.Hash
}

// NewPointer returns a Pointer at pos within script.
func NewPointer(pos int, script []byte) *Pointer {
	return &Pointer{pos: pos, scriptHash: scripthash.Of(script)}
}

// NewPointerWithHash returns a Pointer at pos, with a precomputed script
// hash (saves recomputation when the caller already has it).
func NewPointerWithHash(pos int, h scripthash.Hash) *Pointer {
	return &Pointer{pos: pos, scriptHash: h}
}

func (p *Pointer) String() string { return "Pointer" }

// Value implements Item.
func (p *Pointer) Value() any { return p.pos }

// Position returns the pointer's instruction offset.
func (p *Pointer) Position() int { return p.pos }

// ScriptHash returns the Hash160 digest of the pointer's script.
func (p *Pointer) ScriptHash() scripthash.Hash { return p.scriptHash }

// Dup implements Item.
func (p *Pointer) Dup() Item { return &Pointer{pos: p.pos, scriptHash: p.scriptHash} }

// TryBool implements Item.
func (p *Pointer) TryBool() (bool, error) { return true, nil }

// TryBytes implements Item.
func (p *Pointer) TryBytes() ([]byte, error) { return nil, mkInvConversion(p, ByteArrayT) }

// TryInteger implements Item.
func (p *Pointer) TryInteger() (*big.Int, error) { return nil, mkInvConversion(p, IntegerT) }

// Equals implements Item.
func (p *Pointer) Equals(s Item) bool {
	if p == s {
		return true
	}
	o, ok := s.(*Pointer)
	return ok && p.pos == o.pos && p.scriptHash == o.scriptHash
}

// Type implements Item.
func (p *Pointer) Type() Type { return PointerT }

// Convert implements Item.
func (p *Pointer) Convert(typ Type) (Item, error) {
	switch typ {
	case PointerT:
		return p, nil
	case BooleanT:
		return NewBool(true), nil
	default:
		return nil, mkInvConversion(p, typ)
	}
}

// Interop wraps an opaque host-provided value.
type Interop struct {
	value any
}

// NewInterop returns a new Interop wrapping value.
func NewInterop(value any) *Interop { return &Interop{value: value} }

func (i *Interop) String() string { return "InteropInterface" }

// Value implements Item.
func (i *Interop) Value() any { return i.value }

// Dup implements Item.
func (i *Interop) Dup() Item { return i }

// TryBool implements Item.
func (i *Interop) TryBool() (bool, error) { return true, nil }

// TryBytes implements Item.
func (i *Interop) TryBytes() ([]byte, error) { return nil, mkInvConversion(i, ByteArrayT) }

// TryInteger implements Item.
func (i *Interop) TryInteger() (*big.Int, error) { return nil, mkInvConversion(i, IntegerT) }

// Equals implements Item.
func (i *Interop) Equals(s Item) bool {
	if i == s {
		return true
	}
	o, ok := s.(*Interop)
	return ok && i.value == o.value
}

// Type implements Item.
func (i *Interop) Type() Type { return InteropT }

// Convert implements Item.
func (i *Interop) Convert(typ Type) (Item, error) {
	switch typ {
	case InteropT:
		return i, nil
	case BooleanT:
		return NewBool(true), nil
	default:
		return nil, mkInvConversion(i, typ)
	}
}

// Make builds a stack Item from a native Go value, panicking for
// unsupported types. Used by opcode handlers that push literals.
func Make(v any) Item {
	switch val := v.(type) {
	case int:
		return NewBigInteger(big.NewInt(int64(val)))
	case int64:
		return NewBigInteger(big.NewInt(val))
	case bool:
		return NewBool(val)
	case []byte:
		return NewByteArray(val)
	case string:
		return NewByteArray([]byte(val))
	case *big.Int:
		return NewBigInteger(val)
	case Item:
		return val
	case nil:
		return Null{}
	default:
		panic(fmt.Sprintf("invalid stack item type: %v (%T)", val, val))
	}
}

// ToString converts an item to a string, failing if it isn't valid UTF-8.
func ToString(item Item) (string, error) {
	bs, err := item.TryBytes()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(bs) {
		return "", fmt.Errorf("%w: not a valid UTF-8 string", ErrInvalidConversion)
	}
	return string(bs), nil
}

// DeepCopy returns an immutable deep copy of item. Interop values are
// shared, not copied.
func DeepCopy(item Item) Item {
	seen := make(map[Item]Item)
	return deepCopy(item, seen)
}

func deepCopy(item Item, seen map[Item]Item) Item {
	if it, ok := seen[item]; ok {
		return it
	}
	switch it := item.(type) {
	case Null:
		return Null{}
	case Bool:
		return it
	case *BigInteger:
		return &BigInteger{value: new(big.Int).Set(it.value)}
	case *ByteArray:
		return NewByteArray(append([]byte(nil), it.value...))
	case *Buffer:
		return NewByteArray(append([]byte(nil), it.value...))
	case *Pointer:
		return &Pointer{pos: it.pos, scriptHash: it.scriptHash}
	case *Interop:
		return NewInterop(it.value)
	case *Array:
		arr := NewArray(make([]Item, len(it.value)))
		seen[item] = arr
		for idx, e := range it.value {
			arr.value[idx] = deepCopy(e, seen)
		}
		arr.MarkAsReadOnly()
		return arr
	case *Struct:
		s := NewStruct(make([]Item, len(it.value)))
		seen[item] = s
		for idx, e := range it.value {
			s.value[idx] = deepCopy(e, seen)
		}
		s.MarkAsReadOnly()
		return s
	case *Map:
		m := NewMap()
		seen[item] = m
		for _, e := range it.value {
			m.Add(deepCopy(e.Key, seen), deepCopy(e.Value, seen))
		}
		m.MarkAsReadOnly()
		return m
	default:
		return nil
	}
}
