package vm

import (
	"math/big"

	"github.com/vladimirpotek/neo-vm/pkg/vm/opcode"
	"github.com/vladimirpotek/neo-vm/pkg/vm/stackitem"
)

func init() {
	dispatch[opcode.PACK] = packArray(func(items []stackitem.Item) stackitem.Item { return stackitem.NewArray(items) })
	dispatch[opcode.PACKSTRUCT] = packArray(func(items []stackitem.Item) stackitem.Item { return stackitem.NewStruct(items) })
	dispatch[opcode.PACKMAP] = opPackMap
	dispatch[opcode.UNPACK] = opUnpack

	dispatch[opcode.NEWARRAY0] = func(e *Engine, instr Instruction) (bool, error) {
		e.CurrentContext().Estack().PushItem(stackitem.NewArray(nil))
		return false, nil
	}
	dispatch[opcode.NEWSTRUCT0] = func(e *Engine, instr Instruction) (bool, error) {
		e.CurrentContext().Estack().PushItem(stackitem.NewStruct(nil))
		return false, nil
	}
	dispatch[opcode.NEWARRAY] = newFilled(func(items []stackitem.Item) stackitem.Item { return stackitem.NewArray(items) }, nil)
	dispatch[opcode.NEWSTRUCT] = newFilled(func(items []stackitem.Item) stackitem.Item { return stackitem.NewStruct(items) }, nil)
	dispatch[opcode.NEWARRAYT] = func(e *Engine, instr Instruction) (bool, error) {
		typ := stackitem.Type(instr.TokenU8)
		if !typ.IsValid() {
			return false, invariantErr("NEWARRAYT with invalid type operand 0x%02X", instr.TokenU8)
		}
		return newFilled(func(items []stackitem.Item) stackitem.Item { return stackitem.NewArray(items) }, defaultForType(typ))(e, instr)
	}
	dispatch[opcode.NEWMAP] = func(e *Engine, instr Instruction) (bool, error) {
		e.CurrentContext().Estack().PushItem(stackitem.NewMap())
		return false, nil
	}

	dispatch[opcode.SIZE] = opSize
	dispatch[opcode.HASKEY] = opHasKey
	dispatch[opcode.KEYS] = opKeys
	dispatch[opcode.VALUES] = opValues
	dispatch[opcode.PICKITEM] = opPickItem
	dispatch[opcode.APPEND] = opAppend
	dispatch[opcode.SETITEM] = opSetItem
	dispatch[opcode.REVERSEITEMS] = opReverseItems
	dispatch[opcode.REMOVE] = opRemove
	dispatch[opcode.CLEARITEMS] = opClearItems
}

// defaultForType returns NEWARRAYT's per-element fill value: a type-correct
// zero for Boolean/Integer/ByteString, and Null for everything else,
// including undefined or Any.
func defaultForType(typ stackitem.Type) stackitem.Item {
	switch typ {
	case stackitem.BooleanT:
		return stackitem.NewBool(false)
	case stackitem.IntegerT:
		return stackitem.NewBigInteger(big.NewInt(0))
	case stackitem.ByteArrayT:
		return stackitem.NewByteArray(nil)
	default:
		return stackitem.Null{}
	}
}

func newFilled(make_ func([]stackitem.Item) stackitem.Item, fill stackitem.Item) opFunc {
	return func(e *Engine, instr Instruction) (bool, error) {
		es := e.CurrentContext().Estack()
		n := int(es.Pop().BigInt().Int64())
		if n < 0 {
			return false, rangeErr("array size %d must not be negative", n)
		}
		if n > e.limits.MaxStackSize {
			return false, limitErr("array size %d exceeds MaxStackSize (%d)", n, e.limits.MaxStackSize)
		}
		items := make([]stackitem.Item, n)
		for i := range items {
			if fill == nil {
				items[i] = stackitem.Null{}
			} else {
				items[i] = fill
			}
		}
		es.PushItem(make_(items))
		return false, nil
	}
}

// packArray pops a count then that many items, building a compound item
// whose index 0 holds the deepest of the popped elements so PACK/UNPACK
// round-trip the original stack order.
func packArray(make_ func([]stackitem.Item) stackitem.Item) opFunc {
	return func(e *Engine, instr Instruction) (bool, error) {
		es := e.CurrentContext().Estack()
		n := int(es.Pop().BigInt().Int64())
		if n < 0 {
			return false, rangeErr("PACK count %d must not be negative", n)
		}
		if n > es.Len() {
			return false, rangeErr("PACK count %d exceeds stack depth %d", n, es.Len())
		}
		items := make([]stackitem.Item, n)
		for i := 0; i < n; i++ {
			items[n-1-i] = es.Pop().Item()
		}
		es.PushItem(make_(items))
		return false, nil
	}
}

func opUnpack(e *Engine, instr Instruction) (bool, error) {
	es := e.CurrentContext().Estack()
	el, err := RemoveAt[*stackitem.Array](es, 0)
	if err != nil {
		return false, err
	}
	items := el.Value().([]stackitem.Item)
	for _, it := range items {
		es.PushItem(it)
	}
	es.PushVal(int64(len(items)))
	return false, nil
}

// opPackMap pops a count then that many key/value pairs (value on top of
// its key), building a Map that preserves the original push order.
func opPackMap(e *Engine, instr Instruction) (bool, error) {
	es := e.CurrentContext().Estack()
	n := int(es.Pop().BigInt().Int64())
	if n < 0 {
		return false, rangeErr("PACKMAP count %d must not be negative", n)
	}
	type pair struct{ key, value stackitem.Item }
	pairs := make([]pair, n)
	for i := 0; i < n; i++ {
		value := es.Pop().Item()
		key := es.Pop().Item()
		pairs[n-1-i] = pair{key, value}
	}
	m := stackitem.NewMap()
	for _, p := range pairs {
		if err := stackitem.IsValidMapKey(p.key); err != nil {
			return false, typeErr("%s", err)
		}
		m.Add(p.key, p.value)
	}
	es.PushItem(m)
	return false, nil
}

func opSize(e *Engine, instr Instruction) (bool, error) {
	es := e.CurrentContext().Estack()
	item := es.Pop().Item()
	switch it := item.(type) {
	case *stackitem.Array:
		es.PushVal(int64(it.Len()))
	case *stackitem.Struct:
		es.PushVal(int64(it.Len()))
	case *stackitem.Map:
		es.PushVal(int64(it.Len()))
	default:
		bs, err := item.TryBytes()
		if err != nil {
			return false, typeErr("SIZE: %s has no defined size", item.Type())
		}
		es.PushVal(int64(len(bs)))
	}
	return false, nil
}

func opHasKey(e *Engine, instr Instruction) (bool, error) {
	es := e.CurrentContext().Estack()
	key := es.Pop().Item()
	container := es.Pop().Item()
	switch c := container.(type) {
	case *stackitem.Array:
		idx, err := key.TryInteger()
		if err != nil {
			return false, typeErr("HASKEY: index must be an integer")
		}
		n := idx.Int64()
		es.PushVal(n >= 0 && n < int64(c.Len()))
	case *stackitem.Struct:
		idx, err := key.TryInteger()
		if err != nil {
			return false, typeErr("HASKEY: index must be an integer")
		}
		n := idx.Int64()
		es.PushVal(n >= 0 && n < int64(c.Len()))
	case *stackitem.Map:
		es.PushVal(c.Has(key))
	default:
		return false, typeErr("HASKEY: %s is not a container", container.Type())
	}
	return false, nil
}

func opKeys(e *Engine, instr Instruction) (bool, error) {
	es := e.CurrentContext().Estack()
	m, err := RemoveAt[*stackitem.Map](es, 0)
	if err != nil {
		return false, err
	}
	es.PushItem(stackitem.NewArray(m.Keys()))
	return false, nil
}

func opValues(e *Engine, instr Instruction) (bool, error) {
	es := e.CurrentContext().Estack()
	item := es.Pop().Item()
	var values []stackitem.Item
	switch it := item.(type) {
	case *stackitem.Array:
		values = it.Value().([]stackitem.Item)
	case *stackitem.Map:
		values = it.Values()
	default:
		return false, typeErr("VALUES: %s is not an Array or Map", item.Type())
	}
	out := make([]stackitem.Item, len(values))
	for i, v := range values {
		if s, ok := v.(*stackitem.Struct); ok {
			out[i] = s.Clone()
		} else {
			out[i] = v
		}
	}
	es.PushItem(stackitem.NewArray(out))
	return false, nil
}

func opPickItem(e *Engine, instr Instruction) (bool, error) {
	es := e.CurrentContext().Estack()
	key := es.Pop().Item()
	container := es.Pop().Item()
	switch c := container.(type) {
	case *stackitem.Array:
		idx, err := compoundIndex(key, c.Len())
		if err != nil {
			return false, err
		}
		es.PushItem(c.Get(idx))
	case *stackitem.Struct:
		idx, err := compoundIndex(key, c.Len())
		if err != nil {
			return false, err
		}
		es.PushItem(c.Get(idx))
	case *stackitem.Map:
		v, ok := c.Get(key)
		if !ok {
			return false, rangeErr("PICKITEM: key not found in map")
		}
		es.PushItem(v)
	default:
		bs, err := container.TryBytes()
		if err != nil {
			return false, typeErr("PICKITEM: %s is not indexable", container.Type())
		}
		idx, err := compoundIndex(key, len(bs))
		if err != nil {
			return false, err
		}
		es.PushVal(int64(bs[idx]))
	}
	return false, nil
}

func compoundIndex(key stackitem.Item, length int) (int, error) {
	n, err := key.TryInteger()
	if err != nil {
		return 0, typeErr("index must be an integer")
	}
	if !n.IsInt64() || n.Int64() < 0 || n.Int64() >= int64(length) {
		return 0, rangeErr("index %s out of bounds (length %d)", n, length)
	}
	return int(n.Int64()), nil
}

// cloneIfStruct returns a deep clone of item if it is a Struct, preserving
// the value-like semantics a Struct has when stored into a container.
func cloneIfStruct(item stackitem.Item) stackitem.Item {
	if s, ok := item.(*stackitem.Struct); ok {
		return s.Clone()
	}
	return item
}

func opAppend(e *Engine, instr Instruction) (bool, error) {
	es := e.CurrentContext().Estack()
	item := es.Pop().Item()
	container := es.Pop().Item()
	item = cloneIfStruct(item)
	switch c := container.(type) {
	case *stackitem.Array:
		if c.Len() >= e.limits.MaxStackSize {
			return false, limitErr("APPEND would exceed MaxStackSize (%d)", e.limits.MaxStackSize)
		}
		c.Append(item)
	case *stackitem.Struct:
		if c.Len() >= e.limits.MaxStackSize {
			return false, limitErr("APPEND would exceed MaxStackSize (%d)", e.limits.MaxStackSize)
		}
		c.Append(item)
	default:
		return false, typeErr("APPEND: %s is not an Array or Struct", container.Type())
	}
	return false, nil
}

func opSetItem(e *Engine, instr Instruction) (bool, error) {
	es := e.CurrentContext().Estack()
	value := es.Pop().Item()
	key := es.Pop().Item()
	container := es.Pop().Item()
	value = cloneIfStruct(value)
	switch c := container.(type) {
	case *stackitem.Array:
		idx, err := compoundIndex(key, c.Len())
		if err != nil {
			return false, err
		}
		c.Set(idx, value)
	case *stackitem.Struct:
		idx, err := compoundIndex(key, c.Len())
		if err != nil {
			return false, err
		}
		c.Set(idx, value)
	case *stackitem.Map:
		if err := stackitem.IsValidMapKey(key); err != nil {
			return false, typeErr("%s", err)
		}
		c.Add(key, value)
	default:
		return false, typeErr("SETITEM: %s is not a container", container.Type())
	}
	return false, nil
}

func opReverseItems(e *Engine, instr Instruction) (bool, error) {
	es := e.CurrentContext().Estack()
	item := es.Pop().Item()
	switch c := item.(type) {
	case *stackitem.Array:
		c.Reverse()
	case *stackitem.Struct:
		c.Reverse()
	case *stackitem.Buffer:
		b := c.Bytes()
		for l, r := 0, len(b)-1; l < r; l, r = l+1, r-1 {
			b[l], b[r] = b[r], b[l]
		}
	default:
		return false, typeErr("REVERSEITEMS: %s cannot be reversed", item.Type())
	}
	return false, nil
}

func opRemove(e *Engine, instr Instruction) (bool, error) {
	es := e.CurrentContext().Estack()
	key := es.Pop().Item()
	container := es.Pop().Item()
	switch c := container.(type) {
	case *stackitem.Array:
		idx, err := compoundIndex(key, c.Len())
		if err != nil {
			return false, err
		}
		c.Remove(idx)
	case *stackitem.Map:
		c.Drop(key)
	default:
		return false, typeErr("REMOVE: %s is not an Array or Map", container.Type())
	}
	return false, nil
}

func opClearItems(e *Engine, instr Instruction) (bool, error) {
	es := e.CurrentContext().Estack()
	item := es.Pop().Item()
	switch c := item.(type) {
	case *stackitem.Array:
		c.Clear()
	case *stackitem.Struct:
		c.Clear()
	case *stackitem.Map:
		c.Clear()
	default:
		return false, typeErr("CLEARITEMS: %s is not a compound type", item.Type())
	}
	return false, nil
}
