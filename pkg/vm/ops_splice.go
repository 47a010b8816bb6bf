package vm

import (
	"github.com/vladimirpotek/neo-vm/pkg/vm/opcode"
	"github.com/vladimirpotek/neo-vm/pkg/vm/stackitem"
)

func init() {
	dispatch[opcode.NEWBUFFER] = func(e *Engine, instr Instruction) (bool, error) {
		es := e.CurrentContext().Estack()
		n := int(es.Pop().BigInt().Int64())
		if n < 0 {
			return false, rangeErr("NEWBUFFER with negative length %d", n)
		}
		if n > e.limits.MaxItemSize {
			return false, limitErr("NEWBUFFER length %d exceeds MaxItemSize", n)
		}
		es.PushItem(stackitem.NewBuffer(make([]byte, n)))
		return false, nil
	}

	dispatch[opcode.MEMCPY] = func(e *Engine, instr Instruction) (bool, error) {
		es := e.CurrentContext().Estack()
		count := int(es.Pop().BigInt().Int64())
		srcIndex := int(es.Pop().BigInt().Int64())
		src := es.Pop().Bytes()
		dstIndex := int(es.Pop().BigInt().Int64())
		dstEl, err := RemoveAt[*stackitem.Buffer](es, 0)
		if err != nil {
			return false, err
		}
		if count < 0 {
			return false, rangeErr("MEMCPY with negative count %d", count)
		}
		if count == 0 {
			// No-op per §8's boundary case. dstEl was already consumed off
			// the stack by RemoveAt above and is not re-pushed or stored
			// anywhere, so it needs no further reference accounting.
			return false, nil
		}
		if srcIndex < 0 || srcIndex+count > len(src) {
			return false, rangeErr("MEMCPY source range [%d,%d) out of bounds (len %d)", srcIndex, srcIndex+count, len(src))
		}
		dst := dstEl.Bytes()
		if dstIndex < 0 || dstIndex+count > len(dst) {
			return false, rangeErr("MEMCPY destination range [%d,%d) out of bounds (len %d)", dstIndex, dstIndex+count, len(dst))
		}
		copy(dst[dstIndex:dstIndex+count], src[srcIndex:srcIndex+count])
		return false, nil
	}

	dispatch[opcode.CAT] = func(e *Engine, instr Instruction) (bool, error) {
		es := e.CurrentContext().Estack()
		b := es.Pop().Bytes()
		a := es.Pop().Bytes()
		out := make([]byte, 0, len(a)+len(b))
		out = append(out, a...)
		out = append(out, b...)
		if len(out) > e.limits.MaxItemSize {
			return false, limitErr("CAT result length %d exceeds MaxItemSize", len(out))
		}
		es.PushItem(stackitem.NewBuffer(out))
		return false, nil
	}

	dispatch[opcode.SUBSTR] = func(e *Engine, instr Instruction) (bool, error) {
		es := e.CurrentContext().Estack()
		count := int(es.Pop().BigInt().Int64())
		index := int(es.Pop().BigInt().Int64())
		b := es.Pop().Bytes()
		if count < 0 || index < 0 || index+count > len(b) {
			return false, rangeErr("SUBSTR range [%d,%d) out of bounds (len %d)", index, index+count, len(b))
		}
		out := append([]byte(nil), b[index:index+count]...)
		es.PushItem(stackitem.NewBuffer(out))
		return false, nil
	}

	dispatch[opcode.LEFT] = func(e *Engine, instr Instruction) (bool, error) {
		es := e.CurrentContext().Estack()
		count := int(es.Pop().BigInt().Int64())
		b := es.Pop().Bytes()
		if count < 0 || count > len(b) {
			return false, rangeErr("LEFT count %d out of bounds (len %d)", count, len(b))
		}
		out := append([]byte(nil), b[:count]...)
		es.PushItem(stackitem.NewBuffer(out))
		return false, nil
	}

	dispatch[opcode.RIGHT] = func(e *Engine, instr Instruction) (bool, error) {
		es := e.CurrentContext().Estack()
		count := int(es.Pop().BigInt().Int64())
		b := es.Pop().Bytes()
		if count < 0 || count > len(b) {
			return false, rangeErr("RIGHT count %d out of bounds (len %d)", count, len(b))
		}
		out := append([]byte(nil), b[len(b)-count:]...)
		es.PushItem(stackitem.NewBuffer(out))
		return false, nil
	}
}
