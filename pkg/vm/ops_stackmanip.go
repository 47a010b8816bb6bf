package vm

import (
	"github.com/vladimirpotek/neo-vm/pkg/vm/opcode"
)

func init() {
	dispatch[opcode.DEPTH] = func(e *Engine, instr Instruction) (bool, error) {
		e.CurrentContext().Estack().PushVal(int64(e.CurrentContext().Estack().Len()))
		return false, nil
	}
	dispatch[opcode.DROP] = func(e *Engine, instr Instruction) (bool, error) {
		_, err := e.CurrentContext().Estack().RemoveAt(0)
		return false, err
	}
	dispatch[opcode.NIP] = func(e *Engine, instr Instruction) (bool, error) {
		_, err := e.CurrentContext().Estack().RemoveAt(1)
		return false, err
	}
	dispatch[opcode.XDROP] = func(e *Engine, instr Instruction) (bool, error) {
		es := e.CurrentContext().Estack()
		n := int(es.Pop().BigInt().Int64())
		if n < 0 {
			return false, rangeErr("XDROP with negative count %d", n)
		}
		_, err := es.RemoveAt(n)
		return false, err
	}
	dispatch[opcode.CLEAR] = func(e *Engine, instr Instruction) (bool, error) {
		e.CurrentContext().Estack().Clear()
		return false, nil
	}
	dispatch[opcode.DUP] = func(e *Engine, instr Instruction) (bool, error) {
		es := e.CurrentContext().Estack()
		el, err := es.Dup(0)
		if err != nil {
			return false, err
		}
		es.Push(el)
		return false, nil
	}
	dispatch[opcode.OVER] = func(e *Engine, instr Instruction) (bool, error) {
		es := e.CurrentContext().Estack()
		el, err := es.Dup(1)
		if err != nil {
			return false, err
		}
		es.Push(el)
		return false, nil
	}
	dispatch[opcode.PICK] = func(e *Engine, instr Instruction) (bool, error) {
		es := e.CurrentContext().Estack()
		n := int(es.Pop().BigInt().Int64())
		if n < 0 {
			return false, rangeErr("PICK with negative index %d", n)
		}
		el, err := es.Dup(n)
		if err != nil {
			return false, err
		}
		es.Push(el)
		return false, nil
	}
	dispatch[opcode.TUCK] = func(e *Engine, instr Instruction) (bool, error) {
		es := e.CurrentContext().Estack()
		el, err := es.Dup(0)
		if err != nil {
			return false, err
		}
		return false, es.InsertAt(el, 2)
	}
	dispatch[opcode.SWAP] = func(e *Engine, instr Instruction) (bool, error) {
		return false, e.CurrentContext().Estack().Swap(0, 1)
	}
	dispatch[opcode.ROT] = func(e *Engine, instr Instruction) (bool, error) {
		return false, e.CurrentContext().Estack().Roll(2)
	}
	dispatch[opcode.ROLL] = func(e *Engine, instr Instruction) (bool, error) {
		es := e.CurrentContext().Estack()
		n := int(es.Pop().BigInt().Int64())
		if n < 0 {
			return false, rangeErr("ROLL with negative index %d", n)
		}
		return false, es.Roll(n)
	}
	dispatch[opcode.REVERSE3] = func(e *Engine, instr Instruction) (bool, error) {
		return false, e.CurrentContext().Estack().ReverseTop(3)
	}
	dispatch[opcode.REVERSE4] = func(e *Engine, instr Instruction) (bool, error) {
		return false, e.CurrentContext().Estack().ReverseTop(4)
	}
	dispatch[opcode.REVERSEN] = func(e *Engine, instr Instruction) (bool, error) {
		es := e.CurrentContext().Estack()
		n := int(es.Pop().BigInt().Int64())
		if n < 0 {
			return false, rangeErr("REVERSEN with negative count %d", n)
		}
		return false, es.ReverseTop(n)
	}
}
