package vm

import (
	"math/big"

	"github.com/vladimirpotek/neo-vm/pkg/vm/opcode"
)

func init() {
	dispatch[opcode.INVERT] = unaryInt(func(a *big.Int) (*big.Int, error) {
		return new(big.Int).Not(a), nil
	})
	dispatch[opcode.AND] = binaryInt(func(a, b *big.Int) (*big.Int, error) {
		return new(big.Int).And(a, b), nil
	})
	dispatch[opcode.OR] = binaryInt(func(a, b *big.Int) (*big.Int, error) {
		return new(big.Int).Or(a, b), nil
	})
	dispatch[opcode.XOR] = binaryInt(func(a, b *big.Int) (*big.Int, error) {
		return new(big.Int).Xor(a, b), nil
	})

	dispatch[opcode.EQUAL] = func(e *Engine, instr Instruction) (bool, error) {
		es := e.CurrentContext().Estack()
		b := es.Pop().Item()
		a := es.Pop().Item()
		es.PushVal(a.Equals(b))
		return false, nil
	}
	dispatch[opcode.NOTEQUAL] = func(e *Engine, instr Instruction) (bool, error) {
		es := e.CurrentContext().Estack()
		b := es.Pop().Item()
		a := es.Pop().Item()
		es.PushVal(!a.Equals(b))
		return false, nil
	}

	dispatch[opcode.SHL] = shiftOp(func(a *big.Int, n uint) *big.Int { return new(big.Int).Lsh(a, n) })
	dispatch[opcode.SHR] = shiftOp(func(a *big.Int, n uint) *big.Int { return new(big.Int).Rsh(a, n) })
}

// shiftOp wires SHL/SHR: the shift amount must satisfy 0 <= n <= MaxShift,
// and a zero shift is a no-op that consumes the shift operand and leaves
// the value operand untouched on the stack.
func shiftOp(f func(a *big.Int, n uint) *big.Int) opFunc {
	return func(e *Engine, instr Instruction) (bool, error) {
		es := e.CurrentContext().Estack()
		shift := es.Pop().BigInt()
		if shift.Sign() < 0 || !shift.IsInt64() || shift.Int64() > int64(e.limits.MaxShift) {
			return false, rangeErr("shift amount %s out of range [0,%d]", shift, e.limits.MaxShift)
		}
		n := uint(shift.Int64())
		if n == 0 {
			return false, nil
		}
		a := es.Pop().BigInt()
		return false, pushChecked(es, f(a, n))
	}
}
