package vm

import (
	"math/big"

	"github.com/vladimirpotek/neo-vm/pkg/encoding/bigint"
	"github.com/vladimirpotek/neo-vm/pkg/vm/opcode"
	"github.com/vladimirpotek/neo-vm/pkg/vm/stackitem"
)

func init() {
	pushInt := func(e *Engine, instr Instruction) (bool, error) {
		n := bigint.FromBytes(instr.Operand)
		if err := stackitem.CheckIntegerSize(n); err != nil {
			return false, err
		}
		e.CurrentContext().Estack().PushItem(stackitem.NewBigInteger(n))
		return false, nil
	}
	for _, op := range []opcode.Opcode{
		opcode.PUSHINT8, opcode.PUSHINT16, opcode.PUSHINT32,
		opcode.PUSHINT64, opcode.PUSHINT128, opcode.PUSHINT256,
	} {
		dispatch[op] = pushInt
	}

	dispatch[opcode.PUSHNULL] = func(e *Engine, instr Instruction) (bool, error) {
		e.CurrentContext().Estack().PushItem(stackitem.Null{})
		return false, nil
	}

	pushData := func(e *Engine, instr Instruction) (bool, error) {
		if len(instr.Operand) > stackitem.MaxSize {
			return false, limitErr("PUSHDATA payload length %d exceeds MaxItemSize", len(instr.Operand))
		}
		buf := append([]byte(nil), instr.Operand...)
		e.CurrentContext().Estack().PushItem(stackitem.NewByteArray(buf))
		return false, nil
	}
	dispatch[opcode.PUSHDATA1] = pushData
	dispatch[opcode.PUSHDATA2] = pushData
	dispatch[opcode.PUSHDATA4] = pushData

	dispatch[opcode.PUSHA] = func(e *Engine, instr Instruction) (bool, error) {
		ctx := e.CurrentContext()
		target := ctx.IP() + int(instr.TokenI32)
		if target < 0 || target > ctx.Script().Len() {
			return false, rangeErr("PUSHA target %d out of script bounds [0,%d]", target, ctx.Script().Len())
		}
		ctx.Estack().PushItem(stackitem.NewPointer(target, ctx.Script().Bytes()))
		return false, nil
	}

	dispatch[opcode.PUSHM1] = pushConst(big.NewInt(-1))
	dispatch[opcode.PUSH0] = pushConst(big.NewInt(0))
	dispatch[opcode.PUSH1] = pushConst(big.NewInt(1))
	dispatch[opcode.PUSH2] = pushConst(big.NewInt(2))
	dispatch[opcode.PUSH3] = pushConst(big.NewInt(3))
	dispatch[opcode.PUSH4] = pushConst(big.NewInt(4))
	dispatch[opcode.PUSH5] = pushConst(big.NewInt(5))
	dispatch[opcode.PUSH6] = pushConst(big.NewInt(6))
	dispatch[opcode.PUSH7] = pushConst(big.NewInt(7))
	dispatch[opcode.PUSH8] = pushConst(big.NewInt(8))
	dispatch[opcode.PUSH9] = pushConst(big.NewInt(9))
	dispatch[opcode.PUSH10] = pushConst(big.NewInt(10))
	dispatch[opcode.PUSH11] = pushConst(big.NewInt(11))
	dispatch[opcode.PUSH12] = pushConst(big.NewInt(12))
	dispatch[opcode.PUSH13] = pushConst(big.NewInt(13))
	dispatch[opcode.PUSH14] = pushConst(big.NewInt(14))
	dispatch[opcode.PUSH15] = pushConst(big.NewInt(15))
	dispatch[opcode.PUSH16] = pushConst(big.NewInt(16))

	dispatch[opcode.NOP] = func(e *Engine, instr Instruction) (bool, error) { return false, nil }
}

func pushConst(v *big.Int) opFunc {
	return func(e *Engine, instr Instruction) (bool, error) {
		e.CurrentContext().Estack().PushItem(stackitem.NewBigInteger(new(big.Int).Set(v)))
		return false, nil
	}
}
