package vm

import (
	"github.com/vladimirpotek/neo-vm/pkg/vm/opcode"
	"github.com/vladimirpotek/neo-vm/pkg/vm/stackitem"
)

func init() {
	dispatch[opcode.ISNULL] = func(e *Engine, instr Instruction) (bool, error) {
		es := e.CurrentContext().Estack()
		item := es.Pop().Item()
		_, isNull := item.(stackitem.Null)
		es.PushVal(isNull)
		return false, nil
	}

	dispatch[opcode.ISTYPE] = func(e *Engine, instr Instruction) (bool, error) {
		typ := stackitem.Type(instr.TokenU8)
		if typ == stackitem.AnyT || !typ.IsValid() {
			return false, invariantErr("ISTYPE with Any or invalid type operand")
		}
		es := e.CurrentContext().Estack()
		item := es.Pop().Item()
		es.PushVal(item.Type() == typ)
		return false, nil
	}

	dispatch[opcode.CONVERT] = func(e *Engine, instr Instruction) (bool, error) {
		typ := stackitem.Type(instr.TokenU8)
		es := e.CurrentContext().Estack()
		item := es.Pop().Item()
		out, err := item.Convert(typ)
		if err != nil {
			return false, typeErr("%s", err)
		}
		es.PushItem(out)
		return false, nil
	}
}
