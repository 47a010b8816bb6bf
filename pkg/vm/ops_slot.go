package vm

import "github.com/vladimirpotek/neo-vm/pkg/vm/opcode"

func init() {
	dispatch[opcode.INITSSLOT] = func(e *Engine, instr Instruction) (bool, error) {
		n := int(instr.TokenU8)
		if n <= 0 {
			return false, invariantErr("INITSSLOT requires a positive size, got %d", n)
		}
		return false, e.CurrentContext().InitStaticSlot(n, e.refs)
	}
	dispatch[opcode.INITSLOT] = func(e *Engine, instr Instruction) (bool, error) {
		locals, args := int(instr.TokenU8), int(instr.TokenU8_1)
		if locals == 0 && args == 0 {
			return false, invariantErr("INITSLOT with both local and argument counts zero")
		}
		return false, e.CurrentContext().InitSlots(locals, args, e.refs)
	}

	dispatch[opcode.LDSFLD0] = slotLoad(func(c *Context) *Slot { return c.StaticSlot() }, "static", constIndex(0))
	dispatch[opcode.LDSFLD] = slotLoad(func(c *Context) *Slot { return c.StaticSlot() }, "static", tokenU8Index)
	dispatch[opcode.STSFLD0] = slotStore(func(c *Context) *Slot { return c.StaticSlot() }, "static", constIndex(0))
	dispatch[opcode.STSFLD] = slotStore(func(c *Context) *Slot { return c.StaticSlot() }, "static", tokenU8Index)

	dispatch[opcode.LDLOC0] = slotLoad(func(c *Context) *Slot { return c.LocalSlot() }, "local", constIndex(0))
	dispatch[opcode.LDLOC] = slotLoad(func(c *Context) *Slot { return c.LocalSlot() }, "local", tokenU8Index)
	dispatch[opcode.STLOC0] = slotStore(func(c *Context) *Slot { return c.LocalSlot() }, "local", constIndex(0))
	dispatch[opcode.STLOC] = slotStore(func(c *Context) *Slot { return c.LocalSlot() }, "local", tokenU8Index)

	dispatch[opcode.LDARG0] = slotLoad(func(c *Context) *Slot { return c.ArgumentSlot() }, "argument", constIndex(0))
	dispatch[opcode.LDARG] = slotLoad(func(c *Context) *Slot { return c.ArgumentSlot() }, "argument", tokenU8Index)
	dispatch[opcode.STARG0] = slotStore(func(c *Context) *Slot { return c.ArgumentSlot() }, "argument", constIndex(0))
	dispatch[opcode.STARG] = slotStore(func(c *Context) *Slot { return c.ArgumentSlot() }, "argument", tokenU8Index)
}

func constIndex(i int) func(Instruction) int { return func(Instruction) int { return i } }
func tokenU8Index(instr Instruction) int      { return int(instr.TokenU8) }

func slotLoad(get func(*Context) *Slot, name string, index func(Instruction) int) opFunc {
	return func(e *Engine, instr Instruction) (bool, error) {
		ctx := e.CurrentContext()
		slot := get(ctx)
		if slot == nil {
			return false, invariantErr("uninitialized %s slot access", name)
		}
		item, err := slot.Get(index(instr))
		if err != nil {
			return false, err
		}
		ctx.Estack().PushItem(item)
		return false, nil
	}
}

func slotStore(get func(*Context) *Slot, name string, index func(Instruction) int) opFunc {
	return func(e *Engine, instr Instruction) (bool, error) {
		ctx := e.CurrentContext()
		slot := get(ctx)
		if slot == nil {
			return false, invariantErr("uninitialized %s slot access", name)
		}
		el := ctx.Estack().Pop()
		return false, slot.Set(index(instr), el.Item())
	}
}
