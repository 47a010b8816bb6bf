package vm

import (
	"github.com/vladimirpotek/neo-vm/pkg/vm/opcode"
	"github.com/vladimirpotek/neo-vm/pkg/vm/stackitem"
)

// jumpTarget computes ip + offset and validates it lies within the
// script, per §4.6's "Target must satisfy 0 ≤ target ≤ script.length".
func jumpTarget(ctx *Context, offset int) (int, error) {
	target := ctx.IP() + offset
	if target < 0 || target > ctx.Script().Len() {
		return 0, rangeErr("jump target %d out of script bounds [0,%d]", target, ctx.Script().Len())
	}
	return target, nil
}

func init() {
	registerJump(opcode.JMP, jmpAlways, false)
	registerJump(opcode.JMPL, jmpAlways, true)
	registerJump(opcode.JMPIF, jmpIf, false)
	registerJump(opcode.JMPIFL, jmpIf, true)
	registerJump(opcode.JMPIFNOT, jmpIfNot, false)
	registerJump(opcode.JMPIFNOTL, jmpIfNot, true)
	registerJump(opcode.JMPEQ, jmpCmp(func(c int) bool { return c == 0 }), false)
	registerJump(opcode.JMPEQL, jmpCmp(func(c int) bool { return c == 0 }), true)
	registerJump(opcode.JMPNE, jmpCmp(func(c int) bool { return c != 0 }), false)
	registerJump(opcode.JMPNEL, jmpCmp(func(c int) bool { return c != 0 }), true)
	registerJump(opcode.JMPGT, jmpCmp(func(c int) bool { return c > 0 }), false)
	registerJump(opcode.JMPGTL, jmpCmp(func(c int) bool { return c > 0 }), true)
	registerJump(opcode.JMPGE, jmpCmp(func(c int) bool { return c >= 0 }), false)
	registerJump(opcode.JMPGEL, jmpCmp(func(c int) bool { return c >= 0 }), true)
	registerJump(opcode.JMPLT, jmpCmp(func(c int) bool { return c < 0 }), false)
	registerJump(opcode.JMPLTL, jmpCmp(func(c int) bool { return c < 0 }), true)
	registerJump(opcode.JMPLE, jmpCmp(func(c int) bool { return c <= 0 }), false)
	registerJump(opcode.JMPLEL, jmpCmp(func(c int) bool { return c <= 0 }), true)

	dispatch[opcode.CALL] = call(false)
	dispatch[opcode.CALLL] = call(true)
	dispatch[opcode.CALLA] = callA
	dispatch[opcode.CALLT] = callT

	dispatch[opcode.RET] = opRet
	dispatch[opcode.SYSCALL] = opSyscall

	dispatch[opcode.ABORT] = func(e *Engine, instr Instruction) (bool, error) {
		return false, ErrAbort
	}
	dispatch[opcode.ASSERT] = func(e *Engine, instr Instruction) (bool, error) {
		ok := e.CurrentContext().Estack().Pop().Bool()
		if !ok {
			return false, ErrAbort
		}
		return false, nil
	}

	dispatch[opcode.TRY] = opTry(false)
	dispatch[opcode.TRYL] = opTry(true)
	dispatch[opcode.ENDTRY] = opEndTry(false)
	dispatch[opcode.ENDTRYL] = opEndTry(true)
	dispatch[opcode.ENDFINALLY] = opEndFinally
	dispatch[opcode.THROW] = opThrow
}

func registerJump(op opcode.Opcode, cond func(e *Engine, ctx *Context) (bool, error), long bool) {
	dispatch[op] = func(e *Engine, instr Instruction) (bool, error) {
		ctx := e.CurrentContext()
		take, err := cond(e, ctx)
		if err != nil {
			return false, err
		}
		if !take {
			return false, nil
		}
		offset := int(instr.TokenI8)
		if long {
			offset = int(instr.TokenI32)
		}
		target, err := jumpTarget(ctx, offset)
		if err != nil {
			return false, err
		}
		ctx.Jump(target)
		return true, nil
	}
}

func jmpAlways(e *Engine, ctx *Context) (bool, error) { return true, nil }

func jmpIf(e *Engine, ctx *Context) (bool, error) {
	return ctx.Estack().Pop().Bool(), nil
}

func jmpIfNot(e *Engine, ctx *Context) (bool, error) {
	return !ctx.Estack().Pop().Bool(), nil
}

func jmpCmp(pred func(int) bool) func(e *Engine, ctx *Context) (bool, error) {
	return func(e *Engine, ctx *Context) (bool, error) {
		b := ctx.Estack().Pop().BigInt()
		a := ctx.Estack().Pop().BigInt()
		return pred(a.Cmp(b)), nil
	}
}

// call, like callA below, advances the caller's own ip past the call
// instruction before pushing the callee, so the caller resumes after the
// CALL on RET; it returns jumped=true so the dispatch loop does not
// advance the caller a second time.
func call(long bool) opFunc {
	return func(e *Engine, instr Instruction) (bool, error) {
		ctx := e.CurrentContext()
		offset := int(instr.TokenI8)
		if long {
			offset = int(instr.TokenI32)
		}
		target, err := jumpTarget(ctx, offset)
		if err != nil {
			return false, err
		}
		ctx.MoveNext(instr)
		return true, enterCall(e, ctx, target)
	}
}

func callA(e *Engine, instr Instruction) (bool, error) {
	ctx := e.CurrentContext()
	ptr, err := RemoveAt[*stackitem.Pointer](ctx.Estack(), 0)
	if err != nil {
		return false, err
	}
	if ptr.ScriptHash() != ctx.ScriptHash() {
		return false, invariantErr("CALLA target script does not match the calling context's script")
	}
	ctx.MoveNext(instr)
	return true, enterCall(e, ctx, ptr.Position())
}

func callT(e *Engine, instr Instruction) (bool, error) {
	return false, invariantErr("CALLT token %d: token table resolution is a host responsibility outside this core", instr.TokenU16)
}

// enterCall clones ctx at target and pushes the clone, subject to
// MaxInvocationStackSize.
func enterCall(e *Engine, ctx *Context, target int) error {
	if e.Istack().Len() >= e.limits.MaxInvocationStackSize {
		return limitErr("invocation stack would exceed MaxInvocationStackSize (%d)", e.limits.MaxInvocationStackSize)
	}
	clone := ctx.Clone(e.refs)
	clone.Jump(target)
	e.pushContext(clone)
	return nil
}

// opRet pops the current frame; if the invocation stack becomes empty the
// popped frame's items move to the result stack, otherwise to the new
// current frame's evaluation stack (unless both are the very same stack
// object).
func opRet(e *Engine, instr Instruction) (bool, error) {
	ctx := e.CurrentContext()
	e.unloadContextKeepingEstack(ctx)

	dst := e.ResultStack()
	if e.Istack().Len() > 0 {
		dst = e.CurrentContext().Estack()
	}
	if ctx.Estack() != dst {
		ctx.estack.CopyTo(dst)
	}

	if e.Istack().Len() == 0 {
		e.setState(Halt)
	}
	return true, nil
}

// unloadContextKeepingEstack pops ctx like unloadContext but skips
// clearing its evaluation stack, since RET still needs to read it before
// the items are moved to the destination stack.
func (e *Engine) unloadContextKeepingEstack(ctx *Context) {
	e.istack = e.istack[:len(e.istack)-1]
	if ctx.local != nil {
		ctx.local.Clear()
	}
	if ctx.arguments != nil {
		ctx.arguments.Clear()
	}
	e.hooks.ContextUnloaded(e, ctx)
}

func opSyscall(e *Engine, instr Instruction) (bool, error) {
	if err := e.hooks.OnSyscall(e, instr.TokenU32); err != nil {
		return false, err
	}
	return false, nil
}

func opTry(long bool) opFunc {
	return func(e *Engine, instr Instruction) (bool, error) {
		ctx := e.CurrentContext()
		var catchOff, finallyOff int
		if long {
			catchOff, finallyOff = int(instr.TokenI32), int(instr.TokenI32_1)
		} else {
			catchOff, finallyOff = int(instr.TokenI8), int(instr.TokenI8_1)
		}
		if catchOff == 0 && finallyOff == 0 {
			return false, invariantErr("TRY with both catch and finally offsets zero")
		}
		catchPtr, finallyPtr := absent, absent
		if catchOff != 0 {
			t, err := jumpTarget(ctx, catchOff)
			if err != nil {
				return false, err
			}
			catchPtr = t
		}
		if finallyOff != 0 {
			t, err := jumpTarget(ctx, finallyOff)
			if err != nil {
				return false, err
			}
			finallyPtr = t
		}
		ctx.PushTry(NewExceptionHandlingContext(catchPtr, finallyPtr))
		return false, nil
	}
}

func opEndTry(long bool) opFunc {
	return func(e *Engine, instr Instruction) (bool, error) {
		ctx := e.CurrentContext()
		if ctx.TryStackLen() == 0 {
			return false, invariantErr("ENDTRY with no matching TRY")
		}
		ehc := ctx.PeekTry()
		if ehc.State == excFinally {
			return false, invariantErr("ENDTRY inside a finally block")
		}
		offset := int(instr.TokenI8)
		if long {
			offset = int(instr.TokenI32)
		}
		end, err := jumpTarget(ctx, offset)
		if err != nil {
			return false, err
		}
		if ehc.HasFinally() {
			ehc.State = excFinally
			ehc.EndPointer = end
			ctx.Jump(ehc.FinallyPointer)
			return true, nil
		}
		ctx.PopTry()
		ctx.Jump(end)
		return true, nil
	}
}

func opEndFinally(e *Engine, instr Instruction) (bool, error) {
	ctx := e.CurrentContext()
	if ctx.TryStackLen() == 0 {
		return false, invariantErr("ENDFINALLY with no matching TRY")
	}
	ehc := ctx.PopTry()
	if e.UncaughtException() != nil {
		e.reraiseOrFault()
		return true, nil
	}
	ctx.Jump(ehc.EndPointer)
	return true, nil
}

func opThrow(e *Engine, instr Instruction) (bool, error) {
	item := e.CurrentContext().Estack().Pop().Item()
	e.Throw(item)
	return true, nil
}
