// Package vm implements the execution core of a stack-based bytecode
// virtual machine: opcode dispatch, a typed evaluation stack,
// reference-counted compound items, nested call frames and a structured
// try/catch/finally exception protocol.
package vm

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/vladimirpotek/neo-vm/pkg/vm/limits"
	"github.com/vladimirpotek/neo-vm/pkg/vm/opcode"
	"github.com/vladimirpotek/neo-vm/pkg/vm/stackitem"
)

// opFunc executes the effect of one instruction. It returns jumped=true
// if it already adjusted the current context's instruction pointer
// (JMP*, CALL*, RET, ENDTRY*, ENDFINALLY, THROW), telling the dispatch
// loop to skip the implicit MoveNext.
type opFunc func(e *Engine, instr Instruction) (jumped bool, err error)

var dispatch = map[opcode.Opcode]opFunc{}

// Engine is the dispatch loop, invocation-stack manager and structured
// exception unwinder described in §4.5/§4.6.
type Engine struct {
	id string

	state State

	refs *ReferenceCounter

	istack []*Context

	resultStack *Stack

	uncaughtException stackitem.Item

	hooks   Hooks
	limits  limits.Config
	decoder Decoder
}

// NewEngine returns a fresh Engine in state Break. hooks may be nil
// (defaults to NopHooks); lim defaults to limits.Default() if zero-valued.
func NewEngine(decoder Decoder, hooks Hooks, lim limits.Config) *Engine {
	if hooks == nil {
		hooks = NopHooks{}
	}
	if lim == (limits.Config{}) {
		lim = limits.Default()
	}
	refs := NewReferenceCounter()
	return &Engine{
		id:          uuid.NewString(),
		state:       Break,
		refs:        refs,
		resultStack: NewStack("result", refs),
		hooks:       hooks,
		limits:      lim,
		decoder:     decoder,
	}
}

// ID returns a unique identifier generated when the engine was
// constructed, for correlating log lines and metrics from this instance
// when several engines share one process-wide logger or registry.
func (e *Engine) ID() string { return e.id }

// State returns the engine's current run state.
func (e *Engine) State() State { return e.state }

// ReferenceCounter returns the engine's reference counter.
func (e *Engine) ReferenceCounter() *ReferenceCounter { return e.refs }

// ResultStack returns the stack that receives the entry frame's evaluation
// stack contents on its final RET.
func (e *Engine) ResultStack() *Stack { return e.resultStack }

// UncaughtException returns the pending exception item, or nil if none.
func (e *Engine) UncaughtException() stackitem.Item { return e.uncaughtException }

// CurrentContext returns the top of the invocation stack, or nil if empty.
func (e *Engine) CurrentContext() *Context {
	if len(e.istack) == 0 {
		return nil
	}
	return e.istack[len(e.istack)-1]
}

// EntryContext returns the bottom of the invocation stack, or nil if
// empty. Set when the first context is loaded, cleared when the
// invocation stack returns to empty.
func (e *Engine) EntryContext() *Context {
	if len(e.istack) == 0 {
		return nil
	}
	return e.istack[0]
}

// istackLen reports the invocation stack depth.
func (e *Engine) istackLen() int { return len(e.istack) }

// Istack exposes the invocation stack depth and peek access, the
// read-only view syscalls and embedders are allowed.
func (e *Engine) Istack() InvocationStackView { return InvocationStackView{e} }

// InvocationStackView is a read-only view over the engine's call frames.
type InvocationStackView struct{ e *Engine }

// Len returns the invocation stack depth.
func (v InvocationStackView) Len() int { return v.e.istackLen() }

// Peek returns the context n frames from the top (0 = current).
func (v InvocationStackView) Peek(n int) *Context {
	idx := len(v.e.istack) - 1 - n
	if idx < 0 || idx >= len(v.e.istack) {
		return nil
	}
	return v.e.istack[idx]
}

// LoadScript pushes a new top-level frame over script and returns it.
func (e *Engine) LoadScript(script Script, initialPosition int) (*Context, error) {
	if len(e.istack) >= e.limits.MaxInvocationStackSize {
		return nil, limitErr("invocation stack would exceed MaxInvocationStackSize (%d)", e.limits.MaxInvocationStackSize)
	}
	ctx := NewContext(script, e.decoder, e.refs, -1)
	ctx.ip = initialPosition
	e.pushContext(ctx)
	return ctx, nil
}

func (e *Engine) pushContext(ctx *Context) {
	e.istack = append(e.istack, ctx)
	e.hooks.LoadContext(e, ctx)
}

// unloadContext pops ctx (which must be the current top) and releases its
// local/argument references and evaluation stack. Static fields are not
// released here: a static slot's items stay counted by the reference
// counter after the frames sharing it unload.
func (e *Engine) unloadContext(ctx *Context) {
	e.istack = e.istack[:len(e.istack)-1]
	ctx.Unload()
	e.hooks.ContextUnloaded(e, ctx)
}

// setState transitions the engine to s, firing the state-changed hook if
// it actually changed.
func (e *Engine) setState(s State) {
	if e.state == s {
		return
	}
	from := e.state
	e.state = s
	e.hooks.OnStateChanged(e, from, s)
}

// Execute runs the dispatch loop to completion (Halt or Fault).
func (e *Engine) Execute() State {
	e.setState(Break)
	for e.state != Halt && e.state != Fault {
		e.ExecuteNext()
	}
	return e.state
}

// ExecuteNext performs a single dispatch step, per §4.5.
func (e *Engine) ExecuteNext() {
	if len(e.istack) == 0 {
		e.setState(Halt)
		return
	}

	if err := e.step(); err != nil {
		e.fault(err)
	}
}

// step executes exactly one instruction, recovering from any panic raised
// by opcode handlers (Element accessors panic on a failed coercion) and
// turning it into a regular error for the fault path.
func (e *Engine) step() (err error) {
	defer func() {
		if r := recover(); r != nil {
			if rerr, ok := r.(error); ok {
				err = rerr
			} else {
				err = fmt.Errorf("%w: %v", ErrType, r)
			}
		}
	}()

	ctx := e.CurrentContext()
	instr, derr := ctx.CurrentInstruction()
	if derr != nil {
		return derr
	}
	if err := e.hooks.PreExecuteInstruction(e, instr); err != nil {
		// A pre-step hook error is never offered to a try frame.
		e.hooks.OnFault(e, err)
		e.setState(Fault)
		return nil
	}
	if err := e.executeInstruction(ctx, instr); err != nil {
		return err
	}
	e.hooks.PostExecuteInstruction(e, instr)

	if e.refs.CheckZeroReferred() > e.limits.MaxStackSize {
		return limitErr("reference counter exceeds MaxStackSize (%d)", e.limits.MaxStackSize)
	}
	return nil
}

// executeInstruction performs instr's effect, then advances ip unless the
// handler already did so.
func (e *Engine) executeInstruction(ctx *Context, instr Instruction) error {
	fn, ok := dispatch[instr.Opcode]
	if !ok {
		return decodeErr("no handler registered for opcode %s", instr.Opcode)
	}
	jumped, err := fn(e, instr)
	if err != nil {
		return err
	}
	if !jumped {
		ctx.MoveNext(instr)
	}
	return nil
}

// fault routes err to OnFault and sets state=Fault, unless err represents
// an implicit throw that a try frame can still handle. ABORT/ASSERT are
// explicit faults and always bypass the unwinder.
func (e *Engine) fault(err error) {
	if !errors.Is(err, ErrAbort) && e.tryHandleAsException(err) {
		return
	}
	e.hooks.OnFault(e, err)
	e.setState(Fault)
}

// tryHandleAsException sends implicit throws to the same unwinder THROW
// uses: any non-explicit error surfacing from execute_instruction while a
// try frame exists is an "implicit throw" per §7, so it is offered to the
// unwinder before faulting outright.
func (e *Engine) tryHandleAsException(err error) bool {
	if e.istackLen() == 0 || !anyFrameHasTry(e) {
		return false
	}
	e.uncaughtException = stackitem.NewByteArray([]byte(err.Error()))
	return e.HandleException()
}

// anyFrameHasTry reports whether any frame at or below the current one
// still has an active try frame, avoiding the cost of entering
// HandleException (which unloads frames) when nothing could possibly
// catch.
func anyFrameHasTry(e *Engine) bool {
	for i := len(e.istack) - 1; i >= 0; i-- {
		if e.istack[i].TryStackLen() > 0 {
			return true
		}
	}
	return false
}

// Throw sets the pending exception to item and invokes the unwinder.
func (e *Engine) Throw(item stackitem.Item) {
	e.uncaughtException = item
	e.reraiseOrFault()
}

// reraiseOrFault invokes the unwinder for the already-set pending
// exception, faulting if the walk is exhausted with no handler found.
func (e *Engine) reraiseOrFault() {
	item := e.uncaughtException
	if !e.HandleException() {
		e.hooks.OnFault(e, fmt.Errorf("%w: %s", ErrUnhandledException, stringify(item)))
		e.setState(Fault)
	}
}

func stringify(item stackitem.Item) string {
	if item == nil {
		return "<nil>"
	}
	return item.String()
}

// HandleException walks the invocation stack outward from the current
// frame, then each frame's try stack top-down, looking for a handler for
// e.uncaughtException. It returns true if a handler was found (and jumped
// to), false if the walk was exhausted.
func (e *Engine) HandleException() bool {
	for len(e.istack) > 0 {
		ctx := e.CurrentContext()
		for ctx.TryStackLen() > 0 {
			ehc := ctx.PeekTry()

			switch {
			case ehc.State == excFinally:
				ctx.PopTry()
				continue
			case ehc.State == excCatch && !ehc.HasFinally():
				ctx.PopTry()
				continue
			case ehc.State == excTry && ehc.HasCatch():
				ehc.State = excCatch
				item := e.uncaughtException
				e.uncaughtException = nil
				ctx.Estack().PushItem(item)
				ctx.Jump(ehc.CatchPointer)
				return true
			default:
				// State Try without catch, or Catch with finally: run finally.
				if ehc.HasFinally() {
					ehc.State = excFinally
					ctx.Jump(ehc.FinallyPointer)
					return true
				}
				ctx.PopTry()
			}
		}
		e.unloadContext(ctx)
	}
	return false
}
