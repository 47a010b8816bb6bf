package vm

import "github.com/vladimirpotek/neo-vm/pkg/vm/scripthash"

// Context is one call frame: a script reference, an instruction pointer,
// an evaluation stack, optional static/local/argument slots, and an
// optional try-frame stack.
type Context struct {
	script Script
	ip     int

	estack *Stack

	static    *Slot
	local     *Slot
	arguments *Slot

	tryStack []*ExceptionHandlingContext

	// retCount is the number of values the caller expects back; -1 means
	// "unconstrained" (the entry context).
	retCount int

	decoder Decoder
}

// NewContext returns a fresh top-level Context over script, with a new
// evaluation stack and no slots or try frames.
func NewContext(script Script, decoder Decoder, refs *ReferenceCounter, retCount int) *Context {
	return &Context{
		script:   script,
		estack:   NewStack("estack", refs),
		retCount: retCount,
		decoder:  decoder,
	}
}

// Estack returns the context's evaluation stack.
func (c *Context) Estack() *Stack { return c.estack }

// IP returns the current instruction pointer.
func (c *Context) IP() int { return c.ip }

// Script returns the context's script.
func (c *Context) Script() Script { return c.script }

// ScriptHash returns the Hash160 digest of the context's script. A
// separate accessor from Script() since Script.Hash has a pointer
// receiver (it caches the digest) and c.script, unlike a Script returned
// by value from Script(), is addressable.
func (c *Context) ScriptHash() scripthash.Hash { return c.script.Hash() }

// Jump unconditionally moves the instruction pointer to pos. pos must
// satisfy 0 ≤ pos ≤ script length; callers validate before calling Jump.
func (c *Context) Jump(pos int) { c.ip = pos }

// CurrentInstruction decodes the instruction at the current ip. If ip is
// at or past the script length, it synthesizes a RET of size 1, which is
// how scripts terminate without an explicit RET.
func (c *Context) CurrentInstruction() (Instruction, error) {
	return c.decoder.Decode(c.script.Bytes(), c.ip, c.ScriptHash())
}

// MoveNext advances the instruction pointer past instr.
func (c *Context) MoveNext(instr Instruction) { c.ip += instr.Size }

// PushTry pushes a new exception handling context onto the try stack.
func (c *Context) PushTry(ehc *ExceptionHandlingContext) {
	c.tryStack = append(c.tryStack, ehc)
}

// PeekTry returns the top exception handling context, or nil if the try
// stack is empty.
func (c *Context) PeekTry() *ExceptionHandlingContext {
	if len(c.tryStack) == 0 {
		return nil
	}
	return c.tryStack[len(c.tryStack)-1]
}

// PopTry pops and returns the top exception handling context.
func (c *Context) PopTry() *ExceptionHandlingContext {
	l := len(c.tryStack)
	ehc := c.tryStack[l-1]
	c.tryStack = c.tryStack[:l-1]
	return ehc
}

// TryStackLen reports the depth of the try stack.
func (c *Context) TryStackLen() int { return len(c.tryStack) }

// RetCount returns the number of return values the caller expects.
func (c *Context) RetCount() int { return c.retCount }

// InitStaticSlot allocates the static-field slot. Calling it twice on the
// same context is an invariant violation.
func (c *Context) InitStaticSlot(n int, refs *ReferenceCounter) error {
	if c.static != nil {
		return invariantErr("INITSSLOT called twice on the same frame")
	}
	c.static = NewSlot(n, refs)
	return nil
}

// InitSlots allocates the local and argument slots in one step, as
// INITSLOT does, populating arguments by popping argCount values off the
// evaluation stack in order. Calling it twice on the same context is an
// invariant violation.
func (c *Context) InitSlots(localCount, argCount int, refs *ReferenceCounter) error {
	if c.local != nil || c.arguments != nil {
		return invariantErr("INITSLOT called twice on the same frame")
	}
	c.local = NewSlot(localCount, refs)
	c.arguments = NewSlot(argCount, refs)
	for i := 0; i < argCount; i++ {
		if c.estack.Len() == 0 {
			return rangeErr("INITSLOT: not enough arguments on the evaluation stack")
		}
		e := c.estack.Pop()
		if err := c.arguments.Set(i, e.Item()); err != nil {
			return err
		}
	}
	return nil
}

// StaticSlot, LocalSlot and ArgumentSlot return the context's slots, or
// nil if the corresponding INIT* opcode never ran.
func (c *Context) StaticSlot() *Slot   { return c.static }
func (c *Context) LocalSlot() *Slot    { return c.local }
func (c *Context) ArgumentSlot() *Slot { return c.arguments }

// Clone produces a new Context sharing this context's script and static
// field slot, but with a fresh instruction pointer, evaluation stack,
// local/argument slots (both absent until INITSLOT runs) and try stack.
// CALL uses this to set up the callee's frame.
func (c *Context) Clone(refs *ReferenceCounter) *Context {
	return &Context{
		script:   c.script,
		ip:       0,
		estack:   NewStack("estack", refs),
		static:   c.static,
		decoder:  c.decoder,
		retCount: 0,
	}
}

// SharesStaticSlotWith reports whether c and other were linked by Clone
// (i.e. share the same static field slot instance).
func (c *Context) SharesStaticSlotWith(other *Context) bool {
	return c.static != nil && c.static == other.static
}

// Unload releases the references held by this context's local and
// argument slots and clears its evaluation stack. The static field slot is
// left untouched (see Engine.unloadContext).
func (c *Context) Unload() {
	if c.local != nil {
		c.local.Clear()
	}
	if c.arguments != nil {
		c.arguments.Clear()
	}
	c.estack.Clear()
}
