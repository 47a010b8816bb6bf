package vm

// Hooks is the engine's extension-point interface, consumed by embedders
// wanting gas accounting, tracing, or a syscall table. Every method has a
// matching no-op default via NopHooks, so embedders only implement what
// they need.
type Hooks interface {
	// PreExecuteInstruction runs before the current instruction executes;
	// returning an error aborts the instruction and routes to OnFault
	// without it ever running (used by embedders enforcing deadlines/gas).
	PreExecuteInstruction(e *Engine, instr Instruction) error
	// PostExecuteInstruction runs after a successful instruction.
	PostExecuteInstruction(e *Engine, instr Instruction)
	// OnSyscall is invoked by the SYSCALL opcode with the raw method id;
	// the syscall dispatcher itself is out of scope for the core.
	OnSyscall(e *Engine, methodID uint32) error
	// OnFault runs when the dispatch loop catches an error.
	OnFault(e *Engine, err error)
	// OnStateChanged runs on every State transition.
	OnStateChanged(e *Engine, from, to State)
	// LoadContext runs when a context is pushed onto the invocation stack.
	LoadContext(e *Engine, ctx *Context)
	// ContextUnloaded runs when a context is popped off the invocation
	// stack, after its references have been released.
	ContextUnloaded(e *Engine, ctx *Context)
}

// NopHooks implements Hooks with every method a no-op, embeddable to
// override only the methods an embedder cares about.
type NopHooks struct{}

func (NopHooks) PreExecuteInstruction(*Engine, Instruction) error { return nil }
func (NopHooks) PostExecuteInstruction(*Engine, Instruction)      {}

// OnSyscall defaults to LoggingSyscallHandler, so SYSCALL always faults
// unless an embedder overrides this method with a real syscall table.
func (NopHooks) OnSyscall(v *Engine, id uint32) error {
	return LoggingSyscallHandler{}.Call(v, id)
}

func (NopHooks) OnFault(*Engine, error)               {}
func (NopHooks) OnStateChanged(*Engine, State, State) {}
func (NopHooks) LoadContext(*Engine, *Context)        {}
func (NopHooks) ContextUnloaded(*Engine, *Context)    {}
