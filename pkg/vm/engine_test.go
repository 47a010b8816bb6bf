package vm

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladimirpotek/neo-vm/pkg/vm/limits"
	"github.com/vladimirpotek/neo-vm/pkg/vm/opcode"
	"github.com/vladimirpotek/neo-vm/pkg/vm/stackitem"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine(DefaultDecoder{}, nil, limits.Default())
}

func runScript(t *testing.T, prog []byte) *Engine {
	t.Helper()
	e := newTestEngine(t)
	_, err := e.LoadScript(NewScript(prog), 0)
	require.NoError(t, err)
	e.Execute()
	return e
}

func resultInts(t *testing.T, e *Engine) []int64 {
	t.Helper()
	items := e.ResultStack().ToArray()
	out := make([]int64, len(items))
	for i, it := range items {
		n, err := it.TryInteger()
		require.NoError(t, err)
		out[i] = n.Int64()
	}
	return out
}

// Each engine gets a distinct ID so log lines and metrics from concurrent
// instances sharing one logger/registry can be told apart.
func TestEngineID_UniquePerInstance(t *testing.T) {
	a := newTestEngine(t)
	b := newTestEngine(t)
	assert.NotEmpty(t, a.ID())
	assert.NotEqual(t, a.ID(), b.ID())
}

// Scenario A: PUSH2 PUSH3 ADD RET. Expect HALT; result_stack = [5].
func TestScenarioA_ArithmeticHalt(t *testing.T) {
	prog := []byte{byte(opcode.PUSH2), byte(opcode.PUSH3), byte(opcode.ADD), byte(opcode.RET)}
	e := runScript(t, prog)
	assert.Equal(t, Halt, e.State())
	assert.Equal(t, []int64{5}, resultInts(t, e))
}

// Scenario B: PUSH1 JMPIF +4 PUSH7 RET PUSH9 RET. Expect HALT; result_stack = [9].
func TestScenarioB_ConditionalJump(t *testing.T) {
	prog := []byte{
		byte(opcode.PUSH1),
		byte(opcode.JMPIF), 0x04,
		byte(opcode.PUSH7),
		byte(opcode.RET),
		byte(opcode.PUSH9),
		byte(opcode.RET),
	}
	e := runScript(t, prog)
	assert.Equal(t, Halt, e.State())
	assert.Equal(t, []int64{9}, resultInts(t, e))
}

// Scenario C: TRY catch=+L1 finally=0 PUSHINT8 0x2A THROW PUSH1 RET ; L1: DROP PUSH7 ENDTRY +L2 ; L2: RET.
// Expect HALT; result_stack = [7]; the thrown 42 is pushed for the catch
// block, which consumes it with DROP.
func TestScenarioC_TryCatch(t *testing.T) {
	// offsets, relative to each instruction's own start:
	// 0: TRY   (3 bytes: opcode + catchOff + finallyOff)
	// 3: PUSHINT8 0x2A (2 bytes)
	// 5: THROW (1 byte)
	// 6: PUSH1 (1 byte)      -- never reached
	// 7: RET   (1 byte)      -- never reached
	// 8 (L1): DROP (1 byte)  -- consumes the caught 42
	// 9: PUSH7 (1 byte)
	// 10: ENDTRY +2 (2 bytes) -> target 10+2=12 (L2)
	// 12 (L2): RET
	tryPos := 0
	catchTarget := 8 // L1
	prog := []byte{
		byte(opcode.TRY), byte(int8(catchTarget - tryPos)), 0,
		byte(opcode.PUSHINT8), 0x2A,
		byte(opcode.THROW),
		byte(opcode.PUSH1),
		byte(opcode.RET),
		// L1 = 8
		byte(opcode.DROP),
		byte(opcode.PUSH7),
		byte(opcode.ENDTRY), 0, // placeholder, patched below
		// L2 = 12
		byte(opcode.RET),
	}
	endtryPos := 10
	l2 := 12
	prog[endtryPos+1] = byte(int8(l2 - endtryPos))

	e := runScript(t, prog)
	assert.Equal(t, Halt, e.State())
	assert.Equal(t, []int64{7}, resultInts(t, e))
	assert.Nil(t, e.UncaughtException())
}

// Scenario D: TRY catch=0 finally=+LF PUSHINT8 0x01 THROW ; LF: PUSH9 DROP ENDFINALLY.
// Expect FAULT (unhandled); at fault, uncaught_exception is the Integer 1.
func TestScenarioD_TryFinallyRethrow(t *testing.T) {
	tryPos := 0
	finallyTarget := 6 // LF
	prog := []byte{
		byte(opcode.TRY), 0, byte(int8(finallyTarget - tryPos)),
		byte(opcode.PUSHINT8), 0x01,
		byte(opcode.THROW),
		// LF = 6
		byte(opcode.PUSH9),
		byte(opcode.DROP),
		byte(opcode.ENDFINALLY),
	}
	e := newTestEngine(t)
	_, err := e.LoadScript(NewScript(prog), 0)
	require.NoError(t, err)
	e.Execute()

	assert.Equal(t, Fault, e.State())
	bi, ok := e.UncaughtException().(*stackitem.BigInteger)
	require.True(t, ok, "expected uncaught exception to be Integer 1, got %T", e.UncaughtException())
	assert.Equal(t, int64(1), bi.Big().Int64())
}

// Scenario E: NEWARRAY with size MaxStackSize+1 faults on its first execution.
func TestScenarioE_LimitEnforcement(t *testing.T) {
	lim := limits.Default()
	lim.MaxStackSize = 4
	e := NewEngine(DefaultDecoder{}, nil, lim)

	n := big.NewInt(int64(lim.MaxStackSize + 1))
	nb := n.Bytes()
	prog := []byte{
		byte(opcode.PUSHINT32), nb[0], 0, 0, 0,
		byte(opcode.NEWARRAY),
		byte(opcode.RET),
	}
	_, err := e.LoadScript(NewScript(prog), 0)
	require.NoError(t, err)
	e.Execute()
	assert.Equal(t, Fault, e.State())
}

// Scenario F: CALL +Lf PUSH2 RET ; Lf: PUSH1 RET.
// Expect HALT; result_stack in top-first order = [2, 1].
func TestScenarioF_CallReturn(t *testing.T) {
	callPos := 0
	lf := 4
	prog := []byte{
		byte(opcode.CALL), byte(int8(lf - callPos)),
		byte(opcode.PUSH2),
		byte(opcode.RET),
		// Lf = 4
		byte(opcode.PUSH1),
		byte(opcode.RET),
	}
	e := runScript(t, prog)
	assert.Equal(t, Halt, e.State())
	assert.Equal(t, []int64{2, 1}, resultInts(t, e))
}

// Invariant 1: invocation stack depth never exceeds MaxInvocationStackSize.
func TestInvariant_InvocationStackSizeLimit(t *testing.T) {
	lim := limits.Default()
	lim.MaxInvocationStackSize = 2
	e := NewEngine(DefaultDecoder{}, nil, lim)

	// A script that calls itself forever: CALL 0 (self-relative offset 0).
	prog := []byte{byte(opcode.CALL), 0x00}
	_, err := e.LoadScript(NewScript(prog), 0)
	require.NoError(t, err)
	e.Execute()
	assert.Equal(t, Fault, e.State())
}

// Boundary: SHL/SHR with shift=MaxShift succeed; shift=MaxShift+1 faults.
func TestBoundary_ShiftLimits(t *testing.T) {
	lim := limits.Default()

	// Value 0 keeps the shifted result well within MaxBigIntegerSizeBits
	// regardless of shift amount, isolating the shift-range check itself
	// from the separate integer-overflow invariant.
	okProg := []byte{
		byte(opcode.PUSH0),
		byte(opcode.PUSHINT16), byte(lim.MaxShift), byte(lim.MaxShift >> 8),
		byte(opcode.SHL),
		byte(opcode.RET),
	}
	e := runScript(t, okProg)
	require.Equal(t, Halt, e.State())

	over := lim.MaxShift + 1
	badProg := []byte{
		byte(opcode.PUSH0),
		byte(opcode.PUSHINT16), byte(over), byte(over >> 8),
		byte(opcode.SHL),
		byte(opcode.RET),
	}
	e2 := runScript(t, badProg)
	assert.Equal(t, Fault, e2.State())
}

// Boundary: DIV/MOD by zero faults.
func TestBoundary_DivModByZero(t *testing.T) {
	divProg := []byte{
		byte(opcode.PUSH1), byte(opcode.PUSH0), byte(opcode.DIV), byte(opcode.RET),
	}
	e := runScript(t, divProg)
	assert.Equal(t, Fault, e.State())

	modProg := []byte{
		byte(opcode.PUSH1), byte(opcode.PUSH0), byte(opcode.MOD), byte(opcode.RET),
	}
	e2 := runScript(t, modProg)
	assert.Equal(t, Fault, e2.State())
}

// Boundary: jump to script.length is legal; jumping to script.length+1 faults.
func TestBoundary_JumpToScriptLength(t *testing.T) {
	// JMP (2 bytes) to exactly the end of the 2-byte script: offset=2.
	prog := []byte{byte(opcode.JMP), 0x02}
	e := runScript(t, prog)
	// Falling off the end synthesizes RET, so this halts cleanly.
	assert.Equal(t, Halt, e.State())

	prog2 := []byte{byte(opcode.JMP), 0x03}
	e2 := runScript(t, prog2)
	assert.Equal(t, Fault, e2.State())
}

// Round-trip: PACK then UNPACK reproduces the original sequence and pushes the count.
func TestRoundTrip_PackUnpack(t *testing.T) {
	prog := []byte{
		byte(opcode.PUSH1), byte(opcode.PUSH2), byte(opcode.PUSH3),
		byte(opcode.PUSH3), // count
		byte(opcode.PACK),
		byte(opcode.UNPACK),
		byte(opcode.RET),
	}
	e := runScript(t, prog)
	require.Equal(t, Halt, e.State())
	assert.Equal(t, []int64{3, 3, 2, 1}, resultInts(t, e))
}

// Boundary: MEMCPY with count=0 is a no-op that still fully settles the
// reference counter — it must not leave the destination Buffer rooted a
// second time with nothing on any stack or slot to hold that root.
func TestBoundary_MemcpyZeroCount(t *testing.T) {
	prog := []byte{
		byte(opcode.PUSH1), // buffer length
		byte(opcode.NEWBUFFER),
		byte(opcode.PUSH0), // dstIndex
		byte(opcode.PUSHDATA1), 0x01, 0xFF, // src = [0xFF]
		byte(opcode.PUSH0), // srcIndex
		byte(opcode.PUSH0), // count
		byte(opcode.MEMCPY),
		byte(opcode.RET),
	}
	e := runScript(t, prog)
	require.Equal(t, Halt, e.State())
	assert.Equal(t, 0, e.ReferenceCounter().CheckZeroReferred(),
		"MEMCPY count=0 must not leave a phantom reference once the destination buffer is dropped")
}

// CAT concatenates two byte strings into a Buffer, size-checked against
// MaxItemSize.
func TestSplice_Cat(t *testing.T) {
	prog := []byte{
		byte(opcode.PUSHDATA1), 0x02, 0x01, 0x02,
		byte(opcode.PUSHDATA1), 0x02, 0x03, 0x04,
		byte(opcode.CAT),
		byte(opcode.RET),
	}
	e := runScript(t, prog)
	require.Equal(t, Halt, e.State())
	items := e.ResultStack().ToArray()
	require.Len(t, items, 1)
	bs, err := items[0].TryBytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, bs)
}

// SUBSTR, LEFT and RIGHT slice a byte string per their documented bounds.
func TestSplice_SubstrLeftRight(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05}

	substrProg := append([]byte{byte(opcode.PUSHDATA1), byte(len(data))}, data...)
	substrProg = append(substrProg, byte(opcode.PUSH1), byte(opcode.PUSH3), byte(opcode.SUBSTR), byte(opcode.RET))
	e := runScript(t, substrProg)
	require.Equal(t, Halt, e.State())
	bs, err := e.ResultStack().ToArray()[0].TryBytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x02, 0x03, 0x04}, bs)

	leftProg := append([]byte{byte(opcode.PUSHDATA1), byte(len(data))}, data...)
	leftProg = append(leftProg, byte(opcode.PUSH2), byte(opcode.LEFT), byte(opcode.RET))
	e2 := runScript(t, leftProg)
	require.Equal(t, Halt, e2.State())
	bs2, err := e2.ResultStack().ToArray()[0].TryBytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02}, bs2)

	rightProg := append([]byte{byte(opcode.PUSHDATA1), byte(len(data))}, data...)
	rightProg = append(rightProg, byte(opcode.PUSH2), byte(opcode.RIGHT), byte(opcode.RET))
	e3 := runScript(t, rightProg)
	require.Equal(t, Halt, e3.State())
	bs3, err := e3.ResultStack().ToArray()[0].TryBytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x04, 0x05}, bs3)
}

// MEMCPY with a nonzero count copies src into dst at the given offsets.
func TestSplice_MemcpyCopiesBytes(t *testing.T) {
	// MEMCPY is void and consumes its destination operand, so the buffer
	// is round-tripped through a local slot (same underlying object, no
	// Dup) to observe the in-place mutation after the call.
	prog := []byte{
		byte(opcode.INITSLOT), 0x01, 0x00, // 1 local, 0 args
		byte(opcode.PUSH4), // buffer length
		byte(opcode.NEWBUFFER),
		byte(opcode.STLOC0),
		byte(opcode.LDLOC0),
		byte(opcode.PUSH1), // dstIndex
		byte(opcode.PUSHDATA1), 0x02, 0xAA, 0xBB, // src
		byte(opcode.PUSH0), // srcIndex
		byte(opcode.PUSH2), // count
		byte(opcode.MEMCPY),
		byte(opcode.LDLOC0),
		byte(opcode.RET),
	}
	e := runScript(t, prog)
	require.Equal(t, Halt, e.State())
	items := e.ResultStack().ToArray()
	require.Len(t, items, 1)
	buf, ok := items[0].(*stackitem.Buffer)
	require.True(t, ok)
	assert.Equal(t, []byte{0x00, 0xAA, 0xBB, 0x00}, buf.Bytes())
}

// Round-trip: REVERSEITEMS applied twice is the identity on an array.
func TestRoundTrip_ReverseItemsTwice(t *testing.T) {
	prog := []byte{
		byte(opcode.PUSH1), byte(opcode.PUSH2), byte(opcode.PUSH3),
		byte(opcode.PUSH3), // count
		byte(opcode.PACK),
		byte(opcode.DUP), // REVERSEITEMS consumes its operand
		byte(opcode.REVERSEITEMS),
		byte(opcode.DUP),
		byte(opcode.REVERSEITEMS),
		byte(opcode.RET),
	}
	e := runScript(t, prog)
	require.Equal(t, Halt, e.State())
	items := e.ResultStack().ToArray()
	require.Len(t, items, 1)
	arr, ok := items[0].(*stackitem.Array)
	require.True(t, ok)
	require.Equal(t, 3, arr.Len())
	assert.Equal(t, int64(1), mustInt(t, arr.Get(0)))
	assert.Equal(t, int64(2), mustInt(t, arr.Get(1)))
	assert.Equal(t, int64(3), mustInt(t, arr.Get(2)))
}

func mustInt(t *testing.T, it stackitem.Item) int64 {
	t.Helper()
	n, err := it.TryInteger()
	require.NoError(t, err)
	return n.Int64()
}

// Boundary: NEWARRAY with n=MaxStackSize succeeds; n=MaxStackSize+1 faults.
func TestBoundary_NewArrayAtStackSizeLimit(t *testing.T) {
	lim := limits.Default()
	lim.MaxStackSize = 4

	okProg := []byte{
		byte(opcode.PUSH4), // == MaxStackSize
		byte(opcode.NEWARRAY),
		byte(opcode.RET),
	}
	e := NewEngine(DefaultDecoder{}, nil, lim)
	_, err := e.LoadScript(NewScript(okProg), 0)
	require.NoError(t, err)
	e.Execute()
	assert.Equal(t, Halt, e.State())

	badProg := []byte{
		byte(opcode.PUSH4),
		byte(opcode.PUSH1),
		byte(opcode.ADD), // == MaxStackSize + 1
		byte(opcode.NEWARRAY),
		byte(opcode.RET),
	}
	e2 := NewEngine(DefaultDecoder{}, nil, lim)
	_, err = e2.LoadScript(NewScript(badProg), 0)
	require.NoError(t, err)
	e2.Execute()
	assert.Equal(t, Fault, e2.State())
}

// Round-trip: CONVERT(x, type_of(x)) is identity for primitive types.
func TestRoundTrip_ConvertIdentity(t *testing.T) {
	prog := []byte{
		byte(opcode.PUSH5),
		byte(opcode.DUP),
		byte(opcode.CONVERT), byte(stackitem.IntegerT),
		byte(opcode.EQUAL),
		byte(opcode.RET),
	}
	e := runScript(t, prog)
	require.Equal(t, Halt, e.State())
	items := e.ResultStack().ToArray()
	require.Len(t, items, 1)
	b, err := items[0].TryBool()
	require.NoError(t, err)
	assert.True(t, b)
}

// Faulting errors are wrapped so errors.Is still matches the sentinel.
func TestFault_SentinelWrapping(t *testing.T) {
	prog := []byte{byte(opcode.PUSH1), byte(opcode.PUSH0), byte(opcode.DIV), byte(opcode.RET)}
	e := newTestEngine(t)
	var captured error
	e.hooks = &captureHooks{onFault: func(err error) { captured = err }}
	_, err := e.LoadScript(NewScript(prog), 0)
	require.NoError(t, err)
	e.Execute()
	require.Error(t, captured)
	assert.True(t, errors.Is(captured, ErrArithmetic))
}

// SYSCALL with no installed handler override faults via the default
// LoggingSyscallHandler, which recognizes no method ids.
func TestSyscall_DefaultHandlerAlwaysErrors(t *testing.T) {
	prog := []byte{
		byte(opcode.SYSCALL), 0x01, 0x02, 0x03, 0x04,
		byte(opcode.RET),
	}
	var captured error
	e := newTestEngine(t)
	e.hooks = &captureHooks{onFault: func(err error) { captured = err }}
	_, err := e.LoadScript(NewScript(prog), 0)
	require.NoError(t, err)
	e.Execute()
	require.Equal(t, Fault, e.State())
	assert.True(t, errors.Is(captured, ErrSyscall))
}

// An embedder overriding OnSyscall (e.g. wiring a real SyscallHandler) can
// make SYSCALL succeed for a recognized method id.
func TestSyscall_CustomHandlerCanSucceed(t *testing.T) {
	prog := []byte{
		byte(opcode.SYSCALL), 0xEF, 0xBE, 0xAD, 0xDE,
		byte(opcode.RET),
	}
	e := newTestEngine(t)
	e.hooks = &stubSyscallHooks{allowed: 0xDEADBEEF}
	_, err := e.LoadScript(NewScript(prog), 0)
	require.NoError(t, err)
	e.Execute()
	require.Equal(t, Halt, e.State())
}

type stubSyscallHooks struct {
	NopHooks
	allowed uint32
}

func (h *stubSyscallHooks) OnSyscall(e *Engine, id uint32) error {
	if id == h.allowed {
		return nil
	}
	return LoggingSyscallHandler{}.Call(e, id)
}

type captureHooks struct {
	NopHooks
	onFault func(err error)
}

func (h *captureHooks) OnFault(e *Engine, err error) {
	if h.onFault != nil {
		h.onFault(err)
	}
}
