package vm

import (
	"errors"
	"fmt"
)

// Sentinel error kinds, matched with errors.Is by callers (metrics labels,
// fault handlers). The wrapped message carries the opcode-specific detail.
var (
	// ErrDecode signals a malformed instruction at the current ip.
	ErrDecode = errors.New("decode error")
	// ErrRange signals an operand or computed index out of bounds.
	ErrRange = errors.New("range error")
	// ErrType signals an opcode operand of the wrong stack item variant.
	ErrType = errors.New("type error")
	// ErrLimit signals that a configured resource ceiling was exceeded.
	ErrLimit = errors.New("limit error")
	// ErrArithmetic signals divide-by-zero or integer decode oversize.
	ErrArithmetic = errors.New("arithmetic error")
	// ErrInvariant signals a structural misuse the dispatch loop refuses to
	// tolerate (double INITSLOT, ENDTRY with no matching try, and so on).
	ErrInvariant = errors.New("invariant error")
	// ErrAbort signals an explicit ABORT or a false ASSERT.
	ErrAbort = errors.New("explicit fault")
	// ErrUnhandledException signals a THROW that reached the bottom of the
	// invocation stack with no catch or finally handler.
	ErrUnhandledException = errors.New("unhandled exception")
	// ErrSyscall signals a SYSCALL whose method id the installed
	// SyscallHandler does not recognize.
	ErrSyscall = errors.New("syscall error")
)

func rangeErr(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrRange}, args...)...)
}

func typeErr(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrType}, args...)...)
}

func limitErr(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrLimit}, args...)...)
}

func arithErr(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrArithmetic}, args...)...)
}

func invariantErr(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvariant}, args...)...)
}

func decodeErr(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrDecode}, args...)...)
}

func syscallErr(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrSyscall}, args...)...)
}
