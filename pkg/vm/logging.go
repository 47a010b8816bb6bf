package vm

import (
	"errors"

	"go.uber.org/zap"

	"github.com/vladimirpotek/neo-vm/pkg/vm/metrics"
)

// LoggingHooks wraps another Hooks implementation (typically NopHooks),
// adding structured zap logging and Prometheus counters/gauges on the
// engine's extension points. Embedders compose it with their own Hooks by
// delegating Next's methods after their own logic runs.
type LoggingHooks struct {
	Next    Hooks
	Log     *zap.Logger
	Metrics *metrics.Collector
}

// NewLoggingHooks returns a LoggingHooks delegating to next, logging via
// log, and recording to coll. Either log or coll may be nil to disable
// that half of the instrumentation.
func NewLoggingHooks(next Hooks, log *zap.Logger, coll *metrics.Collector) *LoggingHooks {
	if next == nil {
		next = NopHooks{}
	}
	return &LoggingHooks{Next: next, Log: log, Metrics: coll}
}

// PreExecuteInstruction implements Hooks.
func (h *LoggingHooks) PreExecuteInstruction(e *Engine, instr Instruction) error {
	return h.Next.PreExecuteInstruction(e, instr)
}

// PostExecuteInstruction implements Hooks.
func (h *LoggingHooks) PostExecuteInstruction(e *Engine, instr Instruction) {
	if h.Metrics != nil {
		h.Metrics.Steps.Inc()
		h.Metrics.InvocationDepth.Set(float64(e.Istack().Len()))
	}
	if h.Log != nil {
		ip := -1 // no current context after the entry frame's RET
		if ctx := e.CurrentContext(); ctx != nil {
			ip = ctx.IP()
		}
		h.Log.Debug("step",
			zap.String("engine", e.ID()),
			zap.Stringer("opcode", instr.Opcode),
			zap.Int("ip", ip),
			zap.Int("invocation depth", e.Istack().Len()))
	}
	h.Next.PostExecuteInstruction(e, instr)
}

// OnSyscall implements Hooks.
func (h *LoggingHooks) OnSyscall(e *Engine, methodID uint32) error {
	if h.Log != nil {
		h.Log.Debug("syscall", zap.Uint32("method", methodID))
	}
	return h.Next.OnSyscall(e, methodID)
}

// OnFault implements Hooks.
func (h *LoggingHooks) OnFault(e *Engine, err error) {
	if h.Metrics != nil {
		h.Metrics.Faults.WithLabelValues(faultKind(err)).Inc()
	}
	if h.Log != nil {
		h.Log.Warn("fault", zap.String("engine", e.ID()), zap.Error(err))
	}
	h.Next.OnFault(e, err)
}

// OnStateChanged implements Hooks.
func (h *LoggingHooks) OnStateChanged(e *Engine, from, to State) {
	if h.Log != nil {
		h.Log.Info("state changed", zap.Stringer("from", from), zap.Stringer("to", to))
	}
	h.Next.OnStateChanged(e, from, to)
}

// LoadContext implements Hooks.
func (h *LoggingHooks) LoadContext(e *Engine, ctx *Context) {
	if h.Log != nil {
		h.Log.Debug("context loaded", zap.Int("depth", e.Istack().Len()))
	}
	h.Next.LoadContext(e, ctx)
}

// ContextUnloaded implements Hooks.
func (h *LoggingHooks) ContextUnloaded(e *Engine, ctx *Context) {
	if h.Log != nil {
		h.Log.Debug("context unloaded", zap.Int("depth", e.Istack().Len()))
	}
	h.Next.ContextUnloaded(e, ctx)
}

// faultKind reduces an error to the coarse label used by the faults_total
// metric, matching the §7 error-kind taxonomy.
func faultKind(err error) string {
	switch {
	case errors.Is(err, ErrDecode):
		return "decode"
	case errors.Is(err, ErrRange):
		return "range"
	case errors.Is(err, ErrType):
		return "type"
	case errors.Is(err, ErrLimit):
		return "limit"
	case errors.Is(err, ErrArithmetic):
		return "arithmetic"
	case errors.Is(err, ErrInvariant):
		return "invariant"
	case errors.Is(err, ErrAbort):
		return "abort"
	case errors.Is(err, ErrUnhandledException):
		return "exception"
	case errors.Is(err, ErrSyscall):
		return "syscall"
	default:
		return "unknown"
	}
}
