package process

import (
	"time"

	"viua/internal/bytecode"
	"viua/internal/value"
	"viua/internal/vmlog"
)

// Status names the lifecycle state of a Process, per §3.
type Status int

const (
	Runnable Status = iota
	SuspendedReceive
	SuspendedJoin
	SuspendedIOWait
	Terminated
	Finished
)

func (s Status) String() string {
	switch s {
	case Runnable:
		return "runnable"
	case SuspendedReceive:
		return "suspended-receive"
	case SuspendedJoin:
		return "suspended-join"
	case SuspendedIOWait:
		return "suspended-io-wait"
	case Terminated:
		return "terminated"
	case Finished:
		return "finished"
	default:
		return "unknown"
	}
}

// Runtime is the set of process-wide services a Process calls out to. The
// Kernel implements it; Process depends only on this interface so the two
// packages don't import each other cyclically, the same seam the teacher
// draws between its CPU and the device bus it calls into for I/O (see
// vm/devices.go's HardwareDevice interface).
type Runtime interface {
	// Code returns the loaded module's bytecode segment.
	Code() []byte
	// ResolveFunction returns the code offset of a named function.
	ResolveFunction(name string) (uint64, error)
	// ResolveBlock returns the code offset of a named block.
	ResolveBlock(name string) (uint64, error)
	// Arity returns a named function's declared parameter count, used by
	// `function`/`closure` to build a first-class value.Function.
	Arity(name string) (int, error)

	// Spawn starts a new process running entry with the given prepared
	// argument set, returning its Pid.
	Spawn(entry string, args *RegisterSet) (value.Pid, error)

	// Send enqueues msg on to's mailbox. Never blocks.
	Send(to value.Pid, msg value.Value) error
	// TryReceive pops the oldest queued message for self, if any.
	TryReceive(self value.Pid) (value.Value, bool)

	// ProcessResult reports whether target has terminated, and if so its
	// result value (or carried exception, surfaced as an error).
	ProcessResult(target value.Pid) (value.Value, error, bool)

	// Prototype looks up a registered type descriptor by name.
	Prototype(name string) (*value.Prototype, bool)
	// RegisterPrototype installs p into the Kernel's typesystem table.
	RegisterPrototype(p *value.Prototype)

	// SubmitIO enqueues req to the I/O scheduler pool.
	SubmitIO(req *value.IORequest) error
	// CancelIO requests cancellation of an in-flight request.
	CancelIO(req *value.IORequest) error

	// Import resolves and loads a dynamic module by name, making its
	// exported functions callable.
	Import(name string) error

	// IsForeign reports whether name is bound to a native function rather
	// than a bytecode one, so the call family can route to the FFI
	// scheduler pool instead of resolving a jump address.
	IsForeign(name string) bool
	// CallForeign hands a synchronous native-function invocation to the
	// FFI scheduler pool and blocks the calling worker until it completes,
	// per §4.5's "synchronous native calls" contract.
	CallForeign(caller value.Pid, name string, args *RegisterSet) (value.Value, error)

	Log() *vmlog.Logger
}

// SuspendKind names why a Process is parked, matching Status's suspended
// variants one-to-one.
type SuspendKind int

const (
	SuspendNone SuspendKind = iota
	SuspendReceive
	SuspendJoin
	SuspendIO
)

// Suspend carries everything the scheduler needs to decide whether a
// parked Process has become runnable again, and everything the resumed
// instruction needs to finish its work.
type Suspend struct {
	Kind     SuspendKind
	Deadline time.Time // zero means no timeout (infinite wait)
	Target   value.Pid // join target
	Request  *value.IORequest
	Dest     bytecode.RegisterOperand
	DestVoid bool
}

// Expired reports whether s's deadline has passed.
func (s Suspend) Expired(now time.Time) bool {
	return !s.Deadline.IsZero() && !now.Before(s.Deadline)
}

// Process is the executing unit described in §3 and §4.4.
type Process struct {
	pid   value.Pid
	rt    Runtime
	log   *vmlog.Logger
	stack *Stack

	// watchdog is the registered crash-handler function name, empty if
	// none was registered via `watchdog`.
	watchdog      string
	watchdogStack *Stack

	// statics maps function name to its process-scoped static register
	// set, allocated lazily on first access (§4.7).
	statics map[string]*RegisterSet
	globals *RegisterSet

	// currentRS is the register-set kind `ress` last switched to; it
	// governs which set plain (non-Arguments/Parameters/Closure-local)
	// register operands address.
	currentRS bytecode.RegisterSetKind

	// pendingFrame accumulates a `frame`/`param`/`pamv` sequence until the
	// matching `call`/`tailcall` finalises and pushes it.
	pendingFrame *Frame

	pc uint64

	status      Status
	suspend     Suspend
	resultValue value.Value
	resultErr   error

	ioNextID uint64
}

// New creates a fresh Process with the given Pid and an empty stack; it
// cannot run until Bootstrap pushes its entry frame and points it at the
// entry function's address.
func New(pid value.Pid, rt Runtime, log *vmlog.Logger) *Process {
	return &Process{
		pid:       pid,
		rt:        rt,
		log:       log,
		stack:     NewStack(),
		statics:   make(map[string]*RegisterSet),
		globals:   NewRegisterSet(bytecode.Global, 0),
		currentRS: bytecode.Local,
		status:    Runnable,
	}
}

// Pid returns the process's identity.
func (p *Process) Pid() value.Pid { return p.pid }

// Status reports the process's current lifecycle state.
func (p *Process) Status() Status { return p.status }

// SuspendInfo returns the parked process's suspend record (zero value if not
// suspended).
func (p *Process) SuspendInfo() Suspend { return p.suspend }

// Result returns the terminated process's outcome: either its normal
// return value, or the error it died with (an unhandled exception or a
// Go-level fatal).
func (p *Process) Result() (value.Value, error) { return p.resultValue, p.resultErr }

// Bootstrap pushes the process's entry frame, ready for the dispatch loop
// to begin at the function's address.
func (p *Process) Bootstrap(entry string, args *RegisterSet) error {
	addr, err := p.rt.ResolveFunction(entry)
	if err != nil {
		return err
	}
	locals := NewRegisterSet(bytecode.Local, 0)
	if args == nil {
		args = NewRegisterSet(bytecode.Arguments, 0)
	}
	f := &Frame{Args: args, Locals: locals, FunctionName: entry, DestVoid: true, Base: addr}
	if err := p.stack.Push(f); err != nil {
		return err
	}
	p.stack.Base = addr
	p.pc = addr
	return nil
}

// RunResult summarises one scheduling quantum.
type RunResult struct {
	Status       Status
	Instructions int
}

// Run executes up to quantum instructions, stopping early if the process
// suspends or terminates. It is the scheduler-facing entry point described
// in §4.5: "grants it a quantum ... dispatches until either the quantum
// expires, the process suspends, or it terminates".
func (p *Process) Run(quantum int) RunResult {
	executed := 0
	for executed < quantum {
		if p.status != Runnable {
			break
		}
		if err := p.step(); err != nil {
			p.fail(err)
			break
		}
		executed++
		if p.status != Runnable {
			break
		}
	}
	return RunResult{Status: p.status, Instructions: executed}
}

// Resume is called by the scheduler once a parked process's suspend
// condition has become true (or its deadline elapsed); it flips the
// process back to Runnable so the next Run call retries the suspending
// instruction, which re-observes current state and either completes or
// (on timeout) raises.
func (p *Process) Resume(timedOut bool) {
	if timedOut {
		p.suspend.Deadline = time.Now().Add(-time.Nanosecond) // force Expired() true on retry
	}
	p.status = Runnable
}

// fail handles an error surfacing from a dispatch handler: a *value.
// Exception begins unwinding exactly as an explicit `throw` would, any
// other error is a fatal Go-level failure (corrupted bytecode, loader
// failure reached at run time) that terminates the process outright.
func (p *Process) fail(err error) {
	if exc, ok := err.(*value.Exception); ok {
		p.pc = p.raise(exc)
		return
	}
	p.resultErr = err
	p.status = Terminated
}

// excTag returns the string a thrown value is matched against by a
// catcher, per §4.4: an Exception's own Tag, or the value's type name for
// anything else thrown.
func excTag(v value.Value) string {
	if exc, ok := v.(*value.Exception); ok {
		return exc.Tag()
	}
	return v.Type()
}

func asException(v value.Value) *value.Exception {
	if exc, ok := v.(*value.Exception); ok {
		return exc
	}
	return value.NewException(excTag(v), v.Str(), v)
}

// raise drives one step of §4.4's unwind search: find the innermost
// matching catcher across the whole try-frame stack (already span-aware
// via each TryFrame's FrameDepth, so no per-frame iteration is needed),
// jump to it if found, or terminate the process (running its watchdog, if
// any) if the stack has nothing left to offer. It returns the address the
// dispatch loop should continue at.
func (p *Process) raise(v value.Value) uint64 {
	tag := excTag(v)
	tf, block, idx := p.stack.FindHandler(tag)
	if tf == nil {
		if err := p.runDeferredAcrossUnwind(0); err != nil {
			p.resultErr = err
			p.status = Terminated
			return p.pc
		}
		p.unhandled(v)
		return p.pc
	}
	if err := p.runDeferredAcrossUnwind(tf.FrameDepth + 1); err != nil {
		p.resultErr = err
		p.status = Terminated
		return p.pc
	}
	p.stack.UnwindTo(idx)
	p.stack.Caught = v
	p.stack.Thrown = nil
	if exc, ok := v.(*value.Exception); ok {
		if top := p.stack.Top(); top != nil {
			exc.AddThrowPoint(top.FunctionName)
		}
	}
	addr, err := p.rt.ResolveBlock(block)
	if err != nil {
		p.unhandled(v)
		return p.pc
	}
	p.stack.Base = addr
	if top := p.stack.Top(); top != nil {
		top.Base = addr
	}
	p.status = Runnable
	return addr
}

// runDeferredAcrossUnwind runs the Deferred calls recorded by every frame
// from the stack's current top down to (and including) fromDepth, innermost
// first, before the frames themselves are discarded by an unwind: §4.4
// requires `defer` to run "by return or by exception propagation", and
// runDeferred's own call sites otherwise only cover the return half of that
// contract (call_ops.go's execReturn).
func (p *Process) runDeferredAcrossUnwind(fromDepth int) error {
	for depth := p.stack.Depth() - 1; depth >= fromDepth; depth-- {
		if err := p.runDeferred(p.stack.Frames[depth].Deferred); err != nil {
			return err
		}
	}
	return nil
}

// unhandled runs when unwinding drains the stack without a match: per
// §4.4, "if a watchdog is registered, it runs; otherwise the exception is
// surfaced to the host when the process exits."
func (p *Process) unhandled(v value.Value) {
	exc := asException(v)
	if p.watchdog != "" {
		p.runWatchdog(exc)
		return
	}
	p.resultErr = exc
	p.status = Terminated
}

func (p *Process) runWatchdog(exc *value.Exception) {
	addr, err := p.rt.ResolveFunction(p.watchdog)
	if err != nil {
		p.resultErr = exc
		p.status = Terminated
		return
	}
	args := NewRegisterSet(bytecode.Arguments, 1)
	args.Put(0, exc)
	p.watchdogStack = NewStack()
	p.watchdogStack.Base = addr
	frame := &Frame{Args: args, Locals: NewRegisterSet(bytecode.Local, 0), FunctionName: p.watchdog, DestVoid: true, Base: addr}
	if pushErr := p.watchdogStack.Push(frame); pushErr != nil {
		p.resultErr = exc
		p.status = Terminated
		return
	}
	p.stack = p.watchdogStack
	p.watchdog = ""
	p.pc = addr
	p.status = Runnable
}
