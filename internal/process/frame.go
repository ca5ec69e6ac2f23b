package process

import "viua/internal/bytecode"

// DeferredCall is one call recorded by `defer`, run when the frame that
// recorded it exits, by return or by exception unwind.
type DeferredCall struct {
	FunctionName string
	Closure      *RegisterSet // closure-local set, nil for a plain named call
}

// Frame is one call activation record, per §3.
type Frame struct {
	// ReturnAddress is the absolute code address to resume at, in the
	// frame directly below this one, once this frame returns.
	ReturnAddress uint64
	// Base is this frame's function's entry address: the origin every
	// `jump`/`if` address operand inside this frame is resolved relative
	// to (§3's "current instruction base for jump resolution").
	Base uint64

	Args   *RegisterSet
	Locals *RegisterSet
	// Dest is the destination register the call result is written to when
	// this frame returns; DestVoid means the caller discarded the result.
	Dest     bytecode.RegisterOperand
	DestVoid bool

	FunctionName string
	Deferred     []DeferredCall

	// Closure is non-nil when this frame belongs to an invoked Closure,
	// giving `%closure_local` operands somewhere to resolve against.
	Closure *RegisterSet
}

// TryFrame is an unwind-protection record mapping exception tags to
// catcher block names, per §3.
type TryFrame struct {
	ReturnAddress uint64
	Catchers      map[string]string
	// SavedBase is the enclosing frame's jump-resolution base immediately
	// before `enter` retargeted it to the handler block's own base; `leave`
	// restores it.
	SavedBase uint64
	// FrameDepth is the index into the owning Stack's Frames at the moment
	// this try frame was entered; a frame may not pop while a try frame
	// with FrameDepth >= its own index is still active (§3 invariant).
	FrameDepth int
}
