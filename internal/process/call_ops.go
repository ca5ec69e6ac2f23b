package process

import (
	"viua/internal/bytecode"
	"viua/internal/value"
)

// Tags disambiguating the two forms a call-family target operand can take on
// the wire: a linkage name (Atom) resolved through the Runtime's function
// table, or a register holding an already-first-class value.Function or
// *value.Closure. There is no teacher precedent for this byte (GVM's single
// flat ISA has no closures), so the tag is this module's own encoding
// decision.
const (
	callTargetName     = 0x00
	callTargetRegister = 0x01
)

func decodeCallTarget(code []byte, off int) (isName bool, name string, reg bytecode.RegisterOperand, next int, err error) {
	if off >= len(code) {
		return false, "", bytecode.RegisterOperand{}, off, bytecode.ErrTruncated
	}
	tag := code[off]
	off++
	switch tag {
	case callTargetName:
		name, next, err = bytecode.DecodeAtom(code, off)
		return true, name, bytecode.RegisterOperand{}, next, err
	case callTargetRegister:
		reg, next, err = bytecode.DecodeRegister(code, off)
		return false, "", reg, next, err
	default:
		return false, "", bytecode.RegisterOperand{}, off, value.NewException(value.TagTypeMismatch, "unrecognised call target tag", value.Integer(int(tag)))
	}
}

// execCall implements the call family (§4.4): frame, param, pamv accumulate
// a pending activation record; call/tailcall finalise and transfer control;
// arg reads an actual from the callee side; allocate_registers sizes the
// callee's locals; return unwinds one frame, running any deferred calls it
// recorded; defer records one such call.
func (p *Process) execCall(op bytecode.Opcode, frame *Frame, code []byte, off int) (uint64, error) {
	switch op {
	case bytecode.Frame:
		argc, next, err := bytecode.DecodeI32(code, off)
		if err != nil {
			return 0, err
		}
		localc, next2, err := bytecode.DecodeI32(code, next)
		if err != nil {
			return 0, err
		}
		if p.pendingFrame != nil {
			return 0, value.NewException(value.TagTypeMismatch, "frame already pending", nil)
		}
		p.pendingFrame = &Frame{
			Args:   NewRegisterSet(bytecode.Arguments, int(argc)),
			Locals: NewRegisterSet(bytecode.Local, int(localc)),
		}
		return uint64(next2), nil

	case bytecode.Param, bytecode.Pamv:
		idx, next, err := bytecode.DecodeI32(code, off)
		if err != nil {
			return 0, err
		}
		src, next2, err := bytecode.DecodeRegister(code, next)
		if err != nil {
			return 0, err
		}
		if p.pendingFrame == nil {
			return 0, value.NewException(value.TagTypeMismatch, "param/pamv with no pending frame", nil)
		}
		var v value.Value
		if op == bytecode.Pamv {
			v, err = p.MoveReg(frame, src)
		} else {
			v, err = p.ReadReg(frame, src)
		}
		if err != nil {
			return 0, err
		}
		if err := p.pendingFrame.Args.Put(int(idx), v); err != nil {
			return 0, err
		}
		return uint64(next2), nil

	case bytecode.Arg:
		dst, next, err := bytecode.DecodeRegister(code, off)
		if err != nil {
			return 0, err
		}
		idx, next2, err := bytecode.DecodeI32(code, next)
		if err != nil {
			return 0, err
		}
		v, ok, err := frame.Args.Get(int(idx))
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, value.NewException(value.TagOutOfRange, "arg reads an unset actual", value.Integer(int(idx)))
		}
		if err := p.WriteReg(frame, dst, v); err != nil {
			return 0, err
		}
		return uint64(next2), nil

	case bytecode.AllocateRegisters:
		n, next, err := bytecode.DecodeI32(code, off)
		if err != nil {
			return 0, err
		}
		frame.Locals.Resize(int(n))
		return uint64(next), nil

	case bytecode.Call, bytecode.TailCall:
		return p.execCallOrTail(op, frame, code, off)

	case bytecode.Defer:
		isName, name, reg, next, err := decodeCallTarget(code, off)
		if err != nil {
			return 0, err
		}
		name, closureSet, err := p.resolveCallee(frame, isName, name, reg)
		if err != nil {
			return 0, err
		}
		frame.Deferred = append(frame.Deferred, DeferredCall{FunctionName: name, Closure: closureSet})
		return uint64(next), nil

	case bytecode.Return:
		return p.execReturn(frame)
	}
	return 0, value.NewException(value.TagTypeMismatch, "unreachable call opcode", nil)
}

// resolveCallee turns a decoded call target into a linkage name and, for a
// closure value, the closure-local register set its invocation runs with.
func (p *Process) resolveCallee(frame *Frame, isName bool, name string, reg bytecode.RegisterOperand) (string, *RegisterSet, error) {
	if isName {
		return name, nil, nil
	}
	v, err := p.ReadReg(frame, reg)
	if err != nil {
		return "", nil, err
	}
	switch fv := v.(type) {
	case value.Function:
		return fv.Name(), nil, nil
	case *value.Closure:
		fn := fv.Function()
		var maxReg uint16
		for _, r := range fv.Registers() {
			if r+1 > maxReg {
				maxReg = r + 1
			}
		}
		closureSet := NewRegisterSet(bytecode.ClosureLocal, int(maxReg))
		for _, r := range fv.Registers() {
			slot, _ := fv.Captured(r)
			closureSet.Put(int(r), slot.Value)
		}
		return fn.Name(), closureSet, nil
	default:
		return "", nil, value.NewTypeError("call", v)
	}
}

func (p *Process) execCallOrTail(op bytecode.Opcode, frame *Frame, code []byte, off int) (uint64, error) {
	var dst bytecode.RegisterOperand
	var destVoid bool
	var err error
	next := off
	if op == bytecode.Call {
		dst, destVoid, next, err = decodeRegOrVoid(code, off)
		if err != nil {
			return 0, err
		}
	}
	isName, name, reg, next2, err := decodeCallTarget(code, next)
	if err != nil {
		return 0, err
	}

	if p.pendingFrame == nil {
		return 0, value.NewException(value.TagTypeMismatch, "call/tailcall with no pending frame", nil)
	}
	calleeName, closureSet, err := p.resolveCallee(frame, isName, name, reg)
	if err != nil {
		return 0, err
	}

	if p.rt.IsForeign(calleeName) {
		return p.execForeignCallOrTail(op, frame, calleeName, dst, destVoid, next2)
	}

	addr, err := p.rt.ResolveFunction(calleeName)
	if err != nil {
		return 0, err
	}

	newFrame := p.pendingFrame
	p.pendingFrame = nil
	newFrame.FunctionName = calleeName
	newFrame.Closure = closureSet
	newFrame.Base = addr

	if op == bytecode.Call {
		newFrame.ReturnAddress = uint64(next2)
		newFrame.Dest = dst
		newFrame.DestVoid = destVoid
		if err := p.stack.Push(newFrame); err != nil {
			return 0, err
		}
	} else {
		// tailcall replaces the current activation in place: the callee
		// returns straight to whoever called *this* frame.
		cur, err := p.stack.Pop()
		if err != nil {
			return 0, err
		}
		newFrame.ReturnAddress = cur.ReturnAddress
		newFrame.Dest = cur.Dest
		newFrame.DestVoid = cur.DestVoid
		if err := p.stack.Push(newFrame); err != nil {
			return 0, err
		}
	}
	p.stack.Base = addr
	return addr, nil
}

func (p *Process) execReturn(frame *Frame) (uint64, error) {
	retVal, _, err := frame.Locals.Get(0)
	if err != nil {
		return 0, err
	}

	if derr := p.runDeferred(frame.Deferred); derr != nil {
		return 0, derr
	}

	popped, err := p.stack.Pop()
	if err != nil {
		return 0, err
	}
	if p.stack.Depth() == 0 {
		p.resultValue = retVal
		p.status = Finished
		return p.pc, nil
	}
	caller := p.stack.Top()
	p.stack.Base = caller.Base
	if !popped.DestVoid && retVal != nil {
		if err := p.WriteReg(caller, popped.Dest, retVal); err != nil {
			return 0, err
		}
	}
	return popped.ReturnAddress, nil
}

// runDeferred executes the calls recorded by `defer` on a frame that is
// exiting, innermost-recorded-first, synchronously within the process's own
// stack (§4.4: "records a call to be executed when the current frame exits,
// by return or by exception propagation").
func (p *Process) runDeferred(calls []DeferredCall) error {
	for i := len(calls) - 1; i >= 0; i-- {
		d := calls[i]
		addr, err := p.rt.ResolveFunction(d.FunctionName)
		if err != nil {
			return err
		}
		baseDepth := p.stack.Depth()
		df := &Frame{
			Args:         NewRegisterSet(bytecode.Arguments, 0),
			Locals:       NewRegisterSet(bytecode.Local, 0),
			FunctionName: d.FunctionName,
			Closure:      d.Closure,
			Base:         addr,
			DestVoid:     true,
		}
		if err := p.stack.Push(df); err != nil {
			return err
		}
		savedBase := p.stack.Base
		savedPC := p.pc
		p.stack.Base = addr
		p.pc = addr
		for p.stack.Depth() > baseDepth && p.status == Runnable {
			if err := p.step(); err != nil {
				return err
			}
		}
		p.stack.Base = savedBase
		p.pc = savedPC
	}
	return nil
}

// execForeignCallOrTail runs a call/tailcall whose target resolved to a
// native function (§6's foreign-function ABI) instead of a bytecode
// address. There is no bytecode frame to push: the FFI scheduler pool runs
// the native function synchronously against the pending argument set and
// the calling worker blocks for the result (§4.5), so the process's own
// call stack is unaffected beyond consuming the pending frame and (for
// tailcall) the current activation.
func (p *Process) execForeignCallOrTail(op bytecode.Opcode, frame *Frame, name string, dst bytecode.RegisterOperand, destVoid bool, next2 int) (uint64, error) {
	pending := p.pendingFrame
	p.pendingFrame = nil

	if op == bytecode.Call {
		result, err := p.rt.CallForeign(p.pid, name, pending.Args)
		if err != nil {
			return 0, err
		}
		if !destVoid && result != nil {
			if err := p.WriteReg(frame, dst, result); err != nil {
				return 0, err
			}
		}
		return uint64(next2), nil
	}

	// tailcall: the current activation is replaced by the foreign call's
	// result, which is handed straight to whoever called this frame.
	cur, err := p.stack.Pop()
	if err != nil {
		return 0, err
	}
	result, err := p.rt.CallForeign(p.pid, name, pending.Args)
	if err != nil {
		return 0, err
	}
	if p.stack.Depth() == 0 {
		p.resultValue = result
		p.status = Finished
		return p.pc, nil
	}
	p.stack.Base = p.stack.Top().Base
	if !cur.DestVoid && result != nil {
		if err := p.WriteReg(p.stack.Top(), cur.Dest, result); err != nil {
			return 0, err
		}
	}
	return cur.ReturnAddress, nil
}
