package process

import (
	"viua/internal/bytecode"
	"viua/internal/value"
)

// registerSetFor resolves which RegisterSet a Register operand's Set byte
// addresses. Local additionally defers to currentRS (toggled by `ress`),
// so plain local-style operands track the process's current working set
// while %static/%global/%args/%params/%closure operands always address
// their named set directly, per §4.7's supplemented ress semantics.
func (p *Process) registerSetFor(kind bytecode.RegisterSetKind, frame *Frame) (*RegisterSet, error) {
	switch kind {
	case bytecode.Local:
		switch p.currentRS {
		case bytecode.Static:
			return p.staticSet(frame.FunctionName), nil
		case bytecode.Global:
			return p.globals, nil
		default:
			return frame.Locals, nil
		}
	case bytecode.Static:
		return p.staticSet(frame.FunctionName), nil
	case bytecode.Global:
		return p.globals, nil
	case bytecode.Arguments:
		return frame.Args, nil
	case bytecode.Parameters:
		return frame.Args, nil
	case bytecode.ClosureLocal:
		if frame.Closure == nil {
			return nil, value.NewException(value.TagTypeMismatch, "closure-local register accessed outside a closure invocation", nil)
		}
		return frame.Closure, nil
	default:
		return nil, value.NewException(value.TagTypeMismatch, "unknown register set kind", nil)
	}
}

func (p *Process) staticSet(fn string) *RegisterSet {
	rs, ok := p.statics[fn]
	if !ok {
		rs = NewRegisterSet(bytecode.Static, 0)
		p.statics[fn] = rs
	}
	return rs
}

// indirectIndex resolves the true slot index for RegisterIndirect mode: the
// indirect slot must hold a non-negative Integer within rs's bounds (§3's
// invariant on indirect access).
func (p *Process) indirectIndex(rs *RegisterSet, slot int) (int, error) {
	v, ok, err := rs.Get(slot)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, value.NewException(value.TagOutOfRange, "register-indirect operand reads an empty register", value.Integer(slot))
	}
	iv, ok := v.(value.Integer)
	if !ok || iv < 0 {
		return 0, value.NewException(value.TagTypeMismatch, "register-indirect operand requires a non-negative integer", v)
	}
	if int(iv) >= rs.Len() {
		return 0, value.NewException(value.TagOutOfRange, "register-indirect index out of bounds", iv)
	}
	return int(iv), nil
}

// ReadReg reads the value addressed by op against frame, honouring access
// mode (Direct / RegisterIndirect / PointerDereference).
func (p *Process) ReadReg(frame *Frame, op bytecode.RegisterOperand) (value.Value, error) {
	rs, err := p.registerSetFor(op.Set, frame)
	if err != nil {
		return nil, err
	}
	idx := int(op.Index)
	switch op.Mode {
	case bytecode.Direct:
		v, ok, err := rs.Get(idx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, value.NewException(value.TagOutOfRange, "read from empty register", value.Integer(idx))
		}
		return v, nil
	case bytecode.RegisterIndirect:
		real, err := p.indirectIndex(rs, idx)
		if err != nil {
			return nil, err
		}
		v, ok, err := rs.Get(real)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, value.NewException(value.TagOutOfRange, "read from empty register", value.Integer(real))
		}
		return v, nil
	case bytecode.PointerDereference:
		v, ok, err := rs.Get(idx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, value.NewException(value.TagOutOfRange, "dereference through empty register", value.Integer(idx))
		}
		ptr, ok := v.(value.Pointer)
		if !ok {
			return nil, value.NewTypeError("deref", v)
		}
		return ptr.ToFrom(p.pid)
	default:
		return nil, value.NewException(value.TagTypeMismatch, "unknown access mode", nil)
	}
}

// WriteReg writes v to the slot addressed by op, honouring access mode.
func (p *Process) WriteReg(frame *Frame, op bytecode.RegisterOperand, v value.Value) error {
	rs, err := p.registerSetFor(op.Set, frame)
	if err != nil {
		return err
	}
	idx := int(op.Index)
	switch op.Mode {
	case bytecode.Direct:
		return rs.Put(idx, v)
	case bytecode.RegisterIndirect:
		real, err := p.indirectIndex(rs, idx)
		if err != nil {
			return err
		}
		return rs.Put(real, v)
	case bytecode.PointerDereference:
		cur, ok, err := rs.Get(idx)
		if err != nil {
			return err
		}
		if !ok {
			return value.NewException(value.TagOutOfRange, "write through empty register", value.Integer(idx))
		}
		ptr, ok := cur.(value.Pointer)
		if !ok {
			return value.NewTypeError("deref", cur)
		}
		if ptr.Expired() {
			return value.NewException(value.TagOutOfRange, "write through expired pointer", nil)
		}
		if ptr.Origin() != p.pid {
			return value.NewException(value.TagCrossProcessPointer, "pointer written from outside its owning process", nil)
		}
		return ptr.Set(v)
	default:
		return value.NewException(value.TagTypeMismatch, "unknown access mode", nil)
	}
}

// MoveReg takes ownership of the value at op's addressed slot, leaving it
// empty. Direct and RegisterIndirect operands name a single source register
// to empty; a PointerDereference move has no such register and raises.
func (p *Process) MoveReg(frame *Frame, op bytecode.RegisterOperand) (value.Value, error) {
	rs, err := p.registerSetFor(op.Set, frame)
	if err != nil {
		return nil, err
	}
	switch op.Mode {
	case bytecode.Direct:
		return rs.Move(int(op.Index))
	case bytecode.RegisterIndirect:
		real, err := p.indirectIndex(rs, int(op.Index))
		if err != nil {
			return nil, err
		}
		return rs.Move(real)
	default:
		return nil, value.NewException(value.TagTypeMismatch, "move through a pointer dereference is not supported", nil)
	}
}

func (p *Process) currentFrame() (*Frame, error) {
	f := p.stack.Top()
	if f == nil {
		return nil, value.NewException("Stack_underflow", "no active frame", nil)
	}
	return f, nil
}
