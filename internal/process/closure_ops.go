package process

import (
	"viua/internal/bytecode"
	"viua/internal/value"
)

// execClosure implements the closure family (§4.1, §4.2): capture,
// capturecopy, capturemove build up an already-created Closure value one
// captured register at a time; closure/function mint the first-class
// values in the first place.
func (p *Process) execClosure(op bytecode.Opcode, frame *Frame, code []byte, off int) (uint64, error) {
	switch op {
	case bytecode.Capture, bytecode.CaptureCopy, bytecode.CaptureMove:
		closureOp, next, err := bytecode.DecodeRegister(code, off)
		if err != nil {
			return 0, err
		}
		idx, next2, err := bytecode.DecodeI32(code, next)
		if err != nil {
			return 0, err
		}
		srcOp, next3, err := bytecode.DecodeRegister(code, next2)
		if err != nil {
			return 0, err
		}
		cv, err := p.ReadReg(frame, closureOp)
		if err != nil {
			return 0, err
		}
		closure, ok := cv.(*value.Closure)
		if !ok {
			return 0, value.NewTypeError("capture", cv)
		}
		var mode value.CaptureMode
		var captured value.Value
		switch op {
		case bytecode.Capture:
			mode = value.CaptureByRef
			captured, err = p.ReadReg(frame, srcOp)
		case bytecode.CaptureCopy:
			mode = value.CaptureByCopy
			var v value.Value
			v, err = p.ReadReg(frame, srcOp)
			if err == nil {
				captured = v.Copy()
			}
		case bytecode.CaptureMove:
			mode = value.CaptureByMove
			captured, err = p.MoveReg(frame, srcOp)
		}
		if err != nil {
			return 0, err
		}
		closure.Capture(uint16(idx), mode, captured)
		return uint64(next3), nil

	case bytecode.MakeClosure:
		dst, next, err := bytecode.DecodeRegister(code, off)
		if err != nil {
			return 0, err
		}
		name, next2, err := bytecode.DecodeAtom(code, next)
		if err != nil {
			return 0, err
		}
		arity, err := p.rt.Arity(name)
		if err != nil {
			return 0, err
		}
		fn := value.NewFunction(name, arity)
		closure := value.NewClosure(fn, nil)
		if err := p.WriteReg(frame, dst, closure); err != nil {
			return 0, err
		}
		return uint64(next2), nil

	case bytecode.MakeFunction:
		dst, next, err := bytecode.DecodeRegister(code, off)
		if err != nil {
			return 0, err
		}
		name, next2, err := bytecode.DecodeAtom(code, next)
		if err != nil {
			return 0, err
		}
		arity, err := p.rt.Arity(name)
		if err != nil {
			return 0, err
		}
		if err := p.WriteReg(frame, dst, value.NewFunction(name, arity)); err != nil {
			return 0, err
		}
		return uint64(next2), nil
	}
	return 0, value.NewException(value.TagTypeMismatch, "unreachable closure opcode", nil)
}
