package process

import (
	"viua/internal/bytecode"
	"viua/internal/value"
)

// execCopyMove implements the copy/move family (§4.2): move, copy, ptr,
// ptrlive, swap, delete, isnull.
func (p *Process) execCopyMove(op bytecode.Opcode, frame *Frame, code []byte, off int) (uint64, error) {
	switch op {
	case bytecode.Move:
		dst, src, next, err := decode2(code, off)
		if err != nil {
			return 0, err
		}
		v, err := p.MoveReg(frame, src)
		if err != nil {
			return 0, err
		}
		if err := p.WriteReg(frame, dst, v); err != nil {
			return 0, err
		}
		return uint64(next), nil

	case bytecode.Copy:
		dst, src, next, err := decode2(code, off)
		if err != nil {
			return 0, err
		}
		v, err := p.ReadReg(frame, src)
		if err != nil {
			return 0, err
		}
		if err := p.WriteReg(frame, dst, v.Copy()); err != nil {
			return 0, err
		}
		return uint64(next), nil

	case bytecode.Ptr:
		dst, src, next, err := decode2(code, off)
		if err != nil {
			return 0, err
		}
		if src.Mode != bytecode.Direct {
			return 0, value.NewException(value.TagTypeMismatch, "ptr requires a direct register operand", nil)
		}
		rs, err := p.registerSetFor(src.Set, frame)
		if err != nil {
			return 0, err
		}
		v, ok, err := rs.Get(int(src.Index))
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, value.NewException(value.TagOutOfRange, "ptr on empty register", nil)
		}
		ptr := value.NewPointer(p.pid, v)
		rs.Watch(int(src.Index), ptr)
		if err := p.WriteReg(frame, dst, ptr); err != nil {
			return 0, err
		}
		return uint64(next), nil

	case bytecode.PtrLive:
		dst, src, next, err := decode2(code, off)
		if err != nil {
			return 0, err
		}
		v, err := p.ReadReg(frame, src)
		if err != nil {
			return 0, err
		}
		ptr, ok := v.(value.Pointer)
		if !ok {
			return 0, value.NewTypeError("ptrlive", v)
		}
		if err := p.WriteReg(frame, dst, value.Boolean(!ptr.Expired())); err != nil {
			return 0, err
		}
		return uint64(next), nil

	case bytecode.Swap:
		a, b, next, err := decode2(code, off)
		if err != nil {
			return 0, err
		}
		av, err := p.ReadReg(frame, a)
		if err != nil {
			return 0, err
		}
		bv, err := p.ReadReg(frame, b)
		if err != nil {
			return 0, err
		}
		if err := p.WriteReg(frame, a, bv); err != nil {
			return 0, err
		}
		if err := p.WriteReg(frame, b, av); err != nil {
			return 0, err
		}
		return uint64(next), nil

	case bytecode.Delete:
		reg, next, err := bytecode.DecodeRegister(code, off)
		if err != nil {
			return 0, err
		}
		if reg.Mode != bytecode.Direct {
			return 0, value.NewException(value.TagTypeMismatch, "delete requires a direct register operand", nil)
		}
		rs, err := p.registerSetFor(reg.Set, frame)
		if err != nil {
			return 0, err
		}
		if err := rs.Delete(int(reg.Index)); err != nil {
			return 0, err
		}
		return uint64(next), nil

	case bytecode.IsNull:
		dst, src, next, err := decode2(code, off)
		if err != nil {
			return 0, err
		}
		if src.Mode != bytecode.Direct {
			return 0, value.NewException(value.TagTypeMismatch, "isnull requires a direct register operand", nil)
		}
		rs, err := p.registerSetFor(src.Set, frame)
		if err != nil {
			return 0, err
		}
		isNull, err := rs.IsNull(int(src.Index))
		if err != nil {
			return 0, err
		}
		if err := p.WriteReg(frame, dst, value.Boolean(isNull)); err != nil {
			return 0, err
		}
		return uint64(next), nil
	}
	return 0, value.NewException(value.TagTypeMismatch, "unreachable copy/move opcode", nil)
}
