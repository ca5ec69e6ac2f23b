package process

import (
	"viua/internal/bytecode"
	"viua/internal/value"
)

func asBoolean(v value.Value) value.Boolean { return value.Boolean(v.Boolean()) }

func (p *Process) execBoolean(op bytecode.Opcode, frame *Frame, code []byte, off int) (uint64, error) {
	switch op {
	case bytecode.Bool:
		dst, src, next, err := decode2(code, off)
		if err != nil {
			return 0, err
		}
		v, err := p.ReadReg(frame, src)
		if err != nil {
			return 0, err
		}
		if err := p.WriteReg(frame, dst, asBoolean(v)); err != nil {
			return 0, err
		}
		return uint64(next), nil

	case bytecode.Not:
		dst, src, next, err := decode2(code, off)
		if err != nil {
			return 0, err
		}
		v, err := p.ReadReg(frame, src)
		if err != nil {
			return 0, err
		}
		if err := p.WriteReg(frame, dst, asBoolean(v).Not()); err != nil {
			return 0, err
		}
		return uint64(next), nil

	case bytecode.And, bytecode.Or:
		dst, lhs, rhs, next, err := decode3(code, off)
		if err != nil {
			return 0, err
		}
		a, err := p.ReadReg(frame, lhs)
		if err != nil {
			return 0, err
		}
		b, err := p.ReadReg(frame, rhs)
		if err != nil {
			return 0, err
		}
		var result value.Boolean
		if op == bytecode.And {
			result = asBoolean(a).And(asBoolean(b))
		} else {
			result = asBoolean(a).Or(asBoolean(b))
		}
		if err := p.WriteReg(frame, dst, result); err != nil {
			return 0, err
		}
		return uint64(next), nil
	}
	return 0, value.NewException(value.TagTypeMismatch, "unreachable boolean opcode", nil)
}
