package process

import (
	"viua/internal/bytecode"
	"viua/internal/value"
)

func asBits(v value.Value) (*value.Bits, error) {
	b, ok := v.(*value.Bits)
	if !ok {
		return nil, value.NewTypeError("bits", v)
	}
	return b, nil
}

// decodeShiftCount decodes the register holding a shift/rotate distance.
func (p *Process) decodeShiftCount(frame *Frame, code []byte, off int) (int, int, error) {
	reg, next, err := bytecode.DecodeRegister(code, off)
	if err != nil {
		return 0, off, err
	}
	v, err := p.ReadReg(frame, reg)
	if err != nil {
		return 0, off, err
	}
	n, err := value.ToInteger(v)
	if err != nil {
		return 0, off, err
	}
	return int(n), next, nil
}

// execBits implements the Bits opcode family (§4.1, §4.2): construction,
// bitwise logic, shifts/rotates, per-bit access, width introspection, and
// the three-overflow-discipline arithmetic/comparison families.
func (p *Process) execBits(op bytecode.Opcode, frame *Frame, code []byte, off int) (uint64, error) {
	switch op {
	case bytecode.Bits:
		dst, next, err := bytecode.DecodeRegister(code, off)
		if err != nil {
			return 0, err
		}
		width, raw, next2, err := bytecode.DecodeBits(code, next)
		if err != nil {
			return 0, err
		}
		b := value.NewBits(width)
		for i := 0; i < width; i++ {
			byteIdx := i / 8
			if byteIdx >= len(raw) {
				break
			}
			if raw[byteIdx]&(1<<uint(i%8)) != 0 {
				b.Set(i, true)
			}
		}
		if err := p.WriteReg(frame, dst, b); err != nil {
			return 0, err
		}
		return uint64(next2), nil

	case bytecode.BitAnd, bytecode.BitOr, bytecode.BitXor:
		dst, lhs, rhs, next, err := decode3(code, off)
		if err != nil {
			return 0, err
		}
		a, err := p.ReadReg(frame, lhs)
		if err != nil {
			return 0, err
		}
		b2, err := p.ReadReg(frame, rhs)
		if err != nil {
			return 0, err
		}
		lb, err := asBits(a)
		if err != nil {
			return 0, err
		}
		rb, err := asBits(b2)
		if err != nil {
			return 0, err
		}
		var result *value.Bits
		switch op {
		case bytecode.BitAnd:
			result, err = lb.And(rb)
		case bytecode.BitOr:
			result, err = lb.Or(rb)
		case bytecode.BitXor:
			result, err = lb.Xor(rb)
		}
		if err != nil {
			return 0, err
		}
		if err := p.WriteReg(frame, dst, result); err != nil {
			return 0, err
		}
		return uint64(next), nil

	case bytecode.BitNot, bytecode.BitsWidth:
		dst, src, next, err := decode2(code, off)
		if err != nil {
			return 0, err
		}
		v, err := p.ReadReg(frame, src)
		if err != nil {
			return 0, err
		}
		b, err := asBits(v)
		if err != nil {
			return 0, err
		}
		var result value.Value
		if op == bytecode.BitNot {
			result = b.Not()
		} else {
			result = value.Integer(b.Len())
		}
		if err := p.WriteReg(frame, dst, result); err != nil {
			return 0, err
		}
		return uint64(next), nil

	case bytecode.BitAt:
		dst, src, next, err := decode2(code, off)
		if err != nil {
			return 0, err
		}
		idxOp, next2, err := bytecode.DecodeRegister(code, next)
		if err != nil {
			return 0, err
		}
		v, err := p.ReadReg(frame, src)
		if err != nil {
			return 0, err
		}
		b, err := asBits(v)
		if err != nil {
			return 0, err
		}
		idxVal, err := p.ReadReg(frame, idxOp)
		if err != nil {
			return 0, err
		}
		idx, err := asIndex(idxVal)
		if err != nil {
			return 0, err
		}
		if idx < 0 || idx >= b.Len() {
			return 0, value.NewException(value.TagIndexOutOfBounds, "bit index out of range", value.Integer(idx))
		}
		if err := p.WriteReg(frame, dst, value.Boolean(b.Get(idx))); err != nil {
			return 0, err
		}
		return uint64(next2), nil

	case bytecode.BitSet:
		src, idxOp, next, err := decode2(code, off)
		if err != nil {
			return 0, err
		}
		valOp, next2, err := bytecode.DecodeRegister(code, next)
		if err != nil {
			return 0, err
		}
		v, err := p.ReadReg(frame, src)
		if err != nil {
			return 0, err
		}
		b, err := asBits(v)
		if err != nil {
			return 0, err
		}
		idxVal, err := p.ReadReg(frame, idxOp)
		if err != nil {
			return 0, err
		}
		idx, err := asIndex(idxVal)
		if err != nil {
			return 0, err
		}
		if idx < 0 || idx >= b.Len() {
			return 0, value.NewException(value.TagIndexOutOfBounds, "bit index out of range", value.Integer(idx))
		}
		setVal, err := p.ReadReg(frame, valOp)
		if err != nil {
			return 0, err
		}
		b.Set(idx, setVal.Boolean())
		return uint64(next2), nil

	case bytecode.Shl, bytecode.Shr, bytecode.Ashl, bytecode.Ashr, bytecode.Rol, bytecode.Ror:
		dst, src, next, err := decode2(code, off)
		if err != nil {
			return 0, err
		}
		n, next2, err := p.decodeShiftCount(frame, code, next)
		if err != nil {
			return 0, err
		}
		v, err := p.ReadReg(frame, src)
		if err != nil {
			return 0, err
		}
		b, err := asBits(v)
		if err != nil {
			return 0, err
		}
		var result *value.Bits
		switch op {
		case bytecode.Shl:
			result = b.Shl(n)
		case bytecode.Shr:
			result = b.Shr(n)
		case bytecode.Ashl:
			result = b.Ashl(n)
		case bytecode.Ashr:
			result = b.Ashr(n)
		case bytecode.Rol:
			result = b.Rol(n)
		case bytecode.Ror:
			result = b.Ror(n)
		}
		if err := p.WriteReg(frame, dst, result); err != nil {
			return 0, err
		}
		return uint64(next2), nil

	case bytecode.BitsAdd, bytecode.BitsSub, bytecode.BitsMul, bytecode.BitsDiv:
		dst, lhs, rhs, next, err := decode3(code, off)
		if err != nil {
			return 0, err
		}
		discRaw, next2, err := bytecode.DecodeI32(code, next)
		if err != nil {
			return 0, err
		}
		disc := value.Overflow(discRaw)
		a, err := p.ReadReg(frame, lhs)
		if err != nil {
			return 0, err
		}
		b2, err := p.ReadReg(frame, rhs)
		if err != nil {
			return 0, err
		}
		lb, err := asBits(a)
		if err != nil {
			return 0, err
		}
		rb, err := asBits(b2)
		if err != nil {
			return 0, err
		}
		var result *value.Bits
		switch op {
		case bytecode.BitsAdd:
			result, err = lb.Add(rb, disc)
		case bytecode.BitsSub:
			result, err = lb.Sub(rb, disc)
		case bytecode.BitsMul:
			result, err = lb.Mul(rb, disc)
		case bytecode.BitsDiv:
			result, err = lb.Div(rb, disc)
		}
		if err != nil {
			return 0, err
		}
		if err := p.WriteReg(frame, dst, result); err != nil {
			return 0, err
		}
		return uint64(next2), nil

	case bytecode.BitsEq, bytecode.BitsLt, bytecode.BitsLte, bytecode.BitsGt, bytecode.BitsGte:
		dst, lhs, rhs, next, err := decode3(code, off)
		if err != nil {
			return 0, err
		}
		a, err := p.ReadReg(frame, lhs)
		if err != nil {
			return 0, err
		}
		b2, err := p.ReadReg(frame, rhs)
		if err != nil {
			return 0, err
		}
		lb, err := asBits(a)
		if err != nil {
			return 0, err
		}
		var result bool
		if op == bytecode.BitsEq {
			result, err = lb.Equal(b2)
		} else {
			var cmp int
			cmp, err = lb.Compare(b2)
			if err == nil {
				switch op {
				case bytecode.BitsLt:
					result = cmp < 0
				case bytecode.BitsLte:
					result = cmp <= 0
				case bytecode.BitsGt:
					result = cmp > 0
				case bytecode.BitsGte:
					result = cmp >= 0
				}
			}
		}
		if err != nil {
			return 0, err
		}
		if err := p.WriteReg(frame, dst, value.Boolean(result)); err != nil {
			return 0, err
		}
		return uint64(next), nil
	}
	return 0, value.NewException(value.TagTypeMismatch, "unreachable bits opcode", nil)
}
