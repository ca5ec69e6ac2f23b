package process

import (
	"viua/internal/bytecode"
	"viua/internal/value"
)

func asVector(v value.Value) (*value.Vector, error) {
	vec, ok := v.(*value.Vector)
	if !ok {
		return nil, value.NewTypeError("vector", v)
	}
	return vec, nil
}

func asIndex(v value.Value) (int, error) {
	n, err := value.ToInteger(v)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// execVector implements the Vector opcode family (§4.1, §4.2). VecCtor
// packs a contiguous run of `count` registers starting at a base Register
// operand into a freshly built Vector, moving ownership out of each source
// slot the way a multi-argument pack naturally should (a value can't be
// owned by both the vector and its old register at once, per §3's
// ownership invariant).
func (p *Process) execVector(op bytecode.Opcode, frame *Frame, code []byte, off int) (uint64, error) {
	switch op {
	case bytecode.VecCtor:
		dst, base, next, err := decode2(code, off)
		if err != nil {
			return 0, err
		}
		count, next2, err := bytecode.DecodeI32(code, next)
		if err != nil {
			return 0, err
		}
		elems := make([]value.Value, 0, count)
		for i := int32(0); i < count; i++ {
			src := base
			src.Index = base.Index + uint16(i)
			v, err := p.MoveReg(frame, src)
			if err != nil {
				return 0, err
			}
			elems = append(elems, v)
		}
		if err := p.WriteReg(frame, dst, value.NewVector(elems...)); err != nil {
			return 0, err
		}
		return uint64(next2), nil

	case bytecode.VecPush:
		vecOp, valOp, next, err := decode2(code, off)
		if err != nil {
			return 0, err
		}
		vv, err := p.ReadReg(frame, vecOp)
		if err != nil {
			return 0, err
		}
		vec, err := asVector(vv)
		if err != nil {
			return 0, err
		}
		val, err := p.MoveReg(frame, valOp)
		if err != nil {
			return 0, err
		}
		vec.Push(val)
		return uint64(next), nil

	case bytecode.VecInsert:
		vecOp, idxOp, next, err := decode2(code, off)
		if err != nil {
			return 0, err
		}
		valOp, next2, err := bytecode.DecodeRegister(code, next)
		if err != nil {
			return 0, err
		}
		vv, err := p.ReadReg(frame, vecOp)
		if err != nil {
			return 0, err
		}
		vec, err := asVector(vv)
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
		val, err := p.MoveReg(frame, valOp)
		if err != nil {
			return 0, err
		}
		if err := vec.Insert(idx, val); err != nil {
			return 0, err
		}
		return uint64(next2), nil

	case bytecode.VecPop:
		dst, vecOp, next, err := decode2(code, off)
		if err != nil {
			return 0, err
		}
		idxOp, isVoid, next2, err := decodeRegOrVoid(code, next)
		if err != nil {
			return 0, err
		}
		vv, err := p.ReadReg(frame, vecOp)
		if err != nil {
			return 0, err
		}
		vec, err := asVector(vv)
		if err != nil {
			return 0, err
		}
		var popped value.Value
		if isVoid {
			popped, err = vec.Pop()
		} else {
			idxVal, rerr := p.ReadReg(frame, idxOp)
			if rerr != nil {
				return 0, rerr
			}
			idx, ierr := asIndex(idxVal)
			if ierr != nil {
				return 0, ierr
			}
			popped, err = vec.Remove(idx)
		}
		if err != nil {
			return 0, err
		}
		if err := p.WriteReg(frame, dst, popped); err != nil {
			return 0, err
		}
		return uint64(next2), nil

	case bytecode.VecAt:
		dst, vecOp, next, err := decode2(code, off)
		if err != nil {
			return 0, err
		}
		idxOp, next2, err := bytecode.DecodeRegister(code, next)
		if err != nil {
			return 0, err
		}
		vv, err := p.ReadReg(frame, vecOp)
		if err != nil {
			return 0, err
		}
		vec, err := asVector(vv)
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
		elem, err := vec.At(idx)
		if err != nil {
			return 0, err
		}
		if err := p.WriteReg(frame, dst, elem); err != nil {
			return 0, err
		}
		return uint64(next2), nil

	case bytecode.VecLen:
		dst, vecOp, next, err := decode2(code, off)
		if err != nil {
			return 0, err
		}
		vv, err := p.ReadReg(frame, vecOp)
		if err != nil {
			return 0, err
		}
		vec, err := asVector(vv)
		if err != nil {
			return 0, err
		}
		if err := p.WriteReg(frame, dst, value.Integer(vec.Len())); err != nil {
			return 0, err
		}
		return uint64(next), nil
	}
	return 0, value.NewException(value.TagTypeMismatch, "unreachable vector opcode", nil)
}
