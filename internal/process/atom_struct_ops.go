package process

import (
	"viua/internal/bytecode"
	"viua/internal/value"
)

// execAtom implements the single-opcode Atom family: materialising the
// interned-by-value Atom wire primitive as a first-class value.
func (p *Process) execAtom(frame *Frame, code []byte, off int) (uint64, error) {
	dst, next, err := bytecode.DecodeRegister(code, off)
	if err != nil {
		return 0, err
	}
	name, next2, err := bytecode.DecodeAtom(code, next)
	if err != nil {
		return 0, err
	}
	if err := p.WriteReg(frame, dst, value.Atom(name)); err != nil {
		return 0, err
	}
	return uint64(next2), nil
}

func asAtom(v value.Value) (value.Atom, error) {
	a, ok := v.(value.Atom)
	if !ok {
		return "", value.NewTypeError("struct key", v)
	}
	return a, nil
}

func asStruct(v value.Value) (*value.Struct, error) {
	s, ok := v.(*value.Struct)
	if !ok {
		return nil, value.NewTypeError("struct", v)
	}
	return s, nil
}

// execStruct implements the Struct opcode family (§4.1, §4.2): struct
// allocates an empty insertion-ordered field map; structat/structset/
// structremove/structkeys are the field-level operations.
func (p *Process) execStruct(op bytecode.Opcode, frame *Frame, code []byte, off int) (uint64, error) {
	switch op {
	case bytecode.StructNew:
		dst, next, err := bytecode.DecodeRegister(code, off)
		if err != nil {
			return 0, err
		}
		if err := p.WriteReg(frame, dst, value.NewStruct()); err != nil {
			return 0, err
		}
		return uint64(next), nil

	case bytecode.StructGet:
		dst, structOp, next, err := decode2(code, off)
		if err != nil {
			return 0, err
		}
		keyOp, next2, err := bytecode.DecodeRegister(code, next)
		if err != nil {
			return 0, err
		}
		sv, err := p.ReadReg(frame, structOp)
		if err != nil {
			return 0, err
		}
		s, err := asStruct(sv)
		if err != nil {
			return 0, err
		}
		kv, err := p.ReadReg(frame, keyOp)
		if err != nil {
			return 0, err
		}
		key, err := asAtom(kv)
		if err != nil {
			return 0, err
		}
		fv, err := s.Get(key)
		if err != nil {
			return 0, err
		}
		if err := p.WriteReg(frame, dst, fv); err != nil {
			return 0, err
		}
		return uint64(next2), nil

	case bytecode.StructSet:
		structOp, keyOp, next, err := decode2(code, off)
		if err != nil {
			return 0, err
		}
		valOp, next2, err := bytecode.DecodeRegister(code, next)
		if err != nil {
			return 0, err
		}
		sv, err := p.ReadReg(frame, structOp)
		if err != nil {
			return 0, err
		}
		s, err := asStruct(sv)
		if err != nil {
			return 0, err
		}
		kv, err := p.ReadReg(frame, keyOp)
		if err != nil {
			return 0, err
		}
		key, err := asAtom(kv)
		if err != nil {
			return 0, err
		}
		val, err := p.MoveReg(frame, valOp)
		if err != nil {
			return 0, err
		}
		s.Set(key, val)
		return uint64(next2), nil

	case bytecode.StructRemove:
		dst, structOp, next, err := decode2(code, off)
		if err != nil {
			return 0, err
		}
		keyOp, next2, err := bytecode.DecodeRegister(code, next)
		if err != nil {
			return 0, err
		}
		sv, err := p.ReadReg(frame, structOp)
		if err != nil {
			return 0, err
		}
		s, err := asStruct(sv)
		if err != nil {
			return 0, err
		}
		kv, err := p.ReadReg(frame, keyOp)
		if err != nil {
			return 0, err
		}
		key, err := asAtom(kv)
		if err != nil {
			return 0, err
		}
		removed, err := s.Get(key)
		if err != nil {
			return 0, err
		}
		if err := s.Remove(key); err != nil {
			return 0, err
		}
		if err := p.WriteReg(frame, dst, removed); err != nil {
			return 0, err
		}
		return uint64(next2), nil

	case bytecode.StructKeys:
		dst, structOp, next, err := decode2(code, off)
		if err != nil {
			return 0, err
		}
		sv, err := p.ReadReg(frame, structOp)
		if err != nil {
			return 0, err
		}
		s, err := asStruct(sv)
		if err != nil {
			return 0, err
		}
		keys := s.Keys()
		elems := make([]value.Value, len(keys))
		for i, k := range keys {
			elems[i] = k
		}
		if err := p.WriteReg(frame, dst, value.NewVector(elems...)); err != nil {
			return 0, err
		}
		return uint64(next), nil
	}
	return 0, value.NewException(value.TagTypeMismatch, "unreachable struct opcode", nil)
}
