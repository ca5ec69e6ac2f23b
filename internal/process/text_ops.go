package process

import (
	"viua/internal/bytecode"
	"viua/internal/value"
)

func asText(v value.Value) (value.Text, error) {
	t, ok := v.(value.Text)
	if !ok {
		return "", value.NewTypeError("text", v)
	}
	return t, nil
}

func commonPrefixLen(a, b []rune) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}

func commonSuffixLen(a, b []rune) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[len(a)-1-i] == b[len(b)-1-i] {
		i++
	}
	return i
}

func (p *Process) execText(op bytecode.Opcode, frame *Frame, code []byte, off int) (uint64, error) {
	switch op {
	case bytecode.TextEq, bytecode.TextCommonPrefix, bytecode.TextCommonSuffix, bytecode.TextConcat:
		dst, lhs, rhs, next, err := decode3(code, off)
		if err != nil {
			return 0, err
		}
		lv, err := p.ReadReg(frame, lhs)
		if err != nil {
			return 0, err
		}
		rv, err := p.ReadReg(frame, rhs)
		if err != nil {
			return 0, err
		}
		lt, err := asText(lv)
		if err != nil {
			return 0, err
		}
		rt, err := asText(rv)
		if err != nil {
			return 0, err
		}
		var result value.Value
		switch op {
		case bytecode.TextEq:
			result = value.Boolean(lt == rt)
		case bytecode.TextCommonPrefix:
			result = value.Integer(commonPrefixLen([]rune(string(lt)), []rune(string(rt))))
		case bytecode.TextCommonSuffix:
			result = value.Integer(commonSuffixLen([]rune(string(lt)), []rune(string(rt))))
		case bytecode.TextConcat:
			v, err := lt.Add(rt)
			if err != nil {
				return 0, err
			}
			result = v
		}
		if err := p.WriteReg(frame, dst, result); err != nil {
			return 0, err
		}
		return uint64(next), nil

	case bytecode.TextLength:
		dst, src, next, err := decode2(code, off)
		if err != nil {
			return 0, err
		}
		v, err := p.ReadReg(frame, src)
		if err != nil {
			return 0, err
		}
		t, err := asText(v)
		if err != nil {
			return 0, err
		}
		if err := p.WriteReg(frame, dst, value.Integer(t.Len())); err != nil {
			return 0, err
		}
		return uint64(next), nil

	case bytecode.TextAt:
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
		t, err := asText(v)
		if err != nil {
			return 0, err
		}
		idxVal, err := p.ReadReg(frame, idxOp)
		if err != nil {
			return 0, err
		}
		idx, err := value.ToInteger(idxVal)
		if err != nil {
			return 0, err
		}
		r, err := t.At(int(idx))
		if err != nil {
			return 0, err
		}
		if err := p.WriteReg(frame, dst, r); err != nil {
			return 0, err
		}
		return uint64(next2), nil

	case bytecode.TextSub:
		dst, src, next, err := decode2(code, off)
		if err != nil {
			return 0, err
		}
		fromOp, next2, err := bytecode.DecodeRegister(code, next)
		if err != nil {
			return 0, err
		}
		toOp, next3, err := bytecode.DecodeRegister(code, next2)
		if err != nil {
			return 0, err
		}
		v, err := p.ReadReg(frame, src)
		if err != nil {
			return 0, err
		}
		t, err := asText(v)
		if err != nil {
			return 0, err
		}
		fromVal, err := p.ReadReg(frame, fromOp)
		if err != nil {
			return 0, err
		}
		toVal, err := p.ReadReg(frame, toOp)
		if err != nil {
			return 0, err
		}
		from, err := value.ToInteger(fromVal)
		if err != nil {
			return 0, err
		}
		to, err := value.ToInteger(toVal)
		if err != nil {
			return 0, err
		}
		sub, err := t.Slice(int(from), int(to))
		if err != nil {
			return 0, err
		}
		if err := p.WriteReg(frame, dst, sub); err != nil {
			return 0, err
		}
		return uint64(next3), nil
	}
	return 0, value.NewException(value.TagTypeMismatch, "unreachable text opcode", nil)
}
