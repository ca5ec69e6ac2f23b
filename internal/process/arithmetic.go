package process

import (
	"viua/internal/bytecode"
	"viua/internal/value"
)

// decode3 reads the common dst, lhs, rhs Register-operand triple most
// binary instructions share.
func decode3(code []byte, off int) (dst, lhs, rhs bytecode.RegisterOperand, next int, err error) {
	dst, off, err = bytecode.DecodeRegister(code, off)
	if err != nil {
		return
	}
	lhs, off, err = bytecode.DecodeRegister(code, off)
	if err != nil {
		return
	}
	rhs, next, err = bytecode.DecodeRegister(code, off)
	return
}

func decode2(code []byte, off int) (dst, src bytecode.RegisterOperand, next int, err error) {
	dst, off, err = bytecode.DecodeRegister(code, off)
	if err != nil {
		return
	}
	src, next, err = bytecode.DecodeRegister(code, off)
	return
}

func (p *Process) execArith(op bytecode.Opcode, frame *Frame, code []byte, off int) (uint64, error) {
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
	num, ok := a.(value.Numeric)
	if !ok {
		return 0, value.NewTypeError(op.String(), a)
	}
	var result value.Value
	switch op {
	case bytecode.Add:
		result, err = num.Add(b)
	case bytecode.Sub:
		result, err = num.Sub(b)
	case bytecode.Mul:
		result, err = num.Mul(b)
	case bytecode.Div:
		result, err = num.Div(b)
	}
	if err != nil {
		return 0, err
	}
	if err := p.WriteReg(frame, dst, result); err != nil {
		return 0, err
	}
	return uint64(next), nil
}

func (p *Process) execCompare(op bytecode.Opcode, frame *Frame, code []byte, off int) (uint64, error) {
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
	var result bool
	if op == bytecode.Eq {
		eq, ok := a.(value.Equatable)
		if !ok {
			return 0, value.NewTypeError("eq", a)
		}
		result, err = eq.Equal(b)
	} else {
		ord, ok := a.(value.Ordered)
		if !ok {
			return 0, value.NewTypeError(op.String(), a)
		}
		var cmp int
		cmp, err = ord.Compare(b)
		if err == nil {
			switch op {
			case bytecode.Lt:
				result = cmp < 0
			case bytecode.Lte:
				result = cmp <= 0
			case bytecode.Gt:
				result = cmp > 0
			case bytecode.Gte:
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

func (p *Process) execConvert(op bytecode.Opcode, frame *Frame, code []byte, off int) (uint64, error) {
	dst, src, next, err := decode2(code, off)
	if err != nil {
		return 0, err
	}
	v, err := p.ReadReg(frame, src)
	if err != nil {
		return 0, err
	}
	var result value.Value
	switch op {
	case bytecode.Itof:
		result, err = value.ToFloat(v)
	case bytecode.Ftoi, bytecode.Stoi:
		result, err = value.ToInteger(v)
	case bytecode.Stof:
		result, err = value.ToFloat(v)
	}
	if err != nil {
		return 0, err
	}
	if err := p.WriteReg(frame, dst, result); err != nil {
		return 0, err
	}
	return uint64(next), nil
}
