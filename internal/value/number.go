package value

import (
	"fmt"
	"math"
	"strconv"
)

// Integer is a 64-bit signed integer value.
type Integer int64

func (i Integer) Type() string   { return "integer" }
func (i Integer) Str() string    { return strconv.FormatInt(int64(i), 10) }
func (i Integer) Repr() string   { return i.Str() }
func (i Integer) Boolean() bool  { return i != 0 }
func (i Integer) Copy() Value    { return i }

func (i Integer) Add(other Value) (Value, error) { return numOp(i, other, "add", func(a, b int64) int64 { return a + b }, func(a, b float64) float64 { return a + b }) }
func (i Integer) Sub(other Value) (Value, error) { return numOp(i, other, "sub", func(a, b int64) int64 { return a - b }, func(a, b float64) float64 { return a - b }) }
func (i Integer) Mul(other Value) (Value, error) { return numOp(i, other, "mul", func(a, b int64) int64 { return a * b }, func(a, b float64) float64 { return a * b }) }

func (i Integer) Div(other Value) (Value, error) {
	switch o := other.(type) {
	case Integer:
		if o == 0 {
			return nil, NewException(TagDivisionByZero, "integer division by zero", nil)
		}
		return i / o, nil
	case Float:
		if o == 0 {
			return nil, NewException(TagDivisionByZero, "float division by zero", nil)
		}
		return Float(float64(i)) / o, nil
	default:
		return nil, NewTypeError("div", other)
	}
}

func (i Integer) Compare(other Value) (int, error) {
	switch o := other.(type) {
	case Integer:
		switch {
		case i < o:
			return -1, nil
		case i > o:
			return 1, nil
		default:
			return 0, nil
		}
	case Float:
		return Float(i).Compare(o)
	default:
		return 0, NewTypeError("cmp", other)
	}
}

func (i Integer) Equal(other Value) (bool, error) {
	c, err := i.Compare(other)
	if err != nil {
		return false, err
	}
	return c == 0, nil
}

// Float is a 64-bit IEEE-754 floating point value.
type Float float64

func (f Float) Type() string  { return "float" }
func (f Float) Str() string   { return strconv.FormatFloat(float64(f), 'g', -1, 64) }
func (f Float) Repr() string  { return f.Str() }
func (f Float) Boolean() bool { return f != 0 }
func (f Float) Copy() Value   { return f }

func (f Float) Add(other Value) (Value, error) { return numOpF(f, other, "add", func(a, b float64) float64 { return a + b }) }
func (f Float) Sub(other Value) (Value, error) { return numOpF(f, other, "sub", func(a, b float64) float64 { return a - b }) }
func (f Float) Mul(other Value) (Value, error) { return numOpF(f, other, "mul", func(a, b float64) float64 { return a * b }) }

func (f Float) Div(other Value) (Value, error) {
	o, err := asFloat(other)
	if err != nil {
		return nil, err
	}
	if o == 0 {
		return nil, NewException(TagDivisionByZero, "float division by zero", nil)
	}
	return f / Float(o), nil
}

func (f Float) Compare(other Value) (int, error) {
	o, err := asFloat(other)
	if err != nil {
		return 0, err
	}
	switch {
	case float64(f) < o:
		return -1, nil
	case float64(f) > o:
		return 1, nil
	default:
		return 0, nil
	}
}

func (f Float) Equal(other Value) (bool, error) {
	c, err := f.Compare(other)
	if err != nil {
		return false, err
	}
	return c == 0, nil
}

func asFloat(v Value) (float64, error) {
	switch o := v.(type) {
	case Integer:
		return float64(o), nil
	case Float:
		return float64(o), nil
	default:
		return 0, NewTypeError("arith", v)
	}
}

func numOpF(a Float, other Value, op string, apply func(float64, float64) float64) (Value, error) {
	o, err := asFloat(other)
	if err != nil {
		return nil, NewTypeError(op, other)
	}
	return Float(apply(float64(a), o)), nil
}

func numOp(a Integer, other Value, op string, applyInt func(int64, int64) int64, applyFloat func(float64, float64) float64) (Value, error) {
	switch o := other.(type) {
	case Integer:
		return Integer(applyInt(int64(a), int64(o))), nil
	case Float:
		return Float(applyFloat(float64(a), float64(o))), nil
	default:
		return nil, NewTypeError(op, other)
	}
}

// ToInteger converts v to an Integer, narrowing a Float by truncation and
// raising TagOutOfRange if the Float is not representable.
func ToInteger(v Value) (Integer, error) {
	switch o := v.(type) {
	case Integer:
		return o, nil
	case Float:
		if math.IsNaN(float64(o)) || math.IsInf(float64(o), 0) {
			return 0, NewException(TagOutOfRange, "float not representable as integer", v)
		}
		return Integer(int64(o)), nil
	case Text:
		n, err := strconv.ParseInt(string(o), 10, 64)
		if err != nil {
			return 0, NewException(TagOutOfRange, fmt.Sprintf("invalid integer literal: %q", string(o)), v)
		}
		return Integer(n), nil
	default:
		return 0, NewTypeError("itof", v)
	}
}

// ToFloat converts v to a Float.
func ToFloat(v Value) (Float, error) {
	switch o := v.(type) {
	case Integer:
		return Float(o), nil
	case Float:
		return o, nil
	case Text:
		f, err := strconv.ParseFloat(string(o), 64)
		if err != nil {
			return 0, NewException(TagOutOfRange, fmt.Sprintf("invalid float literal: %q", string(o)), v)
		}
		return Float(f), nil
	default:
		return 0, NewTypeError("ftoi", v)
	}
}
