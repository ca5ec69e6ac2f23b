package value

import "testing"

func assert(t *testing.T, cond bool, format string, args ...any) {
	t.Helper()
	if !cond {
		t.Fatalf(format, args...)
	}
}

func TestIntegerArithmetic(t *testing.T) {
	sum, err := Integer(2).Add(Integer(3))
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, sum.(Integer) == 5, "got %v, want 5", sum)

	_, err = Integer(1).Div(Integer(0))
	assert(t, err != nil, "expected division by zero error")
	exc, ok := err.(*Exception)
	assert(t, ok, "expected *Exception, got %T", err)
	assert(t, exc.Tag() == TagDivisionByZero, "got tag %q", exc.Tag())
}

func TestIntegerFloatPromotion(t *testing.T) {
	sum, err := Integer(2).Add(Float(1.5))
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, sum.(Float) == 3.5, "got %v, want 3.5", sum)
}

func TestTypeMismatchRaisesTaggedException(t *testing.T) {
	_, err := Integer(1).Add(Text("x"))
	assert(t, err != nil, "expected type error")
	exc := err.(*Exception)
	assert(t, exc.Tag() == TagTypeMismatch, "got tag %q", exc.Tag())
}

func TestTextIsCodepointIndexed(t *testing.T) {
	text := Text("héllo")
	assert(t, text.Len() == 5, "got len %d, want 5 codepoints", text.Len())
	r, err := text.At(1)
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, r.Str() == "é", "got %q, want %q", r.Str(), "é")
}

func TestBitsWrappingAdd(t *testing.T) {
	a := BitsFromUint64(8, 0xFF)
	b := BitsFromUint64(8, 1)
	sum, err := a.Add(b, OverflowWrap)
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, sum.IsZero(), "expected wraparound to zero, got %s", sum.Repr())
}

func TestBitsCheckedSignedOverflow(t *testing.T) {
	a := BitsFromUint64(8, 0x7F)
	b := BitsFromUint64(8, 1)
	_, err := a.Add(b, OverflowCheckedSigned)
	assert(t, err != nil, "expected signed overflow to be caught")
}

func TestBitsSaturatingSignedOverflow(t *testing.T) {
	a := BitsFromUint64(8, 0x7F)
	b := BitsFromUint64(8, 1)
	sum, err := a.Add(b, OverflowSaturatingSigned)
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, sum.toInt64() == 127, "got %d, want saturated 127", sum.toInt64())
}

func TestPointerExpiry(t *testing.T) {
	owner := NewPid()
	ptr := NewPointer(owner, Integer(42))
	v, err := ptr.To()
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, v.(Integer) == 42, "got %v, want 42", v)

	ptr.Invalidate()
	_, err = ptr.To()
	assert(t, err != nil, "expected dereference of invalidated pointer to fail")
}

func TestClosureCaptureByMoveIsIndependentOfCopy(t *testing.T) {
	fn := NewFunction("adder", 1)
	closure := NewClosure(fn, map[uint16]CapturedSlot{
		0: {Mode: CaptureByMove, Value: Integer(7)},
	})
	slot, ok := closure.Captured(0)
	assert(t, ok, "expected captured register 0")
	assert(t, slot.Value.(Integer) == 7, "got %v, want 7", slot.Value)
}

func TestStructPreservesInsertionOrder(t *testing.T) {
	s := NewStruct()
	s.Set(Atom("b"), Integer(2))
	s.Set(Atom("a"), Integer(1))
	keys := s.Keys()
	assert(t, len(keys) == 2, "got %d keys, want 2", len(keys))
	assert(t, keys[0] == Atom("b") && keys[1] == Atom("a"), "got %v, want insertion order", keys)
}

func TestExceptionAccumulatesThrowPoints(t *testing.T) {
	exc := NewException("Some_error", "boom", nil)
	exc.AddThrowPoint("inner_function")
	exc.AddThrowPoint("outer_function")
	points := exc.ThrowPoints()
	assert(t, len(points) == 2, "got %d throw points, want 2", len(points))
	assert(t, points[0] == "inner_function", "got %v", points)
}
