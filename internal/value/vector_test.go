package value

import "testing"

func TestVectorAtAndSetAcceptNegativeIndices(t *testing.T) {
	v := NewVector(Integer(10), Integer(20), Integer(30))

	elem, err := v.At(-1)
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, elem.(Integer) == 30, "got %v, want 30", elem)

	elem, err = v.At(-3)
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, elem.(Integer) == 10, "got %v, want 10", elem)

	assert(t, v.Set(-2, Integer(99)) == nil, "unexpected error setting by negative index")
	elem, err = v.At(1)
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, elem.(Integer) == 99, "got %v, want 99", elem)
}

func TestVectorAtNegativeIndexOutOfRange(t *testing.T) {
	v := NewVector(Integer(1), Integer(2))
	_, err := v.At(-3)
	assert(t, err != nil, "expected out-of-range error")
	exc, ok := err.(*Exception)
	assert(t, ok, "expected *Exception, got %T", err)
	assert(t, exc.Tag() == TagIndexOutOfBounds, "got tag %q", exc.Tag())
}

func TestVectorInsertAndRemoveByNegativeIndex(t *testing.T) {
	v := NewVector(Integer(1), Integer(2), Integer(3))

	assert(t, v.Insert(-1, Integer(99)) == nil, "unexpected error on negative insert")
	assert(t, v.Len() == 4, "got len %d, want 4", v.Len())
	elem, err := v.At(2)
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, elem.(Integer) == 99, "got %v, want 99 inserted before the last element", elem)

	removed, err := v.Remove(-1)
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, removed.(Integer) == 3, "got %v, want 3", removed)
	assert(t, v.Len() == 3, "got len %d, want 3", v.Len())
}

func TestVectorSliceWithNegativeBounds(t *testing.T) {
	v := NewVector(Integer(1), Integer(2), Integer(3), Integer(4), Integer(5))

	sl, err := v.Slice(-3, -1)
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, sl.Len() == 2, "got len %d, want 2", sl.Len())
	first, _ := sl.At(0)
	second, _ := sl.At(1)
	assert(t, first.(Integer) == 3, "got %v, want 3", first)
	assert(t, second.(Integer) == 4, "got %v, want 4", second)

	_, err = v.Slice(-10, -1)
	assert(t, err != nil, "expected an out-of-range error for a too-negative start")
}

func TestVectorPushAndPop(t *testing.T) {
	v := NewVector(Integer(1))
	v.Push(Integer(2))
	assert(t, v.Len() == 2, "got len %d, want 2", v.Len())

	popped, err := v.Pop()
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, popped.(Integer) == 2, "got %v, want 2", popped)

	_, err = NewVector().Pop()
	assert(t, err != nil, "expected an error popping an empty vector")
}
