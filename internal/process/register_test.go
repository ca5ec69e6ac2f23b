package process

import (
	"testing"

	"viua/internal/bytecode"
	"viua/internal/value"
)

func TestRegisterSetPutGetMove(t *testing.T) {
	rs := NewRegisterSet(bytecode.Local, 2)
	assert(t, rs.Put(0, value.Integer(1)) == nil, "put failed")
	v, ok, err := rs.Get(0)
	assert(t, err == nil && ok, "expected a value at slot 0")
	assert(t, v.(value.Integer) == 1, "got %v, want 1", v)

	moved, err := rs.Move(0)
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, moved.(value.Integer) == 1, "got %v, want 1", moved)
	_, ok, _ = rs.Get(0)
	assert(t, !ok, "expected slot 0 empty after move")
}

func TestRegisterSetResizeOnlyGrows(t *testing.T) {
	rs := NewRegisterSet(bytecode.Local, 2)
	rs.Put(1, value.Integer(9))
	rs.Resize(1)
	assert(t, rs.Len() == 2, "resize should never shrink, got len %d", rs.Len())
	rs.Resize(5)
	assert(t, rs.Len() == 5, "got len %d, want 5", rs.Len())
	v, ok, _ := rs.Get(1)
	assert(t, ok && v.(value.Integer) == 9, "resize must preserve existing slots")
}

func TestWatcherInvalidatedOnDeleteAndMove(t *testing.T) {
	rs := NewRegisterSet(bytecode.Local, 2)
	rs.Put(0, value.Integer(1))
	ptr := value.NewPointer(value.NewPid(), value.Integer(1))
	rs.Watch(0, ptr)
	assert(t, !ptr.Expired(), "pointer should start live")

	rs.Delete(0)
	assert(t, ptr.Expired(), "pointer should expire once its register is deleted")

	rs.Put(1, value.Integer(2))
	ptr2 := value.NewPointer(value.NewPid(), value.Integer(2))
	rs.Watch(1, ptr2)
	rs.Move(1)
	assert(t, ptr2.Expired(), "pointer should expire once its register is moved away")
}

func TestOutOfBoundsRaisesException(t *testing.T) {
	rs := NewRegisterSet(bytecode.Local, 1)
	_, _, err := rs.Get(5)
	assert(t, err != nil, "expected an out-of-range error")
	exc, ok := err.(*value.Exception)
	assert(t, ok, "expected *value.Exception, got %T", err)
	assert(t, exc.Tag() == value.TagOutOfRange, "got tag %q", exc.Tag())
}
