package process

import (
	"testing"

	"viua/internal/bytecode"
)

func newTestFrame() *Frame {
	return &Frame{
		Args:   NewRegisterSet(bytecode.Arguments, 0),
		Locals: NewRegisterSet(bytecode.Local, 0),
	}
}

func TestStackPushPop(t *testing.T) {
	s := NewStack()
	f := newTestFrame()
	assert(t, s.Push(f) == nil, "push failed")
	assert(t, s.Depth() == 1, "got depth %d, want 1", s.Depth())
	popped, err := s.Pop()
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, popped == f, "popped the wrong frame")
	assert(t, s.Depth() == 0, "got depth %d, want 0", s.Depth())
}

func TestPopOnEmptyStackIsAnError(t *testing.T) {
	s := NewStack()
	_, err := s.Pop()
	assert(t, err != nil, "expected return-on-empty-stack to error")
}

func TestFrameCannotPopWhileTryFrameActive(t *testing.T) {
	s := NewStack()
	f := newTestFrame()
	s.Push(f)
	s.PushTry(&TryFrame{Catchers: map[string]string{}})
	_, err := s.Pop()
	assert(t, err != nil, "expected pop to fail while a try frame anchors this frame")

	s.PopTry()
	_, err = s.Pop()
	assert(t, err == nil, "expected pop to succeed once the try frame is gone: %v", err)
}

func TestFindHandlerSearchesInnermostFirst(t *testing.T) {
	s := NewStack()
	s.Push(newTestFrame())
	s.PushTry(&TryFrame{Catchers: map[string]string{"Outer": "outer_block"}})
	s.Push(newTestFrame())
	s.PushTry(&TryFrame{Catchers: map[string]string{"Inner": "inner_block"}})

	tf, block, idx := s.FindHandler("Inner")
	assert(t, tf != nil, "expected a match for Inner")
	assert(t, block == "inner_block", "got %q, want inner_block", block)
	assert(t, idx == 1, "got idx %d, want 1", idx)

	tf, block, _ = s.FindHandler("Outer")
	assert(t, tf != nil, "expected a match for Outer")
	assert(t, block == "outer_block", "got %q, want outer_block", block)

	tf, _, _ = s.FindHandler("Nonexistent")
	assert(t, tf == nil, "expected no match for an unregistered tag")
}

func TestUnwindToDropsInnerFramesAndTryFrames(t *testing.T) {
	s := NewStack()
	s.Push(newTestFrame())
	s.PushTry(&TryFrame{Catchers: map[string]string{"E": "handler"}})
	s.Push(newTestFrame())
	s.Push(newTestFrame())

	_, _, idx := s.FindHandler("E")
	s.UnwindTo(idx)

	assert(t, s.Depth() == 1, "got depth %d, want 1 after unwinding to the outer frame", s.Depth())
	assert(t, len(s.TryFrames) == 0, "expected the matched try frame to be gone too")
}
