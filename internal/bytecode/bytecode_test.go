package bytecode

import (
	"testing"
	"time"
)

func assert(t *testing.T, cond bool, format string, args ...any) {
	t.Helper()
	if !cond {
		t.Fatalf(format, args...)
	}
}

func TestRegisterRoundTrip(t *testing.T) {
	buf := make([]byte, 4)
	want := RegisterOperand{Mode: PointerDereference, Set: Static, Index: 0xBEEF}
	EncodeRegister(buf, 0, want)
	got, next, err := DecodeRegister(buf, 0)
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, next == 4, "got next=%d, want 4", next)
	assert(t, got == want, "got %+v, want %+v", got, want)
}

func TestAtomRoundTrip(t *testing.T) {
	buf := make([]byte, 16)
	next := EncodeAtom(buf, 0, "timeout")
	got, end, err := DecodeAtom(buf, 0)
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, end == next, "got end=%d, want %d", end, next)
	assert(t, got == "timeout", "got %q", got)
}

func TestI32RoundTrip(t *testing.T) {
	buf := make([]byte, 5)
	EncodeI32(buf, 0, -12345)
	got, _, err := DecodeI32(buf, 0)
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, got == -12345, "got %d, want -12345", got)
}

func TestF64RoundTrip(t *testing.T) {
	buf := make([]byte, 8)
	EncodeF64(buf, 0, 3.5)
	got, _, err := DecodeF64(buf, 0)
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, got == 3.5, "got %v, want 3.5", got)
}

func TestTimeoutZeroMeansInfinity(t *testing.T) {
	buf := make([]byte, 5)
	EncodeTimeout(buf, 0, 0)
	got, _, err := DecodeTimeout(buf, 0)
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, got == 0, "got %v, want 0 (infinity)", got)

	EncodeTimeout(buf, 0, 10*time.Millisecond)
	got, _, err = DecodeTimeout(buf, 0)
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, got == 10*time.Millisecond, "got %v, want 10ms", got)
}

func TestBitsRoundTrip(t *testing.T) {
	raw := []byte{0xFF, 0x00}
	buf := make([]byte, 9+len(raw))
	EncodeBits(buf, 0, 9, raw)
	width, got, _, err := DecodeBits(buf, 0)
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, width == 9, "got width=%d, want 9", width)
	assert(t, len(got) == len(raw) && got[0] == raw[0] && got[1] == raw[1], "got %v, want %v", got, raw)
}

func TestTruncatedOperandIsReported(t *testing.T) {
	buf := []byte{0x00, 0x00}
	_, _, err := DecodeRegister(buf, 0)
	assert(t, err == ErrTruncated, "got %v, want ErrTruncated", err)
}

func TestOpcodeZeroIsNop(t *testing.T) {
	assert(t, Nop == 0, "Nop must be opcode byte 0")
	assert(t, Nop.String() == "nop", "got %q", Nop.String())
}
