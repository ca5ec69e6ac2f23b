package bytecode

import "encoding/binary"

// nativeUint64 and putNativeUint64 read/write f64 operands in the host's
// native byte order, per §4.2's "f64 ... raw 8 bytes, host byte order" (the
// one primitive that is deliberately not big-endian on the wire). Like the
// teacher's own float32/int32 byte helpers, this assumes a little-endian
// host, which covers every platform the runtime targets.
func nativeUint64(b []byte) uint64 {
	return binary.LittleEndian.Uint64(b)
}

func putNativeUint64(b []byte, v uint64) {
	binary.LittleEndian.PutUint64(b, v)
}
