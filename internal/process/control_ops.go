package process

import (
	"viua/internal/bytecode"
	"viua/internal/value"
)

// execControl implements jump/if (§4.2): both carry Address operands
// resolved relative to the current frame's Base, the absolute entry point
// of whichever function or exception-handler block is presently executing.
func (p *Process) execControl(op bytecode.Opcode, frame *Frame, code []byte, off int) (uint64, error) {
	switch op {
	case bytecode.Jump:
		target, next, err := bytecode.DecodeAddress(code, off)
		if err != nil {
			return 0, err
		}
		_ = next
		return frame.Base + target, nil

	case bytecode.If:
		condOp, next, err := bytecode.DecodeRegister(code, off)
		if err != nil {
			return 0, err
		}
		thenAddr, next2, err := bytecode.DecodeAddress(code, next)
		if err != nil {
			return 0, err
		}
		elseAddr, next3, err := bytecode.DecodeAddress(code, next2)
		if err != nil {
			return 0, err
		}
		_ = next3
		cond, err := p.ReadReg(frame, condOp)
		if err != nil {
			return 0, err
		}
		if cond.Boolean() {
			return frame.Base + thenAddr, nil
		}
		return frame.Base + elseAddr, nil
	}
	return 0, value.NewException(value.TagTypeMismatch, "unreachable control opcode", nil)
}
