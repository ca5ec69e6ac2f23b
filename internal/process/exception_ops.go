package process

import (
	"viua/internal/bytecode"
	"viua/internal/value"
)

// execException implements the unwind-protection family (§4.4): try opens a
// protected region, catch registers a tag -> handler-block mapping against
// it, enter transfers control into a handler block (recording where leave
// should resume), throw begins an unwind, draw reads the value a matched
// handler is running with, leave closes the protected region.
func (p *Process) execException(op bytecode.Opcode, frame *Frame, code []byte, off int) (uint64, error) {
	switch op {
	case bytecode.Try:
		p.stack.PushTry(&TryFrame{Catchers: map[string]string{}})
		return uint64(off), nil

	case bytecode.Catch:
		tag, next, err := bytecode.DecodeAtom(code, off)
		if err != nil {
			return 0, err
		}
		block, next2, err := bytecode.DecodeAtom(code, next)
		if err != nil {
			return 0, err
		}
		tf := p.stack.TopTry()
		if tf == nil {
			return 0, value.NewException(value.TagTypeMismatch, "catch with no active try frame", nil)
		}
		tf.Catchers[tag] = block
		return uint64(next2), nil

	case bytecode.Enter:
		block, next, err := bytecode.DecodeAtom(code, off)
		if err != nil {
			return 0, err
		}
		tf := p.stack.TopTry()
		if tf == nil {
			return 0, value.NewException(value.TagTypeMismatch, "enter with no active try frame", nil)
		}
		addr, err := p.rt.ResolveBlock(block)
		if err != nil {
			return 0, err
		}
		tf.ReturnAddress = uint64(next)
		tf.SavedBase = frame.Base
		frame.Base = addr
		p.stack.Base = addr
		return addr, nil

	case bytecode.Throw:
		srcOp, next, err := bytecode.DecodeRegister(code, off)
		if err != nil {
			return 0, err
		}
		v, err := p.ReadReg(frame, srcOp)
		if err != nil {
			return 0, err
		}
		_ = next
		return p.raise(v), nil

	case bytecode.Draw:
		dst, next, err := bytecode.DecodeRegister(code, off)
		if err != nil {
			return 0, err
		}
		if p.stack.Caught == nil {
			return 0, value.NewException(value.TagTypeMismatch, "draw outside an active handler", nil)
		}
		if err := p.WriteReg(frame, dst, p.stack.Caught); err != nil {
			return 0, err
		}
		p.stack.Caught = nil
		return uint64(next), nil

	case bytecode.Leave:
		tf, err := p.stack.PopTry()
		if err != nil {
			return 0, err
		}
		frame.Base = tf.SavedBase
		p.stack.Base = frame.Base
		return tf.ReturnAddress, nil
	}
	return 0, value.NewException(value.TagTypeMismatch, "unreachable exception opcode", nil)
}
