package process

import (
	"time"

	"viua/internal/bytecode"
	"viua/internal/value"
)

// execIO implements the I/O family (§4.6): io_port mints a port handle,
// io_submit hands a request to the I/O scheduler pool, io_wait is a
// suspension point polling a submitted request to completion, io_cancel
// requests early cancellation.
func (p *Process) execIO(op bytecode.Opcode, frame *Frame, code []byte, off int) (uint64, error) {
	switch op {
	case bytecode.IOPortOp:
		dst, idOp, next, err := decode2(code, off)
		if err != nil {
			return 0, err
		}
		idVal, err := p.ReadReg(frame, idOp)
		if err != nil {
			return 0, err
		}
		id, err := value.ToInteger(idVal)
		if err != nil {
			return 0, err
		}
		if err := p.WriteReg(frame, dst, value.NewIOPort(uint64(id))); err != nil {
			return 0, err
		}
		return uint64(next), nil

	case bytecode.IOSubmit:
		dst, portOp, next, err := decode2(code, off)
		if err != nil {
			return 0, err
		}
		pv, err := p.ReadReg(frame, portOp)
		if err != nil {
			return 0, err
		}
		port, ok := pv.(value.IOPort)
		if !ok {
			return 0, value.NewTypeError("io_submit", pv)
		}
		p.ioNextID++
		req := value.NewIORequest(p.ioNextID, port)
		if err := p.rt.SubmitIO(req); err != nil {
			return 0, err
		}
		if err := p.WriteReg(frame, dst, req); err != nil {
			return 0, err
		}
		return uint64(next), nil

	case bytecode.IOWait:
		return p.execIOWait(frame, code, off)

	case bytecode.IOCancel:
		reqOp, next, err := bytecode.DecodeRegister(code, off)
		if err != nil {
			return 0, err
		}
		rv, err := p.ReadReg(frame, reqOp)
		if err != nil {
			return 0, err
		}
		req, ok := rv.(*value.IORequest)
		if !ok {
			return 0, value.NewTypeError("io_cancel", rv)
		}
		if err := p.rt.CancelIO(req); err != nil {
			return 0, err
		}
		return uint64(next), nil
	}
	return 0, value.NewException(value.TagTypeMismatch, "unreachable io opcode", nil)
}

func (p *Process) execIOWait(frame *Frame, code []byte, off int) (uint64, error) {
	dst, isVoid, next, err := decodeRegOrVoid(code, off)
	if err != nil {
		return 0, err
	}
	reqOp, next2, err := bytecode.DecodeRegister(code, next)
	if err != nil {
		return 0, err
	}
	timeout, next3, err := bytecode.DecodeTimeout(code, next2)
	if err != nil {
		return 0, err
	}
	rv, err := p.ReadReg(frame, reqOp)
	if err != nil {
		return 0, err
	}
	req, ok := rv.(*value.IORequest)
	if !ok {
		return 0, value.NewTypeError("io_wait", rv)
	}

	if req.State() == value.IOComplete {
		p.clearSuspend()
		result, exc := req.Result()
		if exc != nil {
			return 0, exc
		}
		if !isVoid {
			if err := p.WriteReg(frame, dst, result); err != nil {
				return 0, err
			}
		}
		return uint64(next3), nil
	}
	if req.State() == value.IOCancelled {
		p.clearSuspend()
		return 0, value.NewException(value.TagIOCancelled, "io request was cancelled", nil)
	}

	if p.armSuspend(SuspendIO, timeout, dst, isVoid, value.Pid{}, req) {
		p.status = SuspendedIOWait
		return p.pc, nil
	}
	if p.suspend.Expired(time.Now()) {
		p.clearSuspend()
		return 0, value.NewException(value.TagIOTimeout, "io_wait timed out", nil)
	}
	p.status = SuspendedIOWait
	return p.pc, nil
}
