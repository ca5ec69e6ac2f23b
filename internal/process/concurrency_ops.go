package process

import (
	"time"

	"viua/internal/bytecode"
	"viua/internal/value"
)

// execConcurrency implements the concurrency family (§4.5): process spawns
// a sibling, self reports the caller's own Pid, join/receive are the two
// suspension points besides io_wait, send is fire-and-forget, watchdog
// registers the per-process crash handler.
func (p *Process) execConcurrency(op bytecode.Opcode, frame *Frame, code []byte, off int) (uint64, error) {
	switch op {
	case bytecode.Process:
		dst, isVoid, next, err := decodeRegOrVoid(code, off)
		if err != nil {
			return 0, err
		}
		name, next2, err := bytecode.DecodeAtom(code, next)
		if err != nil {
			return 0, err
		}
		var args *RegisterSet
		if p.pendingFrame != nil {
			args = p.pendingFrame.Args
			p.pendingFrame = nil
		}
		pid, err := p.rt.Spawn(name, args)
		if err != nil {
			return 0, err
		}
		if !isVoid {
			if err := p.WriteReg(frame, dst, pid); err != nil {
				return 0, err
			}
		}
		return uint64(next2), nil

	case bytecode.Self:
		dst, next, err := bytecode.DecodeRegister(code, off)
		if err != nil {
			return 0, err
		}
		if err := p.WriteReg(frame, dst, p.pid); err != nil {
			return 0, err
		}
		return uint64(next), nil

	case bytecode.Send:
		targetOp, valOp, next, err := decode2(code, off)
		if err != nil {
			return 0, err
		}
		tv, err := p.ReadReg(frame, targetOp)
		if err != nil {
			return 0, err
		}
		target, ok := tv.(value.Pid)
		if !ok {
			return 0, value.NewTypeError("send", tv)
		}
		val, err := p.MoveReg(frame, valOp)
		if err != nil {
			return 0, err
		}
		if err := p.rt.Send(target, val); err != nil {
			return 0, err
		}
		return uint64(next), nil

	case bytecode.Join:
		return p.execJoin(frame, code, off)

	case bytecode.Receive:
		return p.execReceive(frame, code, off)

	case bytecode.Watchdog:
		name, next, err := bytecode.DecodeAtom(code, off)
		if err != nil {
			return 0, err
		}
		p.watchdog = name
		return uint64(next), nil
	}
	return 0, value.NewException(value.TagTypeMismatch, "unreachable concurrency opcode", nil)
}

// armSuspend records a fresh wait if this is not already a retry of the
// same suspension kind (p.suspend persists across quanta until the wait
// resolves, distinguishing "just started waiting" from "woken up to check
// again"), per §4.5's quantum-based cooperative suspension model.
func (p *Process) armSuspend(kind SuspendKind, timeout time.Duration, dst bytecode.RegisterOperand, destVoid bool, target value.Pid, req *value.IORequest) bool {
	if p.suspend.Kind == kind {
		return false
	}
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	p.suspend = Suspend{Kind: kind, Deadline: deadline, Target: target, Request: req, Dest: dst, DestVoid: destVoid}
	return true
}

func (p *Process) clearSuspend() {
	p.suspend = Suspend{}
}

func (p *Process) execJoin(frame *Frame, code []byte, off int) (uint64, error) {
	dst, isVoid, next, err := decodeRegOrVoid(code, off)
	if err != nil {
		return 0, err
	}
	targetOp, next2, err := bytecode.DecodeRegister(code, next)
	if err != nil {
		return 0, err
	}
	timeout, next3, err := bytecode.DecodeTimeout(code, next2)
	if err != nil {
		return 0, err
	}
	tv, err := p.ReadReg(frame, targetOp)
	if err != nil {
		return 0, err
	}
	target, ok := tv.(value.Pid)
	if !ok {
		return 0, value.NewTypeError("join", tv)
	}
	if target == p.pid {
		return 0, value.NewException(value.TagJoinOnSelf, "a process cannot join itself", nil)
	}

	result, procErr, done := p.rt.ProcessResult(target)
	if done {
		p.clearSuspend()
		if procErr != nil {
			return 0, procErr
		}
		if !isVoid {
			if err := p.WriteReg(frame, dst, result); err != nil {
				return 0, err
			}
		}
		return uint64(next3), nil
	}

	if p.armSuspend(SuspendJoin, timeout, dst, isVoid, target, nil) {
		p.status = SuspendedJoin
		return p.pc, nil
	}
	if p.suspend.Expired(time.Now()) {
		p.clearSuspend()
		return 0, value.NewException(value.TagJoinTimeout, "join timed out", nil)
	}
	p.status = SuspendedJoin
	return p.pc, nil
}

func (p *Process) execReceive(frame *Frame, code []byte, off int) (uint64, error) {
	dst, isVoid, next, err := decodeRegOrVoid(code, off)
	if err != nil {
		return 0, err
	}
	timeout, next2, err := bytecode.DecodeTimeout(code, next)
	if err != nil {
		return 0, err
	}
	if msg, ok := p.rt.TryReceive(p.pid); ok {
		p.clearSuspend()
		if !isVoid {
			if err := p.WriteReg(frame, dst, msg); err != nil {
				return 0, err
			}
		}
		return uint64(next2), nil
	}

	if p.armSuspend(SuspendReceive, timeout, dst, isVoid, value.Pid{}, nil) {
		p.status = SuspendedReceive
		return p.pc, nil
	}
	if p.suspend.Expired(time.Now()) {
		p.clearSuspend()
		return 0, value.NewException(value.TagReceiveTimeout, "receive timed out", nil)
	}
	p.status = SuspendedReceive
	return p.pc, nil
}
