package process

import (
	"viua/internal/bytecode"
	"viua/internal/value"
)

// step fetches, decodes, and executes exactly one instruction, advancing
// p.pc (or redirecting it, for control-transfer instructions). It is the
// "fetches one instruction at the current address, decodes its opcode,
// executes the corresponding handler, which returns the next instruction
// address" loop of §4.4, generalising the teacher's single flat dispatch
// switch (vm/vm.go) across the opcode families of §4.2.
func (p *Process) step() error {
	code := p.rt.Code()
	op, off, err := bytecode.DecodeOpcode(code, int(p.pc))
	if err != nil {
		return err
	}

	frame, err := p.currentFrame()
	if err != nil {
		return err
	}

	next, err := p.dispatch(op, frame, code, off)
	if err != nil {
		return err
	}
	p.pc = next
	return nil
}

func (p *Process) dispatch(op bytecode.Opcode, frame *Frame, code []byte, off int) (uint64, error) {
	switch op {
	case bytecode.Nop:
		return uint64(off), nil

	// Arithmetic
	case bytecode.Add, bytecode.Sub, bytecode.Mul, bytecode.Div:
		return p.execArith(op, frame, code, off)

	// Comparisons
	case bytecode.Lt, bytecode.Lte, bytecode.Gt, bytecode.Gte, bytecode.Eq:
		return p.execCompare(op, frame, code, off)

	// Conversions
	case bytecode.Itof, bytecode.Ftoi, bytecode.Stoi, bytecode.Stof:
		return p.execConvert(op, frame, code, off)

	// Text
	case bytecode.TextEq, bytecode.TextAt, bytecode.TextSub, bytecode.TextLength,
		bytecode.TextCommonPrefix, bytecode.TextCommonSuffix, bytecode.TextConcat:
		return p.execText(op, frame, code, off)

	// Vector
	case bytecode.VecCtor, bytecode.VecInsert, bytecode.VecPush, bytecode.VecPop,
		bytecode.VecAt, bytecode.VecLen:
		return p.execVector(op, frame, code, off)

	// Boolean
	case bytecode.Bool, bytecode.Not, bytecode.And, bytecode.Or:
		return p.execBoolean(op, frame, code, off)

	// Bits
	case bytecode.Bits, bytecode.BitAnd, bytecode.BitOr, bytecode.BitXor, bytecode.BitNot,
		bytecode.BitsWidth, bytecode.BitAt, bytecode.BitSet,
		bytecode.Shl, bytecode.Shr, bytecode.Ashl, bytecode.Ashr, bytecode.Rol, bytecode.Ror,
		bytecode.BitsAdd, bytecode.BitsSub, bytecode.BitsMul, bytecode.BitsDiv,
		bytecode.BitsEq, bytecode.BitsLt, bytecode.BitsLte, bytecode.BitsGt, bytecode.BitsGte:
		return p.execBits(op, frame, code, off)

	// Copy/move family
	case bytecode.Move, bytecode.Copy, bytecode.Ptr, bytecode.PtrLive,
		bytecode.Swap, bytecode.Delete, bytecode.IsNull:
		return p.execCopyMove(op, frame, code, off)

	// Closure family
	case bytecode.Capture, bytecode.CaptureCopy, bytecode.CaptureMove,
		bytecode.MakeClosure, bytecode.MakeFunction:
		return p.execClosure(op, frame, code, off)

	// Call family
	case bytecode.Frame, bytecode.Param, bytecode.Pamv, bytecode.Call, bytecode.TailCall,
		bytecode.Defer, bytecode.Arg, bytecode.AllocateRegisters, bytecode.Return:
		return p.execCall(op, frame, code, off)

	// Concurrency
	case bytecode.Process, bytecode.Self, bytecode.Join, bytecode.Send,
		bytecode.Receive, bytecode.Watchdog:
		return p.execConcurrency(op, frame, code, off)

	// Control
	case bytecode.Jump, bytecode.If:
		return p.execControl(op, frame, code, off)

	// Exception
	case bytecode.Throw, bytecode.Catch, bytecode.Draw, bytecode.Try,
		bytecode.Enter, bytecode.Leave:
		return p.execException(op, frame, code, off)

	// Atom / struct
	case bytecode.AtomOp:
		return p.execAtom(frame, code, off)
	case bytecode.StructNew, bytecode.StructGet, bytecode.StructSet,
		bytecode.StructRemove, bytecode.StructKeys:
		return p.execStruct(op, frame, code, off)

	case bytecode.Import:
		return p.execImport(frame, code, off)

	// I/O
	case bytecode.IOSubmit, bytecode.IOWait, bytecode.IOCancel, bytecode.IOPortOp:
		return p.execIO(op, frame, code, off)

	case bytecode.Ress:
		return p.execRess(frame, code, off)

	case bytecode.Halt, bytecode.Print, bytecode.Echo:
		return p.execMisc(op, frame, code, off)

	default:
		return uint64(off), value.NewException("Invalid_opcode", "unrecognised opcode", value.Integer(int(op)))
	}
}

// decodeRegOrVoid decodes either a Register operand or a Void marker (used
// by call-family destination operands).
func decodeRegOrVoid(code []byte, off int) (bytecode.RegisterOperand, bool, int, error) {
	isVoid, err := bytecode.IsVoid(code, off)
	if err != nil {
		return bytecode.RegisterOperand{}, false, off, err
	}
	if isVoid {
		next, err := bytecode.DecodeVoid(code, off)
		return bytecode.RegisterOperand{}, true, next, err
	}
	reg, next, err := bytecode.DecodeRegister(code, off)
	return reg, false, next, err
}
