package process

import (
	"fmt"

	"viua/internal/bytecode"
	"viua/internal/value"
)

// execMisc implements halt, print, echo: halt ends the process outright
// regardless of stack depth; print/echo write a value's string form to the
// host's standard output, echo without and print with a trailing newline.
func (p *Process) execMisc(op bytecode.Opcode, frame *Frame, code []byte, off int) (uint64, error) {
	switch op {
	case bytecode.Halt:
		p.status = Finished
		p.resultValue = nil
		return uint64(off), nil

	case bytecode.Print, bytecode.Echo:
		srcOp, next, err := bytecode.DecodeRegister(code, off)
		if err != nil {
			return 0, err
		}
		v, err := p.ReadReg(frame, srcOp)
		if err != nil {
			return 0, err
		}
		if op == bytecode.Print {
			fmt.Println(v.Str())
		} else {
			fmt.Print(v.Str())
		}
		return uint64(next), nil
	}
	return 0, value.NewException(value.TagTypeMismatch, "unreachable misc opcode", nil)
}

// execRess implements the supplemented `ress` instruction (§4.7): switches
// which register set plain Local-tagged operands address, among
// Local/Static/Global. The switch is process-wide: calls and returns do not
// reset it.
func (p *Process) execRess(frame *Frame, code []byte, off int) (uint64, error) {
	if err := need1(code, off); err != nil {
		return 0, err
	}
	kind := bytecode.RegisterSetKind(code[off])
	switch kind {
	case bytecode.Local, bytecode.Static, bytecode.Global:
		p.currentRS = kind
	default:
		return 0, value.NewException(value.TagTypeMismatch, "ress requires local, static, or global", nil)
	}
	return uint64(off + 1), nil
}

func need1(code []byte, off int) error {
	if off < 0 || off >= len(code) {
		return bytecode.ErrTruncated
	}
	return nil
}

// execImport implements dynamic module loading (§4.7/§6): resolves and
// loads a module by name through the Kernel, making its exported functions
// callable by name from this point on.
func (p *Process) execImport(frame *Frame, code []byte, off int) (uint64, error) {
	name, next, err := bytecode.DecodeAtom(code, off)
	if err != nil {
		return 0, err
	}
	if err := p.rt.Import(name); err != nil {
		return 0, err
	}
	return uint64(next), nil
}
