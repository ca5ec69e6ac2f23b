// Package process implements the executing unit of the runtime (§4.4): the
// per-process call stack, register machine, and instruction dispatch loop.
// It is the direct generalisation of the teacher's register/stack CPU
// (vm/vm.go's dispatch loop, vm/bytecode.go's opcode table) from a single
// flat 32-register machine to §3's six addressable register-set kinds and
// a process-owned frame stack.
package process

import (
	"viua/internal/bytecode"
	"viua/internal/value"
)

// Flag is a bitmask of per-register state, per §3's register flag list.
type Flag uint16

const (
	FlagReference Flag = 1 << iota
	FlagCopyOnWrite
	FlagKeepAcrossFramePop
	FlagBindForClosure
	FlagBoundInClosure
	FlagPassedByMove
	FlagMoved
)

// Has reports whether f includes every bit in mask.
func (f Flag) Has(mask Flag) bool { return f&mask == mask }

// Register is a slot holding at most one Value, with its flag mask.
type Register struct {
	value value.Value
	flags Flag
}

// RegisterSet is a fixed-size indexed sequence of Registers, one of §3's
// six addressable kinds (Local, Static, Global, Arguments, Parameters,
// Closure-local).
type RegisterSet struct {
	kind     bytecode.RegisterSetKind
	regs     []Register
	watchers map[int][]value.Pointer
}

// NewRegisterSet allocates a RegisterSet of the given kind and size, every
// slot starting empty.
func NewRegisterSet(kind bytecode.RegisterSetKind, size int) *RegisterSet {
	return &RegisterSet{kind: kind, regs: make([]Register, size)}
}

// Kind reports which of the six register-set kinds this is.
func (rs *RegisterSet) Kind() bytecode.RegisterSetKind { return rs.kind }

// Len reports the number of addressable slots.
func (rs *RegisterSet) Len() int { return len(rs.regs) }

// Resize grows the register set to n slots if it is not already at least
// that large; it never shrinks. `allocate_registers` calls it on the current
// frame's locals whether or not they were already sized by the caller's
// `frame` instruction, so an already-sized set smaller than n is enlarged
// too.
func (rs *RegisterSet) Resize(n int) {
	if n <= len(rs.regs) {
		return
	}
	grown := make([]Register, n)
	copy(grown, rs.regs)
	rs.regs = grown
}

func (rs *RegisterSet) bounds(i int) error {
	if i < 0 || i >= len(rs.regs) {
		return value.NewException(value.TagOutOfRange, "register index out of bounds", value.Integer(i))
	}
	return nil
}

// Get reads the value in slot i without consuming it. A null (never
// assigned, or deleted/moved) slot reports via ok=false rather than an
// error, since "is this register empty" is itself a valid question
// (`isnull`).
func (rs *RegisterSet) Get(i int) (value.Value, bool, error) {
	if err := rs.bounds(i); err != nil {
		return nil, false, err
	}
	v := rs.regs[i].value
	return v, v != nil, nil
}

// Flags returns the flag mask of slot i.
func (rs *RegisterSet) Flags(i int) (Flag, error) {
	if err := rs.bounds(i); err != nil {
		return 0, err
	}
	return rs.regs[i].flags, nil
}

// SetFlag ORs mask into slot i's flags.
func (rs *RegisterSet) SetFlag(i int, mask Flag) error {
	if err := rs.bounds(i); err != nil {
		return err
	}
	rs.regs[i].flags |= mask
	return nil
}

// Put places v into slot i, replacing and discarding whatever was there.
// Most instructions should prefer Move when transferring ownership of an
// existing value between registers, since Put does not clear a source slot.
func (rs *RegisterSet) Put(i int, v value.Value) error {
	if err := rs.bounds(i); err != nil {
		return err
	}
	rs.invalidateWatchers(i)
	rs.regs[i] = Register{value: v}
	return nil
}

// Move takes ownership of the value in slot i, leaving the slot empty and
// flagged Moved; a later access of a Moved slot from a closure's capturing
// scope is the Memory-class fault §4.1 describes for capture-by-move.
func (rs *RegisterSet) Move(i int) (value.Value, error) {
	if err := rs.bounds(i); err != nil {
		return nil, err
	}
	v := rs.regs[i].value
	if v == nil {
		return nil, value.NewException(value.TagOutOfRange, "move from empty register", value.Integer(i))
	}
	rs.regs[i] = Register{flags: FlagMoved}
	rs.invalidateWatchers(i)
	return v, nil
}

// Delete empties slot i outright (the `delete` instruction), discarding any
// value held there.
func (rs *RegisterSet) Delete(i int) error {
	if err := rs.bounds(i); err != nil {
		return err
	}
	rs.regs[i] = Register{}
	rs.invalidateWatchers(i)
	return nil
}

// Watch registers ptr to be invalidated when slot i's value is deleted or
// moved away, the mechanism behind `ptr`/`ptrlive`: a Pointer taken on a
// register must expire the moment that register stops holding the value it
// pointed to (§8's "takes a pointer to a register, deletes the register,
// then ptrlive returns false").
func (rs *RegisterSet) Watch(i int, ptr value.Pointer) {
	if rs.watchers == nil {
		rs.watchers = make(map[int][]value.Pointer)
	}
	rs.watchers[i] = append(rs.watchers[i], ptr)
}

func (rs *RegisterSet) invalidateWatchers(i int) {
	for _, ptr := range rs.watchers[i] {
		ptr.Invalidate()
	}
	delete(rs.watchers, i)
}

// IsNull reports whether slot i currently holds no value.
func (rs *RegisterSet) IsNull(i int) (bool, error) {
	if err := rs.bounds(i); err != nil {
		return false, err
	}
	return rs.regs[i].value == nil, nil
}
