package value

import "github.com/google/uuid"

// Pid identifies a process, process-wide unique, total ordered, and stable
// in its string form. Backed by a 128-bit UUID per §3's recommendation that
// PIDs be "sized to make accidental collisions ... implausible".
type Pid struct {
	id uuid.UUID
}

// NewPid mints a fresh, randomly generated Pid. Called exactly once per
// spawned process by the Kernel's PID emitter.
func NewPid() Pid {
	return Pid{id: uuid.New()}
}

func (p Pid) Type() string  { return "pid" }
func (p Pid) Boolean() bool { return true }
func (p Pid) Copy() Value   { return p }

// String gives the stable printable form of a Pid.
func (p Pid) String() string { return p.id.String() }

func (p Pid) Str() string  { return p.String() }
func (p Pid) Repr() string { return "pid:" + p.String() }

func (p Pid) Equal(other Value) (bool, error) {
	o, ok := other.(Pid)
	if !ok {
		return false, NewTypeError("eq", other)
	}
	return p.id == o.id, nil
}

// Compare gives the total order over Pids required so they can be used as
// map keys, sorted, or otherwise deterministically ordered.
func (p Pid) Compare(other Value) (int, error) {
	o, ok := other.(Pid)
	if !ok {
		return 0, NewTypeError("cmp", other)
	}
	for i := range p.id {
		if p.id[i] != o.id[i] {
			if p.id[i] < o.id[i] {
				return -1, nil
			}
			return 1, nil
		}
	}
	return 0, nil
}

// IsZero reports whether p is the zero-value Pid (never assigned by
// NewPid, used as a sentinel for "no process").
func (p Pid) IsZero() bool { return p.id == uuid.Nil }
