package kernel

import (
	"viua/internal/process"
	"viua/internal/value"
)

// Boot mints the main process's Pid, bootstraps it at entryName, tracks
// it, and posts it to the process-scheduler pool, per §4.6's "bootstrap
// the main process on an entry function name".
func (k *Kernel) Boot(entryName string) (value.Pid, error) {
	pid := value.NewPid()
	k.mainPid = pid
	p := process.New(pid, k, k.log.Group("process", "pid", pid.String()))
	if err := p.Bootstrap(entryName, nil); err != nil {
		return pid, err
	}
	k.mu.Lock()
	k.processes[pid] = &entry{proc: p}
	k.mu.Unlock()
	if k.pool != nil {
		k.pool.Enqueue(pid)
	}
	return pid, nil
}

// Spawn implements process.Runtime: starts a new process running entry
// with the given prepared argument set (§4.4's `process` instruction).
func (k *Kernel) Spawn(entryName string, args *process.RegisterSet) (value.Pid, error) {
	if _, err := k.ResolveFunction(entryName); err != nil {
		return value.Pid{}, err
	}
	pid := value.NewPid()
	p := process.New(pid, k, k.log.Group("process", "pid", pid.String()))
	if err := p.Bootstrap(entryName, args); err != nil {
		return pid, err
	}
	k.mu.Lock()
	k.processes[pid] = &entry{proc: p}
	k.mu.Unlock()
	if k.pool != nil {
		k.pool.Enqueue(pid)
	}
	return pid, nil
}

// Send implements process.Runtime: enqueues msg on to's mailbox. Unknown
// targets are rejected per §7's "send to unknown pid" taxonomy entry.
func (k *Kernel) Send(to value.Pid, msg value.Value) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if _, ok := k.processes[to]; !ok {
		return value.NewException(value.TagSendToUnknownPid, "send to unknown pid "+to.String(), nil)
	}
	k.mailboxes[to] = append(k.mailboxes[to], msg)
	return nil
}

// TryReceive implements process.Runtime: pops the oldest queued message
// for self, FIFO per (sender, receiver) pair because each mailbox is a
// single append-ordered queue and a given sender's own sends are issued in
// order by its own sequential dispatch loop.
func (k *Kernel) TryReceive(self value.Pid) (value.Value, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	q := k.mailboxes[self]
	if len(q) == 0 {
		return nil, false
	}
	msg := q[0]
	k.mailboxes[self] = q[1:]
	return msg, true
}

// MailboxNonEmpty reports whether self has a queued message, used by the
// process-scheduler pool's poll loop to decide whether a receive-suspended
// process has become runnable.
func (k *Kernel) MailboxNonEmpty(self value.Pid) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.mailboxes[self]) > 0
}

// ProcessResult implements process.Runtime: reports whether target has
// terminated, and if so its result value or carried error.
func (k *Kernel) ProcessResult(target value.Pid) (value.Value, error, bool) {
	k.mu.Lock()
	e, ok := k.processes[target]
	k.mu.Unlock()
	if !ok {
		return nil, value.NewException(value.TagSendToUnknownPid, "join on unknown pid "+target.String(), nil), true
	}
	switch e.proc.Status() {
	case process.Finished, process.Terminated:
		val, err := e.proc.Result()
		return val, err, true
	default:
		return nil, nil, false
	}
}

// Prototype implements process.Runtime: looks up a registered type
// descriptor by name.
func (k *Kernel) Prototype(name string) (*value.Prototype, bool) {
	k.protoMu.Lock()
	defer k.protoMu.Unlock()
	p, ok := k.prototypes[name]
	return p, ok
}

// RegisterPrototype implements process.Runtime: installs p into the
// Kernel's typesystem table, the process-wide table §4.6 names.
func (k *Kernel) RegisterPrototype(p *value.Prototype) {
	k.protoMu.Lock()
	defer k.protoMu.Unlock()
	k.prototypes[p.Name()] = p
}

// Remove drops a terminated process's mailbox and tracking entry. The
// scheduler pools never call it (the Kernel never garbage-collects a finished
// process's result automatically, since a late `join` must still observe
// it — this is an explicit operator/debug hook, not part of normal
// lifecycle).
func (k *Kernel) Remove(pid value.Pid) {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.processes, pid)
	delete(k.mailboxes, pid)
}

// Outstanding reports the number of processes the Kernel is still
// tracking; finished processes count until Remove drops them. The
// scheduler pools do not consult it.
func (k *Kernel) Outstanding() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.processes)
}
