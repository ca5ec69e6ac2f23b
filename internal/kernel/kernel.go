// Package kernel implements the process-wide owner described in §4.6: it
// mints PIDs and mailboxes, holds the loaded module's function/block
// address tables and the prototype typesystem, owns the foreign-function
// registry and I/O port/device table, and drives scheduler start-up and
// shutdown. It is the Kernel referred to throughout the spec, and it is
// the concrete type that satisfies process.Runtime — the seam
// internal/process declares so the two packages don't import each other.
//
// This is the generalisation of the teacher's single-VM ownership model
// (vm/vm.go's *VM held every piece of mutable machine state directly) to a
// process-wide owner shared by many concurrently scheduled processes.
package kernel

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"viua/internal/config"
	"viua/internal/loader"
	"viua/internal/process"
	"viua/internal/value"
	"viua/internal/vmlog"
)

// PoolHandle is the seam the process-scheduler pool satisfies so the
// Kernel can post newly spawned (and rescheduled) processes without this
// package importing internal/scheduler.
type PoolHandle interface {
	Enqueue(pid value.Pid)
}

// FFIHandle is the seam the FFI scheduler pool satisfies so the Kernel can
// submit a synchronous native-function invocation without an import cycle.
type FFIHandle interface {
	Submit(req *ForeignCallRequest)
}

// IOHandle is the seam the I/O scheduler pool satisfies so the Kernel can
// submit a non-blocking interaction without an import cycle.
type IOHandle interface {
	Submit(req *value.IORequest)
}

// NativeFunc is the Go-level shape of the foreign-function ABI (§6): a
// foreign function reads its actuals from args, receives statics and
// globals parameters (CallForeign passes nil for both), knows which process
// called it,
// and can reach back into the Kernel (e.g. to register a prototype).
// Raising is signalled by returning a non-nil *value.Exception.
type NativeFunc func(args, statics, globals *process.RegisterSet, caller value.Pid, k *Kernel) (value.Value, *value.Exception)

// ForeignCallRequest is one unit of work handed to the FFI scheduler pool.
type ForeignCallRequest struct {
	Name     string
	Fn       NativeFunc
	Args     *process.RegisterSet
	Statics  *process.RegisterSet
	Globals  *process.RegisterSet
	Caller   value.Pid
	Kernel   *Kernel
	done     chan foreignResult
}

type foreignResult struct {
	value value.Value
	err   error
}

// Finish delivers a completed invocation's outcome back to the blocked
// caller, invoked by the FFI scheduler pool once a NativeFunc returns.
func (r *ForeignCallRequest) Finish(result value.Value, err error) {
	r.done <- foreignResult{value: result, err: err}
}

// entry is everything the Kernel tracks per spawned process.
type entry struct {
	proc *process.Process
}

// Kernel owns every piece of process-wide mutable state described in §4.6.
type Kernel struct {
	cfg config.Config
	log *vmlog.Logger

	module   *loader.Module
	funcAddr loader.AddressMap
	blockAddr loader.AddressMap
	arity    map[string]int

	mu        sync.Mutex
	processes map[value.Pid]*entry
	mailboxes map[value.Pid][]value.Value

	protoMu    sync.Mutex
	prototypes map[string]*value.Prototype

	foreignMu sync.Mutex
	foreign   map[string]NativeFunc

	ports map[uint64]Device

	pool PoolHandle
	ffi  FFIHandle
	io   IOHandle

	mainPid   value.Pid
	exitCode  int
}

// New builds a Kernel around an already-loaded main module and configured
// environment. Call AttachPool/AttachFFIPool/AttachIOPool before Boot.
func New(mod *loader.Module, cfg config.Config, log *vmlog.Logger) *Kernel {
	k := &Kernel{
		cfg:        cfg,
		log:        log,
		module:     mod,
		funcAddr:   mod.Functions,
		blockAddr:  mod.Blocks,
		arity:      parseArity(mod.Metadata),
		processes:  make(map[value.Pid]*entry),
		mailboxes:  make(map[value.Pid][]value.Value),
		prototypes: make(map[string]*value.Prototype),
		foreign:    make(map[string]NativeFunc),
		ports:      make(map[uint64]Device),
	}
	registerBuiltinDevices(k)
	return k
}

// parseArity reads the "arity:<name>" metadata convention a compiled
// module uses to record a function's declared parameter count, since §6's
// binary layout carries no dedicated arity field.
func parseArity(meta map[string]string) map[string]int {
	out := make(map[string]int, len(meta))
	for k, v := range meta {
		name, ok := strings.CutPrefix(k, "arity:")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			continue
		}
		out[name] = n
	}
	return out
}

// AttachPool wires the process-scheduler pool in after construction,
// breaking the Kernel<->scheduler import cycle.
func (k *Kernel) AttachPool(p PoolHandle) { k.pool = p }

// AttachFFIPool wires the FFI scheduler pool in.
func (k *Kernel) AttachFFIPool(p FFIHandle) { k.ffi = p }

// AttachIOPool wires the I/O scheduler pool in.
func (k *Kernel) AttachIOPool(p IOHandle) { k.io = p }

// Log returns the Kernel's structured logger, shared with every process
// and scheduler worker.
func (k *Kernel) Log() *vmlog.Logger { return k.log }

// Config returns the environment-derived configuration this Kernel booted
// with.
func (k *Kernel) Config() config.Config { return k.cfg }

// Code returns the loaded module's bytecode segment (§4.4's dispatch loop
// "fetches one instruction at the current address" against this buffer).
func (k *Kernel) Code() []byte { return k.module.Code }

// ResolveFunction returns the code offset of a named function.
func (k *Kernel) ResolveFunction(name string) (uint64, error) {
	addr, ok := k.funcAddr[name]
	if !ok {
		return 0, value.NewException(value.TagUndefinedFunction, fmt.Sprintf("undefined function %q", name), value.Text(name))
	}
	return addr, nil
}

// ResolveBlock returns the code offset of a named block.
func (k *Kernel) ResolveBlock(name string) (uint64, error) {
	addr, ok := k.blockAddr[name]
	if !ok {
		return 0, value.NewException(value.TagUndefinedBlock, fmt.Sprintf("undefined block %q", name), value.Text(name))
	}
	return addr, nil
}

// Arity returns a named function's declared parameter count.
func (k *Kernel) Arity(name string) (int, error) {
	if n, ok := k.arity[name]; ok {
		return n, nil
	}
	if _, ok := k.funcAddr[name]; ok {
		return 0, nil
	}
	return 0, value.NewException(value.TagUndefinedFunction, fmt.Sprintf("undefined function %q", name), value.Text(name))
}

// Process looks up a tracked process by Pid, for the scheduler pool's
// worker loop.
func (k *Kernel) Process(pid value.Pid) (*process.Process, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e, ok := k.processes[pid]
	if !ok {
		return nil, false
	}
	return e.proc, true
}

// MainPid returns the Pid of the process bootstrapped by Boot.
func (k *Kernel) MainPid() value.Pid { return k.mainPid }

// ExitCode returns the exit code computed once the main process finishes,
// per §4.6's "on exit, compute the main process's return code".
func (k *Kernel) ExitCode() int { return k.exitCode }

// SetExitCode lets the scheduler pool report the computed exit code once
// the main process (or its watchdog) has settled.
func (k *Kernel) SetExitCode(code int) { k.exitCode = code }
