package kernel

import (
	"testing"

	"github.com/stretchr/testify/require"

	"viua/internal/bytecode"
	"viua/internal/config"
	"viua/internal/loader"
	"viua/internal/process"
	"viua/internal/value"
	"viua/internal/vmlog"
)

// fakePool is a no-op PoolHandle: kernel-level tests drive processes
// directly via Process.Run rather than through a real scheduler, matching
// process_test.go's own fakeRuntime-over-real-dispatch style one layer up.
type fakePool struct{ enqueued []value.Pid }

func (fp *fakePool) Enqueue(pid value.Pid) { fp.enqueued = append(fp.enqueued, pid) }

func haltModule() *loader.Module {
	return &loader.Module{
		Type:      loader.Executable,
		Metadata:  map[string]string{"arity:main": "0"},
		Functions: loader.AddressMap{"main": 0},
		Blocks:    loader.AddressMap{},
		Code:      []byte{byte(bytecode.Halt)},
	}
}

func newTestKernel() *Kernel {
	return New(haltModule(), config.Config{}, vmlog.Nop())
}

func TestBootEnqueuesMainProcess(t *testing.T) {
	k := newTestKernel()
	pool := &fakePool{}
	k.AttachPool(pool)

	pid, err := k.Boot("main")
	require.NoError(t, err)
	require.Equal(t, pid, k.MainPid())
	require.Len(t, pool.enqueued, 1)
	require.Equal(t, pid, pool.enqueued[0])

	p, ok := k.Process(pid)
	require.True(t, ok)
	require.Equal(t, process.Runnable, p.Status())
}

func TestBootUndefinedEntryFails(t *testing.T) {
	k := newTestKernel()
	_, err := k.Boot("nonexistent")
	require.Error(t, err)
	exc, ok := err.(*value.Exception)
	require.True(t, ok)
	require.Equal(t, value.TagUndefinedFunction, exc.Tag())
}

func TestArityFromMetadataConvention(t *testing.T) {
	k := newTestKernel()
	n, err := k.Arity("main")
	require.NoError(t, err)
	require.Equal(t, 0, n)

	_, err = k.Arity("missing")
	require.Error(t, err)
}

func TestSendAndTryReceiveIsFIFOPerMailbox(t *testing.T) {
	k := newTestKernel()
	pool := &fakePool{}
	k.AttachPool(pool)

	pid, err := k.Boot("main")
	require.NoError(t, err)

	require.NoError(t, k.Send(pid, value.Integer(1)))
	require.NoError(t, k.Send(pid, value.Integer(2)))

	v1, ok := k.TryReceive(pid)
	require.True(t, ok)
	require.Equal(t, value.Integer(1), v1)

	v2, ok := k.TryReceive(pid)
	require.True(t, ok)
	require.Equal(t, value.Integer(2), v2)

	_, ok = k.TryReceive(pid)
	require.False(t, ok)
}

func TestSendToUnknownPidFails(t *testing.T) {
	k := newTestKernel()
	err := k.Send(value.NewPid(), value.Integer(1))
	require.Error(t, err)
	exc, ok := err.(*value.Exception)
	require.True(t, ok)
	require.Equal(t, value.TagSendToUnknownPid, exc.Tag())
}

func TestProcessResultReportsAfterTermination(t *testing.T) {
	k := newTestKernel()
	pool := &fakePool{}
	k.AttachPool(pool)

	pid, err := k.Boot("main")
	require.NoError(t, err)

	_, _, done := k.ProcessResult(pid)
	require.False(t, done, "freshly booted process has not terminated")

	p, ok := k.Process(pid)
	require.True(t, ok)
	res := p.Run(10)
	require.Equal(t, process.Finished, res.Status)

	val, procErr, done := k.ProcessResult(pid)
	require.True(t, done)
	require.NoError(t, procErr)
	require.Nil(t, val)
}

func TestRegisterAndLookupPrototype(t *testing.T) {
	k := newTestKernel()
	proto := value.NewPrototype("Point")
	proto.Attach(value.Atom("x"))
	proto.Attach(value.Atom("y"))
	k.RegisterPrototype(proto)

	got, ok := k.Prototype("Point")
	require.True(t, ok)
	require.Equal(t, proto, got)

	_, ok = k.Prototype("Nonexistent")
	require.False(t, ok)
}

func TestForeignFunctionRoutingWithoutFFIPool(t *testing.T) {
	k := newTestKernel()
	require.False(t, k.IsForeign("native_add"))

	k.RegisterForeign("native_add", func(args, statics, globals *process.RegisterSet, caller value.Pid, kk *Kernel) (value.Value, *value.Exception) {
		a, _, _ := args.Get(0)
		b, _, _ := args.Get(1)
		return value.Integer(a.(value.Integer) + b.(value.Integer)), nil
	})
	require.True(t, k.IsForeign("native_add"))

	args := process.NewRegisterSet(bytecode.Arguments, 2)
	args.Put(0, value.Integer(2))
	args.Put(1, value.Integer(3))

	result, err := k.CallForeign(value.NewPid(), "native_add", args)
	require.NoError(t, err)
	require.Equal(t, value.Integer(5), result)
}

func TestCallForeignUndefinedFunctionRaises(t *testing.T) {
	k := newTestKernel()
	_, err := k.CallForeign(value.NewPid(), "nope", process.NewRegisterSet(bytecode.Arguments, 0))
	require.Error(t, err)
	exc, ok := err.(*value.Exception)
	require.True(t, ok)
	require.Equal(t, value.TagSymbolNotFound, exc.Tag())
}

func TestOutstandingAndRemove(t *testing.T) {
	k := newTestKernel()
	pool := &fakePool{}
	k.AttachPool(pool)

	pid, err := k.Boot("main")
	require.NoError(t, err)
	require.Equal(t, 1, k.Outstanding())

	k.Remove(pid)
	require.Equal(t, 0, k.Outstanding())
}
