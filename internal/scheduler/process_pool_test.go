package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"viua/internal/bytecode"
	"viua/internal/config"
	"viua/internal/kernel"
	"viua/internal/loader"
	"viua/internal/value"
	"viua/internal/vmlog"
)

func haltModule() *loader.Module {
	return &loader.Module{
		Type:      loader.Executable,
		Metadata:  map[string]string{},
		Functions: loader.AddressMap{"main": 0},
		Blocks:    loader.AddressMap{},
		Code:      []byte{byte(bytecode.Halt)},
	}
}

func receiveModule() *loader.Module {
	a := []byte{}
	a = append(a, byte(bytecode.AllocateRegisters))
	allocN := make([]byte, 5)
	bytecode.EncodeI32(allocN, 0, 1)
	a = append(a, allocN...)
	a = append(a, byte(bytecode.Receive))
	reg := make([]byte, 4)
	bytecode.EncodeRegister(reg, 0, bytecode.RegisterOperand{Mode: bytecode.Direct, Set: bytecode.Local, Index: 0})
	a = append(a, reg...)
	timeout := make([]byte, 5)
	bytecode.EncodeTimeout(timeout, 0, 0)
	a = append(a, timeout...)
	a = append(a, byte(bytecode.Return))
	return &loader.Module{
		Type:      loader.Executable,
		Metadata:  map[string]string{},
		Functions: loader.AddressMap{"main": 0},
		Blocks:    loader.AddressMap{},
		Code:      a,
	}
}

// waitFor polls cond until it is true or the deadline passes, failing the
// test otherwise; used because the pool drives processes on its own
// goroutines, not synchronously under the test's call stack.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal(msg)
}

func TestProcessPoolRunsBootedProcessToCompletion(t *testing.T) {
	k := kernel.New(haltModule(), config.Config{}, vmlog.Nop())
	pool := NewProcessPool(k, 2, 64, vmlog.Nop())
	k.AttachPool(pool)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)
	defer pool.Stop()

	pid, err := k.Boot("main")
	require.NoError(t, err)

	select {
	case <-pool.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("main process never settled")
	}
	require.Equal(t, 0, k.ExitCode())

	p, ok := k.Process(pid)
	require.True(t, ok)
	val, err := p.Result()
	require.NoError(t, err)
	require.Nil(t, val)
}

func TestProcessPoolResumesReceiveSuspendedProcessOnSend(t *testing.T) {
	k := kernel.New(receiveModule(), config.Config{}, vmlog.Nop())
	pool := NewProcessPool(k, 1, 64, vmlog.Nop())
	k.AttachPool(pool)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)
	defer pool.Stop()

	pid, err := k.Boot("main")
	require.NoError(t, err)

	waitFor(t, func() bool {
		p, ok := k.Process(pid)
		return ok && p.Status().String() == "suspended-receive"
	}, "process never suspended on receive")

	require.NoError(t, k.Send(pid, value.Integer(42)))

	select {
	case <-pool.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("process never resumed and finished after send")
	}

	p, ok := k.Process(pid)
	require.True(t, ok)
	val, err := p.Result()
	require.NoError(t, err)
	require.Equal(t, value.Integer(42), val)
}
