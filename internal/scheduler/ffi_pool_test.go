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
	"viua/internal/process"
	"viua/internal/value"
	"viua/internal/vmlog"
)

func emptyModule() *loader.Module {
	return &loader.Module{
		Type:      loader.Executable,
		Metadata:  map[string]string{},
		Functions: loader.AddressMap{"main": 0},
		Blocks:    loader.AddressMap{},
		Code:      []byte{byte(bytecode.Halt)},
	}
}

func TestFFIPoolInvokesRegisteredNativeFunction(t *testing.T) {
	k := kernel.New(emptyModule(), config.Config{}, vmlog.Nop())
	pool := NewFFIPool(2, vmlog.Nop())
	k.AttachFFIPool(pool)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)
	defer pool.Stop()

	k.RegisterForeign("native_add", func(args, statics, globals *process.RegisterSet, caller value.Pid, kk *kernel.Kernel) (value.Value, *value.Exception) {
		a, _, _ := args.Get(0)
		b, _, _ := args.Get(1)
		return value.Integer(a.(value.Integer) + b.(value.Integer)), nil
	})

	args := process.NewRegisterSet(bytecode.Arguments, 2)
	args.Put(0, value.Integer(3))
	args.Put(1, value.Integer(4))

	result, err := k.CallForeign(value.NewPid(), "native_add", args)
	require.NoError(t, err)
	require.Equal(t, value.Integer(7), result)
}

func TestFFIPoolPropagatesRaisedException(t *testing.T) {
	k := kernel.New(emptyModule(), config.Config{}, vmlog.Nop())
	pool := NewFFIPool(1, vmlog.Nop())
	k.AttachFFIPool(pool)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)
	defer pool.Stop()

	k.RegisterForeign("native_fail", func(args, statics, globals *process.RegisterSet, caller value.Pid, kk *kernel.Kernel) (value.Value, *value.Exception) {
		return nil, value.NewException("native_error", "boom", nil)
	})

	_, err := k.CallForeign(value.NewPid(), "native_fail", process.NewRegisterSet(bytecode.Arguments, 0))
	require.Error(t, err)
	exc, ok := err.(*value.Exception)
	require.True(t, ok)
	require.Equal(t, "native_error", exc.Tag())
}

func TestFFIPoolServesConcurrentCallsUnderOneWorker(t *testing.T) {
	k := kernel.New(emptyModule(), config.Config{}, vmlog.Nop())
	pool := NewFFIPool(1, vmlog.Nop())
	k.AttachFFIPool(pool)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)
	defer pool.Stop()

	k.RegisterForeign("slow_identity", func(args, statics, globals *process.RegisterSet, caller value.Pid, kk *kernel.Kernel) (value.Value, *value.Exception) {
		time.Sleep(time.Millisecond)
		v, _, _ := args.Get(0)
		return v, nil
	})

	const n = 5
	results := make(chan value.Value, n)
	for i := 0; i < n; i++ {
		i := i
		go func() {
			args := process.NewRegisterSet(bytecode.Arguments, 1)
			args.Put(0, value.Integer(int64(i)))
			v, err := k.CallForeign(value.NewPid(), "slow_identity", args)
			require.NoError(t, err)
			results <- v
		}()
	}

	seen := map[int64]bool{}
	for i := 0; i < n; i++ {
		select {
		case v := <-results:
			seen[int64(v.(value.Integer))] = true
		case <-time.After(2 * time.Second):
			t.Fatal("not all concurrent foreign calls completed")
		}
	}
	require.Len(t, seen, n)
}
