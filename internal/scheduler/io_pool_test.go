package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"viua/internal/config"
	"viua/internal/kernel"
	"viua/internal/value"
	"viua/internal/vmlog"
)

// countingDevice completes a request after a fixed number of Interact steps,
// exercising IOPool.drive's re-enqueue-on-not-done path without a real sleep
// dependency beyond ioPollInterval.
type countingDevice struct{ stepsNeeded int }

func (d *countingDevice) Interact(req *value.IORequest) bool {
	d.stepsNeeded--
	if d.stepsNeeded > 0 {
		return false
	}
	req.Complete(value.Boolean(true))
	return true
}

func TestIOPoolDrivesBuiltinTimerPortToCompletion(t *testing.T) {
	k := kernel.New(emptyModule(), config.Config{}, vmlog.Nop())
	pool := NewIOPool(k, 2, vmlog.Nop())
	k.AttachIOPool(pool)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)
	defer pool.Stop()

	req := value.NewIORequest(1, value.NewIOPort(kernel.PortTimer))
	require.NoError(t, k.SubmitIO(req))

	waitFor(t, func() bool { return req.State() == value.IOComplete }, "timer request never completed")
	result, exc := req.Result()
	require.Nil(t, exc)
	require.Equal(t, value.Boolean(true), result)
}

func TestIOPoolRetriesUntilDeviceReportsDone(t *testing.T) {
	k := kernel.New(emptyModule(), config.Config{}, vmlog.Nop())
	pool := NewIOPool(k, 1, vmlog.Nop())
	k.AttachIOPool(pool)
	k.RegisterPort(99, &countingDevice{stepsNeeded: 3})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)
	defer pool.Stop()

	req := value.NewIORequest(2, value.NewIOPort(99))
	require.NoError(t, k.SubmitIO(req))

	waitFor(t, func() bool { return req.State() == value.IOComplete }, "multi-step request never completed")
}

func TestSubmitIOOnUnregisteredPortFails(t *testing.T) {
	k := kernel.New(emptyModule(), config.Config{}, vmlog.Nop())
	pool := NewIOPool(k, 1, vmlog.Nop())
	k.AttachIOPool(pool)

	req := value.NewIORequest(3, value.NewIOPort(12345))
	err := k.SubmitIO(req)
	require.Error(t, err)
}

func TestIOPoolStopsWorkersOnContextCancel(t *testing.T) {
	k := kernel.New(emptyModule(), config.Config{}, vmlog.Nop())
	pool := NewIOPool(k, 1, vmlog.Nop())
	k.AttachIOPool(pool)

	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		pool.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pool.Stop() never returned after context cancel")
	}
}
