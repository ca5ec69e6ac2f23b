package scheduler

import (
	"context"

	"golang.org/x/sync/errgroup"

	"viua/internal/kernel"
	"viua/internal/value"
	"viua/internal/vmlog"
)

// FFIPool is the foreign-call scheduler pool of §4.5: N workers drain a
// shared request channel and invoke a NativeFunc synchronously on behalf of
// whichever process blocked on `call`/`tailcall` against a foreign name.
// Grounded on the same worker-loop shape as ProcessPool, since the teacher
// has no native-call concept to borrow from directly.
type FFIPool struct {
	log     *vmlog.Logger
	workers int
	reqs    chan *kernel.ForeignCallRequest
	group   *errgroup.Group
	cancel  context.CancelFunc
}

// NewFFIPool builds a pool with the configured worker count.
func NewFFIPool(workers int, log *vmlog.Logger) *FFIPool {
	if workers < 1 {
		workers = 1
	}
	return &FFIPool{
		log:     log,
		workers: workers,
		reqs:    make(chan *kernel.ForeignCallRequest, 1024),
	}
}

// Submit implements kernel.FFIHandle: hands req to a free worker. The
// caller blocks on req's done channel (see kernel.Kernel.CallForeign).
func (fp *FFIPool) Submit(req *kernel.ForeignCallRequest) {
	fp.reqs <- req
}

// Start launches the worker pool.
func (fp *FFIPool) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	fp.cancel = cancel
	g, gctx := errgroup.WithContext(ctx)
	fp.group = g
	for i := 0; i < fp.workers; i++ {
		id := i
		g.Go(func() error {
			fp.workerLoop(gctx, id)
			return nil
		})
	}
}

// Stop signals every worker to drain and waits for them to exit.
func (fp *FFIPool) Stop() {
	if fp.cancel != nil {
		fp.cancel()
	}
	if fp.group != nil {
		fp.group.Wait()
	}
}

func (fp *FFIPool) workerLoop(ctx context.Context, id int) {
	log := fp.log.Group("scheduler", "pool", "ffi", "worker", id)
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-fp.reqs:
			if !ok || req == nil {
				// A nil request is the shutdown sentinel a caller can post
				// to unblock a worker waiting on an empty channel without
				// tearing down the channel itself.
				return
			}
			fp.invoke(log, req)
		}
	}
}

func (fp *FFIPool) invoke(log *vmlog.Logger, req *kernel.ForeignCallRequest) {
	log.Debug("ffi call", "name", req.Name, "caller", req.Caller.String())
	result, exc := req.Fn(req.Args, req.Statics, req.Globals, req.Caller, req.Kernel)
	finishForeignCall(req, result, exc)
}

func finishForeignCall(req *kernel.ForeignCallRequest, result value.Value, exc *value.Exception) {
	var err error
	if exc != nil {
		err = exc
	}
	req.Finish(result, err)
}
