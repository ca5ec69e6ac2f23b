package scheduler

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"viua/internal/kernel"
	"viua/internal/value"
	"viua/internal/vmlog"
)

// ioPollInterval paces a worker's re-check of a request that isn't done in
// one Interact step, the non-blocking counterpart to vm/devices.go's
// per-device goroutine: here one pool of workers drives many devices
// instead of one goroutine per device.
const ioPollInterval = 2 * time.Millisecond

// IOPool is the I/O scheduler pool of §4.5: N workers drain a shared
// request channel, stepping each submitted value.IORequest against its
// port's Device until the interaction reaches a terminal state.
type IOPool struct {
	k       *kernel.Kernel
	log     *vmlog.Logger
	workers int
	reqs    chan *value.IORequest
	group   *errgroup.Group
	cancel  context.CancelFunc
}

// NewIOPool builds a pool with the configured worker count.
func NewIOPool(k *kernel.Kernel, workers int, log *vmlog.Logger) *IOPool {
	if workers < 1 {
		workers = 1
	}
	return &IOPool{
		k:       k,
		log:     log,
		workers: workers,
		reqs:    make(chan *value.IORequest, 1024),
	}
}

// Submit implements kernel.IOHandle.
func (iop *IOPool) Submit(req *value.IORequest) {
	iop.reqs <- req
}

// Start launches the worker pool.
func (iop *IOPool) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	iop.cancel = cancel
	g, gctx := errgroup.WithContext(ctx)
	iop.group = g
	for i := 0; i < iop.workers; i++ {
		id := i
		g.Go(func() error {
			iop.workerLoop(gctx, id)
			return nil
		})
	}
}

// Stop signals every worker to drain and waits for them to exit.
func (iop *IOPool) Stop() {
	if iop.cancel != nil {
		iop.cancel()
	}
	if iop.group != nil {
		iop.group.Wait()
	}
}

func (iop *IOPool) workerLoop(ctx context.Context, id int) {
	log := iop.log.Group("scheduler", "pool", "io", "worker", id)
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-iop.reqs:
			if !ok || req == nil {
				return
			}
			iop.drive(log, req)
		}
	}
}

// drive steps req against its port's Device until it reaches a terminal
// state, re-enqueueing it (after a short sleep, not a busy spin) when the
// device reports it isn't done yet; if the queue is full it keeps stepping
// the request itself. Cancelled requests stop being driven immediately per
// CancelIO's contract.
func (iop *IOPool) drive(log *vmlog.Logger, req *value.IORequest) {
	dev, ok := iop.k.Port(req.Port().ID())
	if !ok {
		req.Fail(value.NewException(value.TagIOClosed, "io port closed mid-flight", nil))
		return
	}
	for {
		if req.State() == value.IOCancelled {
			return
		}
		done := dev.Interact(req)
		if done {
			log.Debug("io request settled", "port", req.Port().ID(), "state", req.State().String())
			return
		}
		time.Sleep(ioPollInterval)
		select {
		case iop.reqs <- req:
			return
		default:
		}
	}
}
