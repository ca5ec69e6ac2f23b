package kernel

import (
	"bufio"
	"os"
	"time"

	"viua/internal/value"
)

// Device is a non-blocking I/O interaction target, the generalisation of
// the teacher's HardwareDevice bus (vm/devices.go) from a fixed 32-bit
// register-mapped command protocol to §3's IO_request/IO_port model.
// Interact performs one step of a submitted request; it must not block.
type Device interface {
	// Interact advances req by one step, returning true once the request
	// has reached a terminal state (Complete or Cancelled). A device that
	// cannot finish the interaction in one step leaves req In-flight and
	// returns false so the I/O scheduler pool re-enqueues it.
	Interact(req *value.IORequest) bool
}

// Well-known port numbers a compiled module addresses by integer literal,
// the same convention the teacher's device bus assigns fixed HWIDs under
// (vm/devices.go: timer 0x01, power 0x02, mmu 0x03, console 0x04).
const (
	PortStdout uint64 = 0
	PortStdin  uint64 = 1
	PortTimer  uint64 = 2
)

func registerBuiltinDevices(k *Kernel) {
	k.ports[PortStdout] = &consoleOutDevice{w: bufio.NewWriter(os.Stdout)}
	k.ports[PortStdin] = newConsoleInDevice()
	k.ports[PortTimer] = &timerDevice{}
}

// Port looks up a registered Device by port id, consulted by SubmitIO.
func (k *Kernel) Port(id uint64) (Device, bool) {
	d, ok := k.ports[id]
	return d, ok
}

// RegisterPort installs a Device under a port id, exposed so a foreign
// (native) library's `exports` can add device types the core doesn't ship
// with (files, sockets), matching §1's "standard-library dynamic modules
// ... external collaborators" scoping: the core only owns the mechanism.
func (k *Kernel) RegisterPort(id uint64, d Device) { k.ports[id] = d }

// consoleOutDevice completes a request in one step with Boolean(true) and
// flushes its stdout writer; an IORequest carries no data, so the request
// itself writes nothing. Grounded on vm/devices.go's consoleIO write path
// (command 2/3) but collapsed to the single non-blocking step IO_request
// expects.
type consoleOutDevice struct{ w *bufio.Writer }

func (d *consoleOutDevice) Interact(req *value.IORequest) bool {
	req.Complete(value.Boolean(true))
	d.w.Flush()
	return true
}

// consoleInDevice reads one line from stdin on a dedicated goroutine,
// directly modelled on vm/devices.go's consoleIO: "This should be the only
// routine that accesses stdin in the whole codebase."
type consoleInDevice struct {
	requests chan *value.IORequest
	lines    chan string
}

func newConsoleInDevice() *consoleInDevice {
	d := &consoleInDevice{
		requests: make(chan *value.IORequest, 32),
		lines:    make(chan string, 32),
	}
	go func() {
		r := bufio.NewReader(os.Stdin)
		for range d.requests {
			line, _ := r.ReadString('\n')
			d.lines <- line
		}
	}()
	return d
}

func (d *consoleInDevice) Interact(req *value.IORequest) bool {
	if req.State() == value.IOQueued {
		req.MarkInFlight()
		d.requests <- req
		return false
	}
	select {
	case line := <-d.lines:
		req.Complete(value.Text(line))
		return true
	default:
		return false
	}
}

// timerDevice completes a request one millisecond after its first step, the
// non-blocking counterpart to vm/devices.go's systemTimer goroutine.
type timerDevice struct{}

func (d *timerDevice) Interact(req *value.IORequest) bool {
	if req.State() == value.IOQueued {
		req.MarkInFlight()
		go func() {
			time.Sleep(time.Millisecond)
			req.Complete(value.Boolean(true))
		}()
		return false
	}
	return req.State() == value.IOComplete
}

// SubmitIO implements process.Runtime: hands req to the I/O scheduler pool
// after checking its port resolves to a registered Device.
func (k *Kernel) SubmitIO(req *value.IORequest) error {
	if _, ok := k.ports[req.Port().ID()]; !ok {
		return value.NewException(value.TagIOClosed, "io_submit on an unregistered port", nil)
	}
	if k.io == nil {
		return value.NewException(value.TagIOClosed, "no I/O scheduler pool attached", nil)
	}
	k.io.Submit(req)
	return nil
}

// CancelIO implements process.Runtime: §5's io_cancel just flips the
// request's own state; the I/O scheduler pool observes it on its next
// Interact step and stops re-enqueueing it.
func (k *Kernel) CancelIO(req *value.IORequest) error {
	req.Cancel()
	return nil
}
