package hook

import (
	"context"
	"log"
	"sync"
)

// QueueSize is the number of pending requests a Dispatcher buffers.
const QueueSize = 32

// Dispatcher delivers requests to subscribed hooks on a background worker
// so that the control loop never waits on a hook. Requests arriving while
// the queue is full are dropped.
type Dispatcher struct {
	manager  *Manager
	executor *Executor
	queue    chan Request

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	dropped int
	stopped bool
}

// NewDispatcher creates a Dispatcher and starts its worker.
func NewDispatcher(m *Manager, e *Executor) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		manager:  m,
		executor: e,
		queue:    make(chan Request, QueueSize),
		ctx:      ctx,
		cancel:   cancel,
	}
	d.wg.Add(1)
	go d.run()
	return d
}

// Dispatch queues req for every hook subscribed to req.Command.
// It reports whether the request was queued.
func (d *Dispatcher) Dispatch(req Request) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return false
	}
	select {
	case d.queue <- req:
		return true
	default:
		d.dropped++
		log.Printf("[hook] queue full, dropping %s", req.Command)
		return false
	}
}

// Dropped returns the number of requests dropped so far.
func (d *Dispatcher) Dropped() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dropped
}

// Stop cancels running hooks and waits for the worker to exit.
// Queued requests that have not started are discarded.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	close(d.queue)
	d.mu.Unlock()

	d.cancel()
	d.wg.Wait()
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for req := range d.queue {
		if d.ctx.Err() != nil {
			continue
		}
		for _, h := range d.manager.For(req.Command) {
			resp, err := d.executor.Execute(d.ctx, h, req)
			if err != nil {
				log.Printf("[hook] %v", err)
				continue
			}
			if !resp.Success {
				log.Printf("[hook] %s reported failure: %s", h.Manifest.Name, resp.Error)
			}
		}
	}
}
