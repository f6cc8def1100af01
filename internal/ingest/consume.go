package ingest

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/semscout/semscout/pkg/types"
)

// perPathQueueSize bounds the backlog per file path; a full queue blocks
// the dispatcher, pushing backpressure onto the event channel.
const perPathQueueSize = 32

// defaultSweepEvery sets how many dispatched events pass between scans for
// idle queues. Queues whose events have all been handled are closed and
// removed, so a long watch over a churning tree only holds a goroutine per
// path with work in flight, not per path ever seen.
const defaultSweepEvery = 64

// Consume drains file-change events until the channel closes or ctx is
// cancelled. Events are dispatched to one ordered queue per file path, so
// a rapid add-then-change for the same file applies in arrival order while
// different files proceed concurrently. Handle errors are logged and never
// stop consumption.
func (c *Coordinator) Consume(ctx context.Context, events <-chan types.FileEvent) {
	newDispatcher(c).run(ctx, events)
}

type pathQueue struct {
	ch      chan types.FileEvent
	pending atomic.Int64 // events queued or being handled
}

type dispatcher struct {
	coord      *Coordinator
	wg         sync.WaitGroup
	sweepEvery int
	dispatched int

	mu     sync.Mutex
	queues map[string]*pathQueue
}

func newDispatcher(c *Coordinator) *dispatcher {
	return &dispatcher{
		coord:      c,
		sweepEvery: defaultSweepEvery,
		queues:     make(map[string]*pathQueue),
	}
}

func (d *dispatcher) run(ctx context.Context, events <-chan types.FileEvent) {
	defer func() {
		d.mu.Lock()
		for _, q := range d.queues {
			close(q.ch)
		}
		d.queues = make(map[string]*pathQueue)
		d.mu.Unlock()
		d.wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			q := d.queueFor(ctx, ev.Path)
			q.pending.Add(1)
			select {
			case q.ch <- ev:
			case <-ctx.Done():
				return
			}
			d.dispatched++
			if d.dispatched%d.sweepEvery == 0 {
				d.sweepIdle()
			}
		}
	}
}

func (d *dispatcher) queueFor(ctx context.Context, path string) *pathQueue {
	d.mu.Lock()
	defer d.mu.Unlock()
	q, ok := d.queues[path]
	if !ok {
		q = &pathQueue{ch: make(chan types.FileEvent, perPathQueueSize)}
		d.queues[path] = q
		d.wg.Add(1)
		go d.drain(ctx, q)
	}
	return q
}

// sweepIdle closes and forgets queues with nothing queued or in flight.
// The dispatcher is the only sender, so a zero pending count cannot race
// with a send; per-path ordering holds because a queue is retired only
// after every event it carried has been fully handled.
func (d *dispatcher) sweepIdle() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for path, q := range d.queues {
		if q.pending.Load() == 0 {
			close(q.ch)
			delete(d.queues, path)
		}
	}
}

func (d *dispatcher) queueCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queues)
}

func (d *dispatcher) drain(ctx context.Context, q *pathQueue) {
	defer d.wg.Done()
	for ev := range q.ch {
		if ctx.Err() == nil {
			if err := d.coord.Handle(ctx, ev); err != nil {
				d.coord.logger.Debug("event not applied",
					zap.String("kind", string(ev.Kind)), zap.String("path", ev.Path), zap.Error(err))
			}
		}
		q.pending.Add(-1)
	}
}
