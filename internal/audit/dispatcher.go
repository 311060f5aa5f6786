package audit

import (
	"context"
	"sync"
)

// Config controls dispatcher buffering behavior.
type Config struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// Dispatcher hands events to a sink from one worker goroutine and keeps a
// per-event-type count of the events it could not deliver. A nil *Dispatcher
// is valid and drops everything without counting.
type Dispatcher struct {
	sink       Sink
	dropIfFull bool

	// mu guards ch against a send racing Close. Emit holds it shared.
	mu     sync.RWMutex
	ch     chan Event
	closed bool
	worker sync.WaitGroup

	dropMu sync.Mutex
	drops  map[string]uint64
}

// NewDispatcher starts a dispatcher, or returns nil when cfg is disabled.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &Dispatcher{
		sink:       sink,
		dropIfFull: cfg.DropIfFull,
		ch:         make(chan Event, cfg.BufferSize),
		drops:      make(map[string]uint64),
	}
	d.worker.Add(1)
	go func() {
		defer d.worker.Done()
		// Ranging until close delivers everything buffered before Close.
		for event := range d.ch {
			d.sink.Emit(context.Background(), event)
		}
	}()
	return d
}

// Emit enqueues event. With DropIfFull a full buffer drops the event;
// otherwise Emit waits for space or for ctx. Events emitted after Close are
// ignored and not counted.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}

	if d.dropIfFull {
		select {
		case d.ch <- event:
		default:
			d.countDrop(event.EventType)
		}
		return
	}

	select {
	case d.ch <- event:
	case <-ctx.Done():
		d.countDrop(event.EventType)
	}
}

func (d *Dispatcher) countDrop(eventType string) {
	d.dropMu.Lock()
	d.drops[eventType]++
	d.dropMu.Unlock()
}

// Close stops accepting events, lets the worker deliver the buffer and waits
// for it. Blocked Emit calls finish first.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.ch)
	d.mu.Unlock()
	d.worker.Wait()
}

// Dropped reports how many events were not delivered, across all types.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	d.dropMu.Lock()
	defer d.dropMu.Unlock()
	var total uint64
	for _, n := range d.drops {
		total += n
	}
	return total
}

// DroppedByType returns a copy of the undelivered-event counts keyed by
// event type.
func (d *Dispatcher) DroppedByType() map[string]uint64 {
	out := map[string]uint64{}
	if d == nil {
		return out
	}
	d.dropMu.Lock()
	defer d.dropMu.Unlock()
	for k, v := range d.drops {
		out[k] = v
	}
	return out
}
