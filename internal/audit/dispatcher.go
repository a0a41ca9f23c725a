package audit

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Config controls dispatcher buffering behavior.
type Config struct {
	Enabled    bool
	BufferSize int
	// DropIfFull makes Emit non-blocking; events that find the buffer full
	// are counted and discarded.
	DropIfFull bool
	// Logger receives a warning each time the dropped count reaches a power
	// of two, and one per sink panic. Nil disables both.
	Logger *slog.Logger
}

// Dispatcher moves audit events off the request path. One goroutine owns
// the sink, so sinks need not be safe for concurrent use.
type Dispatcher struct {
	cfg   Config
	sink  Sink
	queue chan Event
	stop  chan struct{}
	idle  sync.WaitGroup

	dropped  atomic.Uint64
	panicked atomic.Uint64
	closed   atomic.Bool
	once     sync.Once
}

// NewDispatcher starts the delivery goroutine. It returns nil when auditing
// is disabled; a nil *Dispatcher accepts and discards events.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &Dispatcher{
		cfg:   cfg,
		sink:  sink,
		queue: make(chan Event, max(cfg.BufferSize, 1)),
		stop:  make(chan struct{}),
	}
	d.idle.Add(1)
	go d.loop()
	return d
}

func (d *Dispatcher) loop() {
	defer d.idle.Done()

	for {
		select {
		case ev := <-d.queue:
			d.deliver(ev)
		case <-d.stop:
			// Flush what was accepted before Close.
			for len(d.queue) > 0 {
				d.deliver(<-d.queue)
			}
			return
		}
	}
}

// deliver hands one event to the sink. A panicking sink loses that event
// only.
func (d *Dispatcher) deliver(ev Event) {
	defer func() {
		if r := recover(); r != nil {
			d.panicked.Add(1)
			if d.cfg.Logger != nil {
				d.cfg.Logger.Error("audit sink panicked", "event_type", ev.EventType, "panic", r)
			}
		}
	}()
	d.sink.Emit(context.Background(), ev)
}

// Emit queues ev. With DropIfFull it never blocks; otherwise it waits for
// space until ctx is done or the dispatcher closes.
func (d *Dispatcher) Emit(ctx context.Context, ev Event) {
	if d == nil || d.closed.Load() {
		return
	}

	if d.cfg.DropIfFull {
		select {
		case d.queue <- ev:
		default:
			d.countDrop(ev.EventType)
		}
		return
	}

	var cancel <-chan struct{}
	if ctx != nil {
		cancel = ctx.Done()
	}
	select {
	case d.queue <- ev:
	case <-cancel:
	case <-d.stop:
	}
}

func (d *Dispatcher) countDrop(eventType string) {
	n := d.dropped.Add(1)
	if d.cfg.Logger == nil || n&(n-1) != 0 {
		return
	}
	d.cfg.Logger.Warn("audit buffer full, dropping events",
		"dropped_total", n,
		"event_type", eventType,
	)
}

// Close stops accepting events and blocks until buffered events are
// delivered. It is safe to call more than once.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.once.Do(func() {
		d.closed.Store(true)
		close(d.stop)
		d.idle.Wait()
	})
}

// Dropped returns how many events were discarded on a full buffer.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

// Panicked returns how many events were lost to a panicking sink.
func (d *Dispatcher) Panicked() uint64 {
	if d == nil {
		return 0
	}
	return d.panicked.Load()
}
