package eventbus

import (
	"context"
	"sync"
	"time"

	"pkt.systems/optimus/schema"
	"pkt.systems/pslog"
)

// DefaultDepth is the per-subscriber channel buffer.
const DefaultDepth = 256

// Bus delivers events to per-window subscriber channels. Emit never blocks:
// events for a window without subscribers, or for a subscriber whose buffer
// is full, are dropped.
type Bus struct {
	mu    sync.Mutex
	subs  map[schema.WindowName]map[chan schema.WindowEvent]struct{}
	seq   map[schema.WindowName]uint64
	log   pslog.Logger
	depth int
	now   func() time.Time
}

// New constructs a Bus.
func New(logger pslog.Logger) *Bus {
	return NewWithDepth(logger, DefaultDepth)
}

// NewWithDepth constructs a Bus with a custom subscriber buffer.
func NewWithDepth(logger pslog.Logger, depth int) *Bus {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	if depth <= 0 {
		depth = DefaultDepth
	}
	return &Bus{
		subs:  make(map[schema.WindowName]map[chan schema.WindowEvent]struct{}),
		seq:   make(map[schema.WindowName]uint64),
		log:   logger,
		depth: depth,
		now:   time.Now,
	}
}

// Subscribe registers a listener for the window and returns a channel + cancel.
func (b *Bus) Subscribe(window schema.WindowName) (<-chan schema.WindowEvent, func()) {
	if b == nil {
		return nil, func() {}
	}
	ch := make(chan schema.WindowEvent, b.depth)
	b.mu.Lock()
	windowSubs := b.subs[window]
	if windowSubs == nil {
		windowSubs = make(map[chan schema.WindowEvent]struct{})
		b.subs[window] = windowSubs
	}
	windowSubs[ch] = struct{}{}
	count := len(windowSubs)
	b.mu.Unlock()
	b.log.With("window", window).Debug("eventbus subscribe", "subs", count)
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			if subs := b.subs[window]; subs != nil {
				delete(subs, ch)
				if len(subs) == 0 {
					delete(b.subs, window)
				}
			}
			b.mu.Unlock()
			close(ch)
			b.log.With("window", window).Debug("eventbus unsubscribe")
		})
	}
}

// Subscribers returns the number of listeners for the window.
func (b *Bus) Subscribers(window schema.WindowName) int {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[window])
}

// Emit sends a named event to one window. It reports nothing back; delivery
// is best effort.
func (b *Bus) Emit(target schema.WindowName, name schema.EventName, payload string) {
	if b == nil {
		return
	}
	b.mu.Lock()
	b.seq[target]++
	event := schema.WindowEvent{
		Seq:       b.seq[target],
		Target:    target,
		Name:      name,
		Payload:   payload,
		Timestamp: b.now(),
	}
	windowSubs := b.subs[target]
	subs := make([]chan schema.WindowEvent, 0, len(windowSubs))
	for sub := range windowSubs {
		subs = append(subs, sub)
	}
	// Sends happen under the lock so a concurrent cancel cannot close a
	// channel mid-send; every send is non-blocking.
	dropped := 0
	for _, sub := range subs {
		select {
		case sub <- event:
		default:
			dropped++
		}
	}
	b.mu.Unlock()
	log := b.log.With("window", target)
	if len(subs) == 0 {
		log.Trace("eventbus no listener", "event", name, "seq", event.Seq)
		return
	}
	if dropped > 0 {
		log.Warn("eventbus dropped", "event", name, "count", dropped)
	}
}
