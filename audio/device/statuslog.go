package device

import (
	"sync"
	"sync/atomic"

	ringBuffer "github.com/dh1tw/golang-ring"
)

// StatusEvent is a non-zero StatusFlags value reported to a stream
// callback, together with the stream time at which it happened.
type StatusEvent struct {
	StreamTime float64     `json:"stream_time"`
	Flags      StatusFlags `json:"flags"`
}

// StatusLog keeps the most recent StatusEvents of a stream. Record is safe
// to call from the audio callback; it never blocks. Events which can not
// be queued are counted as dropped.
type StatusLog struct {
	sync.Mutex
	pending chan StatusEvent
	history ringBuffer.Ring
	dropped atomic.Uint64
}

// NewStatusLog returns a StatusLog which retains the last size events.
func NewStatusLog(size int) *StatusLog {
	if size < 1 {
		size = 1
	}
	l := &StatusLog{
		pending: make(chan StatusEvent, size),
		history: ringBuffer.Ring{},
	}
	l.history.SetCapacity(size)
	return l
}

// Record queues an event. Zero flags are ignored.
func (l *StatusLog) Record(streamTime float64, flags StatusFlags) {
	if flags == 0 {
		return
	}
	select {
	case l.pending <- StatusEvent{StreamTime: streamTime, Flags: flags}:
	default:
		l.dropped.Add(1)
	}
}

// Events returns the retained events, oldest first.
func (l *StatusLog) Events() []StatusEvent {
	l.Lock()
	defer l.Unlock()

	l.drain()

	values := l.history.Values()
	events := make([]StatusEvent, 0, len(values))
	for _, v := range values {
		if ev, ok := v.(StatusEvent); ok {
			events = append(events, ev)
		}
	}
	return events
}

// Dropped returns how many times the pending queue was full when an event
// had to be recorded.
func (l *StatusLog) Dropped() uint64 {
	return l.dropped.Load()
}

// drain moves the pending events into the history (must hold l.Mutex).
func (l *StatusLog) drain() {
	for {
		select {
		case ev := <-l.pending:
			l.history.Enqueue(ev)
		default:
			return
		}
	}
}
