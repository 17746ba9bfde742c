// Package bus is a non-blocking publish/subscribe fan-out used internally
// for progress reporting and cancellation signaling: the Orchestrator and
// Planner publish Events as steps begin and end, and the UI and task-log
// tap the stream independently of each other.
package bus

import (
	"log"
	"sync"

	"github.com/localcoder/nanocore/internal/types"
)

const (
	subscriberBufSize = 64
	tapBufSize        = 256
)

// Bus is the observable event bus. Multiple consumers (UI, task log) can
// each register their own tap channel via NewTap without affecting the
// others.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[types.EventType][]chan types.Event
	taps        []chan types.Event
}

// New creates a new Bus.
func New() *Bus {
	return &Bus{
		subscribers: make(map[types.EventType][]chan types.Event),
	}
}

// Publish fans out evt to all subscribers of evt.Type and to every tap.
// Non-blocking: if a subscriber's channel is full, the event is dropped
// with a warning rather than stalling the publisher.
func (b *Bus) Publish(evt types.Event) {
	b.mu.RLock()
	subs := b.subscribers[evt.Type]
	taps := b.taps
	b.mu.RUnlock()

	for _, ch := range subs {
		select {
		case ch <- evt:
		default:
			log.Printf("[BUS] WARNING: subscriber channel full for type=%s task=%s — event dropped", evt.Type, evt.TaskID)
		}
	}

	for _, tap := range taps {
		select {
		case tap <- evt:
		default:
			log.Printf("[BUS] WARNING: tap channel full — event dropped type=%s", evt.Type)
		}
	}
}

// Subscribe returns a receive-only channel that delivers events of type t.
// Each call creates a new independent subscriber channel.
func (b *Bus) Subscribe(t types.EventType) <-chan types.Event {
	ch := make(chan types.Event, subscriberBufSize)
	b.mu.Lock()
	b.subscribers[t] = append(b.subscribers[t], ch)
	b.mu.Unlock()
	return ch
}

// NewTap registers and returns a new read-only tap channel that receives
// every published event regardless of type.
func (b *Bus) NewTap() <-chan types.Event {
	ch := make(chan types.Event, tapBufSize)
	b.mu.Lock()
	b.taps = append(b.taps, ch)
	b.mu.Unlock()
	return ch
}
