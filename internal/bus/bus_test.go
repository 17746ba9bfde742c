package bus

import (
	"testing"
	"time"

	"github.com/localcoder/nanocore/internal/types"
)

func TestSubscribeReceivesMatchingType(t *testing.T) {
	b := New()
	ch := b.Subscribe(types.EventStepBegin)

	b.Publish(types.Event{Type: types.EventStepBegin, TaskID: "t1"})
	b.Publish(types.Event{Type: types.EventStepEnd, TaskID: "t1"})

	select {
	case evt := <-ch:
		if evt.TaskID != "t1" {
			t.Fatalf("got task %q, want t1", evt.TaskID)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for subscribed event")
	}

	select {
	case evt := <-ch:
		t.Fatalf("unexpected second event: %+v", evt)
	default:
	}
}

func TestTapReceivesEverything(t *testing.T) {
	b := New()
	tap := b.NewTap()

	b.Publish(types.Event{Type: types.EventStepBegin})
	b.Publish(types.Event{Type: types.EventToolCall})

	for i := 0; i < 2; i++ {
		select {
		case <-tap:
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for tap event")
		}
	}
}

func TestPublishDropsOnFullSubscriberWithoutBlocking(t *testing.T) {
	b := New()
	_ = b.Subscribe(types.EventStepBegin) // buffered, never drained

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBufSize+10; i++ {
			b.Publish(types.Event{Type: types.EventStepBegin})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a full subscriber channel")
	}
}
