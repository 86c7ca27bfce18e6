package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryPublishSubscribe(t *testing.T) {
	b := NewMemory()
	ch := b.Subscribe("2025-03-10")

	evt := Event{Type: TypeRunStarted, Date: "2025-03-10"}
	b.Publish("2025-03-10", evt)

	select {
	case got := <-ch:
		assert.Equal(t, evt, got)
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timeout waiting for event")
	}

	b.Unsubscribe("2025-03-10", ch)
	_, open := <-ch
	assert.False(t, open, "channel should close after unsubscribe")
}

func TestMemoryTopicsAreIsolated(t *testing.T) {
	b := NewMemory()
	a := b.Subscribe("2025-03-10")
	other := b.Subscribe("2025-03-11")
	defer b.Unsubscribe("2025-03-10", a)
	defer b.Unsubscribe("2025-03-11", other)

	b.Publish("2025-03-10", Event{Type: TypeRunCommitted, Date: "2025-03-10"})

	select {
	case got := <-a:
		assert.Equal(t, TypeRunCommitted, got.Type)
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timeout waiting for event")
	}
	select {
	case got := <-other:
		t.Fatalf("unexpected event on other topic: %+v", got)
	default:
	}
}

func TestMemorySlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	b := NewMemory()
	ch := b.Subscribe("d")
	defer b.Unsubscribe("d", ch)

	done := make(chan struct{})
	go func() {
		defer close(done)
		// More events than the channel buffers; Publish must not stall.
		for i := 0; i < 100; i++ {
			b.Publish("d", Event{Type: TypeRunSolved, Date: "d"})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}

	got := 0
	require.Eventually(t, func() bool {
		for {
			select {
			case <-ch:
				got++
			default:
				return got > 0
			}
		}
	}, time.Second, 10*time.Millisecond)
	assert.LessOrEqual(t, got, 100)
}
