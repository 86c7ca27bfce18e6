// Package events fans optimization run events out to stream subscribers.
// Topics are planning dates (YYYY-MM-DD).
package events

import "sync"

// Event types published over a run's lifetime.
const (
	TypeRunStarted   = "run.started"
	TypeRunSolved    = "run.solved"
	TypeRunCommitted = "run.committed"
	TypeRunFailed    = "run.failed"
)

type Event struct {
	Type string         `json:"type"`
	Date string         `json:"date"`
	Data map[string]any `json:"data,omitempty"`
}

type Broker interface {
	Subscribe(topic string) chan Event
	Unsubscribe(topic string, ch chan Event)
	Publish(topic string, evt Event)
}

// Memory is the single-instance broker used when no Redis is configured.
type Memory struct {
	mu   sync.Mutex
	subs map[string]map[chan Event]struct{}
}

func NewMemory() *Memory {
	return &Memory{subs: map[string]map[chan Event]struct{}{}}
}

func (b *Memory) Subscribe(topic string) chan Event {
	ch := make(chan Event, 8)
	b.mu.Lock()
	if b.subs[topic] == nil {
		b.subs[topic] = map[chan Event]struct{}{}
	}
	b.subs[topic][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Memory) Unsubscribe(topic string, ch chan Event) {
	b.mu.Lock()
	if m := b.subs[topic]; m != nil {
		delete(m, ch)
		if len(m) == 0 {
			delete(b.subs, topic)
		}
	}
	b.mu.Unlock()
	close(ch)
}

func (b *Memory) Publish(topic string, evt Event) {
	b.mu.Lock()
	for ch := range b.subs[topic] {
		// Slow subscribers drop events rather than stall the run.
		select {
		case ch <- evt:
		default:
		}
	}
	b.mu.Unlock()
}
