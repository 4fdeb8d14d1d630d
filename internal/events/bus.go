package events

import (
	"sync"
	"time"

	"reelforge/internal/models"
)

// Type classifies messages emitted during job execution.
type Type string

const (
	TypeQueued    Type = "queued"
	TypeStage     Type = "stage"
	TypeFallback  Type = "fallback"
	TypeCompleted Type = "completed"
	TypeFailed    Type = "failed"
)

// Event is a sequenced status change for one job.
type Event struct {
	Seq       int64            `json:"seq"`
	Timestamp time.Time        `json:"timestamp"`
	JobID     string           `json:"jobId"`
	Type      Type             `json:"type"`
	Status    models.JobStatus `json:"status"`
	Progress  int              `json:"progress"`
	Stage     models.Stage     `json:"stage,omitempty"`
	Message   string           `json:"message,omitempty"`
}

// Terminal reports whether the event closes the job's stream.
func (e Event) Terminal() bool {
	return e.Type == TypeCompleted || e.Type == TypeFailed
}

// Bus stores recent events, provides incremental reads and pushes to subscribers.
type Bus struct {
	mu        sync.RWMutex
	nextSeq   int64
	maxEvents int
	events    []Event
	subs      map[string]map[chan Event]struct{}
}

// NewBus creates a bounded in-memory event buffer.
func NewBus(maxEvents int) *Bus {
	if maxEvents <= 0 {
		maxEvents = 1000
	}

	return &Bus{
		maxEvents: maxEvents,
		events:    make([]Event, 0, maxEvents),
		subs:      make(map[string]map[chan Event]struct{}),
	}
}

// Publish appends one event, assigns sequence and timestamp and fans it out.
// Slow subscribers miss events rather than block the publisher; terminal events
// close the job's subscriptions.
func (b *Bus) Publish(event Event) Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextSeq++
	event.Seq = b.nextSeq
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	b.events = append(b.events, event)
	if len(b.events) > b.maxEvents {
		trim := len(b.events) - b.maxEvents
		b.events = append([]Event(nil), b.events[trim:]...)
	}

	for ch := range b.subs[event.JobID] {
		select {
		case ch <- event:
		default:
		}
		if event.Terminal() {
			close(ch)
		}
	}
	if event.Terminal() {
		delete(b.subs, event.JobID)
	}

	return event
}

// Since returns events with sequence strictly greater than seq.
// A non-empty jobID restricts the result to that job.
func (b *Bus) Since(seq int64, jobID string) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.events) == 0 {
		return nil
	}

	out := make([]Event, 0, len(b.events))
	for _, event := range b.events {
		if event.Seq > seq && (jobID == "" || event.JobID == jobID) {
			out = append(out, event)
		}
	}
	return out
}

// Subscribe returns a channel receiving future events for jobID and a cancel func.
// The channel is closed after the job's terminal event or on cancel.
func (b *Bus) Subscribe(jobID string, buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	if b.subs[jobID] == nil {
		b.subs[jobID] = make(map[chan Event]struct{})
	}
	b.subs[jobID][ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if set, ok := b.subs[jobID]; ok {
				if _, ok := set[ch]; ok {
					delete(set, ch)
					close(ch)
				}
				if len(set) == 0 {
					delete(b.subs, jobID)
				}
			}
		})
	}
	return ch, cancel
}

// Forget drops buffered events for the given jobs.
func (b *Bus) Forget(jobIDs ...string) {
	if len(jobIDs) == 0 {
		return
	}
	drop := make(map[string]struct{}, len(jobIDs))
	for _, id := range jobIDs {
		drop[id] = struct{}{}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	kept := b.events[:0]
	for _, event := range b.events {
		if _, ok := drop[event.JobID]; !ok {
			kept = append(kept, event)
		}
	}
	b.events = kept
}
