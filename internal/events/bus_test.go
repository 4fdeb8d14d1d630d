package events

import (
	"testing"
	"time"

	"reelforge/internal/models"
)

// TestBusSinceFiltersBySeqAndJob verifies incremental reads.
func TestBusSinceFiltersBySeqAndJob(t *testing.T) {
	bus := NewBus(10)
	first := bus.Publish(Event{JobID: "a", Type: TypeQueued})
	bus.Publish(Event{JobID: "b", Type: TypeQueued})
	bus.Publish(Event{JobID: "a", Type: TypeStage, Progress: 10})

	if first.Seq != 1 || first.Timestamp.IsZero() {
		t.Fatalf("first event = %+v, want seq 1 with timestamp", first)
	}

	got := bus.Since(first.Seq, "a")
	if len(got) != 1 || got[0].Progress != 10 {
		t.Fatalf("Since(1, a) = %+v", got)
	}
	if all := bus.Since(0, ""); len(all) != 3 {
		t.Fatalf("Since(0) returned %d events, want 3", len(all))
	}
}

// TestBusTrimsToMax verifies the buffer keeps only the newest events.
func TestBusTrimsToMax(t *testing.T) {
	bus := NewBus(2)
	for i := 0; i < 5; i++ {
		bus.Publish(Event{JobID: "a", Type: TypeStage})
	}
	got := bus.Since(0, "")
	if len(got) != 2 || got[0].Seq != 4 || got[1].Seq != 5 {
		t.Fatalf("Since(0) = %+v, want seq 4 and 5", got)
	}
}

// TestBusSubscribeClosesOnTerminal verifies subscribers receive events and a closed channel.
func TestBusSubscribeClosesOnTerminal(t *testing.T) {
	bus := NewBus(0)
	ch, cancel := bus.Subscribe("a", 4)
	defer cancel()

	bus.Publish(Event{JobID: "b", Type: TypeStage})
	bus.Publish(Event{JobID: "a", Type: TypeStage, Stage: models.StageVoice})
	bus.Publish(Event{JobID: "a", Type: TypeCompleted, Status: models.JobStatusCompleted})

	var got []Event
	timeout := time.After(time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				if len(got) != 2 || got[0].Stage != models.StageVoice || !got[1].Terminal() {
					t.Fatalf("received %+v", got)
				}
				return
			}
			got = append(got, ev)
		case <-timeout:
			t.Fatalf("channel not closed after terminal event")
		}
	}
}

// TestBusCancelIsIdempotent verifies cancel can run after a terminal close.
func TestBusCancelIsIdempotent(t *testing.T) {
	bus := NewBus(0)
	_, cancel := bus.Subscribe("a", 1)
	bus.Publish(Event{JobID: "a", Type: TypeFailed})
	cancel()
	cancel()

	_, cancel2 := bus.Subscribe("a", 1)
	cancel2()
	bus.Publish(Event{JobID: "a", Type: TypeStage})
}

// TestBusForget verifies buffered events for removed jobs are dropped.
func TestBusForget(t *testing.T) {
	bus := NewBus(0)
	bus.Publish(Event{JobID: "a"})
	bus.Publish(Event{JobID: "b"})
	bus.Forget("a")

	got := bus.Since(0, "")
	if len(got) != 1 || got[0].JobID != "b" {
		t.Fatalf("Since(0) after Forget = %+v", got)
	}
}
