package session

import (
	"testing"

	"scriptstudio/internal/workflow"
)

func TestBrokerFanOut(t *testing.T) {
	b := NewBroker()
	a, cancelA := b.Subscribe()
	c, cancelC := b.Subscribe()
	defer cancelC()

	b.Publish(workflow.Snapshot{Phase: workflow.PhaseGeneratingScript})
	if got := (<-a).Phase; got != workflow.PhaseGeneratingScript {
		t.Fatalf("subscriber a got %s", got)
	}
	if got := (<-c).Phase; got != workflow.PhaseGeneratingScript {
		t.Fatalf("subscriber c got %s", got)
	}

	cancelA()
	cancelA()
	if _, ok := <-a; ok {
		t.Fatal("cancelled subscriber channel should be closed")
	}
	if b.Subscribers() != 1 {
		t.Fatalf("Subscribers() = %d, want 1", b.Subscribers())
	}
}

func TestBrokerDropsSlowSubscriber(t *testing.T) {
	b := NewBroker()
	ch, cancel := b.Subscribe()
	defer cancel()
	for i := 0; i < subscriberBuffer+1; i++ {
		b.Publish(workflow.Snapshot{Progress: i})
	}
	if b.Subscribers() != 0 {
		t.Fatalf("Subscribers() = %d, want slow subscriber dropped", b.Subscribers())
	}
	n := 0
	for range ch {
		n++
	}
	if n != subscriberBuffer {
		t.Fatalf("drained %d events, want %d", n, subscriberBuffer)
	}
}

func TestBrokerClose(t *testing.T) {
	b := NewBroker()
	ch, _ := b.Subscribe()
	b.Close()
	if _, ok := <-ch; ok {
		t.Fatal("channel should be closed")
	}
	late, _ := b.Subscribe()
	if _, ok := <-late; ok {
		t.Fatal("subscribe after close should return a closed channel")
	}
	b.Publish(workflow.Snapshot{})
}
