package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_DeliversToAllSubscribers(t *testing.T) {
	b := NewBus()
	a := b.Subscribe()
	c := b.Subscribe()

	ev := WorkCreated{Type: TypeWorkCreated, WorkID: "w1", CreatedBy: "admin_goncalo", ClientName: "Piscinas Norte"}
	b.Publish(ev)

	select {
	case got := <-a:
		assert.Equal(t, ev, got)
	case <-time.After(time.Second):
		t.Fatal("subscriber a: timeout")
	}
	select {
	case got := <-c:
		assert.Equal(t, ev, got)
	case <-time.After(time.Second):
		t.Fatal("subscriber c: timeout")
	}
}

func TestBus_PublishNeverBlocks(t *testing.T) {
	b := NewBus()
	_ = b.Subscribe() // never drained

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			b.Publish(WorkCreated{WorkID: "w"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}

func TestBus_NoSubscribers(t *testing.T) {
	b := NewBus()
	require.NotPanics(t, func() {
		b.Publish(WorkCreated{WorkID: "w"})
	})
}
