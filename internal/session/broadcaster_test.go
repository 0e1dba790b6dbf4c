// ABOUTME: Tests for the title update fan-out broadcaster
// ABOUTME: Covers subscribe, publish, unsubscribe, context cancellation, slow subscribers

package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBroadcaster_SingleSubscriberReceivesUpdate(t *testing.T) {
	b := NewTitleBroadcaster(nil)
	defer b.Close()

	ch, _ := b.Subscribe(context.Background())

	b.Publish(TitleUpdate{ConversationID: 1, Title: "Trip Planning"})

	select {
	case update := <-ch:
		assert.Equal(t, int64(1), update.ConversationID)
		assert.Equal(t, "Trip Planning", update.Title)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for update")
	}
}

func TestBroadcaster_MultipleSubscribersReceiveSameUpdate(t *testing.T) {
	b := NewTitleBroadcaster(nil)
	defer b.Close()

	ch1, _ := b.Subscribe(context.Background())
	ch2, _ := b.Subscribe(context.Background())

	b.Publish(TitleUpdate{ConversationID: 7, Title: "Renamed"})

	for i, ch := range []<-chan TitleUpdate{ch1, ch2} {
		select {
		case update := <-ch:
			assert.Equal(t, "Renamed", update.Title, "subscriber %d got wrong update", i)
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d timed out", i)
		}
	}
}

func TestBroadcaster_UnsubscribeClosesChannel(t *testing.T) {
	b := NewTitleBroadcaster(nil)
	defer b.Close()

	ch, subID := b.Subscribe(context.Background())
	b.Unsubscribe(subID)

	_, open := <-ch
	assert.False(t, open, "channel should be closed after unsubscribe")

	// Publishing after unsubscribe must not panic
	b.Publish(TitleUpdate{ConversationID: 1, Title: "After"})
}

func TestBroadcaster_ContextCancellationCleansUp(t *testing.T) {
	b := NewTitleBroadcaster(nil)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch, _ := b.Subscribe(ctx)
	cancel()

	// Channel closes once the cleanup goroutine runs
	select {
	case _, open := <-ch:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("channel not closed after context cancellation")
	}
}

func TestBroadcaster_SlowSubscriberDropsWithoutBlocking(t *testing.T) {
	b := NewTitleBroadcaster(nil)
	defer b.Close()

	ch, _ := b.Subscribe(context.Background())

	// Fill the buffer and then some; Publish must never block
	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBufferSize*2; i++ {
			b.Publish(TitleUpdate{ConversationID: int64(i), Title: "t"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}

	// The buffered portion is still delivered in order
	first := <-ch
	assert.Equal(t, int64(0), first.ConversationID)
}
