// ABOUTME: In-memory fan-out broadcaster for conversation title updates
// ABOUTME: Publishes TitleUpdate notifications to all subscribers of the session

package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

const (
	// subscriberBufferSize is the channel buffer for each subscriber.
	subscriberBufferSize = 16
)

// TitleUpdate is emitted once per successful deferred title refresh and
// per confirmed rename, for whatever UI displays the conversation header.
type TitleUpdate struct {
	ConversationID int64
	Title          string
}

// TitleBroadcaster provides in-memory pub/sub for title updates. It
// replaces global event broadcast with an explicit subscription scoped to
// the session's lifetime.
type TitleBroadcaster struct {
	mu          sync.RWMutex
	subscribers map[string]chan TitleUpdate
	logger      *slog.Logger
}

// NewTitleBroadcaster creates a broadcaster. Pass nil logger for default.
func NewTitleBroadcaster(logger *slog.Logger) *TitleBroadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &TitleBroadcaster{
		subscribers: make(map[string]chan TitleUpdate),
		logger:      logger.With("component", "titles"),
	}
}

// Subscribe registers a subscriber for title updates. Returns a channel
// that receives updates and a subscription ID for later unsubscription.
// The subscription is automatically cleaned up when ctx is cancelled.
func (b *TitleBroadcaster) Subscribe(ctx context.Context) (<-chan TitleUpdate, string) {
	subID := uuid.New().String()
	ch := make(chan TitleUpdate, subscriberBufferSize)

	b.mu.Lock()
	b.subscribers[subID] = ch
	b.mu.Unlock()

	b.logger.Debug("subscriber added", "sub_id", subID)

	// Auto-cleanup on context cancellation
	go func() {
		<-ctx.Done()
		b.Unsubscribe(subID)
	}()

	return ch, subID
}

// Publish sends an update to all subscribers.
// Non-blocking: updates are dropped for subscribers whose channels are full.
func (b *TitleBroadcaster) Publish(update TitleUpdate) {
	b.mu.RLock()
	targets := make([]chan TitleUpdate, 0, len(b.subscribers))
	for _, ch := range b.subscribers {
		targets = append(targets, ch)
	}
	b.mu.RUnlock()

	for _, ch := range targets {
		select {
		case ch <- update:
			// Sent
		default:
			// Subscriber channel full — drop update for this subscriber
			b.logger.Debug("dropped update for slow subscriber",
				"conversation_id", update.ConversationID)
		}
	}
}

// Unsubscribe removes a subscription and closes its channel.
func (b *TitleBroadcaster) Unsubscribe(subID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch, exists := b.subscribers[subID]
	if !exists {
		return
	}
	delete(b.subscribers, subID)
	close(ch)

	b.logger.Debug("subscriber removed", "sub_id", subID)
}

// Close shuts down the broadcaster and closes all subscriber channels.
func (b *TitleBroadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for subID, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, subID)
	}

	b.logger.Debug("broadcaster closed")
}
