// ABOUTME: Session store holding the authoritative view of one conversation
// ABOUTME: Owns optimistic-update reconciliation, rollback, and lifecycle status

package session

import (
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/lithammer/shortuuid/v4"

	"github.com/2389/chat-portal/internal/api"
)

// Message is one entry in the session's visible message list. Local marks
// an optimistic message that has not been confirmed by the backend yet;
// its ID is a client-generated placeholder, never a server id.
type Message struct {
	ID        string
	Sender    string
	Content   string
	Timestamp time.Time
	Local     bool
}

// Snapshot is a read-only projection of the store for the presentation
// layer. The Messages slice is a copy; callers may not mutate store state
// through it.
type Snapshot struct {
	ConversationID int64
	Title          string
	Status         string
	CreatedAt      time.Time
	Messages       []Message
}

// Store is the single source of truth for one bound conversation's message
// list and lifecycle status. All operations are atomic; the zero id means
// unbound. Only the Controller mutates the store, and only through these
// methods.
type Store struct {
	mu                  sync.Mutex
	conversationID      int64
	title               string
	status              string
	createdAt           time.Time
	messages            []Message
	pendingOptimisticID string
	logger              *slog.Logger
}

// NewStore creates an unbound store. Pass nil logger for the default.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		logger: logger.With("component", "session"),
	}
}

// Bind replaces all state with a freshly fetched conversation. Any pending
// optimistic message from a prior binding is discarded.
func (s *Store) Bind(conv *api.Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conversationID = conv.ID
	s.title = conv.Title
	s.status = conv.Status
	s.createdAt = conv.CreatedAt
	s.pendingOptimisticID = ""
	s.messages = make([]Message, 0, len(conv.Messages))
	for _, m := range conv.Messages {
		s.messages = append(s.messages, fromAPI(m))
	}

	s.logger.Debug("conversation bound",
		"conversation_id", conv.ID,
		"status", conv.Status,
		"message_count", len(conv.Messages))
}

// Reset returns the store to the unbound empty state, discarding all
// in-memory state of the previous conversation.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conversationID = 0
	s.title = ""
	s.status = ""
	s.createdAt = time.Time{}
	s.messages = nil
	s.pendingOptimisticID = ""

	s.logger.Debug("store reset")
}

// BeginOptimisticSend appends a locally tagged user message so the caller
// can display it immediately, and records it as the pending optimistic
// message. Fails with ErrConversationEnded on a terminal conversation and
// ErrSendInProgress while another optimistic message is outstanding;
// neither failure mutates the message list.
func (s *Store) BeginOptimisticSend(content string) (Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == api.StatusEnded {
		return Message{}, ErrConversationEnded
	}
	if s.pendingOptimisticID != "" {
		return Message{}, ErrSendInProgress
	}

	msg := Message{
		ID:        shortuuid.New(),
		Sender:    api.SenderUser,
		Content:   content,
		Timestamp: time.Now(),
		Local:     true,
	}
	s.messages = append(s.messages, msg)
	s.pendingOptimisticID = msg.ID

	s.logger.Debug("optimistic message appended", "local_id", msg.ID)
	return msg, nil
}

// CommitSend replaces the pending optimistic message with the confirmed
// user/assistant pair, preserving the ordering of all confirmed entries.
// If no optimistic message is pending (already rolled back or cleared by a
// rebind), the removal is a no-op but the confirmed pair is still appended.
func (s *Store) CommitSend(userMessage, aiMessage api.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pendingOptimisticID != "" {
		s.removeLocked(s.pendingOptimisticID)
		s.pendingOptimisticID = ""
	}
	s.messages = append(s.messages, fromAPI(userMessage), fromAPI(aiMessage))

	s.logger.Debug("send committed",
		"user_message_id", userMessage.ID,
		"ai_message_id", aiMessage.ID)
}

// RollbackSend removes the pending optimistic message, returning the list
// to its exact pre-send state. No-op when nothing is pending.
func (s *Store) RollbackSend() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pendingOptimisticID == "" {
		return
	}
	s.removeLocked(s.pendingOptimisticID)
	s.logger.Debug("optimistic message rolled back", "local_id", s.pendingOptimisticID)
	s.pendingOptimisticID = ""
}

// MarkEnded records the terminal ended status from a confirmed
// end-conversation response. Idempotent; a second call with the same
// conversation changes nothing.
func (s *Store) MarkEnded(conv *api.Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == api.StatusEnded {
		return
	}
	s.status = api.StatusEnded
	if conv.Title != "" {
		s.title = conv.Title
	}
	s.logger.Debug("conversation ended", "conversation_id", s.conversationID)
}

// RenameTitle applies a confirmed title update. Title changes are
// independent of message reconciliation and never touch the pending
// optimistic message.
func (s *Store) RenameTitle(title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.title = title
}

// RenameTitleIf applies a title update only if the store is still bound to
// the given conversation id. Returns false when the update is stale; used
// by the deferred title refresh to discard results after a rebind.
func (s *Store) RenameTitleIf(conversationID int64, title string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conversationID != conversationID {
		return false
	}
	s.title = title
	return true
}

// Snapshot returns a read-only copy of the current conversation view.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	messages := make([]Message, len(s.messages))
	copy(messages, s.messages)
	return Snapshot{
		ConversationID: s.conversationID,
		Title:          s.title,
		Status:         s.status,
		CreatedAt:      s.createdAt,
		Messages:       messages,
	}
}

// ConversationID returns the bound conversation id, or zero when unbound.
func (s *Store) ConversationID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversationID
}

// Bound reports whether a conversation is bound to the store.
func (s *Store) Bound() bool {
	return s.ConversationID() != 0
}

// Status returns the bound conversation's lifecycle status, or the empty
// string when unbound.
func (s *Store) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Ended reports whether the bound conversation has reached its terminal state.
func (s *Store) Ended() bool {
	return s.Status() == api.StatusEnded
}

// MessageCount returns the number of messages currently visible.
func (s *Store) MessageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// PendingSend reports whether an optimistic message is outstanding.
func (s *Store) PendingSend() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingOptimisticID != ""
}

// removeLocked removes the message with the given id. Caller holds s.mu.
func (s *Store) removeLocked(id string) {
	for i, m := range s.messages {
		if m.ID == id {
			s.messages = append(s.messages[:i], s.messages[i+1:]...)
			return
		}
	}
}

// fromAPI converts a confirmed backend message into the session
// representation. Server ids are numeric; they are kept distinguishable
// from local ids by the Local tag, not by id shape.
func fromAPI(m api.Message) Message {
	return Message{
		ID:        strconv.FormatInt(m.ID, 10),
		Sender:    m.Sender,
		Content:   m.Content,
		Timestamp: m.Timestamp,
	}
}
