// ABOUTME: Wire types mirroring the conversation portal's JSON payloads
// ABOUTME: Field names match the backend serializers exactly

package api

import "time"

// Conversation status values as reported by the backend.
const (
	StatusActive = "active"
	StatusEnded  = "ended"
)

// Message sender values as reported by the backend.
const (
	SenderUser = "user"
	SenderAI   = "ai"
)

// DefaultTitle is the placeholder the backend assigns to new conversations
// until the auto-title job replaces it.
const DefaultTitle = "New Conversation"

// Message is a single confirmed message within a conversation.
type Message struct {
	ID         int64     `json:"id"`
	Sender     string    `json:"sender"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
	TokensUsed int       `json:"tokens_used,omitempty"`
}

// Conversation is the detail view of a conversation with full message history.
type Conversation struct {
	ID              int64      `json:"id"`
	Title           string     `json:"title"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	Summary         string     `json:"summary,omitempty"`
	KeyTopics       []string   `json:"key_topics,omitempty"`
	ActionItems     []string   `json:"action_items,omitempty"`
	Sentiment       string     `json:"sentiment,omitempty"`
	MessageCount    int        `json:"message_count"`
	DurationMinutes *float64   `json:"duration_minutes,omitempty"`
	Messages        []Message  `json:"messages,omitempty"`
}

// Ended reports whether the conversation has reached its terminal state.
func (c *Conversation) Ended() bool {
	return c.Status == StatusEnded
}

// ConversationSummary is the lightweight list view returned by ListConversations.
type ConversationSummary struct {
	ID              int64      `json:"id"`
	Title           string     `json:"title"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	MessageCount    int        `json:"message_count"`
	DurationMinutes *float64   `json:"duration_minutes,omitempty"`
	KeyTopics       []string   `json:"key_topics,omitempty"`
	Sentiment       string     `json:"sentiment,omitempty"`
}

// ListParams are the optional filters accepted by ListConversations.
type ListParams struct {
	Search   string
	Status   string
	DateFrom string
	DateTo   string
}

// SendMessageResponse is the confirmed user/assistant message pair returned
// by a successful send.
type SendMessageResponse struct {
	UserMessage Message `json:"user_message"`
	AIMessage   Message `json:"ai_message"`
}

// QueryResult is the answer to a natural-language question over past
// conversations.
type QueryResult struct {
	ID                    int64                 `json:"id"`
	QueryText             string                `json:"query_text"`
	Response              string                `json:"response"`
	RelevantConversations []ConversationSummary `json:"relevant_conversations"`
	ExecutionTime         float64               `json:"execution_time"`
	CreatedAt             time.Time             `json:"created_at"`
}

// AnalyticsSummary holds aggregate statistics from the analytics endpoint.
type AnalyticsSummary struct {
	TotalConversations  int      `json:"total_conversations"`
	ActiveConversations int      `json:"active_conversations"`
	EndedConversations  int      `json:"ended_conversations"`
	TotalMessages       int      `json:"total_messages"`
	TopTopics           []string `json:"top_topics,omitempty"`
}
