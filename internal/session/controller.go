// ABOUTME: Session controller sequencing user intents against the store and remote API
// ABOUTME: Enforces the conversation lifecycle and schedules the deferred title refresh

package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/2389/chat-portal/internal/api"
)

// Defaults for controller tunables. The title window matches the backend's
// auto-title behavior: titles are generated once a conversation reaches
// four messages, so a send that lands the total in [4,6] is worth one
// delayed re-fetch.
const (
	DefaultMaxMessageLength  = 4000
	DefaultTitleWindowMin    = 4
	DefaultTitleWindowMax    = 6
	DefaultTitleRefreshDelay = 2 * time.Second

	refreshFetchTimeout = 10 * time.Second
)

// ConversationAPI defines what the controller needs from the remote client.
type ConversationAPI interface {
	GetConversation(ctx context.Context, id int64) (*api.Conversation, error)
	CreateConversation(ctx context.Context, title string) (*api.Conversation, error)
	SendMessage(ctx context.Context, id int64, content string) (*api.SendMessageResponse, error)
	EndConversation(ctx context.Context, id int64) (*api.Conversation, error)
	UpdateTitle(ctx context.Context, id int64, title string) (*api.Conversation, error)
	QueryConversations(ctx context.Context, query string) (*api.QueryResult, error)
}

// QueryRecorder defines what the controller needs to record past queries
// locally. Optional; a nil recorder disables recording.
type QueryRecorder interface {
	Save(ctx context.Context, query, response string, executionTime float64) error
}

// Controller sequences user-triggered intents against the Store and the
// remote API. It is the only component allowed to call both.
type Controller struct {
	api     ConversationAPI
	store   *Store
	titles  *TitleBroadcaster
	queries QueryRecorder
	logger  *slog.Logger

	maxMessageLength  int
	titleWindowMin    int
	titleWindowMax    int
	titleRefreshDelay time.Duration

	busy atomic.Bool
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithMaxMessageLength sets the maximum accepted message length.
func WithMaxMessageLength(n int) ControllerOption {
	return func(c *Controller) {
		c.maxMessageLength = n
	}
}

// WithTitleWindow sets the inclusive message-count bounds that trigger the
// deferred title refresh after a successful send.
func WithTitleWindow(min, max int) ControllerOption {
	return func(c *Controller) {
		c.titleWindowMin = min
		c.titleWindowMax = max
	}
}

// WithTitleRefreshDelay sets the delay before the deferred title refresh.
func WithTitleRefreshDelay(d time.Duration) ControllerOption {
	return func(c *Controller) {
		c.titleRefreshDelay = d
	}
}

// WithQueryRecorder sets the local query history recorder.
func WithQueryRecorder(r QueryRecorder) ControllerOption {
	return func(c *Controller) {
		c.queries = r
	}
}

// NewController creates a controller bound to the given store and remote
// client. Pass nil logger for the default.
func NewController(apiClient ConversationAPI, store *Store, titles *TitleBroadcaster, logger *slog.Logger, opts ...ControllerOption) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		api:               apiClient,
		store:             store,
		titles:            titles,
		logger:            logger.With("component", "controller"),
		maxMessageLength:  DefaultMaxMessageLength,
		titleWindowMin:    DefaultTitleWindowMin,
		titleWindowMax:    DefaultTitleWindowMax,
		titleRefreshDelay: DefaultTitleRefreshDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SendResult reports the outcome of a successful SendMessage.
type SendResult struct {
	ConversationID int64
	Created        bool // the conversation was created by this send
	UserMessage    Message
	AIMessage      Message
}

// SendMessage validates content, creates the conversation on first send,
// applies the optimistic update, performs the network round trip, and
// reconciles the result. Exactly one send may be in flight at a time; a
// second attempt fails fast with ErrSendInProgress.
func (c *Controller) SendMessage(ctx context.Context, content string) (*SendResult, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, &ValidationError{Reason: "message must not be empty"}
	}
	if len(content) > c.maxMessageLength {
		return nil, &ValidationError{Reason: "message exceeds maximum length"}
	}

	if c.store.Ended() {
		return nil, ErrConversationEnded
	}

	if !c.busy.CompareAndSwap(false, true) {
		return nil, ErrSendInProgress
	}
	defer c.busy.Store(false)

	created := false
	if !c.store.Bound() {
		conv, err := c.api.CreateConversation(ctx, api.DefaultTitle)
		if err != nil {
			return nil, err
		}
		c.store.Bind(conv)
		created = true
		c.logger.Info("conversation created", "conversation_id", conv.ID)
	}
	conversationID := c.store.ConversationID()

	if _, err := c.store.BeginOptimisticSend(content); err != nil {
		return nil, err
	}

	resp, err := c.api.SendMessage(ctx, conversationID, content)
	if err != nil {
		c.store.RollbackSend()
		return nil, err
	}

	// The store may have been rebound while the call was in flight.
	// The round trip succeeded, but its result no longer belongs to the
	// bound conversation; discard it rather than corrupting the new one.
	if c.store.ConversationID() != conversationID {
		c.logger.Debug("discarding send result for stale conversation",
			"conversation_id", conversationID)
		return &SendResult{
			ConversationID: conversationID,
			Created:        created,
			UserMessage:    fromAPI(resp.UserMessage),
			AIMessage:      fromAPI(resp.AIMessage),
		}, nil
	}

	c.store.CommitSend(resp.UserMessage, resp.AIMessage)

	total := c.store.MessageCount()
	if total >= c.titleWindowMin && total <= c.titleWindowMax {
		c.scheduleTitleRefresh(conversationID)
	}

	return &SendResult{
		ConversationID: conversationID,
		Created:        created,
		UserMessage:    fromAPI(resp.UserMessage),
		AIMessage:      fromAPI(resp.AIMessage),
	}, nil
}

// EndConversation requests the terminal transition from the backend and,
// on confirmation, marks the store ended. A failure leaves the store
// unchanged; the status is never assumed.
func (c *Controller) EndConversation(ctx context.Context) (*api.Conversation, error) {
	conversationID := c.store.ConversationID()
	if conversationID == 0 {
		return nil, ErrNoActiveConversation
	}

	conv, err := c.api.EndConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	if c.store.ConversationID() == conversationID {
		c.store.MarkEnded(conv)
	}
	c.logger.Info("conversation ended", "conversation_id", conversationID)
	return conv, nil
}

// UpdateTitle renames the bound conversation. The title is only applied
// locally after backend confirmation; there is no optimistic title change.
func (c *Controller) UpdateTitle(ctx context.Context, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return &ValidationError{Reason: "title must not be empty"}
	}

	conversationID := c.store.ConversationID()
	if conversationID == 0 {
		return ErrNoActiveConversation
	}

	conv, err := c.api.UpdateTitle(ctx, conversationID, title)
	if err != nil {
		return err
	}

	if c.store.RenameTitleIf(conversationID, conv.Title) {
		c.titles.Publish(TitleUpdate{ConversationID: conversationID, Title: conv.Title})
	}
	return nil
}

// StartNew resets the store to unbound, discarding all in-memory state of
// the previous conversation. No network call is made; any outstanding
// deferred refresh becomes stale and its result will be discarded.
func (c *Controller) StartNew() {
	c.store.Reset()
	c.logger.Debug("started new session")
}

// Load fetches an existing conversation and binds it into the store,
// replacing the current session.
func (c *Controller) Load(ctx context.Context, conversationID int64) (Snapshot, error) {
	conv, err := c.api.GetConversation(ctx, conversationID)
	if err != nil {
		return Snapshot{}, err
	}
	c.store.Bind(conv)
	return c.store.Snapshot(), nil
}

// Query asks a natural-language question over past conversations and
// records it in the local query history when a recorder is configured.
// Recording failures are logged and swallowed.
func (c *Controller) Query(ctx context.Context, text string) (*api.QueryResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, &ValidationError{Reason: "query must not be empty"}
	}

	result, err := c.api.QueryConversations(ctx, text)
	if err != nil {
		return nil, err
	}

	if c.queries != nil {
		if err := c.queries.Save(ctx, text, result.Response, result.ExecutionTime); err != nil {
			c.logger.Warn("failed to record query", "error", err)
		}
	}
	return result, nil
}

// Busy reports whether a send round trip is in flight. Callers should
// disable the send action while busy.
func (c *Controller) Busy() bool {
	return c.busy.Load()
}

// Snapshot returns the store's current read-only view.
func (c *Controller) Snapshot() Snapshot {
	return c.store.Snapshot()
}

// scheduleTitleRefresh arms a single one-shot delayed re-fetch to pick up
// the backend's auto-generated title. Best effort: failures are logged and
// swallowed, never retried, and results that resolve after the store has
// been rebound or reset are discarded via the captured id check.
func (c *Controller) scheduleTitleRefresh(conversationID int64) {
	c.logger.Debug("title refresh scheduled",
		"conversation_id", conversationID,
		"delay", c.titleRefreshDelay)

	time.AfterFunc(c.titleRefreshDelay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), refreshFetchTimeout)
		defer cancel()

		conv, err := c.api.GetConversation(ctx, conversationID)
		if err != nil {
			c.logger.Debug("title refresh failed",
				"conversation_id", conversationID,
				"error", err)
			return
		}

		if conv.Title == "" || conv.Title == api.DefaultTitle {
			return
		}

		if !c.store.RenameTitleIf(conversationID, conv.Title) {
			c.logger.Debug("discarding stale title refresh",
				"conversation_id", conversationID)
			return
		}

		c.titles.Publish(TitleUpdate{ConversationID: conversationID, Title: conv.Title})
		c.logger.Info("conversation title updated",
			"conversation_id", conversationID,
			"title", conv.Title)
	})
}

// IsValidation reports whether err is a local precondition failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
