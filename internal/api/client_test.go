// ABOUTME: Tests for the REST API client using httptest servers
// ABOUTME: Covers endpoint routing, JSON decoding, and error normalization

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL)
}

func TestGetConversation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/conversations/42/", r.URL.Path)
		_ = json.NewEncoder(w).Encode(Conversation{
			ID:     42,
			Title:  "Trip Planning",
			Status: StatusActive,
			Messages: []Message{
				{ID: 1, Sender: SenderUser, Content: "hi"},
				{ID: 2, Sender: SenderAI, Content: "hello"},
			},
		})
	})

	conv, err := client.GetConversation(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), conv.ID)
	assert.Equal(t, "Trip Planning", conv.Title)
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, SenderAI, conv.Messages[1].Sender)
}

func TestGetConversation_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "Conversation not found"})
	})

	_, err := client.GetConversation(context.Background(), 99)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))

	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, http.StatusNotFound, remoteErr.StatusCode)
	assert.Equal(t, "Conversation not found", remoteErr.Message)
}

func TestListConversations_Filters(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/conversations/", r.URL.Path)
		assert.Equal(t, "trip", r.URL.Query().Get("search"))
		assert.Equal(t, StatusEnded, r.URL.Query().Get("status"))
		assert.Equal(t, "2026-01-01", r.URL.Query().Get("date_from"))
		_ = json.NewEncoder(w).Encode([]ConversationSummary{
			{ID: 1, Title: "Trip Planning", Status: StatusEnded, MessageCount: 6},
		})
	})

	list, err := client.ListConversations(context.Background(), ListParams{
		Search:   "trip",
		Status:   StatusEnded,
		DateFrom: "2026-01-01",
	})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Trip Planning", list[0].Title)
}

func TestCreateConversation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, DefaultTitle, body["title"])

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(Conversation{ID: 7, Title: DefaultTitle, Status: StatusActive})
	})

	conv, err := client.CreateConversation(context.Background(), DefaultTitle)
	require.NoError(t, err)
	assert.Equal(t, int64(7), conv.ID)
	assert.False(t, conv.Ended())
}

func TestSendMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/conversations/7/send_message/", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hi", body["content"])

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(SendMessageResponse{
			UserMessage: Message{ID: 1, Sender: SenderUser, Content: "hi", Timestamp: time.Now()},
			AIMessage:   Message{ID: 2, Sender: SenderAI, Content: "hello", Timestamp: time.Now()},
		})
	})

	resp, err := client.SendMessage(context.Background(), 7, "hi")
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.UserMessage.ID)
	assert.Equal(t, int64(2), resp.AIMessage.ID)
	assert.Equal(t, "hello", resp.AIMessage.Content)
}

func TestSendMessage_EndedConversation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "Cannot send message to ended conversation"})
	})

	_, err := client.SendMessage(context.Background(), 7, "hi")
	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, http.StatusBadRequest, remoteErr.StatusCode)
	assert.Equal(t, "Cannot send message to ended conversation", remoteErr.Message)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestEndConversation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/conversations/7/end_conversation/", r.URL.Path)
		endedAt := time.Now()
		_ = json.NewEncoder(w).Encode(Conversation{
			ID:      7,
			Status:  StatusEnded,
			EndedAt: &endedAt,
			Summary: "Talked about trips",
		})
	})

	conv, err := client.EndConversation(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, conv.Ended())
	assert.Equal(t, "Talked about trips", conv.Summary)
	require.NotNil(t, conv.EndedAt)
}

func TestUpdateTitle(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/conversations/7/", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Renamed", body["title"])
		_ = json.NewEncoder(w).Encode(Conversation{ID: 7, Title: "Renamed", Status: StatusActive})
	})

	conv, err := client.UpdateTitle(context.Background(), 7, "Renamed")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", conv.Title)
}

func TestDeleteConversation(t *testing.T) {
	var deleted bool
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/conversations/7/", r.URL.Path)
		deleted = true
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.DeleteConversation(context.Background(), 7))
	assert.True(t, deleted)
}

func TestQueryConversations(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/conversations/query_conversations/", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "what trips did I plan?", body["query"])
		_ = json.NewEncoder(w).Encode(QueryResult{
			Response:              "You planned a trip to Lisbon.",
			RelevantConversations: []ConversationSummary{{ID: 1, Title: "Trip Planning"}},
			ExecutionTime:         0.42,
		})
	})

	result, err := client.QueryConversations(context.Background(), "what trips did I plan?")
	require.NoError(t, err)
	assert.Equal(t, "You planned a trip to Lisbon.", result.Response)
	require.Len(t, result.RelevantConversations, 1)
	assert.InDelta(t, 0.42, result.ExecutionTime, 0.001)
}

func TestAnalytics(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/conversations/analytics/", r.URL.Path)
		_ = json.NewEncoder(w).Encode(AnalyticsSummary{TotalConversations: 12, EndedConversations: 9})
	})

	summary, err := client.Analytics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, summary.TotalConversations)
	assert.Equal(t, 9, summary.EndedConversations)
}

func TestDo_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // force connection refused

	client := NewClient(srv.URL)
	_, err := client.GetConversation(context.Background(), 1)

	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Zero(t, remoteErr.StatusCode)
	assert.NotEmpty(t, remoteErr.Message)
}

func TestDo_NonJSONErrorBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	})

	_, err := client.GetConversation(context.Background(), 1)
	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, http.StatusBadGateway, remoteErr.StatusCode)
	assert.Equal(t, http.StatusText(http.StatusBadGateway), remoteErr.Message)
}
