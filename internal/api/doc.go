// Package api provides a typed client for the conversation portal REST API.
//
// # Overview
//
// The api package is a thin, stateless façade over the backend's HTTP
// endpoints. Every operation is a single request/response round trip;
// there are no retries and no caching. Failures are normalized into a
// single *RemoteError shape carrying the HTTP status and the backend's
// error message, so callers never see transport details.
//
// # Client
//
//	client := api.NewClient(baseURL, api.WithTimeout(10*time.Second))
//	conv, err := client.GetConversation(ctx, id)
//
// Key operations:
//
//   - GetConversation / ListConversations: read conversation state
//   - CreateConversation: bind a new conversation id
//   - SendMessage: post user content, receive the confirmed user/assistant pair
//   - EndConversation: terminal transition, populates summary fields
//   - UpdateTitle / DeleteConversation: metadata management
//   - QueryConversations: natural-language question over past conversations
//   - Analytics: aggregate usage statistics
//
// # Errors
//
// All failures are *RemoteError. A 404 additionally satisfies
// errors.Is(err, api.ErrNotFound) so callers can distinguish a missing
// conversation from a transient failure without inspecting status codes.
package api
