// Package session implements the client-side conversation session state
// machine: the single source of truth for one bound conversation's message
// list and lifecycle, and the controller that sequences user intents
// against it and the remote API.
//
// # Overview
//
// The package has three parts:
//
//   - Store: holds the bound conversation's messages and lifecycle status,
//     and owns optimistic-update reconciliation. A user message appears
//     locally the moment it is sent and is either replaced by the
//     confirmed user/assistant pair or rolled back on failure. At most
//     one optimistic message is pending at a time.
//
//   - Controller: the only component that talks to both the Store and the
//     remote API. It validates intents against the conversation lifecycle
//     (Unbound -> Active -> Ended, with Ended terminal), creates the
//     conversation lazily on the first send, and schedules the one-shot
//     deferred title refresh after a send lands in the auto-title window.
//
//   - TitleBroadcaster: in-memory fan-out of title-changed notifications
//     to whatever renders the conversation header.
//
// # Lifecycle
//
// A Store starts unbound. The first successful send creates and binds a
// conversation. EndConversation is terminal: once ended, every send is
// rejected locally with ErrConversationEnded, mirroring the backend's own
// enforcement. StartNew resets the Store to unbound; it is a full reset,
// not a lifecycle transition of the bound conversation.
//
// # Staleness
//
// Deferred work (the title refresh) captures the conversation id at
// schedule time and re-validates it against the Store before mutating
// anything, so results that resolve after the user has navigated away are
// discarded rather than applied to the wrong conversation.
package session
