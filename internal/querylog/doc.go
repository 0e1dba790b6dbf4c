// Package querylog persists a local history of the natural-language
// questions the user has asked over past conversations.
//
// The backend keeps its own record of every query; this store mirrors
// just enough of it client-side that the CLI can recall past questions
// and answers without a network round trip. SQLite via modernc.org/sqlite,
// schema created automatically on first open.
package querylog
