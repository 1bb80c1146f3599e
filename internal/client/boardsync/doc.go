// Package boardsync keeps the client-side state of the open board
// consistent with the server.
//
// Three inputs feed one state: the REST snapshot fetched when a board is
// opened, the responses to the user's own mutations, and push events from
// the realtime channel. Pushed events are merged according to an
// EventBindings table and gated by the per-task version the server
// assigns, so a late event never rolls a task back. Events that arrive
// while the snapshot is loading are buffered and replayed over it.
//
// The engine serializes all state changes behind one mutex and never holds
// it across a network call. A generation counter discards the results of a
// fetch or mutation that finished after the board was closed or reopened.
package boardsync
