// Package cli provides the interactive QuickCollab terminal client.
//
// It wires configuration, the local session database, the REST client, the
// realtime channel and the board engine, and runs a REPL on top of them.
// Typical flow: restore or log in, list boards, open one, then work with
// tasks and comments while other members' changes stream in.
//
// The session store drives the rest: logging in starts the realtime channel
// and a board engine; logging out (or a session the server refuses to
// renew) closes the channel and drops all board state.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, StartOnlineStatusWatcher, and runREPL for details.
package cli
