// Package protocol holds the realtime wire contract shared by the client
// channel and the server hub: event names, room identifiers and the
// frame codec.
package protocol
