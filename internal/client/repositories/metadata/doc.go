// Package metadata persists small client-side key/value records in SQLite.
// The session store keeps the credential and identity here.
package metadata
