// Package client is the QuickCollab REST API client.
//
// # Overview
//
// Client is the transport-agnostic contract used by the session store and
// the board synchronization engine. HTTPClient implements it over HTTP+JSON:
// it attaches the bearer credential from a TokenSource to every request
// except register and login, and recovers once from an expired credential
// by renewing it and retrying the original request.
//
// # Error Handling
//
// Every failure is returned as *APIError carrying the HTTP status and the
// server message. Its kind is exposed through errors.Is: ErrValidation,
// ErrAuth, ErrSessionExpired, ErrConflict, ErrNotFound, ErrForbidden,
// ErrServer and ErrTransport. Credential failures additionally match
// *SessionExpiredError with errors.As, whose Cause tells an expired
// credential apart from an invalid one.
package client
