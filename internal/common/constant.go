// Package common contains shared constants and sentinel errors used across
// QuickCollab components.
package common

// AuthorizationHeaderName carries the bearer credential on outbound requests.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the access token in the Authorization header.
const BearerPrefix = "Bearer "

// Error codes returned in the "code" field of JSON error bodies.
const (
	CodeTokenExpired = "token_expired"
	CodeTokenInvalid = "token_invalid"
	CodeValidation   = "validation"
	CodeNotFound     = "not_found"
	CodeConflict     = "conflict"
	CodeForbidden    = "forbidden"
	CodeBadLogin     = "bad_credentials"
	CodeInternal     = "internal"
)
