// Package models defines server-side data models persisted in the database
// and the JSON views served to clients.
package models
