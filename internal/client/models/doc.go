// Package models defines the client-side board data model: sessions,
// boards, tasks, comments and collaborators, plus the partial task patch
// carried by push events.
package models
