// Package sessions stores the server side of issued access tokens so a
// token can be revoked before it expires.
package sessions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/quickcollab/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, s *models.Session) error
	Get(ctx context.Context, id string) (*models.Session, error)
	// Revoke marks the session revoked at the given time. Revoking twice
	// keeps the first timestamp.
	Revoke(ctx context.Context, id string, at time.Time) error
	// DeleteExpired drops sessions that expired before the given time and
	// returns how many were removed.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
