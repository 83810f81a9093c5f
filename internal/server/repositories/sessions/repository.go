// Package sessions stores the server-side half of issued tokens. A token is
// accepted only while its session exists and has not expired.
package sessions

import (
	"context"

	"github.com/dmitrijs2005/alumnikeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, session *models.Session) error
	// Find returns common.ErrorNotFound for unknown or expired sessions.
	Find(ctx context.Context, id string) (*models.Session, error)
	// Delete is idempotent.
	Delete(ctx context.Context, id string) error
	DeleteByUser(ctx context.Context, userID string) error
}
