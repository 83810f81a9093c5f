// Package users declares the account store contract and its PostgreSQL,
// MongoDB and in-memory implementations.
package users

import (
	"context"

	"github.com/dmitrijs2005/alumnikeeper/internal/server/models"
)

// Repository persists accounts. Implementations enforce email and roll number
// uniqueness themselves and report violations as common.ErrEmailExists or
// common.ErrRollNoExists; a missing account is common.ErrorNotFound.
type Repository interface {
	// Create stores user, filling ID and timestamps.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByRollNo(ctx context.Context, rollNo string) (*models.User, error)

	// UpdateByRollNo applies patch atomically and returns the stored result.
	UpdateByRollNo(ctx context.Context, rollNo string, patch *models.UserPatch) (*models.User, error)

	// DeleteByRollNo removes the account and returns what was removed.
	DeleteByRollNo(ctx context.Context, rollNo string) (*models.User, error)
}
