package users

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/alumnikeeper/internal/common"
	"github.com/dmitrijs2005/alumnikeeper/internal/dbx"
	"github.com/dmitrijs2005/alumnikeeper/internal/server/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation = "23505"

	emailConstraint  = "users_email_key"
	rollNoConstraint = "users_roll_no_key"

	userColumns = `id, email, roll_no, password_hash, profile, created_at, updated_at`
)

// PostgresRepository keeps accounts in the users table. Profile fields live
// in a JSONB column.
type PostgresRepository struct {
	db    *sql.DB
	now   func() time.Time
	newID func() string
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db, now: time.Now, newID: uuid.NewString}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	profile, err := encodeProfile(user.Profile)
	if err != nil {
		return nil, err
	}

	query :=
		`INSERT INTO users (id, email, roll_no, password_hash, profile)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at, updated_at
		 `

	id := r.newID()
	err = r.db.QueryRowContext(ctx, query,
		id, user.Email, user.RollNo, user.PasswordHash, profile).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, mapPgError(err)
	}

	user.ID = id
	return user, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) GetByRollNo(ctx context.Context, rollNo string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE roll_no = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, rollNo))
}

// UpdateByRollNo locks the row, merges the patch and writes it back in one
// transaction.
func (r *PostgresRepository) UpdateByRollNo(ctx context.Context, rollNo string, patch *models.UserPatch) (*models.User, error) {
	var updated *models.User

	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		query := `SELECT ` + userColumns + ` FROM users WHERE roll_no = $1 FOR UPDATE`
		user, err := scanUser(tx.QueryRowContext(ctx, query, rollNo))
		if err != nil {
			return err
		}

		patch.Apply(user, r.now())

		profile, err := encodeProfile(user.Profile)
		if err != nil {
			return err
		}

		update :=
			`UPDATE users
			 SET email = $2, roll_no = $3, password_hash = $4, profile = $5, updated_at = $6
			 WHERE id = $1
			 `
		if _, err := tx.ExecContext(ctx, update,
			user.ID, user.Email, user.RollNo, user.PasswordHash, profile, user.UpdatedAt); err != nil {
			return mapPgError(err)
		}

		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// DeleteByRollNo removes the account; its sessions go with it through the
// foreign key.
func (r *PostgresRepository) DeleteByRollNo(ctx context.Context, rollNo string) (*models.User, error) {
	query := `DELETE FROM users WHERE roll_no = $1 RETURNING ` + userColumns
	return scanUser(r.db.QueryRowContext(ctx, query, rollNo))
}

func scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	var profile []byte

	err := row.Scan(&user.ID, &user.Email, &user.RollNo, &user.PasswordHash, &profile, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if len(profile) > 0 {
		if err := json.Unmarshal(profile, &user.Profile); err != nil {
			return nil, fmt.Errorf("decode profile: %w", err)
		}
	}

	return user, nil
}

func encodeProfile(profile map[string]any) ([]byte, error) {
	if profile == nil {
		profile = map[string]any{}
	}
	b, err := json.Marshal(profile)
	if err != nil {
		return nil, fmt.Errorf("encode profile: %w", err)
	}
	return b, nil
}

// mapPgError turns unique violations into the matching conflict sentinel.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		switch pgErr.ConstraintName {
		case emailConstraint:
			return common.ErrEmailExists
		case rollNoConstraint:
			return common.ErrRollNoExists
		}
		return fmt.Errorf("db error: %w", common.ErrorAlreadyExists)
	}
	return fmt.Errorf("db error: %w", err)
}
