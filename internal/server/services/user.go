// Package services contains server-side business logic. This file implements
// UserService: account registration, login, profile changes and the session
// checks behind authenticated routes.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/alumnikeeper/internal/common"
	"github.com/dmitrijs2005/alumnikeeper/internal/logging"
	"github.com/dmitrijs2005/alumnikeeper/internal/server/auth"
	"github.com/dmitrijs2005/alumnikeeper/internal/server/config"
	"github.com/dmitrijs2005/alumnikeeper/internal/server/events"
	"github.com/dmitrijs2005/alumnikeeper/internal/server/models"
	"github.com/dmitrijs2005/alumnikeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/alumnikeeper/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/alumnikeeper/internal/server/repositories/users"
	"github.com/google/uuid"
)

// LoginResult is what a successful login hands back to the transport.
type LoginResult struct {
	User      *models.User
	Token     string
	ExpiresAt time.Time
}

type UserService struct {
	users         users.Repository
	sessions      sessions.Repository
	hasher        *auth.PasswordHasher
	events        events.Publisher
	logger        logging.Logger
	jwtSecret     []byte
	tokenValidity time.Duration
	now           func() time.Time
}

// NewUserService constructs a UserService over the manager's repositories.
func NewUserService(m repomanager.RepositoryManager, pub events.Publisher, logger logging.Logger, cfg *config.Config) *UserService {
	if pub == nil {
		pub = events.NopPublisher{}
	}
	return &UserService{
		users:         m.Users(),
		sessions:      m.Sessions(),
		hasher:        auth.NewPasswordHasher(cfg.BcryptCost),
		events:        pub,
		logger:        logger.With("module", "services.user"),
		jwtSecret:     []byte(cfg.SecretKey),
		tokenValidity: cfg.TokenValidityDuration,
		now:           time.Now,
	}
}

// Register creates an account from a decoded request body. email, rollNo and
// password are required; every other non-reserved key becomes profile data.
func (s *UserService) Register(ctx context.Context, fields map[string]any) (*models.User, error) {
	email, err := requiredString(fields, models.FieldEmail)
	if err != nil {
		return nil, err
	}
	rollNo, err := requiredRollNo(fields)
	if err != nil {
		return nil, err
	}
	password, err := requiredString(fields, models.FieldPassword)
	if err != nil {
		return nil, err
	}
	profile, err := profileFields(fields)
	if err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user, err := s.users.Create(ctx, &models.User{
		Email:        email,
		RollNo:       rollNo,
		PasswordHash: hash,
		Profile:      profile,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.publish(ctx, events.TypeRegistered, user)
	return user, nil
}

// Login checks credentials and opens a session. Unknown email and wrong
// password both yield common.ErrorUnauthorized.
func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.CompareDummy(password)
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	if !s.hasher.Compare(user.PasswordHash, password) {
		return nil, common.ErrorUnauthorized
	}

	session := &models.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: s.now().Add(s.tokenValidity),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("error creating session: %w", err)
	}

	token, err := auth.GenerateToken(user.ID, session.ID, s.jwtSecret, s.tokenValidity)
	if err != nil {
		return nil, fmt.Errorf("error signing token: %w", err)
	}

	return &LoginResult{User: user, Token: token, ExpiresAt: session.ExpiresAt}, nil
}

// Update applies a partial change to the account with rollNo. A password in
// fields is re-hashed; identifiers and timestamps in fields are ignored.
func (s *UserService) Update(ctx context.Context, rollNo string, fields map[string]any) (*models.User, error) {
	patch := &models.UserPatch{}

	if _, ok := fields[models.FieldEmail]; ok {
		email, err := requiredString(fields, models.FieldEmail)
		if err != nil {
			return nil, err
		}
		patch.Email = &email
	}
	if _, ok := fields[models.FieldRollNo]; ok {
		next, err := requiredRollNo(fields)
		if err != nil {
			return nil, err
		}
		patch.RollNo = &next
	}
	if _, ok := fields[models.FieldPassword]; ok {
		password, err := requiredString(fields, models.FieldPassword)
		if err != nil {
			return nil, err
		}
		hash, err := s.hasher.Hash(password)
		if err != nil {
			return nil, err
		}
		patch.PasswordHash = &hash
	}

	profile, err := profileFields(fields)
	if err != nil {
		return nil, err
	}
	patch.Profile = profile

	user, err := s.users.UpdateByRollNo(ctx, rollNo, patch)
	if err != nil {
		return nil, fmt.Errorf("error updating user: %w", err)
	}

	s.publish(ctx, events.TypeUpdated, user)
	return user, nil
}

// Delete removes the account with rollNo and revokes all its sessions.
func (s *UserService) Delete(ctx context.Context, rollNo string) (*models.User, error) {
	user, err := s.users.DeleteByRollNo(ctx, rollNo)
	if err != nil {
		return nil, fmt.Errorf("error deleting user: %w", err)
	}

	if err := s.sessions.DeleteByUser(ctx, user.ID); err != nil {
		s.logger.Error(ctx, "error revoking sessions", "user_id", user.ID, "error", err)
	}

	s.publish(ctx, events.TypeDeleted, user)
	return user, nil
}

func (s *UserService) Get(ctx context.Context, rollNo string) (*models.User, error) {
	user, err := s.users.GetByRollNo(ctx, rollNo)
	if err != nil {
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	return user, nil
}

// Logout revokes the session behind token. It never fails from the caller's
// point of view: unparsable tokens are ignored and store errors are logged.
func (s *UserService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	claims, err := auth.ParseToken(token, s.jwtSecret)
	if err != nil {
		return nil
	}
	if err := s.sessions.Delete(ctx, claims.ID); err != nil {
		s.logger.Error(ctx, "error deleting session", "session_id", claims.ID, "error", err)
	}
	return nil
}

// Authenticate returns the account id behind a live session token.
func (s *UserService) Authenticate(ctx context.Context, token string) (string, error) {
	claims, err := auth.ParseToken(token, s.jwtSecret)
	if err != nil {
		return "", err
	}

	session, err := s.sessions.Find(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrInvalidToken
		}
		return "", fmt.Errorf("error loading session: %w", err)
	}
	if session.UserID != claims.UserID {
		return "", common.ErrInvalidToken
	}

	return claims.UserID, nil
}

func (s *UserService) publish(ctx context.Context, typ string, u *models.User) {
	if err := s.events.Publish(ctx, events.NewEvent(typ, u, s.now())); err != nil {
		s.logger.Warn(ctx, "event not published", "type", typ, "user_id", u.ID, "error", err)
	}
}

func requiredString(fields map[string]any, key string) (string, error) {
	v, ok := fields[key]
	if !ok || v == nil {
		return "", common.NewValidationError(key, "is required")
	}
	str, ok := v.(string)
	if !ok {
		return "", common.NewValidationError(key, "must be a string")
	}
	if strings.TrimSpace(str) == "" {
		return "", common.NewValidationError(key, "must not be empty")
	}
	return str, nil
}

// requiredRollNo accepts the roll number as a JSON string or number and
// returns its canonical string form.
func requiredRollNo(fields map[string]any) (string, error) {
	v, ok := fields[models.FieldRollNo]
	if !ok || v == nil {
		return "", common.NewValidationError(models.FieldRollNo, "is required")
	}

	var rollNo string
	switch val := v.(type) {
	case string:
		rollNo = strings.TrimSpace(val)
	case float64:
		rollNo = strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		rollNo = val.String()
	case int:
		rollNo = strconv.Itoa(val)
	case int64:
		rollNo = strconv.FormatInt(val, 10)
	default:
		return "", common.NewValidationError(models.FieldRollNo, "must be a string or a number")
	}

	if rollNo == "" {
		return "", common.NewValidationError(models.FieldRollNo, "must not be empty")
	}
	return rollNo, nil
}

// profileFields copies the non-reserved keys of fields. Keys that a document
// store would read as operators or paths are rejected.
func profileFields(fields map[string]any) (map[string]any, error) {
	profile := make(map[string]any, len(fields))
	for k, v := range fields {
		if models.IsReservedField(k) {
			continue
		}
		if k == "" || strings.HasPrefix(k, "$") || strings.Contains(k, ".") {
			return nil, common.NewValidationError(strconv.Quote(k), "is not a valid field name")
		}
		profile[k] = v
	}
	return profile, nil
}
