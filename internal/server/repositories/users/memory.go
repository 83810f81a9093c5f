package users

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/alumnikeeper/internal/common"
	"github.com/dmitrijs2005/alumnikeeper/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository is a mutex-guarded map used by tests and the memory://
// DSN. It hands out copies, so callers never share state with the store.
type MemoryRepository struct {
	mu    sync.RWMutex
	users map[string]*models.User
	now   func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{users: make(map[string]*models.User), now: time.Now}
}

func (r *MemoryRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkUnique("", user.Email, user.RollNo); err != nil {
		return nil, err
	}

	now := r.now()
	stored := user.Clone()
	stored.ID = uuid.NewString()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	r.users[stored.ID] = stored

	return stored.Clone(), nil
}

func (r *MemoryRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Email == email {
			return u.Clone(), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *MemoryRepository) GetByRollNo(ctx context.Context, rollNo string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u := r.findByRollNo(rollNo)
	if u == nil {
		return nil, common.ErrorNotFound
	}
	return u.Clone(), nil
}

func (r *MemoryRepository) UpdateByRollNo(ctx context.Context, rollNo string, patch *models.UserPatch) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current := r.findByRollNo(rollNo)
	if current == nil {
		return nil, common.ErrorNotFound
	}

	next := current.Clone()
	patch.Apply(next, r.now())

	if err := r.checkUnique(next.ID, next.Email, next.RollNo); err != nil {
		return nil, err
	}

	r.users[next.ID] = next
	return next.Clone(), nil
}

func (r *MemoryRepository) DeleteByRollNo(ctx context.Context, rollNo string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u := r.findByRollNo(rollNo)
	if u == nil {
		return nil, common.ErrorNotFound
	}
	delete(r.users, u.ID)
	return u, nil
}

func (r *MemoryRepository) findByRollNo(rollNo string) *models.User {
	for _, u := range r.users {
		if u.RollNo == rollNo {
			return u
		}
	}
	return nil
}

// checkUnique must be called with the write lock held. selfID is skipped so
// an account does not collide with itself on update.
func (r *MemoryRepository) checkUnique(selfID, email, rollNo string) error {
	for id, u := range r.users {
		if id == selfID {
			continue
		}
		if u.Email == email {
			return common.ErrEmailExists
		}
	}
	for id, u := range r.users {
		if id == selfID {
			continue
		}
		if u.RollNo == rollNo {
			return common.ErrRollNoExists
		}
	}
	return nil
}
