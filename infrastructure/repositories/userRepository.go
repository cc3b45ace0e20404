package repositories

import (
	"context"
	"sync"

	"github.com/sgatu/bookstore-back/errors"
	"github.com/sgatu/bookstore-back/models"
)

type MemoryUserRepository struct {
	users map[string]*models.Identity
	lock  sync.RWMutex
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users: make(map[string]*models.Identity),
	}
}

func (r *MemoryUserRepository) Exists(ctx context.Context, username string) (bool, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	_, ok := r.users[username]
	return ok, nil
}

// Insert checks and appends under the same write lock so two concurrent
// registrations of one username cannot both succeed.
func (r *MemoryUserRepository) Insert(ctx context.Context, identity *models.Identity) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if _, ok := r.users[identity.Username]; ok {
		return errors.ErrUserAlreadyExists
	}
	stored := *identity
	r.users[identity.Username] = &stored
	return nil
}

func (r *MemoryUserRepository) FindByUsername(ctx context.Context, username string) (*models.Identity, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	identity, ok := r.users[username]
	if !ok {
		return nil, nil
	}
	found := *identity
	return &found, nil
}
