package memory

import (
	"context"

	"github.com/riskibarqy/bilardeando/internal/domain/user"
)

type UserRepository struct {
	store *Store
}

func NewUserRepository(store *Store) *UserRepository {
	return &UserRepository{store: store}
}

func (r *UserRepository) Ensure(_ context.Context, acc user.Account) (user.Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if existing, ok := r.store.users[acc.ID]; ok {
		return existing, nil
	}

	now := r.store.timestamp()
	if acc.CreatedAt.IsZero() {
		acc.CreatedAt = now
	}
	acc.UpdatedAt = now
	r.store.users[acc.ID] = acc
	return acc, nil
}

func (r *UserRepository) GetByID(_ context.Context, userID string) (user.Account, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	acc, ok := r.store.users[userID]
	return acc, ok, nil
}

func (r *UserRepository) UpdateProfile(_ context.Context, userID string, update user.ProfileUpdate) (user.Account, bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	acc, ok := r.store.users[userID]
	if !ok {
		return user.Account{}, false, nil
	}
	if update.Name != nil {
		acc.Name = *update.Name
	}
	if update.Email != nil {
		acc.Email = *update.Email
	}
	acc.UpdatedAt = r.store.timestamp()
	r.store.users[userID] = acc
	return acc, true, nil
}
