package user

import "context"

type Repository interface {
	// Ensure returns the account for acc.ID, inserting acc when it doesn't exist.
	Ensure(ctx context.Context, acc Account) (Account, error)
	GetByID(ctx context.Context, userID string) (Account, bool, error)
	UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (Account, bool, error)
}
