package squad

import "context"

// Repository persists squads together with the owner's virtual budget.
type Repository interface {
	// GetActiveByUser returns the user's most recent squad and current budget.
	GetActiveByUser(ctx context.Context, userID string) (Roster, bool, error)
	// CreateIfMissing inserts s unless the user already has a squad; it returns
	// the active squad and whether it was created by this call.
	CreateIfMissing(ctx context.Context, s Squad) (Squad, bool, error)
	// Mutate loads the active roster under lock, applies fn and persists the
	// membership diff and budget in one unit of work. Nothing is written when
	// fn returns an error. Returns ErrNoSquad when the user has no squad.
	Mutate(ctx context.Context, userID string, fn func(r *Roster) error) (Roster, error)
}
