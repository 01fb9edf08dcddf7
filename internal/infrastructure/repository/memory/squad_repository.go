package memory

import (
	"context"
	"fmt"

	"github.com/riskibarqy/bilardeando/internal/domain/squad"
)

type SquadRepository struct {
	store *Store
}

func NewSquadRepository(store *Store) *SquadRepository {
	return &SquadRepository{store: store}
}

func (r *SquadRepository) GetActiveByUser(_ context.Context, userID string) (squad.Roster, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	squadID, ok := r.store.squadByUser[userID]
	if !ok {
		return squad.Roster{}, false, nil
	}
	return squad.Roster{
		Squad:  r.store.refreshMembers(r.store.squads[squadID]),
		Budget: r.store.users[userID].VirtualBudget,
	}, true, nil
}

func (r *SquadRepository) CreateIfMissing(_ context.Context, s squad.Squad) (squad.Squad, bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if squadID, ok := r.store.squadByUser[s.UserID]; ok {
		return r.store.refreshMembers(r.store.squads[squadID]), false, nil
	}
	if _, ok := r.store.users[s.UserID]; !ok {
		return squad.Squad{}, false, fmt.Errorf("create squad: user %s does not exist", s.UserID)
	}

	now := r.store.timestamp()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	r.store.squads[s.ID] = s.Clone()
	r.store.squadByUser[s.UserID] = s.ID
	return s.Clone(), true, nil
}

func (r *SquadRepository) Mutate(_ context.Context, userID string, fn func(r *squad.Roster) error) (squad.Roster, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	squadID, ok := r.store.squadByUser[userID]
	if !ok {
		return squad.Roster{}, squad.ErrNoSquad
	}
	acc, ok := r.store.users[userID]
	if !ok {
		return squad.Roster{}, fmt.Errorf("mutate squad: user %s does not exist", userID)
	}

	roster := squad.Roster{
		Squad:  r.store.refreshMembers(r.store.squads[squadID]),
		Budget: acc.VirtualBudget,
	}
	if err := fn(&roster); err != nil {
		return squad.Roster{}, err
	}

	now := r.store.timestamp()
	roster.Squad.UpdatedAt = now
	r.store.squads[squadID] = roster.Squad.Clone()
	acc.VirtualBudget = roster.Budget
	acc.UpdatedAt = now
	r.store.users[userID] = acc
	return roster.Clone(), nil
}
