package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/riskibarqy/bilardeando/internal/domain/matchday"
	"github.com/riskibarqy/bilardeando/internal/domain/player"
	"github.com/riskibarqy/bilardeando/internal/domain/team"
)

type PlayerRepository struct {
	store *Store
}

func NewPlayerRepository(store *Store) *PlayerRepository {
	return &PlayerRepository{store: store}
}

// List returns matching players, most expensive first.
func (r *PlayerRepository) List(_ context.Context, filter player.Filter) ([]player.Player, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	out := make([]player.Player, 0, len(r.store.players))
	for _, p := range r.store.players {
		if filter.Position != "" && p.Position != filter.Position {
			continue
		}
		if filter.TeamID != "" && p.TeamID != filter.TeamID {
			continue
		}
		if filter.MaxPrice != nil && p.Price.GreaterThan(*filter.MaxPrice) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
			continue
		}
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Price.Equal(out[j].Price) {
			return out[i].Price.GreaterThan(out[j].Price)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *PlayerRepository) GetByID(_ context.Context, id string) (player.Player, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	idx, ok := r.store.playerIdx[id]
	if !ok {
		return player.Player{}, false, nil
	}
	return r.store.players[idx], true, nil
}

func (r *PlayerRepository) GetByIDs(_ context.Context, ids []string) ([]player.Player, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]player.Player, 0, len(ids))
	for _, id := range ids {
		idx, ok := r.store.playerIdx[id]
		if !ok {
			continue
		}
		out = append(out, r.store.players[idx])
	}
	return out, nil
}

type TeamRepository struct {
	store *Store
}

func NewTeamRepository(store *Store) *TeamRepository {
	return &TeamRepository{store: store}
}

func (r *TeamRepository) List(_ context.Context) ([]team.Team, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return append([]team.Team(nil), r.store.teams...), nil
}

func (r *TeamRepository) GetByID(_ context.Context, teamID string) (team.Team, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, t := range r.store.teams {
		if t.ID == teamID {
			return t, true, nil
		}
	}
	return team.Team{}, false, nil
}

type MatchdayRepository struct {
	store *Store
}

func NewMatchdayRepository(store *Store) *MatchdayRepository {
	return &MatchdayRepository{store: store}
}

// List returns matchdays ordered by id.
func (r *MatchdayRepository) List(_ context.Context) ([]matchday.Matchday, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := append([]matchday.Matchday(nil), r.store.matchdays...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MatchdayRepository) GetByID(_ context.Context, id int64) (matchday.Matchday, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, md := range r.store.matchdays {
		if md.ID == id {
			return md, true, nil
		}
	}
	return matchday.Matchday{}, false, nil
}

// SetStatus is used by the lock job and tests to move a matchday forward.
func (r *MatchdayRepository) SetStatus(_ context.Context, id int64, status matchday.Status) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for i := range r.store.matchdays {
		if r.store.matchdays[i].ID == id {
			r.store.matchdays[i].Status = status
			return true, nil
		}
	}
	return false, nil
}
