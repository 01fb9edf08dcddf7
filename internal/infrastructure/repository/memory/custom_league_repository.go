package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/riskibarqy/bilardeando/internal/domain/customleague"
	"github.com/riskibarqy/bilardeando/internal/domain/transaction"
)

type CustomLeagueRepository struct {
	store *Store
}

func NewCustomLeagueRepository(store *Store) *CustomLeagueRepository {
	return &CustomLeagueRepository{store: store}
}

func (r *CustomLeagueRepository) Create(_ context.Context, league customleague.League, creator customleague.Member) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.leagueByCode[league.InviteCode]; ok {
		return fmt.Errorf("%w: %s", customleague.ErrDuplicateCode, league.InviteCode)
	}
	if _, ok := r.store.leagues[league.ID]; ok {
		return fmt.Errorf("create league: id %s already exists", league.ID)
	}

	now := r.store.timestamp()
	if league.CreatedAt.IsZero() {
		league.CreatedAt = now
	}
	league.UpdatedAt = now
	if creator.JoinedAt.IsZero() {
		creator.JoinedAt = now
	}
	creator.LeagueID = league.ID

	r.store.leagues[league.ID] = league
	r.store.leagueByCode[league.InviteCode] = league.ID
	r.store.members[league.ID] = []customleague.Member{r.store.withUserName(creator)}
	return nil
}

func (r *CustomLeagueRepository) GetByID(_ context.Context, leagueID string) (customleague.League, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	league, ok := r.store.leagues[leagueID]
	return league, ok, nil
}

func (r *CustomLeagueRepository) GetByInviteCode(_ context.Context, code string) (customleague.League, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	leagueID, ok := r.store.leagueByCode[code]
	if !ok {
		return customleague.League{}, false, nil
	}
	return r.store.leagues[leagueID], true, nil
}

func (r *CustomLeagueRepository) ListByUser(_ context.Context, userID string) ([]customleague.League, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]customleague.League, 0)
	for _, league := range r.store.leagues {
		_, member := customleague.FindMember(r.store.members[league.ID], userID)
		if league.CreatorID == userID || member {
			out = append(out, league)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (r *CustomLeagueRepository) ListOpen(_ context.Context, startMatchdayID int64) ([]customleague.League, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]customleague.League, 0)
	for _, league := range r.store.leagues {
		if league.Status != customleague.StatusOpen {
			continue
		}
		if startMatchdayID > 0 && league.StartMatchdayID != startMatchdayID {
			continue
		}
		out = append(out, league)
	}
	sortNewestFirst(out)
	return out, nil
}

// ListMembers returns members in join order.
func (r *CustomLeagueRepository) ListMembers(_ context.Context, leagueID string) ([]customleague.Member, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	members := r.store.cloneMembers(leagueID)
	for i := range members {
		members[i] = r.store.withUserName(members[i])
	}
	return members, nil
}

func (r *CustomLeagueRepository) AddMember(_ context.Context, member customleague.Member) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.leagues[member.LeagueID]; !ok {
		return fmt.Errorf("%w: %s", customleague.ErrNotFound, member.LeagueID)
	}
	if _, ok := customleague.FindMember(r.store.members[member.LeagueID], member.UserID); ok {
		return fmt.Errorf("%w: user %s in league %s", customleague.ErrMemberExists, member.UserID, member.LeagueID)
	}
	if member.JoinedAt.IsZero() {
		member.JoinedAt = r.store.timestamp()
	}
	r.store.members[member.LeagueID] = append(r.store.members[member.LeagueID], r.store.withUserName(member))
	return nil
}

func (r *CustomLeagueRepository) Close(_ context.Context, leagueID string, decide func(customleague.League, []customleague.Member) (customleague.Closure, error)) (customleague.League, customleague.Closure, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	league, ok := r.store.leagues[leagueID]
	if !ok {
		return customleague.League{}, customleague.Closure{}, fmt.Errorf("%w: %s", customleague.ErrNotFound, leagueID)
	}
	if league.Status != customleague.StatusOpen {
		return league, customleague.Closure{}, nil
	}

	closure, err := decide(league, r.store.cloneMembers(leagueID))
	if err != nil {
		return customleague.League{}, customleague.Closure{}, err
	}
	if closure.Status == "" || closure.Status == customleague.StatusOpen {
		return league, customleague.Closure{}, nil
	}

	for _, refund := range closure.Refunds {
		if _, ok := r.store.users[refund.UserID]; !ok {
			return customleague.League{}, customleague.Closure{}, fmt.Errorf("refund league %s: user %s does not exist", leagueID, refund.UserID)
		}
	}

	now := r.store.timestamp()
	for _, refund := range closure.Refunds {
		refund.Status = transaction.StatusApproved
		r.store.insertTransaction(refund)

		acc := r.store.users[refund.UserID]
		acc.RealBalance = acc.RealBalance.Add(refund.Amount)
		acc.UpdatedAt = now
		r.store.users[refund.UserID] = acc
	}

	league.Status = closure.Status
	league.UpdatedAt = now
	r.store.leagues[leagueID] = league
	return league, closure, nil
}

func (s *Store) withUserName(m customleague.Member) customleague.Member {
	if acc, ok := s.users[m.UserID]; ok && acc.Name != "" {
		m.UserName = acc.Name
	}
	return m
}

func sortNewestFirst(leagues []customleague.League) {
	sort.Slice(leagues, func(i, j int) bool {
		if leagues[i].CreatedAt.Equal(leagues[j].CreatedAt) {
			return leagues[i].ID > leagues[j].ID
		}
		return leagues[i].CreatedAt.After(leagues[j].CreatedAt)
	})
}
