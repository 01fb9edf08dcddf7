package cache

import (
	"context"
	"sort"
	"strings"

	"github.com/riskibarqy/bilardeando/internal/domain/matchday"
	"github.com/riskibarqy/bilardeando/internal/domain/player"
	"github.com/riskibarqy/bilardeando/internal/domain/team"
	basecache "github.com/riskibarqy/bilardeando/internal/platform/cache"
)

// The catalog is imported offline and read-only to the service, so reads are
// cached without write-through invalidation; TTL bounds staleness after an
// import.

type TeamRepository struct {
	next  team.Repository
	cache *basecache.Store
}

func NewTeamRepository(next team.Repository, cache *basecache.Store) *TeamRepository {
	return &TeamRepository{next: next, cache: cache}
}

func (r *TeamRepository) List(ctx context.Context) ([]team.Team, error) {
	items, err := basecache.Load(ctx, r.cache, "team:list", func(ctx context.Context) ([]team.Team, error) {
		return r.next.List(ctx)
	})
	if err != nil {
		return nil, err
	}

	return append([]team.Team(nil), items...), nil
}

func (r *TeamRepository) GetByID(ctx context.Context, teamID string) (team.Team, bool, error) {
	cached, err := basecache.Load(ctx, r.cache, "team:id:"+teamID, func(ctx context.Context) (cachedItem[team.Team], error) {
		item, exists, err := r.next.GetByID(ctx, teamID)
		return cachedItem[team.Team]{value: item, exists: exists}, err
	})
	if err != nil {
		return team.Team{}, false, err
	}
	return cached.value, cached.exists, nil
}

type MatchdayRepository struct {
	next  matchday.Repository
	cache *basecache.Store
}

func NewMatchdayRepository(next matchday.Repository, cache *basecache.Store) *MatchdayRepository {
	return &MatchdayRepository{next: next, cache: cache}
}

func (r *MatchdayRepository) List(ctx context.Context) ([]matchday.Matchday, error) {
	items, err := basecache.Load(ctx, r.cache, "matchday:list", func(ctx context.Context) ([]matchday.Matchday, error) {
		return r.next.List(ctx)
	})
	if err != nil {
		return nil, err
	}

	return append([]matchday.Matchday(nil), items...), nil
}

// GetByID is not cached: matchday status gates transfers and league locks.
func (r *MatchdayRepository) GetByID(ctx context.Context, id int64) (matchday.Matchday, bool, error) {
	return r.next.GetByID(ctx, id)
}

type PlayerRepository struct {
	next  player.Repository
	cache *basecache.Store
}

func NewPlayerRepository(next player.Repository, cache *basecache.Store) *PlayerRepository {
	return &PlayerRepository{next: next, cache: cache}
}

func (r *PlayerRepository) List(ctx context.Context, filter player.Filter) ([]player.Player, error) {
	items, err := basecache.Load(ctx, r.cache, playerFilterKey(filter), func(ctx context.Context) ([]player.Player, error) {
		return r.next.List(ctx, filter)
	})
	if err != nil {
		return nil, err
	}

	return append([]player.Player(nil), items...), nil
}

func (r *PlayerRepository) GetByID(ctx context.Context, id string) (player.Player, bool, error) {
	cached, err := basecache.Load(ctx, r.cache, "player:id:"+id, func(ctx context.Context) (cachedItem[player.Player], error) {
		item, exists, err := r.next.GetByID(ctx, id)
		return cachedItem[player.Player]{value: item, exists: exists}, err
	})
	if err != nil {
		return player.Player{}, false, err
	}
	return cached.value, cached.exists, nil
}

func (r *PlayerRepository) GetByIDs(ctx context.Context, ids []string) ([]player.Player, error) {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	key := "player:ids:" + strings.Join(sorted, ",")

	items, err := basecache.Load(ctx, r.cache, key, func(ctx context.Context) ([]player.Player, error) {
		return r.next.GetByIDs(ctx, ids)
	})
	if err != nil {
		return nil, err
	}

	return append([]player.Player(nil), items...), nil
}

type cachedItem[T any] struct {
	value  T
	exists bool
}

func playerFilterKey(f player.Filter) string {
	var b strings.Builder
	b.WriteString("player:list:")
	b.WriteString(string(f.Position))
	b.WriteString("|")
	b.WriteString(f.TeamID)
	b.WriteString("|")
	if f.MaxPrice != nil {
		b.WriteString(f.MaxPrice.String())
	}
	b.WriteString("|")
	b.WriteString(strings.ToLower(strings.TrimSpace(f.Search)))
	return b.String()
}
