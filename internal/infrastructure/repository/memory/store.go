package memory

import (
	"sync"
	"time"

	"github.com/riskibarqy/bilardeando/internal/domain/customleague"
	"github.com/riskibarqy/bilardeando/internal/domain/matchday"
	"github.com/riskibarqy/bilardeando/internal/domain/player"
	"github.com/riskibarqy/bilardeando/internal/domain/squad"
	"github.com/riskibarqy/bilardeando/internal/domain/team"
	"github.com/riskibarqy/bilardeando/internal/domain/transaction"
	"github.com/riskibarqy/bilardeando/internal/domain/user"
)

// Store is the shared in-process database behind every memory repository.
// One mutex guards all tables so that writes touching several entities
// (squad plus budget, transaction plus balance, league plus refunds) are
// atomic the same way a postgres transaction is.
type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	teams     []team.Team
	players   []player.Player
	playerIdx map[string]int
	matchdays []matchday.Matchday

	users        map[string]user.Account
	squads       map[string]squad.Squad
	squadByUser  map[string]string
	transactions map[string]transaction.Transaction
	leagues      map[string]customleague.League
	leagueByCode map[string]string
	members      map[string][]customleague.Member
}

type StoreOption func(*Store)

// WithClock overrides the timestamp source used for UpdatedAt columns.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func NewStore(teams []team.Team, players []player.Player, matchdays []matchday.Matchday, opts ...StoreOption) *Store {
	s := &Store{
		now:          time.Now,
		teams:        append([]team.Team(nil), teams...),
		players:      append([]player.Player(nil), players...),
		playerIdx:    make(map[string]int, len(players)),
		matchdays:    append([]matchday.Matchday(nil), matchdays...),
		users:        make(map[string]user.Account),
		squads:       make(map[string]squad.Squad),
		squadByUser:  make(map[string]string),
		transactions: make(map[string]transaction.Transaction),
		leagues:      make(map[string]customleague.League),
		leagueByCode: make(map[string]string),
		members:      make(map[string][]customleague.Member),
	}
	for i, p := range s.players {
		s.playerIdx[p.ID] = i
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewSeededStore returns a store loaded with the demo catalog.
func NewSeededStore(opts ...StoreOption) *Store {
	return NewStore(SeedTeams(), SeedPlayers(), SeedMatchdays(), opts...)
}

func (s *Store) timestamp() time.Time {
	return s.now().UTC()
}

// refreshMembers replaces each member's player snapshot with the current
// catalog entry so prices and ratings follow the catalog.
func (s *Store) refreshMembers(sq squad.Squad) squad.Squad {
	out := sq.Clone()
	for i := range out.Members {
		if idx, ok := s.playerIdx[out.Members[i].Player.ID]; ok {
			out.Members[i].Player = s.players[idx]
		}
	}
	return out
}

func (s *Store) cloneMembers(leagueID string) []customleague.Member {
	return append([]customleague.Member(nil), s.members[leagueID]...)
}
