package squad

import (
	"time"

	"github.com/riskibarqy/bilardeando/internal/domain/formation"
	"github.com/riskibarqy/bilardeando/internal/domain/player"
	"github.com/shopspring/decimal"
)

const (
	MaxSquadSize = 18
	MaxStarters  = 11
	MaxBench     = 7
)

var (
	// InitialBudget is the virtual budget, in millions, every account starts with.
	InitialBudget = decimal.NewFromInt(150)
	// SellTaxRate is withheld from the player's price when selling.
	SellTaxRate = decimal.RequireFromString("0.10")
)

type Role string

const (
	RoleCaptain    Role = "captain"
	RoleCaptainSub Role = "captainSub"
)

func ParseRole(raw string) (Role, bool) {
	switch Role(raw) {
	case RoleCaptain:
		return RoleCaptain, true
	case RoleCaptainSub:
		return RoleCaptainSub, true
	default:
		return "", false
	}
}

// Member is one player held by a squad. Player carries the catalog snapshot
// (position, price, rating) loaded alongside the membership.
type Member struct {
	Player       player.Player
	IsStarter    bool
	IsCaptain    bool
	IsCaptainSub bool
	AddedAt      time.Time
}

func (m *Member) clearCaptaincy() {
	m.IsCaptain = false
	m.IsCaptainSub = false
}

type Squad struct {
	ID        string
	UserID    string
	Formation formation.Code
	Members   []Member
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone returns a deep copy safe to mutate.
func (s Squad) Clone() Squad {
	copied := s
	copied.Members = append([]Member(nil), s.Members...)
	return copied
}

func (s Squad) Starters() []Member {
	out := make([]Member, 0, MaxStarters)
	for _, m := range s.Members {
		if m.IsStarter {
			out = append(out, m)
		}
	}
	return out
}

func (s Squad) Bench() []Member {
	out := make([]Member, 0, MaxBench)
	for _, m := range s.Members {
		if !m.IsStarter {
			out = append(out, m)
		}
	}
	return out
}

func (s Squad) indexOf(playerID string) int {
	for i := range s.Members {
		if s.Members[i].Player.ID == playerID {
			return i
		}
	}
	return -1
}

func (s Squad) Has(playerID string) bool {
	return s.indexOf(playerID) >= 0
}

func (s Squad) starterCountByPosition() map[player.Position]int {
	counts := make(map[player.Position]int, len(player.AllPositions))
	for _, m := range s.Members {
		if m.IsStarter {
			counts[m.Player.Position]++
		}
	}
	return counts
}

// TotalValue sums the current price of every member.
func (s Squad) TotalValue() decimal.Decimal {
	total := decimal.Zero
	for _, m := range s.Members {
		total = total.Add(m.Player.Price)
	}
	return total
}

// Roster pairs a squad with its owner's virtual budget. All roster rules are
// evaluated against both so that a mutation never debits without inserting.
type Roster struct {
	Squad  Squad
	Budget decimal.Decimal
}

func (r Roster) Clone() Roster {
	return Roster{Squad: r.Squad.Clone(), Budget: r.Budget}
}

type Summary struct {
	SquadID         string
	Formation       formation.Code
	PlayerCount     int
	StarterCount    int
	BenchCount      int
	TotalValue      decimal.Decimal
	RemainingBudget decimal.Decimal
	CaptainID       string
	CaptainSubID    string
}

// FormationChange names the players moved by a formation switch.
type FormationChange struct {
	Formation         formation.Code
	MovedToBench      []string
	PromotedToStarter []string
}

// Sale describes the outcome of selling a player.
type Sale struct {
	Player        player.Player
	OriginalPrice decimal.Decimal
	Refund        decimal.Decimal
	Tax           decimal.Decimal
}

type Validation struct {
	Valid  bool
	Errors []string
}
