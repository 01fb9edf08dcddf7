package customleague

import (
	"errors"
	"fmt"
	"time"

	"github.com/riskibarqy/bilardeando/internal/domain/transaction"
	"github.com/shopspring/decimal"
)

// Status of a paid private league.
type Status string

const (
	StatusOpen      Status = "OPEN"
	StatusActive    Status = "ACTIVE"
	StatusCancelled Status = "CANCELLED"
	StatusFinished  Status = "FINISHED"
)

const (
	DefaultMaxPlayers = 20
	MinMaxPlayers     = 3
	MaxMaxPlayers     = 100
	MaxNameLength     = 80
	InviteCodeLength  = 8
	// MinPaidToActivate paid members keep a league alive at lock time.
	MinPaidToActivate = 3
)

var (
	MinBuyIn           = decimal.NewFromInt(10000)
	MaxBuyIn           = decimal.NewFromInt(100000)
	BuyInStep          = decimal.NewFromInt(5000)
	DefaultRakePercent = decimal.NewFromInt(5)
)

var (
	ErrInvalidSettings = errors.New("invalid league settings")
	ErrMemberExists    = errors.New("league member already exists")
	ErrDuplicateCode   = errors.New("league invite code already taken")
	ErrNotFound        = errors.New("league not found")
)

// League is a paid private competition between users, entered through an
// invite code and funded by buy-ins.
type League struct {
	ID              string
	Name            string
	InviteCode      string
	Status          Status
	BuyIn           decimal.Decimal
	MaxPlayers      int
	RakePercent     decimal.Decimal
	CreatorID       string
	StartMatchdayID int64
	EndMatchdayID   int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Member struct {
	LeagueID string
	UserID   string
	UserName string
	Paid     bool
	JoinedAt time.Time
}

// Settings are the creator-chosen parameters checked by ValidateSettings.
type Settings struct {
	Name            string
	BuyIn           decimal.Decimal
	MaxPlayers      int
	StartMatchdayID int64
	EndMatchdayID   int64
}

func ValidateSettings(s Settings) error {
	if s.Name == "" {
		return fmt.Errorf("%w: league name is required", ErrInvalidSettings)
	}
	if len([]rune(s.Name)) > MaxNameLength {
		return fmt.Errorf("%w: league name must be at most %d characters", ErrInvalidSettings, MaxNameLength)
	}
	if s.BuyIn.LessThan(MinBuyIn) || s.BuyIn.GreaterThan(MaxBuyIn) {
		return fmt.Errorf("%w: buy-in must be between %s and %s", ErrInvalidSettings, MinBuyIn, MaxBuyIn)
	}
	if !s.BuyIn.Mod(BuyInStep).IsZero() {
		return fmt.Errorf("%w: buy-in must be a multiple of %s", ErrInvalidSettings, BuyInStep)
	}
	if s.StartMatchdayID >= s.EndMatchdayID {
		return fmt.Errorf("%w: start matchday must be before end matchday", ErrInvalidSettings)
	}
	if s.MaxPlayers < MinMaxPlayers || s.MaxPlayers > MaxMaxPlayers {
		return fmt.Errorf("%w: max players must be between %d and %d", ErrInvalidSettings, MinMaxPlayers, MaxMaxPlayers)
	}
	return nil
}

func PaidCount(members []Member) int {
	n := 0
	for _, m := range members {
		if m.Paid {
			n++
		}
	}
	return n
}

func FindMember(members []Member, userID string) (Member, bool) {
	for _, m := range members {
		if m.UserID == userID {
			return m, true
		}
	}
	return Member{}, false
}

// Closure is the decision taken when a league reaches its start lock.
// Refunds are inserted APPROVED and credited to each user's real balance.
type Closure struct {
	Status  Status
	Refunds []transaction.Transaction
}

// SeatsPayer reports whether a buy-in approved now can still be honoured:
// the league is OPEN and either userID already holds a paid seat or one is
// left under MaxPlayers.
func SeatsPayer(l League, members []Member, userID string) bool {
	if l.Status != StatusOpen {
		return false
	}
	if m, ok := FindMember(members, userID); ok && m.Paid {
		return true
	}
	return PaidCount(members) < l.MaxPlayers
}

// LateRefund is the APPROVED refund written in the same unit of work as a
// buy-in approval the league can no longer seat. Its id derives from the
// buy-in so a replayed settlement cannot credit twice.
func LateRefund(l League, buyIn transaction.Transaction, now time.Time) transaction.Transaction {
	name := l.Name
	if name == "" {
		name = buyIn.LeagueID
	}
	return transaction.Transaction{
		ID:          buyIn.ID + "-refund",
		UserID:      buyIn.UserID,
		Type:        transaction.TypeLeagueRefund,
		Status:      transaction.StatusApproved,
		Amount:      buyIn.Amount,
		Fee:         decimal.Zero,
		Description: fmt.Sprintf("Refund: league %s no longer accepts buy-ins", name),
		LeagueID:    buyIn.LeagueID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
