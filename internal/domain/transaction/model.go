package transaction

import (
	"time"

	"github.com/shopspring/decimal"
)

type Type string

const (
	TypeWalletLoad      Type = "WALLET_LOAD"
	TypeBudgetPurchase  Type = "BUDGET_PURCHASE"
	TypeAIUnlock        Type = "AI_UNLOCK"
	TypeLeagueBuyIn     Type = "LEAGUE_BUYIN"
	TypeLeagueRefund    Type = "LEAGUE_REFUND"
	TypeSubstitutionFee Type = "SUBSTITUTION_FEE"
	TypeLeaguePrize     Type = "LEAGUE_PRIZE"
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
	StatusRefunded Status = "REFUNDED"
)

// IsTerminal reports whether no further gateway outcome may change the status.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusRefunded
}

// Transaction is one money-moving intent. Amount is the base amount the
// intent is about; Fee is charged on top by the gateway and never credited.
type Transaction struct {
	ID           string
	UserID       string
	Type         Type
	Status       Status
	Amount       decimal.Decimal
	Fee          decimal.Decimal
	Description  string
	LeagueID     string
	TierID       string
	PreferenceID string
	PaymentID    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Total is what the payer is charged.
func (t Transaction) Total() decimal.Decimal {
	return t.Amount.Add(t.Fee)
}

// Effect is the ledger change applied when a transaction is approved.
type Effect struct {
	RealBalance   decimal.Decimal
	VirtualBudget decimal.Decimal
	UnlockAI      bool
	PaidLeagueID  string
}

func (e Effect) IsZero() bool {
	return e.RealBalance.IsZero() && e.VirtualBudget.IsZero() && !e.UnlockAI && e.PaidLeagueID == ""
}

type Page struct {
	Number int
	Size   int
}

const DefaultPageSize = 20

// Normalize clamps the page to sane bounds.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 || p.Size > 100 {
		p.Size = DefaultPageSize
	}
	return p
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}
