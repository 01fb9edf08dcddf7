package user

import (
	"time"

	"github.com/shopspring/decimal"
)

// Principal is the authenticated caller as reported by the token verifier.
type Principal struct {
	UserID string
	Email  string
	Name   string
}

// Account carries the per-user budget ledger: the virtual budget (millions)
// spent on players and the real balance (currency units) funded by payments.
type Account struct {
	ID            string
	Name          string
	Email         string
	VirtualBudget decimal.Decimal
	RealBalance   decimal.Decimal
	AIUnlocked    bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ProfileUpdate holds optional profile fields; nil means unchanged.
type ProfileUpdate struct {
	Name  *string
	Email *string
}

func (u ProfileUpdate) IsEmpty() bool {
	return u.Name == nil && u.Email == nil
}
