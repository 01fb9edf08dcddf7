package transaction

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownType   = errors.New("unknown transaction type")
	ErrUnknownTier   = errors.New("unknown budget tier")
	ErrMissingLeague = errors.New("transaction has no league reference")
	ErrNotFound      = errors.New("transaction not found")
)

// Intent is the typed variant behind a transaction. Each variant decides
// what approving a transaction of its kind does to the ledger.
type Intent interface {
	Type() Type
	Approve(tx Transaction) Effect
}

type WalletLoad struct{}

func (WalletLoad) Type() Type { return TypeWalletLoad }

// Approve credits the base amount only; the fee stays with the platform.
func (WalletLoad) Approve(tx Transaction) Effect {
	return Effect{RealBalance: tx.Amount}
}

type BudgetPurchase struct {
	Tier BudgetTier
}

func (BudgetPurchase) Type() Type { return TypeBudgetPurchase }

func (b BudgetPurchase) Approve(Transaction) Effect {
	return Effect{VirtualBudget: b.Tier.VirtualAmount}
}

type AIUnlock struct{}

func (AIUnlock) Type() Type { return TypeAIUnlock }

func (AIUnlock) Approve(Transaction) Effect {
	return Effect{UnlockAI: true}
}

type LeagueBuyIn struct {
	LeagueID string
}

func (LeagueBuyIn) Type() Type { return TypeLeagueBuyIn }

func (l LeagueBuyIn) Approve(Transaction) Effect {
	return Effect{PaidLeagueID: l.LeagueID}
}

type LeagueRefund struct{}

func (LeagueRefund) Type() Type { return TypeLeagueRefund }

func (LeagueRefund) Approve(tx Transaction) Effect {
	return Effect{RealBalance: tx.Amount}
}

type LeaguePrize struct{}

func (LeaguePrize) Type() Type { return TypeLeaguePrize }

func (LeaguePrize) Approve(tx Transaction) Effect {
	return Effect{RealBalance: tx.Amount}
}

// SubstitutionFee pays for a service; approval moves no balance.
type SubstitutionFee struct{}

func (SubstitutionFee) Type() Type { return TypeSubstitutionFee }

func (SubstitutionFee) Approve(Transaction) Effect {
	return Effect{}
}

// IntentOf rebuilds the typed variant from a stored transaction using its
// structured references (tier id, league id).
func IntentOf(tx Transaction) (Intent, error) {
	switch tx.Type {
	case TypeWalletLoad:
		return WalletLoad{}, nil
	case TypeBudgetPurchase:
		tier, ok := TierByID(tx.TierID)
		if !ok {
			return nil, fmt.Errorf("%w: %q on transaction %s", ErrUnknownTier, tx.TierID, tx.ID)
		}
		return BudgetPurchase{Tier: tier}, nil
	case TypeAIUnlock:
		return AIUnlock{}, nil
	case TypeLeagueBuyIn:
		if tx.LeagueID == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingLeague, tx.ID)
		}
		return LeagueBuyIn{LeagueID: tx.LeagueID}, nil
	case TypeLeagueRefund:
		return LeagueRefund{}, nil
	case TypeLeaguePrize:
		return LeaguePrize{}, nil
	case TypeSubstitutionFee:
		return SubstitutionFee{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, tx.Type)
	}
}
