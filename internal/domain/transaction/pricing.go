package transaction

import "github.com/shopspring/decimal"

var (
	// FeeRate is the service fee applied to wallet loads and budget purchases.
	FeeRate = decimal.RequireFromString("0.03")
	// FeeWaiverThreshold is the real balance from which the service fee is waived.
	FeeWaiverThreshold = decimal.NewFromInt(20000)
	// AIUnlockPrice is charged flat, without service fee.
	AIUnlockPrice = decimal.NewFromInt(500)
	// MaxWalletLoad bounds a single wallet load.
	MaxWalletLoad = decimal.NewFromInt(1000000)
)

func FeeWaived(realBalance decimal.Decimal) bool {
	return realBalance.GreaterThanOrEqual(FeeWaiverThreshold)
}

// ServiceFee returns the fee for amount, rounded to cents, or zero when waived.
func ServiceFee(amount, realBalance decimal.Decimal) decimal.Decimal {
	if FeeWaived(realBalance) {
		return decimal.Zero
	}
	return amount.Mul(FeeRate).Round(2)
}

// BudgetTier is a purchasable virtual budget top-up. VirtualAmount is in
// millions, Price in currency units.
type BudgetTier struct {
	ID            string
	VirtualAmount decimal.Decimal
	Price         decimal.Decimal
}

var budgetTiers = []BudgetTier{
	{ID: "tier-5m", VirtualAmount: decimal.NewFromInt(5), Price: decimal.NewFromInt(1000)},
	{ID: "tier-10m", VirtualAmount: decimal.NewFromInt(10), Price: decimal.NewFromInt(1800)},
	{ID: "tier-20m", VirtualAmount: decimal.NewFromInt(20), Price: decimal.NewFromInt(3000)},
}

func Tiers() []BudgetTier {
	return append([]BudgetTier(nil), budgetTiers...)
}

func TierByID(id string) (BudgetTier, bool) {
	for _, tier := range budgetTiers {
		if tier.ID == id {
			return tier, true
		}
	}
	return BudgetTier{}, false
}
