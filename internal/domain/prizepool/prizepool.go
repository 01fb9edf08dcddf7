// Package prizepool computes a league's pot, platform rake and payout table.
package prizepool

import "github.com/shopspring/decimal"

// MinPaidMembers is the smallest field that produces a payout.
const MinPaidMembers = 3

type Place struct {
	Position   int
	Percentage int
	Amount     decimal.Decimal
}

type Pool struct {
	TotalPool    decimal.Decimal
	Rake         decimal.Decimal
	NetPool      decimal.Decimal
	Distribution []Place
}

type payoutTier struct {
	maxMembers  int
	percentages []int
}

// Tiers are checked in order; maxMembers <= 0 means unbounded.
var payoutTiers = []payoutTier{
	{maxMembers: 6, percentages: []int{70, 30}},
	{maxMembers: 15, percentages: []int{50, 30, 20}},
	{maxMembers: 0, percentages: []int{40, 25, 20, 15}},
}

// Calculate derives the pool for paidMembers entries of buyIn each.
func Calculate(buyIn decimal.Decimal, paidMembers int, rakePercent decimal.Decimal) Pool {
	if paidMembers < 0 {
		paidMembers = 0
	}
	total := buyIn.Mul(decimal.NewFromInt(int64(paidMembers)))
	rake := total.Mul(rakePercent).Div(decimal.NewFromInt(100))
	net := total.Sub(rake)

	return Pool{
		TotalPool:    total,
		Rake:         rake,
		NetPool:      net,
		Distribution: Distribution(paidMembers, net),
	}
}

// Distribution splits netPool across the paying places for a field of
// paidMembers. Each amount is rounded to a whole currency unit.
func Distribution(paidMembers int, netPool decimal.Decimal) []Place {
	if paidMembers < MinPaidMembers {
		return []Place{}
	}

	percentages := payoutTiers[len(payoutTiers)-1].percentages
	for _, tier := range payoutTiers {
		if tier.maxMembers <= 0 || paidMembers <= tier.maxMembers {
			percentages = tier.percentages
			break
		}
	}

	out := make([]Place, 0, len(percentages))
	for i, pct := range percentages {
		out = append(out, Place{
			Position:   i + 1,
			Percentage: pct,
			Amount:     netPool.Mul(decimal.NewFromInt(int64(pct))).Div(decimal.NewFromInt(100)).Round(0),
		})
	}
	return out
}
