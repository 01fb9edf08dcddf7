package customleague

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/riskibarqy/bilardeando/internal/domain/transaction"
	"github.com/shopspring/decimal"
)

func TestValidateSettings(t *testing.T) {
	valid := Settings{
		Name:            "Los Pibes",
		BuyIn:           decimal.NewFromInt(15000),
		MaxPlayers:      20,
		StartMatchdayID: 3,
		EndMatchdayID:   8,
	}
	if err := ValidateSettings(valid); err != nil {
		t.Fatalf("expected valid settings, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(s *Settings)
	}{
		{name: "empty name", mutate: func(s *Settings) { s.Name = "" }},
		{name: "long name", mutate: func(s *Settings) { s.Name = strings.Repeat("x", MaxNameLength+1) }},
		{name: "buy-in below minimum", mutate: func(s *Settings) { s.BuyIn = decimal.NewFromInt(5000) }},
		{name: "buy-in above maximum", mutate: func(s *Settings) { s.BuyIn = decimal.NewFromInt(105000) }},
		{name: "buy-in off step", mutate: func(s *Settings) { s.BuyIn = decimal.NewFromInt(12500) }},
		{name: "start equals end", mutate: func(s *Settings) { s.EndMatchdayID = s.StartMatchdayID }},
		{name: "too few players", mutate: func(s *Settings) { s.MaxPlayers = 2 }},
		{name: "too many players", mutate: func(s *Settings) { s.MaxPlayers = 101 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := valid
			tc.mutate(&s)
			if err := ValidateSettings(s); !errors.Is(err, ErrInvalidSettings) {
				t.Fatalf("expected ErrInvalidSettings, got %v", err)
			}
		})
	}
}

func TestPaidCountAndFindMember(t *testing.T) {
	members := []Member{
		{UserID: "u1", Paid: true},
		{UserID: "u2"},
		{UserID: "u3", Paid: true},
	}
	if got := PaidCount(members); got != 2 {
		t.Fatalf("expected 2 paid, got %d", got)
	}
	if m, ok := FindMember(members, "u2"); !ok || m.Paid {
		t.Fatalf("unexpected lookup result: %+v %v", m, ok)
	}
	if _, ok := FindMember(members, "u9"); ok {
		t.Fatalf("expected missing member")
	}
}

func TestSeatsPayer(t *testing.T) {
	paid := []Member{
		{UserID: "u1", Paid: true},
		{UserID: "u2", Paid: true},
		{UserID: "u3"},
	}
	tests := []struct {
		name   string
		status Status
		max    int
		user   string
		want   bool
	}{
		{name: "open with seats", status: StatusOpen, max: 3, user: "u3", want: true},
		{name: "open at capacity", status: StatusOpen, max: 2, user: "u3", want: false},
		{name: "already paid at capacity", status: StatusOpen, max: 2, user: "u1", want: true},
		{name: "cancelled", status: StatusCancelled, max: 10, user: "u3", want: false},
		{name: "active", status: StatusActive, max: 10, user: "u3", want: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			l := League{Status: tc.status, MaxPlayers: tc.max}
			if got := SeatsPayer(l, paid, tc.user); got != tc.want {
				t.Fatalf("SeatsPayer = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestLateRefund(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	buyIn := transaction.Transaction{
		ID:       "tx-9",
		UserID:   "u3",
		Type:     transaction.TypeLeagueBuyIn,
		Amount:   decimal.NewFromInt(15000),
		Fee:      decimal.NewFromInt(450),
		LeagueID: "league-1",
	}

	refund := LateRefund(League{ID: "league-1", Name: "Los Pibes"}, buyIn, now)
	if refund.ID != "tx-9-refund" || refund.UserID != "u3" || refund.LeagueID != "league-1" {
		t.Fatalf("unexpected refund identity: %+v", refund)
	}
	if refund.Type != transaction.TypeLeagueRefund || refund.Status != transaction.StatusApproved {
		t.Fatalf("expected approved league refund, got %s %s", refund.Type, refund.Status)
	}
	if !refund.Amount.Equal(decimal.NewFromInt(15000)) || !refund.Fee.IsZero() {
		t.Fatalf("expected base buy-in refunded without fee, got amount=%s fee=%s", refund.Amount, refund.Fee)
	}
	if !strings.Contains(refund.Description, "Los Pibes") {
		t.Fatalf("unexpected description %q", refund.Description)
	}
}
