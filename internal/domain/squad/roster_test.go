package squad

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/riskibarqy/bilardeando/internal/domain/formation"
	"github.com/riskibarqy/bilardeando/internal/domain/player"
	"github.com/shopspring/decimal"
)

var testNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func testPlayer(id string, pos player.Position, rating float64, price string) player.Player {
	p := player.Player{
		ID:       id,
		TeamID:   "team-" + id,
		Name:     "Player " + id,
		Position: pos,
		Price:    decimal.RequireFromString(price),
	}
	if rating > 0 {
		r := rating
		p.Rating = &r
	}
	return p
}

func starter(p player.Player) Member { return Member{Player: p, IsStarter: true, AddedAt: testNow} }
func benched(p player.Player) Member { return Member{Player: p, AddedAt: testNow} }

// fullRoster is a valid 4-3-3 squad: 11 starters, 7 bench, captain m1, vice f1.
func fullRoster() Roster {
	members := []Member{
		starter(testPlayer("g1", player.PositionGoalkeeper, 7.0, "5")),
		starter(testPlayer("d1", player.PositionDefender, 7.0, "6")),
		starter(testPlayer("d2", player.PositionDefender, 6.0, "6")),
		starter(testPlayer("d3", player.PositionDefender, 5.5, "6")),
		starter(testPlayer("d4", player.PositionDefender, 8.0, "6")),
		starter(testPlayer("m1", player.PositionMidfielder, 7.0, "8")),
		starter(testPlayer("m2", player.PositionMidfielder, 6.0, "8")),
		starter(testPlayer("m3", player.PositionMidfielder, 6.5, "8")),
		starter(testPlayer("f1", player.PositionForward, 7.5, "10")),
		starter(testPlayer("f2", player.PositionForward, 6.1, "10")),
		starter(testPlayer("f3", player.PositionForward, 6.8, "10")),
		benched(testPlayer("g2", player.PositionGoalkeeper, 6.0, "4")),
		benched(testPlayer("d5", player.PositionDefender, 6.0, "4")),
		benched(testPlayer("d6", player.PositionDefender, 5.0, "4")),
		benched(testPlayer("m4", player.PositionMidfielder, 6.5, "4")),
		benched(testPlayer("m5", player.PositionMidfielder, 0, "4")),
		benched(testPlayer("m6", player.PositionMidfielder, 7.2, "4")),
		benched(testPlayer("f4", player.PositionForward, 6.0, "4")),
	}
	members[5].IsCaptain = true
	members[8].IsCaptainSub = true
	return Roster{
		Squad: Squad{
			ID:        "squad-1",
			UserID:    "user-1",
			Formation: formation.Default,
			Members:   members,
		},
		Budget: decimal.NewFromInt(10),
	}
}

func emptyRoster(budget int64) Roster {
	return Roster{
		Squad:  Squad{ID: "squad-1", UserID: "user-1", Formation: formation.Default},
		Budget: decimal.NewFromInt(budget),
	}
}

func memberOf(t *testing.T, r Roster, id string) Member {
	t.Helper()
	idx := r.Squad.indexOf(id)
	if idx < 0 {
		t.Fatalf("player %s not found in squad", id)
	}
	return r.Squad.Members[idx]
}

func TestRoster_AddGoalkeeperToBench(t *testing.T) {
	r := emptyRoster(150)
	gk := testPlayer("gk", player.PositionGoalkeeper, 6.0, "10")

	if err := r.Add(gk, false, testNow); err != nil {
		t.Fatalf("add goalkeeper: %v", err)
	}
	if !r.Budget.Equal(decimal.NewFromInt(140)) {
		t.Fatalf("expected remaining budget 140, got %s", r.Budget)
	}
	if memberOf(t, r, "gk").IsStarter {
		t.Fatalf("expected goalkeeper on the bench")
	}

	v := r.Validate()
	if v.Valid {
		t.Fatalf("expected invalid squad with zero starters")
	}
	if !slices.Contains(v.Errors, "need exactly 11 starters, have 0") {
		t.Fatalf("expected starter count error, got %v", v.Errors)
	}
}

func TestRoster_AddRejections(t *testing.T) {
	tests := []struct {
		name      string
		roster    func() Roster
		player    player.Player
		asStarter bool
		wantErr   error
	}{
		{
			name:    "already owned",
			roster:  fullRoster,
			player:  testPlayer("g1", player.PositionGoalkeeper, 7.0, "5"),
			wantErr: ErrAlreadyOwned,
		},
		{
			name:    "squad full",
			roster:  fullRoster,
			player:  testPlayer("new", player.PositionForward, 5.0, "1"),
			wantErr: ErrSquadFull,
		},
		{
			name: "starters full",
			roster: func() Roster {
				r := fullRoster()
				r.Squad.Members = r.Squad.Members[:11]
				return r
			},
			player:    testPlayer("new", player.PositionForward, 5.0, "1"),
			asStarter: true,
			wantErr:   ErrStartersFull,
		},
		{
			name: "formation slot full",
			roster: func() Roster {
				r := emptyRoster(150)
				r.Squad.Members = []Member{starter(testPlayer("g1", player.PositionGoalkeeper, 7.0, "5"))}
				return r
			},
			player:    testPlayer("g2", player.PositionGoalkeeper, 6.0, "5"),
			asStarter: true,
			wantErr:   ErrFormationSlotFull,
		},
		{
			name: "bench full",
			roster: func() Roster {
				r := fullRoster()
				r.Squad.Members = append(r.Squad.Members[:10:10], r.Squad.Members[11:]...)
				return r
			},
			player:  testPlayer("new", player.PositionForward, 5.0, "1"),
			wantErr: ErrBenchFull,
		},
		{
			name:    "insufficient budget",
			roster:  func() Roster { return emptyRoster(5) },
			player:  testPlayer("star", player.PositionForward, 9.0, "12.5"),
			wantErr: ErrInsufficientBudget,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := tc.roster()
			before := r.Clone()

			err := r.Add(tc.player, tc.asStarter, testNow)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			if len(r.Squad.Members) != len(before.Squad.Members) || !r.Budget.Equal(before.Budget) {
				t.Fatalf("roster changed on rejected add")
			}
		})
	}
}

func TestRoster_InsufficientBudgetMessageStatesAmounts(t *testing.T) {
	r := emptyRoster(5)
	err := r.Add(testPlayer("star", player.PositionForward, 9.0, "12.5"), false, testNow)
	if err == nil {
		t.Fatalf("expected error")
	}
	want := "insufficient budget: need 12.5M but have 5.0M"
	if err.Error() != want {
		t.Fatalf("unexpected message: got=%q want=%q", err.Error(), want)
	}
}

func TestRoster_SellAppliesTax(t *testing.T) {
	r := fullRoster()

	sale, err := r.Sell("f1")
	if err != nil {
		t.Fatalf("sell: %v", err)
	}
	if !sale.Refund.Equal(decimal.RequireFromString("9.0")) {
		t.Fatalf("expected refund 9.0, got %s", sale.Refund)
	}
	if !sale.Tax.Equal(decimal.RequireFromString("1.0")) {
		t.Fatalf("expected tax 1.0, got %s", sale.Tax)
	}
	if !r.Budget.Equal(decimal.NewFromInt(19)) {
		t.Fatalf("expected budget 19, got %s", r.Budget)
	}
	if r.Squad.Has("f1") {
		t.Fatalf("sold player still in squad")
	}

	if _, err := r.Sell("f1"); !errors.Is(err, ErrNotOwned) {
		t.Fatalf("expected ErrNotOwned on second sell, got %v", err)
	}
}

func TestRoster_BudgetConservationAcrossBuyAndRemove(t *testing.T) {
	r := emptyRoster(150)
	prices := []string{"10.3", "7.7", "4.1", "12.9"}
	for i, price := range prices {
		p := testPlayer(string(rune('a'+i)), player.PositionDefender, 5.0, price)
		if err := r.Add(p, false, testNow); err != nil {
			t.Fatalf("add %s: %v", p.ID, err)
		}
	}
	for i := range prices {
		if _, err := r.Remove(string(rune('a' + i))); err != nil {
			t.Fatalf("remove: %v", err)
		}
	}
	if !r.Budget.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("expected budget to return to exactly 150, got %s", r.Budget)
	}
}

func TestRoster_ChangeFormationDemotesLowestAndPromotesHighest(t *testing.T) {
	r := fullRoster()
	// d3 is the lowest rated defender; make it captain to check flags are cleared.
	idx := r.Squad.indexOf("d3")
	r.Squad.Members[idx].IsCaptain = true
	r.Squad.Members[r.Squad.indexOf("m1")].IsCaptain = false

	change, err := r.ChangeFormation("3-5-2")
	if err != nil {
		t.Fatalf("change formation: %v", err)
	}

	wantBench := []string{"Player d3", "Player f2"}
	wantPromoted := []string{"Player m6", "Player m4"}
	if !slices.Equal(change.MovedToBench, wantBench) {
		t.Fatalf("unexpected demotions: got=%v want=%v", change.MovedToBench, wantBench)
	}
	if !slices.Equal(change.PromotedToStarter, wantPromoted) {
		t.Fatalf("unexpected promotions: got=%v want=%v", change.PromotedToStarter, wantPromoted)
	}
	if r.Squad.Formation != "3-5-2" {
		t.Fatalf("expected formation 3-5-2, got %s", r.Squad.Formation)
	}
	if d3 := memberOf(t, r, "d3"); d3.IsStarter || d3.IsCaptain {
		t.Fatalf("demoted captain must be benched without flags: %+v", d3)
	}
	if len(r.Squad.Bench()) != MaxBench {
		t.Fatalf("expected bench size %d, got %d", MaxBench, len(r.Squad.Bench()))
	}

	counts := r.Squad.starterCountByPosition()
	f, _ := formation.Lookup("3-5-2")
	for _, pos := range player.OrderedPositions {
		if counts[pos] > f.SlotsFor(pos) {
			t.Fatalf("position %s over quota after formation change", pos)
		}
	}
}

func TestRoster_ChangeFormationBenchOverflowLeavesStateUnchanged(t *testing.T) {
	r := fullRoster()
	// No midfielders on the bench: switching to 3-5-2 demotes two and promotes none.
	for _, id := range []string{"m4", "m5", "m6"} {
		idx := r.Squad.indexOf(id)
		r.Squad.Members[idx].Player.Position = player.PositionForward
	}
	before := r.Clone()

	_, err := r.ChangeFormation("3-5-2")
	if !errors.Is(err, ErrBenchOverflow) {
		t.Fatalf("expected ErrBenchOverflow, got %v", err)
	}
	if r.Squad.Formation != before.Squad.Formation {
		t.Fatalf("formation changed on overflow")
	}
	for i := range r.Squad.Members {
		if r.Squad.Members[i] != before.Squad.Members[i] {
			t.Fatalf("member %s changed on overflow", r.Squad.Members[i].Player.ID)
		}
	}
}

func TestRoster_ChangeFormationInvalidCode(t *testing.T) {
	r := fullRoster()
	if _, err := r.ChangeFormation("2-2-6"); !errors.Is(err, formation.ErrInvalidFormation) {
		t.Fatalf("expected ErrInvalidFormation, got %v", err)
	}
}

func TestRoster_SetCaptain(t *testing.T) {
	r := fullRoster()

	if err := r.SetCaptain("g2", RoleCaptain); !errors.Is(err, ErrNotStarter) {
		t.Fatalf("expected ErrNotStarter, got %v", err)
	}
	if err := r.SetCaptain("zz", RoleCaptain); !errors.Is(err, ErrNotOwned) {
		t.Fatalf("expected ErrNotOwned, got %v", err)
	}

	if err := r.SetCaptain("d4", RoleCaptain); err != nil {
		t.Fatalf("set captain: %v", err)
	}
	summary := r.Summary()
	if summary.CaptainID != "d4" {
		t.Fatalf("expected captain d4, got %s", summary.CaptainID)
	}
	if memberOf(t, r, "m1").IsCaptain {
		t.Fatalf("previous captain still flagged")
	}

	// Taking the vice role from the captain drops the captaincy.
	if err := r.SetCaptain("d4", RoleCaptainSub); err != nil {
		t.Fatalf("set captain sub: %v", err)
	}
	d4 := memberOf(t, r, "d4")
	if d4.IsCaptain || !d4.IsCaptainSub {
		t.Fatalf("expected d4 to hold only the vice role: %+v", d4)
	}
	if memberOf(t, r, "f1").IsCaptainSub {
		t.Fatalf("previous captain sub still flagged")
	}
}

func TestRoster_Toggle(t *testing.T) {
	r := fullRoster()
	if _, err := r.Toggle("m1"); !errors.Is(err, ErrBenchFull) {
		t.Fatalf("expected ErrBenchFull, got %v", err)
	}

	if _, err := r.Sell("f4"); err != nil {
		t.Fatalf("sell: %v", err)
	}
	isStarter, err := r.Toggle("m1")
	if err != nil {
		t.Fatalf("toggle captain to bench: %v", err)
	}
	if isStarter {
		t.Fatalf("expected m1 on the bench")
	}
	if m1 := memberOf(t, r, "m1"); m1.IsCaptain {
		t.Fatalf("benched player kept captaincy")
	}

	if _, err := r.Toggle("d5"); !errors.Is(err, ErrFormationSlotFull) {
		t.Fatalf("expected ErrFormationSlotFull promoting a fifth defender, got %v", err)
	}
	isStarter, err = r.Toggle("m6")
	if err != nil || !isStarter {
		t.Fatalf("expected m6 promoted, got starter=%v err=%v", isStarter, err)
	}
	if _, err := r.Toggle("m4"); !errors.Is(err, ErrStartersFull) {
		t.Fatalf("expected ErrStartersFull, got %v", err)
	}
}

func TestRoster_Swap(t *testing.T) {
	t.Run("starters of different positions", func(t *testing.T) {
		r := fullRoster()
		if err := r.Swap("d1", "m1"); !errors.Is(err, ErrPositionMismatch) {
			t.Fatalf("expected ErrPositionMismatch, got %v", err)
		}
	})

	t.Run("starter to bench breaking formation", func(t *testing.T) {
		r := fullRoster()
		err := r.Swap("f1", "d5")
		if !errors.Is(err, ErrFormationViolation) {
			t.Fatalf("expected ErrFormationViolation, got %v", err)
		}
		want := "formation violation: swap would exceed DEF slots in 4-3-3"
		if err.Error() != want {
			t.Fatalf("unexpected message: got=%q want=%q", err.Error(), want)
		}
	})

	t.Run("captain swapped to bench loses flags", func(t *testing.T) {
		r := fullRoster()
		if err := r.Swap("m1", "m4"); err != nil {
			t.Fatalf("swap: %v", err)
		}
		m1 := memberOf(t, r, "m1")
		m4 := memberOf(t, r, "m4")
		if m1.IsStarter || m1.IsCaptain {
			t.Fatalf("expected m1 benched without captaincy: %+v", m1)
		}
		if !m4.IsStarter || m4.IsCaptain {
			t.Fatalf("expected m4 starter without inherited captaincy: %+v", m4)
		}
	})

	t.Run("same position starters keep their flags", func(t *testing.T) {
		r := fullRoster()
		if err := r.Swap("m1", "m2"); err != nil {
			t.Fatalf("swap: %v", err)
		}
		if !memberOf(t, r, "m1").IsCaptain {
			t.Fatalf("captain flag lost on starter swap")
		}
	})

	t.Run("not owned", func(t *testing.T) {
		r := fullRoster()
		if err := r.Swap("m1", "zz"); !errors.Is(err, ErrNotOwned) {
			t.Fatalf("expected ErrNotOwned, got %v", err)
		}
	})
}

func TestRoster_Validate(t *testing.T) {
	r := fullRoster()
	if v := r.Validate(); !v.Valid {
		t.Fatalf("expected valid squad, got %v", v.Errors)
	}

	r.Squad.Members[r.Squad.indexOf("m1")].IsStarter = false
	r.Budget = decimal.RequireFromString("-1.5")
	v := r.Validate()
	want := []string{
		"need exactly 11 starters, have 10",
		"need exactly 7 bench players, have 8",
		"4-3-3 requires 3 MID starters, have 2",
		"captain must be a starter",
		"budget exceeded by 1.5M",
	}
	if !slices.Equal(v.Errors, want) {
		t.Fatalf("unexpected validation errors:\ngot=%v\nwant=%v", v.Errors, want)
	}
}

func TestRoster_Summary(t *testing.T) {
	s := fullRoster().Summary()
	if s.PlayerCount != 18 || s.StarterCount != 11 || s.BenchCount != 7 {
		t.Fatalf("unexpected counts: %+v", s)
	}
	if !s.TotalValue.Equal(decimal.NewFromInt(111)) {
		t.Fatalf("expected total value 111, got %s", s.TotalValue)
	}
	if s.CaptainID != "m1" || s.CaptainSubID != "f1" {
		t.Fatalf("unexpected captaincy: %+v", s)
	}
}
