package squad

import (
	"fmt"
	"sort"
	"time"

	"github.com/riskibarqy/bilardeando/internal/domain/formation"
	"github.com/riskibarqy/bilardeando/internal/domain/player"
)

// Every Roster mutation checks all of its preconditions before touching any
// field, so a returned error always leaves the roster unchanged.

func (r *Roster) formation() (formation.Formation, error) {
	f, ok := formation.Lookup(r.Squad.Formation)
	if !ok {
		return formation.Formation{}, fmt.Errorf("%w: squad formation %q", formation.ErrInvalidFormation, r.Squad.Formation)
	}
	return f, nil
}

// Add buys p into the squad and debits its price.
func (r *Roster) Add(p player.Player, asStarter bool, now time.Time) error {
	if r.Squad.Has(p.ID) {
		return fmt.Errorf("%w: %s", ErrAlreadyOwned, p.Name)
	}
	if len(r.Squad.Members) >= MaxSquadSize {
		return fmt.Errorf("%w: maximum %d players", ErrSquadFull, MaxSquadSize)
	}

	if asStarter {
		if len(r.Squad.Starters()) >= MaxStarters {
			return fmt.Errorf("%w: maximum %d starters", ErrStartersFull, MaxStarters)
		}
		f, err := r.formation()
		if err != nil {
			return err
		}
		quota := f.SlotsFor(p.Position)
		if quota == 0 {
			return fmt.Errorf("%w: %s has no starter slot in %s", ErrPositionMismatch, p.Position, f.Code)
		}
		if r.Squad.starterCountByPosition()[p.Position] >= quota {
			return fmt.Errorf("%w: no room for more %s starters in %s", ErrFormationSlotFull, p.Position, f.Code)
		}
	} else if len(r.Squad.Bench()) >= MaxBench {
		return fmt.Errorf("%w: maximum %d bench players", ErrBenchFull, MaxBench)
	}

	if r.Budget.LessThan(p.Price) {
		return fmt.Errorf("%w: need %sM but have %sM", ErrInsufficientBudget, p.Price.StringFixed(1), r.Budget.StringFixed(1))
	}

	r.Squad.Members = append(r.Squad.Members, Member{
		Player:    p,
		IsStarter: asStarter,
		AddedAt:   now,
	})
	r.Budget = r.Budget.Sub(p.Price)
	return nil
}

// Remove drops a player and credits back the full price.
func (r *Roster) Remove(playerID string) (Member, error) {
	idx := r.Squad.indexOf(playerID)
	if idx < 0 {
		return Member{}, fmt.Errorf("%w: %s", ErrNotOwned, playerID)
	}

	removed := r.Squad.Members[idx]
	r.Squad.Members = append(r.Squad.Members[:idx:idx], r.Squad.Members[idx+1:]...)
	r.Budget = r.Budget.Add(removed.Player.Price)
	return removed, nil
}

// Sell drops a player and credits back the price minus SellTaxRate.
func (r *Roster) Sell(playerID string) (Sale, error) {
	idx := r.Squad.indexOf(playerID)
	if idx < 0 {
		return Sale{}, fmt.Errorf("%w: %s", ErrNotOwned, playerID)
	}

	sold := r.Squad.Members[idx]
	tax := sold.Player.Price.Mul(SellTaxRate)
	refund := sold.Player.Price.Sub(tax)

	r.Squad.Members = append(r.Squad.Members[:idx:idx], r.Squad.Members[idx+1:]...)
	r.Budget = r.Budget.Add(refund)
	return Sale{
		Player:        sold.Player,
		OriginalPrice: sold.Player.Price,
		Refund:        refund,
		Tax:           tax,
	}, nil
}

// SetCaptain clears the role squad-wide and hands it to playerID.
// A player can't hold both roles: taking one drops the other.
func (r *Roster) SetCaptain(playerID string, role Role) error {
	if role != RoleCaptain && role != RoleCaptainSub {
		return fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	idx := r.Squad.indexOf(playerID)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrNotOwned, playerID)
	}
	if !r.Squad.Members[idx].IsStarter {
		return fmt.Errorf("%w: %s is on the bench", ErrNotStarter, r.Squad.Members[idx].Player.Name)
	}

	for i := range r.Squad.Members {
		switch role {
		case RoleCaptain:
			r.Squad.Members[i].IsCaptain = false
		case RoleCaptainSub:
			r.Squad.Members[i].IsCaptainSub = false
		}
	}

	target := &r.Squad.Members[idx]
	switch role {
	case RoleCaptain:
		target.IsCaptain = true
		target.IsCaptainSub = false
	case RoleCaptainSub:
		target.IsCaptainSub = true
		target.IsCaptain = false
	}
	return nil
}

// Toggle moves a starter to the bench or a bench player into the lineup.
// It reports whether the player ended up a starter.
func (r *Roster) Toggle(playerID string) (bool, error) {
	idx := r.Squad.indexOf(playerID)
	if idx < 0 {
		return false, fmt.Errorf("%w: %s", ErrNotOwned, playerID)
	}
	m := &r.Squad.Members[idx]

	if m.IsStarter {
		if len(r.Squad.Bench()) >= MaxBench {
			return false, fmt.Errorf("%w: maximum %d bench players", ErrBenchFull, MaxBench)
		}
		m.IsStarter = false
		m.clearCaptaincy()
		return false, nil
	}

	if len(r.Squad.Starters()) >= MaxStarters {
		return false, fmt.Errorf("%w: maximum %d starters", ErrStartersFull, MaxStarters)
	}
	f, err := r.formation()
	if err != nil {
		return false, err
	}
	if r.Squad.starterCountByPosition()[m.Player.Position] >= f.SlotsFor(m.Player.Position) {
		return false, fmt.Errorf("%w: no room for more %s starters in %s", ErrFormationSlotFull, m.Player.Position, f.Code)
	}
	m.IsStarter = true
	return true, nil
}

// Swap exchanges the starter status of two members. Captain flags stay with
// a player only if that player ends up a starter.
func (r *Roster) Swap(playerA, playerB string) error {
	ia := r.Squad.indexOf(playerA)
	ib := r.Squad.indexOf(playerB)
	if ia < 0 {
		return fmt.Errorf("%w: %s", ErrNotOwned, playerA)
	}
	if ib < 0 {
		return fmt.Errorf("%w: %s", ErrNotOwned, playerB)
	}
	a := r.Squad.Members[ia]
	b := r.Squad.Members[ib]

	if a.IsStarter && b.IsStarter && a.Player.Position != b.Player.Position {
		return fmt.Errorf("%w: cannot swap starters %s (%s) and %s (%s)",
			ErrPositionMismatch, a.Player.Name, a.Player.Position, b.Player.Name, b.Player.Position)
	}

	if a.IsStarter != b.IsStarter && a.Player.Position != b.Player.Position {
		starter, benched := a, b
		if !a.IsStarter {
			starter, benched = b, a
		}
		f, err := r.formation()
		if err != nil {
			return err
		}
		counts := r.Squad.starterCountByPosition()
		counts[starter.Player.Position]--
		counts[benched.Player.Position]++
		for _, pos := range player.OrderedPositions {
			if counts[pos] > f.SlotsFor(pos) {
				return fmt.Errorf("%w: swap would exceed %s slots in %s", ErrFormationViolation, pos, f.Code)
			}
		}
	}

	ma := &r.Squad.Members[ia]
	mb := &r.Squad.Members[ib]
	ma.IsStarter, mb.IsStarter = b.IsStarter, a.IsStarter
	if !ma.IsStarter {
		ma.clearCaptaincy()
	}
	if !mb.IsStarter {
		mb.clearCaptaincy()
	}
	return nil
}

// ChangeFormation switches to code, demoting the lowest-rated surplus
// starters and promoting the highest-rated bench players into deficits.
// Positions without enough bench cover stay short; Validate reports them.
func (r *Roster) ChangeFormation(code formation.Code) (FormationChange, error) {
	target, ok := formation.Lookup(code)
	if !ok {
		return FormationChange{}, fmt.Errorf("%w: %q", formation.ErrInvalidFormation, code)
	}

	counts := r.Squad.starterCountByPosition()
	var demote, promote []int
	for _, pos := range player.OrderedPositions {
		delta := counts[pos] - target.SlotsFor(pos)
		switch {
		case delta > 0:
			candidates := r.indexesAt(pos, true)
			sort.SliceStable(candidates, func(i, j int) bool {
				return r.Squad.Members[candidates[i]].Player.RatingOrZero() < r.Squad.Members[candidates[j]].Player.RatingOrZero()
			})
			demote = append(demote, candidates[:delta]...)
		case delta < 0:
			candidates := r.indexesAt(pos, false)
			sort.SliceStable(candidates, func(i, j int) bool {
				return r.Squad.Members[candidates[i]].Player.RatingOrZero() > r.Squad.Members[candidates[j]].Player.RatingOrZero()
			})
			n := min(-delta, len(candidates))
			promote = append(promote, candidates[:n]...)
		}
	}

	newBench := len(r.Squad.Bench()) + len(demote) - len(promote)
	if newBench > MaxBench {
		return FormationChange{}, fmt.Errorf("%w: no bench room to move %d player(s), sell bench players first", ErrBenchOverflow, len(demote))
	}

	change := FormationChange{
		Formation:         target.Code,
		MovedToBench:      make([]string, 0, len(demote)),
		PromotedToStarter: make([]string, 0, len(promote)),
	}
	for _, idx := range demote {
		m := &r.Squad.Members[idx]
		m.IsStarter = false
		m.clearCaptaincy()
		change.MovedToBench = append(change.MovedToBench, m.Player.Name)
	}
	for _, idx := range promote {
		m := &r.Squad.Members[idx]
		m.IsStarter = true
		change.PromotedToStarter = append(change.PromotedToStarter, m.Player.Name)
	}
	r.Squad.Formation = target.Code
	return change, nil
}

func (r *Roster) indexesAt(pos player.Position, starters bool) []int {
	out := make([]int, 0)
	for i, m := range r.Squad.Members {
		if m.Player.Position == pos && m.IsStarter == starters {
			out = append(out, i)
		}
	}
	return out
}

func (r Roster) Summary() Summary {
	out := Summary{
		SquadID:         r.Squad.ID,
		Formation:       r.Squad.Formation,
		PlayerCount:     len(r.Squad.Members),
		TotalValue:      r.Squad.TotalValue(),
		RemainingBudget: r.Budget,
	}
	for _, m := range r.Squad.Members {
		if m.IsStarter {
			out.StarterCount++
		} else {
			out.BenchCount++
		}
		if m.IsCaptain && out.CaptainID == "" {
			out.CaptainID = m.Player.ID
		}
		if m.IsCaptainSub && out.CaptainSubID == "" {
			out.CaptainSubID = m.Player.ID
		}
	}
	return out
}
