package squad

import (
	"fmt"

	"github.com/riskibarqy/bilardeando/internal/domain/formation"
	"github.com/riskibarqy/bilardeando/internal/domain/player"
)

// Validate runs every squad rule and collects all violations in a fixed order.
func (r Roster) Validate() Validation {
	var errs []string
	s := r.Squad

	f, formationOK := formation.Lookup(s.Formation)
	if !formationOK {
		errs = append(errs, fmt.Sprintf("formation %q is not valid", s.Formation))
	}

	starters := s.Starters()
	bench := s.Bench()
	if len(s.Members) > MaxSquadSize {
		errs = append(errs, fmt.Sprintf("squad has %d players, maximum is %d", len(s.Members), MaxSquadSize))
	}
	if len(starters) != MaxStarters {
		errs = append(errs, fmt.Sprintf("need exactly %d starters, have %d", MaxStarters, len(starters)))
	}
	if len(bench) != MaxBench {
		errs = append(errs, fmt.Sprintf("need exactly %d bench players, have %d", MaxBench, len(bench)))
	}

	if formationOK {
		counts := s.starterCountByPosition()
		for _, pos := range player.OrderedPositions {
			if counts[pos] != f.SlotsFor(pos) {
				errs = append(errs, fmt.Sprintf("%s requires %d %s starters, have %d", f.Code, f.SlotsFor(pos), pos, counts[pos]))
			}
		}
	}

	var captains, captainSubs []Member
	for _, m := range s.Members {
		if m.IsCaptain {
			captains = append(captains, m)
		}
		if m.IsCaptainSub {
			captainSubs = append(captainSubs, m)
		}
	}
	switch {
	case len(captains) != 1:
		errs = append(errs, "need exactly 1 captain")
	case !captains[0].IsStarter:
		errs = append(errs, "captain must be a starter")
	}
	switch {
	case len(captainSubs) != 1:
		errs = append(errs, "need exactly 1 captain substitute")
	case !captainSubs[0].IsStarter:
		errs = append(errs, "captain substitute must be a starter")
	}
	if len(captains) == 1 && len(captainSubs) == 1 && captains[0].Player.ID == captainSubs[0].Player.ID {
		errs = append(errs, "captain and captain substitute must be different players")
	}

	seen := make(map[string]struct{}, len(s.Members))
	for _, m := range s.Members {
		if _, dup := seen[m.Player.ID]; dup {
			errs = append(errs, "squad contains duplicate players")
			break
		}
		seen[m.Player.ID] = struct{}{}
	}

	if r.Budget.IsNegative() {
		errs = append(errs, fmt.Sprintf("budget exceeded by %sM", r.Budget.Abs().StringFixed(1)))
	}

	return Validation{Valid: len(errs) == 0, Errors: errs}
}
