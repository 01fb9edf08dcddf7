package formation

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/riskibarqy/bilardeando/internal/domain/player"
)

var ErrInvalidFormation = errors.New("invalid formation")

// Code is a formation identifier such as "4-3-3" (DEF-MID-FWD, goalkeeper implied).
type Code string

const Default Code = "4-3-3"

// Slots holds the starter quota per position.
type Slots map[player.Position]int

// Formation is an immutable starter layout.
type Formation struct {
	Code  Code
	Slots Slots
}

var table = map[Code]Slots{
	"4-3-3": {player.PositionGoalkeeper: 1, player.PositionDefender: 4, player.PositionMidfielder: 3, player.PositionForward: 3},
	"4-4-2": {player.PositionGoalkeeper: 1, player.PositionDefender: 4, player.PositionMidfielder: 4, player.PositionForward: 2},
	"3-5-2": {player.PositionGoalkeeper: 1, player.PositionDefender: 3, player.PositionMidfielder: 5, player.PositionForward: 2},
	"3-4-3": {player.PositionGoalkeeper: 1, player.PositionDefender: 3, player.PositionMidfielder: 4, player.PositionForward: 3},
	"4-5-1": {player.PositionGoalkeeper: 1, player.PositionDefender: 4, player.PositionMidfielder: 5, player.PositionForward: 1},
	"5-3-2": {player.PositionGoalkeeper: 1, player.PositionDefender: 5, player.PositionMidfielder: 3, player.PositionForward: 2},
	"5-4-1": {player.PositionGoalkeeper: 1, player.PositionDefender: 5, player.PositionMidfielder: 4, player.PositionForward: 1},
}

// Lookup returns the formation for code, or false when the code is not supported.
func Lookup(code Code) (Formation, bool) {
	slots, ok := table[code]
	if !ok {
		return Formation{}, false
	}
	return Formation{Code: code, Slots: cloneSlots(slots)}, true
}

// Parse normalizes raw input and returns the matching formation.
func Parse(raw string) (Formation, error) {
	code := Code(strings.TrimSpace(raw))
	f, ok := Lookup(code)
	if !ok {
		return Formation{}, fmt.Errorf("%w: %q is not one of %s", ErrInvalidFormation, raw, strings.Join(codeStrings(), ", "))
	}
	return f, nil
}

func IsValid(code Code) bool {
	_, ok := table[code]
	return ok
}

// All lists every supported formation ordered by code.
func All() []Formation {
	out := make([]Formation, 0, len(table))
	for code, slots := range table {
		out = append(out, Formation{Code: code, Slots: cloneSlots(slots)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// SlotsFor returns the starter quota for position.
func (f Formation) SlotsFor(pos player.Position) int {
	return f.Slots[pos]
}

// Starters is the total number of starter slots, always 11.
func (f Formation) Starters() int {
	total := 0
	for _, n := range f.Slots {
		total += n
	}
	return total
}

func codeStrings() []string {
	out := make([]string, 0, len(table))
	for code := range table {
		out = append(out, string(code))
	}
	sort.Strings(out)
	return out
}

func cloneSlots(in Slots) Slots {
	out := make(Slots, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
