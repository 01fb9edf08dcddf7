package player

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Position represents football position categories used in roster rules.
type Position string

const (
	PositionGoalkeeper Position = "GK"
	PositionDefender   Position = "DEF"
	PositionMidfielder Position = "MID"
	PositionForward    Position = "FWD"
)

var AllPositions = map[Position]struct{}{
	PositionGoalkeeper: {},
	PositionDefender:   {},
	PositionMidfielder: {},
	PositionForward:    {},
}

// OrderedPositions lists positions in pitch order, goalkeeper first.
var OrderedPositions = []Position{
	PositionGoalkeeper,
	PositionDefender,
	PositionMidfielder,
	PositionForward,
}

func ParsePosition(raw string) (Position, bool) {
	pos := Position(raw)
	_, ok := AllPositions[pos]
	return pos, ok
}

// Player is a catalog athlete that can be bought into a squad.
// Price is expressed in millions of virtual currency.
type Player struct {
	ID       string
	TeamID   string
	TeamName string
	Name     string
	Position Position
	Price    decimal.Decimal
	Rating   *float64
	PhotoURL string
}

// RatingOrZero treats an unrated player as rating 0.
func (p Player) RatingOrZero() float64 {
	if p.Rating == nil {
		return 0
	}
	return *p.Rating
}

func (p Player) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("player id is required")
	}
	if p.TeamID == "" {
		return fmt.Errorf("player team id is required")
	}
	if p.Name == "" {
		return fmt.Errorf("player name is required")
	}
	if _, ok := AllPositions[p.Position]; !ok {
		return fmt.Errorf("invalid player position: %s", p.Position)
	}
	if !p.Price.IsPositive() {
		return fmt.Errorf("player price must be greater than zero")
	}

	return nil
}
