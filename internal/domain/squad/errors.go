package squad

import "errors"

var (
	ErrNoSquad            = errors.New("user has no squad")
	ErrAlreadyOwned       = errors.New("player already in squad")
	ErrNotOwned           = errors.New("player not in squad")
	ErrSquadFull          = errors.New("squad is full")
	ErrStartersFull       = errors.New("starting lineup is full")
	ErrBenchFull          = errors.New("bench is full")
	ErrFormationSlotFull  = errors.New("no formation slot left for position")
	ErrPositionMismatch   = errors.New("players play different positions")
	ErrInsufficientBudget = errors.New("insufficient budget")
	ErrNotStarter         = errors.New("only a starter may be captain")
	ErrBenchOverflow      = errors.New("bench cannot take demoted starters")
	ErrFormationViolation = errors.New("formation violation")
	ErrInvalidRole        = errors.New("invalid captain role")
)
