package usecase

import (
	"errors"
	"fmt"

	"github.com/riskibarqy/bilardeando/internal/domain/customleague"
	"github.com/riskibarqy/bilardeando/internal/domain/formation"
	"github.com/riskibarqy/bilardeando/internal/domain/squad"
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrConflict              = errors.New("conflict")
	ErrCapacity              = errors.New("capacity exceeded")
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)

// classifyDomainError tags a domain rule error with the usecase family it
// belongs to while keeping the original in the chain.
func classifyDomainError(err error) error {
	if err == nil {
		return nil
	}

	var family error
	switch {
	case errors.Is(err, squad.ErrNoSquad):
		family = ErrNotFound
	case errors.Is(err, squad.ErrAlreadyOwned):
		family = ErrConflict
	case errors.Is(err, squad.ErrSquadFull),
		errors.Is(err, squad.ErrStartersFull),
		errors.Is(err, squad.ErrBenchFull),
		errors.Is(err, squad.ErrFormationSlotFull),
		errors.Is(err, squad.ErrBenchOverflow):
		family = ErrCapacity
	case errors.Is(err, squad.ErrInsufficientBudget):
		family = ErrInsufficientFunds
	case errors.Is(err, squad.ErrNotOwned),
		errors.Is(err, squad.ErrPositionMismatch),
		errors.Is(err, squad.ErrNotStarter),
		errors.Is(err, squad.ErrFormationViolation),
		errors.Is(err, squad.ErrInvalidRole),
		errors.Is(err, formation.ErrInvalidFormation),
		errors.Is(err, customleague.ErrInvalidSettings):
		family = ErrInvalidInput
	case errors.Is(err, customleague.ErrMemberExists):
		family = ErrConflict
	case errors.Is(err, customleague.ErrNotFound):
		family = ErrNotFound
	default:
		return err
	}
	return fmt.Errorf("%w: %w", family, err)
}
