package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/bilardeando/internal/domain/formation"
	"github.com/riskibarqy/bilardeando/internal/domain/player"
	"github.com/riskibarqy/bilardeando/internal/domain/squad"
	idgen "github.com/riskibarqy/bilardeando/internal/platform/id"
	"github.com/riskibarqy/bilardeando/internal/platform/logging"
)

// SquadView is the full squad read model: members plus derived summary and
// validation report.
type SquadView struct {
	Roster     squad.Roster
	Summary    squad.Summary
	Validation squad.Validation
}

type CreateSquadInput struct {
	UserID    string
	Formation string
}

type AddPlayerInput struct {
	UserID    string
	PlayerID  string
	AsStarter bool
}

type SetCaptainInput struct {
	UserID   string
	PlayerID string
	Role     string
}

type SwapPlayersInput struct {
	UserID  string
	PlayerA string
	PlayerB string
}

// RosterService runs the squad rules against the authoritative roster. Every
// mutation goes through squad.Repository.Mutate so budget and membership
// change together or not at all.
type RosterService struct {
	squadRepo  squad.Repository
	playerRepo player.Repository
	idGen      idgen.Generator
	logger     *logging.Logger
	now        func() time.Time
}

func NewRosterService(
	squadRepo squad.Repository,
	playerRepo player.Repository,
	idGen idgen.Generator,
	logger *logging.Logger,
) *RosterService {
	if logger == nil {
		logger = logging.Default()
	}

	return &RosterService{
		squadRepo:  squadRepo,
		playerRepo: playerRepo,
		idGen:      idGen,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *RosterService) GetSquad(ctx context.Context, userID string) (SquadView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RosterService.GetSquad")
	defer span.End()

	roster, err := s.loadRoster(ctx, userID)
	if err != nil {
		return SquadView{}, err
	}

	return SquadView{
		Roster:     roster,
		Summary:    roster.Summary(),
		Validation: roster.Validate(),
	}, nil
}

func (s *RosterService) GetSummary(ctx context.Context, userID string) (squad.Summary, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RosterService.GetSummary")
	defer span.End()

	roster, err := s.loadRoster(ctx, userID)
	if err != nil {
		return squad.Summary{}, err
	}
	return roster.Summary(), nil
}

func (s *RosterService) Validate(ctx context.Context, userID string) (squad.Validation, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RosterService.Validate")
	defer span.End()

	roster, err := s.loadRoster(ctx, userID)
	if err != nil {
		return squad.Validation{}, err
	}
	return roster.Validate(), nil
}

// CreateOrGet returns the user's squad, creating an empty one with the given
// formation (default 4-3-3) when missing. The formation of an existing squad
// is left untouched.
func (s *RosterService) CreateOrGet(ctx context.Context, input CreateSquadInput) (squad.Squad, bool, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RosterService.CreateOrGet")
	defer span.End()

	input.UserID = strings.TrimSpace(input.UserID)
	input.Formation = strings.TrimSpace(input.Formation)
	if input.UserID == "" {
		return squad.Squad{}, false, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	code := formation.Default
	if input.Formation != "" {
		f, err := formation.Parse(input.Formation)
		if err != nil {
			return squad.Squad{}, false, classifyDomainError(err)
		}
		code = f.Code
	}

	return ensureSquad(ctx, s.squadRepo, s.idGen, s.now, input.UserID, code)
}

func (s *RosterService) SetFormation(ctx context.Context, userID, code string) (squad.FormationChange, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RosterService.SetFormation")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return squad.FormationChange{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	f, err := formation.Parse(code)
	if err != nil {
		return squad.FormationChange{}, classifyDomainError(err)
	}

	var change squad.FormationChange
	_, err = s.squadRepo.Mutate(ctx, userID, func(r *squad.Roster) error {
		var mutateErr error
		change, mutateErr = r.ChangeFormation(f.Code)
		return mutateErr
	})
	if err != nil {
		return squad.FormationChange{}, s.mutationError(ctx, "set formation", userID, err)
	}

	s.logger.InfoContext(ctx, "squad formation changed",
		"user_id", userID,
		"formation", string(change.Formation),
		"moved_to_bench", len(change.MovedToBench),
		"promoted", len(change.PromotedToStarter),
	)
	return change, nil
}

func (s *RosterService) AddPlayer(ctx context.Context, input AddPlayerInput) (squad.Roster, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RosterService.AddPlayer")
	defer span.End()

	input.UserID = strings.TrimSpace(input.UserID)
	input.PlayerID = strings.TrimSpace(input.PlayerID)
	if input.UserID == "" {
		return squad.Roster{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	p, err := lookupPlayer(ctx, s.playerRepo, input.PlayerID)
	if err != nil {
		return squad.Roster{}, err
	}

	now := s.now().UTC()
	roster, err := s.squadRepo.Mutate(ctx, input.UserID, func(r *squad.Roster) error {
		return r.Add(p, input.AsStarter, now)
	})
	if err != nil {
		return squad.Roster{}, s.mutationError(ctx, "add player", input.UserID, err)
	}
	return roster, nil
}

func (s *RosterService) RemovePlayer(ctx context.Context, userID, playerID string) (squad.Roster, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RosterService.RemovePlayer")
	defer span.End()

	userID = strings.TrimSpace(userID)
	playerID = strings.TrimSpace(playerID)
	if userID == "" || playerID == "" {
		return squad.Roster{}, fmt.Errorf("%w: user id and player id are required", ErrInvalidInput)
	}

	roster, err := s.squadRepo.Mutate(ctx, userID, func(r *squad.Roster) error {
		_, removeErr := r.Remove(playerID)
		return removeErr
	})
	if err != nil {
		return squad.Roster{}, s.mutationError(ctx, "remove player", userID, err)
	}
	return roster, nil
}

func (s *RosterService) SetCaptain(ctx context.Context, input SetCaptainInput) (squad.Roster, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RosterService.SetCaptain")
	defer span.End()

	input.UserID = strings.TrimSpace(input.UserID)
	input.PlayerID = strings.TrimSpace(input.PlayerID)
	if input.UserID == "" || input.PlayerID == "" {
		return squad.Roster{}, fmt.Errorf("%w: user id and player id are required", ErrInvalidInput)
	}
	role, ok := squad.ParseRole(strings.TrimSpace(input.Role))
	if !ok {
		return squad.Roster{}, fmt.Errorf("%w: role must be captain or captainSub", ErrInvalidInput)
	}

	roster, err := s.squadRepo.Mutate(ctx, input.UserID, func(r *squad.Roster) error {
		return r.SetCaptain(input.PlayerID, role)
	})
	if err != nil {
		return squad.Roster{}, s.mutationError(ctx, "set captain", input.UserID, err)
	}
	return roster, nil
}

// ToggleStarter reports whether the player ended up in the starting lineup.
func (s *RosterService) ToggleStarter(ctx context.Context, userID, playerID string) (bool, squad.Roster, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RosterService.ToggleStarter")
	defer span.End()

	userID = strings.TrimSpace(userID)
	playerID = strings.TrimSpace(playerID)
	if userID == "" || playerID == "" {
		return false, squad.Roster{}, fmt.Errorf("%w: user id and player id are required", ErrInvalidInput)
	}

	var isStarter bool
	roster, err := s.squadRepo.Mutate(ctx, userID, func(r *squad.Roster) error {
		var toggleErr error
		isStarter, toggleErr = r.Toggle(playerID)
		return toggleErr
	})
	if err != nil {
		return false, squad.Roster{}, s.mutationError(ctx, "toggle starter", userID, err)
	}
	return isStarter, roster, nil
}

func (s *RosterService) Swap(ctx context.Context, input SwapPlayersInput) (squad.Roster, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RosterService.Swap")
	defer span.End()

	input.UserID = strings.TrimSpace(input.UserID)
	input.PlayerA = strings.TrimSpace(input.PlayerA)
	input.PlayerB = strings.TrimSpace(input.PlayerB)
	if input.UserID == "" || input.PlayerA == "" || input.PlayerB == "" {
		return squad.Roster{}, fmt.Errorf("%w: user id and both player ids are required", ErrInvalidInput)
	}
	if input.PlayerA == input.PlayerB {
		return squad.Roster{}, fmt.Errorf("%w: cannot swap a player with itself", ErrInvalidInput)
	}

	roster, err := s.squadRepo.Mutate(ctx, input.UserID, func(r *squad.Roster) error {
		return r.Swap(input.PlayerA, input.PlayerB)
	})
	if err != nil {
		return squad.Roster{}, s.mutationError(ctx, "swap players", input.UserID, err)
	}
	return roster, nil
}

func (s *RosterService) loadRoster(ctx context.Context, userID string) (squad.Roster, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return squad.Roster{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	roster, exists, err := s.squadRepo.GetActiveByUser(ctx, userID)
	if err != nil {
		return squad.Roster{}, fmt.Errorf("get active squad: %w", err)
	}
	if !exists {
		return squad.Roster{}, fmt.Errorf("%w: squad not found", ErrNotFound)
	}
	return roster, nil
}

func (s *RosterService) mutationError(ctx context.Context, op, userID string, err error) error {
	classified := classifyDomainError(err)
	if errors.Is(classified, ErrInvalidInput) || errors.Is(classified, ErrNotFound) ||
		errors.Is(classified, ErrConflict) || errors.Is(classified, ErrCapacity) ||
		errors.Is(classified, ErrInsufficientFunds) {
		return classified
	}

	s.logger.ErrorContext(ctx, "squad mutation failed", "op", op, "user_id", userID, "error", err)
	return fmt.Errorf("%s: %w", op, err)
}

func lookupPlayer(ctx context.Context, repo player.Repository, playerID string) (player.Player, error) {
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return player.Player{}, fmt.Errorf("%w: player id is required", ErrInvalidInput)
	}

	p, exists, err := repo.GetByID(ctx, playerID)
	if err != nil {
		return player.Player{}, fmt.Errorf("get player: %w", err)
	}
	if !exists {
		return player.Player{}, fmt.Errorf("%w: player %s not found", ErrNotFound, playerID)
	}
	return p, nil
}

func ensureSquad(
	ctx context.Context,
	repo squad.Repository,
	idGen idgen.Generator,
	now func() time.Time,
	userID string,
	code formation.Code,
) (squad.Squad, bool, error) {
	squadID, err := idGen.NewID()
	if err != nil {
		return squad.Squad{}, false, fmt.Errorf("generate squad id: %w", err)
	}

	ts := now().UTC()
	sq, created, err := repo.CreateIfMissing(ctx, squad.Squad{
		ID:        squadID,
		UserID:    userID,
		Formation: code,
		CreatedAt: ts,
		UpdatedAt: ts,
	})
	if err != nil {
		return squad.Squad{}, false, fmt.Errorf("create squad: %w", err)
	}
	return sq, created, nil
}
