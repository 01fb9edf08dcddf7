package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/riskibarqy/bilardeando/internal/domain/matchday"
	"github.com/riskibarqy/bilardeando/internal/domain/player"
	"github.com/riskibarqy/bilardeando/internal/domain/team"
	"github.com/shopspring/decimal"
)

type ListPlayersInput struct {
	Position string
	TeamID   string
	MaxPrice string
	Search   string
}

// PlayerService serves the read-only catalog: players, teams and matchdays.
type PlayerService struct {
	playerRepo   player.Repository
	teamRepo     team.Repository
	matchdayRepo matchday.Repository
}

func NewPlayerService(playerRepo player.Repository, teamRepo team.Repository, matchdayRepo matchday.Repository) *PlayerService {
	return &PlayerService{
		playerRepo:   playerRepo,
		teamRepo:     teamRepo,
		matchdayRepo: matchdayRepo,
	}
}

func (s *PlayerService) ListPlayers(ctx context.Context, input ListPlayersInput) ([]player.Player, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PlayerService.ListPlayers")
	defer span.End()

	filter := player.Filter{
		TeamID: strings.TrimSpace(input.TeamID),
		Search: strings.TrimSpace(input.Search),
	}
	if raw := strings.ToUpper(strings.TrimSpace(input.Position)); raw != "" {
		pos, ok := player.ParsePosition(raw)
		if !ok {
			return nil, fmt.Errorf("%w: position must be one of GK, DEF, MID, FWD", ErrInvalidInput)
		}
		filter.Position = pos
	}
	if raw := strings.TrimSpace(input.MaxPrice); raw != "" {
		maxPrice, err := decimal.NewFromString(raw)
		if err != nil || maxPrice.IsNegative() {
			return nil, fmt.Errorf("%w: max price must be a non-negative number", ErrInvalidInput)
		}
		filter.MaxPrice = &maxPrice
	}

	players, err := s.playerRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	return players, nil
}

func (s *PlayerService) GetPlayer(ctx context.Context, playerID string) (player.Player, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PlayerService.GetPlayer")
	defer span.End()

	return lookupPlayer(ctx, s.playerRepo, playerID)
}

func (s *PlayerService) ListTeams(ctx context.Context) ([]team.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PlayerService.ListTeams")
	defer span.End()

	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	return teams, nil
}

// ListMatchdays returns matchdays ordered by id.
func (s *PlayerService) ListMatchdays(ctx context.Context) ([]matchday.Matchday, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PlayerService.ListMatchdays")
	defer span.End()

	items, err := s.matchdayRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list matchdays: %w", err)
	}
	return items, nil
}
