package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/bilardeando/internal/domain/matchday"
	"github.com/riskibarqy/bilardeando/internal/domain/player"
	"github.com/riskibarqy/bilardeando/internal/domain/team"
	qb "github.com/riskibarqy/bilardeando/internal/platform/querybuilder"
)

var playerSelectColumns = []string{
	"p.id",
	"p.team_id",
	"t.name AS team_name",
	"p.name",
	"p.position",
	"p.price",
	"p.rating",
	"p.photo_url",
}

const playersFrom = "players p JOIN teams t ON t.id = p.team_id"

type PlayerRepository struct {
	db *sqlx.DB
}

func NewPlayerRepository(db *sqlx.DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

// List returns matching players, most expensive first.
func (r *PlayerRepository) List(ctx context.Context, filter player.Filter) ([]player.Player, error) {
	conditions := make([]qb.Condition, 0, 4)
	if filter.Position != "" {
		conditions = append(conditions, qb.Eq("p.position", string(filter.Position)))
	}
	if filter.TeamID != "" {
		conditions = append(conditions, qb.Eq("p.team_id", filter.TeamID))
	}
	if filter.MaxPrice != nil {
		conditions = append(conditions, qb.Lte("p.price", *filter.MaxPrice))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		conditions = append(conditions, qb.Contains("p.name", search))
	}

	query, args, err := qb.Select(playerSelectColumns...).From(playersFrom).
		Where(conditions...).
		OrderBy("p.price DESC", "p.name").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select players query: %w", err)
	}

	var rows []playerTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select players: %w", err)
	}
	return playersToDomain(rows), nil
}

func (r *PlayerRepository) GetByID(ctx context.Context, playerID string) (player.Player, bool, error) {
	query, args, err := qb.Select(playerSelectColumns...).From(playersFrom).
		Where(qb.Eq("p.id", playerID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return player.Player{}, false, fmt.Errorf("build select player by id query: %w", err)
	}

	var row playerTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return player.Player{}, false, nil
		}
		return player.Player{}, false, fmt.Errorf("get player: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *PlayerRepository) GetByIDs(ctx context.Context, playerIDs []string) ([]player.Player, error) {
	if len(playerIDs) == 0 {
		return []player.Player{}, nil
	}

	query, args, err := qb.Select(playerSelectColumns...).From(playersFrom).
		Where(qb.In("p.id", playerIDs)).
		OrderBy("p.id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select players by ids query: %w", err)
	}

	var rows []playerTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select players by ids: %w", err)
	}
	return playersToDomain(rows), nil
}

func playersToDomain(rows []playerTableModel) []player.Player {
	out := make([]player.Player, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out
}

var teamSelectColumns = []string{"id", "name", "short", "logo_url", "tier"}

type TeamRepository struct {
	db *sqlx.DB
}

func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) List(ctx context.Context) ([]team.Team, error) {
	query, args, err := qb.Select(teamSelectColumns...).From("teams").
		OrderBy("tier", "name").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select teams query: %w", err)
	}

	var rows []teamTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select teams: %w", err)
	}

	out := make([]team.Team, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *TeamRepository) GetByID(ctx context.Context, teamID string) (team.Team, bool, error) {
	query, args, err := qb.Select(teamSelectColumns...).From("teams").
		Where(qb.Eq("id", teamID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return team.Team{}, false, fmt.Errorf("build select team by id query: %w", err)
	}

	var row teamTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return team.Team{}, false, nil
		}
		return team.Team{}, false, fmt.Errorf("get team: %w", err)
	}
	return row.toDomain(), true, nil
}

var matchdaySelectColumns = []string{"id", "name", "status", "start_date"}

type MatchdayRepository struct {
	db *sqlx.DB
}

func NewMatchdayRepository(db *sqlx.DB) *MatchdayRepository {
	return &MatchdayRepository{db: db}
}

func (r *MatchdayRepository) List(ctx context.Context) ([]matchday.Matchday, error) {
	query, args, err := qb.Select(matchdaySelectColumns...).From("matchdays").
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select matchdays query: %w", err)
	}

	var rows []matchdayTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select matchdays: %w", err)
	}

	out := make([]matchday.Matchday, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *MatchdayRepository) GetByID(ctx context.Context, id int64) (matchday.Matchday, bool, error) {
	query, args, err := qb.Select(matchdaySelectColumns...).From("matchdays").
		Where(qb.Eq("id", id)).
		Limit(1).
		ToSQL()
	if err != nil {
		return matchday.Matchday{}, false, fmt.Errorf("build select matchday by id query: %w", err)
	}

	var row matchdayTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return matchday.Matchday{}, false, nil
		}
		return matchday.Matchday{}, false, fmt.Errorf("get matchday: %w", err)
	}
	return row.toDomain(), true, nil
}

// SetStatus moves a matchday forward, e.g. OPEN to LOCKED at kickoff.
func (r *MatchdayRepository) SetStatus(ctx context.Context, id int64, status matchday.Status) (bool, error) {
	query, args, err := qb.Update("matchdays").
		Set("status", string(status)).
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build update matchday status query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("update matchday status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("matchday status rows affected: %w", err)
	}
	return affected > 0, nil
}
