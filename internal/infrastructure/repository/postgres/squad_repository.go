package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/bilardeando/internal/domain/squad"
	qb "github.com/riskibarqy/bilardeando/internal/platform/querybuilder"
	"github.com/shopspring/decimal"
)

var squadSelectColumns = []string{"id", "user_id", "formation", "created_at", "updated_at"}

var squadMemberSelectColumns = append(append([]string(nil), playerSelectColumns...),
	"sp.is_starter",
	"sp.is_captain",
	"sp.is_captain_sub",
	"sp.added_at",
)

const squadMembersFrom = "squad_players sp JOIN players p ON p.id = sp.player_id JOIN teams t ON t.id = p.team_id"

type SquadRepository struct {
	db *sqlx.DB
}

func NewSquadRepository(db *sqlx.DB) *SquadRepository {
	return &SquadRepository{db: db}
}

func (r *SquadRepository) GetActiveByUser(ctx context.Context, userID string) (squad.Roster, bool, error) {
	row, ok, err := getSquadByUser(ctx, r.db, userID, false)
	if err != nil || !ok {
		return squad.Roster{}, ok, err
	}
	members, err := listSquadMembers(ctx, r.db, row.ID)
	if err != nil {
		return squad.Roster{}, false, err
	}
	budget, ok, err := getVirtualBudget(ctx, r.db, userID, false)
	if err != nil {
		return squad.Roster{}, false, err
	}
	if !ok {
		return squad.Roster{}, false, fmt.Errorf("get squad: user %s does not exist", userID)
	}

	return squad.Roster{Squad: row.toDomain(members), Budget: budget}, true, nil
}

func (r *SquadRepository) CreateIfMissing(ctx context.Context, s squad.Squad) (squad.Squad, bool, error) {
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	model := squadTableModel{
		ID:        s.ID,
		UserID:    s.UserID,
		Formation: string(s.Formation),
		CreatedAt: s.CreatedAt,
		UpdatedAt: now,
	}
	query, args, err := qb.InsertModel("squads", model, "ON CONFLICT (user_id) DO NOTHING")
	if err != nil {
		return squad.Squad{}, false, fmt.Errorf("build insert squad query: %w", err)
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return squad.Squad{}, false, fmt.Errorf("insert squad: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return squad.Squad{}, false, fmt.Errorf("insert squad rows affected: %w", err)
	}
	if affected > 0 {
		s.UpdatedAt = now
		return s.Clone(), true, nil
	}

	roster, ok, err := r.GetActiveByUser(ctx, s.UserID)
	if err != nil {
		return squad.Squad{}, false, err
	}
	if !ok {
		return squad.Squad{}, false, fmt.Errorf("create squad: user %s squad vanished after conflict", s.UserID)
	}
	return roster.Squad, false, nil
}

func (r *SquadRepository) Mutate(ctx context.Context, userID string, fn func(r *squad.Roster) error) (squad.Roster, error) {
	var out squad.Roster
	err := withTx(ctx, r.db, "squad mutate", func(tx *sqlx.Tx) error {
		budget, ok, err := getVirtualBudget(ctx, tx, userID, true)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("mutate squad: user %s does not exist", userID)
		}
		row, ok, err := getSquadByUser(ctx, tx, userID, true)
		if err != nil {
			return err
		}
		if !ok {
			return squad.ErrNoSquad
		}
		members, err := listSquadMembers(ctx, tx, row.ID)
		if err != nil {
			return err
		}

		before := row.toDomain(members)
		roster := squad.Roster{Squad: before.Clone(), Budget: budget}
		if err := fn(&roster); err != nil {
			return err
		}

		if err := writeMemberDiff(ctx, tx, before, roster.Squad); err != nil {
			return err
		}

		now := time.Now().UTC()
		if _, err := execNamed(ctx, tx, `
UPDATE squads
SET formation = :formation,
    updated_at = :updated_at
WHERE id = :id`, map[string]any{
			"id":         row.ID,
			"formation":  string(roster.Squad.Formation),
			"updated_at": now,
		}); err != nil {
			return fmt.Errorf("update squad %s: %w", row.ID, err)
		}
		if _, err := execNamed(ctx, tx, `
UPDATE users
SET virtual_budget = :virtual_budget,
    updated_at = :updated_at
WHERE id = :id`, map[string]any{
			"id":             userID,
			"virtual_budget": roster.Budget,
			"updated_at":     now,
		}); err != nil {
			return fmt.Errorf("update budget of user %s: %w", userID, err)
		}

		roster.Squad.UpdatedAt = now
		out = roster.Clone()
		return nil
	})
	if err != nil {
		return squad.Roster{}, err
	}
	return out, nil
}

// writeMemberDiff deletes sold players and upserts every remaining member so
// that lineup flags follow the mutated roster.
func writeMemberDiff(ctx context.Context, tx *sqlx.Tx, before, after squad.Squad) error {
	for _, m := range before.Members {
		if after.Has(m.Player.ID) {
			continue
		}
		if _, err := execNamed(ctx, tx, `
DELETE FROM squad_players
WHERE squad_id = :squad_id
  AND player_id = :player_id`, map[string]any{
			"squad_id":  before.ID,
			"player_id": m.Player.ID,
		}); err != nil {
			return fmt.Errorf("delete squad player=%s: %w", m.Player.ID, err)
		}
	}

	const upsertMemberQuery = `
INSERT INTO squad_players (squad_id, player_id, is_starter, is_captain, is_captain_sub, added_at)
VALUES (:squad_id, :player_id, :is_starter, :is_captain, :is_captain_sub, :added_at)
ON CONFLICT (squad_id, player_id)
DO UPDATE SET
    is_starter = EXCLUDED.is_starter,
    is_captain = EXCLUDED.is_captain,
    is_captain_sub = EXCLUDED.is_captain_sub`

	for _, m := range after.Members {
		addedAt := m.AddedAt
		if addedAt.IsZero() {
			addedAt = time.Now().UTC()
		}
		if _, err := execNamed(ctx, tx, upsertMemberQuery, map[string]any{
			"squad_id":       after.ID,
			"player_id":      m.Player.ID,
			"is_starter":     m.IsStarter,
			"is_captain":     m.IsCaptain,
			"is_captain_sub": m.IsCaptainSub,
			"added_at":       addedAt,
		}); err != nil {
			return fmt.Errorf("upsert squad player=%s: %w", m.Player.ID, err)
		}
	}
	return nil
}

func getSquadByUser(ctx context.Context, q sqlx.QueryerContext, userID string, forUpdate bool) (squadTableModel, bool, error) {
	builder := qb.Select(squadSelectColumns...).From("squads").
		Where(qb.Eq("user_id", userID)).
		OrderBy("created_at DESC").
		Limit(1)
	if forUpdate {
		builder = builder.Suffix("FOR UPDATE")
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return squadTableModel{}, false, fmt.Errorf("build select squad by user query: %w", err)
	}

	var row squadTableModel
	if err := sqlx.GetContext(ctx, q, &row, query, args...); err != nil {
		if isNotFound(err) {
			return squadTableModel{}, false, nil
		}
		return squadTableModel{}, false, fmt.Errorf("get squad: %w", err)
	}
	return row, true, nil
}

func listSquadMembers(ctx context.Context, q sqlx.QueryerContext, squadID string) ([]squad.Member, error) {
	query, args, err := qb.Select(squadMemberSelectColumns...).From(squadMembersFrom).
		Where(qb.Eq("sp.squad_id", squadID)).
		OrderBy("sp.added_at", "p.id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select squad members query: %w", err)
	}

	var rows []squadPlayerRow
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select squad members: %w", err)
	}

	out := make([]squad.Member, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func getVirtualBudget(ctx context.Context, q sqlx.QueryerContext, userID string, forUpdate bool) (decimal.Decimal, bool, error) {
	builder := qb.Select("virtual_budget").From("users").
		Where(qb.Eq("id", userID))
	if forUpdate {
		builder = builder.Suffix("FOR UPDATE")
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("build select user budget query: %w", err)
	}

	var budget decimal.Decimal
	if err := sqlx.GetContext(ctx, q, &budget, query, args...); err != nil {
		if isNotFound(err) {
			return decimal.Zero, false, nil
		}
		return decimal.Zero, false, fmt.Errorf("get user budget: %w", err)
	}
	return budget, true, nil
}
