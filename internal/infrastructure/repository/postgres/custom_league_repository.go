package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/bilardeando/internal/domain/customleague"
	"github.com/riskibarqy/bilardeando/internal/domain/transaction"
	qb "github.com/riskibarqy/bilardeando/internal/platform/querybuilder"
)

const (
	leagueInviteCodeKey   = "private_leagues_invite_code_key"
	leagueMemberKey       = "private_league_members_pkey"
	leagueMemberLeagueKey = "private_league_members_league_id_fkey"
	leagueMembersFromJoin = "private_league_members m LEFT JOIN users u ON u.id = m.user_id"
)

var leagueSelectColumns = []string{
	"id",
	"name",
	"invite_code",
	"status",
	"buy_in",
	"max_players",
	"rake_percent",
	"creator_id",
	"start_matchday_id",
	"end_matchday_id",
	"created_at",
	"updated_at",
}

var leagueMemberSelectColumns = []string{
	"m.league_id",
	"m.user_id",
	"COALESCE(u.name, '') AS user_name",
	"m.paid",
	"m.joined_at",
}

type CustomLeagueRepository struct {
	db *sqlx.DB
}

func NewCustomLeagueRepository(db *sqlx.DB) *CustomLeagueRepository {
	return &CustomLeagueRepository{db: db}
}

func (r *CustomLeagueRepository) Create(ctx context.Context, league customleague.League, creator customleague.Member) error {
	now := time.Now().UTC()
	if league.CreatedAt.IsZero() {
		league.CreatedAt = now
	}
	league.UpdatedAt = now
	if creator.JoinedAt.IsZero() {
		creator.JoinedAt = now
	}
	creator.LeagueID = league.ID

	return withTx(ctx, r.db, "league create", func(tx *sqlx.Tx) error {
		query, args, err := qb.InsertModel("private_leagues", newPrivateLeagueTableModel(league), "")
		if err != nil {
			return fmt.Errorf("build insert league query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			if isUniqueViolation(err, leagueInviteCodeKey) {
				return fmt.Errorf("%w: %s", customleague.ErrDuplicateCode, league.InviteCode)
			}
			return fmt.Errorf("insert league %s: %w", league.ID, err)
		}
		return insertMember(ctx, tx, creator)
	})
}

func (r *CustomLeagueRepository) GetByID(ctx context.Context, leagueID string) (customleague.League, bool, error) {
	return getLeague(ctx, r.db, qb.Eq("id", leagueID), false)
}

func (r *CustomLeagueRepository) GetByInviteCode(ctx context.Context, code string) (customleague.League, bool, error) {
	return getLeague(ctx, r.db, qb.Eq("invite_code", code), false)
}

func (r *CustomLeagueRepository) ListByUser(ctx context.Context, userID string) ([]customleague.League, error) {
	query, args, err := qb.Select(leagueSelectColumns...).From("private_leagues").
		Where(qb.Expr(
			"(creator_id = ? OR id IN (SELECT league_id FROM private_league_members WHERE user_id = ?))",
			userID, userID,
		)).
		OrderBy("created_at DESC", "id DESC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select leagues by user query: %w", err)
	}
	return r.selectLeagues(ctx, query, args)
}

func (r *CustomLeagueRepository) ListOpen(ctx context.Context, startMatchdayID int64) ([]customleague.League, error) {
	conditions := []qb.Condition{qb.EqLiteral("status", string(customleague.StatusOpen))}
	if startMatchdayID > 0 {
		conditions = append(conditions, qb.Eq("start_matchday_id", startMatchdayID))
	}
	query, args, err := qb.Select(leagueSelectColumns...).From("private_leagues").
		Where(conditions...).
		OrderBy("created_at DESC", "id DESC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select open leagues query: %w", err)
	}
	return r.selectLeagues(ctx, query, args)
}

// ListMembers returns members in join order.
func (r *CustomLeagueRepository) ListMembers(ctx context.Context, leagueID string) ([]customleague.Member, error) {
	return listLeagueMembers(ctx, r.db, leagueID, false)
}

func (r *CustomLeagueRepository) AddMember(ctx context.Context, member customleague.Member) error {
	if member.JoinedAt.IsZero() {
		member.JoinedAt = time.Now().UTC()
	}
	return withTx(ctx, r.db, "league add member", func(tx *sqlx.Tx) error {
		return insertMember(ctx, tx, member)
	})
}

func (r *CustomLeagueRepository) Close(ctx context.Context, leagueID string, decide func(customleague.League, []customleague.Member) (customleague.Closure, error)) (customleague.League, customleague.Closure, error) {
	var (
		outLeague  customleague.League
		outClosure customleague.Closure
	)
	err := withTx(ctx, r.db, "league close", func(tx *sqlx.Tx) error {
		league, ok, err := getLeague(ctx, tx, qb.Eq("id", leagueID), true)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s", customleague.ErrNotFound, leagueID)
		}
		outLeague = league
		if league.Status != customleague.StatusOpen {
			return nil
		}

		members, err := listLeagueMembers(ctx, tx, leagueID, true)
		if err != nil {
			return err
		}
		closure, err := decide(league, members)
		if err != nil {
			return err
		}
		if closure.Status == "" || closure.Status == customleague.StatusOpen {
			return nil
		}

		now := time.Now().UTC()
		for _, refund := range closure.Refunds {
			refund.Status = transaction.StatusApproved
			if err := insertTransaction(ctx, tx, refund); err != nil {
				return fmt.Errorf("refund league %s: %w", leagueID, err)
			}
			if err := applyEffect(ctx, tx, refund.UserID, transaction.Effect{RealBalance: refund.Amount}, now); err != nil {
				return fmt.Errorf("refund league %s: %w", leagueID, err)
			}
		}

		if _, err := execNamed(ctx, tx, `
UPDATE private_leagues
SET status = :status,
    updated_at = :updated_at
WHERE id = :id`, map[string]any{
			"id":         leagueID,
			"status":     string(closure.Status),
			"updated_at": now,
		}); err != nil {
			return fmt.Errorf("update league %s status: %w", leagueID, err)
		}

		league.Status = closure.Status
		league.UpdatedAt = now
		outLeague, outClosure = league, closure
		return nil
	})
	if err != nil {
		return customleague.League{}, customleague.Closure{}, err
	}
	return outLeague, outClosure, nil
}

func (r *CustomLeagueRepository) selectLeagues(ctx context.Context, query string, args []any) ([]customleague.League, error) {
	var rows []privateLeagueTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select leagues: %w", err)
	}
	out := make([]customleague.League, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func insertMember(ctx context.Context, tx *sqlx.Tx, member customleague.Member) error {
	_, err := execNamed(ctx, tx, `
INSERT INTO private_league_members (league_id, user_id, paid, joined_at)
VALUES (:league_id, :user_id, :paid, :joined_at)`, map[string]any{
		"league_id": member.LeagueID,
		"user_id":   member.UserID,
		"paid":      member.Paid,
		"joined_at": member.JoinedAt,
	})
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err, leagueMemberKey):
		return fmt.Errorf("%w: user %s in league %s", customleague.ErrMemberExists, member.UserID, member.LeagueID)
	case isForeignKeyViolation(err, leagueMemberLeagueKey):
		return fmt.Errorf("%w: %s", customleague.ErrNotFound, member.LeagueID)
	default:
		return fmt.Errorf("insert league member: %w", err)
	}
}

func getLeague(ctx context.Context, q sqlx.QueryerContext, cond qb.Condition, forUpdate bool) (customleague.League, bool, error) {
	builder := qb.Select(leagueSelectColumns...).From("private_leagues").
		Where(cond).
		Limit(1)
	if forUpdate {
		builder = builder.Suffix("FOR UPDATE")
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return customleague.League{}, false, fmt.Errorf("build select league query: %w", err)
	}

	var row privateLeagueTableModel
	if err := sqlx.GetContext(ctx, q, &row, query, args...); err != nil {
		if isNotFound(err) {
			return customleague.League{}, false, nil
		}
		return customleague.League{}, false, fmt.Errorf("get league: %w", err)
	}
	return row.toDomain(), true, nil
}

func listLeagueMembers(ctx context.Context, q sqlx.QueryerContext, leagueID string, forUpdate bool) ([]customleague.Member, error) {
	builder := qb.Select(leagueMemberSelectColumns...).From(leagueMembersFromJoin).
		Where(qb.Eq("m.league_id", leagueID)).
		OrderBy("m.joined_at", "m.user_id")
	if forUpdate {
		builder = builder.Suffix("FOR UPDATE OF m")
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select league members query: %w", err)
	}

	var rows []leagueMemberTableModel
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select league members: %w", err)
	}
	out := make([]customleague.Member, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
