package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/bilardeando/internal/domain/user"
	qb "github.com/riskibarqy/bilardeando/internal/platform/querybuilder"
)

var userSelectColumns = []string{
	"id",
	"name",
	"email",
	"virtual_budget",
	"real_balance",
	"ai_unlocked",
	"created_at",
	"updated_at",
}

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Ensure(ctx context.Context, acc user.Account) (user.Account, error) {
	now := time.Now().UTC()
	if acc.CreatedAt.IsZero() {
		acc.CreatedAt = now
	}
	model := userTableModel{
		ID:            acc.ID,
		Name:          acc.Name,
		Email:         acc.Email,
		VirtualBudget: acc.VirtualBudget,
		RealBalance:   acc.RealBalance,
		AIUnlocked:    acc.AIUnlocked,
		CreatedAt:     acc.CreatedAt,
		UpdatedAt:     now,
	}
	insertQuery, insertArgs, err := qb.InsertModel("users", model, "ON CONFLICT (id) DO NOTHING")
	if err != nil {
		return user.Account{}, fmt.Errorf("build insert user query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
		return user.Account{}, fmt.Errorf("insert user: %w", err)
	}

	stored, ok, err := r.GetByID(ctx, acc.ID)
	if err != nil {
		return user.Account{}, err
	}
	if !ok {
		return user.Account{}, fmt.Errorf("ensure user %s: row missing after insert", acc.ID)
	}
	return stored, nil
}

func (r *UserRepository) GetByID(ctx context.Context, userID string) (user.Account, bool, error) {
	query, args, err := qb.Select(userSelectColumns...).From("users").
		Where(qb.Eq("id", userID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return user.Account{}, false, fmt.Errorf("build select user by id query: %w", err)
	}

	var row userTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return user.Account{}, false, nil
		}
		return user.Account{}, false, fmt.Errorf("get user: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, userID string, update user.ProfileUpdate) (user.Account, bool, error) {
	builder := qb.Update("users").SetExpr("updated_at", "NOW()")
	if update.Name != nil {
		builder = builder.Set("name", *update.Name)
	}
	if update.Email != nil {
		builder = builder.Set("email", *update.Email)
	}
	query, args, err := builder.
		Where(qb.Eq("id", userID)).
		Suffix("RETURNING " + joinColumns(userSelectColumns)).
		ToSQL()
	if err != nil {
		return user.Account{}, false, fmt.Errorf("build update user profile query: %w", err)
	}

	var row userTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return user.Account{}, false, nil
		}
		return user.Account{}, false, fmt.Errorf("update user profile: %w", err)
	}
	return row.toDomain(), true, nil
}
