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

const transactionPaymentIDKey = "transactions_payment_id_key"

var transactionSelectColumns = []string{
	"id",
	"user_id",
	"type",
	"status",
	"amount",
	"fee",
	"description",
	"league_id",
	"tier_id",
	"preference_id",
	"payment_id",
	"created_at",
	"updated_at",
}

type TransactionRepository struct {
	db *sqlx.DB
}

func NewTransactionRepository(db *sqlx.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, tx transaction.Transaction) error {
	return insertTransaction(ctx, r.db, tx)
}

func insertTransaction(ctx context.Context, exec sqlx.ExecerContext, tx transaction.Transaction) error {
	now := time.Now().UTC()
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = now
	}
	if tx.UpdatedAt.IsZero() {
		tx.UpdatedAt = tx.CreatedAt
	}
	query, args, err := qb.InsertModel("transactions", newTransactionTableModel(tx), "")
	if err != nil {
		return fmt.Errorf("build insert transaction query: %w", err)
	}
	if _, err := exec.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err, transactionPaymentIDKey) {
			return fmt.Errorf("create transaction: payment id %s already attached: %w", tx.PaymentID, err)
		}
		return fmt.Errorf("insert transaction %s: %w", tx.ID, err)
	}
	return nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id string) (transaction.Transaction, bool, error) {
	return r.getOne(ctx, r.db, qb.Eq("id", id), false)
}

func (r *TransactionRepository) GetByPaymentID(ctx context.Context, paymentID string) (transaction.Transaction, bool, error) {
	if paymentID == "" {
		return transaction.Transaction{}, false, nil
	}
	return r.getOne(ctx, r.db, qb.Eq("payment_id", paymentID), false)
}

func (r *TransactionRepository) FindPending(ctx context.Context, userID string, t transaction.Type) (transaction.Transaction, bool, error) {
	query, args, err := qb.Select(transactionSelectColumns...).From("transactions").
		Where(
			qb.Eq("user_id", userID),
			qb.Eq("type", string(t)),
			qb.EqLiteral("status", string(transaction.StatusPending)),
		).
		OrderBy("created_at DESC", "id DESC").
		Limit(1).
		ToSQL()
	if err != nil {
		return transaction.Transaction{}, false, fmt.Errorf("build select pending transaction query: %w", err)
	}

	var row transactionTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return transaction.Transaction{}, false, nil
		}
		return transaction.Transaction{}, false, fmt.Errorf("get pending transaction: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *TransactionRepository) ListByUser(ctx context.Context, userID string, page transaction.Page) ([]transaction.Transaction, int, error) {
	page = page.Normalize()

	countQuery, countArgs, err := qb.Select("COUNT(*)").From("transactions").
		Where(qb.Eq("user_id", userID)).
		ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("build count transactions query: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	query, args, err := qb.Select(transactionSelectColumns...).From("transactions").
		Where(qb.Eq("user_id", userID)).
		OrderBy("created_at DESC", "id DESC").
		Limit(page.Size).
		Offset(page.Offset()).
		ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("build list transactions query: %w", err)
	}

	var rows []transactionTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}

	out := make([]transaction.Transaction, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, total, nil
}

func (r *TransactionRepository) SetPreference(ctx context.Context, id, preferenceID string) error {
	query, args, err := qb.Update("transactions").
		Set("preference_id", preferenceID).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update transaction preference query: %w", err)
	}
	return r.execOne(ctx, id, query, args)
}

func (r *TransactionRepository) AttachPaymentID(ctx context.Context, id, paymentID string) error {
	query, args, err := qb.Update("transactions").
		Set("payment_id", paymentID).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", id), qb.IsNull("payment_id")).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build attach payment id query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err, transactionPaymentIDKey) {
			return fmt.Errorf("attach payment: payment id %s already belongs to another transaction: %w", paymentID, err)
		}
		return fmt.Errorf("attach payment id: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("attach payment id rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	// Nothing updated: either the id is unknown or a payment is already attached.
	if _, ok, err := r.GetByID(ctx, id); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("%w: %s", transaction.ErrNotFound, id)
	}
	return nil
}

func (r *TransactionRepository) Settle(ctx context.Context, id string, status transaction.Status, effect transaction.Effect) (transaction.Transaction, bool, error) {
	var (
		out     transaction.Transaction
		applied bool
	)
	err := withTx(ctx, r.db, "transaction settle", func(tx *sqlx.Tx) error {
		current, ok, err := r.getOne(ctx, tx, qb.Eq("id", id), true)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s", transaction.ErrNotFound, id)
		}
		if current.Status != transaction.StatusPending {
			out = current
			return nil
		}

		now := time.Now().UTC()
		if status == transaction.StatusApproved {
			if err := applyApproval(ctx, tx, current, effect, now); err != nil {
				return fmt.Errorf("settle transaction %s: %w", id, err)
			}
		}

		if _, err := execNamed(ctx, tx, `
UPDATE transactions
SET status = :status,
    updated_at = :updated_at
WHERE id = :id`, map[string]any{
			"id":         id,
			"status":     string(status),
			"updated_at": now,
		}); err != nil {
			return fmt.Errorf("update transaction %s status: %w", id, err)
		}

		current.Status = status
		current.UpdatedAt = now
		out, applied = current, true
		return nil
	})
	if err != nil {
		return transaction.Transaction{}, false, err
	}
	return out, applied, nil
}

// applyApproval applies effect for an approved transaction. A buy-in for a
// league that can no longer seat the payer is credited back through a
// LEAGUE_REFUND instead of marking the member paid. The league row is locked
// before the user row, the same order league closing uses.
func applyApproval(ctx context.Context, tx *sqlx.Tx, current transaction.Transaction, effect transaction.Effect, now time.Time) error {
	if effect.PaidLeagueID == "" {
		return applyEffect(ctx, tx, current.UserID, effect, now)
	}

	league, ok, err := getLeague(ctx, tx, qb.Eq("id", effect.PaidLeagueID), true)
	if err != nil {
		return err
	}
	if !ok {
		league = customleague.League{ID: effect.PaidLeagueID}
	}
	members, err := listLeagueMembers(ctx, tx, league.ID, false)
	if err != nil {
		return err
	}

	if customleague.SeatsPayer(league, members, current.UserID) {
		return applyEffect(ctx, tx, current.UserID, effect, now)
	}

	refund := customleague.LateRefund(league, current, now)
	if err := insertTransaction(ctx, tx, refund); err != nil {
		return fmt.Errorf("refund late buy-in: %w", err)
	}
	effect.PaidLeagueID = ""
	effect.RealBalance = effect.RealBalance.Add(refund.Amount)
	return applyEffect(ctx, tx, current.UserID, effect, now)
}

func applyEffect(ctx context.Context, tx *sqlx.Tx, userID string, effect transaction.Effect, now time.Time) error {
	res, err := execNamed(ctx, tx, `
UPDATE users
SET real_balance = real_balance + :real_balance,
    virtual_budget = virtual_budget + :virtual_budget,
    ai_unlocked = ai_unlocked OR :unlock_ai,
    updated_at = :updated_at
WHERE id = :id`, map[string]any{
		"id":             userID,
		"real_balance":   effect.RealBalance,
		"virtual_budget": effect.VirtualBudget,
		"unlock_ai":      effect.UnlockAI,
		"updated_at":     now,
	})
	if err != nil {
		return fmt.Errorf("apply ledger effect: %w", err)
	}
	if affected, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("apply ledger effect rows affected: %w", err)
	} else if affected == 0 {
		return fmt.Errorf("user %s does not exist", userID)
	}

	if effect.PaidLeagueID == "" {
		return nil
	}
	if _, err := execNamed(ctx, tx, `
UPDATE private_league_members
SET paid = TRUE
WHERE league_id = :league_id
  AND user_id = :user_id`, map[string]any{
		"league_id": effect.PaidLeagueID,
		"user_id":   userID,
	}); err != nil {
		return fmt.Errorf("mark league %s paid: %w", effect.PaidLeagueID, err)
	}
	return nil
}

func (r *TransactionRepository) getOne(ctx context.Context, q sqlx.QueryerContext, cond qb.Condition, forUpdate bool) (transaction.Transaction, bool, error) {
	builder := qb.Select(transactionSelectColumns...).From("transactions").
		Where(cond).
		Limit(1)
	if forUpdate {
		builder = builder.Suffix("FOR UPDATE")
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return transaction.Transaction{}, false, fmt.Errorf("build select transaction query: %w", err)
	}

	var row transactionTableModel
	if err := sqlx.GetContext(ctx, q, &row, query, args...); err != nil {
		if isNotFound(err) {
			return transaction.Transaction{}, false, nil
		}
		return transaction.Transaction{}, false, fmt.Errorf("get transaction: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *TransactionRepository) execOne(ctx context.Context, id, query string, args []any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update transaction %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update transaction %s rows affected: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", transaction.ErrNotFound, id)
	}
	return nil
}
