package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/riskibarqy/bilardeando/internal/domain/customleague"
	"github.com/riskibarqy/bilardeando/internal/domain/transaction"
)

type TransactionRepository struct {
	store *Store
}

func NewTransactionRepository(store *Store) *TransactionRepository {
	return &TransactionRepository{store: store}
}

func (r *TransactionRepository) Create(_ context.Context, tx transaction.Transaction) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.transactions[tx.ID]; ok {
		return fmt.Errorf("create transaction: id %s already exists", tx.ID)
	}
	if tx.PaymentID != "" {
		if _, ok := r.store.findByPaymentID(tx.PaymentID); ok {
			return fmt.Errorf("create transaction: payment id %s already attached", tx.PaymentID)
		}
	}
	r.store.insertTransaction(tx)
	return nil
}

func (r *TransactionRepository) GetByID(_ context.Context, id string) (transaction.Transaction, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	tx, ok := r.store.transactions[id]
	return tx, ok, nil
}

func (r *TransactionRepository) GetByPaymentID(_ context.Context, paymentID string) (transaction.Transaction, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	tx, ok := r.store.findByPaymentID(paymentID)
	return tx, ok, nil
}

func (r *TransactionRepository) FindPending(_ context.Context, userID string, t transaction.Type) (transaction.Transaction, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var (
		found transaction.Transaction
		ok    bool
	)
	for _, tx := range r.store.transactions {
		if tx.UserID != userID || tx.Type != t || tx.Status != transaction.StatusPending {
			continue
		}
		if !ok || tx.CreatedAt.After(found.CreatedAt) {
			found, ok = tx, true
		}
	}
	return found, ok, nil
}

func (r *TransactionRepository) ListByUser(_ context.Context, userID string, page transaction.Page) ([]transaction.Transaction, int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	page = page.Normalize()
	all := make([]transaction.Transaction, 0)
	for _, tx := range r.store.transactions {
		if tx.UserID == userID {
			all = append(all, tx)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := len(all)
	start := min(page.Offset(), total)
	end := min(start+page.Size, total)
	return append([]transaction.Transaction(nil), all[start:end]...), total, nil
}

func (r *TransactionRepository) SetPreference(_ context.Context, id, preferenceID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	tx, ok := r.store.transactions[id]
	if !ok {
		return fmt.Errorf("%w: %s", transaction.ErrNotFound, id)
	}
	tx.PreferenceID = preferenceID
	tx.UpdatedAt = r.store.timestamp()
	r.store.transactions[id] = tx
	return nil
}

func (r *TransactionRepository) AttachPaymentID(_ context.Context, id, paymentID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	tx, ok := r.store.transactions[id]
	if !ok {
		return fmt.Errorf("%w: %s", transaction.ErrNotFound, id)
	}
	if tx.PaymentID != "" {
		return nil
	}
	if other, taken := r.store.findByPaymentID(paymentID); taken && other.ID != id {
		return fmt.Errorf("attach payment: payment id %s already belongs to %s", paymentID, other.ID)
	}
	tx.PaymentID = paymentID
	tx.UpdatedAt = r.store.timestamp()
	r.store.transactions[id] = tx
	return nil
}

func (r *TransactionRepository) Settle(_ context.Context, id string, status transaction.Status, effect transaction.Effect) (transaction.Transaction, bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	tx, ok := r.store.transactions[id]
	if !ok {
		return transaction.Transaction{}, false, fmt.Errorf("%w: %s", transaction.ErrNotFound, id)
	}
	if tx.Status != transaction.StatusPending {
		return tx, false, nil
	}

	now := r.store.timestamp()
	if status == transaction.StatusApproved {
		acc, ok := r.store.users[tx.UserID]
		if !ok {
			return transaction.Transaction{}, false, fmt.Errorf("settle transaction %s: user %s does not exist", id, tx.UserID)
		}
		acc.RealBalance = acc.RealBalance.Add(effect.RealBalance)
		acc.VirtualBudget = acc.VirtualBudget.Add(effect.VirtualBudget)
		if effect.UnlockAI {
			acc.AIUnlocked = true
		}

		if effect.PaidLeagueID != "" {
			league, ok := r.store.leagues[effect.PaidLeagueID]
			if !ok {
				league = customleague.League{ID: effect.PaidLeagueID}
			}
			if customleague.SeatsPayer(league, r.store.members[league.ID], tx.UserID) {
				r.store.markPaid(league.ID, tx.UserID)
			} else {
				refund := customleague.LateRefund(league, tx, now)
				r.store.insertTransaction(refund)
				acc.RealBalance = acc.RealBalance.Add(refund.Amount)
			}
		}

		acc.UpdatedAt = now
		r.store.users[tx.UserID] = acc
	}

	tx.Status = status
	tx.UpdatedAt = now
	r.store.transactions[id] = tx
	return tx, true, nil
}

func (s *Store) insertTransaction(tx transaction.Transaction) {
	now := s.timestamp()
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = now
	}
	if tx.UpdatedAt.IsZero() {
		tx.UpdatedAt = tx.CreatedAt
	}
	s.transactions[tx.ID] = tx
}

func (s *Store) findByPaymentID(paymentID string) (transaction.Transaction, bool) {
	if paymentID == "" {
		return transaction.Transaction{}, false
	}
	for _, tx := range s.transactions {
		if tx.PaymentID == paymentID {
			return tx, true
		}
	}
	return transaction.Transaction{}, false
}

func (s *Store) markPaid(leagueID, userID string) {
	members := s.members[leagueID]
	for i := range members {
		if members[i].UserID == userID {
			members[i].Paid = true
			return
		}
	}
}
