package transaction

import "context"

type Repository interface {
	Create(ctx context.Context, tx Transaction) error
	GetByID(ctx context.Context, id string) (Transaction, bool, error)
	GetByPaymentID(ctx context.Context, paymentID string) (Transaction, bool, error)
	// FindPending returns the newest PENDING transaction of type t for the user.
	FindPending(ctx context.Context, userID string, t Type) (Transaction, bool, error)
	// ListByUser returns one page, newest first, plus the total count.
	ListByUser(ctx context.Context, userID string, page Page) ([]Transaction, int, error)
	SetPreference(ctx context.Context, id, preferenceID string) error
	// AttachPaymentID stores the gateway payment id unless one is already set.
	AttachPaymentID(ctx context.Context, id, paymentID string) error
	// Settle moves a PENDING transaction to status and, for APPROVED, applies
	// effect to the ledger in the same unit of work. A transaction that is no
	// longer PENDING is returned untouched with applied=false.
	Settle(ctx context.Context, id string, status Status, effect Effect) (tx Transaction, applied bool, err error)
}
