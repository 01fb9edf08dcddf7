package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/riskibarqy/bilardeando/internal/domain/payment"
	"github.com/riskibarqy/bilardeando/internal/domain/transaction"
	"github.com/riskibarqy/bilardeando/internal/domain/user"
	"github.com/riskibarqy/bilardeando/internal/platform/logging"
	"github.com/shopspring/decimal"
)

// Checkout is a pending transaction together with the hosted payment link
// the user has to complete.
type Checkout struct {
	Transaction  transaction.Transaction
	PreferenceID string
	InitPoint    string
	Amount       decimal.Decimal
	Fee          decimal.Decimal
	Total        decimal.Decimal
}

type checkoutLink struct {
	title       string
	description string
	// backPath is the app page the gateway returns to, e.g. "/wallet".
	backPath string
}

// checkoutIssuer stores PENDING transactions and obtains their payment link.
type checkoutIssuer struct {
	txRepo    transaction.Repository
	gateway   payment.Gateway
	publicURL string
	logger    *logging.Logger
}

func newCheckoutIssuer(txRepo transaction.Repository, gateway payment.Gateway, publicURL string, logger *logging.Logger) checkoutIssuer {
	return checkoutIssuer{
		txRepo:    txRepo,
		gateway:   gateway,
		publicURL: strings.TrimRight(strings.TrimSpace(publicURL), "/"),
		logger:    logger,
	}
}

// issue persists tx and requests its payment link. A gateway failure leaves
// the transaction PENDING for reconciliation.
func (c checkoutIssuer) issue(ctx context.Context, acc user.Account, tx transaction.Transaction, link checkoutLink) (Checkout, error) {
	if err := c.txRepo.Create(ctx, tx); err != nil {
		return Checkout{}, fmt.Errorf("create transaction: %w", err)
	}
	return c.relink(ctx, acc, tx, link)
}

// relink requests a fresh payment link for an already stored PENDING
// transaction.
func (c checkoutIssuer) relink(ctx context.Context, acc user.Account, tx transaction.Transaction, link checkoutLink) (Checkout, error) {
	if c.gateway == nil {
		return Checkout{}, fmt.Errorf("%w: payment gateway is not configured", ErrDependencyUnavailable)
	}

	res, err := c.gateway.CreatePaymentLink(ctx, payment.LinkRequest{
		Title:             link.title,
		Description:       link.description,
		Amount:            tx.Total(),
		ExternalReference: transaction.ExternalReference(tx),
		PayerEmail:        acc.Email,
		BackURLs:          c.backURLs(link.backPath),
	})
	if err != nil {
		c.logger.ErrorContext(ctx, "create payment link failed",
			"transaction_id", tx.ID,
			"type", string(tx.Type),
			"error", err,
		)
		return Checkout{}, fmt.Errorf("%w: create payment link: %w", ErrDependencyUnavailable, err)
	}

	if err := c.txRepo.SetPreference(ctx, tx.ID, res.PreferenceID); err != nil {
		return Checkout{}, fmt.Errorf("store payment preference: %w", err)
	}
	tx.PreferenceID = res.PreferenceID

	return Checkout{
		Transaction:  tx,
		PreferenceID: res.PreferenceID,
		InitPoint:    res.InitPoint,
		Amount:       tx.Amount,
		Fee:          tx.Fee,
		Total:        tx.Total(),
	}, nil
}

func (c checkoutIssuer) backURLs(path string) payment.BackURLs {
	base := c.publicURL + path
	return payment.BackURLs{
		Success: base + "?status=success",
		Failure: base + "?status=failure",
		Pending: base + "?status=pending",
	}
}
