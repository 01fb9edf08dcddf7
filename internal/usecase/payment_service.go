package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/riskibarqy/bilardeando/internal/domain/payment"
	"github.com/riskibarqy/bilardeando/internal/domain/transaction"
	"github.com/riskibarqy/bilardeando/internal/platform/logging"
)

// PaymentNotification is a gateway webhook reduced to what reconciliation
// needs.
type PaymentNotification struct {
	Topic     string
	PaymentID string
}

type ReconcileOutcome string

const (
	OutcomeApplied  ReconcileOutcome = "applied"
	OutcomeRejected ReconcileOutcome = "rejected"
	OutcomePending  ReconcileOutcome = "pending"
	OutcomeTerminal ReconcileOutcome = "already_settled"
	OutcomeIgnored  ReconcileOutcome = "ignored"
)

type ReconcileResult struct {
	TransactionID string
	Outcome       ReconcileOutcome
}

// PaymentService reconciles gateway outcomes into transaction settlements.
type PaymentService struct {
	txRepo  transaction.Repository
	gateway payment.Gateway
	logger  *logging.Logger
}

func NewPaymentService(txRepo transaction.Repository, gateway payment.Gateway, logger *logging.Logger) *PaymentService {
	if logger == nil {
		logger = logging.Default()
	}

	return &PaymentService{
		txRepo:  txRepo,
		gateway: gateway,
		logger:  logger,
	}
}

// HandleNotification processes a webhook. Only the "payment" topic is acted
// on; everything else is acknowledged untouched.
func (s *PaymentService) HandleNotification(ctx context.Context, n PaymentNotification) (ReconcileResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PaymentService.HandleNotification")
	defer span.End()

	if strings.TrimSpace(n.Topic) != "payment" {
		return ReconcileResult{Outcome: OutcomeIgnored}, nil
	}
	return s.Reconcile(ctx, n.PaymentID)
}

// Reconcile fetches the payment from the gateway and settles the matching
// transaction. Settling is conditional on PENDING, so replays are no-ops.
func (s *PaymentService) Reconcile(ctx context.Context, paymentID string) (ReconcileResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PaymentService.Reconcile")
	defer span.End()

	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return ReconcileResult{}, fmt.Errorf("%w: payment id is required", ErrInvalidInput)
	}
	if s.gateway == nil {
		return ReconcileResult{}, fmt.Errorf("%w: payment gateway is not configured", ErrDependencyUnavailable)
	}

	pay, err := s.gateway.GetPayment(ctx, paymentID)
	if errors.Is(err, payment.ErrPaymentNotFound) {
		return ReconcileResult{}, fmt.Errorf("%w: payment %s: %w", ErrNotFound, paymentID, err)
	}
	if err != nil {
		return ReconcileResult{}, fmt.Errorf("%w: get payment %s: %w", ErrDependencyUnavailable, paymentID, err)
	}

	tx, err := s.findTransaction(ctx, paymentID, pay.ExternalReference)
	if err != nil {
		return ReconcileResult{}, err
	}

	if tx.PaymentID == "" {
		if err := s.txRepo.AttachPaymentID(ctx, tx.ID, paymentID); err != nil {
			return ReconcileResult{}, fmt.Errorf("attach payment id: %w", err)
		}
		tx.PaymentID = paymentID
	}

	return s.settle(ctx, tx, pay.Status)
}

type MockCompletion struct {
	TransactionID string
	PaymentID     string
	Outcome       ReconcileOutcome
}

// CompleteMockPayment approves the transaction behind a mock gateway
// preference (mock_pref_<ts>_<externalReference>), as if the user paid.
func (s *PaymentService) CompleteMockPayment(ctx context.Context, preferenceID string) (MockCompletion, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PaymentService.CompleteMockPayment")
	defer span.End()

	ts, ref, ok := payment.ParseMockPreference(preferenceID)
	if !ok {
		return MockCompletion{}, fmt.Errorf("%w: malformed mock preference %q", ErrInvalidInput, preferenceID)
	}
	txID, ok := transaction.ParseExternalReference(ref)
	if !ok {
		return MockCompletion{}, fmt.Errorf("%w: malformed external reference %q", ErrInvalidInput, ref)
	}

	tx, exists, err := s.txRepo.GetByID(ctx, txID)
	if err != nil {
		return MockCompletion{}, fmt.Errorf("get transaction: %w", err)
	}
	if !exists {
		return MockCompletion{}, fmt.Errorf("%w: transaction %s", ErrNotFound, txID)
	}
	if tx.Status != transaction.StatusPending {
		return MockCompletion{TransactionID: tx.ID, PaymentID: tx.PaymentID, Outcome: OutcomeTerminal}, nil
	}

	paymentID := payment.MockPaymentID(ts, tx.ID)
	if err := s.txRepo.AttachPaymentID(ctx, tx.ID, paymentID); err != nil {
		return MockCompletion{}, fmt.Errorf("attach mock payment id: %w", err)
	}

	res, err := s.settle(ctx, tx, payment.StatusApproved)
	if err != nil {
		return MockCompletion{}, err
	}
	return MockCompletion{TransactionID: tx.ID, PaymentID: paymentID, Outcome: res.Outcome}, nil
}

func (s *PaymentService) findTransaction(ctx context.Context, paymentID, externalRef string) (transaction.Transaction, error) {
	tx, exists, err := s.txRepo.GetByPaymentID(ctx, paymentID)
	if err != nil {
		return transaction.Transaction{}, fmt.Errorf("get transaction by payment id: %w", err)
	}
	if exists {
		return tx, nil
	}

	txID, ok := transaction.ParseExternalReference(externalRef)
	if !ok {
		return transaction.Transaction{}, fmt.Errorf("%w: payment %s has no usable external reference", ErrNotFound, paymentID)
	}
	tx, exists, err = s.txRepo.GetByID(ctx, txID)
	if err != nil {
		return transaction.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	if !exists {
		return transaction.Transaction{}, fmt.Errorf("%w: transaction %s for payment %s", ErrNotFound, txID, paymentID)
	}
	return tx, nil
}

func (s *PaymentService) settle(ctx context.Context, tx transaction.Transaction, status payment.Status) (ReconcileResult, error) {
	result := ReconcileResult{TransactionID: tx.ID}
	if tx.Status.IsTerminal() {
		result.Outcome = OutcomeTerminal
		return result, nil
	}

	switch status {
	case payment.StatusApproved:
		intent, err := transaction.IntentOf(tx)
		if err != nil {
			return ReconcileResult{}, fmt.Errorf("resolve transaction intent: %w", err)
		}
		_, applied, err := s.txRepo.Settle(ctx, tx.ID, transaction.StatusApproved, intent.Approve(tx))
		if err != nil {
			return ReconcileResult{}, fmt.Errorf("approve transaction: %w", err)
		}
		result.Outcome = OutcomeApplied
		if !applied {
			result.Outcome = OutcomeTerminal
		}
	case payment.StatusRejected:
		_, applied, err := s.txRepo.Settle(ctx, tx.ID, transaction.StatusRejected, transaction.Effect{})
		if err != nil {
			return ReconcileResult{}, fmt.Errorf("reject transaction: %w", err)
		}
		result.Outcome = OutcomeRejected
		if !applied {
			result.Outcome = OutcomeTerminal
		}
	default:
		result.Outcome = OutcomePending
		return result, nil
	}

	s.logger.InfoContext(ctx, "transaction reconciled",
		"transaction_id", tx.ID,
		"type", string(tx.Type),
		"user_id", tx.UserID,
		"outcome", string(result.Outcome),
	)
	return result, nil
}

// IsReconcileNoise reports errors a webhook should acknowledge quietly.
func IsReconcileNoise(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidInput)
}
