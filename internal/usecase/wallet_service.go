package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/bilardeando/internal/domain/payment"
	"github.com/riskibarqy/bilardeando/internal/domain/transaction"
	"github.com/riskibarqy/bilardeando/internal/domain/user"
	idgen "github.com/riskibarqy/bilardeando/internal/platform/id"
	"github.com/riskibarqy/bilardeando/internal/platform/logging"
	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc/pool"
)

const walletBackPath = "/wallet"

type WalletBalance struct {
	RealBalance   decimal.Decimal
	VirtualBudget decimal.Decimal
	AIUnlocked    bool
	FeeWaived     bool
}

type TransactionPage struct {
	Items      []transaction.Transaction
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

// WalletOverview is the wallet screen: balance plus the first history page.
type WalletOverview struct {
	Balance      WalletBalance
	Transactions TransactionPage
}

type BudgetTierOffer struct {
	Tiers     []transaction.BudgetTier
	FeeRate   decimal.Decimal
	FeeWaived bool
}

type LoadBalanceInput struct {
	UserID string
	Amount decimal.Decimal
}

type PurchaseBudgetInput struct {
	UserID string
	TierID string
}

// BudgetCheckout is a budget purchase checkout with the tier bought.
type BudgetCheckout struct {
	Checkout
	Tier transaction.BudgetTier
}

type WalletService struct {
	userRepo user.Repository
	txRepo   transaction.Repository
	checkout checkoutIssuer
	idGen    idgen.Generator
	logger   *logging.Logger
	now      func() time.Time
}

func NewWalletService(
	userRepo user.Repository,
	txRepo transaction.Repository,
	gateway payment.Gateway,
	publicURL string,
	idGen idgen.Generator,
	logger *logging.Logger,
) *WalletService {
	if logger == nil {
		logger = logging.Default()
	}

	return &WalletService{
		userRepo: userRepo,
		txRepo:   txRepo,
		checkout: newCheckoutIssuer(txRepo, gateway, publicURL, logger),
		idGen:    idGen,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *WalletService) GetBalance(ctx context.Context, userID string) (WalletBalance, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WalletService.GetBalance")
	defer span.End()

	acc, err := s.account(ctx, userID)
	if err != nil {
		return WalletBalance{}, err
	}
	return balanceOf(acc), nil
}

// Overview loads the balance and one page of history concurrently.
func (s *WalletService) Overview(ctx context.Context, userID string, page transaction.Page) (WalletOverview, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WalletService.Overview")
	defer span.End()

	var out WalletOverview
	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		balance, err := s.GetBalance(ctx, userID)
		if err != nil {
			return err
		}
		out.Balance = balance
		return nil
	})
	p.Go(func(ctx context.Context) error {
		txPage, err := s.ListTransactions(ctx, userID, page)
		if err != nil {
			return err
		}
		out.Transactions = txPage
		return nil
	})
	if err := p.Wait(); err != nil {
		return WalletOverview{}, err
	}
	return out, nil
}

func (s *WalletService) ListTransactions(ctx context.Context, userID string, page transaction.Page) (TransactionPage, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WalletService.ListTransactions")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return TransactionPage{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	page = page.Normalize()
	items, total, err := s.txRepo.ListByUser(ctx, userID, page)
	if err != nil {
		return TransactionPage{}, fmt.Errorf("list transactions: %w", err)
	}

	return TransactionPage{
		Items:      items,
		Total:      total,
		Page:       page.Number,
		PageSize:   page.Size,
		TotalPages: (total + page.Size - 1) / page.Size,
	}, nil
}

func (s *WalletService) ListBudgetTiers(ctx context.Context, userID string) (BudgetTierOffer, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WalletService.ListBudgetTiers")
	defer span.End()

	acc, err := s.account(ctx, userID)
	if err != nil {
		return BudgetTierOffer{}, err
	}

	offer := BudgetTierOffer{
		Tiers:     transaction.Tiers(),
		FeeRate:   transaction.FeeRate,
		FeeWaived: transaction.FeeWaived(acc.RealBalance),
	}
	if offer.FeeWaived {
		offer.FeeRate = decimal.Zero
	}
	return offer, nil
}

// LoadBalance starts a wallet top-up. The gateway charges amount plus the
// service fee; approval credits the amount only.
func (s *WalletService) LoadBalance(ctx context.Context, input LoadBalanceInput) (Checkout, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WalletService.LoadBalance")
	defer span.End()

	if !input.Amount.IsPositive() {
		return Checkout{}, fmt.Errorf("%w: amount must be greater than 0", ErrInvalidInput)
	}
	if input.Amount.GreaterThan(transaction.MaxWalletLoad) {
		return Checkout{}, fmt.Errorf("%w: amount must be at most %s", ErrInvalidInput, transaction.MaxWalletLoad)
	}

	acc, err := s.account(ctx, input.UserID)
	if err != nil {
		return Checkout{}, err
	}

	amount := input.Amount.Round(2)
	fee := transaction.ServiceFee(amount, acc.RealBalance)
	description := fmt.Sprintf("Wallet load $%s + fee $%s", amount.StringFixed(2), fee.StringFixed(2))
	if fee.IsZero() {
		description = fmt.Sprintf("Wallet load $%s (no fee)", amount.StringFixed(2))
	}

	tx, err := s.newTransaction(acc.ID, transaction.WalletLoad{}, amount, fee, description)
	if err != nil {
		return Checkout{}, err
	}

	out, err := s.checkout.issue(ctx, acc, tx, checkoutLink{
		title:       "Wallet load - Bilardeando",
		description: fmt.Sprintf("Load $%s to your wallet", amount.StringFixed(2)),
		backPath:    walletBackPath,
	})
	if err != nil {
		return Checkout{}, err
	}

	s.logger.InfoContext(ctx, "wallet load started",
		"user_id", acc.ID,
		"transaction_id", tx.ID,
		"amount", amount.String(),
		"fee", fee.String(),
	)
	return out, nil
}

func (s *WalletService) PurchaseBudget(ctx context.Context, input PurchaseBudgetInput) (BudgetCheckout, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WalletService.PurchaseBudget")
	defer span.End()

	tier, ok := transaction.TierByID(strings.TrimSpace(input.TierID))
	if !ok {
		return BudgetCheckout{}, fmt.Errorf("%w: unknown budget tier %q", ErrInvalidInput, input.TierID)
	}

	acc, err := s.account(ctx, input.UserID)
	if err != nil {
		return BudgetCheckout{}, err
	}

	fee := transaction.ServiceFee(tier.Price, acc.RealBalance)
	description := fmt.Sprintf("Budget purchase +%sM ($%s + $%s fee)", tier.VirtualAmount, tier.Price.StringFixed(2), fee.StringFixed(2))
	if fee.IsZero() {
		description = fmt.Sprintf("Budget purchase +%sM (no fee)", tier.VirtualAmount)
	}

	tx, err := s.newTransaction(acc.ID, transaction.BudgetPurchase{Tier: tier}, tier.Price, fee, description)
	if err != nil {
		return BudgetCheckout{}, err
	}
	tx.TierID = tier.ID

	out, err := s.checkout.issue(ctx, acc, tx, checkoutLink{
		title:       fmt.Sprintf("Budget +%sM - Bilardeando", tier.VirtualAmount),
		description: fmt.Sprintf("Buy %sM of virtual budget", tier.VirtualAmount),
		backPath:    walletBackPath,
	})
	if err != nil {
		return BudgetCheckout{}, err
	}

	s.logger.InfoContext(ctx, "budget purchase started",
		"user_id", acc.ID,
		"transaction_id", tx.ID,
		"tier_id", tier.ID,
	)
	return BudgetCheckout{Checkout: out, Tier: tier}, nil
}

// UnlockAI starts the flat-price AI premium purchase. A pending unlock is
// reused with a fresh payment link instead of opening a second one.
func (s *WalletService) UnlockAI(ctx context.Context, userID string) (Checkout, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WalletService.UnlockAI")
	defer span.End()

	acc, err := s.account(ctx, userID)
	if err != nil {
		return Checkout{}, err
	}
	if acc.AIUnlocked {
		return Checkout{}, fmt.Errorf("%w: AI premium is already unlocked", ErrConflict)
	}

	link := checkoutLink{
		title:       "AI Premium - Bilardeando",
		description: "Unlock the premium AI assistant",
		backPath:    walletBackPath,
	}

	pending, exists, err := s.txRepo.FindPending(ctx, acc.ID, transaction.TypeAIUnlock)
	if err != nil {
		return Checkout{}, fmt.Errorf("find pending ai unlock: %w", err)
	}
	if exists {
		s.logger.InfoContext(ctx, "reusing pending ai unlock", "user_id", acc.ID, "transaction_id", pending.ID)
		return s.checkout.relink(ctx, acc, pending, link)
	}

	tx, err := s.newTransaction(acc.ID, transaction.AIUnlock{}, transaction.AIUnlockPrice, decimal.Zero, "AI premium unlock")
	if err != nil {
		return Checkout{}, err
	}
	return s.checkout.issue(ctx, acc, tx, link)
}

func (s *WalletService) account(ctx context.Context, userID string) (user.Account, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return user.Account{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	acc, exists, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return user.Account{}, fmt.Errorf("get account: %w", err)
	}
	if !exists {
		return user.Account{}, fmt.Errorf("%w: account not found", ErrNotFound)
	}
	return acc, nil
}

func (s *WalletService) newTransaction(userID string, intent transaction.Intent, amount, fee decimal.Decimal, description string) (transaction.Transaction, error) {
	txID, err := s.idGen.NewID()
	if err != nil {
		return transaction.Transaction{}, fmt.Errorf("generate transaction id: %w", err)
	}

	now := s.now().UTC()
	return transaction.Transaction{
		ID:          txID,
		UserID:      userID,
		Type:        intent.Type(),
		Status:      transaction.StatusPending,
		Amount:      amount,
		Fee:         fee,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func balanceOf(acc user.Account) WalletBalance {
	return WalletBalance{
		RealBalance:   acc.RealBalance,
		VirtualBudget: acc.VirtualBudget,
		AIUnlocked:    acc.AIUnlocked,
		FeeWaived:     transaction.FeeWaived(acc.RealBalance),
	}
}
