package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/bilardeando/internal/domain/formation"
	"github.com/riskibarqy/bilardeando/internal/domain/player"
	"github.com/riskibarqy/bilardeando/internal/domain/squad"
	"github.com/riskibarqy/bilardeando/internal/domain/user"
	idgen "github.com/riskibarqy/bilardeando/internal/platform/id"
	"github.com/riskibarqy/bilardeando/internal/platform/logging"
	"github.com/shopspring/decimal"
)

type TransferAction string

const (
	TransferBuy  TransferAction = "buy"
	TransferSell TransferAction = "sell"
)

func ParseTransferAction(raw string) (TransferAction, bool) {
	switch TransferAction(strings.ToLower(strings.TrimSpace(raw))) {
	case TransferBuy:
		return TransferBuy, true
	case TransferSell:
		return TransferSell, true
	default:
		return "", false
	}
}

type BuyResult struct {
	Player          player.Player
	RemainingBudget decimal.Decimal
}

type SellResult struct {
	Sale            squad.Sale
	RemainingBudget decimal.Decimal
}

// TransferQuote is the price breakdown shown before a transfer is confirmed.
type TransferQuote struct {
	Action          TransferAction
	Player          player.Player
	Cost            decimal.Decimal
	Tax             decimal.Decimal
	Net             decimal.Decimal
	RemainingBudget decimal.Decimal
}

type TransferService struct {
	squadRepo  squad.Repository
	playerRepo player.Repository
	userRepo   user.Repository
	idGen      idgen.Generator
	logger     *logging.Logger
	now        func() time.Time
}

func NewTransferService(
	squadRepo squad.Repository,
	playerRepo player.Repository,
	userRepo user.Repository,
	idGen idgen.Generator,
	logger *logging.Logger,
) *TransferService {
	if logger == nil {
		logger = logging.Default()
	}

	return &TransferService{
		squadRepo:  squadRepo,
		playerRepo: playerRepo,
		userRepo:   userRepo,
		idGen:      idGen,
		logger:     logger,
		now:        time.Now,
	}
}

// Buy adds the player to the bench, creating a default squad first when the
// user has none yet.
func (s *TransferService) Buy(ctx context.Context, userID, playerID string) (BuyResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TransferService.Buy")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return BuyResult{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	p, err := lookupPlayer(ctx, s.playerRepo, playerID)
	if err != nil {
		return BuyResult{}, err
	}
	if _, _, err := ensureSquad(ctx, s.squadRepo, s.idGen, s.now, userID, formation.Default); err != nil {
		return BuyResult{}, err
	}

	now := s.now().UTC()
	roster, err := s.squadRepo.Mutate(ctx, userID, func(r *squad.Roster) error {
		return r.Add(p, false, now)
	})
	if err != nil {
		return BuyResult{}, classifyDomainError(fmt.Errorf("buy player: %w", err))
	}

	s.logger.InfoContext(ctx, "player bought",
		"user_id", userID,
		"player_id", p.ID,
		"price", p.Price.String(),
		"remaining_budget", roster.Budget.String(),
	)
	return BuyResult{Player: p, RemainingBudget: roster.Budget}, nil
}

// Sell removes the player and refunds its price minus the sell tax.
func (s *TransferService) Sell(ctx context.Context, userID, playerID string) (SellResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TransferService.Sell")
	defer span.End()

	userID = strings.TrimSpace(userID)
	playerID = strings.TrimSpace(playerID)
	if userID == "" || playerID == "" {
		return SellResult{}, fmt.Errorf("%w: user id and player id are required", ErrInvalidInput)
	}

	var sale squad.Sale
	roster, err := s.squadRepo.Mutate(ctx, userID, func(r *squad.Roster) error {
		var sellErr error
		sale, sellErr = r.Sell(playerID)
		return sellErr
	})
	if err != nil {
		return SellResult{}, classifyDomainError(fmt.Errorf("sell player: %w", err))
	}

	s.logger.InfoContext(ctx, "player sold",
		"user_id", userID,
		"player_id", sale.Player.ID,
		"refund", sale.Refund.String(),
		"tax", sale.Tax.String(),
	)
	return SellResult{Sale: sale, RemainingBudget: roster.Budget}, nil
}

func (s *TransferService) Quote(ctx context.Context, userID, playerID string, action TransferAction) (TransferQuote, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TransferService.Quote")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return TransferQuote{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if action != TransferBuy && action != TransferSell {
		return TransferQuote{}, fmt.Errorf("%w: action must be buy or sell", ErrInvalidInput)
	}

	p, err := lookupPlayer(ctx, s.playerRepo, playerID)
	if err != nil {
		return TransferQuote{}, err
	}
	acc, exists, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return TransferQuote{}, fmt.Errorf("get account: %w", err)
	}
	if !exists {
		return TransferQuote{}, fmt.Errorf("%w: account not found", ErrNotFound)
	}

	quote := TransferQuote{
		Action:          action,
		Player:          p,
		Cost:            p.Price,
		Tax:             decimal.Zero,
		Net:             p.Price,
		RemainingBudget: acc.VirtualBudget,
	}
	if action == TransferSell {
		owned, err := s.ownedMember(ctx, userID, p.ID)
		if err != nil {
			return TransferQuote{}, err
		}
		quote.Player = owned.Player
		quote.Cost = owned.Player.Price
		quote.Tax = owned.Player.Price.Mul(squad.SellTaxRate)
		quote.Net = owned.Player.Price.Sub(quote.Tax)
	}
	return quote, nil
}

// ownedMember finds playerID in the user's active squad; a sell quote is
// priced from the squad entry the same way Sell is.
func (s *TransferService) ownedMember(ctx context.Context, userID, playerID string) (squad.Member, error) {
	roster, exists, err := s.squadRepo.GetActiveByUser(ctx, userID)
	if err != nil {
		return squad.Member{}, fmt.Errorf("get squad: %w", err)
	}
	if !exists {
		return squad.Member{}, fmt.Errorf("%w: squad not found", ErrNotFound)
	}
	for _, m := range roster.Squad.Members {
		if m.Player.ID == playerID {
			return m, nil
		}
	}
	return squad.Member{}, classifyDomainError(fmt.Errorf("quote sell: %w: %s", squad.ErrNotOwned, playerID))
}
