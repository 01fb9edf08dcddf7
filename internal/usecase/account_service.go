package usecase

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/riskibarqy/bilardeando/internal/domain/squad"
	"github.com/riskibarqy/bilardeando/internal/domain/user"
	"github.com/riskibarqy/bilardeando/internal/platform/logging"
	"github.com/shopspring/decimal"
)

const maxProfileNameLength = 80

type AccountService struct {
	userRepo user.Repository
	logger   *logging.Logger
	now      func() time.Time
}

func NewAccountService(userRepo user.Repository, logger *logging.Logger) *AccountService {
	if logger == nil {
		logger = logging.Default()
	}

	return &AccountService{
		userRepo: userRepo,
		logger:   logger,
		now:      time.Now,
	}
}

// Ensure provisions the local account for an authenticated principal on
// first sight, starting with the initial virtual budget and no real balance.
func (s *AccountService) Ensure(ctx context.Context, principal user.Principal) (user.Account, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AccountService.Ensure")
	defer span.End()

	principal.UserID = strings.TrimSpace(principal.UserID)
	if principal.UserID == "" {
		return user.Account{}, fmt.Errorf("%w: user id is required", ErrUnauthorized)
	}

	name := strings.TrimSpace(principal.Name)
	email := strings.TrimSpace(principal.Email)
	if name == "" && email != "" {
		name, _, _ = strings.Cut(email, "@")
	}

	now := s.now().UTC()
	acc, err := s.userRepo.Ensure(ctx, user.Account{
		ID:            principal.UserID,
		Name:          name,
		Email:         email,
		VirtualBudget: squad.InitialBudget,
		RealBalance:   decimal.Zero,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		return user.Account{}, fmt.Errorf("ensure account: %w", err)
	}

	return acc, nil
}

func (s *AccountService) Get(ctx context.Context, userID string) (user.Account, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AccountService.Get")
	defer span.End()

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

type UpdateProfileInput struct {
	UserID string
	Name   *string
	Email  *string
}

func (s *AccountService) UpdateProfile(ctx context.Context, input UpdateProfileInput) (user.Account, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AccountService.UpdateProfile")
	defer span.End()

	input.UserID = strings.TrimSpace(input.UserID)
	if input.UserID == "" {
		return user.Account{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	update := user.ProfileUpdate{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return user.Account{}, fmt.Errorf("%w: name must not be empty", ErrInvalidInput)
		}
		if len([]rune(name)) > maxProfileNameLength {
			return user.Account{}, fmt.Errorf("%w: name must be at most %d characters", ErrInvalidInput, maxProfileNameLength)
		}
		update.Name = &name
	}
	if input.Email != nil {
		email := strings.TrimSpace(*input.Email)
		if _, err := mail.ParseAddress(email); err != nil {
			return user.Account{}, fmt.Errorf("%w: invalid email address", ErrInvalidInput)
		}
		update.Email = &email
	}
	if update.IsEmpty() {
		return user.Account{}, fmt.Errorf("%w: at least one field is required", ErrInvalidInput)
	}

	acc, exists, err := s.userRepo.UpdateProfile(ctx, input.UserID, update)
	if err != nil {
		return user.Account{}, fmt.Errorf("update profile: %w", err)
	}
	if !exists {
		return user.Account{}, fmt.Errorf("%w: account not found", ErrNotFound)
	}

	s.logger.InfoContext(ctx, "profile updated", "user_id", acc.ID)
	return acc, nil
}
