package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/bilardeando/internal/domain/customleague"
	"github.com/riskibarqy/bilardeando/internal/domain/matchday"
	"github.com/riskibarqy/bilardeando/internal/domain/payment"
	"github.com/riskibarqy/bilardeando/internal/domain/prizepool"
	"github.com/riskibarqy/bilardeando/internal/domain/transaction"
	"github.com/riskibarqy/bilardeando/internal/domain/user"
	idgen "github.com/riskibarqy/bilardeando/internal/platform/id"
	"github.com/riskibarqy/bilardeando/internal/platform/logging"
	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc/pool"
)

const (
	inviteCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	inviteCodeAttempts = 5
	leaguesBackPath    = "/leagues"
)

// LeagueLockScheduler enqueues a delayed lock check for a league. It is
// optional; without it leagues are only closed by scheduler runs.
type LeagueLockScheduler interface {
	ScheduleLeagueLock(ctx context.Context, leagueID string, matchdayID int64, runAt time.Time) error
}

type CreatePrivateLeagueInput struct {
	UserID          string
	Name            string
	BuyIn           decimal.Decimal
	MaxPlayers      int
	StartMatchdayID int64
	EndMatchdayID   int64
}

type CreatedLeague struct {
	League customleague.League
	Pool   prizepool.Pool
}

// JoinResult is the buy-in checkout a new or unpaid member has to complete.
type JoinResult struct {
	League customleague.League
	Checkout
}

type LeagueSummary struct {
	League      customleague.League
	MemberCount int
	PaidCount   int
	IsCreator   bool
	IsMember    bool
	IsPaid      bool
}

// MyLeagues is the leagues screen: the caller's leagues plus the matchdays
// that can still start a new one.
type MyLeagues struct {
	Leagues   []LeagueSummary
	Matchdays []matchday.Matchday
}

type LeagueDetail struct {
	LeagueSummary
	Members []customleague.Member
	Pool    prizepool.Pool
}

type LockOutcome string

const (
	LockSkipped   LockOutcome = "skipped"
	LockActivated LockOutcome = "activated"
	LockCancelled LockOutcome = "cancelled"
)

type LockResult struct {
	LeagueID string
	Outcome  LockOutcome
	Refunded int
}

type PrivateLeagueService struct {
	leagueRepo   customleague.Repository
	matchdayRepo matchday.Repository
	userRepo     user.Repository
	checkout     checkoutIssuer
	scheduler    LeagueLockScheduler
	idGen        idgen.Generator
	logger       *logging.Logger
	now          func() time.Time
}

func NewPrivateLeagueService(
	leagueRepo customleague.Repository,
	matchdayRepo matchday.Repository,
	userRepo user.Repository,
	txRepo transaction.Repository,
	gateway payment.Gateway,
	publicURL string,
	scheduler LeagueLockScheduler,
	idGen idgen.Generator,
	logger *logging.Logger,
) *PrivateLeagueService {
	if logger == nil {
		logger = logging.Default()
	}

	return &PrivateLeagueService{
		leagueRepo:   leagueRepo,
		matchdayRepo: matchdayRepo,
		userRepo:     userRepo,
		checkout:     newCheckoutIssuer(txRepo, gateway, publicURL, logger),
		scheduler:    scheduler,
		idGen:        idGen,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *PrivateLeagueService) Create(ctx context.Context, input CreatePrivateLeagueInput) (CreatedLeague, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PrivateLeagueService.Create")
	defer span.End()

	input.UserID = strings.TrimSpace(input.UserID)
	input.Name = strings.TrimSpace(input.Name)
	if input.UserID == "" {
		return CreatedLeague{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if input.MaxPlayers == 0 {
		input.MaxPlayers = customleague.DefaultMaxPlayers
	}

	settings := customleague.Settings{
		Name:            input.Name,
		BuyIn:           input.BuyIn,
		MaxPlayers:      input.MaxPlayers,
		StartMatchdayID: input.StartMatchdayID,
		EndMatchdayID:   input.EndMatchdayID,
	}
	if err := customleague.ValidateSettings(settings); err != nil {
		return CreatedLeague{}, classifyDomainError(err)
	}

	start, err := s.matchday(ctx, input.StartMatchdayID)
	if err != nil {
		return CreatedLeague{}, err
	}
	if _, err := s.matchday(ctx, input.EndMatchdayID); err != nil {
		return CreatedLeague{}, err
	}
	if !start.IsOpen() {
		return CreatedLeague{}, fmt.Errorf("%w: start matchday %d is no longer open", ErrInvalidInput, start.ID)
	}

	leagueID, err := s.idGen.NewID()
	if err != nil {
		return CreatedLeague{}, fmt.Errorf("generate league id: %w", err)
	}

	now := s.now().UTC()
	league := customleague.League{
		ID:              leagueID,
		Name:            input.Name,
		Status:          customleague.StatusOpen,
		BuyIn:           input.BuyIn,
		MaxPlayers:      input.MaxPlayers,
		RakePercent:     customleague.DefaultRakePercent,
		CreatorID:       input.UserID,
		StartMatchdayID: input.StartMatchdayID,
		EndMatchdayID:   input.EndMatchdayID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	creator := customleague.Member{
		LeagueID: leagueID,
		UserID:   input.UserID,
		JoinedAt: now,
	}

	for attempt := 0; attempt < inviteCodeAttempts; attempt++ {
		code, err := generateInviteCode(customleague.InviteCodeLength)
		if err != nil {
			return CreatedLeague{}, err
		}
		league.InviteCode = code

		err = s.leagueRepo.Create(ctx, league, creator)
		if err == nil {
			s.logger.InfoContext(ctx, "private league created",
				"league_id", league.ID,
				"invite_code", league.InviteCode,
				"creator_id", league.CreatorID,
				"buy_in", league.BuyIn.String(),
			)
			s.scheduleLock(ctx, league, start)
			return CreatedLeague{
				League: league,
				Pool:   prizepool.Calculate(league.BuyIn, 0, league.RakePercent),
			}, nil
		}
		if !errors.Is(err, customleague.ErrDuplicateCode) {
			return CreatedLeague{}, fmt.Errorf("create private league: %w", err)
		}
	}

	return CreatedLeague{}, fmt.Errorf("%w: could not allocate a unique invite code", ErrConflict)
}

// Join enrolls the caller by invite code and returns the buy-in checkout.
// Capacity only counts members who already paid.
func (s *PrivateLeagueService) Join(ctx context.Context, userID, code string) (JoinResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PrivateLeagueService.Join")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return JoinResult{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	league, err := s.leagueByCode(ctx, code)
	if err != nil {
		return JoinResult{}, err
	}
	if league.Status != customleague.StatusOpen {
		return JoinResult{}, fmt.Errorf("%w: league is %s", ErrConflict, strings.ToLower(string(league.Status)))
	}

	acc, exists, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return JoinResult{}, fmt.Errorf("get account: %w", err)
	}
	if !exists {
		return JoinResult{}, fmt.Errorf("%w: account not found", ErrNotFound)
	}

	members, err := s.leagueRepo.ListMembers(ctx, league.ID)
	if err != nil {
		return JoinResult{}, fmt.Errorf("list league members: %w", err)
	}

	if member, ok := customleague.FindMember(members, userID); ok {
		if member.Paid {
			return JoinResult{}, fmt.Errorf("%w: already a paid member of this league", ErrConflict)
		}
		return s.issueBuyIn(ctx, acc, league)
	}

	if customleague.PaidCount(members) >= league.MaxPlayers {
		return JoinResult{}, fmt.Errorf("%w: league is full", ErrConflict)
	}

	err = s.leagueRepo.AddMember(ctx, customleague.Member{
		LeagueID: league.ID,
		UserID:   userID,
		JoinedAt: s.now().UTC(),
	})
	switch {
	case err == nil:
	case errors.Is(err, customleague.ErrMemberExists):
		// Concurrent join by the same user; the row is there unpaid.
	case errors.Is(err, customleague.ErrNotFound):
		return JoinResult{}, fmt.Errorf("%w: league not found", ErrNotFound)
	default:
		return JoinResult{}, fmt.Errorf("add league member: %w", err)
	}

	return s.issueBuyIn(ctx, acc, league)
}

func (s *PrivateLeagueService) ListMine(ctx context.Context, userID string) (MyLeagues, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PrivateLeagueService.ListMine")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return MyLeagues{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	var (
		leagues   []customleague.League
		matchdays []matchday.Matchday
	)
	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		items, err := s.leagueRepo.ListByUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("list leagues by user: %w", err)
		}
		leagues = items
		return nil
	})
	p.Go(func(ctx context.Context) error {
		items, err := s.matchdayRepo.List(ctx)
		if err != nil {
			return fmt.Errorf("list matchdays: %w", err)
		}
		matchdays = items
		return nil
	})
	if err := p.Wait(); err != nil {
		return MyLeagues{}, err
	}

	out := MyLeagues{
		Leagues:   make([]LeagueSummary, 0, len(leagues)),
		Matchdays: make([]matchday.Matchday, 0, len(matchdays)),
	}
	for _, md := range matchdays {
		if md.IsOpen() {
			out.Matchdays = append(out.Matchdays, md)
		}
	}
	for _, league := range leagues {
		members, err := s.leagueRepo.ListMembers(ctx, league.ID)
		if err != nil {
			return MyLeagues{}, fmt.Errorf("list members for league=%s: %w", league.ID, err)
		}
		out.Leagues = append(out.Leagues, summarize(league, members, userID))
	}
	return out, nil
}

func (s *PrivateLeagueService) GetByCode(ctx context.Context, userID, code string) (LeagueDetail, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PrivateLeagueService.GetByCode")
	defer span.End()

	league, err := s.leagueByCode(ctx, code)
	if err != nil {
		return LeagueDetail{}, err
	}
	members, err := s.leagueRepo.ListMembers(ctx, league.ID)
	if err != nil {
		return LeagueDetail{}, fmt.Errorf("list league members: %w", err)
	}

	summary := summarize(league, members, strings.TrimSpace(userID))
	return LeagueDetail{
		LeagueSummary: summary,
		Members:       members,
		Pool:          prizepool.Calculate(league.BuyIn, summary.PaidCount, league.RakePercent),
	}, nil
}

// CheckAutoCancel closes an OPEN league whose start matchday has locked:
// enough paid members activate it, otherwise it is cancelled and every paid
// member refunded in the same unit of work.
func (s *PrivateLeagueService) CheckAutoCancel(ctx context.Context, leagueID string) (LockResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PrivateLeagueService.CheckAutoCancel")
	defer span.End()

	leagueID = strings.TrimSpace(leagueID)
	if leagueID == "" {
		return LockResult{}, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}
	result := LockResult{LeagueID: leagueID, Outcome: LockSkipped}

	league, exists, err := s.leagueRepo.GetByID(ctx, leagueID)
	if err != nil {
		return LockResult{}, fmt.Errorf("get league: %w", err)
	}
	if !exists {
		return LockResult{}, fmt.Errorf("%w: league %s", ErrNotFound, leagueID)
	}
	if league.Status != customleague.StatusOpen {
		return result, nil
	}

	start, err := s.matchday(ctx, league.StartMatchdayID)
	if err != nil {
		return LockResult{}, err
	}
	if start.IsOpen() {
		return result, nil
	}

	now := s.now().UTC()
	closed, closure, err := s.leagueRepo.Close(ctx, leagueID, func(l customleague.League, members []customleague.Member) (customleague.Closure, error) {
		if customleague.PaidCount(members) >= customleague.MinPaidToActivate {
			return customleague.Closure{Status: customleague.StatusActive}, nil
		}

		refunds := make([]transaction.Transaction, 0, len(members))
		for _, m := range members {
			if !m.Paid {
				continue
			}
			txID, err := s.idGen.NewID()
			if err != nil {
				return customleague.Closure{}, fmt.Errorf("generate refund id: %w", err)
			}
			refunds = append(refunds, transaction.Transaction{
				ID:          txID,
				UserID:      m.UserID,
				Type:        transaction.TypeLeagueRefund,
				Status:      transaction.StatusApproved,
				Amount:      l.BuyIn,
				Fee:         decimal.Zero,
				Description: fmt.Sprintf("Refund: league %s cancelled", l.Name),
				LeagueID:    l.ID,
				CreatedAt:   now,
				UpdatedAt:   now,
			})
		}
		return customleague.Closure{Status: customleague.StatusCancelled, Refunds: refunds}, nil
	})
	if err != nil {
		return LockResult{}, fmt.Errorf("close league: %w", err)
	}

	switch closure.Status {
	case customleague.StatusActive:
		result.Outcome = LockActivated
	case customleague.StatusCancelled:
		result.Outcome = LockCancelled
		result.Refunded = len(closure.Refunds)
	default:
		return result, nil
	}

	s.logger.InfoContext(ctx, "private league locked",
		"league_id", closed.ID,
		"status", string(closed.Status),
		"refunds", result.Refunded,
	)
	return result, nil
}

func (s *PrivateLeagueService) issueBuyIn(ctx context.Context, acc user.Account, league customleague.League) (JoinResult, error) {
	txID, err := s.idGen.NewID()
	if err != nil {
		return JoinResult{}, fmt.Errorf("generate transaction id: %w", err)
	}

	now := s.now().UTC()
	tx := transaction.Transaction{
		ID:          txID,
		UserID:      acc.ID,
		Type:        transaction.TypeLeagueBuyIn,
		Status:      transaction.StatusPending,
		Amount:      league.BuyIn,
		Fee:         decimal.Zero,
		Description: fmt.Sprintf("Buy-in: %s", league.Name),
		LeagueID:    league.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	out, err := s.checkout.issue(ctx, acc, tx, checkoutLink{
		title:       fmt.Sprintf("Buy-in %s - Bilardeando", league.Name),
		description: fmt.Sprintf("Entry to private league %s", league.Name),
		backPath:    leaguesBackPath,
	})
	if err != nil {
		return JoinResult{}, err
	}

	s.logger.InfoContext(ctx, "league buy-in started",
		"league_id", league.ID,
		"user_id", acc.ID,
		"transaction_id", tx.ID,
	)
	return JoinResult{League: league, Checkout: out}, nil
}

func (s *PrivateLeagueService) scheduleLock(ctx context.Context, league customleague.League, start matchday.Matchday) {
	if s.scheduler == nil {
		return
	}
	runAt := start.StartDate
	if runAt.IsZero() {
		return
	}
	if err := s.scheduler.ScheduleLeagueLock(ctx, league.ID, start.ID, runAt); err != nil {
		s.logger.WarnContext(ctx, "schedule league lock failed",
			"league_id", league.ID,
			"matchday_id", start.ID,
			"error", err,
		)
	}
}

func (s *PrivateLeagueService) leagueByCode(ctx context.Context, code string) (customleague.League, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return customleague.League{}, fmt.Errorf("%w: invite code is required", ErrInvalidInput)
	}

	league, exists, err := s.leagueRepo.GetByInviteCode(ctx, code)
	if err != nil {
		return customleague.League{}, fmt.Errorf("get league by invite code: %w", err)
	}
	if !exists {
		return customleague.League{}, fmt.Errorf("%w: league not found", ErrNotFound)
	}
	return league, nil
}

func (s *PrivateLeagueService) matchday(ctx context.Context, id int64) (matchday.Matchday, error) {
	md, exists, err := s.matchdayRepo.GetByID(ctx, id)
	if err != nil {
		return matchday.Matchday{}, fmt.Errorf("get matchday: %w", err)
	}
	if !exists {
		return matchday.Matchday{}, fmt.Errorf("%w: matchday %d does not exist", ErrInvalidInput, id)
	}
	return md, nil
}

func summarize(league customleague.League, members []customleague.Member, userID string) LeagueSummary {
	out := LeagueSummary{
		League:      league,
		MemberCount: len(members),
		PaidCount:   customleague.PaidCount(members),
		IsCreator:   userID != "" && league.CreatorID == userID,
	}
	if m, ok := customleague.FindMember(members, userID); ok && userID != "" {
		out.IsMember = true
		out.IsPaid = m.Paid
	}
	return out
}

func generateInviteCode(length int) (string, error) {
	if length < 6 {
		length = 6
	}

	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes for invite code: %w", err)
	}

	out := make([]byte, length)
	for i, b := range buf {
		out[i] = inviteCodeAlphabet[int(b)%len(inviteCodeAlphabet)]
	}
	return string(out), nil
}
