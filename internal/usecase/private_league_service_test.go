package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/bilardeando/internal/domain/customleague"
	"github.com/riskibarqy/bilardeando/internal/domain/matchday"
	"github.com/riskibarqy/bilardeando/internal/domain/transaction"
	"github.com/riskibarqy/bilardeando/internal/infrastructure/repository/memory"
	"github.com/shopspring/decimal"
)

type scheduledLock struct {
	leagueID   string
	matchdayID int64
	runAt      time.Time
}

type recordingScheduler struct {
	mu    sync.Mutex
	calls []scheduledLock
	err   error
}

func (s *recordingScheduler) ScheduleLeagueLock(_ context.Context, leagueID string, matchdayID int64, runAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, scheduledLock{leagueID: leagueID, matchdayID: matchdayID, runAt: runAt})
	return s.err
}

// collidingLeagueRepository reports an invite code collision for the first
// collisions creates.
type collidingLeagueRepository struct {
	customleague.Repository
	collisions int
	attempts   int
}

func (r *collidingLeagueRepository) Create(ctx context.Context, league customleague.League, creator customleague.Member) error {
	r.attempts++
	if r.attempts <= r.collisions {
		return customleague.ErrDuplicateCode
	}
	return r.Repository.Create(ctx, league, creator)
}

type leagueFixture struct {
	walletFixture
	leagues   *memory.CustomLeagueRepository
	matchdays *memory.MatchdayRepository
	scheduler *recordingScheduler
	service   *PrivateLeagueService
}

func newLeagueFixture(t *testing.T) leagueFixture {
	t.Helper()
	wf := newWalletFixture(t)
	f := leagueFixture{
		walletFixture: wf,
		leagues:       memory.NewCustomLeagueRepository(wf.store),
		matchdays:     memory.NewMatchdayRepository(wf.store),
		scheduler:     &recordingScheduler{},
	}
	f.service = f.newService(f.leagues)
	return f
}

func (f leagueFixture) newService(repo customleague.Repository) *PrivateLeagueService {
	service := NewPrivateLeagueService(
		repo,
		f.matchdays,
		memory.NewUserRepository(f.store),
		memory.NewTransactionRepository(f.store),
		f.gateway,
		"https://app.test",
		f.scheduler,
		&sequenceIDGenerator{prefix: "lg"},
		nil,
	)
	service.now = func() time.Time { return testNow }
	return service
}

func defaultLeagueInput(userID string) CreatePrivateLeagueInput {
	return CreatePrivateLeagueInput{
		UserID:          userID,
		Name:            "Los del barrio",
		BuyIn:           decimal.NewFromInt(10000),
		MaxPlayers:      4,
		StartMatchdayID: 2,
		EndMatchdayID:   5,
	}
}

func (f leagueFixture) mustCreate(t *testing.T, userID string) customleague.League {
	t.Helper()
	created, err := f.service.Create(t.Context(), defaultLeagueInput(userID))
	if err != nil {
		t.Fatalf("create league: %v", err)
	}
	return created.League
}

// mustJoinAndPay joins through the invite code and completes the buy-in.
func (f leagueFixture) mustJoinAndPay(t *testing.T, league customleague.League, userID string) {
	t.Helper()
	res, err := f.service.Join(t.Context(), userID, league.InviteCode)
	if err != nil {
		t.Fatalf("join %s: %v", userID, err)
	}
	done, err := f.payments.CompleteMockPayment(t.Context(), res.PreferenceID)
	if err != nil {
		t.Fatalf("pay buy-in for %s: %v", userID, err)
	}
	if done.Outcome != OutcomeApplied {
		t.Fatalf("expected buy-in applied for %s, got %s", userID, done.Outcome)
	}
}

func (f leagueFixture) lockMatchday(t *testing.T, id int64) {
	t.Helper()
	ok, err := f.matchdays.SetStatus(t.Context(), id, matchday.StatusLocked)
	if err != nil || !ok {
		t.Fatalf("lock matchday %d: ok=%v err=%v", id, ok, err)
	}
}

func TestPrivateLeagueService_Create(t *testing.T) {
	f := newLeagueFixture(t)
	mustEnsureAccount(t, f.store, "user-1", "Diego")

	created, err := f.service.Create(t.Context(), defaultLeagueInput("user-1"))
	if err != nil {
		t.Fatalf("create league: %v", err)
	}
	league := created.League
	if league.Status != customleague.StatusOpen || len(league.InviteCode) != customleague.InviteCodeLength {
		t.Fatalf("unexpected league: %+v", league)
	}
	if !league.RakePercent.Equal(customleague.DefaultRakePercent) || league.CreatorID != "user-1" {
		t.Fatalf("unexpected league defaults: %+v", league)
	}
	if !created.Pool.TotalPool.IsZero() || len(created.Pool.Distribution) != 0 {
		t.Fatalf("expected empty pool on creation, got %+v", created.Pool)
	}

	members, err := f.leagues.ListMembers(t.Context(), league.ID)
	if err != nil {
		t.Fatalf("list members: %v", err)
	}
	if len(members) != 1 || members[0].UserID != "user-1" || members[0].Paid {
		t.Fatalf("expected unpaid creator membership, got %+v", members)
	}

	start, _, _ := f.matchdays.GetByID(t.Context(), 2)
	if len(f.scheduler.calls) != 1 {
		t.Fatalf("expected one scheduled lock, got %d", len(f.scheduler.calls))
	}
	if call := f.scheduler.calls[0]; call.leagueID != league.ID || call.matchdayID != 2 || !call.runAt.Equal(start.StartDate) {
		t.Fatalf("unexpected scheduled lock: %+v", call)
	}
}

func TestPrivateLeagueService_Create_SchedulerFailureIsNotFatal(t *testing.T) {
	f := newLeagueFixture(t)
	mustEnsureAccount(t, f.store, "user-1", "Diego")
	f.scheduler.err = errors.New("queue unavailable")

	if _, err := f.service.Create(t.Context(), defaultLeagueInput("user-1")); err != nil {
		t.Fatalf("expected league created despite scheduler failure, got %v", err)
	}
}

func TestPrivateLeagueService_Create_Validation(t *testing.T) {
	f := newLeagueFixture(t)
	mustEnsureAccount(t, f.store, "user-1", "Diego")

	tests := []struct {
		name   string
		mutate func(in *CreatePrivateLeagueInput)
	}{
		{name: "blank name", mutate: func(in *CreatePrivateLeagueInput) { in.Name = "   " }},
		{name: "buy-in below min", mutate: func(in *CreatePrivateLeagueInput) { in.BuyIn = decimal.NewFromInt(5000) }},
		{name: "buy-in off step", mutate: func(in *CreatePrivateLeagueInput) { in.BuyIn = decimal.NewFromInt(12000) }},
		{name: "start after end", mutate: func(in *CreatePrivateLeagueInput) { in.StartMatchdayID, in.EndMatchdayID = 5, 3 }},
		{name: "too few players", mutate: func(in *CreatePrivateLeagueInput) { in.MaxPlayers = 2 }},
		{name: "unknown end matchday", mutate: func(in *CreatePrivateLeagueInput) { in.EndMatchdayID = 99 }},
		{name: "start already played", mutate: func(in *CreatePrivateLeagueInput) { in.StartMatchdayID = 1 }},
		{name: "missing user", mutate: func(in *CreatePrivateLeagueInput) { in.UserID = "" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			input := defaultLeagueInput("user-1")
			tc.mutate(&input)
			if _, err := f.service.Create(t.Context(), input); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestPrivateLeagueService_Create_RetriesInviteCodeCollisions(t *testing.T) {
	f := newLeagueFixture(t)
	mustEnsureAccount(t, f.store, "user-1", "Diego")

	repo := &collidingLeagueRepository{Repository: f.leagues, collisions: 2}
	if _, err := f.newService(repo).Create(t.Context(), defaultLeagueInput("user-1")); err != nil {
		t.Fatalf("expected create to succeed after collisions, got %v", err)
	}
	if repo.attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", repo.attempts)
	}

	exhausted := &collidingLeagueRepository{Repository: f.leagues, collisions: inviteCodeAttempts}
	if _, err := f.newService(exhausted).Create(t.Context(), defaultLeagueInput("user-1")); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict after exhausting attempts, got %v", err)
	}
}

func TestPrivateLeagueService_Join(t *testing.T) {
	f := newLeagueFixture(t)
	for _, id := range []string{"user-1", "user-2", "user-3", "user-4", "user-5"} {
		mustEnsureAccount(t, f.store, id, id)
	}
	league := f.mustCreate(t, "user-1")

	res, err := f.service.Join(t.Context(), "user-2", " "+strings.ToLower(league.InviteCode)+" ")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if !res.Amount.Equal(league.BuyIn) || !res.Fee.IsZero() || res.Transaction.LeagueID != league.ID {
		t.Fatalf("unexpected buy-in checkout: %+v", res.Checkout)
	}
	if link := f.gateway.lastLink(t); link.BackURLs.Success != "https://app.test/leagues?status=success" {
		t.Fatalf("unexpected back url %q", link.BackURLs.Success)
	}

	// An unpaid member gets a fresh checkout instead of a conflict.
	again, err := f.service.Join(t.Context(), "user-2", league.InviteCode)
	if err != nil {
		t.Fatalf("rejoin unpaid: %v", err)
	}
	if again.Transaction.ID == res.Transaction.ID {
		t.Fatalf("expected a new buy-in transaction")
	}

	if _, err := f.payments.CompleteMockPayment(t.Context(), again.PreferenceID); err != nil {
		t.Fatalf("pay buy-in: %v", err)
	}
	if _, err := f.service.Join(t.Context(), "user-2", league.InviteCode); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for paid member, got %v", err)
	}

	for _, id := range []string{"user-1", "user-3", "user-4"} {
		f.mustJoinAndPay(t, league, id)
	}
	if _, err := f.service.Join(t.Context(), "user-5", league.InviteCode); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for full league, got %v", err)
	}

	if _, err := f.service.Join(t.Context(), "user-5", "NOPE1234"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown code, got %v", err)
	}
	if _, err := f.service.Join(t.Context(), "ghost", league.InviteCode); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown account, got %v", err)
	}
}

func TestPrivateLeagueService_CheckAutoCancel_RefundsBelowMinimum(t *testing.T) {
	f := newLeagueFixture(t)
	mustEnsureAccount(t, f.store, "user-1", "Diego")
	mustEnsureAccount(t, f.store, "user-2", "Ariel")
	mustEnsureAccount(t, f.store, "user-3", "Juan")
	league := f.mustCreate(t, "user-1")
	f.mustJoinAndPay(t, league, "user-1")
	f.mustJoinAndPay(t, league, "user-2")
	if _, err := f.service.Join(t.Context(), "user-3", league.InviteCode); err != nil {
		t.Fatalf("join unpaid: %v", err)
	}

	res, err := f.service.CheckAutoCancel(t.Context(), league.ID)
	if err != nil {
		t.Fatalf("check before lock: %v", err)
	}
	if res.Outcome != LockSkipped {
		t.Fatalf("expected skip while start matchday is open, got %s", res.Outcome)
	}

	f.lockMatchday(t, 2)
	res, err = f.service.CheckAutoCancel(t.Context(), league.ID)
	if err != nil {
		t.Fatalf("check after lock: %v", err)
	}
	if res.Outcome != LockCancelled || res.Refunded != 2 {
		t.Fatalf("expected cancellation with 2 refunds, got %+v", res)
	}

	for userID, want := range map[string]decimal.Decimal{
		"user-1": league.BuyIn,
		"user-2": league.BuyIn,
		"user-3": decimal.Zero,
	} {
		balance, err := f.wallet.GetBalance(t.Context(), userID)
		if err != nil {
			t.Fatalf("get balance %s: %v", userID, err)
		}
		if !balance.RealBalance.Equal(want) {
			t.Fatalf("expected %s refunded %s, got %s", userID, want, balance.RealBalance)
		}
	}

	stored, _, _ := f.leagues.GetByID(t.Context(), league.ID)
	if stored.Status != customleague.StatusCancelled {
		t.Fatalf("expected cancelled league, got %s", stored.Status)
	}

	res, err = f.service.CheckAutoCancel(t.Context(), league.ID)
	if err != nil || res.Outcome != LockSkipped {
		t.Fatalf("expected rerun to skip, got %+v err=%v", res, err)
	}
	balance, _ := f.wallet.GetBalance(t.Context(), "user-1")
	if !balance.RealBalance.Equal(league.BuyIn) {
		t.Fatalf("expected a single refund, got %s", balance.RealBalance)
	}
}

func TestPrivateLeagueService_CheckAutoCancel_ActivatesWithEnoughPaid(t *testing.T) {
	f := newLeagueFixture(t)
	for _, id := range []string{"user-1", "user-2", "user-3"} {
		mustEnsureAccount(t, f.store, id, id)
	}
	league := f.mustCreate(t, "user-1")
	for _, id := range []string{"user-1", "user-2", "user-3"} {
		f.mustJoinAndPay(t, league, id)
	}
	f.lockMatchday(t, 2)

	res, err := f.service.CheckAutoCancel(t.Context(), league.ID)
	if err != nil {
		t.Fatalf("check auto cancel: %v", err)
	}
	if res.Outcome != LockActivated || res.Refunded != 0 {
		t.Fatalf("expected activation, got %+v", res)
	}

	detail, err := f.service.GetByCode(t.Context(), "user-2", league.InviteCode)
	if err != nil {
		t.Fatalf("get by code: %v", err)
	}
	if detail.League.Status != customleague.StatusActive || detail.PaidCount != 3 || !detail.IsPaid || detail.IsCreator {
		t.Fatalf("unexpected detail: %+v", detail.LeagueSummary)
	}
	if !detail.Pool.TotalPool.Equal(decimal.NewFromInt(30000)) || !detail.Pool.Rake.Equal(decimal.NewFromInt(1500)) {
		t.Fatalf("unexpected pool: %+v", detail.Pool)
	}
	if len(detail.Pool.Distribution) != 2 {
		t.Fatalf("expected two paid places for 3 members, got %+v", detail.Pool.Distribution)
	}
}

func TestPrivateLeagueService_BuyInApprovedAfterCancellationIsRefunded(t *testing.T) {
	f := newLeagueFixture(t)
	mustEnsureAccount(t, f.store, "user-1", "Diego")
	mustEnsureAccount(t, f.store, "user-2", "Ariel")
	league := f.mustCreate(t, "user-1")
	f.mustJoinAndPay(t, league, "user-1")
	late, err := f.service.Join(t.Context(), "user-2", league.InviteCode)
	if err != nil {
		t.Fatalf("join: %v", err)
	}

	f.lockMatchday(t, 2)
	res, err := f.service.CheckAutoCancel(t.Context(), league.ID)
	if err != nil || res.Outcome != LockCancelled || res.Refunded != 1 {
		t.Fatalf("expected cancellation with one refund, got %+v err=%v", res, err)
	}

	done, err := f.payments.CompleteMockPayment(t.Context(), late.PreferenceID)
	if err != nil {
		t.Fatalf("pay late buy-in: %v", err)
	}
	if done.Outcome != OutcomeApplied {
		t.Fatalf("expected late buy-in settled, got %s", done.Outcome)
	}

	balance, err := f.wallet.GetBalance(t.Context(), "user-2")
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if !balance.RealBalance.Equal(league.BuyIn) {
		t.Fatalf("expected late buy-in credited back, got %s", balance.RealBalance)
	}

	page, err := f.wallet.ListTransactions(t.Context(), "user-2", transaction.Page{})
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	var refunds int
	for _, tx := range page.Items {
		if tx.Type == transaction.TypeLeagueRefund && tx.Status == transaction.StatusApproved {
			refunds++
		}
	}
	if refunds != 1 {
		t.Fatalf("expected one approved refund, got %+v", page.Items)
	}

	members, err := f.leagues.ListMembers(t.Context(), league.ID)
	if err != nil {
		t.Fatalf("list members: %v", err)
	}
	if m, ok := customleague.FindMember(members, "user-2"); !ok || m.Paid {
		t.Fatalf("expected user-2 left unpaid in the cancelled league, got %+v", m)
	}
}

func TestPrivateLeagueService_BuyInApprovedAtCapacityIsRefunded(t *testing.T) {
	f := newLeagueFixture(t)
	for _, id := range []string{"user-1", "user-2", "user-3", "user-4", "user-5"} {
		mustEnsureAccount(t, f.store, id, id)
	}
	league := f.mustCreate(t, "user-1")
	for _, id := range []string{"user-1", "user-2", "user-3"} {
		f.mustJoinAndPay(t, league, id)
	}

	fourth, err := f.service.Join(t.Context(), "user-4", league.InviteCode)
	if err != nil {
		t.Fatalf("join user-4: %v", err)
	}
	fifth, err := f.service.Join(t.Context(), "user-5", league.InviteCode)
	if err != nil {
		t.Fatalf("join user-5: %v", err)
	}

	if _, err := f.payments.CompleteMockPayment(t.Context(), fourth.PreferenceID); err != nil {
		t.Fatalf("pay user-4: %v", err)
	}
	if _, err := f.payments.CompleteMockPayment(t.Context(), fifth.PreferenceID); err != nil {
		t.Fatalf("pay user-5: %v", err)
	}

	members, err := f.leagues.ListMembers(t.Context(), league.ID)
	if err != nil {
		t.Fatalf("list members: %v", err)
	}
	if got := customleague.PaidCount(members); got != league.MaxPlayers {
		t.Fatalf("expected paid count capped at %d, got %d", league.MaxPlayers, got)
	}
	if m, _ := customleague.FindMember(members, "user-5"); m.Paid {
		t.Fatalf("expected user-5 not seated")
	}

	balance, err := f.wallet.GetBalance(t.Context(), "user-5")
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if !balance.RealBalance.Equal(league.BuyIn) {
		t.Fatalf("expected over-capacity buy-in credited back, got %s", balance.RealBalance)
	}
}

func TestPrivateLeagueService_CheckAutoCancel_UnknownLeague(t *testing.T) {
	f := newLeagueFixture(t)
	if _, err := f.service.CheckAutoCancel(t.Context(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := f.service.CheckAutoCancel(t.Context(), " "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestPrivateLeagueService_ListMine(t *testing.T) {
	f := newLeagueFixture(t)
	mustEnsureAccount(t, f.store, "user-1", "Diego")
	mustEnsureAccount(t, f.store, "user-2", "Ariel")
	league := f.mustCreate(t, "user-1")
	f.mustJoinAndPay(t, league, "user-2")

	mine, err := f.service.ListMine(t.Context(), "user-2")
	if err != nil {
		t.Fatalf("list mine: %v", err)
	}
	if len(mine.Leagues) != 1 {
		t.Fatalf("expected one league, got %d", len(mine.Leagues))
	}
	got := mine.Leagues[0]
	if got.League.ID != league.ID || got.MemberCount != 2 || got.PaidCount != 1 || !got.IsMember || !got.IsPaid || got.IsCreator {
		t.Fatalf("unexpected summary: %+v", got)
	}
	for _, md := range mine.Matchdays {
		if !md.IsOpen() {
			t.Fatalf("expected only open matchdays, got %+v", md)
		}
	}
	if len(mine.Matchdays) != 5 {
		t.Fatalf("expected 5 open matchdays, got %d", len(mine.Matchdays))
	}

	other, err := f.service.ListMine(t.Context(), "user-3")
	if err != nil {
		t.Fatalf("list mine for outsider: %v", err)
	}
	if len(other.Leagues) != 0 {
		t.Fatalf("expected no leagues for outsider, got %d", len(other.Leagues))
	}
}
