package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/bilardeando/internal/domain/customleague"
	"github.com/riskibarqy/bilardeando/internal/infrastructure/repository/memory"
	"github.com/shopspring/decimal"
)

type fakeLocker struct {
	mu       sync.Mutex
	held     bool
	err      error
	released int
}

func (l *fakeLocker) TryLock(_ context.Context, _ string, _ time.Duration) (func(context.Context) error, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, false, l.err
	}
	if l.held {
		return nil, false, nil
	}
	l.held = true
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.held = false
		l.released++
		return nil
	}, true, nil
}

type scriptedCloser struct {
	mu       sync.Mutex
	outcomes map[string]LockResult
	failures map[string]error
	seen     []string
}

func (c *scriptedCloser) CheckAutoCancel(_ context.Context, leagueID string) (LockResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen = append(c.seen, leagueID)
	if err, ok := c.failures[leagueID]; ok {
		return LockResult{}, err
	}
	if res, ok := c.outcomes[leagueID]; ok {
		return res, nil
	}
	return LockResult{LeagueID: leagueID, Outcome: LockSkipped}, nil
}

func seedOpenLeagues(t *testing.T, store *memory.Store, matchdayID int64, ids ...string) {
	t.Helper()
	repo := memory.NewCustomLeagueRepository(store)
	for _, id := range ids {
		league := customleague.League{
			ID:              id,
			Name:            "League " + id,
			InviteCode:      "CODE" + id,
			Status:          customleague.StatusOpen,
			BuyIn:           decimal.NewFromInt(10000),
			MaxPlayers:      10,
			RakePercent:     customleague.DefaultRakePercent,
			CreatorID:       "user-1",
			StartMatchdayID: matchdayID,
			EndMatchdayID:   matchdayID + 2,
		}
		if err := repo.Create(t.Context(), league, customleague.Member{UserID: "user-1"}); err != nil {
			t.Fatalf("seed league %s: %v", id, err)
		}
	}
}

func TestLeagueLockService_RunLockCheck_IsolatesFailures(t *testing.T) {
	store := newTestStore()
	seedOpenLeagues(t, store, 2, "l-a", "l-b", "l-c")
	seedOpenLeagues(t, store, 3, "l-z")

	closer := &scriptedCloser{
		outcomes: map[string]LockResult{
			"l-a": {LeagueID: "l-a", Outcome: LockActivated},
			"l-c": {LeagueID: "l-c", Outcome: LockCancelled, Refunded: 2},
		},
		failures: map[string]error{"l-b": errors.New("db timeout")},
	}
	locker := &fakeLocker{}
	service := NewLeagueLockService(memory.NewCustomLeagueRepository(store), closer, locker, 2, nil)

	res, err := service.RunLockCheck(t.Context(), LockCheckInput{MatchdayID: 2})
	if err != nil {
		t.Fatalf("run lock check: %v", err)
	}
	if res.LeagueCount != 3 || res.WorkerCount != 2 {
		t.Fatalf("unexpected counts: %+v", res)
	}
	if res.ActivatedCount != 1 || res.CancelledCount != 1 || res.FailedCount != 1 || res.SkippedCount != 0 {
		t.Fatalf("unexpected outcome counts: %+v", res)
	}

	wantOrder := []string{"l-a", "l-b", "l-c"}
	for i, row := range res.Leagues {
		if row.LeagueID != wantOrder[i] {
			t.Fatalf("expected rows sorted by league id, got %+v", res.Leagues)
		}
	}
	if res.Leagues[1].Outcome != lockOutcomeFailed || res.Leagues[1].Message == "" {
		t.Fatalf("expected failed row with message, got %+v", res.Leagues[1])
	}
	if res.Leagues[2].Refunded != 2 {
		t.Fatalf("expected refunds reported, got %+v", res.Leagues[2])
	}
	if locker.released != 1 || locker.held {
		t.Fatalf("expected lock released once, released=%d held=%v", locker.released, locker.held)
	}
}

func TestLeagueLockService_RunLockCheck_SingleLeague(t *testing.T) {
	closer := &scriptedCloser{}
	service := NewLeagueLockService(memory.NewCustomLeagueRepository(newTestStore()), closer, nil, 0, nil)

	res, err := service.RunLockCheck(t.Context(), LockCheckInput{MatchdayID: 4, LeagueID: " l-x "})
	if err != nil {
		t.Fatalf("run lock check: %v", err)
	}
	if res.LeagueCount != 1 || res.SkippedCount != 1 || len(closer.seen) != 1 || closer.seen[0] != "l-x" {
		t.Fatalf("expected only l-x checked, got %+v seen=%v", res, closer.seen)
	}
}

func TestLeagueLockService_RunLockCheck_NoLeagues(t *testing.T) {
	service := NewLeagueLockService(memory.NewCustomLeagueRepository(newTestStore()), &scriptedCloser{}, &fakeLocker{}, 4, nil)

	res, err := service.RunLockCheck(t.Context(), LockCheckInput{})
	if err != nil {
		t.Fatalf("run lock check: %v", err)
	}
	if res.LeagueCount != 0 || res.WorkerCount != 0 || len(res.Leagues) != 0 {
		t.Fatalf("expected empty run, got %+v", res)
	}
}

func TestLeagueLockService_RunLockCheck_LockErrors(t *testing.T) {
	repo := memory.NewCustomLeagueRepository(newTestStore())

	busy := &fakeLocker{held: true}
	if _, err := NewLeagueLockService(repo, &scriptedCloser{}, busy, 1, nil).RunLockCheck(t.Context(), LockCheckInput{}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict while another run holds the lock, got %v", err)
	}

	broken := &fakeLocker{err: errors.New("redis unreachable")}
	if _, err := NewLeagueLockService(repo, &scriptedCloser{}, broken, 1, nil).RunLockCheck(t.Context(), LockCheckInput{}); !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}

	if _, err := NewLeagueLockService(repo, &scriptedCloser{}, nil, 1, nil).RunLockCheck(t.Context(), LockCheckInput{MatchdayID: -1}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestLeagueLockService_WithPrivateLeagueService(t *testing.T) {
	f := newLeagueFixture(t)
	mustEnsureAccount(t, f.store, "user-1", "Diego")
	mustEnsureAccount(t, f.store, "user-2", "Ariel")
	league := f.mustCreate(t, "user-1")
	f.mustJoinAndPay(t, league, "user-2")
	f.lockMatchday(t, 2)

	service := NewLeagueLockService(f.leagues, f.service, &fakeLocker{}, 2, nil)
	res, err := service.RunLockCheck(t.Context(), LockCheckInput{MatchdayID: 2})
	if err != nil {
		t.Fatalf("run lock check: %v", err)
	}
	if res.CancelledCount != 1 || res.Leagues[0].Refunded != 1 {
		t.Fatalf("expected single cancellation with one refund, got %+v", res)
	}

	balance, err := f.wallet.GetBalance(t.Context(), "user-2")
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if !balance.RealBalance.Equal(league.BuyIn) {
		t.Fatalf("expected buy-in refunded, got %s", balance.RealBalance)
	}
}
