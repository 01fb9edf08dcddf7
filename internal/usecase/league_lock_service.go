package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/bilardeando/internal/domain/customleague"
	"github.com/riskibarqy/bilardeando/internal/platform/logging"
)

const (
	defaultLockWorkers = 4
	leagueLockKey      = "bilardeando:league-lock"
	leagueLockTTL      = 5 * time.Minute
)

// Locker is a cross-process mutex. unlock is only valid when acquired is true.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (unlock func(ctx context.Context) error, acquired bool, err error)
}

// LeagueCloser runs the start-lock decision for one league.
type LeagueCloser interface {
	CheckAutoCancel(ctx context.Context, leagueID string) (LockResult, error)
}

type LockCheckInput struct {
	// MatchdayID restricts the run to leagues starting on that matchday.
	MatchdayID int64
	// LeagueID checks a single league and ignores MatchdayID.
	LeagueID string
}

type LockCheckResult struct {
	LeagueCount    int                  `json:"league_count"`
	ActivatedCount int                  `json:"activated_count"`
	CancelledCount int                  `json:"cancelled_count"`
	SkippedCount   int                  `json:"skipped_count"`
	FailedCount    int                  `json:"failed_count"`
	WorkerCount    int                  `json:"worker_count"`
	Leagues        []LockCheckLeagueRow `json:"leagues"`
}

type LockCheckLeagueRow struct {
	LeagueID   string `json:"league_id"`
	Outcome    string `json:"outcome"`
	Refunded   int    `json:"refunded"`
	DurationMs int64  `json:"duration_ms"`
	Message    string `json:"message,omitempty"`
}

const lockOutcomeFailed = "failed"

// LeagueLockService closes every OPEN league whose start matchday has
// locked. Runs are serialized across instances through Locker.
type LeagueLockService struct {
	leagueRepo customleague.Repository
	closer     LeagueCloser
	locker     Locker
	workers    int
	logger     *logging.Logger
}

func NewLeagueLockService(
	leagueRepo customleague.Repository,
	closer LeagueCloser,
	locker Locker,
	workers int,
	logger *logging.Logger,
) *LeagueLockService {
	if logger == nil {
		logger = logging.Default()
	}
	if workers <= 0 {
		workers = defaultLockWorkers
	}

	return &LeagueLockService{
		leagueRepo: leagueRepo,
		closer:     closer,
		locker:     locker,
		workers:    workers,
		logger:     logger,
	}
}

func (s *LeagueLockService) RunLockCheck(ctx context.Context, input LockCheckInput) (LockCheckResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeagueLockService.RunLockCheck")
	defer span.End()

	if input.MatchdayID < 0 {
		return LockCheckResult{}, fmt.Errorf("%w: matchday id must be >= 0", ErrInvalidInput)
	}

	if s.locker != nil {
		unlock, acquired, err := s.locker.TryLock(ctx, leagueLockKey, leagueLockTTL)
		if err != nil {
			return LockCheckResult{}, fmt.Errorf("%w: acquire league lock: %w", ErrDependencyUnavailable, err)
		}
		if !acquired {
			return LockCheckResult{}, fmt.Errorf("%w: another league lock run is in progress", ErrConflict)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				s.logger.WarnContext(ctx, "release league lock failed", "error", err)
			}
		}()
	}

	leagueIDs, err := s.targets(ctx, input)
	if err != nil {
		return LockCheckResult{}, err
	}

	workerCount := s.workers
	if workerCount > len(leagueIDs) {
		workerCount = len(leagueIDs)
	}
	result := LockCheckResult{
		LeagueCount: len(leagueIDs),
		WorkerCount: workerCount,
		Leagues:     make([]LockCheckLeagueRow, 0, len(leagueIDs)),
	}
	if len(leagueIDs) == 0 {
		return result, nil
	}

	var (
		activated atomic.Int32
		cancelled atomic.Int32
		skipped   atomic.Int32
		failed    atomic.Int32
	)
	rows := make(chan LockCheckLeagueRow, len(leagueIDs))

	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return LockCheckResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var workers sync.WaitGroup
	for _, leagueID := range leagueIDs {
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			start := time.Now()
			row := LockCheckLeagueRow{LeagueID: leagueID}
			res, err := s.closer.CheckAutoCancel(ctx, leagueID)
			row.DurationMs = time.Since(start).Milliseconds()
			if err != nil {
				failed.Add(1)
				row.Outcome = lockOutcomeFailed
				row.Message = err.Error()
				s.logger.ErrorContext(ctx, "league lock check failed", "league_id", leagueID, "error", err)
				rows <- row
				return
			}

			row.Outcome = string(res.Outcome)
			row.Refunded = res.Refunded
			switch res.Outcome {
			case LockActivated:
				activated.Add(1)
			case LockCancelled:
				cancelled.Add(1)
			default:
				skipped.Add(1)
			}
			rows <- row
		}); err != nil {
			workers.Done()
			return LockCheckResult{}, fmt.Errorf("submit league to worker pool: %w", err)
		}
	}

	workers.Wait()
	close(rows)

	for row := range rows {
		result.Leagues = append(result.Leagues, row)
	}
	sort.SliceStable(result.Leagues, func(i, j int) bool {
		return result.Leagues[i].LeagueID < result.Leagues[j].LeagueID
	})

	result.ActivatedCount = int(activated.Load())
	result.CancelledCount = int(cancelled.Load())
	result.SkippedCount = int(skipped.Load())
	result.FailedCount = int(failed.Load())

	s.logger.InfoContext(ctx, "league lock check finished",
		"matchday_id", input.MatchdayID,
		"leagues", result.LeagueCount,
		"activated", result.ActivatedCount,
		"cancelled", result.CancelledCount,
		"failed", result.FailedCount,
	)
	return result, nil
}

func (s *LeagueLockService) targets(ctx context.Context, input LockCheckInput) ([]string, error) {
	if leagueID := strings.TrimSpace(input.LeagueID); leagueID != "" {
		return []string{leagueID}, nil
	}

	leagues, err := s.leagueRepo.ListOpen(ctx, input.MatchdayID)
	if err != nil {
		return nil, fmt.Errorf("list open leagues: %w", err)
	}
	out := make([]string, 0, len(leagues))
	for _, l := range leagues {
		out = append(out, l.ID)
	}
	return out, nil
}
