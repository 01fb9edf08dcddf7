package jobqueue

import (
	"context"
	"fmt"
	"time"
)

const LeagueLockPath = "/v1/internal/jobs/league-lock"

type publisher interface {
	Publish(ctx context.Context, job Job) error
}

// LeagueLockScheduler enqueues the lock check that fires when a league's
// start matchday kicks off.
type LeagueLockScheduler struct {
	publisher publisher
	now       func() time.Time
}

func NewLeagueLockScheduler(p publisher) *LeagueLockScheduler {
	return &LeagueLockScheduler{publisher: p, now: time.Now}
}

type leagueLockPayload struct {
	LeagueID   string `json:"league_id"`
	MatchdayID int64  `json:"matchday_id"`
}

func (s *LeagueLockScheduler) ScheduleLeagueLock(ctx context.Context, leagueID string, matchdayID int64, runAt time.Time) error {
	delay := runAt.Sub(s.now())
	if delay < 0 {
		delay = 0
	}
	return s.publisher.Publish(ctx, Job{
		Path:            LeagueLockPath,
		Payload:         leagueLockPayload{LeagueID: leagueID, MatchdayID: matchdayID},
		Delay:           delay,
		DeduplicationID: LeagueLockJobID(leagueID, matchdayID),
	})
}

// LeagueLockJobID deduplicates lock checks per league and start matchday.
func LeagueLockJobID(leagueID string, matchdayID int64) string {
	return fmt.Sprintf("league-lock-%s-%d", leagueID, matchdayID)
}
