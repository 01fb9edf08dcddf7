package customleague

import "context"

type Repository interface {
	// Create inserts the league and its creator membership together.
	// Returns ErrDuplicateCode when the invite code is taken.
	Create(ctx context.Context, league League, creator Member) error
	GetByID(ctx context.Context, leagueID string) (League, bool, error)
	GetByInviteCode(ctx context.Context, code string) (League, bool, error)
	// ListByUser returns leagues the user created or joined, newest first.
	ListByUser(ctx context.Context, userID string) ([]League, error)
	// ListOpen returns OPEN leagues; startMatchdayID > 0 restricts to that start.
	ListOpen(ctx context.Context, startMatchdayID int64) ([]League, error)
	ListMembers(ctx context.Context, leagueID string) ([]Member, error)
	// AddMember returns ErrMemberExists when the user already belongs to the league.
	AddMember(ctx context.Context, member Member) error
	// Close locks the league and its members, asks decide for the outcome and
	// persists status change plus refunds atomically. decide is only called
	// while the league is still OPEN; otherwise Close returns the stored
	// league with an empty Closure.
	Close(ctx context.Context, leagueID string, decide func(League, []Member) (Closure, error)) (League, Closure, error)
}
