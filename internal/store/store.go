package store

import (
	"context"
	"errors"
)

var (
	ErrNotFound        = errors.New("team not found")
	ErrAlreadyAssigned = errors.New("team already assigned")
)

// Store is the access contract the coordinator, queue, and HTTP surface
// depend on. Two implementations exist: Postgres via GORM for the running
// service, and an in-memory store for tests.
type Store interface {
	// EnsureTeam creates the team if absent and returns the stored record.
	// created is true only for the caller that performed the insert.
	EnsureTeam(ctx context.Context, teamID, teamName string) (team *Team, created bool, err error)
	// GetTeam returns ErrNotFound for an unknown team id.
	GetTeam(ctx context.Context, teamID string) (*Team, error)
	// SaveTeam persists the full record including members and submissions.
	SaveTeam(ctx context.Context, team *Team) error
	Teams(ctx context.Context) ([]TeamSummary, error)

	// CountCompletedAssignments and ApplyAssignment back the assignment
	// queue. ApplyAssignment must persist the team's puzzle fields and the
	// queue entry as one atomic unit; a half-applied assignment corrupts
	// the exactly-once guarantee.
	CountCompletedAssignments(ctx context.Context) (int, error)
	ApplyAssignment(ctx context.Context, team *Team, entry AssignmentQueueEntry) error
	QueueEntries(ctx context.Context) ([]AssignmentQueueEntry, error)
	QueueCounts(ctx context.Context) (QueueCounts, error)
	// ResetQueue deletes all queue entries and reinitializes puzzle state
	// on every team.
	ResetQueue(ctx context.Context) error

	UpsertLeaderboard(ctx context.Context, entry LeaderboardEntry) error
	Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error)

	AppendLog(ctx context.Context, entry SessionLogEntry) error
	// Logs returns a team's audit trail, newest first.
	Logs(ctx context.Context, teamID string) ([]SessionLogEntry, error)

	Ping(ctx context.Context) error
}
