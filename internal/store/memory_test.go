package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ciphercircuit/cipher-circuit-backend/internal/puzzle"
)

func TestMemory_EnsureTeamIsIdempotent(t *testing.T) {
	st := NewMemory()
	ctx := context.Background()

	team, created, err := st.EnsureTeam(ctx, "alpha", "Team Alpha")
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, "Team Alpha", team.TeamName)
	require.False(t, team.StartTime.IsZero())

	again, created, err := st.EnsureTeam(ctx, "alpha", "renamed")
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, "Team Alpha", again.TeamName, "second ensure must not overwrite")
}

func TestMemory_GetTeamCopiesRecord(t *testing.T) {
	st := NewMemory()
	ctx := context.Background()

	_, _, err := st.EnsureTeam(ctx, "alpha", "Team Alpha")
	require.NoError(t, err)

	a, err := st.GetTeam(ctx, "alpha")
	require.NoError(t, err)
	a.Resubmissions = 99
	a.Members = append(a.Members, Member{ConnectionID: "rogue"})

	b, err := st.GetTeam(ctx, "alpha")
	require.NoError(t, err)
	require.Zero(t, b.Resubmissions, "caller mutation must not leak into the store")
	require.Empty(t, b.Members)
}

func TestMemory_SaveTeamUnknownTeam(t *testing.T) {
	st := NewMemory()
	err := st.SaveTeam(context.Background(), &Team{TeamID: "ghost"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_ResetQueueReinitializesTeams(t *testing.T) {
	st := NewMemory()
	ctx := context.Background()

	team, _, err := st.EnsureTeam(ctx, "alpha", "Team Alpha")
	require.NoError(t, err)

	team.SetSwitches(puzzle.Switches{S0: 1})
	team.Key4Bit = "1001"
	team.Key8Bit = "10011000"
	team.Round = 2
	team.Round1Complete = true
	team.Round1Submissions = []Round1Submission{{ConnectionID: "c1", Key: "1001"}}
	pos := 0
	team.QueuePosition = &pos
	require.NoError(t, st.SaveTeam(ctx, team))
	require.NoError(t, st.ApplyAssignment(ctx, team, AssignmentQueueEntry{TeamID: "alpha", Position: 0, Completed: true}))

	require.NoError(t, st.ResetQueue(ctx))

	entries, err := st.QueueEntries(ctx)
	require.NoError(t, err)
	require.Empty(t, entries)

	fresh, err := st.GetTeam(ctx, "alpha")
	require.NoError(t, err)
	require.False(t, fresh.Assigned())
	require.Equal(t, 0, fresh.Round)
	require.False(t, fresh.Round1Complete)
	require.Empty(t, fresh.Round1Submissions)
	require.Nil(t, fresh.QueuePosition)
	require.Empty(t, fresh.Key4Bit)
}

func TestMemory_LeaderboardSortedAndCapped(t *testing.T) {
	st := NewMemory()
	ctx := context.Background()

	entries := []LeaderboardEntry{
		{TeamID: "slow", TimeElapsed: 3 * time.Minute, Resubmissions: 0},
		{TeamID: "fast-clean", TimeElapsed: time.Minute, Resubmissions: 0},
		{TeamID: "fast-sloppy", TimeElapsed: time.Minute, Resubmissions: 4},
	}
	for _, e := range entries {
		require.NoError(t, st.UpsertLeaderboard(ctx, e))
	}

	board, err := st.Leaderboard(ctx, 100)
	require.NoError(t, err)
	require.Equal(t, []string{"fast-clean", "fast-sloppy", "slow"},
		[]string{board[0].TeamID, board[1].TeamID, board[2].TeamID})

	capped, err := st.Leaderboard(ctx, 2)
	require.NoError(t, err)
	require.Len(t, capped, 2)
}

func TestMemory_UpsertLeaderboardReplacesByTeam(t *testing.T) {
	st := NewMemory()
	ctx := context.Background()

	require.NoError(t, st.UpsertLeaderboard(ctx, LeaderboardEntry{TeamID: "alpha", TimeElapsed: time.Hour}))
	require.NoError(t, st.UpsertLeaderboard(ctx, LeaderboardEntry{TeamID: "alpha", TimeElapsed: time.Minute}))

	board, err := st.Leaderboard(ctx, 100)
	require.NoError(t, err)
	require.Len(t, board, 1)
	require.Equal(t, time.Minute, board[0].TimeElapsed)
}

func TestMemory_LogsNewestFirst(t *testing.T) {
	st := NewMemory()
	ctx := context.Background()

	require.NoError(t, st.AppendLog(ctx, NewLogEntry("alpha", "c1", "join", nil)))
	require.NoError(t, st.AppendLog(ctx, NewLogEntry("bravo", "c9", "join", nil)))
	require.NoError(t, st.AppendLog(ctx, NewLogEntry("alpha", "c2", "disconnect", nil)))

	logs, err := st.Logs(ctx, "alpha")
	require.NoError(t, err)
	require.Len(t, logs, 2)
	require.Equal(t, "disconnect", logs[0].EventType)
	require.Equal(t, "join", logs[1].EventType)
}

func TestTeam_SwitchesRoundTrip(t *testing.T) {
	var team Team
	_, ok := team.Switches()
	require.False(t, ok)
	require.False(t, team.Assigned())

	team.SetSwitches(puzzle.Switches{S0: 1, S1: 0, S2: 1, S3: 0})
	s, ok := team.Switches()
	require.True(t, ok)
	require.Equal(t, puzzle.Switches{S0: 1, S1: 0, S2: 1, S3: 0}, s)

	team.ClearAssignment()
	require.False(t, team.Assigned())
}
