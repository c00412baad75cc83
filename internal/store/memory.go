package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Memory is an in-process Store used by tests. All methods copy records in
// and out so callers never share memory with the store.
type Memory struct {
	mu          sync.Mutex
	teams       map[string]*Team
	queue       []AssignmentQueueEntry
	leaderboard map[string]LeaderboardEntry
	logs        []SessionLogEntry
	nextID      uint
}

func NewMemory() *Memory {
	return &Memory{
		teams:       make(map[string]*Team),
		leaderboard: make(map[string]LeaderboardEntry),
	}
}

func copyTeam(t *Team) *Team {
	dup := *t
	dup.Members = append([]Member(nil), t.Members...)
	dup.Round1Submissions = append([]Round1Submission(nil), t.Round1Submissions...)
	if t.CompletionTime != nil {
		ct := *t.CompletionTime
		dup.CompletionTime = &ct
	}
	copyIntPtr := func(p *int) *int {
		if p == nil {
			return nil
		}
		v := *p
		return &v
	}
	dup.QueuePosition = copyIntPtr(t.QueuePosition)
	dup.SwitchS0 = copyIntPtr(t.SwitchS0)
	dup.SwitchS1 = copyIntPtr(t.SwitchS1)
	dup.SwitchS2 = copyIntPtr(t.SwitchS2)
	dup.SwitchS3 = copyIntPtr(t.SwitchS3)
	dup.AssignedNumber = copyIntPtr(t.AssignedNumber)
	dup.EncryptionValue = copyIntPtr(t.EncryptionValue)
	return &dup
}

func (s *Memory) EnsureTeam(_ context.Context, teamID, teamName string) (*Team, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.teams[teamID]; ok {
		return copyTeam(t), false, nil
	}
	s.nextID++
	t := &Team{
		ID:        s.nextID,
		TeamID:    teamID,
		TeamName:  teamName,
		StartTime: time.Now(),
	}
	s.teams[teamID] = t
	return copyTeam(t), true, nil
}

func (s *Memory) GetTeam(_ context.Context, teamID string) (*Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.teams[teamID]
	if !ok {
		return nil, ErrNotFound
	}
	return copyTeam(t), nil
}

func (s *Memory) SaveTeam(_ context.Context, team *Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.teams[team.TeamID]; !ok {
		return ErrNotFound
	}
	s.teams[team.TeamID] = copyTeam(team)
	return nil
}

func (s *Memory) Teams(_ context.Context) ([]TeamSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TeamSummary, 0, len(s.teams))
	for _, t := range s.teams {
		out = append(out, TeamSummary{
			TeamID:         t.TeamID,
			TeamName:       t.TeamName,
			Round:          t.Round,
			Round1Complete: t.Round1Complete,
			Round2Complete: t.Round2Complete,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TeamID < out[j].TeamID })
	return out, nil
}

func (s *Memory) CountCompletedAssignments(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.queue {
		if e.Completed {
			n++
		}
	}
	return n, nil
}

func (s *Memory) ApplyAssignment(_ context.Context, team *Team, entry AssignmentQueueEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.teams[team.TeamID]
	if !ok {
		return ErrNotFound
	}
	dup := copyTeam(team)
	stored.SwitchS0, stored.SwitchS1 = dup.SwitchS0, dup.SwitchS1
	stored.SwitchS2, stored.SwitchS3 = dup.SwitchS2, dup.SwitchS3
	stored.Key4Bit = dup.Key4Bit
	stored.Key8Bit = dup.Key8Bit
	stored.QueuePosition = dup.QueuePosition
	stored.AssignedNumber = dup.AssignedNumber
	stored.EncryptionValue = dup.EncryptionValue
	s.queue = append(s.queue, entry)
	return nil
}

func (s *Memory) QueueEntries(_ context.Context) ([]AssignmentQueueEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]AssignmentQueueEntry(nil), s.queue...)
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (s *Memory) QueueCounts(_ context.Context) (QueueCounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := QueueCounts{TotalTeams: int64(len(s.teams))}
	for _, e := range s.queue {
		if e.Completed {
			counts.AssignedTeams++
		} else {
			counts.PendingTeams++
		}
	}
	return counts, nil
}

func (s *Memory) ResetQueue(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = nil
	for _, t := range s.teams {
		t.ClearAssignment()
	}
	return nil
}

func (s *Memory) UpsertLeaderboard(_ context.Context, entry LeaderboardEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leaderboard[entry.TeamID] = entry
	return nil
}

func (s *Memory) Leaderboard(_ context.Context, limit int) ([]LeaderboardEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]LeaderboardEntry, 0, len(s.leaderboard))
	for _, e := range s.leaderboard {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TimeElapsed != out[j].TimeElapsed {
			return out[i].TimeElapsed < out[j].TimeElapsed
		}
		return out[i].Resubmissions < out[j].Resubmissions
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Memory) AppendLog(_ context.Context, entry SessionLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, entry)
	return nil
}

func (s *Memory) Logs(_ context.Context, teamID string) ([]SessionLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []SessionLogEntry
	for i := len(s.logs) - 1; i >= 0; i-- {
		if s.logs[i].TeamID == teamID {
			out = append(out, s.logs[i])
		}
	}
	return out, nil
}

func (s *Memory) Ping(_ context.Context) error { return nil }
