package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ciphercircuit/cipher-circuit-backend/internal/puzzle"
	"github.com/ciphercircuit/cipher-circuit-backend/internal/store"
)

// Assigner hands out puzzle positions exactly once per team. All
// assignments in the process go through a single mutex so the
// count-completed-then-append sequence never interleaves; the store applies
// the team update and queue entry as one atomic unit.
type Assigner struct {
	mu     sync.Mutex
	store  store.Store
	logger *zap.Logger
}

func NewAssigner(st store.Store, logger *zap.Logger) *Assigner {
	return &Assigner{store: st, logger: logger}
}

// Assign issues the next position to the team. A team that already holds
// puzzle state gets store.ErrAlreadyAssigned; the check runs under the same
// lock as the issue so a racing duplicate request cannot double-assign.
func (a *Assigner) Assign(ctx context.Context, teamID string) (puzzle.Assignment, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	team, err := a.store.GetTeam(ctx, teamID)
	if err != nil {
		return puzzle.Assignment{}, fmt.Errorf("loading team %s: %w", teamID, err)
	}
	if team.Assigned() {
		return puzzle.Assignment{}, store.ErrAlreadyAssigned
	}

	position, err := a.store.CountCompletedAssignments(ctx)
	if err != nil {
		return puzzle.Assignment{}, fmt.Errorf("counting assignments: %w", err)
	}

	asg := puzzle.At(position)
	team.SetSwitches(asg.Switches)
	team.Key4Bit = asg.Key4
	team.Key8Bit = asg.Key8
	pos := position
	team.QueuePosition = &pos
	num := asg.AssignedNumber
	team.AssignedNumber = &num
	team.EncryptionValue = asg.EncryptionValue

	entry := store.AssignmentQueueEntry{
		TeamID:     teamID,
		Position:   position,
		AssignedAt: time.Now(),
		Completed:  true,
	}
	if err := a.store.ApplyAssignment(ctx, team, entry); err != nil {
		return puzzle.Assignment{}, fmt.Errorf("persisting assignment: %w", err)
	}

	a.logger.Info("team assigned",
		zap.String("teamId", teamID),
		zap.Int("position", position),
		zap.String("key4bit", asg.Key4),
	)
	return asg, nil
}
