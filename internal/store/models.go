package store

import (
	"encoding/json"
	"time"

	"github.com/ciphercircuit/cipher-circuit-backend/internal/puzzle"
)

const (
	RoleEncrypt = "encrypt"
	RoleDecrypt = "decrypt"
)

// Team is the durable per-team session record.
type Team struct {
	ID        uint      `gorm:"primarykey" json:"-"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`

	TeamID   string `gorm:"uniqueIndex;not null" json:"teamId"`
	TeamName string `gorm:"not null" json:"teamName"`

	Members []Member `gorm:"foreignKey:TeamID;references:TeamID" json:"members"`

	QueuePosition *int `json:"queuePosition"`
	Round         int  `gorm:"default:0" json:"round"`

	Key4Bit string `gorm:"default:''" json:"key4bit"`
	Key8Bit string `gorm:"default:''" json:"key8bit"`

	// Unassigned switches are null, not zero.
	SwitchS0 *int `json:"-"`
	SwitchS1 *int `json:"-"`
	SwitchS2 *int `json:"-"`
	SwitchS3 *int `json:"-"`

	Round1Complete    bool               `gorm:"default:false" json:"round1Complete"`
	Round1Submissions []Round1Submission `gorm:"foreignKey:TeamID;references:TeamID" json:"round1Submissions"`
	Round2Complete    bool               `gorm:"default:false" json:"round2Complete"`

	Ciphertext       string `gorm:"default:''" json:"ciphertext"`
	PlaintextDecimal string `gorm:"default:''" json:"-"`

	AssignedNumber  *int `json:"assignedNumber"`
	EncryptionValue *int `json:"encryptionValue"`

	StartTime      time.Time  `json:"startTime"`
	CompletionTime *time.Time `json:"completionTime"`
	Resubmissions  int        `gorm:"default:0" json:"resubmissions"`
}

// Member is one role slot of a team. The connection id is replaced on
// reconnect; the slot itself is stable once claimed.
type Member struct {
	ID           uint   `gorm:"primarykey" json:"-"`
	TeamID       string `gorm:"index" json:"-"`
	ConnectionID string `json:"connectionId"`
	Role         string `json:"role"`
	Online       bool   `gorm:"default:true" json:"online"`
}

type Round1Submission struct {
	ID           uint      `gorm:"primarykey" json:"-"`
	TeamID       string    `gorm:"index" json:"-"`
	ConnectionID string    `json:"connectionId"`
	Key          string    `json:"key"`
	SubmittedAt  time.Time `json:"submittedAt"`
}

// AssignmentQueueEntry records one position handed out by the queue.
type AssignmentQueueEntry struct {
	ID         uint      `gorm:"primarykey" json:"-"`
	TeamID     string    `gorm:"index" json:"teamId"`
	Position   int       `gorm:"uniqueIndex" json:"position"`
	AssignedAt time.Time `json:"assignedAt"`
	Completed  bool      `gorm:"default:false" json:"completed"`
}

// LeaderboardEntry is the denormalized ranking projection, keyed by team.
type LeaderboardEntry struct {
	ID             uint          `gorm:"primarykey" json:"-"`
	TeamID         string        `gorm:"uniqueIndex" json:"teamId"`
	TeamName       string        `json:"teamName"`
	TimeElapsed    time.Duration `json:"timeElapsed"`
	Resubmissions  int           `json:"resubmissions"`
	CompletionDate time.Time     `json:"completionDate"`
}

// SessionLogEntry is the append-only audit trail.
type SessionLogEntry struct {
	ID           uint            `gorm:"primarykey" json:"-"`
	TeamID       string          `gorm:"index" json:"teamId"`
	ConnectionID string          `json:"connectionId"`
	EventType    string          `json:"eventType"`
	EventData    json.RawMessage `gorm:"type:jsonb" json:"eventData"`
	Timestamp    time.Time       `json:"timestamp"`
}

// NewLogEntry marshals data into an audit record. Marshal failures degrade
// to an empty payload rather than losing the event.
func NewLogEntry(teamID, connectionID, eventType string, data any) SessionLogEntry {
	raw, err := json.Marshal(data)
	if err != nil {
		raw = []byte(`{}`)
	}
	return SessionLogEntry{
		TeamID:       teamID,
		ConnectionID: connectionID,
		EventType:    eventType,
		EventData:    raw,
		Timestamp:    time.Now(),
	}
}

// TeamSummary is the public listing row.
type TeamSummary struct {
	TeamID         string `json:"teamId"`
	TeamName       string `json:"teamName"`
	Round          int    `json:"round"`
	Round1Complete bool   `json:"round1Complete"`
	Round2Complete bool   `json:"round2Complete"`
}

// QueueCounts summarizes queue state for the admin surface.
type QueueCounts struct {
	TotalTeams    int64 `json:"totalTeams"`
	AssignedTeams int64 `json:"assignedTeams"`
	PendingTeams  int64 `json:"pendingTeams"`
}

// Assigned reports whether puzzle parameters have been issued to the team.
func (t *Team) Assigned() bool {
	return t.SwitchS0 != nil && t.SwitchS1 != nil && t.SwitchS2 != nil && t.SwitchS3 != nil
}

// Switches returns the assigned switch values; ok is false until assignment.
func (t *Team) Switches() (puzzle.Switches, bool) {
	if !t.Assigned() {
		return puzzle.Switches{}, false
	}
	return puzzle.Switches{S0: *t.SwitchS0, S1: *t.SwitchS1, S2: *t.SwitchS2, S3: *t.SwitchS3}, true
}

func (t *Team) SetSwitches(s puzzle.Switches) {
	s0, s1, s2, s3 := s.S0, s.S1, s.S2, s.S3
	t.SwitchS0, t.SwitchS1, t.SwitchS2, t.SwitchS3 = &s0, &s1, &s2, &s3
}

// ClearAssignment reinitializes puzzle state for an administrative reset.
func (t *Team) ClearAssignment() {
	t.SwitchS0, t.SwitchS1, t.SwitchS2, t.SwitchS3 = nil, nil, nil, nil
	t.Key4Bit = ""
	t.Key8Bit = ""
	t.QueuePosition = nil
	t.Round = 0
	t.Round1Complete = false
	t.Round1Submissions = nil
	t.AssignedNumber = nil
	t.EncryptionValue = nil
}

// MemberByConnection finds the member slot held by a live connection.
func (t *Team) MemberByConnection(connectionID string) *Member {
	for i := range t.Members {
		if t.Members[i].ConnectionID == connectionID {
			return &t.Members[i]
		}
	}
	return nil
}

// MemberByRole finds the holder of a role slot, if claimed.
func (t *Team) MemberByRole(role string) *Member {
	for i := range t.Members {
		if t.Members[i].Role == role {
			return &t.Members[i]
		}
	}
	return nil
}

func (t *Team) OnlineCount() int {
	n := 0
	for i := range t.Members {
		if t.Members[i].Online {
			n++
		}
	}
	return n
}

// SubmissionByConnection finds a round-1 submission from a connection.
func (t *Team) SubmissionByConnection(connectionID string) *Round1Submission {
	for i := range t.Round1Submissions {
		if t.Round1Submissions[i].ConnectionID == connectionID {
			return &t.Round1Submissions[i]
		}
	}
	return nil
}
