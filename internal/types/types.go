package types

import "github.com/ciphercircuit/cipher-circuit-backend/internal/puzzle"

// Client -> server event names.
const (
	EvtJoinTeam         = "join_team"
	EvtSubmitRound1Key  = "submit_round1_key"
	EvtSubmitEncryption = "submit_encryption"
	EvtSubmitDecryption = "submit_decryption"
)

// Server -> client event names.
const (
	EvtTeamState           = "team_state"
	EvtTeammateJoined      = "teammate_joined"
	EvtTeammateLeft        = "teammate_left"
	EvtRound1Result        = "round1_result"
	EvtEncryptionResult    = "encryption_result"
	EvtCiphertextReceived  = "ciphertext_received"
	EvtDecryptionResult    = "decryption_result"
	EvtCompetitionComplete = "competition_complete"
	EvtError               = "error"
)

type ClientMessage struct {
	Type           string `json:"type"`
	TeamID         string `json:"teamId,omitempty"`
	TeamName       string `json:"teamName,omitempty"`
	Role           string `json:"role,omitempty"`
	Key            string `json:"key,omitempty"`
	Ciphertext     string `json:"ciphertext,omitempty"`
	Plaintext      string `json:"plaintext,omitempty"`
	DecryptedValue string `json:"decryptedValue,omitempty"`
}

type ServerMessage struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// TeamState is the role-filtered projection pushed to a single connection.
// AssignedNumber is present only for the encrypt member; EncryptionValue
// only for the decrypt member.
type TeamState struct {
	Round           int              `json:"round"`
	Key4Bit         string           `json:"key4bit"`
	Key8Bit         string           `json:"key8bit"`
	Round1Complete  bool             `json:"round1Complete"`
	Round2Complete  bool             `json:"round2Complete"`
	SwitchValues    *puzzle.Switches `json:"switchValues"`
	Ciphertext      string           `json:"ciphertext"`
	MemberCount     int              `json:"memberCount"`
	TeammateOnline  bool             `json:"teammateOnline"`
	Role            string           `json:"role,omitempty"`
	TeammateRole    string           `json:"teammateRole,omitempty"`
	Members         []MemberState    `json:"members"`
	AssignedNumber  *int             `json:"assignedNumber,omitempty"`
	EncryptionValue *int             `json:"encryptionValue,omitempty"`
}

type MemberState struct {
	ConnectionID string `json:"connectionId"`
	Role         string `json:"role"`
	Online       bool   `json:"online"`
}

type TeammateJoined struct {
	ConnectionID string `json:"connectionId"`
	MemberCount  int    `json:"memberCount"`
}

type TeammateLeft struct {
	ConnectionID string `json:"connectionId"`
	MemberCount  int    `json:"memberCount"`
}

type Round1Result struct {
	Success            bool   `json:"success"`
	Message            string `json:"message"`
	WaitingForTeammate bool   `json:"waitingForTeammate,omitempty"`
	Key8Bit            string `json:"key8bit,omitempty"`
}

type EncryptionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type CiphertextReceived struct {
	Ciphertext string `json:"ciphertext"`
}

type DecryptionResult struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	TimeElapsedMS int64  `json:"timeElapsed,omitempty"`
	Resubmissions int    `json:"resubmissions,omitempty"`
}

type CompetitionComplete struct {
	TimeElapsedMS int64 `json:"timeElapsed"`
	Resubmissions int   `json:"resubmissions"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
