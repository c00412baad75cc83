package session

import (
	"strings"

	"github.com/ciphercircuit/cipher-circuit-backend/internal/store"
	"github.com/ciphercircuit/cipher-circuit-backend/internal/types"
)

// NormalizeRole trims and lowercases a requested role. ok is false for
// anything other than the two fixed roles.
func NormalizeRole(role string) (string, bool) {
	normalized := strings.ToLower(strings.TrimSpace(role))
	switch normalized {
	case store.RoleEncrypt, store.RoleDecrypt:
		return normalized, true
	default:
		return "", false
	}
}

// BuildTeamState projects team state for one member. The secret input meant
// for the other role is never included: the encrypt member sees the assigned
// number, the decrypt member sees the encryption value.
func BuildTeamState(team *store.Team, member *store.Member) types.TeamState {
	state := types.TeamState{
		Round:          team.Round,
		Key4Bit:        team.Key4Bit,
		Key8Bit:        team.Key8Bit,
		Round1Complete: team.Round1Complete,
		Round2Complete: team.Round2Complete,
		Ciphertext:     team.Ciphertext,
		MemberCount:    len(team.Members),
		TeammateOnline: team.OnlineCount() > 1,
		Members:        make([]types.MemberState, 0, len(team.Members)),
	}
	if s, ok := team.Switches(); ok {
		state.SwitchValues = &s
	}
	for _, m := range team.Members {
		state.Members = append(state.Members, types.MemberState{
			ConnectionID: m.ConnectionID,
			Role:         m.Role,
			Online:       m.Online,
		})
	}
	if member == nil {
		return state
	}

	state.Role = member.Role
	for i := range team.Members {
		if team.Members[i].ConnectionID != member.ConnectionID {
			state.TeammateRole = team.Members[i].Role
		}
	}

	switch member.Role {
	case store.RoleEncrypt:
		state.AssignedNumber = team.AssignedNumber
	case store.RoleDecrypt:
		state.EncryptionValue = team.EncryptionValue
	}
	return state
}
