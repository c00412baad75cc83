package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ciphercircuit/cipher-circuit-backend/internal/auth"
	"github.com/ciphercircuit/cipher-circuit-backend/internal/presence"
	"github.com/ciphercircuit/cipher-circuit-backend/internal/puzzle"
	"github.com/ciphercircuit/cipher-circuit-backend/internal/queue"
	"github.com/ciphercircuit/cipher-circuit-backend/internal/session"
	"github.com/ciphercircuit/cipher-circuit-backend/internal/store"
	"github.com/ciphercircuit/cipher-circuit-backend/internal/types"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// Login creates the team if absent and issues its bearer credential.
func Login(st store.Store, verifier *auth.Verifier, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			TeamID   string `json:"teamId"`
			TeamName string `json:"teamName"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TeamID == "" || req.TeamName == "" {
			writeError(w, http.StatusBadRequest, "Missing teamId or teamName")
			return
		}

		_, created, err := st.EnsureTeam(r.Context(), req.TeamID, req.TeamName)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Login failed")
			return
		}
		if created {
			logger.Info("new team created", zap.String("teamId", req.TeamID))
		}

		token, err := verifier.GenerateToken(req.TeamID, req.TeamName)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Login failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success":  true,
			"token":    token,
			"message":  "Authentication successful",
			"teamId":   req.TeamID,
			"teamName": req.TeamName,
		})
	}
}

// TeamState serves a team's full state to its own members, lazily
// triggering assignment when puzzle fields are still unset.
func TeamState(st store.Store, assigner *queue.Assigner) http.HandlerFunc {
	type response struct {
		TeamID          string `json:"teamId"`
		TeamName        string `json:"teamName"`
		AssignedNumber  *int   `json:"assignedNumber"`
		EncryptionValue *int   `json:"encryptionValue"`
		Resubmissions   int    `json:"resubmissions"`
		CompletionTime  any    `json:"completionTime"`
		types.TeamState
	}
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := ClaimsFrom(r.Context())
		teamID := chi.URLParam(r, "teamId")
		if claims == nil || claims.TeamID != teamID {
			writeError(w, http.StatusForbidden, "Unauthorized: cannot access other team data")
			return
		}

		team, err := st.GetTeam(r.Context(), teamID)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Team not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to fetch team")
			return
		}

		if !team.Assigned() {
			if _, err := assigner.Assign(r.Context(), teamID); err != nil && !errors.Is(err, store.ErrAlreadyAssigned) {
				writeError(w, http.StatusInternalServerError, "Failed to fetch team")
				return
			}
			if team, err = st.GetTeam(r.Context(), teamID); err != nil {
				writeError(w, http.StatusInternalServerError, "Failed to fetch team")
				return
			}
		}

		writeJSON(w, http.StatusOK, response{
			TeamID:          team.TeamID,
			TeamName:        team.TeamName,
			AssignedNumber:  team.AssignedNumber,
			EncryptionValue: team.EncryptionValue,
			Resubmissions:   team.Resubmissions,
			CompletionTime:  team.CompletionTime,
			TeamState:       session.BuildTeamState(team, nil),
		})
	}
}

// Teams is the public read-only listing.
func Teams(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		teams, err := st.Teams(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to fetch teams")
			return
		}
		writeJSON(w, http.StatusOK, teams)
	}
}

func Leaderboard(st store.Store) http.HandlerFunc {
	type row struct {
		TeamID         string `json:"teamId"`
		TeamName       string `json:"teamName"`
		TimeElapsedMS  int64  `json:"timeElapsed"`
		Resubmissions  int    `json:"resubmissions"`
		CompletionDate string `json:"completionDate"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := st.Leaderboard(r.Context(), 100)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to fetch leaderboard")
			return
		}
		rows := make([]row, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, row{
				TeamID:         e.TeamID,
				TeamName:       e.TeamName,
				TimeElapsedMS:  e.TimeElapsed.Milliseconds(),
				Resubmissions:  e.Resubmissions,
				CompletionDate: e.CompletionDate.Format("2006-01-02T15:04:05.000Z07:00"),
			})
		}
		writeJSON(w, http.StatusOK, rows)
	}
}

// Logs serves a team's audit trail, newest first, to its own members.
func Logs(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := ClaimsFrom(r.Context())
		teamID := chi.URLParam(r, "teamId")
		if claims == nil || claims.TeamID != teamID {
			writeError(w, http.StatusForbidden, "Unauthorized: cannot access other team logs")
			return
		}
		logs, err := st.Logs(r.Context(), teamID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to fetch logs")
			return
		}
		if logs == nil {
			logs = []store.SessionLogEntry{}
		}
		writeJSON(w, http.StatusOK, logs)
	}
}

func LookupTable(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, puzzle.Table())
}

func QueueStatus(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counts, err := st.QueueCounts(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to fetch queue status")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"totalTeams":      counts.TotalTeams,
			"assignedTeams":   counts.AssignedTeams,
			"pendingTeams":    counts.PendingTeams,
			"lookupTableSize": puzzle.TableSize(),
		})
	}
}

// QueueAssignments lists issued positions with each team's puzzle state.
func QueueAssignments(st store.Store) http.HandlerFunc {
	type row struct {
		Position       int              `json:"position"`
		TeamID         string           `json:"teamId"`
		TeamName       string           `json:"teamName"`
		SwitchValues   *puzzle.Switches `json:"switchValues"`
		Key4Bit        string           `json:"key4bit"`
		Round1Complete bool             `json:"round1Complete"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := st.QueueEntries(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to fetch assignments")
			return
		}
		rows := make([]row, 0, len(entries))
		for _, e := range entries {
			team, err := st.GetTeam(r.Context(), e.TeamID)
			if err != nil {
				continue
			}
			rr := row{
				Position:       e.Position,
				TeamID:         team.TeamID,
				TeamName:       team.TeamName,
				Key4Bit:        team.Key4Bit,
				Round1Complete: team.Round1Complete,
			}
			if s, ok := team.Switches(); ok {
				rr.SwitchValues = &s
			}
			rows = append(rows, rr)
		}
		writeJSON(w, http.StatusOK, rows)
	}
}

// AssignTeam force-assigns a specific team (admin).
func AssignTeam(assigner *queue.Assigner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		teamID := chi.URLParam(r, "teamId")
		asg, err := assigner.Assign(r.Context(), teamID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "Team not found")
		case errors.Is(err, store.ErrAlreadyAssigned):
			writeError(w, http.StatusBadRequest, "Team already assigned")
		case err != nil:
			writeError(w, http.StatusInternalServerError, "Failed to assign team")
		default:
			writeJSON(w, http.StatusOK, map[string]any{
				"success":    true,
				"message":    "Team assigned",
				"assignment": asg,
			})
		}
	}
}

// ResetQueue wipes all assignments and reinitializes puzzle state (admin).
func ResetQueue(st store.Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := st.ResetQueue(r.Context()); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to reset queue")
			return
		}
		logger.Warn("assignment queue reset")
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Queue reset successfully",
		})
	}
}

// Health reports store connectivity and the live connection count.
func Health(st store.Store, reg *presence.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeOK := st.Ping(r.Context()) == nil
		status := "ok"
		code := http.StatusOK
		if !storeOK {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, map[string]any{
			"status":            status,
			"storeConnected":    storeOK,
			"activeConnections": reg.Count(),
		})
	}
}
