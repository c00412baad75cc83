package session

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/ciphercircuit/cipher-circuit-backend/internal/puzzle"
	"github.com/ciphercircuit/cipher-circuit-backend/internal/queue"
	"github.com/ciphercircuit/cipher-circuit-backend/internal/store"
	"github.com/ciphercircuit/cipher-circuit-backend/internal/types"
)

// Options are the coordinator policy knobs.
type Options struct {
	// RoleTakeover lets a new connection silently claim a role slot whose
	// holder is still online. Off by default: the claim is rejected until
	// the holder disconnects.
	RoleTakeover bool
}

// Session serializes all mutation of one team's record: every message is
// handled by a single goroutine, so two members racing to submit within
// milliseconds are still observed one after the other.
type Session struct {
	teamID  string
	inbox   chan Msg
	clients map[string]chan types.ServerMessage
	store   store.Store
	assign  *queue.Assigner
	opts    Options
	logger  *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

func New(parent context.Context, teamID string, st store.Store, assign *queue.Assigner, opts Options, logger *zap.Logger) *Session {
	ctx, cancel := context.WithCancel(parent)
	s := &Session{
		teamID:  teamID,
		inbox:   make(chan Msg, 64),
		clients: make(map[string]chan types.ServerMessage),
		store:   st,
		assign:  assign,
		opts:    opts,
		logger:  logger.With(zap.String("teamId", teamID)),
		ctx:     ctx,
		cancel:  cancel,
	}
	go s.loop()
	return s
}

func (s *Session) Inbox() chan<- Msg { return s.inbox }

func (s *Session) loop() {
	for {
		select {
		case <-s.ctx.Done():
			s.shutdown()
			return

		case m := <-s.inbox:
			if _, ok := m.(Shutdown); ok {
				s.shutdown()
				return
			}
			s.dispatch(m)
		}
	}
}

// dispatch is the coordinator's outer boundary: a panic in a handler is
// converted to a generic error event instead of killing the actor.
func (s *Session) dispatch(m Msg) {
	var from string
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("session handler panicked", zap.Any("panic", r))
			if from != "" {
				s.sendTo(from, errorMsg("Internal error"))
			}
		}
	}()

	switch msg := m.(type) {
	case Join:
		from = msg.Client.ConnectionID
		s.handleJoin(msg)
	case Disconnect:
		s.handleDisconnect(msg)
	case SubmitKey:
		from = msg.ConnectionID
		s.handleSubmitKey(msg)
	case SubmitEncryption:
		from = msg.ConnectionID
		s.handleSubmitEncryption(msg)
	case SubmitDecryption:
		from = msg.ConnectionID
		s.handleSubmitDecryption(msg)
	case GetState:
		team, _ := s.store.GetTeam(s.ctx, s.teamID)
		msg.Reply <- View{NumClients: len(s.clients), Team: team}
	}
}

func (s *Session) shutdown() {
	for id, ch := range s.clients {
		close(ch)
		delete(s.clients, id)
	}
	s.cancel()
}

func errorMsg(message string) types.ServerMessage {
	return types.ServerMessage{Type: types.EvtError, Data: types.ErrorPayload{Message: message}}
}

func (s *Session) sendTo(connectionID string, msg types.ServerMessage) {
	ch, ok := s.clients[connectionID]
	if !ok {
		return
	}
	select {
	case ch <- msg:
	default:
		// Slow or gone; drop the client, ws layer will reconnect it.
		close(ch)
		delete(s.clients, connectionID)
	}
}

func (s *Session) broadcast(msg types.ServerMessage) {
	for id, ch := range s.clients {
		select {
		case ch <- msg:
		default:
			close(ch)
			delete(s.clients, id)
		}
	}
}

func (s *Session) broadcastExcept(connectionID string, msg types.ServerMessage) {
	for id := range s.clients {
		if id != connectionID {
			s.sendTo(id, msg)
		}
	}
}

// pushStates sends each member their individually-projected state.
func (s *Session) pushStates(team *store.Team) {
	for i := range team.Members {
		s.sendTo(team.Members[i].ConnectionID, types.ServerMessage{
			Type: types.EvtTeamState,
			Data: BuildTeamState(team, &team.Members[i]),
		})
	}
}

func (s *Session) audit(connectionID, eventType string, data any) {
	entry := store.NewLogEntry(s.teamID, connectionID, eventType, data)
	if err := s.store.AppendLog(s.ctx, entry); err != nil {
		s.logger.Error("appending session log", zap.String("eventType", eventType), zap.Error(err))
	}
}

func (s *Session) handleJoin(m Join) {
	connID := m.Client.ConnectionID

	role, ok := NormalizeRole(m.Role)
	if !ok {
		s.deliver(m.Client, errorMsg("Invalid role. Use encrypt or decrypt."))
		return
	}

	team, _, err := s.store.EnsureTeam(s.ctx, s.teamID, m.TeamName)
	if err != nil {
		s.deliver(m.Client, errorMsg("Failed to join team"))
		s.logger.Error("ensuring team", zap.Error(err))
		return
	}

	// Assignment happens once, immediately after creation, or lazily when
	// a team record exists with incomplete puzzle state.
	if !team.Assigned() {
		if _, err := s.assign.Assign(s.ctx, s.teamID); err != nil && !errors.Is(err, store.ErrAlreadyAssigned) {
			s.logger.Error("assigning team", zap.Error(err))
		}
		if team, err = s.store.GetTeam(s.ctx, s.teamID); err != nil {
			s.deliver(m.Client, errorMsg("Failed to join team"))
			s.logger.Error("reloading team after assignment", zap.Error(err))
			return
		}
	}

	replacedConn := ""
	switch member := team.MemberByConnection(connID); {
	case member != nil:
		member.Online = true

	default:
		holder := team.MemberByRole(role)
		switch {
		case holder == nil && len(team.Members) < 2:
			team.Members = append(team.Members, store.Member{
				TeamID:       s.teamID,
				ConnectionID: connID,
				Role:         role,
				Online:       true,
			})
		case holder != nil && (!holder.Online || s.opts.RoleTakeover):
			replacedConn = holder.ConnectionID
			holder.ConnectionID = connID
			holder.Online = true
		case holder != nil:
			s.deliver(m.Client, errorMsg("Role already held by an online teammate"))
			return
		default:
			// Two slots taken and the requested role is free: can only
			// happen on corrupted data.
			s.deliver(m.Client, errorMsg("Team is full"))
			return
		}
	}

	roundAdvanced := false
	if team.OnlineCount() == 2 && team.Round == 0 {
		team.Round = 1
		roundAdvanced = true
	}

	if err := s.store.SaveTeam(s.ctx, team); err != nil {
		s.deliver(m.Client, errorMsg("Failed to join team"))
		s.logger.Error("saving team on join", zap.Error(err))
		return
	}

	// A taken-over connection no longer speaks for the slot.
	if replacedConn != "" && replacedConn != connID {
		if ch, ok := s.clients[replacedConn]; ok {
			close(ch)
			delete(s.clients, replacedConn)
		}
	}
	s.clients[connID] = m.Client.Outbox
	s.audit(connID, "join", map[string]any{"role": role, "memberCount": len(team.Members)})

	member := team.MemberByConnection(connID)
	s.sendTo(connID, types.ServerMessage{Type: types.EvtTeamState, Data: BuildTeamState(team, member)})
	if roundAdvanced {
		s.logger.Info("both members online, round 1 started")
		s.pushStates(team)
	}
	s.broadcastExcept(connID, types.ServerMessage{
		Type: types.EvtTeammateJoined,
		Data: types.TeammateJoined{ConnectionID: connID, MemberCount: len(team.Members)},
	})
}

// deliver writes to an outbox that may not be registered yet (join-time
// failures happen before the client is added to the room).
func (s *Session) deliver(c Client, msg types.ServerMessage) {
	select {
	case c.Outbox <- msg:
	default:
	}
}

func (s *Session) handleDisconnect(m Disconnect) {
	delete(s.clients, m.ConnectionID)

	team, err := s.store.GetTeam(s.ctx, s.teamID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.Error("loading team on disconnect", zap.Error(err))
		}
		return
	}
	member := team.MemberByConnection(m.ConnectionID)
	if member == nil {
		return
	}
	member.Online = false
	if err := s.store.SaveTeam(s.ctx, team); err != nil {
		s.logger.Error("saving team on disconnect", zap.Error(err))
		return
	}
	s.audit(m.ConnectionID, "disconnect", map[string]any{"memberCount": len(team.Members)})
	s.broadcast(types.ServerMessage{
		Type: types.EvtTeammateLeft,
		Data: types.TeammateLeft{ConnectionID: m.ConnectionID, MemberCount: team.OnlineCount()},
	})
}

func (s *Session) handleSubmitKey(m SubmitKey) {
	team, err := s.store.GetTeam(s.ctx, s.teamID)
	if err != nil {
		s.sendTo(m.ConnectionID, errorMsg("Team not found"))
		return
	}

	correct := ""
	if switches, ok := team.Switches(); ok {
		correct, _ = puzzle.KeyForSwitches(switches)
	}

	if correct == "" || m.Key != correct {
		team.Resubmissions++
		if err := s.store.SaveTeam(s.ctx, team); err != nil {
			s.logger.Error("saving failed key submission", zap.Error(err))
		}
		s.audit(m.ConnectionID, "submit_round1_failed", map[string]any{"submittedKey": m.Key})
		s.sendTo(m.ConnectionID, types.ServerMessage{
			Type: types.EvtRound1Result,
			Data: types.Round1Result{Success: false, Message: "Incorrect key"},
		})
		return
	}

	// One entry per connection: a repeat submission replaces the prior one
	// and never double-counts toward completion.
	if sub := team.SubmissionByConnection(m.ConnectionID); sub != nil {
		sub.Key = m.Key
		sub.SubmittedAt = time.Now()
	} else {
		team.Round1Submissions = append(team.Round1Submissions, store.Round1Submission{
			TeamID:       s.teamID,
			ConnectionID: m.ConnectionID,
			Key:          m.Key,
			SubmittedAt:  time.Now(),
		})
	}

	if len(team.Round1Submissions) == 2 {
		team.Key4Bit = m.Key
		team.Key8Bit = puzzle.ExpandKey(m.Key)
		team.Round1Complete = true
		team.Round = 2

		if err := s.store.SaveTeam(s.ctx, team); err != nil {
			s.sendTo(m.ConnectionID, errorMsg("Failed to submit key"))
			s.logger.Error("saving round 1 completion", zap.Error(err))
			return
		}
		s.audit(m.ConnectionID, "round1_complete", map[string]any{"key4bit": m.Key, "key8bit": team.Key8Bit})
		s.logger.Info("round 1 complete", zap.String("key8bit", team.Key8Bit))

		s.broadcast(types.ServerMessage{
			Type: types.EvtRound1Result,
			Data: types.Round1Result{
				Success: true,
				Message: "Round 1 complete! Expanding key...",
				Key8Bit: team.Key8Bit,
			},
		})
		s.pushStates(team)
		return
	}

	if err := s.store.SaveTeam(s.ctx, team); err != nil {
		s.sendTo(m.ConnectionID, errorMsg("Failed to submit key"))
		s.logger.Error("saving round 1 submission", zap.Error(err))
		return
	}
	s.sendTo(m.ConnectionID, types.ServerMessage{
		Type: types.EvtRound1Result,
		Data: types.Round1Result{
			Success:            true,
			Message:            "Key verified. Waiting for teammate...",
			WaitingForTeammate: true,
		},
	})
}

func (s *Session) handleSubmitEncryption(m SubmitEncryption) {
	team, err := s.store.GetTeam(s.ctx, s.teamID)
	if err != nil {
		s.sendTo(m.ConnectionID, errorMsg("Team not found"))
		return
	}

	member := team.MemberByConnection(m.ConnectionID)
	if member == nil || member.Role != store.RoleEncrypt {
		s.sendTo(m.ConnectionID, errorMsg("Only the encrypt teammate can submit encryption"))
		return
	}

	team.Ciphertext = m.Ciphertext
	team.PlaintextDecimal = m.Plaintext
	if err := s.store.SaveTeam(s.ctx, team); err != nil {
		s.sendTo(m.ConnectionID, errorMsg("Failed to submit encryption"))
		s.logger.Error("saving encryption", zap.Error(err))
		return
	}
	s.audit(m.ConnectionID, "submit_encryption", map[string]any{"ciphertext": m.Ciphertext, "plaintext": m.Plaintext})

	s.sendTo(m.ConnectionID, types.ServerMessage{
		Type: types.EvtEncryptionResult,
		Data: types.EncryptionResult{Success: true, Message: "Ciphertext transmitted to teammate"},
	})
	s.broadcastExcept(m.ConnectionID, types.ServerMessage{
		Type: types.EvtCiphertextReceived,
		Data: types.CiphertextReceived{Ciphertext: m.Ciphertext},
	})
}

func (s *Session) handleSubmitDecryption(m SubmitDecryption) {
	team, err := s.store.GetTeam(s.ctx, s.teamID)
	if err != nil {
		s.sendTo(m.ConnectionID, errorMsg("Team not found"))
		return
	}

	member := team.MemberByConnection(m.ConnectionID)
	if member == nil || member.Role != store.RoleDecrypt {
		s.sendTo(m.ConnectionID, errorMsg("Only the decrypt teammate can submit decryption"))
		return
	}

	// Completion is one-shot: replays after round 2 is done never touch the
	// leaderboard or re-broadcast, and completionTime keeps its first value.
	if team.Round2Complete {
		result := types.DecryptionResult{Success: false, Message: "Round 2 already complete"}
		if m.Value == team.PlaintextDecimal && team.CompletionTime != nil {
			result = types.DecryptionResult{
				Success:       true,
				Message:       "Round 2 already complete",
				TimeElapsedMS: team.CompletionTime.Sub(team.StartTime).Milliseconds(),
				Resubmissions: team.Resubmissions,
			}
		}
		s.sendTo(m.ConnectionID, types.ServerMessage{Type: types.EvtDecryptionResult, Data: result})
		return
	}

	// String-exact comparison, no numeric coercion: the decrypt member must
	// reproduce exactly what the encrypt member stored.
	if m.Value != team.PlaintextDecimal {
		team.Resubmissions++
		if err := s.store.SaveTeam(s.ctx, team); err != nil {
			s.logger.Error("saving failed decryption", zap.Error(err))
		}
		s.audit(m.ConnectionID, "submit_decryption_failed", map[string]any{"submittedValue": m.Value})
		s.sendTo(m.ConnectionID, types.ServerMessage{
			Type: types.EvtDecryptionResult,
			Data: types.DecryptionResult{Success: false, Message: "Incorrect decryption"},
		})
		return
	}

	now := time.Now()
	team.Round2Complete = true
	team.CompletionTime = &now
	elapsed := now.Sub(team.StartTime)

	if err := s.store.SaveTeam(s.ctx, team); err != nil {
		s.sendTo(m.ConnectionID, errorMsg("Failed to submit decryption"))
		s.logger.Error("saving round 2 completion", zap.Error(err))
		return
	}
	s.audit(m.ConnectionID, "round2_complete", map[string]any{
		"decryptedValue": m.Value,
		"timeElapsed":    elapsed.Milliseconds(),
		"resubmissions":  team.Resubmissions,
	})

	if err := s.store.UpsertLeaderboard(s.ctx, store.LeaderboardEntry{
		TeamID:         s.teamID,
		TeamName:       team.TeamName,
		TimeElapsed:    elapsed,
		Resubmissions:  team.Resubmissions,
		CompletionDate: now,
	}); err != nil {
		s.logger.Error("upserting leaderboard", zap.Error(err))
	}
	s.logger.Info("round 2 complete",
		zap.Int64("timeElapsedMs", elapsed.Milliseconds()),
		zap.Int("resubmissions", team.Resubmissions),
	)

	s.sendTo(m.ConnectionID, types.ServerMessage{
		Type: types.EvtDecryptionResult,
		Data: types.DecryptionResult{
			Success:       true,
			Message:       "Round 2 complete!",
			TimeElapsedMS: elapsed.Milliseconds(),
			Resubmissions: team.Resubmissions,
		},
	})
	s.broadcast(types.ServerMessage{
		Type: types.EvtCompetitionComplete,
		Data: types.CompetitionComplete{
			TimeElapsedMS: elapsed.Milliseconds(),
			Resubmissions: team.Resubmissions,
		},
	})
	s.pushStates(team)
}
