package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ciphercircuit/cipher-circuit-backend/internal/auth"
	"github.com/ciphercircuit/cipher-circuit-backend/internal/presence"
	"github.com/ciphercircuit/cipher-circuit-backend/internal/session"
	"github.com/ciphercircuit/cipher-circuit-backend/internal/types"
)

// Handler upgrades an authenticated connection and shuttles events between
// the socket and the team's session actor.
func Handler(hub *session.Hub, verifier *auth.Verifier, reg *presence.Registry, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := verifier.ParseToken(r.URL.Query().Get("token"))
		if err != nil {
			http.Error(w, "invalid or expired token", http.StatusUnauthorized)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			// Clients connect from the contest frontend's origin.
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		connID := uuid.NewString()
		out := make(chan types.ServerMessage, 8)
		log := logger.With(zap.String("connectionId", connID), zap.String("teamId", claims.TeamID))
		log.Info("client connected")

		var joined *session.Session
		defer func() {
			if joined != nil {
				joined.Inbox() <- session.Disconnect{ConnectionID: connID}
			}
			reg.Forget(connID)
			log.Info("client disconnected")
		}()

		// Writer goroutine: the session closes the outbox when it drops us.
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for msg := range out {
				payload, err := json.Marshal(msg)
				if err != nil {
					continue
				}
				ctx, cancel := context.WithTimeout(writeCtx, 3*time.Second)
				_ = conn.Write(ctx, websocket.MessageText, payload)
				cancel()
			}
		}()

		sendError := func(message string) {
			payload, _ := json.Marshal(types.ServerMessage{
				Type: types.EvtError,
				Data: types.ErrorPayload{Message: message},
			})
			_ = conn.Write(r.Context(), websocket.MessageText, payload)
		}

		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					return
				}
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				sendError("Malformed message")
				continue
			}

			// The credential is the source of truth for team identity;
			// events naming another team are rejected outright.
			if cm.TeamID != "" && cm.TeamID != claims.TeamID {
				sendError("Unauthorized: cannot act for another team")
				continue
			}

			switch cm.Type {
			case types.EvtJoinTeam:
				teamName := cm.TeamName
				if teamName == "" {
					teamName = claims.TeamName
				}
				s := hub.Ensure(claims.TeamID)
				s.Inbox() <- session.Join{
					Client:   session.Client{ConnectionID: connID, Outbox: out},
					TeamName: teamName,
					Role:     cm.Role,
				}
				joined = s
				reg.Track(connID, claims.TeamID)

			case types.EvtSubmitRound1Key:
				if joined == nil {
					sendError("Join a team first")
					continue
				}
				joined.Inbox() <- session.SubmitKey{ConnectionID: connID, Key: cm.Key}

			case types.EvtSubmitEncryption:
				if joined == nil {
					sendError("Join a team first")
					continue
				}
				joined.Inbox() <- session.SubmitEncryption{
					ConnectionID: connID,
					Ciphertext:   cm.Ciphertext,
					Plaintext:    cm.Plaintext,
				}

			case types.EvtSubmitDecryption:
				if joined == nil {
					sendError("Join a team first")
					continue
				}
				joined.Inbox() <- session.SubmitDecryption{ConnectionID: connID, Value: cm.DecryptedValue}

			default:
				sendError("Unknown event type")
			}
		}
	}
}
