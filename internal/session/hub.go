package session

import (
	"context"

	"go.uber.org/zap"

	"github.com/ciphercircuit/cipher-circuit-backend/internal/queue"
	"github.com/ciphercircuit/cipher-circuit-backend/internal/store"
)

type HubMsg interface{ isHubMsg() }

// EnsureSession returns the team's session, creating it on first use.
type EnsureSession struct {
	TeamID string
	Reply  chan *Session
}

type GetSession struct {
	TeamID string
	Reply  chan *Session
}

type RemoveSession struct{ TeamID string }

type ShutdownHub struct{}

func (EnsureSession) isHubMsg() {}
func (GetSession) isHubMsg()    {}
func (RemoveSession) isHubMsg() {}
func (ShutdownHub) isHubMsg()   {}

// Hub owns the teamID -> session map. Like the sessions themselves it is an
// actor: all map access happens on one goroutine.
type Hub struct {
	inbox    chan HubMsg
	sessions map[string]*Session
	store    store.Store
	assign   *queue.Assigner
	opts     Options
	logger   *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewHub(parent context.Context, st store.Store, assign *queue.Assigner, opts Options, logger *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:    make(chan HubMsg, 64),
		sessions: make(map[string]*Session),
		store:    st,
		assign:   assign,
		opts:     opts,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

// Ensure is a convenience wrapper around the EnsureSession message.
func (h *Hub) Ensure(teamID string) *Session {
	reply := make(chan *Session, 1)
	h.inbox <- EnsureSession{TeamID: teamID, Reply: reply}
	return <-reply
}

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case EnsureSession:
				s := h.sessions[msg.TeamID]
				if s == nil {
					s = New(h.ctx, msg.TeamID, h.store, h.assign, h.opts, h.logger)
					h.sessions[msg.TeamID] = s
				}
				msg.Reply <- s

			case GetSession:
				msg.Reply <- h.sessions[msg.TeamID] // may be nil

			case RemoveSession:
				delete(h.sessions, msg.TeamID)

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) shutdown() {
	for _, s := range h.sessions {
		s.Inbox() <- Shutdown{}
	}
	clear(h.sessions)
	h.cancel()
}
