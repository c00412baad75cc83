package session

import (
	"github.com/ciphercircuit/cipher-circuit-backend/internal/store"
	"github.com/ciphercircuit/cipher-circuit-backend/internal/types"
)

type Msg interface{ isSessionMsg() }

// Client is one live connection's identity and delivery channel.
type Client struct {
	ConnectionID string
	Outbox       chan types.ServerMessage
}

// Join registers a connection in the team room and claims or resumes a
// role slot.
type Join struct {
	Client   Client
	TeamName string
	Role     string
}

func (Join) isSessionMsg() {}

// Disconnect marks the connection's member offline. The role slot survives.
type Disconnect struct{ ConnectionID string }

func (Disconnect) isSessionMsg() {}

type SubmitKey struct {
	ConnectionID string
	Key          string
}

func (SubmitKey) isSessionMsg() {}

type SubmitEncryption struct {
	ConnectionID string
	Ciphertext   string
	Plaintext    string
}

func (SubmitEncryption) isSessionMsg() {}

type SubmitDecryption struct {
	ConnectionID string
	Value        string
}

func (SubmitDecryption) isSessionMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isSessionMsg() {}

type Shutdown struct{}

func (Shutdown) isSessionMsg() {}

// View reflects internal state without data races; test-only.
type View struct {
	NumClients int
	Team       *store.Team
}
