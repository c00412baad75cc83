package presence

import "sync"

// Registry maps live connection ids to the team they joined. It is
// populated when a websocket connect succeeds and cleared when the
// connection closes; durable membership (role slot, online flag) lives on
// the Team record, not here.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]string
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]string)}
}

func (r *Registry) Track(connectionID, teamID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[connectionID] = teamID
}

func (r *Registry) Forget(connectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, connectionID)
}

// TeamFor returns the team a connection joined, if any.
func (r *Registry) TeamFor(connectionID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	teamID, ok := r.conns[connectionID]
	return teamID, ok
}

// Count is the number of live tracked connections, reported by the
// liveness probe.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
