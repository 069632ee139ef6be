// Package gamelayer is a minimal external collaborator standing in for
// the game rules the core keeps out of its own scope: a player registry
// and a flat-world chunk source satisfying world/chunk.Source, enough to
// drive the login-through-chunk-sync pipeline end to end.
package gamelayer

import (
	"sync"

	"github.com/google/uuid"

	"github.com/bedrockd/bedrockd/world/chunk"
)

// Player is the minimal per-connection record the game layer tracks,
// keyed by a UUID derived from the session's XUID so the same account
// always maps to the same identifier across reconnects.
type Player struct {
	UUID        uuid.UUID
	XUID        string
	DisplayName string
	Position    [3]float32
}

// Registry tracks connected players, keyed by UUID.
type Registry struct {
	mu      sync.RWMutex
	players map[uuid.UUID]*Player
}

// NewRegistry returns an empty player registry.
func NewRegistry() *Registry {
	return &Registry{players: make(map[uuid.UUID]*Player)}
}

// uuidNamespace seeds the deterministic per-account UUIDs this registry
// mints; any fixed namespace works, it only needs to be stable across runs.
var uuidNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// Join registers a newly authenticated player and returns its record.
func (r *Registry) Join(xuid, displayName string) *Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := uuid.NewSHA1(uuidNamespace, []byte(xuid))
	p := &Player{UUID: id, XUID: xuid, DisplayName: displayName}
	r.players[id] = p
	return p
}

// Leave removes a player from the registry.
func (r *Registry) Leave(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.players, id)
}

// LeaveByXUID removes the player minted for xuid, if any. Callers that
// only have the session's XUID (e.g. on disconnect) can use this instead
// of recomputing the UUID themselves.
func (r *Registry) LeaveByXUID(xuid string) {
	r.Leave(uuid.NewSHA1(uuidNamespace, []byte(xuid)))
}

// Count returns the number of tracked players.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players)
}

var _ chunk.Source = (*FlatWorld)(nil)
