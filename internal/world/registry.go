package world

import "github.com/gridkeep/server/internal/idalloc"

// PlayerRegistry owns the canonical Player objects and the id allocator
// backing them. Every other component refers to a player by PlayerID and
// resolves it here rather than holding a *Player across a tick boundary.
type PlayerRegistry struct {
	pool       *idalloc.Pool
	byID       map[PlayerID]*Player
	byConnID   map[uint64]PlayerID
}

func NewPlayerRegistry() *PlayerRegistry {
	return &PlayerRegistry{
		pool:     idalloc.NewPool(),
		byID:     make(map[PlayerID]*Player),
		byConnID: make(map[uint64]PlayerID),
	}
}

// Create allocates a fresh PlayerID and registers a new Player under it.
func (r *PlayerRegistry) Create(connID uint64, accountName string, mapID, x, y int32) *Player {
	id := r.pool.Acquire()
	p := NewPlayer(id, connID, accountName, mapID, x, y)
	r.byID[id] = p
	r.byConnID[connID] = id
	return p
}

// GetByID resolves id to its Player, rejecting a stale (already-released)
// generation even if the map somehow still held an entry for it.
func (r *PlayerRegistry) GetByID(id PlayerID) (*Player, bool) {
	if !r.pool.Live(id) {
		return nil, false
	}
	p, ok := r.byID[id]
	return p, ok
}

// GetByConnID resolves the PlayerID associated with a connection.
func (r *PlayerRegistry) GetByConnID(connID uint64) (*Player, bool) {
	id, ok := r.byConnID[connID]
	if !ok {
		return nil, false
	}
	return r.GetByID(id)
}

// Remove releases id's slot and drops the Player from the registry. Callers
// are responsible for also removing id from SpatialHash and
// VisibilityTracker before or after this call, per World.RemovePlayer.
func (r *PlayerRegistry) Remove(id PlayerID) {
	p, ok := r.byID[id]
	if !ok {
		return
	}
	delete(r.byConnID, p.ConnID)
	delete(r.byID, id)
	r.pool.Release(id)
}

// DrainDirty returns every Player with pending changes and clears their
// dirty flag, for a PersistenceSystem to batch-save once per interval.
func (r *PlayerRegistry) DrainDirty() []*Player {
	var dirty []*Player
	for _, p := range r.byID {
		if p.Dirty {
			dirty = append(dirty, p)
			p.Dirty = false
		}
	}
	return dirty
}

// ForEach visits every live player. The callback must not add or remove
// players during iteration.
func (r *PlayerRegistry) ForEach(fn func(*Player)) {
	for _, p := range r.byID {
		fn(p)
	}
}

// Count returns the number of live players.
func (r *PlayerRegistry) Count() int {
	return len(r.byID)
}
