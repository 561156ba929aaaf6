// Package world holds the single simulated map: static terrain, live player
// positions, and the visibility relationship between players. Everything
// here runs on the tick goroutine only — no internal locking.
package world

import (
	"time"

	"go.uber.org/zap"
)

// World composes the terrain, spatial index, visibility tracker, and player
// registry into the one facade the tick-loop systems call into. It owns the
// ordering discipline the pieces require: a player's position is mutated
// before the spatial index is told to move it, and a departing player's
// observers are notified before its visibility bookkeeping is torn down.
type World struct {
	MapID     int32
	TileMap   *TileMap
	ViewRange int32

	spatial    *SpatialHash
	visibility *VisibilityTracker
	registry   *PlayerRegistry

	log *zap.Logger
}

func New(mapID int32, tileMap *TileMap, viewRange, cellSize int32, log *zap.Logger) *World {
	return &World{
		MapID:      mapID,
		TileMap:    tileMap,
		ViewRange:  viewRange,
		spatial:    NewSpatialHash(tileMap.Width(), tileMap.Height(), cellSize, log),
		visibility: NewVisibilityTracker(),
		registry:   NewPlayerRegistry(),
		log:        log,
	}
}

// AddPlayer creates a new Player at (x,y), indexing it for spatial queries
// and visibility tracking. Returns an error if (x,y) is already occupied or
// out of bounds — callers should pick an open, unoccupied spawn tile before
// calling this.
func (w *World) AddPlayer(connID uint64, accountName string, x, y int32) (*Player, error) {
	if w.TileMap.IsBlocked(x, y) {
		return nil, ErrSpawnBlocked{X: x, Y: y}
	}
	if w.spatial.IsOccupied(x, y) {
		return nil, ErrSpawnBlocked{X: x, Y: y}
	}
	p := w.registry.Create(connID, accountName, w.MapID, x, y)
	if err := w.spatial.Insert(p.ID, x, y); err != nil {
		w.registry.Remove(p.ID)
		return nil, err
	}
	w.visibility.Initialize(p.ID)
	return p, nil
}

// ErrSpawnBlocked is returned when a requested spawn tile is unusable.
type ErrSpawnBlocked struct{ X, Y int32 }

func (e ErrSpawnBlocked) Error() string { return "world: spawn tile blocked or occupied" }

// RemovePlayer tears a player out of every index. notify is called once per
// observer that currently knows about id, before the visibility bookkeeping
// for id is discarded — the caller uses it to queue a "left view" packet to
// observers who would otherwise never see id vanish from a later range query.
func (w *World) RemovePlayer(id PlayerID, notify func(observer PlayerID)) {
	if notify != nil {
		w.visibility.NotifyObserversOfDeparture(id, 0, 0, 0, nil, notify)
	}
	w.visibility.RemovePlayer(id)
	w.spatial.Remove(id)
	w.registry.Remove(id)
}

// AttemptMovePlayer runs the move state machine for id and, on success,
// keeps the spatial index consistent with the player's new position.
func (w *World) AttemptMovePlayer(id PlayerID, dir, facing Facing, now time.Time, cooldown time.Duration) MoveResult {
	p, ok := w.registry.GetByID(id)
	if !ok {
		return MoveBlockedTerrain
	}
	result := p.AttemptMove(now, cooldown, w.TileMap, func(x, y int32) bool {
		return w.spatial.IsOccupied(x, y, id)
	}, dir, facing)
	if result == MoveOK {
		w.spatial.Update(id, p.X, p.Y)
	}
	return result
}

// UpdateVisibility recomputes id's known set from its current position and
// returns who entered and left view this tick.
func (w *World) UpdateVisibility(id PlayerID) (entered, left []PlayerID) {
	p, ok := w.registry.GetByID(id)
	if !ok {
		return nil, nil
	}
	visible := w.PlayersInRange(p.X, p.Y, w.ViewRange)
	return w.visibility.Update(id, visible)
}

// PlayersInRange collects every player id within a Chebyshev range r of
// (x,y), excluding none. This allocates a slice and is meant for
// once-per-tick bookkeeping, not a hot inner loop — ForEachInRangeFunc
// below is the zero-copy, unfiltered form for callers that can use a visitor.
func (w *World) PlayersInRange(x, y, r int32) []PlayerID {
	var out []PlayerID
	w.spatial.ForEachInRange(x, y, r, func(id PlayerID) {
		if p, ok := w.registry.GetByID(id); ok && chebyshev(p.X-x, p.Y-y) <= r {
			out = append(out, id)
		}
	})
	return out
}

// ForEachInRangeFunc is the zero-copy form of PlayersInRange. It visits every
// id in the cells overlapping the query square without the exact-distance
// filter, so ids at cell boundaries beyond r can be visited.
func (w *World) ForEachInRangeFunc(x, y, r int32, visitor func(PlayerID)) {
	w.spatial.ForEachInRange(x, y, r, visitor)
}

// IsOccupied reports whether any player other than exclude occupies (x,y).
func (w *World) IsOccupied(x, y int32, exclude ...PlayerID) bool {
	return w.spatial.IsOccupied(x, y, exclude...)
}

// Knows reports whether observer currently has target in its known set.
func (w *World) Knows(observer, target PlayerID) bool { return w.visibility.Knows(observer, target) }

// GetPlayer resolves id through the registry.
func (w *World) GetPlayer(id PlayerID) (*Player, bool) { return w.registry.GetByID(id) }

// GetPlayerByConn resolves the player owning a connection.
func (w *World) GetPlayerByConn(connID uint64) (*Player, bool) { return w.registry.GetByConnID(connID) }

// DrainDirtyPlayers returns and clears every player with unsaved changes.
func (w *World) DrainDirtyPlayers() []*Player { return w.registry.DrainDirty() }

// ForEachPlayer visits every live player.
func (w *World) ForEachPlayer(fn func(*Player)) { w.registry.ForEach(fn) }

// PlayerCount returns the number of live players.
func (w *World) PlayerCount() int { return w.registry.Count() }
