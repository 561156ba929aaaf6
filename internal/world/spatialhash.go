package world

import (
	"fmt"

	"github.com/gridkeep/server/internal/idalloc"
	"go.uber.org/zap"
)

// PlayerID identifies a player across SpatialHash, VisibilityTracker, and
// PlayerRegistry. It is never a pointer — every component stores only the
// id and looks the Player up through the registry, so nothing can dangle
// after a disconnect.
type PlayerID = idalloc.ID

// Point is a tile coordinate.
type Point struct {
	X, Y int32
}

// ErrDuplicateID is returned by SpatialHash.Insert when id is already present.
type ErrDuplicateID struct{ ID PlayerID }

func (e ErrDuplicateID) Error() string { return fmt.Sprintf("spatialhash: id %d already inserted", uint64(e.ID)) }

type cellKey struct{ cx, cy int32 }

// SpatialHash is a flat-grid spatial index over a tile map. insert/remove/
// update are O(1) amortised; for_each_in_range visits only the cells that
// overlap the query square.
//
// The average cell population (~16 players or fewer in a dense scenario)
// depends on the cellSize the caller passes; the index does not enforce it.
type SpatialHash struct {
	cellSize      int32
	gridW, gridH  int32
	cells         [][]PlayerID          // flat grid, index = cy*gridW+cx
	fallback      map[cellKey][]PlayerID // positions outside the flat grid bounds
	cellOf        map[PlayerID]cellKey   // stored cell key — source of truth for Update's old cell
	posOf         map[PlayerID]Point     // stored exact position
	occupantAt    map[Point]PlayerID     // exact-tile occupancy, for IsOccupied
	log           *zap.Logger
}

// NewSpatialHash builds an index sized for a mapWidth x mapHeight world.
// cellSize is in tiles. ForEachInRange visits every cell overlapping the
// query square, so any cellSize >= 1 gives complete results; the size only
// trades the number of cells visited against their population.
func NewSpatialHash(mapWidth, mapHeight, cellSize int32, log *zap.Logger) *SpatialHash {
	if cellSize < 1 {
		cellSize = 1
	}
	gridW := (mapWidth + cellSize - 1) / cellSize
	gridH := (mapHeight + cellSize - 1) / cellSize
	if gridW < 1 {
		gridW = 1
	}
	if gridH < 1 {
		gridH = 1
	}
	return &SpatialHash{
		cellSize:   cellSize,
		gridW:      gridW,
		gridH:      gridH,
		cells:      make([][]PlayerID, gridW*gridH),
		fallback:   make(map[cellKey][]PlayerID),
		cellOf:     make(map[PlayerID]cellKey),
		posOf:      make(map[PlayerID]Point),
		occupantAt: make(map[Point]PlayerID),
		log:        log,
	}
}

func (h *SpatialHash) toCellCoord(v int32) int32 {
	if v < 0 {
		return (v - h.cellSize + 1) / h.cellSize
	}
	return v / h.cellSize
}

func (h *SpatialHash) key(x, y int32) cellKey {
	return cellKey{cx: h.toCellCoord(x), cy: h.toCellCoord(y)}
}

func (h *SpatialHash) index(ck cellKey) (int, bool) {
	if ck.cx < 0 || ck.cy < 0 || ck.cx >= h.gridW || ck.cy >= h.gridH {
		return 0, false
	}
	return int(ck.cy*h.gridW + ck.cx), true
}

func (h *SpatialHash) cellAppend(ck cellKey, id PlayerID) {
	if idx, ok := h.index(ck); ok {
		h.cells[idx] = append(h.cells[idx], id)
		return
	}
	// Out-of-grid position — rare, logged as a bug, handled via the fallback map.
	h.log.Error("spatial index: position outside configured grid bounds", zap.Int32("cx", ck.cx), zap.Int32("cy", ck.cy))
	h.fallback[ck] = append(h.fallback[ck], id)
}

func (h *SpatialHash) cellRemove(ck cellKey, id PlayerID) {
	if idx, ok := h.index(ck); ok {
		h.cells[idx] = removeID(h.cells[idx], id)
		return
	}
	h.fallback[ck] = removeID(h.fallback[ck], id)
	if len(h.fallback[ck]) == 0 {
		delete(h.fallback, ck)
	}
}

func removeID(s []PlayerID, id PlayerID) []PlayerID {
	for i, v := range s {
		if v == id {
			s[i] = s[len(s)-1]
			return s[:len(s)-1]
		}
	}
	return s
}

// Insert records id at (x,y). Returns ErrDuplicateID if id is already present.
func (h *SpatialHash) Insert(id PlayerID, x, y int32) error {
	if _, exists := h.cellOf[id]; exists {
		return ErrDuplicateID{ID: id}
	}
	ck := h.key(x, y)
	h.cellAppend(ck, id)
	h.cellOf[id] = ck
	p := Point{X: x, Y: y}
	h.posOf[id] = p
	h.occupantAt[p] = id
	return nil
}

// Remove takes id out of the index, using its stored cell key. A missing id
// is logged and silently ignored — never a panic.
func (h *SpatialHash) Remove(id PlayerID) {
	ck, ok := h.cellOf[id]
	if !ok {
		h.log.Debug("spatial index: remove of unknown id", zap.Uint64("id", uint64(id)))
		return
	}
	h.cellRemove(ck, id)
	delete(h.occupantAt, h.posOf[id])
	delete(h.cellOf, id)
	delete(h.posOf, id)
}

// Update moves id to (newX,newY). The OLD cell is derived from the index's
// own stored key, never from the id's external position — callers must
// mutate the player's position first and call Update second; the index is
// the source of truth for "where it used to be".
func (h *SpatialHash) Update(id PlayerID, newX, newY int32) {
	oldCk, ok := h.cellOf[id]
	if !ok {
		h.log.Debug("spatial index: update of unknown id", zap.Uint64("id", uint64(id)))
		return
	}
	delete(h.occupantAt, h.posOf[id])

	newCk := h.key(newX, newY)
	if newCk != oldCk {
		h.cellRemove(oldCk, id)
		h.cellAppend(newCk, id)
		h.cellOf[id] = newCk
	}

	p := Point{X: newX, Y: newY}
	h.posOf[id] = p
	h.occupantAt[p] = id
}

// ForEachInRange invokes visitor for every id whose cell overlaps the square
// [x-r, x+r] x [y-r, y+r]. Zero-copy: visitor receives ids directly from the
// backing slices, no intermediate collection is allocated. Cell-boundary
// false positives are possible; callers needing exact distance filter
// inside the visitor using IDs resolved through the registry.
func (h *SpatialHash) ForEachInRange(x, y, r int32, visitor func(PlayerID)) {
	minCk := h.key(x-r, y-r)
	maxCk := h.key(x+r, y+r)
	for cy := minCk.cy; cy <= maxCk.cy; cy++ {
		for cx := minCk.cx; cx <= maxCk.cx; cx++ {
			ck := cellKey{cx: cx, cy: cy}
			if idx, ok := h.index(ck); ok {
				for _, id := range h.cells[idx] {
					visitor(id)
				}
				continue
			}
			for _, id := range h.fallback[ck] {
				visitor(id)
			}
		}
	}
}

// IsOccupied reports whether any id other than the excluded ones sits at
// exactly (x,y).
func (h *SpatialHash) IsOccupied(x, y int32, exclude ...PlayerID) bool {
	occupant, ok := h.occupantAt[Point{X: x, Y: y}]
	if !ok {
		return false
	}
	for _, ex := range exclude {
		if occupant == ex {
			return false
		}
	}
	return true
}
