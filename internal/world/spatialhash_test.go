package world

import (
	"testing"

	"go.uber.org/zap"
)

func TestSpatialHashInsertAndRange(t *testing.T) {
	h := NewSpatialHash(100, 100, 10, zap.NewNop())
	if err := h.Insert(1, 5, 5); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := h.Insert(2, 6, 6); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := h.Insert(1, 50, 50); err == nil {
		t.Fatalf("expected ErrDuplicateID on re-insert of same id")
	}

	seen := map[PlayerID]bool{}
	h.ForEachInRange(5, 5, 2, func(id PlayerID) { seen[id] = true })
	if !seen[1] || !seen[2] {
		t.Fatalf("expected both ids within range, got %v", seen)
	}

	seen = map[PlayerID]bool{}
	h.ForEachInRange(90, 90, 1, func(id PlayerID) { seen[id] = true })
	if len(seen) != 0 {
		t.Fatalf("expected no ids far from any insert, got %v", seen)
	}
}

func TestSpatialHashUpdateMovesCell(t *testing.T) {
	h := NewSpatialHash(100, 100, 10, zap.NewNop())
	if err := h.Insert(1, 5, 5); err != nil {
		t.Fatalf("insert: %v", err)
	}
	h.Update(1, 95, 95)

	var near []PlayerID
	h.ForEachInRange(5, 5, 1, func(id PlayerID) { near = append(near, id) })
	if len(near) != 0 {
		t.Fatalf("expected old cell empty after update, got %v", near)
	}

	var far []PlayerID
	h.ForEachInRange(95, 95, 1, func(id PlayerID) { far = append(far, id) })
	if len(far) != 1 || far[0] != 1 {
		t.Fatalf("expected id 1 at new position, got %v", far)
	}
}

func TestSpatialHashUpdateIsIdempotentAtSamePosition(t *testing.T) {
	h := NewSpatialHash(100, 100, 10, zap.NewNop())
	if err := h.Insert(1, 5, 5); err != nil {
		t.Fatalf("insert: %v", err)
	}
	h.Update(1, 5, 5)
	h.Update(1, 5, 5)

	var ids []PlayerID
	h.ForEachInRange(5, 5, 0, func(id PlayerID) { ids = append(ids, id) })
	if len(ids) != 1 || ids[0] != 1 {
		t.Fatalf("expected exactly one entry for id 1 after repeated no-op updates, got %v", ids)
	}
}

func TestSpatialHashIsOccupiedExcludesSelf(t *testing.T) {
	h := NewSpatialHash(100, 100, 10, zap.NewNop())
	if err := h.Insert(1, 5, 5); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if !h.IsOccupied(5, 5) {
		t.Fatalf("expected (5,5) occupied")
	}
	if h.IsOccupied(5, 5, 1) {
		t.Fatalf("expected (5,5) to read unoccupied when excluding its own occupant")
	}
	if h.IsOccupied(4, 4) {
		t.Fatalf("expected (4,4) unoccupied")
	}
}

func TestSpatialHashRemove(t *testing.T) {
	h := NewSpatialHash(100, 100, 10, zap.NewNop())
	if err := h.Insert(1, 5, 5); err != nil {
		t.Fatalf("insert: %v", err)
	}
	h.Remove(1)
	if h.IsOccupied(5, 5) {
		t.Fatalf("expected (5,5) unoccupied after remove")
	}
	// Removing again must not panic.
	h.Remove(1)
}

func TestSpatialHashNegativeCoordinates(t *testing.T) {
	h := NewSpatialHash(100, 100, 10, zap.NewNop())
	if err := h.Insert(1, -5, -5); err != nil {
		t.Fatalf("insert: %v", err)
	}
	var ids []PlayerID
	h.ForEachInRange(-5, -5, 1, func(id PlayerID) { ids = append(ids, id) })
	if len(ids) != 1 || ids[0] != 1 {
		t.Fatalf("expected id 1 in fallback region, got %v", ids)
	}
}
