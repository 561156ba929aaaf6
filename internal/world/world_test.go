package world

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestWorld(w, h, viewRange int32) *World {
	tm := NewTileMap(w, h, make([]bool, w*h))
	return New(0, tm, viewRange, 10, zap.NewNop())
}

func TestWorldAddPlayerRejectsOccupiedSpawn(t *testing.T) {
	w := newTestWorld(50, 50, 5)
	if _, err := w.AddPlayer(1, "a", 10, 10); err != nil {
		t.Fatalf("first spawn: %v", err)
	}
	if _, err := w.AddPlayer(2, "b", 10, 10); err == nil {
		t.Fatalf("expected second spawn at same tile to fail")
	}
}

func TestWorldMoveUpdatesSpatialIndex(t *testing.T) {
	w := newTestWorld(50, 50, 5)
	p, err := w.AddPlayer(1, "a", 10, 10)
	if err != nil {
		t.Fatalf("add player: %v", err)
	}
	now := time.Unix(1000, 0)
	result := w.AttemptMovePlayer(p.ID, FacingEast, FacingEast, now, time.Second)
	if result != MoveOK {
		t.Fatalf("expected move to succeed, got %v", result)
	}
	if w.IsOccupied(10, 10) {
		t.Fatalf("expected old tile vacated after move")
	}
	if !w.IsOccupied(11, 10) {
		t.Fatalf("expected new tile occupied after move")
	}
}

func TestWorldVisibilityRoundTrip(t *testing.T) {
	w := newTestWorld(50, 50, 5)
	a, err := w.AddPlayer(1, "a", 10, 10)
	if err != nil {
		t.Fatalf("add a: %v", err)
	}
	b, err := w.AddPlayer(2, "b", 11, 10)
	if err != nil {
		t.Fatalf("add b: %v", err)
	}

	enteredA, _ := w.UpdateVisibility(a.ID)
	enteredB, _ := w.UpdateVisibility(b.ID)

	if len(enteredA) != 1 || enteredA[0] != b.ID {
		t.Fatalf("expected a to see b, got %v", enteredA)
	}
	if len(enteredB) != 1 || enteredB[0] != a.ID {
		t.Fatalf("expected b to see a, got %v", enteredB)
	}
}

func TestWorldRemovePlayerNotifiesObservers(t *testing.T) {
	w := newTestWorld(50, 50, 5)
	a, _ := w.AddPlayer(1, "a", 10, 10)
	b, _ := w.AddPlayer(2, "b", 11, 10)

	w.UpdateVisibility(a.ID)
	w.UpdateVisibility(b.ID)

	var notified []PlayerID
	w.RemovePlayer(b.ID, func(observer PlayerID) { notified = append(notified, observer) })

	if len(notified) != 1 || notified[0] != a.ID {
		t.Fatalf("expected a to be notified of b's departure, got %v", notified)
	}
	if _, ok := w.GetPlayer(b.ID); ok {
		t.Fatalf("expected removed player to no longer resolve")
	}
	if w.IsOccupied(11, 10) {
		t.Fatalf("expected b's tile vacated after removal")
	}
}

func TestWorldPlayersInRangeExcludesFarPlayers(t *testing.T) {
	w := newTestWorld(50, 50, 5)
	a, _ := w.AddPlayer(1, "a", 10, 10)
	_, _ = w.AddPlayer(2, "b", 11, 10)
	_, _ = w.AddPlayer(3, "c", 40, 40)

	near := w.PlayersInRange(10, 10, 5)
	found := map[PlayerID]bool{}
	for _, id := range near {
		found[id] = true
	}
	if !found[2] {
		t.Fatalf("expected nearby player in range")
	}
	if found[3] {
		t.Fatalf("expected far player excluded from range")
	}
	_ = a
}
