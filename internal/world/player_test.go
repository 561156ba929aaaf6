package world

import (
	"testing"
	"time"
)

func openTileMap(w, h int32) *TileMap {
	return NewTileMap(w, h, make([]bool, w*h))
}

func TestAttemptMoveAcceptsOpenTile(t *testing.T) {
	p := NewPlayer(1, 100, "acct", 0, 5, 5)
	tm := openTileMap(10, 10)

	result := p.AttemptMove(time.Unix(100, 0), time.Second, tm, func(int32, int32) bool { return false }, FacingEast, FacingEast)
	if result != MoveOK {
		t.Fatalf("expected MoveOK, got %v", result)
	}
	if p.X != 6 || p.Y != 5 {
		t.Fatalf("expected position (6,5), got (%d,%d)", p.X, p.Y)
	}
	if p.Facing != FacingEast {
		t.Fatalf("expected facing east, got %v", p.Facing)
	}
	if !p.Dirty {
		t.Fatalf("expected Dirty set after a successful move")
	}
}

func TestAttemptMoveRejectsDuringCooldown(t *testing.T) {
	p := NewPlayer(1, 100, "acct", 0, 5, 5)
	tm := openTileMap(10, 10)
	now := time.Unix(100, 0)

	if r := p.AttemptMove(now, time.Second, tm, func(int32, int32) bool { return false }, FacingEast, FacingEast); r != MoveOK {
		t.Fatalf("expected first move to succeed, got %v", r)
	}
	r := p.AttemptMove(now.Add(100*time.Millisecond), time.Second, tm, func(int32, int32) bool { return false }, FacingEast, FacingEast)
	if r != MoveBlockedCooldown {
		t.Fatalf("expected MoveBlockedCooldown, got %v", r)
	}
	if p.X != 6 {
		t.Fatalf("rejected move must not change position, got x=%d", p.X)
	}
}

func TestAttemptMoveRejectsBlockedTerrainButStillTurns(t *testing.T) {
	blocked := make([]bool, 10*10)
	blocked[5*10+6] = true
	tm := NewTileMap(10, 10, blocked)
	p := NewPlayer(1, 100, "acct", 0, 5, 5)

	r := p.AttemptMove(time.Unix(100, 0), time.Second, tm, func(int32, int32) bool { return false }, FacingEast, FacingEast)
	if r != MoveBlockedTerrain {
		t.Fatalf("expected MoveBlockedTerrain, got %v", r)
	}
	if p.X != 5 || p.Y != 5 {
		t.Fatalf("expected position unchanged, got (%d,%d)", p.X, p.Y)
	}
	if p.Facing != FacingEast {
		t.Fatalf("expected facing still applied on a blocked move, got %v", p.Facing)
	}
}

func TestAttemptMoveRejectsOccupiedTile(t *testing.T) {
	tm := openTileMap(10, 10)
	p := NewPlayer(1, 100, "acct", 0, 5, 5)

	r := p.AttemptMove(time.Unix(100, 0), time.Second, tm, func(int32, int32) bool { return true }, FacingEast, FacingEast)
	if r != MoveBlockedOccupied {
		t.Fatalf("expected MoveBlockedOccupied, got %v", r)
	}
}

func TestAttemptMoveRejectsOutOfBounds(t *testing.T) {
	tm := openTileMap(10, 10)
	p := NewPlayer(1, 100, "acct", 0, 0, 0)

	r := p.AttemptMove(time.Unix(100, 0), time.Second, tm, func(int32, int32) bool { return false }, FacingWest, FacingWest)
	if r != MoveBlockedTerrain {
		t.Fatalf("expected out-of-bounds move treated as blocked terrain, got %v", r)
	}
}
