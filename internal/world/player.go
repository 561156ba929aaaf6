package world

import "time"

// Facing is a 4-directional heading, sent to clients for animation purposes.
// Values match the wire encoding: 0=N, 1=E, 2=S, 3=W.
type Facing byte

const (
	FacingNorth Facing = iota
	FacingEast
	FacingSouth
	FacingWest
)

// MoveResult is the outcome of a single AttemptMove call.
type MoveResult int

const (
	MoveOK MoveResult = iota
	MoveBlockedCooldown
	MoveBlockedTerrain
	MoveBlockedOccupied
)

// Player is the one entity kind this world ever simulates. All mutation
// happens on the tick goroutine; nothing here is safe for concurrent use.
type Player struct {
	ID          PlayerID
	ConnID      uint64
	AccountName string
	Tag         string // "", "bot", or a script-assigned label — never overloaded into ID bits

	MapID int32
	X, Y  int32
	Facing Facing

	LastMoveAt time.Time
	Dirty      bool // set on any change a PersistenceSystem should flush
}

// NewPlayer constructs a Player at a starting position with no move history.
func NewPlayer(id PlayerID, connID uint64, accountName string, mapID, x, y int32) *Player {
	return &Player{
		ID:          id,
		ConnID:      connID,
		AccountName: accountName,
		MapID:       mapID,
		X:           x,
		Y:           y,
		Facing:      FacingSouth,
	}
}

// DeltaForFacing returns the one-tile step a direction represents.
func DeltaForFacing(f Facing) (dx, dy int32) {
	switch f {
	case FacingNorth:
		return 0, -1
	case FacingSouth:
		return 0, 1
	case FacingEast:
		return 1, 0
	case FacingWest:
		return -1, 0
	default:
		return 0, 0
	}
}

// AttemptMove validates and, if accepted, applies a one-tile step in
// direction dir, turning the player to face facing.
//
// A blocked destination (terrain or occupancy) still turns the player —
// only the position commit is withheld. A cooldown rejection withholds
// both: the whole action arrived too soon to register at all.
func (p *Player) AttemptMove(now time.Time, cooldown time.Duration, tileMap *TileMap, isOccupied func(x, y int32) bool, dir, facing Facing) MoveResult {
	if !p.LastMoveAt.IsZero() && now.Sub(p.LastMoveAt) < cooldown {
		return MoveBlockedCooldown
	}

	dx, dy := DeltaForFacing(dir)
	newX, newY := p.X+dx, p.Y+dy

	if tileMap.IsBlocked(newX, newY) {
		p.Facing = facing
		p.Dirty = true
		return MoveBlockedTerrain
	}
	if isOccupied(newX, newY) {
		p.Facing = facing
		p.Dirty = true
		return MoveBlockedOccupied
	}

	p.X, p.Y = newX, newY
	p.Facing = facing
	p.LastMoveAt = now
	p.Dirty = true
	return MoveOK
}
