package world

// TileMap is static terrain: a width x height grid with a walkable/blocked
// predicate per cell. Immutable after construction.
type TileMap struct {
	width, height int32
	blocked       []bool // row-major, len == width*height
}

// NewTileMap builds a TileMap from an explicit blocked bitset. blocked must
// have exactly width*height entries in row-major order (blocked[y*width+x]).
func NewTileMap(width, height int32, blocked []bool) *TileMap {
	if int32(len(blocked)) != width*height {
		panic("world: blocked bitset length does not match width*height")
	}
	cp := make([]bool, len(blocked))
	copy(cp, blocked)
	return &TileMap{width: width, height: height, blocked: cp}
}

// NewTileMapFunc builds a TileMap from a walkability callback, evaluated once
// per cell at construction time (the map is immutable afterward).
func NewTileMapFunc(width, height int32, isBlocked func(x, y int32) bool) *TileMap {
	blocked := make([]bool, width*height)
	for y := int32(0); y < height; y++ {
		for x := int32(0); x < width; x++ {
			blocked[y*width+x] = isBlocked(x, y)
		}
	}
	return &TileMap{width: width, height: height, blocked: blocked}
}

func (m *TileMap) Width() int32  { return m.width }
func (m *TileMap) Height() int32 { return m.height }

// IsBlocked reports whether (x,y) cannot be entered. Out-of-bounds positions
// are always blocked.
func (m *TileMap) IsBlocked(x, y int32) bool {
	if x < 0 || y < 0 || x >= m.width || y >= m.height {
		return true
	}
	return m.blocked[y*m.width+x]
}
