package world

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// mapFile is the on-disk YAML shape for a single map: overall size plus an
// explicit list of blocked cells. Sparse blocked lists keep small test maps
// readable; a large production map would more likely generate this from a
// tileset export rather than hand-author coordinates.
type mapFile struct {
	MapID  int32    `yaml:"map_id"`
	Name   string   `yaml:"name"`
	Width  int32    `yaml:"width"`
	Height int32    `yaml:"height"`
	Blocked [][2]int32 `yaml:"blocked"`
}

// LoadTileMapYAML reads one map definition file and returns its map id, its
// display name, and the constructed TileMap.
func LoadTileMapYAML(path string) (mapID int32, name string, tm *TileMap, err error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, "", nil, fmt.Errorf("world: read map file %s: %w", path, err)
	}
	var mf mapFile
	if err := yaml.Unmarshal(raw, &mf); err != nil {
		return 0, "", nil, fmt.Errorf("world: parse map file %s: %w", path, err)
	}
	if mf.Width <= 0 || mf.Height <= 0 {
		return 0, "", nil, fmt.Errorf("world: map %s has non-positive dimensions %dx%d", path, mf.Width, mf.Height)
	}

	blocked := make([]bool, mf.Width*mf.Height)
	for _, cell := range mf.Blocked {
		x, y := cell[0], cell[1]
		if x < 0 || y < 0 || x >= mf.Width || y >= mf.Height {
			continue
		}
		blocked[y*mf.Width+x] = true
	}

	tm = NewTileMap(mf.Width, mf.Height, blocked)
	return mf.MapID, mf.Name, tm, nil
}
