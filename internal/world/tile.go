// Package world provides the tactical map, terrain and arena generation.
package world

// Tile represents a single terrain symbol on the map.
type Tile rune

const (
	TileFloor     Tile = '.'
	TileWall      Tile = '#'
	TileStone     Tile = 'w'
	TileTree      Tile = 'T'
	TileWater     Tile = '~'
	TileGrass     Tile = ','
	TileCover     Tile = 'M'
	TileContainer Tile = 'L'
)

// Terrain describes the properties of a tile symbol.
type Terrain struct {
	Name     string
	Walkable bool
}

var terrains = map[Tile]Terrain{
	TileFloor:     {Name: "Floor", Walkable: true},
	TileWall:      {Name: "Wall", Walkable: false},
	TileStone:     {Name: "Stone Wall", Walkable: false},
	TileTree:      {Name: "Tree", Walkable: false},
	TileWater:     {Name: "Water", Walkable: true},
	TileGrass:     {Name: "Tall Grass", Walkable: true},
	TileCover:     {Name: "Medium Cover", Walkable: true},
	TileContainer: {Name: "Container", Walkable: true},
}

// LookupTerrain returns the terrain for a tile symbol.
func LookupTerrain(t Tile) (Terrain, bool) {
	terrain, ok := terrains[t]
	return terrain, ok
}

// IsPassable returns true if the tile can be walked on.
// Unknown symbols are never passable.
func (t Tile) IsPassable() bool {
	return terrains[t].Walkable
}

// Rune returns the tile's display character.
func (t Tile) Rune() rune {
	return rune(t)
}
