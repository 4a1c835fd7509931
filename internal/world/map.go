package world

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfBounds is returned for coordinates outside the map.
	ErrOutOfBounds = errors.New("position out of bounds")
	// ErrNotWalkable is returned when a cell cannot be entered.
	ErrNotWalkable = errors.New("cell not walkable")
)

// DefaultMaxElevation is the highest elevation level a cell may have.
const DefaultMaxElevation = 5

// Point is a grid coordinate.
type Point struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// Add returns p offset by dx, dy.
func (p Point) Add(dx, dy int) Point {
	return Point{X: p.X + dx, Y: p.Y + dy}
}

// Manhattan returns the Manhattan distance between two points.
func Manhattan(a, b Point) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

// Cardinal holds the four orthogonal step offsets in N, S, W, E order.
var Cardinal = [4]Point{{0, -1}, {0, 1}, {-1, 0}, {1, 0}}

// Map is a static grid of terrain and elevation. It is never mutated after New.
type Map struct {
	width   int
	height  int
	tiles   [][]Tile
	heights [][]int
}

// New builds a Map from rows of terrain symbols and a matching elevation grid.
// Every row must have the same width, every symbol must be a known terrain and
// every elevation must lie in [0, maxElevation].
func New(rows []string, heights [][]int, maxElevation int) (*Map, error) {
	if len(rows) == 0 {
		return nil, errors.New("map has no rows")
	}
	if len(heights) != len(rows) {
		return nil, fmt.Errorf("heightmap has %d rows, tiles have %d", len(heights), len(rows))
	}

	width := len([]rune(rows[0]))
	if width == 0 {
		return nil, errors.New("map has zero width")
	}

	m := &Map{
		width:   width,
		height:  len(rows),
		tiles:   make([][]Tile, len(rows)),
		heights: make([][]int, len(rows)),
	}
	for y, row := range rows {
		symbols := []rune(row)
		if len(symbols) != width {
			return nil, fmt.Errorf("row %d has width %d, want %d", y, len(symbols), width)
		}
		if len(heights[y]) != width {
			return nil, fmt.Errorf("heightmap row %d has width %d, want %d", y, len(heights[y]), width)
		}
		m.tiles[y] = make([]Tile, width)
		m.heights[y] = make([]int, width)
		for x, r := range symbols {
			if _, ok := LookupTerrain(Tile(r)); !ok {
				return nil, fmt.Errorf("unknown terrain symbol %q at (%d,%d)", r, x, y)
			}
			h := heights[y][x]
			if h < 0 || h > maxElevation {
				return nil, fmt.Errorf("elevation %d at (%d,%d) outside 0..%d", h, x, y, maxElevation)
			}
			m.tiles[y][x] = Tile(r)
			m.heights[y][x] = h
		}
	}
	return m, nil
}

// Width returns the number of columns.
func (m *Map) Width() int { return m.width }

// Height returns the number of rows.
func (m *Map) Height() int { return m.height }

// InBounds reports whether (x, y) lies on the map.
func (m *Map) InBounds(x, y int) bool {
	return x >= 0 && x < m.width && y >= 0 && y < m.height
}

// IsWalkable returns false for out-of-bounds coordinates and blocking terrain.
func (m *Map) IsWalkable(x, y int) bool {
	if !m.InBounds(x, y) {
		return false
	}
	return m.tiles[y][x].IsPassable()
}

// Elevation returns the elevation at (x, y), or ErrOutOfBounds.
func (m *Map) Elevation(x, y int) (int, error) {
	if !m.InBounds(x, y) {
		return 0, fmt.Errorf("elevation at (%d,%d): %w", x, y, ErrOutOfBounds)
	}
	return m.heights[y][x], nil
}

// Tile returns the terrain symbol at (x, y). Out-of-bounds cells read as walls.
func (m *Map) Tile(x, y int) Tile {
	if !m.InBounds(x, y) {
		return TileWall
	}
	return m.tiles[y][x]
}

// CheckEnter validates that a cell exists and can be stood on.
func (m *Map) CheckEnter(x, y int) error {
	if !m.InBounds(x, y) {
		return fmt.Errorf("(%d,%d): %w", x, y, ErrOutOfBounds)
	}
	if !m.tiles[y][x].IsPassable() {
		return fmt.Errorf("(%d,%d) is %s: %w", x, y, terrains[m.tiles[y][x]].Name, ErrNotWalkable)
	}
	return nil
}

// Rows returns the terrain grid as one string per row.
func (m *Map) Rows() []string {
	rows := make([]string, m.height)
	for y, row := range m.tiles {
		runes := make([]rune, len(row))
		for x, t := range row {
			runes[x] = rune(t)
		}
		rows[y] = string(runes)
	}
	return rows
}

// Elevations returns a copy of the elevation grid.
func (m *Map) Elevations() [][]int {
	out := make([][]int, m.height)
	for y, row := range m.heights {
		out[y] = append([]int(nil), row...)
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
