package world

import (
	"context"
	"math/rand"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/samdwyer/asciitactics/internal/telemetry"
)

const (
	// Default arena dimensions
	DefaultWidth  = 60
	DefaultHeight = 22

	// BSP parameters
	minRoomSize = 5
	maxRoomSize = 12
	minLeafSize = 8

	// Chance in 1/n that a room floor cell becomes grass or cover.
	decorChance = 12
)

// arena is the mutable grid used while generating; it is frozen into a Map.
type arena struct {
	width, height int
	tiles         [][]Tile
	heights       [][]int
	rooms         []Room
	rng           *rand.Rand
}

// Generate builds a walled arena of BSP rooms joined by corridors. Each room
// sits on elevation 0 or 1 so every room stays reachable with a climb of 1.
// The same rng seed always yields the same map.
func Generate(ctx context.Context, width, height int, rng *rand.Rand) (*Map, []Room) {
	tracer := telemetry.Tracer("world")
	_, span := tracer.Start(ctx, "world.generate")
	defer span.End()

	startTime := time.Now()

	a := &arena{
		width:   width,
		height:  height,
		tiles:   make([][]Tile, height),
		heights: make([][]int, height),
		rng:     rng,
	}
	for y := range a.tiles {
		a.tiles[y] = make([]Tile, width)
		a.heights[y] = make([]int, width)
		for x := range a.tiles[y] {
			a.tiles[y][x] = TileWall
		}
	}

	root := &bspNode{
		x:      1,
		y:      1,
		width:  width - 2,
		height: height - 2,
	}
	a.splitNode(root)
	a.createRooms(root)
	a.connectRooms(root)

	span.SetAttributes(
		attribute.Int("arena.width", width),
		attribute.Int("arena.height", height),
		attribute.Int("arena.room_count", len(a.rooms)),
		attribute.Int64("arena.generation_ms", time.Since(startTime).Milliseconds()),
	)

	return &Map{width: width, height: height, tiles: a.tiles, heights: a.heights}, a.rooms
}

// bspNode represents a node in the BSP tree.
type bspNode struct {
	x, y          int
	width, height int
	left, right   *bspNode
	room          *Room
}

func (n *bspNode) isLeaf() bool {
	return n.left == nil && n.right == nil
}

func (a *arena) splitNode(node *bspNode) {
	if node.width < minLeafSize*2 && node.height < minLeafSize*2 {
		return
	}

	var splitHorizontally bool
	if node.width > node.height && node.width >= minLeafSize*2 {
		splitHorizontally = false
	} else if node.height >= minLeafSize*2 {
		splitHorizontally = true
	} else if node.width >= minLeafSize*2 {
		splitHorizontally = false
	} else {
		return
	}

	span := node.width
	if splitHorizontally {
		span = node.height
	}
	lo, hi := minLeafSize, span-minLeafSize
	if hi <= lo {
		return
	}
	splitPos := lo + a.rng.Intn(hi-lo+1)

	if splitHorizontally {
		node.left = &bspNode{x: node.x, y: node.y, width: node.width, height: splitPos}
		node.right = &bspNode{x: node.x, y: node.y + splitPos, width: node.width, height: node.height - splitPos}
	} else {
		node.left = &bspNode{x: node.x, y: node.y, width: splitPos, height: node.height}
		node.right = &bspNode{x: node.x + splitPos, y: node.y, width: node.width - splitPos, height: node.height}
	}

	a.splitNode(node.left)
	a.splitNode(node.right)
}

func (a *arena) createRooms(node *bspNode) {
	if node == nil {
		return
	}
	if !node.isLeaf() {
		a.createRooms(node.left)
		a.createRooms(node.right)
		return
	}

	roomWidth := minRoomSize + a.rng.Intn(max(1, min(maxRoomSize-minRoomSize+1, node.width-minRoomSize+1)))
	roomHeight := minRoomSize + a.rng.Intn(max(1, min(maxRoomSize-minRoomSize+1, node.height-minRoomSize+1)))

	if roomWidth > node.width-2 {
		roomWidth = node.width - 2
	}
	if roomHeight > node.height-2 {
		roomHeight = node.height - 2
	}
	if roomWidth < minRoomSize || roomHeight < minRoomSize {
		return
	}

	room := Room{
		X:         node.x + 1 + a.rng.Intn(max(1, node.width-roomWidth-1)),
		Y:         node.y + 1 + a.rng.Intn(max(1, node.height-roomHeight-1)),
		Width:     roomWidth,
		Height:    roomHeight,
		Elevation: a.rng.Intn(2),
	}
	node.room = &room
	a.rooms = append(a.rooms, room)
	a.carveRoom(room)
}

// carveRoom sets the room interior to floor at the room's elevation, with
// scattered grass and cover.
func (a *arena) carveRoom(room Room) {
	for y := room.Y; y < room.Y+room.Height; y++ {
		for x := room.X; x < room.X+room.Width; x++ {
			if !a.interior(x, y) {
				continue
			}
			a.tiles[y][x] = TileFloor
			a.heights[y][x] = room.Elevation
			switch a.rng.Intn(decorChance) {
			case 0:
				a.tiles[y][x] = TileGrass
			case 1:
				a.tiles[y][x] = TileCover
			}
		}
	}
}

func (a *arena) connectRooms(node *bspNode) {
	if node == nil || node.isLeaf() {
		return
	}

	a.connectRooms(node.left)
	a.connectRooms(node.right)

	leftRoom := a.getRoom(node.left)
	rightRoom := a.getRoom(node.right)
	if leftRoom != nil && rightRoom != nil {
		a.carveCorridor(*leftRoom, *rightRoom)
	}
}

func (a *arena) getRoom(node *bspNode) *Room {
	if node == nil {
		return nil
	}
	if node.room != nil {
		return node.room
	}
	if room := a.getRoom(node.left); room != nil {
		return room
	}
	return a.getRoom(node.right)
}

func (a *arena) carveCorridor(room1, room2 Room) {
	x1, y1 := room1.Center()
	x2, y2 := room2.Center()

	if a.rng.Intn(2) == 0 {
		a.carveHorizontalTunnel(x1, x2, y1)
		a.carveVerticalTunnel(y1, y2, x2)
	} else {
		a.carveVerticalTunnel(y1, y2, x1)
		a.carveHorizontalTunnel(x1, x2, y2)
	}
}

// carveCell opens a corridor cell. Cells already opened by a room keep their
// terrain and elevation.
func (a *arena) carveCell(x, y int) {
	if !a.interior(x, y) || a.tiles[y][x] != TileWall {
		return
	}
	a.tiles[y][x] = TileFloor
	a.heights[y][x] = 0
}

func (a *arena) carveHorizontalTunnel(x1, x2, y int) {
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	for x := x1; x <= x2; x++ {
		a.carveCell(x, y)
	}
}

func (a *arena) carveVerticalTunnel(y1, y2, x int) {
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	for y := y1; y <= y2; y++ {
		a.carveCell(x, y)
	}
}

func (a *arena) interior(x, y int) bool {
	return x > 0 && x < a.width-1 && y > 0 && y < a.height-1
}
