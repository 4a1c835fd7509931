package world

// Room represents a rectangular room in a generated arena.
type Room struct {
	X, Y          int // Top-left corner position
	Width, Height int // Dimensions of the room
	Elevation     int // Floor elevation of every cell in the room
}

// Center returns the center coordinates of the room.
func (r Room) Center() (int, int) {
	return r.X + r.Width/2, r.Y + r.Height/2
}
