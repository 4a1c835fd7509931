package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/samdwyer/asciitactics/internal/entity"
	"github.com/samdwyer/asciitactics/internal/gamedata"
	"github.com/samdwyer/asciitactics/internal/world"
)

// Frame is everything the renderer draws in one pass.
type Frame struct {
	Map       *world.Map
	Entities  []*entity.Entity
	Player    *entity.Entity
	Current   *entity.Entity
	Highlight []world.Point // Cells to tint, e.g. valid moves or ability range
	Cursor    *world.Point  // Targeting cursor, if any
	Selected  *gamedata.AbilityDef
	Status    string   // Turn state line
	Notice    string   // Last rejection or hint
	Messages  []string // Message log, oldest first
}

// Renderer handles drawing the game to the screen.
type Renderer struct {
	screen *Screen
}

// NewRenderer creates a new renderer for the given screen.
func NewRenderer(screen *Screen) *Renderer {
	return &Renderer{screen: screen}
}

// Render draws the map, entities, side panel and message log.
func (r *Renderer) Render(f Frame) {
	r.screen.Clear()

	highlight := make(map[world.Point]bool, len(f.Highlight))
	for _, p := range f.Highlight {
		highlight[p] = true
	}

	for y := 0; y < f.Map.Height(); y++ {
		for x := 0; x < f.Map.Width(); x++ {
			tile := f.Map.Tile(x, y)
			h, _ := f.Map.Elevation(x, y)
			style := TileStyle(tile, h)
			if highlight[world.Point{X: x, Y: y}] {
				style = style.Background(tcell.ColorNavy)
			}
			r.screen.SetContent(x, y, tile.Rune(), style)
		}
	}

	// Dead entities first so the living draw on top.
	for _, alive := range []bool{false, true} {
		for _, e := range f.Entities {
			if e.IsAlive() != alive {
				continue
			}
			r.screen.SetContent(e.Pos.X, e.Pos.Y, r.glyph(e), r.entityStyle(e, f))
		}
	}

	if f.Cursor != nil {
		r.screen.SetContent(f.Cursor.X, f.Cursor.Y, 'X', tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true))
	}

	r.renderPanel(f, f.Map.Width()+2)
	r.renderLog(f, f.Map.Height()+1)

	r.screen.Show()
}

func (r *Renderer) glyph(e *entity.Entity) rune {
	if !e.IsAlive() {
		return '%'
	}
	return e.Glyph
}

func (r *Renderer) entityStyle(e *entity.Entity, f Frame) tcell.Style {
	if !e.IsAlive() {
		return tcell.StyleDefault.Foreground(tcell.ColorMaroon)
	}
	color := tcell.ColorWhite
	if e.Def != nil {
		color = e.Def.TCellColor()
	}
	style := tcell.StyleDefault.Foreground(color).Bold(true)
	if e == f.Current {
		style = style.Underline(true)
	}
	return style
}

// TileStyle returns the style for a tile at the given elevation. Higher
// ground is drawn brighter.
func TileStyle(tile world.Tile, elevation int) tcell.Style {
	switch tile {
	case world.TileWall, world.TileStone:
		return tcell.StyleDefault.Foreground(tcell.ColorDarkGray)
	case world.TileTree:
		return tcell.StyleDefault.Foreground(tcell.ColorGreen)
	case world.TileWater:
		return tcell.StyleDefault.Foreground(tcell.ColorBlue)
	case world.TileGrass:
		return tcell.StyleDefault.Foreground(tcell.ColorOlive)
	case world.TileCover, world.TileContainer:
		return tcell.StyleDefault.Foreground(tcell.ColorTeal)
	}

	shades := []tcell.Color{tcell.ColorGray, tcell.ColorSilver, tcell.ColorWhite}
	if elevation >= len(shades) {
		elevation = len(shades) - 1
	}
	if elevation < 0 {
		elevation = 0
	}
	return tcell.StyleDefault.Foreground(shades[elevation])
}

func (r *Renderer) renderPanel(f Frame, x int) {
	y := 0
	r.RenderText(f.Status, x, y, tcell.StyleDefault.Foreground(tcell.ColorYellow))
	y += 2

	if p := f.Player; p != nil {
		r.RenderText(fmt.Sprintf("%s  HP %d/%d  AP %d/%d", p.Name, p.HP, p.MaxHP, p.AP, p.MaxAP), x, y, tcell.StyleDefault)
		y += 2
		for i, a := range p.Abilities {
			style := tcell.StyleDefault
			if a == f.Selected {
				style = style.Reverse(true)
			}
			r.RenderText(fmt.Sprintf("%d) %s  AP %d  R %d  D %d", i+1, a.Name, a.APCost, a.Range, a.Damage), x, y, style)
			y++
		}
		y++
	}

	for _, e := range f.Entities {
		if e == f.Player || !e.IsAlive() {
			continue
		}
		r.RenderText(fmt.Sprintf("%c %s  HP %d/%d", e.Glyph, e.Name, e.HP, e.MaxHP), x, y, r.entityStyle(e, f))
		y++
	}

	if f.Notice != "" {
		y++
		r.RenderText(f.Notice, x, y, tcell.StyleDefault.Foreground(tcell.ColorRed))
	}
}

func (r *Renderer) renderLog(f Frame, y int) {
	_, height := r.screen.Size()
	rows := height - y
	if rows <= 0 {
		return
	}
	msgs := f.Messages
	if len(msgs) > rows {
		msgs = msgs[len(msgs)-rows:]
	}
	for i, msg := range msgs {
		r.RenderText(msg, 0, y+i, tcell.StyleDefault.Foreground(tcell.ColorWhite))
	}
}

// RenderText draws msg starting at (x, y).
func (r *Renderer) RenderText(msg string, x, y int, style tcell.Style) {
	i := 0
	for _, ch := range msg {
		r.screen.SetContent(x+i, y, ch, style)
		i++
	}
}
