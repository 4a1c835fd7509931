package ui

import (
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samdwyer/asciitactics/internal/entity"
	"github.com/samdwyer/asciitactics/internal/world"
)

func simScreen(t *testing.T) (tcell.SimulationScreen, *Screen) {
	t.Helper()
	sim := tcell.NewSimulationScreen("UTF-8")
	screen, err := WrapScreen(sim)
	require.NoError(t, err)
	sim.SetSize(80, 24)
	t.Cleanup(screen.Close)
	return sim, screen
}

func runeAt(sim tcell.SimulationScreen, x, y int) rune {
	r, _, _, _ := sim.GetContent(x, y)
	return r
}

func TestRenderDrawsMapAndEntities(t *testing.T) {
	sim, screen := simScreen(t)
	m, err := world.New([]string{"#####", "#.~.#", "#####"}, [][]int{{0, 0, 0, 0, 0}, {0, 0, 0, 1, 0}, {0, 0, 0, 0, 0}}, world.DefaultMaxElevation)
	require.NoError(t, err)

	hero := &entity.Entity{Name: "Hero", Glyph: '@', Pos: world.Point{X: 1, Y: 1}, HP: 10, MaxHP: 10}
	corpse := &entity.Entity{Name: "Goblin", Glyph: 'g', Pos: world.Point{X: 3, Y: 1}, HP: 0, MaxHP: 10}

	NewRenderer(screen).Render(Frame{
		Map:      m,
		Entities: []*entity.Entity{hero, corpse},
		Player:   hero,
		Current:  hero,
		Status:   "player_turn",
		Messages: []string{"--- Hero's Turn (AP: 5) ---"},
	})

	assert.Equal(t, '#', runeAt(sim, 0, 0))
	assert.Equal(t, '@', runeAt(sim, 1, 1))
	assert.Equal(t, '~', runeAt(sim, 2, 1))
	assert.Equal(t, '%', runeAt(sim, 3, 1))
	assert.Equal(t, 'p', runeAt(sim, 7, 0), "status panel starts right of the map")
	assert.Equal(t, '-', runeAt(sim, 0, 4), "message log starts below the map")
}

func TestTileStyleShadesElevation(t *testing.T) {
	low := TileStyle(world.TileFloor, 0)
	high := TileStyle(world.TileFloor, 5)
	assert.NotEqual(t, low, high)
	assert.Equal(t, high, TileStyle(world.TileFloor, 2))
	assert.Equal(t, TileStyle(world.TileWall, 0), TileStyle(world.TileWall, 3))
}
