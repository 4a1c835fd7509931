package game

import (
	"context"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samdwyer/asciitactics/internal/ui"
	"github.com/samdwyer/asciitactics/internal/world"
)

type recorder struct {
	snapshots []Snapshot
}

func (r *recorder) Publish(v any) {
	if s, ok := v.(Snapshot); ok {
		r.snapshots = append(r.snapshots, s)
	}
}

func testSession(t *testing.T, e *Engine) (*Game, *recorder) {
	t.Helper()
	screen, err := ui.WrapScreen(tcell.NewSimulationScreen("UTF-8"))
	require.NoError(t, err)
	t.Cleanup(screen.Close)

	rec := &recorder{}
	return newGame(screen, e, DefaultConfig(), nil, rec), rec
}

func key(k tcell.Key) *tcell.EventKey {
	return tcell.NewEventKey(k, 0, tcell.ModNone)
}

func char(r rune) *tcell.EventKey {
	return tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone)
}

func TestSessionArrowMovesPlayer(t *testing.T) {
	p := hero(1, 1)
	e := started(t, Unit{Entity: p}, npc(t, goblin("g1", 5, 3), "aggressive"))
	g, rec := testSession(t, e)

	g.handleKeyEvent(context.Background(), key(tcell.KeyRight))

	assert.Equal(t, world.Point{X: 2, Y: 1}, p.Pos)
	assert.Empty(t, g.notice)
	require.Len(t, rec.snapshots, 1)
	assert.Equal(t, 2, rec.snapshots[0].Entities[0].X)
}

func TestSessionRejectedMoveShowsNotice(t *testing.T) {
	p := hero(1, 1)
	e := started(t, Unit{Entity: p}, npc(t, goblin("g1", 5, 3), "aggressive"))
	g, _ := testSession(t, e)

	g.handleKeyEvent(context.Background(), key(tcell.KeyUp))

	assert.Equal(t, world.Point{X: 1, Y: 1}, p.Pos)
	assert.Contains(t, g.notice, "not walkable")
}

func TestSessionTargetAndFire(t *testing.T) {
	p := hero(1, 1)
	g1 := goblin("g1", 4, 1)
	e := started(t, Unit{Entity: p}, npc(t, g1, "aggressive"))
	g, _ := testSession(t, e)

	g.handleKeyEvent(context.Background(), char('2'))
	require.Equal(t, pistol, g.selected)
	assert.Equal(t, g1.Pos, g.cursor, "cursor starts on a hostile in range")

	f := g.frame()
	require.NotNil(t, f.Cursor)
	assert.Contains(t, f.Highlight, g1.Pos)

	g.handleKeyEvent(context.Background(), key(tcell.KeyEnter))

	assert.Nil(t, g.selected)
	assert.Equal(t, 20, g1.HP)
	assert.Equal(t, 3, p.AP)
}

func TestSessionTargetingCursorAndCancel(t *testing.T) {
	p := hero(1, 1)
	e := started(t, Unit{Entity: p}, npc(t, goblin("g1", 5, 3), "aggressive"))
	g, _ := testSession(t, e)

	g.handleKeyEvent(context.Background(), char('1'))
	require.Equal(t, strike, g.selected)
	assert.Equal(t, p.Pos, g.cursor, "no hostile in range")

	g.handleKeyEvent(context.Background(), key(tcell.KeyDown))
	assert.Equal(t, world.Point{X: 1, Y: 2}, g.cursor)
	assert.Equal(t, world.Point{X: 1, Y: 1}, p.Pos, "arrows aim instead of moving")

	g.handleKeyEvent(context.Background(), key(tcell.KeyEscape))
	assert.Nil(t, g.selected)
	assert.True(t, g.running)

	g.handleKeyEvent(context.Background(), char('q'))
	assert.False(t, g.running)
}

func TestSessionEndTurn(t *testing.T) {
	p := hero(1, 1)
	e := started(t, Unit{Entity: p}, npc(t, goblin("g1", 5, 3), "aggressive"))
	g, _ := testSession(t, e)

	g.handleKeyEvent(context.Background(), char('e'))

	assert.Equal(t, PhaseNpcTurn, e.State().Phase)
	assert.Contains(t, g.frame().Status, "g1 acting")

	g.handleKeyEvent(context.Background(), char('e'))
	assert.Equal(t, ErrNotPlayerTurn.Error(), g.notice)
}
