package game

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/samdwyer/asciitactics/internal/gamedata"
	"github.com/samdwyer/asciitactics/internal/ui"
	"github.com/samdwyer/asciitactics/internal/world"
)

// Publisher receives a snapshot after every engine step.
type Publisher interface {
	Publish(v any)
}

// Game is an interactive terminal session around an Engine.
type Game struct {
	screen    *ui.Screen
	renderer  *ui.Renderer
	engine    *Engine
	publisher Publisher
	cfg       Config
	logger    *zap.Logger
	running   bool

	// Targeting mode: an ability is selected and the cursor picks its cell.
	selected *gamedata.AbilityDef
	cursor   world.Point
	notice   string
}

// New creates a terminal session. publisher may be nil.
func New(engine *Engine, cfg Config, logger *zap.Logger, publisher Publisher) (*Game, error) {
	screen, err := ui.NewScreen()
	if err != nil {
		return nil, err
	}
	return newGame(screen, engine, cfg, logger, publisher), nil
}

func newGame(screen *ui.Screen, engine *Engine, cfg Config, logger *zap.Logger, publisher Publisher) *Game {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Game{
		screen:    screen,
		renderer:  ui.NewRenderer(screen),
		engine:    engine,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger,
		running:   true,
	}
}

// Run executes the main game loop until the player quits or ctx is done.
// NPC turns play out automatically, one Update per frame.
func (g *Game) Run(ctx context.Context) error {
	defer g.screen.Close()

	if g.engine.State().Phase == PhaseSetup {
		if err := g.engine.Start(ctx); err != nil {
			return err
		}
	}
	g.publish()

	for g.running {
		g.render()

		if g.engine.State().Phase == PhaseNpcTurn {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(g.cfg.NPCDelay):
			}
			g.engine.Update(ctx)
			g.publish()
			continue
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
		g.handleInput(ctx)
	}
	return nil
}

// handleInput processes a single input event.
func (g *Game) handleInput(ctx context.Context) {
	ev := g.screen.PollEvent()

	switch ev := ev.(type) {
	case *tcell.EventKey:
		g.handleKeyEvent(ctx, ev)
	case *tcell.EventResize:
		g.screen.Sync()
	}
}

// handleKeyEvent processes keyboard input.
func (g *Game) handleKeyEvent(ctx context.Context, ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyCtrlC:
		g.running = false
	case tcell.KeyEscape:
		if g.selected != nil {
			g.selected = nil
			return
		}
		g.running = false

	case tcell.KeyUp:
		g.direction(ctx, 0, -1)
	case tcell.KeyDown:
		g.direction(ctx, 0, 1)
	case tcell.KeyLeft:
		g.direction(ctx, -1, 0)
	case tcell.KeyRight:
		g.direction(ctx, 1, 0)

	case tcell.KeyEnter:
		g.fire(ctx)

	case tcell.KeyRune:
		switch r := ev.Rune(); {
		case r == 'q' || r == 'Q':
			g.running = false
		case r == 'e' || r == 'E':
			g.selected = nil
			g.report(g.engine.EndTurn(ctx))
		case r == ' ':
			g.fire(ctx)
		case r >= '1' && r <= '9':
			g.selectAbility(ctx, int(r-'1'))
		}
	}
	g.publish()
}

// direction moves the cursor while targeting, otherwise the player.
func (g *Game) direction(ctx context.Context, dx, dy int) {
	if g.selected != nil {
		next := g.cursor.Add(dx, dy)
		if g.engine.Map().InBounds(next.X, next.Y) {
			g.cursor = next
		}
		return
	}
	g.report(g.engine.Move(ctx, dx, dy))
}

// selectAbility enters targeting mode for the player's ability at index.
// Self abilities fire at once.
func (g *Game) selectAbility(ctx context.Context, index int) {
	player := g.engine.Player()
	if index >= len(player.Abilities) {
		return
	}
	ability := player.Abilities[index]
	if ability.TargetType == gamedata.TargetSelf {
		g.selected = nil
		_, err := g.engine.UseAbility(ctx, ability.ID, player.Pos)
		g.report(err)
		return
	}

	g.selected = ability
	g.cursor = player.Pos
	for _, e := range g.engine.Entities() {
		if e.IsAlive() && player.Hostile(e) && player.InRange(ability, e.Pos) {
			g.cursor = e.Pos
			break
		}
	}
	g.notice = "Target " + ability.Name + ": arrows aim, enter fires, esc cancels"
}

func (g *Game) fire(ctx context.Context) {
	if g.selected == nil {
		return
	}
	ability := g.selected
	g.selected = nil
	_, err := g.engine.UseAbility(ctx, ability.ID, g.cursor)
	g.report(err)
}

// report shows a rejected action to the player.
func (g *Game) report(err error) {
	if err != nil {
		g.notice = err.Error()
		return
	}
	g.notice = ""
}

func (g *Game) publish() {
	if g.publisher != nil {
		g.publisher.Publish(g.engine.Snapshot())
	}
}

func (g *Game) render() {
	g.renderer.Render(g.frame())
}

// frame builds the renderer input for the current state.
func (g *Game) frame() ui.Frame {
	e := g.engine
	f := ui.Frame{
		Map:      e.Map(),
		Entities: e.Entities(),
		Player:   e.Player(),
		Current:  e.Current(),
		Selected: g.selected,
		Notice:   g.notice,
		Messages: e.Messages(),
	}

	state := e.State()
	switch state.Phase {
	case PhaseGameOver:
		f.Status = fmt.Sprintf("GAME OVER: %s  (q to quit)", state.Outcome)
	case PhaseNpcTurn:
		f.Status = fmt.Sprintf("Turn %d  %s acting", e.Turn(), f.Current.Name)
	default:
		f.Status = fmt.Sprintf("Turn %d  your move  (1-9 ability, e end turn, q quit)", e.Turn())
	}

	if state.Phase == PhasePlayerTurn {
		if g.selected != nil {
			f.Highlight = e.AbilityRangeTiles(e.Player(), g.selected)
			cursor := g.cursor
			f.Cursor = &cursor
		} else {
			f.Highlight = e.ValidMoves(e.Player())
		}
	}
	return f
}
