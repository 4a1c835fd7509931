package game

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/samdwyer/asciitactics/internal/ai"
	"github.com/samdwyer/asciitactics/internal/combat"
	"github.com/samdwyer/asciitactics/internal/entity"
	"github.com/samdwyer/asciitactics/internal/gamedata"
	"github.com/samdwyer/asciitactics/internal/telemetry"
	"github.com/samdwyer/asciitactics/internal/world"
)

var (
	// ErrNoLivingEntities is returned by Start when nobody can take a turn.
	ErrNoLivingEntities = errors.New("no living entities")
	// ErrNoPlayer is returned when no unit is player controlled.
	ErrNoPlayer = errors.New("no player-controlled entity")
	// ErrMultiplePlayers is returned when more than one unit is player controlled.
	ErrMultiplePlayers = errors.New("more than one player-controlled entity")
	// ErrNotPlayerTurn is returned for player actions outside the player's turn.
	ErrNotPlayerTurn = errors.New("not the player's turn")
	// ErrGameOver is returned for actions after the session has ended.
	ErrGameOver = errors.New("game is over")
	// ErrOccupied is returned when a move targets a cell held by a living entity.
	ErrOccupied = errors.New("cell occupied")
	// ErrUnknownAbility is returned when the actor has no ability with the given ID.
	ErrUnknownAbility = errors.New("unknown ability")
	// ErrAlreadyStarted is returned by a second call to Start.
	ErrAlreadyStarted = errors.New("engine already started")
	// ErrNoTarget is returned when an ability finds nothing to hit.
	ErrNoTarget = combat.ErrNoTarget
)

// Unit is an entity together with its behavior. A nil Behavior marks the
// player-controlled unit.
type Unit struct {
	Entity   *entity.Entity
	Behavior *ai.Behavior
}

// Engine owns the map and the entities and sequences their turns. It is not
// safe for concurrent use; drive it from one goroutine.
type Engine struct {
	cfg    Config
	logger *zap.Logger

	m         *world.Map
	entities  []*entity.Entity
	behaviors map[*entity.Entity]*ai.Behavior
	player    *entity.Entity

	order   []*entity.Entity
	current int
	phase   Phase
	outcome Outcome
	turn    int

	log *MessageLog
}

// NewEngine validates the units against the map and returns an engine in
// PhaseSetup. Exactly one unit must be player controlled, and every living
// unit must stand on its own walkable cell.
func NewEngine(m *world.Map, units []Unit, cfg Config, logger *zap.Logger) (*Engine, error) {
	if m == nil {
		return nil, errors.New("engine: nil map")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.LogSize <= 0 {
		cfg.LogSize = DefaultLogSize
	}

	e := &Engine{
		cfg:       cfg,
		logger:    logger,
		m:         m,
		behaviors: make(map[*entity.Entity]*ai.Behavior, len(units)),
		log:       NewMessageLog(cfg.LogSize),
	}

	occupied := make(map[world.Point]*entity.Entity, len(units))
	for _, u := range units {
		ent := u.Entity
		if ent == nil {
			return nil, errors.New("engine: unit without entity")
		}
		if err := m.CheckEnter(ent.Pos.X, ent.Pos.Y); err != nil {
			return nil, fmt.Errorf("placing %s: %w", ent.Name, err)
		}
		if ent.IsAlive() {
			if other, ok := occupied[ent.Pos]; ok {
				return nil, fmt.Errorf("placing %s on %s at (%d,%d): %w", ent.Name, other.Name, ent.Pos.X, ent.Pos.Y, ErrOccupied)
			}
			occupied[ent.Pos] = ent
		}

		if u.Behavior == nil {
			if e.player != nil {
				return nil, fmt.Errorf("%s and %s: %w", e.player.Name, ent.Name, ErrMultiplePlayers)
			}
			e.player = ent
		} else {
			u.Behavior.Anchor(ent.Pos)
			e.behaviors[ent] = u.Behavior
		}
		e.entities = append(e.entities, ent)
	}
	if e.player == nil {
		return nil, ErrNoPlayer
	}
	return e, nil
}

// Start builds the turn order from the living entities, player first, and
// begins the first turn. If the session is already decided it goes straight
// to PhaseGameOver.
func (e *Engine) Start(ctx context.Context) error {
	if e.phase != PhaseSetup {
		return ErrAlreadyStarted
	}
	_, span := telemetry.Tracer("game").Start(ctx, "game.start")
	defer span.End()

	if e.player.IsAlive() {
		e.order = append(e.order, e.player)
	}
	for _, ent := range e.entities {
		if ent != e.player && ent.IsAlive() {
			e.order = append(e.order, ent)
		}
	}
	e.current = 0
	e.turn = 0
	span.SetAttributes(
		attribute.Int("entities", len(e.entities)),
		attribute.Int("turn_order", len(e.order)),
	)

	if len(e.order) == 0 {
		e.finish(OutcomeNoSurvivors)
		return ErrNoLivingEntities
	}
	if outcome, over := e.checkOutcome(); over {
		e.finish(outcome)
		return nil
	}
	e.beginTurn()
	return nil
}

// State returns the current turn state.
func (e *Engine) State() State {
	return State{Phase: e.phase, Index: e.current, Outcome: e.outcome}
}

// Map returns the session map.
func (e *Engine) Map() *world.Map { return e.m }

// Entities returns every entity in the session, defeated ones included.
func (e *Engine) Entities() []*entity.Entity {
	return append([]*entity.Entity(nil), e.entities...)
}

// Player returns the player-controlled entity.
func (e *Engine) Player() *entity.Entity { return e.player }

// Current returns the entity whose turn it is, or nil outside of turns.
func (e *Engine) Current() *entity.Entity {
	if e.phase != PhasePlayerTurn && e.phase != PhaseNpcTurn {
		return nil
	}
	return e.order[e.current]
}

// TurnOrder returns the current turn order.
func (e *Engine) TurnOrder() []*entity.Entity {
	return append([]*entity.Entity(nil), e.order...)
}

// Turn returns how many turns have begun since Start.
func (e *Engine) Turn() int { return e.turn }

// Behavior returns the behavior driving ent, or nil for the player.
func (e *Engine) Behavior(ent *entity.Entity) *ai.Behavior { return e.behaviors[ent] }

// Messages returns the player-facing message log, oldest first.
func (e *Engine) Messages() []string { return e.log.Messages() }

// EntityAt returns the living entity at p, or nil.
func (e *Engine) EntityAt(p world.Point) *entity.Entity {
	for _, ent := range e.entities {
		if ent.IsAlive() && ent.Pos == p {
			return ent
		}
	}
	return nil
}

// CanStep reports whether ent may move by (dx, dy) now.
func (e *Engine) CanStep(ent *entity.Entity, dx, dy int) bool {
	return e.checkMove(ent, dx, dy) == nil
}

// ValidMoves returns the cells ent can step into with its remaining AP.
func (e *Engine) ValidMoves(ent *entity.Entity) []world.Point {
	var moves []world.Point
	for _, step := range world.Cardinal {
		if e.checkMove(ent, step.X, step.Y) == nil {
			moves = append(moves, ent.Pos.Add(step.X, step.Y))
		}
	}
	return moves
}

// AbilityRangeTiles returns the cells ent could aim ability at, in row-major
// order. It is empty when ent cannot afford the ability. Self abilities
// cover ent's own cell, or the area around it when they have an effect
// radius. Entity-targeted abilities without a radius exclude ent's cell.
func (e *Engine) AbilityRangeTiles(ent *entity.Entity, ability *gamedata.AbilityDef) []world.Point {
	if ent == nil || ability == nil || ent.AP < ability.APCost {
		return nil
	}

	reach := ability.Range
	if ability.TargetType == gamedata.TargetSelf {
		if ability.EffectRadius == 0 {
			return []world.Point{ent.Pos}
		}
		reach = ability.EffectRadius
	}

	var tiles []world.Point
	for y := ent.Pos.Y - reach; y <= ent.Pos.Y+reach; y++ {
		for x := ent.Pos.X - reach; x <= ent.Pos.X+reach; x++ {
			p := world.Point{X: x, Y: y}
			if !e.m.InBounds(x, y) || world.Manhattan(ent.Pos, p) > reach {
				continue
			}
			if p == ent.Pos && ability.TargetType != gamedata.TargetTile &&
				ability.TargetType != gamedata.TargetSelf && ability.EffectRadius == 0 {
				continue
			}
			tiles = append(tiles, p)
		}
	}
	return tiles
}

// Update advances the session by one step. During an NPC turn the NPC acts
// once and the turn passes to the next living entity. During the player's
// turn, and after the game is over, Update does nothing.
func (e *Engine) Update(ctx context.Context) {
	if e.phase != PhaseNpcTurn {
		return
	}

	npc := e.order[e.current]
	ctx, span := telemetry.Tracer("game").Start(ctx, "game.turn")
	span.SetAttributes(
		attribute.String("actor", npc.Name),
		attribute.Int("ap", npc.AP),
		attribute.Int("turn", e.turn),
	)
	if npc.IsAlive() {
		e.runNPC(ctx, npc)
	}
	span.End()

	if outcome, over := e.checkOutcome(); over {
		e.finish(outcome)
		return
	}
	e.advance()
}

// beginTurn regenerates the current actor's AP and sets the phase.
func (e *Engine) beginTurn() {
	actor := e.order[e.current]
	actor.RegenerateAP()
	e.turn++
	if actor == e.player {
		e.phase = PhasePlayerTurn
	} else {
		e.phase = PhaseNpcTurn
	}
	e.log.Add(fmt.Sprintf("--- %s's Turn (AP: %d) ---", actor.Name, actor.AP))
	e.logger.Debug("turn started",
		zap.Int("turn", e.turn),
		zap.String("actor", actor.Name),
		zap.Int("ap", actor.AP),
		zap.Stringer("phase", e.phase),
	)
}

// advance passes the turn to the next living entity after the current one
// and drops defeated entities from the order.
func (e *Engine) advance() {
	var next *entity.Entity
	for i := 1; i <= len(e.order); i++ {
		candidate := e.order[(e.current+i)%len(e.order)]
		if candidate.IsAlive() {
			next = candidate
			break
		}
	}

	living := e.order[:0]
	for _, ent := range e.order {
		if ent.IsAlive() {
			living = append(living, ent)
		}
	}
	e.order = living

	if next == nil {
		e.log.Add("No entities left alive.")
		e.finish(OutcomeNoSurvivors)
		return
	}
	if outcome, over := e.checkOutcome(); over {
		e.finish(outcome)
		return
	}

	for i, ent := range e.order {
		if ent == next {
			e.current = i
			break
		}
	}
	e.beginTurn()
}

// checkOutcome reports whether the session is decided.
func (e *Engine) checkOutcome() (Outcome, bool) {
	anyAlive, hostileAlive := false, false
	for _, ent := range e.entities {
		if !ent.IsAlive() {
			continue
		}
		anyAlive = true
		if e.player.Hostile(ent) {
			hostileAlive = true
		}
	}

	switch {
	case !anyAlive:
		return OutcomeNoSurvivors, true
	case !e.player.IsAlive():
		return OutcomeDefeat, true
	case !hostileAlive:
		return OutcomeVictory, true
	default:
		return OutcomeNone, false
	}
}

func (e *Engine) finish(outcome Outcome) {
	if e.phase == PhaseGameOver {
		return
	}
	e.phase = PhaseGameOver
	e.outcome = outcome
	switch outcome {
	case OutcomeVictory:
		e.log.Add("All enemies defeated! Victory!")
	case OutcomeDefeat:
		e.log.Add(e.player.Name + " has been defeated! Game Over.")
	case OutcomeNoSurvivors:
		e.log.Add("Nobody survived. Game Over.")
	}
	e.logger.Info("game over",
		zap.Stringer("outcome", outcome),
		zap.Int("turns", e.turn),
	)
}
