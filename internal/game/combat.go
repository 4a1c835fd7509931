package game

import (
	"context"
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

// =============================================================================
// Player actions
// =============================================================================

// Move steps the player by (dx, dy). A rejected move changes nothing.
func (e *Engine) Move(ctx context.Context, dx, dy int) error {
	if err := e.requirePlayerTurn(); err != nil {
		return err
	}
	_, span := telemetry.Tracer("game").Start(ctx, "game.player_move")
	defer span.End()
	span.SetAttributes(attribute.Int("dx", dx), attribute.Int("dy", dy))

	if err := e.move(e.player, dx, dy); err != nil {
		span.SetAttributes(attribute.Bool("failed", true))
		return e.rejected(e.player, "move", err)
	}
	e.afterPlayerAction()
	return nil
}

// UseAbility uses the player's ability abilityID on the cell at.
func (e *Engine) UseAbility(ctx context.Context, abilityID string, at world.Point) (combat.Result, error) {
	if err := e.requirePlayerTurn(); err != nil {
		return combat.Result{}, err
	}
	ability := e.player.Ability(abilityID)
	if ability == nil {
		return combat.Result{}, e.rejected(e.player, "ability", fmt.Errorf("%s has no %q: %w", e.player.Name, abilityID, ErrUnknownAbility))
	}

	_, span := telemetry.Tracer("game").Start(ctx, "game.player_ability")
	defer span.End()
	span.SetAttributes(
		attribute.String("ability", ability.ID),
		attribute.Int("target.x", at.X),
		attribute.Int("target.y", at.Y),
	)

	result, err := e.useAbility(e.player, ability, at)
	if err != nil {
		span.SetAttributes(attribute.Bool("failed", true))
		return combat.Result{}, e.rejected(e.player, "ability", err)
	}
	span.SetAttributes(attribute.Int("damage", result.Damage))
	e.afterPlayerAction()
	return result, nil
}

// Attack uses the player's ability abilityID on target.
func (e *Engine) Attack(ctx context.Context, target *entity.Entity, abilityID string) (combat.Result, error) {
	if target == nil {
		return combat.Result{}, ErrNoTarget
	}
	return e.UseAbility(ctx, abilityID, target.Pos)
}

// EndTurn ends the player's turn.
func (e *Engine) EndTurn(ctx context.Context) error {
	if err := e.requirePlayerTurn(); err != nil {
		return err
	}
	e.log.Add(e.player.Name + " ends turn.")
	e.advance()
	return nil
}

func (e *Engine) requirePlayerTurn() error {
	switch e.phase {
	case PhaseGameOver:
		return ErrGameOver
	case PhasePlayerTurn:
		return nil
	default:
		return ErrNotPlayerTurn
	}
}

// afterPlayerAction ends the session or the turn when the action decided it.
func (e *Engine) afterPlayerAction() {
	if outcome, over := e.checkOutcome(); over {
		e.finish(outcome)
		return
	}
	if e.player.AP == 0 {
		e.log.Add(e.player.Name + " is out of AP. Ending turn.")
		e.advance()
	}
}

func (e *Engine) rejected(actor *entity.Entity, action string, err error) error {
	e.logger.Debug("action rejected",
		zap.String("actor", actor.Name),
		zap.String("action", action),
		zap.Int("ap", actor.AP),
		zap.Error(err),
	)
	return err
}

// =============================================================================
// Shared action contract
// =============================================================================

// checkMove validates a step for ent, including occupancy.
func (e *Engine) checkMove(ent *entity.Entity, dx, dy int) error {
	if err := ent.CheckStep(dx, dy, e.m, e.cfg.Rules); err != nil {
		return err
	}
	to := ent.Pos.Add(dx, dy)
	if other := e.EntityAt(to); other != nil && other != ent {
		return fmt.Errorf("(%d,%d) held by %s: %w", to.X, to.Y, other.Name, ErrOccupied)
	}
	return nil
}

func (e *Engine) move(ent *entity.Entity, dx, dy int) error {
	if err := e.checkMove(ent, dx, dy); err != nil {
		return err
	}
	if err := ent.Move(dx, dy, e.m, e.cfg.Rules); err != nil {
		return err
	}
	e.log.Add(fmt.Sprintf("%s moved to (%d,%d).", ent.Name, ent.Pos.X, ent.Pos.Y))
	return nil
}

func (e *Engine) useAbility(ent *entity.Entity, ability *gamedata.AbilityDef, at world.Point) (combat.Result, error) {
	result, err := combat.Resolve(ent, ability, at, e.entities)
	if err != nil {
		return combat.Result{}, err
	}
	e.log.Add(result.Message)
	return result, nil
}

// =============================================================================
// NPC turns
// =============================================================================

// runNPC asks the NPC's behavior for one action and applies it through the
// same contract as player actions. A rejected action is logged, not retried.
func (e *Engine) runNPC(ctx context.Context, npc *entity.Entity) {
	behavior := e.behaviors[npc]
	if behavior == nil {
		return
	}

	action, ok := behavior.ChooseAction(ctx, npc, e)
	if !ok {
		e.logger.Debug("npc idle", zap.String("actor", npc.Name), zap.Int("ap", npc.AP))
		return
	}

	var err error
	switch action.Kind {
	case ai.ActionMove:
		err = e.move(npc, action.Target.X-npc.Pos.X, action.Target.Y-npc.Pos.Y)
	case ai.ActionAttack:
		_, err = e.useAbility(npc, action.Ability, action.Target)
	}
	if err != nil {
		_ = e.rejected(npc, action.Kind.String(), err)
	}
}
