// Package entity provides the combatant record and its action contract.
package entity

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/samdwyer/asciitactics/internal/gamedata"
	"github.com/samdwyer/asciitactics/internal/world"
)

var (
	// ErrInsufficientAP is returned when an action costs more AP than remain.
	ErrInsufficientAP = errors.New("insufficient action points")
	// ErrOutOfRange is returned when a target lies beyond an ability's range.
	ErrOutOfRange = errors.New("target out of range")
	// ErrTooSteep is returned when a step climbs more than the allowed height.
	ErrTooSteep = errors.New("climb too steep")
	// ErrNotAdjacent is returned for moves that are not a single orthogonal step.
	ErrNotAdjacent = errors.New("move is not a single orthogonal step")
	// ErrDead is returned when a defeated entity tries to act.
	ErrDead = errors.New("entity is defeated")
	// ErrTargetDead is returned when the target is already defeated.
	ErrTargetDead = errors.New("target is already defeated")
	// ErrInvalidTarget is returned when an ability cannot be aimed at the target.
	ErrInvalidTarget = errors.New("invalid target for ability")
)

// MoveRules are the session-wide movement parameters.
type MoveRules struct {
	Cost     int // AP debited per step
	MaxClimb int // largest allowed uphill elevation change per step
}

// DefaultMoveRules matches the default configuration.
var DefaultMoveRules = MoveRules{Cost: 1, MaxClimb: 1}

// Entity is a combatant on the map. Entities are never removed from a
// session; a defeated entity keeps its record with HP 0.
type Entity struct {
	ID         string // Unique instance identifier
	TemplateID string
	Name       string
	Glyph      rune
	Def        *gamedata.TemplateDef // Template the entity was created from (nil in tests)

	Pos         world.Point
	HP, MaxHP   int
	AP, MaxAP   int
	Defense     int
	Faction     string
	Abilities   []*gamedata.AbilityDef
	BehaviorTag string // Behavior tag from data; empty for the player
}

// New creates an entity from a template placed at pos. The caller resolves
// the template's ability IDs beforehand.
func New(tmpl *gamedata.TemplateDef, abilities []*gamedata.AbilityDef, pos world.Point) *Entity {
	hp, maxHP := tmpl.HitPoints()
	ap, maxAP := tmpl.ActionPoints()
	return &Entity{
		ID:          uuid.NewString(),
		TemplateID:  tmpl.ID,
		Name:        tmpl.Name,
		Glyph:       tmpl.GlyphRune(),
		Def:         tmpl,
		Pos:         pos,
		HP:          hp,
		MaxHP:       maxHP,
		AP:          ap,
		MaxAP:       maxAP,
		Defense:     tmpl.Defense,
		Faction:     tmpl.Faction,
		Abilities:   abilities,
		BehaviorTag: tmpl.Behavior,
	}
}

// IsAlive returns true if the entity has HP remaining.
func (e *Entity) IsAlive() bool { return e.HP > 0 }

// Ability returns the entity's ability with the given ID, or nil.
func (e *Entity) Ability(id string) *gamedata.AbilityDef {
	for _, a := range e.Abilities {
		if a.ID == id {
			return a
		}
	}
	return nil
}

// Hostile reports whether other belongs to a different faction.
func (e *Entity) Hostile(other *Entity) bool {
	return e.Faction != other.Faction
}

// RegenerateAP restores AP to the maximum. Called once at the start of the
// entity's turn.
func (e *Entity) RegenerateAP() {
	e.AP = e.MaxAP
}

// SpendAP debits cost from the entity's AP.
func (e *Entity) SpendAP(cost int) error {
	if e.AP < cost {
		return fmt.Errorf("%s needs %d AP, has %d: %w", e.Name, cost, e.AP, ErrInsufficientAP)
	}
	e.AP -= cost
	return nil
}

// TakeDamage reduces HP, clamped at 0, and returns the damage actually taken.
func (e *Entity) TakeDamage(amount int) int {
	if amount <= 0 || !e.IsAlive() {
		return 0
	}
	actual := amount
	if actual > e.HP {
		actual = e.HP
	}
	e.HP -= actual
	return actual
}

// CheckStep validates a one-cell move without committing it.
func (e *Entity) CheckStep(dx, dy int, m *world.Map, rules MoveRules) error {
	if !e.IsAlive() {
		return ErrDead
	}
	if abs(dx)+abs(dy) != 1 {
		return fmt.Errorf("(%d,%d): %w", dx, dy, ErrNotAdjacent)
	}

	to := e.Pos.Add(dx, dy)
	if err := m.CheckEnter(to.X, to.Y); err != nil {
		return err
	}

	from, err := m.Elevation(e.Pos.X, e.Pos.Y)
	if err != nil {
		return err
	}
	dest, err := m.Elevation(to.X, to.Y)
	if err != nil {
		return err
	}
	// Dropping down is always allowed.
	if dest-from > rules.MaxClimb {
		return fmt.Errorf("climb %d -> %d at (%d,%d): %w", from, dest, to.X, to.Y, ErrTooSteep)
	}

	if e.AP < rules.Cost {
		return fmt.Errorf("%s needs %d AP, has %d: %w", e.Name, rules.Cost, e.AP, ErrInsufficientAP)
	}
	return nil
}

// Move steps the entity by (dx, dy). On any error the entity is unchanged.
func (e *Entity) Move(dx, dy int, m *world.Map, rules MoveRules) error {
	if err := e.CheckStep(dx, dy, m, rules); err != nil {
		return err
	}
	e.Pos = e.Pos.Add(dx, dy)
	e.AP -= rules.Cost
	return nil
}

// InRange reports whether p lies within the ability's Manhattan range.
func (e *Entity) InRange(ability *gamedata.AbilityDef, p world.Point) bool {
	return world.Manhattan(e.Pos, p) <= ability.Range
}

// CheckAttack validates using ability on target without changing anything.
func (e *Entity) CheckAttack(target *Entity, ability *gamedata.AbilityDef) error {
	if !e.IsAlive() {
		return ErrDead
	}
	if e.AP < ability.APCost {
		return fmt.Errorf("%s needs %d AP for %s, has %d: %w", e.Name, ability.APCost, ability.Name, e.AP, ErrInsufficientAP)
	}
	if dist := world.Manhattan(e.Pos, target.Pos); dist > ability.Range {
		return fmt.Errorf("%s at distance %d, %s reaches %d: %w", target.Name, dist, ability.Name, ability.Range, ErrOutOfRange)
	}
	if !target.IsAlive() {
		return fmt.Errorf("%s: %w", target.Name, ErrTargetDead)
	}
	return e.checkTargetType(target, ability)
}

func (e *Entity) checkTargetType(target *Entity, ability *gamedata.AbilityDef) error {
	switch ability.TargetType {
	case gamedata.TargetEnemy:
		if !e.Hostile(target) {
			return fmt.Errorf("%s is friendly to %s: %w", target.Name, e.Name, ErrInvalidTarget)
		}
	case gamedata.TargetAlly:
		if e.Hostile(target) {
			return fmt.Errorf("%s is hostile to %s: %w", target.Name, e.Name, ErrInvalidTarget)
		}
	case gamedata.TargetSelf:
		if target != e {
			return fmt.Errorf("%s only targets its user: %w", ability.Name, ErrInvalidTarget)
		}
	}
	return nil
}

// Attack uses ability on target: it debits the AP cost and applies the
// ability's damage, reduced by the target's defense. It returns the damage
// dealt. On any error neither entity is changed.
func (e *Entity) Attack(target *Entity, ability *gamedata.AbilityDef) (int, error) {
	if err := e.CheckAttack(target, ability); err != nil {
		return 0, err
	}
	e.AP -= ability.APCost
	return target.TakeDamage(MitigatedDamage(ability, target)), nil
}

// MitigatedDamage returns the damage ability would deal to target.
func MitigatedDamage(ability *gamedata.AbilityDef, target *Entity) int {
	if ability.DamageType == gamedata.DamageTrue {
		return ability.Damage
	}
	return max(0, ability.Damage-target.Defense)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
