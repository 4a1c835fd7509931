// Package combat resolves abilities against the entities on the map.
package combat

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samdwyer/asciitactics/internal/entity"
	"github.com/samdwyer/asciitactics/internal/gamedata"
	"github.com/samdwyer/asciitactics/internal/world"
)

// ErrNoTarget is returned when an ability that must hit an entity finds none.
var ErrNoTarget = errors.New("no valid target")

// Hit is the damage one entity took from a resolved ability.
type Hit struct {
	Target   *entity.Entity
	Damage   int
	Defeated bool
}

// Result contains the outcome of resolving an ability.
type Result struct {
	Ability *gamedata.AbilityDef
	Hits    []Hit
	Damage  int    // Total damage dealt across all hits
	Message string // Human-readable description
}

// Defeated returns the entities brought to 0 HP by this resolution.
func (r Result) Defeated() []*entity.Entity {
	var out []*entity.Entity
	for _, h := range r.Hits {
		if h.Defeated {
			out = append(out, h.Target)
		}
	}
	return out
}

// Targets returns the living entities ability would affect when aimed at the
// cell at. Single-target abilities affect at most the occupant of that cell;
// area abilities affect everything within EffectRadius of it. Enemy-targeted
// abilities never affect the user's faction and ally-targeted abilities never
// affect other factions.
func Targets(user *entity.Entity, ability *gamedata.AbilityDef, at world.Point, occupants []*entity.Entity) []*entity.Entity {
	var out []*entity.Entity
	for _, e := range occupants {
		if !e.IsAlive() {
			continue
		}
		if world.Manhattan(e.Pos, at) > ability.EffectRadius {
			continue
		}
		switch ability.TargetType {
		case gamedata.TargetEnemy:
			if !user.Hostile(e) {
				continue
			}
		case gamedata.TargetAlly:
			if user.Hostile(e) {
				continue
			}
		case gamedata.TargetSelf:
			if e != user {
				continue
			}
		}
		out = append(out, e)
	}
	return out
}

// Resolve uses ability from user on the cell at. AP is spent once no matter
// how many entities are hit. On error nothing is changed.
func Resolve(user *entity.Entity, ability *gamedata.AbilityDef, at world.Point, occupants []*entity.Entity) (Result, error) {
	if ability == nil {
		return Result{}, errors.New("resolve: nil ability")
	}
	if ability.EffectRadius == 0 && ability.TargetsEntities() {
		return resolveSingle(user, ability, at, occupants)
	}
	return resolveArea(user, ability, at, occupants)
}

// resolveSingle defers to the entity attack contract so single-target rules
// stay in one place.
func resolveSingle(user *entity.Entity, ability *gamedata.AbilityDef, at world.Point, occupants []*entity.Entity) (Result, error) {
	var target *entity.Entity
	for _, e := range occupants {
		if e.Pos == at && e.IsAlive() {
			target = e
			break
		}
	}
	if target == nil {
		if !user.IsAlive() {
			return Result{}, entity.ErrDead
		}
		if !user.InRange(ability, at) {
			return Result{}, fmt.Errorf("(%d,%d) for %s: %w", at.X, at.Y, ability.Name, entity.ErrOutOfRange)
		}
		return Result{}, fmt.Errorf("%s at (%d,%d): %w", ability.Name, at.X, at.Y, ErrNoTarget)
	}

	dealt, err := user.Attack(target, ability)
	if err != nil {
		return Result{}, err
	}
	hit := Hit{Target: target, Damage: dealt, Defeated: !target.IsAlive()}
	result := Result{Ability: ability, Hits: []Hit{hit}, Damage: dealt}
	result.Message = describe(user, ability, result.Hits)
	return result, nil
}

func resolveArea(user *entity.Entity, ability *gamedata.AbilityDef, at world.Point, occupants []*entity.Entity) (Result, error) {
	if !user.IsAlive() {
		return Result{}, entity.ErrDead
	}
	if ability.TargetType == gamedata.TargetSelf && at != user.Pos {
		return Result{}, fmt.Errorf("%s only targets its user: %w", ability.Name, entity.ErrInvalidTarget)
	}
	if !user.InRange(ability, at) {
		return Result{}, fmt.Errorf("(%d,%d) for %s: %w", at.X, at.Y, ability.Name, entity.ErrOutOfRange)
	}
	if user.AP < ability.APCost {
		return Result{}, fmt.Errorf("%s needs %d AP for %s, has %d: %w", user.Name, ability.APCost, ability.Name, user.AP, entity.ErrInsufficientAP)
	}

	victims := Targets(user, ability, at, occupants)
	if len(victims) == 0 && ability.TargetsEntities() {
		return Result{}, fmt.Errorf("%s at (%d,%d): %w", ability.Name, at.X, at.Y, ErrNoTarget)
	}

	if err := user.SpendAP(ability.APCost); err != nil {
		return Result{}, err
	}

	result := Result{Ability: ability}
	for _, v := range victims {
		dealt := v.TakeDamage(entity.MitigatedDamage(ability, v))
		result.Hits = append(result.Hits, Hit{Target: v, Damage: dealt, Defeated: !v.IsAlive()})
		result.Damage += dealt
	}
	result.Message = describe(user, ability, result.Hits)
	return result, nil
}

func describe(user *entity.Entity, ability *gamedata.AbilityDef, hits []Hit) string {
	if len(hits) == 0 {
		return user.Name + " uses " + ability.Name + ", but hits nothing."
	}

	var b strings.Builder
	for i, h := range hits {
		if i > 0 {
			b.WriteString(" ")
		}
		fmt.Fprintf(&b, "%s uses %s on %s for %d damage!", user.Name, ability.Name, h.Target.Name, h.Damage)
		if h.Defeated {
			fmt.Fprintf(&b, " %s is defeated!", h.Target.Name)
		}
	}
	return b.String()
}
