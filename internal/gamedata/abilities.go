package gamedata

import (
	"errors"
	"fmt"
)

// =============================================================================
// Abilities
// =============================================================================
//
// Abilities are immutable, data-driven actions shared by every entity that
// lists them. They are defined in abilities.json:
//
// {
//   "id": "pistol_shot",
//   "name": "Pistol Shot",
//   "apCost": 2,
//   "range": 5,
//   "damage": 10,
//   "damageType": "physical",
//   "targetType": "enemy",
//   "effectRadius": 0
// }
//
// Range is a Manhattan distance from the user to the target cell.
// EffectRadius > 0 makes the ability hit every living entity within that
// Manhattan radius of the target cell.
// Damage applied to a target is max(0, damage - target.Defense).

// TargetType represents what an ability may be aimed at.
type TargetType string

const (
	TargetSelf  TargetType = "self"
	TargetEnemy TargetType = "enemy"
	TargetAlly  TargetType = "ally"
	TargetTile  TargetType = "tile"
	TargetAny   TargetType = "any"
)

// DamageType is a flavor tag carried into combat messages.
type DamageType string

const (
	DamagePhysical DamageType = "physical"
	DamageFire     DamageType = "fire"
	DamageTrue     DamageType = "true"
)

// AbilityDef defines an ability loaded from JSON.
type AbilityDef struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	APCost       int        `json:"apCost"`
	Range        int        `json:"range"`
	Damage       int        `json:"damage"`
	DamageType   DamageType `json:"damageType,omitempty"`
	TargetType   TargetType `json:"targetType"`
	EffectRadius int        `json:"effectRadius,omitempty"`
}

// IsOffensive returns true if the ability deals damage to entities.
func (a *AbilityDef) IsOffensive() bool {
	if a.Damage <= 0 {
		return false
	}
	return a.TargetType == TargetEnemy || a.TargetType == TargetAny || a.TargetType == TargetTile
}

// TargetsEntities returns true if the ability must land on at least one entity.
func (a *AbilityDef) TargetsEntities() bool {
	switch a.TargetType {
	case TargetEnemy, TargetAlly, TargetAny:
		return true
	default:
		return false
	}
}

// Validate checks the definition's invariants.
func (a *AbilityDef) Validate() error {
	if a.ID == "" {
		return errors.New("ability: id must not be empty")
	}
	if a.APCost < 0 {
		return fmt.Errorf("ability %q: apCost must be >= 0", a.ID)
	}
	if a.Range < 0 {
		return fmt.Errorf("ability %q: range must be >= 0", a.ID)
	}
	if a.Damage < 0 {
		return fmt.Errorf("ability %q: damage must be >= 0", a.ID)
	}
	if a.EffectRadius < 0 {
		return fmt.Errorf("ability %q: effectRadius must be >= 0", a.ID)
	}
	switch a.TargetType {
	case TargetSelf, TargetEnemy, TargetAlly, TargetTile, TargetAny:
	default:
		return fmt.Errorf("ability %q: unknown targetType %q", a.ID, a.TargetType)
	}
	return nil
}

// AbilitiesFile represents the structure of abilities.json.
type AbilitiesFile struct {
	Abilities []AbilityDef `json:"abilities"`
}
