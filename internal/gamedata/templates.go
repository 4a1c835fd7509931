package gamedata

import (
	"errors"
	"fmt"

	"github.com/gdamore/tcell/v2"
)

// TemplateDef defines a reusable combatant archetype loaded from YAML.
// Placement data on a map turns a template into a live entity.
type TemplateDef struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Glyph       string   `yaml:"glyph"`
	Color       string   `yaml:"color"`
	HP          int      `yaml:"hp"`
	MaxHP       int      `yaml:"max_hp"` // 0 means same as hp
	AP          int      `yaml:"ap"`
	MaxAP       int      `yaml:"max_ap"` // 0 means same as ap
	Defense     int      `yaml:"defense"`
	Faction     string   `yaml:"faction"`
	Abilities   []string `yaml:"abilities"`
	Behavior    string   `yaml:"behavior"`     // empty or "player_controlled" for the player
	SpawnWeight int      `yaml:"spawn_weight"` // weight in procedural arenas; 0 never spawns
}

// Validate checks the template's invariants.
func (t *TemplateDef) Validate() error {
	if t.ID == "" {
		return errors.New("template: id must not be empty")
	}
	if t.Name == "" {
		return fmt.Errorf("template %q: name must not be empty", t.ID)
	}
	if t.HP < 1 {
		return fmt.Errorf("template %q: hp must be >= 1", t.ID)
	}
	if t.MaxHP != 0 && t.MaxHP < t.HP {
		return fmt.Errorf("template %q: max_hp must be >= hp", t.ID)
	}
	if t.AP < 0 {
		return fmt.Errorf("template %q: ap must be >= 0", t.ID)
	}
	if t.MaxAP != 0 && t.MaxAP < t.AP {
		return fmt.Errorf("template %q: max_ap must be >= ap", t.ID)
	}
	if t.Defense < 0 {
		return fmt.Errorf("template %q: defense must be >= 0", t.ID)
	}
	if t.SpawnWeight < 0 {
		return fmt.Errorf("template %q: spawn_weight must be >= 0", t.ID)
	}
	if t.Color != "" {
		if _, err := ParseHexColor(t.Color); err != nil {
			return fmt.Errorf("template %q: %w", t.ID, err)
		}
	}
	return nil
}

// HitPoints returns the starting and maximum hit points.
func (t *TemplateDef) HitPoints() (hp, maxHP int) {
	if t.MaxHP == 0 {
		return t.HP, t.HP
	}
	return t.HP, t.MaxHP
}

// ActionPoints returns the starting and maximum action points.
func (t *TemplateDef) ActionPoints() (ap, maxAP int) {
	if t.MaxAP == 0 {
		return t.AP, t.AP
	}
	return t.AP, t.MaxAP
}

// GlyphRune returns the glyph as a rune for rendering.
func (t *TemplateDef) GlyphRune() rune {
	for _, r := range t.Glyph {
		return r
	}
	return '?'
}

// TCellColor returns the template color, or white when unset.
func (t *TemplateDef) TCellColor() tcell.Color {
	color, err := ParseHexColor(t.Color)
	if err != nil {
		return tcell.ColorWhite
	}
	return color
}

// TemplatesFile represents the structure of templates.yaml.
type TemplatesFile struct {
	Templates []TemplateDef `yaml:"templates"`
}
