package gamedata

import (
	"errors"
	"fmt"
	"io/fs"
	"math/rand"
)

// Data file names inside a content filesystem.
const (
	AbilitiesFileName = "abilities.json"
	TemplatesFileName = "templates.yaml"
)

// =============================================================================
// AbilityRegistry
// =============================================================================

// AbilityRegistry holds loaded ability definitions and provides lookup utilities.
type AbilityRegistry struct {
	abilities map[string]*AbilityDef
	all       []AbilityDef
}

// NewAbilityRegistry validates definitions and indexes them by ID.
// Duplicate IDs are an error.
func NewAbilityRegistry(abilities []AbilityDef) (*AbilityRegistry, error) {
	registry := &AbilityRegistry{
		abilities: make(map[string]*AbilityDef, len(abilities)),
		all:       abilities,
	}
	for i := range abilities {
		if err := abilities[i].Validate(); err != nil {
			return nil, err
		}
		if _, exists := registry.abilities[abilities[i].ID]; exists {
			return nil, fmt.Errorf("ability %q defined more than once", abilities[i].ID)
		}
		registry.abilities[abilities[i].ID] = &abilities[i]
	}
	return registry, nil
}

// LoadAbilityRegistry loads abilities.json from fsys.
func LoadAbilityRegistry(fsys fs.FS) (*AbilityRegistry, error) {
	file, err := Load[AbilitiesFile](fsys, AbilitiesFileName)
	if err != nil {
		return nil, err
	}
	if len(file.Abilities) == 0 {
		return nil, errors.New("no abilities loaded from " + AbilitiesFileName)
	}
	return NewAbilityRegistry(file.Abilities)
}

// GetByID returns the ability definition with the given ID, or nil if not found.
func (r *AbilityRegistry) GetByID(id string) *AbilityDef {
	return r.abilities[id]
}

// Resolve returns ability definitions for a list of IDs. An unknown ID is an
// error rather than being skipped, so data typos surface at load time.
func (r *AbilityRegistry) Resolve(ids []string) ([]*AbilityDef, error) {
	result := make([]*AbilityDef, 0, len(ids))
	for _, id := range ids {
		ability := r.abilities[id]
		if ability == nil {
			return nil, fmt.Errorf("unknown ability %q", id)
		}
		result = append(result, ability)
	}
	return result, nil
}

// All returns all ability definitions.
func (r *AbilityRegistry) All() []AbilityDef {
	return r.all
}

// Count returns the number of abilities in the registry.
func (r *AbilityRegistry) Count() int {
	return len(r.all)
}

// =============================================================================
// TemplateRegistry
// =============================================================================

// TemplateRegistry holds entity templates and provides spawning utilities.
type TemplateRegistry struct {
	templates   []TemplateDef
	byID        map[string]*TemplateDef
	totalWeight int
}

// NewTemplateRegistry validates templates against the ability registry and
// indexes them by ID.
func NewTemplateRegistry(templates []TemplateDef, abilities *AbilityRegistry) (*TemplateRegistry, error) {
	registry := &TemplateRegistry{
		templates: templates,
		byID:      make(map[string]*TemplateDef, len(templates)),
	}
	for i := range templates {
		t := &templates[i]
		if err := t.Validate(); err != nil {
			return nil, err
		}
		if _, exists := registry.byID[t.ID]; exists {
			return nil, fmt.Errorf("template %q defined more than once", t.ID)
		}
		if _, err := abilities.Resolve(t.Abilities); err != nil {
			return nil, fmt.Errorf("template %q: %w", t.ID, err)
		}
		registry.byID[t.ID] = t
		registry.totalWeight += t.SpawnWeight
	}
	return registry, nil
}

// LoadTemplateRegistry loads templates.yaml from fsys.
func LoadTemplateRegistry(fsys fs.FS, abilities *AbilityRegistry) (*TemplateRegistry, error) {
	file, err := Load[TemplatesFile](fsys, TemplatesFileName)
	if err != nil {
		return nil, err
	}
	if len(file.Templates) == 0 {
		return nil, errors.New("no templates loaded from " + TemplatesFileName)
	}
	return NewTemplateRegistry(file.Templates, abilities)
}

// SpawnRandom selects a template using weighted probability.
// Templates with higher spawn_weight are more likely to be selected; templates
// with zero weight are never chosen. Returns nil when nothing can spawn.
func (r *TemplateRegistry) SpawnRandom(rng *rand.Rand) *TemplateDef {
	if r.totalWeight <= 0 {
		return nil
	}

	roll := rng.Intn(r.totalWeight)

	cumulative := 0
	for i := range r.templates {
		cumulative += r.templates[i].SpawnWeight
		if roll < cumulative {
			return &r.templates[i]
		}
	}
	return nil
}

// GetByID returns the template with the given ID, or nil if not found.
func (r *TemplateRegistry) GetByID(id string) *TemplateDef {
	return r.byID[id]
}

// All returns all templates.
func (r *TemplateRegistry) All() []TemplateDef {
	return r.templates
}

// Count returns the number of templates in the registry.
func (r *TemplateRegistry) Count() int {
	return len(r.templates)
}

// Registries bundles the content registries loaded from one filesystem.
type Registries struct {
	Abilities *AbilityRegistry
	Templates *TemplateRegistry
}

// LoadRegistries loads abilities and templates from fsys.
func LoadRegistries(fsys fs.FS) (*Registries, error) {
	abilities, err := LoadAbilityRegistry(fsys)
	if err != nil {
		return nil, err
	}
	templates, err := LoadTemplateRegistry(fsys, abilities)
	if err != nil {
		return nil, err
	}
	return &Registries{Abilities: abilities, Templates: templates}, nil
}
