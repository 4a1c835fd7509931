// Package scenario turns content files into the inputs of a game engine: a
// map plus the units standing on it.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math/rand"
	"path"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/samdwyer/asciitactics/internal/ai"
	"github.com/samdwyer/asciitactics/internal/entity"
	"github.com/samdwyer/asciitactics/internal/game"
	"github.com/samdwyer/asciitactics/internal/gamedata"
	"github.com/samdwyer/asciitactics/internal/telemetry"
	"github.com/samdwyer/asciitactics/internal/world"
)

// MapsDir is the directory holding scenario files inside a content filesystem.
const MapsDir = "maps"

var (
	// ErrUnknownTemplate is returned when a placement names a missing template.
	ErrUnknownTemplate = errors.New("unknown template")
	// ErrNoRooms is returned when a generated arena has nowhere to stand.
	ErrNoRooms = errors.New("generated arena has no rooms")
	// ErrNoSpawnable is returned when no template has a spawn weight.
	ErrNoSpawnable = errors.New("no spawnable templates")
)

// Placement puts one template instance on the map. Faction and Behavior
// override the template's values when set.
type Placement struct {
	Template    string `yaml:"template"`
	X           int    `yaml:"x"`
	Y           int    `yaml:"y"`
	Faction     string `yaml:"faction"`
	Behavior    string `yaml:"behavior"`
	GuardRadius int    `yaml:"guard_radius"`
}

// Point returns the placement's cell.
func (p Placement) Point() world.Point {
	return world.Point{X: p.X, Y: p.Y}
}

// File is the on-disk form of a scenario.
type File struct {
	Name      string      `yaml:"name"`
	Tiles     []string    `yaml:"tiles"`
	Heightmap [][]int     `yaml:"heightmap"`
	Entities  []Placement `yaml:"entities"`
}

// Options carry the rule values that shape a scenario's units.
type Options struct {
	MaxElevation     int // Highest legal map elevation, honored as given
	CautiousDistance int // Preferred distance for cautious NPCs
	GuardRadius      int // Default engage radius for defensive NPCs
}

// Scenario is a validated map with its placements.
type Scenario struct {
	Name       string
	Map        *world.Map
	Placements []Placement

	reg  *gamedata.Registries
	opts Options
}

// Load reads maps/<name>.yaml from fsys and validates every placement
// against the registries and the map. name may also be a path ending in
// .yaml or .json.
func Load(fsys fs.FS, name string, reg *gamedata.Registries, opts Options) (*Scenario, error) {
	filename := name
	if ext := path.Ext(name); ext != ".yaml" && ext != ".yml" && ext != ".json" {
		filename = path.Join(MapsDir, name+".yaml")
	}

	file, err := gamedata.Load[File](fsys, filename)
	if err != nil {
		return nil, err
	}
	if file.Name == "" {
		file.Name = strings.TrimSuffix(path.Base(filename), path.Ext(filename))
	}
	return FromFile(file, reg, opts)
}

// FromFile builds a scenario from an already decoded file.
func FromFile(file File, reg *gamedata.Registries, opts Options) (*Scenario, error) {
	m, err := world.New(file.Tiles, file.Heightmap, opts.MaxElevation)
	if err != nil {
		return nil, fmt.Errorf("scenario %q: %w", file.Name, err)
	}
	s := &Scenario{
		Name:       file.Name,
		Map:        m,
		Placements: file.Entities,
		reg:        reg,
		opts:       opts,
	}
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("scenario %q: %w", file.Name, err)
	}
	return s, nil
}

// validate checks placements without building the engine: templates and
// behaviors resolve, cells are enterable and unshared, one player.
func (s *Scenario) validate() error {
	occupied := make(map[world.Point]string, len(s.Placements))
	players := 0
	for i, p := range s.Placements {
		tmpl := s.reg.Templates.GetByID(p.Template)
		if tmpl == nil {
			return fmt.Errorf("entity %d: %q: %w", i, p.Template, ErrUnknownTemplate)
		}
		if err := s.Map.CheckEnter(p.X, p.Y); err != nil {
			return fmt.Errorf("entity %d (%s) at (%d,%d): %w", i, p.Template, p.X, p.Y, err)
		}
		if other, ok := occupied[p.Point()]; ok {
			return fmt.Errorf("entity %d (%s) at (%d,%d) shares a cell with %s: %w", i, p.Template, p.X, p.Y, other, game.ErrOccupied)
		}
		occupied[p.Point()] = p.Template

		tag := behaviorTag(p, tmpl)
		if ai.IsPlayerTag(tag) {
			players++
			continue
		}
		if _, err := ai.New(tag, ai.Options{}); err != nil {
			return fmt.Errorf("entity %d (%s): %w", i, p.Template, err)
		}
	}
	switch {
	case players == 0:
		return game.ErrNoPlayer
	case players > 1:
		return game.ErrMultiplePlayers
	}
	return nil
}

// Units creates fresh entities and behaviors for every placement. Each call
// yields a new, independent set, so a scenario can be replayed.
func (s *Scenario) Units() ([]game.Unit, error) {
	units := make([]game.Unit, 0, len(s.Placements))
	for _, p := range s.Placements {
		tmpl := s.reg.Templates.GetByID(p.Template)
		if tmpl == nil {
			return nil, fmt.Errorf("%q: %w", p.Template, ErrUnknownTemplate)
		}
		abilities, err := s.reg.Abilities.Resolve(tmpl.Abilities)
		if err != nil {
			return nil, fmt.Errorf("template %q: %w", tmpl.ID, err)
		}

		ent := entity.New(tmpl, abilities, p.Point())
		if p.Faction != "" {
			ent.Faction = p.Faction
		}
		ent.BehaviorTag = behaviorTag(p, tmpl)

		guard := p.GuardRadius
		if guard <= 0 {
			guard = s.opts.GuardRadius
		}
		post := p.Point()
		behavior, err := ai.New(ent.BehaviorTag, ai.Options{
			PreferredDistance: s.opts.CautiousDistance,
			GuardRadius:       guard,
			Post:              &post,
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ent.Name, err)
		}
		units = append(units, game.Unit{Entity: ent, Behavior: behavior})
	}
	return units, nil
}

func behaviorTag(p Placement, tmpl *gamedata.TemplateDef) string {
	if p.Behavior != "" {
		return p.Behavior
	}
	return tmpl.Behavior
}

// Generate builds a procedural arena: the player template stands at the
// center of the first room and enemies weighted-random templates are spread
// over the remaining rooms. The same rng seed always yields the same scenario.
func Generate(ctx context.Context, reg *gamedata.Registries, width, height, enemies int, rng *rand.Rand, opts Options) (*Scenario, error) {
	tracer := telemetry.Tracer("scenario")
	ctx, span := tracer.Start(ctx, "scenario.generate")
	defer span.End()

	player := playerTemplate(reg.Templates)
	if player == nil {
		return nil, game.ErrNoPlayer
	}

	m, rooms := world.Generate(ctx, width, height, rng)
	if len(rooms) == 0 {
		return nil, ErrNoRooms
	}

	px, py := rooms[0].Center()
	placements := []Placement{{Template: player.ID, X: px, Y: py}}
	occupied := map[world.Point]bool{{X: px, Y: py}: true}

	spawnRooms := rooms[1:]
	if len(spawnRooms) == 0 {
		spawnRooms = rooms
	}
	for i := 0; i < enemies; i++ {
		tmpl := reg.Templates.SpawnRandom(rng)
		if tmpl == nil {
			return nil, ErrNoSpawnable
		}
		p, ok := freeCell(m, spawnRooms[i%len(spawnRooms)], occupied, rng)
		if !ok {
			continue
		}
		occupied[p] = true
		placements = append(placements, Placement{Template: tmpl.ID, X: p.X, Y: p.Y})
	}

	span.SetAttributes(
		attribute.Int("scenario.rooms", len(rooms)),
		attribute.Int("scenario.enemies", len(placements)-1),
	)

	return FromFile(File{
		Name:      "Generated Arena",
		Tiles:     m.Rows(),
		Heightmap: m.Elevations(),
		Entities:  placements,
	}, reg, opts)
}

// playerTemplate returns the first template controlled by the player.
func playerTemplate(templates *gamedata.TemplateRegistry) *gamedata.TemplateDef {
	all := templates.All()
	for i := range all {
		if ai.IsPlayerTag(all[i].Behavior) {
			return &all[i]
		}
	}
	return nil
}

// freeCell picks a random enterable, unoccupied cell in room. It gives up
// after a bounded number of tries so a crowded room cannot stall generation.
func freeCell(m *world.Map, room world.Room, occupied map[world.Point]bool, rng *rand.Rand) (world.Point, bool) {
	const tries = 32
	for i := 0; i < tries; i++ {
		p := world.Point{X: room.X + rng.Intn(room.Width), Y: room.Y + rng.Intn(room.Height)}
		if occupied[p] || m.CheckEnter(p.X, p.Y) != nil {
			continue
		}
		return p, true
	}
	return world.Point{}, false
}
