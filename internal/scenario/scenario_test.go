package scenario

import (
	"context"
	"io/fs"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samdwyer/asciitactics/data"
	"github.com/samdwyer/asciitactics/internal/ai"
	"github.com/samdwyer/asciitactics/internal/game"
	"github.com/samdwyer/asciitactics/internal/gamedata"
	"github.com/samdwyer/asciitactics/internal/world"
)

var defaultOpts = Options{MaxElevation: 5, CautiousDistance: 3, GuardRadius: 2}

func registries(t *testing.T) *gamedata.Registries {
	t.Helper()
	reg, err := gamedata.LoadRegistries(data.FS())
	require.NoError(t, err)
	return reg
}

func arena(entities ...Placement) File {
	return File{
		Name:      "arena",
		Tiles:     []string{"#####", "#...#", "#.T.#", "#...#", "#####"},
		Heightmap: [][]int{{0, 0, 0, 0, 0}, {0, 0, 0, 0, 0}, {0, 0, 0, 0, 0}, {0, 0, 0, 0, 0}, {0, 0, 0, 0, 0}},
		Entities:  entities,
	}
}

func TestLoadTestArena(t *testing.T) {
	s, err := Load(data.FS(), "test_arena", registries(t), defaultOpts)
	require.NoError(t, err)

	assert.Equal(t, "Test Arena", s.Name)
	assert.Equal(t, 5, s.Map.Width())
	assert.Equal(t, 5, s.Map.Height())

	units, err := s.Units()
	require.NoError(t, err)
	require.Len(t, units, 2)

	assert.Equal(t, "player_char", units[0].Entity.TemplateID)
	assert.Nil(t, units[0].Behavior)
	assert.Equal(t, world.Point{X: 2, Y: 2}, units[0].Entity.Pos)

	require.NotNil(t, units[1].Behavior)
	assert.Equal(t, ai.KindAggressiveMelee, units[1].Behavior.Kind)
	assert.Equal(t, world.Point{X: 2, Y: 3}, units[1].Entity.Pos)
}

func TestLoadByPath(t *testing.T) {
	s, err := Load(data.FS(), "maps/test_arena.yaml", registries(t), defaultOpts)
	require.NoError(t, err)
	assert.Equal(t, "Test Arena", s.Name)
}

func TestLoadMissingScenario(t *testing.T) {
	_, err := Load(data.FS(), "nowhere", registries(t), defaultOpts)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestLoadOutpostBehaviors(t *testing.T) {
	s, err := Load(data.FS(), "outpost", registries(t), defaultOpts)
	require.NoError(t, err)

	units, err := s.Units()
	require.NoError(t, err)
	require.Len(t, units, 5)

	byTemplate := map[string]game.Unit{}
	for _, u := range units {
		byTemplate[u.Entity.TemplateID] = u
	}

	sentry := byTemplate["sentry"]
	require.NotNil(t, sentry.Behavior)
	assert.Equal(t, ai.KindDefensive, sentry.Behavior.Kind)
	assert.Equal(t, 3, sentry.Behavior.GuardRadius, "placement overrides the default radius")
	post, ok := sentry.Behavior.Post()
	assert.True(t, ok)
	assert.Equal(t, world.Point{X: 13, Y: 7}, post)

	gunner := byTemplate["gunner"]
	require.NotNil(t, gunner.Behavior)
	assert.Equal(t, ai.KindCautious, gunner.Behavior.Kind)
	assert.Equal(t, 3, gunner.Behavior.PreferredDistance)

	e, err := game.NewEngine(s.Map, units, game.DefaultConfig(), nil)
	require.NoError(t, err)
	require.NoError(t, e.Start(context.Background()))
	assert.Equal(t, game.PhasePlayerTurn, e.State().Phase)
}

func TestUnitsAreFreshEachCall(t *testing.T) {
	s, err := Load(data.FS(), "test_arena", registries(t), defaultOpts)
	require.NoError(t, err)

	first, err := s.Units()
	require.NoError(t, err)
	second, err := s.Units()
	require.NoError(t, err)

	first[0].Entity.HP = 0
	assert.NotSame(t, first[0].Entity, second[0].Entity)
	assert.NotEqual(t, first[0].Entity.ID, second[0].Entity.ID)
	assert.True(t, second[0].Entity.IsAlive())
}

func TestPlacementOverrides(t *testing.T) {
	s, err := FromFile(arena(
		Placement{Template: "player_char", X: 1, Y: 1},
		Placement{Template: "goblin", X: 3, Y: 3, Faction: "player", Behavior: "guard"},
	), registries(t), defaultOpts)
	require.NoError(t, err)

	units, err := s.Units()
	require.NoError(t, err)
	goblin := units[1]
	assert.Equal(t, "player", goblin.Entity.Faction)
	assert.Equal(t, "guard", goblin.Entity.BehaviorTag)
	assert.Equal(t, ai.KindDefensive, goblin.Behavior.Kind)
	assert.Equal(t, 2, goblin.Behavior.GuardRadius)
}

func TestFromFileRejects(t *testing.T) {
	player := Placement{Template: "player_char", X: 1, Y: 1}
	tests := []struct {
		name string
		file File
		want error
	}{
		{"unknown template", arena(player, Placement{Template: "dragon", X: 3, Y: 3}), ErrUnknownTemplate},
		{"unknown behavior", arena(player, Placement{Template: "goblin", X: 3, Y: 3, Behavior: "berserk"}), ai.ErrUnknownBehavior},
		{"shared cell", arena(player, Placement{Template: "goblin", X: 1, Y: 1}), game.ErrOccupied},
		{"out of bounds", arena(player, Placement{Template: "goblin", X: 9, Y: 3}), world.ErrOutOfBounds},
		{"on a tree", arena(player, Placement{Template: "goblin", X: 2, Y: 2}), world.ErrNotWalkable},
		{"no player", arena(Placement{Template: "goblin", X: 3, Y: 3}), game.ErrNoPlayer},
		{"two players", arena(player, Placement{Template: "player_char", X: 3, Y: 3}), game.ErrMultiplePlayers},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromFile(tt.file, registries(t), defaultOpts)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestFromFileRejectsBadTerrain(t *testing.T) {
	file := arena(Placement{Template: "player_char", X: 1, Y: 1})
	file.Tiles[2] = "#.?.#"
	_, err := FromFile(file, registries(t), defaultOpts)
	assert.Error(t, err)

	file = arena(Placement{Template: "player_char", X: 1, Y: 1})
	file.Heightmap[1][1] = 9
	_, err = FromFile(file, registries(t), defaultOpts)
	assert.Error(t, err)
}

func TestMaxElevationIsHonoredAsGiven(t *testing.T) {
	file := File{
		Name:      "ridge",
		Tiles:     []string{"...", "..."},
		Heightmap: [][]int{{0, 0, 0}, {3, 3, 3}},
		Entities:  []Placement{{Template: "player_char", X: 0, Y: 0}},
	}

	_, err := FromFile(file, registries(t), Options{MaxElevation: 0})
	assert.Error(t, err, "elevation 3 exceeds a maximum of 0")

	_, err = FromFile(file, registries(t), Options{MaxElevation: 2})
	assert.Error(t, err)

	s, err := FromFile(file, registries(t), Options{MaxElevation: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, s.Map.Width())

	file.Heightmap = [][]int{{0, 0, 0}, {0, 0, 0}}
	_, err = FromFile(file, registries(t), Options{MaxElevation: 0})
	assert.NoError(t, err, "a flat map fits a maximum of 0")
}

func TestGenerateIsDeterministic(t *testing.T) {
	reg := registries(t)
	a, err := Generate(context.Background(), reg, 60, 22, 5, rand.New(rand.NewSource(99)), defaultOpts)
	require.NoError(t, err)
	b, err := Generate(context.Background(), reg, 60, 22, 5, rand.New(rand.NewSource(99)), defaultOpts)
	require.NoError(t, err)

	assert.Equal(t, a.Placements, b.Placements)
	assert.Equal(t, a.Map.Rows(), b.Map.Rows())
}

func TestGeneratePlacesPlayerAndEnemies(t *testing.T) {
	s, err := Generate(context.Background(), registries(t), 60, 22, 5, rand.New(rand.NewSource(7)), defaultOpts)
	require.NoError(t, err)

	require.NotEmpty(t, s.Placements)
	assert.Equal(t, "player_char", s.Placements[0].Template)
	assert.LessOrEqual(t, len(s.Placements), 6)
	assert.Greater(t, len(s.Placements), 1)

	units, err := s.Units()
	require.NoError(t, err)
	e, err := game.NewEngine(s.Map, units, game.DefaultConfig(), nil)
	require.NoError(t, err)
	require.NoError(t, e.Start(context.Background()))
}

func TestGenerateNeedsPlayerTemplate(t *testing.T) {
	abilities, err := gamedata.NewAbilityRegistry([]gamedata.AbilityDef{
		{ID: "bite", Name: "Bite", APCost: 1, Range: 1, Damage: 3, TargetType: gamedata.TargetEnemy},
	})
	require.NoError(t, err)
	templates, err := gamedata.NewTemplateRegistry([]gamedata.TemplateDef{
		{ID: "rat", Name: "Rat", HP: 3, AP: 2, Faction: "vermin", Abilities: []string{"bite"}, Behavior: "aggressive_melee", SpawnWeight: 1},
	}, abilities)
	require.NoError(t, err)

	reg := &gamedata.Registries{Abilities: abilities, Templates: templates}
	_, err = Generate(context.Background(), reg, 40, 20, 3, rand.New(rand.NewSource(1)), defaultOpts)
	assert.ErrorIs(t, err, game.ErrNoPlayer)
}

func TestGenerateNeedsSpawnableTemplate(t *testing.T) {
	abilities, err := gamedata.NewAbilityRegistry([]gamedata.AbilityDef{
		{ID: "strike", Name: "Strike", APCost: 1, Range: 1, Damage: 5, TargetType: gamedata.TargetEnemy},
	})
	require.NoError(t, err)
	templates, err := gamedata.NewTemplateRegistry([]gamedata.TemplateDef{
		{ID: "hero", Name: "Hero", HP: 10, AP: 3, Faction: "player", Abilities: []string{"strike"}},
	}, abilities)
	require.NoError(t, err)

	reg := &gamedata.Registries{Abilities: abilities, Templates: templates}
	_, err = Generate(context.Background(), reg, 40, 20, 3, rand.New(rand.NewSource(1)), defaultOpts)
	assert.ErrorIs(t, err, ErrNoSpawnable)
}
