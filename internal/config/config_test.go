package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func validConfig() Config {
	return Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			File:   "asciitactics.log",
		},
		Rules: RulesConfig{
			MaxClimb:         1,
			MaxElevation:     5,
			MoveCost:         1,
			LogSize:          20,
			CautiousDistance: 3,
			GuardRadius:      2,
			NPCDelay:         150 * time.Millisecond,
		},
		Generate: GenerateConfig{
			Width:   60,
			Height:  22,
			Enemies: 5,
		},
	}
}

func TestValidConfigPasses(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestDefaultsMatchValidConfig(t *testing.T) {
	assert.Equal(t, validConfig(), Defaults())
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Rules.MaxClimb)
	assert.Equal(t, 20, cfg.Rules.LogSize)
	assert.Empty(t, cfg.Content.Scenario)
	assert.Empty(t, cfg.Spectate.Addr)
	assert.False(t, cfg.Telemetry.Enabled)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	err := os.WriteFile(path, []byte(`
logging:
  level: debug
  format: console
rules:
  max_climb: 2
  npc_delay: 0s
content:
  scenario: outpost
spectate:
  addr: 127.0.0.1:8089
`), 0644)
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 2, cfg.Rules.MaxClimb)
	assert.Equal(t, time.Duration(0), cfg.Rules.NPCDelay)
	assert.Equal(t, 5, cfg.Rules.MaxElevation, "unset keys keep their defaults")
	assert.Equal(t, "outpost", cfg.Content.Scenario)
	assert.Equal(t, "127.0.0.1:8089", cfg.Spectate.Addr)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("TACTICS_RULES_GUARD_RADIUS", "4")
	t.Setenv("TACTICS_CONTENT_SCENARIO", "test_arena")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Rules.GuardRadius)
	assert.Equal(t, "test_arena", cfg.Content.Scenario)
}

func TestLoadInvalidPath(t *testing.T) {
	_, err := Load("/nonexistent/path.yaml")
	assert.Error(t, err)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rules:\n  move_cost: 0\n"), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rules.move_cost")
}

func TestLoadFromViper(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("generate.seed", 42)

	cfg, err := LoadFromViper(v)
	require.NoError(t, err)
	assert.Equal(t, int64(42), cfg.Generate.Seed)
}

func TestValidateLoggingLevel(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		cfg := validConfig()
		cfg.Logging.Level = level
		assert.NoError(t, cfg.Validate(), "level %q should be valid", level)
	}
	cfg := validConfig()
	cfg.Logging.Level = "trace"
	assert.Error(t, cfg.Validate())
}

func TestValidateLoggingFormat(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Format = "xml"
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Logging.File = ""
	assert.Error(t, cfg.Validate())
}

func TestValidateRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RulesConfig)
	}{
		{"negative climb", func(r *RulesConfig) { r.MaxClimb = -1 }},
		{"flat-only max elevation", func(r *RulesConfig) { r.MaxElevation = 0 }},
		{"free moves", func(r *RulesConfig) { r.MoveCost = 0 }},
		{"empty log", func(r *RulesConfig) { r.LogSize = 0 }},
		{"zero cautious distance", func(r *RulesConfig) { r.CautiousDistance = 0 }},
		{"zero guard radius", func(r *RulesConfig) { r.GuardRadius = 0 }},
		{"negative delay", func(r *RulesConfig) { r.NPCDelay = -time.Second }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg.Rules)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidateCollectsAllViolations(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Level = "loud"
	cfg.Rules.LogSize = 0
	cfg.Generate.Enemies = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.level")
	assert.Contains(t, err.Error(), "rules.log_size")
	assert.Contains(t, err.Error(), "generate.enemies")
}

// Property-based tests

func TestPropertyArenaSize(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		width := rapid.IntRange(0, 200).Draw(t, "width")
		height := rapid.IntRange(0, 100).Draw(t, "height")
		cfg := validConfig()
		cfg.Generate.Width = width
		cfg.Generate.Height = height
		err := cfg.Validate()
		if width >= 20 && height >= 10 {
			assert.NoError(t, err)
		} else {
			assert.Error(t, err)
		}
	})
}

func TestPropertyMaxClimb(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		climb := rapid.IntRange(-10, 10).Draw(t, "climb")
		cfg := validConfig()
		cfg.Rules.MaxClimb = climb
		if climb >= 0 {
			assert.NoError(t, cfg.Validate())
		} else {
			assert.Error(t, cfg.Validate())
		}
	})
}
