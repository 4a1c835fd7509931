// Package config provides Viper-based configuration loading for the tactics engine.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is "json" or "console".
	Format string `mapstructure:"format"`
	// File receives log output. The terminal is owned by the renderer, so
	// logs never go to stderr while a session runs.
	File string `mapstructure:"file"`
}

// RulesConfig holds the tunable game rules.
type RulesConfig struct {
	MaxClimb         int           `mapstructure:"max_climb"`
	MaxElevation     int           `mapstructure:"max_elevation"`
	MoveCost         int           `mapstructure:"move_cost"`
	LogSize          int           `mapstructure:"log_size"`
	CautiousDistance int           `mapstructure:"cautious_distance"`
	GuardRadius      int           `mapstructure:"guard_radius"`
	NPCDelay         time.Duration `mapstructure:"npc_delay"`
}

// ContentConfig selects the content to play.
type ContentConfig struct {
	// Dir is a directory holding abilities.json, templates.yaml and maps/.
	// Empty means the embedded content.
	Dir string `mapstructure:"dir"`
	// Scenario names a map under maps/. Empty means a generated arena.
	Scenario string `mapstructure:"scenario"`
}

// GenerateConfig drives the procedural arena.
type GenerateConfig struct {
	Width   int   `mapstructure:"width"`
	Height  int   `mapstructure:"height"`
	Enemies int   `mapstructure:"enemies"`
	Seed    int64 `mapstructure:"seed"`
}

// TelemetryConfig toggles OpenTelemetry export.
type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// SpectateConfig holds the spectator websocket listener.
type SpectateConfig struct {
	// Addr is the listen address. Empty disables spectating.
	Addr string `mapstructure:"addr"`
}

// Config is the root configuration.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Rules     RulesConfig     `mapstructure:"rules"`
	Content   ContentConfig   `mapstructure:"content"`
	Generate  GenerateConfig  `mapstructure:"generate"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Spectate  SpectateConfig  `mapstructure:"spectate"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateRules(c.Rules); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateGenerate(c.Generate); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	if l.File == "" {
		return errors.New("logging.file must not be empty")
	}
	return nil
}

func validateRules(r RulesConfig) error {
	var errs []string
	if r.MaxClimb < 0 {
		errs = append(errs, fmt.Sprintf("rules.max_climb must be >= 0, got %d", r.MaxClimb))
	}
	if r.MaxElevation < 1 {
		errs = append(errs, fmt.Sprintf("rules.max_elevation must be >= 1, got %d", r.MaxElevation))
	}
	if r.MoveCost < 1 {
		errs = append(errs, fmt.Sprintf("rules.move_cost must be >= 1, got %d", r.MoveCost))
	}
	if r.LogSize < 1 {
		errs = append(errs, fmt.Sprintf("rules.log_size must be >= 1, got %d", r.LogSize))
	}
	if r.CautiousDistance < 1 {
		errs = append(errs, fmt.Sprintf("rules.cautious_distance must be >= 1, got %d", r.CautiousDistance))
	}
	if r.GuardRadius < 1 {
		errs = append(errs, fmt.Sprintf("rules.guard_radius must be >= 1, got %d", r.GuardRadius))
	}
	if r.NPCDelay < 0 {
		errs = append(errs, "rules.npc_delay must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateGenerate(g GenerateConfig) error {
	var errs []string
	if g.Width < 20 {
		errs = append(errs, fmt.Sprintf("generate.width must be >= 20, got %d", g.Width))
	}
	if g.Height < 10 {
		errs = append(errs, fmt.Sprintf("generate.height must be >= 10, got %d", g.Height))
	}
	if g.Enemies < 1 {
		errs = append(errs, fmt.Sprintf("generate.enemies must be >= 1, got %d", g.Enemies))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result. An empty path uses defaults and the
// environment only.
//
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()

	// Environment variable overrides with TACTICS_ prefix
	v.SetEnvPrefix("TACTICS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Defaults returns the configuration produced by Load with no file and no
// environment overrides.
func Defaults() Config {
	v := viper.New()
	setDefaults(v)
	cfg, _ := LoadFromViper(v)
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.file", "asciitactics.log")

	v.SetDefault("rules.max_climb", 1)
	v.SetDefault("rules.max_elevation", 5)
	v.SetDefault("rules.move_cost", 1)
	v.SetDefault("rules.log_size", 20)
	v.SetDefault("rules.cautious_distance", 3)
	v.SetDefault("rules.guard_radius", 2)
	v.SetDefault("rules.npc_delay", "150ms")

	v.SetDefault("content.dir", "")
	v.SetDefault("content.scenario", "")

	v.SetDefault("generate.width", 60)
	v.SetDefault("generate.height", 22)
	v.SetDefault("generate.enemies", 5)
	v.SetDefault("generate.seed", 0)

	v.SetDefault("telemetry.enabled", false)

	v.SetDefault("spectate.addr", "")
}
