// Package config provides Viper-based configuration loading for the
// battle engine and its content pipeline.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// RulesetConfig holds the battle ruleset constants.
type RulesetConfig struct {
	// MaxSubmitCards caps the cards submitted in one select phase.
	MaxSubmitCards int `mapstructure:"max_submit_cards"`
	// HandSize is the hand refill target on entering select.
	HandSize int `mapstructure:"hand_size"`
	// BaseMaxSpeed is the player's speed budget before token bonuses.
	BaseMaxSpeed int `mapstructure:"base_max_speed"`
	// BaseMaxEnergy is the player's action budget before bonuses.
	BaseMaxEnergy int `mapstructure:"base_max_energy"`
	// OverdriveThreshold grants bonus energy at or above this ether; 0 disables.
	OverdriveThreshold int `mapstructure:"overdrive_threshold"`
	// CardEtherGain is the per-resolved-card ether income.
	CardEtherGain int `mapstructure:"card_ether_gain"`
	// EnemyEtherIncome is the flat per-turn enemy ether income.
	EnemyEtherIncome int `mapstructure:"enemy_ether_income"`
}

// CatalogConfig points at the YAML content directories.
type CatalogConfig struct {
	CardsDir   string `mapstructure:"cards_dir"`
	TokensDir  string `mapstructure:"tokens_dir"`
	EnemiesDir string `mapstructure:"enemies_dir"`
}

// ScriptsConfig holds the Lua passive-hook settings.
type ScriptsConfig struct {
	// Dir is the relic script directory; empty disables scripting.
	Dir string `mapstructure:"dir"`
	// InstructionLimit bounds each hook invocation's Lua opcode budget.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// Config is the top-level application configuration.
type Config struct {
	Ruleset RulesetConfig `mapstructure:"ruleset"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Scripts ScriptsConfig `mapstructure:"scripts"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateRuleset(c.Ruleset); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateCatalog(c.Catalog); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateScripts(c.Scripts); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateRuleset(r RulesetConfig) error {
	var errs []string
	if r.MaxSubmitCards < 1 {
		errs = append(errs, fmt.Sprintf("ruleset.max_submit_cards must be >= 1, got %d", r.MaxSubmitCards))
	}
	if r.HandSize < 1 {
		errs = append(errs, fmt.Sprintf("ruleset.hand_size must be >= 1, got %d", r.HandSize))
	}
	if r.MaxSubmitCards > r.HandSize {
		errs = append(errs, "ruleset.max_submit_cards must not exceed ruleset.hand_size")
	}
	if r.BaseMaxSpeed < 1 {
		errs = append(errs, fmt.Sprintf("ruleset.base_max_speed must be >= 1, got %d", r.BaseMaxSpeed))
	}
	if r.BaseMaxEnergy < 1 {
		errs = append(errs, fmt.Sprintf("ruleset.base_max_energy must be >= 1, got %d", r.BaseMaxEnergy))
	}
	if r.OverdriveThreshold < 0 {
		errs = append(errs, fmt.Sprintf("ruleset.overdrive_threshold must be >= 0, got %d", r.OverdriveThreshold))
	}
	if r.CardEtherGain < 0 {
		errs = append(errs, fmt.Sprintf("ruleset.card_ether_gain must be >= 0, got %d", r.CardEtherGain))
	}
	if r.EnemyEtherIncome < 0 {
		errs = append(errs, fmt.Sprintf("ruleset.enemy_ether_income must be >= 0, got %d", r.EnemyEtherIncome))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateCatalog(c CatalogConfig) error {
	var errs []string
	if c.CardsDir == "" {
		errs = append(errs, "catalog.cards_dir must not be empty")
	}
	if c.TokensDir == "" {
		errs = append(errs, "catalog.tokens_dir must not be empty")
	}
	if c.EnemiesDir == "" {
		errs = append(errs, "catalog.enemies_dir must not be empty")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateScripts(s ScriptsConfig) error {
	if s.InstructionLimit < 0 {
		return fmt.Errorf("scripts.instruction_limit must be >= 0, got %d", s.InstructionLimit)
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
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with ETHERCLASH_ prefix
	v.SetEnvPrefix("ETHERCLASH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
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

func setDefaults(v *viper.Viper) {
	v.SetDefault("ruleset.max_submit_cards", 5)
	v.SetDefault("ruleset.hand_size", 10)
	v.SetDefault("ruleset.base_max_speed", 10)
	v.SetDefault("ruleset.base_max_energy", 6)
	v.SetDefault("ruleset.overdrive_threshold", 300)
	v.SetDefault("ruleset.card_ether_gain", 10)
	v.SetDefault("ruleset.enemy_ether_income", 25)

	v.SetDefault("catalog.cards_dir", "content/cards")
	v.SetDefault("catalog.tokens_dir", "content/tokens")
	v.SetDefault("catalog.enemies_dir", "content/enemies")

	v.SetDefault("scripts.dir", "")
	v.SetDefault("scripts.instruction_limit", 1000000)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
