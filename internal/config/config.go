// Package config loads ghostpatch configuration from YAML with environment
// overrides for deployment-specific values.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"ghostpatch/internal/compile"
	"ghostpatch/internal/logging"
)

// Config holds all ghostpatch configuration.
type Config struct {
	Name         string `yaml:"name"`
	CatalogPath  string `yaml:"catalog_path"`
	DatabasePath string `yaml:"database_path"`
	WatchCatalog bool   `yaml:"watch_catalog"`

	Run      RunConfig      `yaml:"run"`
	Engine   compile.Config `yaml:"engine"`
	Narrator NarratorConfig `yaml:"narrator"`
	Logging  logging.Config `yaml:"logging"`
}

// RunConfig seeds new game runs.
type RunConfig struct {
	Seed             int64  `yaml:"seed"` // 0 = seed from clock
	InitialStability int    `yaml:"initial_stability"`
	InitialInsight   int    `yaml:"initial_insight"`
	SkillLevel       int    `yaml:"skill_level"`
	StartRoom        string `yaml:"start_room"`
	TerminalRoom     string `yaml:"terminal_room"`
	HistoryLimit     int    `yaml:"history_limit"`
}

// NarratorConfig configures the content-generation collaborator. An empty
// API key selects the deterministic local narrator.
type NarratorConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		Name:         "ghostpatch",
		CatalogPath:  "content/anomalies.yaml",
		DatabasePath: "ghostpatch.db",
		Run: RunConfig{
			InitialStability: 80,
			InitialInsight:   10,
			SkillLevel:       50,
			StartRoom:        "lobby",
			TerminalRoom:     "core",
			HistoryLimit:     compile.DefaultHistoryLimit,
		},
		Engine:  compile.DefaultConfig(),
		Logging: logging.DefaultConfig(),
	}
}

// Load reads a YAML config file over the defaults and applies environment
// overrides. A missing file is not an error: defaults plus environment win.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// defaults only
	case err != nil:
		return cfg, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("GHOSTPATCH_DB"); v != "" {
		c.DatabasePath = v
	}
	if v := os.Getenv("GHOSTPATCH_CATALOG"); v != "" {
		c.CatalogPath = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.Narrator.APIKey = v
	}
	if v := os.Getenv("GHOSTPATCH_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Run.Seed = seed
		}
	}
	if v := os.Getenv("GHOSTPATCH_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

func (c *Config) validate() error {
	if c.Run.InitialStability < 0 || c.Run.InitialStability > 100 {
		return fmt.Errorf("initial_stability %d out of range [0,100]", c.Run.InitialStability)
	}
	if c.Run.InitialInsight < 0 || c.Run.InitialInsight > 100 {
		return fmt.Errorf("initial_insight %d out of range [0,100]", c.Run.InitialInsight)
	}
	if c.Run.SkillLevel < 0 || c.Run.SkillLevel > 100 {
		return fmt.Errorf("skill_level %d out of range [0,100]", c.Run.SkillLevel)
	}
	if c.Engine.BaseProbability < 0 || c.Engine.BaseProbability > 1 {
		return fmt.Errorf("engine base_probability %f out of range [0,1]", c.Engine.BaseProbability)
	}
	if c.Engine.CascadeThreshold < 0 || c.Engine.CascadeThreshold > 1 {
		return fmt.Errorf("engine cascade_threshold %f out of range [0,1]", c.Engine.CascadeThreshold)
	}
	if c.Engine.MaxCascadeDepth < 0 {
		return fmt.Errorf("engine max_cascade_depth must be >= 0")
	}
	return nil
}
