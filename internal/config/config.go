// Package config loads run configuration for hpfoldctl.
//
// Values come from defaults, then an optional YAML file, then HPFOLD_*
// environment variables. Command-line flags are applied by the caller.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"hpfold/internal/energy"
	"hpfold/internal/lattice"
	"hpfold/internal/model"
	"hpfold/internal/storage"
)

// MaxRandomSeed bounds seeds drawn when the configured seed is "none".
const MaxRandomSeed = 10000

// Config is a complete description of one hpfoldctl run.
type Config struct {
	Sequence        string  `yaml:"sequence"`
	Steps           int     `yaml:"steps"`
	Temperature     float64 `yaml:"temperature"`
	Annealing       bool    `yaml:"annealing"`
	Seed            Seed    `yaml:"seed"`
	Structure       [][]int `yaml:"structure,omitempty"`
	Snapshots       bool    `yaml:"snapshots"`
	MaxFoldAttempts int     `yaml:"max_fold_attempts"`
	ContactEnergy   float64 `yaml:"contact_energy"`

	Store        string `yaml:"store"`
	DBPath       string `yaml:"db_path"`
	ArtifactsDir string `yaml:"artifacts_dir"`
	LogLevel     string `yaml:"log_level"`
}

// Seed is either a fixed value or a request for a fresh random one.
type Seed struct {
	Value  int64
	Random bool
}

// ParseSeed accepts an integer or "none" in any case.
func ParseSeed(text string) (Seed, error) {
	text = strings.TrimSpace(text)
	if strings.EqualFold(text, "none") {
		return Seed{Random: true}, nil
	}
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return Seed{}, fmt.Errorf("seed must be an integer or \"none\": %q", text)
	}
	return Seed{Value: v}, nil
}

func (s *Seed) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: seed must be a scalar", node.Line)
	}
	parsed, err := ParseSeed(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*s = parsed
	return nil
}

func (s Seed) MarshalYAML() (any, error) {
	if s.Random {
		return "none", nil
	}
	return s.Value, nil
}

func (s Seed) String() string {
	if s.Random {
		return "none"
	}
	return strconv.FormatInt(s.Value, 10)
}

// Resolve returns the fixed value, or draws one in [0, MaxRandomSeed].
func (s Seed) Resolve() int64 {
	if !s.Random {
		return s.Value
	}
	return rand.Int63n(MaxRandomSeed + 1)
}

func Default() Config {
	return Config{
		Steps:         10000,
		Temperature:   1.0,
		Seed:          Seed{Random: true},
		ContactEnergy: energy.DefaultContactEnergy,
		Store:         storage.DefaultStoreKind(),
		DBPath:        "hpfold.db",
		ArtifactsDir:  "hpfold-runs",
		LogLevel:      "info",
	}
}

// Load reads configuration with priority env > file > defaults and
// validates the result. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}
	if err := loadEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("load config env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func loadEnv(cfg *Config) error {
	if v := os.Getenv("HPFOLD_SEQUENCE"); v != "" {
		cfg.Sequence = v
	}
	if v := os.Getenv("HPFOLD_STEPS"); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HPFOLD_STEPS: %w", err)
		}
		cfg.Steps = i
	}
	if v := os.Getenv("HPFOLD_TEMPERATURE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("HPFOLD_TEMPERATURE: %w", err)
		}
		cfg.Temperature = f
	}
	if v := os.Getenv("HPFOLD_ANNEALING"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("HPFOLD_ANNEALING: %w", err)
		}
		cfg.Annealing = b
	}
	if v := os.Getenv("HPFOLD_SEED"); v != "" {
		seed, err := ParseSeed(v)
		if err != nil {
			return fmt.Errorf("HPFOLD_SEED: %w", err)
		}
		cfg.Seed = seed
	}
	if v := os.Getenv("HPFOLD_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	return nil
}

// Validate checks values that do not depend on the sequence being folded.
// Sequence and structure problems are reported with the lattice sentinels.
func (c Config) Validate() error {
	if c.Steps <= 0 {
		return errors.New("steps must be > 0")
	}
	if c.Temperature <= 0 {
		return errors.New("temperature must be > 0")
	}
	if c.MaxFoldAttempts < 0 {
		return errors.New("max_fold_attempts must be >= 0")
	}
	if c.ContactEnergy <= 0 {
		return errors.New("contact_energy must be > 0")
	}
	switch c.Store {
	case "", storage.KindMemory, storage.KindSQLite:
	default:
		return fmt.Errorf("unsupported store: %s", c.Store)
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Sequence != "" {
		if _, _, err := lattice.ParseSequence(c.Sequence); err != nil {
			return err
		}
	}
	if c.Structure != nil {
		if _, err := c.Conformation(); err != nil {
			return err
		}
	}
	return nil
}

// Conformation returns the configured initial structure, or nil when the
// linear layout should be used.
func (c Config) Conformation() (model.Conformation, error) {
	if len(c.Structure) == 0 {
		return nil, nil
	}
	return lattice.FromPairs(c.Structure)
}

// ParseLogLevel maps debug, info, warn and error to slog levels.
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s", level)
	}
}
