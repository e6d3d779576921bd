package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v3"

	"hpfold/internal/config"
	"hpfold/pkg/hpfold"
)

// commonFlags are accepted by every subcommand. Flags override the config
// file, which overrides the environment-aware defaults from config.Load.
type commonFlags struct {
	configPath   *string
	store        *string
	dbPath       *string
	artifactsDir *string
	logLevel     *string
}

func addCommonFlags(fs *flag.FlagSet) *commonFlags {
	defaults := config.Default()
	return &commonFlags{
		configPath:   fs.String("config", "", "optional YAML run config path"),
		store:        fs.String("store", defaults.Store, "store backend: memory|sqlite"),
		dbPath:       fs.String("db-path", defaults.DBPath, "sqlite database path"),
		artifactsDir: fs.String("artifacts-dir", defaults.ArtifactsDir, "run artifacts directory"),
		logLevel:     fs.String("log-level", defaults.LogLevel, "log level: debug|info|warn|error"),
	}
}

// resolve loads the config file and applies the common flags the user set.
// The returned set holds every flag name given on the command line.
func (f *commonFlags) resolve(fs *flag.FlagSet) (config.Config, map[string]bool, error) {
	set := make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) {
		set[fl.Name] = true
	})

	cfg, err := config.Load(*f.configPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	if err := overrideFromFlags(&cfg, set, map[string]any{
		"store":         *f.store,
		"db-path":       *f.dbPath,
		"artifacts-dir": *f.artifactsDir,
		"log-level":     *f.logLevel,
	}); err != nil {
		return config.Config{}, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, nil, err
	}
	return cfg, set, nil
}

func (f *commonFlags) client(fs *flag.FlagSet) (*hpfold.Client, error) {
	cfg, _, err := f.resolve(fs)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return newClient(cfg, logger, nil)
}

func overrideFromFlags(cfg *config.Config, set map[string]bool, flagValue map[string]any) error {
	for name := range set {
		v, ok := flagValue[name]
		if !ok {
			continue
		}
		switch name {
		case "sequence":
			cfg.Sequence = v.(string)
		case "steps":
			cfg.Steps = v.(int)
		case "temperature":
			cfg.Temperature = v.(float64)
		case "annealing":
			cfg.Annealing = v.(bool)
		case "seed":
			seed, err := config.ParseSeed(v.(string))
			if err != nil {
				return err
			}
			cfg.Seed = seed
		case "structure":
			pairs, err := parseStructure(v.(string))
			if err != nil {
				return err
			}
			cfg.Structure = pairs
		case "snapshots":
			cfg.Snapshots = v.(bool)
		case "max-fold-attempts":
			cfg.MaxFoldAttempts = v.(int)
		case "contact-energy":
			cfg.ContactEnergy = v.(float64)
		case "store":
			cfg.Store = v.(string)
		case "db-path":
			cfg.DBPath = v.(string)
		case "artifacts-dir":
			cfg.ArtifactsDir = v.(string)
		case "log-level":
			cfg.LogLevel = v.(string)
		default:
			return fmt.Errorf("unsupported config override flag: %s", name)
		}
	}
	return nil
}

// parseStructure reads [[x,y],...] in the same notation as the config file.
func parseStructure(text string) ([][]int, error) {
	if text == "" {
		return nil, nil
	}
	var pairs [][]int
	if err := yaml.Unmarshal([]byte(text), &pairs); err != nil {
		return nil, fmt.Errorf("parse --structure: %w", err)
	}
	return pairs, nil
}

func newLogger(level string) (*slog.Logger, error) {
	lvl, err := config.ParseLogLevel(level)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}

func newClient(cfg config.Config, logger *slog.Logger, reg prometheus.Registerer) (*hpfold.Client, error) {
	return hpfold.New(hpfold.Options{
		StoreKind:    cfg.Store,
		DBPath:       cfg.DBPath,
		ArtifactsDir: cfg.ArtifactsDir,
		Logger:       logger,
		Registerer:   reg,
	})
}
