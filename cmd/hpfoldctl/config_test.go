package main

import (
	"flag"
	"testing"

	"hpfold/internal/config"
)

func TestOverrideFromFlagsOnlyAppliesSetFlags(t *testing.T) {
	cfg := config.Default()
	cfg.Steps = 500

	err := overrideFromFlags(&cfg, map[string]bool{"temperature": true, "seed": true, "structure": true, "config": true}, map[string]any{
		"steps":       10,
		"temperature": 3.5,
		"seed":        "12",
		"structure":   "[[0,0],[0,1],[1,1]]",
	})
	if err != nil {
		t.Fatalf("override: %v", err)
	}
	if cfg.Steps != 500 {
		t.Fatalf("unset flag changed steps: %d", cfg.Steps)
	}
	if cfg.Temperature != 3.5 || cfg.Seed != (config.Seed{Value: 12}) {
		t.Fatalf("unexpected overrides: %+v", cfg)
	}
	if len(cfg.Structure) != 3 || cfg.Structure[1][1] != 1 {
		t.Fatalf("unexpected structure: %v", cfg.Structure)
	}
}

func TestOverrideFromFlagsRejectsUnknown(t *testing.T) {
	cfg := config.Default()
	if err := overrideFromFlags(&cfg, map[string]bool{"workers": true}, map[string]any{"workers": 4}); err == nil {
		t.Fatal("expected unsupported override error")
	}
}

func TestParseStructure(t *testing.T) {
	pairs, err := parseStructure("[[0, 0], [1, 0]]")
	if err != nil {
		t.Fatalf("parse structure: %v", err)
	}
	if len(pairs) != 2 || pairs[1][0] != 1 {
		t.Fatalf("unexpected pairs: %v", pairs)
	}
	if pairs, err := parseStructure(""); err != nil || pairs != nil {
		t.Fatalf("expected empty structure, got %v %v", pairs, err)
	}
	if _, err := parseStructure("[[0,"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestCommonFlagsResolve(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	common := addCommonFlags(fs)
	if err := fs.Parse([]string{"--store", "memory", "--artifacts-dir", "elsewhere"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	cfg, set, err := common.resolve(fs)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.ArtifactsDir != "elsewhere" || !set["artifacts-dir"] || set["db-path"] {
		t.Fatalf("unexpected resolve result: cfg=%+v set=%v", cfg, set)
	}
	if cfg.DBPath != config.Default().DBPath {
		t.Fatalf("unset flag changed db path: %s", cfg.DBPath)
	}
}
