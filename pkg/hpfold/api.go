// Package hpfold runs HP lattice folding simulations and keeps a record of
// them on disk and in a run store.
package hpfold

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"hpfold/internal/engine"
	"hpfold/internal/lattice"
	"hpfold/internal/model"
	"hpfold/internal/stats"
	"hpfold/internal/storage"
)

const (
	defaultArtifactsDir = "hpfold-runs"
	defaultExportsDir   = "exports"
	defaultDBPath       = "hpfold.db"
	defaultPlotWindow   = 10
	defaultRunsLimit    = 20
	progressDivisions   = 10
)

var ErrRunNotFound = errors.New("run not found")

type Options struct {
	StoreKind    string
	DBPath       string
	ArtifactsDir string
	ExportsDir   string
	Logger       *slog.Logger
	// Registerer receives the engine collectors. Nil disables metrics.
	Registerer prometheus.Registerer
}

type Client struct {
	store   storage.Store
	logger  *slog.Logger
	metrics *engine.Metrics

	artifactsDir string
	exportsDir   string

	initMu      sync.Mutex
	initialized bool
}

type RunRequest struct {
	// Sequence is H/P text or a 20-letter amino-acid string.
	Sequence string
	// Structure is the initial layout as [x, y] pairs; empty means linear.
	Structure       [][]int
	Steps           int
	Temperature     float64
	Annealing       bool
	Seed            int64
	Snapshots       bool
	MaxFoldAttempts int
	// ContactEnergy of zero selects the default of 1.
	ContactEnergy float64
	PlotWindow    int
	// OnProgress is called every tenth of the run and after the last step.
	OnProgress func(Progress)
}

type Progress struct {
	Step    int
	Steps   int
	Energy  float64
	Current model.Conformation
}

type RunSummary struct {
	RunID        string
	ArtifactsDir string
	Sequence     string
	Converted    bool
	Seed         int64
	Summary      stats.Summary
	Structures   stats.Structures
	Duration     time.Duration
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID          string
	CreatedAtUTC   string
	Sequence       string
	Steps          int
	Temperature    float64
	Annealing      bool
	Seed           int64
	MinEnergy      float64
	MaxCompactness int
}

type ShowRequest struct {
	RunID  string
	Latest bool
	// History also loads the per-step trajectory and series.
	History bool
}

type ShowResult struct {
	Record     model.RunRecord
	Summary    stats.Summary
	Structures stats.Structures
	Plots      stats.EvolutionPlots
	Trajectory *stats.Trajectory `json:",omitempty"`
	Series     []stats.SeriesRow `json:",omitempty"`
}

type DeleteRequest struct {
	RunID string
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type ExportSummary struct {
	RunID     string
	Directory string
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	artifactsDir := opts.ArtifactsDir
	if artifactsDir == "" {
		artifactsDir = defaultArtifactsDir
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	c := &Client{
		store:        store,
		logger:       logger,
		artifactsDir: artifactsDir,
		exportsDir:   exportsDir,
	}
	if opts.Registerer != nil {
		c.metrics = engine.NewMetrics(opts.Registerer)
	}
	return c, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	c.initMu.Lock()
	defer c.initMu.Unlock()

	if c.initialized {
		return nil
	}
	if err := c.store.Init(ctx); err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	c.initialized = true
	return nil
}

func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if req.PlotWindow <= 0 {
		req.PlotWindow = defaultPlotWindow
	}

	seq, converted, err := lattice.ParseSequence(req.Sequence)
	if err != nil {
		return RunSummary{}, err
	}
	if converted {
		c.logger.Info("sequence converted to HP", slog.String("input", req.Sequence), slog.String("sequence", seq.String()))
	}
	var initial model.Conformation
	if len(req.Structure) > 0 {
		initial, err = lattice.FromPairs(req.Structure)
		if err != nil {
			return RunSummary{}, err
		}
	}

	if err := c.Init(ctx); err != nil {
		return RunSummary{}, err
	}

	runID := uuid.NewString()
	logger := c.logger.With(slog.String("run_id", runID))

	var sim *engine.Simulation
	sim, err = engine.New(engine.Config{
		Sequence:        seq,
		Initial:         initial,
		Steps:           req.Steps,
		Temperature:     req.Temperature,
		Annealing:       req.Annealing,
		Seed:            req.Seed,
		RecordSnapshots: req.Snapshots,
		MaxFoldAttempts: req.MaxFoldAttempts,
		ContactEnergy:   req.ContactEnergy,
		Logger:          logger,
		Metrics:         c.metrics,
		OnStep: progressCallback(req.Steps, req.OnProgress, func() model.Conformation {
			return sim.Current()
		}),
	})
	if err != nil {
		return RunSummary{}, err
	}

	started := time.Now()
	result, err := sim.Run(ctx)
	if err != nil {
		return RunSummary{}, err
	}
	duration := time.Since(started)
	now := time.Now().UTC()

	artifacts := stats.BuildRunArtifacts(stats.RunConfig{
		RunID:           runID,
		InputSequence:   req.Sequence,
		Sequence:        seq.String(),
		Converted:       converted,
		Steps:           req.Steps,
		Temperature:     req.Temperature,
		Annealing:       req.Annealing,
		Seed:            req.Seed,
		Initial:         initial,
		Snapshots:       req.Snapshots,
		MaxFoldAttempts: req.MaxFoldAttempts,
		ContactEnergy:   req.ContactEnergy,
		PlotWindow:      req.PlotWindow,
	}, result)
	runDir, err := stats.WriteRunArtifacts(c.artifactsDir, artifacts)
	if err != nil {
		return RunSummary{}, fmt.Errorf("write artifacts: %w", err)
	}

	createdAt := now.Format(time.RFC3339Nano)
	if err := stats.AppendRunIndex(c.artifactsDir, stats.RunIndexEntry{
		RunID:          runID,
		Sequence:       seq.String(),
		Steps:          req.Steps,
		Temperature:    req.Temperature,
		Annealing:      req.Annealing,
		Seed:           req.Seed,
		MinEnergy:      result.MinEnergy,
		MaxCompactness: result.MaxCompactness,
		CreatedAtUTC:   createdAt,
	}); err != nil {
		return RunSummary{}, err
	}

	record := storage.Stamp(model.RunRecord{
		RunID:             runID,
		Sequence:          seq.String(),
		Steps:             req.Steps,
		Temperature:       req.Temperature,
		Annealing:         req.Annealing,
		Seed:              req.Seed,
		FinalEnergy:       result.FinalEnergy,
		MinEnergy:         result.MinEnergy,
		MaxCompactness:    result.MaxCompactness,
		AcceptedMoves:     result.AcceptedMoves,
		FoldAttempts:      sum(result.FoldAttempts),
		Final:             result.Final,
		MinEnergyConf:     result.MinEnergyConformation,
		MaxCompactConf:    result.MaxCompactnessConformation,
		ArtifactsDir:      filepath.Clean(runDir),
		CreatedAtUTC:      createdAt,
		DurationMillis:    duration.Milliseconds(),
		ConvertedSequence: converted,
	})
	if err := c.store.SaveRun(ctx, record); err != nil {
		return RunSummary{}, fmt.Errorf("save run: %w", err)
	}

	return RunSummary{
		RunID:        runID,
		ArtifactsDir: filepath.Clean(runDir),
		Sequence:     seq.String(),
		Converted:    converted,
		Seed:         req.Seed,
		Summary:      artifacts.Summary,
		Structures:   artifacts.Structures,
		Duration:     duration,
	}, nil
}

// Runs lists recorded runs, newest first, from the run index under the
// artifacts directory.
func (c *Client) Runs(_ context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = defaultRunsLimit
	}

	entries, err := stats.ListRunIndex(c.artifactsDir)
	if err != nil {
		return nil, err
	}
	if len(entries) > req.Limit {
		entries = entries[:req.Limit]
	}

	out := make([]RunItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, RunItem{
			RunID:          e.RunID,
			CreatedAtUTC:   e.CreatedAtUTC,
			Sequence:       e.Sequence,
			Steps:          e.Steps,
			Temperature:    e.Temperature,
			Annealing:      e.Annealing,
			Seed:           e.Seed,
			MinEnergy:      e.MinEnergy,
			MaxCompactness: e.MaxCompactness,
		})
	}
	return out, nil
}

// Show loads one run. The store record is preferred; runs written by an
// earlier process with a memory store are rebuilt from their artifacts.
func (c *Client) Show(ctx context.Context, req ShowRequest) (ShowResult, error) {
	runID, err := c.resolveRunID(req.RunID, req.Latest)
	if err != nil {
		return ShowResult{}, err
	}
	if err := c.Init(ctx); err != nil {
		return ShowResult{}, err
	}

	record, inStore, err := c.store.GetRun(ctx, runID)
	if err != nil {
		return ShowResult{}, err
	}
	summary, hasSummary, err := stats.ReadSummary(c.artifactsDir, runID)
	if err != nil {
		return ShowResult{}, err
	}
	structures, hasStructures, err := stats.ReadStructures(c.artifactsDir, runID)
	if err != nil {
		return ShowResult{}, err
	}
	if !inStore && !hasSummary {
		return ShowResult{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	plots, _, err := stats.ReadPlots(c.artifactsDir, runID)
	if err != nil {
		return ShowResult{}, err
	}

	if !inStore {
		cfg, _, err := stats.ReadRunConfig(c.artifactsDir, runID)
		if err != nil {
			return ShowResult{}, err
		}
		record = recordFromArtifacts(runID, filepath.Join(c.artifactsDir, runID), cfg, summary, structures)
	}
	if !hasStructures {
		structures = stats.Structures{
			Sequence:       record.Sequence,
			Final:          record.Final,
			MinEnergy:      record.MinEnergyConf,
			MaxCompactness: record.MaxCompactConf,
		}
	}
	out := ShowResult{Record: record, Summary: summary, Structures: structures, Plots: plots}
	if req.History {
		trajectory, ok, err := stats.ReadTrajectory(c.artifactsDir, runID)
		if err != nil {
			return ShowResult{}, err
		}
		if ok {
			out.Trajectory = &trajectory
		}
		series, _, err := stats.ReadSeries(c.artifactsDir, runID)
		if err != nil {
			return ShowResult{}, err
		}
		out.Series = series
	}
	return out, nil
}

// Delete removes a run from the store, its artifacts and the run index.
func (c *Client) Delete(ctx context.Context, req DeleteRequest) error {
	if req.RunID == "" {
		return errors.New("run id is required")
	}
	if err := c.Init(ctx); err != nil {
		return err
	}
	_, inStore, err := c.store.GetRun(ctx, req.RunID)
	if err != nil {
		return err
	}
	if inStore {
		if err := c.store.DeleteRun(ctx, req.RunID); err != nil {
			return fmt.Errorf("delete run: %w", err)
		}
	}
	onDisk, err := stats.RemoveRun(c.artifactsDir, req.RunID)
	if err != nil {
		return err
	}
	if !inStore && !onDisk {
		return fmt.Errorf("%w: %s", ErrRunNotFound, req.RunID)
	}
	c.logger.Info("run deleted", slog.String("run_id", req.RunID))
	return nil
}

func (c *Client) Export(_ context.Context, req ExportRequest) (ExportSummary, error) {
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}
	runID, err := c.resolveRunID(req.RunID, req.Latest)
	if err != nil {
		return ExportSummary{}, err
	}

	exportedDir, err := stats.ExportRunArtifacts(c.artifactsDir, runID, req.OutDir)
	if err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{RunID: runID, Directory: filepath.Clean(exportedDir)}, nil
}

func (c *Client) resolveRunID(runID string, latest bool) (string, error) {
	if runID != "" && latest {
		return "", errors.New("use either run id or latest")
	}
	if runID == "" && !latest {
		return "", errors.New("run id or latest is required")
	}
	if !latest {
		return runID, nil
	}
	entries, err := stats.ListRunIndex(c.artifactsDir)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", fmt.Errorf("%w: no runs recorded", ErrRunNotFound)
	}
	return entries[0].RunID, nil
}

func progressCallback(steps int, fn func(Progress), current func() model.Conformation) func(engine.StepRecord) {
	if fn == nil || steps <= 0 {
		return nil
	}
	every := max(1, steps/progressDivisions)
	return func(rec engine.StepRecord) {
		done := rec.Step + 1
		if done%every == 0 || done == steps {
			fn(Progress{Step: done, Steps: steps, Energy: rec.Energy, Current: current()})
		}
	}
}

func recordFromArtifacts(runID, dir string, cfg stats.RunConfig, summary stats.Summary, structures stats.Structures) model.RunRecord {
	return model.RunRecord{
		RunID:             runID,
		Sequence:          cfg.Sequence,
		Steps:             cfg.Steps,
		Temperature:       cfg.Temperature,
		Annealing:         cfg.Annealing,
		Seed:              cfg.Seed,
		FinalEnergy:       summary.FinalEnergy,
		MinEnergy:         summary.MinEnergy,
		MaxCompactness:    summary.MaxCompactness,
		AcceptedMoves:     summary.AcceptedMoves,
		Final:             structures.Final,
		MinEnergyConf:     structures.MinEnergy,
		MaxCompactConf:    structures.MaxCompactness,
		ArtifactsDir:      filepath.Clean(dir),
		ConvertedSequence: cfg.Converted,
	}
}

func sum(values []int) int {
	total := 0
	for _, v := range values {
		total += v
	}
	return total
}
