package stats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"hpfold/internal/energy"
	"hpfold/internal/engine"
	"hpfold/internal/model"
)

const runIndexFile = "run_index.json"

var artifactFiles = []string{"config.json", "summary.json", "trajectory.json", "structures.json", "plots.json", "series.csv"}

type RunConfig struct {
	RunID           string             `json:"run_id"`
	InputSequence   string             `json:"input_sequence"`
	Sequence        string             `json:"sequence"`
	Converted       bool               `json:"converted,omitempty"`
	Steps           int                `json:"steps"`
	Temperature     float64            `json:"temperature"`
	Annealing       bool               `json:"annealing"`
	Seed            int64              `json:"seed"`
	Initial         model.Conformation `json:"initial,omitempty"`
	Snapshots       bool               `json:"snapshots"`
	MaxFoldAttempts int                `json:"max_fold_attempts,omitempty"`
	ContactEnergy   float64            `json:"contact_energy"`
	PlotWindow      int                `json:"plot_window"`
}

// Trajectory holds the per-step histories of a run.
type Trajectory struct {
	Energy       []float64 `json:"energy"`
	Compactness  []int     `json:"compactness"`
	Temperature  []float64 `json:"temperature"`
	FoldAttempts []int     `json:"fold_attempts"`
}

// Structures holds the conformations worth viewing after a run.
type Structures struct {
	Sequence       string             `json:"sequence"`
	Final          model.Conformation `json:"final"`
	MinEnergy      model.Conformation `json:"min_energy"`
	MaxCompactness model.Conformation `json:"max_compactness"`
	Snapshots      []engine.Snapshot  `json:"snapshots,omitempty"`
}

type RunArtifacts struct {
	Config     RunConfig      `json:"config"`
	Summary    Summary        `json:"summary"`
	Trajectory Trajectory     `json:"trajectory"`
	Structures Structures     `json:"structures"`
	Plots      EvolutionPlots `json:"plots"`
}

type RunIndexEntry struct {
	RunID          string  `json:"run_id"`
	Sequence       string  `json:"sequence"`
	Steps          int     `json:"steps"`
	Temperature    float64 `json:"temperature"`
	Annealing      bool    `json:"annealing"`
	Seed           int64   `json:"seed"`
	MinEnergy      float64 `json:"min_energy"`
	MaxCompactness int     `json:"max_compactness"`
	CreatedAtUTC   string  `json:"created_at_utc"`
}

// BuildRunArtifacts gathers everything written for a finished run.
func BuildRunArtifacts(cfg RunConfig, res engine.Result) RunArtifacts {
	return RunArtifacts{
		Config:  cfg,
		Summary: Summarize(res),
		Trajectory: Trajectory{
			Energy:       res.EnergyHistory,
			Compactness:  res.CompactnessHistory,
			Temperature:  res.TemperatureHistory,
			FoldAttempts: res.FoldAttempts,
		},
		Structures: Structures{
			Sequence:       res.Sequence.String(),
			Final:          res.Final,
			MinEnergy:      res.MinEnergyConformation,
			MaxCompactness: res.MaxCompactnessConformation,
			Snapshots:      res.Snapshots,
		},
		Plots: BuildEvolutionPlots(res, cfg.PlotWindow),
	}
}

func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	if artifacts.Config.RunID == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(baseDir, artifacts.Config.RunID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := WriteRunConfig(baseDir, artifacts.Config.RunID, artifacts.Config); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "summary.json"), artifacts.Summary); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "trajectory.json"), artifacts.Trajectory); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "structures.json"), artifacts.Structures); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "plots.json"), artifacts.Plots); err != nil {
		return "", err
	}
	if err := WriteSeries(runDir, artifacts.Trajectory); err != nil {
		return "", err
	}

	return runDir, nil
}

func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := readRunIndex(baseDir)
	if err != nil {
		return err
	}

	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}

	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

// readRunIndex returns the index in append order.
func readRunIndex(baseDir string) ([]RunIndexEntry, error) {
	path := filepath.Join(baseDir, runIndexFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunIndexEntry{}, nil
		}
		return nil, err
	}

	var entries []RunIndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// RemoveRun deletes a run directory and its index entry. It reports whether
// either was present.
func RemoveRun(baseDir, runID string) (bool, error) {
	if strings.TrimSpace(runID) == "" {
		return false, fmt.Errorf("run id is required")
	}
	runDir := filepath.Join(baseDir, runID)
	found := false
	if _, err := os.Stat(runDir); err == nil {
		found = true
		if err := os.RemoveAll(runDir); err != nil {
			return false, err
		}
	} else if !os.IsNotExist(err) {
		return false, err
	}

	index, err := readRunIndex(baseDir)
	if err != nil {
		return found, err
	}
	kept := index[:0]
	for _, entry := range index {
		if entry.RunID == runID {
			found = true
			continue
		}
		kept = append(kept, entry)
	}
	if len(kept) == len(index) {
		return found, nil
	}
	return found, writeJSON(filepath.Join(baseDir, runIndexFile), kept)
}

// ListRunIndex returns index entries, newest first.
func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	entries, err := readRunIndex(baseDir)
	if err != nil {
		return nil, err
	}

	type indexedEntry struct {
		entry RunIndexEntry
		idx   int
	}
	indexed := make([]indexedEntry, len(entries))
	for i := range entries {
		indexed[i] = indexedEntry{entry: entries[i], idx: i}
	}
	sort.Slice(indexed, func(i, j int) bool {
		if indexed[i].entry.CreatedAtUTC == indexed[j].entry.CreatedAtUTC {
			// Prefer later appended entries for equal timestamps.
			return indexed[i].idx > indexed[j].idx
		}
		return indexed[i].entry.CreatedAtUTC > indexed[j].entry.CreatedAtUTC
	})

	sorted := make([]RunIndexEntry, 0, len(indexed))
	for _, item := range indexed {
		sorted = append(sorted, item.entry)
	}
	return sorted, nil
}

func ExportRunArtifacts(baseDir, runID, outDir string) (string, error) {
	if runID == "" {
		return "", fmt.Errorf("run id is required")
	}

	src := filepath.Join(baseDir, runID)
	if _, err := os.Stat(src); err != nil {
		return "", err
	}

	dst := filepath.Join(outDir, runID)
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return "", err
	}

	for _, file := range artifactFiles {
		if err := copyFile(filepath.Join(src, file), filepath.Join(dst, file)); err != nil {
			return "", err
		}
	}
	return dst, nil
}

func ReadRunConfig(baseDir, runID string) (RunConfig, bool, error) {
	var cfg RunConfig
	ok, err := readJSON(filepath.Join(baseDir, runID, "config.json"), &cfg)
	return cfg, ok, err
}

func WriteRunConfig(baseDir, runID string, cfg RunConfig) error {
	if strings.TrimSpace(runID) == "" {
		return fmt.Errorf("run id is required")
	}
	if strings.TrimSpace(cfg.RunID) == "" {
		cfg.RunID = strings.TrimSpace(runID)
	}
	if cfg.RunID != strings.TrimSpace(runID) {
		return fmt.Errorf("run config run id mismatch: got=%s want=%s", cfg.RunID, strings.TrimSpace(runID))
	}
	runDir := filepath.Join(baseDir, runID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return err
	}
	return writeJSON(filepath.Join(runDir, "config.json"), cfg)
}

func ReadSummary(baseDir, runID string) (Summary, bool, error) {
	var summary Summary
	ok, err := readJSON(filepath.Join(baseDir, runID, "summary.json"), &summary)
	return summary, ok, err
}

func ReadTrajectory(baseDir, runID string) (Trajectory, bool, error) {
	var trajectory Trajectory
	ok, err := readJSON(filepath.Join(baseDir, runID, "trajectory.json"), &trajectory)
	return trajectory, ok, err
}

func ReadStructures(baseDir, runID string) (Structures, bool, error) {
	var structures Structures
	ok, err := readJSON(filepath.Join(baseDir, runID, "structures.json"), &structures)
	return structures, ok, err
}

func ReadPlots(baseDir, runID string) (EvolutionPlots, bool, error) {
	var plots EvolutionPlots
	ok, err := readJSON(filepath.Join(baseDir, runID, "plots.json"), &plots)
	return plots, ok, err
}

var seriesHeader = []string{"step", "temperature", "energy", "compactness", "normalized_compactness", "fold_attempts"}

// WriteSeries writes one CSV row per completed step. The seed entry of the
// histories is not a step and is skipped.
func WriteSeries(runDir string, trajectory Trajectory) error {
	path := filepath.Join(runDir, "series.csv")
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	maxCompactness := 0
	for _, c := range trajectory.Compactness {
		maxCompactness = max(maxCompactness, c)
	}

	writer := csv.NewWriter(file)
	if err := writer.Write(seriesHeader); err != nil {
		return err
	}
	for i, attempts := range trajectory.FoldAttempts {
		if i+1 >= len(trajectory.Energy) || i+1 >= len(trajectory.Compactness) || i+1 >= len(trajectory.Temperature) {
			return fmt.Errorf("trajectory histories shorter than fold attempts at step %d", i)
		}
		compactness := trajectory.Compactness[i+1]
		if err := writer.Write([]string{
			strconv.Itoa(i),
			strconv.FormatFloat(trajectory.Temperature[i+1], 'f', -1, 64),
			strconv.FormatFloat(trajectory.Energy[i+1], 'f', -1, 64),
			strconv.Itoa(compactness),
			strconv.FormatFloat(energy.NormalizedCompactness(compactness, maxCompactness), 'f', 6, 64),
			strconv.Itoa(attempts),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// SeriesRow is one parsed line of series.csv.
type SeriesRow struct {
	Step         int
	Temperature  float64
	Energy       float64
	Compactness  int
	FoldAttempts int
}

func ReadSeries(baseDir, runID string) ([]SeriesRow, bool, error) {
	path := filepath.Join(baseDir, runID, "series.csv")
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return []SeriesRow{}, true, nil
		}
		return nil, false, err
	}
	if len(header) < len(seriesHeader) {
		return nil, false, fmt.Errorf("series header must have %d columns", len(seriesHeader))
	}

	rows := make([]SeriesRow, 0, 128)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, false, err
		}
		row, err := parseSeriesRow(record)
		if err != nil {
			return nil, false, err
		}
		rows = append(rows, row)
	}
	return rows, true, nil
}

func parseSeriesRow(record []string) (SeriesRow, error) {
	var row SeriesRow
	var err error
	if row.Step, err = strconv.Atoi(record[0]); err != nil {
		return SeriesRow{}, err
	}
	if row.Temperature, err = strconv.ParseFloat(record[1], 64); err != nil {
		return SeriesRow{}, err
	}
	if row.Energy, err = strconv.ParseFloat(record[2], 64); err != nil {
		return SeriesRow{}, err
	}
	if row.Compactness, err = strconv.Atoi(record[3]); err != nil {
		return SeriesRow{}, err
	}
	if row.FoldAttempts, err = strconv.Atoi(record[5]); err != nil {
		return SeriesRow{}, err
	}
	return row, nil
}

func readJSON(path string, out any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, err
	}
	return true, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
