package stats

import (
	"fmt"
	"math"

	"hpfold/internal/energy"
	"hpfold/internal/engine"
)

// PlotPoint is one sample of an averaged series.
type PlotPoint struct {
	Index int     `json:"index"`
	Value float64 `json:"value"`
}

// Avg returns the arithmetic mean of values.
func Avg(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, fmt.Errorf("values must not be empty")
	}
	sum := 0.0
	for _, value := range values {
		sum += value
	}
	return sum / float64(len(values)), nil
}

// Std returns population standard deviation.
func Std(values []float64) (float64, error) {
	mean, err := Avg(values)
	if err != nil {
		return 0, err
	}
	sum := 0.0
	for _, value := range values {
		diff := mean - value
		sum += diff * diff
	}
	return math.Sqrt(sum / float64(len(values))), nil
}

// BlockAverage averages consecutive blocks of window values. When the length
// is not a multiple of window the values are returned unaveraged and ok is
// false.
func BlockAverage(values []float64, window int) (out []float64, ok bool) {
	if window <= 1 || len(values)%window != 0 {
		return append([]float64(nil), values...), window <= 1
	}
	out = make([]float64, 0, len(values)/window)
	for start := 0; start < len(values); start += window {
		avg, _ := Avg(values[start : start+window])
		out = append(out, avg)
	}
	return out, true
}

// BuildAveragedPlot block-averages values and indexes each point by the step
// its block starts at.
func BuildAveragedPlot(values []float64, window int) ([]PlotPoint, bool) {
	averaged, ok := BlockAverage(values, window)
	stride := 1
	if ok && window > 1 {
		stride = window
	}
	points := make([]PlotPoint, len(averaged))
	for i, value := range averaged {
		points[i] = PlotPoint{Index: i * stride, Value: value}
	}
	return points, ok
}

// NormalizeCompactness scales every entry by the largest one.
func NormalizeCompactness(history []int) []float64 {
	maxValue := 0
	for _, c := range history {
		maxValue = max(maxValue, c)
	}
	out := make([]float64, len(history))
	for i, c := range history {
		out[i] = energy.NormalizedCompactness(c, maxValue)
	}
	return out
}

// EvolutionPlots are the averaged per-step series of a run, seed entry
// excluded.
type EvolutionPlots struct {
	Window      int         `json:"window"`
	Averaged    bool        `json:"averaged"`
	Energy      []PlotPoint `json:"energy"`
	Compactness []PlotPoint `json:"compactness"`
	Temperature []PlotPoint `json:"temperature"`
}

func BuildEvolutionPlots(res engine.Result, window int) EvolutionPlots {
	if len(res.EnergyHistory) < 2 {
		return EvolutionPlots{Window: window}
	}
	compactness := NormalizeCompactness(res.CompactnessHistory[1:])
	energyPlot, ok := BuildAveragedPlot(res.EnergyHistory[1:], window)
	compactPlot, _ := BuildAveragedPlot(compactness, window)
	tempPlot, _ := BuildAveragedPlot(res.TemperatureHistory[1:], window)
	return EvolutionPlots{
		Window:      window,
		Averaged:    ok,
		Energy:      energyPlot,
		Compactness: compactPlot,
		Temperature: tempPlot,
	}
}

// Summary condenses a trajectory into the figures reported after a run.
type Summary struct {
	Steps                  int     `json:"steps"`
	Seed                   int64   `json:"seed"`
	InitialEnergy          float64 `json:"initial_energy"`
	FinalEnergy            float64 `json:"final_energy"`
	FinalCompactness       float64 `json:"final_compactness"`
	MinEnergy              float64 `json:"min_energy"`
	MinEnergyStep          int     `json:"min_energy_step"`
	CompactnessAtMinEnergy float64 `json:"compactness_at_min_energy"`
	MaxCompactness         int     `json:"max_compactness"`
	MaxCompactnessStep     int     `json:"max_compactness_step"`
	EnergyAtMaxCompactness float64 `json:"energy_at_max_compactness"`
	AcceptedMoves          int     `json:"accepted_moves"`
	AcceptanceRate         float64 `json:"acceptance_rate"`
	MeanFoldAttempts       float64 `json:"mean_fold_attempts"`
	MaxFoldAttempts        int     `json:"max_fold_attempts"`
	EnergyStd              float64 `json:"energy_std"`
	FinalTemperature       float64 `json:"final_temperature"`
	SnapshotCount          int     `json:"snapshot_count"`
}

// Summarize reads min/max positions by first occurrence; compactness values
// are normalized by the run maximum.
func Summarize(res engine.Result) Summary {
	s := Summary{
		Steps:          res.Steps,
		Seed:           res.Seed,
		FinalEnergy:    res.FinalEnergy,
		MinEnergy:      res.MinEnergy,
		MaxCompactness: res.MaxCompactness,
		AcceptedMoves:  res.AcceptedMoves,
		SnapshotCount:  len(res.Snapshots),
	}
	if len(res.EnergyHistory) == 0 {
		return s
	}
	s.InitialEnergy = res.EnergyHistory[0]
	s.FinalCompactness = energy.NormalizedCompactness(res.FinalCompactness, res.MaxCompactness)

	s.MinEnergyStep = firstIndex(res.EnergyHistory, res.MinEnergy)
	if s.MinEnergyStep >= 0 && s.MinEnergyStep < len(res.CompactnessHistory) {
		s.CompactnessAtMinEnergy = energy.NormalizedCompactness(res.CompactnessHistory[s.MinEnergyStep], res.MaxCompactness)
	}
	for i, c := range res.CompactnessHistory {
		if c == res.MaxCompactness {
			s.MaxCompactnessStep = i
			s.EnergyAtMaxCompactness = res.EnergyHistory[i]
			break
		}
	}

	if res.Steps > 0 {
		s.AcceptanceRate = float64(res.AcceptedMoves) / float64(res.Steps)
	}
	if len(res.FoldAttempts) > 0 {
		attempts := make([]float64, len(res.FoldAttempts))
		for i, a := range res.FoldAttempts {
			attempts[i] = float64(a)
			s.MaxFoldAttempts = max(s.MaxFoldAttempts, a)
		}
		s.MeanFoldAttempts, _ = Avg(attempts)
	}
	s.EnergyStd, _ = Std(res.EnergyHistory)
	if n := len(res.TemperatureHistory); n > 0 {
		s.FinalTemperature = res.TemperatureHistory[n-1]
	}
	return s
}

func firstIndex(values []float64, target float64) int {
	for i, v := range values {
		if v == target {
			return i
		}
	}
	return -1
}
