package engine

import (
	"hpfold/internal/energy"
	"hpfold/internal/model"
)

// Snapshot is a conformation sampled at a given step.
type Snapshot struct {
	Step         int                `json:"step"`
	Conformation model.Conformation `json:"conformation"`
}

// Result is the trajectory of a run. Every history starts with the entry
// recorded at construction, followed by one entry per completed step.
type Result struct {
	Sequence                   model.Sequence     `json:"-"`
	Seed                       int64              `json:"seed"`
	Steps                      int                `json:"steps"`
	Final                      model.Conformation `json:"final"`
	FinalEnergy                float64            `json:"final_energy"`
	FinalCompactness           int                `json:"final_compactness"`
	EnergyHistory              []float64          `json:"energy_history"`
	CompactnessHistory         []int              `json:"compactness_history"`
	TemperatureHistory         []float64          `json:"temperature_history"`
	FoldAttempts               []int              `json:"fold_attempts"`
	Snapshots                  []Snapshot         `json:"snapshots,omitempty"`
	MinEnergy                  float64            `json:"min_energy"`
	MinEnergyConformation      model.Conformation `json:"min_energy_conformation"`
	MaxCompactness             int                `json:"max_compactness"`
	MaxCompactnessConformation model.Conformation `json:"max_compactness_conformation"`
	AcceptedMoves              int                `json:"accepted_moves"`
}

type state struct {
	step        int
	temperature float64
	current     model.Conformation
	metrics     energy.Metrics

	energyHistory      []float64
	compactnessHistory []int
	temperatureHistory []float64
	foldAttempts       []int
	snapshots          []Snapshot
	accepted           int

	minEnergy      float64
	minEnergyConf  model.Conformation
	maxCompactness int
	maxCompactConf model.Conformation
}

func newState(initial model.Conformation, metrics energy.Metrics, temperature float64, steps int) state {
	return state{
		temperature:        temperature,
		current:            initial,
		metrics:            metrics,
		energyHistory:      append(make([]float64, 0, steps+1), metrics.Energy),
		compactnessHistory: append(make([]int, 0, steps+1), metrics.Compactness),
		temperatureHistory: append(make([]float64, 0, steps+1), temperature),
		foldAttempts:       make([]int, 0, steps),
		minEnergy:          metrics.Energy,
		minEnergyConf:      initial,
		maxCompactness:     metrics.Compactness,
		maxCompactConf:     initial,
	}
}

// record appends rec to the histories. Only strict improvements replace the
// best conformations.
func (st *state) record(rec StepRecord, snapshotEvery int) {
	st.temperature = rec.Temperature
	st.energyHistory = append(st.energyHistory, rec.Energy)
	st.compactnessHistory = append(st.compactnessHistory, rec.Compactness)
	st.temperatureHistory = append(st.temperatureHistory, rec.Temperature)
	st.foldAttempts = append(st.foldAttempts, rec.Attempts)

	if rec.Energy < st.minEnergy {
		st.minEnergy = rec.Energy
		st.minEnergyConf = st.current
	}
	if rec.Compactness > st.maxCompactness {
		st.maxCompactness = rec.Compactness
		st.maxCompactConf = st.current
	}
	if snapshotEvery > 0 && rec.Step%snapshotEvery == 0 {
		st.snapshots = append(st.snapshots, Snapshot{Step: rec.Step, Conformation: st.current})
	}
	st.step++
}

func (st *state) result(seq model.Sequence, seed int64) Result {
	snapshots := make([]Snapshot, len(st.snapshots))
	for i, snap := range st.snapshots {
		snapshots[i] = Snapshot{Step: snap.Step, Conformation: snap.Conformation.Clone()}
	}
	return Result{
		Sequence:                   append(model.Sequence(nil), seq...),
		Seed:                       seed,
		Steps:                      st.step,
		Final:                      st.current.Clone(),
		FinalEnergy:                st.metrics.Energy,
		FinalCompactness:           st.metrics.Compactness,
		EnergyHistory:              append([]float64(nil), st.energyHistory...),
		CompactnessHistory:         append([]int(nil), st.compactnessHistory...),
		TemperatureHistory:         append([]float64(nil), st.temperatureHistory...),
		FoldAttempts:               append([]int(nil), st.foldAttempts...),
		Snapshots:                  snapshots,
		MinEnergy:                  st.minEnergy,
		MinEnergyConformation:      st.minEnergyConf.Clone(),
		MaxCompactness:             st.maxCompactness,
		MaxCompactnessConformation: st.maxCompactConf.Clone(),
		AcceptedMoves:              st.accepted,
	}
}
