// Package engine runs the annealed Metropolis search over lattice folds.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"

	"hpfold/internal/energy"
	"hpfold/internal/fold"
	"hpfold/internal/lattice"
	"hpfold/internal/model"
)

// ErrCompleted is returned by Step once every configured step has run.
var ErrCompleted = errors.New("simulation already completed")

// Config describes one simulation. Sequence, Steps and Temperature are
// required; a nil Initial selects the linear layout.
type Config struct {
	Sequence        model.Sequence
	Initial         model.Conformation
	Steps           int
	Temperature     float64
	Annealing       bool
	Seed            int64
	RecordSnapshots bool
	MaxFoldAttempts int
	// ContactEnergy of zero selects energy.DefaultContactEnergy.
	ContactEnergy float64
	Logger        *slog.Logger
	Metrics       *Metrics
	// OnStep, when set, is called synchronously after every step.
	OnStep func(StepRecord)
}

// StepRecord describes the outcome of one step.
type StepRecord struct {
	Step        int
	Temperature float64
	Energy      float64
	Compactness int
	Attempts    int
	Pivot       int
	Move        model.MoveOperation
	Accepted    bool
}

// Simulation owns the state of a single run. It is not safe for concurrent use.
type Simulation struct {
	seq           model.Sequence
	steps         int
	contactEnergy float64
	seed          int64
	snapshotEvery int

	rng      *rand.Rand
	proposer *fold.Proposer
	schedule Schedule
	logger   *slog.Logger
	metrics  *Metrics
	onStep   func(StepRecord)

	state state
}

// New validates cfg and seeds the trajectory with the initial conformation.
func New(cfg Config) (*Simulation, error) {
	if !lattice.IsValidSequence(cfg.Sequence.String()) {
		return nil, fmt.Errorf("%w: %q", lattice.ErrInvalidSequence, cfg.Sequence.String())
	}
	if cfg.Steps <= 0 {
		return nil, errors.New("steps must be > 0")
	}
	if cfg.Temperature <= 0 || math.IsNaN(cfg.Temperature) || math.IsInf(cfg.Temperature, 0) {
		return nil, errors.New("temperature must be a positive finite number")
	}
	if cfg.ContactEnergy < 0 {
		return nil, errors.New("contact energy must be >= 0")
	}
	if cfg.MaxFoldAttempts < 0 {
		return nil, errors.New("max fold attempts must be >= 0")
	}

	initial := cfg.Initial.Clone()
	if initial == nil {
		initial = lattice.LinearConformation(len(cfg.Sequence))
	}
	if err := lattice.ValidateConformation(initial, len(cfg.Sequence)); err != nil {
		return nil, err
	}

	contactEnergy := cfg.ContactEnergy
	if contactEnergy == 0 {
		contactEnergy = energy.DefaultContactEnergy
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	snapshotEvery := 0
	if cfg.RecordSnapshots {
		snapshotEvery = max(1, cfg.Steps/100)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	s := &Simulation{
		seq:           append(model.Sequence(nil), cfg.Sequence...),
		steps:         cfg.Steps,
		contactEnergy: contactEnergy,
		seed:          cfg.Seed,
		snapshotEvery: snapshotEvery,
		rng:           rng,
		proposer:      &fold.Proposer{Rand: rng, MaxAttempts: cfg.MaxFoldAttempts},
		schedule:      Schedule{Initial: cfg.Temperature, Steps: cfg.Steps, Annealing: cfg.Annealing},
		logger:        logger,
		metrics:       cfg.Metrics,
		onStep:        cfg.OnStep,
	}
	s.state = newState(initial, energy.Evaluate(initial, s.seq, contactEnergy), cfg.Temperature, cfg.Steps)

	logger.Info("simulation initialized",
		slog.Int("monomers", len(s.seq)),
		slog.Int("steps", cfg.Steps),
		slog.Float64("temperature", cfg.Temperature),
		slog.Bool("annealing", cfg.Annealing),
		slog.Int64("seed", cfg.Seed),
		slog.Float64("initial_energy", s.state.metrics.Energy),
	)
	return s, nil
}

// Done reports whether all configured steps have run.
func (s *Simulation) Done() bool {
	return s.state.step >= s.steps
}

// Step performs one Metropolis step.
func (s *Simulation) Step() (StepRecord, error) {
	if s.Done() {
		return StepRecord{}, ErrCompleted
	}
	st := &s.state
	temperature := s.schedule.Next(st.temperature, st.step)
	en := st.metrics.Energy

	proposal, err := s.proposer.Propose(st.current)
	if err != nil {
		return StepRecord{}, fmt.Errorf("step %d: %w", st.step, err)
	}
	candidate := energy.Evaluate(proposal.Conformation, s.seq, s.contactEnergy)

	accepted := accept(s.rng, en, candidate.Energy, temperature)
	if accepted {
		st.current = proposal.Conformation
		st.metrics = candidate
		st.accepted++
	}

	rec := StepRecord{
		Step:        st.step,
		Temperature: temperature,
		Energy:      st.metrics.Energy,
		Compactness: st.metrics.Compactness,
		Attempts:    proposal.Attempts,
		Pivot:       proposal.Pivot,
		Move:        proposal.Move,
		Accepted:    accepted,
	}
	st.record(rec, s.snapshotEvery)

	s.metrics.observeStep(rec)
	if s.onStep != nil {
		s.onStep(rec)
	}
	s.logger.Debug("step",
		slog.Int("step", rec.Step),
		slog.Float64("temperature", rec.Temperature),
		slog.Float64("energy", rec.Energy),
		slog.Int("attempts", rec.Attempts),
		slog.String("move", rec.Move.String()),
		slog.Bool("accepted", rec.Accepted),
	)
	return rec, nil
}

// Run executes the remaining steps and returns the trajectory.
func (s *Simulation) Run(ctx context.Context) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	for !s.Done() {
		if _, err := s.Step(); err != nil {
			return Result{}, err
		}
	}
	res := s.Result()
	s.logger.Info("simulation finished",
		slog.Int("steps", res.Steps),
		slog.Float64("final_energy", res.FinalEnergy),
		slog.Float64("min_energy", res.MinEnergy),
		slog.Int("max_compactness", res.MaxCompactness),
		slog.Int("accepted_moves", res.AcceptedMoves),
	)
	return res, nil
}

// Result returns a copy of the trajectory recorded so far.
func (s *Simulation) Result() Result {
	return s.state.result(s.seq, s.seed)
}

// Current returns a copy of the current conformation.
func (s *Simulation) Current() model.Conformation {
	return s.state.current.Clone()
}

// accept applies the Metropolis rule. Moves that do not raise the energy are
// taken without consuming a random draw.
func accept(rng *rand.Rand, en, newEn, temperature float64) bool {
	if newEn <= en {
		return true
	}
	r := rng.Float64()
	return r <= math.Exp(-(newEn-en)/temperature)
}
