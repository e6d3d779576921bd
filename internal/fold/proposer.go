package fold

import (
	"errors"
	"fmt"
	"math/rand"

	"hpfold/internal/lattice"
	"hpfold/internal/model"
)

// DefaultMaxAttempts bounds the rejection loop of Propose.
const DefaultMaxAttempts = 50000

// ErrMoveGenerationExhausted is returned when no valid fold was found within
// the attempt budget.
var ErrMoveGenerationExhausted = errors.New("move generation exhausted")

// Proposal is a validated candidate conformation.
type Proposal struct {
	Conformation model.Conformation
	Attempts     int
	Pivot        int
	Move         model.MoveOperation
}

// Proposer draws random pivot folds until one yields a self-avoiding walk.
// Every draw comes from Rand, in the order pivot, move, diagonal case.
type Proposer struct {
	Rand        *rand.Rand
	MaxAttempts int
}

func (p *Proposer) Propose(c model.Conformation) (Proposal, error) {
	if p == nil || p.Rand == nil {
		return Proposal{}, errors.New("random source is required")
	}
	n := len(c)
	if n < 3 {
		return Proposal{}, fmt.Errorf("%w: fold needs at least 3 monomers, got %d", lattice.ErrInvalidStructure, n)
	}
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		pivot := p.Rand.Intn(n-2) + 1
		origin := c[pivot]
		diagonal := lattice.Diagonal(c[pivot-1], c[pivot+1])

		tail := make(model.Conformation, n-pivot)
		for i, point := range c[pivot:] {
			tail[i] = point.Sub(origin)
		}
		previous := c[pivot-1].Sub(origin)

		var move model.MoveOperation
		if diagonal {
			move = model.MoveOperation(p.Rand.Intn(8) + 1)
		} else {
			move = model.MoveOperation(p.Rand.Intn(7) + 1)
		}
		if move == model.MoveDiagonal {
			// corner choice; drawn but not used
			_ = p.Rand.Intn(2)
		}

		folded, err := Apply(move, tail, previous)
		if err != nil {
			return Proposal{}, err
		}

		candidate := make(model.Conformation, 0, n)
		candidate = append(candidate, c[:pivot]...)
		for _, point := range folded {
			candidate = append(candidate, point.Add(origin))
		}

		if lattice.IsSelfAvoidingWalk(candidate) {
			return Proposal{
				Conformation: candidate,
				Attempts:     attempt,
				Pivot:        pivot,
				Move:         move,
			}, nil
		}
	}
	return Proposal{}, fmt.Errorf("%w after %d attempts", ErrMoveGenerationExhausted, maxAttempts)
}
