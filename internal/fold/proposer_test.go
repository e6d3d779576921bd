package fold

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hpfold/internal/lattice"
	"hpfold/internal/model"
)

// zeroSource makes every Intn draw return 0.
type zeroSource struct{}

func (zeroSource) Int63() int64 { return 0 }
func (zeroSource) Seed(int64)   {}

func TestProposeYieldsValidFolds(t *testing.T) {
	for _, start := range []model.Conformation{lattice.LinearConformation(13), referenceStructure} {
		proposer := &Proposer{Rand: rand.New(rand.NewSource(7))}
		current := start
		for i := 0; i < 200; i++ {
			proposal, err := proposer.Propose(current)
			require.NoError(t, err)
			require.Len(t, proposal.Conformation, len(current))
			require.True(t, lattice.IsSelfAvoidingWalk(proposal.Conformation))
			require.GreaterOrEqual(t, proposal.Attempts, 1)
			require.GreaterOrEqual(t, proposal.Pivot, 1)
			require.LessOrEqual(t, proposal.Pivot, len(current)-2)
			require.Equal(t, current[:proposal.Pivot], proposal.Conformation[:proposal.Pivot])
			current = proposal.Conformation
		}
	}
}

func TestProposeDoesNotMutateInput(t *testing.T) {
	start := referenceStructure.Clone()
	proposer := &Proposer{Rand: rand.New(rand.NewSource(3))}
	for i := 0; i < 50; i++ {
		_, err := proposer.Propose(start)
		require.NoError(t, err)
	}
	assert.Equal(t, referenceStructure, start)
}

func TestProposeIsReproducible(t *testing.T) {
	a := &Proposer{Rand: rand.New(rand.NewSource(42))}
	b := &Proposer{Rand: rand.New(rand.NewSource(42))}
	ca, cb := lattice.LinearConformation(10), lattice.LinearConformation(10)
	for i := 0; i < 100; i++ {
		pa, err := a.Propose(ca)
		require.NoError(t, err)
		pb, err := b.Propose(cb)
		require.NoError(t, err)
		require.Equal(t, pa, pb)
		ca, cb = pa.Conformation, pb.Conformation
	}
}

func TestProposeOnlyDrawsDiagonalWhenEligible(t *testing.T) {
	proposer := &Proposer{Rand: rand.New(rand.NewSource(11))}
	current := lattice.LinearConformation(6)
	for i := 0; i < 300; i++ {
		proposal, err := proposer.Propose(current)
		require.NoError(t, err)
		if proposal.Move == model.MoveDiagonal {
			k := proposal.Pivot
			require.True(t, lattice.Diagonal(current[k-1], current[k+1]))
			require.Equal(t, current[k+1:], proposal.Conformation[k+1:])
		}
		current = proposal.Conformation
	}
}

func TestProposeExhaustsAttemptBudget(t *testing.T) {
	// pivot 1 and a clockwise turn fold the end back onto the first monomer
	c := pts([2]int{0, 0}, [2]int{1, 0}, [2]int{1, -1})
	proposer := &Proposer{Rand: rand.New(zeroSource{}), MaxAttempts: 25}
	_, err := proposer.Propose(c)
	require.ErrorIs(t, err, ErrMoveGenerationExhausted)
}

func TestProposeValidation(t *testing.T) {
	_, err := (&Proposer{}).Propose(lattice.LinearConformation(5))
	require.Error(t, err)

	_, err = (&Proposer{Rand: rand.New(rand.NewSource(1))}).Propose(lattice.LinearConformation(2))
	require.ErrorIs(t, err, lattice.ErrInvalidStructure)
}
