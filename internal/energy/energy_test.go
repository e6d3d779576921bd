package energy

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hpfold/internal/fold"
	"hpfold/internal/lattice"
	"hpfold/internal/model"
)

const referenceSequence = "HPPHHPHPHPHHP"

var referenceStructure = model.Conformation{
	{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 2}, {X: 1, Y: 3}, {X: 2, Y: 3}, {X: 2, Y: 2},
	{X: 2, Y: 1}, {X: 2, Y: 0}, {X: 2, Y: -1}, {X: 1, Y: -1}, {X: 0, Y: -1}, {X: -1, Y: -1},
}

func TestNeighborsOfReferenceStructure(t *testing.T) {
	seq := lattice.MustSequence(referenceSequence)
	want := []string{"H", "", "P", "H", "", "", "H", "P", "", "", "", "H", ""}
	for i := range referenceStructure {
		got := model.Sequence(NeighborsOf(i, referenceStructure, seq)).String()
		assert.Equal(t, want[i], got, "monomer %d", i)
	}
}

func TestNeighborsOfLinear(t *testing.T) {
	seq := lattice.MustSequence(referenceSequence)
	c := lattice.LinearConformation(len(seq))
	for i := range c {
		assert.Empty(t, NeighborsOf(i, c, seq))
	}
}

func TestEnergyReferenceStructure(t *testing.T) {
	seq := lattice.MustSequence(referenceSequence)
	assert.Equal(t, -2.0, Energy(referenceStructure, seq, DefaultContactEnergy))
	assert.Equal(t, -4.0, Energy(referenceStructure, seq, 2))
}

func TestCompactnessReferenceStructure(t *testing.T) {
	seq := lattice.MustSequence(referenceSequence)
	// H,P,H,H,P from the neighbour table, each contact seen from both sides
	assert.Equal(t, 6, Compactness(referenceStructure, seq))
}

func TestLinearConformationScoresZero(t *testing.T) {
	for _, text := range []string{"HHH", "PPPPPP", referenceSequence, "HHHPHPHPPPPPHPHPHPHHPHHPHPHHPHPPH"} {
		seq := lattice.MustSequence(text)
		c := lattice.LinearConformation(len(seq))
		m := Evaluate(c, seq, DefaultContactEnergy)
		assert.Equal(t, 0.0, m.Energy, text)
		assert.Equal(t, 0, m.Compactness, text)
	}
}

func TestEvaluateMatchesSeparateCalls(t *testing.T) {
	seq := lattice.MustSequence("HHHPHPHPPPPPHPHPHPHHPHHPHPHHPHPPH")
	proposer := &fold.Proposer{Rand: rand.New(rand.NewSource(5))}
	current := lattice.LinearConformation(len(seq))
	for i := 0; i < 200; i++ {
		proposal, err := proposer.Propose(current)
		require.NoError(t, err)
		current = proposal.Conformation

		m := Evaluate(current, seq, DefaultContactEnergy)
		require.Equal(t, Energy(current, seq, DefaultContactEnergy), m.Energy)
		require.Equal(t, Compactness(current, seq), m.Compactness)
		require.LessOrEqual(t, m.Energy, 0.0)
		require.GreaterOrEqual(t, m.Compactness, 0)
		require.Equal(t, 0, m.Compactness%2)
	}
}

func TestNormalizedCompactness(t *testing.T) {
	assert.InDelta(t, 1.0, NormalizedCompactness(6, 6), 1e-12)
	assert.InDelta(t, 0.5, NormalizedCompactness(3, 6), 1e-12)
	assert.Equal(t, 0.0, NormalizedCompactness(0, 0))
}
