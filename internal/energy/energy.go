// Package energy scores conformations under the HP contact model.
package energy

import (
	"hpfold/internal/lattice"
	"hpfold/internal/model"
)

// DefaultContactEnergy is the energy gained per H-H contact.
const DefaultContactEnergy = 1.0

// Metrics holds both scores of one conformation.
type Metrics struct {
	Energy      float64
	Compactness int
}

var neighborOffsets = [4]model.Point{
	{X: -1, Y: 0},
	{X: 0, Y: -1},
	{X: 1, Y: 0},
	{X: 0, Y: 1},
}

// NeighborsOf returns the kinds of the monomers at unit distance from c[i],
// skipping the bonded positions i-1 and i+1.
func NeighborsOf(i int, c model.Conformation, seq model.Sequence) []model.Monomer {
	return neighborsOf(i, c, seq, lattice.Index(c))
}

func neighborsOf(i int, c model.Conformation, seq model.Sequence, index map[model.Point]int) []model.Monomer {
	var out []model.Monomer
	for _, offset := range neighborOffsets {
		j, ok := index[c[i].Add(offset)]
		if !ok || j == i || j == i-1 || j == i+1 {
			continue
		}
		out = append(out, seq[j])
	}
	return out
}

// Energy is -e times the number of non-bonded H-H contacts. Contacts are
// found from both endpoints, hence the halving.
func Energy(c model.Conformation, seq model.Sequence, e float64) float64 {
	return Evaluate(c, seq, e).Energy
}

// Compactness counts non-bonded contacts of every monomer. Each contact is
// counted from both sides.
func Compactness(c model.Conformation, seq model.Sequence) int {
	return Evaluate(c, seq, DefaultContactEnergy).Compactness
}

// Evaluate computes energy and compactness with a single point index.
func Evaluate(c model.Conformation, seq model.Sequence, e float64) Metrics {
	index := lattice.Index(c)
	hh := 0
	total := 0
	for i := range c {
		neighbors := neighborsOf(i, c, seq, index)
		total += len(neighbors)
		if seq[i] != model.Hydrophobic {
			continue
		}
		for _, m := range neighbors {
			if m == model.Hydrophobic {
				hh++
			}
		}
	}
	return Metrics{
		Energy:      -e * float64(hh) / 2,
		Compactness: total,
	}
}

// NormalizedCompactness scales c by the largest value seen in a run.
func NormalizedCompactness(c, max int) float64 {
	return float64(c) / (float64(max) + 1e-14)
}
