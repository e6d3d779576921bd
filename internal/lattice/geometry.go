package lattice

import (
	"fmt"
	"math"

	"hpfold/internal/model"
)

// Distance returns the Euclidean distance between two lattice points.
func Distance(p, q model.Point) float64 {
	return math.Sqrt(float64(squaredDistance(p, q)))
}

func squaredDistance(p, q model.Point) int {
	dx := p.X - q.X
	dy := p.Y - q.Y
	return dx*dx + dy*dy
}

// Adjacent reports whether p and q are at unit distance.
func Adjacent(p, q model.Point) bool {
	return squaredDistance(p, q) == 1
}

// Diagonal reports whether p and q are at distance sqrt(2).
func Diagonal(p, q model.Point) bool {
	return squaredDistance(p, q) == 2
}

// IsSelfAvoidingWalk reports whether no point repeats and every consecutive
// pair of points is at unit distance.
func IsSelfAvoidingWalk(c model.Conformation) bool {
	seen := make(map[model.Point]struct{}, len(c))
	for i, p := range c {
		if _, dup := seen[p]; dup {
			return false
		}
		seen[p] = struct{}{}
		if i+1 < len(c) && !Adjacent(p, c[i+1]) {
			return false
		}
	}
	return true
}

// Index maps every occupied point of c to its chain position.
func Index(c model.Conformation) map[model.Point]int {
	index := make(map[model.Point]int, len(c))
	for i, p := range c {
		index[p] = i
	}
	return index
}

// LinearConformation lays n monomers along the positive x axis.
func LinearConformation(n int) model.Conformation {
	if n <= 0 {
		return model.Conformation{}
	}
	c := make(model.Conformation, n)
	for i := range c {
		c[i] = model.Point{X: i, Y: 0}
	}
	return c
}

// ValidateConformation checks c against a sequence of length n.
func ValidateConformation(c model.Conformation, n int) error {
	if len(c) != n {
		return fmt.Errorf("%w: structure length %d does not match sequence length %d", ErrInvalidStructure, len(c), n)
	}
	if !IsSelfAvoidingWalk(c) {
		return fmt.Errorf("%w: not a self-avoiding walk with unit steps", ErrInvalidStructure)
	}
	return nil
}

// FromPairs converts [x, y] pairs, as found in config files, to a conformation.
func FromPairs(pairs [][]int) (model.Conformation, error) {
	c := make(model.Conformation, 0, len(pairs))
	for i, pair := range pairs {
		if len(pair) != 2 {
			return nil, fmt.Errorf("%w: point %d has %d coordinates", ErrInvalidStructure, i, len(pair))
		}
		c = append(c, model.Point{X: pair[0], Y: pair[1]})
	}
	return c, nil
}
