package fold

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hpfold/internal/lattice"
	"hpfold/internal/model"
)

func pts(pairs ...[2]int) model.Conformation {
	c := make(model.Conformation, len(pairs))
	for i, p := range pairs {
		c[i] = model.Point{X: p[0], Y: p[1]}
	}
	return c
}

var referenceStructure = pts(
	[2]int{0, 0}, [2]int{0, 1}, [2]int{1, 1}, [2]int{1, 2}, [2]int{1, 3}, [2]int{2, 3}, [2]int{2, 2},
	[2]int{2, 1}, [2]int{2, 0}, [2]int{2, -1}, [2]int{1, -1}, [2]int{0, -1}, [2]int{-1, -1},
)

// translatedTail cuts c at pivot and moves the pivot to the origin.
func translatedTail(c model.Conformation, pivot int) (model.Conformation, model.Point) {
	origin := c[pivot]
	tail := make(model.Conformation, 0, len(c)-pivot)
	for _, p := range c[pivot:] {
		tail = append(tail, p.Sub(origin))
	}
	return tail, c[pivot-1].Sub(origin)
}

func TestTransformPoint(t *testing.T) {
	p := model.Point{X: 2, Y: 1}
	want := map[model.MoveOperation]model.Point{
		model.MoveRotateCW:            {X: 1, Y: -2},
		model.MoveRotateCCW:           {X: -1, Y: 2},
		model.MoveRotate180:           {X: -2, Y: -1},
		model.MoveReflectX:            {X: 2, Y: -1},
		model.MoveReflectY:            {X: -2, Y: 1},
		model.MoveReflectMainDiagonal: {X: -1, Y: -2},
		model.MoveReflectAntiDiagonal: {X: 1, Y: 2},
	}
	for op, expected := range want {
		out, err := Transform(op, model.Conformation{p})
		require.NoError(t, err, op.String())
		assert.Equal(t, expected, out[0], op.String())
	}
}

func TestTransformPreservesLengthAndValidity(t *testing.T) {
	tail, _ := translatedTail(referenceStructure, 1)
	for _, op := range SymmetryMoves {
		out, err := Transform(op, tail)
		require.NoError(t, err)
		assert.Len(t, out, len(tail), op.String())
		assert.True(t, lattice.IsSelfAvoidingWalk(out), op.String())
		assert.Equal(t, model.Point{}, out[0], "pivot stays at the origin for %s", op)
	}
}

func TestTransformDoesNotMutateInput(t *testing.T) {
	tail, _ := translatedTail(referenceStructure, 3)
	before := tail.Clone()
	_, err := Transform(model.MoveRotate180, tail)
	require.NoError(t, err)
	assert.Equal(t, before, tail)
}

func TestTransformRejectsDiagonal(t *testing.T) {
	_, err := Transform(model.MoveDiagonal, model.Conformation{{X: 1, Y: 0}})
	require.Error(t, err)
	_, err = Transform(model.MoveOperation(42), model.Conformation{{X: 1, Y: 0}})
	require.Error(t, err)
}

func TestDiagonalRelocation(t *testing.T) {
	c := pts([2]int{0, 0}, [2]int{1, 0}, [2]int{1, 1}, [2]int{2, 1}, [2]int{2, 2}, [2]int{3, 2}, [2]int{3, 3})
	tail, previous := translatedTail(c, 1)

	out := DiagonalRelocation(tail, previous)
	require.Len(t, out, len(tail))
	assert.Equal(t, model.Point{X: -1, Y: 1}, out[0])
	assert.InDelta(t, 1.0, lattice.Distance(out[0], out[1]), 1e-12)
	assert.InDelta(t, 1.0, lattice.Distance(out[0], previous), 1e-12)
	assert.Equal(t, tail[1:], out[1:])
}

func TestDiagonalRelocationShortTail(t *testing.T) {
	tail := model.Conformation{{X: 0, Y: 0}}
	assert.Equal(t, tail, DiagonalRelocation(tail, model.Point{X: -1, Y: 0}))
}

func TestApplyDispatch(t *testing.T) {
	tail, previous := translatedTail(referenceStructure, 1)
	out, err := Apply(model.MoveDiagonal, tail, previous)
	require.NoError(t, err)
	assert.Equal(t, previous.Add(tail[1]), out[0])

	out, err = Apply(model.MoveRotate180, tail, previous)
	require.NoError(t, err)
	assert.Equal(t, model.Point{X: -tail[2].X, Y: -tail[2].Y}, out[2])
}
