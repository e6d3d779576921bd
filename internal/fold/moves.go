package fold

import (
	"fmt"

	"hpfold/internal/model"
)

// SymmetryMoves lists the seven linear transforms, in draw order.
var SymmetryMoves = []model.MoveOperation{
	model.MoveRotateCW,
	model.MoveRotateCCW,
	model.MoveRotate180,
	model.MoveReflectX,
	model.MoveReflectY,
	model.MoveReflectMainDiagonal,
	model.MoveReflectAntiDiagonal,
}

func transformPoint(op model.MoveOperation, p model.Point) (model.Point, bool) {
	x, y := p.X, p.Y
	switch op {
	case model.MoveRotateCW:
		return model.Point{X: y, Y: -x}, true
	case model.MoveRotateCCW:
		return model.Point{X: -y, Y: x}, true
	case model.MoveRotate180:
		return model.Point{X: -x, Y: -y}, true
	case model.MoveReflectX:
		return model.Point{X: x, Y: -y}, true
	case model.MoveReflectY:
		return model.Point{X: -x, Y: y}, true
	case model.MoveReflectMainDiagonal:
		return model.Point{X: -y, Y: -x}, true
	case model.MoveReflectAntiDiagonal:
		return model.Point{X: y, Y: x}, true
	default:
		return model.Point{}, false
	}
}

// Transform applies one of the seven symmetry moves to a tail whose pivot has
// been translated to the origin. The input is left untouched.
func Transform(op model.MoveOperation, tail model.Conformation) (model.Conformation, error) {
	out := make(model.Conformation, len(tail))
	for i, p := range tail {
		q, ok := transformPoint(op, p)
		if !ok {
			return nil, fmt.Errorf("move %d is not a symmetry transform", int(op))
		}
		out[i] = q
	}
	return out, nil
}

// DiagonalRelocation moves the pivot (tail[0]) to the opposite corner of the
// unit square spanned by previous and tail[1]. Both are relative to the pivot.
func DiagonalRelocation(tail model.Conformation, previous model.Point) model.Conformation {
	out := tail.Clone()
	if len(out) < 2 {
		return out
	}
	out[0] = previous.Add(tail[1])
	return out
}

// Apply dispatches op on a translated tail.
func Apply(op model.MoveOperation, tail model.Conformation, previous model.Point) (model.Conformation, error) {
	if op == model.MoveDiagonal {
		return DiagonalRelocation(tail, previous), nil
	}
	return Transform(op, tail)
}
