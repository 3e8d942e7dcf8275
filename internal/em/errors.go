package em

import "errors"

var (
	// ErrNumericDegeneracy signals that a responsibility row collapsed to
	// zero total mass after stabilized exponentiation.
	ErrNumericDegeneracy = errors.New("em: responsibility normalization collapsed to zero")

	// ErrDegenerateAssignment signals that a cluster holds no responsibility
	// mass at all, which would make its structure search ill-posed.
	ErrDegenerateAssignment = errors.New("em: cluster received zero total responsibility")

	// ErrNonConvergence marks a run that hit the outer-iteration safety cap.
	// Such runs still return their best-effort record; this sentinel exists so
	// callers can flag them.
	ErrNonConvergence = errors.New("em: outer loop hit the iteration cap before converging")

	// ErrDimension signals mismatched matrix or vector shapes.
	ErrDimension = errors.New("em: dimension mismatch")
)
