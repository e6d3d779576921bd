package lattice

import "errors"

var (
	// ErrInvalidSequence reports a sequence shorter than three monomers or
	// containing anything other than H and P.
	ErrInvalidSequence = errors.New("invalid hp sequence")
	// ErrInvalidStructure reports a conformation that does not match the
	// sequence length or is not a self-avoiding walk.
	ErrInvalidStructure = errors.New("invalid structure")
	// ErrUnrecognizedResidue reports an amino-acid letter outside the
	// polar/hydrophobic partition.
	ErrUnrecognizedResidue = errors.New("unrecognized residue")
)
