package lattice

import (
	"fmt"
	"strings"

	"hpfold/internal/model"
)

const minSequenceLength = 3

const (
	polarResidues       = "RNDQEHKST"
	hydrophobicResidues = "ACGILMFPWYV"
)

// IsValidSequence reports whether text is at least three characters long and
// made only of upper-case H and P.
func IsValidSequence(text string) bool {
	if len(text) < minSequenceLength {
		return false
	}
	for i := 0; i < len(text); i++ {
		if text[i] != byte(model.Hydrophobic) && text[i] != byte(model.Polar) {
			return false
		}
	}
	return true
}

// ToHP maps a 20-letter amino-acid string onto the HP alphabet.
func ToHP(residues string) (string, error) {
	var b strings.Builder
	b.Grow(len(residues))
	for _, r := range residues {
		switch {
		case strings.ContainsRune(polarResidues, r):
			b.WriteByte(byte(model.Polar))
		case strings.ContainsRune(hydrophobicResidues, r):
			b.WriteByte(byte(model.Hydrophobic))
		default:
			return "", fmt.Errorf("%w: amino acid %q", ErrUnrecognizedResidue, r)
		}
	}
	return b.String(), nil
}

// ParseSequence builds a Sequence from text. Text that is already a valid HP
// sequence is used as-is; anything else is treated as an amino-acid string and
// mapped. converted reports whether the mapping took place.
func ParseSequence(text string) (seq model.Sequence, converted bool, err error) {
	hp := text
	if !IsValidSequence(text) {
		hp, err = ToHP(text)
		if err != nil {
			return nil, false, err
		}
		converted = true
	}
	if !IsValidSequence(hp) {
		return nil, converted, fmt.Errorf("%w: %q must have at least %d monomers", ErrInvalidSequence, hp, minSequenceLength)
	}
	seq = make(model.Sequence, len(hp))
	for i := 0; i < len(hp); i++ {
		seq[i] = model.Monomer(hp[i])
	}
	return seq, converted, nil
}

// MustSequence is ParseSequence for literals known to be valid HP text.
func MustSequence(text string) model.Sequence {
	seq, _, err := ParseSequence(text)
	if err != nil {
		panic(err)
	}
	return seq
}
