package lattice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hpfold/internal/model"
)

func TestIsValidSequence(t *testing.T) {
	valid := []string{"HHHHHHHHHHHHH", "PPPPPPPPP", "PHPHPPPPHHHPHPHPH", "HPH"}
	for _, s := range valid {
		assert.True(t, IsValidSequence(s), s)
	}
	invalid := []string{"HHHhHH", "PPPpPPPPP", "PHPAPPPPHHHPHPHPH", "HPHPLHHP", "PHPaPPPPHHHPHPHPH", "HP", "P", ""}
	for _, s := range invalid {
		assert.False(t, IsValidSequence(s), s)
	}
}

func TestToHP(t *testing.T) {
	const residues = "VFCNKASIRIPWTKLKTHPICLSLDKVIMEMSTCEEPRSPFAEK"
	hp, err := ToHP(residues)
	require.NoError(t, err)
	require.Len(t, hp, len(residues))
	for i := 0; i < len(hp); i++ {
		assert.Contains(t, "HP", string(hp[i]))
	}
	assert.Equal(t, "HHHPPHPHPHHHPPHPPPHH", hp[:20])

	_, err = ToHP("ASDHLKGFDKJHDCVNB")
	require.ErrorIs(t, err, ErrUnrecognizedResidue)
}

func TestParseSequence(t *testing.T) {
	seq, converted, err := ParseSequence("HPPH")
	require.NoError(t, err)
	assert.False(t, converted)
	assert.Equal(t, model.Sequence{model.Hydrophobic, model.Polar, model.Polar, model.Hydrophobic}, seq)
	assert.Equal(t, "HPPH", seq.String())

	seq, converted, err = ParseSequence("VKLA")
	require.NoError(t, err)
	assert.True(t, converted)
	assert.Equal(t, "HPHH", seq.String())

	_, _, err = ParseSequence("HP")
	require.ErrorIs(t, err, ErrInvalidSequence)

	_, _, err = ParseSequence("VK")
	require.ErrorIs(t, err, ErrInvalidSequence)

	_, _, err = ParseSequence("")
	require.ErrorIs(t, err, ErrInvalidSequence)

	_, _, err = ParseSequence("HPXH")
	require.ErrorIs(t, err, ErrUnrecognizedResidue)
}
