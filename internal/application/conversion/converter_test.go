package conversion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/SynthonScope/internal/domain/reaction"
	"github.com/turtacn/SynthonScope/internal/testutil"
	"github.com/turtacn/SynthonScope/pkg/errors"
)

const esterification = "[CH3:1][C:2](=[O:3])[OH:4].[OH:5][CH2:6][CH3:7]>[H+]>[CH3:1][C:2](=[O:3])[O:5][CH2:6][CH3:7].[OH2:4]"

func TestConverter_MoleculeRoundTrip(t *testing.T) {
	c := NewConverter(nil)
	m, err := c.MoleculeFromSMILES("[CH3:1][CH2:2][OH:3]")
	require.NoError(t, err)
	assert.Equal(t, 3, m.NumAtoms())

	mapped, err := c.MoleculeToSMILES(m, false)
	require.NoError(t, err)
	assert.Contains(t, mapped, ":1]")

	plain, err := c.MoleculeToSMILES(m, true)
	require.NoError(t, err)
	assert.NotContains(t, plain, ":")
	assert.Equal(t, []int{1, 2, 3}, m.MapNumbers())

	_, err = c.MoleculeToSMILES(nil, false)
	assert.True(t, errors.IsCode(err, errors.ErrCodeBadRequest))
}

func TestConverter_ErrorsAreLogged(t *testing.T) {
	log := testutil.NewMockLogger()
	c := NewConverter(log)

	_, err := c.MoleculeFromSMILES("C1CC")
	assert.True(t, errors.IsCode(err, errors.ErrCodeParseFailure))
	assert.True(t, log.HasMessage("debug", "molecule SMILES rejected"))

	_, err = c.ReactionFromSMILES("CC")
	assert.True(t, errors.IsCode(err, errors.ErrCodeParseFailure))
	assert.True(t, log.HasMessage("debug", "reaction SMILES rejected"))
}

func TestConverter_RemoveMapNumbers(t *testing.T) {
	c := NewConverter(nil)

	mol, err := c.RemoveMapNumbers("[OH:2][CH3:1]")
	require.NoError(t, err)
	plain, err := c.Canonicalize("OC")
	require.NoError(t, err)
	assert.Equal(t, plain, mol)

	rxn, err := c.RemoveMapNumbers("[CH3:1][OH:2]>>[CH3:1][O-:2]")
	require.NoError(t, err)
	assert.Equal(t, "CO>>C[O-]", rxn)

	_, err = c.RemoveMapNumbers("")
	assert.True(t, errors.IsCode(err, errors.ErrCodeEmptyInput))
}

func TestConverter_CanonicalizeIsOrderIndependent(t *testing.T) {
	c := NewConverter(nil)
	a, err := c.Canonicalize("[CH3:1][C:2](=[O:3])[OH:4]")
	require.NoError(t, err)
	b, err := c.Canonicalize("[OH:4][C:2]([CH3:1])=[O:3]")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestConverter_ExtractCompounds(t *testing.T) {
	c := NewConverter(nil)
	records, err := c.ExtractCompounds(esterification + " acid-catalysed")
	require.NoError(t, err)
	require.Len(t, records, 5)

	roles := make([]reaction.Role, len(records))
	for i, r := range records {
		roles[i] = r.Role
	}
	assert.Equal(t, []reaction.Role{
		reaction.RoleReactant, reaction.RoleReactant, reaction.RoleAgent, reaction.RoleProduct, reaction.RoleProduct,
	}, roles)

	acid := records[0]
	assert.Equal(t, 0, acid.Index)
	assert.Equal(t, "[CH3:1][C:2](=[O:3])[OH:4]", acid.SMILES)
	assert.Equal(t, 4, acid.MappedAtomCount)
	assert.NotContains(t, acid.UnmappedCanonicalSMILES, ":")
	assert.Contains(t, acid.CanonicalSMILES, ":4]")
	require.NotNil(t, acid.Molecule)

	agent := records[2]
	assert.Equal(t, "[H+]", agent.SMILES)
	assert.Zero(t, agent.MappedAtomCount)

	water := records[4]
	assert.Equal(t, 1, water.Index)
	assert.Equal(t, "O", water.UnmappedCanonicalSMILES)
}

func TestConverter_ExtractCompoundsRejectsBadInput(t *testing.T) {
	c := NewConverter(nil)
	_, err := c.ExtractCompounds("CC>>C(")
	assert.Error(t, err)
	_, err = c.ExtractCompounds("")
	assert.True(t, errors.IsCode(err, errors.ErrCodeEmptyInput))
}

func TestConverter_ReactionWarnsOnRepeatedMapNumbers(t *testing.T) {
	log := testutil.NewMockLogger()
	c := NewConverter(log)

	_, err := c.ReactionFromSMILES("[CH3:1][OH:1]>>[CH3:1][O-:2]")
	require.NoError(t, err)

	e, ok := log.Find("warn", "map numbers repeated within a molecule")
	require.True(t, ok)
	assert.Equal(t, "conversion", e.Logger)
	role, _ := e.Field("role")
	assert.Equal(t, "reactant", role)
	dups, _ := e.Field("map_numbers")
	assert.Equal(t, []int{1}, dups)

	log.Reset()
	_, err = c.ReactionFromSMILES(esterification)
	require.NoError(t, err)
	assert.False(t, log.HasMessage("warn", "map numbers repeated within a molecule"))
}

func TestConverter_FragmentIdentity(t *testing.T) {
	c := NewConverter(nil)

	left, err := c.FragmentIdentity("OCCO", []int{1, 0}, nil, nil)
	require.NoError(t, err)
	right, err := c.FragmentIdentity("OCCO", []int{2, 3, 3}, nil, nil)
	require.NoError(t, err)
	middle, err := c.FragmentIdentity("OCCO", []int{1, 2}, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1}, left.AtomIndices)
	assert.Equal(t, []int{2, 3}, right.AtomIndices)
	assert.Equal(t, left.Key, right.Key)
	assert.NotEqual(t, left.Key, middle.Key)
	assert.Equal(t, 2, left.AtomCount)
	assert.Equal(t, 1, left.BondCount)
	assert.Nil(t, left.AtomProperties)

	co, err := c.FragmentIdentity("CO", nil, []string{"atomic_number"}, []string{"none"})
	require.NoError(t, err)
	cn, err := c.FragmentIdentity("CN", nil, []string{"atomic_number"}, []string{"none"})
	require.NoError(t, err)
	assert.NotEqual(t, co.Key, cn.Key)
	assert.Equal(t, []int{0, 1}, co.AtomIndices)
	assert.Equal(t, []string{"atomic_number"}, co.AtomProperties)
	assert.Empty(t, co.BondProperties)
}

func TestConverter_FragmentIdentityErrors(t *testing.T) {
	c := NewConverter(nil)

	_, err := c.FragmentIdentity("CCO", []int{3}, nil, nil)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))
	_, err = c.FragmentIdentity("CCO", []int{-1}, nil, nil)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))
	_, err = c.FragmentIdentity("CC>>CC", nil, nil, nil)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))
	_, err = c.FragmentIdentity("CCO", nil, []string{"bogus"}, nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnknownProperty))
	_, err = c.FragmentIdentity("C1CC", nil, nil, nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeParseFailure))
}

//Personal.AI order the ending
