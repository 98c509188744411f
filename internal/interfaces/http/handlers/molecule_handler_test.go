package handlers

import (
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/SynthonScope/internal/application/conversion"
	"github.com/turtacn/SynthonScope/pkg/errors"
)

func newMoleculeRouter() http.Handler {
	r := chi.NewRouter()
	NewMoleculeHandler(nil, 0).RegisterRoutes(r)
	return r
}

func TestMoleculeHandler_Convert_StripMaps(t *testing.T) {
	w := doJSON(t, newMoleculeRouter(), http.MethodPost, "/molecules/convert", map[string]interface{}{
		"smiles":     "[CH3:1][OH:2]>>[CH3:1][O-:2]",
		"strip_maps": true,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	env := decodeEnvelope[ConvertResponse](t, w)
	assert.Equal(t, "CO>>C[O-]", env.Data.SMILES)
	assert.True(t, env.Data.IsReaction)
	assert.True(t, env.Data.StripMaps)
}

func TestMoleculeHandler_Convert_KeepsMapsByDefault(t *testing.T) {
	h := newMoleculeRouter()

	a := decodeEnvelope[ConvertResponse](t, doJSON(t, h, http.MethodPost, "/molecules/convert",
		map[string]string{"smiles": "[CH3:1][C:2](=[O:3])[OH:4]"}))
	b := decodeEnvelope[ConvertResponse](t, doJSON(t, h, http.MethodPost, "/molecules/convert",
		map[string]string{"smiles": " [OH:4][C:2]([CH3:1])=[O:3] "}))

	assert.Equal(t, a.Data.SMILES, b.Data.SMILES)
	assert.Contains(t, a.Data.SMILES, ":4]")
	assert.False(t, a.Data.IsReaction)
	assert.Equal(t, "[OH:4][C:2]([CH3:1])=[O:3]", b.Data.Input)
}

func TestMoleculeHandler_Convert_Errors(t *testing.T) {
	h := newMoleculeRouter()

	w := doJSON(t, h, http.MethodPost, "/molecules/convert", map[string]string{"smiles": "C1CC"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(errors.ErrCodeParseFailure), decodeEnvelope[any](t, w).Error.Code)

	w = doJSON(t, h, http.MethodPost, "/molecules/convert", map[string]string{})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestMoleculeHandler_Compounds(t *testing.T) {
	w := doJSON(t, newMoleculeRouter(), http.MethodPost, "/molecules/compounds", map[string]string{
		"reaction_smiles": "[CH3:1][OH:2]>>[CH3:1][O-:2]",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	env := decodeEnvelope[[]conversion.CompoundRecord](t, w)
	require.Len(t, env.Data, 2)
	assert.Equal(t, "[CH3:1][OH:2]", env.Data[0].SMILES)
	assert.Equal(t, "C[O-]", env.Data[1].UnmappedCanonicalSMILES)
	assert.Equal(t, 2, env.Data[1].MappedAtomCount)
}

func TestMoleculeHandler_Compounds_RejectsMolecule(t *testing.T) {
	w := doJSON(t, newMoleculeRouter(), http.MethodPost, "/molecules/compounds", map[string]string{
		"reaction_smiles": "CCO",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMoleculeHandler_Fragment(t *testing.T) {
	h := newMoleculeRouter()

	a := doJSON(t, h, http.MethodPost, "/molecules/fragment", map[string]interface{}{
		"smiles": "OCCO", "atom_indices": []int{0, 1},
	})
	require.Equal(t, http.StatusOK, a.Code, a.Body.String())
	b := doJSON(t, h, http.MethodPost, "/molecules/fragment", map[string]interface{}{
		"smiles": "OCCO", "atom_indices": []int{3, 2},
	})
	require.Equal(t, http.StatusOK, b.Code, b.Body.String())

	fa := decodeEnvelope[conversion.Fragment](t, a)
	fb := decodeEnvelope[conversion.Fragment](t, b)
	assert.NotEmpty(t, fa.Data.Key)
	assert.Equal(t, fa.Data.Key, fb.Data.Key)
	assert.Equal(t, 1, fa.Data.BondCount)

	w := doJSON(t, h, http.MethodPost, "/molecules/fragment", map[string]interface{}{
		"smiles": "OCCO", "atom_indices": []int{9},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(errors.CodeInvalidParam), decodeEnvelope[any](t, w).Error.Code)
}

func TestMoleculeHandler_BodyLimit(t *testing.T) {
	r := chi.NewRouter()
	NewMoleculeHandler(nil, 16).RegisterRoutes(r)

	w := doJSON(t, r, http.MethodPost, "/molecules/convert", map[string]string{
		"smiles": "CCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCC",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

//Personal.AI order the ending
