package client

import (
	"context"
	"net/http"
	"strings"

	"github.com/turtacn/SynthonScope/pkg/errors"
)

// Compound is one molecule of a reaction.  Role is reactant, agent or
// product.
type Compound struct {
	Role                    string `json:"role"`
	Index                   int    `json:"index"`
	SMILES                  string `json:"smiles"`
	CanonicalSMILES         string `json:"canonical_smiles"`
	UnmappedCanonicalSMILES string `json:"unmapped_canonical_smiles"`
	MappedAtomCount         int    `json:"mapped_atom_count"`
}

// Conversion is the answer of Convert.
type Conversion struct {
	Input      string `json:"input"`
	SMILES     string `json:"smiles"`
	IsReaction bool   `json:"is_reaction"`
	StripMaps  bool   `json:"strip_maps"`
}

// Fragment is the property identity of a set of atoms.  Equal keys mean
// the fragments cannot be told apart under the listed properties.
type Fragment struct {
	SMILES         string   `json:"smiles"`
	AtomIndices    []int    `json:"atom_indices"`
	AtomProperties []string `json:"atom_properties"`
	BondProperties []string `json:"bond_properties"`
	Key            string   `json:"key"`
	AtomCount      int      `json:"atom_count"`
	BondCount      int      `json:"bond_count"`
}

// FragmentRequest selects atoms of one molecule.  Empty AtomIndices means
// the whole molecule; nil property lists mean every property.
type FragmentRequest struct {
	SMILES         string   `json:"smiles"`
	AtomIndices    []int    `json:"atom_indices,omitempty"`
	AtomProperties []string `json:"atom_properties"`
	BondProperties []string `json:"bond_properties"`
}

// MoleculesClient covers /api/v1/molecules.
type MoleculesClient struct {
	client *Client
}

// Convert canonicalizes a molecule or reaction SMILES, optionally dropping
// the atom map numbers.
func (mc *MoleculesClient) Convert(ctx context.Context, smiles string, stripMaps bool) (*Conversion, error) {
	if strings.TrimSpace(smiles) == "" {
		return nil, errors.InvalidParam("smiles is required")
	}
	body := struct {
		SMILES    string `json:"smiles"`
		StripMaps bool   `json:"strip_maps"`
	}{smiles, stripMaps}
	return call[*Conversion](ctx, mc.client, http.MethodPost, "/api/v1/molecules/convert", body)
}

// Compounds lists the molecules of a reaction in reactant, agent, product
// order.
func (mc *MoleculesClient) Compounds(ctx context.Context, reactionSMILES string) ([]Compound, error) {
	if strings.TrimSpace(reactionSMILES) == "" {
		return nil, errors.InvalidParam("reaction_smiles is required")
	}
	body := struct {
		ReactionSMILES string `json:"reaction_smiles"`
	}{reactionSMILES}
	return call[[]Compound](ctx, mc.client, http.MethodPost, "/api/v1/molecules/compounds", body)
}

// Fragment computes the identity of the selected atoms.
func (mc *MoleculesClient) Fragment(ctx context.Context, req *FragmentRequest) (*Fragment, error) {
	if req == nil || strings.TrimSpace(req.SMILES) == "" {
		return nil, errors.InvalidParam("smiles is required")
	}
	return call[*Fragment](ctx, mc.client, http.MethodPost, "/api/v1/molecules/fragment", req)
}

//Personal.AI order the ending
