// Package conversion exposes the SMILES format layer to the rest of the
// application: reading and writing molecules and reactions, stripping atom
// map numbers, and listing the compounds of a reaction.
//
// Every failure is returned as a *errors.AppError carrying one of the CHEM_
// codes and is also logged at debug level, so callers that only care about
// success can drop the error without losing the diagnostic.
package conversion

import (
	"sort"
	"strings"

	"github.com/turtacn/SynthonScope/internal/domain/molecule"
	"github.com/turtacn/SynthonScope/internal/domain/reaction"
	"github.com/turtacn/SynthonScope/internal/infrastructure/chem/smiles"
	"github.com/turtacn/SynthonScope/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SynthonScope/pkg/errors"
	"github.com/turtacn/SynthonScope/pkg/types/chem"
)

// CompoundRecord describes one molecule of a reaction SMILES.
type CompoundRecord struct {
	Role                    reaction.Role `json:"role" yaml:"role"`
	Index                   int           `json:"index" yaml:"index"`
	SMILES                  string        `json:"smiles" yaml:"smiles"`
	CanonicalSMILES         string        `json:"canonical_smiles" yaml:"canonical_smiles"`
	UnmappedCanonicalSMILES string        `json:"unmapped_canonical_smiles" yaml:"unmapped_canonical_smiles"`
	MappedAtomCount         int           `json:"mapped_atom_count" yaml:"mapped_atom_count"`

	Molecule *molecule.MappedMolecule `json:"-" yaml:"-"`
}

// Converter wraps the SMILES reader and writer with logging.
type Converter struct {
	logger logging.Logger
}

// NewConverter returns a Converter.  A nil logger discards output.
func NewConverter(logger logging.Logger) *Converter {
	return &Converter{logger: logging.OrNop(logger).Named("conversion")}
}

// MoleculeFromSMILES parses a single molecule.
func (c *Converter) MoleculeFromSMILES(s string) (*molecule.MappedMolecule, error) {
	m, err := smiles.ParseMolecule(s)
	if err != nil {
		c.logger.Debug("molecule SMILES rejected", logging.String("smiles", s), logging.Err(err))
		return nil, err
	}
	return m, nil
}

// MoleculeToSMILES writes m canonically.  Map numbers are kept unless
// stripMaps is set; m itself is never modified.
func (c *Converter) MoleculeToSMILES(m *molecule.MappedMolecule, stripMaps bool) (string, error) {
	if m == nil {
		return "", errors.InvalidParam("molecule is nil")
	}
	return smiles.WriteMolecule(m, smiles.WriteOptions{Canonical: true, IncludeMapNumbers: !stripMaps}), nil
}

// ReactionFromSMILES parses "reactants>agents>products".
func (c *Converter) ReactionFromSMILES(s string) (*reaction.ReactionInstance, error) {
	r, err := smiles.ParseReaction(s)
	if err != nil {
		c.logger.Debug("reaction SMILES rejected", logging.String("smiles", s), logging.Err(err))
		return nil, err
	}
	warnDuplicateMaps(c.logger, s, reaction.RoleReactant, r.Reactants)
	warnDuplicateMaps(c.logger, s, reaction.RoleProduct, r.Products)
	return r, nil
}

// warnDuplicateMaps reports molecules that reuse a map number.  Analysis
// still runs; its result for those atoms is not meaningful.
func warnDuplicateMaps(log logging.Logger, rxn string, role reaction.Role, mols []*molecule.MappedMolecule) {
	for i, m := range mols {
		if dups := m.DuplicateMapNumbers(); len(dups) > 0 {
			log.Warn("map numbers repeated within a molecule",
				logging.String("smiles", rxn),
				logging.String("role", string(role)),
				logging.Int("index", i),
				logging.Ints("map_numbers", dups))
		}
	}
}

// RemoveMapNumbers returns the canonical, unmapped form of a molecule or
// reaction SMILES.  Reactions are detected by the presence of '>'.
func (c *Converter) RemoveMapNumbers(s string) (string, error) {
	opts := smiles.WriteOptions{Canonical: true}
	if isReaction(s) {
		r, err := c.ReactionFromSMILES(s)
		if err != nil {
			return "", err
		}
		return smiles.WriteReaction(r.WithoutMapNumbers(), opts), nil
	}
	m, err := c.MoleculeFromSMILES(s)
	if err != nil {
		return "", err
	}
	return smiles.WriteMolecule(m.WithoutMapNumbers(), opts), nil
}

// Canonicalize returns the canonical form of a molecule or reaction SMILES
// with map numbers preserved.
func (c *Converter) Canonicalize(s string) (string, error) {
	opts := smiles.WriteOptions{Canonical: true, IncludeMapNumbers: true}
	if isReaction(s) {
		r, err := c.ReactionFromSMILES(s)
		if err != nil {
			return "", err
		}
		return smiles.WriteReaction(r, opts), nil
	}
	m, err := c.MoleculeFromSMILES(s)
	if err != nil {
		return "", err
	}
	return smiles.WriteMolecule(m, opts), nil
}

// ExtractCompounds lists every molecule of a reaction in role order
// (reactants, agents, products), each with its input text, mapped and
// unmapped canonical forms.
func (c *Converter) ExtractCompounds(reactionSMILES string) ([]CompoundRecord, error) {
	rxn, err := c.ReactionFromSMILES(reactionSMILES)
	if err != nil {
		return nil, err
	}
	rs, as, ps, err := smiles.SplitReaction(reactionSMILES)
	if err != nil {
		return nil, err
	}

	var out []CompoundRecord
	for _, side := range []struct {
		role reaction.Role
		text []string
	}{
		{reaction.RoleReactant, rs},
		{reaction.RoleAgent, as},
		{reaction.RoleProduct, ps},
	} {
		for i, m := range rxn.Molecules(side.role) {
			out = append(out, CompoundRecord{
				Role:                    side.role,
				Index:                   i,
				SMILES:                  side.text[i],
				CanonicalSMILES:         smiles.WriteMolecule(m, smiles.WriteOptions{Canonical: true, IncludeMapNumbers: true}),
				UnmappedCanonicalSMILES: smiles.WriteMolecule(m.WithoutMapNumbers(), smiles.WriteOptions{Canonical: true}),
				MappedAtomCount:         m.MappedCount(),
				Molecule:                m,
			})
		}
	}
	c.logger.Debug("compounds extracted", logging.Int("count", len(out)))
	return out, nil
}

// Fragment is the filter-dependent identity of a set of atoms in one
// molecule.  Fragments with equal keys cannot be told apart under the same
// filters, wherever they sit in their molecules.
type Fragment struct {
	SMILES         string   `json:"smiles" yaml:"smiles"`
	AtomIndices    []int    `json:"atom_indices" yaml:"atom_indices"`
	AtomProperties []string `json:"atom_properties" yaml:"atom_properties"`
	BondProperties []string `json:"bond_properties" yaml:"bond_properties"`
	Key            string   `json:"key" yaml:"key"`
	AtomCount      int      `json:"atom_count" yaml:"atom_count"`
	BondCount      int      `json:"bond_count" yaml:"bond_count"`
}

// FragmentIdentity computes the identity of the atoms at atomIndices in a
// single-molecule SMILES.  An empty index list selects the whole molecule;
// nil property lists select every property.
func (c *Converter) FragmentIdentity(s string, atomIndices []int, atomProps, bondProps []string) (*Fragment, error) {
	if isReaction(s) {
		return nil, errors.InvalidParam("fragment identity takes a single molecule")
	}
	af, err := chem.ParseAtomFilter(atomProps)
	if err != nil {
		return nil, err
	}
	bf, err := chem.ParseBondFilter(bondProps)
	if err != nil {
		return nil, err
	}
	m, err := c.MoleculeFromSMILES(s)
	if err != nil {
		return nil, err
	}

	seen := make(map[int]struct{}, len(atomIndices))
	indices := make([]int, 0, len(atomIndices))
	for _, i := range atomIndices {
		if i < 0 || i >= m.NumAtoms() {
			return nil, errors.InvalidParam("atom index out of range").
				WithDetailf("index=%d atoms=%d", i, m.NumAtoms())
		}
		if _, dup := seen[i]; !dup {
			seen[i] = struct{}{}
			indices = append(indices, i)
		}
	}
	if len(indices) == 0 {
		for i := 0; i < m.NumAtoms(); i++ {
			indices = append(indices, i)
		}
	}
	sort.Ints(indices)

	id := m.SubstructurePropertyID(indices, af, bf)
	bonds := 0
	for _, n := range id.BondTags {
		bonds += n
	}
	return &Fragment{
		SMILES:         s,
		AtomIndices:    indices,
		AtomProperties: af.Names(),
		BondProperties: bf.Names(),
		Key:            id.Key(),
		AtomCount:      len(indices),
		BondCount:      bonds,
	}, nil
}

func isReaction(s string) bool { return strings.ContainsRune(s, '>') }

//Personal.AI order the ending
