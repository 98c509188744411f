package reaction

import (
	"github.com/turtacn/SynthonScope/internal/domain/molecule"
)

// Role is the side of the reaction arrow a molecule is written on.
type Role string

const (
	RoleReactant Role = "reactant"
	RoleAgent    Role = "agent"
	RoleProduct  Role = "product"
)

// ReactionInstance holds the three ordered molecule sequences of a reaction.
// Agents are carried for completeness and ignored by classification.
type ReactionInstance struct {
	Reactants []*molecule.MappedMolecule
	Agents    []*molecule.MappedMolecule
	Products  []*molecule.MappedMolecule
}

// Molecules returns the sequence for role.
func (r *ReactionInstance) Molecules(role Role) []*molecule.MappedMolecule {
	switch role {
	case RoleReactant:
		return r.Reactants
	case RoleAgent:
		return r.Agents
	case RoleProduct:
		return r.Products
	default:
		return nil
	}
}

// MappedAtomCount sums mapped atoms over reactants and products.
func (r *ReactionInstance) MappedAtomCount() int {
	n := 0
	for _, m := range r.Reactants {
		n += m.MappedCount()
	}
	for _, m := range r.Products {
		n += m.MappedCount()
	}
	return n
}

// WithoutMapNumbers returns a copy of the reaction with every map number
// stripped.  The receiver is unchanged.
func (r *ReactionInstance) WithoutMapNumbers() *ReactionInstance {
	strip := func(in []*molecule.MappedMolecule) []*molecule.MappedMolecule {
		out := make([]*molecule.MappedMolecule, len(in))
		for i, m := range in {
			out[i] = m.WithoutMapNumbers()
		}
		return out
	}
	return &ReactionInstance{
		Reactants: strip(r.Reactants),
		Agents:    strip(r.Agents),
		Products:  strip(r.Products),
	}
}

//Personal.AI order the ending
