package smiles

import (
	"strings"

	"github.com/turtacn/SynthonScope/internal/domain/molecule"
	"github.com/turtacn/SynthonScope/internal/domain/reaction"
	"github.com/turtacn/SynthonScope/pkg/errors"
)

// ParseReaction reads "reactants>agents>products".  Molecules on each side
// are separated by '.'.  The agents field may be empty; reactants and
// products may not.
func ParseReaction(rxn string) (*reaction.ReactionInstance, error) {
	src := firstField(rxn)
	if src == "" {
		return nil, errors.New(errors.ErrCodeEmptyInput, "empty reaction SMILES")
	}
	sides := strings.Split(src, ">")
	if len(sides) != 3 {
		return nil, errors.New(errors.ErrCodeParseFailure, "reaction SMILES must have exactly two '>' separators").
			WithDetailf("smiles=%s", src)
	}

	out := &reaction.ReactionInstance{}
	var err error
	if out.Reactants, err = parseSide(sides[0], reaction.RoleReactant, false); err != nil {
		return nil, err
	}
	if out.Agents, err = parseSide(sides[1], reaction.RoleAgent, true); err != nil {
		return nil, err
	}
	if out.Products, err = parseSide(sides[2], reaction.RoleProduct, false); err != nil {
		return nil, err
	}
	return out, nil
}

// SplitReaction returns the molecule SMILES of each side without parsing
// them.
func SplitReaction(rxn string) (reactants, agents, products []string, err error) {
	src := firstField(rxn)
	if src == "" {
		return nil, nil, nil, errors.New(errors.ErrCodeEmptyInput, "empty reaction SMILES")
	}
	sides := strings.Split(src, ">")
	if len(sides) != 3 {
		return nil, nil, nil, errors.New(errors.ErrCodeParseFailure, "reaction SMILES must have exactly two '>' separators").
			WithDetailf("smiles=%s", src)
	}
	return splitSide(sides[0]), splitSide(sides[1]), splitSide(sides[2]), nil
}

func splitSide(side string) []string {
	if side == "" {
		return nil
	}
	return strings.Split(side, ".")
}

func parseSide(side string, role reaction.Role, allowEmpty bool) ([]*molecule.MappedMolecule, error) {
	parts := splitSide(side)
	if len(parts) == 0 {
		if allowEmpty {
			return nil, nil
		}
		return nil, errors.Newf(errors.ErrCodeParseFailure, "no %s molecules", role)
	}
	mols := make([]*molecule.MappedMolecule, 0, len(parts))
	for i, part := range parts {
		if part == "" {
			return nil, errors.Newf(errors.ErrCodeParseFailure, "empty %s at position %d", role, i)
		}
		m, err := ParseMolecule(part)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeUnknown, "invalid "+string(role)).WithDetailf("index=%d", i)
		}
		mols = append(mols, m)
	}
	return mols, nil
}

// WriteReaction renders a reaction with every molecule written under opts.
func WriteReaction(r *reaction.ReactionInstance, opts WriteOptions) string {
	side := func(ms []*molecule.MappedMolecule) string {
		parts := make([]string, len(ms))
		for i, m := range ms {
			parts[i] = WriteMolecule(m, opts)
		}
		return strings.Join(parts, ".")
	}
	return side(r.Reactants) + ">" + side(r.Agents) + ">" + side(r.Products)
}

//Personal.AI order the ending
