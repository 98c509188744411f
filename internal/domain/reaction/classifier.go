// Package reaction classifies the atoms of an atom-mapped chemical reaction
// into synthons, whose immediate bonding environment survives the reaction
// unchanged, and reactive sites, which take part in bond formation or
// cleavage.
//
// Classification is a pure function of its inputs.  Molecules are read through
// molecule.GraphView and never modified.  Preconditions are caller contracts
// and are not checked at run time: map numbers must be unique within each
// molecule and must pair chemically comparable atoms.  Violating them yields
// results without contractual meaning rather than an error.
package reaction

import (
	"sort"

	"github.com/turtacn/SynthonScope/internal/domain/molecule"
	"github.com/turtacn/SynthonScope/pkg/types/chem"
)

// ─────────────────────────────────────────────────────────────────────────────
// SynthonSet
// ─────────────────────────────────────────────────────────────────────────────

// SynthonSet is a set of atom-map numbers scoped to one reactant/product
// comparison.
type SynthonSet map[int]struct{}

// NewSynthonSet builds a set from map numbers.
func NewSynthonSet(mapNumbers ...int) SynthonSet {
	s := make(SynthonSet, len(mapNumbers))
	for _, mn := range mapNumbers {
		s[mn] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s SynthonSet) Has(mapNumber int) bool {
	_, ok := s[mapNumber]
	return ok
}

// Sorted returns the members in ascending order.
func (s SynthonSet) Sorted() []int {
	out := make([]int, 0, len(s))
	for mn := range s {
		out = append(out, mn)
	}
	sort.Ints(out)
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// Classification
// ─────────────────────────────────────────────────────────────────────────────

// ClassifySynthons returns the map numbers whose local environment is the same
// in reactant and product under the given filters.  Unmapped atoms never
// appear in the result.
func ClassifySynthons(reactant, product molecule.GraphView, atomFilter chem.AtomFilter, bondFilter chem.BondFilter) SynthonSet {
	return ClassifyIndexed(
		molecule.BuildMappedAdjacency(reactant, atomFilter, bondFilter),
		molecule.BuildMappedAdjacency(product, atomFilter, bondFilter),
	)
}

// ClassifyIndexed runs the classification over prebuilt adjacency indexes.
// Both indexes must have been built with the same filters.
//
// The passes run in a fixed order and the bond-level verdicts always win:
//
//  1. bonds present on only one side mark both endpoints as changed;
//  2. bonds present on both sides compare bond tags, sending both endpoints to
//     the synthon-bond or non-synthon-bond set;
//  3. mapped reactant atoms untouched by 1 and 2 compare atom tags with the
//     product atom of the same map number, when there is one;
//  4. result = (synthon atoms ∪ synthon-bond atoms) − (non-synthon-bond atoms ∪ changed).
func ClassifyIndexed(reactant, product *molecule.MappedAdjacency) SynthonSet {
	changed := make(map[int]struct{})
	synthonBond := make(map[int]struct{})
	nonSynthonBond := make(map[int]struct{})

	rPairs := reactant.Pairs()
	for _, p := range rPairs {
		if !product.HasBond(p.Lo, p.Hi) {
			changed[p.Lo] = struct{}{}
			changed[p.Hi] = struct{}{}
			continue
		}
		rID, _ := reactant.Bond(p.Lo, p.Hi)
		pID, _ := product.Bond(p.Lo, p.Hi)
		if rID == pID {
			synthonBond[p.Lo] = struct{}{}
			synthonBond[p.Hi] = struct{}{}
		} else {
			nonSynthonBond[p.Lo] = struct{}{}
			nonSynthonBond[p.Hi] = struct{}{}
		}
	}
	for _, p := range product.Pairs() {
		if !reactant.HasBond(p.Lo, p.Hi) {
			changed[p.Lo] = struct{}{}
			changed[p.Hi] = struct{}{}
		}
	}

	result := make(SynthonSet)
	for _, mn := range reactant.MapNumbers() {
		if in(changed, mn) || in(synthonBond, mn) || in(nonSynthonBond, mn) {
			continue
		}
		pTag, ok := product.AtomTag(mn)
		if !ok {
			continue
		}
		rTag, _ := reactant.AtomTag(mn)
		if rTag.Equal(pTag) {
			result[mn] = struct{}{}
		}
	}

	for mn := range synthonBond {
		if in(nonSynthonBond, mn) || in(changed, mn) {
			continue
		}
		result[mn] = struct{}{}
	}
	return result
}

func in(set map[int]struct{}, k int) bool {
	_, ok := set[k]
	return ok
}

//Personal.AI order the ending
