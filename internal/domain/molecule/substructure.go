package molecule

import (
	"sort"
	"strconv"
	"strings"

	"github.com/turtacn/SynthonScope/pkg/types/chem"
)

// SubstructureID is an order-independent identity of a fragment: the multiset
// of its atom tags and the multiset of the identities of bonds lying wholly
// inside it.  Two fragments with equal IDs are indistinguishable under the
// filters that produced them.
type SubstructureID struct {
	AtomTags map[string]int
	BondTags map[BondIdentity]int
}

// SubstructurePropertyID computes the identity of the fragment made of the
// given atom indices.  Indices outside the molecule are ignored.
func (m *MappedMolecule) SubstructurePropertyID(atomIndices []int, atomFilter chem.AtomFilter, bondFilter chem.BondFilter) SubstructureID {
	id := SubstructureID{
		AtomTags: make(map[string]int),
		BondTags: make(map[BondIdentity]int),
	}
	in := make(map[int]bool, len(atomIndices))
	for _, i := range atomIndices {
		if i < 0 || i >= len(m.atoms) || in[i] {
			continue
		}
		in[i] = true
		id.AtomTags[AtomTag(m.atoms[i], atomFilter).Key()]++
	}
	for k, b := range m.bonds {
		if in[b.Begin] && in[b.End] {
			id.BondTags[m.BondTag(k, atomFilter, bondFilter)]++
		}
	}
	return id
}

// Key renders the identity canonically; equal keys mean equal identities.
func (s SubstructureID) Key() string {
	atoms := make([]string, 0, len(s.AtomTags))
	for tag, n := range s.AtomTags {
		atoms = append(atoms, tag+"x"+strconv.Itoa(n))
	}
	sort.Strings(atoms)

	bonds := make([]string, 0, len(s.BondTags))
	for id, n := range s.BondTags {
		bonds = append(bonds, id.Ends[0]+"~"+id.Ends[1]+"~"+id.Props+"x"+strconv.Itoa(n))
	}
	sort.Strings(bonds)

	return "A[" + strings.Join(atoms, ";") + "]B[" + strings.Join(bonds, ";") + "]"
}

// Equal compares two identities as multisets.
func (s SubstructureID) Equal(o SubstructureID) bool {
	if len(s.AtomTags) != len(o.AtomTags) || len(s.BondTags) != len(o.BondTags) {
		return false
	}
	for k, n := range s.AtomTags {
		if o.AtomTags[k] != n {
			return false
		}
	}
	for k, n := range s.BondTags {
		if o.BondTags[k] != n {
			return false
		}
	}
	return true
}

//Personal.AI order the ending
