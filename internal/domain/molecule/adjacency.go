package molecule

import (
	"sort"

	"github.com/turtacn/SynthonScope/pkg/types/chem"
)

// MapPair is an unordered pair of map numbers, stored with Lo <= Hi.
type MapPair struct {
	Lo, Hi int
}

// NewMapPair orders a and b.
func NewMapPair(a, b int) MapPair {
	if a > b {
		a, b = b, a
	}
	return MapPair{Lo: a, Hi: b}
}

// MappedAdjacency indexes a molecule by map number: for every mapped atom its
// atom tag, and for every bond whose endpoints are both mapped the bond
// identity keyed by the neighbour's map number.  It is built once per molecule
// and filter pair and then shared read-only across comparisons.
type MappedAdjacency struct {
	atomTags  map[int]Tag
	neighbors map[int]map[int]BondIdentity
	pairs     []MapPair
}

// BuildMappedAdjacency indexes view under the given filters.  Unmapped atoms
// and bonds touching them are ignored.
func BuildMappedAdjacency(view GraphView, atomFilter chem.AtomFilter, bondFilter chem.BondFilter) *MappedAdjacency {
	atoms := view.Atoms()
	adj := &MappedAdjacency{
		atomTags:  make(map[int]Tag),
		neighbors: make(map[int]map[int]BondIdentity),
	}
	for _, a := range atoms {
		mn, ok := view.MapNumberOf(a.Index)
		if !ok {
			continue
		}
		if _, seen := adj.atomTags[mn]; seen {
			continue
		}
		adj.atomTags[mn] = AtomTag(a, atomFilter)
	}

	for _, b := range view.Bonds() {
		m1, ok1 := view.MapNumberOf(b.Begin)
		m2, ok2 := view.MapNumberOf(b.End)
		if !ok1 || !ok2 {
			continue
		}
		id := BondTag(b, atoms[b.Begin], atoms[b.End], atomFilter, bondFilter)
		adj.link(m1, m2, id)
		adj.link(m2, m1, id)
		adj.pairs = append(adj.pairs, NewMapPair(m1, m2))
	}
	sort.Slice(adj.pairs, func(i, j int) bool {
		if adj.pairs[i].Lo != adj.pairs[j].Lo {
			return adj.pairs[i].Lo < adj.pairs[j].Lo
		}
		return adj.pairs[i].Hi < adj.pairs[j].Hi
	})
	return adj
}

func (adj *MappedAdjacency) link(from, to int, id BondIdentity) {
	row, ok := adj.neighbors[from]
	if !ok {
		row = make(map[int]BondIdentity)
		adj.neighbors[from] = row
	}
	row[to] = id
}

// AtomTag returns the tag of the atom carrying mapNumber.
func (adj *MappedAdjacency) AtomTag(mapNumber int) (Tag, bool) {
	t, ok := adj.atomTags[mapNumber]
	return t, ok
}

// HasAtom reports whether mapNumber is present.
func (adj *MappedAdjacency) HasAtom(mapNumber int) bool {
	_, ok := adj.atomTags[mapNumber]
	return ok
}

// Bond returns the identity of the bond between two mapped atoms.
func (adj *MappedAdjacency) Bond(m1, m2 int) (BondIdentity, bool) {
	id, ok := adj.neighbors[m1][m2]
	return id, ok
}

// HasBond reports whether the mapped atoms m1 and m2 are bonded.
func (adj *MappedAdjacency) HasBond(m1, m2 int) bool {
	_, ok := adj.neighbors[m1][m2]
	return ok
}

// Pairs returns the mapped-bond set in ascending order.
func (adj *MappedAdjacency) Pairs() []MapPair {
	out := make([]MapPair, len(adj.pairs))
	copy(out, adj.pairs)
	return out
}

// MapNumbers returns the mapped atoms in ascending order.
func (adj *MappedAdjacency) MapNumbers() []int {
	out := make([]int, 0, len(adj.atomTags))
	for mn := range adj.atomTags {
		out = append(out, mn)
	}
	sort.Ints(out)
	return out
}

//Personal.AI order the ending
