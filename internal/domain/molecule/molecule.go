package molecule

import (
	"fmt"
	"sort"

	"github.com/turtacn/SynthonScope/pkg/errors"
)

// GraphView is the read-only surface through which reaction analysis reads a
// molecule.  Implementations must not change between calls, and Atoms()[i]
// must be the atom with Index i.
type GraphView interface {
	Atoms() []Atom
	Bonds() []Bond

	// MapNumberOf returns the map number of the atom at index i.
	MapNumberOf(i int) (int, bool)

	// AtomIndexOf returns the index of the atom carrying mapNumber.
	AtomIndexOf(mapNumber int) (int, bool)
}

// ─────────────────────────────────────────────────────────────────────────────
// MappedMolecule
// ─────────────────────────────────────────────────────────────────────────────

// MappedMolecule is an immutable molecular graph.  Map numbers are expected to
// be unique among the mapped atoms; when they are not, AtomIndexOf resolves to
// the lowest index and analysis results are not meaningful.
type MappedMolecule struct {
	atoms []Atom
	bonds []Bond

	incident [][]int // atom index -> bond indices
	mapIndex map[int]int
	dupMaps  []int
}

var _ GraphView = (*MappedMolecule)(nil)

// NewMappedMolecule validates the graph and builds the derived lookups.  Atom
// and bond indices are reassigned from slice positions.
func NewMappedMolecule(atoms []Atom, bonds []Bond) (*MappedMolecule, error) {
	m := &MappedMolecule{
		atoms:    make([]Atom, len(atoms)),
		bonds:    make([]Bond, len(bonds)),
		incident: make([][]int, len(atoms)),
		mapIndex: make(map[int]int),
	}
	copy(m.atoms, atoms)
	copy(m.bonds, bonds)

	for i := range m.atoms {
		m.atoms[i].Index = i
		mn := m.atoms[i].MapNumber
		if mn < 0 {
			return nil, errors.New(errors.ErrCodeInvalidMapping, "negative map number").
				WithDetailf("atom=%d map=%d", i, mn)
		}
		if mn == 0 {
			continue
		}
		if _, seen := m.mapIndex[mn]; seen {
			m.dupMaps = append(m.dupMaps, mn)
			continue
		}
		m.mapIndex[mn] = i
	}

	seen := make(map[[2]int]struct{}, len(m.bonds))
	for k := range m.bonds {
		b := &m.bonds[k]
		b.Index = k
		if b.Begin < 0 || b.Begin >= len(m.atoms) || b.End < 0 || b.End >= len(m.atoms) {
			return nil, errors.InvalidParam("bond endpoint out of range").
				WithDetailf("bond=%d begin=%d end=%d atoms=%d", k, b.Begin, b.End, len(m.atoms))
		}
		if b.Begin == b.End {
			return nil, errors.InvalidParam("bond joins an atom to itself").WithDetailf("bond=%d atom=%d", k, b.Begin)
		}
		key := orderedPair(b.Begin, b.End)
		if _, dup := seen[key]; dup {
			return nil, errors.InvalidParam("duplicate bond").WithDetailf("atoms=%d-%d", key[0], key[1])
		}
		seen[key] = struct{}{}
		m.incident[b.Begin] = append(m.incident[b.Begin], k)
		m.incident[b.End] = append(m.incident[b.End], k)
	}
	sort.Ints(m.dupMaps)
	return m, nil
}

// MustNewMappedMolecule panics on invalid input.  Intended for fixtures.
func MustNewMappedMolecule(atoms []Atom, bonds []Bond) *MappedMolecule {
	m, err := NewMappedMolecule(atoms, bonds)
	if err != nil {
		panic(fmt.Sprintf("molecule: %v", err))
	}
	return m
}

func orderedPair(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

// ── GraphView ────────────────────────────────────────────────────────────────

// Atoms returns a copy of the atom list.
func (m *MappedMolecule) Atoms() []Atom {
	out := make([]Atom, len(m.atoms))
	copy(out, m.atoms)
	return out
}

// Bonds returns a copy of the bond list.
func (m *MappedMolecule) Bonds() []Bond {
	out := make([]Bond, len(m.bonds))
	copy(out, m.bonds)
	return out
}

func (m *MappedMolecule) MapNumberOf(i int) (int, bool) {
	if i < 0 || i >= len(m.atoms) || m.atoms[i].MapNumber == 0 {
		return 0, false
	}
	return m.atoms[i].MapNumber, true
}

func (m *MappedMolecule) AtomIndexOf(mapNumber int) (int, bool) {
	i, ok := m.mapIndex[mapNumber]
	return i, ok
}

// ── Accessors ────────────────────────────────────────────────────────────────

func (m *MappedMolecule) NumAtoms() int { return len(m.atoms) }
func (m *MappedMolecule) NumBonds() int { return len(m.bonds) }

// Atom returns the atom at index i.  It panics when i is out of range.
func (m *MappedMolecule) Atom(i int) Atom { return m.atoms[i] }

// Bond returns the bond at index k.  It panics when k is out of range.
func (m *MappedMolecule) Bond(k int) Bond { return m.bonds[k] }

// IncidentBonds returns the indices of bonds touching atom i.
func (m *MappedMolecule) IncidentBonds(i int) []int {
	out := make([]int, len(m.incident[i]))
	copy(out, m.incident[i])
	return out
}

// Neighbors returns the atom indices bonded to atom i, in bond order.
func (m *MappedMolecule) Neighbors(i int) []int {
	out := make([]int, 0, len(m.incident[i]))
	for _, k := range m.incident[i] {
		out = append(out, m.bonds[k].Other(i))
	}
	return out
}

// BondBetween finds the bond joining atoms i and j.
func (m *MappedMolecule) BondBetween(i, j int) (Bond, bool) {
	if i < 0 || i >= len(m.atoms) {
		return Bond{}, false
	}
	for _, k := range m.incident[i] {
		if m.bonds[k].Connects(i, j) {
			return m.bonds[k], true
		}
	}
	return Bond{}, false
}

// MappedCount is the number of atoms carrying a map number.
func (m *MappedMolecule) MappedCount() int {
	n := 0
	for _, a := range m.atoms {
		if a.HasMapNumber() {
			n++
		}
	}
	return n
}

// MapNumbers returns the distinct map numbers in ascending order.
func (m *MappedMolecule) MapNumbers() []int {
	out := make([]int, 0, len(m.mapIndex))
	for mn := range m.mapIndex {
		out = append(out, mn)
	}
	sort.Ints(out)
	return out
}

// DuplicateMapNumbers lists map numbers that occur on more than one atom.
func (m *MappedMolecule) DuplicateMapNumbers() []int {
	out := make([]int, len(m.dupMaps))
	copy(out, m.dupMaps)
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// Copy-on-write helpers
// ─────────────────────────────────────────────────────────────────────────────

// Clone returns an independent copy.
func (m *MappedMolecule) Clone() *MappedMolecule {
	c, err := NewMappedMolecule(m.atoms, m.bonds)
	if err != nil {
		// m was validated on construction.
		panic(fmt.Sprintf("molecule: clone of valid molecule failed: %v", err))
	}
	return c
}

// WithoutMapNumbers returns a copy with every map number cleared.  The
// receiver is left untouched.
func (m *MappedMolecule) WithoutMapNumbers() *MappedMolecule {
	atoms := make([]Atom, len(m.atoms))
	copy(atoms, m.atoms)
	for i := range atoms {
		atoms[i].MapNumber = 0
	}
	return MustNewMappedMolecule(atoms, m.bonds)
}

//Personal.AI order the ending
