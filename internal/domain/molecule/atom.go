// Package molecule holds the in-memory molecular graph used by reaction
// analysis: atoms with an optional atom-map number and a fixed set of
// perceived chemical properties, bonds between them, and the identity tags
// derived from those properties.
//
// A MappedMolecule is immutable once constructed.  Operations that need a
// modified graph (for example stripping map numbers) clone first.
package molecule

import (
	"github.com/turtacn/SynthonScope/pkg/types/chem"
)

// ─────────────────────────────────────────────────────────────────────────────
// Atom
// ─────────────────────────────────────────────────────────────────────────────

// Atom is one vertex of a molecular graph together with its perceived
// properties.  MapNumber zero means the atom carries no map number.
type Atom struct {
	Index     int `json:"index"`
	MapNumber int `json:"map_number,omitempty"`

	AtomicNumber int     `json:"atomic_number"`
	Symbol       string  `json:"symbol"`
	Isotope      int     `json:"isotope,omitempty"`
	Mass         float64 `json:"mass"`
	FormalCharge int     `json:"formal_charge"`

	ChiralTag     chem.ChiralTag     `json:"chiral_tag"`
	Hybridization chem.Hybridization `json:"hybridization"`
	IsAromatic    bool               `json:"is_aromatic"`
	IsInRing      bool               `json:"is_in_ring"`

	// Degree counts explicit graph neighbours; TotalDegree adds all hydrogens.
	Degree      int `json:"degree"`
	TotalDegree int `json:"total_degree"`

	ExplicitValence int `json:"explicit_valence"`
	ImplicitValence int `json:"implicit_valence"`

	// NumExplicitHs are hydrogens written inside a bracket atom.
	NumExplicitHs       int `json:"num_explicit_hs"`
	NumImplicitHs       int `json:"num_implicit_hs"`
	NumRadicalElectrons int `json:"num_radical_electrons"`
}

// HasMapNumber reports whether the atom carries an atom-map number.
func (a Atom) HasMapNumber() bool { return a.MapNumber > 0 }

// TotalNumHs is the sum of explicit and implicit hydrogens.
func (a Atom) TotalNumHs() int { return a.NumExplicitHs + a.NumImplicitHs }

// TotalValence is the sum of explicit and implicit valence.
func (a Atom) TotalValence() int { return a.ExplicitValence + a.ImplicitValence }

// ─────────────────────────────────────────────────────────────────────────────
// Bond
// ─────────────────────────────────────────────────────────────────────────────

// Bond is an undirected edge.  Begin and End only record the order in which
// the endpoints were written; identity never depends on it.
type Bond struct {
	Index int `json:"index"`
	Begin int `json:"begin"`
	End   int `json:"end"`

	Type         chem.BondType   `json:"type"`
	Dir          chem.BondDir    `json:"dir"`
	Stereo       chem.BondStereo `json:"stereo"`
	IsAromatic   bool            `json:"is_aromatic"`
	IsConjugated bool            `json:"is_conjugated"`
	IsInRing     bool            `json:"is_in_ring"`
}

// Other returns the endpoint opposite to atom i, or -1 if i is not an endpoint.
func (b Bond) Other(i int) int {
	switch i {
	case b.Begin:
		return b.End
	case b.End:
		return b.Begin
	default:
		return -1
	}
}

// Connects reports whether the bond joins atoms i and j in either order.
func (b Bond) Connects(i, j int) bool {
	return (b.Begin == i && b.End == j) || (b.Begin == j && b.End == i)
}

//Personal.AI order the ending
