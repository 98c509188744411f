// Package chem defines the closed vocabularies of atom and bond properties used
// to build identity tags, together with the filter types that select which of
// those properties take part in a comparison.
//
// A filter is a tagged variant: either All properties, or an explicit Subset.
// An empty Subset selects nothing, so every atom (or bond) compares equal under
// it.  There is no implicit fallback from an empty Subset to All.
package chem

import (
	"sort"
	"strings"

	"github.com/turtacn/SynthonScope/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// AtomProperty
// ─────────────────────────────────────────────────────────────────────────────

// AtomProperty enumerates the atom-level properties.  The declaration order is
// the canonical order in which values appear inside an atom tag.
type AtomProperty uint8

const (
	AtomicNumber AtomProperty = iota
	ChiralTagProp
	Degree
	ExplicitValence
	FormalCharge
	HybridizationProp
	ImplicitValence
	AtomIsAromatic
	AtomIsInRing
	Isotope
	Mass
	NumExplicitHs
	NumImplicitHs
	NumRadicalElectrons
	Symbol
	TotalDegree
	TotalNumHs
	TotalValence

	numAtomProperties
)

var atomPropertyNames = [numAtomProperties]string{
	AtomicNumber:        "atomic_number",
	ChiralTagProp:       "chiral_tag",
	Degree:              "degree",
	ExplicitValence:     "explicit_valence",
	FormalCharge:        "formal_charge",
	HybridizationProp:   "hybridization",
	ImplicitValence:     "implicit_valence",
	AtomIsAromatic:      "is_aromatic",
	AtomIsInRing:        "is_in_ring",
	Isotope:             "isotope",
	Mass:                "mass",
	NumExplicitHs:       "num_explicit_hs",
	NumImplicitHs:       "num_implicit_hs",
	NumRadicalElectrons: "num_radical_electrons",
	Symbol:              "symbol",
	TotalDegree:         "total_degree",
	TotalNumHs:          "total_num_hs",
	TotalValence:        "total_valence",
}

func (p AtomProperty) String() string {
	if p < numAtomProperties {
		return atomPropertyNames[p]
	}
	return "unknown"
}

// Valid reports whether p is a member of the vocabulary.
func (p AtomProperty) Valid() bool { return p < numAtomProperties }

// AtomProperties returns the full vocabulary in canonical order.
func AtomProperties() []AtomProperty {
	out := make([]AtomProperty, numAtomProperties)
	for i := range out {
		out[i] = AtomProperty(i)
	}
	return out
}

// ParseAtomProperty resolves a property name (case-insensitive, '-' or '_').
func ParseAtomProperty(name string) (AtomProperty, error) {
	n := normalizeName(name)
	for i, s := range atomPropertyNames {
		if s == n {
			return AtomProperty(i), nil
		}
	}
	return 0, errors.New(errors.ErrCodeUnknownProperty, "unknown atom property").WithDetail(name)
}

// ─────────────────────────────────────────────────────────────────────────────
// BondProperty
// ─────────────────────────────────────────────────────────────────────────────

// BondProperty enumerates the bond-level properties in canonical tag order.
type BondProperty uint8

const (
	BondDirProp BondProperty = iota
	BondTypeProp
	BondIsAromatic
	BondIsConjugated
	BondIsInRing
	StereoProp

	numBondProperties
)

var bondPropertyNames = [numBondProperties]string{
	BondDirProp:      "bond_dir",
	BondTypeProp:     "bond_type",
	BondIsAromatic:   "is_aromatic",
	BondIsConjugated: "is_conjugated",
	BondIsInRing:     "is_in_ring",
	StereoProp:       "stereo",
}

func (p BondProperty) String() string {
	if p < numBondProperties {
		return bondPropertyNames[p]
	}
	return "unknown"
}

// Valid reports whether p is a member of the vocabulary.
func (p BondProperty) Valid() bool { return p < numBondProperties }

// BondProperties returns the full vocabulary in canonical order.
func BondProperties() []BondProperty {
	out := make([]BondProperty, numBondProperties)
	for i := range out {
		out[i] = BondProperty(i)
	}
	return out
}

// ParseBondProperty resolves a bond property name.
func ParseBondProperty(name string) (BondProperty, error) {
	n := normalizeName(name)
	for i, s := range bondPropertyNames {
		if s == n {
			return BondProperty(i), nil
		}
	}
	return 0, errors.New(errors.ErrCodeUnknownProperty, "unknown bond property").WithDetail(name)
}

// ─────────────────────────────────────────────────────────────────────────────
// Filters
// ─────────────────────────────────────────────────────────────────────────────

// AtomFilter selects the atom properties that participate in a tag.
// The zero value is an empty Subset.
type AtomFilter struct {
	all  bool
	mask uint32
}

// AllAtomProperties selects the whole atom vocabulary.
func AllAtomProperties() AtomFilter { return AtomFilter{all: true} }

// AtomSubset selects exactly props.  With no arguments it selects nothing.
func AtomSubset(props ...AtomProperty) AtomFilter {
	var f AtomFilter
	for _, p := range props {
		if p.Valid() {
			f.mask |= 1 << p
		}
	}
	return f
}

// IsAll reports whether the filter is the All variant.
func (f AtomFilter) IsAll() bool { return f.all }

// Includes reports whether p is selected.
func (f AtomFilter) Includes(p AtomProperty) bool {
	if !p.Valid() {
		return false
	}
	return f.all || f.mask&(1<<p) != 0
}

// Selected returns the selected properties in canonical order.
func (f AtomFilter) Selected() []AtomProperty {
	out := make([]AtomProperty, 0, numAtomProperties)
	for p := AtomProperty(0); p < numAtomProperties; p++ {
		if f.Includes(p) {
			out = append(out, p)
		}
	}
	return out
}

// Names returns nil for the All variant and the sorted names otherwise, so a
// round trip through ParseAtomFilter preserves the variant.
func (f AtomFilter) Names() []string {
	if f.all {
		return nil
	}
	out := make([]string, 0)
	for _, p := range f.Selected() {
		out = append(out, p.String())
	}
	sort.Strings(out)
	return out
}

func (f AtomFilter) String() string {
	if f.all {
		return "all"
	}
	return "{" + strings.Join(f.Names(), ",") + "}"
}

// ParseAtomFilter builds a filter from names.  A nil slice, or a slice holding
// the single name "all", yields All.  A non-nil empty slice, or "none", yields
// the empty Subset.
func ParseAtomFilter(names []string) (AtomFilter, error) {
	if names == nil {
		return AllAtomProperties(), nil
	}
	if len(names) == 1 {
		switch normalizeName(names[0]) {
		case "all", "*":
			return AllAtomProperties(), nil
		case "none", "":
			return AtomSubset(), nil
		}
	}
	var f AtomFilter
	for _, n := range names {
		p, err := ParseAtomProperty(n)
		if err != nil {
			return AtomFilter{}, err
		}
		f.mask |= 1 << p
	}
	return f, nil
}

// BondFilter selects the bond properties that participate in a bond tag.
// The zero value is an empty Subset.
type BondFilter struct {
	all  bool
	mask uint16
}

// AllBondProperties selects the whole bond vocabulary.
func AllBondProperties() BondFilter { return BondFilter{all: true} }

// BondSubset selects exactly props.
func BondSubset(props ...BondProperty) BondFilter {
	var f BondFilter
	for _, p := range props {
		if p.Valid() {
			f.mask |= 1 << p
		}
	}
	return f
}

func (f BondFilter) IsAll() bool { return f.all }

func (f BondFilter) Includes(p BondProperty) bool {
	if !p.Valid() {
		return false
	}
	return f.all || f.mask&(1<<p) != 0
}

// Selected returns the selected properties in canonical order.
func (f BondFilter) Selected() []BondProperty {
	out := make([]BondProperty, 0, numBondProperties)
	for p := BondProperty(0); p < numBondProperties; p++ {
		if f.Includes(p) {
			out = append(out, p)
		}
	}
	return out
}

// Names mirrors AtomFilter.Names.
func (f BondFilter) Names() []string {
	if f.all {
		return nil
	}
	out := make([]string, 0)
	for _, p := range f.Selected() {
		out = append(out, p.String())
	}
	sort.Strings(out)
	return out
}

func (f BondFilter) String() string {
	if f.all {
		return "all"
	}
	return "{" + strings.Join(f.Names(), ",") + "}"
}

// ParseBondFilter mirrors ParseAtomFilter.
func ParseBondFilter(names []string) (BondFilter, error) {
	if names == nil {
		return AllBondProperties(), nil
	}
	if len(names) == 1 {
		switch normalizeName(names[0]) {
		case "all", "*":
			return AllBondProperties(), nil
		case "none", "":
			return BondSubset(), nil
		}
	}
	var f BondFilter
	for _, n := range names {
		p, err := ParseBondProperty(n)
		if err != nil {
			return BondFilter{}, err
		}
		f.mask |= 1 << p
	}
	return f, nil
}

func normalizeName(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
}

//Personal.AI order the ending
