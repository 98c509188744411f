// Package smiles reads and writes SMILES strings and perceives the chemical
// properties that reaction analysis compares: hydrogen counts, valences,
// ring membership, aromaticity, hybridization, conjugation and double-bond
// stereo.
//
// Perception follows the usual valence-model conventions of cheminformatics
// toolkits.  It is deliberately a model rather than quantum chemistry: the
// same input always yields the same properties, which is what tag comparison
// needs.
package smiles

import (
	"strings"
)

// element is one row of the periodic-table subset understood by the reader.
type element struct {
	Symbol   string
	Number   int
	Mass     float64
	Outer    int   // valence-shell electrons
	Valences []int // allowed valences, ascending; nil means unconstrained
}

var elements = []element{
	{"*", 0, 0, 0, nil},
	{"H", 1, 1.008, 1, []int{1}},
	{"He", 2, 4.003, 2, []int{0}},
	{"Li", 3, 6.941, 1, []int{1}},
	{"Be", 4, 9.012, 2, []int{2}},
	{"B", 5, 10.812, 3, []int{3}},
	{"C", 6, 12.011, 4, []int{4}},
	{"N", 7, 14.007, 5, []int{3}},
	{"O", 8, 15.999, 6, []int{2}},
	{"F", 9, 18.998, 7, []int{1}},
	{"Ne", 10, 20.18, 8, []int{0}},
	{"Na", 11, 22.99, 1, []int{1}},
	{"Mg", 12, 24.305, 2, []int{2}},
	{"Al", 13, 26.982, 3, []int{3, 6}},
	{"Si", 14, 28.086, 4, []int{4, 6}},
	{"P", 15, 30.974, 5, []int{3, 5, 7}},
	{"S", 16, 32.067, 6, []int{2, 4, 6}},
	{"Cl", 17, 35.453, 7, []int{1}},
	{"Ar", 18, 39.948, 8, []int{0}},
	{"K", 19, 39.098, 1, []int{1}},
	{"Ca", 20, 40.078, 2, []int{2}},
	{"Sc", 21, 44.956, 3, nil},
	{"Ti", 22, 47.867, 4, nil},
	{"V", 23, 50.942, 5, nil},
	{"Cr", 24, 51.996, 6, nil},
	{"Mn", 25, 54.938, 7, nil},
	{"Fe", 26, 55.845, 8, nil},
	{"Co", 27, 58.933, 9, nil},
	{"Ni", 28, 58.693, 10, nil},
	{"Cu", 29, 63.546, 11, nil},
	{"Zn", 30, 65.39, 2, nil},
	{"Ga", 31, 69.723, 3, []int{3}},
	{"Ge", 32, 72.61, 4, []int{4}},
	{"As", 33, 74.922, 5, []int{3, 5, 7}},
	{"Se", 34, 78.96, 6, []int{2, 4, 6}},
	{"Br", 35, 79.904, 7, []int{1}},
	{"Kr", 36, 83.8, 8, []int{0}},
	{"Rb", 37, 85.468, 1, []int{1}},
	{"Sr", 38, 87.62, 2, []int{2}},
	{"Y", 39, 88.906, 3, nil},
	{"Zr", 40, 91.224, 4, nil},
	{"Nb", 41, 92.906, 5, nil},
	{"Mo", 42, 95.94, 6, nil},
	{"Tc", 43, 98, 7, nil},
	{"Ru", 44, 101.07, 8, nil},
	{"Rh", 45, 102.906, 9, nil},
	{"Pd", 46, 106.42, 10, nil},
	{"Ag", 47, 107.868, 11, nil},
	{"Cd", 48, 112.411, 2, nil},
	{"In", 49, 114.818, 3, []int{3}},
	{"Sn", 50, 118.71, 4, []int{2, 4}},
	{"Sb", 51, 121.76, 5, []int{3, 5, 7}},
	{"Te", 52, 127.6, 6, []int{2, 4, 6}},
	{"I", 53, 126.904, 7, []int{1, 3, 5}},
	{"Xe", 54, 131.29, 8, []int{0, 2, 4, 6}},
	{"Cs", 55, 132.905, 1, []int{1}},
	{"Ba", 56, 137.328, 2, []int{2}},
	{"Pt", 78, 195.078, 10, nil},
	{"Au", 79, 196.967, 11, nil},
	{"Hg", 80, 200.59, 2, nil},
	{"Tl", 81, 204.383, 3, []int{1, 3}},
	{"Pb", 82, 207.2, 4, []int{2, 4}},
	{"Bi", 83, 208.98, 5, []int{3, 5}},
}

var (
	bySymbol = make(map[string]*element, len(elements))
	byNumber = make(map[int]*element, len(elements))
)

// Organic-subset symbols may be written without brackets.
var organicSubset = map[string]bool{
	"B": true, "C": true, "N": true, "O": true, "P": true, "S": true,
	"F": true, "Cl": true, "Br": true, "I": true, "*": true,
}

// Lowercase aromatic symbols; the first group is allowed outside brackets.
var (
	aromaticOrganic = map[string]bool{"b": true, "c": true, "n": true, "o": true, "p": true, "s": true}
	aromaticBracket = map[string]bool{"b": true, "c": true, "n": true, "o": true, "p": true, "s": true, "se": true, "as": true, "te": true}
)

// Exact masses for the isotopes that show up in labelled reactions.  Other
// isotopes fall back to their mass number.
var isotopeMass = map[[2]int]float64{
	{1, 2}:  2.014,
	{1, 3}:  3.016,
	{6, 13}: 13.003,
	{6, 14}: 14.003,
	{7, 15}: 15.0,
	{8, 17}: 16.999,
	{8, 18}: 17.999,
}

func init() {
	for i := range elements {
		e := &elements[i]
		bySymbol[e.Symbol] = e
		byNumber[e.Number] = e
	}
}

func lookupSymbol(symbol string) (*element, bool) {
	if aromaticBracket[symbol] {
		symbol = strings.ToUpper(symbol[:1]) + symbol[1:]
	}
	e, ok := bySymbol[symbol]
	return e, ok
}

func atomMass(e *element, isotope int) float64 {
	if isotope == 0 {
		return e.Mass
	}
	if m, ok := isotopeMass[[2]int{e.Number, isotope}]; ok {
		return m
	}
	return float64(isotope)
}

// isEarly reports elements left of carbon, for which a negative charge raises
// the valence rather than lowering it.
func isEarly(e *element) bool {
	return e.Outer < 4 && e.Number > 1
}

// allowedValences returns the valence list adjusted for formal charge, or nil
// when the element is unconstrained.
func allowedValences(e *element, charge int) []int {
	if e.Valences == nil {
		return nil
	}
	chr := charge
	if isEarly(e) {
		chr = -chr
	}
	// A carbocation is isoelectronic with boron, not nitrogen.
	if e.Number == 6 && chr > 0 {
		chr = -chr
	}
	out := make([]int, 0, len(e.Valences))
	for _, v := range e.Valences {
		if v+chr >= 0 {
			out = append(out, v+chr)
		}
	}
	if len(out) == 0 {
		out = append(out, 0)
	}
	return out
}

//Personal.AI order the ending
