package smiles

import (
	"github.com/dominikbraun/graph"

	"github.com/turtacn/SynthonScope/internal/domain/molecule"
	"github.com/turtacn/SynthonScope/pkg/errors"
	"github.com/turtacn/SynthonScope/pkg/types/chem"
)

// maxAromaticRing bounds the cycles inspected for Kekulé-form aromaticity.
const maxAromaticRing = 8

// state is the mutable graph perception works on before it is frozen into a
// MappedMolecule.
type state struct {
	atoms    []*parsedAtom
	bonds    []molecule.Bond
	incident [][]int
}

func newState(atoms []*parsedAtom, bonds []molecule.Bond) *state {
	s := &state{atoms: atoms, bonds: bonds, incident: make([][]int, len(atoms))}
	for k, b := range bonds {
		s.bonds[k].Index = k
		s.incident[b.Begin] = append(s.incident[b.Begin], k)
		s.incident[b.End] = append(s.incident[b.End], k)
	}
	return s
}

// perceive fills every derived property.  The order matters: hydrogens are
// counted on the bonds as written, before Kekulé rings become aromatic.
func (s *state) perceive() error {
	if err := s.perceiveRings(); err != nil {
		return err
	}
	if err := s.assignHydrogens(); err != nil {
		return err
	}
	if err := s.checkKekulizable(); err != nil {
		return err
	}
	s.perceiveAromaticity()
	if err := s.finalizeValences(); err != nil {
		return err
	}
	s.perceiveConjugation()
	for i := range s.atoms {
		s.atoms[i].atom.Hybridization = s.hybridization(i)
	}
	s.perceiveDoubleBondStereo()
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Valence model
// ─────────────────────────────────────────────────────────────────────────────

// bondValence2 is twice the summed bond order around atom i.
func (s *state) bondValence2(i int) int {
	sum := 0
	for _, k := range s.incident[i] {
		sum += s.bonds[k].Type.ValenceContribution()
	}
	return sum
}

// explicitValence rounds a doubled bond-order sum to an integer valence.
// Aromatic atoms whose sum overshoots an allowed valence by at most 1.5 are
// pulled back to it, which keeps fused and substituted aromatic carbons
// tetravalent.
func explicitValence(e *element, charge int, aromatic bool, accum2 int) int {
	if aromatic {
		if allowed := allowedValences(e, charge); allowed != nil && accum2 > 2*allowed[0] {
			pval := allowed[0]
			for _, v := range allowed {
				if 2*v > accum2 {
					break
				}
				pval = v
			}
			if accum2-2*pval <= 3 {
				accum2 = 2 * pval
			}
		}
	}
	return (accum2 + 1) / 2
}

// implicitHydrogens returns the hydrogens an organic-subset atom receives to
// reach its lowest allowed valence.  ok is false when the explicit valence is
// above every allowed valence.
func implicitHydrogens(e *element, aromatic bool, valence int) (n int, ok bool) {
	allowed := allowedValences(e, 0)
	if allowed == nil {
		return 0, true
	}
	if aromatic {
		if valence <= allowed[0] {
			return allowed[0] - valence, true
		}
		return 0, valence <= allowed[len(allowed)-1]
	}
	for _, v := range allowed {
		if v >= valence {
			return v - valence, true
		}
	}
	return 0, false
}

func (s *state) assignHydrogens() error {
	for i, pa := range s.atoms {
		if pa.bracket {
			continue
		}
		ev := explicitValence(pa.elem, 0, pa.atom.IsAromatic, s.bondValence2(i))
		h, ok := implicitHydrogens(pa.elem, pa.atom.IsAromatic, ev)
		if !ok {
			return s.valenceError(i, ev)
		}
		pa.atom.NumImplicitHs = h
	}
	return nil
}

func (s *state) valenceError(i, valence int) error {
	a := s.atoms[i].atom
	return errors.Newf(errors.ErrCodeSanitizationFailure, "explicit valence %d is greater than permitted for %s", valence, a.Symbol).
		WithDetailf("atom=%d charge=%d", i, a.FormalCharge)
}

// finalizeValences runs after aromaticity so aromatic bonds count 1.5.
// Hydrogen counts are kept from the written bonds.
func (s *state) finalizeValences() error {
	for i, pa := range s.atoms {
		a := &pa.atom
		ev := explicitValence(pa.elem, a.FormalCharge, a.IsAromatic, s.bondValence2(i)+2*pa.hCount)
		allowed := allowedValences(pa.elem, a.FormalCharge)
		// A pyrrole-type nitrogen keeps its hydrogen only as an explicit one.
		if a.IsAromatic && a.NumImplicitHs > 0 && allowed != nil && ev+a.NumImplicitHs > allowed[len(allowed)-1] {
			pa.hCount += a.NumImplicitHs
			a.NumImplicitHs = 0
			ev = explicitValence(pa.elem, a.FormalCharge, true, s.bondValence2(i)+2*pa.hCount)
		}
		if allowed != nil {
			if ev+a.NumImplicitHs > allowed[len(allowed)-1] {
				return s.valenceError(i, ev+a.NumImplicitHs)
			}
		}
		a.NumExplicitHs = pa.hCount
		a.ExplicitValence = ev
		a.ImplicitValence = a.NumImplicitHs
		a.Degree = len(s.incident[i])
		a.TotalDegree = a.Degree + a.TotalNumHs()
		a.Mass = atomMass(pa.elem, a.Isotope)
		if pa.bracket {
			a.NumRadicalElectrons = radicalElectrons(pa.elem, a.FormalCharge, a.TotalValence())
		}
	}
	return nil
}

// radicalElectrons is the shortfall to the next allowed valence, capped by
// the non-bonding electrons actually present.
func radicalElectrons(e *element, charge, valence int) int {
	allowed := allowedValences(e, charge)
	if allowed == nil {
		return 0
	}
	short := 0
	for _, v := range allowed {
		if v >= valence {
			short = v - valence
			break
		}
	}
	if free := e.Outer - charge - valence; short > free {
		short = free
	}
	if short < 0 {
		return 0
	}
	return short
}

// lonePairs counts non-bonding electron pairs.
func lonePairs(e *element, a molecule.Atom) int {
	n := (e.Outer - a.FormalCharge - a.TotalValence() - a.NumRadicalElectrons) / 2
	if n < 0 {
		return 0
	}
	return n
}

// ─────────────────────────────────────────────────────────────────────────────
// Rings
// ─────────────────────────────────────────────────────────────────────────────

// perceiveRings marks a bond as cyclic when its endpoints stay connected
// without it.
func (s *state) perceiveRings() error {
	g := graph.New(graph.IntHash)
	for i := range s.atoms {
		if err := g.AddVertex(i); err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "ring perception")
		}
	}
	for _, b := range s.bonds {
		if err := g.AddEdge(b.Begin, b.End); err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "ring perception")
		}
	}
	for k := range s.bonds {
		b := &s.bonds[k]
		if err := g.RemoveEdge(b.Begin, b.End); err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "ring perception")
		}
		cyclic, err := graph.CreatesCycle(g, b.Begin, b.End)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "ring perception")
		}
		if err := g.AddEdge(b.Begin, b.End); err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "ring perception")
		}
		b.IsInRing = cyclic
		if cyclic {
			s.atoms[b.Begin].atom.IsInRing = true
			s.atoms[b.End].atom.IsInRing = true
		}
	}
	return nil
}

// cycles enumerates simple cycles of ring bonds up to maxLen atoms.  Each
// cycle is reported once, starting from its lowest atom.
func (s *state) cycles(maxLen int) [][]int {
	var out [][]int
	onPath := make([]bool, len(s.atoms))
	var path []int

	var walk func(start, cur int)
	walk = func(start, cur int) {
		for _, k := range s.incident[cur] {
			b := s.bonds[k]
			if !b.IsInRing {
				continue
			}
			next := b.Other(cur)
			if next == start && len(path) >= 3 {
				if path[1] < path[len(path)-1] {
					out = append(out, append([]int(nil), path...))
				}
				continue
			}
			if next <= start || onPath[next] || len(path) >= maxLen {
				continue
			}
			onPath[next] = true
			path = append(path, next)
			walk(start, next)
			path = path[:len(path)-1]
			onPath[next] = false
		}
	}

	for start, pa := range s.atoms {
		if !pa.atom.IsInRing {
			continue
		}
		path = append(path[:0], start)
		onPath[start] = true
		walk(start, start)
		onPath[start] = false
	}
	return out
}

func (s *state) bondBetween(i, j int) int {
	for _, k := range s.incident[i] {
		if s.bonds[k].Other(i) == j {
			return k
		}
	}
	return -1
}

// ─────────────────────────────────────────────────────────────────────────────
// Aromaticity
// ─────────────────────────────────────────────────────────────────────────────

// perceiveAromaticity converts Kekulé rings satisfying the 4n+2 rule into
// aromatic atoms and bonds.  Every cycle is judged on the bonds as written
// before any is converted.
func (s *state) perceiveAromaticity() {
	var aromatic [][]int
	for _, c := range s.cycles(maxAromaticRing) {
		if s.isHuckel(c) {
			aromatic = append(aromatic, c)
		}
	}
	for _, c := range aromatic {
		for n, i := range c {
			j := c[(n+1)%len(c)]
			k := s.bondBetween(i, j)
			s.bonds[k].Type = chem.BondAromatic
			s.bonds[k].IsAromatic = true
			s.atoms[i].atom.IsAromatic = true
		}
	}
}

// checkKekulizable rejects written aromatic systems that admit no Kekulé
// structure: every aromatic atom still short of one bond order must pair
// with exactly one such neighbour across an aromatic bond.
func (s *state) checkKekulizable() error {
	needs := make([]bool, len(s.atoms))
	for i := range s.atoms {
		needs[i] = s.needsPiBond(i)
	}
	partner := make([]int, len(s.atoms))
	for i := range partner {
		partner[i] = -1
	}
	if s.matchPiBonds(needs, partner) {
		return nil
	}
	var stuck []int
	for i, n := range needs {
		if n && partner[i] < 0 {
			stuck = append(stuck, i)
		}
	}
	return errors.New(errors.ErrCodeSanitizationFailure, "cannot kekulize aromatic atoms").
		WithDetailf("atoms=%v", stuck)
}

// needsPiBond reports a written aromatic atom whose bonds and hydrogens,
// counting aromatic bonds as single, leave it exactly one short of its
// lowest reachable valence.
func (s *state) needsPiBond(i int) bool {
	pa := s.atoms[i]
	if !pa.atom.IsAromatic {
		return false
	}
	order := pa.atom.NumImplicitHs + pa.hCount
	for _, k := range s.incident[i] {
		switch t := s.bonds[k].Type; t {
		case chem.BondAromatic:
			order++
		default:
			order += t.ValenceContribution() / 2
		}
	}
	for _, v := range allowedValences(pa.elem, pa.atom.FormalCharge) {
		if v >= order {
			return v-order == 1
		}
	}
	return false
}

// matchPiBonds pairs needy atoms across aromatic bonds, most constrained
// atom first, backtracking on dead ends.  partner holds the result.
func (s *state) matchPiBonds(needs []bool, partner []int) bool {
	free := func(i int) []int {
		var out []int
		for _, k := range s.incident[i] {
			b := s.bonds[k]
			if j := b.Other(i); b.Type == chem.BondAromatic && needs[j] && partner[j] < 0 {
				out = append(out, j)
			}
		}
		return out
	}

	pick, options := -1, []int(nil)
	for i, n := range needs {
		if !n || partner[i] >= 0 {
			continue
		}
		opts := free(i)
		if len(opts) == 0 {
			return false
		}
		if pick < 0 || len(opts) < len(options) {
			pick, options = i, opts
		}
	}
	if pick < 0 {
		return true
	}
	for _, j := range options {
		partner[pick], partner[j] = j, pick
		if s.matchPiBonds(needs, partner) {
			return true
		}
		partner[pick], partner[j] = -1, -1
	}
	return false
}

func (s *state) isHuckel(cycle []int) bool {
	inCycle := make(map[int]bool, len(cycle))
	written := true
	for _, i := range cycle {
		inCycle[i] = true
		written = written && s.atoms[i].atom.IsAromatic
	}
	if written {
		return false
	}
	total := 0
	for _, i := range cycle {
		n, ok := s.piElectrons(i, inCycle)
		if !ok {
			return false
		}
		total += n
	}
	return total%4 == 2
}

// piElectrons is the contribution of atom i to the pi system of a ring.
func (s *state) piElectrons(i int, inCycle map[int]bool) (int, bool) {
	pa := s.atoms[i]
	a := pa.atom
	if a.IsAromatic {
		return 0, false
	}
	switch a.AtomicNumber {
	case 5, 6, 7, 8, 15, 16, 34:
	default:
		return 0, false
	}

	hs := a.NumImplicitHs + pa.hCount
	double := -1
	for _, k := range s.incident[i] {
		switch s.bonds[k].Type {
		case chem.BondTriple:
			return 0, false
		case chem.BondDouble:
			if double >= 0 {
				return 0, false
			}
			double = k
		}
	}

	if double >= 0 {
		b := s.bonds[double]
		other := b.Other(i)
		if inCycle[other] || b.IsInRing {
			return 1, true
		}
		// Exocyclic carbonyl-like double bonds leave the ring carbon empty.
		switch s.atoms[other].atom.AtomicNumber {
		case 7, 8, 16:
			if a.AtomicNumber == 6 {
				return 0, true
			}
		}
		return 0, false
	}

	connections := len(s.incident[i]) + hs
	switch a.AtomicNumber {
	case 6:
		if connections != 3 {
			return 0, false
		}
		switch a.FormalCharge {
		case -1:
			return 2, true
		case 1:
			return 0, true
		}
		return 0, false
	case 5:
		if connections == 3 && a.FormalCharge == 0 {
			return 0, true
		}
	case 7, 15:
		if connections == 3 && a.FormalCharge == 0 {
			return 2, true
		}
	case 8, 16, 34:
		if connections == 2 && a.FormalCharge == 0 {
			return 2, true
		}
	}
	return 0, false
}

// ─────────────────────────────────────────────────────────────────────────────
// Conjugation and hybridization
// ─────────────────────────────────────────────────────────────────────────────

func (s *state) unsaturated(i int) bool {
	for _, k := range s.incident[i] {
		switch s.bonds[k].Type {
		case chem.BondDouble, chem.BondTriple, chem.BondAromatic:
			return true
		}
	}
	return false
}

// donor reports a saturated heteroatom whose lone pair can join an adjacent
// pi system.
func (s *state) donor(i int) bool {
	pa := s.atoms[i]
	switch pa.atom.AtomicNumber {
	case 7, 8, 9, 16, 17, 35, 53:
	default:
		return false
	}
	return !s.unsaturated(i) && pa.atom.TotalDegree <= 3 && lonePairs(pa.elem, pa.atom) > 0
}

// perceiveConjugation marks aromatic bonds, single bonds joining two pi
// centres (or a pi centre and a lone-pair donor), and multiple bonds
// adjacent to either.
func (s *state) perceiveConjugation() {
	multiple := func(b molecule.Bond) bool {
		return b.Type == chem.BondDouble || b.Type == chem.BondTriple || b.Type == chem.BondAromatic
	}
	for k := range s.bonds {
		b := &s.bonds[k]
		switch {
		case b.IsAromatic:
			b.IsConjugated = true
		case b.Type == chem.BondSingle:
			u, v := b.Begin, b.End
			uu, vu := s.unsaturated(u), s.unsaturated(v)
			b.IsConjugated = (uu && vu) || (uu && s.donor(v)) || (vu && s.donor(u))
		}
	}
	for k := range s.bonds {
		b := &s.bonds[k]
		if b.IsAromatic || !multiple(*b) {
			continue
		}
		for _, end := range []int{b.Begin, b.End} {
			for _, j := range s.incident[end] {
				if j == k {
					continue
				}
				if o := s.bonds[j]; o.IsConjugated || multiple(o) {
					b.IsConjugated = true
				}
			}
		}
	}
}

func (s *state) hybridization(i int) chem.Hybridization {
	pa := s.atoms[i]
	a := pa.atom
	switch {
	case a.AtomicNumber == 0 || pa.elem.Valences == nil:
		return chem.HybridUnspecified
	case a.AtomicNumber == 1:
		return chem.HybridS
	case a.IsAromatic:
		return chem.HybridSP2
	}

	doubles, triples, conjugated := 0, 0, false
	for _, k := range s.incident[i] {
		b := s.bonds[k]
		switch b.Type {
		case chem.BondDouble:
			doubles++
		case chem.BondTriple:
			triples++
		}
		conjugated = conjugated || b.IsConjugated
	}
	switch {
	case triples > 0 || doubles > 1:
		return chem.HybridSP
	case doubles == 1:
		return chem.HybridSP2
	case conjugated && (a.AtomicNumber == 7 || a.AtomicNumber == 8 || a.AtomicNumber == 16):
		return chem.HybridSP2
	}

	switch a.TotalDegree + lonePairs(pa.elem, a) {
	case 0, 1:
		return chem.HybridS
	case 2:
		return chem.HybridSP
	case 3:
		return chem.HybridSP2
	case 4:
		return chem.HybridSP3
	case 5:
		return chem.HybridSP3D
	case 6:
		return chem.HybridSP3D2
	}
	return chem.HybridUnspecified
}

// ─────────────────────────────────────────────────────────────────────────────
// Stereo
// ─────────────────────────────────────────────────────────────────────────────

// perceiveDoubleBondStereo assigns E/Z to double bonds flanked on both ends
// by a directional single bond.  The configuration is relative to those two
// flagged neighbours.
func (s *state) perceiveDoubleBondStereo() {
	for k := range s.bonds {
		b := &s.bonds[k]
		if b.Type != chem.BondDouble || b.IsAromatic {
			continue
		}
		d1, ok1 := s.sideDirection(b.Begin, k, true)
		d2, ok2 := s.sideDirection(b.End, k, false)
		if !ok1 || !ok2 {
			continue
		}
		if d1 == d2 {
			b.Stereo = chem.StereoE
		} else {
			b.Stereo = chem.StereoZ
		}
	}
}

// sideDirection returns the direction of the first flagged bond at atom,
// normalised so that it reads as if atom were that bond's End (wantEnd) or
// Begin.
func (s *state) sideDirection(atom, exclude int, wantEnd bool) (chem.BondDir, bool) {
	for _, k := range s.incident[atom] {
		if k == exclude {
			continue
		}
		b := s.bonds[k]
		if b.Dir == chem.DirNone {
			continue
		}
		d := b.Dir
		if (b.End == atom) != wantEnd {
			d = flipDir(d)
		}
		return d, true
	}
	return chem.DirNone, false
}

// normalizeChirality rewrites each tetrahedral tag from written neighbour
// order to the reference order used throughout the package.
func (s *state) normalizeChirality() {
	for i, pa := range s.atoms {
		if pa.atom.ChiralTag == chem.ChiralUnspecified {
			continue
		}
		hasH := hasHydrogenSlot(pa.atom)
		written := make([]int, 0, 4)
		for n, nb := range pa.order {
			if hasH && n == 0 && !pa.hasPrev {
				written = append(written, hydrogenSlot)
			}
			written = append(written, nb)
			if hasH && n == 0 && pa.hasPrev {
				written = append(written, hydrogenSlot)
			}
		}
		if hasH && len(pa.order) == 0 {
			written = append(written, hydrogenSlot)
		}

		ref := s.referenceOrder(i, hasH)
		if len(written) != 4 || len(ref) != 4 {
			pa.atom.ChiralTag = chem.ChiralUnspecified
			continue
		}
		if oddPermutation(written, ref) {
			pa.atom.ChiralTag = invertChirality(pa.atom.ChiralTag)
		}
	}
}

func (s *state) referenceOrder(i int, hasH bool) []int {
	ref := make([]int, 0, 4)
	if hasH {
		ref = append(ref, hydrogenSlot)
	}
	for _, k := range s.incident[i] {
		ref = append(ref, s.bonds[k].Other(i))
	}
	return ref
}

// hasHydrogenSlot reports whether a stereocentre has an implicit fourth
// neighbour: one hydrogen, or a lone pair on a three-connected atom.
func hasHydrogenSlot(a molecule.Atom) bool {
	h := a.TotalNumHs()
	return h == 1 || (h == 0 && a.Degree == 3)
}

// oddPermutation reports whether reordering from into to takes an odd number
// of swaps.  Both must hold the same distinct elements.
func oddPermutation(from, to []int) bool {
	pos := make(map[int]int, len(to))
	for i, v := range to {
		pos[v] = i
	}
	perm := make([]int, len(from))
	for i, v := range from {
		perm[i] = pos[v]
	}
	inversions := 0
	for i := range perm {
		for j := i + 1; j < len(perm); j++ {
			if perm[i] > perm[j] {
				inversions++
			}
		}
	}
	return inversions%2 == 1
}

func invertChirality(c chem.ChiralTag) chem.ChiralTag {
	switch c {
	case chem.ChiralCW:
		return chem.ChiralCCW
	case chem.ChiralCCW:
		return chem.ChiralCW
	default:
		return c
	}
}

//Personal.AI order the ending
