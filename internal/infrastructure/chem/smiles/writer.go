package smiles

import (
	"sort"
	"strconv"
	"strings"

	"github.com/turtacn/SynthonScope/internal/domain/molecule"
	"github.com/turtacn/SynthonScope/pkg/types/chem"
)

// WriteOptions controls SMILES generation.
type WriteOptions struct {
	// Canonical ranks atoms by graph invariants so that equal graphs produce
	// equal strings regardless of input atom order.
	Canonical bool `json:"canonical" yaml:"canonical"`

	// IncludeMapNumbers writes atom-map numbers as ":n" atom classes.
	IncludeMapNumbers bool `json:"include_map_numbers" yaml:"include_map_numbers"`
}

// CanonicalSMILES is WriteMolecule with both options set.
func CanonicalSMILES(m *molecule.MappedMolecule) string {
	return WriteMolecule(m, WriteOptions{Canonical: true, IncludeMapNumbers: true})
}

// WriteMolecule renders m as SMILES.  Without Canonical the traversal follows
// atom index order, which reproduces the input layout for parsed molecules.
func WriteMolecule(m *molecule.MappedMolecule, opts WriteOptions) string {
	if m == nil || m.NumAtoms() == 0 {
		return ""
	}
	w := &writer{
		m:       m,
		opts:    opts,
		visited: make([]bool, m.NumAtoms()),
		used:    make([]bool, m.NumBonds()),
		closure: make([][]int, m.NumAtoms()),
		child:   make([][]int, m.NumAtoms()),
		digit:   make(map[int]int),
	}
	if opts.Canonical {
		w.rank = canonicalRanks(m, opts.IncludeMapNumbers)
		w.dirs = w.stereoDirs()
	} else {
		w.rank = make([]int, m.NumAtoms())
		for i := range w.rank {
			w.rank[i] = i
		}
	}

	roots := w.roots()
	for _, r := range roots {
		w.plan(r, -1)
	}
	for n, r := range roots {
		if n > 0 {
			w.sb.WriteByte('.')
		}
		w.emit(r, -1)
	}
	return w.sb.String()
}

type writer struct {
	m    *molecule.MappedMolecule
	opts WriteOptions
	rank []int
	dirs map[int]chem.BondDir // canonical '/' '\' marks; nil keeps the input marks

	visited []bool
	used    []bool  // bond classified during planning
	closure [][]int // atom -> ring-closure bonds in discovery order
	child   [][]int // atom -> tree bonds to children, ordered by rank

	digit map[int]int // open ring-closure bond -> digit
	sb    strings.Builder
}

// roots returns one start atom per connected component, lowest rank first.
func (w *writer) roots() []int {
	n := w.m.NumAtoms()
	comp := make([]int, n)
	for i := range comp {
		comp[i] = -1
	}
	var roots []int
	order := w.byRank(allAtoms(n))
	for _, start := range order {
		if comp[start] >= 0 {
			continue
		}
		roots = append(roots, start)
		stack := []int{start}
		comp[start] = start
		for len(stack) > 0 {
			a := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, nb := range w.m.Neighbors(a) {
				if comp[nb] < 0 {
					comp[nb] = start
					stack = append(stack, nb)
				}
			}
		}
	}
	return roots
}

func allAtoms(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func (w *writer) byRank(atoms []int) []int {
	sort.SliceStable(atoms, func(a, b int) bool { return w.rank[atoms[a]] < w.rank[atoms[b]] })
	return atoms
}

// plan walks the component depth-first, splitting bonds into tree edges and
// ring closures.
func (w *writer) plan(a, via int) {
	w.visited[a] = true
	type step struct{ bond, atom int }
	var steps []step
	for _, k := range w.m.IncidentBonds(a) {
		if k == via {
			continue
		}
		steps = append(steps, step{k, w.m.Bond(k).Other(a)})
	}
	sort.SliceStable(steps, func(i, j int) bool { return w.rank[steps[i].atom] < w.rank[steps[j].atom] })

	for _, st := range steps {
		if w.used[st.bond] {
			continue
		}
		w.used[st.bond] = true
		if w.visited[st.atom] {
			w.closure[a] = append(w.closure[a], st.bond)
			w.closure[st.atom] = append(w.closure[st.atom], st.bond)
			continue
		}
		w.child[a] = append(w.child[a], st.bond)
		w.plan(st.atom, st.bond)
	}
}

func (w *writer) emit(a, from int) {
	// Closing digits first, then new openings.
	var closing, opening []int
	for _, k := range w.closure[a] {
		if _, open := w.digit[k]; open {
			closing = append(closing, k)
		} else {
			opening = append(opening, k)
		}
	}
	sort.SliceStable(closing, func(i, j int) bool { return w.digit[closing[i]] < w.digit[closing[j]] })

	// Neighbour order as it will appear in the output, for stereo parity.
	atom := w.m.Atom(a)
	hasH := hasHydrogenSlot(atom)
	order := make([]int, 0, 4)
	if from >= 0 {
		order = append(order, from)
	}
	if hasH {
		order = append(order, hydrogenSlot)
	}
	for _, k := range closing {
		order = append(order, w.m.Bond(k).Other(a))
	}
	for _, k := range opening {
		order = append(order, w.m.Bond(k).Other(a))
	}
	for _, k := range w.child[a] {
		order = append(order, w.m.Bond(k).Other(a))
	}

	chiral := atom.ChiralTag
	if chiral != chem.ChiralUnspecified {
		ref := referenceOrder(w.m, a, hasH)
		if len(order) == len(ref) && oddPermutation(order, ref) {
			chiral = invertChirality(chiral)
		}
	}
	w.sb.WriteString(w.atomToken(a, chiral))

	for _, k := range closing {
		w.sb.WriteString(w.digitToken(w.digit[k]))
	}
	for _, k := range opening {
		d := w.nextDigit()
		w.digit[k] = d
		w.sb.WriteString(w.bondToken(k, a))
		w.sb.WriteString(w.digitToken(d))
	}
	// Released only now so a digit is never closed and reopened on one atom.
	for _, k := range closing {
		delete(w.digit, k)
	}

	for n, k := range w.child[a] {
		nb := w.m.Bond(k).Other(a)
		last := n == len(w.child[a])-1
		if !last {
			w.sb.WriteByte('(')
		}
		w.sb.WriteString(w.bondToken(k, a))
		w.emit(nb, a)
		if !last {
			w.sb.WriteByte(')')
		}
	}
}

// nextDigit returns the lowest ring-closure digit not currently open.
func (w *writer) nextDigit() int {
	open := make(map[int]bool, len(w.digit))
	for _, d := range w.digit {
		open[d] = true
	}
	d := 1
	for open[d] {
		d++
	}
	return d
}

func (w *writer) digitToken(d int) string {
	if d < 10 {
		return strconv.Itoa(d)
	}
	return "%" + strconv.Itoa(d)
}

// bondToken renders bond k as written from atom `from` to its other end.
func (w *writer) bondToken(k, from int) string {
	b := w.m.Bond(k)
	both := w.m.Atom(b.Begin).IsAromatic && w.m.Atom(b.End).IsAromatic
	dir := b.Dir
	if w.dirs != nil {
		dir = w.dirs[k]
	}
	switch {
	case b.IsAromatic || b.Type == chem.BondAromatic:
		if both {
			return ""
		}
		return ":"
	case b.Type == chem.BondDouble:
		return "="
	case b.Type == chem.BondTriple:
		return "#"
	case dir != chem.DirNone:
		if dirFrom(b, from, dir) == chem.DirEndUpRight {
			return "/"
		}
		return "\\"
	case both:
		return "-"
	}
	return ""
}

func (w *writer) atomToken(a int, chiral chem.ChiralTag) string {
	atom := w.m.Atom(a)
	sym := atom.Symbol
	if atom.IsAromatic {
		sym = strings.ToLower(sym)
	}
	withMap := w.opts.IncludeMapNumbers && atom.MapNumber > 0
	if !withMap && chiral == chem.ChiralUnspecified && w.bare(a) {
		return sym
	}

	var sb strings.Builder
	sb.WriteByte('[')
	if atom.Isotope > 0 {
		sb.WriteString(strconv.Itoa(atom.Isotope))
	}
	sb.WriteString(sym)
	switch chiral {
	case chem.ChiralCCW:
		sb.WriteString("@")
	case chem.ChiralCW:
		sb.WriteString("@@")
	}
	if h := atom.TotalNumHs(); h > 0 {
		sb.WriteByte('H')
		if h > 1 {
			sb.WriteString(strconv.Itoa(h))
		}
	}
	switch q := atom.FormalCharge; {
	case q == 1:
		sb.WriteByte('+')
	case q == -1:
		sb.WriteByte('-')
	case q > 1:
		sb.WriteString("+" + strconv.Itoa(q))
	case q < -1:
		sb.WriteString("-" + strconv.Itoa(-q))
	}
	if withMap {
		sb.WriteByte(':')
		sb.WriteString(strconv.Itoa(atom.MapNumber))
	}
	sb.WriteByte(']')
	return sb.String()
}

// bare reports whether atom a reads back identically without brackets.
func (w *writer) bare(a int) bool {
	atom := w.m.Atom(a)
	if atom.Isotope != 0 || atom.FormalCharge != 0 || atom.NumRadicalElectrons != 0 {
		return false
	}
	e, ok := lookupSymbol(atom.Symbol)
	if !ok {
		return false
	}
	if atom.IsAromatic {
		if !aromaticOrganic[strings.ToLower(atom.Symbol)] {
			return false
		}
	} else if !organicSubset[atom.Symbol] {
		return false
	}
	accum2 := 0
	for _, k := range w.m.IncidentBonds(a) {
		accum2 += w.m.Bond(k).Type.ValenceContribution()
	}
	ev := explicitValence(e, 0, atom.IsAromatic, accum2)
	h, ok := implicitHydrogens(e, atom.IsAromatic, ev)
	return ok && h == atom.TotalNumHs()
}

// ─────────────────────────────────────────────────────────────────────────────
// Double-bond marks
// ─────────────────────────────────────────────────────────────────────────────

// stereoDirs places the directional marks for every E/Z double bond on the
// lowest-ranked neighbour at each end, so the marks depend on the ranking
// and not on which neighbours the input happened to flag.  Bonds shared by
// conjugated double bonds keep the first mark given to them.
func (w *writer) stereoDirs() map[int]chem.BondDir {
	dirs := make(map[int]chem.BondDir)
	var doubles []int
	for k := 0; k < w.m.NumBonds(); k++ {
		if b := w.m.Bond(k); b.Type == chem.BondDouble && b.Stereo != chem.StereoNone {
			doubles = append(doubles, k)
		}
	}
	sort.SliceStable(doubles, func(i, j int) bool { return w.bondRank(doubles[i]) < w.bondRank(doubles[j]) })

	for _, k := range doubles {
		b := w.m.Bond(k)
		refA, okA := flaggedNeighbor(w.m, b.Begin, k)
		refB, okB := flaggedNeighbor(w.m, b.End, k)
		markA, markB := w.markedBond(b.Begin, k, dirs), w.markedBond(b.End, k, dirs)
		if !okA || !okB || markA < 0 || markB < 0 {
			continue
		}
		ba, bb := w.m.Bond(markA), w.m.Bond(markB)
		na, nb := ba.Other(b.Begin), bb.Other(b.End)

		// Stereo is stored against the flagged neighbours; swapping to the
		// other substituent of a trigonal end inverts it.
		trans := b.Stereo == chem.StereoE
		if na != refA {
			trans = !trans
		}
		if nb != refB {
			trans = !trans
		}

		// Read na->Begin and End->nb, equal marks mean trans.
		da, haveA := dirs[markA]
		db, haveB := dirs[markB]
		switch {
		case haveA && haveB:
			continue
		case haveA:
			d := dirFrom(ba, na, da)
			if !trans {
				d = flipDir(d)
			}
			dirs[markB] = dirFrom(bb, b.End, d)
		case haveB:
			d := dirFrom(bb, b.End, db)
			if !trans {
				d = flipDir(d)
			}
			dirs[markA] = dirFrom(ba, na, d)
		default:
			d := chem.DirEndUpRight
			dirs[markA] = dirFrom(ba, na, d)
			if !trans {
				d = flipDir(d)
			}
			dirs[markB] = dirFrom(bb, b.End, d)
		}
	}
	return dirs
}

// markedBond picks the single bond at atom (other than the double bond
// exclude) that carries the mark: one already marked, else the one to the
// lowest-ranked neighbour.  It returns -1 when there is none.
func (w *writer) markedBond(atom, exclude int, dirs map[int]chem.BondDir) int {
	best := -1
	for _, k := range w.m.IncidentBonds(atom) {
		b := w.m.Bond(k)
		if k == exclude || b.Type != chem.BondSingle || b.IsAromatic {
			continue
		}
		if _, ok := dirs[k]; ok {
			return k
		}
		if best < 0 || w.rank[b.Other(atom)] < w.rank[w.m.Bond(best).Other(atom)] {
			best = k
		}
	}
	return best
}

func (w *writer) bondRank(k int) int {
	b := w.m.Bond(k)
	lo, hi := w.rank[b.Begin], w.rank[b.End]
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo*w.m.NumAtoms() + hi
}

// flaggedNeighbor is the neighbour across the first directional bond at
// atom, the reference a parsed E/Z configuration is stored against.
func flaggedNeighbor(m *molecule.MappedMolecule, atom, exclude int) (int, bool) {
	for _, k := range m.IncidentBonds(atom) {
		if b := m.Bond(k); k != exclude && b.Dir != chem.DirNone {
			return b.Other(atom), true
		}
	}
	return -1, false
}

// dirFrom converts between a mark stored on b (read Begin to End) and the
// same mark read starting at from.  The conversion is its own inverse.
func dirFrom(b molecule.Bond, from int, d chem.BondDir) chem.BondDir {
	if b.Begin != from {
		return flipDir(d)
	}
	return d
}

func referenceOrder(m *molecule.MappedMolecule, i int, hasH bool) []int {
	ref := make([]int, 0, 4)
	if hasH {
		ref = append(ref, hydrogenSlot)
	}
	return append(ref, m.Neighbors(i)...)
}

// ─────────────────────────────────────────────────────────────────────────────
// Canonical ranking
// ─────────────────────────────────────────────────────────────────────────────

// canonicalRanks assigns every atom a distinct rank.  Initial classes come
// from atom invariants and are refined by neighbour classes until stable;
// remaining ties are broken one atom at a time, refining after each break.
func canonicalRanks(m *molecule.MappedMolecule, withMaps bool) []int {
	n := m.NumAtoms()
	keys := make([][]int, n)
	for i := 0; i < n; i++ {
		a := m.Atom(i)
		mapNum := 0
		if withMaps {
			mapNum = a.MapNumber
		}
		keys[i] = []int{
			a.AtomicNumber, a.Isotope, a.FormalCharge, a.Degree, a.TotalNumHs(),
			boolInt(a.IsAromatic), boolInt(a.IsInRing), a.NumRadicalElectrons, mapNum,
		}
	}
	ranks := denseRank(keys)
	ranks = refine(m, ranks)

	for classes(ranks) < n {
		tied := lowestTiedRank(ranks)
		pick := -1
		for i, r := range ranks {
			if r == tied {
				pick = i
				break
			}
		}
		broken := make([][]int, n)
		for i, r := range ranks {
			bump := 1
			if i == pick {
				bump = 0
			}
			broken[i] = []int{2*r + bump}
		}
		ranks = refine(m, denseRank(broken))
	}
	return ranks
}

func refine(m *molecule.MappedMolecule, ranks []int) []int {
	n := len(ranks)
	for {
		keys := make([][]int, n)
		for i := 0; i < n; i++ {
			nbs := make([]int, 0, 4)
			for _, k := range m.IncidentBonds(i) {
				b := m.Bond(k)
				nbs = append(nbs, ranks[b.Other(i)]*8+int(b.Type))
			}
			sort.Ints(nbs)
			keys[i] = append([]int{ranks[i]}, nbs...)
		}
		next := denseRank(keys)
		if classes(next) == classes(ranks) {
			return next
		}
		ranks = next
	}
}

func denseRank(keys [][]int) []int {
	idx := allAtoms(len(keys))
	sort.SliceStable(idx, func(a, b int) bool { return compareInts(keys[idx[a]], keys[idx[b]]) < 0 })
	ranks := make([]int, len(keys))
	r := 0
	for pos, i := range idx {
		if pos > 0 && compareInts(keys[idx[pos-1]], keys[i]) != 0 {
			r++
		}
		ranks[i] = r
	}
	return ranks
}

func compareInts(a, b []int) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	return len(a) - len(b)
}

func classes(ranks []int) int {
	seen := make(map[int]struct{}, len(ranks))
	for _, r := range ranks {
		seen[r] = struct{}{}
	}
	return len(seen)
}

func lowestTiedRank(ranks []int) int {
	count := make(map[int]int, len(ranks))
	for _, r := range ranks {
		count[r]++
	}
	best := -1
	for r, c := range count {
		if c > 1 && (best < 0 || r < best) {
			best = r
		}
	}
	return best
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

//Personal.AI order the ending
