package smiles

import (
	"strconv"
	"strings"

	"github.com/turtacn/SynthonScope/internal/domain/molecule"
	"github.com/turtacn/SynthonScope/pkg/errors"
	"github.com/turtacn/SynthonScope/pkg/types/chem"
)

// hydrogenSlot stands for a bracket hydrogen or a lone pair in a neighbour
// ordering used for tetrahedral parity.
const hydrogenSlot = -1

// ringSlotPending marks a ring-bond position whose partner is not yet known.
const ringSlotPending = -2

// Upper bounds for the numeric fields of a bracket atom.
const (
	maxIsotope   = 999
	maxHCount    = 9
	maxCharge    = 15
	maxMapNumber = 1<<31 - 1
)

// parsedAtom carries the reader-side state an Atom needs until perception
// has finished.
type parsedAtom struct {
	atom    molecule.Atom
	elem    *element
	bracket bool
	hCount  int
	hasPrev bool  // atom was bonded to a preceding atom in the string
	order   []int // neighbours in written order, ring bonds at their digit
}

type pendingBond struct {
	set bool
	typ chem.BondType
	dir chem.BondDir
}

type ringOpening struct {
	atom int
	bond pendingBond
	slot int
}

type parser struct {
	src   string
	pos   int
	atoms []*parsedAtom
	bonds []molecule.Bond
	seen  map[[2]int]struct{}
}

// ParseMolecule reads one SMILES string into a MappedMolecule with all
// properties perceived.  Disconnected fragments separated by '.' stay in the
// same molecule.  Text after the first whitespace is ignored.
func ParseMolecule(smiles string) (*molecule.MappedMolecule, error) {
	src := firstField(smiles)
	if src == "" {
		return nil, errors.New(errors.ErrCodeEmptyInput, "empty SMILES")
	}
	p := &parser{src: src, seen: make(map[[2]int]struct{})}
	if err := p.parse(); err != nil {
		return nil, err
	}
	s := newState(p.atoms, p.bonds)
	if err := s.perceive(); err != nil {
		return nil, err
	}
	s.normalizeChirality()

	atoms := make([]molecule.Atom, len(p.atoms))
	for i, pa := range p.atoms {
		atoms[i] = pa.atom
	}
	return molecule.NewMappedMolecule(atoms, s.bonds)
}

// MustParseMolecule panics on invalid input.  Intended for fixtures.
func MustParseMolecule(smiles string) *molecule.MappedMolecule {
	m, err := ParseMolecule(smiles)
	if err != nil {
		panic("smiles: " + err.Error())
	}
	return m
}

func firstField(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, " \t\r\n"); i >= 0 {
		s = s[:i]
	}
	return s
}

func (p *parser) fail(format string, args ...interface{}) error {
	return errors.Newf(errors.ErrCodeParseFailure, format, args...).
		WithDetailf("position=%d smiles=%s", p.pos, p.src)
}

func (p *parser) parse() error {
	prev := -1
	var branches []int
	var bond pendingBond
	rings := make(map[int]ringOpening)

	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == '(':
			if prev < 0 {
				return p.fail("branch opened before any atom")
			}
			if bond.set {
				return p.fail("bond symbol before branch")
			}
			branches = append(branches, prev)
			p.pos++
		case c == ')':
			if len(branches) == 0 {
				return p.fail("unbalanced ')'")
			}
			if bond.set {
				return p.fail("dangling bond at end of branch")
			}
			prev = branches[len(branches)-1]
			branches = branches[:len(branches)-1]
			p.pos++
		case c == '.':
			if bond.set {
				return p.fail("bond symbol before '.'")
			}
			if len(branches) > 0 {
				return p.fail("'.' inside a branch")
			}
			prev = -1
			p.pos++
		case isBondSymbol(c):
			if bond.set {
				return p.fail("consecutive bond symbols")
			}
			bond = bondFromSymbol(c)
			p.pos++
		case isDigit(c) || c == '%':
			if prev < 0 {
				return p.fail("ring bond before any atom")
			}
			num, err := p.ringNumber()
			if err != nil {
				return err
			}
			if err := p.ringBond(prev, num, bond, rings); err != nil {
				return err
			}
			bond = pendingBond{}
		default:
			idx, err := p.atom()
			if err != nil {
				return err
			}
			if prev >= 0 {
				if err := p.chainBond(prev, idx, bond); err != nil {
					return err
				}
			} else if bond.set {
				return p.fail("bond symbol without preceding atom")
			}
			bond = pendingBond{}
			prev = idx
		}
	}

	switch {
	case bond.set:
		return p.fail("dangling bond at end of input")
	case len(branches) > 0:
		return p.fail("unclosed branch")
	case len(rings) > 0:
		open := -1
		for num := range rings {
			if open < 0 || num < open {
				open = num
			}
		}
		return p.fail("unclosed ring bond %d", open)
	case len(p.atoms) == 0:
		return p.fail("no atoms")
	}
	return nil
}

// ── Bonds ───────────────────────────────────────────────────────────────────

func isBondSymbol(c byte) bool {
	switch c {
	case '-', '=', '#', ':', '/', '\\':
		return true
	}
	return false
}

func bondFromSymbol(c byte) pendingBond {
	switch c {
	case '=':
		return pendingBond{set: true, typ: chem.BondDouble}
	case '#':
		return pendingBond{set: true, typ: chem.BondTriple}
	case ':':
		return pendingBond{set: true, typ: chem.BondAromatic}
	case '/':
		return pendingBond{set: true, typ: chem.BondSingle, dir: chem.DirEndUpRight}
	case '\\':
		return pendingBond{set: true, typ: chem.BondSingle, dir: chem.DirEndDownRight}
	default:
		return pendingBond{set: true, typ: chem.BondSingle}
	}
}

func flipDir(d chem.BondDir) chem.BondDir {
	switch d {
	case chem.DirEndUpRight:
		return chem.DirEndDownRight
	case chem.DirEndDownRight:
		return chem.DirEndUpRight
	default:
		return d
	}
}

func (p *parser) chainBond(a, b int, pb pendingBond) error {
	if err := p.addBond(a, b, pb); err != nil {
		return err
	}
	p.atoms[a].order = append(p.atoms[a].order, b)
	p.atoms[b].order = append(p.atoms[b].order, a)
	p.atoms[b].hasPrev = true
	return nil
}

func (p *parser) addBond(a, b int, pb pendingBond) error {
	if a == b {
		return p.fail("atom bonded to itself")
	}
	key := [2]int{a, b}
	if a > b {
		key = [2]int{b, a}
	}
	if _, dup := p.seen[key]; dup {
		return p.fail("duplicate bond between atoms %d and %d", a, b)
	}
	p.seen[key] = struct{}{}

	bond := molecule.Bond{Begin: a, End: b, Type: pb.typ, Dir: pb.dir}
	if !pb.set {
		bond.Type = chem.BondSingle
		if p.atoms[a].atom.IsAromatic && p.atoms[b].atom.IsAromatic {
			bond.Type = chem.BondAromatic
		}
	}
	bond.IsAromatic = bond.Type == chem.BondAromatic
	p.bonds = append(p.bonds, bond)
	return nil
}

func (p *parser) ringNumber() (int, error) {
	c := p.src[p.pos]
	if c != '%' {
		p.pos++
		return int(c - '0'), nil
	}
	if p.pos+2 >= len(p.src) || !isDigit(p.src[p.pos+1]) || !isDigit(p.src[p.pos+2]) {
		return 0, p.fail("'%%' must be followed by two digits")
	}
	num := int(p.src[p.pos+1]-'0')*10 + int(p.src[p.pos+2]-'0')
	p.pos += 3
	return num, nil
}

func (p *parser) ringBond(at, num int, pb pendingBond, rings map[int]ringOpening) error {
	open, ok := rings[num]
	if !ok {
		rings[num] = ringOpening{atom: at, bond: pb, slot: len(p.atoms[at].order)}
		p.atoms[at].order = append(p.atoms[at].order, ringSlotPending)
		return nil
	}
	delete(rings, num)

	bond := open.bond
	if pb.set {
		if open.bond.set && open.bond.typ != pb.typ {
			return p.fail("conflicting bond symbols on ring bond %d", num)
		}
		// Written at the closing atom, so the direction is seen from the
		// other end of the stored bond.
		bond = pendingBond{set: true, typ: pb.typ, dir: flipDir(pb.dir)}
		if open.bond.set && open.bond.dir != chem.DirNone {
			bond.dir = open.bond.dir
		}
	}
	if err := p.addBond(open.atom, at, bond); err != nil {
		return err
	}
	p.atoms[open.atom].order[open.slot] = at
	p.atoms[at].order = append(p.atoms[at].order, open.atom)
	return nil
}

// ── Atoms ───────────────────────────────────────────────────────────────────

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isLower(c byte) bool { return c >= 'a' && c <= 'z' }

func isUpper(c byte) bool { return c >= 'A' && c <= 'Z' }

func (p *parser) newAtom(e *element, aromatic bool) int {
	pa := &parsedAtom{
		elem: e,
		atom: molecule.Atom{
			Index:        len(p.atoms),
			AtomicNumber: e.Number,
			Symbol:       e.Symbol,
			IsAromatic:   aromatic,
		},
	}
	p.atoms = append(p.atoms, pa)
	return pa.atom.Index
}

func (p *parser) atom() (int, error) {
	c := p.src[p.pos]
	if c == '[' {
		return p.bracketAtom()
	}
	if c == '*' {
		p.pos++
		return p.newAtom(bySymbol["*"], false), nil
	}
	if isUpper(c) {
		if p.pos+1 < len(p.src) {
			two := p.src[p.pos : p.pos+2]
			if two == "Cl" || two == "Br" {
				p.pos += 2
				return p.newAtom(bySymbol[two], false), nil
			}
		}
		one := string(c)
		if organicSubset[one] {
			p.pos++
			return p.newAtom(bySymbol[one], false), nil
		}
		return 0, p.fail("element %q must be written in brackets", one)
	}
	if isLower(c) && aromaticOrganic[string(c)] {
		p.pos++
		e, _ := lookupSymbol(string(c))
		return p.newAtom(e, true), nil
	}
	return 0, p.fail("unexpected character %q", c)
}

func (p *parser) bracketAtom() (int, error) {
	p.pos++ // '['
	isotope, err := p.number("isotope", maxIsotope)
	if err != nil {
		return 0, err
	}

	e, aromatic, err := p.bracketSymbol()
	if err != nil {
		return 0, err
	}

	chiral := chem.ChiralUnspecified
	if p.peek() == '@' {
		p.pos++
		chiral = chem.ChiralCCW
		if p.peek() == '@' {
			p.pos++
			chiral = chem.ChiralCW
		}
	}

	hCount := 0
	if p.peek() == 'H' {
		p.pos++
		hCount = 1
		if isDigit(p.peek()) {
			if hCount, err = p.number("hydrogen count", maxHCount); err != nil {
				return 0, err
			}
		}
	}

	charge := 0
	switch sign := p.peek(); sign {
	case '+', '-':
		unit := 1
		if sign == '-' {
			unit = -1
		}
		p.pos++
		switch {
		case isDigit(p.peek()):
			n, err := p.number("charge", maxCharge)
			if err != nil {
				return 0, err
			}
			charge = unit * n
		default:
			charge = unit
			for p.peek() == sign {
				charge += unit
				p.pos++
			}
		}
	}

	mapNumber := 0
	if p.peek() == ':' {
		p.pos++
		if !isDigit(p.peek()) {
			return 0, p.fail("atom class must be a number")
		}
		if mapNumber, err = p.number("atom class", maxMapNumber); err != nil {
			return 0, err
		}
	}

	if p.peek() != ']' {
		return 0, p.fail("unterminated bracket atom")
	}
	p.pos++

	idx := p.newAtom(e, aromatic)
	pa := p.atoms[idx]
	pa.bracket = true
	pa.hCount = hCount
	pa.atom.Isotope = isotope
	pa.atom.FormalCharge = charge
	pa.atom.MapNumber = mapNumber
	pa.atom.ChiralTag = chiral
	return idx, nil
}

func (p *parser) bracketSymbol() (*element, bool, error) {
	c := p.peek()
	switch {
	case c == '*':
		p.pos++
		return bySymbol["*"], false, nil
	case isUpper(c):
		if isLower(p.peekAt(1)) {
			if e, ok := bySymbol[p.src[p.pos:p.pos+2]]; ok {
				p.pos += 2
				return e, false, nil
			}
		}
		if e, ok := bySymbol[string(c)]; ok {
			p.pos++
			return e, false, nil
		}
	case isLower(c):
		if isLower(p.peekAt(1)) {
			two := p.src[p.pos : p.pos+2]
			if aromaticBracket[two] {
				e, _ := lookupSymbol(two)
				p.pos += 2
				return e, true, nil
			}
		}
		if aromaticBracket[string(c)] {
			e, _ := lookupSymbol(string(c))
			p.pos++
			return e, true, nil
		}
	}
	return nil, false, p.fail("unknown element in bracket atom")
}

func (p *parser) peek() byte { return p.peekAt(0) }

func (p *parser) peekAt(off int) byte {
	if p.pos+off < len(p.src) {
		return p.src[p.pos+off]
	}
	return 0
}

// number reads an optional run of digits.  Values above limit are rejected
// rather than clamped so distinct map numbers never collapse.
func (p *parser) number(field string, limit int) (int, error) {
	start := p.pos
	for p.pos < len(p.src) && isDigit(p.src[p.pos]) {
		p.pos++
	}
	if start == p.pos {
		return 0, nil
	}
	text := p.src[start:p.pos]
	n, err := strconv.Atoi(text)
	if err != nil || n > limit {
		p.pos = start
		return 0, p.fail("%s %s out of range (max %d)", field, text, limit)
	}
	return n, nil
}

//Personal.AI order the ending
