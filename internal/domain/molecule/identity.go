package molecule

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/turtacn/SynthonScope/pkg/types/chem"
)

// ─────────────────────────────────────────────────────────────────────────────
// Value
// ─────────────────────────────────────────────────────────────────────────────

// ValueKind is the scalar type of a property value.
type ValueKind uint8

const (
	KindInt ValueKind = iota + 1
	KindFloat
	KindString
	KindBool
)

// Value is one scalar property value inside a tag.
type Value struct {
	Kind ValueKind
	Int  int64
	Flt  float64
	Str  string
	Bool bool
}

func intValue(v int) Value       { return Value{Kind: KindInt, Int: int64(v)} }
func floatValue(v float64) Value { return Value{Kind: KindFloat, Flt: v} }
func strValue(v string) Value    { return Value{Kind: KindString, Str: v} }
func boolValue(v bool) Value     { return Value{Kind: KindBool, Bool: v} }

// encode writes a type-prefixed rendering.  Floats use the shortest
// representation that round-trips, so two encodings are equal exactly when the
// floats are equal; no tolerance is applied.
func (v Value) encode(sb *strings.Builder) {
	switch v.Kind {
	case KindInt:
		sb.WriteByte('i')
		sb.WriteString(strconv.FormatInt(v.Int, 10))
	case KindFloat:
		sb.WriteByte('f')
		sb.WriteString(strconv.FormatFloat(v.Flt, 'g', -1, 64))
	case KindString:
		sb.WriteByte('s')
		sb.WriteString(strconv.Quote(v.Str))
	case KindBool:
		if v.Bool {
			sb.WriteString("b1")
		} else {
			sb.WriteString("b0")
		}
	}
}

func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Flt, 'g', -1, 64)
	case KindString:
		return v.Str
	case KindBool:
		return strconv.FormatBool(v.Bool)
	default:
		return "?"
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Typed accessor tables
// ─────────────────────────────────────────────────────────────────────────────

var atomAccessors = [...]func(*Atom) Value{
	chem.AtomicNumber:        func(a *Atom) Value { return intValue(a.AtomicNumber) },
	chem.ChiralTagProp:       func(a *Atom) Value { return strValue(a.ChiralTag.String()) },
	chem.Degree:              func(a *Atom) Value { return intValue(a.Degree) },
	chem.ExplicitValence:     func(a *Atom) Value { return intValue(a.ExplicitValence) },
	chem.FormalCharge:        func(a *Atom) Value { return intValue(a.FormalCharge) },
	chem.HybridizationProp:   func(a *Atom) Value { return strValue(a.Hybridization.String()) },
	chem.ImplicitValence:     func(a *Atom) Value { return intValue(a.ImplicitValence) },
	chem.AtomIsAromatic:      func(a *Atom) Value { return boolValue(a.IsAromatic) },
	chem.AtomIsInRing:        func(a *Atom) Value { return boolValue(a.IsInRing) },
	chem.Isotope:             func(a *Atom) Value { return intValue(a.Isotope) },
	chem.Mass:                func(a *Atom) Value { return floatValue(a.Mass) },
	chem.NumExplicitHs:       func(a *Atom) Value { return intValue(a.NumExplicitHs) },
	chem.NumImplicitHs:       func(a *Atom) Value { return intValue(a.NumImplicitHs) },
	chem.NumRadicalElectrons: func(a *Atom) Value { return intValue(a.NumRadicalElectrons) },
	chem.Symbol:              func(a *Atom) Value { return strValue(a.Symbol) },
	chem.TotalDegree:         func(a *Atom) Value { return intValue(a.TotalDegree) },
	chem.TotalNumHs:          func(a *Atom) Value { return intValue(a.TotalNumHs()) },
	chem.TotalValence:        func(a *Atom) Value { return intValue(a.TotalValence()) },
}

var bondAccessors = [...]func(*Bond) Value{
	chem.BondDirProp:      func(b *Bond) Value { return strValue(b.Dir.String()) },
	chem.BondTypeProp:     func(b *Bond) Value { return strValue(b.Type.String()) },
	chem.BondIsAromatic:   func(b *Bond) Value { return boolValue(b.IsAromatic) },
	chem.BondIsConjugated: func(b *Bond) Value { return boolValue(b.IsConjugated) },
	chem.BondIsInRing:     func(b *Bond) Value { return boolValue(b.IsInRing) },
	chem.StereoProp:       func(b *Bond) Value { return strValue(b.Stereo.String()) },
}

func init() {
	if len(atomAccessors) != len(chem.AtomProperties()) {
		panic("molecule: atom accessor table does not cover the atom property vocabulary")
	}
	if len(bondAccessors) != len(chem.BondProperties()) {
		panic("molecule: bond accessor table does not cover the bond property vocabulary")
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Tags
// ─────────────────────────────────────────────────────────────────────────────

// Tag is the ordered tuple of selected property values of one atom or bond.
// Two tags are equal when every value is equal; floats are compared exactly,
// so including Mass can separate atoms whose masses differ only in
// representation.
type Tag struct {
	key    string
	values []Value
}

func newTag(values []Value) Tag {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, v := range values {
		if i > 0 {
			sb.WriteByte(',')
		}
		v.encode(&sb)
	}
	sb.WriteByte(')')
	return Tag{key: sb.String(), values: values}
}

// Key is a string that is equal for two tags exactly when the tags are equal.
func (t Tag) Key() string { return t.key }

// Equal reports value equality.
func (t Tag) Equal(o Tag) bool { return t.key == o.key }

// Values returns a copy of the tuple.
func (t Tag) Values() []Value {
	out := make([]Value, len(t.values))
	copy(out, t.values)
	return out
}

func (t Tag) String() string {
	parts := make([]string, len(t.values))
	for i, v := range t.values {
		parts[i] = v.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// AtomTag selects the filtered properties of a in canonical order.
func AtomTag(a Atom, filter chem.AtomFilter) Tag {
	props := filter.Selected()
	values := make([]Value, len(props))
	for i, p := range props {
		values[i] = atomAccessors[p](&a)
	}
	return newTag(values)
}

// BondPropertyTag selects the filtered properties of b.
func BondPropertyTag(b Bond, filter chem.BondFilter) Tag {
	props := filter.Selected()
	values := make([]Value, len(props))
	for i, p := range props {
		values[i] = bondAccessors[p](&b)
	}
	return newTag(values)
}

// BondIdentity is the bond tag: the unordered pair of endpoint atom tags and
// the bond's own property tuple.  It is comparable and usable as a map key.
type BondIdentity struct {
	Ends  [2]string
	Props string
}

func (id BondIdentity) String() string {
	return fmt.Sprintf("{%s, %s} %s", id.Ends[0], id.Ends[1], id.Props)
}

// BondTag computes the identity of b given its endpoint atoms.
func BondTag(b Bond, begin, end Atom, atomFilter chem.AtomFilter, bondFilter chem.BondFilter) BondIdentity {
	t1 := AtomTag(begin, atomFilter).Key()
	t2 := AtomTag(end, atomFilter).Key()
	if t1 > t2 {
		t1, t2 = t2, t1
	}
	return BondIdentity{
		Ends:  [2]string{t1, t2},
		Props: BondPropertyTag(b, bondFilter).Key(),
	}
}

// BondTag computes the identity of the bond at index k.
func (m *MappedMolecule) BondTag(k int, atomFilter chem.AtomFilter, bondFilter chem.BondFilter) BondIdentity {
	b := m.bonds[k]
	return BondTag(b, m.atoms[b.Begin], m.atoms[b.End], atomFilter, bondFilter)
}

//Personal.AI order the ending
