package chem

// ChiralTag describes tetrahedral parity as written in the input notation.
type ChiralTag uint8

const (
	ChiralUnspecified ChiralTag = iota
	ChiralCW                    // @@
	ChiralCCW                   // @
)

func (c ChiralTag) String() string {
	switch c {
	case ChiralCW:
		return "CHI_TETRAHEDRAL_CW"
	case ChiralCCW:
		return "CHI_TETRAHEDRAL_CCW"
	default:
		return "CHI_UNSPECIFIED"
	}
}

// Hybridization of an atom's valence orbitals.
type Hybridization uint8

const (
	HybridUnspecified Hybridization = iota
	HybridS
	HybridSP
	HybridSP2
	HybridSP3
	HybridSP3D
	HybridSP3D2
)

func (h Hybridization) String() string {
	switch h {
	case HybridS:
		return "S"
	case HybridSP:
		return "SP"
	case HybridSP2:
		return "SP2"
	case HybridSP3:
		return "SP3"
	case HybridSP3D:
		return "SP3D"
	case HybridSP3D2:
		return "SP3D2"
	default:
		return "UNSPECIFIED"
	}
}

// BondType is the bond order class.
type BondType uint8

const (
	BondUnspecified BondType = iota
	BondSingle
	BondDouble
	BondTriple
	BondAromatic
)

func (b BondType) String() string {
	switch b {
	case BondSingle:
		return "SINGLE"
	case BondDouble:
		return "DOUBLE"
	case BondTriple:
		return "TRIPLE"
	case BondAromatic:
		return "AROMATIC"
	default:
		return "UNSPECIFIED"
	}
}

// ValenceContribution is the bond's contribution to each endpoint's valence,
// doubled so aromatic bonds (1.5) stay integral.
func (b BondType) ValenceContribution() int {
	switch b {
	case BondSingle:
		return 2
	case BondDouble:
		return 4
	case BondTriple:
		return 6
	case BondAromatic:
		return 3
	default:
		return 0
	}
}

// BondDir records the directional single-bond marks '/' and '\'.
type BondDir uint8

const (
	DirNone BondDir = iota
	DirEndUpRight
	DirEndDownRight
)

func (d BondDir) String() string {
	switch d {
	case DirEndUpRight:
		return "ENDUPRIGHT"
	case DirEndDownRight:
		return "ENDDOWNRIGHT"
	default:
		return "NONE"
	}
}

// BondStereo is the double-bond configuration.
type BondStereo uint8

const (
	StereoNone BondStereo = iota
	StereoE
	StereoZ
)

func (s BondStereo) String() string {
	switch s {
	case StereoE:
		return "STEREOE"
	case StereoZ:
		return "STEREOZ"
	default:
		return "STEREONONE"
	}
}

//Personal.AI order the ending
