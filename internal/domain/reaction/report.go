package reaction

import (
	"fmt"
	"sort"

	"github.com/turtacn/SynthonScope/pkg/errors"
)

// ReactantSites is the outcome of comparing one reactant against one product.
type ReactantSites struct {
	ReactantIndex int `json:"reactant_index"`

	// ReactiveSites are reactant atom indices whose map number is absent from
	// the synthon set, unmapped atoms included.
	ReactiveSites []int `json:"reactive_sites"`

	// SynthonIndexMap maps reactant atom index to product atom index for the
	// atoms whose shared map number is a synthon.
	SynthonIndexMap map[int]int `json:"synthon_index_map"`

	// Synthons is the synthon set of the pair, ascending.
	Synthons []int `json:"synthons"`
}

// ProductSites groups, for one product, the per-reactant outcomes and the
// product atoms that no reactant maps a synthon onto.
type ProductSites struct {
	ProductIndex  int             `json:"product_index"`
	Reactants     []ReactantSites `json:"reactants"`
	ReactiveSites []int           `json:"reactive_sites"`
}

// ReactiveSiteReport is keyed by product index; Products[i].ProductIndex == i.
type ReactiveSiteReport struct {
	Products []ProductSites `json:"products"`
}

// Product returns the entry for product index pi.
func (r *ReactiveSiteReport) Product(pi int) (ProductSites, bool) {
	if r == nil || pi < 0 || pi >= len(r.Products) {
		return ProductSites{}, false
	}
	return r.Products[pi], true
}

// Reactant returns the (product pi, reactant ri) entry.
func (r *ReactiveSiteReport) Reactant(pi, ri int) (ReactantSites, bool) {
	p, ok := r.Product(pi)
	if !ok || ri < 0 || ri >= len(p.Reactants) {
		return ReactantSites{}, false
	}
	return p.Reactants[ri], true
}

// SynthonMapNumbers is the union over all reactants of the synthon sets
// computed against product pi, ascending.
func (r *ReactiveSiteReport) SynthonMapNumbers(pi int) []int {
	p, ok := r.Product(pi)
	if !ok {
		return nil
	}
	set := make(SynthonSet)
	for _, rs := range p.Reactants {
		for _, mn := range rs.Synthons {
			set[mn] = struct{}{}
		}
	}
	return set.Sorted()
}

// Validate checks the structural guarantees of a report: product and reactant
// indices match their positions, and no reactant atom is both a reactive site
// and a synthon-map key.
func (r *ReactiveSiteReport) Validate() error {
	for pi, p := range r.Products {
		if p.ProductIndex != pi {
			return errors.Internal("product index mismatch").WithDetailf("position=%d index=%d", pi, p.ProductIndex)
		}
		for ri, rs := range p.Reactants {
			if rs.ReactantIndex != ri {
				return errors.Internal("reactant index mismatch").WithDetailf("product=%d position=%d index=%d", pi, ri, rs.ReactantIndex)
			}
			for _, idx := range rs.ReactiveSites {
				if _, both := rs.SynthonIndexMap[idx]; both {
					return errors.Internal("atom is both reactive and synthon").
						WithDetail(fmt.Sprintf("product=%d reactant=%d atom=%d", pi, ri, idx))
				}
			}
		}
	}
	return nil
}

func sortedKeys(m map[int]struct{}) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

//Personal.AI order the ending
