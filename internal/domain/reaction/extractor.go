package reaction

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/SynthonScope/internal/domain/molecule"
	"github.com/turtacn/SynthonScope/pkg/types/chem"
)

// Extractor runs synthon classification over every (reactant, product) pair
// of a reaction and assembles the ReactiveSiteReport.  Pairs are independent
// and are evaluated concurrently; each writes only its own slot.
type Extractor struct {
	concurrency int
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithConcurrency bounds the number of pairs evaluated at once.  Values below
// one select runtime.GOMAXPROCS(0).
func WithConcurrency(n int) ExtractorOption {
	return func(e *Extractor) { e.concurrency = n }
}

// NewExtractor builds an Extractor.
func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{}
	for _, opt := range opts {
		opt(e)
	}
	if e.concurrency < 1 {
		e.concurrency = runtime.GOMAXPROCS(0)
	}
	return e
}

// ExtractReactiveSitesAndSynthons is the context-free form of Extractor.Extract
// with default settings.
func ExtractReactiveSitesAndSynthons(reactants, products []*molecule.MappedMolecule, atomFilter chem.AtomFilter, bondFilter chem.BondFilter) *ReactiveSiteReport {
	report, _ := NewExtractor().Extract(context.Background(), reactants, products, atomFilter, bondFilter)
	return report
}

// Extract computes the report.  The only error is ctx's, when it is cancelled
// before all pairs are evaluated.
func (e *Extractor) Extract(ctx context.Context, reactants, products []*molecule.MappedMolecule, atomFilter chem.AtomFilter, bondFilter chem.BondFilter) (*ReactiveSiteReport, error) {
	rIdx := make([]*molecule.MappedAdjacency, len(reactants))
	pIdx := make([]*molecule.MappedAdjacency, len(products))
	slots := make([][]ReactantSites, len(products))
	for pi := range slots {
		slots[pi] = make([]ReactantSites, len(reactants))
	}

	// Each molecule is indexed once and shared by every pair that reads it.
	var indexing errgroup.Group
	indexing.SetLimit(e.concurrency)
	for i, m := range reactants {
		i, m := i, m
		indexing.Go(func() error {
			rIdx[i] = molecule.BuildMappedAdjacency(m, atomFilter, bondFilter)
			return nil
		})
	}
	for i, m := range products {
		i, m := i, m
		indexing.Go(func() error {
			pIdx[i] = molecule.BuildMappedAdjacency(m, atomFilter, bondFilter)
			return nil
		})
	}
	_ = indexing.Wait()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for pi := range products {
		for ri := range reactants {
			pi, ri := pi, ri
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				slots[pi][ri] = comparePair(ri, reactants[ri], rIdx[ri], products[pi], pIdx[pi])
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &ReactiveSiteReport{Products: make([]ProductSites, len(products))}
	for pi, p := range products {
		covered := make(map[int]struct{})
		for _, rs := range slots[pi] {
			for _, productAtom := range rs.SynthonIndexMap {
				covered[productAtom] = struct{}{}
			}
		}
		reactive := make(map[int]struct{})
		for i := 0; i < p.NumAtoms(); i++ {
			if _, ok := covered[i]; !ok {
				reactive[i] = struct{}{}
			}
		}
		report.Products[pi] = ProductSites{
			ProductIndex:  pi,
			Reactants:     slots[pi],
			ReactiveSites: sortedKeys(reactive),
		}
	}
	return report, nil
}

func comparePair(ri int, r *molecule.MappedMolecule, rAdj *molecule.MappedAdjacency, p *molecule.MappedMolecule, pAdj *molecule.MappedAdjacency) ReactantSites {
	synthons := ClassifyIndexed(rAdj, pAdj)

	reactive := make(map[int]struct{})
	for i := 0; i < r.NumAtoms(); i++ {
		mn, mapped := r.MapNumberOf(i)
		if !mapped || !synthons.Has(mn) {
			reactive[i] = struct{}{}
		}
	}

	indexMap := make(map[int]int, len(synthons))
	for mn := range synthons {
		rAtom, ok := r.AtomIndexOf(mn)
		if !ok {
			continue
		}
		pAtom, ok := p.AtomIndexOf(mn)
		if !ok {
			continue
		}
		indexMap[rAtom] = pAtom
	}

	return ReactantSites{
		ReactantIndex:   ri,
		ReactiveSites:   sortedKeys(reactive),
		SynthonIndexMap: indexMap,
		Synthons:        synthons.Sorted(),
	}
}

//Personal.AI order the ending
