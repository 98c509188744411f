package reactivity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/turtacn/SynthonScope/internal/application/conversion"
	"github.com/turtacn/SynthonScope/internal/domain/reaction"
	"github.com/turtacn/SynthonScope/pkg/types/chem"
	"github.com/turtacn/SynthonScope/pkg/types/common"
)

// ─────────────────────────────────────────────────────────────────────────────
// Requests
// ─────────────────────────────────────────────────────────────────────────────

// AnalyzeRequest asks for the reactive sites and synthons of a mapped
// reaction.  A nil property list selects the configured default; ["all"]
// selects every property and an empty list selects none.
type AnalyzeRequest struct {
	ReactionSMILES string   `json:"reaction_smiles" validate:"required"`
	AtomProperties []string `json:"atom_properties,omitempty"`
	BondProperties []string `json:"bond_properties,omitempty"`

	// RequestID correlates the completion event with an upstream request.
	RequestID string `json:"request_id,omitempty"`
}

// ClassifyRequest compares a single reactant against a single product.
type ClassifyRequest struct {
	ReactantSMILES string   `json:"reactant_smiles" validate:"required"`
	ProductSMILES  string   `json:"product_smiles" validate:"required"`
	AtomProperties []string `json:"atom_properties,omitempty"`
	BondProperties []string `json:"bond_properties,omitempty"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Results
// ─────────────────────────────────────────────────────────────────────────────

// ProductSummary condenses one product of a report.
type ProductSummary struct {
	ProductIndex      int   `json:"product_index"`
	SynthonMapNumbers []int `json:"synthon_map_numbers"`
	ReactiveSites     []int `json:"reactive_sites"`
}

// AnalysisResult is the outcome of Analyze and GetAnalysis.
type AnalysisResult struct {
	ID             string                       `json:"id"`
	ReactionSMILES string                       `json:"reaction_smiles"`
	AtomFilter     []string                     `json:"atom_filter"`
	BondFilter     []string                     `json:"bond_filter"`
	Products       []ProductSummary             `json:"products"`
	Report         *reaction.ReactiveSiteReport `json:"report"`
	Compounds      []conversion.CompoundRecord  `json:"compounds,omitempty"`
	CreatedAt      time.Time                    `json:"created_at"`

	// Cached is set when the result was served from the cache.
	Cached bool `json:"cached"`
	// Persisted is false when no repository is configured or the save failed.
	Persisted bool `json:"persisted"`
}

// ClassifyResult is the outcome of Classify.
type ClassifyResult struct {
	Synthons         []int       `json:"synthons"`
	ReactantReactive []int       `json:"reactant_reactive_sites"`
	ProductReactive  []int       `json:"product_reactive_sites"`
	SynthonIndexMap  map[int]int `json:"synthon_index_map"`
	AtomFilter       []string    `json:"atom_filter"`
	BondFilter       []string    `json:"bond_filter"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Collaborators
// ─────────────────────────────────────────────────────────────────────────────

// Cache stores results by key.  Any Get error is treated as a miss.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// Publisher writes completion events.  *kafka.Producer satisfies it.
type Publisher interface {
	Publish(ctx context.Context, msg *common.ProducerMessage) error
}

// Metrics records analysis outcomes.
type Metrics interface {
	ObserveAnalysis(outcome string, elapsed time.Duration)
	RecordCacheLookup(hit bool)
	ObserveSynthons(count int)
}

// Outcome labels passed to Metrics.ObserveAnalysis.
const (
	OutcomeSuccess  = "success"
	OutcomeCached   = "cached"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

// atomFilterNames renders a filter so that ParseAtomFilter / ParseBondFilter
// restore the same variant.
func atomFilterNames(f chem.AtomFilter) []string {
	if f.IsAll() {
		return []string{"all"}
	}
	return f.Names()
}

func bondFilterNames(f chem.BondFilter) []string {
	if f.IsAll() {
		return []string{"all"}
	}
	return f.Names()
}

// AnalysisCacheKey identifies an analysis by its trimmed input and resolved
// filters.
func AnalysisCacheKey(reactionSMILES string, af chem.AtomFilter, bf chem.BondFilter) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(reactionSMILES) + "|" + af.String() + "|" + bf.String()))
	return "analysis:" + hex.EncodeToString(sum[:])
}

// AnalysisIDCacheKey is the secondary key under which a result is reachable
// by id.
func AnalysisIDCacheKey(id string) string {
	return "analysis:id:" + id
}

func summarize(report *reaction.ReactiveSiteReport) []ProductSummary {
	out := make([]ProductSummary, 0, len(report.Products))
	for _, p := range report.Products {
		synthons := report.SynthonMapNumbers(p.ProductIndex)
		if synthons == nil {
			synthons = []int{}
		}
		sites := p.ReactiveSites
		if sites == nil {
			sites = []int{}
		}
		out = append(out, ProductSummary{
			ProductIndex:      p.ProductIndex,
			SynthonMapNumbers: synthons,
			ReactiveSites:     sites,
		})
	}
	return out
}

// SynthonCount sums the synthon map numbers over all products.
func (r *AnalysisResult) SynthonCount() int {
	n := 0
	for _, p := range r.Products {
		n += len(p.SynthonMapNumbers)
	}
	return n
}

// ProductSynthons lists the synthon map numbers per product.
func (r *AnalysisResult) ProductSynthons() [][]int {
	out := make([][]int, len(r.Products))
	for i, p := range r.Products {
		out[i] = p.SynthonMapNumbers
	}
	return out
}

//Personal.AI order the ending
