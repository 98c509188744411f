package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/turtacn/SynthonScope/pkg/errors"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

// AnalyzeRequest asks for the reactive sites of a mapped reaction.  A nil
// property list selects the server default; an empty one compares nothing.
type AnalyzeRequest struct {
	ReactionSMILES string   `json:"reaction_smiles"`
	AtomProperties []string `json:"atom_properties"`
	BondProperties []string `json:"bond_properties"`
	RequestID      string   `json:"request_id,omitempty"`
}

// ClassifyRequest compares one mapped reactant with one mapped product.
type ClassifyRequest struct {
	ReactantSMILES string   `json:"reactant_smiles"`
	ProductSMILES  string   `json:"product_smiles"`
	AtomProperties []string `json:"atom_properties"`
	BondProperties []string `json:"bond_properties"`
}

// ProductSummary lists the merged map numbers of one product.
type ProductSummary struct {
	ProductIndex      int   `json:"product_index"`
	SynthonMapNumbers []int `json:"synthon_map_numbers"`
	ReactiveSites     []int `json:"reactive_sites"`
}

// ReactantSites is the classification of one reactant against a product.
type ReactantSites struct {
	ReactantIndex   int         `json:"reactant_index"`
	ReactiveSites   []int       `json:"reactive_sites"`
	SynthonIndexMap map[int]int `json:"synthon_index_map"`
	Synthons        []int       `json:"synthons"`
}

// ProductSites groups the reactant classifications of one product.
type ProductSites struct {
	ProductIndex  int             `json:"product_index"`
	Reactants     []ReactantSites `json:"reactants"`
	ReactiveSites []int           `json:"reactive_sites"`
}

// SiteReport is the full per product, per reactant report.
type SiteReport struct {
	Products []ProductSites `json:"products"`
}

// Analysis is a stored or freshly computed reaction analysis.
type Analysis struct {
	ID             string           `json:"id"`
	ReactionSMILES string           `json:"reaction_smiles"`
	AtomFilter     []string         `json:"atom_filter"`
	BondFilter     []string         `json:"bond_filter"`
	Products       []ProductSummary `json:"products"`
	Report         *SiteReport      `json:"report"`
	Compounds      []Compound       `json:"compounds,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	Cached         bool             `json:"cached"`
	Persisted      bool             `json:"persisted"`
}

// Classification is the answer of Classify.
type Classification struct {
	Synthons              []int       `json:"synthons"`
	ReactantReactiveSites []int       `json:"reactant_reactive_sites"`
	ProductReactiveSites  []int       `json:"product_reactive_sites"`
	SynthonIndexMap       map[int]int `json:"synthon_index_map"`
	AtomFilter            []string    `json:"atom_filter"`
	BondFilter            []string    `json:"bond_filter"`
}

// ---------------------------------------------------------------------------
// ReactionsClient
// ---------------------------------------------------------------------------

// ReactionsClient covers /api/v1/reactions.
type ReactionsClient struct {
	client *Client
}

// Analyze runs the reactive-site analysis of a reaction.
func (rc *ReactionsClient) Analyze(ctx context.Context, req *AnalyzeRequest) (*Analysis, error) {
	if req == nil || strings.TrimSpace(req.ReactionSMILES) == "" {
		return nil, errors.InvalidParam("reaction_smiles is required")
	}
	return call[*Analysis](ctx, rc.client, http.MethodPost, "/api/v1/reactions/analyze", req)
}

// Classify compares a single reactant and product pair.
func (rc *ReactionsClient) Classify(ctx context.Context, req *ClassifyRequest) (*Classification, error) {
	if req == nil || strings.TrimSpace(req.ReactantSMILES) == "" || strings.TrimSpace(req.ProductSMILES) == "" {
		return nil, errors.InvalidParam("reactant_smiles and product_smiles are required")
	}
	return call[*Classification](ctx, rc.client, http.MethodPost, "/api/v1/reactions/classify", req)
}

// Get fetches a stored analysis by id.
func (rc *ReactionsClient) Get(ctx context.Context, id string) (*Analysis, error) {
	if id == "" {
		return nil, errors.InvalidParam("analysis id is required")
	}
	return call[*Analysis](ctx, rc.client, http.MethodGet, "/api/v1/reactions/analyses/"+url.PathEscape(id), nil)
}

// List returns the most recent stored analyses.  limit 0 takes the server
// default.
func (rc *ReactionsClient) List(ctx context.Context, limit int) ([]*Analysis, error) {
	if limit < 0 {
		return nil, errors.InvalidParam("limit must not be negative")
	}
	path := "/api/v1/reactions/analyses"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	return call[[]*Analysis](ctx, rc.client, http.MethodGet, path, nil)
}

//Personal.AI order the ending
