package reaction

import (
	"context"
	"time"
)

// Analysis is a stored extraction run.
type Analysis struct {
	ID             string              `json:"id"`
	ReactionSMILES string              `json:"reaction_smiles"`
	AtomFilter     []string            `json:"atom_filter"`
	BondFilter     []string            `json:"bond_filter"`
	Report         *ReactiveSiteReport `json:"report"`
	CreatedAt      time.Time           `json:"created_at"`
}

// AnalysisRepository persists analyses.  FindByID returns an
// ErrCodeAnalysisNotFound error for unknown ids.
type AnalysisRepository interface {
	Save(ctx context.Context, a *Analysis) error
	FindByID(ctx context.Context, id string) (*Analysis, error)
	ListRecent(ctx context.Context, limit int) ([]*Analysis, error)
}

//Personal.AI order the ending
