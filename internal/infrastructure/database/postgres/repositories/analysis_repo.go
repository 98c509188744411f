package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"

	"github.com/turtacn/SynthonScope/internal/domain/reaction"
	"github.com/turtacn/SynthonScope/internal/infrastructure/database/postgres"
	"github.com/turtacn/SynthonScope/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SynthonScope/pkg/errors"
)

const analysisColumns = `id, reaction_smiles, atom_filter, bond_filter, report, created_at`

// queryExecutor is satisfied by both *sql.DB and *sql.Tx.
type queryExecutor interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// scanner is a *sql.Row or *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// postgresAnalysisRepo stores analyses in the reaction_analyses table.  The
// filters and the report are JSONB columns.
type postgresAnalysisRepo struct {
	db  queryExecutor
	log logging.Logger
}

// NewPostgresAnalysisRepo returns the PostgreSQL reaction.AnalysisRepository.
func NewPostgresAnalysisRepo(conn *postgres.Connection, log logging.Logger) reaction.AnalysisRepository {
	return &postgresAnalysisRepo{db: conn.DB(), log: logging.OrNop(log).Named("analysis_repo")}
}

// NewAnalysisRepoWithTx binds the repository to an open transaction.
func NewAnalysisRepoWithTx(tx *sql.Tx, log logging.Logger) reaction.AnalysisRepository {
	return &postgresAnalysisRepo{db: tx, log: logging.OrNop(log).Named("analysis_repo")}
}

// Save inserts a; saving an id twice keeps the first row.
func (r *postgresAnalysisRepo) Save(ctx context.Context, a *reaction.Analysis) error {
	if a == nil || a.ID == "" {
		return errors.InvalidParam("analysis id required")
	}

	atomJSON, err := json.Marshal(nonNilStrings(a.AtomFilter))
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "marshal atom filter")
	}
	bondJSON, err := json.Marshal(nonNilStrings(a.BondFilter))
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "marshal bond filter")
	}
	report := a.Report
	if report == nil {
		report = &reaction.ReactiveSiteReport{Products: []reaction.ProductSites{}}
	}
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "marshal report")
	}

	query := `
		INSERT INTO reaction_analyses (
			id, reaction_smiles, atom_filter, bond_filter, report, synthon_count, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING`
	_, err = r.db.ExecContext(ctx, query,
		a.ID, a.ReactionSMILES, atomJSON, bondJSON, reportJSON, synthonCount(report), a.CreatedAt)
	if err != nil {
		r.log.Error("failed to save analysis", logging.String("id", a.ID), logging.Err(err))
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to save analysis")
	}
	return nil
}

func (r *postgresAnalysisRepo) FindByID(ctx context.Context, id string) (*reaction.Analysis, error) {
	query := `SELECT ` + analysisColumns + ` FROM reaction_analyses WHERE id = $1`
	a, err := scanAnalysis(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.New(errors.ErrCodeAnalysisNotFound, "analysis not found").WithDetail(id)
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to find analysis")
	}
	return a, nil
}

// ListRecent returns up to limit analyses, newest first.
func (r *postgresAnalysisRepo) ListRecent(ctx context.Context, limit int) ([]*reaction.Analysis, error) {
	if limit <= 0 {
		return []*reaction.Analysis{}, nil
	}
	query := `SELECT ` + analysisColumns + ` FROM reaction_analyses ORDER BY created_at DESC, id LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list analyses")
	}
	defer rows.Close()

	out := make([]*reaction.Analysis, 0, limit)
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan analysis")
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate analyses")
	}
	return out, nil
}

func scanAnalysis(row scanner) (*reaction.Analysis, error) {
	var (
		a                              reaction.Analysis
		atomJSON, bondJSON, reportJSON []byte
	)
	if err := row.Scan(&a.ID, &a.ReactionSMILES, &atomJSON, &bondJSON, &reportJSON, &a.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(atomJSON, &a.AtomFilter); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "decode atom filter")
	}
	if err := json.Unmarshal(bondJSON, &a.BondFilter); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "decode bond filter")
	}
	a.Report = &reaction.ReactiveSiteReport{}
	if err := json.Unmarshal(reportJSON, a.Report); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "decode report")
	}
	return &a, nil
}

func synthonCount(report *reaction.ReactiveSiteReport) int {
	n := 0
	for _, p := range report.Products {
		n += len(report.SynthonMapNumbers(p.ProductIndex))
	}
	return n
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

//Personal.AI order the ending
