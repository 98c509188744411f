package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/SynthonScope/internal/domain/reaction"
	"github.com/turtacn/SynthonScope/internal/infrastructure/database/postgres"
	"github.com/turtacn/SynthonScope/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/SynthonScope/pkg/errors"
)

var selectColumns = []string{"id", "reaction_smiles", "atom_filter", "bond_filter", "report", "created_at"}

type AnalysisRepoTestSuite struct {
	suite.Suite
	db   *sql.DB
	mock sqlmock.Sqlmock
	repo reaction.AnalysisRepository
}

func (s *AnalysisRepoTestSuite) SetupTest() {
	var err error
	s.db, s.mock, err = sqlmock.New()
	require.NoError(s.T(), err)

	conn := postgres.NewConnectionWithDB(s.db, logging.NewNopLogger())
	s.repo = NewPostgresAnalysisRepo(conn, logging.NewNopLogger())
}

func (s *AnalysisRepoTestSuite) TearDownTest() {
	assert.NoError(s.T(), s.mock.ExpectationsWereMet())
	s.db.Close()
}

func sampleReport() *reaction.ReactiveSiteReport {
	return &reaction.ReactiveSiteReport{Products: []reaction.ProductSites{{
		ProductIndex: 0,
		Reactants: []reaction.ReactantSites{{
			ReactantIndex:   0,
			ReactiveSites:   []int{1, 2},
			SynthonIndexMap: map[int]int{0: 0},
			Synthons:        []int{1},
		}},
		ReactiveSites: []int{1, 2},
	}}}
}

func sampleAnalysis() *reaction.Analysis {
	return &reaction.Analysis{
		ID:             uuid.NewString(),
		ReactionSMILES: "[CH3:1][CH2:2][OH:3]>>[CH3:1][CH2:2][O-:3]",
		AtomFilter:     []string{"all"},
		BondFilter:     []string{"bond_order"},
		Report:         sampleReport(),
		CreatedAt:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (s *AnalysisRepoTestSuite) TestSave_Success() {
	a := sampleAnalysis()
	reportJSON, _ := json.Marshal(a.Report)

	s.mock.ExpectExec("INSERT INTO reaction_analyses").
		WithArgs(a.ID, a.ReactionSMILES, []byte(`["all"]`), []byte(`["bond_order"]`), reportJSON, 1, a.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	s.NoError(s.repo.Save(context.Background(), a))
}

func (s *AnalysisRepoTestSuite) TestSave_NilFiltersAndReport() {
	a := sampleAnalysis()
	a.AtomFilter = nil
	a.BondFilter = nil
	a.Report = nil

	s.mock.ExpectExec("INSERT INTO reaction_analyses").
		WithArgs(a.ID, a.ReactionSMILES, []byte(`[]`), []byte(`[]`), []byte(`{"products":[]}`), 0, a.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	s.NoError(s.repo.Save(context.Background(), a))
}

func (s *AnalysisRepoTestSuite) TestSave_RequiresID() {
	err := s.repo.Save(context.Background(), &reaction.Analysis{})
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeBadRequest))

	err = s.repo.Save(context.Background(), nil)
	s.Error(err)
}

func (s *AnalysisRepoTestSuite) TestSave_DatabaseError() {
	s.mock.ExpectExec("INSERT INTO reaction_analyses").WillReturnError(errors.New("connection refused"))

	err := s.repo.Save(context.Background(), sampleAnalysis())
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeDatabaseError))
}

func (s *AnalysisRepoTestSuite) TestFindByID_Found() {
	a := sampleAnalysis()
	reportJSON, _ := json.Marshal(a.Report)

	s.mock.ExpectQuery("SELECT .* FROM reaction_analyses WHERE id =").
		WithArgs(a.ID).
		WillReturnRows(sqlmock.NewRows(selectColumns).
			AddRow(a.ID, a.ReactionSMILES, []byte(`["all"]`), []byte(`["bond_order"]`), reportJSON, a.CreatedAt))

	got, err := s.repo.FindByID(context.Background(), a.ID)
	s.Require().NoError(err)
	s.Equal(a, got)
}

func (s *AnalysisRepoTestSuite) TestFindByID_NotFound() {
	s.mock.ExpectQuery("SELECT .* FROM reaction_analyses WHERE id =").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := s.repo.FindByID(context.Background(), "missing")
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeAnalysisNotFound))
	s.True(pkgerrors.IsNotFound(err))
}

func (s *AnalysisRepoTestSuite) TestFindByID_CorruptReport() {
	a := sampleAnalysis()
	s.mock.ExpectQuery("SELECT .* FROM reaction_analyses WHERE id =").
		WithArgs(a.ID).
		WillReturnRows(sqlmock.NewRows(selectColumns).
			AddRow(a.ID, a.ReactionSMILES, []byte(`[]`), []byte(`[]`), []byte(`{broken`), a.CreatedAt))

	_, err := s.repo.FindByID(context.Background(), a.ID)
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeDatabaseError))
	s.False(pkgerrors.IsNotFound(err))
}

func (s *AnalysisRepoTestSuite) TestListRecent() {
	newer, older := sampleAnalysis(), sampleAnalysis()
	older.CreatedAt = newer.CreatedAt.Add(-time.Hour)
	reportJSON, _ := json.Marshal(newer.Report)

	s.mock.ExpectQuery("SELECT .* FROM reaction_analyses ORDER BY created_at DESC").
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows(selectColumns).
			AddRow(newer.ID, newer.ReactionSMILES, []byte(`["all"]`), []byte(`["bond_order"]`), reportJSON, newer.CreatedAt).
			AddRow(older.ID, older.ReactionSMILES, []byte(`["all"]`), []byte(`["bond_order"]`), reportJSON, older.CreatedAt))

	got, err := s.repo.ListRecent(context.Background(), 2)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal(newer.ID, got[0].ID)
	s.Equal(older.ID, got[1].ID)
}

func (s *AnalysisRepoTestSuite) TestListRecent_NonPositiveLimit() {
	got, err := s.repo.ListRecent(context.Background(), 0)
	s.NoError(err)
	s.Empty(got)
}

func (s *AnalysisRepoTestSuite) TestListRecent_QueryError() {
	s.mock.ExpectQuery("SELECT .* FROM reaction_analyses").WillReturnError(errors.New("timeout"))

	_, err := s.repo.ListRecent(context.Background(), 5)
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeDatabaseError))
}

func TestAnalysisRepoTestSuite(t *testing.T) {
	suite.Run(t, new(AnalysisRepoTestSuite))
}

func TestSaveWithinTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	a := sampleAnalysis()
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO reaction_analyses").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = postgres.WithTransaction(context.Background(), db, func(tx *sql.Tx) error {
		return NewAnalysisRepoWithTx(tx, nil).Save(context.Background(), a)
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

//Personal.AI order the ending
