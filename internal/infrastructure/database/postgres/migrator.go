package postgres

import (
	"database/sql"
	"embed"
	stderrors "errors"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file" // file:// sources
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/turtacn/SynthonScope/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SynthonScope/pkg/errors"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// ─────────────────────────────────────────────────────────────────────────────
// Migrator
// ─────────────────────────────────────────────────────────────────────────────

// Migrator applies the analysis-store schema.  An empty source URL selects
// the migrations embedded in the binary.
type Migrator struct {
	db        *sql.DB
	sourceURL string
	logger    logging.Logger
}

func NewMigrator(db *sql.DB, sourceURL string, log logging.Logger) *Migrator {
	return &Migrator{db: db, sourceURL: sourceURL, logger: logging.OrNop(log).Named("migrate")}
}

func (m *Migrator) instance() (*migrate.Migrate, error) {
	driver, err := postgres.WithInstance(m.db, &postgres.Config{})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to create migration driver")
	}

	if m.sourceURL != "" {
		mg, err := migrate.NewWithDatabaseInstance(m.sourceURL, "postgres", driver)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to create migrate instance")
		}
		return mg, nil
	}

	src, err := iofs.New(embeddedMigrations, "migrations")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to open embedded migrations")
	}
	mg, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to create migrate instance")
	}
	return mg, nil
}

// Up applies every pending migration.  No pending migrations is not an error.
func (m *Migrator) Up() error {
	mg, err := m.instance()
	if err != nil {
		return err
	}

	if err := mg.Up(); err != nil && !stderrors.Is(err, migrate.ErrNoChange) {
		version, _, _ := mg.Version()
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to run migrations").
			WithDetailf("current version %d", version)
	}

	version, dirty, err := mg.Version()
	if err != nil && !stderrors.Is(err, migrate.ErrNilVersion) {
		m.logger.Warn("failed to read migration version", logging.Err(err))
	}
	m.logger.Info("database migrations completed",
		logging.Int64("version", int64(version)),
		logging.Bool("dirty", dirty))
	return nil
}

// Down rolls back steps migrations.
func (m *Migrator) Down(steps int) error {
	if steps <= 0 {
		return errors.Newf(errors.ErrCodeValidation, "steps must be greater than 0, got %d", steps)
	}
	mg, err := m.instance()
	if err != nil {
		return err
	}
	if err := mg.Steps(-steps); err != nil {
		if stderrors.Is(err, migrate.ErrNoChange) {
			return errors.New(errors.ErrCodeConflict, "no migrations to roll back")
		}
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to roll back migrations")
	}
	return nil
}

// Status returns the applied version and whether the last migration left the
// schema dirty.  A fresh database reports version 0.
func (m *Migrator) Status() (version uint, dirty bool, err error) {
	mg, err := m.instance()
	if err != nil {
		return 0, false, err
	}
	version, dirty, err = mg.Version()
	if err != nil {
		if stderrors.Is(err, migrate.ErrNilVersion) {
			return 0, false, nil
		}
		return 0, false, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to get migration version")
	}
	return version, dirty, nil
}

// EmbeddedMigrationNames lists the migration files compiled into the binary.
func EmbeddedMigrationNames() ([]string, error) {
	entries, err := embeddedMigrations.ReadDir("migrations")
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}

//Personal.AI order the ending
