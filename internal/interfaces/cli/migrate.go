package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/SynthonScope/internal/infrastructure/database/postgres"
	"github.com/turtacn/SynthonScope/pkg/errors"
)

// schemaMigrator is the subset of *postgres.Migrator used by migrate.
type schemaMigrator interface {
	Up() error
	Down(steps int) error
	Status() (version uint, dirty bool, err error)
}

// openMigrator connects to the configured database.  Tests replace it.
var openMigrator = func(cliCtx *CLIContext) (schemaMigrator, func(), error) {
	dbCfg := cliCtx.Config.Database
	if !dbCfg.Enabled() {
		return nil, nil, errors.New(errors.ErrCodeValidation, "database is not configured; set database.host or SYNSCOPE_DATABASE_HOST")
	}
	conn, err := postgres.NewConnection(dbCfg, cliCtx.Logger)
	if err != nil {
		return nil, nil, err
	}
	m := postgres.NewMigrator(conn.DB(), dbCfg.MigrationPath, cliCtx.Logger)
	return m, func() { _ = conn.Close() }, nil
}

// MigrationStatus is the output of migrate status.
type MigrationStatus struct {
	Version uint `json:"version"`
	Dirty   bool `json:"dirty"`
}

func (s MigrationStatus) RenderText() string {
	return fmt.Sprintf("version: %d\ndirty:   %t\n", s.Version, s.Dirty)
}

// NewMigrateCmd creates the migrate command group.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the analysis database schema",
	}
	cmd.AddCommand(newMigrateUpCmd(), newMigrateDownCmd(), newMigrateStatusCmd(), newMigrateListCmd())
	return cmd
}

func newMigrateUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd, func(m schemaMigrator) error {
				if err := m.Up(); err != nil {
					return err
				}
				return reportStatus(cmd, m)
			})
		},
	}
}

func newMigrateDownCmd() *cobra.Command {
	var steps int
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back applied migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps < 1 {
				return errors.New(errors.ErrCodeValidation, "--steps must be at least 1")
			}
			return withMigrator(cmd, func(m schemaMigrator) error {
				if err := m.Down(steps); err != nil {
					return err
				}
				return reportStatus(cmd, m)
			})
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	return cmd
}

func newMigrateStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the applied schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd, func(m schemaMigrator) error {
				return reportStatus(cmd, m)
			})
		},
	}
}

// newMigrateListCmd prints the migrations compiled into the binary.  It needs
// no database.
func newMigrateListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the embedded migration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := postgres.EmbeddedMigrationNames()
			if err != nil {
				return errors.Wrap(err, errors.ErrCodeInternal, "read embedded migrations")
			}
			return PrintResult(cmd, migrationList(names))
		},
	}
}

type migrationList []string

func (l migrationList) RenderText() string {
	if len(l) == 0 {
		return "(no migrations)\n"
	}
	return strings.Join(l, "\n") + "\n"
}

func withMigrator(cmd *cobra.Command, fn func(m schemaMigrator) error) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	m, closeFn, err := openMigrator(cliCtx)
	if err != nil {
		return err
	}
	if closeFn != nil {
		defer closeFn()
	}
	return fn(m)
}

func reportStatus(cmd *cobra.Command, m schemaMigrator) error {
	version, dirty, err := m.Status()
	if err != nil {
		return err
	}
	return PrintResult(cmd, MigrationStatus{Version: version, Dirty: dirty})
}

//Personal.AI order the ending
