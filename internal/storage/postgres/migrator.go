package postgres

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"

	"github.com/cory-johannsen/brave/internal/config"
)

// Migrator applies the encounter schema migrations under a directory.
type Migrator struct {
	m      *migrate.Migrate
	logger *zap.Logger
}

// NewMigrator opens the migration files in dir against the database in cfg.
//
// Precondition: dir must hold golang-migrate style NNNNNN_name.{up,down}.sql files.
// Postcondition: Returns a Migrator that must be closed, or a non-nil error.
func NewMigrator(dir string, cfg config.DatabaseConfig, logger *zap.Logger) (*Migrator, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving migrations dir %q: %w", dir, err)
	}
	m, err := migrate.New("file://"+filepath.ToSlash(abs), cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("creating migrator: %w", err)
	}
	m.Log = migrateLogger{logger}
	return &Migrator{m: m, logger: logger}, nil
}

// Up applies steps pending migrations, or all of them when steps is 0.
// Nothing to apply is not an error.
func (mg *Migrator) Up(steps int) error {
	var err error
	if steps > 0 {
		err = mg.m.Steps(steps)
	} else {
		err = mg.m.Up()
	}
	return mg.finish("up", err)
}

// Down reverts steps migrations, or all of them when steps is 0.
func (mg *Migrator) Down(steps int) error {
	var err error
	if steps > 0 {
		err = mg.m.Steps(-steps)
	} else {
		err = mg.m.Down()
	}
	return mg.finish("down", err)
}

// Force records version as applied and clears the dirty flag without running
// any migration.
//
// Precondition: version >= -1; -1 means no migration applied.
func (mg *Migrator) Force(version int) error {
	if err := mg.m.Force(version); err != nil {
		return fmt.Errorf("forcing version %d: %w", version, err)
	}
	mg.logger.Info("migration version forced", zap.Int("version", version))
	return nil
}

// Version reports the applied version. A database with no migrations applied
// reports version 0.
func (mg *Migrator) Version() (uint, bool, error) {
	v, dirty, err := mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("reading version: %w", err)
	}
	return v, dirty, nil
}

// Close releases the source and database handles.
func (mg *Migrator) Close() error {
	srcErr, dbErr := mg.m.Close()
	return errors.Join(srcErr, dbErr)
}

func (mg *Migrator) finish(direction string, err error) error {
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrating %s: %w", direction, err)
	}
	version, dirty, verr := mg.Version()
	if verr != nil {
		return verr
	}
	mg.logger.Info("migrations applied",
		zap.String("direction", direction),
		zap.Bool("changed", err == nil),
		zap.Uint("version", version),
		zap.Bool("dirty", dirty),
		zap.Bool("snapshot_schema_ready", !dirty && version >= RequiredSchemaVersion),
	)
	return nil
}

type migrateLogger struct {
	logger *zap.Logger
}

func (l migrateLogger) Printf(format string, v ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l migrateLogger) Verbose() bool {
	return l.logger.Core().Enabled(zap.DebugLevel)
}
