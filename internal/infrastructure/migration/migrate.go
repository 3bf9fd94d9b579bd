package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

// LockTimeout bounds how long a command waits for the advisory lock held by
// another migrate process.
const LockTimeout = 30 * time.Second

// Source selects where migration files are read from. FS wins when both
// are set.
type Source struct {
	FS   fs.FS  // embedded set, see the migrations package
	Path string // directory on disk
}

func (s Source) open(driver database.Driver) (*migrate.Migrate, error) {
	if s.FS != nil {
		src, err := iofs.New(s.FS, ".")
		if err != nil {
			return nil, fmt.Errorf("open embedded migrations: %w", err)
		}
		return migrate.NewWithInstance("iofs", src, "postgres", driver)
	}
	if s.Path == "" {
		return nil, errors.New("migration source path is empty")
	}
	return migrate.NewWithDatabaseInstance("file://"+s.Path, "postgres", driver)
}

func (s Source) String() string {
	if s.FS != nil {
		return "embedded"
	}
	return s.Path
}

// Migrator applies the ledger schema with golang-migrate.
type Migrator struct {
	m   *migrate.Migrate
	log *zap.Logger
}

// New creates a Migrator over an open postgres connection.
func New(db *sql.DB, src Source, log *zap.Logger) (*Migrator, error) {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("create postgres driver: %w", err)
	}
	m, err := src.open(driver)
	if err != nil {
		return nil, fmt.Errorf("create migrate instance: %w", err)
	}
	m.Log = migrateLogger{log.Named("migrate")}
	m.LockTimeout = LockTimeout

	log.Debug("Migrator ready", zap.Stringer("source", src))
	return &Migrator{m: m, log: log}, nil
}

// apply runs op and treats migrate.ErrNoChange as success.
func (mg *Migrator) apply(what string, op func() error) (changed bool, err error) {
	err = op()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		mg.log.Info("Schema unchanged", zap.String("operation", what))
		return false, nil
	case err != nil:
		return false, fmt.Errorf("%s: %w", what, err)
	}
	return true, nil
}

// Up applies every pending migration.
func (mg *Migrator) Up() error {
	mg.log.Info("Applying pending migrations")
	if changed, err := mg.apply("migrate up", mg.m.Up); err != nil || !changed {
		return err
	}
	return mg.logVersion("Migrations applied")
}

// Down rolls back every migration.
func (mg *Migrator) Down() error {
	mg.log.Info("Rolling back all migrations")
	if changed, err := mg.apply("migrate down", mg.m.Down); err != nil || !changed {
		return err
	}
	mg.log.Info("All migrations rolled back")
	return nil
}

// Steps applies n migrations, rolling back when n is negative.
func (mg *Migrator) Steps(n int) error {
	if n == 0 {
		return errors.New("step count must be non-zero")
	}
	mg.log.Info("Stepping migrations", zap.Int("steps", n))
	if changed, err := mg.apply("migrate steps", func() error { return mg.m.Steps(n) }); err != nil || !changed {
		return err
	}
	return mg.logVersion("Migration steps applied")
}

// GoTo migrates up or down to version.
func (mg *Migrator) GoTo(version uint) error {
	mg.log.Info("Migrating to version", zap.Uint("target_version", version))
	what := fmt.Sprintf("migrate to version %d", version)
	if changed, err := mg.apply(what, func() error { return mg.m.Migrate(version) }); err != nil || !changed {
		return err
	}
	return mg.logVersion("Target version reached")
}

// Version returns the applied version and whether the last migration failed
// half way. A fresh database reports 0.
func (mg *Migrator) Version() (uint, bool, error) {
	version, dirty, err := mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read migration version: %w", err)
	}
	return version, dirty, nil
}

// Force records version as applied without running anything, which clears
// a dirty state.
func (mg *Migrator) Force(version int) error {
	mg.log.Warn("Forcing migration version", zap.Int("version", version))
	if err := mg.m.Force(version); err != nil {
		return fmt.Errorf("force version %d: %w", version, err)
	}
	return nil
}

// Drop removes every table, the movement history included.
func (mg *Migrator) Drop() error {
	mg.log.Warn("Dropping all tables, stock history will be lost")
	if err := mg.m.Drop(); err != nil {
		return fmt.Errorf("drop schema: %w", err)
	}
	mg.log.Info("Schema dropped")
	return nil
}

// Close releases the source and database handles.
func (mg *Migrator) Close() error {
	srcErr, dbErr := mg.m.Close()
	return errors.Join(srcErr, dbErr)
}

func (mg *Migrator) logVersion(msg string) error {
	version, dirty, err := mg.Version()
	if err != nil {
		return err
	}
	mg.log.Info(msg, zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

// migrateLogger adapts zap to migrate.Logger.
type migrateLogger struct {
	log *zap.Logger
}

func (l migrateLogger) Printf(format string, v ...any) {
	l.log.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l migrateLogger) Verbose() bool {
	return l.log.Core().Enabled(zap.DebugLevel)
}
