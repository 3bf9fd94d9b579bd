package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	_ "github.com/lib/pq"
	"github.com/stockledger/backend/internal/infrastructure/config"
	"github.com/stockledger/backend/internal/infrastructure/logger"
	"github.com/stockledger/backend/internal/infrastructure/migration"
	"github.com/stockledger/backend/migrations"
	"go.uber.org/zap"
)

const defaultMigrationsPath = "migrations"

var errUsage = errors.New("usage")

// migrator is the part of *migration.Migrator the database commands use.
type migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	GoTo(version uint) error
	Version() (uint, bool, error)
	Force(version int) error
	Drop() error
}

// session is what a command runs against.
type session struct {
	log *zap.Logger
	out io.Writer
	dir string // migrations directory for create/list and -path
	m   migrator
}

type command struct {
	args    string
	help    string
	offline bool // create and list never open the database
	run     func(s *session, args []string) error
}

var commands = map[string]command{
	"up":   {help: "Apply all pending migrations", run: func(s *session, _ []string) error { return s.m.Up() }},
	"down": {help: "Roll back all migrations", run: func(s *session, _ []string) error { return s.m.Down() }},
	"step": {args: "<n>", help: "Apply n migrations (positive=up, negative=down)", run: func(s *session, args []string) error {
		n, err := intArg(args, "step count")
		if err != nil {
			return err
		}
		return s.m.Steps(n)
	}},
	"goto": {args: "<version>", help: "Migrate to a specific version", run: func(s *session, args []string) error {
		v, err := intArg(args, "version")
		if err != nil {
			return err
		}
		if v < 0 {
			return fmt.Errorf("version must not be negative: %d", v)
		}
		return s.m.GoTo(uint(v))
	}},
	"version": {help: "Show current migration version", run: showVersion},
	"force": {args: "<version>", help: "Force set migration version (clears a dirty state)", run: func(s *session, args []string) error {
		v, err := intArg(args, "version")
		if err != nil {
			return err
		}
		return s.m.Force(v)
	}},
	"drop": {args: "-confirm", help: "Drop all tables, movement history included", run: func(s *session, args []string) error {
		if !slices.Contains(args, "-confirm") && !slices.Contains(args, "--confirm") {
			return errors.New("drop cancelled, pass -confirm to drop every table")
		}
		return s.m.Drop()
	}},
	"create": {args: "<name> [desc]", help: "Create the next numbered migration pair", offline: true, run: createMigration},
	"list":   {help: "List migrations in the directory", offline: true, run: listMigrations},
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, "migrate:", err)
		}
		os.Exit(1)
	}
}

func run(argv []string, out io.Writer) error {
	flags := flag.NewFlagSet("migrate", flag.ContinueOnError)
	flags.SetOutput(out)
	path := flags.String("path", "", "Read migrations from this directory instead of the embedded set")
	logLevel := flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.Usage = func() { printUsage(out) }
	if err := flags.Parse(argv); err != nil {
		return errUsage
	}

	args := flags.Args()
	if len(args) == 0 {
		printUsage(out)
		return errUsage
	}
	cmd, ok := commands[args[0]]
	if !ok {
		printUsage(out)
		return fmt.Errorf("unknown command %q", args[0])
	}

	log, err := logger.New(&logger.Config{
		Level:      *logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	s := &session{log: log, out: out}
	if cmd.offline || *path != "" {
		if s.dir, err = resolveDir(*path); err != nil {
			return err
		}
	}
	if cmd.offline {
		return cmd.run(s, args[1:])
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	src := migration.Source{FS: migrations.FS}
	if s.dir != "" {
		src = migration.Source{Path: s.dir}
	}
	m, err := migration.New(db, src, log)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer m.Close()
	s.m = m

	log.Info("Running migration command", zap.String("command", args[0]))
	if err := cmd.run(s, args[1:]); err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	return nil
}

func intArg(args []string, what string) (int, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("%s required", what)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", what, args[0])
	}
	return n, nil
}

func showVersion(s *session, _ []string) error {
	version, dirty, err := s.m.Version()
	if err != nil {
		return err
	}
	if version == 0 {
		s.log.Info("No migrations applied")
		return nil
	}
	s.log.Info("Current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

func createMigration(s *session, args []string) error {
	if len(args) == 0 {
		return errors.New("migration name required")
	}
	description := ""
	if len(args) > 1 {
		description = args[1]
	}
	mf, err := migration.CreateMigration(s.dir, args[0], description)
	if err != nil {
		return err
	}
	s.log.Info("Migration created",
		zap.Uint("version", mf.Version),
		zap.String("up_file", mf.UpPath),
		zap.String("down_file", mf.DownPath),
	)
	return nil
}

func listMigrations(s *session, _ []string) error {
	entries, err := migration.ListMigrations(s.dir)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		s.log.Info("No migrations found", zap.String("path", s.dir))
		return nil
	}
	for _, e := range entries {
		suffix := ""
		if !e.HasDown {
			suffix = " (no down file)"
		}
		fmt.Fprintf(s.out, "  - %s%s\n", e.Name, suffix)
	}
	return nil
}

func resolveDir(path string) (string, error) {
	if path == "" {
		path = defaultMigrationsPath
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve migrations path: %w", err)
	}
	return abs, nil
}

func printUsage(out io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	slices.Sort(names)

	fmt.Fprint(out, "Stock Ledger Migration Tool\n\nUsage:\n  migrate [flags] <command> [arguments]\n\nCommands:\n")
	for _, name := range names {
		fmt.Fprintf(out, "  %-22s%s\n", name+" "+commands[name].args, commands[name].help)
	}
	fmt.Fprint(out, `
Flags:
  -path string          Migrations directory (default: embedded; ./migrations for create/list)
  -log-level string     Log level: debug, info, warn, error (default: info)

Environment Variables:
  LEDGER_DATABASE_HOST, LEDGER_DATABASE_PORT, LEDGER_DATABASE_USER,
  LEDGER_DATABASE_PASSWORD, LEDGER_DATABASE_DBNAME, LEDGER_DATABASE_SSLMODE
`)
}
