package main

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
	"github.com/riskibarqy/starleague-draft/internal/platform/logging"
)

const usage = `usage: %[1]s <up|down [steps]|version|force <version>>
creates or rolls back the draft_documents table used by STORE_DRIVER=postgres

  %[1]s up
  %[1]s down 1
  %[1]s version
  %[1]s force 1
`

func main() {
	_ = godotenv.Load()
	logger := logging.NewJSON(logging.LevelInfo)
	defer func() { _ = logger.Sync() }()

	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, usage, filepath.Base(os.Args[0]))
		os.Exit(2)
	}

	if err := run(logger, os.Args[1], os.Args[2:]); err != nil {
		logger.Error("migration failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

func run(logger *logging.Logger, cmd string, args []string) error {
	dbURL := strings.TrimSpace(os.Getenv("DB_URL"))
	if dbURL == "" {
		return errors.New("DB_URL is required")
	}

	dir, err := migrationsDir()
	if err != nil {
		return err
	}
	source := "file://" + filepath.ToSlash(dir)

	m, err := migrate.New(source, withPoolerFlag(dbURL))
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if err := errors.Join(srcErr, dbErr); err != nil {
			logger.Warn("close migrator", "error", err)
		}
	}()

	switch strings.ToLower(strings.TrimSpace(cmd)) {
	case "up":
		err = m.Up()
	case "down":
		steps := 1
		if len(args) > 0 {
			if steps, err = strconv.Atoi(strings.TrimSpace(args[0])); err != nil || steps <= 0 {
				return fmt.Errorf("down steps must be a positive integer, got %q", args[0])
			}
		}
		err = m.Steps(-steps)
	case "version":
		version, dirty, verr := m.Version()
		if errors.Is(verr, migrate.ErrNilVersion) {
			logger.Info("no migration applied")
			return nil
		}
		if verr != nil {
			return fmt.Errorf("read version: %w", verr)
		}
		logger.Info("migration version", "version", version, "dirty", dirty)
		return nil
	case "force":
		if len(args) == 0 {
			return errors.New("force requires a version argument")
		}
		version, perr := strconv.Atoi(strings.TrimSpace(args[0]))
		if perr != nil || version < 0 {
			return fmt.Errorf("invalid version %q", args[0])
		}
		err = m.Force(version)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}

	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("no migration changes", "source", source)
		return nil
	}
	if err != nil {
		return err
	}
	logger.Info("migration applied", "command", cmd, "source", source)
	return nil
}

func migrationsDir() (string, error) {
	for _, candidate := range []string{os.Getenv("MIGRATIONS_DIR"), "./db/migrations", "/app/db/migrations"} {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		if info, err := os.Stat(abs); err == nil && info.IsDir() {
			return abs, nil
		}
	}
	return "", errors.New("migration directory not found (checked MIGRATIONS_DIR, ./db/migrations, /app/db/migrations)")
}

// withPoolerFlag mirrors the API: DB_DISABLE_PREPARED_BINARY_RESULT (default
// true) adds disable_prepared_binary_result=yes for lib/pq.
func withPoolerFlag(raw string) string {
	if enabled, err := strconv.ParseBool(strings.TrimSpace(os.Getenv("DB_DISABLE_PREPARED_BINARY_RESULT"))); err == nil && !enabled {
		return raw
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" {
		return raw
	}
	query := parsed.Query()
	if query.Has("disable_prepared_binary_result") {
		return raw
	}
	query.Set("disable_prepared_binary_result", "yes")
	parsed.RawQuery = query.Encode()
	return parsed.String()
}
