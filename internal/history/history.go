// Package history journals program runs to a SQL database. sqlite3, mysql
// and postgres are supported.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

type Run struct {
	ID        string
	StartedAt time.Time
	Source    string
	Outcome   string
	Output    string
	Error     string
}

const (
	OutcomeOK           = "ok"
	OutcomeLexicalError = "lexical error"
	OutcomeParseError   = "parse error"
	OutcomeTypeError    = "type error"
	OutcomeRuntimeError = "runtime error"
)

type Store struct {
	db     *sql.DB
	driver string
}

// Open connects to the database and creates the runs table if needed.
// "postgresql" is accepted as an alias for the lib/pq "postgres" driver.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	driver = strings.ToLower(driver)
	if driver == "postgresql" {
		driver = "postgres"
	}
	switch driver {
	case "sqlite3":
		if dir := filepath.Dir(dsn); dsn != ":memory:" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create directory: %w", err)
			}
		}
	case "mysql", "postgres":
	default:
		return nil, fmt.Errorf("unsupported history driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if driver == "sqlite3" {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db, driver: driver}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	slog.Debug("history store opened", slog.String("driver", driver))
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	text := "TEXT"
	if s.driver == "mysql" {
		text = "LONGTEXT"
	}
	schema := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS runs (
		id VARCHAR(36) PRIMARY KEY,
		started_at BIGINT NOT NULL,
		source %[1]s NOT NULL,
		outcome VARCHAR(32) NOT NULL,
		output %[1]s NOT NULL,
		error %[1]s NOT NULL
	)`, text)
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// rebind rewrites ? placeholders to $N for postgres.
func (s *Store) rebind(query string) string {
	if s.driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

// Record stores run, assigning an ID and start time when they are unset.
func (s *Store) Record(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	query := s.rebind(`INSERT INTO runs (id, started_at, source, outcome, output, error) VALUES (?, ?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, query,
		run.ID, run.StartedAt.UnixNano(), run.Source, run.Outcome, run.Output, run.Error)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	query := s.rebind(`SELECT id, started_at, source, outcome, output, error FROM runs ORDER BY started_at DESC LIMIT ?`)
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started int64
		if err := rows.Scan(&r.ID, &started, &r.Source, &r.Outcome, &r.Output, &r.Error); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.StartedAt = time.Unix(0, started)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	query := s.rebind(`SELECT id, started_at, source, outcome, output, error FROM runs WHERE id = ?`)
	var r Run
	var started int64
	err := s.db.QueryRowContext(ctx, query, id).Scan(&r.ID, &started, &r.Source, &r.Outcome, &r.Output, &r.Error)
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", id, err)
	}
	r.StartedAt = time.Unix(0, started)
	return &r, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
