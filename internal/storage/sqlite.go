package storage

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps a SQLite database holding the interaction log.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database in dataDir and runs pending
// migrations. Pass ":memory:" as dataDir for an in-memory database (used by
// tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "repcrm.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	// This also serializes the edit path's read-then-write on the max-id row.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate reads embedded SQL migration files and applies any that haven't
// been run yet.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}

		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}

		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}

	return nil
}

func parseMigrationVersion(filename string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(filename, "%d_", &version); err != nil {
		return 0, fmt.Errorf("parsing migration version from %q: %w", filename, err)
	}
	return version, nil
}

// AppliedMigrations returns the list of applied migration versions in
// ascending order.
func (s *Store) AppliedMigrations() ([]int, error) {
	rows, err := s.db.Query("SELECT version FROM schema_version ORDER BY version ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

const interactionColumns = "id, hcp_name, interaction_type, interaction_datetime, topics_discussed, products_discussed, sentiment, follow_up_actions, ai_summary"

// SaveInteraction appends a new interaction row and returns its assigned id.
// Writes auto-commit: the row is durable before SaveInteraction returns.
func (s *Store) SaveInteraction(i Interaction) (int64, error) {
	when := i.InteractionTime
	if when.IsZero() {
		when = time.Now()
	}
	var summary sql.NullString
	if i.AISummary != nil {
		summary = sql.NullString{String: *i.AISummary, Valid: true}
	}
	res, err := s.db.Exec(`
		INSERT INTO interactions (hcp_name, interaction_type, interaction_datetime, topics_discussed, products_discussed, sentiment, follow_up_actions, ai_summary)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		i.HCPName, i.InteractionType, when.UTC().Format(time.RFC3339),
		i.TopicsDiscussed, i.ProductsDiscussed, i.Sentiment, i.FollowUpActions, summary,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting interaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading inserted id: %w", err)
	}
	return id, nil
}

// GetInteraction returns the interaction with the given id.
func (s *Store) GetInteraction(id int64) (Interaction, error) {
	row := s.db.QueryRow("SELECT "+interactionColumns+" FROM interactions WHERE id = ?", id)
	i, err := scanInteraction(row)
	if err == sql.ErrNoRows {
		return Interaction{}, ErrNotFound
	}
	if err != nil {
		return Interaction{}, err
	}
	return i, nil
}

// ListInteractions returns rows ordered by id descending (most recent first).
func (s *Store) ListInteractions(limit, offset int) ([]Interaction, error) {
	rows, err := s.db.Query(
		"SELECT "+interactionColumns+" FROM interactions ORDER BY id DESC LIMIT ? OFFSET ?",
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Interaction
	for rows.Next() {
		i, err := scanInteraction(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, i)
	}
	return results, rows.Err()
}

// UpdateLatestFollowUp overwrites follow_up_actions on the row with the
// maximum id. It is the only mutation path: the assistant's edit action has
// no way to target an arbitrary row. Returns ErrNotFound when the table is
// empty.
func (s *Store) UpdateLatestFollowUp(followUp string) error {
	res, err := s.db.Exec(`
		UPDATE interactions SET follow_up_actions = ?
		WHERE id = (SELECT MAX(id) FROM interactions)`,
		followUp,
	)
	if err != nil {
		return fmt.Errorf("updating latest interaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountInteractions returns the total number of logged interactions.
func (s *Store) CountInteractions() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM interactions").Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanInteraction(sc scanner) (Interaction, error) {
	var i Interaction
	var when string
	var summary sql.NullString
	err := sc.Scan(&i.ID, &i.HCPName, &i.InteractionType, &when,
		&i.TopicsDiscussed, &i.ProductsDiscussed, &i.Sentiment, &i.FollowUpActions, &summary)
	if err != nil {
		return Interaction{}, err
	}
	t, err := time.Parse(time.RFC3339, when)
	if err != nil {
		return Interaction{}, fmt.Errorf("parsing interaction_datetime: %w", err)
	}
	i.InteractionTime = t
	if summary.Valid {
		i.AISummary = &summary.String
	}
	return i, nil
}
