package worldstate

// #region imports
import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/living-world/go-engine/internal/consequence"
)

// #endregion

// #region dialect

// Dialect selects the SQL backend.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// #endregion

// #region schema

const storeSchema = `
CREATE TABLE IF NOT EXISTS world_snapshots (
	version     INTEGER PRIMARY KEY,
	payload     TEXT NOT NULL,
	created_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS active_snapshot (
	id       INTEGER PRIMARY KEY CHECK (id = 1),
	version  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS world_rules (
	rule_id          TEXT PRIMARY KEY,
	name             TEXT NOT NULL,
	description      TEXT NOT NULL,
	rule_type        TEXT NOT NULL,
	constraints_json TEXT,
	exceptions_json  TEXT
);
`

// #endregion

// #region store-struct

// Store is a SQL-backed Gateway with a monotonic snapshot version counter.
// The default dialect is SQLite; set WORLD_DB_DIALECT=postgres to use pgx.
type Store struct {
	dialect Dialect
	db      *sql.DB
}

// #endregion

// #region constructors

// NewStore opens a SQLite database at path and runs migrations.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	s := &Store{dialect: DialectSQLite, db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// OpenFromEnv opens a store based on WORLD_DB_DIALECT:
//
//	sqlite (default): WORLD_DB_SQLITE_PATH, default tmp/world_state.sqlite
//	postgres:         WORLD_DB_POSTGRES_DSN or DATABASE_URL
func OpenFromEnv() (*Store, error) {
	dialectRaw := strings.TrimSpace(strings.ToLower(os.Getenv("WORLD_DB_DIALECT")))
	if dialectRaw == "" {
		dialectRaw = string(DialectSQLite)
	}

	var driverName, dsn string
	switch Dialect(dialectRaw) {
	case DialectSQLite:
		driverName = "sqlite"
		path := strings.TrimSpace(os.Getenv("WORLD_DB_SQLITE_PATH"))
		if path == "" {
			path = filepath.Join("tmp", "world_state.sqlite")
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite directory: %w", err)
		}
		dsn = path
	case DialectPostgres:
		driverName = "pgx"
		dsn = strings.TrimSpace(os.Getenv("WORLD_DB_POSTGRES_DSN"))
		if dsn == "" {
			dsn = strings.TrimSpace(os.Getenv("DATABASE_URL"))
		}
		if dsn == "" {
			return nil, fmt.Errorf("WORLD_DB_DIALECT=postgres requires WORLD_DB_POSTGRES_DSN or DATABASE_URL")
		}
	default:
		return nil, fmt.Errorf("unsupported WORLD_DB_DIALECT %q", dialectRaw)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialectRaw, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if Dialect(dialectRaw) == DialectSQLite {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			return nil, fmt.Errorf("pragma: %w", err)
		}
		if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
			return nil, fmt.Errorf("pragma: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s database: %w", dialectRaw, err)
	}

	s := &Store{dialect: Dialect(dialectRaw), db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(storeSchema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// #endregion

// #region accessors

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying handle for sibling stores (audit, history).
func (s *Store) DB() *sql.DB {
	return s.db
}

// Postgres reports whether the store runs on the pgx driver.
func (s *Store) Postgres() bool {
	return s.dialect == DialectPostgres
}

// bind returns the positional placeholder for the active dialect.
func (s *Store) bind(pos int) string {
	if s.dialect == DialectPostgres {
		return fmt.Sprintf("$%d", pos)
	}
	return "?"
}

// #endregion

// #region seed

// SeedInitialState installs snap as version 1 if no active snapshot exists.
func (s *Store) SeedInitialState(ctx context.Context, snap Snapshot) error {
	var existing int64
	err := s.db.QueryRowContext(ctx, `SELECT version FROM active_snapshot WHERE id = 1`).Scan(&existing)
	if err == nil {
		return nil // already seeded
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("check active: %w", err)
	}

	snap.Version = 1
	if snap.Timestamp.IsZero() {
		snap.Timestamp = time.Now().UTC()
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO world_snapshots (version, payload, created_at) VALUES (%s, %s, %s)`,
			s.bind(1), s.bind(2), s.bind(3)),
		snap.Version, string(payload), snap.Timestamp.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO active_snapshot (id, version) VALUES (1, %s)`, s.bind(1)),
		snap.Version,
	)
	if err != nil {
		return fmt.Errorf("set active: %w", err)
	}
	return tx.Commit()
}

// SeedRules replaces the stored rule set.
func (s *Store) SeedRules(ctx context.Context, rules []consequence.WorldRule) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM world_rules`); err != nil {
		return fmt.Errorf("clear rules: %w", err)
	}
	for _, r := range rules {
		constraints, _ := json.Marshal(r.Constraints)
		exceptions, _ := json.Marshal(r.Exceptions)
		_, err := tx.ExecContext(ctx,
			fmt.Sprintf(`INSERT INTO world_rules (rule_id, name, description, rule_type, constraints_json, exceptions_json)
			 VALUES (%s, %s, %s, %s, %s, %s)`,
				s.bind(1), s.bind(2), s.bind(3), s.bind(4), s.bind(5), s.bind(6)),
			r.ID, r.Name, r.Description, r.Type, string(constraints), string(exceptions),
		)
		if err != nil {
			return fmt.Errorf("insert rule %s: %w", r.ID, err)
		}
	}
	return tx.Commit()
}

// #endregion

// #region gateway-impl

// WorldRules loads the stored rule set.
func (s *Store) WorldRules(ctx context.Context) ([]consequence.WorldRule, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT rule_id, name, description, rule_type, constraints_json, exceptions_json
		 FROM world_rules ORDER BY rule_id`)
	if err != nil {
		return nil, fmt.Errorf("query rules: %w", err)
	}
	defer rows.Close()

	var rules []consequence.WorldRule
	for rows.Next() {
		var r consequence.WorldRule
		var constraints, exceptions sql.NullString
		if err := rows.Scan(&r.ID, &r.Name, &r.Description, &r.Type, &constraints, &exceptions); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		if constraints.Valid {
			_ = json.Unmarshal([]byte(constraints.String), &r.Constraints)
		}
		if exceptions.Valid {
			_ = json.Unmarshal([]byte(exceptions.String), &r.Exceptions)
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

// CurrentState loads the active snapshot.
func (s *Store) CurrentState(ctx context.Context) (Snapshot, error) {
	var version int64
	err := s.db.QueryRowContext(ctx, `SELECT version FROM active_snapshot WHERE id = 1`).Scan(&version)
	if err != nil {
		return Snapshot{}, fmt.Errorf("get active: %w", err)
	}
	return s.GetVersion(ctx, version)
}

// GetVersion loads a specific snapshot version.
func (s *Store) GetVersion(ctx context.Context, version int64) (Snapshot, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT payload FROM world_snapshots WHERE version = %s`, s.bind(1)),
		version,
	).Scan(&payload)
	if err != nil {
		return Snapshot{}, fmt.Errorf("get snapshot %d: %w", version, err)
	}
	var snap Snapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		return Snapshot{}, fmt.Errorf("unmarshal snapshot %d: %w", version, err)
	}
	return snap, nil
}

// UpdateState persists snap as a new version if snap.Version is still the
// active version. Compare-and-swap: a stale version yields ErrVersionConflict.
func (s *Store) UpdateState(ctx context.Context, snap Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var active int64
	if err := tx.QueryRowContext(ctx, `SELECT version FROM active_snapshot WHERE id = 1`).Scan(&active); err != nil {
		return fmt.Errorf("get active: %w", err)
	}
	if snap.Version != active {
		return ErrVersionConflict
	}

	next := active + 1
	snap.Version = next
	if snap.Timestamp.IsZero() {
		snap.Timestamp = time.Now().UTC()
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO world_snapshots (version, payload, created_at) VALUES (%s, %s, %s)`,
			s.bind(1), s.bind(2), s.bind(3)),
		next, string(payload), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		fmt.Sprintf(`UPDATE active_snapshot SET version = %s WHERE id = 1`, s.bind(1)),
		next,
	)
	if err != nil {
		return fmt.Errorf("update active: %w", err)
	}
	return tx.Commit()
}

// #endregion

// #region list-versions

// VersionRow pairs a stored snapshot with its persist time.
type VersionRow struct {
	Version   int64
	CreatedAt time.Time
	Snapshot  Snapshot
}

// ListVersions returns the most recent snapshot versions, newest first.
func (s *Store) ListVersions(ctx context.Context, limit int) ([]VersionRow, error) {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT version, payload, created_at FROM world_snapshots
		 ORDER BY version DESC LIMIT %s`, s.bind(1)),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	var out []VersionRow
	for rows.Next() {
		var row VersionRow
		var payload, createdStr string
		if err := rows.Scan(&row.Version, &payload, &createdStr); err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		if err := json.Unmarshal([]byte(payload), &row.Snapshot); err != nil {
			return nil, fmt.Errorf("unmarshal version %d: %w", row.Version, err)
		}
		row.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		out = append(out, row)
	}
	return out, rows.Err()
}

// #endregion
