package audit

// #region imports
import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/danielpatrickdp/living-world/go-engine/internal/consequence"
)

// #endregion

// #region schema

const auditSchema = `
CREATE TABLE IF NOT EXISTS audit_log (
	created_at      TEXT NOT NULL,
	consequence_id  TEXT NOT NULL,
	action          TEXT NOT NULL,
	system          TEXT NOT NULL,
	change          TEXT NOT NULL,
	previous_value  TEXT,
	new_value       TEXT
);

CREATE INDEX IF NOT EXISTS idx_audit_consequence ON audit_log(consequence_id);
`

// #endregion

// #region log-struct

// Log persists the append-only audit trail. Postgres placeholders are
// generated when postgres is true.
type Log struct {
	db       *sql.DB
	postgres bool
}

// NewLog initializes the audit_log table over an existing handle.
func NewLog(db *sql.DB, postgres bool) (*Log, error) {
	if _, err := db.Exec(auditSchema); err != nil {
		return nil, fmt.Errorf("audit schema: %w", err)
	}
	return &Log{db: db, postgres: postgres}, nil
}

func (l *Log) bind(pos int) string {
	if l.postgres {
		return fmt.Sprintf("$%d", pos)
	}
	return "?"
}

// #endregion

// #region append

// Append writes audit entries in one transaction. Entries are never
// updated or deleted.
func (l *Log) Append(ctx context.Context, entries []consequence.AuditEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt := fmt.Sprintf(
		`INSERT INTO audit_log (created_at, consequence_id, action, system, change, previous_value, new_value)
		 VALUES (%s, %s, %s, %s, %s, %s, %s)`,
		l.bind(1), l.bind(2), l.bind(3), l.bind(4), l.bind(5), l.bind(6), l.bind(7))

	for _, e := range entries {
		ts := e.Timestamp
		if ts.IsZero() {
			ts = time.Now().UTC()
		}
		_, err := tx.ExecContext(ctx, stmt,
			ts.Format(time.RFC3339Nano),
			e.ConsequenceID,
			string(e.Action),
			e.System,
			e.Change,
			nullIfEmpty(e.PreviousValue),
			nullIfEmpty(e.NewValue),
		)
		if err != nil {
			return fmt.Errorf("append audit entry: %w", err)
		}
	}
	return tx.Commit()
}

// #endregion

// #region queries

// Recent returns the most recent audit entries, newest first.
func (l *Log) Recent(ctx context.Context, limit int) ([]consequence.AuditEntry, error) {
	return l.query(ctx,
		fmt.Sprintf(`SELECT created_at, consequence_id, action, system, change, previous_value, new_value
		 FROM audit_log ORDER BY created_at DESC LIMIT %s`, l.bind(1)),
		limit)
}

// ForConsequence returns every entry attributed to one consequence, oldest first.
func (l *Log) ForConsequence(ctx context.Context, consequenceID string) ([]consequence.AuditEntry, error) {
	return l.query(ctx,
		fmt.Sprintf(`SELECT created_at, consequence_id, action, system, change, previous_value, new_value
		 FROM audit_log WHERE consequence_id = %s ORDER BY created_at`, l.bind(1)),
		consequenceID)
}

func (l *Log) query(ctx context.Context, q string, arg any) ([]consequence.AuditEntry, error) {
	rows, err := l.db.QueryContext(ctx, q, arg)
	if err != nil {
		return nil, fmt.Errorf("query audit: %w", err)
	}
	defer rows.Close()

	var out []consequence.AuditEntry
	for rows.Next() {
		var e consequence.AuditEntry
		var createdStr, action string
		var prev, next sql.NullString
		if err := rows.Scan(&createdStr, &e.ConsequenceID, &action, &e.System, &e.Change, &prev, &next); err != nil {
			return nil, fmt.Errorf("scan audit row: %w", err)
		}
		e.Timestamp, _ = time.Parse(time.RFC3339Nano, createdStr)
		e.Action = consequence.AuditAction(action)
		if prev.Valid {
			e.PreviousValue = prev.String
		}
		if next.Valid {
			e.NewValue = next.String
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// #endregion

// #region helpers

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// #endregion
