package audit

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/living-world/go-engine/internal/consequence"
)

func tempLog(t *testing.T) *Log {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	l, err := NewLog(db, false)
	if err != nil {
		t.Fatalf("NewLog: %v", err)
	}
	return l
}

func entryAt(id string, ts time.Time) consequence.AuditEntry {
	return consequence.AuditEntry{
		Timestamp:     ts,
		ConsequenceID: id,
		Action:        consequence.AuditApplied,
		System:        "economic",
		Change:        "prosperity +5",
		PreviousValue: "60",
		NewValue:      "65",
	}
}

func TestAppendAndForConsequence(t *testing.T) {
	l := tempLog(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	entries := []consequence.AuditEntry{
		entryAt("c1", base),
		entryAt("c1", base.Add(time.Second)),
		entryAt("c2", base.Add(2*time.Second)),
	}
	if err := l.Append(ctx, entries); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, err := l.ForConsequence(ctx, "c1")
	if err != nil {
		t.Fatalf("ForConsequence: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d entries for c1, want 2", len(got))
	}
	if !got[0].Timestamp.Before(got[1].Timestamp) {
		t.Fatal("ForConsequence should return oldest first")
	}
	if got[0].PreviousValue != "60" || got[0].NewValue != "65" {
		t.Fatalf("values not round-tripped: %+v", got[0])
	}
}

func TestRecentNewestFirst(t *testing.T) {
	l := tempLog(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if err := l.Append(ctx, []consequence.AuditEntry{
		entryAt("c1", base),
		entryAt("c2", base.Add(time.Minute)),
		entryAt("c3", base.Add(2*time.Minute)),
	}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, err := l.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2", len(got))
	}
	if got[0].ConsequenceID != "c3" {
		t.Fatalf("newest entry should come first, got %s", got[0].ConsequenceID)
	}
}

func TestAppendEmptyNoOp(t *testing.T) {
	l := tempLog(t)
	if err := l.Append(context.Background(), nil); err != nil {
		t.Fatalf("empty append should be a no-op, got %v", err)
	}
}

func TestEmptyValuesStoredAsNull(t *testing.T) {
	l := tempLog(t)
	ctx := context.Background()

	e := consequence.AuditEntry{
		Timestamp:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		ConsequenceID: "c1",
		Action:        consequence.AuditFailed,
		System:        "world_state",
		Change:        "application failed",
	}
	if err := l.Append(ctx, []consequence.AuditEntry{e}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	got, err := l.ForConsequence(ctx, "c1")
	if err != nil {
		t.Fatalf("ForConsequence: %v", err)
	}
	if got[0].PreviousValue != "" || got[0].NewValue != "" {
		t.Fatalf("empty values should stay empty, got %+v", got[0])
	}
	if got[0].Action != consequence.AuditFailed {
		t.Fatalf("action = %s, want failed", got[0].Action)
	}
}
