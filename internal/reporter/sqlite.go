package reporter

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/tursodatabase/go-libsql"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS events (
	seq            INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id         TEXT NOT NULL,
	test_case_id   TEXT NOT NULL,
	test_case_name TEXT,
	event_type     TEXT NOT NULL,
	step_id        TEXT,
	step_name      TEXT,
	step_kind      TEXT,
	success        INTEGER,
	output         TEXT,
	reason         TEXT,
	occurred_at    TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_events_run_id ON events(run_id);
`

// SQLiteReporter persists every lifecycle event as an append-only row in a
// libSQL (embedded SQLite) database, grounded on the connection-open,
// PRAGMA-tuning, and migration pattern of the teacher's LibSQLStore, with a
// schema redesigned from scratch: a single events table rather than the
// teacher's multi-table workflow-orchestration schema, since a Reporter
// only ever appends lifecycle events for one run.
//
// This is not the "persistence of engine state across runs" the spec
// excludes as a non-goal — that concerns resuming an ExecutionContext
// mid-run; SQLiteReporter only ever writes finished events, never reads
// them back to drive execution.
type SQLiteReporter struct {
	db           *sql.DB
	runID        string
	testCaseID   string
	testCaseName string
}

var _ Reporter = (*SQLiteReporter)(nil)

// NewSQLiteReporter opens (and migrates) a libSQL database at dbPath, e.g.
// "file:/path/to/report.db". Each TestStart call begins a new run_id, so a
// single database file can accumulate many runs' events.
func NewSQLiteReporter(dbPath string) (*SQLiteReporter, error) {
	db, err := sql.Open("libsql", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open libsql: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		var result string
		_ = db.QueryRow(p).Scan(&result)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate events schema: %w", err)
	}

	return &SQLiteReporter{db: db}, nil
}

// Close closes the underlying database.
func (r *SQLiteReporter) Close() error {
	return r.db.Close()
}

func (r *SQLiteReporter) insert(ctx context.Context, eventType, stepID, stepName, stepKind string, success *bool, output any, reason string) {
	var outJSON []byte
	if output != nil {
		outJSON, _ = json.Marshal(output)
	}
	var successVal any
	if success != nil {
		if *success {
			successVal = 1
		} else {
			successVal = 0
		}
	}
	_, _ = r.db.ExecContext(ctx,
		`INSERT INTO events (run_id, test_case_id, test_case_name, event_type, step_id, step_name, step_kind, success, output, reason)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.runID, r.testCaseID, r.testCaseName, eventType, stepID, stepName, stepKind, successVal, string(outJSON), reason,
	)
}

func (r *SQLiteReporter) TestStart(id, name string) {
	r.runID = uuid.NewString()
	r.testCaseID = id
	r.testCaseName = name
	r.insert(context.Background(), "testStart", "", "", "", nil, nil, "")
}

func (r *SQLiteReporter) StepStart(id, name, kind string) {
	r.insert(context.Background(), "stepStart", id, name, kind, nil, nil, "")
}

func (r *SQLiteReporter) StepEnd(id string, success bool, output any) {
	r.insert(context.Background(), "stepEnd", id, "", "", &success, output, "")
}

func (r *SQLiteReporter) StepSkipped(id, name, kind, reason string) {
	r.insert(context.Background(), "stepSkipped", id, name, kind, nil, nil, reason)
}

func (r *SQLiteReporter) TestEnd(id string, success bool) {
	r.insert(context.Background(), "testEnd", "", "", "", &success, nil, "")
}

// reportedEvent mirrors one row of the events table for report rendering.
type reportedEvent struct {
	EventType string `json:"event_type"`
	StepID    string `json:"step_id,omitempty"`
	StepName  string `json:"step_name,omitempty"`
	StepKind  string `json:"step_kind,omitempty"`
	Success   *bool  `json:"success,omitempty"`
	Output    any    `json:"output,omitempty"`
	Reason    string `json:"reason,omitempty"`
	At        string `json:"occurred_at"`
}

// sqliteReport is the document GenerateReport returns, reconstructed from
// the persisted rows of the most recent run. It carries AllureResult's
// name/status/steps fields with run_id in place of uuid; it has no
// test-level start/stop, and its steps carry no start/stop timing.
type sqliteReport struct {
	RunID  string       `json:"run_id"`
	Name   string       `json:"name"`
	Status string       `json:"status"`
	Steps  []AllureStep `json:"steps"`
}

// GenerateReport queries the rows belonging to the most recent run and
// renders them as a sqliteReport.
func (r *SQLiteReporter) GenerateReport() (any, error) {
	rows, err := r.db.Query(
		`SELECT event_type, step_id, success, output, reason, occurred_at
		 FROM events WHERE run_id = ? ORDER BY seq ASC`, r.runID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	report := sqliteReport{RunID: r.runID, Name: r.testCaseName, Status: "passed"}
	for rows.Next() {
		var (
			eventType, stepID, output, reason, occurredAt string
			success                                       sql.NullInt64
		)
		if err := rows.Scan(&eventType, &stepID, &success, &output, &reason, &occurredAt); err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}

		switch eventType {
		case "stepEnd":
			status := "passed"
			if success.Valid && success.Int64 == 0 {
				status = "failed"
			}
			report.Steps = append(report.Steps, AllureStep{Name: stepID, Status: status, Output: rawOutput(output)})
		case "stepSkipped":
			report.Steps = append(report.Steps, AllureStep{Name: stepID, Status: "skipped", Output: reason})
		case "testEnd":
			if success.Valid && success.Int64 == 0 {
				report.Status = "failed"
			}
		}
	}
	return report, rows.Err()
}

func rawOutput(s string) any {
	if s == "" {
		return nil
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	return v
}
