package reporter

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteReporter(t *testing.T) *SQLiteReporter {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "report.db")
	r, err := NewSQLiteReporter("file:" + dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestSQLiteReporter_FullRun(t *testing.T) {
	r := newTestSQLiteReporter(t)

	r.TestStart("tc-1", "checkout flow")
	r.StepStart("A", "create order", "http.request")
	r.StepEnd("A", true, map[string]any{"status_code": 200})
	r.StepSkipped("B", "rollback", "nop", "no prior step has failed")
	r.TestEnd("tc-1", true)

	report, err := r.GenerateReport()
	require.NoError(t, err)

	rep, ok := report.(sqliteReport)
	require.True(t, ok)
	assert.Equal(t, "checkout flow", rep.Name)
	assert.Equal(t, "passed", rep.Status)
	require.Len(t, rep.Steps, 2)
	assert.Equal(t, "A", rep.Steps[0].Name)
	assert.Equal(t, "passed", rep.Steps[0].Status)
	assert.Equal(t, "B", rep.Steps[1].Name)
	assert.Equal(t, "skipped", rep.Steps[1].Status)
}

func TestSQLiteReporter_FailedRun(t *testing.T) {
	r := newTestSQLiteReporter(t)

	r.TestStart("tc-2", "failing flow")
	r.StepStart("A", "step a", "fail")
	r.StepEnd("A", false, map[string]any{"error": "boom"})
	r.TestEnd("tc-2", false)

	report, err := r.GenerateReport()
	require.NoError(t, err)

	rep := report.(sqliteReport)
	assert.Equal(t, "failed", rep.Status)
	require.Len(t, rep.Steps, 1)
	assert.Equal(t, "failed", rep.Steps[0].Status)
}

func TestSQLiteReporter_SeparateRunsDoNotMix(t *testing.T) {
	r := newTestSQLiteReporter(t)

	r.TestStart("tc-1", "run one")
	r.StepStart("A", "a", "nop")
	r.StepEnd("A", true, nil)
	r.TestEnd("tc-1", true)

	r.TestStart("tc-2", "run two")
	r.StepStart("X", "x", "nop")
	r.StepEnd("X", true, nil)
	r.TestEnd("tc-2", true)

	report, err := r.GenerateReport()
	require.NoError(t, err)

	rep := report.(sqliteReport)
	assert.Equal(t, "run two", rep.Name)
	require.Len(t, rep.Steps, 1)
	assert.Equal(t, "X", rep.Steps[0].Name)
}
