package reporter

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// AllureStep is one step entry in an AllureResult, matching the subset of
// the Allure result schema (https://allurereport.org) spec §1's example
// report format implies: name, status, timing, and the captured output.
type AllureStep struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Output any    `json:"output,omitempty"`
	Start  int64  `json:"start"`
	Stop   int64  `json:"stop"`
}

// AllureResult is the Allure-shaped document a JSONReporter accumulates for
// a single test-case run.
type AllureResult struct {
	UUID   string       `json:"uuid"`
	Name   string       `json:"name"`
	Status string       `json:"status"`
	Start  int64        `json:"start"`
	Stop   int64        `json:"stop"`
	Steps  []AllureStep `json:"steps"`
}

// JSONReporter accumulates lifecycle events in memory and renders them as
// an AllureResult on GenerateReport, per spec §1's example sink ("an
// Allure-compatible JSON writer").
type JSONReporter struct {
	mu         sync.Mutex
	result     AllureResult
	stepStarts map[string]time.Time
}

var _ Reporter = (*JSONReporter)(nil)

// NewJSONReporter creates an empty JSONReporter.
func NewJSONReporter() *JSONReporter {
	return &JSONReporter{stepStarts: make(map[string]time.Time)}
}

func (j *JSONReporter) TestStart(id, name string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if name == "" {
		name = id
	}
	j.result = AllureResult{UUID: uuid.NewString(), Name: name, Start: time.Now().UnixMilli()}
}

func (j *JSONReporter) StepStart(id, name, kind string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.stepStarts[id] = time.Now()
}

func (j *JSONReporter) StepEnd(id string, success bool, output any) {
	j.mu.Lock()
	defer j.mu.Unlock()

	status := "passed"
	if !success {
		status = "failed"
	}
	j.result.Steps = append(j.result.Steps, AllureStep{
		Name:   id,
		Status: status,
		Output: output,
		Start:  j.stepStarts[id].UnixMilli(),
		Stop:   time.Now().UnixMilli(),
	})
}

func (j *JSONReporter) StepSkipped(id, name, kind, reason string) {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := time.Now().UnixMilli()
	j.result.Steps = append(j.result.Steps, AllureStep{
		Name:   id,
		Status: "skipped",
		Output: reason,
		Start:  now,
		Stop:   now,
	})
}

func (j *JSONReporter) TestEnd(id string, success bool) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.result.Stop = time.Now().UnixMilli()
	if success {
		j.result.Status = "passed"
	} else {
		j.result.Status = "failed"
	}
}

// GenerateReport returns the accumulated AllureResult. Safe to call more
// than once; later calls reflect whatever has happened since.
func (j *JSONReporter) GenerateReport() (any, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result, nil
}
