package reporter

import "sync"

// MultiReporter fans every event out to a fixed list of sinks, synchronously
// and in the order they were supplied. It is the synchronous counterpart of
// the teacher's channel-based event hub: spec §4.6 requires the Scheduler to
// await each Reporter call, so fan-out here is a direct call chain rather
// than a publish to independent subscriber goroutines.
type MultiReporter struct {
	mu      sync.Mutex
	sinks   []Reporter
}

var _ Reporter = (*MultiReporter)(nil)

// NewMultiReporter builds a MultiReporter over the given sinks. A nil sink
// is skipped rather than causing a later panic.
func NewMultiReporter(sinks ...Reporter) *MultiReporter {
	filtered := make([]Reporter, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			filtered = append(filtered, s)
		}
	}
	return &MultiReporter{sinks: filtered}
}

func (m *MultiReporter) TestStart(id, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sinks {
		s.TestStart(id, name)
	}
}

func (m *MultiReporter) StepStart(id, name, kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sinks {
		s.StepStart(id, name, kind)
	}
}

func (m *MultiReporter) StepEnd(id string, success bool, output any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sinks {
		s.StepEnd(id, success, output)
	}
}

func (m *MultiReporter) StepSkipped(id, name, kind, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sinks {
		s.StepSkipped(id, name, kind, reason)
	}
}

func (m *MultiReporter) TestEnd(id string, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sinks {
		s.TestEnd(id, success)
	}
}

// GenerateReport calls GenerateReport on every sink and returns their
// results keyed by position, since a MultiReporter has no single report
// shape of its own.
func (m *MultiReporter) GenerateReport() (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	reports := make([]any, len(m.sinks))
	for i, s := range m.sinks {
		r, err := s.GenerateReport()
		if err != nil {
			return nil, err
		}
		reports[i] = r
	}
	return reports, nil
}
