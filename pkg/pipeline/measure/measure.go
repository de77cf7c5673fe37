package measure

import (
	"sync"

	"github.com/askiada/go-objshell/pkg/pipeline/model"
)

type DefaultMeasure struct {
	mu  sync.Mutex
	ops map[string]Metric
}

func NewDefaultMeasure() *DefaultMeasure {
	return &DefaultMeasure{
		ops: make(map[string]Metric),
	}
}

func (m *DefaultMeasure) AddMetric(name string, kind model.OpKind) Metric {
	m.mu.Lock()
	defer m.mu.Unlock()

	if mt, ok := m.ops[name]; ok {
		return mt
	}

	mt := &DefaultMetric{kind: kind}
	m.ops[name] = mt

	return mt
}

// Metric returns the metric of the op called name, or nil.
func (m *DefaultMeasure) Metric(name string) Metric {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.ops[name]
}

func (m *DefaultMeasure) AllMetrics() map[string]Metric {
	m.mu.Lock()
	defer m.mu.Unlock()

	all := make(map[string]Metric, len(m.ops))
	for name, mt := range m.ops {
		all[name] = mt
	}

	return all
}

var _ Measure = (*DefaultMeasure)(nil)
