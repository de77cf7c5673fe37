package measure

import (
	"sync"
	"time"

	"github.com/askiada/go-objshell/pkg/pipeline/model"
)

type DefaultMetric struct {
	mu      sync.Mutex
	kind    model.OpKind
	elapsed time.Duration
	inputs  int64
	errors  int64
}

func (mt *DefaultMetric) AddDuration(elapsed time.Duration) {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	mt.inputs++
	mt.elapsed += elapsed
}

func (mt *DefaultMetric) AddError() {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	mt.errors++
}

func (mt *DefaultMetric) Kind() model.OpKind {
	return mt.kind
}

func (mt *DefaultMetric) Inputs() int64 {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	return mt.inputs
}

func (mt *DefaultMetric) Errors() int64 {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	return mt.errors
}

// AVGDuration returns the average time spent on one input, downstream ops included.
func (mt *DefaultMetric) AVGDuration() time.Duration {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	if mt.inputs == 0 {
		return 0
	}

	return round(time.Duration(float64(mt.elapsed) / float64(mt.inputs)))
}

func (mt *DefaultMetric) TotalDuration() time.Duration {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	return round(mt.elapsed)
}

func round(d time.Duration) time.Duration {
	switch {
	case d > time.Hour:
		return d.Round(time.Hour)
	case d > time.Minute:
		return d.Round(time.Minute)
	case d > time.Second:
		return d.Round(time.Second)
	case d > time.Millisecond:
		return d.Round(time.Millisecond)
	case d > time.Microsecond:
		return d.Round(time.Microsecond)
	default:
		return d
	}
}
