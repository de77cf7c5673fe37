package measure

import (
	"time"

	"github.com/askiada/go-objshell/pkg/pipeline/model"
)

// Measure holds the metrics of the ops of a pipeline, by op name.
type Measure interface {
	// AddMetric returns the metric of the op called name, creating it if needed.
	AddMetric(name string, kind model.OpKind) Metric
	Metric(name string) Metric
	AllMetrics() map[string]Metric
}

// Metric aggregates what happened to one op.
type Metric interface {
	AddDuration(elapsed time.Duration)
	AddError()
	Kind() model.OpKind
	Inputs() int64
	Errors() int64
	AVGDuration() time.Duration
	TotalDuration() time.Duration
}
