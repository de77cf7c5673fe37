package measure

import (
	"time"

	"github.com/askiada/go-objshell/pkg/pipeline/model"
)

type pipelineMeasure struct {
	Measure
}

func (pm *pipelineMeasure) New() error {
	return nil
}

func (pm *pipelineMeasure) PrepareOp(_, op *model.OpInfo) error {
	pm.AddMetric(op.Name, op.Kind)

	return nil
}

func (pm *pipelineMeasure) PrepareEnd(*model.OpInfo) error {
	return nil
}

func (pm *pipelineMeasure) OnOpInput(op *model.OpInfo, computationDuration time.Duration) error {
	pm.AddMetric(op.Name, op.Kind).AddDuration(computationDuration)

	return nil
}

func (pm *pipelineMeasure) OnOpError(op *model.OpInfo, _ *model.Error) error {
	pm.AddMetric(op.Name, op.Kind).AddError()

	return nil
}

func (pm *pipelineMeasure) Finish() error {
	return nil
}

// PipelineMeasure records the metrics of the ops of a pipeline in measure.
func PipelineMeasure(measure Measure) model.PipelineOption {
	return &pipelineMeasure{measure}
}
