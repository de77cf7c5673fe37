package drawer

import (
	"io"
	"time"

	"github.com/pkg/errors"

	"github.com/askiada/go-objshell/pkg/pipeline/measure"
	"github.com/askiada/go-objshell/pkg/pipeline/model"
)

type pipelineDrawer struct {
	Drawer
	m         measure.Measure
	w         io.Writer
	startTime time.Time
}

func (pd *pipelineDrawer) New() error {
	err := pd.AddOp(model.StartOp.Name, model.StartOp.Kind)
	if err != nil {
		return errors.Wrap(err, "unable to add start op to drawer")
	}

	err = pd.AddOp(model.EndOp.Name, model.EndOp.Kind)
	if err != nil {
		return errors.Wrap(err, "unable to add end op to drawer")
	}

	return nil
}

func (pd *pipelineDrawer) PrepareOp(parentOp, op *model.OpInfo) error {
	if parentOp == model.StartOp {
		pd.startTime = time.Now()
	}

	err := pd.AddOp(op.Name, op.Kind)
	if err != nil {
		return err
	}

	return pd.AddLink(parentOp.Name, op.Name)
}

func (pd *pipelineDrawer) PrepareEnd(lastOp *model.OpInfo) error {
	return pd.AddLink(lastOp.Name, model.EndOp.Name)
}

func (pd *pipelineDrawer) OnOpInput(*model.OpInfo, time.Duration) error {
	return nil
}

func (pd *pipelineDrawer) OnOpError(*model.OpInfo, *model.Error) error {
	return nil
}

func (pd *pipelineDrawer) Finish() error {
	if pd.m != nil {
		err := pd.SetTotalTime(model.EndOp.Name, pd.startTime)
		if err != nil {
			return errors.Wrap(err, "unable to set total time")
		}

		err = pd.AddMeasure(pd.m)
		if err != nil {
			return errors.Wrap(err, "unable to add measure")
		}
	}

	err := pd.Draw(pd.w)
	if err != nil {
		return errors.Wrap(err, "unable to draw pipeline")
	}

	return nil
}

// PipelineDrawer draws the pipeline to w once its command is finished. measure may be nil.
func PipelineDrawer(drawer Drawer, measure measure.Measure, w io.Writer) model.PipelineOption {
	return &pipelineDrawer{Drawer: drawer, m: measure, w: w, startTime: time.Now()}
}
