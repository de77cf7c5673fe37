package drawer

import (
	"io"
	"time"

	"github.com/askiada/go-objshell/pkg/pipeline/measure"
	"github.com/askiada/go-objshell/pkg/pipeline/model"
)

// Drawer is an interface that defines the methods for drawing a pipeline.
type Drawer interface {
	// AddOp adds an op to the pipeline drawer. Adding the same op twice is a no-op.
	AddOp(name string, kind model.OpKind) error
	// AddLink adds a link between parent and child ops.
	AddLink(parentName, childName string) error
	// Draw writes the pipeline graph to w.
	Draw(w io.Writer) error
	// SetTotalTime labels the op with the time elapsed since start.
	SetTotalTime(name string, start time.Time) error
	// AddMeasure adds a measure to the pipeline drawer.
	AddMeasure(measure measure.Measure) error
}
