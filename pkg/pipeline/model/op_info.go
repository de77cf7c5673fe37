package model

// OpKind classifies ops for the pipeline options.
type OpKind string

const (
	GeneratorOpKind   OpKind = "generator"
	TransformerOpKind OpKind = "transformer"
	NestedOpKind      OpKind = "nested"
	SinkOpKind        OpKind = "sink"
	BoundaryOpKind    OpKind = "boundary"
)

// OpInfo describes an op to the pipeline options.
type OpInfo struct {
	Name  string
	Kind  OpKind
	Index int
}

var (
	StartOp = &OpInfo{Name: "start", Kind: BoundaryOpKind, Index: -1}
	EndOp   = &OpInfo{Name: "end", Kind: BoundaryOpKind, Index: -1}
)
