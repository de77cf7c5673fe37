package model

import "time"

// PipelineOption defines the interface for pipeline options.
type PipelineOption interface {
	// New initialises the pipeline option.
	New() error

	pipelineSetupOption
	pipelineRunOption

	// Finish runs after the command owning the pipeline is finished.
	Finish() error
}

// pipelineSetupOption defines the hooks called during the first setup phase.
type pipelineSetupOption interface {
	// PrepareOp runs once per op, parentOp is StartOp for the first op.
	PrepareOp(parentOp, op *OpInfo) error
	// PrepareEnd runs once, after the last op has been prepared.
	PrepareEnd(lastOp *OpInfo) error
}

// pipelineRunOption defines the hooks called while rows flow.
type pipelineRunOption interface {
	// OnOpInput runs everytime an op has processed one input.
	OnOpInput(op *OpInfo, computationDuration time.Duration) error
	// OnOpError runs everytime an op reports a row error.
	OnOpError(op *OpInfo, rowErr *Error) error
}
