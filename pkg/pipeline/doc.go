// Package pipeline provides the execution engine of the shell: ops chained into pipelines.
//
// A pipeline is an ordered chain of ops. Rows are pushed from op to op: an op receives one
// input, and calls Send zero or more times to pass results to its receiver, which is normally
// the next op. When the input stream ends, each op calls SendComplete exactly once. Execution
// is synchronous and single-threaded, no op ever waits on a downstream result.
//
// Before any row flows, a pipeline goes through two setup phases. Setup1 initialises the local
// state of every op and validates the structure of the pipeline, for instance an op generating
// values must be the first one. Setup2 runs once every op has completed Setup1, it is where ops
// taking pipelines as arguments copy them.
//
// Pipelines tolerate per-row failures. An op reports a row failure as an Error value, which is
// passed to the error handler of the pipeline and usually forwarded downstream, in stream order
// with the regular rows. A failure which makes the whole command meaningless (bad arguments, an
// op in the wrong position) is a Go error returned all the way up to Command.Execute.
//
// A pipeline can be the argument of an op. The receiver of the last op of such a nested pipeline
// is the receiver of the op holding it, so nested pipelines never need to be flattened.
package pipeline
