// Package remote runs pipelines in another process.
//
// The client writes, on the input stream of the remote runner, the protocol version,
// the environment and the pipeline, each one an independent msgpack value. It may
// then write a signal number at any time. The runner executes the pipeline on a
// worker goroutine and writes one record per row or error value on its output
// stream, which is closed at the end of the command. Meanwhile it keeps reading its
// input: a signal number is sent at once to every descendant process of the runner,
// and the end of the input sends them SIGTERM once the command is finished.
package remote
