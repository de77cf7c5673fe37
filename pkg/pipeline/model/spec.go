package model

import "fmt"

// Version is the remote protocol version.
type Version struct {
	_msgpack struct{} `msgpack:",as_array"`

	Major int `yaml:"major"`
	Minor int `yaml:"minor"`
}

// ProtocolVersion is the version spoken by this module.
var ProtocolVersion = Version{Major: 1, Minor: 0}

// Compatible reports whether a server speaking v can run a pipeline sent by a client speaking client.
func (v Version) Compatible(client Version) bool {
	return v.Major == client.Major && client.Minor <= v.Minor
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// OpSpec is the serializable form of one op: its name, its text arguments and the
// pipelines referenced from the arguments by "pipeline:N" tokens.
type OpSpec struct {
	Op        string         `msgpack:"op" yaml:"op"`
	Args      []string       `msgpack:"args,omitempty" yaml:"args,omitempty"`
	Pipelines []PipelineSpec `msgpack:"pipelines,omitempty" yaml:"pipelines,omitempty"`
}

// PipelineSpec is the serializable form of a pipeline.
type PipelineSpec struct {
	Ops []OpSpec `msgpack:"ops" yaml:"ops"`
}

// EnvSnapshot is the part of an environment sent to a remote runner.
type EnvSnapshot struct {
	Vars map[string]any `msgpack:"vars" yaml:"vars"`
}
