// Package model provides the data structures shared by the pipeline packages.
// It defines the values flowing between ops (rows and error values),
// the serializable form of a pipeline, and the options observing a pipeline.
package model
