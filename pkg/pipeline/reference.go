package pipeline

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const referencePrefix = "pipeline:"

var ErrBadReference = errors.New("incorrect pipeline reference")

// Reference returns the token standing for the pipeline argument at index.
func Reference(index int) string {
	return referencePrefix + strconv.Itoa(index)
}

// IsReference reports whether arg is a pipeline reference token.
func IsReference(arg string) bool {
	return strings.HasPrefix(arg, referencePrefix)
}

// ExtractPipelines replaces every pipeline of args by a reference token, so that args can be parsed
// as text. The pipelines are returned in the order of their tokens.
func ExtractPipelines(args []any) ([]string, []*Pipeline) {
	texts := make([]string, 0, len(args))
	pipelines := []*Pipeline{}

	for _, arg := range args {
		switch a := arg.(type) {
		case *Pipeline:
			texts = append(texts, Reference(len(pipelines)))
			pipelines = append(pipelines, a)
		case string:
			texts = append(texts, a)
		default:
			texts = append(texts, fmt.Sprint(a))
		}
	}

	return texts, pipelines
}

// ResolveReference returns the pipeline a reference token stands for.
func ResolveReference(arg string, pipelines []*Pipeline) (*Pipeline, error) {
	if !IsReference(arg) {
		return nil, errors.Wrap(ErrBadReference, arg)
	}

	index, err := strconv.Atoi(arg[len(referencePrefix):])
	if err != nil || index < 0 || index >= len(pipelines) {
		return nil, errors.Wrap(ErrBadReference, arg)
	}

	return pipelines[index], nil
}
