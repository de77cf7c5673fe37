package drawer

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"text/template"
	"time"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"
	"gopkg.in/go-playground/colors.v1" //nolint

	"github.com/askiada/go-objshell/internal/store"
	"github.com/askiada/go-objshell/pkg/pipeline/measure"
	"github.com/askiada/go-objshell/pkg/pipeline/model"
)

var kindColors = map[model.OpKind][3]uint8{
	model.GeneratorOpKind:   {204, 235, 197},
	model.TransformerOpKind: {222, 235, 247},
	model.NestedOpKind:      {254, 230, 206},
	model.SinkOpKind:        {239, 237, 245},
	model.BoundaryOpKind:    {240, 240, 240},
}

// DOTDrawer draws the pipeline graph in the DOT language.
type DOTDrawer struct {
	mu    sync.Mutex
	store *store.Store[string, string]
	graph graph.Graph[string, string]
	order []string
}

// NewDOTDrawer creates a new DOT drawer.
func NewDOTDrawer() *DOTDrawer {
	s := store.New[string, string]()

	return &DOTDrawer{
		store: s,
		graph: graph.NewWithStore(graph.StringHash, s, graph.Directed()),
	}
}

func (d *DOTDrawer) AddOp(name string, kind model.OpKind) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	rgb, ok := kindColors[kind]
	if !ok {
		rgb = kindColors[model.TransformerOpKind]
	}

	fill, err := colors.RGB(rgb[0], rgb[1], rgb[2])
	if err != nil {
		return errors.Wrap(err, "unable to get colour")
	}

	err = d.graph.AddVertex(name,
		graph.VertexAttribute("style", "filled"),
		graph.VertexAttribute("fillcolor", fill.ToHEX().String()),
		graph.VertexAttribute("tooltip", string(kind)),
	)
	if errors.Is(err, graph.ErrVertexAlreadyExists) {
		return nil
	}

	if err != nil {
		return errors.Wrap(err, "unable to add vertex")
	}

	d.order = append(d.order, name)

	return nil
}

// AddLink adds a link between parent and child ops.
func (d *DOTDrawer) AddLink(parentName, childName string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	err := d.graph.AddEdge(parentName, childName)
	if errors.Is(err, graph.ErrEdgeAlreadyExists) {
		return nil
	}

	if err != nil {
		return errors.Wrapf(err, "unable to add edge from %s to %s", parentName, childName)
	}

	return nil
}

// Draw writes the pipeline graph to w.
func (d *DOTDrawer) Draw(w io.Writer) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	desc, err := d.describe()
	if err != nil {
		return errors.Wrap(err, "unable to generate DOT description")
	}

	tpl, err := template.New("dotTemplate").Parse(dotTemplate)
	if err != nil {
		return errors.Wrap(err, "unable to parse template")
	}

	err = tpl.Execute(w, desc)
	if err != nil {
		return errors.Wrap(err, "unable to execute template")
	}

	return nil
}

func (d *DOTDrawer) SetTotalTime(name string, start time.Time) error {
	err := d.store.UpdateVertex(name, graph.VertexAttribute("xlabel", time.Since(start).String()))
	if err != nil {
		return errors.Wrap(err, "unable to set total time")
	}

	return nil
}

const maxRGB = 240

// AddMeasure labels every measured op with its average duration and counts, and colours
// the edge into it from blue (fastest) to red (slowest).
func (d *DOTDrawer) AddMeasure(msr measure.Measure) error {
	metrics := msr.AllMetrics()
	if len(metrics) == 0 {
		return nil
	}

	minValue, maxValue := time.Duration(-1), time.Duration(0)

	for _, mt := range metrics {
		avg := mt.AVGDuration()
		if minValue < 0 || avg < minValue {
			minValue = avg
		}

		if avg > maxValue {
			maxValue = avg
		}
	}

	for name, mt := range metrics {
		fraction := 1.0
		if maxValue > minValue {
			fraction = float64(mt.AVGDuration()-minValue) / float64(maxValue-minValue)
		}

		edgeColor, err := colors.RGB(uint8(maxRGB*fraction), 0, uint8(maxRGB-maxRGB*fraction)) //nolint
		if err != nil {
			return errors.Wrap(err, "unable to get colour")
		}

		label := fmt.Sprintf("avg: %s, in: %d", mt.AVGDuration(), mt.Inputs())
		if mt.Errors() > 0 {
			label += fmt.Sprintf(", errors: %d", mt.Errors())
		}

		err = d.store.UpdateVertex(name, graph.VertexAttribute("xlabel", label))
		if errors.Is(err, graph.ErrVertexNotFound) {
			continue
		}

		if err != nil {
			return errors.Wrap(err, "unable to update vertex")
		}

		for _, parent := range d.parents(name) {
			err := d.graph.UpdateEdge(parent, name,
				graph.EdgeAttribute("color", edgeColor.ToHEX().String()),
				graph.EdgeAttribute("penwidth", "2"),
			)
			if err != nil {
				return errors.Wrap(err, "unable to update edge")
			}
		}
	}

	return nil
}

func (d *DOTDrawer) parents(name string) []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	parents := []string{}

	for _, vertex := range d.order {
		for _, successor := range d.store.Successors(vertex) {
			if successor == name {
				parents = append(parents, vertex)
			}
		}
	}

	return parents
}

//nolint:lll //this is a template
const dotTemplate = `strict {{.GraphType}} {
	{{range $k, $v := .Attributes}}
		{{$k}}="{{$v}}";
	{{end}}
	{{range $s := .Statements}}
		"{{.Source}}" {{if .Target}}{{$.EdgeOperator}} "{{.Target}}" [ {{range $k, $v := .EdgeAttributes}}{{$k}}="{{$v}}", {{end}} weight={{.EdgeWeight}} ]{{else}}[ {{range $k, $v := .HTMLAttributes}}{{$k}}={{$v}}, {{end}} {{range $k, $v := .SourceAttributes}}{{$k}}="{{$v}}", {{end}} weight={{.SourceWeight}} ]{{end}};
	{{end}}
	}
	`

type description struct {
	GraphType    string
	Attributes   map[string]string
	EdgeOperator string
	Statements   []statement
}

type statement struct {
	Source           string
	Target           string
	SourceAttributes map[string]string
	HTMLAttributes   map[string]string
	EdgeAttributes   map[string]string
	SourceWeight     int
	EdgeWeight       int
}

// describe lists the vertices in insertion order, each followed by its edges.
func (d *DOTDrawer) describe() (description, error) {
	desc := description{
		GraphType:    "digraph",
		Attributes:   map[string]string{"rankdir": "TB"},
		EdgeOperator: "->",
	}

	for _, vertex := range d.order {
		_, props, err := d.store.Vertex(vertex)
		if err != nil {
			return desc, errors.Wrap(err, "unable to get vertex properties")
		}

		attributes := make(map[string]string, len(props.Attributes))
		htmlAttributes := make(map[string]string)

		for k, v := range props.Attributes {
			if k == "xlabel" {
				htmlAttributes["label"] = fmt.Sprintf(`<%s <BR /> <FONT POINT-SIZE="12">%s</FONT>>`, vertex, v)

				continue
			}

			attributes[k] = v
		}

		desc.Statements = append(desc.Statements, statement{
			Source:           vertex,
			SourceWeight:     props.Weight,
			SourceAttributes: attributes,
			HTMLAttributes:   htmlAttributes,
		})

		successors := d.store.Successors(vertex)
		sort.Strings(successors)

		for _, successor := range successors {
			edge, err := d.store.Edge(vertex, successor)
			if err != nil {
				return desc, errors.Wrap(err, "unable to get edge")
			}

			desc.Statements = append(desc.Statements, statement{
				Source:         vertex,
				Target:         successor,
				EdgeWeight:     edge.Properties.Weight,
				EdgeAttributes: edge.Properties.Attributes,
			})
		}
	}

	return desc, nil
}

var _ Drawer = (*DOTDrawer)(nil)
