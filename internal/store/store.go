// Package store is an in-memory store for github.com/dominikbraun/graph graphs.
// Unlike the default store of the graph package, vertex properties can be updated
// once the vertex is added, and edges can be listed per vertex.
package store

import (
	"sync"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"
)

// Store holds the vertices and the edges of one graph. It is safe for concurrent use.
type Store[K comparable, T any] struct {
	lock       sync.RWMutex
	vertices   map[K]T
	properties map[K]*graph.VertexProperties

	// outgoing and incoming edges, indexed by both ends.
	outEdges map[K]map[K]graph.Edge[K]
	inEdges  map[K]map[K]graph.Edge[K]
}

// New creates an empty store.
func New[K comparable, T any]() *Store[K, T] {
	return &Store[K, T]{
		vertices:   map[K]T{},
		properties: map[K]*graph.VertexProperties{},
		outEdges:   map[K]map[K]graph.Edge[K]{},
		inEdges:    map[K]map[K]graph.Edge[K]{},
	}
}

func (s *Store[K, T]) AddVertex(k K, t T, p graph.VertexProperties) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.vertices[k]; ok {
		return graph.ErrVertexAlreadyExists
	}

	s.vertices[k] = t
	s.properties[k] = &p

	return nil
}

func (s *Store[K, T]) ListVertices() ([]K, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	keys := make([]K, 0, len(s.vertices))
	for k := range s.vertices {
		keys = append(keys, k)
	}

	return keys, nil
}

func (s *Store[K, T]) VertexCount() (int, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return len(s.vertices), nil
}

func (s *Store[K, T]) Vertex(k K) (T, graph.VertexProperties, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	v, ok := s.vertices[k]
	if !ok {
		return v, graph.VertexProperties{}, graph.ErrVertexNotFound
	}

	return v, *s.properties[k], nil
}

// UpdateVertex changes the properties of the vertex k.
func (s *Store[K, T]) UpdateVertex(k K, options ...func(*graph.VertexProperties)) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	p, ok := s.properties[k]
	if !ok {
		return errors.Wrapf(graph.ErrVertexNotFound, "%v", k)
	}

	for _, opt := range options {
		opt(p)
	}

	return nil
}

func (s *Store[K, T]) RemoveVertex(k K) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.vertices[k]; !ok {
		return graph.ErrVertexNotFound
	}

	if len(s.inEdges[k]) > 0 || len(s.outEdges[k]) > 0 {
		return graph.ErrVertexHasEdges
	}

	delete(s.inEdges, k)
	delete(s.outEdges, k)
	delete(s.vertices, k)
	delete(s.properties, k)

	return nil
}

func (s *Store[K, T]) AddEdge(source, target K, edge graph.Edge[K]) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.outEdges[source]; !ok {
		s.outEdges[source] = map[K]graph.Edge[K]{}
	}

	if _, ok := s.inEdges[target]; !ok {
		s.inEdges[target] = map[K]graph.Edge[K]{}
	}

	s.outEdges[source][target] = edge
	s.inEdges[target][source] = edge

	return nil
}

func (s *Store[K, T]) UpdateEdge(source, target K, edge graph.Edge[K]) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.outEdges[source][target]; !ok {
		return graph.ErrEdgeNotFound
	}

	s.outEdges[source][target] = edge
	s.inEdges[target][source] = edge

	return nil
}

func (s *Store[K, T]) RemoveEdge(source, target K) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	delete(s.inEdges[target], source)
	delete(s.outEdges[source], target)

	return nil
}

func (s *Store[K, T]) Edge(source, target K) (graph.Edge[K], error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	edge, ok := s.outEdges[source][target]
	if !ok {
		return graph.Edge[K]{}, graph.ErrEdgeNotFound
	}

	return edge, nil
}

func (s *Store[K, T]) ListEdges() ([]graph.Edge[K], error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	edges := []graph.Edge[K]{}
	for _, out := range s.outEdges {
		for _, edge := range out {
			edges = append(edges, edge)
		}
	}

	return edges, nil
}

// Successors returns the targets of the edges leaving k.
func (s *Store[K, T]) Successors(k K) []K {
	s.lock.RLock()
	defer s.lock.RUnlock()

	keys := make([]K, 0, len(s.outEdges[k]))
	for target := range s.outEdges[k] {
		keys = append(keys, target)
	}

	return keys
}

// CreatesCycle reports whether an edge from source to target would create a cycle,
// walking the incoming edges of source.
func (s *Store[K, T]) CreatesCycle(source, target K) (bool, error) {
	if _, _, err := s.Vertex(source); err != nil {
		return false, errors.Wrapf(err, "could not get vertex %v", source)
	}

	if _, _, err := s.Vertex(target); err != nil {
		return false, errors.Wrapf(err, "could not get vertex %v", target)
	}

	if source == target {
		return true, nil
	}

	s.lock.RLock()
	defer s.lock.RUnlock()

	stack := []K{source}
	visited := map[K]struct{}{}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, ok := visited[current]; ok {
			continue
		}

		// target is an ancestor of source.
		if current == target {
			return true, nil
		}

		visited[current] = struct{}{}

		for parent := range s.inEdges[current] {
			stack = append(stack, parent)
		}
	}

	return false, nil
}
