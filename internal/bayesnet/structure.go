package bayesnet

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCycle is returned when an edge insertion would make the graph cyclic.
var ErrCycle = errors.New("bayesnet: edge would create a cycle")

// Structure is a directed acyclic graph over n labelled variables.
// Adjacency is stored as a flat row-major bool slice indexed by
// parent*n+child, so edge tests are a single slice lookup.
type Structure struct {
	n   int
	adj []bool
}

// NewStructure returns an empty DAG over n variables.
func NewStructure(n int) *Structure {
	return &Structure{n: n, adj: make([]bool, n*n)}
}

// NumVars returns the number of variables (nodes).
func (s *Structure) NumVars() int { return s.n }

// HasEdge reports whether the directed edge parent→child exists.
func (s *Structure) HasEdge(parent, child int) bool {
	return s.adj[parent*s.n+child]
}

// AddEdge inserts parent→child, rejecting self-loops and cycles.
func (s *Structure) AddEdge(parent, child int) error {
	if parent == child {
		return fmt.Errorf("bayesnet: self-loop on variable %d", parent)
	}
	if s.adj[parent*s.n+child] {
		return nil
	}
	// A cycle appears exactly when child already reaches parent.
	if s.reaches(child, parent) {
		return ErrCycle
	}
	s.adj[parent*s.n+child] = true
	return nil
}

// RemoveEdge deletes parent→child if present.
func (s *Structure) RemoveEdge(parent, child int) {
	s.adj[parent*s.n+child] = false
}

// Parents returns the parent set of child in ascending variable order.
func (s *Structure) Parents(child int) []int {
	var parents []int
	for p := 0; p < s.n; p++ {
		if s.adj[p*s.n+child] {
			parents = append(parents, p)
		}
	}
	return parents
}

// NumParents returns the in-degree of child.
func (s *Structure) NumParents(child int) int {
	count := 0
	for p := 0; p < s.n; p++ {
		if s.adj[p*s.n+child] {
			count++
		}
	}
	return count
}

// EdgeCount returns the total number of directed edges.
func (s *Structure) EdgeCount() int {
	count := 0
	for _, set := range s.adj {
		if set {
			count++
		}
	}
	return count
}

// Clone returns a deep copy.
func (s *Structure) Clone() *Structure {
	adj := make([]bool, len(s.adj))
	copy(adj, s.adj)
	return &Structure{n: s.n, adj: adj}
}

// Equal reports whether two structures have identical edge sets.
func (s *Structure) Equal(other *Structure) bool {
	if other == nil || s.n != other.n {
		return false
	}
	for i := range s.adj {
		if s.adj[i] != other.adj[i] {
			return false
		}
	}
	return true
}

// reaches reports whether dst is reachable from src by directed edges.
func (s *Structure) reaches(src, dst int) bool {
	if src == dst {
		return true
	}
	seen := make([]bool, s.n)
	stack := []int{src}
	seen[src] = true
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for c := 0; c < s.n; c++ {
			if !s.adj[v*s.n+c] || seen[c] {
				continue
			}
			if c == dst {
				return true
			}
			seen[c] = true
			stack = append(stack, c)
		}
	}
	return false
}

// TopoOrder returns a topological ordering of the variables. The receiver
// is always acyclic by construction, so the error only guards against a
// Structure assembled by bypassing AddEdge.
func (s *Structure) TopoOrder() ([]int, error) {
	indeg := make([]int, s.n)
	for p := 0; p < s.n; p++ {
		for c := 0; c < s.n; c++ {
			if s.adj[p*s.n+c] {
				indeg[c]++
			}
		}
	}
	order := make([]int, 0, s.n)
	queue := make([]int, 0, s.n)
	for v := 0; v < s.n; v++ {
		if indeg[v] == 0 {
			queue = append(queue, v)
		}
	}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		order = append(order, v)
		for c := 0; c < s.n; c++ {
			if s.adj[v*s.n+c] {
				indeg[c]--
				if indeg[c] == 0 {
					queue = append(queue, c)
				}
			}
		}
	}
	if len(order) != s.n {
		return nil, ErrCycle
	}
	return order, nil
}

// String renders the adjacency as a flat 0/1 string, parent-major.
func (s *Structure) String() string {
	var b strings.Builder
	b.Grow(len(s.adj))
	for _, set := range s.adj {
		if set {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}
