package consensus

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
)

// Graph is the fixed agent connectivity structure: adjacency over m agents
// used both for message passing (each agent reads its in-neighbors'
// previous-round state) and for the 2*diameter+1 termination threshold.
type Graph struct {
	adj      [][]bool // adj[i][j]: directed edge i -> j
	diameter int
}

// NewGraph validates a square adjacency matrix, requires strong
// connectivity, and precomputes the diameter.
func NewGraph(adj [][]bool) (*Graph, error) {
	m := len(adj)
	if m == 0 {
		return nil, configErrorf("connectivity matrix is empty")
	}
	for i, row := range adj {
		if len(row) != m {
			return nil, configErrorf("connectivity row %d has %d entries, want %d", i, len(row), m)
		}
	}
	d, ok := diameterOf(adj)
	if !ok {
		return nil, configErrorf("connectivity graph is not strongly connected")
	}
	return &Graph{adj: adj, diameter: d}, nil
}

// Size is the agent count m.
func (g *Graph) Size() int { return len(g.adj) }

// Diameter is the maximum shortest-path length between any pair of agents.
func (g *Graph) Diameter() int { return g.diameter }

// InNeighbors returns the agents with an edge into i, excluding i itself.
func (g *Graph) InNeighbors(i int) []int {
	var in []int
	for j := range g.adj {
		if j != i && g.adj[j][i] {
			in = append(in, j)
		}
	}
	return in
}

// InDegree is len(InNeighbors(i)).
func (g *Graph) InDegree(i int) int {
	n := 0
	for j := range g.adj {
		if j != i && g.adj[j][i] {
			n++
		}
	}
	return n
}

// Adjacency returns a copy of the adjacency matrix.
func (g *Graph) Adjacency() [][]bool {
	out := make([][]bool, len(g.adj))
	for i, row := range g.adj {
		out[i] = append([]bool(nil), row...)
	}
	return out
}

func diameterOf(adj [][]bool) (int, bool) {
	m := len(adj)
	if m == 1 {
		return 0, true
	}
	dg := simple.NewDirectedGraph()
	for i := 0; i < m; i++ {
		dg.AddNode(simple.Node(i))
	}
	for i := 0; i < m; i++ {
		for j := 0; j < m; j++ {
			if i != j && adj[i][j] {
				dg.SetEdge(dg.NewEdge(simple.Node(i), simple.Node(j)))
			}
		}
	}
	paths, _ := path.FloydWarshall(dg)
	diam := 0.0
	for i := 0; i < m; i++ {
		for j := 0; j < m; j++ {
			if i == j {
				continue
			}
			w := paths.Weight(int64(i), int64(j))
			if math.IsInf(w, 1) {
				return 0, false
			}
			if w > diam {
				diam = w
			}
		}
	}
	return int(diam), true
}

// RandomConnected generates a strongly connected graph over m agents whose
// diameter does not exceed maxDiameter: a bidirectional ring plus random
// chords until the bound holds. The graph is fixed for the entire run.
func RandomConnected(m, maxDiameter int, rng *rand.Rand) (*Graph, error) {
	if m < 1 {
		return nil, configErrorf("agent count must be positive, got %d", m)
	}
	if maxDiameter < 1 && m > 1 {
		return nil, configErrorf("diameter bound must be positive, got %d", maxDiameter)
	}
	adj := make([][]bool, m)
	for i := range adj {
		adj[i] = make([]bool, m)
	}
	for i := 0; i < m; i++ {
		j := (i + 1) % m
		if i != j {
			adj[i][j] = true
			adj[j][i] = true
		}
	}
	for {
		d, _ := diameterOf(adj)
		if d <= maxDiameter {
			break
		}
		i := rng.Intn(m)
		j := rng.Intn(m)
		if i == j {
			continue
		}
		adj[i][j] = true
		adj[j][i] = true
	}
	return NewGraph(adj)
}
