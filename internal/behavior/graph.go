package behavior

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/protoloop/loopcore/internal/loop"
)

// similarityEdgeThreshold: agents connect only when clearly alike.
const similarityEdgeThreshold = 0.6

// Graph connects agents whose decision patterns are similar. It is
// rebuilt wholesale from a snapshot of all histories; reads are safe
// concurrently with a rebuild of another Graph instance.
type Graph struct {
	mu       sync.RWMutex
	patterns map[string]Pattern
	edges    map[string]map[string]float64
}

// BuildGraph analyzes every agent's history (fanned out per agent) and
// connects pairs whose similarity exceeds the edge threshold.
func BuildGraph(ctx context.Context, histories map[string][]loop.DecisionRecord) (*Graph, error) {
	g := &Graph{
		patterns: make(map[string]Pattern, len(histories)),
		edges:    make(map[string]map[string]float64),
	}

	eg, ctx := errgroup.WithContext(ctx)
	var mu sync.Mutex

	for agentID, history := range histories {
		agentID, history := agentID, history
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p := AnalyzePattern(agentID, history)
			mu.Lock()
			g.patterns[agentID] = p
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(g.patterns))
	for id := range g.patterns {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for i, a := range ids {
		for _, b := range ids[i+1:] {
			sim := Similarity(g.patterns[a], g.patterns[b])
			if sim > similarityEdgeThreshold {
				g.addEdge(a, b, sim)
			}
		}
	}
	return g, nil
}

func (g *Graph) addEdge(a, b string, weight float64) {
	if g.edges[a] == nil {
		g.edges[a] = make(map[string]float64)
	}
	if g.edges[b] == nil {
		g.edges[b] = make(map[string]float64)
	}
	g.edges[a][b] = weight
	g.edges[b][a] = weight
}

// PatternFor returns the analyzed pattern of an agent in the graph.
func (g *Graph) PatternFor(agentID string) (Pattern, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	p, ok := g.patterns[agentID]
	return p, ok
}

// Neighbor is an agent connected to the queried one.
type Neighbor struct {
	AgentID    string      `json:"agent_id"`
	Similarity float64     `json:"similarity"`
	Pattern    PatternType `json:"pattern"`
}

// FindSimilar returns up to limit neighbors ordered by descending
// similarity. Unknown agents have no neighbors. limit <= 0 means 5.
func (g *Graph) FindSimilar(agentID string, limit int) []Neighbor {
	if limit <= 0 {
		limit = 5
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	neighbors := make([]Neighbor, 0, len(g.edges[agentID]))
	for other, sim := range g.edges[agentID] {
		neighbors = append(neighbors, Neighbor{
			AgentID:    other,
			Similarity: sim,
			Pattern:    g.patterns[other].Type,
		})
	}

	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].Similarity != neighbors[j].Similarity {
			return neighbors[i].Similarity > neighbors[j].Similarity
		}
		return neighbors[i].AgentID < neighbors[j].AgentID
	})

	if len(neighbors) > limit {
		neighbors = neighbors[:limit]
	}
	return neighbors
}
