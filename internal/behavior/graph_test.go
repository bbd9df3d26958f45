package behavior

import (
	"context"
	"testing"

	"github.com/protoloop/loopcore/internal/loop"
)

func TestBuildGraph_ConnectsSimilarAgents(t *testing.T) {
	// Two decisive logic-focused agents and one contemplative outlier.
	decisive := func() []loop.DecisionRecord {
		h := makeHistory(t, 6, 2, []string{"LOGIC"}, []float64{0.9})
		for i := range h {
			h[i].CognitiveImpact = map[string]float64{"logic": 0.3}
		}
		return h
	}
	outlier := makeHistory(t, 6, 10, []string{"FEAR", "COMPASSION"}, []float64{0.65})
	for i := range outlier {
		outlier[i].CognitiveImpact = map[string]float64{"fear": 0.3}
	}

	g, err := BuildGraph(context.Background(), map[string][]loop.DecisionRecord{
		"alpha": decisive(),
		"beta":  decisive(),
		"gamma": outlier,
	})
	if err != nil {
		t.Fatalf("BuildGraph: %v", err)
	}

	similar := g.FindSimilar("alpha", 0)
	if len(similar) != 1 {
		t.Fatalf("neighbors of alpha = %+v, want just beta", similar)
	}
	if similar[0].AgentID != "beta" || similar[0].Similarity <= similarityEdgeThreshold {
		t.Errorf("neighbor = %+v", similar[0])
	}
	if similar[0].Pattern != PatternDecisive {
		t.Errorf("neighbor pattern = %q, want decisive", similar[0].Pattern)
	}

	if got := g.FindSimilar("gamma", 0); len(got) != 0 {
		t.Errorf("outlier has neighbors: %+v", got)
	}
}

func TestBuildGraph_InsufficientHistoryStaysIsolated(t *testing.T) {
	short := makeHistory(t, 2, 2, []string{"LOGIC"}, []float64{0.9})
	full := makeHistory(t, 6, 2, []string{"LOGIC"}, []float64{0.9})

	g, err := BuildGraph(context.Background(), map[string][]loop.DecisionRecord{
		"rookie":  short,
		"veteran": full,
	})
	if err != nil {
		t.Fatalf("BuildGraph: %v", err)
	}

	p, ok := g.PatternFor("rookie")
	if !ok || p.Type != PatternInsufficientData {
		t.Errorf("rookie pattern = %+v", p)
	}
	if got := g.FindSimilar("rookie", 0); len(got) != 0 {
		t.Errorf("rookie has neighbors: %+v", got)
	}
	if got := g.FindSimilar("veteran", 0); len(got) != 0 {
		t.Errorf("veteran has neighbors: %+v", got)
	}
}

func TestGraph_FindSimilarLimitsAndOrders(t *testing.T) {
	g := &Graph{
		patterns: map[string]Pattern{
			"a": {Type: PatternDecisive},
			"b": {Type: PatternDecisive},
			"c": {Type: PatternBalanced},
			"d": {Type: PatternAdaptive},
		},
		edges: map[string]map[string]float64{
			"a": {"b": 0.9, "c": 0.7, "d": 0.65},
		},
	}

	got := g.FindSimilar("a", 2)
	if len(got) != 2 {
		t.Fatalf("neighbors = %d, want 2", len(got))
	}
	if got[0].AgentID != "b" || got[1].AgentID != "c" {
		t.Errorf("order = [%s %s], want [b c]", got[0].AgentID, got[1].AgentID)
	}

	if got := g.FindSimilar("unknown", 5); len(got) != 0 {
		t.Errorf("unknown agent has neighbors: %+v", got)
	}
}
