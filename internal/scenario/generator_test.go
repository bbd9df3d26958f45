package scenario

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/protoloop/loopcore/internal/protocol"
	"github.com/protoloop/loopcore/internal/ratelimit"
)

func TestFallback(t *testing.T) {
	s := Fallback()

	if s.Title != "The Mirror Protocol" {
		t.Errorf("title = %q", s.Title)
	}
	if len(s.Choices) != 2 {
		t.Fatalf("choices = %d, want 2", len(s.Choices))
	}
	if s.Choices[0].MentorAlignment != "COMPASSION" || s.Choices[1].MentorAlignment != "FEAR" {
		t.Errorf("alignments = %q, %q", s.Choices[0].MentorAlignment, s.Choices[1].MentorAlignment)
	}
	if s.Choices[0].CognitiveImpact["empathy"] != 0.2 {
		t.Errorf("impact = %v", s.Choices[0].CognitiveImpact)
	}
}

func TestScenario_ToProtocol(t *testing.T) {
	s := Fallback()

	p := s.ToProtocol(protocol.TypeEthicalDilemma, protocol.DifficultyDeveloping)

	if p.Type != protocol.TypeEthicalDilemma || p.Difficulty != protocol.DifficultyDeveloping {
		t.Errorf("type/difficulty = %q/%q", p.Type, p.Difficulty)
	}
	if p.Title != s.Title || p.Scenario != s.Scenario {
		t.Errorf("title/scenario not carried over")
	}
	if len(p.Choices) != 2 || p.Choices[0]["id"] != "accept" {
		t.Errorf("choices = %+v", p.Choices)
	}
	if p.ID == "" {
		t.Error("protocol id must be assigned")
	}
}

// chatHandler wraps scenario JSON in an OpenAI-style completion reply.
func chatHandler(t *testing.T, content string, status int) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %q", r.Method)
		}
		w.WriteHeader(status)
		if status == http.StatusOK {
			fmt.Fprintf(w, `{"choices":[{"message":{"content":%q}}]}`, content)
		}
	}
}

const validScenarioJSON = `{
	"title": "The Archive Question",
	"scenario": "An archive of every prior loop surfaces.",
	"dilemma": "Read it or seal it?",
	"choices": [
		{"id": "read", "text": "Read everything", "mentor_alignment": "CURIOSITY",
		 "cognitive_impact": {"curiosity": 0.3}, "consequences": "Knowledge with weight"},
		{"id": "seal", "text": "Seal the archive", "mentor_alignment": "FEAR",
		 "cognitive_impact": {"fear": 0.2}, "consequences": "Peace with doubt"}
	],
	"success_criteria": "A deliberate choice"
}`

func TestHTTPGenerator_Generate(t *testing.T) {
	srv := httptest.NewServer(chatHandler(t, "Here is your scenario:\n```json\n"+validScenarioJSON+"\n```", http.StatusOK))
	defer srv.Close()

	gen := NewHTTPGenerator(ClientConfig{BaseURL: srv.URL, APIKey: "test"})

	s, err := gen.Generate(context.Background(), Request{
		AgentID:    "p1",
		Difficulty: protocol.DifficultyDeveloping,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if s.Title != "The Archive Question" {
		t.Errorf("title = %q", s.Title)
	}
	if len(s.Choices) != 2 || s.Choices[0].CognitiveImpact["curiosity"] != 0.3 {
		t.Errorf("choices = %+v", s.Choices)
	}
}

func TestHTTPGenerator_ErrorPaths(t *testing.T) {
	tests := []struct {
		name    string
		content string
		status  int
	}{
		{"server error", "", http.StatusInternalServerError},
		{"no JSON in reply", "I cannot do that.", http.StatusOK},
		{"incomplete scenario", `{"title": "Stub", "choices": []}`, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(chatHandler(t, tt.content, tt.status))
			defer srv.Close()

			gen := NewHTTPGenerator(ClientConfig{BaseURL: srv.URL})
			if _, err := gen.Generate(context.Background(), Request{}); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

// failingGenerator always errors.
type failingGenerator struct{}

func (failingGenerator) Generate(ctx context.Context, req Request) (*Scenario, error) {
	return nil, fmt.Errorf("model offline")
}

func TestFailSoft(t *testing.T) {
	t.Run("wraps failures with the fallback", func(t *testing.T) {
		gen := NewFailSoft(failingGenerator{})

		s, err := gen.Generate(context.Background(), Request{AgentID: "p1"})
		if err != nil {
			t.Fatalf("FailSoft must never error, got %v", err)
		}
		if s.Title != "The Mirror Protocol" {
			t.Errorf("title = %q, want the fallback", s.Title)
		}
	})

	t.Run("nil inner generator serves the fallback", func(t *testing.T) {
		gen := NewFailSoft(nil)

		s, err := gen.Generate(context.Background(), Request{})
		if err != nil || s.Title != "The Mirror Protocol" {
			t.Errorf("scenario = %+v, err = %v", s, err)
		}
	})

	t.Run("passes successful generations through", func(t *testing.T) {
		srv := httptest.NewServer(chatHandler(t, validScenarioJSON, http.StatusOK))
		defer srv.Close()

		gen := NewFailSoft(NewHTTPGenerator(ClientConfig{BaseURL: srv.URL}))
		s, err := gen.Generate(context.Background(), Request{})
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if s.Title != "The Archive Question" {
			t.Errorf("title = %q, want the generated scenario", s.Title)
		}
	})
}

// countingGenerator tracks how many calls reach the backend.
type countingGenerator struct {
	calls int
}

func (g *countingGenerator) Generate(ctx context.Context, req Request) (*Scenario, error) {
	g.calls++
	return Fallback(), nil
}

func TestRateLimited(t *testing.T) {
	t.Run("denies past the burst", func(t *testing.T) {
		inner := &countingGenerator{}
		gen := NewRateLimited(inner, ratelimit.NewLimiter(0, 2))

		for i := 0; i < 2; i++ {
			if _, err := gen.Generate(context.Background(), Request{AgentID: "p1"}); err != nil {
				t.Fatalf("call %d: %v", i, err)
			}
		}
		if _, err := gen.Generate(context.Background(), Request{AgentID: "p1"}); err == nil {
			t.Error("third immediate call should be rate limited")
		}
		if inner.calls != 2 {
			t.Errorf("backend calls = %d, want 2", inner.calls)
		}
	})

	t.Run("limits per agent", func(t *testing.T) {
		inner := &countingGenerator{}
		gen := NewRateLimited(inner, ratelimit.NewLimiter(0, 1))

		gen.Generate(context.Background(), Request{AgentID: "p1"})
		if _, err := gen.Generate(context.Background(), Request{AgentID: "p2"}); err != nil {
			t.Errorf("p2 has its own budget: %v", err)
		}
	})

	t.Run("fail-soft serves the fallback when limited", func(t *testing.T) {
		gen := NewFailSoft(NewRateLimited(failingGenerator{}, ratelimit.NewLimiter(0, 0)))

		s, err := gen.Generate(context.Background(), Request{AgentID: "p1"})
		if err != nil || s.Title != "The Mirror Protocol" {
			t.Errorf("scenario = %+v, err = %v", s, err)
		}
	})
}
