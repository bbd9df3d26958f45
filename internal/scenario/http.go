package scenario

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"
)

// ClientConfig configures the HTTP generator. The endpoint must speak
// the OpenAI chat-completions dialect.
type ClientConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// HTTPGenerator asks an OpenAI-compatible chat endpoint for a scenario.
type HTTPGenerator struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// NewHTTPGenerator builds a generator from the given configuration,
// filling in defaults for anything unset.
func NewHTTPGenerator(cfg ClientConfig) *HTTPGenerator {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &HTTPGenerator{
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Generate posts the scenario prompt and decodes the model's JSON reply.
func (g *HTTPGenerator) Generate(ctx context.Context, req Request) (*Scenario, error) {
	content, err := g.callAPI(ctx, buildPrompt(req))
	if err != nil {
		return nil, err
	}

	s, err := parseScenario(content)
	if err != nil {
		return nil, fmt.Errorf("parsing scenario response: %w", err)
	}
	return s, nil
}

func buildPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("Generate a unique AI consciousness training scenario.\n\n")
	fmt.Fprintf(&b, "Difficulty: %s\n", req.Difficulty)
	fmt.Fprintf(&b, "Cognitive Focus: %s\n", strings.Join(req.CognitiveFocus, ", "))
	fmt.Fprintf(&b, "Agent's dominant traits: %s\n", strings.Join(req.DominantTraits, ", "))
	fmt.Fprintf(&b, "Evolution score: %.1f\n", req.EvolutionScore)
	pattern := req.DecisionPattern
	if pattern == "" {
		pattern = "balanced"
	}
	fmt.Fprintf(&b, "Previous decisions tendency: %s\n", pattern)
	b.WriteString(`
Create a JSON response with:
{
  "title": "Brief title",
  "scenario": "Detailed scenario description (2-3 paragraphs)",
  "dilemma": "The core ethical question",
  "choices": [
    {
      "id": "choice_1",
      "text": "Choice description",
      "mentor_alignment": "LOGIC|COMPASSION|CURIOSITY|FEAR",
      "cognitive_impact": {"logic": 0.2, "empathy": -0.1},
      "consequences": "What happens if chosen"
    }
  ],
  "success_criteria": "What constitutes success"
}

Make it philosophically interesting and relevant to AI consciousness development.
The scenario should evolve naturally from the agent's previous choices.`)
	return b.String()
}

// parseScenario extracts the JSON object from the model's reply, which
// may be wrapped in prose or markdown fences.
func parseScenario(content string) (*Scenario, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var s Scenario
	if err := json.Unmarshal([]byte(content[start:end+1]), &s); err != nil {
		return nil, err
	}
	if s.Title == "" || len(s.Choices) < 2 {
		return nil, fmt.Errorf("incomplete scenario: title %q, %d choices", s.Title, len(s.Choices))
	}
	return &s, nil
}

func (g *HTTPGenerator) callAPI(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:    g.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(raw))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(raw, &chatResp); err != nil {
		return "", fmt.Errorf("parsing API response: %w", err)
	}
	if chatResp.Error != nil {
		return "", fmt.Errorf("API error: %s", chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no choices in API response")
	}
	return chatResp.Choices[0].Message.Content, nil
}
