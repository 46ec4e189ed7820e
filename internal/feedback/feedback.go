// Package feedback generates coaching feedback from a reconciled timeline
// via an external LLM service, with a deterministic local fallback.
package feedback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/speechlens/speechlens-go/internal/conf"
	"github.com/speechlens/speechlens-go/internal/logging"
	"github.com/speechlens/speechlens-go/internal/timeline"
)

// Feedback is the structured coaching result. The external contract
// requires exactly these four keys.
type Feedback struct {
	Summary          string   `json:"summary"`
	Strengths        []string `json:"strengths"`
	ImprovementAreas []string `json:"improvement_areas"`
	CoachingTips     []string `json:"coaching_tips"`
}

// Generator produces coaching feedback and chat-coach replies.
type Generator interface {
	Generate(ctx context.Context, entries []timeline.Entry) (Feedback, error)
	Chat(ctx context.Context, userInput, emotionContext string) (string, error)
	IsAvailable() bool
}

// LLMClient calls a Gemini-style generate-content HTTP API.
type LLMClient struct {
	url    string
	apiKey string
	model  string
	client *http.Client
	logger *slog.Logger
}

// NewLLMClient builds a feedback generator from service settings.
func NewLLMClient(settings *conf.ServiceSettings) *LLMClient {
	logger := logging.ForService("feedback")
	if logger == nil {
		logger = slog.Default().With("service", "feedback")
	}
	return &LLMClient{
		url:    settings.URL,
		apiKey: settings.APIKey,
		model:  settings.Model,
		client: &http.Client{Timeout: settings.Timeout},
		logger: logger,
	}
}

// IsAvailable reports whether the generator has a configured endpoint.
func (c *LLMClient) IsAvailable() bool {
	return c.url != ""
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Generate builds the analysis prompt for the timeline, calls the LLM and
// parses the structured result. Callers substitute Fallback on error, a
// parse failure must never reach the end user.
func (c *LLMClient) Generate(ctx context.Context, entries []timeline.Entry) (Feedback, error) {
	if !c.IsAvailable() {
		return Feedback{}, fmt.Errorf("feedback service not configured")
	}

	prompt := BuildAnalysisPrompt(entries)
	raw, err := c.generateContent(ctx, prompt)
	if err != nil {
		return Feedback{}, err
	}

	fb, err := Parse(raw)
	if err != nil {
		c.logger.Warn("feedback response unparseable, caller will fall back",
			"response_length", len(raw), "error", err)
		return Feedback{}, err
	}
	return fb, nil
}

// Chat generates a conversational coach reply grounded in the user's
// emotion timeline.
func (c *LLMClient) Chat(ctx context.Context, userInput, emotionContext string) (string, error) {
	if !c.IsAvailable() {
		return "", fmt.Errorf("feedback service not configured")
	}
	raw, err := c.generateContent(ctx, BuildChatPrompt(userInput, emotionContext))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(raw), nil
}

func (c *LLMClient) generateContent(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.url, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-goog-api-key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("generate %s: %s", resp.Status, string(body))
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("generate decode: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("generate returned no candidates")
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}
