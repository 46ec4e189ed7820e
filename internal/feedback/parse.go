package feedback

import (
	"encoding/json"
	"strings"

	"github.com/speechlens/speechlens-go/internal/errors"
)

// Parse extracts a Feedback object from raw LLM output. One strict
// strategy: strip any markdown code fence, locate the outermost JSON
// object, unmarshal, and require all four keys present with content.
// Anything else is a single errors.ErrFeedbackParse branch, the caller
// substitutes the deterministic Fallback.
func Parse(raw string) (Feedback, error) {
	candidate := stripCodeFence(strings.TrimSpace(raw))
	candidate = extractObject(candidate)
	if candidate == "" {
		return Feedback{}, errors.New(errors.ErrFeedbackParse).
			Component("feedback").
			Category(errors.CategoryFeedback).
			Context("reason", "no JSON object found").
			Build()
	}

	// Pointers distinguish a missing key from an empty value.
	var probe struct {
		Summary          *string   `json:"summary"`
		Strengths        *[]string `json:"strengths"`
		ImprovementAreas *[]string `json:"improvement_areas"`
		CoachingTips     *[]string `json:"coaching_tips"`
	}
	if err := json.Unmarshal([]byte(candidate), &probe); err != nil {
		return Feedback{}, errors.New(errors.Join(errors.ErrFeedbackParse, err)).
			Component("feedback").
			Category(errors.CategoryFeedback).
			Build()
	}
	if probe.Summary == nil || probe.Strengths == nil || probe.ImprovementAreas == nil || probe.CoachingTips == nil {
		return Feedback{}, errors.New(errors.ErrFeedbackParse).
			Component("feedback").
			Category(errors.CategoryFeedback).
			Context("reason", "required key missing").
			Build()
	}

	return Feedback{
		Summary:          *probe.Summary,
		Strengths:        *probe.Strengths,
		ImprovementAreas: *probe.ImprovementAreas,
		CoachingTips:     *probe.CoachingTips,
	}, nil
}

// stripCodeFence removes a surrounding ```json ... ``` or ``` ... ``` fence.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// extractObject returns the substring from the first '{' to the matching
// last '}', or empty when no object is present.
func extractObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return ""
	}
	return s[start : end+1]
}
