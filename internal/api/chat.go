package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/speechlens/speechlens-go/internal/feedback"
	"github.com/speechlens/speechlens-go/internal/timeline"
	"github.com/speechlens/speechlens-go/internal/tts"
)

type chatRequest struct {
	Message         string           `json:"message"`
	EmotionSegments []timeline.Entry `json:"emotion_segments"`
}

type chatResponse struct {
	Response string `json:"response"`
	AudioURL string `json:"audio_url,omitempty"`
}

// Chat produces a coach reply for a user message, grounded in the emotion
// timeline the client sends along. A spoken rendition is attached when the
// synthesizer is configured, its failure never fails the chat.
func (c *Controller) Chat(ctx echo.Context) error {
	var req chatRequest
	if err := ctx.Bind(&req); err != nil {
		return c.errorResponse(ctx, http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Message) == "" {
		return c.errorResponse(ctx, http.StatusBadRequest, "message cannot be empty")
	}

	reply := c.Pipeline.Chat(ctx.Request().Context(),
		req.Message, feedback.EmotionContext(req.EmotionSegments))

	response := chatResponse{Response: reply}
	if c.synthesizer != nil && c.synthesizer.IsAvailable() {
		audio, err := c.synthesizer.Synthesize(ctx.Request().Context(), reply)
		if err != nil {
			c.logger.Warn("chat speech synthesis failed", "error", err)
		} else {
			response.AudioURL = tts.DataURL(audio)
		}
	}

	return ctx.JSON(http.StatusOK, response)
}

type narrateRequest struct {
	Feedback feedback.Feedback `json:"feedback"`
	Section  string            `json:"section"`
}

type narrateResponse struct {
	AudioURL string `json:"audio_url"`
	Section  string `json:"section"`
}

// Narrate renders one section of a coaching feedback object to speech.
// Section is "summary", "strengths", "improvements", "tips" or "all"; an
// unknown or empty section narrates everything.
func (c *Controller) Narrate(ctx echo.Context) error {
	var req narrateRequest
	if err := ctx.Bind(&req); err != nil {
		return c.errorResponse(ctx, http.StatusBadRequest, "invalid request body")
	}

	section := req.Section
	if section == "" {
		section = "all"
	}

	text, err := narrationText(&req.Feedback, section)
	if err != nil {
		return c.errorResponse(ctx, http.StatusBadRequest, err.Error())
	}

	if c.synthesizer == nil || !c.synthesizer.IsAvailable() {
		return c.errorResponse(ctx, http.StatusServiceUnavailable, "speech synthesis not configured")
	}

	audio, err := c.synthesizer.Synthesize(ctx.Request().Context(), text)
	if err != nil {
		c.logger.Error("narration synthesis failed", "section", section, "error", err)
		return c.errorResponse(ctx, http.StatusInternalServerError, "failed to generate audio")
	}

	return ctx.JSON(http.StatusOK, narrateResponse{
		AudioURL: tts.DataURL(audio),
		Section:  section,
	})
}

// narrationText builds the spoken script for one feedback section.
func narrationText(fb *feedback.Feedback, section string) (string, error) {
	switch section {
	case "summary":
		if fb.Summary == "" {
			return "", errNarrateSection("summary")
		}
		return "Summary: " + fb.Summary, nil
	case "strengths":
		if len(fb.Strengths) == 0 {
			return "", errNarrateSection("strengths")
		}
		return "Your strengths include: " + strings.Join(fb.Strengths, ", "), nil
	case "improvements":
		if len(fb.ImprovementAreas) == 0 {
			return "", errNarrateSection("improvement areas")
		}
		return "Areas for improvement: " + strings.Join(fb.ImprovementAreas, ", "), nil
	case "tips":
		if len(fb.CoachingTips) == 0 {
			return "", errNarrateSection("coaching tips")
		}
		return "Here are some coaching tips: " + joinTips(fb.CoachingTips), nil
	default:
		var parts []string
		if fb.Summary != "" {
			parts = append(parts, "Summary: "+fb.Summary)
		}
		if len(fb.Strengths) > 0 {
			parts = append(parts, "Your strengths include: "+strings.Join(fb.Strengths, ", "))
		}
		if len(fb.ImprovementAreas) > 0 {
			parts = append(parts, "Areas for improvement: "+strings.Join(fb.ImprovementAreas, ", "))
		}
		if len(fb.CoachingTips) > 0 {
			parts = append(parts, "Here are some coaching tips: "+joinTips(fb.CoachingTips))
		}
		if len(parts) == 0 {
			return "", fmt.Errorf("no feedback content to narrate")
		}
		return strings.Join(parts, ". "), nil
	}
}

func joinTips(tips []string) string {
	numbered := make([]string, 0, len(tips))
	for i, tip := range tips {
		numbered = append(numbered, "Tip "+strconv.Itoa(i+1)+": "+tip)
	}
	return strings.Join(numbered, ". ")
}

func errNarrateSection(name string) error {
	return fmt.Errorf("%s section not available", name)
}
