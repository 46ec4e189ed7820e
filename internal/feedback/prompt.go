package feedback

import (
	"fmt"
	"math"
	"strings"

	"github.com/speechlens/speechlens-go/internal/timeline"
)

// Optimal coaching ranges referenced throughout the prompts.
const (
	optimalWPSMin       = 2.0
	optimalWPSMax       = 3.0
	optimalVariationMin = 0.3
	optimalVariationMax = 0.7

	// Per-segment flagging bounds.
	fastSegmentWPS = 3.0
	slowSegmentWPS = 1.0
)

const responseShape = `Your response must be EXACTLY in this JSON structure:
{
  "summary": "Your overall analysis and key observations",
  "improvement_areas": ["Area 1", "Area 2", "Area 3"],
  "strengths": ["Strength 1", "Strength 2"],
  "coaching_tips": ["Tip 1", "Tip 2", "Tip 3"]
}`

// BuildAnalysisPrompt renders the coaching prompt for a timeline. Timelines
// without transcript content get the simpler emotion-only prompt.
func BuildAnalysisPrompt(entries []timeline.Entry) string {
	if !hasTranscript(entries) {
		return buildEmotionOnlyPrompt(entries)
	}

	var blocks []string
	var issues []string
	var wpsValues []float64

	for _, e := range entries {
		blocks = append(blocks, fmt.Sprintf("%s | WPS: %.2f | Emotion: %s | Text: %q",
			e.TimeRange(), e.WordsPerSecond, e.Emotion, e.Text))
		wpsValues = append(wpsValues, e.WordsPerSecond)

		if e.WordsPerSecond > fastSegmentWPS {
			issues = append(issues, fmt.Sprintf("- Segment at %s is too fast (%.2f WPS)", e.TimeRange(), e.WordsPerSecond))
		} else if e.WordsPerSecond < slowSegmentWPS {
			issues = append(issues, fmt.Sprintf("- Segment at %s is too slow (%.2f WPS)", e.TimeRange(), e.WordsPerSecond))
		}
	}

	avgWPS := promptMean(wpsValues)
	variation := promptStdDev(wpsValues)
	transitions := 0
	for i := 1; i < len(entries); i++ {
		if entries[i].Emotion != entries[i-1].Emotion {
			transitions++
		}
	}

	rateStatus := rangeStatus(avgWPS, optimalWPSMin, optimalWPSMax, "too slow", "too fast")
	variationStatus := rangeStatus(variation, optimalVariationMin, optimalVariationMax, "too low", "too high")

	issuesBlock := "  None identified"
	if len(issues) > 0 {
		issuesBlock = "  " + strings.Join(issues, "\n  ")
	}

	return fmt.Sprintf(`You are a professional speech coach analyzing speech transcript data. The following is a timeline of speech segments with transcriptions, speaking rate (words per second), and detected emotions:

%s

SPEECH METRICS ANALYSIS:
- Average speaking rate: %.2f WPS (optimal is %.1f-%.1f WPS) - CURRENT STATUS: %s
- Rate variation (standard deviation): %.2f WPS (optimal is %.1f-%.1f WPS) - CURRENT STATUS: %s
- Number of emotion transitions: %d
- Specific segments to improve:
%s

GUIDELINES:
- Only list genuine strengths; metrics outside optimal ranges belong in improvement_areas.
- Be honest and constructive.

IMPORTANT: Respond ONLY with valid JSON. Do not include any explanatory text, markdown formatting, or code blocks.

%s`,
		strings.Join(blocks, "\n"),
		avgWPS, optimalWPSMin, optimalWPSMax, strings.ToUpper(rateStatus),
		variation, optimalVariationMin, optimalVariationMax, strings.ToUpper(variationStatus),
		transitions,
		issuesBlock,
		responseShape)
}

// buildEmotionOnlyPrompt covers the fallback mode where transcription was
// unavailable and only the emotion timeline exists.
func buildEmotionOnlyPrompt(entries []timeline.Entry) string {
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("%s: %s", e.TimeRange(), e.Emotion))
	}

	return fmt.Sprintf(`You are a professional speech coach helping someone improve their communication skills.
Analyze the following emotion timeline from a speech:

%s

Based on this emotional pattern:
1. Provide a brief summary of the speaker's emotional journey
2. Identify 3 specific areas for improvement
3. Point out 2-3 emotional strengths
4. Give 3-5 practical coaching tips to help the speaker improve

IMPORTANT: Respond ONLY with valid JSON. Do not include any explanatory text, markdown formatting, or code blocks.

%s`, strings.Join(lines, "\n"), responseShape)
}

// BuildChatPrompt renders the chat-coach prompt.
func BuildChatPrompt(userInput, emotionContext string) string {
	return fmt.Sprintf(`You are a supportive and knowledgeable speech coach helping someone improve their communication.

The user's speech had these emotional patterns:
%s

The user is asking: %q

Provide helpful, specific coaching advice related to their question. Be encouraging but honest.
Keep your response concise (3-5 sentences) unless detailed instructions are needed.`, emotionContext, userInput)
}

// EmotionContext renders the timeline as "MM:SS - MM:SS: emotion" lines for
// use as chat context.
func EmotionContext(entries []timeline.Entry) string {
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("%s: %s", e.TimeRange(), e.Emotion))
	}
	return strings.Join(lines, "\n")
}

func hasTranscript(entries []timeline.Entry) bool {
	for _, e := range entries {
		if e.Text != "" || e.WordsPerSecond > 0 {
			return true
		}
	}
	return false
}

func rangeStatus(v, low, high float64, belowLabel, aboveLabel string) string {
	switch {
	case v < low:
		return belowLabel
	case v > high:
		return aboveLabel
	default:
		return "optimal"
	}
}

func promptMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func promptStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := promptMean(values)
	sumSq := 0.0
	for _, v := range values {
		d := v - m
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)-1))
}
