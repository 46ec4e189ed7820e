package feedback

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/speechlens/speechlens-go/internal/emotion"
	"github.com/speechlens/speechlens-go/internal/timeline"
)

func TestBuildAnalysisPrompt(t *testing.T) {
	t.Parallel()

	entries := []timeline.Entry{
		{Start: 0, End: 5, Emotion: emotion.Happy, Text: "hello world", WordsPerSecond: 2.4},
		{Start: 5, End: 10, Emotion: emotion.Sad, Text: "slower now", WordsPerSecond: 0.4},
	}

	prompt := BuildAnalysisPrompt(entries)

	assert.Contains(t, prompt, "00:00 - 00:05 | WPS: 2.40 | Emotion: happy")
	assert.Contains(t, prompt, `Text: "hello world"`)
	assert.Contains(t, prompt, "Segment at 00:05 - 00:10 is too slow (0.40 WPS)")
	assert.Contains(t, prompt, "Number of emotion transitions: 1")
	assert.Contains(t, prompt, "Respond ONLY with valid JSON")
	assert.Contains(t, prompt, `"coaching_tips"`)
}

func TestBuildAnalysisPromptNoIssues(t *testing.T) {
	t.Parallel()

	entries := []timeline.Entry{
		{Start: 0, End: 5, Emotion: emotion.Calm, Text: "steady pace throughout here", WordsPerSecond: 2.2},
		{Start: 5, End: 10, Emotion: emotion.Calm, Text: "still steady and measured", WordsPerSecond: 2.5},
	}

	prompt := BuildAnalysisPrompt(entries)
	assert.Contains(t, prompt, "None identified")
	assert.Contains(t, prompt, "Number of emotion transitions: 0")
}

func TestBuildAnalysisPromptEmotionOnlyMode(t *testing.T) {
	t.Parallel()

	entries := []timeline.Entry{
		{Start: 0, End: 5, Emotion: emotion.Happy},
		{Start: 5, End: 10, Emotion: emotion.Anxious},
	}

	prompt := BuildAnalysisPrompt(entries)
	assert.Contains(t, prompt, "emotion timeline")
	assert.Contains(t, prompt, "00:00 - 00:05: happy")
	assert.Contains(t, prompt, "00:05 - 00:10: anxious")
	assert.NotContains(t, prompt, "WPS:", "emotion-only prompt carries no rate data")
}

func TestBuildChatPrompt(t *testing.T) {
	t.Parallel()

	prompt := BuildChatPrompt("How do I slow down?", "00:00 - 00:05: happy")
	assert.Contains(t, prompt, `"How do I slow down?"`)
	assert.Contains(t, prompt, "00:00 - 00:05: happy")
	assert.Contains(t, prompt, "speech coach")
}

func TestEmotionContext(t *testing.T) {
	t.Parallel()

	entries := []timeline.Entry{
		{Start: 0, End: 5, Emotion: emotion.Happy},
		{Start: 5, End: 10, Emotion: emotion.Sad},
	}

	got := EmotionContext(entries)
	lines := strings.Split(got, "\n")
	assert.Equal(t, []string{"00:00 - 00:05: happy", "00:05 - 00:10: sad"}, lines)

	assert.Empty(t, EmotionContext(nil))
}
