package feedback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speechlens/speechlens-go/internal/errors"
)

const validPayload = `{
	"summary": "Good energy overall.",
	"strengths": ["Clear voice"],
	"improvement_areas": ["Pace"],
	"coaching_tips": ["Pause more"]
}`

func TestParse(t *testing.T) {
	t.Parallel()

	fb, err := Parse(validPayload)
	require.NoError(t, err)
	assert.Equal(t, "Good energy overall.", fb.Summary)
	assert.Equal(t, []string{"Clear voice"}, fb.Strengths)
	assert.Equal(t, []string{"Pace"}, fb.ImprovementAreas)
	assert.Equal(t, []string{"Pause more"}, fb.CoachingTips)
}

func TestParseStripsCodeFence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
	}{
		{"json fence", "```json\n" + validPayload + "\n```"},
		{"bare fence", "```\n" + validPayload + "\n```"},
		{"leading prose", "Here is your analysis:\n" + validPayload},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fb, err := Parse(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, "Good energy overall.", fb.Summary)
		})
	}
}

func TestParseFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"no object", "sorry, I cannot help with that"},
		{"truncated JSON", `{"summary": "cut off", "strengths": ["a"`},
		{"missing key", `{"summary": "s", "strengths": [], "improvement_areas": []}`},
		{"wrong types", `{"summary": 42, "strengths": "x", "improvement_areas": [], "coaching_tips": []}`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse(tt.raw)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrFeedbackParse), "error must wrap ErrFeedbackParse")
		})
	}
}

func TestParseAllowsEmptyValues(t *testing.T) {
	t.Parallel()

	// Keys present but empty is a provider choice, not a parse failure.
	fb, err := Parse(`{"summary": "", "strengths": [], "improvement_areas": [], "coaching_tips": []}`)
	require.NoError(t, err)
	assert.Empty(t, fb.Summary)
	assert.Empty(t, fb.Strengths)
}
