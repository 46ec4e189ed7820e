package analysis

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speechlens/speechlens-go/internal/emotion"
	"github.com/speechlens/speechlens-go/internal/feedback"
	"github.com/speechlens/speechlens-go/internal/speechmetrics"
	"github.com/speechlens/speechlens-go/internal/timeline"
)

func TestToRecord(t *testing.T) {
	t.Parallel()

	result := &Result{
		Timeline: []timeline.Entry{
			{Start: 0, End: 5, Emotion: emotion.Happy, Text: "hello", WordsPerSecond: 0.2},
		},
		EmotionMetrics: speechmetrics.EmotionMetrics{
			Counts:   map[string]int{"happy": 1},
			Dominant: "happy",
		},
		ClarityMetrics: speechmetrics.ClarityMetrics{
			TotalWords:   1,
			AvgWPS:       0.2,
			ClarityScore: 5.0,
		},
		Feedback: feedback.Feedback{Summary: "fine"},
		Duration: 5.0,
	}

	record, err := result.ToRecord(7, "talk.mp4")
	require.NoError(t, err)

	assert.NotEmpty(t, record.PublicID)
	assert.Equal(t, uint(7), record.UserID)
	assert.Equal(t, "talk.mp4", record.Filename)
	assert.Equal(t, 5.0, record.Duration)

	// Quick-access scalars mirror the metric structs.
	assert.Equal(t, "happy", record.DominantEmotion)
	assert.Equal(t, 0.2, record.AvgWPS)
	assert.Equal(t, 5.0, record.ClarityScore)
	assert.Equal(t, 1, record.TotalWords)

	var entries []timeline.Entry
	require.NoError(t, json.Unmarshal(record.Timeline, &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "hello", entries[0].Text)

	var fb feedback.Feedback
	require.NoError(t, json.Unmarshal(record.Feedback, &fb))
	assert.Equal(t, "fine", fb.Summary)
}

func TestToRecordUniquePublicIDs(t *testing.T) {
	t.Parallel()

	result := &Result{}
	first, err := result.ToRecord(1, "a.mp4")
	require.NoError(t, err)
	second, err := result.ToRecord(1, "a.mp4")
	require.NoError(t, err)
	assert.NotEqual(t, first.PublicID, second.PublicID)
}
