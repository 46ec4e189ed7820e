package analysis

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/speechlens/speechlens-go/internal/datastore"
	"github.com/speechlens/speechlens-go/internal/errors"
)

// ToRecord serializes a pipeline result into the persisted Analysis
// aggregate for one owning user.
func (r *Result) ToRecord(userID uint, filename string) (*datastore.Analysis, error) {
	timelineJSON, err := json.Marshal(r.Timeline)
	if err != nil {
		return nil, recordError(err, "timeline")
	}
	emotionJSON, err := json.Marshal(r.EmotionMetrics)
	if err != nil {
		return nil, recordError(err, "emotion_metrics")
	}
	clarityJSON, err := json.Marshal(r.ClarityMetrics)
	if err != nil {
		return nil, recordError(err, "clarity_metrics")
	}
	feedbackJSON, err := json.Marshal(r.Feedback)
	if err != nil {
		return nil, recordError(err, "feedback")
	}

	return &datastore.Analysis{
		PublicID:        uuid.NewString(),
		UserID:          userID,
		Filename:        filename,
		Duration:        r.Duration,
		DominantEmotion: r.EmotionMetrics.Dominant,
		AvgWPS:          r.ClarityMetrics.AvgWPS,
		ClarityScore:    r.ClarityMetrics.ClarityScore,
		TotalWords:      r.ClarityMetrics.TotalWords,
		Timeline:        timelineJSON,
		EmotionMetrics:  emotionJSON,
		ClarityMetrics:  clarityJSON,
		Feedback:        feedbackJSON,
	}, nil
}

func recordError(err error, field string) error {
	return errors.New(err).
		Component("analysis").
		Category(errors.CategoryDatabase).
		Context("field", field).
		Build()
}
