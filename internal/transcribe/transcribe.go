// Package transcribe turns audio clips into text segments with per-segment
// speaking rates via an external speech-to-text service.
package transcribe

import (
	"context"
	"strings"
)

// Segment is the transcription of one clip. Start and End form a half-open
// interval assigned by clip position, not by the provider's own timing, so
// segments are contiguous and non-overlapping in emission order.
type Segment struct {
	Index          int     `json:"index"`
	Start          float64 `json:"start"`
	End            float64 `json:"end"`
	Text           string  `json:"text"`
	WordsPerSecond float64 `json:"wps"`
}

// Transcriber converts one clip into text. Implementations hold no
// cross-clip state.
type Transcriber interface {
	Transcribe(ctx context.Context, clipPath string) (string, error)
	IsAvailable() bool
}

// NewSegment builds a Segment for clip index with positional boundaries of
// width clipDuration. The upstream provider returns text without knowing
// the clip belongs to a larger timeline, so boundaries are index*duration
// rather than re-measured; the bounded alignment error is accepted.
func NewSegment(index int, clipDuration float64, text string) Segment {
	start := float64(index) * clipDuration
	end := float64(index+1) * clipDuration

	wps := 0.0
	if clipDuration > 0 {
		wps = float64(WordCount(text)) / clipDuration
	}

	return Segment{
		Index:          index,
		Start:          start,
		End:            end,
		Text:           strings.TrimSpace(text),
		WordsPerSecond: wps,
	}
}

// WordCount counts whitespace-delimited words in text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}
