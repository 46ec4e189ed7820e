// Package timeline reconciles independently produced, index-keyed emotion
// and transcription sequences into one time-ordered timeline.
package timeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/speechlens/speechlens-go/internal/emotion"
	"github.com/speechlens/speechlens-go/internal/transcribe"
)

// Entry is one reconciled time range carrying emotion, transcript text and
// speaking rate. Entries are emitted in non-decreasing start order and
// together cover [0, totalDuration] exactly once when both source
// sequences are well-formed.
type Entry struct {
	Start          float64       `json:"start"`
	End            float64       `json:"end"`
	Emotion        emotion.Label `json:"emotion"`
	Text           string        `json:"text"`
	WordsPerSecond float64       `json:"wps"`
}

// TimeRange renders the entry interval as "MM:SS - MM:SS".
func (e Entry) TimeRange() string {
	return FormatTimestamp(e.Start) + " - " + FormatTimestamp(e.End)
}

// Reconcile left-joins the emotion labels onto the transcript segments by
// clip index. Transcript segments already carry positional time ranges, so
// a segment whose index has no label degrades to emotion.Unknown rather
// than dropping the segment. Input segments are re-sorted by index, the
// caller may hand over results in completion order.
func Reconcile(emotionByIndex map[int]emotion.Label, segments []transcribe.Segment) []Entry {
	ordered := make([]transcribe.Segment, len(segments))
	copy(ordered, segments)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })

	entries := make([]Entry, 0, len(ordered))
	for _, seg := range ordered {
		label, ok := emotionByIndex[seg.Index]
		if !ok || label == "" {
			label = emotion.Unknown
		}
		entries = append(entries, Entry{
			Start:          seg.Start,
			End:            seg.End,
			Emotion:        label,
			Text:           seg.Text,
			WordsPerSecond: seg.WordsPerSecond,
		})
	}
	return entries
}

// ReconcileEmotionOnly builds a timeline from the emotion clips alone, used
// when transcription is unavailable for the whole request. This is a
// first-class supported mode, not an error: entries carry empty text and a
// zero speaking rate, and downstream consumers report zeroed clarity
// metrics. Clip time ranges accumulate the probed per-clip durations so the
// timeline still covers the full recording.
func ReconcileEmotionOnly(emotionByIndex map[int]emotion.Label, clipDurations []float64) []Entry {
	entries := make([]Entry, 0, len(clipDurations))
	start := 0.0
	for i, d := range clipDurations {
		label, ok := emotionByIndex[i]
		if !ok || label == "" {
			label = emotion.Unknown
		}
		entries = append(entries, Entry{
			Start:   start,
			End:     start + d,
			Emotion: label,
			Text:    "",
		})
		start += d
	}
	return entries
}

// FormatTimestamp renders seconds as "MM:SS".
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// FormatTranscript renders the timeline as display-ready blocks of the form
// "[MM:SS - MM:SS] (emotion) text".
func FormatTranscript(entries []Entry) string {
	if len(entries) == 0 {
		return "No transcription data available."
	}
	blocks := make([]string, 0, len(entries))
	for _, e := range entries {
		blocks = append(blocks, fmt.Sprintf("[%s] (%s) %s", e.TimeRange(), e.Emotion, e.Text))
	}
	return strings.Join(blocks, "\n\n")
}
