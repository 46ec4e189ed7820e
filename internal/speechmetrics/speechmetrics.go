// Package speechmetrics derives aggregate engagement and clarity metrics
// from a reconciled timeline. Scores are bounded coaching heuristics, not
// validated psychometric instruments.
package speechmetrics

import (
	"fmt"
	"math"
	"strings"

	"github.com/speechlens/speechlens-go/internal/conf"
	"github.com/speechlens/speechlens-go/internal/timeline"
)

// Config carries the heuristic constants. Defaults match the coaching
// guidance the feedback prompts are written against.
type Config struct {
	ClarityWordsPerSegment float64  // words per segment mapping to a clarity score of 100
	VersatilityCeiling     int      // distinct emotions mapping to a versatility score of 100
	FastWPS                float64  // rate above which a segment is flagged fast
	SlowWPS                float64  // rate below which a segment is flagged slow
	FillerRatio            float64  // filler share of segment words above which the segment is flagged
	FillerWords            []string // phrases counted as fillers
	SparseMinWords         int      // fewer words than this over SparseMinSeconds flags the segment
	SparseMinSeconds       float64
}

// DefaultConfig returns the stock heuristic constants.
func DefaultConfig() Config {
	return Config{
		ClarityWordsPerSegment: 20,
		VersatilityCeiling:     5,
		FastWPS:                3.0,
		SlowWPS:                1.0,
		FillerRatio:            0.2,
		FillerWords:            []string{"um", "uh", "like", "you know", "sort of", "kind of"},
		SparseMinWords:         3,
		SparseMinSeconds:       2.0,
	}
}

// ConfigFromSettings maps the configured constants onto a Config, keeping
// defaults for anything the settings don't carry.
func ConfigFromSettings(settings *conf.MetricsSettings) Config {
	cfg := DefaultConfig()
	if settings.ClarityWordsPerSegment > 0 {
		cfg.ClarityWordsPerSegment = settings.ClarityWordsPerSegment
	}
	if settings.VersatilityCeiling > 0 {
		cfg.VersatilityCeiling = settings.VersatilityCeiling
	}
	if settings.FastWPS > 0 {
		cfg.FastWPS = settings.FastWPS
	}
	if settings.SlowWPS > 0 {
		cfg.SlowWPS = settings.SlowWPS
	}
	if settings.FillerRatio > 0 {
		cfg.FillerRatio = settings.FillerRatio
	}
	return cfg
}

// EmotionMetrics summarizes the emotional shape of the timeline.
type EmotionMetrics struct {
	Counts             map[string]int `json:"emotion_counts"`
	Diversity          int            `json:"emotion_diversity"`
	Dominant           string         `json:"dominant_emotion"`
	DominantPercentage float64        `json:"dominant_emotion_percentage"`
	VersatilityScore   float64        `json:"versatility_score"`
	Transitions        []string       `json:"transitions"`
}

// ClarityMetrics summarizes speaking rate and articulation.
type ClarityMetrics struct {
	TotalWords         int      `json:"total_words"`
	AvgWordsPerSegment float64  `json:"avg_words_per_segment"`
	AvgWPS             float64  `json:"avg_wps"`
	WPSVariation       float64  `json:"wps_variation"`
	ClarityScore       float64  `json:"clarity_score"`
	FastSegments       []int    `json:"fast_segments"`
	SlowSegments       []int    `json:"slow_segments"`
	Issues             []string `json:"issues"`
}

// Aggregate computes both metric sets from the timeline. It is a pure
// function: deterministic given the tie-break rule below, no side effects.
// An empty timeline yields zeroed metrics, never an error. A timeline with
// no transcript content (the emotion-only fallback mode) yields zeroed
// clarity metrics with no flagged issues.
func Aggregate(entries []timeline.Entry, cfg Config) (EmotionMetrics, ClarityMetrics) {
	return aggregateEmotion(entries, cfg), aggregateClarity(entries, cfg)
}

func aggregateEmotion(entries []timeline.Entry, cfg Config) EmotionMetrics {
	metrics := EmotionMetrics{
		Counts:      make(map[string]int),
		Transitions: []string{},
	}
	if len(entries) == 0 {
		return metrics
	}

	// firstSeen records insertion order so the dominant-emotion tie-break
	// is deterministic: highest count wins, ties go to the label seen
	// earliest in the timeline.
	firstSeen := make(map[string]int)
	for i, e := range entries {
		label := string(e.Emotion)
		if _, ok := firstSeen[label]; !ok {
			firstSeen[label] = i
		}
		metrics.Counts[label]++
	}

	dominant := ""
	for label, count := range metrics.Counts {
		if dominant == "" {
			dominant = label
			continue
		}
		if count > metrics.Counts[dominant] ||
			(count == metrics.Counts[dominant] && firstSeen[label] < firstSeen[dominant]) {
			dominant = label
		}
	}

	metrics.Diversity = len(metrics.Counts)
	metrics.Dominant = dominant
	metrics.DominantPercentage = round1(float64(metrics.Counts[dominant]) / float64(len(entries)) * 100)
	metrics.VersatilityScore = round1(math.Min(float64(metrics.Diversity)/float64(cfg.VersatilityCeiling)*100, 100))

	for i := 1; i < len(entries); i++ {
		if entries[i].Emotion != entries[i-1].Emotion {
			metrics.Transitions = append(metrics.Transitions,
				fmt.Sprintf("%s → %s", entries[i-1].Emotion, entries[i].Emotion))
		}
	}

	return metrics
}

func aggregateClarity(entries []timeline.Entry, cfg Config) ClarityMetrics {
	metrics := ClarityMetrics{
		FastSegments: []int{},
		SlowSegments: []int{},
		Issues:       []string{},
	}
	if len(entries) == 0 || !hasTranscript(entries) {
		return metrics
	}

	wpsValues := make([]float64, 0, len(entries))
	totalWords := 0
	for _, e := range entries {
		wpsValues = append(wpsValues, e.WordsPerSecond)
		totalWords += len(strings.Fields(e.Text))
	}

	avgWPS := mean(wpsValues)
	avgWordsPerSegment := float64(totalWords) / float64(len(entries))
	clarityScore := math.Min(100, math.Max(0, avgWordsPerSegment/cfg.ClarityWordsPerSegment*100))

	for i, e := range entries {
		switch {
		case e.WordsPerSecond > cfg.FastWPS:
			metrics.FastSegments = append(metrics.FastSegments, i)
		case e.WordsPerSecond < cfg.SlowWPS:
			metrics.SlowSegments = append(metrics.SlowSegments, i)
		}

		words := strings.Fields(e.Text)
		if len(words) < cfg.SparseMinWords && e.End-e.Start > cfg.SparseMinSeconds {
			metrics.Issues = append(metrics.Issues,
				fmt.Sprintf("Segment %d has very few words for its duration", i+1))
		}
		if fillerCount(e.Text, cfg.FillerWords) > float64(len(words))*cfg.FillerRatio {
			metrics.Issues = append(metrics.Issues,
				fmt.Sprintf("Segment %d has many filler words", i+1))
		}
	}

	metrics.TotalWords = totalWords
	metrics.AvgWordsPerSegment = round1(avgWordsPerSegment)
	metrics.AvgWPS = round2(avgWPS)
	metrics.WPSVariation = round2(sampleStdDev(wpsValues))
	metrics.ClarityScore = round1(clarityScore)

	return metrics
}

// hasTranscript reports whether any entry carries transcript content.
func hasTranscript(entries []timeline.Entry) bool {
	for _, e := range entries {
		if e.Text != "" || e.WordsPerSecond > 0 {
			return true
		}
	}
	return false
}

// fillerCount counts filler-phrase occurrences in text, case-insensitively.
func fillerCount(text string, fillers []string) float64 {
	lowered := strings.ToLower(text)
	count := 0
	for _, f := range fillers {
		count += strings.Count(lowered, f)
	}
	return float64(count)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleStdDev is the sample standard deviation (n-1 denominator) when two
// or more data points exist, 0 otherwise. Natural speech typically sits
// around 0.3-0.7 WPS, a tighter signal than a max-min range would give.
func sampleStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	sumSq := 0.0
	for _, v := range values {
		d := v - m
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)-1))
}

// Rounding happens once, at the output boundary, to avoid compounding
// rounding error across derived metrics.

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
