package analysis

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speechlens/speechlens-go/internal/conf"
	"github.com/speechlens/speechlens-go/internal/emotion"
	"github.com/speechlens/speechlens-go/internal/feedback"
	"github.com/speechlens/speechlens-go/internal/media"
	"github.com/speechlens/speechlens-go/internal/timeline"
)

type fakeSegmenter struct {
	clips []media.Clip
	total float64
	err   error
}

func (f *fakeSegmenter) Segment(ctx context.Context, sourcePath, scratchDir string, clipDuration float64) (*media.SegmentResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &media.SegmentResult{
		FullAudioPath: sourcePath,
		Clips:         f.clips,
		TotalDuration: f.total,
	}, nil
}

type fakeClassifier struct {
	labels    map[string]emotion.Label
	failPaths map[string]bool
	available bool
}

func (f *fakeClassifier) IsAvailable() bool { return f.available }

func (f *fakeClassifier) Classify(ctx context.Context, clipPath string) (emotion.Label, error) {
	if f.failPaths[clipPath] {
		return emotion.Unknown, fmt.Errorf("classifier exploded on %s", clipPath)
	}
	return f.labels[clipPath], nil
}

type fakeTranscriber struct {
	texts     map[string]string
	failPaths map[string]bool
	available bool
}

func (f *fakeTranscriber) IsAvailable() bool { return f.available }

func (f *fakeTranscriber) Transcribe(ctx context.Context, clipPath string) (string, error) {
	if f.failPaths[clipPath] {
		return "", fmt.Errorf("transcriber exploded on %s", clipPath)
	}
	return f.texts[clipPath], nil
}

type fakeGenerator struct {
	fb        feedback.Feedback
	err       error
	available bool
}

func (f *fakeGenerator) IsAvailable() bool { return f.available }

func (f *fakeGenerator) Generate(ctx context.Context, entries []timeline.Entry) (feedback.Feedback, error) {
	return f.fb, f.err
}

func (f *fakeGenerator) Chat(ctx context.Context, userInput, emotionContext string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "coach says: " + userInput, nil
}

func testSettings(t *testing.T) *conf.Settings {
	t.Helper()
	settings := &conf.Settings{}
	settings.Media.ClipDuration = 2.0
	settings.Media.ScratchDir = t.TempDir()
	settings.Pipeline.Workers = 2
	return settings
}

func threeClips() []media.Clip {
	return []media.Clip{
		{Index: 0, Path: "clip0.wav", Duration: 2.0},
		{Index: 1, Path: "clip1.wav", Duration: 2.0},
		{Index: 2, Path: "clip2.wav", Duration: 2.0},
	}
}

func TestAnalyzeMedia(t *testing.T) {
	t.Parallel()

	segmenter := &fakeSegmenter{clips: threeClips(), total: 6.0}
	classifier := &fakeClassifier{
		available: true,
		labels: map[string]emotion.Label{
			"clip0.wav": emotion.Happy,
			"clip1.wav": emotion.Happy,
			"clip2.wav": emotion.Sad,
		},
	}
	transcriber := &fakeTranscriber{
		available: true,
		texts: map[string]string{
			"clip0.wav": "we are happy here",
			"clip1.wav": "still quite happy today",
			"clip2.wav": "now sad",
		},
	}
	generator := &fakeGenerator{
		available: true,
		fb:        feedback.Feedback{Summary: "from llm", Strengths: []string{"s"}, ImprovementAreas: []string{"i"}, CoachingTips: []string{"t"}},
	}

	p := New(testSettings(t), segmenter, classifier, transcriber, generator, nil)
	result, err := p.AnalyzeMedia(context.Background(), "input.mp4")
	require.NoError(t, err)

	require.Len(t, result.Timeline, 3)
	assert.Equal(t, emotion.Happy, result.Timeline[0].Emotion)
	assert.Equal(t, emotion.Sad, result.Timeline[2].Emotion)
	assert.Equal(t, "we are happy here", result.Timeline[0].Text)

	// Positional boundaries at the average clip duration.
	assert.Equal(t, 0.0, result.Timeline[0].Start)
	assert.Equal(t, 2.0, result.Timeline[0].End)
	assert.Equal(t, 4.0, result.Timeline[2].Start)
	assert.Equal(t, 6.0, result.Timeline[2].End)

	assert.Equal(t, "happy", result.EmotionMetrics.Dominant)
	assert.Equal(t, 10, result.ClarityMetrics.TotalWords)
	assert.Equal(t, 6.0, result.Duration)
	assert.True(t, result.TranscriptAvailable)

	assert.Equal(t, "from llm", result.Feedback.Summary)
	assert.False(t, result.UsedFallback)
}

func TestAnalyzeMediaSingleClipFailureDegradesThatClipOnly(t *testing.T) {
	t.Parallel()

	segmenter := &fakeSegmenter{clips: threeClips(), total: 6.0}
	classifier := &fakeClassifier{
		available: true,
		labels: map[string]emotion.Label{
			"clip0.wav": emotion.Happy,
			"clip2.wav": emotion.Sad,
		},
		failPaths: map[string]bool{"clip1.wav": true},
	}
	transcriber := &fakeTranscriber{
		available: true,
		texts: map[string]string{
			"clip0.wav": "first words",
			"clip2.wav": "third words",
		},
		failPaths: map[string]bool{"clip1.wav": true},
	}

	p := New(testSettings(t), segmenter, classifier, transcriber, &fakeGenerator{}, nil)
	result, err := p.AnalyzeMedia(context.Background(), "input.mp4")
	require.NoError(t, err, "a per-clip failure must not fail the request")

	require.Len(t, result.Timeline, 3, "failed clip keeps its slot in the timeline")
	assert.Equal(t, emotion.Happy, result.Timeline[0].Emotion)
	assert.Equal(t, emotion.Unknown, result.Timeline[1].Emotion)
	assert.Equal(t, emotion.Sad, result.Timeline[2].Emotion)
	assert.Empty(t, result.Timeline[1].Text)

	// Coverage still holds.
	assert.Equal(t, 2.0, result.Timeline[1].Start)
	assert.Equal(t, 4.0, result.Timeline[1].End)
}

func TestAnalyzeMediaEmotionOnlyMode(t *testing.T) {
	t.Parallel()

	segmenter := &fakeSegmenter{clips: threeClips(), total: 6.0}
	classifier := &fakeClassifier{
		available: true,
		labels: map[string]emotion.Label{
			"clip0.wav": emotion.Calm,
			"clip1.wav": emotion.Calm,
			"clip2.wav": emotion.Excited,
		},
	}

	p := New(testSettings(t), segmenter, classifier, &fakeTranscriber{available: false}, &fakeGenerator{}, nil)
	result, err := p.AnalyzeMedia(context.Background(), "input.mp4")
	require.NoError(t, err)

	require.Len(t, result.Timeline, 3)
	assert.False(t, result.TranscriptAvailable)
	for _, e := range result.Timeline {
		assert.Empty(t, e.Text)
	}
	assert.Zero(t, result.ClarityMetrics.TotalWords)
	assert.Zero(t, result.ClarityMetrics.ClarityScore)
	assert.Equal(t, "calm", result.EmotionMetrics.Dominant)
}

func TestAnalyzeMediaFallbackFeedback(t *testing.T) {
	t.Parallel()

	segmenter := &fakeSegmenter{clips: threeClips(), total: 6.0}
	classifier := &fakeClassifier{
		available: true,
		labels:    map[string]emotion.Label{"clip0.wav": emotion.Happy, "clip1.wav": emotion.Happy, "clip2.wav": emotion.Happy},
	}

	t.Run("generator unavailable", func(t *testing.T) {
		t.Parallel()
		p := New(testSettings(t), segmenter, classifier, &fakeTranscriber{}, &fakeGenerator{available: false}, nil)
		result, err := p.AnalyzeMedia(context.Background(), "input.mp4")
		require.NoError(t, err)
		assert.True(t, result.UsedFallback)
		assert.NotEmpty(t, result.Feedback.Summary)
		assert.NotEmpty(t, result.Feedback.CoachingTips)
	})

	t.Run("generator fails", func(t *testing.T) {
		t.Parallel()
		p := New(testSettings(t), segmenter, classifier, &fakeTranscriber{},
			&fakeGenerator{available: true, err: fmt.Errorf("llm down")}, nil)
		result, err := p.AnalyzeMedia(context.Background(), "input.mp4")
		require.NoError(t, err, "feedback trouble never fails the analysis")
		assert.True(t, result.UsedFallback)
		assert.NotEmpty(t, result.Feedback.Summary)
	})
}

func TestAnalyzeMediaSegmenterErrorAborts(t *testing.T) {
	t.Parallel()

	segmenter := &fakeSegmenter{err: fmt.Errorf("cannot decode")}
	p := New(testSettings(t), segmenter, &fakeClassifier{}, &fakeTranscriber{}, &fakeGenerator{}, nil)

	_, err := p.AnalyzeMedia(context.Background(), "input.mp4")
	assert.Error(t, err)
}

func TestAnalyzeMediaCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	segmenter := &fakeSegmenter{clips: threeClips(), total: 6.0}
	classifier := &fakeClassifier{available: true, labels: map[string]emotion.Label{}}
	p := New(testSettings(t), segmenter, classifier, &fakeTranscriber{available: true}, &fakeGenerator{}, nil)

	_, err := p.AnalyzeMedia(ctx, "input.mp4")
	assert.Error(t, err, "a canceled context aborts the batch")
}

func TestChat(t *testing.T) {
	t.Parallel()

	settings := testSettings(t)

	t.Run("llm reply", func(t *testing.T) {
		t.Parallel()
		p := New(settings, &fakeSegmenter{}, &fakeClassifier{}, &fakeTranscriber{}, &fakeGenerator{available: true}, nil)
		reply := p.Chat(context.Background(), "slow down?", "")
		assert.Equal(t, "coach says: slow down?", reply)
	})

	t.Run("llm unavailable", func(t *testing.T) {
		t.Parallel()
		p := New(settings, &fakeSegmenter{}, &fakeClassifier{}, &fakeTranscriber{}, &fakeGenerator{available: false}, nil)
		assert.Equal(t, feedback.FallbackChatReply, p.Chat(context.Background(), "hello", ""))
	})

	t.Run("llm error", func(t *testing.T) {
		t.Parallel()
		p := New(settings, &fakeSegmenter{}, &fakeClassifier{}, &fakeTranscriber{},
			&fakeGenerator{available: true, err: fmt.Errorf("down")}, nil)
		assert.Equal(t, feedback.FallbackChatReply, p.Chat(context.Background(), "hello", ""))
	})
}

func TestWorkerCountClamped(t *testing.T) {
	t.Parallel()

	tests := []struct {
		workers int
		wantMin int
		wantMax int
	}{
		{-1, 1, 8},
		{0, 1, 8},
		{1, 1, 1},
		{4, 4, 4},
		{64, 8, 8},
	}

	for _, tt := range tests {
		settings := &conf.Settings{}
		settings.Media.ClipDuration = 2.0
		settings.Pipeline.Workers = tt.workers
		p := New(settings, &fakeSegmenter{}, &fakeClassifier{}, &fakeTranscriber{}, &fakeGenerator{}, nil)

		got := p.workerCount()
		assert.GreaterOrEqual(t, got, tt.wantMin, "workers=%d", tt.workers)
		assert.LessOrEqual(t, got, tt.wantMax, "workers=%d", tt.workers)
	}
}
