// Package analysis runs the per-request pipeline: segment the media,
// classify and transcribe each clip, reconcile the timeline, aggregate
// metrics and attach coaching feedback.
package analysis

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/speechlens/speechlens-go/internal/conf"
	"github.com/speechlens/speechlens-go/internal/emotion"
	"github.com/speechlens/speechlens-go/internal/feedback"
	"github.com/speechlens/speechlens-go/internal/logging"
	"github.com/speechlens/speechlens-go/internal/media"
	"github.com/speechlens/speechlens-go/internal/observability"
	"github.com/speechlens/speechlens-go/internal/speechmetrics"
	"github.com/speechlens/speechlens-go/internal/timeline"
	"github.com/speechlens/speechlens-go/internal/transcribe"
)

// Result is the complete outcome of one analysis request, handed to the
// HTTP layer for persistence and response shaping.
type Result struct {
	Timeline            []timeline.Entry             `json:"timeline"`
	EmotionMetrics      speechmetrics.EmotionMetrics `json:"emotion_metrics"`
	ClarityMetrics      speechmetrics.ClarityMetrics `json:"speech_clarity"`
	Feedback            feedback.Feedback            `json:"feedback"`
	Duration            float64                      `json:"duration"`
	TranscriptAvailable bool                         `json:"transcript_available"`
	UsedFallback        bool                         `json:"-"`
}

// Segmenter is the slice of the media package the pipeline needs.
type Segmenter interface {
	Segment(ctx context.Context, sourcePath, scratchDir string, clipDuration float64) (*media.SegmentResult, error)
}

// Pipeline wires the per-request collaborators. All clients are injected,
// constructed once at process start and shared across requests.
type Pipeline struct {
	settings    *conf.Settings
	segmenter   Segmenter
	classifier  emotion.Classifier
	transcriber transcribe.Transcriber
	generator   feedback.Generator
	metricsCfg  speechmetrics.Config
	obs         *observability.Metrics
	logger      *slog.Logger
}

// New assembles a pipeline from settings and collaborators. obs may be nil.
func New(settings *conf.Settings, segmenter Segmenter, classifier emotion.Classifier,
	transcriber transcribe.Transcriber, generator feedback.Generator, obs *observability.Metrics) *Pipeline {
	logger := logging.ForService("analysis")
	if logger == nil {
		logger = slog.Default().With("service", "analysis")
	}
	return &Pipeline{
		settings:    settings,
		segmenter:   segmenter,
		classifier:  classifier,
		transcriber: transcriber,
		generator:   generator,
		metricsCfg:  speechmetrics.ConfigFromSettings(&settings.Metrics),
		obs:         obs,
		logger:      logger,
	}
}

// clipOutcome is the per-clip result of both adapters. Failures are
// recorded, not raised: a single bad clip must not blank out the rest of
// the timeline.
type clipOutcome struct {
	label    emotion.Label
	labelErr error
	text     string
	textErr  error
}

// AnalyzeMedia runs the full pipeline for one uploaded file. Scratch
// storage is scoped to the request and removed unconditionally. Fatal
// errors (undecodable or empty media, cancellation) abort the request,
// per-clip adapter errors degrade that clip only.
func (p *Pipeline) AnalyzeMedia(ctx context.Context, sourcePath string) (*Result, error) {
	started := time.Now()

	scratchDir, err := p.newScratchDir()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := os.RemoveAll(scratchDir); err != nil {
			p.logger.Warn("failed to remove scratch dir", "dir", scratchDir, "error", err)
		}
	}()

	seg, err := p.segmenter.Segment(ctx, sourcePath, scratchDir, p.settings.Media.ClipDuration)
	if err != nil {
		p.countAnalysis("error")
		return nil, err
	}

	outcomes, err := p.processClips(ctx, seg.Clips)
	if err != nil {
		p.countAnalysis("canceled")
		return nil, err
	}

	entries := p.reconcile(seg, outcomes)
	emotionMetrics, clarityMetrics := speechmetrics.Aggregate(entries, p.metricsCfg)

	fb, usedFallback := p.generateFeedback(ctx, entries)

	result := &Result{
		Timeline:            entries,
		EmotionMetrics:      emotionMetrics,
		ClarityMetrics:      clarityMetrics,
		Feedback:            fb,
		Duration:            seg.TotalDuration,
		TranscriptAvailable: p.transcriberAvailable(),
		UsedFallback:        usedFallback,
	}

	p.countAnalysis("success")
	if p.obs != nil {
		p.obs.AnalysisDuration.Observe(time.Since(started).Seconds())
		p.obs.MediaDuration.Observe(seg.TotalDuration)
	}
	p.logger.Info("analysis complete",
		"source", filepath.Base(sourcePath),
		"clips", len(seg.Clips),
		"duration", seg.TotalDuration,
		"elapsed", time.Since(started).Round(time.Millisecond))

	return result, nil
}

// processClips runs classification and transcription per clip with a
// bounded worker pool. Results land in index order regardless of
// completion order. Only cancellation aborts the batch.
func (p *Pipeline) processClips(ctx context.Context, clips []media.Clip) ([]clipOutcome, error) {
	outcomes := make([]clipOutcome, len(clips))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workerCount())

	for i := range clips {
		clip := clips[i]

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			label, err := p.classifyClip(gctx, clip)
			outcomes[clip.Index].label = label
			outcomes[clip.Index].labelErr = err
			return gctx.Err()
		})

		if p.transcriberAvailable() {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				text, err := p.transcriber.Transcribe(gctx, clip.Path)
				outcomes[clip.Index].text = text
				outcomes[clip.Index].textErr = err
				return gctx.Err()
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// classifyClip degrades to Unknown on any per-clip failure.
func (p *Pipeline) classifyClip(ctx context.Context, clip media.Clip) (emotion.Label, error) {
	if p.classifier == nil || !p.classifier.IsAvailable() {
		return emotion.Unknown, nil
	}
	label, err := p.classifier.Classify(ctx, clip.Path)
	if err != nil {
		p.logger.Warn("clip classification failed", "index", clip.Index, "error", err)
		if p.obs != nil {
			p.obs.ClipAdapterErrors.WithLabelValues("emotion").Inc()
		}
		return emotion.Unknown, err
	}
	return label, nil
}

// reconcile folds the per-clip outcomes into the unified timeline. With a
// transcriber configured, transcript segments get positional boundaries of
// the average clip duration and failed transcriptions become empty-text
// placeholders so the timeline keeps covering the full recording. Without
// one, the emotion timeline stands alone.
func (p *Pipeline) reconcile(seg *media.SegmentResult, outcomes []clipOutcome) []timeline.Entry {
	emotionByIndex := make(map[int]emotion.Label, len(outcomes))
	for i, o := range outcomes {
		label := o.label
		if o.labelErr != nil || label == "" {
			label = emotion.Unknown
		}
		emotionByIndex[i] = label
	}

	if !p.transcriberAvailable() {
		durations := make([]float64, len(seg.Clips))
		for i, c := range seg.Clips {
			durations[i] = c.Duration
		}
		return timeline.ReconcileEmotionOnly(emotionByIndex, durations)
	}

	avgClipDuration := 0.0
	if len(seg.Clips) > 0 {
		avgClipDuration = seg.TotalDuration / float64(len(seg.Clips))
	}

	segments := make([]transcribe.Segment, 0, len(outcomes))
	for i, o := range outcomes {
		text := o.text
		if o.textErr != nil {
			p.logger.Warn("clip transcription failed, keeping placeholder", "index", i, "error", o.textErr)
			if p.obs != nil {
				p.obs.ClipAdapterErrors.WithLabelValues("transcription").Inc()
			}
			text = ""
		}
		segments = append(segments, transcribe.NewSegment(i, avgClipDuration, text))
	}

	return timeline.Reconcile(emotionByIndex, segments)
}

// generateFeedback asks the LLM for coaching feedback and substitutes the
// deterministic fallback on any failure. A feedback problem never fails
// the analysis.
func (p *Pipeline) generateFeedback(ctx context.Context, entries []timeline.Entry) (feedback.Feedback, bool) {
	if p.generator == nil || !p.generator.IsAvailable() {
		return feedback.Fallback(entries), true
	}

	fb, err := p.generator.Generate(ctx, entries)
	if err != nil {
		p.logger.Warn("feedback generation failed, using fallback", "error", err)
		if p.obs != nil {
			p.obs.FeedbackFallbackTotal.Inc()
		}
		return feedback.Fallback(entries), true
	}
	return fb, false
}

// Chat produces a coach reply for a user message with the given emotion
// context, degrading to the canned reply when the LLM is unavailable.
func (p *Pipeline) Chat(ctx context.Context, userInput, emotionContext string) string {
	if p.generator == nil || !p.generator.IsAvailable() {
		return feedback.FallbackChatReply
	}
	reply, err := p.generator.Chat(ctx, userInput, emotionContext)
	if err != nil {
		p.logger.Warn("chat generation failed, using fallback", "error", err)
		return feedback.FallbackChatReply
	}
	return reply
}

// newScratchDir creates the request-exclusive scratch directory.
func (p *Pipeline) newScratchDir() (string, error) {
	base := p.settings.Media.ScratchDir
	if base == "" {
		base = os.TempDir()
	}
	dir := filepath.Join(base, "speechlens-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

func (p *Pipeline) workerCount() int {
	workers := p.settings.Pipeline.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return clampInt(workers, 1, 8)
}

func (p *Pipeline) transcriberAvailable() bool {
	return p.transcriber != nil && p.transcriber.IsAvailable()
}

func (p *Pipeline) countAnalysis(status string) {
	if p.obs != nil {
		p.obs.AnalysesTotal.WithLabelValues(status).Inc()
	}
}

// clampInt ensures a value is between min and max (inclusive)
func clampInt(value, minValue, maxValue int) int {
	if value < minValue {
		return minValue
	}
	if value > maxValue {
		return maxValue
	}
	return value
}
