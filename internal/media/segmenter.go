// Package media extracts audio from uploaded media and splits it into
// fixed-duration clips for downstream analysis.
package media

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/speechlens/speechlens-go/internal/conf"
	"github.com/speechlens/speechlens-go/internal/errors"
	"github.com/speechlens/speechlens-go/internal/logging"
)

// Clip is one fixed-duration audio slice of the source. Clips are transient,
// owned by the request's scratch directory and removed with it.
type Clip struct {
	Index    int     // 0-based, contiguous
	Path     string  // location inside the request scratch dir
	Duration float64 // probed duration in seconds, the last clip is typically shorter
}

// SegmentResult is the output of one segmentation run.
type SegmentResult struct {
	FullAudioPath string  // extracted full-length reference audio
	Clips         []Clip  // ordered fixed-duration clips
	TotalDuration float64 // probed duration of the full audio in seconds
}

// Segmenter extracts an audio track and splits it into clips using ffmpeg.
type Segmenter struct {
	ffmpegPath  string
	ffprobePath string
	logger      *slog.Logger
}

// NewSegmenter creates a Segmenter from media settings.
func NewSegmenter(settings *conf.MediaSettings) *Segmenter {
	logger := logging.ForService("media")
	if logger == nil {
		logger = slog.Default().With("service", "media")
	}
	return &Segmenter{
		ffmpegPath:  settings.FfmpegPath,
		ffprobePath: settings.FfprobePath,
		logger:      logger,
	}
}

// Segment extracts the audio track of sourcePath and splits it into
// contiguous clips of clipDuration seconds, the final clip holding the
// remainder. Clip files are written into scratchDir, which the caller owns
// and cleans up. Returns errors.ErrUnsupportedMedia when the input cannot be
// decoded and errors.ErrEmptyMedia when the extracted audio has no duration.
func (s *Segmenter) Segment(ctx context.Context, sourcePath, scratchDir string, clipDuration float64) (*SegmentResult, error) {
	if clipDuration <= 0 {
		return nil, errors.Newf("clip duration must be positive, got %v", clipDuration).
			Component("media").
			Category(errors.CategoryValidation).
			Build()
	}
	if err := os.MkdirAll(scratchDir, 0o755); err != nil {
		return nil, errors.New(err).
			Component("media").
			Category(errors.CategoryFileIO).
			Context("operation", "create-scratch-dir").
			Build()
	}

	fullAudioPath := filepath.Join(scratchDir, "full_audio.wav")
	if err := s.extractAudio(ctx, sourcePath, fullAudioPath); err != nil {
		return nil, err
	}

	totalDuration, err := Duration(ctx, s.ffprobePath, fullAudioPath)
	if err != nil {
		return nil, errors.New(errors.Join(errors.ErrUnsupportedMedia, err)).
			Component("media").
			Category(errors.CategoryMedia).
			Context("operation", "probe-duration").
			Build()
	}
	if totalDuration == 0 {
		return nil, errors.New(errors.ErrEmptyMedia).
			Component("media").
			Category(errors.CategoryMedia).
			Context("source", filepath.Base(sourcePath)).
			Build()
	}

	clips, err := s.splitAudio(ctx, fullAudioPath, scratchDir, clipDuration)
	if err != nil {
		return nil, err
	}

	s.logger.Info("segmented media",
		"source", filepath.Base(sourcePath),
		"duration", totalDuration,
		"clips", len(clips))

	return &SegmentResult{
		FullAudioPath: fullAudioPath,
		Clips:         clips,
		TotalDuration: totalDuration,
	}, nil
}

// extractAudio pulls a mono 16 kHz PCM track out of arbitrary container input.
func (s *Segmenter) extractAudio(ctx context.Context, sourcePath, outputPath string) error {
	args := []string{
		"-hide_banner",
		"-y",
		"-i", sourcePath,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		outputPath,
	}

	cmd := exec.CommandContext(ctx, s.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return errors.New(ctx.Err()).
				Component("media").
				Category(errors.CategoryCancellation).
				Context("operation", "extract-audio").
				Build()
		}
		return errors.New(errors.Join(errors.ErrUnsupportedMedia, err)).
			Component("media").
			Category(errors.CategoryMedia).
			Context("operation", "extract-audio").
			Context("stderr", truncateStderr(stderr.String())).
			Build()
	}
	return nil
}

// splitAudio writes segment_000.wav, segment_001.wav, ... into scratchDir
// and probes each clip's real duration from its WAV header.
func (s *Segmenter) splitAudio(ctx context.Context, fullAudioPath, scratchDir string, clipDuration float64) ([]Clip, error) {
	pattern := filepath.Join(scratchDir, "segment_%03d.wav")
	args := []string{
		"-hide_banner",
		"-y",
		"-i", fullAudioPath,
		"-f", "segment",
		"-segment_time", fmt.Sprintf("%g", clipDuration),
		"-c", "copy",
		pattern,
	}

	cmd := exec.CommandContext(ctx, s.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, errors.New(ctx.Err()).
				Component("media").
				Category(errors.CategoryCancellation).
				Context("operation", "split-audio").
				Build()
		}
		return nil, errors.New(err).
			Component("media").
			Category(errors.CategoryMedia).
			Context("operation", "split-audio").
			Context("stderr", truncateStderr(stderr.String())).
			Build()
	}

	matches, err := filepath.Glob(filepath.Join(scratchDir, "segment_*.wav"))
	if err != nil {
		return nil, errors.New(err).
			Component("media").
			Category(errors.CategoryFileIO).
			Context("operation", "list-clips").
			Build()
	}
	sort.Strings(matches)

	clips := make([]Clip, 0, len(matches))
	for i, path := range matches {
		duration, err := WAVDuration(path)
		if err != nil {
			// A clip we just wrote but cannot read is a real problem,
			// fall back to the target duration and keep going.
			s.logger.Warn("failed to probe clip duration", "clip", filepath.Base(path), "error", err)
			duration = clipDuration
		}
		clips = append(clips, Clip{Index: i, Path: path, Duration: duration})
	}

	return clips, nil
}

// truncateStderr keeps error context readable when ffmpeg is chatty.
func truncateStderr(out string) string {
	out = strings.TrimSpace(out)
	if len(out) > 500 {
		return out[len(out)-500:]
	}
	return out
}

// IsAllowedExtension reports whether the upload filename carries one of the
// configured media extensions.
func IsAllowedExtension(filename string, allowed []string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return false
	}
	for _, a := range allowed {
		if ext == strings.ToLower(a) {
			return true
		}
	}
	return false
}
