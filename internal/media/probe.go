package media

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/go-audio/wav"
)

// defaultProbeTimeout bounds a single ffprobe invocation.
const defaultProbeTimeout = 5 * time.Second

// Duration uses ffprobe to get the duration of an audio file in seconds.
// This supports all formats that ffprobe can handle (AAC, MP3, M4A, OGG, FLAC, WAV, etc.)
// The context allows for cancellation and timeout to prevent hanging.
func Duration(ctx context.Context, ffprobePath, audioPath string) (float64, error) {
	if audioPath == "" {
		return 0, fmt.Errorf("audio path cannot be empty")
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}

	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), defaultProbeTimeout)
		defer cancel()
	}

	// -v error: suppress all output except errors
	// -show_entries format=duration: only show duration from format section
	// -of default=noprint_wrappers=1:nokey=1: output just the value, no formatting
	cmd := exec.CommandContext(ctx, ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		audioPath)

	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			if ctx.Err() == context.DeadlineExceeded {
				return 0, fmt.Errorf("ffprobe timed out for file %s: %w", audioPath, ctx.Err())
			}
			return 0, fmt.Errorf("ffprobe canceled: %w", ctx.Err())
		}
		return 0, fmt.Errorf("ffprobe failed for file %s: %w (stderr: %s)", audioPath, err, strings.TrimSpace(stderr.String()))
	}

	durationStr := strings.TrimSpace(out.String())
	if durationStr == "" || durationStr == "N/A" {
		return 0, fmt.Errorf("ffprobe returned no duration for file %s", audioPath)
	}

	duration, err := strconv.ParseFloat(durationStr, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse ffprobe duration %q: %w", durationStr, err)
	}
	if duration < 0 {
		return 0, fmt.Errorf("ffprobe returned negative duration %f for file %s", duration, audioPath)
	}

	return duration, nil
}

// WAVDuration reads the WAV header of a clip and derives its duration from
// the sample count. Clips written by the segmenter are always WAV, so this
// avoids spawning one ffprobe process per clip.
func WAVDuration(path string) (float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	decoder := wav.NewDecoder(file)
	decoder.ReadInfo()

	if !decoder.IsValidFile() {
		return 0, fmt.Errorf("invalid WAV file format: %s", path)
	}
	if decoder.BitDepth != 16 && decoder.BitDepth != 24 && decoder.BitDepth != 32 {
		return 0, fmt.Errorf("unsupported bit depth: %d", decoder.BitDepth)
	}
	if decoder.NumChans != 1 && decoder.NumChans != 2 {
		return 0, fmt.Errorf("unsupported number of channels: %d", decoder.NumChans)
	}
	if decoder.SampleRate == 0 {
		return 0, fmt.Errorf("WAV file reports zero sample rate: %s", path)
	}

	fileInfo, err := file.Stat()
	if err != nil {
		return 0, err
	}

	bytesPerSample := int64(decoder.BitDepth / 8)
	dataBytes := fileInfo.Size() - wavHeaderSize
	if dataBytes < 0 {
		dataBytes = 0
	}
	totalSamples := dataBytes / bytesPerSample / int64(decoder.NumChans)

	return float64(totalSamples) / float64(decoder.SampleRate), nil
}

// wavHeaderSize is the canonical PCM WAV header length. Files with extra
// chunks overestimate duration slightly, which is acceptable for clip-level
// probing.
const wavHeaderSize = 44
