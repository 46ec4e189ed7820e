package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/speechlens/speechlens-go/internal/conf"
	"github.com/speechlens/speechlens-go/internal/logging"
)

// DeepgramClient transcribes clips with a Deepgram-compatible
// speech-to-text HTTP API.
type DeepgramClient struct {
	url    string
	apiKey string
	model  string
	client *http.Client
	logger *slog.Logger
}

// NewDeepgramClient builds a transcriber from service settings. An empty URL
// yields an unavailable transcriber, the pipeline then produces an
// emotion-only timeline.
func NewDeepgramClient(settings *conf.ServiceSettings) *DeepgramClient {
	logger := logging.ForService("transcribe")
	if logger == nil {
		logger = slog.Default().With("service", "transcribe")
	}
	return &DeepgramClient{
		url:    settings.URL,
		apiKey: settings.APIKey,
		model:  settings.Model,
		client: &http.Client{Timeout: settings.Timeout},
		logger: logger,
	}
}

// IsAvailable reports whether the transcriber has a configured endpoint.
func (d *DeepgramClient) IsAvailable() bool {
	return d.url != ""
}

// listenResponse mirrors the provider's pre-recorded transcription shape.
type listenResponse struct {
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string `json:"transcript"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

// Transcribe uploads one clip's bytes and returns the transcript text,
// which may be empty when the clip holds no speech.
func (d *DeepgramClient) Transcribe(ctx context.Context, clipPath string) (string, error) {
	if !d.IsAvailable() {
		return "", fmt.Errorf("transcription service not configured")
	}

	fd, err := os.Open(clipPath)
	if err != nil {
		return "", err
	}
	defer fd.Close()

	params := url.Values{}
	params.Set("model", d.model)
	params.Set("language", "en")
	params.Set("smart_format", "true")
	params.Set("punctuate", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url+"/v1/listen?"+params.Encode(), fd)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "audio/wav")
	if d.apiKey != "" {
		req.Header.Set("Authorization", "Token "+d.apiKey)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("transcribe %s: %s", resp.Status, string(body))
	}

	var out listenResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("transcribe decode: %w", err)
	}

	transcript := ""
	if len(out.Results.Channels) > 0 && len(out.Results.Channels[0].Alternatives) > 0 {
		transcript = strings.TrimSpace(out.Results.Channels[0].Alternatives[0].Transcript)
	}

	d.logger.Debug("transcribed clip", "clip", filepath.Base(clipPath), "words", WordCount(transcript))
	return transcript, nil
}
