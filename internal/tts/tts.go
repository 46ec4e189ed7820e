// Package tts synthesizes speech from text via an external text-to-speech
// service. Synthesis failures are never fatal, callers treat audio as
// optional.
package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/speechlens/speechlens-go/internal/conf"
	"github.com/speechlens/speechlens-go/internal/logging"
)

// Synthesizer converts text to audio bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
	IsAvailable() bool
}

// HTTPSynthesizer calls a Deepgram-compatible speak endpoint.
type HTTPSynthesizer struct {
	url    string
	apiKey string
	model  string
	client *http.Client
	logger *slog.Logger
}

// NewHTTPSynthesizer builds a synthesizer from service settings.
func NewHTTPSynthesizer(settings *conf.ServiceSettings) *HTTPSynthesizer {
	logger := logging.ForService("tts")
	if logger == nil {
		logger = slog.Default().With("service", "tts")
	}
	return &HTTPSynthesizer{
		url:    settings.URL,
		apiKey: settings.APIKey,
		model:  settings.Model,
		client: &http.Client{Timeout: settings.Timeout},
		logger: logger,
	}
}

// IsAvailable reports whether the synthesizer has a configured endpoint.
func (s *HTTPSynthesizer) IsAvailable() bool {
	return s.url != ""
}

type speakRequest struct {
	Text string `json:"text"`
}

// Synthesize converts text into WAV audio bytes.
func (s *HTTPSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if !s.IsAvailable() {
		return nil, fmt.Errorf("tts service not configured")
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text cannot be empty for speech synthesis")
	}

	payload, err := json.Marshal(speakRequest{Text: text})
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/v1/speak?model=%s&encoding=linear16&sample_rate=24000", s.url, s.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Token "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("speak %s: %s", resp.Status, string(body))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("speak read: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("speak returned empty audio")
	}

	s.logger.Debug("synthesized speech", "chars", len(text), "bytes", len(audio))
	return audio, nil
}

// DataURL wraps raw WAV bytes as a base64 data URL for direct embedding in
// API responses.
func DataURL(audio []byte) string {
	return "data:audio/wav;base64," + base64.StdEncoding.EncodeToString(audio)
}
