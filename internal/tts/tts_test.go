package tts

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speechlens/speechlens-go/internal/conf"
)

func newTestSynthesizer(url string) *HTTPSynthesizer {
	return NewHTTPSynthesizer(&conf.ServiceSettings{
		URL:     url,
		APIKey:  "test-key",
		Model:   "aura-asteria-en",
		Timeout: 5 * time.Second,
	})
}

func TestSynthesize(t *testing.T) {
	t.Parallel()

	wavBytes := []byte("RIFF fake wav payload")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/speak", r.URL.Path)
		assert.Equal(t, "aura-asteria-en", r.URL.Query().Get("model"))
		assert.Equal(t, "Token test-key", r.Header.Get("Authorization"))

		var req speakRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "hello listener", req.Text)

		_, _ = w.Write(wavBytes)
	}))
	defer server.Close()

	audio, err := newTestSynthesizer(server.URL).Synthesize(context.Background(), "hello listener")
	require.NoError(t, err)
	assert.Equal(t, wavBytes, audio)
}

func TestSynthesizeEmptyText(t *testing.T) {
	t.Parallel()

	_, err := newTestSynthesizer("http://localhost:1").Synthesize(context.Background(), "   ")
	assert.Error(t, err)
}

func TestSynthesizeEmptyAudio(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	_, err := newTestSynthesizer(server.URL).Synthesize(context.Background(), "something")
	assert.Error(t, err)
}

func TestSynthesizeServerError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "voice not found", http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestSynthesizer(server.URL).Synthesize(context.Background(), "something")
	assert.Error(t, err)
}

func TestSynthesizerUnavailable(t *testing.T) {
	t.Parallel()

	s := NewHTTPSynthesizer(&conf.ServiceSettings{})
	assert.False(t, s.IsAvailable())

	_, err := s.Synthesize(context.Background(), "something")
	assert.Error(t, err)
}

func TestDataURL(t *testing.T) {
	t.Parallel()

	audio := []byte{0x01, 0x02, 0x03}
	url := DataURL(audio)

	require.True(t, strings.HasPrefix(url, "data:audio/wav;base64,"))
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, "data:audio/wav;base64,"))
	require.NoError(t, err)
	assert.Equal(t, audio, decoded)
}
