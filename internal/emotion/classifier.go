package emotion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/speechlens/speechlens-go/internal/conf"
	"github.com/speechlens/speechlens-go/internal/logging"
)

// Classifier labels a single audio clip. Implementations hold no cross-clip
// state, calls are independent and order-insensitive.
type Classifier interface {
	Classify(ctx context.Context, clipPath string) (Label, error)
	IsAvailable() bool
}

// HTTPClassifier calls an external emotion-classification service that
// accepts a WAV clip and returns a label.
type HTTPClassifier struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

// NewHTTPClassifier builds a classifier from service settings. An empty URL
// yields an unavailable classifier, callers degrade clips to Unknown.
func NewHTTPClassifier(settings *conf.ServiceSettings) *HTTPClassifier {
	logger := logging.ForService("emotion")
	if logger == nil {
		logger = slog.Default().With("service", "emotion")
	}
	return &HTTPClassifier{
		url:    settings.URL,
		client: &http.Client{Timeout: settings.Timeout},
		logger: logger,
	}
}

// IsAvailable reports whether the classifier has a configured endpoint.
func (c *HTTPClassifier) IsAvailable() bool {
	return c.url != ""
}

type classifyResponse struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Classify uploads one clip and returns the predicted label.
func (c *HTTPClassifier) Classify(ctx context.Context, clipPath string) (Label, error) {
	if !c.IsAvailable() {
		return Unknown, fmt.Errorf("emotion classifier not configured")
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	fw, err := writer.CreateFormFile("file", filepath.Base(clipPath))
	if err != nil {
		return Unknown, err
	}
	fd, err := os.Open(clipPath)
	if err != nil {
		return Unknown, err
	}
	defer fd.Close()

	if _, err = io.Copy(fw, fd); err != nil {
		return Unknown, err
	}
	if err = writer.Close(); err != nil {
		return Unknown, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/classify", &body)
	if err != nil {
		return Unknown, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return Unknown, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return Unknown, fmt.Errorf("classify %s: %s", resp.Status, string(respBody))
	}

	var out classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Unknown, fmt.Errorf("classify decode: %w", err)
	}
	if out.Label == "" {
		return Unknown, fmt.Errorf("classify returned empty label")
	}

	c.logger.Debug("classified clip", "clip", filepath.Base(clipPath), "label", out.Label, "score", out.Score)
	return Label(out.Label), nil
}
