package api

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/speechlens/speechlens-go/internal/analysis"
	"github.com/speechlens/speechlens-go/internal/datastore"
	"github.com/speechlens/speechlens-go/internal/media"
	"github.com/speechlens/speechlens-go/internal/timeline"
)

// analysisResponse is the wire shape of a full analysis, fresh or replayed
// from the store.
type analysisResponse struct {
	*analysis.Result
	ID         string `json:"id,omitempty"`
	Filename   string `json:"filename"`
	Transcript string `json:"transcript,omitempty"`
}

// analysisSummary is the compact listing shape.
type analysisSummary struct {
	ID              string    `json:"id"`
	Filename        string    `json:"filename"`
	Duration        float64   `json:"duration"`
	DominantEmotion string    `json:"dominant_emotion"`
	AvgWPS          float64   `json:"avg_wps"`
	ClarityScore    float64   `json:"clarity_score"`
	TotalWords      int       `json:"total_words"`
	CreatedAt       time.Time `json:"created_at"`
}

// UploadAndAnalyze accepts a multipart media upload, runs the full analysis
// pipeline and, when the caller identifies a user, persists the result.
func (c *Controller) UploadAndAnalyze(ctx echo.Context) error {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return c.errorResponse(ctx, http.StatusBadRequest, "no file part in request")
	}
	if fileHeader.Filename == "" {
		return c.errorResponse(ctx, http.StatusBadRequest, "no selected file")
	}
	if !media.IsAllowedExtension(fileHeader.Filename, c.Settings.Media.AllowedExtensions) {
		return c.errorResponse(ctx, http.StatusBadRequest, "file type not allowed")
	}

	uploadPath, err := c.saveUpload(fileHeader)
	if err != nil {
		c.logger.Error("failed to store upload", "filename", fileHeader.Filename, "error", err)
		return c.errorResponse(ctx, http.StatusInternalServerError, "failed to store upload")
	}
	defer func() {
		if err := os.Remove(uploadPath); err != nil && !os.IsNotExist(err) {
			c.logger.Warn("failed to remove upload", "path", uploadPath, "error", err)
		}
	}()

	result, err := c.Pipeline.AnalyzeMedia(ctx.Request().Context(), uploadPath)
	if err != nil {
		c.logger.Error("analysis failed", "filename", fileHeader.Filename, "error", err)
		return c.errorResponse(ctx, http.StatusUnprocessableEntity, "analysis failed: "+err.Error())
	}

	response := &analysisResponse{
		Result:     result,
		Filename:   fileHeader.Filename,
		Transcript: timeline.FormatTranscript(result.Timeline),
	}

	if user := c.resolveUser(ctx); user != nil {
		record, err := result.ToRecord(user.ID, fileHeader.Filename)
		if err == nil {
			err = c.DS.SaveAnalysis(record)
		}
		if err != nil {
			c.logger.Error("failed to persist analysis", "user_id", user.ID, "error", err)
			return c.errorResponse(ctx, http.StatusInternalServerError, "failed to persist analysis")
		}
		response.ID = record.PublicID
	}

	return ctx.JSON(http.StatusOK, response)
}

// ListAnalyses returns the identified user's analyses, newest first.
func (c *Controller) ListAnalyses(ctx echo.Context) error {
	user := c.resolveUser(ctx)
	if user == nil {
		return c.errorResponse(ctx, http.StatusUnauthorized, "missing user identity")
	}

	limit, _ := strconv.Atoi(ctx.QueryParam("limit"))
	offset, _ := strconv.Atoi(ctx.QueryParam("offset"))

	records, err := c.DS.GetUserAnalyses(user.ID, limit, offset)
	if err != nil {
		c.logger.Error("failed to list analyses", "user_id", user.ID, "error", err)
		return c.errorResponse(ctx, http.StatusInternalServerError, "failed to list analyses")
	}

	summaries := make([]analysisSummary, 0, len(records))
	for _, r := range records {
		summaries = append(summaries, analysisSummary{
			ID:              r.PublicID,
			Filename:        r.Filename,
			Duration:        r.Duration,
			DominantEmotion: r.DominantEmotion,
			AvgWPS:          r.AvgWPS,
			ClarityScore:    r.ClarityScore,
			TotalWords:      r.TotalWords,
			CreatedAt:       r.CreatedAt,
		})
	}

	return ctx.JSON(http.StatusOK, map[string]any{"analyses": summaries})
}

// GetAnalysis replays one stored analysis. Stored rows are immutable, so
// hydrated responses are cached briefly.
func (c *Controller) GetAnalysis(ctx echo.Context) error {
	publicID := ctx.Param("id")
	if publicID == "" {
		return c.errorResponse(ctx, http.StatusBadRequest, "missing analysis id")
	}
	if c.DS == nil {
		return c.errorResponse(ctx, http.StatusServiceUnavailable, "persistence not configured")
	}

	if cached, found := c.analysisCache.Get(publicID); found {
		return ctx.JSON(http.StatusOK, cached)
	}

	record, err := c.DS.GetAnalysis(publicID)
	if err != nil {
		if datastore.IsNotFound(err) {
			return c.errorResponse(ctx, http.StatusNotFound, "analysis not found")
		}
		c.logger.Error("failed to load analysis", "id", publicID, "error", err)
		return c.errorResponse(ctx, http.StatusInternalServerError, "failed to load analysis")
	}

	response, err := hydrateAnalysis(record)
	if err != nil {
		c.logger.Error("failed to decode stored analysis", "id", publicID, "error", err)
		return c.errorResponse(ctx, http.StatusInternalServerError, "failed to decode stored analysis")
	}

	c.analysisCache.SetDefault(publicID, response)
	return ctx.JSON(http.StatusOK, response)
}

// DeleteAnalysis removes one stored analysis owned by the identified user.
func (c *Controller) DeleteAnalysis(ctx echo.Context) error {
	user := c.resolveUser(ctx)
	if user == nil {
		return c.errorResponse(ctx, http.StatusUnauthorized, "missing user identity")
	}

	publicID := ctx.Param("id")
	if err := c.DS.DeleteAnalysis(publicID, user.ID); err != nil {
		if datastore.IsNotFound(err) {
			return c.errorResponse(ctx, http.StatusNotFound, "analysis not found")
		}
		c.logger.Error("failed to delete analysis", "id", publicID, "error", err)
		return c.errorResponse(ctx, http.StatusInternalServerError, "failed to delete analysis")
	}

	c.analysisCache.Delete(publicID)
	return ctx.NoContent(http.StatusNoContent)
}

// hydrateAnalysis rebuilds the full response from a stored record's JSON
// columns.
func hydrateAnalysis(record *datastore.Analysis) (*analysisResponse, error) {
	result := &analysis.Result{Duration: record.Duration}

	if err := json.Unmarshal(record.Timeline, &result.Timeline); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(record.EmotionMetrics, &result.EmotionMetrics); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(record.ClarityMetrics, &result.ClarityMetrics); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(record.Feedback, &result.Feedback); err != nil {
		return nil, err
	}
	result.TranscriptAvailable = hasTranscript(result.Timeline)

	return &analysisResponse{
		Result:     result,
		ID:         record.PublicID,
		Filename:   record.Filename,
		Transcript: timeline.FormatTranscript(result.Timeline),
	}, nil
}

func hasTranscript(entries []timeline.Entry) bool {
	for _, e := range entries {
		if e.Text != "" {
			return true
		}
	}
	return false
}

// resolveUser maps identity headers to a stored user, creating the record on
// first sight. Returns nil for anonymous requests.
func (c *Controller) resolveUser(ctx echo.Context) *datastore.User {
	subject := ctx.Request().Header.Get("X-User-Subject")
	if subject == "" || c.DS == nil {
		return nil
	}
	user, err := c.DS.GetOrCreateUser(subject,
		ctx.Request().Header.Get("X-User-Email"),
		ctx.Request().Header.Get("X-User-Name"),
		ctx.Request().Header.Get("X-User-Picture"))
	if err != nil {
		c.logger.Warn("failed to resolve user", "subject", subject, "error", err)
		return nil
	}
	return user
}

// saveUpload copies the multipart file into scratch storage under a unique
// name and returns the path.
func (c *Controller) saveUpload(fileHeader *multipart.FileHeader) (string, error) {
	src, err := fileHeader.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	base := c.Settings.Media.ScratchDir
	if base == "" {
		base = os.TempDir()
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return "", err
	}

	path := filepath.Join(base, uuid.NewString()+filepath.Ext(fileHeader.Filename))
	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

func (c *Controller) errorResponse(ctx echo.Context, code int, message string) error {
	return ctx.JSON(code, map[string]string{"error": message})
}
