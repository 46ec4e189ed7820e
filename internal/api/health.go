package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HealthCheck reports process liveness and which external collaborators are
// configured. A missing collaborator is a degraded mode, not an error.
func (c *Controller) HealthCheck(ctx echo.Context) error {
	services := map[string]string{
		"emotion":       availability(c.Settings.Services.Emotion.URL),
		"transcription": availability(c.Settings.Services.Transcription.URL),
		"tts":           availability(c.Settings.Services.TTS.URL),
		"feedback":      availability(c.Settings.Services.Feedback.URL),
	}

	database := "disabled"
	if c.DS != nil {
		database = "available"
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"status":   "ok",
		"services": services,
		"database": database,
	})
}

func availability(url string) string {
	if url == "" {
		return "unavailable"
	}
	return "available"
}
