// defaults.go viper default values for all settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaults initializes viper with default configuration values.
func setDefaults() {
	// Main
	viper.SetDefault("main.name", "speechlens")
	viper.SetDefault("main.debug", false)
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "logs/speechlens.log")

	// Media
	viper.SetDefault("media.ffmpegpath", "ffmpeg")
	viper.SetDefault("media.ffprobepath", "ffprobe")
	viper.SetDefault("media.clipduration", 5.0)
	viper.SetDefault("media.scratchdir", "")
	viper.SetDefault("media.allowedextensions", []string{".mp4", ".mov", ".avi", ".webm", ".mp3", ".wav"})

	// External services
	viper.SetDefault("services.emotion.url", "")
	viper.SetDefault("services.emotion.timeout", 30*time.Second)
	viper.SetDefault("services.transcription.url", "")
	viper.SetDefault("services.transcription.model", "nova-2")
	viper.SetDefault("services.transcription.timeout", 60*time.Second)
	viper.SetDefault("services.tts.url", "")
	viper.SetDefault("services.tts.model", "aura-asteria-en")
	viper.SetDefault("services.tts.timeout", 60*time.Second)
	viper.SetDefault("services.feedback.url", "")
	viper.SetDefault("services.feedback.model", "gemini-2.5-flash")
	viper.SetDefault("services.feedback.timeout", 90*time.Second)

	// Pipeline
	viper.SetDefault("pipeline.workers", 4)

	// Coaching heuristics
	viper.SetDefault("metrics.claritywordspersegment", 20.0)
	viper.SetDefault("metrics.versatilityceiling", 5)
	viper.SetDefault("metrics.fastwps", 3.0)
	viper.SetDefault("metrics.slowwps", 1.0)
	viper.SetDefault("metrics.fillerratio", 0.2)

	// Output
	viper.SetDefault("output.sqlite.enabled", true)
	viper.SetDefault("output.sqlite.path", "speechlens.db")
	viper.SetDefault("output.mysql.enabled", false)
	viper.SetDefault("output.mysql.username", "speechlens")
	viper.SetDefault("output.mysql.password", "")
	viper.SetDefault("output.mysql.database", "speechlens")
	viper.SetDefault("output.mysql.host", "localhost")
	viper.SetDefault("output.mysql.port", "3306")

	// Web server
	viper.SetDefault("webserver.enabled", true)
	viper.SetDefault("webserver.port", "8080")
	viper.SetDefault("webserver.maxuploadmb", 256)
	viper.SetDefault("webserver.readtimeout", 5*time.Minute)
	viper.SetDefault("webserver.writetimeout", 5*time.Minute)
}
