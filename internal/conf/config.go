// config.go: settings struct and functions to load and access application settings.
package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/speechlens/speechlens-go/internal/errors"
)

// LogSettings contains settings for a rotating log output.
type LogSettings struct {
	Enabled bool   // true to enable this log output
	Path    string // path to log file
}

// MainSettings contains top level application settings.
type MainSettings struct {
	Name  string      // node name, included in structured logs
	Debug bool        // true to enable debug output
	Log   LogSettings // main log settings
}

// MediaSettings contains settings for audio extraction and segmentation.
type MediaSettings struct {
	FfmpegPath        string   // path to ffmpeg binary
	FfprobePath       string   // path to ffprobe binary
	ClipDuration      float64  // target clip duration in seconds
	ScratchDir        string   // base directory for per-request scratch dirs
	AllowedExtensions []string // allowed upload file extensions
}

// ServiceSettings contains connection settings for one external collaborator.
type ServiceSettings struct {
	URL     string        // service endpoint URL, empty disables the service
	APIKey  string        // API key, if the service requires one
	Model   string        // model identifier, if the service supports selection
	Timeout time.Duration // per-call timeout
}

// ServicesSettings groups the external collaborator endpoints.
type ServicesSettings struct {
	Emotion       ServiceSettings // emotion classification service
	Transcription ServiceSettings // speech-to-text service
	TTS           ServiceSettings // text-to-speech service
	Feedback      ServiceSettings // LLM coaching feedback service
}

// PipelineSettings controls per-request analysis concurrency.
type PipelineSettings struct {
	Workers int // max concurrent adapter calls per request, 0 = NumCPU
}

// MetricsSettings carries the coaching-heuristic constants. They are
// configuration, not load-bearing magic numbers.
type MetricsSettings struct {
	ClarityWordsPerSegment float64 // words per segment that maps to a clarity score of 100
	VersatilityCeiling     int     // distinct emotions that map to a versatility score of 100
	FastWPS                float64 // segments above this rate are flagged fast
	SlowWPS                float64 // segments below this rate are flagged slow
	FillerRatio            float64 // filler words above this share of segment words are flagged
}

// SQLiteSettings contains settings for the SQLite database.
type SQLiteSettings struct {
	Enabled bool
	Path    string
}

// MySQLSettings contains settings for the MySQL database.
type MySQLSettings struct {
	Enabled  bool
	Username string
	Password string
	Database string
	Host     string
	Port     string
}

// OutputSettings contains settings for result persistence.
type OutputSettings struct {
	SQLite SQLiteSettings
	MySQL  MySQLSettings
}

// WebServerSettings contains settings for the HTTP API.
type WebServerSettings struct {
	Enabled      bool
	Port         string
	MaxUploadMB  int // multipart upload size limit in megabytes
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Settings is the root configuration structure.
type Settings struct {
	Main      MainSettings
	Media     MediaSettings
	Services  ServicesSettings
	Pipeline  PipelineSettings
	Metrics   MetricsSettings
	Output    OutputSettings
	WebServer WebServerSettings

	// Input holds the CLI file analysis target, runtime value not persisted.
	Input struct {
		Path string `yaml:"-"`
	} `yaml:"-"`
}

var (
	settingsInstance *Settings
	once             sync.Once
	settingsMutex    sync.RWMutex
)

// Load reads the configuration into the singleton Settings instance.
func Load() (*Settings, error) {
	settings := &Settings{}

	initViper()

	if err := viper.Unmarshal(settings); err != nil {
		return nil, errors.Newf("error unmarshaling config into struct: %v", err).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, err
	}

	settingsMutex.Lock()
	settingsInstance = settings
	settingsMutex.Unlock()

	return settings, nil
}

// initViper sets defaults, config paths and environment binding.
func initViper() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths := getDefaultConfigPaths()
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	viper.SetEnvPrefix("SPEECHLENS")
	viper.AutomaticEnv()

	setDefaults()

	// A missing config file is fine, defaults and env cover it.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "warning: config file found but not readable: %v\n", err)
		}
	}
}

// getDefaultConfigPaths returns config search paths for the current platform.
func getDefaultConfigPaths() []string {
	paths := []string{"."}
	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(homeDir, ".config", "speechlens"))
	}
	paths = append(paths, "/etc/speechlens")
	return paths
}

// Setting returns the current settings instance, loading it on first use.
func Setting() *Settings {
	once.Do(func() {
		if settingsInstance == nil {
			if _, err := Load(); err != nil {
				panic(fmt.Sprintf("error loading settings: %v", err))
			}
		}
	})
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// ValidateSettings checks settings for obvious misconfiguration.
func ValidateSettings(settings *Settings) error {
	if settings.Media.ClipDuration <= 0 {
		return errors.Newf("media clip duration must be positive, got %v", settings.Media.ClipDuration).
			Component("conf").
			Category(errors.CategoryValidation).
			Context("clipduration", settings.Media.ClipDuration).
			Build()
	}
	if settings.Pipeline.Workers < 0 {
		return errors.Newf("pipeline workers must not be negative, got %d", settings.Pipeline.Workers).
			Component("conf").
			Category(errors.CategoryValidation).
			Build()
	}
	if settings.Metrics.VersatilityCeiling <= 0 {
		return errors.Newf("metrics versatility ceiling must be positive, got %d", settings.Metrics.VersatilityCeiling).
			Component("conf").
			Category(errors.CategoryValidation).
			Build()
	}
	if settings.Metrics.ClarityWordsPerSegment <= 0 {
		return errors.Newf("metrics clarity words-per-segment must be positive, got %v", settings.Metrics.ClarityWordsPerSegment).
			Component("conf").
			Category(errors.CategoryValidation).
			Build()
	}
	if settings.Output.SQLite.Enabled && settings.Output.MySQL.Enabled {
		return errors.Newf("only one database output may be enabled at a time").
			Component("conf").
			Category(errors.CategoryValidation).
			Build()
	}
	return nil
}
