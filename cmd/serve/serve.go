// Package serve implements the HTTP server command.
package serve

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/speechlens/speechlens-go/internal/analysis"
	"github.com/speechlens/speechlens-go/internal/api"
	"github.com/speechlens/speechlens-go/internal/conf"
	"github.com/speechlens/speechlens-go/internal/datastore"
	"github.com/speechlens/speechlens-go/internal/emotion"
	"github.com/speechlens/speechlens-go/internal/feedback"
	"github.com/speechlens/speechlens-go/internal/logging"
	"github.com/speechlens/speechlens-go/internal/media"
	"github.com/speechlens/speechlens-go/internal/observability"
	"github.com/speechlens/speechlens-go/internal/transcribe"
	"github.com/speechlens/speechlens-go/internal/tts"
)

// Command creates the serve command that runs the HTTP API.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the analysis HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(settings)
		},
	}

	cmd.Flags().StringVar(&settings.WebServer.Port, "port", settings.WebServer.Port, "HTTP listen port")
	return cmd
}

func runServer(settings *conf.Settings) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := datastore.New(settings)
	if store != nil {
		if err := store.Open(); err != nil {
			return fmt.Errorf("failed to open datastore: %w", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				logging.Error("failed to close datastore", "error", err)
			}
		}()
	} else {
		logging.Warn("no database output enabled, analyses will not be persisted")
	}

	obs, err := observability.NewMetrics()
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	pipeline := analysis.New(settings,
		media.NewSegmenter(&settings.Media),
		emotion.NewHTTPClassifier(&settings.Services.Emotion),
		transcribe.NewDeepgramClient(&settings.Services.Transcription),
		feedback.NewLLMClient(&settings.Services.Feedback),
		obs)

	controller, err := api.New(settings, store, pipeline,
		tts.NewHTTPSynthesizer(&settings.Services.TTS), obs)
	if err != nil {
		return fmt.Errorf("failed to create API controller: %w", err)
	}

	logging.Info("speechlens server starting",
		"port", settings.WebServer.Port,
		"clip_duration", settings.Media.ClipDuration)

	return controller.Start(ctx)
}
