// Package file implements the one-shot file analysis command.
package file

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/speechlens/speechlens-go/internal/analysis"
	"github.com/speechlens/speechlens-go/internal/conf"
	"github.com/speechlens/speechlens-go/internal/emotion"
	"github.com/speechlens/speechlens-go/internal/feedback"
	"github.com/speechlens/speechlens-go/internal/media"
	"github.com/speechlens/speechlens-go/internal/transcribe"
)

// Command creates the file command for analyzing a single media file.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "file [input file]",
		Short: "Analyze a media file",
		Long:  `Run the full analysis pipeline on one video or audio file and print the result as JSON.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings.Input.Path = args[0]
			return runFileAnalysis(cmd, settings)
		},
	}
	return cmd
}

func runFileAnalysis(cmd *cobra.Command, settings *conf.Settings) error {
	if _, err := os.Stat(settings.Input.Path); err != nil {
		return fmt.Errorf("cannot access input file: %w", err)
	}
	if !media.IsAllowedExtension(settings.Input.Path, settings.Media.AllowedExtensions) {
		return fmt.Errorf("unsupported file type: %s", settings.Input.Path)
	}

	pipeline := analysis.New(settings,
		media.NewSegmenter(&settings.Media),
		emotion.NewHTTPClassifier(&settings.Services.Emotion),
		transcribe.NewDeepgramClient(&settings.Services.Transcription),
		feedback.NewLLMClient(&settings.Services.Feedback),
		nil)

	result, err := pipeline.AnalyzeMedia(cmd.Context(), settings.Input.Path)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}
