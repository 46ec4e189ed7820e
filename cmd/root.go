// Package cmd assembles the command-line interface.
package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/speechlens/speechlens-go/cmd/file"
	"github.com/speechlens/speechlens-go/cmd/serve"
	"github.com/speechlens/speechlens-go/internal/conf"
	"github.com/speechlens/speechlens-go/internal/logging"
)

// RootCommand creates and returns the root command with all subcommands.
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "speechlens",
		Short: "SpeechLens speech-coaching analysis",
	}

	setupFlags(rootCmd, settings)

	rootCmd.AddCommand(
		file.Command(settings),
		serve.Command(settings),
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		logging.Init()
		if settings.Main.Debug {
			logging.SetLevel(slog.LevelDebug)
		}
		return nil
	}

	return rootCmd
}

func setupFlags(cmd *cobra.Command, settings *conf.Settings) {
	cmd.PersistentFlags().BoolVarP(&settings.Main.Debug, "debug", "d", settings.Main.Debug, "Enable debug output")
	cmd.PersistentFlags().StringVar(&settings.Media.FfmpegPath, "ffmpeg", settings.Media.FfmpegPath, "Path to ffmpeg binary")
	cmd.PersistentFlags().StringVar(&settings.Media.FfprobePath, "ffprobe", settings.Media.FfprobePath, "Path to ffprobe binary")
	cmd.PersistentFlags().Float64Var(&settings.Media.ClipDuration, "clip-duration", settings.Media.ClipDuration, "Clip duration in seconds")
	cmd.PersistentFlags().IntVar(&settings.Pipeline.Workers, "workers", settings.Pipeline.Workers, "Max concurrent adapter calls per request (0 = NumCPU)")
}
