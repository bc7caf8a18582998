package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	verbose   bool
	serverURL string
	token     string
)

var rootCmd = &cobra.Command{
	Use:   "voice-notes",
	Short: "Record voice memos and turn them into structured notes",
	Long: `voice-notes records spoken memos, sends them to a generative model that
structures them into titled Markdown notes, and keeps each user's notes.

Run "voice-notes serve" for the service; the other commands are its clients.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", envOr("VOICE_NOTES_URL", "http://localhost:8080"), "Service base URL")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("VOICE_NOTES_TOKEN"), "Bearer token (see the token command)")
}
