package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"

	"github.com/mrsingh-rishi/voice-notes/auth"
	"github.com/mrsingh-rishi/voice-notes/client"
	"github.com/mrsingh-rishi/voice-notes/config"
	"github.com/mrsingh-rishi/voice-notes/llm"
	"github.com/mrsingh-rishi/voice-notes/notes"
	"github.com/mrsingh-rishi/voice-notes/server"
	"github.com/mrsingh-rishi/voice-notes/storage"
	"github.com/mrsingh-rishi/voice-notes/stt"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the structuring service and notes API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		logger := slog.Default()

		verifier, err := auth.NewVerifier(cfg.JWTSecret)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		repo, usage, closer, err := openRepository(ctx, cfg)
		if err != nil {
			return err
		}
		if closer != nil {
			defer closer.Close()
		}

		structurer, err := newStructurer(cfg, logger)
		if err != nil {
			return err
		}

		srv := server.New(server.Config{
			Verifier:   verifier,
			Structurer: structurer,
			Store:      notes.NewStore(repo, usage, logger),
			Prompt:     client.DefaultPrompt,
			Structure:  cfg.Structure,
			Logger:     logger,
		})

		go func() {
			<-ctx.Done()
			logger.Info("shutting down")
			if err := srv.Shutdown(); err != nil {
				logger.Error("shutdown", "error", err)
			}
		}()
		return srv.Listen(":" + cfg.Port)
	},
}

func openRepository(ctx context.Context, cfg *config.Config) (notes.Repository, notes.UsageRepository, io.Closer, error) {
	switch cfg.DatabaseDriver {
	case config.DatabaseSQLite, config.DatabaseMySQL:
		db, err := storage.OpenSQL(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN)
		if err != nil {
			return nil, nil, nil, err
		}
		return db, db, db, nil
	case config.DatabaseBolt:
		db, err := storage.OpenBolt(cfg.DatabaseDSN)
		if err != nil {
			return nil, nil, nil, err
		}
		return db, db, db, nil
	default:
		slog.Warn("using in-memory storage, notes are lost on restart")
		mem := storage.NewMemory()
		return mem, mem, nil, nil
	}
}

func newStructurer(cfg *config.Config, logger *slog.Logger) (llm.Structurer, error) {
	switch cfg.ModelBackend {
	case config.BackendOpenAI:
		oc := openai.NewClient(cfg.OpenAIKey)
		var transcriber stt.Transcriber = stt.NewWhisperClient(oc, "")
		if cfg.STTBackend == config.STTDeepgram {
			dg, err := stt.NewDeepgramClient(cfg.DeepgramKey, logger)
			if err != nil {
				return nil, err
			}
			transcriber = dg
		}
		return llm.NewOpenAIClient(oc, cfg.OpenAIModel, transcriber, logger)

	case config.BackendGemini:
		key, err := llm.ParseServiceAccountKey(cfg.ServiceAccountKey)
		if err != nil {
			return nil, err
		}
		tokens, err := llm.NewServiceAccountTokenSource(key, cfg.CacheServiceTokens)
		if err != nil {
			return nil, err
		}
		return llm.NewGeminiClient(cfg.GCloudProject, cfg.GCloudRegion, cfg.GeminiModel, tokens, logger)
	}
	return nil, errors.Errorf("unknown model backend %q", cfg.ModelBackend)
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
