package server

import (
	"context"

	"github.com/gofiber/websocket/v2"

	"github.com/mrsingh-rishi/voice-notes/client"
	"github.com/mrsingh-rishi/voice-notes/model"
	"github.com/mrsingh-rishi/voice-notes/session"
	"github.com/mrsingh-rishi/voice-notes/workers"
)

// record runs one recording session. Recordings are structured in-process
// with the same backend as /process-note.
func (s *Server) record(ws *websocket.Conn) {
	uid, _ := ws.Locals(localUserID).(string)
	logger := s.logger.With("user_id", uid)
	logger.Info("recording session connected")

	invoker := &client.LocalInvoker{
		Structurer: s.cfg.Structurer,
		OnUsage: func(ctx context.Context, input, output int) {
			usage := model.TokenUsage{UserID: uid, InputTokens: input, OutputTokens: output}
			if err := s.cfg.Store.RecordUsage(ctx, usage); err != nil {
				logger.Warn("recording token usage", "error", err)
			}
		},
	}
	processor := client.New(invoker,
		client.WithPrompt(s.cfg.Prompt),
		client.WithStructure(s.cfg.Structure),
		client.WithLogger(s.logger),
	)
	pipeline := workers.NewNotePipeline(uid, processor, s.cfg.Store, s.logger)

	session.New(ws, uid, pipeline, s.cfg.Session).Run(context.Background())
	logger.Info("recording session closed")
}
