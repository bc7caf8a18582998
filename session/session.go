package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/mrsingh-rishi/voice-notes/capture"
	"github.com/mrsingh-rishi/voice-notes/model"
	"github.com/mrsingh-rishi/voice-notes/types"
	"github.com/mrsingh-rishi/voice-notes/workers"
)

// Conn is the part of a websocket connection a session uses.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Options tunes the session's recorder.
type Options struct {
	ChunkInterval time.Duration
	TickInterval  time.Duration
	Logger        *slog.Logger
}

// Session is one client recording notes over a websocket. Text frames carry
// control events and binary frames carry audio.
type Session struct {
	userID   string
	ws       Conn
	device   *capture.FeedDevice
	recorder *capture.Recorder
	pipeline *workers.NotePipeline
	logger   *slog.Logger

	writeMu sync.Mutex
	stops   sync.WaitGroup
}

func New(ws Conn, userID string, pipeline *workers.NotePipeline, opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		userID:   userID,
		ws:       ws,
		device:   capture.NewFeedDevice(),
		pipeline: pipeline,
		logger:   logger.With("component", "session", "user_id", userID),
	}
	s.recorder = capture.NewRecorder(s.device, capture.Options{
		ChunkInterval: opts.ChunkInterval,
		TickInterval:  opts.TickInterval,
		Logger:        logger,
		OnStatus: func(st capture.Status) {
			s.send(types.SessionEvent{Event: types.EventStatus, Status: string(st)})
		},
		OnTick: func(elapsed time.Duration) {
			s.send(types.SessionEvent{Event: types.EventTick, Elapsed: elapsed.Seconds()})
		},
		OnError: func(err error) {
			s.sendError(err)
		},
		OnFinished: s.finish,
	})
	return s
}

// Run reads from the connection until the peer goes away. A recording in
// progress is discarded; one being processed is still saved.
func (s *Session) Run(ctx context.Context) {
	defer s.cleanup()
	s.send(types.SessionEvent{Event: types.EventStatus, Status: string(capture.StatusIdle)})

	for {
		mt, msg, err := s.ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("websocket closed", "error", err)
			} else {
				s.logger.Warn("websocket read error", "error", err)
			}
			return
		}

		if mt == websocket.BinaryMessage {
			s.device.Write(msg)
			continue
		}

		var ev types.SessionEvent
		if err := json.Unmarshal(msg, &ev); err != nil {
			s.logger.Warn("malformed event", "error", err)
			s.send(types.SessionEvent{Event: types.EventError, Error: "malformed event"})
			continue
		}

		switch ev.Event {
		case types.EventStart:
			if s.recorder.Status() != capture.StatusIdle {
				continue
			}
			s.device.SetMimeType(ev.MimeType)
			if err := s.recorder.Start(ctx); err != nil {
				s.sendError(err)
			}

		case types.EventStop:
			if s.recorder.Status() != capture.StatusRecording {
				continue
			}
			s.stops.Add(1)
			go func() {
				defer s.stops.Done()
				if err := s.recorder.Stop(ctx); err != nil {
					s.sendError(err)
				}
			}()

		case types.EventDiscard:
			if err := s.recorder.Discard(); err != nil {
				s.logger.Warn("discarding recording", "error", err)
			}

		default:
			s.logger.Debug("unknown event", "event", ev.Event)
		}
	}
}

func (s *Session) finish(ctx context.Context, rec model.Recording) error {
	note, err := s.pipeline.Submit(ctx, rec)
	if err != nil {
		return err
	}
	s.send(types.SessionEvent{Event: types.EventNote, Note: &note})
	return nil
}

func (s *Session) cleanup() {
	s.device.Detach()
	if err := s.recorder.Close(); err != nil {
		s.logger.Warn("closing recorder", "error", err)
	}
	s.stops.Wait()
	s.ws.Close()
}

func (s *Session) sendError(err error) {
	s.send(types.SessionEvent{Event: types.EventError, Error: err.Error()})
}

func (s *Session) send(ev types.SessionEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		s.logger.Error("encoding event", "error", err)
		return
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		s.logger.Debug("writing event", "event", ev.Event, "error", err)
	}
}
