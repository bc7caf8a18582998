// Package server exposes the structuring service, the notes API and the
// /record websocket over fiber.
package server

import (
	"log/slog"
	"net"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/mrsingh-rishi/voice-notes/auth"
	"github.com/mrsingh-rishi/voice-notes/llm"
	"github.com/mrsingh-rishi/voice-notes/notes"
	"github.com/mrsingh-rishi/voice-notes/session"
)

const (
	localUserID = "user_id"
	bodyLimit   = 32 * 1024 * 1024
)

type Config struct {
	Verifier   *auth.Verifier
	Structurer llm.Structurer
	Store      *notes.Store
	// Prompt and Structure are used for recordings made over /record.
	Prompt    string
	Structure map[string]interface{}
	Session   session.Options
	Logger    *slog.Logger
}

type Server struct {
	app    *fiber.App
	cfg    Config
	logger *slog.Logger
}

func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Session.Logger == nil {
		cfg.Session.Logger = logger
	}
	s := &Server{
		app: fiber.New(fiber.Config{
			DisableStartupMessage: true,
			BodyLimit:             bodyLimit,
		}),
		cfg:    cfg,
		logger: logger.With("component", "server"),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	app := s.app
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "authorization, x-client-info, apikey, content-type",
	}))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.Post("/process-note", s.authenticate, s.processNote)
	app.Get("/notes", s.authenticate, s.listNotes)
	app.Post("/notes", s.authenticate, s.createNote)
	app.Get("/notes/summary", s.authenticate, s.summary)
	app.Delete("/notes/:id", s.authenticate, s.deleteNote)
	app.Get("/usage", s.authenticate, s.usage)

	// Require a websocket upgrade on /record
	app.Use("/record", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/record", s.authenticate, websocket.New(s.record))
}

// App returns the fiber application, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen(addr string) error {
	s.logger.Info("listening", "addr", addr)
	return s.app.Listen(addr)
}

func (s *Server) Listener(ln net.Listener) error {
	return s.app.Listener(ln)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
