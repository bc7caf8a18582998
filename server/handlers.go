package server

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"

	"github.com/mrsingh-rishi/voice-notes/auth"
	"github.com/mrsingh-rishi/voice-notes/llm"
	"github.com/mrsingh-rishi/voice-notes/model"
	"github.com/mrsingh-rishi/voice-notes/types"
)

func fail(c *fiber.Ctx, status int, msg, details string) error {
	return c.Status(status).JSON(types.ErrorResponse{Error: msg, Details: details})
}

// authenticate resolves the bearer token to a user id. Websocket clients
// that cannot set headers may pass the token as access_token.
func (s *Server) authenticate(c *fiber.Ctx) error {
	token, err := auth.BearerToken(c.Get(fiber.HeaderAuthorization))
	if errors.Is(err, auth.ErrMissingToken) {
		if q := c.Query("access_token"); q != "" {
			token, err = q, nil
		}
	}
	if err != nil {
		if errors.Is(err, auth.ErrMissingToken) {
			return fail(c, fiber.StatusUnauthorized, "Missing authorization", "")
		}
		return fail(c, fiber.StatusUnauthorized, "Unauthorized", "")
	}

	userID, err := s.cfg.Verifier.Verify(token)
	if err != nil {
		s.logger.Debug("rejected token", "error", err)
		return fail(c, fiber.StatusUnauthorized, "Unauthorized", "")
	}
	c.Locals(localUserID, userID)
	return c.Next()
}

func userID(c *fiber.Ctx) string {
	id, _ := c.Locals(localUserID).(string)
	return id
}

func (s *Server) processNote(c *fiber.Ctx) error {
	var req types.ProcessNoteRequest
	if err := c.BodyParser(&req); err != nil || !req.Complete() {
		return fail(c, fiber.StatusBadRequest, "Missing required fields", "")
	}

	uid := userID(c)
	res, err := s.cfg.Structurer.Structure(c.UserContext(), llm.Request{
		AudioBase64:  req.AudioBase64,
		MimeType:     req.MimeType,
		SystemPrompt: req.SystemPrompt,
		Structure:    req.Structure,
	})
	if err != nil {
		return s.structuringFailed(c, err)
	}

	s.recordUsage(c, uid, res)
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(fiber.StatusOK).Send(res.Output)
}

func (s *Server) recordUsage(c *fiber.Ctx, uid string, res llm.Result) {
	usage := model.TokenUsage{UserID: uid, InputTokens: res.InputTokens, OutputTokens: res.OutputTokens}
	if err := s.cfg.Store.RecordUsage(c.UserContext(), usage); err != nil {
		s.logger.Warn("recording token usage", "user_id", uid, "error", err)
	}
}

func (s *Server) structuringFailed(c *fiber.Ctx, err error) error {
	var upstream *llm.UpstreamError
	switch {
	case errors.As(err, &upstream):
		s.logger.Error("model API error", "service", upstream.Service, "status", upstream.StatusCode, "body", upstream.Body)
		return fail(c, fiber.StatusBadGateway, upstream.Service+" API request failed", upstream.Body)
	case errors.Is(err, llm.ErrCredential):
		s.logger.Error("obtaining service credential", "error", err)
		return fail(c, fiber.StatusBadGateway, "Failed to obtain access token", err.Error())
	case errors.Is(err, llm.ErrInvalidAudio):
		return fail(c, fiber.StatusBadRequest, "Invalid audio", err.Error())
	default:
		s.logger.Error("processing note", "error", err)
		return fail(c, fiber.StatusInternalServerError, "Internal error", err.Error())
	}
}

func (s *Server) listNotes(c *fiber.Ctx) error {
	list, err := s.cfg.Store.Load(c.UserContext(), userID(c))
	if err != nil {
		s.logger.Error("loading notes", "error", err)
		return fail(c, fiber.StatusInternalServerError, "Failed to load notes", err.Error())
	}
	if list == nil {
		list = []model.Note{}
	}
	return c.JSON(list)
}

func (s *Server) createNote(c *fiber.Ctx) error {
	var req types.CreateNoteRequest
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.StructuredTranscript) == "" {
		return fail(c, fiber.StatusBadRequest, "Missing required fields", "")
	}

	note, err := s.cfg.Store.Create(c.UserContext(), userID(c), req.StructuredTranscript, req.DurationSeconds, req.Title)
	if err != nil {
		s.logger.Error("creating note", "error", err)
		return fail(c, fiber.StatusInternalServerError, "Failed to save note", err.Error())
	}
	return c.Status(fiber.StatusCreated).JSON(note)
}

func (s *Server) deleteNote(c *fiber.Ctx) error {
	if err := s.cfg.Store.Delete(c.UserContext(), userID(c), c.Params("id")); err != nil {
		s.logger.Error("deleting note", "error", err)
		return fail(c, fiber.StatusInternalServerError, "Failed to delete note", err.Error())
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) summary(c *fiber.Ctx) error {
	uid := userID(c)
	if _, err := s.cfg.Store.Load(c.UserContext(), uid); err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to load notes", err.Error())
	}
	return c.JSON(s.cfg.Store.Summary(uid))
}

func (s *Server) usage(c *fiber.Ctx) error {
	total, err := s.cfg.Store.Usage(c.UserContext(), userID(c))
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "Failed to load usage", err.Error())
	}
	total.UserID = ""
	return c.JSON(total)
}
