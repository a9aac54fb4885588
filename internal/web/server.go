// Package web exposes the assistant over HTTP.
package web

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// SessionPort is the web-facing subset of the session.
type SessionPort interface {
	Ask(ctx context.Context, question string) string
	Configured() bool
	HasStores() bool
}

// Server wires the chat endpoints onto a fiber app.
type Server struct {
	app     *fiber.App
	session SessionPort
	log     *zap.Logger
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type statusResponse struct {
	APIConfigured bool   `json:"api_configured"`
	DataExists    bool   `json:"data_exists"`
	Status        string `json:"status"`
}

// New creates the HTTP server around a session.
func New(session SessionPort, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		app:     fiber.New(fiber.Config{DisableStartupMessage: true}),
		session: session,
		log:     log,
	}
	s.app.Post("/api/chat", s.handleChat)
	s.app.Get("/api/status", s.handleStatus)
	return s
}

// Listen blocks serving on addr.
func (s *Server) Listen(addr string) error {
	s.log.Info("http server listening", zap.String("addr", addr))
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error { return s.app.Shutdown() }

// handleChat answers one question. The session never fails, so the handler
// only rejects empty input; everything else is a 200 with a text answer.
func (s *Server) handleChat(c *fiber.Ctx) error {
	var req chatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(chatResponse{
			Success: false,
			Message: "Cuerpo de la solicitud inválido.",
		})
	}
	if req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(chatResponse{
			Success: false,
			Message: "No se proporcionó ninguna pregunta.",
		})
	}
	answer := s.session.Ask(c.Context(), req.Message)
	return c.JSON(chatResponse{Success: true, Message: answer})
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	configured := s.session.Configured()
	data := s.session.HasStores()
	status := "not_configured"
	if configured && data {
		status = "ready"
	}
	return c.JSON(statusResponse{
		APIConfigured: configured,
		DataExists:    data,
		Status:        status,
	})
}
