// Package httpserver exposes the webhook endpoint over HTTP.
package httpserver

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"

	"github.com/moises-herrera/quick-reviewer-backend-sub000/internal/domain"
	"github.com/moises-herrera/quick-reviewer-backend-sub000/internal/usecase/webhook"
)

const (
	headerEvent     = "X-GitHub-Event"
	headerSignature = "X-Hub-Signature-256"
)

// WebhookDispatcher routes one verified delivery to its event handler.
type WebhookDispatcher interface {
	Dispatch(ctx context.Context, eventType webhook.EventType, delivery webhook.Delivery) error
}

// Options configures the HTTP server.
type Options struct {
	// Secret signs inbound webhook payloads.
	Secret string
	// Provider is the API client handed to handlers with each delivery.
	Provider webhook.ProviderClient

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server owns the fiber app and the webhook route.
type Server struct {
	app        *fiber.App
	log        *zap.SugaredLogger
	dispatcher WebhookDispatcher
	opts       Options
}

// New builds the fiber app with its middleware chain and routes.
func New(log *zap.SugaredLogger, dispatcher WebhookDispatcher, opts Options) *Server {
	s := &Server{
		log:        log.Named("http"),
		dispatcher: dispatcher,
		opts:       opts,
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(RequestLogger(s.log))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	app.Post("/api/github/webhooks", s.handleWebhook)

	s.app = app
	return s
}

// handleWebhook verifies, filters and dispatches one delivery. Handler
// failures do not surface as transport errors: the provider retries on
// non-2xx, and replaying a failed delivery is rarely what the system wants.
// The exception is a missing handler for a known event type, which means the
// process is miswired.
func (s *Server) handleWebhook(c *fiber.Ctx) error {
	body := c.Body()

	if !VerifySignature(s.opts.Secret, body, c.Get(headerSignature)) {
		s.log.Warnw("webhook signature rejected", "delivery", c.Get("X-GitHub-Delivery"))
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "invalid signature"})
	}

	eventType := webhook.EventType(c.Get(headerEvent))
	if !webhook.KnownEventType(eventType) {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "event ignored"})
	}

	payload := make([]byte, len(body))
	copy(payload, body)
	delivery := webhook.Delivery{
		Provider: s.opts.Provider,
		Payload:  payload,
	}

	if err := s.dispatcher.Dispatch(c.Context(), eventType, delivery); err != nil {
		if errors.Is(err, domain.ErrNoHandler) {
			s.log.Errorw("no handler registered", "eventType", eventType)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "handler not configured"})
		}
		s.log.Errorw("webhook handler failed", "eventType", eventType, "error", err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "ok"})
}

// Listen blocks serving HTTP on addr.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully drains the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}
