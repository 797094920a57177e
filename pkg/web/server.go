// Package web provides the status dashboard and the settings API.
package web

import (
	"context"
	"embed"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-overstim/pkg/controller"
	"github.com/teslashibe/go-overstim/pkg/envelope"
	"github.com/teslashibe/go-overstim/pkg/hub"
	"github.com/teslashibe/go-overstim/pkg/store"
	"github.com/teslashibe/go-overstim/pkg/subject"
	"github.com/teslashibe/go-overstim/pkg/trigger"
)

//go:embed static
var staticFS embed.FS

// Settings persists responses and the hero selection.
type Settings interface {
	Responses(ctx context.Context) (trigger.Responses, error)
	Overrides(ctx context.Context) ([]store.Override, error)
	SetResponse(ctx context.Context, k subject.Kind, id trigger.ID, env envelope.Envelope, enabled bool) error
	ResetResponse(ctx context.Context, k subject.Kind, id trigger.ID) error
	SetSubject(ctx context.Context, auto bool, k subject.Kind) error
}

// Engine is the running controller.
type Engine interface {
	Info() controller.Info
	UpdateResponses(r trigger.Responses)
	UpdateSettings(auto bool, k subject.Kind, r trigger.Responses)
}

// Server is the web dashboard server
type Server struct {
	app      *fiber.App
	addr     string
	settings Settings
	engine   Engine
	logger   *slog.Logger

	statusHub *hub.Hub
}

// NewServer creates a dashboard listening on addr.
func NewServer(addr string, settings Settings, engine Engine, logger *slog.Logger) *Server {
	s := &Server{
		addr:      addr,
		settings:  settings,
		engine:    engine,
		logger:    logger,
		statusHub: hub.New("status", logger),
	}

	app := fiber.New(fiber.Config{
		AppName:               "OverStim",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})

	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/triggers", s.handleTriggers)
	api.Get("/responses", s.handleResponses)
	api.Put("/responses/:subject/:trigger", s.handleSetResponse)
	api.Delete("/responses/:subject/:trigger", s.handleResetResponse)
	api.Put("/subject", s.handleSetSubject)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/status", websocket.New(s.handleStatusWS))

	app.Use("/", filesystem.New(filesystem.Config{
		Root:       http.FS(staticFS),
		PathPrefix: "static",
		Index:      "index.html",
	}))

	s.app = app
	return s
}

// App exposes the fiber app, for tests.
func (s *Server) App() *fiber.App { return s.app }

// Start serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	go s.statusHub.Run(ctx)
	go func() {
		<-ctx.Done()
		_ = s.app.Shutdown()
	}()

	s.logger.Info("web dashboard listening", "url", "http://"+s.addr)
	return s.app.Listen(s.addr)
}

// Publish broadcasts a status snapshot to dashboard clients.
func (s *Server) Publish(info controller.Info) {
	if err := s.statusHub.BroadcastJSON(info); err != nil {
		s.logger.Warn("failed to encode status", "error", err)
	}
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	if code >= fiber.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.Path(), "error", err)
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
