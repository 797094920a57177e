package web

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-overstim/pkg/envelope"
	"github.com/teslashibe/go-overstim/pkg/hub"
	"github.com/teslashibe/go-overstim/pkg/subject"
	"github.com/teslashibe/go-overstim/pkg/trigger"
)

// TriggerInfo describes a trigger for one hero.
type TriggerInfo struct {
	ID          trigger.ID        `json:"id"`
	Title       string            `json:"title"`
	Conditional bool              `json:"conditional"`
	Default     envelope.Envelope `json:"default"`
}

// ResponseView is the configured response of one (hero, trigger).
type ResponseView struct {
	Trigger  trigger.ID        `json:"trigger"`
	Envelope envelope.Envelope `json:"envelope"`
	Summary  string            `json:"summary"`
	Span     string            `json:"span"`
	Enabled  bool              `json:"enabled"`
	Custom   bool              `json:"custom"`
}

// ResponseRequest sets a response.
type ResponseRequest struct {
	Envelope string `json:"envelope"`
	Enabled  *bool  `json:"enabled"`
}

// SubjectRequest selects the hero.
type SubjectRequest struct {
	Auto    bool   `json:"auto"`
	Subject string `json:"subject"`
}

// handleStatus returns the latest status snapshot
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.engine.Info())
}

// handleTriggers lists every hero's triggers with their defaults
func (s *Server) handleTriggers(c *fiber.Ctx) error {
	out := make(map[subject.Kind][]TriggerInfo)
	for _, k := range subject.All() {
		for _, id := range trigger.ForSubject(k) {
			out[k] = append(out[k], TriggerInfo{
				ID:          id,
				Title:       id.Title(),
				Conditional: trigger.IsConditional(id),
				Default:     trigger.DefaultEnvelope(k, id),
			})
		}
	}
	return c.JSON(out)
}

// handleResponses returns the configured response of every (hero, trigger)
func (s *Server) handleResponses(c *fiber.Ctx) error {
	overrides, err := s.settings.Overrides(c.UserContext())
	if err != nil {
		return err
	}

	out := make(map[subject.Kind][]ResponseView)
	index := make(map[subject.Kind]map[trigger.ID]int)
	for _, k := range subject.All() {
		index[k] = make(map[trigger.ID]int)
		for _, id := range trigger.ForSubject(k) {
			index[k][id] = len(out[k])
			out[k] = append(out[k], view(id, trigger.DefaultEnvelope(k, id), true, false))
		}
	}
	for _, o := range overrides {
		if i, ok := index[o.Subject][o.Trigger]; ok {
			out[o.Subject][i] = view(o.Trigger, o.Envelope, o.Enabled, true)
		}
	}
	return c.JSON(out)
}

func view(id trigger.ID, env envelope.Envelope, enabled, custom bool) ResponseView {
	return ResponseView{
		Trigger:  id,
		Envelope: env,
		Summary:  env.Summary(),
		Span:     env.Span(),
		Enabled:  enabled,
		Custom:   custom,
	}
}

// handleSetResponse validates and stores a response, then hot-swaps the
// responses of the running engine
func (s *Server) handleSetResponse(c *fiber.Ctx) error {
	k, id, err := params(c)
	if err != nil {
		return err
	}

	var req ResponseRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	env := trigger.DefaultEnvelope(k, id)
	if req.Envelope != "" {
		if env, err = envelope.Parse(req.Envelope); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
	}
	enabled := req.Enabled == nil || *req.Enabled

	if err := s.settings.SetResponse(c.UserContext(), k, id, env, enabled); err != nil {
		if errors.Is(err, envelope.ErrInvalidEnvelope) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return err
	}
	if err := s.reload(c); err != nil {
		return err
	}
	s.logger.Info("response updated", "hero", k.String(), "trigger", id.String(), "envelope", env.String(), "enabled", enabled)
	return c.JSON(view(id, env, enabled, true))
}

// handleResetResponse restores a default response
func (s *Server) handleResetResponse(c *fiber.Ctx) error {
	k, id, err := params(c)
	if err != nil {
		return err
	}
	if err := s.settings.ResetResponse(c.UserContext(), k, id); err != nil {
		return err
	}
	if err := s.reload(c); err != nil {
		return err
	}
	return c.JSON(view(id, trigger.DefaultEnvelope(k, id), true, false))
}

// handleSetSubject stores and applies the hero selection
func (s *Server) handleSetSubject(c *fiber.Ctx) error {
	var req SubjectRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	k := subject.Other
	if req.Subject != "" {
		var err error
		if k, err = subject.Parse(req.Subject); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
	}

	ctx := c.UserContext()
	if err := s.settings.SetSubject(ctx, req.Auto, k); err != nil {
		return err
	}
	r, err := s.settings.Responses(ctx)
	if err != nil {
		return err
	}
	s.engine.UpdateSettings(req.Auto, k, r)
	return c.JSON(fiber.Map{"auto": req.Auto, "subject": k})
}

func (s *Server) reload(c *fiber.Ctx) error {
	r, err := s.settings.Responses(c.UserContext())
	if err != nil {
		return err
	}
	s.engine.UpdateResponses(r)
	return nil
}

func params(c *fiber.Ctx) (subject.Kind, trigger.ID, error) {
	k, err := subject.Parse(c.Params("subject"))
	if err != nil {
		return 0, 0, fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	id, err := trigger.Parse(c.Params("trigger"))
	if err != nil {
		return 0, 0, fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	if !trigger.Supports(k, id) {
		return 0, 0, fiber.NewError(fiber.StatusNotFound, k.Title()+" has no "+id.Title()+" trigger")
	}
	return k, id, nil
}

// handleStatusWS streams every status snapshot
func (s *Server) handleStatusWS(c *websocket.Conn) {
	hub.NewClient(s.statusHub, c).Run()
}
